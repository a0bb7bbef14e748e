package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
)

// ActivityQuery filters the audit log read surface. Zero values are skipped.
type ActivityQuery struct {
	ProjectID   uuid.UUID
	SubjectType types.SubjectType
	SubjectID   uuid.UUID
	ActorID     uuid.UUID
	From        time.Time
	To          time.Time
}

// ActivityLogRepo is append-only: entries are written once inside the same
// transaction as the state change they record, and never updated or deleted.
type ActivityLogRepo interface {
	Append(ctx context.Context, tx *gorm.DB, entries []*types.ActivityLogEntry) ([]*types.ActivityLogEntry, error)
	List(ctx context.Context, tx *gorm.DB, q ActivityQuery) ([]*types.ActivityLogEntry, error)
	// LatestBySubjectKind returns the newest entry of the given kind for a
	// subject, or nil when none exists. Backs the shop rollback ownership rule.
	LatestBySubjectKind(ctx context.Context, tx *gorm.DB, subjectType types.SubjectType, subjectID uuid.UUID, kind types.TransitionKind) (*types.ActivityLogEntry, error)
}

type activityLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityLogRepo(db *gorm.DB, baseLog *logger.Logger) ActivityLogRepo {
	repoLog := baseLog.With("repo", "ActivityLogRepo")
	return &activityLogRepo{db: db, log: repoLog}
}

func (r *activityLogRepo) Append(ctx context.Context, tx *gorm.DB, entries []*types.ActivityLogEntry) ([]*types.ActivityLogEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(entries) == 0 {
		return []*types.ActivityLogEntry{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *activityLogRepo) List(ctx context.Context, tx *gorm.DB, q ActivityQuery) ([]*types.ActivityLogEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).Model(&types.ActivityLogEntry{})
	if q.ProjectID != uuid.Nil {
		query = query.Where("project_id = ?", q.ProjectID)
	}
	if q.SubjectType != "" {
		query = query.Where("subject_type = ?", q.SubjectType)
	}
	if q.SubjectID != uuid.Nil {
		query = query.Where("subject_id = ?", q.SubjectID)
	}
	if q.ActorID != uuid.Nil {
		query = query.Where("actor_id = ?", q.ActorID)
	}
	if !q.From.IsZero() {
		query = query.Where("created_at >= ?", q.From)
	}
	if !q.To.IsZero() {
		query = query.Where("created_at < ?", q.To)
	}

	var results []*types.ActivityLogEntry
	if err := query.Order("created_at ASC, id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *activityLogRepo) LatestBySubjectKind(ctx context.Context, tx *gorm.DB, subjectType types.SubjectType, subjectID uuid.UUID, kind types.TransitionKind) (*types.ActivityLogEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ActivityLogEntry
	err := transaction.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ? AND kind = ?", subjectType, subjectID, kind).
		Order("created_at DESC, id DESC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
