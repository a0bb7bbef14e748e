package tracking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
)

type CrewAssignmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, crews []*types.CrewAssignment) ([]*types.CrewAssignment, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CrewAssignment, error)
	ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.CrewAssignment, error)
	ReplacePieceMarks(ctx context.Context, tx *gorm.DB, crew *types.CrewAssignment, marks []*types.PieceMark) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.CrewStatus) error
}

type crewAssignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCrewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) CrewAssignmentRepo {
	repoLog := baseLog.With("repo", "CrewAssignmentRepo")
	return &crewAssignmentRepo{db: db, log: repoLog}
}

func (r *crewAssignmentRepo) Create(ctx context.Context, tx *gorm.DB, crews []*types.CrewAssignment) ([]*types.CrewAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(crews) == 0 {
		return []*types.CrewAssignment{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&crews).Error; err != nil {
		return nil, err
	}
	return crews, nil
}

func (r *crewAssignmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CrewAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.CrewAssignment
	if err := transaction.WithContext(ctx).
		Preload("PieceMarks").
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *crewAssignmentRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.CrewAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.CrewAssignment
	if err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("date ASC, shift ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *crewAssignmentRepo) ReplacePieceMarks(ctx context.Context, tx *gorm.DB, crew *types.CrewAssignment, marks []*types.PieceMark) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(crew).
		Association("PieceMarks").
		Replace(marks)
}

func (r *crewAssignmentRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.CrewStatus) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.CrewAssignment{}).
		Where("id = ?", id).
		Update("status", status).Error
}
