package tracking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
)

// PieceMarkQuery filters the project-scoped listing surface.
type PieceMarkQuery struct {
	ProjectID uuid.UUID
	Statuses  []types.Status
	Locations []types.Location
}

type PieceMarkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, marks []*types.PieceMark) ([]*types.PieceMark, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PieceMark, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.PieceMark, error)
	List(ctx context.Context, tx *gorm.DB, q PieceMarkQuery) ([]*types.PieceMark, error)
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type pieceMarkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPieceMarkRepo(db *gorm.DB, baseLog *logger.Logger) PieceMarkRepo {
	repoLog := baseLog.With("repo", "PieceMarkRepo")
	return &pieceMarkRepo{db: db, log: repoLog}
}

func (r *pieceMarkRepo) Create(ctx context.Context, tx *gorm.DB, marks []*types.PieceMark) ([]*types.PieceMark, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(marks) == 0 {
		return []*types.PieceMark{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&marks).Error; err != nil {
		return nil, err
	}
	return marks, nil
}

func (r *pieceMarkRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PieceMark, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.PieceMark
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *pieceMarkRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.PieceMark, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.PieceMark
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pieceMarkRepo) List(ctx context.Context, tx *gorm.DB, q PieceMarkQuery) ([]*types.PieceMark, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).Where("project_id = ?", q.ProjectID)
	if len(q.Statuses) > 0 {
		query = query.Where("status IN ?", q.Statuses)
	}
	if len(q.Locations) > 0 {
		query = query.Where("location IN ?", q.Locations)
	}

	var results []*types.PieceMark
	if err := query.Order("sequence_number ASC, mark ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pieceMarkRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.PieceMark{}).Error; err != nil {
		return err
	}
	return nil
}
