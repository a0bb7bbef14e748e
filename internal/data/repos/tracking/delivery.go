package tracking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
)

type DeliveryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, deliveries []*types.Delivery) ([]*types.Delivery, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Delivery, error)
	GetWithItems(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Delivery, error)
	ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, statuses []types.DeliveryStatus) ([]*types.Delivery, error)
}

type deliveryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeliveryRepo(db *gorm.DB, baseLog *logger.Logger) DeliveryRepo {
	repoLog := baseLog.With("repo", "DeliveryRepo")
	return &deliveryRepo{db: db, log: repoLog}
}

func (r *deliveryRepo) Create(ctx context.Context, tx *gorm.DB, deliveries []*types.Delivery) ([]*types.Delivery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(deliveries) == 0 {
		return []*types.Delivery{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *deliveryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Delivery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Delivery
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *deliveryRepo) GetWithItems(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Delivery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Delivery
	if err := transaction.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *deliveryRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, statuses []types.DeliveryStatus) ([]*types.Delivery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).Where("project_id = ?", projectID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var results []*types.Delivery
	if err := query.Order("scheduled_date ASC, number ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
