package tracking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/ironpoint/steeltrack-backend/internal/domain"
	"github.com/ironpoint/steeltrack-backend/internal/platform/logger"
)

type DeliveryItemRepo interface {
	Create(ctx context.Context, tx *gorm.DB, items []*types.DeliveryItem) ([]*types.DeliveryItem, error)
	GetByDeliveryIDs(ctx context.Context, tx *gorm.DB, deliveryIDs []uuid.UUID) ([]*types.DeliveryItem, error)
	// GetOpenByPieceMarkIDs returns items on non-terminal deliveries for the
	// given piece marks; used to enforce the one-open-item-per-mark rule.
	GetOpenByPieceMarkIDs(ctx context.Context, tx *gorm.DB, pieceMarkIDs []uuid.UUID) ([]*types.DeliveryItem, error)
	RecordOutcome(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, received int, condition types.ItemCondition, location types.Location) error
}

type deliveryItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeliveryItemRepo(db *gorm.DB, baseLog *logger.Logger) DeliveryItemRepo {
	repoLog := baseLog.With("repo", "DeliveryItemRepo")
	return &deliveryItemRepo{db: db, log: repoLog}
}

func (r *deliveryItemRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.DeliveryItem) ([]*types.DeliveryItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(items) == 0 {
		return []*types.DeliveryItem{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *deliveryItemRepo) GetByDeliveryIDs(ctx context.Context, tx *gorm.DB, deliveryIDs []uuid.UUID) ([]*types.DeliveryItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.DeliveryItem
	if len(deliveryIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("delivery_id IN ?", deliveryIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *deliveryItemRepo) GetOpenByPieceMarkIDs(ctx context.Context, tx *gorm.DB, pieceMarkIDs []uuid.UUID) ([]*types.DeliveryItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.DeliveryItem
	if len(pieceMarkIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Joins("JOIN delivery ON delivery.id = delivery_item.delivery_id").
		Where("delivery_item.piece_mark_id IN ?", pieceMarkIDs).
		Where("delivery.status NOT IN ?", []types.DeliveryStatus{types.DeliveryReceived, types.DeliveryRejected}).
		Where("delivery.deleted_at IS NULL").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *deliveryItemRepo) RecordOutcome(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, received int, condition types.ItemCondition, location types.Location) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.DeliveryItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"received_quantity": received,
			"condition":         condition,
			"location":          location,
		}).Error
}
