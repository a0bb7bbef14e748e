package tracking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ironpoint/steeltrack-backend/internal/domain/project"
)

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryReceived  DeliveryStatus = "received"
	DeliveryRejected  DeliveryStatus = "rejected"
)

// ItemCondition is the receipt-time condition outcome of a delivery item.
type ItemCondition string

const (
	ConditionGood    ItemCondition = "good"
	ConditionDamaged ItemCondition = "damaged"
	ConditionMissing ItemCondition = "missing"
)

// Delivery is one truckload-level shipment of piece marks to the field. It
// cannot reach received while any item lacks a reconciliation outcome.
type Delivery struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_delivery_project_number;index" json:"project_id"`
	Project   *project.Project `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`

	Number        string         `gorm:"column:number;size:32;not null;uniqueIndex:idx_delivery_project_number" json:"number"`
	ScheduledDate time.Time      `gorm:"column:scheduled_date;not null" json:"scheduled_date"`
	ArrivedAt     *time.Time     `gorm:"column:arrived_at" json:"arrived_at,omitempty"`
	Status        DeliveryStatus `gorm:"column:status;size:16;not null;default:'pending';index" json:"status"`
	Carrier       string         `gorm:"column:carrier" json:"carrier"`

	Version int `gorm:"column:version;not null;default:0" json:"version"`

	Items []DeliveryItem `gorm:"foreignKey:DeliveryID" json:"items,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Delivery) TableName() string { return "delivery" }

// DeliveryItem is one expected piece-mark line on a delivery. Received
// quantity, condition and location stay null until a complete reconciliation
// commits; a null received quantity marks the item unresolved.
type DeliveryItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DeliveryID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_delivery_item_mark;index" json:"delivery_id"`
	PieceMarkID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_delivery_item_mark;index" json:"piece_mark_id"`
	PieceMark   *PieceMark `gorm:"foreignKey:PieceMarkID;references:ID" json:"piece_mark,omitempty"`

	ExpectedQuantity int            `gorm:"column:expected_quantity;not null" json:"expected_quantity"`
	ReceivedQuantity *int           `gorm:"column:received_quantity" json:"received_quantity,omitempty"`
	Condition        *ItemCondition `gorm:"column:condition;size:16" json:"condition,omitempty"`
	Location         *Location      `gorm:"column:location;size:16" json:"location,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (DeliveryItem) TableName() string { return "delivery_item" }

// Resolved reports whether the item carries a full reconciliation outcome.
func (i DeliveryItem) Resolved() bool {
	return i.ReceivedQuantity != nil && i.Condition != nil && i.Location != nil
}

// Shortfall is the discrepancy between expected and received quantities.
// Zero when the item reconciled cleanly or is unresolved.
func (i DeliveryItem) Shortfall() int {
	if i.ReceivedQuantity == nil {
		return 0
	}
	if d := i.ExpectedQuantity - *i.ReceivedQuantity; d > 0 {
		return d
	}
	return 0
}

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPending, DeliveryInTransit, DeliveryDelivered, DeliveryReceived, DeliveryRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further delivery transitions are possible.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryReceived || s == DeliveryRejected
}

func (c ItemCondition) Valid() bool {
	switch c {
	case ConditionGood, ConditionDamaged, ConditionMissing:
		return true
	default:
		return false
	}
}
