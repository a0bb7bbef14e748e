package tracking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ironpoint/steeltrack-backend/internal/domain/project"
)

// Status is the fabrication lifecycle position of a piece mark. The set is a
// total order; see lifecycle.go for the transition rules.
type Status string

const (
	StatusNotStarted  Status = "not_started"
	StatusFabricating Status = "fabricating"
	StatusCompleted   Status = "completed"
	StatusShipped     Status = "shipped"
	StatusInstalled   Status = "installed"
)

// Location is the field zone of a piece mark once it has left the shop.
// Unordered; only meaningful at status shipped and beyond.
type Location string

const (
	LocationYard      Location = "yard"
	LocationStaging   Location = "staging"
	LocationCraneZone Location = "crane_zone"
	LocationInstalled Location = "installed"
	LocationUnknown   Location = "unknown"
)

// PieceMark is the canonical record for one fabricated steel component.
// TotalWeight is derived from Quantity and WeightPerUnit and is recomputed on
// every write path; it is never settable independently. ReceivedQuantity
// accumulates reconciled deliveries so split loads can be accounted against
// the full expected quantity. Version backs the optimistic lock; the row is
// the unit of mutual exclusion for concurrent transitions.
type PieceMark struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_piece_mark_project_mark;index" json:"project_id"`
	Project   *project.Project `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`

	Mark           string  `gorm:"column:mark;size:64;not null;uniqueIndex:idx_piece_mark_project_mark" json:"mark"`
	Quantity       int     `gorm:"column:quantity;not null" json:"quantity"`
	WeightPerUnit  float64 `gorm:"column:weight_per_unit;not null" json:"weight_per_unit"`
	TotalWeight    float64 `gorm:"column:total_weight;not null" json:"total_weight"`
	Material       string  `gorm:"column:material" json:"material"`
	DrawingRef     string  `gorm:"column:drawing_ref;size:64" json:"drawing_ref"`
	SequenceNumber int     `gorm:"column:sequence_number" json:"sequence_number"`

	Status           Status    `gorm:"column:status;size:16;not null;default:'not_started';index" json:"status"`
	Location         *Location `gorm:"column:location;size:16;index" json:"location,omitempty"`
	ReceivedQuantity int       `gorm:"column:received_quantity;not null;default:0" json:"received_quantity"`

	Version int `gorm:"column:version;not null;default:0" json:"version"`

	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PieceMark) TableName() string { return "piece_mark" }

// ComputeTotalWeight re-derives the weight invariant.
func (p *PieceMark) ComputeTotalWeight() {
	p.TotalWeight = float64(p.Quantity) * p.WeightPerUnit
}

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusFabricating, StatusCompleted, StatusShipped, StatusInstalled:
		return true
	default:
		return false
	}
}

func (l Location) Valid() bool {
	switch l {
	case LocationYard, LocationStaging, LocationCraneZone, LocationInstalled, LocationUnknown:
		return true
	default:
		return false
	}
}
