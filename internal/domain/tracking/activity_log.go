package tracking

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ironpoint/steeltrack-backend/internal/domain/identity"
)

// SubjectType names the kind of record an activity entry is about.
type SubjectType string

const (
	SubjectPieceMark SubjectType = "piece_mark"
	SubjectDelivery  SubjectType = "delivery"
	SubjectCrew      SubjectType = "crew"
)

// TransitionKind classifies what happened. One kind per mutating operation.
type TransitionKind string

const (
	KindPieceMarkCreated  TransitionKind = "piece_mark_created"
	KindStatusAdvance     TransitionKind = "status_advance"
	KindStatusRollback    TransitionKind = "status_rollback"
	KindLocationUpdate    TransitionKind = "location_update"
	KindDeliveryCreated   TransitionKind = "delivery_created"
	KindDeliveryItemAdded TransitionKind = "delivery_item_added"
	KindDeliveryDispatch  TransitionKind = "delivery_dispatched"
	KindDeliveryArrived   TransitionKind = "delivery_arrived"
	KindDeliveryRejected  TransitionKind = "delivery_rejected"
	KindDeliveryReceived  TransitionKind = "delivery_received"
	KindItemReconciled    TransitionKind = "item_reconciled"
	KindCrewAssigned      TransitionKind = "crew_assigned"
	KindCrewStatusChange  TransitionKind = "crew_status_change"
)

// ActivityLogEntry is the append-only audit record. Exactly one entry per
// successful mutation, zero per rejection; entries are never updated or
// deleted. Before/After hold full JSON snapshots of the subject so every
// dashboard is reconstructible from this table alone.
type ActivityLogEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`

	ActorID   uuid.UUID     `gorm:"type:uuid;column:actor_id;not null;index" json:"actor_id"`
	ActorRole identity.Role `gorm:"column:actor_role;size:24;not null" json:"actor_role"`

	SubjectType SubjectType    `gorm:"column:subject_type;size:16;not null;index:idx_activity_subject" json:"subject_type"`
	SubjectID   uuid.UUID      `gorm:"type:uuid;column:subject_id;not null;index:idx_activity_subject" json:"subject_id"`
	Kind        TransitionKind `gorm:"column:kind;size:32;not null" json:"kind"`

	Before datatypes.JSON `gorm:"column:before" json:"before,omitempty"`
	After  datatypes.JSON `gorm:"column:after" json:"after,omitempty"`

	Note      string `gorm:"column:note;type:text" json:"note,omitempty"`
	Shortfall *int   `gorm:"column:shortfall" json:"shortfall,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (ActivityLogEntry) TableName() string { return "activity_log" }

// Snapshot marshals a subject state into an audit snapshot column. A nil
// subject yields a null snapshot (used for creations, which have no before).
func Snapshot(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
