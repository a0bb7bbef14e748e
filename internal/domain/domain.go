package domain

import (
	"github.com/ironpoint/steeltrack-backend/internal/domain/identity"
	"github.com/ironpoint/steeltrack-backend/internal/domain/project"
	"github.com/ironpoint/steeltrack-backend/internal/domain/tracking"
)

// Identity
type Actor = identity.Actor
type Role = identity.Role

const (
	RoleAdmin          = identity.RoleAdmin
	RoleProjectManager = identity.RoleProjectManager
	RoleShop           = identity.RoleShop
	RoleField          = identity.RoleField
	RoleClient         = identity.RoleClient
)

// Projects
type Project = project.Project

// Tracking
type PieceMark = tracking.PieceMark
type Status = tracking.Status
type Location = tracking.Location
type Delivery = tracking.Delivery
type DeliveryItem = tracking.DeliveryItem
type DeliveryStatus = tracking.DeliveryStatus
type ItemCondition = tracking.ItemCondition
type CrewAssignment = tracking.CrewAssignment
type CrewStatus = tracking.CrewStatus
type ActivityLogEntry = tracking.ActivityLogEntry
type SubjectType = tracking.SubjectType
type TransitionKind = tracking.TransitionKind

const (
	StatusNotStarted  = tracking.StatusNotStarted
	StatusFabricating = tracking.StatusFabricating
	StatusCompleted   = tracking.StatusCompleted
	StatusShipped     = tracking.StatusShipped
	StatusInstalled   = tracking.StatusInstalled

	LocationYard      = tracking.LocationYard
	LocationStaging   = tracking.LocationStaging
	LocationCraneZone = tracking.LocationCraneZone
	LocationInstalled = tracking.LocationInstalled
	LocationUnknown   = tracking.LocationUnknown

	DeliveryPending   = tracking.DeliveryPending
	DeliveryInTransit = tracking.DeliveryInTransit
	DeliveryDelivered = tracking.DeliveryDelivered
	DeliveryReceived  = tracking.DeliveryReceived
	DeliveryRejected  = tracking.DeliveryRejected

	ConditionGood    = tracking.ConditionGood
	ConditionDamaged = tracking.ConditionDamaged
	ConditionMissing = tracking.ConditionMissing

	CrewScheduled = tracking.CrewScheduled
	CrewActive    = tracking.CrewActive
	CrewCompleted = tracking.CrewCompleted

	SubjectPieceMark = tracking.SubjectPieceMark
	SubjectDelivery  = tracking.SubjectDelivery
	SubjectCrew      = tracking.SubjectCrew

	KindPieceMarkCreated  = tracking.KindPieceMarkCreated
	KindStatusAdvance     = tracking.KindStatusAdvance
	KindStatusRollback    = tracking.KindStatusRollback
	KindLocationUpdate    = tracking.KindLocationUpdate
	KindDeliveryCreated   = tracking.KindDeliveryCreated
	KindDeliveryItemAdded = tracking.KindDeliveryItemAdded
	KindDeliveryDispatch  = tracking.KindDeliveryDispatch
	KindDeliveryArrived   = tracking.KindDeliveryArrived
	KindDeliveryRejected  = tracking.KindDeliveryRejected
	KindDeliveryReceived  = tracking.KindDeliveryReceived
	KindItemReconciled    = tracking.KindItemReconciled
	KindCrewAssigned      = tracking.KindCrewAssigned
	KindCrewStatusChange  = tracking.KindCrewStatusChange
)

// Snapshot marshals a subject state into an audit snapshot column.
var Snapshot = tracking.Snapshot
