// Package authz is the transition authorizer: a pure decision function over
// (role, action, current state, ownership). It performs no I/O; the services
// load whatever state a rule needs and pass it in.
package authz

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ironpoint/steeltrack-backend/internal/domain/aggregates"
	"github.com/ironpoint/steeltrack-backend/internal/domain/identity"
	"github.com/ironpoint/steeltrack-backend/internal/domain/tracking"
)

// Action enumerates the authorizable operations.
type Action string

const (
	ActionPieceMarkCreate Action = "piece_mark.create"
	ActionStatusAdvance   Action = "piece_mark.advance"
	ActionStatusRollback  Action = "piece_mark.rollback"
	ActionLocationUpdate  Action = "piece_mark.location"
	ActionDeliverySetup   Action = "delivery.setup"
	ActionDeliveryReceive Action = "delivery.receive"
	ActionCrewManage      Action = "crew.manage"
)

// Request carries everything a policy rule may consult. Status is the
// piece mark's current status for piece-mark actions. LastAdvanceActorID
// identifies who performed the latest status advance (shop rollback is
// restricted to the actor's own prior action). CrewLeadActorID is the
// ownership reference for crew management.
type Request struct {
	Actor              identity.Actor
	Action             Action
	Status             tracking.Status
	LastAdvanceActorID uuid.UUID
	CrewLeadActorID    uuid.UUID
}

// Decision is the authorizer verdict. Rule names the policy row that decided,
// so denials are never generic.
type Decision struct {
	Allowed bool
	Rule    string
}

func allow(rule string) Decision { return Decision{Allowed: true, Rule: rule} }
func deny(rule string) Decision  { return Decision{Allowed: false, Rule: rule} }

// Decide evaluates the policy table. Deterministic and side-effect free.
func Decide(req Request) Decision {
	role := req.Actor.Role
	if !role.Valid() {
		return deny("unknown_role")
	}

	switch req.Action {
	case ActionPieceMarkCreate:
		switch role {
		case identity.RoleAdmin, identity.RoleProjectManager:
			return allow("planner_creates_piece_marks")
		default:
			return deny("only_admin_or_pm_create_piece_marks")
		}

	case ActionStatusAdvance:
		switch role {
		case identity.RoleAdmin, identity.RoleProjectManager:
			return allow("admin_pm_advance_any")
		case identity.RoleShop:
			if req.Status == tracking.StatusNotStarted || req.Status == tracking.StatusFabricating {
				return allow("shop_advance_within_fabrication")
			}
			return deny("shop_advance_only_while_fabricating")
		default:
			return deny("role_may_not_advance_status")
		}

	case ActionStatusRollback:
		switch role {
		case identity.RoleAdmin, identity.RoleProjectManager:
			return allow("admin_pm_rollback_any")
		case identity.RoleShop:
			if req.LastAdvanceActorID != uuid.Nil && req.LastAdvanceActorID == req.Actor.ID {
				return allow("shop_rollback_own_prior_action")
			}
			return deny("shop_rollback_only_own_prior_action")
		default:
			return deny("role_may_not_rollback_status")
		}

	case ActionLocationUpdate:
		switch role {
		case identity.RoleAdmin, identity.RoleProjectManager:
			return allow("admin_pm_update_location")
		case identity.RoleField:
			if req.Status == tracking.StatusShipped {
				return allow("field_update_location_while_shipped")
			}
			return deny("field_location_only_when_shipped")
		default:
			return deny("role_may_not_update_location")
		}

	case ActionDeliverySetup:
		switch role {
		case identity.RoleAdmin, identity.RoleProjectManager:
			return allow("admin_pm_delivery_setup")
		default:
			return deny("only_admin_or_pm_set_up_deliveries")
		}

	case ActionDeliveryReceive:
		switch role {
		case identity.RoleAdmin, identity.RoleProjectManager, identity.RoleField:
			return allow("receiving_roles")
		default:
			return deny("role_may_not_receive_deliveries")
		}

	case ActionCrewManage:
		switch role {
		case identity.RoleAdmin, identity.RoleProjectManager:
			return allow("admin_pm_manage_crews")
		case identity.RoleField:
			if req.CrewLeadActorID != uuid.Nil && req.CrewLeadActorID == req.Actor.ID {
				return allow("field_manage_own_crew")
			}
			return deny("field_manage_own_crew_only")
		default:
			return deny("role_may_not_manage_crews")
		}

	default:
		return deny("unknown_action")
	}
}

// Require returns a forbidden error naming the failed rule when the request
// is denied.
func Require(req Request) error {
	d := Decide(req)
	if d.Allowed {
		return nil
	}
	return aggregates.NewError(aggregates.CodeForbidden, string(req.Action),
		fmt.Sprintf("role %q denied by rule %q", req.Actor.Role, d.Rule), nil)
}
