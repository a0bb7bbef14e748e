package identity

import (
	"strings"

	"github.com/google/uuid"
)

// Role is the closed set of actor roles the tracking core recognizes. The
// external identity service resolves credentials; this core only consumes the
// verified (actor, role) pair.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleProjectManager Role = "project_manager"
	RoleShop           Role = "shop"
	RoleField          Role = "field"
	RoleClient         Role = "client"
)

// Actor is a verified identity attached to every mutation request.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProjectManager, RoleShop, RoleField, RoleClient:
		return true
	default:
		return false
	}
}

// ParseRole normalizes a raw role string against the closed set.
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.TrimSpace(strings.ToLower(raw)))
	return r, r.Valid()
}
