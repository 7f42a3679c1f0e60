package domain

import (
	"encoding/json"
	"strings"
)

// Role is the single access tag a principal resolves to.
type Role string

const (
	// RoleUnprovisioned marks a principal absent from every record set.
	RoleUnprovisioned   Role = ""
	RoleAdmin           Role = "admin"
	RoleRestaurantAdmin Role = "restaurantAdmin"
)

// ParseRole normalizes the role tag stored on a restaurant document or
// carried in seed data.
// Anything unrecognized becomes RoleUnprovisioned.
func ParseRole(raw string) Role {
	switch Role(strings.TrimSpace(raw)) {
	case RoleAdmin:
		return RoleAdmin
	case RoleRestaurantAdmin:
		return RoleRestaurantAdmin
	default:
		return RoleUnprovisioned
	}
}

// Provisioned reports whether the role grants anything at all.
func (r Role) Provisioned() bool {
	return r == RoleAdmin || r == RoleRestaurantAdmin
}

func (r Role) String() string {
	if r == RoleUnprovisioned {
		return "unprovisioned"
	}
	return string(r)
}

// MarshalJSON encodes RoleUnprovisioned as null.
func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Provisioned() {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

// UnmarshalJSON accepts null or a role string.
func (r *Role) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = RoleUnprovisioned
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = ParseRole(raw)
	return nil
}
