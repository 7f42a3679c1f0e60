package guard

import (
	"github.com/spec-kit/restaurant-console/internal/domain"
	"github.com/spec-kit/restaurant-console/internal/identity"
)

// Paths the guard redirects to.
const (
	HomePath         = "/"
	UnauthorizedPath = "/unauthorized"
)

// Decision is the outcome of evaluating a session against a route's allow-list.
type Decision int

const (
	// Loading means the session is mid-resolution; render a placeholder.
	Loading Decision = iota
	Render
	RedirectHome
	RedirectForbidden
	// Unavailable means the role lookups failed and no decision can be made.
	Unavailable
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case Render:
		return "render"
	case RedirectHome:
		return "redirect_home"
	case RedirectForbidden:
		return "redirect_forbidden"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Location is the redirect target, or "" for non-redirect decisions.
func (d Decision) Location() string {
	switch d {
	case RedirectHome:
		return HomePath
	case RedirectForbidden:
		return UnauthorizedPath
	default:
		return ""
	}
}

// RoleSet is the literal allow-list of a guarded route.
type RoleSet map[domain.Role]struct{}

// NewRoleSet builds an allow-list. The unprovisioned role can never be allowed.
func NewRoleSet(roles ...domain.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		if !r.Provisioned() {
			continue
		}
		set[r] = struct{}{}
	}
	return set
}

// Allows reports whether role is in the set.
func (s RoleSet) Allows(role domain.Role) bool {
	if !role.Provisioned() {
		return false
	}
	_, ok := s[role]
	return ok
}

// Decide evaluates st against allowed. It is pure: the same state and set
// always give the same decision.
func Decide(st identity.State, allowed RoleSet) Decision {
	switch {
	case st.Loading:
		return Loading
	case st.Identity == nil:
		return RedirectHome
	case st.Err != nil:
		return Unavailable
	case !allowed.Allows(st.Identity.Role):
		return RedirectForbidden
	default:
		return Render
	}
}
