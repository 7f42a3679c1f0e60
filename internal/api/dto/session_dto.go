package dto

import (
	"time"

	"github.com/spec-kit/restaurant-console/internal/domain"
	"github.com/spec-kit/restaurant-console/internal/identity"
)

// SessionRequest exchanges a provider ID token for a session cookie.
type SessionRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// LocalSignInRequest signs in a local development account.
type LocalSignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// IdentityResponse is the published session state as seen by clients.
type IdentityResponse struct {
	Identity   *domain.ResolvedIdentity `json:"identity"`
	Loading    bool                     `json:"loading"`
	Error      string                   `json:"error,omitempty"`
	Generation uint64                   `json:"generation"`
}

// NewIdentityResponse renders st.
func NewIdentityResponse(st identity.State) IdentityResponse {
	resp := IdentityResponse{
		Identity:   st.Identity,
		Loading:    st.Loading,
		Generation: st.Generation,
	}
	if st.Err != nil {
		resp.Error = "role lookup failed"
	}
	return resp
}

// SessionResponse is returned after a successful sign-in.
type SessionResponse struct {
	IdentityResponse
	ExpiresAt time.Time `json:"expires_at"`
}

// GuardEvent is one Server-Sent Event of the guard stream.
type GuardEvent struct {
	Page     string `json:"page"`
	Decision string `json:"decision"`
	Location string `json:"location,omitempty"`
}
