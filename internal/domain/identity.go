package domain

import "time"

// ResolvedIdentity is the per-session result of role resolution.
// It is rebuilt on every auth transition and never persisted as a record.
type ResolvedIdentity struct {
	UID            string       `json:"uid"`
	Email          string       `json:"email"`
	EmailVerified  bool         `json:"email_verified"`
	Role           Role         `json:"role"`
	Name           string       `json:"name,omitempty"`
	FCMToken       *string      `json:"fcm_token,omitempty"`
	AccountVerify  *string      `json:"account_verify,omitempty"`
	ProfileDetails *OwnerRecord `json:"profile_details,omitempty"`
	ResolvedAt     time.Time    `json:"resolved_at"`
}

// NewResolvedIdentity starts an unprovisioned identity for the principal.
func NewResolvedIdentity(p Principal, at time.Time) *ResolvedIdentity {
	return &ResolvedIdentity{
		UID:           p.UID,
		Email:         p.Email,
		EmailVerified: p.EmailVerified,
		Role:          RoleUnprovisioned,
		ResolvedAt:    at,
	}
}

// ApplyStaff grants the admin role and copies staff profile fields.
func (i *ResolvedIdentity) ApplyStaff(rec *StaffRecord) {
	i.Role = RoleAdmin
	i.Name = rec.Name
	if rec.Email != "" {
		i.Email = rec.Email
	}
	i.FCMToken = rec.FCMToken
	i.AccountVerify = rec.AccountVerify
}

// ApplyOwner grants the restaurant admin role and nests the owner record.
func (i *ResolvedIdentity) ApplyOwner(rec OwnerRecord) {
	i.Role = RoleRestaurantAdmin
	i.Name = rec.Name
	if rec.Email != "" {
		i.Email = rec.Email
	}
	i.ProfileDetails = &rec
}
