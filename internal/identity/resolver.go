// Package identity turns an authenticated principal into a role-bearing
// identity and publishes it to everything that gates on roles.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-console/internal/domain"
	"github.com/spec-kit/restaurant-console/internal/observability"
	"github.com/spec-kit/restaurant-console/internal/repository"
)

// ErrLookupFailed wraps directory failures. It is kept apart from the
// not-provisioned case so callers can answer "try again" instead of "forbidden".
var ErrLookupFailed = errors.New("identity lookup failed")

// IdentityResolver maps a principal to a resolved identity. On failure the
// returned identity is still the bare, unprovisioned principal.
type IdentityResolver interface {
	Resolve(ctx context.Context, principal domain.Principal) (*domain.ResolvedIdentity, error)
}

// Resolver looks the principal up in the staff records first, then in the
// owner records. Staff wins when a UID appears in both.
type Resolver struct {
	staff   repository.StaffRepository
	owners  repository.OwnerRepository
	logger  *zap.Logger
	metrics *observability.Metrics
	timeout time.Duration
	now     func() time.Time
}

// ResolverDependencies groups the collaborators of a Resolver.
type ResolverDependencies struct {
	StaffRepo repository.StaffRepository
	OwnerRepo repository.OwnerRepository
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	// Timeout bounds both lookups together. Zero means no bound.
	Timeout time.Duration
}

// NewResolver builds a Resolver.
func NewResolver(deps ResolverDependencies) *Resolver {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		staff:   deps.StaffRepo,
		owners:  deps.OwnerRepo,
		logger:  logger,
		metrics: deps.Metrics,
		timeout: deps.Timeout,
		now:     time.Now,
	}
}

// Resolve implements IdentityResolver.
func (r *Resolver) Resolve(ctx context.Context, principal domain.Principal) (*domain.ResolvedIdentity, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	identity := domain.NewResolvedIdentity(principal, r.now().UTC())
	log := r.logger.With(zap.String("uid", principal.UID))

	staff, err := r.staff.GetByID(ctx, principal.UID)
	switch {
	case err == nil:
		identity.ApplyStaff(staff)
		r.metrics.RecordResolution(identity.Role.String(), "resolved")
		return identity, nil
	case !errors.Is(err, repository.ErrNotFound):
		r.metrics.RecordResolution(identity.Role.String(), "lookup_failed")
		return identity, fmt.Errorf("%w: staff records: %w", ErrLookupFailed, err)
	}

	owners, err := r.owners.ListByAdminID(ctx, principal.UID)
	if err != nil {
		r.metrics.RecordResolution(identity.Role.String(), "lookup_failed")
		return identity, fmt.Errorf("%w: owner records: %w", ErrLookupFailed, err)
	}

	if len(owners) == 0 {
		log.Warn("principal is not provisioned as staff or restaurant owner")
		r.metrics.RecordResolution(identity.Role.String(), "unprovisioned")
		return identity, nil
	}
	if len(owners) > 1 {
		ids := make([]string, 0, len(owners))
		for _, o := range owners {
			ids = append(ids, o.ID)
		}
		log.Warn("multiple restaurants share one admin id; using the first",
			zap.Strings("restaurant_ids", ids))
	}

	identity.ApplyOwner(owners[0])
	r.metrics.RecordResolution(identity.Role.String(), "resolved")
	return identity, nil
}
