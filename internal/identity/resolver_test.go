package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/restaurant-console/internal/domain"
	"github.com/spec-kit/restaurant-console/internal/repository"
)

type failingStaff struct{ err error }

func (f failingStaff) GetByID(context.Context, string) (*domain.StaffRecord, error) {
	return nil, f.err
}

type failingOwners struct{ err error }

func (f failingOwners) ListByAdminID(context.Context, string) ([]domain.OwnerRecord, error) {
	return nil, f.err
}

func (f failingOwners) List(context.Context, int) ([]domain.OwnerRecord, error) {
	return nil, f.err
}

type slowStaff struct{}

func (slowStaff) GetByID(ctx context.Context, _ string) (*domain.StaffRecord, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func testDirectory() *repository.MemoryDirectory {
	token := "fcm-token"
	verified := domain.AccountVerifyVerified
	return repository.NewMemoryDirectory(
		[]domain.StaffRecord{
			{ID: "staff-1", Name: "Ada Admin", Email: "ada@console.test", FCMToken: &token, AccountVerify: &verified},
			{ID: "both-1", Name: "Both Staff", Email: "both@console.test"},
		},
		[]domain.OwnerRecord{
			{ID: "rest-1", AdminID: "owner-1", Name: "Trattoria", Email: "owner@trattoria.test", Status: domain.RestaurantStatusActive},
			{ID: "rest-both", AdminID: "both-1", Name: "Both Bistro"},
			{ID: "dup-a", AdminID: "dup-owner", Name: "First Listing"},
			{ID: "dup-b", AdminID: "dup-owner", Name: "Second Listing"},
		},
	)
}

func newTestResolver(dir *repository.MemoryDirectory) *Resolver {
	return NewResolver(ResolverDependencies{StaffRepo: dir.Staff(), OwnerRepo: dir.Owners()})
}

func TestResolverRoles(t *testing.T) {
	ctx := context.Background()
	resolver := newTestResolver(testDirectory())

	t.Run("staff only resolves to admin", func(t *testing.T) {
		id, err := resolver.Resolve(ctx, domain.Principal{UID: "staff-1", Email: "login@console.test"})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, id.Role)
		assert.Equal(t, "Ada Admin", id.Name)
		assert.Equal(t, "ada@console.test", id.Email)
		require.NotNil(t, id.FCMToken)
		assert.Equal(t, "fcm-token", *id.FCMToken)
		require.NotNil(t, id.AccountVerify)
		assert.Equal(t, domain.AccountVerifyVerified, *id.AccountVerify)
		assert.Nil(t, id.ProfileDetails)
	})

	t.Run("owner only resolves to restaurant admin", func(t *testing.T) {
		id, err := resolver.Resolve(ctx, domain.Principal{UID: "owner-1"})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleRestaurantAdmin, id.Role)
		assert.Equal(t, "Trattoria", id.Name)
		assert.Equal(t, "owner@trattoria.test", id.Email)
		require.NotNil(t, id.ProfileDetails)
		assert.Equal(t, "rest-1", id.ProfileDetails.ID)
	})

	t.Run("neither keeps the bare principal", func(t *testing.T) {
		id, err := resolver.Resolve(ctx, domain.Principal{UID: "stranger", Email: "who@x.test", EmailVerified: true})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUnprovisioned, id.Role)
		assert.Equal(t, "stranger", id.UID)
		assert.Equal(t, "who@x.test", id.Email)
		assert.True(t, id.EmailVerified)
	})

	t.Run("staff wins over owner", func(t *testing.T) {
		id, err := resolver.Resolve(ctx, domain.Principal{UID: "both-1"})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, id.Role)
		assert.Nil(t, id.ProfileDetails)
	})

	t.Run("duplicate owners take the first result", func(t *testing.T) {
		id, err := resolver.Resolve(ctx, domain.Principal{UID: "dup-owner"})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleRestaurantAdmin, id.Role)
		assert.Equal(t, "dup-a", id.ProfileDetails.ID)
	})

	t.Run("idempotent", func(t *testing.T) {
		p := domain.Principal{UID: "owner-1"}
		first, err := resolver.Resolve(ctx, p)
		require.NoError(t, err)
		second, err := resolver.Resolve(ctx, p)
		require.NoError(t, err)
		first.ResolvedAt, second.ResolvedAt = time.Time{}, time.Time{}
		assert.Equal(t, first, second)
	})
}

func TestResolverLookupFailures(t *testing.T) {
	ctx := context.Background()
	dir := testDirectory()
	cause := errors.New("unavailable")

	t.Run("staff failure does not fall through to owners", func(t *testing.T) {
		resolver := NewResolver(ResolverDependencies{StaffRepo: failingStaff{cause}, OwnerRepo: dir.Owners()})
		id, err := resolver.Resolve(ctx, domain.Principal{UID: "owner-1"})
		assert.ErrorIs(t, err, ErrLookupFailed)
		assert.ErrorIs(t, err, cause)
		require.NotNil(t, id)
		assert.Equal(t, domain.RoleUnprovisioned, id.Role)
	})

	t.Run("owner failure", func(t *testing.T) {
		resolver := NewResolver(ResolverDependencies{StaffRepo: dir.Staff(), OwnerRepo: failingOwners{cause}})
		id, err := resolver.Resolve(ctx, domain.Principal{UID: "owner-1"})
		assert.ErrorIs(t, err, ErrLookupFailed)
		assert.Equal(t, "owner-1", id.UID)
	})

	t.Run("timeout bounds the lookup", func(t *testing.T) {
		resolver := NewResolver(ResolverDependencies{
			StaffRepo: slowStaff{},
			OwnerRepo: dir.Owners(),
			Timeout:   20 * time.Millisecond,
		})
		_, err := resolver.Resolve(ctx, domain.Principal{UID: "staff-1"})
		assert.ErrorIs(t, err, ErrLookupFailed)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
