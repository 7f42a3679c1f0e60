package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/spec-kit/restaurant-console/internal/domain"
)

// Firestore field names shared with the console's document writers.
const (
	fieldName          = "name"
	fieldEmail         = "email"
	fieldFCMToken      = "fcmToken"
	fieldAccountVerify = "accountVerify"
	fieldAdminID       = "adminId"
	fieldPhone         = "phone"
	fieldAddress       = "address"
	fieldRole          = "role"
	fieldStatus        = "status"
	fieldCreatedAt     = "createdAt"
)

type firestoreStaffRepository struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStaffRepository reads staff documents keyed by principal UID.
func NewFirestoreStaffRepository(client *firestore.Client, collection string) StaffRepository {
	return &firestoreStaffRepository{client: client, collection: collection}
}

func (r *firestoreStaffRepository) GetByID(ctx context.Context, id string) (*domain.StaffRecord, error) {
	snap, err := r.client.Collection(r.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	staff, err := staffFromData(snap.Ref.ID, snap.Data())
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

type firestoreOwnerRepository struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreOwnerRepository queries restaurant documents by their adminId field.
func NewFirestoreOwnerRepository(client *firestore.Client, collection string) OwnerRepository {
	return &firestoreOwnerRepository{client: client, collection: collection}
}

// ListByAdminID relies on Firestore's default document ID ordering for
// equality-only queries.
func (r *firestoreOwnerRepository) ListByAdminID(ctx context.Context, adminID string) ([]domain.OwnerRecord, error) {
	query := r.client.Collection(r.collection).Where(fieldAdminID, "==", adminID)
	return collectOwners(query.Documents(ctx))
}

// List orders by createdAt. ISO-8601 strings sort chronologically, so
// documents written by the console order correctly.
func (r *firestoreOwnerRepository) List(ctx context.Context, limit int) ([]domain.OwnerRecord, error) {
	query := r.client.Collection(r.collection).
		OrderBy(fieldCreatedAt, firestore.Desc).
		Limit(normalizeLimit(limit))
	return collectOwners(query.Documents(ctx))
}

func collectOwners(iter *firestore.DocumentIterator) ([]domain.OwnerRecord, error) {
	docs, err := iter.GetAll()
	if err != nil {
		return nil, err
	}

	result := make([]domain.OwnerRecord, 0, len(docs))
	for _, doc := range docs {
		owner, err := ownerFromData(doc.Ref.ID, doc.Data())
		if err != nil {
			return nil, err
		}
		result = append(result, owner)
	}
	return result, nil
}

// staffFromData maps a users document. Unknown fields such as userId and
// role are ignored.
func staffFromData(id string, data map[string]any) (domain.StaffRecord, error) {
	staff := domain.StaffRecord{ID: id}
	var err error
	if staff.Name, err = stringField(data, fieldName); err != nil {
		return staff, err
	}
	if staff.Email, err = stringField(data, fieldEmail); err != nil {
		return staff, err
	}
	if staff.FCMToken, err = optionalStringField(data, fieldFCMToken); err != nil {
		return staff, err
	}
	if staff.AccountVerify, err = optionalStringField(data, fieldAccountVerify); err != nil {
		return staff, err
	}
	return staff, nil
}

// ownerFromData maps a restaurants document. createdAt is accepted either as
// an ISO-8601 string or as a Firestore timestamp.
func ownerFromData(id string, data map[string]any) (domain.OwnerRecord, error) {
	owner := domain.OwnerRecord{ID: id}
	fields := []struct {
		key string
		dst *string
	}{
		{fieldAdminID, &owner.AdminID},
		{fieldName, &owner.Name},
		{fieldEmail, &owner.Email},
		{fieldPhone, &owner.Phone},
		{fieldAddress, &owner.Address},
	}
	for _, f := range fields {
		v, err := stringField(data, f.key)
		if err != nil {
			return owner, err
		}
		*f.dst = v
	}

	role, err := stringField(data, fieldRole)
	if err != nil {
		return owner, err
	}
	owner.Role = domain.ParseRole(role)

	st, err := stringField(data, fieldStatus)
	if err != nil {
		return owner, err
	}
	owner.Status = domain.RestaurantStatus(st)

	if owner.CreatedAt, err = timeField(data, fieldCreatedAt); err != nil {
		return owner, err
	}
	return owner, nil
}

func stringField(data map[string]any, key string) (string, error) {
	switch v := data[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("field %s: unexpected type %T", key, v)
	}
}

func optionalStringField(data map[string]any, key string) (*string, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return nil, nil
	}
	v, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("field %s: unexpected type %T", key, raw)
	}
	return &v, nil
}

func timeField(data map[string]any, key string) (time.Time, error) {
	switch v := data[key].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v.UTC(), nil
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("field %s: %w", key, err)
		}
		return t.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("field %s: unexpected type %T", key, v)
	}
}
