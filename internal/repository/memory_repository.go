package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/spec-kit/restaurant-console/internal/domain"
)

// MemoryDirectory holds staff and owner records in process. It backs the
// "memory" directory and the tests.
type MemoryDirectory struct {
	mu     sync.RWMutex
	staff  map[string]domain.StaffRecord
	owners []domain.OwnerRecord
}

// DirectorySeed is the JSON layout of DIRECTORY_SEED_FILE.
type DirectorySeed struct {
	Staff  []domain.StaffRecord `json:"staff"`
	Owners []domain.OwnerRecord `json:"owners"`
}

// NewMemoryDirectory builds a directory from the given records. Owner order
// is preserved for ListByAdminID.
func NewMemoryDirectory(staff []domain.StaffRecord, owners []domain.OwnerRecord) *MemoryDirectory {
	d := &MemoryDirectory{staff: make(map[string]domain.StaffRecord, len(staff))}
	for _, s := range staff {
		d.staff[s.ID] = s
	}
	d.owners = append(d.owners, owners...)
	return d
}

// LoadMemoryDirectory reads a seed file. An empty path yields an empty directory.
func LoadMemoryDirectory(path string) (*MemoryDirectory, error) {
	if path == "" {
		return NewMemoryDirectory(nil, nil), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory seed: %w", err)
	}
	var seed DirectorySeed
	if err := json.Unmarshal(content, &seed); err != nil {
		return nil, fmt.Errorf("parse directory seed: %w", err)
	}
	return NewMemoryDirectory(seed.Staff, seed.Owners), nil
}

// Staff exposes the staff half of the directory.
func (d *MemoryDirectory) Staff() StaffRepository { return memoryStaff{d} }

// Owners exposes the owner half of the directory.
func (d *MemoryDirectory) Owners() OwnerRepository { return memoryOwners{d} }

type memoryStaff struct{ d *MemoryDirectory }

func (m memoryStaff) GetByID(ctx context.Context, id string) (*domain.StaffRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.d.mu.RLock()
	defer m.d.mu.RUnlock()
	rec, ok := m.d.staff[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

type memoryOwners struct{ d *MemoryDirectory }

func (m memoryOwners) ListByAdminID(ctx context.Context, adminID string) ([]domain.OwnerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.d.mu.RLock()
	defer m.d.mu.RUnlock()
	var result []domain.OwnerRecord
	for _, rec := range m.d.owners {
		if rec.AdminID == adminID {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (m memoryOwners) List(ctx context.Context, limit int) ([]domain.OwnerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.d.mu.RLock()
	result := append([]domain.OwnerRecord(nil), m.d.owners...)
	m.d.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if n := normalizeLimit(limit); len(result) > n {
		result = result[:n]
	}
	return result, nil
}
