package domain

import "time"

// RestaurantStatus is the lifecycle state of a restaurant listing.
type RestaurantStatus string

const (
	RestaurantStatusActive   RestaurantStatus = "Active"
	RestaurantStatusInactive RestaurantStatus = "Inactive"
)

// OwnerRecord is a restaurant whose AdminID points at the owning principal.
// Role is the tag stored on the document; access is decided by which
// collection matched, not by this field.
type OwnerRecord struct {
	ID        string           `json:"id"`
	AdminID   string           `json:"admin_id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone"`
	Address   string           `json:"address"`
	Role      Role             `json:"role"`
	Status    RestaurantStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}
