package model

import "time"

// Role is a user's authorization level. The roles form a strict hierarchy:
// SystemAdmin > Admin > Librarian > EndUser.
type Role string

const (
	RoleSystemAdmin Role = "SystemAdmin"
	RoleAdmin       Role = "Admin"
	RoleLibrarian   Role = "Librarian"
	RoleEndUser     Role = "EndUser"
)

var roleRank = map[Role]int{
	RoleSystemAdmin: 4,
	RoleAdmin:       3,
	RoleLibrarian:   2,
	RoleEndUser:     1,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r sits at or above other in the hierarchy.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// User represents a registered member or staff account.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:100;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255"` // Never expose in JSON
	Role         Role      `json:"role" gorm:"type:varchar(20);not null;default:'EndUser';index"`
	Active       bool      `json:"active" gorm:"default:true;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
