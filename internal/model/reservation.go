package model

import "time"

// ReservationStatus represents the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "Active"
	ReservationCheckedIn ReservationStatus = "CheckedIn"
	ReservationExpired   ReservationStatus = "Expired"
	ReservationCancelled ReservationStatus = "Cancelled"
)

// Reservation is a user's hold on one copy of a book. A reservation starts
// Active and ends in exactly one of CheckedIn, Expired or Cancelled.
type Reservation struct {
	ID                 uint              `json:"id" gorm:"primaryKey"`
	BookID             uint              `json:"book_id" gorm:"not null;index"`
	UserID             uint              `json:"user_id" gorm:"not null;index"`
	ReservedAt         time.Time         `json:"reserved_at" gorm:"not null"`
	ExpiresAt          time.Time         `json:"expires_at" gorm:"not null;index"`
	Status             ReservationStatus `json:"status" gorm:"type:varchar(20);not null;default:'Active';index"`
	CheckInRequested   bool              `json:"check_in_requested" gorm:"default:false"`
	CheckInRequestedAt *time.Time        `json:"check_in_requested_at,omitempty"`
	CheckedInAt        *time.Time        `json:"checked_in_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`

	// Relations
	Book Book `json:"book,omitempty" gorm:"foreignKey:BookID"`
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
