package model

import "time"

// BorrowStatus represents the lifecycle state of a borrow.
type BorrowStatus string

const (
	BorrowActive          BorrowStatus = "Active"
	BorrowReturnRequested BorrowStatus = "ReturnRequested"
	BorrowReturned        BorrowStatus = "Returned"
	BorrowOverdue         BorrowStatus = "Overdue"
)

// Borrow is a checked-out copy of a book. Created when a reservation is
// checked in (or issued directly by staff), terminal at Returned.
type Borrow struct {
	ID                 uint         `json:"id" gorm:"primaryKey"`
	BookID             uint         `json:"book_id" gorm:"not null;index"`
	UserID             uint         `json:"user_id" gorm:"not null;index"`
	BorrowedAt         time.Time    `json:"borrowed_at" gorm:"not null"`
	DueAt              time.Time    `json:"due_at" gorm:"not null;index"`
	Status             BorrowStatus `json:"status" gorm:"type:varchar(20);not null;default:'Active';index"`
	ReturnRequested    bool         `json:"return_requested" gorm:"default:false"`
	ReturnRequestedAt  *time.Time   `json:"return_requested_at,omitempty"`
	ReturnedAt         *time.Time   `json:"returned_at,omitempty"`
	ApprovedByID       *uint        `json:"approved_by_id,omitempty"`
	ReturnAcceptedByID *uint        `json:"return_accepted_by_id,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`

	// Relations
	Book Book `json:"book,omitempty" gorm:"foreignKey:BookID"`
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
