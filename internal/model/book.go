package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book represents a title in the library inventory. Stock counts the
// physical copies not currently held by an active reservation or borrow.
type Book struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Title       string          `json:"title" gorm:"size:255;not null;index"`
	Author      string          `json:"author" gorm:"size:255;not null;index"`
	ISBN        string          `json:"isbn" gorm:"uniqueIndex;size:20;not null"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	Active      bool            `json:"active" gorm:"default:true;index"`
	Category    string          `json:"category" gorm:"size:100"`
	CoverURL    string          `json:"cover_url,omitempty" gorm:"size:512"`
	Rating      decimal.Decimal `json:"rating" gorm:"type:decimal(4,2);not null;default:0"`
	RatingCount int             `json:"rating_count" gorm:"not null;default:0"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Relations
	Reservations []Reservation `json:"-" gorm:"foreignKey:BookID"`
	Borrows      []Borrow      `json:"-" gorm:"foreignKey:BookID"`
	Ratings      []Rating      `json:"-" gorm:"foreignKey:BookID"`
}
