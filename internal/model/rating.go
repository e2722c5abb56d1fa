package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rating is one user's rating of one book. The (book_id, user_id) pair is
// unique at the database level; a second rating by the same user updates
// the existing row.
type Rating struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	BookID    uint            `json:"book_id" gorm:"not null;uniqueIndex:idx_ratings_book_user"`
	UserID    uint            `json:"user_id" gorm:"not null;uniqueIndex:idx_ratings_book_user"`
	Value     decimal.Decimal `json:"value" gorm:"type:decimal(4,2);not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
