package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repos bundles the per-entity repositories so a service can apply one
// business rule across several entities inside a single transaction.
type Repos struct {
	Books        BookRepository
	Users        UserRepository
	Reservations ReservationRepository
	Borrows      BorrowRepository
	Ratings      RatingRepository
}

// NewRepos builds the repository bundle on top of a GORM handle, which may
// be either the root connection or a transaction.
func NewRepos(db *gorm.DB) *Repos {
	return &Repos{
		Books:        NewBookRepository(db),
		Users:        NewUserRepository(db),
		Reservations: NewReservationRepository(db),
		Borrows:      NewBorrowRepository(db),
		Ratings:      NewRatingRepository(db),
	}
}

// TxManager executes a function against transaction-scoped repositories.
// The SQLite connection opens write transactions immediately (see db.NewSQLite),
// so check-then-act sequences inside fn cannot interleave with other writers.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, r *Repos) error) error
}

type txManager struct {
	db *gorm.DB
}

// NewTxManager creates a GORM-backed transaction manager.
func NewTxManager(db *gorm.DB) TxManager {
	return &txManager{db: db}
}

func (m *txManager) WithTransaction(ctx context.Context, fn func(ctx context.Context, r *Repos) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepos(tx))
	})
}
