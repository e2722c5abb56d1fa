package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLite returns a connected GORM DB instance backed by a SQLite file.
// Foreign keys are enabled so relational constraints actually hold.
func NewSQLite(path string) (*gorm.DB, error) {
	// _txlock=immediate makes every write transaction take the database
	// write lock up front, serializing the check-then-act sequences in the
	// lifecycle services (SQLite has no row-level FOR UPDATE).
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_txlock=immediate", path)
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// SQLite allows a single writer; keeping one connection avoids
	// SQLITE_BUSY on concurrent lifecycle transactions.
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return gormDB, nil
}
