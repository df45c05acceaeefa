// Package repository implements the PostgreSQL store for account records.
// It provides creation with atomic uniqueness enforcement, lookups by the
// identity keys, trial activation and the idempotent payment application.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Register the pgx driver for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Sentinel errors mapped by the service layer onto the API error taxonomy.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrPhoneTaken      = errors.New("phone number already registered")
	ErrEmailTaken      = errors.New("email already registered")
)

// Storage encapsulates the PostgreSQL connection and implements the
// account repository consumed by the services.
type Storage struct {
	DB *sql.DB
}

// New opens a connection to PostgreSQL and verifies it with a ping.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady verifies that the accounts schema is in place.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'accounts'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table accounts missing or query error: %w", err)
	}
	return nil
}
