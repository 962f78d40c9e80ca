package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotReady is returned by Ping when the pool cannot reach PostgreSQL.
var ErrNotReady = errors.New("postgres unreachable")

// Ping checks the pool and wraps any failure in ErrNotReady.
func Ping(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	return nil
}
