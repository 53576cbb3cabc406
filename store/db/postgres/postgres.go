// Package postgres implements store.Driver on PostgreSQL with pgvector.
package postgres

import (
	"database/sql"
	"fmt"

	// Postgres driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/snovalley/buyer-agent/store"
)

// DB wraps a lib/pq connection pool.
type DB struct {
	db *sql.DB
}

var _ store.Driver = (*DB)(nil)

// NewDB opens a connection pool for the given DSN and verifies it.
func NewDB(dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping postgres")
	}
	return &DB{db: db}, nil
}

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
