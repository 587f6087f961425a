// Package repository implements the attendance persistence contract
// on MySQL.  A single Store wraps the database pool; every method
// runs against the transaction carried by the context when one is
// present, so multi-step sequences composed by the service layer
// commit or roll back as a unit.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// Store provides data access for events, RSVPs, blocks, cancellation
// records, the payment ledger, the processed-webhook registry and the
// user directory.  It satisfies attendance.Store.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store bound to the given database pool.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		panic("nil db passed to NewStore")
	}
	return &Store{db: db}
}

// DB exposes the underlying pool for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// mysqlDuplicateEntry is the server error code for unique-key
// violations (ER_DUP_ENTRY).
const mysqlDuplicateEntry = 1062

func isDuplicateEntry(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
