package repository

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx so repositories can run
// inside a caller's transaction.
type DBTX interface {
	sqlx.Ext
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
}

// Transact runs fn in a transaction. When q is already a transaction fn
// joins it and the caller stays responsible for commit.
func Transact(q DBTX, fn func(tx *sqlx.Tx) error) error {
	if tx, ok := q.(*sqlx.Tx); ok {
		return fn(tx)
	}

	db, ok := q.(*sqlx.DB)
	if !ok {
		return fmt.Errorf("unsupported executor %T", q)
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func rowsAffected(res interface{ RowsAffected() (int64, error) }, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// isDuplicate reports whether err is a unique constraint violation on any of
// the supported drivers.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value") || // postgres
		strings.Contains(msg, "Error 1062") // mysql ER_DUP_ENTRY
}
