// Package repository implements the credential store on MySQL using raw SQL.
// Repositories translate driver-level failures into the sentinels below so
// services never depend on driver error types.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no row matches the lookup or update.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update would violate a unique
// key (email, username or refresh token hash).
var ErrDuplicate = errors.New("duplicate entry")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// translate maps driver errors onto repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case isDuplicate(err):
		return ErrDuplicate
	}
	return err
}

// expectAffected turns a zero-row update into ErrNotFound.
func expectAffected(res sql.Result, err error) error {
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
