package database

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed schema.sql
var schemaSQL string

// New creates a new database connection pool.
//
// SQLite allows a single writer, so the pool is capped at one connection and
// concurrent writers queue behind it instead of failing with SQLITE_BUSY.
func New(dataSourceName string) (*sql.DB, error) {
	dsn := dataSourceName + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY
// constraint rejection from SQLite.
func IsUniqueViolation(err error) bool {
	return isConstraint(err, "UNIQUE constraint failed", sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}

// IsCheckViolation reports whether err is a CHECK constraint rejection.
func IsCheckViolation(err error) bool {
	return isConstraint(err, "CHECK constraint failed", sqlite3.SQLITE_CONSTRAINT_CHECK)
}

// isConstraint matches the extended result code when the driver reports
// one and otherwise falls back to SQLite's message text. Extended codes
// are not always enabled on the connection, and errors passed through a
// database/sql wrapper keep only the message.
func isConstraint(err error, text string, codes ...int) bool {
	if err == nil {
		return false
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		for _, code := range codes {
			if se.Code() == code {
				return true
			}
		}
	}
	return strings.Contains(err.Error(), text)
}
