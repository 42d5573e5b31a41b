// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies a failed store operation independently of the
// PostgreSQL error encoding, so callers never inspect SQLSTATE codes.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// ErrNotFound is the underlying error for lookups and updates that matched no row.
var ErrNotFound = errors.New("not found")

// Error is returned by every store method that fails.
type Error struct {
	Op         string // e.g. "update profile"
	Kind       Kind
	Constraint string // violated constraint name, for KindConflict
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindUnknown if err did not come from a store.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a store not-found error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsConflict reports whether err is a store uniqueness conflict.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// wrapErr classifies a database error and attaches the operation name.
// Returns nil for a nil error.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	e := &Error{Op: op, Kind: KindUnknown, Err: err}

	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, ErrNotFound):
		e.Kind = KindNotFound
		e.Err = ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		e.Kind = KindConflict
		e.Constraint = pgErr.ConstraintName
	}
	return e
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
