package store

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Problem is an RFC7807-flavored repository error: a terse machine
// status alongside a human message, cheap to map straight onto an HTTP
// response without leaking driver-level detail.
type Problem struct {
	Status  int
	Code    string
	Message string
}

func (p *Problem) Error() string {
	return p.Message
}

// ErrNotFound builds a 404 Problem for the given resource.
func ErrNotFound(resource string) *Problem {
	return &Problem{Status: 404, Code: "not_found", Message: resource + " not found"}
}

// ErrConflict builds a 409 Problem for a unique-constraint violation.
func ErrConflict(resource string) *Problem {
	return &Problem{Status: 409, Code: "conflict", Message: resource + " already exists"}
}

// translateError maps sql.ErrNoRows and Postgres unique-violation
// errors (SQLSTATE 23505) to a *Problem; any other error passes
// through unchanged for the caller to wrap as a database error.
func translateError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound(resource)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict(resource)
	}
	return err
}
