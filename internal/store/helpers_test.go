package store_test

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jordigilh/verifyd/internal/store"
)

// newUniqueViolation builds a *pgconn.PgError carrying the Postgres
// unique-violation SQLSTATE, the same error shape the real driver
// returns, so translateError's errors.As check exercises the real path.
func newUniqueViolation() *pgconn.PgError {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

func isProblem(err error, target **store.Problem) bool {
	return errors.As(err, target)
}
