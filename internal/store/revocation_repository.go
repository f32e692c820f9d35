package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// RevocationRepository persists Revocation rows: the durable record
// backing the ephemeral blacklist cache when it is unreachable or cold.
type RevocationRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewRevocationRepository(db *sqlx.DB, logger *zap.Logger) *RevocationRepository {
	return &RevocationRepository{db: db, logger: logger}
}

// Create inserts a new revocation record.
func (r *RevocationRepository) Create(ctx context.Context, rev *Revocation) (*Revocation, error) {
	const query = `
		INSERT INTO revocations (id, workspace_id, jti, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, workspace_id, jti, revoked_at, reason`
	var out Revocation
	err := r.db.GetContext(ctx, &out, query, rev.ID, rev.WorkspaceID, rev.JTI, rev.Reason)
	if err != nil {
		r.logger.Error("failed to insert revocation", zap.Error(err), zap.String("jti", rev.JTI))
		return nil, fmt.Errorf("failed to insert revocation: %w", translateError(err, "revocation"))
	}
	return &out, nil
}

// ExistsForJTI reports whether a durable revocation record exists for
// jti, used as the source of truth when the cache is unreachable.
func (r *RevocationRepository) ExistsForJTI(ctx context.Context, jti string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM revocations WHERE jti = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, jti); err != nil {
		return false, fmt.Errorf("failed to check revocation record: %w", err)
	}
	return exists, nil
}
