package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// CapabilityRepository persists Capability rows.
type CapabilityRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewCapabilityRepository(db *sqlx.DB, logger *zap.Logger) *CapabilityRepository {
	return &CapabilityRepository{db: db, logger: logger}
}

// Create inserts a newly-issued capability. A unique-violation on jti
// surfaces as a *Problem conflict; jti is generated fresh by the caller
// so a collision should never happen in practice.
func (r *CapabilityRepository) Create(ctx context.Context, cap *Capability) (*Capability, error) {
	const query = `
		INSERT INTO capabilities (id, workspace_id, agent_id, jti, scopes, limits, status, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, workspace_id, agent_id, jti, scopes, limits, status, issued_at, expires_at`
	var out Capability
	err := r.db.GetContext(ctx, &out, query,
		cap.ID, cap.WorkspaceID, cap.AgentID, cap.JTI, cap.Scopes, cap.Limits, cap.Status, cap.IssuedAt, cap.ExpiresAt)
	if err != nil {
		r.logger.Error("failed to insert capability", zap.Error(err), zap.String("jti", cap.JTI))
		return nil, fmt.Errorf("failed to insert capability: %w", translateError(err, "capability"))
	}
	return &out, nil
}

// GetByJTI retrieves a capability by its globally-unique jti, regardless
// of workspace — the verify pipeline cross-checks the workspace_id
// against the request separately.
func (r *CapabilityRepository) GetByJTI(ctx context.Context, jti string) (*Capability, error) {
	const query = `
		SELECT id, workspace_id, agent_id, jti, scopes, limits, status, issued_at, expires_at
		FROM capabilities WHERE jti = $1`
	var cap Capability
	if err := r.db.GetContext(ctx, &cap, query, jti); err != nil {
		return nil, fmt.Errorf("failed to retrieve capability: %w", translateError(err, "capability"))
	}
	return &cap, nil
}

// Revoke flips a capability's status to revoked.
func (r *CapabilityRepository) Revoke(ctx context.Context, jti string) error {
	const query = `UPDATE capabilities SET status = 'revoked' WHERE jti = $1`
	res, err := r.db.ExecContext(ctx, query, jti)
	if err != nil {
		return fmt.Errorf("failed to revoke capability: %w", translateError(err, "capability"))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to confirm capability revocation: %w", err)
	}
	if n == 0 {
		return ErrNotFound("capability")
	}
	return nil
}
