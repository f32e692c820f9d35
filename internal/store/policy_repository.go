package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// PolicyRepository persists Policy rows.
type PolicyRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPolicyRepository(db *sqlx.DB, logger *zap.Logger) *PolicyRepository {
	return &PolicyRepository{db: db, logger: logger}
}

// Create inserts a new policy version. A unique-violation on
// (workspace_id, name, version) surfaces as a *Problem conflict.
func (r *PolicyRepository) Create(ctx context.Context, policy *Policy) (*Policy, error) {
	const query = `
		INSERT INTO policies (id, workspace_id, name, version, schema_version, policy_json, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, workspace_id, name, version, schema_version, policy_json, is_active, created_at`
	var out Policy
	err := r.db.GetContext(ctx, &out, query,
		policy.ID, policy.WorkspaceID, policy.Name, policy.Version, policy.SchemaVersion, policy.PolicyJSON, policy.IsActive)
	if err != nil {
		r.logger.Error("failed to insert policy", zap.Error(err), zap.String("policy_id", policy.ID))
		return nil, fmt.Errorf("failed to insert policy: %w", translateError(err, "policy"))
	}
	return &out, nil
}

// GetByID retrieves a policy scoped to a workspace.
func (r *PolicyRepository) GetByID(ctx context.Context, workspaceID, policyID string) (*Policy, error) {
	const query = `
		SELECT id, workspace_id, name, version, schema_version, policy_json, is_active, created_at
		FROM policies WHERE workspace_id = $1 AND id = $2`
	var policy Policy
	if err := r.db.GetContext(ctx, &policy, query, workspaceID, policyID); err != nil {
		return nil, fmt.Errorf("failed to retrieve policy: %w", translateError(err, "policy"))
	}
	return &policy, nil
}
