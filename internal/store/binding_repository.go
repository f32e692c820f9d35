package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// BindingRepository persists AgentPolicyBinding rows.
type BindingRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewBindingRepository(db *sqlx.DB, logger *zap.Logger) *BindingRepository {
	return &BindingRepository{db: db, logger: logger}
}

// Create inserts a new binding.
func (r *BindingRepository) Create(ctx context.Context, binding *AgentPolicyBinding) (*AgentPolicyBinding, error) {
	const query = `
		INSERT INTO agent_policy_bindings (id, workspace_id, agent_id, policy_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, workspace_id, agent_id, policy_id, status, bound_at`
	var out AgentPolicyBinding
	err := r.db.GetContext(ctx, &out, query,
		binding.ID, binding.WorkspaceID, binding.AgentID, binding.PolicyID, binding.Status)
	if err != nil {
		r.logger.Error("failed to insert binding", zap.Error(err), zap.String("binding_id", binding.ID))
		return nil, fmt.Errorf("failed to insert binding: %w", translateError(err, "binding"))
	}
	return &out, nil
}

// GetActiveForAgent retrieves the single active binding for an agent, if
// one exists. Callers treat sql.ErrNoRows (mapped to a 404 *Problem) as
// "agent has no active policy binding".
func (r *BindingRepository) GetActiveForAgent(ctx context.Context, workspaceID, agentID string) (*AgentPolicyBinding, error) {
	const query = `
		SELECT id, workspace_id, agent_id, policy_id, status, bound_at
		FROM agent_policy_bindings
		WHERE workspace_id = $1 AND agent_id = $2 AND status = 'active'`
	var binding AgentPolicyBinding
	if err := r.db.GetContext(ctx, &binding, query, workspaceID, agentID); err != nil {
		return nil, fmt.Errorf("failed to retrieve active binding: %w", translateError(err, "binding"))
	}
	return &binding, nil
}

// RevokeActiveForAgent revokes any currently-active binding for an agent,
// making room for a replacement.
func (r *BindingRepository) RevokeActiveForAgent(ctx context.Context, workspaceID, agentID string) error {
	const query = `
		UPDATE agent_policy_bindings SET status = 'revoked'
		WHERE workspace_id = $1 AND agent_id = $2 AND status = 'active'`
	if _, err := r.db.ExecContext(ctx, query, workspaceID, agentID); err != nil {
		return fmt.Errorf("failed to revoke active binding: %w", translateError(err, "binding"))
	}
	return nil
}
