package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// AgentRepository persists Agent rows.
type AgentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAgentRepository(db *sqlx.DB, logger *zap.Logger) *AgentRepository {
	return &AgentRepository{db: db, logger: logger}
}

// Create inserts a new agent. A unique-violation on fingerprint or on
// (workspace_id, name) surfaces as a *Problem conflict.
func (r *AgentRepository) Create(ctx context.Context, agent *Agent) (*Agent, error) {
	const query = `
		INSERT INTO agents (id, workspace_id, name, public_key, fingerprint, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, workspace_id, name, public_key, fingerprint, status, metadata, created_at`
	var out Agent
	err := r.db.GetContext(ctx, &out, query,
		agent.ID, agent.WorkspaceID, agent.Name, agent.PublicKey, agent.Fingerprint, agent.Status, agent.Metadata)
	if err != nil {
		r.logger.Error("failed to insert agent", zap.Error(err), zap.String("agent_id", agent.ID))
		return nil, fmt.Errorf("failed to insert agent: %w", translateError(err, "agent"))
	}
	return &out, nil
}

// GetByID retrieves an agent scoped to a workspace.
func (r *AgentRepository) GetByID(ctx context.Context, workspaceID, agentID string) (*Agent, error) {
	const query = `
		SELECT id, workspace_id, name, public_key, fingerprint, status, metadata, created_at
		FROM agents WHERE workspace_id = $1 AND id = $2`
	var agent Agent
	if err := r.db.GetContext(ctx, &agent, query, workspaceID, agentID); err != nil {
		return nil, fmt.Errorf("failed to retrieve agent: %w", translateError(err, "agent"))
	}
	return &agent, nil
}

// GetByFingerprint retrieves an agent by its globally-unique key fingerprint.
func (r *AgentRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*Agent, error) {
	const query = `
		SELECT id, workspace_id, name, public_key, fingerprint, status, metadata, created_at
		FROM agents WHERE fingerprint = $1`
	var agent Agent
	if err := r.db.GetContext(ctx, &agent, query, fingerprint); err != nil {
		return nil, fmt.Errorf("failed to retrieve agent by fingerprint: %w", translateError(err, "agent"))
	}
	return &agent, nil
}

// Revoke flips an agent's status to revoked.
func (r *AgentRepository) Revoke(ctx context.Context, workspaceID, agentID string) error {
	const query = `UPDATE agents SET status = 'revoked' WHERE workspace_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, workspaceID, agentID)
	if err != nil {
		return fmt.Errorf("failed to revoke agent: %w", translateError(err, "agent"))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to confirm agent revocation: %w", err)
	}
	if n == 0 {
		return ErrNotFound("agent")
	}
	return nil
}
