package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// WorkspaceRepository persists Workspace rows.
type WorkspaceRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewWorkspaceRepository(db *sqlx.DB, logger *zap.Logger) *WorkspaceRepository {
	return &WorkspaceRepository{db: db, logger: logger}
}

// Create inserts a new workspace and returns its created_at.
func (r *WorkspaceRepository) Create(ctx context.Context, id string) (*Workspace, error) {
	const query = `INSERT INTO workspaces (id) VALUES ($1) RETURNING id, created_at`
	var ws Workspace
	if err := r.db.GetContext(ctx, &ws, query, id); err != nil {
		r.logger.Error("failed to insert workspace", zap.Error(err), zap.String("workspace_id", id))
		return nil, fmt.Errorf("failed to insert workspace: %w", translateError(err, "workspace"))
	}
	return &ws, nil
}

// GetByID retrieves a workspace by id.
func (r *WorkspaceRepository) GetByID(ctx context.Context, id string) (*Workspace, error) {
	const query = `SELECT id, created_at FROM workspaces WHERE id = $1`
	var ws Workspace
	if err := r.db.GetContext(ctx, &ws, query, id); err != nil {
		return nil, fmt.Errorf("failed to retrieve workspace: %w", translateError(err, "workspace"))
	}
	return &ws, nil
}

// HealthCheck verifies connectivity.
func (r *WorkspaceRepository) HealthCheck(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
