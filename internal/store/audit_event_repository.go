package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// AuditEventRepository persists AuditEvent rows and serializes the
// per-workspace append so seq/prev_hash stay contiguous under
// concurrent verify requests for the same workspace.
type AuditEventRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAuditEventRepository(db *sqlx.DB, logger *zap.Logger) *AuditEventRepository {
	return &AuditEventRepository{db: db, logger: logger}
}

// workspaceLockKey folds a workspace_id into a 64-bit key for
// pg_advisory_xact_lock, which only accepts a bigint.
func workspaceLockKey(workspaceID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(workspaceID))
	return int64(h.Sum64())
}

// LockWorkspace acquires a transaction-scoped advisory lock for
// workspaceID. Callers must hold this for the duration of a read-latest
// + append pair so two concurrent requests for the same workspace can
// never observe the same (seq, hash) and race to append the same seq.
func (r *AuditEventRepository) LockWorkspace(ctx context.Context, tx *sqlx.Tx, workspaceID string) error {
	const query = `SELECT pg_advisory_xact_lock($1)`
	if _, err := tx.ExecContext(ctx, query, workspaceLockKey(workspaceID)); err != nil {
		return fmt.Errorf("failed to acquire workspace audit lock: %w", err)
	}
	return nil
}

// GenesisHash is the prev_hash used when a workspace has no prior audit
// events.
const GenesisHash = "GENESIS"

// LatestForWorkspace returns the (seq, hash) of the most recent audit
// event for workspaceID, or (0, GenesisHash) if the workspace has none
// yet. Must be called after LockWorkspace within the same transaction.
func (r *AuditEventRepository) LatestForWorkspace(ctx context.Context, tx *sqlx.Tx, workspaceID string) (int64, string, error) {
	const query = `
		SELECT seq, hash FROM audit_events
		WHERE workspace_id = $1 ORDER BY seq DESC LIMIT 1`
	var seq int64
	var hash string
	err := tx.QueryRowContext(ctx, query, workspaceID).Scan(&seq, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, GenesisHash, nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("failed to read latest audit event: %w", err)
	}
	return seq, hash, nil
}

// Append inserts the next audit event within tx. Callers compute Seq,
// PrevHash and Hash themselves (see internal/audit) before calling this.
func (r *AuditEventRepository) Append(ctx context.Context, tx *sqlx.Tx, event *AuditEvent) (*AuditEvent, error) {
	const query = `
		INSERT INTO audit_events (id, workspace_id, seq, event_type, subject_type, subject_id, event_data, prev_hash, hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, workspace_id, seq, event_type, subject_type, subject_id, event_data, prev_hash, hash, created_at`
	var out AuditEvent
	err := tx.GetContext(ctx, &out, query,
		event.ID, event.WorkspaceID, event.Seq, event.EventType, event.SubjectType,
		event.SubjectID, event.EventData, event.PrevHash, event.Hash)
	if err != nil {
		r.logger.Error("failed to append audit event", zap.Error(err), zap.String("workspace_id", event.WorkspaceID))
		return nil, fmt.Errorf("failed to append audit event: %w", translateError(err, "audit_event"))
	}
	return &out, nil
}

// BeginTx starts a transaction for a caller-coordinated append sequence.
func (r *AuditEventRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	return tx, nil
}
