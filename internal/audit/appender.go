// Package audit implements the append-only, hash-chained audit log
// described for verifyd: every event's hash commits to the previous
// event's hash and the canonical encoding of its own fields, so the
// chain for a workspace can be replayed and verified independently of
// the database that stores it.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jordigilh/verifyd/internal/store"
	"github.com/jordigilh/verifyd/pkg/canon"
)

// Request describes one event to append.
type Request struct {
	WorkspaceID string
	EventType   string
	SubjectType string
	SubjectID   string
	EventData   canon.Value
}

// Appender serializes audit event appends per workspace and maintains
// the hash chain.
type Appender struct {
	repo *store.AuditEventRepository
}

func NewAppender(repo *store.AuditEventRepository) *Appender {
	return &Appender{repo: repo}
}

// Append acquires the workspace's advisory lock within tx, reads the
// latest (seq, hash), computes the next event's hash, and inserts it.
// The caller owns the transaction and decides when to commit — this
// lets the verify engine append two events (requested, then the
// terminal decision) and commit exactly once.
func (a *Appender) Append(ctx context.Context, tx *sqlx.Tx, req Request, now time.Time) (*store.AuditEvent, error) {
	if err := a.repo.LockWorkspace(ctx, tx, req.WorkspaceID); err != nil {
		return nil, err
	}
	prevSeq, prevHash, err := a.repo.LatestForWorkspace(ctx, tx, req.WorkspaceID)
	if err != nil {
		return nil, err
	}
	seq := prevSeq + 1

	eventDataJSON := []byte(canon.Encode(req.EventData))

	hashInput := canon.Obj(
		canon.Member{Key: "workspace_id", Value: canon.Str(req.WorkspaceID)},
		canon.Member{Key: "seq", Value: canon.Int(seq)},
		canon.Member{Key: "event_type", Value: canon.Str(req.EventType)},
		canon.Member{Key: "subject_type", Value: canon.Str(req.SubjectType)},
		canon.Member{Key: "subject_id", Value: canon.Str(req.SubjectID)},
		canon.Member{Key: "event_data", Value: req.EventData},
		canon.Member{Key: "created_at", Value: canon.Str(now.UTC().Format(time.RFC3339Nano))},
	)
	canonical := prevHash + canon.Encode(hashInput)
	sum := sha256.Sum256([]byte(canonical))
	hash := hex.EncodeToString(sum[:])

	event := &store.AuditEvent{
		ID:          uuid.NewString(),
		WorkspaceID: req.WorkspaceID,
		Seq:         seq,
		EventType:   req.EventType,
		SubjectType: req.SubjectType,
		SubjectID:   req.SubjectID,
		EventData:   eventDataJSON,
		PrevHash:    prevHash,
		Hash:        hash,
	}
	out, err := a.repo.Append(ctx, tx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to append audit event: %w", err)
	}
	return out, nil
}

// BeginTx starts a transaction for a caller-coordinated append sequence.
func (a *Appender) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return a.repo.BeginTx(ctx)
}
