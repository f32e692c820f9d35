// Package capissuer implements capability issuance: validating the
// requesting agent, clamping the requested TTL into policy bounds,
// minting a signed token, persisting the matching Capability row, and
// recording a capability.issued audit event. The Capability row is
// written outside the audit transaction, so the two commits are not
// atomic: a failed audit append leaves the stored row in place.
package capissuer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jordigilh/verifyd/internal/audit"
	apperrors "github.com/jordigilh/verifyd/internal/errors"
	"github.com/jordigilh/verifyd/internal/store"
	"github.com/jordigilh/verifyd/internal/validation"
	"github.com/jordigilh/verifyd/pkg/canon"
	"github.com/jordigilh/verifyd/pkg/captoken"
)

// Request describes a requested capability grant.
type Request struct {
	WorkspaceID     string
	AgentID         string
	RequestedScopes []string
	RequestedLimits captoken.Limits
	PolicyID        string
	PolicyVersion   int
	TTL             time.Duration
}

// Issued is the result of a successful issuance.
type Issued struct {
	Token     string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Bounds clamps a requested TTL into the configured min/max window.
type Bounds struct {
	Default time.Duration
	Min     time.Duration
	Max     time.Duration
}

func (b Bounds) Clamp(requested time.Duration) time.Duration {
	ttl := requested
	if ttl <= 0 {
		ttl = b.Default
	}
	if ttl < b.Min {
		ttl = b.Min
	}
	if ttl > b.Max {
		ttl = b.Max
	}
	return ttl
}

// Issuer mints capabilities.
type Issuer struct {
	agents       *store.AgentRepository
	capabilities *store.CapabilityRepository
	codec        *captoken.Codec
	appender     *audit.Appender
	bounds       Bounds
	logger       *zap.Logger
}

type Deps struct {
	Agents       *store.AgentRepository
	Capabilities *store.CapabilityRepository
	Codec        *captoken.Codec
	Appender     *audit.Appender
	Bounds       Bounds
	Logger       *zap.Logger
}

func NewIssuer(d Deps) *Issuer {
	return &Issuer{
		agents:       d.Agents,
		capabilities: d.Capabilities,
		codec:        d.Codec,
		appender:     d.Appender,
		bounds:       d.Bounds,
		logger:       d.Logger,
	}
}

// ErrAgentNotActive is returned when issuance is requested for an agent
// that exists but is not active. An agent that does not exist yields
// the wrapped error of the agent lookup instead.
var ErrAgentNotActive = apperrors.New(apperrors.ErrorTypeAuth, "capissuer: agent is not active")

// Issue validates the agent, clamps the TTL, mints a token, persists
// the Capability row, and appends a capability.issued audit event. The
// returned token's jti matches the stored row's jti.
func (i *Issuer) Issue(ctx context.Context, req Request, now time.Time) (*Issued, error) {
	if err := validation.ValidateScopes(req.RequestedScopes); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeValidation, "capissuer: invalid requested scopes")
	}

	agent, err := i.agents.GetByID(ctx, req.WorkspaceID, req.AgentID)
	if err != nil {
		return nil, fmt.Errorf("capissuer: failed to load agent: %w", err)
	}
	if agent.Status != store.AgentActive {
		return nil, ErrAgentNotActive
	}

	ttl := i.bounds.Clamp(req.TTL)
	jti := uuid.NewString()
	expiresAt := now.Add(ttl)

	token, err := i.codec.Issue(captoken.IssueParams{
		AgentID:       req.AgentID,
		WorkspaceID:   req.WorkspaceID,
		Scopes:        req.RequestedScopes,
		Limits:        req.RequestedLimits,
		PolicyID:      req.PolicyID,
		PolicyVersion: req.PolicyVersion,
		JTI:           jti,
		IssuedAt:      now,
		TTL:           ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("capissuer: failed to sign capability token: %w", err)
	}

	scopesJSON, err := json.Marshal(struct {
		Items []string `json:"items"`
	}{Items: req.RequestedScopes})
	if err != nil {
		return nil, fmt.Errorf("capissuer: failed to encode scopes: %w", err)
	}
	limitsJSON, err := json.Marshal(req.RequestedLimits)
	if err != nil {
		return nil, fmt.Errorf("capissuer: failed to encode limits: %w", err)
	}

	row := &store.Capability{
		ID:          uuid.NewString(),
		WorkspaceID: req.WorkspaceID,
		AgentID:     req.AgentID,
		JTI:         jti,
		Scopes:      scopesJSON,
		Limits:      limitsJSON,
		Status:      store.CapabilityActive,
		IssuedAt:    now,
		ExpiresAt:   expiresAt,
	}
	if _, err := i.capabilities.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("capissuer: failed to persist capability: %w", err)
	}

	tx, err := i.appender.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("capissuer: failed to begin audit transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	eventData := canon.Obj(
		canon.Member{Key: "jti", Value: canon.Str(jti)},
		canon.Member{Key: "ttl_seconds", Value: canon.Int(int64(ttl.Seconds()))},
	)
	if _, err := i.appender.Append(ctx, tx, audit.Request{
		WorkspaceID: req.WorkspaceID,
		EventType:   "capability.issued",
		SubjectType: "agent",
		SubjectID:   req.AgentID,
		EventData:   eventData,
	}, now); err != nil {
		return nil, fmt.Errorf("capissuer: failed to append audit event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("capissuer: failed to commit audit transaction: %w", err)
	}
	committed = true

	return &Issued{Token: token, JTI: jti, IssuedAt: now, ExpiresAt: expiresAt}, nil
}
