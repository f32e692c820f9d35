// Package verifyengine implements the verify_action decision pipeline:
// the twelve ordered gates that turn a capability-bearing action
// request into an ALLOW or a reasoned DENY, with every call producing
// an audited, hash-chained record regardless of outcome.
package verifyengine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jordigilh/verifyd/internal/audit"
	"github.com/jordigilh/verifyd/internal/cache"
	"github.com/jordigilh/verifyd/internal/policy"
	"github.com/jordigilh/verifyd/internal/store"
	"github.com/jordigilh/verifyd/pkg/canon"
	"github.com/jordigilh/verifyd/pkg/captoken"
	"github.com/jordigilh/verifyd/pkg/ed25519verify"
)

// Request is one verify_action call.
type Request struct {
	WorkspaceID     string
	AgentID         string
	ActionType      string
	TargetService   string
	Payload         map[string]interface{}
	CapabilityToken string
	Signature       []byte // over the canonical signed envelope
}

// Result is the outcome of a verify_action call.
type Result struct {
	Decision     Decision
	Reason       ReasonCode
	AuditEventID string
}

// Engine wires together every dependency the pipeline needs: the
// durable store, the revocation/rate-limit cache, the capability
// codec, and the audit appender.
type Engine struct {
	agents          *store.AgentRepository
	capabilities    *store.CapabilityRepository
	bindings        *store.BindingRepository
	policies        *store.PolicyRepository
	revocationStore *store.RevocationRepository
	revocationCache *cache.RevocationCache
	rateLimiter     *cache.RateLimiter
	codec           *captoken.Codec
	appender        *audit.Appender
	logger          *zap.Logger
}

type Deps struct {
	Agents          *store.AgentRepository
	Capabilities    *store.CapabilityRepository
	Bindings        *store.BindingRepository
	Policies        *store.PolicyRepository
	RevocationStore *store.RevocationRepository
	RevocationCache *cache.RevocationCache
	RateLimiter     *cache.RateLimiter
	Codec           *captoken.Codec
	Appender        *audit.Appender
	Logger          *zap.Logger
}

func NewEngine(d Deps) *Engine {
	return &Engine{
		agents:          d.Agents,
		capabilities:    d.Capabilities,
		bindings:        d.Bindings,
		policies:        d.Policies,
		revocationStore: d.RevocationStore,
		revocationCache: d.RevocationCache,
		rateLimiter:     d.RateLimiter,
		codec:           d.Codec,
		appender:        d.Appender,
		logger:          d.Logger,
	}
}

// Verify runs the twelve-step pipeline. Every call appends a
// "requested" audit event followed by exactly one terminal event
// ("...allowed" or "...denied"), committed together in a single
// transaction regardless of where the pipeline terminates.
func (e *Engine) Verify(ctx context.Context, req Request) (Result, error) {
	now := time.Now()

	tx, err := e.appender.BeginTx(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to begin verify transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	requestedData := canon.Obj(
		canon.Member{Key: "action_type", Value: canon.Str(req.ActionType)},
		canon.Member{Key: "target_service", Value: canon.Str(req.TargetService)},
	)
	if _, err := e.appender.Append(ctx, tx, audit.Request{
		WorkspaceID: req.WorkspaceID,
		EventType:   "action.verification.requested",
		SubjectType: "agent",
		SubjectID:   req.AgentID,
		EventData:   requestedData,
	}, now); err != nil {
		return Result{}, fmt.Errorf("failed to append requested audit event: %w", err)
	}

	decision, reason, diagnostics := e.evaluate(ctx, req)

	terminalType := "action.verification.denied"
	if decision == DecisionAllow {
		terminalType = "action.verification.allowed"
	}
	terminalData := canon.Obj(
		canon.Member{Key: "decision", Value: canon.Str(string(decision))},
		canon.Member{Key: "reason_code", Value: reasonValue(reason)},
		canon.Member{Key: "action_type", Value: canon.Str(req.ActionType)},
		canon.Member{Key: "diagnostics", Value: diagnostics},
	)
	terminalEvent, err := e.appender.Append(ctx, tx, audit.Request{
		WorkspaceID: req.WorkspaceID,
		EventType:   terminalType,
		SubjectType: "agent",
		SubjectID:   req.AgentID,
		EventData:   terminalData,
	}, now)
	if err != nil {
		return Result{}, fmt.Errorf("failed to append terminal audit event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("failed to commit verify transaction: %w", err)
	}
	committed = true

	return Result{Decision: decision, Reason: reason, AuditEventID: terminalEvent.ID}, nil
}

func reasonValue(reason ReasonCode) canon.Value {
	if reason == ReasonNone {
		return canon.Null()
	}
	return canon.Str(string(reason))
}

// evaluate runs steps 2-12 of the pipeline and never returns an error:
// a failed store lookup is mapped to that step's reason code (a failed
// revocation-store probe falls through to step 6), and a rate-limiter
// error follows the fail-open setting. Only failures of the audit
// transaction propagate out of Verify (the caller maps those to a 5xx
// without a partial audit commit).
func (e *Engine) evaluate(ctx context.Context, req Request) (Decision, ReasonCode, canon.Value) {
	diag := func(pairs ...canon.Member) canon.Value { return canon.Obj(pairs...) }

	// Step 2: load agent.
	agent, err := e.agents.GetByID(ctx, req.WorkspaceID, req.AgentID)
	if err != nil {
		return DecisionDeny, ReasonAgentNotFound, diag()
	}
	if agent.Status != store.AgentActive {
		return DecisionDeny, ReasonAgentRevoked, diag()
	}

	// Step 3: decode capability token.
	outcome := e.codec.Decode(req.CapabilityToken)
	switch outcome.Kind {
	case captoken.Expired:
		return DecisionDeny, ReasonCapabilityExpired, diag()
	case captoken.Invalid:
		return DecisionDeny, ReasonCapabilityInvalid, diag()
	}
	claims := outcome.Claims

	// Step 4: claims must agree with the request.
	jti := claims.JTI()
	if claims.Subject() != req.AgentID || claims.WorkspaceID != req.WorkspaceID {
		return DecisionDeny, ReasonWorkspaceMismatch, diag(canon.Member{Key: "jti", Value: canon.Str(jti)})
	}

	// Step 5: consult the revocation cache first.
	status, cacheErr := e.revocationCache.IsRevoked(ctx, jti)
	if cacheErr != nil || status == cache.Unknown {
		revoked, err := e.revocationStore.ExistsForJTI(ctx, jti)
		if err == nil && revoked {
			return DecisionDeny, ReasonCapabilityRevoked, diag(canon.Member{Key: "jti", Value: canon.Str(jti)})
		}
	} else if status == cache.Revoked {
		return DecisionDeny, ReasonCapabilityRevoked, diag(canon.Member{Key: "jti", Value: canon.Str(jti)})
	}

	// Step 6: load the capability row by jti.
	capRow, err := e.capabilities.GetByJTI(ctx, jti)
	if err != nil || capRow.Status != store.CapabilityActive {
		return DecisionDeny, ReasonCapabilityRevoked, diag(canon.Member{Key: "jti", Value: canon.Str(jti)})
	}

	// Step 7: capability scopes must allow the action/tool.
	tool := policy.ExtractTool(req.Payload)
	capScopes, err := decodeScopes(capRow.Scopes)
	if err != nil || !policy.ScopesAllowAction(capScopes, req.ActionType, tool) {
		return DecisionDeny, ReasonScopeMismatch, diag(canon.Member{Key: "jti", Value: canon.Str(jti)})
	}

	// Step 8: verify the signed envelope.
	envelope := ed25519verify.Envelope{
		AgentID:       req.AgentID,
		WorkspaceID:   req.WorkspaceID,
		ActionType:    req.ActionType,
		TargetService: req.TargetService,
		Payload:       req.Payload,
		CapabilityJTI: jti,
	}
	publicKey, err := base64.StdEncoding.DecodeString(agent.PublicKey)
	if err != nil {
		return DecisionDeny, ReasonSignatureInvalid, diag()
	}
	ok, err := ed25519verify.Verify(envelope, publicKey, req.Signature)
	if err != nil || !ok {
		return DecisionDeny, ReasonSignatureInvalid, diag()
	}

	// Step 9: load the agent's single active binding and its policy.
	binding, err := e.bindings.GetActiveForAgent(ctx, req.WorkspaceID, req.AgentID)
	if err != nil {
		return DecisionDeny, ReasonPolicyNotBound, diag()
	}
	policyRow, err := e.policies.GetByID(ctx, req.WorkspaceID, binding.PolicyID)
	if err != nil || !policyRow.IsActive || policyRow.WorkspaceID != req.WorkspaceID {
		return DecisionDeny, ReasonPolicyNotBound, diag()
	}
	doc, err := policy.ParseDocument(policyRow.PolicyJSON)
	if err != nil {
		return DecisionDeny, ReasonPolicyNotBound, diag()
	}

	// Step 9 (continued): the policy's allowed_tools is the second
	// scope gate. There is no separate reason code for a policy-level
	// tool mismatch in the closed reason-code set, so this collapses
	// to the same CAPABILITY_SCOPE_MISMATCH as step 7. See
	// policy.ScopesAllowAction's doc comment for the full rationale.
	if !policy.ScopesAllowAction(doc.AllowedTools, req.ActionType, tool) {
		return DecisionDeny, ReasonScopeMismatch, diag(canon.Member{Key: "jti", Value: canon.Str(jti)})
	}

	// Step 10: spend limit.
	if !policy.PolicyAllowsPayloadSpend(doc, req.Payload) {
		return DecisionDeny, ReasonSpendLimitExceeded, diag()
	}

	// Step 11: rate limit.
	if doc.RateLimits != nil && doc.RateLimits.MaxActionsPerMin != nil {
		count, err := e.rateLimiter.Increment(ctx, req.WorkspaceID, req.AgentID, req.ActionType, time.Now())
		if err != nil {
			if !e.rateLimiter.FailOpen() {
				return DecisionDeny, ReasonRateLimitExceeded, diag()
			}
		} else if !policy.PolicyAllowsRate(doc, count) {
			return DecisionDeny, ReasonRateLimitExceeded, diag()
		}
	}

	// Step 12: allow.
	return DecisionAllow, ReasonNone, diag(canon.Member{Key: "jti", Value: canon.Str(jti)})
}

// scopesDocument mirrors the wire shape a capability's Scopes column
// stores: {"items": ["purchase", ...]}.
type scopesDocument struct {
	Items []string `json:"items"`
}

func decodeScopes(raw []byte) ([]string, error) {
	var doc scopesDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc.Items, nil
}
