package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jordigilh/verifyd/internal/cache"
	"github.com/jordigilh/verifyd/internal/store"
)

// adminHandler implements the out-of-core-scope CRUD surface for
// workspaces, agents, policies, and bindings. Every write still goes
// through the same repositories the verify pipeline reads from, so
// admin-created state is immediately consistent with it.
type adminHandler struct {
	workspaces      *store.WorkspaceRepository
	agents          *store.AgentRepository
	policies        *store.PolicyRepository
	bindings        *store.BindingRepository
	capabilities    *store.CapabilityRepository
	revocations     *store.RevocationRepository
	revocationCache *cache.RevocationCache
	validator       *validator.Validate
	logger          *zap.Logger
}

type createWorkspaceBody struct {
	ID string `json:"id" validate:"required"`
}

func (h *adminHandler) createWorkspace(w http.ResponseWriter, r *http.Request) {
	var body createWorkspaceBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "malformed_request", "request body is not valid JSON")
		return
	}
	if err := h.validator.Struct(body); err != nil {
		writeProblem(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	ws, err := h.workspaces.Create(r.Context(), body.ID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

type createAgentBody struct {
	WorkspaceID string `json:"workspace_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	PublicKey   string `json:"public_key" validate:"required"`
	Fingerprint string `json:"fingerprint" validate:"required"`
}

func (h *adminHandler) createAgent(w http.ResponseWriter, r *http.Request) {
	var body createAgentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "malformed_request", "request body is not valid JSON")
		return
	}
	if err := h.validator.Struct(body); err != nil {
		writeProblem(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	agent, err := h.agents.Create(r.Context(), &store.Agent{
		ID:          uuid.NewString(),
		WorkspaceID: body.WorkspaceID,
		Name:        body.Name,
		PublicKey:   body.PublicKey,
		Fingerprint: body.Fingerprint,
		Status:      store.AgentActive,
		Metadata:    []byte(`{}`),
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (h *adminHandler) revokeAgent(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspace_id")
	agentID := chi.URLParam(r, "id")
	if workspaceID == "" || agentID == "" {
		writeProblem(w, http.StatusBadRequest, "validation_failed", "workspace_id and agent id are required")
		return
	}
	if err := h.agents.Revoke(r.Context(), workspaceID, agentID); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createPolicyBody struct {
	WorkspaceID   string `json:"workspace_id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Version       int    `json:"version" validate:"required,min=1"`
	SchemaVersion int    `json:"schema_version" validate:"required,min=1"`
	PolicyJSON    json.RawMessage `json:"policy_json" validate:"required"`
	IsActive      bool   `json:"is_active"`
}

func (h *adminHandler) createPolicy(w http.ResponseWriter, r *http.Request) {
	var body createPolicyBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "malformed_request", "request body is not valid JSON")
		return
	}
	if err := h.validator.Struct(body); err != nil {
		writeProblem(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	policy, err := h.policies.Create(r.Context(), &store.Policy{
		ID:            uuid.NewString(),
		WorkspaceID:   body.WorkspaceID,
		Name:          body.Name,
		Version:       body.Version,
		SchemaVersion: body.SchemaVersion,
		PolicyJSON:    body.PolicyJSON,
		IsActive:      body.IsActive,
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, policy)
}

type createBindingBody struct {
	WorkspaceID string `json:"workspace_id" validate:"required"`
	AgentID     string `json:"agent_id" validate:"required"`
	PolicyID    string `json:"policy_id" validate:"required"`
}

func (h *adminHandler) createBinding(w http.ResponseWriter, r *http.Request) {
	var body createBindingBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "malformed_request", "request body is not valid JSON")
		return
	}
	if err := h.validator.Struct(body); err != nil {
		writeProblem(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	// At most one active binding per agent: revoke any existing one first.
	if err := h.bindings.RevokeActiveForAgent(r.Context(), body.WorkspaceID, body.AgentID); err != nil {
		h.writeStoreError(w, err)
		return
	}
	binding, err := h.bindings.Create(r.Context(), &store.AgentPolicyBinding{
		ID:          uuid.NewString(),
		WorkspaceID: body.WorkspaceID,
		AgentID:     body.AgentID,
		PolicyID:    body.PolicyID,
		Status:      store.BindingActive,
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, binding)
}

type revokeCapabilityBody struct {
	Reason string `json:"reason"`
}

// revokeCapability flips the durable Capability row to revoked, writes
// a durable Revocation tombstone, and seeds the ephemeral blacklist so
// the verify pipeline observes the revocation immediately rather than
// waiting for a cache-miss fallthrough to the database.
func (h *adminHandler) revokeCapability(w http.ResponseWriter, r *http.Request) {
	jti := chi.URLParam(r, "jti")
	if jti == "" {
		writeProblem(w, http.StatusBadRequest, "validation_failed", "jti is required")
		return
	}
	var body revokeCapabilityBody
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeProblem(w, http.StatusBadRequest, "malformed_request", "request body is not valid JSON")
			return
		}
	}

	cap, err := h.capabilities.GetByJTI(r.Context(), jti)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if err := h.capabilities.Revoke(r.Context(), jti); err != nil {
		h.writeStoreError(w, err)
		return
	}
	if _, err := h.revocations.Create(r.Context(), &store.Revocation{
		ID:          uuid.NewString(),
		WorkspaceID: cap.WorkspaceID,
		JTI:         jti,
		Reason:      body.Reason,
	}); err != nil {
		h.writeStoreError(w, err)
		return
	}
	if err := h.revocationCache.Revoke(r.Context(), jti, cap.ExpiresAt); err != nil {
		// The durable revocation is already committed; the cache is a
		// fast-path optimization the verify pipeline falls back past.
		h.logger.Warn("failed to seed revocation cache", zap.Error(err), zap.String("jti", jti))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *adminHandler) writeStoreError(w http.ResponseWriter, err error) {
	var problem *store.Problem
	if errors.As(err, &problem) {
		writeProblem(w, problem.Status, problem.Code, problem.Message)
		return
	}
	h.logger.Error("admin operation failed", zap.Error(err))
	writeProblem(w, http.StatusInternalServerError, "internal_error", "operation failed")
}
