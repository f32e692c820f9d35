package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jordigilh/verifyd/internal/capissuer"
	apperrors "github.com/jordigilh/verifyd/internal/errors"
	"github.com/jordigilh/verifyd/internal/validation"
	"github.com/jordigilh/verifyd/pkg/captoken"
)

// minTTLMinutes and maxTTLMinutes are fixed outer limits, in minutes,
// for request-time rejection. They do not follow the capissuer.Bounds
// configured on the issuer; a value inside these limits but outside
// the issuer's bounds is clamped by the issuer.
const (
	minTTLMinutes = 1
	maxTTLMinutes = 24 * 60
)

// CapabilityRequestBody is the wire shape of POST /capabilities/request.
type CapabilityRequestBody struct {
	WorkspaceID     string   `json:"workspace_id" validate:"required"`
	AgentID         string   `json:"agent_id" validate:"required"`
	PolicyID        string   `json:"policy_id" validate:"required"`
	PolicyVersion   int      `json:"policy_version" validate:"required"`
	RequestedScopes []string `json:"requested_scopes" validate:"required,min=1"`
	MaxSpend        float64  `json:"max_spend"`
	TTLMinutes      int      `json:"ttl_minutes"`
}

// CapabilityResponseBody is the wire shape of a successful issuance.
type CapabilityResponseBody struct {
	Token     string    `json:"token"`
	JTI       string    `json:"jti"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type capabilityHandler struct {
	issuer    *capissuer.Issuer
	validator *validator.Validate
	logger    *zap.Logger
}

func (h *capabilityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body CapabilityRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "malformed_request", "request body is not valid JSON")
		return
	}
	if err := h.validator.Struct(body); err != nil {
		writeProblem(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if err := validation.ValidateScopes(body.RequestedScopes); err != nil {
		writeProblem(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if body.TTLMinutes != 0 {
		if err := validation.ValidateTTLMinutes(body.TTLMinutes, minTTLMinutes, maxTTLMinutes); err != nil {
			writeProblem(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
	}
	if !workspaceHeaderGuard(body.WorkspaceID, r.Header.Get("X-Workspace-Id")) {
		writeProblem(w, http.StatusForbidden, "WORKSPACE_MISMATCH", "X-Workspace-Id header does not match request body")
		return
	}

	issued, err := h.issuer.Issue(r.Context(), capissuer.Request{
		WorkspaceID:     body.WorkspaceID,
		AgentID:         body.AgentID,
		PolicyID:        body.PolicyID,
		PolicyVersion:   body.PolicyVersion,
		RequestedScopes: body.RequestedScopes,
		RequestedLimits: captoken.Limits{MaxSpend: body.MaxSpend},
		TTL:             time.Duration(body.TTLMinutes) * time.Minute,
	}, time.Now())
	if err == capissuer.ErrAgentNotActive {
		writeProblem(w, http.StatusForbidden, "AGENT_REVOKED", "agent is not active")
		return
	}
	if apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		writeProblem(w, http.StatusBadRequest, "validation_failed", apperrors.SafeErrorMessage(err))
		return
	}
	if err != nil {
		h.logger.Error("capability issuance failed", zap.Error(err), zap.String("workspace_id", body.WorkspaceID))
		writeProblem(w, http.StatusInternalServerError, "internal_error", "capability could not be issued")
		return
	}

	writeJSON(w, http.StatusCreated, CapabilityResponseBody{
		Token: issued.Token, JTI: issued.JTI, IssuedAt: issued.IssuedAt, ExpiresAt: issued.ExpiresAt,
	})
}
