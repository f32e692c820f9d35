package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jordigilh/verifyd/internal/validation"
	"github.com/jordigilh/verifyd/internal/verifyengine"
)

// VerifyRequestBody is the wire shape of POST /verify.
type VerifyRequestBody struct {
	WorkspaceID     string                 `json:"workspace_id" validate:"required"`
	AgentID         string                 `json:"agent_id" validate:"required"`
	ActionType      string                 `json:"action_type" validate:"required"`
	TargetService   string                 `json:"target_service" validate:"required"`
	Payload         map[string]interface{} `json:"payload"`
	CapabilityToken string                 `json:"capability_token" validate:"required"`
	Signature       string                 `json:"signature" validate:"required"` // base64
}

// VerifyResponseBody is the wire shape of a successful POST /verify call.
// A DENY is still a 200: decision errors are never 5xx.
type VerifyResponseBody struct {
	Decision     string  `json:"decision"`
	Reason       *string `json:"reason_code"`
	AuditEventID string  `json:"audit_event_id"`
}

type verifyHandler struct {
	engine    *verifyengine.Engine
	validator *validator.Validate
	logger    *zap.Logger
}

func (h *verifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body VerifyRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "malformed_request", "request body is not valid JSON")
		return
	}
	if err := h.validator.Struct(body); err != nil {
		writeProblem(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	if err := validation.ValidateActionType(body.ActionType); err != nil {
		writeProblem(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	if !workspaceHeaderGuard(body.WorkspaceID, r.Header.Get("X-Workspace-Id")) {
		writeProblem(w, http.StatusForbidden, "WORKSPACE_MISMATCH", "X-Workspace-Id header does not match request body")
		return
	}

	signature, err := base64.StdEncoding.DecodeString(body.Signature)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "malformed_request", "signature is not valid base64")
		return
	}

	result, err := h.engine.Verify(r.Context(), verifyengine.Request{
		WorkspaceID:     body.WorkspaceID,
		AgentID:         body.AgentID,
		ActionType:      body.ActionType,
		TargetService:   body.TargetService,
		Payload:         body.Payload,
		CapabilityToken: body.CapabilityToken,
		Signature:       signature,
	})
	if err != nil {
		h.logger.Error("verify pipeline failed", zap.Error(err), zap.String("workspace_id", body.WorkspaceID))
		writeProblem(w, http.StatusInternalServerError, "internal_error", "verification could not be completed")
		return
	}

	var reason *string
	if result.Reason != verifyengine.ReasonNone {
		r := string(result.Reason)
		reason = &r
	}
	writeJSON(w, http.StatusOK, VerifyResponseBody{
		Decision:     string(result.Decision),
		Reason:       reason,
		AuditEventID: result.AuditEventID,
	})
}
