package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// recoverPanic turns a panic in a downstream handler into a 500 with the
// closed error envelope instead of tearing down the connection.
func recoverPanic(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered in http handler",
						zap.Any("panic", rec),
						zap.String("request_id", middleware.GetReqID(r.Context())),
						zap.String("path", r.URL.Path))
					writeProblem(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// workspaceHeaderGuard enforces that X-Workspace-Id, when present,
// matches the request body's workspace_id field. This is a
// transport-level 403, distinct from the in-engine WORKSPACE_MISMATCH
// DENY raised when a capability's claimed workspace disagrees with the
// request.
func workspaceHeaderGuard(bodyWorkspaceID, headerWorkspaceID string) bool {
	if headerWorkspaceID == "" {
		return true
	}
	return headerWorkspaceID == bodyWorkspaceID
}
