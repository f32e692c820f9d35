// Package httpapi exposes verifyd's HTTP surface: the core verify and
// capability-issuance endpoints, a minimal admin CRUD surface over
// workspaces/agents/policies/bindings, and liveness.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jordigilh/verifyd/internal/cache"
	"github.com/jordigilh/verifyd/internal/capissuer"
	"github.com/jordigilh/verifyd/internal/config"
	"github.com/jordigilh/verifyd/internal/store"
	"github.com/jordigilh/verifyd/internal/verifyengine"
)

// Deps bundles everything the router needs to build its handlers.
type Deps struct {
	Engine          *verifyengine.Engine
	Issuer          *capissuer.Issuer
	Workspaces      *store.WorkspaceRepository
	Agents          *store.AgentRepository
	Policies        *store.PolicyRepository
	Bindings        *store.BindingRepository
	Capabilities    *store.CapabilityRepository
	Revocations     *store.RevocationRepository
	RevocationCache *cache.RevocationCache
	Logger          *zap.Logger
	RequestTimeout  time.Duration
	Cors            config.CorsConfig
}

// NewRouter builds the chi router for the verify API.
func NewRouter(d Deps) http.Handler {
	validate := validator.New()

	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(recoverPanic(d.Logger))
	r.Use(middleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Cors.AllowedOrigins,
		AllowedMethods:   d.Cors.AllowedMethods,
		AllowedHeaders:   d.Cors.AllowedHeaders,
		AllowCredentials: d.Cors.AllowCredentials,
		MaxAge:           d.Cors.MaxAgeSeconds,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/verify", (&verifyHandler{engine: d.Engine, validator: validate, logger: d.Logger}).ServeHTTP)
	r.Post("/capabilities/request", (&capabilityHandler{issuer: d.Issuer, validator: validate, logger: d.Logger}).ServeHTTP)

	admin := &adminHandler{
		workspaces:      d.Workspaces,
		agents:          d.Agents,
		policies:        d.Policies,
		bindings:        d.Bindings,
		capabilities:    d.Capabilities,
		revocations:     d.Revocations,
		revocationCache: d.RevocationCache,
		validator:       validate,
		logger:          d.Logger,
	}
	r.Route("/admin", func(ar chi.Router) {
		ar.Post("/workspaces", admin.createWorkspace)
		ar.Post("/agents", admin.createAgent)
		ar.Post("/agents/{id}/revoke", admin.revokeAgent)
		ar.Post("/policies", admin.createPolicy)
		ar.Post("/bindings", admin.createBinding)
		ar.Post("/capabilities/{jti}/revoke", admin.revokeCapability)
	})

	return r
}
