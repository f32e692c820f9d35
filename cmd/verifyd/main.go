// Command verifyd runs the Verification Engine: the HTTP API serving
// verify_action and capability issuance, backed by Postgres and Redis.
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jordigilh/verifyd/internal/audit"
	"github.com/jordigilh/verifyd/internal/cache"
	"github.com/jordigilh/verifyd/internal/capissuer"
	"github.com/jordigilh/verifyd/internal/config"
	"github.com/jordigilh/verifyd/internal/database"
	"github.com/jordigilh/verifyd/internal/httpapi"
	"github.com/jordigilh/verifyd/internal/metrics"
	"github.com/jordigilh/verifyd/internal/store"
	"github.com/jordigilh/verifyd/internal/verifyengine"
	"github.com/jordigilh/verifyd/pkg/captoken"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logrAdapter := zapr.NewLogger(logger)
	logrAdapter.Info("starting verifyd")

	configPath := os.Getenv("VERIFYD_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig := &database.Config{
		Host: cfg.Database.Host, Port: cfg.Database.Port, User: cfg.Database.User,
		Password: cfg.Database.Password, Database: cfg.Database.Name, SSLMode: cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns, MaxIdleConns: cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime, ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}
	logrusLogger := logrus.New()
	db, err := database.Connect(dbConfig, logrusLogger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	redisClient := cache.NewClient(cache.Config{Addr: cfg.Cache.Addr, Password: cfg.Cache.Password, DB: cfg.Cache.DB, DialTimeout: cfg.Cache.DialTimeout})
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(context.Background()); err != nil {
		return fmt.Errorf("failed to connect to cache: %w", err)
	}

	signingPriv, signingPub, err := loadSigningKey(cfg.Signing.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("failed to load signing key: %w", err)
	}
	codec, err := captoken.NewCodec(cfg.Signing.KeyID, signingPriv, signingPub, time.Duration(cfg.Signing.JWTLeewaySeconds)*time.Second)
	if err != nil {
		return fmt.Errorf("failed to initialize capability codec: %w", err)
	}

	agents := store.NewAgentRepository(db, logger)
	capabilities := store.NewCapabilityRepository(db, logger)
	bindings := store.NewBindingRepository(db, logger)
	policies := store.NewPolicyRepository(db, logger)
	revocations := store.NewRevocationRepository(db, logger)
	workspaces := store.NewWorkspaceRepository(db, logger)
	appender := audit.NewAppender(store.NewAuditEventRepository(db, logger))

	revocationCache := cache.NewRevocationCache(redisClient)
	rateLimiter := cache.NewRateLimiter(redisClient,
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		time.Duration(cfg.RateLimit.RedisKeyTTLSeconds)*time.Second,
		cfg.RateLimit.RedisFailOpen)

	engine := verifyengine.NewEngine(verifyengine.Deps{
		Agents: agents, Capabilities: capabilities, Bindings: bindings, Policies: policies,
		RevocationStore: revocations, RevocationCache: revocationCache, RateLimiter: rateLimiter,
		Codec: codec, Appender: appender, Logger: logger,
	})

	issuer := capissuer.NewIssuer(capissuer.Deps{
		Agents: agents, Capabilities: capabilities, Codec: codec, Appender: appender,
		Bounds: capissuer.Bounds{
			Default: time.Duration(cfg.Capability.DefaultTTLMinutes) * time.Minute,
			Min:     time.Duration(cfg.Capability.MinTTLMinutes) * time.Minute,
			Max:     time.Duration(cfg.Capability.MaxTTLMinutes) * time.Minute,
		},
		Logger: logger,
	})

	router := httpapi.NewRouter(httpapi.Deps{
		Engine: engine, Issuer: issuer, Workspaces: workspaces, Agents: agents,
		Policies: policies, Bindings: bindings, Capabilities: capabilities,
		Revocations: revocations, RevocationCache: revocationCache, Logger: logger,
		RequestTimeout: cfg.Server.ReadTimeout,
		Cors:           cfg.Cors,
	})

	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	metricsServer := metrics.NewServer(cfg.Server.AdminPort, logrusLogger)
	metricsServer.StartAsync()

	go func() {
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("api server stopped unexpectedly", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	var eg errgroup.Group
	eg.Go(func() error { return apiServer.Shutdown(ctx) })
	eg.Go(func() error { return metricsServer.Stop(ctx) })
	if err := eg.Wait(); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	return nil
}

// loadSigningKey reads a PEM-encoded Ed25519 private key and derives
// its matching public key. A misconfigured signing key fails startup
// immediately rather than letting the process serve traffic it cannot
// correctly sign or verify.
func loadSigningKey(path string) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read signing key file: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, nil, errors.New("signing key file does not contain PEM data")
	}
	if len(block.Bytes) != ed25519.PrivateKeySize {
		return nil, nil, fmt.Errorf("signing key has unexpected length %d", len(block.Bytes))
	}
	priv := ed25519.PrivateKey(block.Bytes)
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, nil, errors.New("failed to derive public key from signing key")
	}
	return priv, pub, nil
}
