package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

const validConfigYAML = `
database:
  host: db.internal
  port: 5432
  user: verifyd
  name: verifyd
signing:
  private_key_path: /etc/verifyd/signing.pem
  key_id: key-1
cache:
  addr: redis.internal:6379
`

func TestLoad_Valid(t *testing.T) {
	path := writeConfigFile(t, validConfigYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "db.internal")
	}
	if cfg.Capability.DefaultTTLMinutes != 15 {
		t.Errorf("Capability.DefaultTTLMinutes = %d, want 15", cfg.Capability.DefaultTTLMinutes)
	}
	if cfg.RateLimit.RedisFailOpen {
		t.Error("RateLimit.RedisFailOpen should default to false")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if got := err.Error(); got == "" {
		t.Error("expected non-empty error message")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "database: [this is not a map")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfigFile(t, validConfigYAML)

	t.Setenv("DB_HOST", "env-db.internal")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Database.Host != "env-db.internal" {
		t.Errorf("Database.Host = %q, want env override", cfg.Database.Host)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestValidate_MissingDatabaseHost(t *testing.T) {
	cfg := Default()
	cfg.Database.Name = "verifyd"
	cfg.Database.Host = ""
	cfg.Signing.PrivateKeyPath = "/etc/key.pem"
	cfg.Signing.KeyID = "k1"

	if err := validate(cfg); err == nil {
		t.Fatal("expected error for missing database host")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Database.Host = "localhost"
	cfg.Database.Name = "verifyd"
	cfg.Signing.PrivateKeyPath = "/etc/key.pem"
	cfg.Signing.KeyID = "k1"
	cfg.Logging.Level = "verbose"

	err := validate(cfg)
	if err == nil {
		t.Fatal("expected error for unsupported log level")
	}
}

func TestValidate_CapabilityTTLBounds(t *testing.T) {
	cfg := Default()
	cfg.Database.Host = "localhost"
	cfg.Database.Name = "verifyd"
	cfg.Signing.PrivateKeyPath = "/etc/key.pem"
	cfg.Signing.KeyID = "k1"
	cfg.Capability.MinTTLMinutes = 10
	cfg.Capability.MaxTTLMinutes = 5

	if err := validate(cfg); err == nil {
		t.Fatal("expected error when max ttl is below min ttl")
	}
}

func TestValidate_RateLimitKeyTTLMustExceedWindow(t *testing.T) {
	cfg := Default()
	cfg.Database.Host = "localhost"
	cfg.Database.Name = "verifyd"
	cfg.Signing.PrivateKeyPath = "/etc/key.pem"
	cfg.Signing.KeyID = "k1"
	cfg.RateLimit.WindowSeconds = 60
	cfg.RateLimit.RedisKeyTTLSeconds = 60

	if err := validate(cfg); err == nil {
		t.Fatal("expected error when redis key ttl does not exceed window")
	}
}

func TestDefault_MatchesSpecifiedDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Signing.JWTLeewaySeconds != 5 {
		t.Errorf("JWTLeewaySeconds = %d, want 5", cfg.Signing.JWTLeewaySeconds)
	}
	if cfg.Capability.MinTTLMinutes != 5 || cfg.Capability.MaxTTLMinutes != 30 {
		t.Errorf("unexpected capability ttl bounds: %+v", cfg.Capability)
	}
	if cfg.RateLimit.WindowSeconds != 60 || cfg.RateLimit.RedisKeyTTLSeconds != 70 {
		t.Errorf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
}
