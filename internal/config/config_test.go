package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/app")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.HTTPPort)
	}
	if !cfg.DBAutoMigrate {
		t.Fatalf("expected auto migrate enabled by default")
	}
	if cfg.AccessTTL() != 60*time.Minute {
		t.Fatalf("expected 60m access ttl, got %v", cfg.AccessTTL())
	}
	if cfg.ProfileCacheTTL() != 5*time.Minute {
		t.Fatalf("expected 5m cache ttl, got %v", cfg.ProfileCacheTTL())
	}
	if cfg.DBMaxConns != 10 || cfg.DBMinConns != 1 {
		t.Fatalf("unexpected pool defaults max=%d min=%d", cfg.DBMaxConns, cfg.DBMinConns)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("expected bcrypt cost 10, got %d", cfg.BcryptCost)
	}
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/app")
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is missing")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/app")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_ACCESS_TTL_MINUTES", "15")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("DB_AUTO_MIGRATE", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Fatalf("expected 15m access ttl, got %v", cfg.AccessTTL())
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.DBAutoMigrate {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}
