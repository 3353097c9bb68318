package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.ServerPort != 8080 {
		t.Fatalf("server port %d", cfg.ServerPort)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("token ttl %v", cfg.Auth.TokenTTL)
	}
	if cfg.Broker.Backend != "" || cfg.Storage.Backend != "" {
		t.Fatalf("broker/storage backends should default to disabled")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("BROKER_BACKEND", "rabbitmq")

	cfg := LoadConfig()

	if cfg.ServerPort != 9090 {
		t.Fatalf("server port %d", cfg.ServerPort)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("jwt secret %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != 15*time.Minute {
		t.Fatalf("token ttl %v", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.BcryptCost != 12 {
		t.Fatalf("bcrypt cost %d", cfg.Auth.BcryptCost)
	}
	if !cfg.Database.UseSSL {
		t.Fatal("db ssl not enabled")
	}
	if cfg.Broker.Backend != "rabbitmq" {
		t.Fatalf("broker backend %q", cfg.Broker.Backend)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("TOKEN_TTL", "not-a-duration")

	cfg := LoadConfig()
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("token ttl %v, want default", cfg.Auth.TokenTTL)
	}
}
