package config

import (
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"DATABASE_URL", "JWT_SECRET_KEY", "SERVER_PORT", "MATCH_STORE", "REDIS_URL",
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "COMMENTARY_MODEL", "COMMENTARY_TIMEOUT",
	"SPORT_RULES_FILE", "CORS_ALLOWED_ORIGINS",
	"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL",
}

func setEnv(t *testing.T, values map[string]string) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, values[k])
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, map[string]string{
		"DATABASE_URL":   "postgres://localhost/scores",
		"JWT_SECRET_KEY": "secret",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerPort != 8080 || cfg.MatchStore != StorePostgres {
		t.Errorf("port %d store %s", cfg.ServerPort, cfg.MatchStore)
	}
	if cfg.CommentaryModel != "gpt-4o-mini" || cfg.CommentaryTimeout != 2500*time.Millisecond {
		t.Errorf("commentary defaults: %s %s", cfg.CommentaryModel, cfg.CommentaryTimeout)
	}
	if cfg.CommentaryEnabled() || cfg.RedisURL != "" || len(cfg.CORSAllowedOrigins) != 0 {
		t.Errorf("optional features enabled: %+v", cfg)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setEnv(t, map[string]string{
		"JWT_SECRET_KEY":       "secret",
		"MATCH_STORE":          "Memory",
		"SERVER_PORT":          "9090",
		"REDIS_URL":            "redis://localhost:6379/0",
		"OPENAI_API_KEY":       "sk-test",
		"COMMENTARY_TIMEOUT":   "4s",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example,,",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MatchStore != StoreMemory || cfg.DatabaseURL != "" {
		t.Errorf("store %s dsn %q", cfg.MatchStore, cfg.DatabaseURL)
	}
	if cfg.ServerPort != 9090 || cfg.CommentaryTimeout != 4*time.Second || !cfg.CommentaryEnabled() {
		t.Errorf("cfg = %+v", cfg)
	}
	if got := strings.Join(cfg.CORSAllowedOrigins, "|"); got != "https://a.example|https://b.example" {
		t.Errorf("origins = %q", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"no database", map[string]string{"JWT_SECRET_KEY": "s"}, "DATABASE_URL"},
		{"no secret", map[string]string{"DATABASE_URL": "postgres://x"}, "JWT_SECRET_KEY"},
		{"bad store", map[string]string{"JWT_SECRET_KEY": "s", "MATCH_STORE": "mongo"}, "MATCH_STORE"},
		{"bad port", map[string]string{"JWT_SECRET_KEY": "s", "DATABASE_URL": "postgres://x", "SERVER_PORT": "70000"}, "SERVER_PORT"},
		{"bad timeout", map[string]string{"JWT_SECRET_KEY": "s", "DATABASE_URL": "postgres://x", "COMMENTARY_TIMEOUT": "soon"}, "COMMENTARY_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}
