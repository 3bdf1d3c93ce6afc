package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "LLM_USE_LOCAL", "LLM_FALLBACK_POLICY",
		"BRIDGE_TIMEOUT", "BRIDGE_ARGS", "GEMINI_API_KEY", "GOOGLE_GEMINI_API_KEY",
		"CORS_ALLOWED_ORIGINS", "BRIDGE_SHARED_SECRET",
	} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if !cfg.LLMUseLocal {
		t.Fatalf("expected local LLM enabled by default")
	}
	if cfg.LLMFallbackPolicy != "documented" {
		t.Fatalf("expected documented fallback policy, got %s", cfg.LLMFallbackPolicy)
	}
	if cfg.LLMTemperature != 0.7 || cfg.LLMMaxTokens != 1024 {
		t.Fatalf("unexpected sampling defaults: %v / %d", cfg.LLMTemperature, cfg.LLMMaxTokens)
	}
	if cfg.BridgeTimeout != 30*time.Second {
		t.Fatalf("expected default bridge timeout, got %s", cfg.BridgeTimeout)
	}
	if !reflect.DeepEqual(cfg.BridgeArgs, []string{"calendly_mcp_server.py", "stdio"}) {
		t.Fatalf("unexpected bridge args %v", cfg.BridgeArgs)
	}
	if cfg.BridgeTokenEnv != "CALENDLY_TOKEN" {
		t.Fatalf("unexpected token env %s", cfg.BridgeTokenEnv)
	}
	if cfg.BridgeSharedSecret != "" {
		t.Fatalf("expected no bridge secret by default")
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("expected empty gemini key")
	}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, []string{"*"}) {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("LLM_USE_LOCAL", "false")
	t.Setenv("LLM_REMOTE_PROVIDER", " Bedrock ")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("BRIDGE_TIMEOUT", "5s")
	t.Setenv("BRIDGE_ARGS", "server.py, stdio ,")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "legacy-key")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("BRIDGE_SHARED_SECRET", "bridge-secret")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.LLMUseLocal {
		t.Fatalf("expected local LLM disabled")
	}
	if cfg.LLMRemoteProvider != "bedrock" {
		t.Fatalf("expected normalized provider, got %q", cfg.LLMRemoteProvider)
	}
	if cfg.LLMTemperature != 0.2 {
		t.Fatalf("expected temperature override, got %v", cfg.LLMTemperature)
	}
	if cfg.BridgeTimeout != 5*time.Second {
		t.Fatalf("expected bridge timeout override, got %s", cfg.BridgeTimeout)
	}
	if !reflect.DeepEqual(cfg.BridgeArgs, []string{"server.py", "stdio"}) {
		t.Fatalf("unexpected bridge args %v", cfg.BridgeArgs)
	}
	if cfg.BridgeSharedSecret != "bridge-secret" {
		t.Fatalf("expected bridge secret override")
	}
	if cfg.GeminiAPIKey != "legacy-key" {
		t.Fatalf("expected legacy gemini key fallback, got %q", cfg.GeminiAPIKey)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
}
