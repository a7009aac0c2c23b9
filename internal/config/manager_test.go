package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestParseYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  addr: ":9090"
telegram:
  token: "123:abc"
  chat_id: "-100200300"
relay:
  retries: 5
  retry_base: "250ms"
  throttle_gap: "100ms"
logging:
  level: "debug"
  console: true
  file:
    enabled: false
    path: ""
`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Relay.Retries != 5 {
		t.Fatalf("retries = %d, want 5", cfg.Relay.Retries)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get should return the committed config")
	}

	d, err := ParseDurationOrDefault("relay.retry_base", cfg.Relay.RetryBase, time.Second)
	if err != nil {
		t.Fatalf("ParseDurationOrDefault: %v", err)
	}
	if d != 250*time.Millisecond {
		t.Fatalf("retry_base = %v, want 250ms", d)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  addr: ":9090"
  workres: 3
`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestParseEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := NewManager("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q, want default :8080", cfg.Server.Addr)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvBotToken, "999:zzz")
	t.Setenv(EnvChatID, "42")
	t.Setenv(EnvAddr, ":7070")

	cfg, err := NewManager("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "999:zzz" || cfg.Telegram.ChatID != "42" {
		t.Fatalf("env secrets not applied: %+v", cfg.Telegram)
	}
	if cfg.Server.Addr != ":7070" {
		t.Fatalf("addr = %q, want :7070", cfg.Server.Addr)
	}
	if err := ValidateSecrets(cfg); err != nil {
		t.Fatalf("ValidateSecrets: %v", err)
	}
}

func TestValidateSecretsMissing(t *testing.T) {
	cfg := Default()
	if err := ValidateSecrets(cfg); err == nil {
		t.Fatal("expected missing token error")
	}
	cfg.Telegram.Token = "123:abc"
	if err := ValidateSecrets(cfg); err == nil {
		t.Fatal("expected missing chat id error")
	}
}
