package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("server.addr = %q", cfg.Server.Addr)
	}
	if cfg.Registry.MaxConnections != 1000 {
		t.Errorf("registry.max_connections = %d", cfg.Registry.MaxConnections)
	}
	if cfg.Registry.HeartbeatInterval != 30*time.Second {
		t.Errorf("registry.heartbeat_interval = %s", cfg.Registry.HeartbeatInterval)
	}
	if cfg.Registry.ClientTimeout != 90*time.Second {
		t.Errorf("registry.client_timeout = %s", cfg.Registry.ClientTimeout)
	}
	if cfg.Stream.KeepAliveInterval != 15*time.Second {
		t.Errorf("stream.keep_alive_interval = %s", cfg.Stream.KeepAliveInterval)
	}
	if cfg.RateLimit.Limit != 10 || cfg.RateLimit.Window != time.Minute {
		t.Errorf("rate_limit = %d per %s", cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("SSE_REGISTRY_MAX_CONNECTIONS", "5")
	t.Setenv("SSE_SERVER_ADDR", ":9090")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Registry.MaxConnections != 5 {
		t.Errorf("registry.max_connections = %d, want 5", cfg.Registry.MaxConnections)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("server.addr = %q, want :9090", cfg.Server.Addr)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yaml := `
registry:
  max_connections: 42
  heartbeat_interval: 10s
  client_timeout: 30s
stream:
  keep_alive_interval: 5s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Registry.MaxConnections != 42 {
		t.Errorf("registry.max_connections = %d, want 42", cfg.Registry.MaxConnections)
	}
	if cfg.Registry.HeartbeatInterval != 10*time.Second {
		t.Errorf("registry.heartbeat_interval = %s, want 10s", cfg.Registry.HeartbeatInterval)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("unset keys should keep defaults, addr = %q", cfg.Server.Addr)
	}
}

func TestValidateRejectsBadTimeouts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yaml := `
registry:
  heartbeat_interval: 90s
  client_timeout: 30s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for client_timeout below heartbeat_interval")
	}
}
