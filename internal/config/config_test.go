// ABOUTME: Tests for configuration loading: YAML parsing, env expansion,
// ABOUTME: env overrides, defaults, and validation failures.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":9090"
auth:
  mcp_secret: "topsecret"
  master_key: "master"
database:
  snippet_path: "/tmp/sn.sqlite3"
  userdata_path: "/tmp/ud.db"
tools:
  o4mini_endpoint: "http://relay.local/chat"
stream:
  heartbeat_interval: "5s"
logging:
  level: "debug"
  format: "json"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want :9090", cfg.Server.HTTPAddr)
	}
	if cfg.Auth.MCPSecret != "topsecret" {
		t.Errorf("MCPSecret = %q, want topsecret", cfg.Auth.MCPSecret)
	}
	if cfg.Stream.HeartbeatInterval != 5*time.Second {
		t.Errorf("HeartbeatInterval = %s, want 5s", cfg.Stream.HeartbeatInterval)
	}
	if cfg.Tools.O4MiniEndpoint != "http://relay.local/chat" {
		t.Errorf("O4MiniEndpoint = %q", cfg.Tools.O4MiniEndpoint)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Logging.Format)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want :8000", cfg.Server.HTTPAddr)
	}
	if cfg.Auth.MCPSecret != "dev-secret" {
		t.Errorf("MCPSecret = %q, want dev-secret", cfg.Auth.MCPSecret)
	}
	if cfg.Auth.MasterKey != "default" {
		t.Errorf("MasterKey = %q, want default", cfg.Auth.MasterKey)
	}
	if cfg.Database.SnippetPath != "snippets.sqlite3" {
		t.Errorf("SnippetPath = %q", cfg.Database.SnippetPath)
	}
	if cfg.Database.UserDataPath != "user_data.db" {
		t.Errorf("UserDataPath = %q", cfg.Database.UserDataPath)
	}
	if cfg.Stream.HeartbeatInterval != 15*time.Second {
		t.Errorf("HeartbeatInterval = %s, want 15s", cfg.Stream.HeartbeatInterval)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_SECRET", "from-env")
	path := writeConfig(t, `
auth:
  mcp_secret: "${TEST_CFG_SECRET}"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.MCPSecret != "from-env" {
		t.Errorf("MCPSecret = %q, want from-env", cfg.Auth.MCPSecret)
	}
}

func TestEnvOverridesBeatFile(t *testing.T) {
	t.Setenv("PORT", "7777")
	t.Setenv("MCP_SECRET", "env-secret")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	path := writeConfig(t, `
server:
  http_addr: ":9090"
auth:
  mcp_secret: "file-secret"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPAddr != ":7777" {
		t.Errorf("HTTPAddr = %q, want :7777", cfg.Server.HTTPAddr)
	}
	if cfg.Auth.MCPSecret != "env-secret" {
		t.Errorf("MCPSecret = %q, want env-secret", cfg.Auth.MCPSecret)
	}
	if cfg.Tools.OpenAIKey != "sk-test" {
		t.Errorf("OpenAIKey = %q, want sk-test", cfg.Tools.OpenAIKey)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
stream:
  heartbeat_interval: "soon"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load succeeded with unparseable heartbeat_interval")
	}
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	path := writeConfig(t, `
logging:
  format: "xml"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load succeeded with unsupported logging format")
	}
}
