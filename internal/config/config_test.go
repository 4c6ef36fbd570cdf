package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseByteSize_K8sAndCommonUnits(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"1024", 1024},
		{"1Ki", 1024},
		{"1KiB", 1024},
		{"2Mi", 2 * 1024 * 1024},
		{"2MiB", 2 * 1024 * 1024},
		{"3Gi", 3 * 1024 * 1024 * 1024},
		{"3GiB", 3 * 1024 * 1024 * 1024},
		{"10KB", 10 * 1000},
		{"10MB", 10 * 1000 * 1000},
		{"2GB", 2 * 1000 * 1000 * 1000},
	}
	for _, c := range cases {
		got, err := ParseByteSize(c.in)
		if err != nil {
			t.Fatalf("ParseByteSize(%q) error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseByteSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}
	// invalid
	if _, err := ParseByteSize("bad"); err == nil {
		t.Fatalf("expected error for invalid unit")
	}
}

func TestLoad_WithEnvAndDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	// Use env expansion for the API key
	t.Setenv("SCRIBED_API_KEY", "key123")

	yaml := `
server:
  address: ":0"
  maxUploadSize: 1Mi
  apiKey: "${SCRIBED_API_KEY}"
engine:
  workerScript: "worker/transcribe.py"
  jobTimeout: 30s
  maxCapture: 2Mi
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.APIKey != "key123" {
		t.Fatalf("env expansion failed, apiKey = %q", cfg.Server.APIKey)
	}
	if cfg.Server.MaxUploadSize != 1024*1024 {
		t.Fatalf("maxUploadSize = %d", cfg.Server.MaxUploadSize)
	}
	if cfg.Engine.JobTimeout != 30*time.Second {
		t.Fatalf("jobTimeout = %v", cfg.Engine.JobTimeout)
	}
	if cfg.Engine.MaxCapture != 2*1024*1024 {
		t.Fatalf("maxCapture = %d", cfg.Engine.MaxCapture)
	}
	// Defaults fill unset fields.
	if cfg.Server.LogLevel != "info" {
		t.Fatalf("default logLevel = %q", cfg.Server.LogLevel)
	}
	if cfg.Engine.HFTokenEnvVar != "HF_TOKEN" {
		t.Fatalf("default hfTokenEnvVar = %q", cfg.Engine.HFTokenEnvVar)
	}
	if cfg.Engine.WorkspaceDir == "" || !strings.Contains(cfg.Engine.WorkspaceDir, "scribed") {
		t.Fatalf("default workspaceDir = %q", cfg.Engine.WorkspaceDir)
	}
}

func TestLoad_DefaultJobTimeoutIsTenMinutes(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("server:\n  address: \":0\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.JobTimeout != 10*time.Minute {
		t.Fatalf("default jobTimeout = %v", cfg.Engine.JobTimeout)
	}
}

func TestLoad_RejectsBadLogLevel(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("server:\n  logLevel: loud\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("expected error for bad log level")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
