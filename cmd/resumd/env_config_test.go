package main

// Notes:
// - Tests that call t.Setenv cannot use t.Parallel().
// - warnUnknownEnvVars: only RESUMD_* variables are inspected.

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-resumd/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Reading and parsing RESUMD_* variables
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Setenv("RESUMD_HOST", "0.0.0.0")
	t.Setenv("RESUMD_PORT", "9090")
	t.Setenv("RESUMD_STORAGE", "/tmp/resumd.db")
	t.Setenv("RESUMD_RENDER_TIMEOUT", "45s")
	t.Setenv("RESUMD_WORKERS", "3")
	t.Setenv("RESUMD_GITHUB_TOKEN", "secret")

	got := loadEnvConfig()

	if got.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want 0.0.0.0", got.Host)
	}
	if got.Port != 9090 {
		t.Errorf("Port = %d, want 9090", got.Port)
	}
	if got.StoragePath != "/tmp/resumd.db" {
		t.Errorf("StoragePath = %q", got.StoragePath)
	}
	if got.RenderTimeout != 45*time.Second {
		t.Errorf("RenderTimeout = %v, want 45s", got.RenderTimeout)
	}
	if got.Workers != 3 {
		t.Errorf("Workers = %d, want 3", got.Workers)
	}
	if got.GitHubToken != "secret" {
		t.Errorf("GitHubToken = %q", got.GitHubToken)
	}
}

func TestLoadEnvConfig_MalformedValuesIgnored(t *testing.T) {
	t.Setenv("RESUMD_PORT", "eighty")
	t.Setenv("RESUMD_WORKERS", "-2")
	t.Setenv("RESUMD_RENDER_TIMEOUT", "soon")
	t.Setenv("RESUMD_EXPORT_TIMEOUT", "-5s")

	got := loadEnvConfig()

	if got.Port != 0 || got.Workers != 0 {
		t.Errorf("Port, Workers = %d, %d, want zero", got.Port, got.Workers)
	}
	if got.RenderTimeout != 0 || got.ExportTimeout != 0 {
		t.Errorf("timeouts = %v, %v, want zero", got.RenderTimeout, got.ExportTimeout)
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Env values override config file values
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	t.Run("set values override", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Server.Port = 7000
		applyEnvConfig(&envConfig{
			Port:          9090,
			WatchDir:      "cv",
			PageSize:      "letter",
			ExportTimeout: 2 * time.Minute,
		}, cfg)

		if cfg.Server.Port != 9090 {
			t.Errorf("Port = %d, want 9090", cfg.Server.Port)
		}
		if cfg.Watch.Dir != "cv" {
			t.Errorf("Watch.Dir = %q, want cv", cfg.Watch.Dir)
		}
		if cfg.Preview.Page.Size != "letter" {
			t.Errorf("Page.Size = %q, want letter", cfg.Preview.Page.Size)
		}
		if cfg.Export.Timeout != 2*time.Minute {
			t.Errorf("Export.Timeout = %v, want 2m", cfg.Export.Timeout)
		}
	})

	t.Run("unset values keep config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Server.Host = "10.0.0.1"
		applyEnvConfig(&envConfig{}, cfg)

		if cfg.Server.Host != "10.0.0.1" {
			t.Errorf("Host = %q, want 10.0.0.1", cfg.Server.Host)
		}
		if cfg.Server.Port != config.DefaultConfig().Server.Port {
			t.Errorf("Port = %d, want default", cfg.Server.Port)
		}
	})
}

// ---------------------------------------------------------------------------
// TestLoadConfig - File, env and defaults
// ---------------------------------------------------------------------------

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("no file uses defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := loadConfig("", &envConfig{})
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Server.Port != config.DefaultConfig().Server.Port {
			t.Errorf("Port = %d, want default", cfg.Server.Port)
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "resumd.yaml")
		if err := os.WriteFile(path, []byte("server:\n  port: 7000\n  host: 0.0.0.0\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := loadConfig(path, &envConfig{Port: 9090})
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Server.Port != 9090 {
			t.Errorf("Port = %d, want 9090 from env", cfg.Server.Port)
		}
		if cfg.Server.Host != "0.0.0.0" {
			t.Errorf("Host = %q, want 0.0.0.0 from file", cfg.Server.Host)
		}
	})

	t.Run("env names the file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "resumd.yaml")
		if err := os.WriteFile(path, []byte("zoom:\n  initial: 150\n"), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := loadConfig("", &envConfig{ConfigPath: path})
		if err != nil {
			t.Fatalf("loadConfig() error = %v", err)
		}
		if cfg.Zoom.Initial != 150 {
			t.Errorf("Zoom.Initial = %d, want 150", cfg.Zoom.Initial)
		}
	})

	t.Run("missing named config carries hint", func(t *testing.T) {
		t.Parallel()

		_, err := loadConfig("no-such-config-name", &envConfig{})
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Fatalf("error = %v, want ErrConfigNotFound", err)
		}
		if !strings.Contains(err.Error(), "hint:") {
			t.Errorf("error should carry a hint, got %q", err.Error())
		}
	})
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Typo detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Setenv("RESUMD_PROT", "8080")
	t.Setenv("RESUMD_PORT", "8080")
	t.Setenv("OTHER_PROT", "8080")

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf)
	out := buf.String()

	if !strings.Contains(out, "RESUMD_PROT") {
		t.Errorf("expected warning for RESUMD_PROT, got %q", out)
	}
	if strings.Contains(out, "RESUMD_PORT ") || strings.Contains(out, "OTHER_PROT") {
		t.Errorf("unexpected warning in %q", out)
	}
}
