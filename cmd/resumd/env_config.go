package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-resumd/internal/config"
	"github.com/alnah/go-resumd/internal/hints"
)

// envPrefix marks the environment variables resumd reads.
const envPrefix = "RESUMD_"

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string // RESUMD_CONFIG: config file path
	LogLevel   string // RESUMD_LOG_LEVEL: debug, info, warn, error
	Host       string // RESUMD_HOST: listen host
	Port       int    // RESUMD_PORT: listen port

	// Tier 2 - Storage and sources
	StoragePath string // RESUMD_STORAGE: SQLite file
	WatchDir    string // RESUMD_WATCH_DIR: directory holding resume.md and theme.css
	GitHubToken string // RESUMD_GITHUB_TOKEN: token for private repositories
	AssetPath   string // RESUMD_ASSET_PATH: custom asset directory

	// Tier 3 - Rendering
	EngineURL     string        // RESUMD_ENGINE_URL: pagination engine script
	RenderTimeout time.Duration // RESUMD_RENDER_TIMEOUT: watchdog for one pass
	PageSize      string        // RESUMD_PAGE_SIZE: a4, letter, legal
	ExportTimeout time.Duration // RESUMD_EXPORT_TIMEOUT: PDF export timeout
	Workers       int           // RESUMD_WORKERS: PDF export workers
}

// knownEnvVars lists valid RESUMD_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"RESUMD_CONFIG":    true,
	"RESUMD_LOG_LEVEL": true,
	"RESUMD_HOST":      true,
	"RESUMD_PORT":      true,
	// Tier 2 - Storage and sources
	"RESUMD_STORAGE":      true,
	"RESUMD_WATCH_DIR":    true,
	"RESUMD_GITHUB_TOKEN": true,
	"RESUMD_ASSET_PATH":   true,
	// Tier 3 - Rendering
	"RESUMD_ENGINE_URL":     true,
	"RESUMD_RENDER_TIMEOUT": true,
	"RESUMD_PAGE_SIZE":      true,
	"RESUMD_EXPORT_TIMEOUT": true,
	"RESUMD_WORKERS":        true,
	// Diagnostics
	"RESUMD_CONTAINER": true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers and durations are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:  os.Getenv("RESUMD_CONFIG"),
		LogLevel:    os.Getenv("RESUMD_LOG_LEVEL"),
		Host:        os.Getenv("RESUMD_HOST"),
		StoragePath: os.Getenv("RESUMD_STORAGE"),
		WatchDir:    os.Getenv("RESUMD_WATCH_DIR"),
		GitHubToken: os.Getenv("RESUMD_GITHUB_TOKEN"),
		AssetPath:   os.Getenv("RESUMD_ASSET_PATH"),
		EngineURL:   os.Getenv("RESUMD_ENGINE_URL"),
		PageSize:    os.Getenv("RESUMD_PAGE_SIZE"),
	}

	cfg.Port = envInt("RESUMD_PORT")
	cfg.Workers = envInt("RESUMD_WORKERS")
	cfg.RenderTimeout = envDuration("RESUMD_RENDER_TIMEOUT")
	cfg.ExportTimeout = envDuration("RESUMD_EXPORT_TIMEOUT")
	return cfg
}

func envInt(name string) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func envDuration(name string) time.Duration {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return 0
}

// warnUnknownEnvVars logs warnings for unrecognized RESUMD_* variables.
// Helps catch typos like RESUMD_PROT instead of RESUMD_PORT.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overrides cfg with every environment value that is set.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later by each command's merge step).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	// Tier 1
	if env.Host != "" {
		cfg.Server.Host = env.Host
	}
	if env.Port != 0 {
		cfg.Server.Port = env.Port
	}

	// Tier 2
	if env.StoragePath != "" {
		cfg.Storage.Path = env.StoragePath
	}
	if env.WatchDir != "" {
		cfg.Watch.Dir = env.WatchDir
	}
	if env.GitHubToken != "" {
		cfg.GitHub.Token = env.GitHubToken
	}
	if env.AssetPath != "" {
		cfg.Assets.BasePath = env.AssetPath
	}

	// Tier 3
	if env.EngineURL != "" {
		cfg.Preview.EngineURL = env.EngineURL
	}
	if env.RenderTimeout != 0 {
		cfg.Preview.RenderTimeout = env.RenderTimeout
	}
	if env.PageSize != "" {
		cfg.Preview.Page.Size = env.PageSize
	}
	if env.ExportTimeout != 0 {
		cfg.Export.Timeout = env.ExportTimeout
	}
	if env.Workers != 0 {
		cfg.Export.Workers = env.Workers
	}
}

// loadConfig resolves the configuration for a command: the file named by
// flagPath or RESUMD_CONFIG (defaults when neither is set), then env overrides.
func loadConfig(flagPath string, env *envConfig) (*config.Config, error) {
	name := flagPath
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, withConfigHint(name, err)
		}
		cfg = loaded
	}

	applyEnvConfig(env, cfg)
	return cfg, nil
}

func withConfigHint(name string, err error) error {
	if errors.Is(err, config.ErrConfigNotFound) {
		return fmt.Errorf("%w%s", err, hints.ForConfigNotFound(config.SearchedPaths(name)))
	}
	return err
}
