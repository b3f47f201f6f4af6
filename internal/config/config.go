package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-resumd/internal/fileutil"
	"github.com/alnah/go-resumd/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxHostLength        = 253  // RFC 1035
	MaxURLLength         = 2048 // Browser limit
	MaxPathLength        = 4096 // PATH_MAX
	MaxPageSizeLength    = 10   // "letter", "a4", "legal"
	MaxOrientationLength = 10   // "portrait", "landscape"
	MaxGitHubNameLength  = 100  // owner and repository names
	MaxRefLength         = 255  // branch, tag or commit
	MaxTokenLength       = 255  // personal access tokens
)

// Config holds all configuration for the editor server and its exports.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Preview PreviewConfig `yaml:"preview"`
	Zoom    ZoomConfig    `yaml:"zoom"`
	Storage StorageConfig `yaml:"storage"`
	Watch   WatchConfig   `yaml:"watch"`
	GitHub  GitHubConfig  `yaml:"github"`
	Export  ExportConfig  `yaml:"export"`
	Assets  AssetsConfig  `yaml:"assets"`
}

// ServerConfig defines the HTTP listener and edit rate limits.
type ServerConfig struct {
	Host      string  `yaml:"host"`
	Port      int     `yaml:"port"`
	RateLimit float64 `yaml:"rateLimit"` // edits per second per connection
	Burst     int     `yaml:"burst"`
}

// PreviewConfig defines the pagination preview.
type PreviewConfig struct {
	EngineURL     string        `yaml:"engineURL"`     // empty = built-in default
	RenderTimeout time.Duration `yaml:"renderTimeout"` // watchdog for one pass
	PollInterval  time.Duration `yaml:"pollInterval"`  // auto-fit retry interval
	Sanitize      bool          `yaml:"sanitize"`      // filter HTML through a UGC policy
	HardWraps     bool          `yaml:"hardWraps"`
	Page          PageConfig    `yaml:"page"`
}

// PageConfig defines the baseline @page box.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal" (default: "a4")
	Orientation string  `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
	Margin      float64 `yaml:"margin"`      // inches (default: 0.5)
}

// ZoomConfig defines the preview zoom range and gestures.
type ZoomConfig struct {
	Initial         int     `yaml:"initial"`
	Min             int     `yaml:"min"`
	Max             int     `yaml:"max"`
	WheelFactor     float64 `yaml:"wheelFactor"`
	RequireModifier bool    `yaml:"requireModifier"` // gestures need Ctrl/Meta held
}

// StorageConfig defines where the document and session lock are persisted.
type StorageConfig struct {
	Path string `yaml:"path"` // SQLite file; empty = in-memory
}

// WatchConfig defines on-disk files that feed the editor.
type WatchConfig struct {
	Dir      string        `yaml:"dir"` // empty = watch disabled
	Markdown string        `yaml:"markdown"`
	CSS      string        `yaml:"css"`
	Debounce time.Duration `yaml:"debounce"`
}

// GitHubConfig defines the repository a document can be fetched from.
type GitHubConfig struct {
	Token        string `yaml:"token"`
	Owner        string `yaml:"owner"`
	Repo         string `yaml:"repo"`
	Ref          string `yaml:"ref"` // empty = default branch
	MarkdownPath string `yaml:"markdownPath"`
	CSSPath      string `yaml:"cssPath"`
}

// ExportConfig defines PDF export workers.
type ExportConfig struct {
	Workers int           `yaml:"workers"` // 0 = derived from GOMAXPROCS
	Timeout time.Duration `yaml:"timeout"`
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// Validate checks ranges and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	// Server
	if err := validateFieldLength("server.host", c.Server.Host, MaxHostLength); err != nil {
		return err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be between 0 and 65535, got %d", ErrInvalidValue, c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("%w: server.rateLimit must not be negative, got %.2f", ErrInvalidValue, c.Server.RateLimit)
	}
	if c.Server.Burst < 0 {
		return fmt.Errorf("%w: server.burst must not be negative, got %d", ErrInvalidValue, c.Server.Burst)
	}

	// Preview
	if err := validateFieldLength("preview.engineURL", c.Preview.EngineURL, MaxURLLength); err != nil {
		return err
	}
	if err := validateDuration("preview.renderTimeout", c.Preview.RenderTimeout); err != nil {
		return err
	}
	if err := validateDuration("preview.pollInterval", c.Preview.PollInterval); err != nil {
		return err
	}
	if err := c.Preview.Page.validate(); err != nil {
		return err
	}

	// Zoom
	if c.Zoom.Min < 0 || c.Zoom.Max < 0 || c.Zoom.Initial < 0 {
		return fmt.Errorf("%w: zoom values must not be negative", ErrInvalidValue)
	}
	if c.Zoom.Min != 0 && c.Zoom.Max != 0 && c.Zoom.Min > c.Zoom.Max {
		return fmt.Errorf("%w: zoom.min (%d) exceeds zoom.max (%d)", ErrInvalidValue, c.Zoom.Min, c.Zoom.Max)
	}
	if c.Zoom.WheelFactor != 0 && c.Zoom.WheelFactor <= 1 {
		return fmt.Errorf("%w: zoom.wheelFactor must be greater than 1, got %.2f", ErrInvalidValue, c.Zoom.WheelFactor)
	}

	// Paths
	for _, f := range []struct{ name, value string }{
		{"storage.path", c.Storage.Path},
		{"watch.dir", c.Watch.Dir},
		{"watch.markdown", c.Watch.Markdown},
		{"watch.css", c.Watch.CSS},
		{"assets.basePath", c.Assets.BasePath},
		{"github.markdownPath", c.GitHub.MarkdownPath},
		{"github.cssPath", c.GitHub.CSSPath},
	} {
		if err := validateFieldLength(f.name, f.value, MaxPathLength); err != nil {
			return err
		}
	}
	if err := validateDuration("watch.debounce", c.Watch.Debounce); err != nil {
		return err
	}

	// GitHub
	if err := validateFieldLength("github.owner", c.GitHub.Owner, MaxGitHubNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("github.repo", c.GitHub.Repo, MaxGitHubNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("github.ref", c.GitHub.Ref, MaxRefLength); err != nil {
		return err
	}
	if err := validateFieldLength("github.token", c.GitHub.Token, MaxTokenLength); err != nil {
		return err
	}

	// Export
	if c.Export.Workers < 0 {
		return fmt.Errorf("%w: export.workers must not be negative, got %d", ErrInvalidValue, c.Export.Workers)
	}
	return validateDuration("export.timeout", c.Export.Timeout)
}

func (p PageConfig) validate() error {
	if err := validateFieldLength("preview.page.size", p.Size, MaxPageSizeLength); err != nil {
		return err
	}
	if err := validateFieldLength("preview.page.orientation", p.Orientation, MaxOrientationLength); err != nil {
		return err
	}
	if p.Size != "" {
		switch strings.ToLower(p.Size) {
		case "letter", "a4", "legal":
		default:
			return fmt.Errorf("%w: preview.page.size %q (must be letter, a4, or legal)", ErrInvalidValue, p.Size)
		}
	}
	if p.Orientation != "" {
		switch strings.ToLower(p.Orientation) {
		case "portrait", "landscape":
		default:
			return fmt.Errorf("%w: preview.page.orientation %q (must be portrait or landscape)", ErrInvalidValue, p.Orientation)
		}
	}
	if p.Margin < 0 || p.Margin > 3 {
		return fmt.Errorf("%w: preview.page.margin must be between 0 and 3, got %.2f", ErrInvalidValue, p.Margin)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func validateDuration(fieldName string, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: %s must not be negative, got %s", ErrInvalidValue, fieldName, d)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "127.0.0.1",
			Port:      8080,
			RateLimit: 30,
			Burst:     60,
		},
		Preview: PreviewConfig{
			RenderTimeout: 20 * time.Second,
			PollInterval:  50 * time.Millisecond,
			Page:          PageConfig{Size: "a4", Orientation: "portrait", Margin: 0.5},
		},
		Zoom: ZoomConfig{
			Initial:         100,
			Min:             25,
			Max:             500,
			WheelFactor:     1.2,
			RequireModifier: true,
		},
		Watch: WatchConfig{
			Markdown: "resume.md",
			CSS:      "theme.css",
			Debounce: 200 * time.Millisecond,
		},
		GitHub: GitHubConfig{
			MarkdownPath: "resume.md",
			CSSPath:      "theme.css",
		},
		Export: ExportConfig{Timeout: 60 * time.Second},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.DecodeStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/resumd/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	// Try current directory first (both extensions)
	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	// Try user config directory (both extensions)
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "resumd", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// SearchedPaths lists where a config name would be looked up, for hints.
func SearchedPaths(name string) []string {
	paths := []string{name + ".yaml", name + ".yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths,
			filepath.Join(dir, "resumd", name+".yaml"),
			filepath.Join(dir, "resumd", name+".yml"))
	}
	return paths
}
