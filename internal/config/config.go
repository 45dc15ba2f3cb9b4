package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"kitsusync/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Kitsu contains connection settings for the production-tracking API.
type Kitsu struct {
	BaseURL        string `toml:"base_url"`
	Email          string `toml:"email"`
	Password       string `toml:"password"`
	Token          string `toml:"token"`
	EnvFile        string `toml:"env_file"`
	RequestTimeout int    `toml:"request_timeout"` // seconds, 0 keeps the net/http default
}

// Paths contains the export tree layout. ProjectsDir and PreviewsDir are
// relative to OutputDir, which is the web root the front end serves.
type Paths struct {
	OutputDir   string `toml:"output_dir"`
	ProjectsDir string `toml:"projects_dir"`
	PreviewsDir string `toml:"previews_dir"`
	StateDir    string `toml:"state_dir"`
}

// Export contains knobs that differed between revisions of the export job.
type Export struct {
	ForceImages       bool    `toml:"force_images"`
	ThumbnailLayout   string  `toml:"thumbnail_layout"` // flat or sharded
	ImageWorkers      int     `toml:"image_workers"`
	PersonColors      string  `toml:"person_colors"` // none, sequential, stable
	AssetPlaceholder  string  `toml:"asset_placeholder"`
	PersonPlaceholder string  `toml:"person_placeholder"`
	EditSourceType    string  `toml:"edit_source_type"`
	DefaultFPS        float64 `toml:"default_fps"`
	Lookups           bool    `toml:"lookups"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	OnSuccess      bool   `toml:"on_success"`
	OnFailure      bool   `toml:"on_failure"`
}

// Ledger contains configuration for the run history database.
type Ledger struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Default: <state_dir>/history.db
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for kitsusync.
//
// Configuration sections by subsystem:
//   - Kitsu: API endpoint and credentials (optionally from an env file)
//   - Paths: web root and the directories written beneath it
//   - Export: thumbnail layout, placeholders, colors, parallelism
//   - Notifications: ntfy push notification settings
//   - Ledger: sqlite run history
//   - Logging: log format and level
type Config struct {
	Kitsu         Kitsu         `toml:"kitsu"`
	Paths         Paths         `toml:"paths"`
	Export        Export        `toml:"export"`
	Notifications Notifications `toml:"notifications"`
	Ledger        Ledger        `toml:"ledger"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/kitsusync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "open", resolvedPath, err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "parse", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("kitsusync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrFilesystem, "config", "mkdir", dir, err)
		}
	}
	return nil
}

// ProjectsRoot returns the absolute directory holding per-project exports.
func (c *Config) ProjectsRoot() string {
	return filepath.Join(c.Paths.OutputDir, c.Paths.ProjectsDir)
}

// PreviewsRoot returns the absolute directory holding cached thumbnails.
func (c *Config) PreviewsRoot() string {
	return filepath.Join(c.Paths.OutputDir, c.Paths.PreviewsDir)
}

// LedgerPath returns the sqlite run history location.
func (c *Config) LedgerPath() string {
	if strings.TrimSpace(c.Ledger.Path) != "" {
		return c.Ledger.Path
	}
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the lock file guarding against concurrent exports.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "export.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultStateDir() string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "kitsusync")
	}
	return "~/.local/state/kitsusync"
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
