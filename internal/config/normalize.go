package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"kitsusync/internal/services"
)

// Env-file keys accepted for each Kitsu setting. Both naming schemes used by
// the front end's .env.local files are recognized; the first match wins.
var (
	envKeysBaseURL  = []string{"KITSU_DATA_SOURCE_URL", "KITSU_API_TARGET"}
	envKeysEmail    = []string{"KITSU_DATA_SOURCE_USER_EMAIL", "KITSU_USER_EMAIL"}
	envKeysPassword = []string{"KITSU_DATA_SOURCE_USER_PASSWORD", "KITSU_USER_PASSWORD"}
	envKeysToken    = []string{"KITSU_TOKEN"}
)

func (c *Config) normalize() error {
	if err := c.normalizeKitsu(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExport()
	c.normalizeNotifications()
	if err := c.normalizeLedger(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeKitsu() error {
	lookupEnv(&c.Kitsu.BaseURL, "KITSU_URL")
	lookupEnv(&c.Kitsu.Email, "KITSU_EMAIL")
	lookupEnv(&c.Kitsu.Password, "KITSU_PASSWORD")
	lookupEnv(&c.Kitsu.Token, "KITSU_TOKEN")

	c.Kitsu.BaseURL = strings.TrimSpace(c.Kitsu.BaseURL)
	c.Kitsu.Email = strings.TrimSpace(c.Kitsu.Email)
	c.Kitsu.Token = strings.TrimSpace(c.Kitsu.Token)

	envPath := strings.TrimSpace(c.Kitsu.EnvFile)
	if envPath != "" {
		expanded, err := expandPath(envPath)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "config", "kitsu.env_file", "", err)
		}
		env, err := LoadEnvFile(expanded)
		switch {
		case err == nil:
			if err := c.applyEnvFile(env); err != nil {
				return err
			}
		case errors.Is(err, fs.ErrNotExist) && envPath == defaultEnvFile:
			// The default env file is optional.
		default:
			return services.Wrap(services.ErrConfiguration, "config", "kitsu.env_file", "", err)
		}
		c.Kitsu.EnvFile = expanded
	}

	c.Kitsu.BaseURL = strings.TrimRight(c.Kitsu.BaseURL, "/")
	return nil
}

// applyEnvFile fills Kitsu settings that are still empty from an env file.
// When a file is in play it must supply the API URL and either a token or a
// full set of credentials.
func (c *Config) applyEnvFile(env *EnvFile) error {
	if c.Kitsu.BaseURL == "" {
		value, err := env.Require(envKeysBaseURL...)
		if err != nil {
			return err
		}
		c.Kitsu.BaseURL = strings.TrimSpace(value)
	}
	if c.Kitsu.Token == "" {
		if value, ok := env.Lookup(envKeysToken...); ok {
			c.Kitsu.Token = strings.TrimSpace(value)
		}
	}
	if c.Kitsu.Token != "" {
		return nil
	}
	if c.Kitsu.Email == "" {
		value, err := env.Require(envKeysEmail...)
		if err != nil {
			return err
		}
		c.Kitsu.Email = strings.TrimSpace(value)
	}
	if c.Kitsu.Password == "" {
		value, err := env.Require(envKeysPassword...)
		if err != nil {
			return err
		}
		c.Kitsu.Password = value
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	c.Paths.ProjectsDir = cleanRelative(c.Paths.ProjectsDir, defaultProjectsDir)
	c.Paths.PreviewsDir = cleanRelative(c.Paths.PreviewsDir, defaultPreviewsDir)
	return nil
}

func (c *Config) normalizeExport() {
	c.Export.ThumbnailLayout = strings.ToLower(strings.TrimSpace(c.Export.ThumbnailLayout))
	if c.Export.ThumbnailLayout == "" {
		c.Export.ThumbnailLayout = defaultThumbnailLayout
	}
	c.Export.PersonColors = strings.ToLower(strings.TrimSpace(c.Export.PersonColors))
	if c.Export.PersonColors == "" {
		c.Export.PersonColors = defaultPersonColors
	}
	if c.Export.ImageWorkers == 0 {
		c.Export.ImageWorkers = defaultImageWorkers
	}
	c.Export.AssetPlaceholder = strings.TrimSpace(c.Export.AssetPlaceholder)
	c.Export.PersonPlaceholder = strings.TrimSpace(c.Export.PersonPlaceholder)
	c.Export.EditSourceType = strings.TrimSpace(c.Export.EditSourceType)
	if c.Export.EditSourceType == "" {
		c.Export.EditSourceType = defaultEditSourceType
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLedger() error {
	if strings.TrimSpace(c.Ledger.Path) == "" {
		return nil
	}
	var err error
	if c.Ledger.Path, err = expandPath(c.Ledger.Path); err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func lookupEnv(target *string, key string) {
	if strings.TrimSpace(*target) != "" {
		return
	}
	if value, ok := os.LookupEnv(key); ok {
		*target = value
	}
}

func cleanRelative(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		value = fallback
	}
	return filepath.ToSlash(filepath.Clean(value))
}
