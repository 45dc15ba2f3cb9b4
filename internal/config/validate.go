package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"kitsusync/internal/services"
)

// Validate ensures the configuration is usable. Every failure wraps
// services.ErrConfiguration.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateKitsu,
		c.validatePaths,
		c.validateExport,
		c.validateNotifications,
	} {
		if err := check(); err != nil {
			return services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
		}
	}
	return nil
}

func (c *Config) validateKitsu() error {
	if c.Kitsu.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/kitsusync/config.toml"
		}
		return fmt.Errorf("kitsu.base_url is required. Set KITSU_URL, add KITSU_DATA_SOURCE_URL to %s, or edit %s (create with 'kitsusync config init')", defaultEnvFile, defaultPath)
	}
	if !strings.HasPrefix(c.Kitsu.BaseURL, "http://") && !strings.HasPrefix(c.Kitsu.BaseURL, "https://") {
		return fmt.Errorf("kitsu.base_url must be an http(s) URL, got %q", c.Kitsu.BaseURL)
	}
	if c.Kitsu.Token == "" && (c.Kitsu.Email == "" || c.Kitsu.Password == "") {
		return fmt.Errorf("kitsu.token or both kitsu.email and kitsu.password must be set")
	}
	if c.Kitsu.RequestTimeout < 0 {
		return fmt.Errorf("kitsu.request_timeout must be >= 0")
	}
	return nil
}

func (c *Config) validatePaths() error {
	for key, value := range map[string]string{
		"paths.projects_dir": c.Paths.ProjectsDir,
		"paths.previews_dir": c.Paths.PreviewsDir,
	} {
		if filepath.IsAbs(value) || value == ".." || strings.HasPrefix(value, "../") {
			return fmt.Errorf("%s must be relative to paths.output_dir, got %q", key, value)
		}
	}
	return nil
}

func (c *Config) validateExport() error {
	switch c.Export.ThumbnailLayout {
	case LayoutFlat, LayoutSharded:
	default:
		return fmt.Errorf("export.thumbnail_layout must be %q or %q, got %q", LayoutFlat, LayoutSharded, c.Export.ThumbnailLayout)
	}
	switch c.Export.PersonColors {
	case ColorsNone, ColorsSequential, ColorsStable:
	default:
		return fmt.Errorf("export.person_colors must be one of none, sequential, stable; got %q", c.Export.PersonColors)
	}
	if c.Export.ImageWorkers < 1 {
		return fmt.Errorf("export.image_workers must be positive")
	}
	if c.Export.DefaultFPS < 0 {
		return fmt.Errorf("export.default_fps must be >= 0")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full URL, got %q", topic)
	}
	return nil
}
