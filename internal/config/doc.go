// Package config loads, normalizes, and validates kitsusync configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, honours environment fallbacks such as
// KITSU_URL, and reads the front end's .env.local key=value file so one set
// of credentials serves both the web app and the exporter.
//
// Always obtain settings through this package so downstream code receives
// absolute paths and clear configuration errors.
package config
