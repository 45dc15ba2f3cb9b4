// Package logging assembles structured slog loggers used across kitsusync.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so export stages tag log lines
// with the run ID, project ID, and stage. NewNop provides a silent logger for
// tests and wiring code that cannot fail.
package logging
