// Package services defines shared utilities consumed by the export pipeline
// and its integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, project IDs, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (configuration, authentication, upstream, filesystem) so the CLI can
//     choose an exit code.
//
// Use these helpers when wiring new export stages so error handling and
// observability stay uniform across the pipeline.
package services
