package preflight

import (
	"context"

	"kitsusync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Run executes every preflight check that applies to cfg.
func Run(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckCreatableDirectory("Output directory", cfg.Paths.OutputDir),
		CheckFreeSpace("Output volume", cfg.Paths.OutputDir, MinFreeBytes),
		CheckCreatableDirectory("State directory", cfg.Paths.StateDir),
		CheckAPI(ctx, cfg.Kitsu.BaseURL),
	}
	if results[len(results)-1].Passed {
		results = append(results, CheckCredentials(ctx, cfg.Kitsu.BaseURL, cfg.Kitsu.Email, cfg.Kitsu.Password, cfg.Kitsu.Token))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
