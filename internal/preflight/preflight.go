package preflight

import (
	"context"

	"teachback/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem and backend checks for the given config.
// A nil pinger skips the backend reachability check.
func RunAll(ctx context.Context, cfg *config.Config, pinger Pinger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("Data directory", cfg.Paths.DataDir)}
	results = append(results, CheckExportDirectory(cfg.Paths.ExportDir))
	results = append(results, CheckAPIKey(cfg))
	if pinger != nil && cfg.RequireAPIKey() == nil {
		results = append(results, CheckBackend(ctx, backendName(cfg), pinger))
	}
	return results
}

func backendName(cfg *config.Config) string {
	if cfg.AI.Provider == config.ProviderOpenRouter {
		return "OpenRouter"
	}
	return "Gemini"
}
