// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/pdiddy/financeflow/internal/analysis"
	"github.com/pdiddy/financeflow/internal/secrets"
	"github.com/pdiddy/financeflow/pkg/types"
)

// setDefaults registers every configuration key with its default so that
// FINANCEFLOW_* environment variables are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("conversion.infer_numbers", false)
	v.SetDefault("conversion.markitdown", false)
	v.SetDefault("conversion.output_dir", ".")

	v.SetDefault("analysis.backend", "")
	v.SetDefault("analysis.endpoint", "")
	v.SetDefault("analysis.token", "")
	v.SetDefault("analysis.timeout", "0s")
	v.SetDefault("analysis.user_agent", "financeflow/"+version)
	v.SetDefault("analysis.excerpt_limit", analysis.DefaultExcerptLimit)
	v.SetDefault("analysis.ai.model", "gpt-4")
	v.SetDefault("analysis.ai.api_key", "")
	v.SetDefault("analysis.ai.base_url", "")
	v.SetDefault("analysis.ai.max_tokens", 1000)
	v.SetDefault("analysis.ai.temperature", 0.3)

	v.SetDefault("usage.conversion_limit", 3)
	v.SetDefault("usage.analysis_limit", 1)
	v.SetDefault("usage.db_path", defaultDBPath())
	v.SetDefault("usage.strict", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_bytes", 10<<20)
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".financeflow", "usage.db")
	}
	return filepath.Join(dir, "financeflow", "usage.db")
}

// loadConfig decodes the merged configuration and fills credentials from
// the secrets directory and the environment.
func loadConfig(v *viper.Viper, s secrets.Set) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Analysis.AI.APIKey = s.Resolve(secrets.OpenAIAPIKey, cfg.Analysis.AI.APIKey)
	cfg.Analysis.Token = s.Resolve(secrets.AnalysisToken, cfg.Analysis.Token)
	return cfg, nil
}

// backendKind picks the analysis backend. An explicit setting wins;
// otherwise an OpenAI key selects openai and an endpoint selects http.
func backendKind(cfg types.AnalysisConfig) (types.AnalysisBackend, error) {
	switch cfg.Backend {
	case types.BackendNone, types.BackendHTTP, types.BackendOpenAI:
		return cfg.Backend, nil
	case "":
	default:
		return "", fmt.Errorf("unknown analysis backend %q: use none, http, or openai", cfg.Backend)
	}
	switch {
	case cfg.AI.APIKey != "":
		return types.BackendOpenAI, nil
	case cfg.Endpoint != "":
		return types.BackendHTTP, nil
	}
	return types.BackendNone, nil
}
