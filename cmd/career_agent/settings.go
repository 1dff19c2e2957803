package main

import (
	"github.com/jonathan/career-coach/internal/config"
)

// loadSettings resolves configuration from, in priority order, the
// environment, the --config file and the built-in defaults.
func loadSettings() (config.Config, error) {
	env, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}

	base := config.Config{}
	if configPath != "" {
		file, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		base = *file
	}

	merged := env.MergeWithDefaults(base)
	cfg := merged.MergeWithDefaults(config.Defaults())
	cfg.Debug = cfg.Debug || debug

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
