package main

import (
	"fmt"

	"github.com/caarlos0/env/v6"

	"github.com/deadwick/feedback-service/internal/infrastructure/sessionfile"
)

type cliConfig struct {
	Server      string `env:"FEEDBACKCTL_SERVER" envDefault:"http://localhost:8080"`
	SessionFile string `env:"FEEDBACKCTL_SESSION_FILE"`
	LogLevel    string `env:"FEEDBACKCTL_LOG_LEVEL" envDefault:"warn"`
}

func loadConfig() (*cliConfig, error) {
	cfg := &cliConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.SessionFile == "" {
		path, err := sessionfile.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("locate session file: %w", err)
		}
		cfg.SessionFile = path
	}
	return cfg, nil
}
