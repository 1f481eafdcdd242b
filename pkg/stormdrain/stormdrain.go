package stormdrain

import (
	"github.com/LavishGent/stormdrain/internal/config"
	"github.com/LavishGent/stormdrain/internal/orchestrator"
)

// Orchestrator admits, schedules and resolves requests against a fetcher
// and the adaptive cache.
type Orchestrator = orchestrator.Orchestrator

// New creates an orchestrator with the default configuration.
func New(fetcher Fetcher, opts ...OrchestratorOption) (*Orchestrator, error) {
	return NewFromConfig(config.DefaultConfig(), fetcher, opts...)
}

// NewFromConfig creates an orchestrator from configuration.
func NewFromConfig(cfg *config.Config, fetcher Fetcher, opts ...OrchestratorOption) (*Orchestrator, error) {
	o := &OrchestratorOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return orchestrator.New(cfg, fetcher, o)
}

// NewFromFile creates an orchestrator from a JSON or YAML config file.
// Environment overrides are applied after the file is loaded.
func NewFromFile(path string, fetcher Fetcher, opts ...OrchestratorOption) (*Orchestrator, error) {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, fetcher, opts...)
}

// Config returns a default configuration that can be modified before creating an orchestrator.
func Config() *config.Config {
	return config.DefaultConfig()
}

// TestConfig returns a configuration suitable for unit tests.
func TestConfig() *config.Config {
	return config.ForTesting()
}
