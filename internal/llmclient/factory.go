// File: internal/llmclient/factory.go
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jhemmrich/deskpilot/api/schemas"
	"github.com/jhemmrich/deskpilot/internal/config"
)

// NewClient creates a single-model LLMClient from its configuration.
func NewClient(cfg config.LLMModelConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: %q. Supported: [%s]",
			cfg.Provider, config.ProviderGemini)
	}
}

// NewRouterFromConfig wires the fast and powerful tiers from the router config.
func NewRouterFromConfig(cfg config.LLMRouterConfig, logger *zap.Logger) (*LLMRouter, error) {
	fastCfg, ok := cfg.Models[cfg.DefaultFastModel]
	if !ok {
		return nil, fmt.Errorf("llm.models has no entry for default fast model %q", cfg.DefaultFastModel)
	}
	powerfulCfg, ok := cfg.Models[cfg.DefaultPowerfulModel]
	if !ok {
		return nil, fmt.Errorf("llm.models has no entry for default powerful model %q", cfg.DefaultPowerfulModel)
	}

	fast, err := NewClient(fastCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building fast tier client: %w", err)
	}
	powerful, err := NewClient(powerfulCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building powerful tier client: %w", err)
	}

	return NewLLMRouter(logger, fast, powerful, cfg.RequestsPerMinute)
}
