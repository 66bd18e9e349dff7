package llm

import (
	"fmt"

	"github.com/innovatehub-ph/runtime-sandbox/internal/config"
	apperrors "github.com/innovatehub-ph/runtime-sandbox/pkg/sandbox/errors"
)

// NewProviderFromConfig creates a provider from a single provider config
// entry.
func NewProviderFromConfig(cfg config.LLMProviderConfig) (Provider, error) {
	switch cfg.Name {
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey, cfg.Model), nil
	default:
		return nil, apperrors.New(apperrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unsupported provider: %s", cfg.Name), nil)
	}
}

// NewProvidersFromConfig creates the ordered provider list from config.
// List order is the fallback order: the first entry is the primary.
func NewProvidersFromConfig(cfgs []config.LLMProviderConfig) ([]Provider, error) {
	providers := make([]Provider, 0, len(cfgs))
	for _, cfg := range cfgs {
		p, err := NewProviderFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}
