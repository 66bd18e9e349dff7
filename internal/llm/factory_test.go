package llm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innovatehub-ph/runtime-sandbox/internal/config"
	apperrors "github.com/innovatehub-ph/runtime-sandbox/pkg/sandbox/errors"
)

func TestProviderInterface(t *testing.T) {
	var _ Provider = &openaiProvider{}
	var _ Provider = &anthropicProvider{}
}

func TestNewProviderFromConfig(t *testing.T) {
	p, err := NewProviderFromConfig(config.LLMProviderConfig{Name: "openai", APIKey: "test-key"})
	require.NoError(t, err)
	require.Equal(t, "openai", p.Name())

	p, err = NewProviderFromConfig(config.LLMProviderConfig{Name: "anthropic", APIKey: "test-key"})
	require.NoError(t, err)
	require.Equal(t, "anthropic", p.Name())
}

func TestNewProviderFromConfig_Unsupported(t *testing.T) {
	_, err := NewProviderFromConfig(config.LLMProviderConfig{Name: "mystery"})
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeConfigInvalid))
}

func TestNewProvidersFromConfig_Order(t *testing.T) {
	providers, err := NewProvidersFromConfig([]config.LLMProviderConfig{
		{Name: "anthropic", APIKey: "k1"},
		{Name: "openai", APIKey: "k2"},
	})
	require.NoError(t, err)
	require.Len(t, providers, 2)
	require.Equal(t, "anthropic", providers[0].Name())
	require.Equal(t, "openai", providers[1].Name())
}

func TestNewProvidersFromConfig_PropagatesError(t *testing.T) {
	_, err := NewProvidersFromConfig([]config.LLMProviderConfig{
		{Name: "openai", APIKey: "k"},
		{Name: "bogus"},
	})
	require.Error(t, err)
}
