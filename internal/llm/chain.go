package llm

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	apperrors "github.com/innovatehub-ph/runtime-sandbox/pkg/sandbox/errors"
)

// ChainResult reports a completion plus which provider produced it. Fallback
// use is caller-visible, never hidden.
type ChainResult struct {
	Content      string
	Provider     string
	UsedFallback bool
}

// Chain tries an ordered list of providers in turn, each with its own
// timeout. The fallback policy is the list itself, not code: reordering the
// providers reorders the policy.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	logger    *zap.Logger
}

// NewChain creates a chain over providers with a per-attempt timeout.
func NewChain(providers []Provider, timeout time.Duration, logger *zap.Logger) *Chain {
	return &Chain{providers: providers, timeout: timeout, logger: logger}
}

// Providers returns the names of the chained providers in order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Complete runs the chain. A timed-out attempt and an empty completion are
// equivalent failures; each moves on to the next provider with the same
// prompt, untruncated. All providers failing is a PROVIDER_UNAVAILABLE
// error.
func (c *Chain) Complete(ctx context.Context, systemPrompt, userText string) (*ChainResult, error) {
	if len(c.providers) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable, "no providers configured", nil)
	}

	var attemptErrs error
	for i, provider := range c.providers {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		content, err := provider.Complete(attemptCtx, systemPrompt, userText)
		cancel()

		if err == nil && content != "" {
			return &ChainResult{
				Content:      content,
				Provider:     provider.Name(),
				UsedFallback: i > 0,
			}, nil
		}

		if err == nil {
			err = apperrors.New(apperrors.ErrCodeProviderUnavailable, "empty completion from "+provider.Name(), nil)
		} else if errors.Is(err, context.DeadlineExceeded) {
			err = apperrors.New(apperrors.ErrCodeProviderTimeout, "completion timed out on "+provider.Name(), err)
		}

		c.logger.Warn("provider attempt failed",
			zap.String("provider", provider.Name()),
			zap.Int("attempt", i+1),
			zap.Error(err))
		attemptErrs = multierror.Append(attemptErrs, err)
	}

	return nil, apperrors.New(apperrors.ErrCodeProviderUnavailable, "all providers failed", attemptErrs)
}
