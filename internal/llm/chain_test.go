package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/innovatehub-ph/runtime-sandbox/pkg/sandbox/errors"
)

// fakeProvider scripts one provider's behavior for chain tests.
type fakeProvider struct {
	name    string
	content string
	err     error
	delay   time.Duration
	calls   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.content, f.err
}

func TestChain_PrimarySucceeds(t *testing.T) {
	primary := &fakeProvider{name: "primary", content: "answer"}
	secondary := &fakeProvider{name: "secondary", content: "unused"}
	chain := NewChain([]Provider{primary, secondary}, time.Second, zap.NewNop())

	result, err := chain.Complete(context.Background(), "sys", "hi")
	require.NoError(t, err)
	require.Equal(t, "answer", result.Content)
	require.Equal(t, "primary", result.Provider)
	require.False(t, result.UsedFallback)
	require.Equal(t, 0, secondary.calls)
}

func TestChain_FallbackOnError(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("boom")}
	secondary := &fakeProvider{name: "secondary", content: "rescued"}
	chain := NewChain([]Provider{primary, secondary}, time.Second, zap.NewNop())

	result, err := chain.Complete(context.Background(), "sys", "hi")
	require.NoError(t, err)
	require.Equal(t, "rescued", result.Content)
	require.Equal(t, "secondary", result.Provider)
	require.True(t, result.UsedFallback)
	require.Equal(t, 1, primary.calls)
}

func TestChain_EmptyCompletionIsFailure(t *testing.T) {
	primary := &fakeProvider{name: "primary", content: ""}
	secondary := &fakeProvider{name: "secondary", content: "rescued"}
	chain := NewChain([]Provider{primary, secondary}, time.Second, zap.NewNop())

	result, err := chain.Complete(context.Background(), "sys", "hi")
	require.NoError(t, err)
	require.True(t, result.UsedFallback)
	require.Equal(t, "secondary", result.Provider)
}

func TestChain_TimeoutFallsBack(t *testing.T) {
	primary := &fakeProvider{name: "primary", content: "slow", delay: 500 * time.Millisecond}
	secondary := &fakeProvider{name: "secondary", content: "fast"}
	chain := NewChain([]Provider{primary, secondary}, 50*time.Millisecond, zap.NewNop())

	result, err := chain.Complete(context.Background(), "sys", "hi")
	require.NoError(t, err)
	require.Equal(t, "fast", result.Content)
	require.True(t, result.UsedFallback)
}

func TestChain_AllFail(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("down")}
	secondary := &fakeProvider{name: "secondary", err: errors.New("also down")}
	chain := NewChain([]Provider{primary, secondary}, time.Second, zap.NewNop())

	_, err := chain.Complete(context.Background(), "sys", "hi")
	require.Error(t, err)
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeProviderUnavailable))
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 1, secondary.calls)
}

func TestChain_NoProviders(t *testing.T) {
	chain := NewChain(nil, time.Second, zap.NewNop())

	_, err := chain.Complete(context.Background(), "sys", "hi")
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeProviderUnavailable))
}

func TestChain_Providers(t *testing.T) {
	chain := NewChain([]Provider{
		&fakeProvider{name: "a"},
		&fakeProvider{name: "b"},
	}, time.Second, zap.NewNop())

	require.Equal(t, []string{"a", "b"}, chain.Providers())
}
