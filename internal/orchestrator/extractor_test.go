package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/innovatehub-ph/runtime-sandbox/internal/llm"
)

func TestExtractSavesQualifyingMemories(t *testing.T) {
	payload := `[
		{"category": "preference", "key": "editor", "value": "neovim", "importance": 8},
		{"category": "fact", "key": "timezone", "value": "UTC+8", "importance": 6},
		{"category": "context", "key": "mood", "value": "tired today", "importance": 2}
	]`
	logger := zap.NewNop()
	db := newTestStore(t)
	chain := llm.NewChain([]llm.Provider{&stubProvider{name: "openai", content: payload}}, 15*time.Second, logger)
	e := NewExtractor(chain, db, 5, 45*time.Second, logger)

	n, err := e.extract(context.Background(), "u1", "I use neovim", "noted")
	require.NoError(t, err)
	require.Equal(t, 2, n, "below-minimum importance is dropped")

	saved, err := db.ImportantMemories("u1", 5, 20)
	require.NoError(t, err)
	require.Len(t, saved, 2)
}

func TestExtractStripsCodeFences(t *testing.T) {
	payload := "```json\n[{\"category\": \"skill\", \"key\": \"go\", \"value\": \"writes Go daily\", \"importance\": 7}]\n```"
	logger := zap.NewNop()
	db := newTestStore(t)
	chain := llm.NewChain([]llm.Provider{&stubProvider{name: "openai", content: payload}}, 15*time.Second, logger)
	e := NewExtractor(chain, db, 5, 45*time.Second, logger)

	n, err := e.extract(context.Background(), "u1", "q", "a")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestExtractUnparseableOutputIsSilent(t *testing.T) {
	logger := zap.NewNop()
	db := newTestStore(t)
	chain := llm.NewChain([]llm.Provider{&stubProvider{name: "openai", content: "I couldn't find anything."}}, 15*time.Second, logger)
	e := NewExtractor(chain, db, 5, 45*time.Second, logger)

	n, err := e.extract(context.Background(), "u1", "q", "a")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestExtractProviderFailurePropagates(t *testing.T) {
	logger := zap.NewNop()
	db := newTestStore(t)
	chain := llm.NewChain([]llm.Provider{&stubProvider{name: "openai", err: errors.New("down")}}, 15*time.Second, logger)
	e := NewExtractor(chain, db, 5, 45*time.Second, logger)

	_, err := e.extract(context.Background(), "u1", "q", "a")
	require.Error(t, err)
}

func TestExtractAsyncNeverPanicsCaller(t *testing.T) {
	logger := zap.NewNop()
	db := newTestStore(t)
	chain := llm.NewChain([]llm.Provider{&stubProvider{name: "openai", content: "[]"}}, 15*time.Second, logger)
	e := NewExtractor(chain, db, 5, time.Second, logger)

	require.NotPanics(t, func() {
		e.ExtractAsync("u1", "question", "answer")
	})
}
