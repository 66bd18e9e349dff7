package orchestrator

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/innovatehub-ph/runtime-sandbox/internal/llm"
	"github.com/innovatehub-ph/runtime-sandbox/internal/store"
)

const extractionPrompt = `Analyze the exchange and extract 0-5 facts worth remembering about the user for future conversations.
Focus on preferences, stable facts, ongoing context, and demonstrated skills.

Output a JSON array: [{"category": "preference"|"fact"|"context"|"skill", "key": "...", "value": "...", "importance": 1-10}]
Return an empty array [] if nothing is worth remembering.
Only output the JSON array, nothing else.`

// Extractor asks a model to mine long-term memories from a completed
// exchange. It always runs detached from the request path: failures are
// logged and discarded, never surfaced to the caller.
type Extractor struct {
	chain         *llm.Chain
	db            *store.Store
	minImportance int
	timeout       time.Duration
	logger        *zap.Logger
}

// NewExtractor creates a memory extractor.
func NewExtractor(chain *llm.Chain, db *store.Store, minImportance int, timeout time.Duration, logger *zap.Logger) *Extractor {
	return &Extractor{
		chain:         chain,
		db:            db,
		minImportance: minImportance,
		timeout:       timeout,
		logger:        logger,
	}
}

// ExtractAsync launches extraction in a detached goroutine with its own
// deadline and error boundary. The foreground request may complete, and its
// caller disconnect, before this finishes.
func (e *Extractor) ExtractAsync(userID, userText, reply string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("memory extraction panicked", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		if n, err := e.extract(ctx, userID, userText, reply); err != nil {
			e.logger.Warn("memory extraction failed", zap.String("user", userID), zap.Error(err))
		} else if n > 0 {
			e.logger.Debug("memories extracted", zap.String("user", userID), zap.Int("count", n))
		}
	}()
}

func (e *Extractor) extract(ctx context.Context, userID, userText, reply string) (int, error) {
	exchange := "User: " + userText + "\n\nAssistant: " + truncate(reply, 2000)

	result, err := e.chain.Complete(ctx, "You extract factual information from conversations. Output only valid JSON.",
		exchange+"\n\n"+extractionPrompt)
	if err != nil {
		return 0, err
	}

	type candidate struct {
		Category   string `json:"category"`
		Key        string `json:"key"`
		Value      string `json:"value"`
		Importance int    `json:"importance"`
	}

	// Models wrap JSON in code fences often enough that we cut the array
	// out of whatever came back.
	raw := strings.TrimSpace(result.Content)
	if idx := strings.Index(raw, "["); idx >= 0 {
		if end := strings.LastIndex(raw, "]"); end > idx {
			raw = raw[idx : end+1]
		}
	}

	var candidates []candidate
	if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
		return 0, nil // unparseable output, skip silently
	}

	saved := 0
	for _, c := range candidates {
		if c.Key == "" || c.Value == "" || c.Importance < e.minImportance {
			continue
		}
		if c.Category == "" {
			c.Category = "fact"
		}
		m := &store.Memory{
			UserID:     userID,
			Category:   c.Category,
			Key:        c.Key,
			Value:      c.Value,
			Importance: c.Importance,
		}
		if err := e.db.SaveMemory(m); err != nil {
			e.logger.Warn("failed to save extracted memory", zap.Error(err))
			continue
		}
		saved++
	}
	return saved, nil
}
