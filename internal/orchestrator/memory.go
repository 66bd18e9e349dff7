package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/innovatehub-ph/runtime-sandbox/internal/store"
)

// MemoryContext is everything recalled for one turn: recent conversation
// turns (most recent first), high-importance long-term memories, and topic
// knowledge.
type MemoryContext struct {
	Recent    []store.Conversation
	Memories  []store.Memory
	Knowledge []store.Knowledge
}

// memoryLoader performs the three independent reads concurrently. Each read
// failing degrades to an empty section; memory loading never fails a turn.
type memoryLoader struct {
	db                  *store.Store
	recentWindow        int
	importanceThreshold int
	logger              *zap.Logger
}

func (l *memoryLoader) load(ctx context.Context, sessionID, userID string) *MemoryContext {
	mc := &MemoryContext{}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		turns, err := l.db.RecentConversations(sessionID, l.recentWindow)
		if err != nil {
			l.logger.Warn("failed to load recent conversations", zap.Error(err))
			return nil
		}
		mc.Recent = turns
		return nil
	})
	g.Go(func() error {
		items, err := l.db.ImportantMemories(userID, l.importanceThreshold, 20)
		if err != nil {
			l.logger.Warn("failed to load memories", zap.Error(err))
			return nil
		}
		mc.Memories = items
		return nil
	})
	g.Go(func() error {
		items, err := l.db.KnowledgeForUser(userID, 10)
		if err != nil {
			l.logger.Warn("failed to load knowledge", zap.Error(err))
			return nil
		}
		mc.Knowledge = items
		return nil
	})
	_ = g.Wait() // the goroutines above never return errors

	if len(mc.Memories) > 0 {
		ids := make([]uint, len(mc.Memories))
		for i, m := range mc.Memories {
			ids[i] = m.ID
		}
		if err := l.db.TouchMemories(ids); err != nil {
			l.logger.Warn("failed to touch memories", zap.Error(err))
		}
	}

	return mc
}

// serialize renders the memory context as prompt sections. Empty sections
// are omitted.
func (mc *MemoryContext) serialize() string {
	var b strings.Builder

	if len(mc.Memories) > 0 {
		b.WriteString("## What you remember about this user\n")
		for _, m := range mc.Memories {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", m.Category, m.Key, m.Value)
		}
	}

	if len(mc.Knowledge) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## Topic knowledge\n")
		for _, k := range mc.Knowledge {
			fmt.Fprintf(&b, "- %s: %s\n", k.Topic, k.Content)
		}
	}

	if len(mc.Recent) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## Recent conversation\n")
		// Stored newest-first; render oldest-first for reading order.
		for i := len(mc.Recent) - 1; i >= 0; i-- {
			turn := mc.Recent[i]
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, truncate(turn.Content, 400))
		}
	}

	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back off to a rune boundary so multibyte content is never split
	// mid-sequence.
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}
