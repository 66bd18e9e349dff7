// Package contextstore implements the in-memory registry of conversation
// contexts, each with an append-only message and log sequence. The log
// sequence is the basis of the long-poll reconciliation protocol: a poll at
// cursor N always returns the suffix of logs from N, so repeated polls are
// idempotent and safe to retry.
package contextstore

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/innovatehub-ph/runtime-sandbox/pkg/sandbox/errors"
)

// Context is one conversation/task unit. All mutations to a context go
// through its mutex, giving single-writer-at-a-time semantics per context.
type Context struct {
	ID        string
	Name      string
	Type      ContextType
	CreatedAt time.Time

	mu          sync.Mutex
	lastMessage time.Time
	paused      bool
	streaming   bool
	messages    []Message
	logs        []LogEntry
	config      Config
}

// Registry is an explicitly-owned, injected context registry. Tests
// construct isolated instances; there is no process-wide state.
type Registry struct {
	mu       sync.RWMutex
	contexts map[string]*Context
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		contexts: make(map[string]*Context),
		logger:   logger,
	}
}

// Create registers a new context. An empty name defaults to the generated
// id; a nil config gets DefaultConfig.
func (r *Registry) Create(name string, ctype ContextType, cfg *Config) *Context {
	id := uuid.NewString()
	if name == "" {
		name = id
	}
	config := DefaultConfig()
	if cfg != nil {
		config = *cfg
		if config.MaxIterations == 0 {
			config.MaxIterations = DefaultConfig().MaxIterations
		}
	}
	now := time.Now()
	ctx := &Context{
		ID:          id,
		Name:        name,
		Type:        ctype,
		CreatedAt:   now,
		lastMessage: now,
		config:      config,
	}

	r.mu.Lock()
	r.contexts[id] = ctx
	r.mu.Unlock()

	r.logger.Debug("context created", zap.String("context", id), zap.String("type", string(ctype)))
	return ctx
}

// Get returns the context for id, or nil.
func (r *Registry) Get(id string) *Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.contexts[id]
}

// List returns summaries of all contexts sorted by last-message time,
// newest first.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	contexts := make([]*Context, 0, len(r.contexts))
	for _, c := range r.contexts {
		contexts = append(contexts, c)
	}
	r.mu.RUnlock()

	summaries := make([]Summary, 0, len(contexts))
	for _, c := range contexts {
		summaries = append(summaries, c.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastMessage.After(summaries[j].LastMessage)
	})
	return summaries
}

// Remove deletes a context. It reports whether the id existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contexts[id]; !ok {
		return false
	}
	delete(r.contexts, id)
	return true
}

// PollSince returns the log suffix from cursor for one context. A cursor at
// or past the end yields an empty slice; it is never an error.
func (r *Registry) PollSince(id string, cursor int) (*PollResult, error) {
	ctx := r.Get(id)
	if ctx == nil {
		return nil, apperrors.New(apperrors.ErrCodeContextNotFound, "context not found: "+id, nil)
	}
	return ctx.PollSince(cursor), nil
}

// AppendMessage appends a chat message to a context.
func (r *Registry) AppendMessage(id string, msg Message) error {
	ctx := r.Get(id)
	if ctx == nil {
		return apperrors.New(apperrors.ErrCodeContextNotFound, "context not found: "+id, nil)
	}
	ctx.AppendMessage(msg)
	return nil
}

// AppendLog appends a log entry to a context.
func (r *Registry) AppendLog(id string, entry LogEntry) error {
	ctx := r.Get(id)
	if ctx == nil {
		return apperrors.New(apperrors.ErrCodeContextNotFound, "context not found: "+id, nil)
	}
	ctx.AppendLog(entry)
	return nil
}

// AppendMessage appends one message and bumps last-message time.
func (c *Context) AppendMessage(msg Message) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.lastMessage = msg.Timestamp
	c.mu.Unlock()
}

// AppendLog appends one log entry. The entry's index in the sequence is
// permanent.
func (c *Context) AppendLog(entry LogEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	c.mu.Lock()
	c.logs = append(c.logs, entry)
	c.lastMessage = entry.Timestamp
	c.mu.Unlock()
}

// PollSince returns the log suffix starting at cursor.
func (c *Context) PollSince(cursor int) *PollResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cursor < 0 {
		cursor = 0
	}
	total := len(c.logs)
	var suffix []LogEntry
	if cursor < total {
		suffix = make([]LogEntry, total-cursor)
		copy(suffix, c.logs[cursor:])
	} else {
		suffix = []LogEntry{}
	}
	return &PollResult{
		Logs:       suffix,
		TotalCount: total,
		Streaming:  c.streaming,
		Paused:     c.paused,
	}
}

// Messages returns a copy of the context's message sequence.
func (c *Context) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// SetStreaming flips the streaming flag. Completion has no separate event;
// clients infer it from streaming transitioning false.
func (c *Context) SetStreaming(on bool) {
	c.mu.Lock()
	c.streaming = on
	c.mu.Unlock()
}

// SetPaused flips the paused flag. Pausing is advisory: it asks the agent
// to stop initiating further autonomous steps but does not cancel an
// in-flight provider call.
func (c *Context) SetPaused(on bool) {
	c.mu.Lock()
	c.paused = on
	c.mu.Unlock()
}

// Paused reports the paused flag.
func (c *Context) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Config returns the context's config.
func (c *Context) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// Summary snapshots the context's descriptive fields.
func (c *Context) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Summary{
		ID:          c.ID,
		Name:        c.Name,
		Type:        c.Type,
		CreatedAt:   c.CreatedAt,
		LastMessage: c.lastMessage,
		Paused:      c.paused,
		Streaming:   c.streaming,
		Messages:    len(c.messages),
		Logs:        len(c.logs),
	}
}
