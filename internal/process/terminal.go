package process

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/innovatehub-ph/runtime-sandbox/pkg/sandbox/errors"
)

// Terminal is a named interactive command-execution slot. It is not a PTY:
// each Write is treated as one complete shell command run to completion via
// the one-shot path. No shell state (cd, exports) survives between writes.
type Terminal struct {
	ID         string
	SessionID  string
	WorkingDir string

	// runMu serializes commands; at most one runs at a time per terminal.
	runMu sync.Mutex

	// mu guards the fields below. It is never held across a command run,
	// so Kill can always make progress.
	mu      sync.Mutex
	cols    int
	rows    int
	history []HistoryEntry
	cancel  context.CancelFunc // cancels the in-flight command, if any
	closed  bool
}

// HistoryEntry is one input/output pair in a terminal's history buffer.
type HistoryEntry struct {
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	ExitCode  int       `json:"exitCode"`
	Timestamp time.Time `json:"timestamp"`
}

// Manager tracks the terminals of one session.
type Manager struct {
	runner *Runner
	logger *zap.Logger

	mu        sync.Mutex
	terminals map[string]*Terminal
}

// NewManager creates a terminal manager backed by the given runner.
func NewManager(runner *Runner, logger *zap.Logger) *Manager {
	return &Manager{
		runner:    runner,
		logger:    logger,
		terminals: make(map[string]*Terminal),
	}
}

// Create registers a terminal with the given id, bound to workingDir.
// Creating an id that already exists returns the existing terminal.
func (m *Manager) Create(id, sessionID, workingDir string) *Terminal {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.terminals[id]; ok {
		return t
	}
	t := &Terminal{
		ID:         id,
		SessionID:  sessionID,
		WorkingDir: workingDir,
		cols:       80,
		rows:       24,
	}
	m.terminals[id] = t
	m.logger.Debug("terminal created", zap.String("terminal", id), zap.String("session", sessionID))
	return t
}

// Get returns the terminal for id, or nil.
func (m *Manager) Get(id string) *Terminal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.terminals[id]
}

// Write runs input as one shell command in the terminal's working directory
// and returns the produced output (stdout and stderr combined). Commands on
// the same terminal are serialized.
func (m *Manager) Write(ctx context.Context, id, input string) (string, error) {
	t := m.Get(id)
	if t == nil {
		return "", apperrors.New(apperrors.ErrCodeNotFound, "terminal not found: "+id, nil)
	}

	t.runMu.Lock()
	defer t.runMu.Unlock()

	command := strings.TrimRight(input, "\r\n")
	if command == "" {
		return "", nil
	}

	cmdCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return "", apperrors.New(apperrors.ErrCodeTerminalFailed, "terminal is closed: "+id, nil)
	}
	t.cancel = cancel
	t.mu.Unlock()

	result, err := m.runner.Run(cmdCtx, t.SessionID, command, t.WorkingDir, nil)

	t.mu.Lock()
	t.cancel = nil
	if err != nil {
		// Spawn failures surface as terminal text, not a torn-down session.
		entry := HistoryEntry{Input: command, Output: err.Error(), ExitCode: -1, Timestamp: time.Now()}
		t.history = append(t.history, entry)
		t.mu.Unlock()
		return entry.Output, nil
	}
	output := result.Combined()
	t.history = append(t.history, HistoryEntry{
		Input:     command,
		Output:    output,
		ExitCode:  result.ExitCode,
		Timestamp: time.Now(),
	})
	t.mu.Unlock()
	return output, nil
}

// Resize records the terminal dimensions. Commands are run to completion,
// so the size only affects clients rendering the history.
func (m *Manager) Resize(id string, cols, rows int) {
	t := m.Get(id)
	if t == nil {
		return
	}
	t.mu.Lock()
	t.cols = cols
	t.rows = rows
	t.mu.Unlock()
}

// Size returns the terminal's recorded dimensions.
func (m *Manager) Size(id string) (cols, rows int) {
	t := m.Get(id)
	if t == nil {
		return 0, 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols, t.rows
}

// Clear empties the terminal's history buffer.
func (m *Manager) Clear(id string) {
	t := m.Get(id)
	if t == nil {
		return
	}
	t.mu.Lock()
	t.history = nil
	t.mu.Unlock()
}

// History returns a copy of the terminal's history buffer.
func (m *Manager) History(id string) []HistoryEntry {
	t := m.Get(id)
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]HistoryEntry, len(t.history))
	copy(out, t.history)
	return out
}

// Kill terminates a terminal's in-flight command, if any, and removes the
// terminal. Killing an unknown or already-dead terminal is a no-op.
func (m *Manager) Kill(id string) {
	m.mu.Lock()
	t, ok := m.terminals[id]
	if ok {
		delete(m.terminals, id)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	t.mu.Lock()
	t.closed = true
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.logger.Debug("terminal killed", zap.String("terminal", id))
}

// IDs returns the ids of all live terminals.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.terminals))
	for id := range m.terminals {
		ids = append(ids, id)
	}
	return ids
}
