package contextstore

import "time"

// Role attributes a message to its producer.
type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
	RoleTool   Role = "tool"
	RoleError  Role = "error"
)

// ContextType classifies a conversation/task unit.
type ContextType string

const (
	TypeInteractive    ContextType = "interactive"
	TypeScheduledTask  ContextType = "scheduled-task"
	TypeProtocolBridge ContextType = "protocol-bridge"
)

// Message is one conversation turn.
type Message struct {
	ID          string            `json:"id"`
	Role        Role              `json:"role"`
	Content     string            `json:"content"`
	Timestamp   time.Time         `json:"timestamp"`
	Attachments []string          `json:"attachments,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// LogEntry is a finer-grained progress record, distinct from chat messages.
// Its position in the context's log sequence is its permanent index and
// doubles as the polling cursor.
type LogEntry struct {
	ID        string            `json:"id"`
	Category  string            `json:"category"`
	Heading   string            `json:"heading"`
	Body      string            `json:"body"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Config holds per-context behavior settings.
type Config struct {
	SystemPrompt  string   `json:"system_prompt,omitempty"`
	Subdirs       []string `json:"subdirs,omitempty"`
	MaxIterations int      `json:"max_iterations"`
}

// DefaultConfig returns the config applied to new contexts.
func DefaultConfig() Config {
	return Config{MaxIterations: 50}
}

// PollResult is the answer to a cursor-based incremental read. Logs is
// always a suffix of the append-only sequence starting at the cursor.
type PollResult struct {
	Logs       []LogEntry `json:"logs"`
	TotalCount int        `json:"totalCount"`
	Streaming  bool       `json:"streaming"`
	Paused     bool       `json:"paused"`
}

// Summary is a lock-free snapshot of a context's descriptive fields,
// used for listings.
type Summary struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Type        ContextType `json:"type"`
	CreatedAt   time.Time   `json:"created_at"`
	LastMessage time.Time   `json:"last_message"`
	Paused      bool        `json:"paused"`
	Streaming   bool        `json:"streaming"`
	Messages    int         `json:"message_count"`
	Logs        int         `json:"log_count"`
}
