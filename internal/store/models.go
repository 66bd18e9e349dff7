package store

import "time"

// Session is one isolated workspace plus its registered services.
type Session struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	UserID     string    `gorm:"size:64;index" json:"user_id"`
	Status     string    `gorm:"size:16" json:"status"` // active, inactive
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// File records metadata for a file written into a session workspace.
// The content itself lives on disk under the workspace root.
type File struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"size:64;index:idx_session_path" json:"session_id"`
	Path      string    `gorm:"size:512;index:idx_session_path" json:"path"`
	Size      int64     `json:"size"`
	MimeType  string    `gorm:"size:128" json:"mime_type"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProcessRecord is an audit record of a spawned process.
type ProcessRecord struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string     `gorm:"size:64;index" json:"session_id"`
	PID       int        `json:"pid"`
	Command   string     `gorm:"type:text" json:"command"`
	Status    string     `gorm:"size:16;index" json:"status"` // running, completed, failed
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// EnvironmentVariable is a per-session environment variable.
type EnvironmentVariable struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"size:64;index:idx_session_env" json:"session_id"`
	Key       string    `gorm:"size:128;index:idx_session_env" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Conversation is one persisted conversation turn.
type Conversation struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"size:64;index" json:"session_id"`
	UserID    string    `gorm:"size:64;index" json:"user_id"`
	Role      string    `gorm:"size:16" json:"role"` // user, assistant
	Content   string    `gorm:"type:text" json:"content"`
	Mode      string    `gorm:"size:32" json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

// Memory is a long-term fact extracted from past conversations.
type Memory struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       string    `gorm:"size:64;index:idx_user_key" json:"user_id"`
	Category     string    `gorm:"size:32" json:"category"` // preference, fact, context, skill
	Key          string    `gorm:"size:128;index:idx_user_key" json:"key"`
	Value        string    `gorm:"type:text" json:"value"`
	Importance   int       `gorm:"index" json:"importance"` // 1-10
	LastAccessed time.Time `json:"last_accessed"`
	CreatedAt    time.Time `json:"created_at"`
}

// Knowledge is a per-user topic knowledge entry.
type Knowledge struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"size:64;index" json:"user_id"`
	Topic     string    `gorm:"size:128" json:"topic"`
	Content   string    `gorm:"type:text" json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}
