// Package store implements the durable store behind the runtime: simple keyed
// CRUD over sessions, files, process records, environment variables,
// conversations, memories, and knowledge. Callers only ever issue independent
// point reads/writes; there are no joins or transactions at this layer.
package store

import (
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/innovatehub-ph/runtime-sandbox/pkg/sandbox/errors"
)

// Store wraps the sqlite-backed database.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path and runs migrations.
// Pass ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeStoreFailed, "failed to open database", err)
	}

	if err := db.AutoMigrate(
		&Session{},
		&File{},
		&ProcessRecord{},
		&EnvironmentVariable{},
		&Conversation{},
		&Memory{},
		&Knowledge{},
	); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeStoreFailed, "failed to migrate schema", err)
	}

	return &Store{db: db}, nil
}

// CreateSession inserts a new session row.
func (s *Store) CreateSession(sess *Session) error {
	now := time.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.LastActive = now
	if sess.Status == "" {
		sess.Status = "active"
	}
	if err := s.db.Create(sess).Error; err != nil {
		return apperrors.New(apperrors.ErrCodeStoreFailed, "failed to create session", err)
	}
	return nil
}

// GetSession fetches a session by id.
func (s *Store) GetSession(id string) (*Session, error) {
	var sess Session
	err := s.db.First(&sess, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.New(apperrors.ErrCodeSessionNotFound, "session not found: "+id, nil)
	}
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeStoreFailed, "failed to get session", err)
	}
	return &sess, nil
}

// TouchSession bumps the session's last-activity time.
func (s *Store) TouchSession(id string) error {
	return s.db.Model(&Session{}).Where("id = ?", id).
		Update("last_active", time.Now()).Error
}

// EndSession marks a session inactive.
func (s *Store) EndSession(id string) error {
	res := s.db.Model(&Session{}).Where("id = ?", id).Update("status", "inactive")
	if res.Error != nil {
		return apperrors.New(apperrors.ErrCodeStoreFailed, "failed to end session", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrCodeSessionNotFound, "session not found: "+id, nil)
	}
	return nil
}

// UpsertFile records file metadata for a workspace path.
func (s *Store) UpsertFile(sessionID, path string, size int64, mimeType string) error {
	var existing File
	err := s.db.First(&existing, "session_id = ? AND path = ?", sessionID, path).Error
	if err == gorm.ErrRecordNotFound {
		rec := File{SessionID: sessionID, Path: path, Size: size, MimeType: mimeType, UpdatedAt: time.Now()}
		if err := s.db.Create(&rec).Error; err != nil {
			return apperrors.New(apperrors.ErrCodeStoreFailed, "failed to record file", err)
		}
		return nil
	}
	if err != nil {
		return apperrors.New(apperrors.ErrCodeStoreFailed, "failed to look up file", err)
	}
	existing.Size = size
	existing.MimeType = mimeType
	existing.UpdatedAt = time.Now()
	if err := s.db.Save(&existing).Error; err != nil {
		return apperrors.New(apperrors.ErrCodeStoreFailed, "failed to update file record", err)
	}
	return nil
}

// DeleteFile removes the metadata row for a workspace path.
func (s *Store) DeleteFile(sessionID, path string) error {
	return s.db.Delete(&File{}, "session_id = ? AND path = ?", sessionID, path).Error
}

// RecordProcess inserts a finalized process record.
func (s *Store) RecordProcess(rec *ProcessRecord) error {
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	if err := s.db.Create(rec).Error; err != nil {
		return apperrors.New(apperrors.ErrCodeStoreFailed, "failed to record process", err)
	}
	return nil
}

// ListProcesses returns process records for a session, newest first.
func (s *Store) ListProcesses(sessionID string, limit int) ([]ProcessRecord, error) {
	var recs []ProcessRecord
	q := s.db.Where("session_id = ?", sessionID).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, apperrors.New(apperrors.ErrCodeStoreFailed, "failed to list processes", err)
	}
	return recs, nil
}

// SetEnv creates or updates an environment variable for a session.
func (s *Store) SetEnv(sessionID, key, value string) error {
	var existing EnvironmentVariable
	err := s.db.First(&existing, "session_id = ? AND key = ?", sessionID, key).Error
	if err == gorm.ErrRecordNotFound {
		rec := EnvironmentVariable{SessionID: sessionID, Key: key, Value: value, UpdatedAt: time.Now()}
		return s.db.Create(&rec).Error
	}
	if err != nil {
		return apperrors.New(apperrors.ErrCodeStoreFailed, "failed to look up env var", err)
	}
	existing.Value = value
	existing.UpdatedAt = time.Now()
	return s.db.Save(&existing).Error
}

// ListEnv returns all environment variables for a session.
func (s *Store) ListEnv(sessionID string) ([]EnvironmentVariable, error) {
	var vars []EnvironmentVariable
	if err := s.db.Where("session_id = ?", sessionID).Order("key").Find(&vars).Error; err != nil {
		return nil, apperrors.New(apperrors.ErrCodeStoreFailed, "failed to list env vars", err)
	}
	return vars, nil
}

// DeleteEnv removes an environment variable.
func (s *Store) DeleteEnv(sessionID, key string) error {
	return s.db.Delete(&EnvironmentVariable{}, "session_id = ? AND key = ?", sessionID, key).Error
}

// SaveConversation persists one conversation turn.
func (s *Store) SaveConversation(c *Conversation) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if err := s.db.Create(c).Error; err != nil {
		return apperrors.New(apperrors.ErrCodeStoreFailed, "failed to save conversation", err)
	}
	return nil
}

// RecentConversations returns the most recent turns for a session,
// newest first.
func (s *Store) RecentConversations(sessionID string, limit int) ([]Conversation, error) {
	var turns []Conversation
	if err := s.db.Where("session_id = ?", sessionID).
		Order("created_at DESC").Limit(limit).Find(&turns).Error; err != nil {
		return nil, apperrors.New(apperrors.ErrCodeStoreFailed, "failed to load conversations", err)
	}
	return turns, nil
}

// SaveMemory persists a long-term memory item.
func (s *Store) SaveMemory(m *Memory) error {
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.LastAccessed = now
	if err := s.db.Create(m).Error; err != nil {
		return apperrors.New(apperrors.ErrCodeStoreFailed, "failed to save memory", err)
	}
	return nil
}

// ImportantMemories returns memories for a user with importance at or above
// the threshold, most important first.
func (s *Store) ImportantMemories(userID string, minImportance, limit int) ([]Memory, error) {
	var items []Memory
	if err := s.db.Where("user_id = ? AND importance >= ?", userID, minImportance).
		Order("importance DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, apperrors.New(apperrors.ErrCodeStoreFailed, "failed to load memories", err)
	}
	return items, nil
}

// TouchMemories bumps last-accessed for the given memory ids.
func (s *Store) TouchMemories(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.Model(&Memory{}).Where("id IN ?", ids).
		Update("last_accessed", time.Now()).Error
}

// SaveKnowledge persists a knowledge entry.
func (s *Store) SaveKnowledge(k *Knowledge) error {
	k.UpdatedAt = time.Now()
	if err := s.db.Create(k).Error; err != nil {
		return apperrors.New(apperrors.ErrCodeStoreFailed, "failed to save knowledge", err)
	}
	return nil
}

// KnowledgeForUser returns knowledge entries for a user.
func (s *Store) KnowledgeForUser(userID string, limit int) ([]Knowledge, error) {
	var items []Knowledge
	q := s.db.Where("user_id = ?", userID).Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, apperrors.New(apperrors.ErrCodeStoreFailed, "failed to load knowledge", err)
	}
	return items, nil
}
