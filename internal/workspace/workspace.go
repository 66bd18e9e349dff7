// Package workspace implements the per-session directory sandbox. All paths
// are relative to the session's workspace directory; absolute paths and
// parent-traversal segments are rejected before any filesystem I/O.
package workspace

import (
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/innovatehub-ph/runtime-sandbox/internal/store"
	apperrors "github.com/innovatehub-ph/runtime-sandbox/pkg/sandbox/errors"
)

// NodeType distinguishes tree nodes.
type NodeType string

const (
	NodeFile      NodeType = "file"
	NodeDirectory NodeType = "directory"
)

// Node is one entry in a workspace tree listing. Directories sort before
// files; siblings sort case-sensitively by name. The UI depends on this
// ordering.
type Node struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Type     NodeType `json:"type"`
	Children []*Node  `json:"children,omitempty"`
	Size     int64    `json:"size,omitempty"`
	MimeType string   `json:"mimeType,omitempty"`
}

// Manager owns the workspace root and hands out per-session workspaces.
type Manager struct {
	root   string
	db     *store.Store
	logger *zap.Logger
}

// NewManager creates a workspace manager rooted at root.
func NewManager(root string, db *store.Store, logger *zap.Logger) *Manager {
	return &Manager{root: root, db: db, logger: logger}
}

// Ensure returns the workspace for a session, creating its directory lazily.
func (m *Manager) Ensure(sessionID string) (*Workspace, error) {
	dir := filepath.Join(m.root, sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeFileOperation, "failed to create workspace directory", err)
	}
	return &Workspace{sessionID: sessionID, dir: dir, db: m.db, logger: m.logger}, nil
}

// Workspace is one session's directory sandbox.
type Workspace struct {
	sessionID string
	dir       string
	db        *store.Store
	logger    *zap.Logger
}

// Dir returns the workspace directory on disk.
func (w *Workspace) Dir() string { return w.dir }

// resolve validates a workspace-relative path and returns its absolute
// location. This is the sandbox boundary: the check runs before any I/O.
func (w *Workspace) resolve(relPath string) (string, error) {
	if relPath == "" {
		return "", apperrors.New(apperrors.ErrCodeInvalidPath, "path is empty", nil)
	}
	if filepath.IsAbs(relPath) {
		return "", apperrors.New(apperrors.ErrCodeInvalidPath, "absolute paths are not allowed: "+relPath, nil)
	}
	cleaned := filepath.Clean(relPath)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", apperrors.New(apperrors.ErrCodeInvalidPath, "path escapes workspace: "+relPath, nil)
	}
	return filepath.Join(w.dir, cleaned), nil
}

// Read returns the content of a workspace file.
func (w *Workspace) Read(relPath string) ([]byte, error) {
	abs, err := w.resolve(relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if os.IsNotExist(err) {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "file not found: "+relPath, nil)
	}
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeFileOperation, "failed to read file", err)
	}
	return data, nil
}

// Write stores content at a workspace path, creating intermediate
// directories, and records size/mime metadata in the durable store.
// An empty mimeType is inferred from the file extension.
func (w *Workspace) Write(relPath string, content []byte, mimeType string) error {
	abs, err := w.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return apperrors.New(apperrors.ErrCodeFileOperation, "failed to create directories", err)
	}
	if err := os.WriteFile(abs, content, 0644); err != nil {
		return apperrors.New(apperrors.ErrCodeFileOperation, "failed to write file", err)
	}

	if mimeType == "" {
		mimeType = inferMimeType(relPath)
	}
	rel := filepath.ToSlash(filepath.Clean(relPath))
	if err := w.db.UpsertFile(w.sessionID, rel, int64(len(content)), mimeType); err != nil {
		// The file is on disk; a metadata miss is not worth failing the write.
		w.logger.Warn("failed to record file metadata",
			zap.String("session", w.sessionID), zap.String("path", rel), zap.Error(err))
	}
	return nil
}

// Delete removes a workspace file and its metadata row.
func (w *Workspace) Delete(relPath string) error {
	abs, err := w.resolve(relPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		return apperrors.New(apperrors.ErrCodeNotFound, "file not found: "+relPath, nil)
	}
	if err := os.Remove(abs); err != nil {
		return apperrors.New(apperrors.ErrCodeFileOperation, "failed to delete file", err)
	}
	rel := filepath.ToSlash(filepath.Clean(relPath))
	if err := w.db.DeleteFile(w.sessionID, rel); err != nil {
		w.logger.Warn("failed to delete file metadata",
			zap.String("session", w.sessionID), zap.String("path", rel), zap.Error(err))
	}
	return nil
}

// List walks the workspace and returns its tree. The root node itself is the
// workspace directory; callers usually render its children.
func (w *Workspace) List() (*Node, error) {
	root := &Node{
		ID:   w.sessionID,
		Name: w.sessionID,
		Path: "",
		Type: NodeDirectory,
	}
	if err := w.walk(w.dir, "", root); err != nil {
		return nil, err
	}
	return root, nil
}

func (w *Workspace) walk(dir, relPrefix string, parent *Node) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return apperrors.New(apperrors.ErrCodeFileOperation, "failed to read directory", err)
	}

	for _, entry := range entries {
		rel := entry.Name()
		if relPrefix != "" {
			rel = relPrefix + "/" + entry.Name()
		}
		node := &Node{
			ID:   w.sessionID + ":" + rel,
			Name: entry.Name(),
			Path: rel,
		}
		if entry.IsDir() {
			node.Type = NodeDirectory
			if err := w.walk(filepath.Join(dir, entry.Name()), rel, node); err != nil {
				return err
			}
		} else {
			node.Type = NodeFile
			if info, err := entry.Info(); err == nil {
				node.Size = info.Size()
			}
			node.MimeType = inferMimeType(entry.Name())
		}
		parent.Children = append(parent.Children, node)
	}

	sortNodes(parent.Children)
	return nil
}

// sortNodes orders directories first, then files, each case-sensitively by
// name. This ordering is part of the listing contract.
func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return nodes[i].Type == NodeDirectory
		}
		return nodes[i].Name < nodes[j].Name
	})
}

func inferMimeType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "text/plain"
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
