package server

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/innovatehub-ph/runtime-sandbox/internal/contextstore"
	"github.com/innovatehub-ph/runtime-sandbox/internal/orchestrator"
	"github.com/innovatehub-ph/runtime-sandbox/internal/store"
	apperrors "github.com/innovatehub-ph/runtime-sandbox/pkg/sandbox/errors"
)

// Sessions

type createSessionRequest struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"userId,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	sess := &store.Session{ID: req.ID, UserID: req.UserID}
	if err := s.db.CreateSession(sess); err != nil {
		writeError(w, err)
		return
	}
	if _, err := s.workspaces.Ensure(sess.ID); err != nil {
		s.logger.Warn("workspace creation deferred", zap.String("session", sess.ID), zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.db.GetSession(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.db.EndSession(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "inactive"})
}

// Execution

type executeRequest struct {
	Command string `json:"command"`
	Workdir string `json:"workdir,omitempty"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session"]
	var req executeRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		badRequest(w, "command is required")
		return
	}

	ws, err := s.workspaces.Ensure(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	workdir := ws.Dir()
	if req.Workdir != "" {
		cleaned := filepath.Clean(req.Workdir)
		if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
			writeError(w, apperrors.New(apperrors.ErrCodeInvalidPath, "workdir escapes the workspace: "+req.Workdir, nil))
			return
		}
		workdir = filepath.Join(ws.Dir(), cleaned)
	}

	env := s.sessionEnv(sessionID)
	result, err := s.runner.Run(r.Context(), sessionID, req.Command, workdir, env)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.db.TouchSession(sessionID); err != nil {
		s.logger.Warn("failed to touch session", zap.String("session", sessionID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) sessionEnv(sessionID string) []string {
	vars, err := s.db.ListEnv(sessionID)
	if err != nil {
		s.logger.Warn("failed to load session env", zap.String("session", sessionID), zap.Error(err))
		return nil
	}
	env := make([]string, 0, len(vars))
	for _, v := range vars {
		env = append(env, v.Key+"="+v.Value)
	}
	return env
}

// Files

func (s *Server) handleFileTree(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		badRequest(w, "sessionId is required")
		return
	}
	ws, err := s.workspaces.Ensure(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	tree, err := ws.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

type fileContentResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (s *Server) handleReadFile(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session"]
	path := r.URL.Query().Get("path")
	if path == "" {
		badRequest(w, "path is required")
		return
	}
	ws, err := s.workspaces.Ensure(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := ws.Read(path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fileContentResponse{Path: path, Content: string(data)})
}

type writeFileRequest struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	MimeType string `json:"mimeType,omitempty"`
}

func (s *Server) handleWriteFile(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session"]
	var req writeFileRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.Path == "" {
		badRequest(w, "path is required")
		return
	}
	ws, err := s.workspaces.Ensure(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := ws.Write(req.Path, []byte(req.Content), req.MimeType); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": req.Path, "size": len(req.Content)})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session"]
	path := r.URL.Query().Get("path")
	if path == "" {
		badRequest(w, "path is required")
		return
	}
	ws, err := s.workspaces.Ensure(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := ws.Delete(path); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Environment variables

type setEnvRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *Server) handleListEnv(w http.ResponseWriter, r *http.Request) {
	vars, err := s.db.ListEnv(mux.Vars(r)["session"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vars)
}

func (s *Server) handleSetEnv(w http.ResponseWriter, r *http.Request) {
	var req setEnvRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.Key == "" {
		badRequest(w, "key is required")
		return
	}
	if err := s.db.SetEnv(mux.Vars(r)["session"], req.Key, req.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": req.Key})
}

func (s *Server) handleDeleteEnv(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.db.DeleteEnv(vars["session"], vars["key"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Orchestration

type messageRequest struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId,omitempty"`
	ContextID string `json:"contextId,omitempty"`
	Message   string `json:"message"`
	Mode      string `json:"mode,omitempty"`
}

type messageFailure struct {
	Content string `json:"content"`
	Code    string `json:"code"`
	Mode    string `json:"mode"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: "no language model providers are configured",
			Code:  apperrors.ErrCodeProviderUnavailable,
		})
		return
	}

	var req messageRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.SessionID == "" || strings.TrimSpace(req.Message) == "" {
		badRequest(w, "sessionId and message are required")
		return
	}
	if req.UserID == "" {
		req.UserID = req.SessionID
	}

	if err := s.db.TouchSession(req.SessionID); err != nil {
		s.logger.Warn("failed to touch session", zap.String("session", req.SessionID), zap.Error(err))
	}

	result, err := s.pipeline.Process(r.Context(), orchestrator.Request{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		ContextID: req.ContextID,
		Text:      req.Message,
		Mode:      req.Mode,
	})
	if err != nil {
		// A failed turn still answers with a response object: the caller
		// can distinguish "no answer produced" from a transport error.
		if apperrors.HasCode(err, apperrors.ErrCodeProviderUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, messageFailure{
				Content: "I'm sorry, I couldn't reach a language model right now. Please try again shortly.",
				Code:    apperrors.ErrCodeProviderUnavailable,
				Mode:    orchestrator.GetMode(req.Mode).Name,
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Context control

func (s *Server) handlePauseContext(w http.ResponseWriter, r *http.Request) {
	s.setContextPaused(w, r, true)
}

func (s *Server) handleResumeContext(w http.ResponseWriter, r *http.Request) {
	s.setContextPaused(w, r, false)
}

// setContextPaused flips the advisory paused flag. Pausing asks the agent
// to stop initiating autonomous steps; it does not cancel in-flight work.
func (s *Server) setContextPaused(w http.ResponseWriter, r *http.Request, paused bool) {
	id := mux.Vars(r)["id"]
	ctx := s.contexts.Get(id)
	if ctx == nil {
		writeError(w, apperrors.New(apperrors.ErrCodeContextNotFound, "unknown context: "+id, nil))
		return
	}
	ctx.SetPaused(paused)
	heading := "run paused"
	if !paused {
		heading = "run resumed"
	}
	ctx.AppendLog(contextstore.LogEntry{Category: "control", Heading: heading})
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "paused": paused})
}

// Polling

type pollRequest struct {
	Context string `json:"context,omitempty"`
	LogFrom int    `json:"log_from,omitempty"`
}

type pollResponse struct {
	Context           contextstore.Summary    `json:"context"`
	Contexts          []contextstore.Summary  `json:"contexts"`
	Logs              []contextstore.LogEntry `json:"logs"`
	LogVersion        int                     `json:"log_version"`
	LogProgressActive bool                    `json:"log_progress_active"`
	Paused            bool                    `json:"paused"`
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	var req pollRequest
	if r.Method == http.MethodPost && r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
	} else {
		req.Context = r.URL.Query().Get("context")
		if from := r.URL.Query().Get("log_from"); from != "" {
			n, err := strconv.Atoi(from)
			if err != nil || n < 0 {
				badRequest(w, "log_from must be a non-negative integer")
				return
			}
			req.LogFrom = n
		}
	}

	var ctx *contextstore.Context
	if req.Context == "" {
		ctx = s.contexts.Create("", contextstore.TypeInteractive, nil)
	} else if ctx = s.contexts.Get(req.Context); ctx == nil {
		writeError(w, apperrors.New(apperrors.ErrCodeContextNotFound, "unknown context: "+req.Context, nil))
		return
	}

	poll := ctx.PollSince(req.LogFrom)
	summary := ctx.Summary()
	writeJSON(w, http.StatusOK, pollResponse{
		Context:           summary,
		Contexts:          s.contexts.List(),
		Logs:              poll.Logs,
		LogVersion:        poll.TotalCount,
		LogProgressActive: poll.Streaming,
		Paused:            poll.Paused,
	})
}
