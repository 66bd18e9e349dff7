// Package server exposes the runtime sandbox over HTTP: session lifecycle,
// one-shot execution, the workspace file surface, environment variables,
// the orchestration message entry point, context polling, and the
// websocket status channel.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/innovatehub-ph/runtime-sandbox/internal/channel"
	"github.com/innovatehub-ph/runtime-sandbox/internal/contextstore"
	"github.com/innovatehub-ph/runtime-sandbox/internal/orchestrator"
	"github.com/innovatehub-ph/runtime-sandbox/internal/process"
	"github.com/innovatehub-ph/runtime-sandbox/internal/store"
	"github.com/innovatehub-ph/runtime-sandbox/internal/workspace"
)

// Server owns the HTTP routing layer over the runtime services.
type Server struct {
	db         *store.Store
	workspaces *workspace.Manager
	runner     *process.Runner
	terminals  *process.Manager
	contexts   *contextstore.Registry
	pipeline   *orchestrator.Pipeline
	channel    *channel.Handler
	logger     *zap.Logger
	router     *mux.Router
}

// New wires the HTTP server. pipeline may be nil when no providers are
// configured; the message endpoint then reports the capability as absent.
func New(
	db *store.Store,
	workspaces *workspace.Manager,
	runner *process.Runner,
	terminals *process.Manager,
	contexts *contextstore.Registry,
	pipeline *orchestrator.Pipeline,
	logger *zap.Logger,
) *Server {
	s := &Server{
		db:         db,
		workspaces: workspaces,
		runner:     runner,
		terminals:  terminals,
		contexts:   contexts,
		pipeline:   pipeline,
		channel:    channel.NewHandler(terminals, workspaces, contexts, logger),
		logger:     logger,
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the fully-wired HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.metricsMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/end", s.handleEndSession).Methods(http.MethodPost)

	api.HandleFunc("/execute/{session}", s.handleExecute).Methods(http.MethodPost)

	api.HandleFunc("/files", s.handleFileTree).Methods(http.MethodGet)
	api.HandleFunc("/files/{session}/content", s.handleReadFile).Methods(http.MethodGet)
	api.HandleFunc("/files/{session}/content", s.handleWriteFile).Methods(http.MethodPost)
	api.HandleFunc("/files/{session}/content", s.handleDeleteFile).Methods(http.MethodDelete)

	api.HandleFunc("/env/{session}", s.handleListEnv).Methods(http.MethodGet)
	api.HandleFunc("/env/{session}", s.handleSetEnv).Methods(http.MethodPost)
	api.HandleFunc("/env/{session}/{key}", s.handleDeleteEnv).Methods(http.MethodDelete)

	api.HandleFunc("/message", s.handleMessage).Methods(http.MethodPost)
	api.HandleFunc("/poll", s.handlePoll).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/contexts/{id}/pause", s.handlePauseContext).Methods(http.MethodPost)
	api.HandleFunc("/contexts/{id}/resume", s.handleResumeContext).Methods(http.MethodPost)

	api.Handle("/ws", s.channel)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
