package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/innovatehub-ph/runtime-sandbox/internal/contextstore"
	"github.com/innovatehub-ph/runtime-sandbox/internal/process"
	"github.com/innovatehub-ph/runtime-sandbox/internal/workspace"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The API carries its own session scoping; browser origin checks are
	// handled by the fronting proxy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler accepts websocket connections and runs one status channel per
// connection. A connection is bound to exactly one session; terminals
// created over it are owned by it and are killed when the connection goes
// away, however it goes away. When a context id is bound too, terminal
// activity is narrated into that context's log for pollers.
type Handler struct {
	terminals  *process.Manager
	workspaces *workspace.Manager
	contexts   *contextstore.Registry
	logger     *zap.Logger
}

// NewHandler creates a status channel handler. contexts may be nil; the
// channel then skips event narration.
func NewHandler(terminals *process.Manager, workspaces *workspace.Manager, contexts *contextstore.Registry, logger *zap.Logger) *Handler {
	return &Handler{terminals: terminals, workspaces: workspaces, contexts: contexts, logger: logger}
}

// conn is the per-connection state. writeMu serializes writes: the read
// loop and the monitor goroutine both send.
type conn struct {
	ws        *websocket.Conn
	contextID string
	writeMu   sync.Mutex

	mu         sync.Mutex
	sessionID  string
	owned      map[string]bool
	monitoring bool

	done chan struct{}
}

func (c *conn) send(env *Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.ws.WriteJSON(env)
}

func (c *conn) own(terminalID string) {
	c.mu.Lock()
	c.owned[terminalID] = true
	c.mu.Unlock()
}

func (c *conn) disown(terminalID string) {
	c.mu.Lock()
	delete(c.owned, terminalID)
	c.mu.Unlock()
}

// session returns the bound session id. A connection that was not dialed
// with ?sessionId= binds to the first terminal-create's session instead.
func (c *conn) session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *conn) bindSession(id string) {
	c.mu.Lock()
	if c.sessionID == "" {
		c.sessionID = id
	}
	c.mu.Unlock()
}

func (c *conn) ownedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.owned))
	for id := range c.owned {
		ids = append(ids, id)
	}
	return ids
}

// ServeHTTP upgrades the request and runs the channel until the peer
// disconnects or the read loop fails.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &conn{
		ws:        ws,
		sessionID: r.URL.Query().Get("sessionId"),
		contextID: r.URL.Query().Get("contextId"),
		owned:     make(map[string]bool),
		done:      make(chan struct{}),
	}
	defer h.cleanup(c)

	if err := c.send(&Envelope{
		Type:      MsgConnectionEstablished,
		SessionID: c.session(),
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return
	}

	for {
		var env Envelope
		if err := ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		// One bad message never takes the channel down.
		if err := h.handle(r.Context(), c, &env); err != nil {
			if sendErr := c.send(&Envelope{Type: MsgError, TerminalID: env.TerminalID, Error: err.Error()}); sendErr != nil {
				return
			}
		}
	}
}

// cleanup runs unconditionally when a connection ends: the monitor stops
// and every terminal the connection owns is killed. Kill is idempotent, so
// racing an explicit terminal-kill is harmless.
func (h *Handler) cleanup(c *conn) {
	close(c.done)

	var errs error
	for _, id := range c.ownedIDs() {
		h.terminals.Kill(id)
	}
	if err := c.ws.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if errs != nil {
		h.logger.Debug("channel cleanup", zap.Error(errs))
	}
}

func (h *Handler) handle(ctx context.Context, c *conn, env *Envelope) error {
	switch env.Type {
	case MsgTerminalCreate:
		return h.handleCreate(c, env)
	case MsgTerminalInput:
		return h.handleInput(ctx, c, env)
	case MsgTerminalResize:
		h.terminals.Resize(env.TerminalID, env.Cols, env.Rows)
		return nil
	case MsgTerminalClear:
		h.terminals.Clear(env.TerminalID)
		return c.send(&Envelope{Type: MsgTerminalCleared, TerminalID: env.TerminalID})
	case MsgTerminalKill:
		h.terminals.Kill(env.TerminalID)
		c.disown(env.TerminalID)
		h.logEvent(c, "terminal killed", env.TerminalID)
		return c.send(&Envelope{Type: MsgTerminalKilled, TerminalID: env.TerminalID})
	case MsgMonitorSubscribe:
		h.startMonitor(c)
		return nil
	default:
		// Unknown message types are ignored so old clients keep working
		// against newer servers.
		return nil
	}
}

func (h *Handler) handleCreate(c *conn, env *Envelope) error {
	// The connection's bound session always wins; a per-message session id
	// only binds a connection that was dialed without one.
	c.bindSession(env.SessionID)
	sessionID := c.session()
	if sessionID == "" {
		return c.send(&Envelope{Type: MsgError, Error: "sessionId is required"})
	}
	id := env.TerminalID
	if id == "" {
		id = uuid.NewString()
	}

	workdir := ""
	if ws, err := h.workspaces.Ensure(sessionID); err == nil {
		workdir = ws.Dir()
	} else {
		h.logger.Warn("terminal created without workspace",
			zap.String("session", sessionID), zap.Error(err))
	}

	h.terminals.Create(id, sessionID, workdir)
	c.own(id)
	h.logEvent(c, "terminal created", id)
	return c.send(&Envelope{Type: MsgTerminalCreated, TerminalID: id, SessionID: sessionID})
}

func (h *Handler) handleInput(ctx context.Context, c *conn, env *Envelope) error {
	output, err := h.terminals.Write(ctx, env.TerminalID, env.Data)
	if err != nil {
		return err
	}
	h.logEvent(c, "command executed", env.Data)
	return c.send(&Envelope{Type: MsgTerminalOutput, TerminalID: env.TerminalID, Data: output})
}

// logEvent narrates a terminal event into the connection's bound context so
// polling clients can reconstruct what happened on the channel.
func (h *Handler) logEvent(c *conn, heading, body string) {
	if c.contextID == "" || h.contexts == nil {
		return
	}
	err := h.contexts.AppendLog(c.contextID, contextstore.LogEntry{
		Category: "terminal",
		Heading:  heading,
		Body:     body,
	})
	if err != nil {
		h.logger.Debug("failed to record channel event",
			zap.String("context", c.contextID), zap.Error(err))
	}
}

// startMonitor begins periodic resource snapshots for the connection. At
// most one monitor runs per connection; repeat subscribes are no-ops. The
// first snapshot is sent immediately.
func (h *Handler) startMonitor(c *conn) {
	c.mu.Lock()
	if c.monitoring {
		c.mu.Unlock()
		return
	}
	c.monitoring = true
	c.mu.Unlock()

	go func() {
		if err := h.sendSnapshot(c); err != nil {
			return
		}
		ticker := time.NewTicker(snapshotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-c.done:
				return
			case <-ticker.C:
				if err := h.sendSnapshot(c); err != nil {
					return
				}
			}
		}
	}()
}

func (h *Handler) sendSnapshot(c *conn) error {
	snap := takeSnapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.send(&Envelope{Type: MsgResourceSnapshot, Payload: data})
}
