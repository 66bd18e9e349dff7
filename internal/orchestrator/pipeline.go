package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/innovatehub-ph/runtime-sandbox/internal/config"
	"github.com/innovatehub-ph/runtime-sandbox/internal/contextstore"
	"github.com/innovatehub-ph/runtime-sandbox/internal/llm"
	"github.com/innovatehub-ph/runtime-sandbox/internal/process"
	"github.com/innovatehub-ph/runtime-sandbox/internal/store"
	"github.com/innovatehub-ph/runtime-sandbox/internal/workspace"
)

// Request is one user turn entering the pipeline.
type Request struct {
	SessionID string
	UserID    string
	ContextID string // optional; when set, turns are mirrored into the context log
	Text      string
	Mode      string
}

// Insights describes what the pipeline recalled and decided for a turn.
// It is advisory metadata for the client, never an instruction.
type Insights struct {
	MemoriesUsed   int     `json:"memoriesUsed"`
	KnowledgeUsed  int     `json:"knowledgeUsed"`
	RecentTurns    int     `json:"recentTurns"`
	SuggestedMode  string  `json:"suggestedMode,omitempty"`
	ModeConfidence float64 `json:"modeConfidence,omitempty"`
}

// Result is the pipeline's answer for one turn.
type Result struct {
	Content      string   `json:"content"`
	Provider     string   `json:"provider,omitempty"`
	UsedFallback bool     `json:"usedFallback,omitempty"`
	DirectOp     bool     `json:"directOp,omitempty"`
	Mode         string   `json:"mode"`
	Insights     Insights `json:"insights"`
}

// Pipeline runs the full turn sequence: recall, direct-operation routing,
// prompt assembly, provider completion with fallback, persistence, and
// background memory extraction.
type Pipeline struct {
	db         *store.Store
	workspaces *workspace.Manager
	runner     *process.Runner
	contexts   *contextstore.Registry
	chain      *llm.Chain
	extractor  *Extractor
	loader     *memoryLoader
	logger     *zap.Logger
}

// NewPipeline wires a pipeline from its collaborators. extractor may be nil
// to disable background memory extraction.
func NewPipeline(db *store.Store, workspaces *workspace.Manager, runner *process.Runner, contexts *contextstore.Registry, chain *llm.Chain, extractor *Extractor, memCfg config.MemoryConfig, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		db:         db,
		workspaces: workspaces,
		runner:     runner,
		contexts:   contexts,
		chain:      chain,
		extractor:  extractor,
		loader: &memoryLoader{
			db:                  db,
			recentWindow:        memCfg.RecentWindow,
			importanceThreshold: memCfg.ImportanceThreshold,
			logger:              logger,
		},
		logger: logger,
	}
}

// Process runs one turn end to end. It returns an error only when the turn
// truly cannot be answered (all providers failed on the model path); every
// auxiliary failure degrades with a warning instead.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	mode := GetMode(req.Mode)

	// The context's streaming flag tells pollers a response is being
	// produced; it must flip back off however the turn ends.
	var logCtx *contextstore.Context
	if req.ContextID != "" && p.contexts != nil {
		logCtx = p.contexts.Get(req.ContextID)
	}
	if logCtx != nil {
		logCtx.SetStreaming(true)
		defer logCtx.SetStreaming(false)
	}

	mc := p.loader.load(ctx, req.SessionID, req.UserID)

	p.persistTurn(req, "user", req.Text, mode.Name)
	p.appendContext(req.ContextID, contextstore.RoleUser, req.Text)

	suggested, confidence := ClassifyIntent(req.Text)
	insights := Insights{
		MemoriesUsed:  len(mc.Memories),
		KnowledgeUsed: len(mc.Knowledge),
		RecentTurns:   len(mc.Recent),
	}
	// A suggestion is surfaced only above the switch threshold and only when
	// it would actually change the mode. The client decides; the pipeline
	// keeps answering in the requested mode either way.
	if confidence >= ModeSwitchConfidence && suggested != mode.Name {
		insights.SuggestedMode = suggested
		insights.ModeConfidence = confidence
		p.appendLog(logCtx, "mode", "mode switch suggested",
			fmt.Sprintf("%s (confidence %.2f)", suggested, confidence))
	}

	if op := classifyDirect(req.Text); op.kind != opNone {
		content := p.runDirect(ctx, req, op)
		p.persistTurn(req, "assistant", content, mode.Name)
		p.appendContext(req.ContextID, contextstore.RoleTool, content)
		p.appendLog(logCtx, "tool", directHeading(op.kind), op.arg)
		return &Result{
			Content:  content,
			DirectOp: true,
			Mode:     mode.Name,
			Insights: insights,
		}, nil
	}

	systemPrompt := BuildSystemPrompt(mode, mc)
	completion, err := p.chain.Complete(ctx, systemPrompt, req.Text)
	if err != nil {
		p.appendContext(req.ContextID, contextstore.RoleError, "completion failed: "+err.Error())
		return nil, err
	}

	p.persistTurn(req, "assistant", completion.Content, mode.Name)
	p.appendContext(req.ContextID, contextstore.RoleAgent, completion.Content)
	if completion.UsedFallback {
		p.appendLog(logCtx, "provider", "fallback provider used", completion.Provider)
	}
	p.appendLog(logCtx, "turn", "response produced", completion.Provider)

	// Extraction is an autonomous step; a paused context has asked the
	// agent not to initiate more of those.
	if p.extractor != nil && p.shouldExtract(logCtx) {
		p.extractor.ExtractAsync(req.UserID, req.Text, completion.Content)
	}

	return &Result{
		Content:      completion.Content,
		Provider:     completion.Provider,
		UsedFallback: completion.UsedFallback,
		Mode:         mode.Name,
		Insights:     insights,
	}, nil
}

// runDirect executes a classified direct operation. Its failures are
// reported as answer text; the direct path never errors the turn.
func (p *Pipeline) runDirect(ctx context.Context, req Request, op directOp) string {
	ws, err := p.workspaces.Ensure(req.SessionID)
	if err != nil {
		return "workspace unavailable: " + err.Error()
	}

	switch op.kind {
	case opRunCommand:
		res, err := p.runner.Run(ctx, req.SessionID, op.arg, ws.Dir(), nil)
		if err != nil {
			return "command failed to start: " + err.Error()
		}
		out := res.Combined()
		if out == "" {
			out = "(no output)"
		}
		if res.ExitCode != 0 {
			out += fmt.Sprintf("\n(exit code %d)", res.ExitCode)
		}
		return out

	case opReadFile:
		data, err := ws.Read(op.arg)
		if err != nil {
			return "could not read " + op.arg + ": " + err.Error()
		}
		return string(data)

	case opListFiles:
		tree, err := ws.List()
		if err != nil {
			return "could not list workspace: " + err.Error()
		}
		var b strings.Builder
		renderTree(&b, tree, 0)
		if b.Len() == 0 {
			return "(workspace is empty)"
		}
		return b.String()
	}
	return ""
}

func renderTree(b *strings.Builder, n *workspace.Node, depth int) {
	if depth > 0 {
		b.WriteString(strings.Repeat("  ", depth-1))
		b.WriteString(n.Name)
		if n.Type == workspace.NodeDirectory {
			b.WriteString("/")
		}
		b.WriteString("\n")
	}
	for _, child := range n.Children {
		renderTree(b, child, depth+1)
	}
}

func (p *Pipeline) persistTurn(req Request, role, content, mode string) {
	err := p.db.SaveConversation(&store.Conversation{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Role:      role,
		Content:   content,
		Mode:      mode,
	})
	if err != nil {
		p.logger.Warn("failed to persist conversation turn",
			zap.String("session", req.SessionID), zap.String("role", role), zap.Error(err))
	}
}

func (p *Pipeline) appendLog(c *contextstore.Context, category, heading, body string) {
	if c == nil {
		return
	}
	c.AppendLog(contextstore.LogEntry{Category: category, Heading: heading, Body: body})
}

func (p *Pipeline) shouldExtract(c *contextstore.Context) bool {
	return c == nil || !c.Paused()
}

func directHeading(kind directOpKind) string {
	switch kind {
	case opRunCommand:
		return "command executed"
	case opReadFile:
		return "file read"
	case opListFiles:
		return "workspace listed"
	}
	return "tool executed"
}

func (p *Pipeline) appendContext(contextID string, role contextstore.Role, content string) {
	if contextID == "" || p.contexts == nil {
		return
	}
	if err := p.contexts.AppendMessage(contextID, contextstore.Message{Role: role, Content: content}); err != nil {
		p.logger.Warn("failed to mirror turn into context", zap.String("context", contextID), zap.Error(err))
	}
}
