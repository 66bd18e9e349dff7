// Package process implements the process runtime: one-shot command execution
// with full output capture, and interactive terminals that emulate a shell
// one command at a time on top of the one-shot path.
package process

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/innovatehub-ph/runtime-sandbox/internal/store"
	apperrors "github.com/innovatehub-ph/runtime-sandbox/pkg/sandbox/errors"
)

// Result holds the outcome of a one-shot command execution. A non-zero exit
// code is a normal completion, not an error.
type Result struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
}

// Combined returns stdout and stderr joined the way a terminal would show
// them.
func (r *Result) Combined() string {
	out := r.Stdout
	if r.Stderr != "" {
		if out != "" {
			out += "\n"
		}
		out += r.Stderr
	}
	return out
}

// Runner executes one-shot commands and records a ProcessRecord for every
// spawn, successful or not.
type Runner struct {
	db             *store.Store
	logger         *zap.Logger
	commandTimeout time.Duration
	maxOutputBytes int
}

// NewRunner creates a runner. commandTimeout bounds each execution; there is
// no way to disable it.
func NewRunner(db *store.Store, logger *zap.Logger, commandTimeout time.Duration, maxOutputBytes int) *Runner {
	return &Runner{
		db:             db,
		logger:         logger,
		commandTimeout: commandTimeout,
		maxOutputBytes: maxOutputBytes,
	}
}

// Run executes command as a shell invocation in workdir and waits for exit.
// Spawn failures (unknown binary, bad workdir) return a SPAWN_FAILED error;
// non-zero exits return a normal Result. Both record a ProcessRecord.
func (r *Runner) Run(ctx context.Context, sessionID, command, workdir string, env []string) (*Result, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "bash", "-c", command)
	cmd.Dir = workdir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdout, limit: r.maxOutputBytes}
	cmd.Stderr = &limitedWriter{w: &stderr, limit: r.maxOutputBytes}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		r.record(sessionID, 0, command, "failed", started)
		return nil, apperrors.New(apperrors.ErrCodeSpawnFailed, "failed to start process", err)
	}

	pid := cmd.Process.Pid
	err := cmd.Wait()
	duration := time.Since(started)

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
		Duration: duration,
	}
	status := "completed"

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			status = "failed"
		} else {
			// Killed by timeout or signal without an exit status.
			result.ExitCode = -1
			status = "failed"
		}
	}

	r.record(sessionID, pid, command, status, started)
	r.logger.Debug("command finished",
		zap.String("session", sessionID),
		zap.String("command", command),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", duration))

	return result, nil
}

func (r *Runner) record(sessionID string, pid int, command, status string, started time.Time) {
	ended := time.Now()
	rec := &store.ProcessRecord{
		SessionID: sessionID,
		PID:       pid,
		Command:   command,
		Status:    status,
		StartedAt: started,
		EndedAt:   &ended,
	}
	if err := r.db.RecordProcess(rec); err != nil {
		r.logger.Warn("failed to record process", zap.String("session", sessionID), zap.Error(err))
	}
}

// limitedWriter discards bytes past limit. Oversized output is an accepted
// limitation; the head of the stream is what callers see.
type limitedWriter struct {
	w     io.Writer
	limit int
	n     int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	remaining := l.limit - l.n
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		if _, err := l.w.Write(p[:remaining]); err != nil {
			return 0, err
		}
		l.n = l.limit
		return len(p), nil
	}
	n, err := l.w.Write(p)
	l.n += n
	return n, err
}
