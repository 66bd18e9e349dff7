package process

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/innovatehub-ph/runtime-sandbox/internal/store"
)

func newTestRunner(t *testing.T) (*Runner, *store.Store) {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	return NewRunner(db, zap.NewNop(), 10*time.Second, 1<<20), db
}

func TestRun_Success(t *testing.T) {
	r, db := newTestRunner(t)

	result, err := r.Run(context.Background(), "sess-1", "echo hello", t.TempDir(), nil)
	require.NoError(t, err)
	require.Equal(t, "hello\n", result.Stdout)
	require.Equal(t, "", result.Stderr)
	require.Equal(t, 0, result.ExitCode)

	recs, err := db.ListProcesses("sess-1", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "completed", recs[0].Status)
	require.NotZero(t, recs[0].PID)
}

func TestRun_NonZeroExit(t *testing.T) {
	r, db := newTestRunner(t)

	// "false" exits 1 with no output; that is a normal completion.
	result, err := r.Run(context.Background(), "sess-1", "false", t.TempDir(), nil)
	require.NoError(t, err)
	require.Equal(t, "", result.Stdout)
	require.Equal(t, "", result.Stderr)
	require.NotEqual(t, 0, result.ExitCode)

	recs, err := db.ListProcesses("sess-1", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "failed", recs[0].Status)
}

func TestRun_Stderr(t *testing.T) {
	r, _ := newTestRunner(t)

	result, err := r.Run(context.Background(), "sess-1", "echo oops >&2", t.TempDir(), nil)
	require.NoError(t, err)
	require.Equal(t, "oops\n", result.Stderr)
	require.Equal(t, 0, result.ExitCode)
	require.Equal(t, "oops\n", result.Combined())
}

func TestRun_SpawnError(t *testing.T) {
	r, db := newTestRunner(t)

	// A nonexistent working directory fails at spawn, before the shell runs.
	_, err := r.Run(context.Background(), "sess-1", "echo hi", "/nonexistent/dir", nil)
	require.Error(t, err)

	recs, err := db.ListProcesses("sess-1", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "failed", recs[0].Status)
}

func TestRun_Timeout(t *testing.T) {
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	r := NewRunner(db, zap.NewNop(), 200*time.Millisecond, 1<<20)

	start := time.Now()
	result, err := r.Run(context.Background(), "sess-1", "sleep 5", t.TempDir(), nil)
	require.NoError(t, err)
	require.NotEqual(t, 0, result.ExitCode)
	require.Less(t, time.Since(start), 3*time.Second)
}

func TestRun_OutputCap(t *testing.T) {
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	r := NewRunner(db, zap.NewNop(), 10*time.Second, 16)

	result, err := r.Run(context.Background(), "sess-1", "printf 'aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa'", t.TempDir(), nil)
	require.NoError(t, err)
	require.Len(t, result.Stdout, 16)
	require.Equal(t, 0, result.ExitCode)
}

func TestCombined(t *testing.T) {
	r := &Result{Stdout: "out", Stderr: "err"}
	require.Equal(t, "out\nerr", r.Combined())

	r = &Result{Stdout: "out"}
	require.Equal(t, "out", r.Combined())

	r = &Result{Stderr: "err"}
	require.Equal(t, "err", r.Combined())
}
