package process

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/innovatehub-ph/runtime-sandbox/internal/store"
	apperrors "github.com/innovatehub-ph/runtime-sandbox/pkg/sandbox/errors"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	runner := NewRunner(db, zap.NewNop(), 10*time.Second, 1<<20)
	return NewManager(runner, zap.NewNop())
}

func TestTerminal_WriteRunsCommand(t *testing.T) {
	m := newTestManager(t)
	m.Create("term-1", "sess-1", t.TempDir())

	out, err := m.Write(context.Background(), "term-1", "echo hi\n")
	require.NoError(t, err)
	require.Equal(t, "hi\n", out)

	history := m.History("term-1")
	require.Len(t, history, 1)
	require.Equal(t, "echo hi", history[0].Input)
	require.Equal(t, 0, history[0].ExitCode)
}

func TestTerminal_CombinesStderr(t *testing.T) {
	m := newTestManager(t)
	m.Create("term-1", "sess-1", t.TempDir())

	out, err := m.Write(context.Background(), "term-1", "echo out; echo err >&2")
	require.NoError(t, err)
	require.Contains(t, out, "out")
	require.Contains(t, out, "err")
}

func TestTerminal_NoShellStateBetweenWrites(t *testing.T) {
	m := newTestManager(t)
	dir := t.TempDir()
	m.Create("term-1", "sess-1", dir)

	_, err := m.Write(context.Background(), "term-1", "cd /tmp")
	require.NoError(t, err)

	// Each write is an independent shell; the cd above did not stick.
	out, err := m.Write(context.Background(), "term-1", "pwd")
	require.NoError(t, err)
	require.Contains(t, out, dir)
}

func TestTerminal_WriteUnknown(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Write(context.Background(), "nope", "echo hi")
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestTerminal_KillIdempotent(t *testing.T) {
	m := newTestManager(t)
	m.Create("term-1", "sess-1", t.TempDir())
	m.Create("term-2", "sess-1", t.TempDir())

	m.Kill("term-1")
	m.Kill("term-1") // already dead
	m.Kill("unknown")

	require.Nil(t, m.Get("term-1"))
	require.NotNil(t, m.Get("term-2"))

	// The surviving terminal still works.
	out, err := m.Write(context.Background(), "term-2", "echo still here")
	require.NoError(t, err)
	require.Equal(t, "still here\n", out)
}

func TestTerminal_KillCancelsInFlight(t *testing.T) {
	m := newTestManager(t)
	m.Create("term-1", "sess-1", t.TempDir())

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Output is irrelevant; we only need the command to stop.
		_, _ = m.Write(context.Background(), "term-1", "sleep 30")
	}()

	// Give the command a moment to start, then kill the terminal.
	time.Sleep(200 * time.Millisecond)
	m.Kill("term-1")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight command was not cancelled by Kill")
	}
}

func TestTerminal_SerializedWrites(t *testing.T) {
	m := newTestManager(t)
	dir := t.TempDir()
	m.Create("term-1", "sess-1", dir)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := m.Write(context.Background(), "term-1", "echo line-"+strconv.Itoa(n)+" >> log.txt")
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// All five commands ran; none was lost to interleaving.
	history := m.History("term-1")
	require.Len(t, history, 5)
}

func TestTerminal_ResizeAndClear(t *testing.T) {
	m := newTestManager(t)
	m.Create("term-1", "sess-1", t.TempDir())

	m.Resize("term-1", 120, 40)
	cols, rows := m.Size("term-1")
	require.Equal(t, 120, cols)
	require.Equal(t, 40, rows)

	_, err := m.Write(context.Background(), "term-1", "echo hi")
	require.NoError(t, err)
	require.Len(t, m.History("term-1"), 1)

	m.Clear("term-1")
	require.Empty(t, m.History("term-1"))

	// Resizing or clearing an unknown terminal is a no-op.
	m.Resize("nope", 1, 1)
	m.Clear("nope")
}

func TestTerminal_CreateExistingReturnsSame(t *testing.T) {
	m := newTestManager(t)
	a := m.Create("term-1", "sess-1", t.TempDir())
	b := m.Create("term-1", "sess-1", t.TempDir())
	require.Same(t, a, b)
}
