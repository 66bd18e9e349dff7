package contextstore

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/innovatehub-ph/runtime-sandbox/pkg/sandbox/errors"
)

func newTestRegistry() *Registry {
	return NewRegistry(zap.NewNop())
}

func TestCreate_Defaults(t *testing.T) {
	r := newTestRegistry()

	ctx := r.Create("", TypeInteractive, nil)
	require.NotEmpty(t, ctx.ID)
	require.Equal(t, ctx.ID, ctx.Name)
	require.Equal(t, 50, ctx.Config().MaxIterations)

	// A fresh context polls empty with paused=false.
	res, err := r.PollSince(ctx.ID, 0)
	require.NoError(t, err)
	require.Empty(t, res.Logs)
	require.Equal(t, 0, res.TotalCount)
	require.False(t, res.Paused)
	require.False(t, res.Streaming)
}

func TestPollSince_Idempotent(t *testing.T) {
	r := newTestRegistry()
	ctx := r.Create("test", TypeInteractive, nil)

	for i := 0; i < 5; i++ {
		ctx.AppendLog(LogEntry{Category: "info", Heading: "entry " + strconv.Itoa(i)})
	}

	first, err := r.PollSince(ctx.ID, 2)
	require.NoError(t, err)
	second, err := r.PollSince(ctx.ID, 2)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, first.Logs, 3)
	require.Equal(t, 5, first.TotalCount)

	// Polling at the returned total yields an empty suffix.
	tail, err := r.PollSince(ctx.ID, first.TotalCount)
	require.NoError(t, err)
	require.Empty(t, tail.Logs)
	require.Equal(t, 5, tail.TotalCount)
}

func TestPollSince_UnknownContext(t *testing.T) {
	r := newTestRegistry()

	_, err := r.PollSince("missing", 0)
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeContextNotFound))
}

func TestAppendLog_OrderPreserved(t *testing.T) {
	r := newTestRegistry()
	ctx := r.Create("test", TypeInteractive, nil)

	for i := 0; i < 10; i++ {
		ctx.AppendLog(LogEntry{Heading: "h" + strconv.Itoa(i)})
	}

	res := ctx.PollSince(0)
	require.Len(t, res.Logs, 10)
	for i, entry := range res.Logs {
		require.Equal(t, "h"+strconv.Itoa(i), entry.Heading)
	}
}

func TestAppendLog_Concurrent(t *testing.T) {
	r := newTestRegistry()
	ctx := r.Create("test", TypeInteractive, nil)

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				ctx.AppendLog(LogEntry{Heading: "w" + strconv.Itoa(w) + "-" + strconv.Itoa(i)})
			}
		}(w)
	}
	wg.Wait()

	res := ctx.PollSince(0)
	require.Len(t, res.Logs, writers*perWriter)

	// Every entry is present exactly once at a stable index.
	seen := make(map[string]bool)
	for _, entry := range res.Logs {
		require.False(t, seen[entry.Heading], "duplicate entry %s", entry.Heading)
		seen[entry.Heading] = true
	}
}

func TestList_SortedByLastMessage(t *testing.T) {
	r := newTestRegistry()

	older := r.Create("older", TypeInteractive, nil)
	time.Sleep(5 * time.Millisecond)
	_ = r.Create("newer", TypeScheduledTask, nil)
	time.Sleep(5 * time.Millisecond)
	older.AppendMessage(Message{Role: RoleUser, Content: "bump"})

	list := r.List()
	require.Len(t, list, 2)
	require.Equal(t, "older", list[0].Name)
	require.Equal(t, "newer", list[1].Name)
}

func TestRemove(t *testing.T) {
	r := newTestRegistry()
	ctx := r.Create("test", TypeInteractive, nil)

	require.True(t, r.Remove(ctx.ID))
	require.False(t, r.Remove(ctx.ID))
	require.Nil(t, r.Get(ctx.ID))
}

func TestStreamingAndPausedFlags(t *testing.T) {
	r := newTestRegistry()
	ctx := r.Create("test", TypeInteractive, nil)

	ctx.SetStreaming(true)
	ctx.SetPaused(true)

	res := ctx.PollSince(0)
	require.True(t, res.Streaming)
	require.True(t, res.Paused)

	ctx.SetStreaming(false)
	res = ctx.PollSince(0)
	require.False(t, res.Streaming)
	require.True(t, res.Paused)
}

func TestRegistryAppendHelpers(t *testing.T) {
	r := newTestRegistry()
	ctx := r.Create("test", TypeInteractive, nil)

	require.NoError(t, r.AppendMessage(ctx.ID, Message{Role: RoleUser, Content: "hello"}))
	require.NoError(t, r.AppendLog(ctx.ID, LogEntry{Heading: "noted"}))

	require.Len(t, ctx.Messages(), 1)
	require.Equal(t, 1, ctx.Summary().Logs)

	err := r.AppendMessage("missing", Message{})
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeContextNotFound))
	err = r.AppendLog("missing", LogEntry{})
	require.True(t, apperrors.HasCode(err, apperrors.ErrCodeContextNotFound))
}
