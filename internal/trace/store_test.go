package trace

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-hdl/weft/internal/interp"
	"github.com/weft-hdl/weft/internal/ir"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestRecorder_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.BeginRun(ctx, "test_pkg", "round trip")
	require.NoError(t, err)
	require.NotEmpty(t, rec.RunID())

	want := []interp.TraceEvent{
		{Seq: 1, Tick: 1, Kind: "receive", Channel: "in", Proc: "main", Value: ir.UBits(5, 32)},
		{Seq: 2, Tick: 1, Kind: "send", Channel: "out", Proc: "main", Value: ir.UBits(5, 32)},
		{Seq: 3, Tick: 2, Kind: "violation", Channel: "out", Proc: "out__adapter"},
	}
	for _, ev := range want {
		rec.Record(ev)
	}
	require.NoError(t, rec.Flush(ctx))

	got, err := s.Events(ctx, rec.RunID())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecorder_FlushClearsBuffer(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.BeginRun(ctx, "test_pkg", "")
	require.NoError(t, err)
	rec.Record(interp.TraceEvent{Seq: 1, Tick: 1, Kind: "send", Channel: "out", Proc: "main"})
	require.NoError(t, rec.Flush(ctx))
	require.NoError(t, rec.Flush(ctx))

	got, err := s.Events(ctx, rec.RunID())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestListRuns_NewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.BeginRun(ctx, "pkg_a", "older")
	require.NoError(t, err)
	second, err := s.BeginRun(ctx, "pkg_b", "newer")
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.RunID(), runs[0].ID)
	assert.Equal(t, first.RunID(), runs[1].ID)
	assert.Equal(t, "pkg_b", runs[0].Package)
	assert.Equal(t, "newer", runs[0].Note)
	assert.NotEmpty(t, runs[0].StartedAt)
}

func TestEvents_UnknownRunIsEmpty(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Events(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEvents_IsolatedPerRun(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	recA, err := s.BeginRun(ctx, "pkg", "a")
	require.NoError(t, err)
	recB, err := s.BeginRun(ctx, "pkg", "b")
	require.NoError(t, err)

	recA.Record(interp.TraceEvent{Seq: 1, Tick: 1, Kind: "send", Channel: "out", Proc: "main"})
	recB.Record(interp.TraceEvent{Seq: 1, Tick: 1, Kind: "receive", Channel: "in", Proc: "main"})
	recB.Record(interp.TraceEvent{Seq: 2, Tick: 1, Kind: "send", Channel: "out", Proc: "main"})
	require.NoError(t, recA.Flush(ctx))
	require.NoError(t, recB.Flush(ctx))

	gotA, err := s.Events(ctx, recA.RunID())
	require.NoError(t, err)
	gotB, err := s.Events(ctx, recB.RunID())
	require.NoError(t, err)
	assert.Len(t, gotA, 1)
	assert.Len(t, gotB, 2)
	assert.Equal(t, "send", gotA[0].Kind)
}
