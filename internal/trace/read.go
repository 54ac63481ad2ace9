package trace

import (
	"context"
	"fmt"

	"github.com/weft-hdl/weft/internal/interp"
	"github.com/weft-hdl/weft/internal/ir"
)

// Run is the metadata row of one recorded simulation.
type Run struct {
	ID        string
	Package   string
	StartedAt string
	Note      string
}

// ListRuns returns all recorded runs, newest first. UUIDv7 ids sort by
// creation time, so ordering by id is ordering by time.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, package, started_at, note
		FROM runs
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Package, &r.StartedAt, &r.Note); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Events returns every event of one run in arrival order.
func (s *Store) Events(ctx context.Context, runID string) ([]interp.TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, tick, kind, channel, proc, value, width
		FROM events
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var events []interp.TraceEvent
	for rows.Next() {
		var ev interp.TraceEvent
		var bits int64
		var width int
		if err := rows.Scan(&ev.Seq, &ev.Tick, &ev.Kind, &ev.Channel, &ev.Proc, &bits, &width); err != nil {
			return nil, fmt.Errorf("read events: %w", err)
		}
		ev.Value = ir.Value{Bits: uint64(bits), Width: width}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}
