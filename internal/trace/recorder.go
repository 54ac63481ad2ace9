package trace

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/weft-hdl/weft/internal/interp"
)

// Recorder buffers trace events for one run and writes them to the store in
// a single transaction on Flush. Buffering keeps the runtime's hot path free
// of database work; Record itself never fails.
type Recorder struct {
	store *Store
	runID string
	buf   []interp.TraceEvent
}

// BeginRun registers a new run row and returns a recorder feeding it.
func (s *Store) BeginRun(ctx context.Context, pkgName, note string) (*Recorder, error) {
	id := uuid.Must(uuid.NewV7()).String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, package, started_at, note)
		VALUES (?, ?, ?, ?)
	`, id, pkgName, time.Now().UTC().Format(time.RFC3339Nano), note)
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	return &Recorder{store: s, runID: id}, nil
}

// RunID returns the id of the run this recorder feeds.
func (r *Recorder) RunID() string {
	return r.runID
}

// Record implements interp.TraceSink.
func (r *Recorder) Record(ev interp.TraceEvent) {
	r.buf = append(r.buf, ev)
}

// Flush writes all buffered events in one transaction and clears the
// buffer. Call it after the run completes, including failed runs, so the
// events leading up to a violation are kept.
func (r *Recorder) Flush(ctx context.Context) error {
	if len(r.buf) == 0 {
		return nil
	}
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("flush events: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (run_id, seq, tick, kind, channel, proc, value, width)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("flush events: %w", err)
	}
	defer stmt.Close()

	for _, ev := range r.buf {
		if _, err := stmt.ExecContext(ctx,
			r.runID, ev.Seq, ev.Tick, ev.Kind, ev.Channel, ev.Proc,
			int64(ev.Value.Bits), ev.Value.Width,
		); err != nil {
			return fmt.Errorf("flush events: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("flush events: %w", err)
	}
	r.buf = r.buf[:0]
	return nil
}
