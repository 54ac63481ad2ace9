// Package interp executes a legalized proc network tick by tick. Scheduling
// is single-threaded and cooperative: processes are logically concurrent but
// physically interleaved by one deterministic tick loop, so channel queues
// need no locking from the loop itself. The only suspension points are
// channel sends and receives.
package interp

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/weft-hdl/weft/internal/ir"
)

type runState int

const (
	stateIdle runState = iota
	stateTicking
	stateBlocked
	stateCompleted
)

// Runtime drives one proc network. External harness access to queues
// (writing inputs, reading outputs) must happen between ticks, never while a
// tick is in progress.
//
// A runtime never mutates graph topology; re-running a fresh runtime over
// the same legalized package behaves identically.
type Runtime struct {
	pkg   *ir.Package
	clock *Clock
	qm    *QueueManager
	execs []executor

	tick  int64
	state runState
	sink  TraceSink

	// transfers counts queue transfers per channel within the current
	// tick, for the proven-exclusivity guard.
	transfers map[int64]int

	lastTickProgress bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithSink wires a trace sink that receives every channel transfer.
func WithSink(s TraceSink) Option {
	return func(rt *Runtime) {
		rt.sink = s
	}
}

// New builds a runtime over a validated (typically legalized) package.
func New(pkg *ir.Package, opts ...Option) (*Runtime, error) {
	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	clock := NewClock()
	rt := &Runtime{
		pkg:       pkg,
		clock:     clock,
		qm:        NewQueueManager(pkg, clock),
		transfers: make(map[int64]int),
	}
	for _, opt := range opts {
		opt(rt)
	}
	for _, proc := range pkg.Procs {
		if proc.IsAdapter() {
			rt.execs = append(rt.execs, newAdapterExec(proc))
			continue
		}
		ge, err := newGraphExec(proc)
		if err != nil {
			return nil, err
		}
		rt.execs = append(rt.execs, ge)
	}
	return rt, nil
}

// QueueManager exposes the channel queues for harness access between ticks.
func (rt *Runtime) QueueManager() *QueueManager {
	return rt.qm
}

// GetQueueByName is a harness convenience for rt.QueueManager().
func (rt *Runtime) GetQueueByName(name string) (*ChannelQueue, error) {
	return rt.qm.GetQueueByName(name)
}

// Tick advances every process as far as currently possible, iterating to a
// fixed point: after any successful operation all stalled processes are
// re-scanned, since one process's progress may free a channel another
// depends on. Each graph process completes at most one activation per tick.
//
// A policy violation aborts the tick immediately; outputs already produced
// remain visible in their queues.
func (rt *Runtime) Tick() error {
	if rt.state == stateTicking {
		return fmt.Errorf("tick already in progress")
	}
	rt.state = stateTicking
	defer func() {
		if rt.state == stateTicking {
			rt.state = stateIdle
		}
	}()

	rt.tick++
	clear(rt.transfers)
	for _, ex := range rt.execs {
		ex.resetTick()
	}

	anyProgress := false
	for {
		roundProgress := false
		for _, ex := range rt.execs {
			p, err := ex.run(rt)
			if p {
				roundProgress = true
			}
			if err != nil {
				rt.state = stateCompleted
				return fmt.Errorf("tick %d: proc %s: %w", rt.tick, ex.name(), err)
			}
		}
		if !roundProgress {
			break
		}
		anyProgress = true
	}
	rt.lastTickProgress = anyProgress

	if blocked := rt.BlockedChannels(); len(blocked) > 0 {
		rt.state = stateBlocked
		slog.Debug("tick blocked", "tick", rt.tick, "channels", blocked)
	} else {
		rt.state = stateIdle
	}
	return nil
}

// BlockedChannels returns the names of channels some process is currently
// stalled on, deduplicated and ordered by channel id.
func (rt *Runtime) BlockedChannels() []string {
	seen := make(map[int64]*ir.Channel)
	for _, ex := range rt.execs {
		if ch := ex.blockedChannel(); ch != nil {
			seen[ch.ID] = ch
		}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = seen[id].Name
	}
	return names
}

// Ticks returns the number of ticks executed so far.
func (rt *Runtime) Ticks() int64 {
	return rt.tick
}

// TickUntilOutput ticks until every target channel has produced at least
// the requested count of values since the call began, or the tick budget is
// exhausted, or a violation aborts the run. Target counts are measured
// against queue write totals, so values the harness reads off concurrently
// still count.
//
// The boolean result reports whether any tick made progress. A tick that
// makes no progress at all with targets unmet fails immediately: nothing
// can unblock the network between ticks of a single call.
func (rt *Runtime) TickUntilOutput(targets map[string]int64, maxTicks int64) (bool, error) {
	base := make(map[string]int64, len(targets))
	for name := range targets {
		q, err := rt.qm.GetQueueByName(name)
		if err != nil {
			return false, err
		}
		base[name] = q.TotalWritten()
	}
	met := func() bool {
		for name, want := range targets {
			q := rt.qm.byName[name]
			if q.TotalWritten()-base[name] < want {
				return false
			}
		}
		return true
	}

	progressed := false
	for n := int64(0); ; n++ {
		if met() {
			return progressed, nil
		}
		if n >= maxTicks {
			return progressed, &DeadlockError{Ticks: rt.tick, Blocked: rt.BlockedChannels()}
		}
		if err := rt.Tick(); err != nil {
			return progressed, err
		}
		if rt.lastTickProgress {
			progressed = true
		} else if !met() {
			return progressed, &DeadlockError{Ticks: rt.tick, Blocked: rt.BlockedChannels()}
		}
	}
}

func (rt *Runtime) channel(id int64) *ir.Channel {
	ch, _ := rt.pkg.Channel(id)
	return ch
}

// recordTransfer notes a completed queue transfer for tracing and enforces
// the proven-exclusivity guard: a statically proven channel that sees two
// transfers in one tick violated its proof, and the run aborts.
func (rt *Runtime) recordTransfer(ch *ir.Channel, proc, kind string, v ir.Value) error {
	rt.trace(kind, ch, proc, v)
	if !ch.Proven {
		return nil
	}
	rt.transfers[ch.ID]++
	if rt.transfers[ch.ID] > 1 {
		rt.trace("violation", ch, proc, ir.Value{})
		return &ViolationError{Channel: ch.Name, Policy: ir.ProvenMutuallyExclusive.String()}
	}
	return nil
}

func (rt *Runtime) trace(kind string, ch *ir.Channel, proc string, v ir.Value) {
	if rt.sink == nil {
		return
	}
	rt.sink.Record(TraceEvent{
		Seq:     rt.clock.Next(),
		Tick:    rt.tick,
		Kind:    kind,
		Channel: ch.Name,
		Proc:    proc,
		Value:   v,
	})
}
