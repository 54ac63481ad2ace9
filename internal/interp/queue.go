package interp

import (
	"fmt"
	"sync"

	"github.com/weft-hdl/weft/internal/ir"
)

// ErrQueueFull is returned by Write on a bounded queue at capacity.
var ErrQueueFull = fmt.Errorf("channel queue is full")

type entry struct {
	value ir.Value
	seq   int64 // arrival stamp from the runtime clock
}

// ChannelQueue is the FIFO behind one channel. Write and read are
// synchronous, non-blocking primitives; blocking behavior is layered on top
// by the tick loop, which retries a stalled send/receive on later ticks.
//
// The mutex exists for the external harness, which may write input channels
// and read output channels between ticks. Such access is scoped: it must not
// overlap a tick in progress.
type ChannelQueue struct {
	mu       sync.Mutex
	channel  *ir.Channel
	clock    *Clock
	capacity int // 0 = unbounded
	entries  []entry
	written  int64 // total writes since construction
}

// Write appends a value. Returns ErrQueueFull on a bounded queue at
// capacity.
func (q *ChannelQueue) Write(v ir.Value) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.capacity > 0 && len(q.entries) >= q.capacity {
		return fmt.Errorf("channel %s: %w", q.channel.Name, ErrQueueFull)
	}
	q.entries = append(q.entries, entry{value: v, seq: q.clock.Next()})
	q.written++
	return nil
}

// Read removes and returns the front value. The second result is false if
// the queue is empty.
func (q *ChannelQueue) Read() (ir.Value, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return ir.Value{}, false
	}
	e := q.entries[0]
	// Nil out the slot so the backing array does not retain the value, and
	// reset the slice when it drains to reuse capacity.
	q.entries[0] = entry{}
	if len(q.entries) == 1 {
		q.entries = q.entries[:0]
	} else {
		q.entries = q.entries[1:]
	}
	return e.value, true
}

// Peek returns the front value without removing it.
func (q *ChannelQueue) Peek() (ir.Value, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return ir.Value{}, false
	}
	return q.entries[0].value, true
}

// FrontSeq returns the arrival stamp of the front value, or -1 if empty.
// The runtime_ordered adapter uses it to pick the earliest request.
func (q *ChannelQueue) FrontSeq() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return -1
	}
	return q.entries[0].seq
}

// GetSize returns the number of queued values.
func (q *ChannelQueue) GetSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// IsEmpty reports whether the queue holds no values.
func (q *ChannelQueue) IsEmpty() bool {
	return q.GetSize() == 0
}

// TotalWritten returns the count of writes since construction. Output
// targets in TickUntilOutput are measured against this counter.
func (q *ChannelQueue) TotalWritten() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.written
}

// Channel returns the owning channel (non-owning back-reference).
func (q *ChannelQueue) Channel() *ir.Channel {
	return q.channel
}

// QueueManager owns one queue per channel, looked up by id or name.
type QueueManager struct {
	byID   map[int64]*ChannelQueue
	byName map[string]*ChannelQueue
}

// NewQueueManager creates queues for every channel in the package.
func NewQueueManager(pkg *ir.Package, clock *Clock) *QueueManager {
	m := &QueueManager{
		byID:   make(map[int64]*ChannelQueue, len(pkg.Channels)),
		byName: make(map[string]*ChannelQueue, len(pkg.Channels)),
	}
	for _, ch := range pkg.Channels {
		q := &ChannelQueue{channel: ch, clock: clock}
		m.byID[ch.ID] = q
		m.byName[ch.Name] = q
	}
	return m
}

// GetQueue returns the queue for a channel id.
func (m *QueueManager) GetQueue(id int64) (*ChannelQueue, error) {
	q, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("no queue for channel id %d", id)
	}
	return q, nil
}

// GetQueueByName returns the queue for a channel name.
func (m *QueueManager) GetQueueByName(name string) (*ChannelQueue, error) {
	q, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("no queue for channel %q", name)
	}
	return q, nil
}

// mustQueue is the internal lookup for channels the graph already
// validated.
func (m *QueueManager) mustQueue(id int64) *ChannelQueue {
	return m.byID[id]
}
