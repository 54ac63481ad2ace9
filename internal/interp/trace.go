package interp

import "github.com/weft-hdl/weft/internal/ir"

// TraceEvent is one observed channel transfer (or policy grant/violation)
// during a run. Seq is a total order from the runtime clock; Tick is the
// tick in which the event occurred.
type TraceEvent struct {
	Seq     int64
	Tick    int64
	Kind    string // "send", "receive", "violation"
	Channel string
	Proc    string
	Value   ir.Value
}

// TraceSink receives trace events as they happen. Implementations must not
// call back into the runtime. The trace store wires a persistent sink; the
// default is no tracing.
type TraceSink interface {
	Record(ev TraceEvent)
}
