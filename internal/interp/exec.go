package interp

import (
	"fmt"

	"github.com/weft-hdl/weft/internal/ir"
)

// executor advances one process. Graph processes are interpreted from their
// operation graphs; adapter processes run the native arbitration in
// adapter.go. The closed pair of implementations is the whole set.
type executor interface {
	// name identifies the process for diagnostics.
	name() string
	// resetTick clears per-tick bookkeeping at a tick boundary.
	resetTick()
	// run advances as far as currently possible. It reports whether any
	// progress was made; violations abort the run via the error.
	run(rt *Runtime) (bool, error)
	// blockedChannel returns the channel the process is stalled on, or
	// nil when it is not stalled.
	blockedChannel() *ir.Channel
}

// graphExec interprets one graph process. The per-process resume point is
// the cursor into the topological order: a stalled channel operation keeps
// the cursor in place so the next tick resumes there, and values computed
// earlier in the activation stay cached.
type graphExec struct {
	proc  *ir.Proc
	order []int

	state []ir.Value // current state, aligned with proc.Params
	vals  []ir.Value // per-activation node results
	done  []bool

	cursor       int
	activation   int64
	doneThisTick bool
	blockedOn    *ir.Channel
}

func newGraphExec(proc *ir.Proc) (*graphExec, error) {
	order, err := proc.TopoOrder()
	if err != nil {
		return nil, err
	}
	state := make([]ir.Value, len(proc.Params))
	for i, param := range proc.Params {
		state[i] = param.Init
	}
	return &graphExec{
		proc:  proc,
		order: order,
		state: state,
		vals:  make([]ir.Value, len(proc.Nodes)),
		done:  make([]bool, len(proc.Nodes)),
	}, nil
}

func (g *graphExec) name() string { return g.proc.Name }

func (g *graphExec) resetTick() {
	g.doneThisTick = false
}

func (g *graphExec) blockedChannel() *ir.Channel { return g.blockedOn }

// run executes nodes in topological order until the activation completes or
// a channel operation stalls. One activation per tick: once the terminator
// has run, the process waits for the next tick.
func (g *graphExec) run(rt *Runtime) (bool, error) {
	if g.doneThisTick {
		return false, nil
	}
	progress := false
	for g.cursor < len(g.order) {
		idx := g.order[g.cursor]
		blocked, err := g.eval(rt, idx)
		if err != nil {
			return progress, err
		}
		if blocked {
			return progress, nil
		}
		g.done[idx] = true
		g.blockedOn = nil
		g.cursor++
		progress = true
	}
	g.commitNext()
	return true, nil
}

// commitNext applies the next() terminator: data state elements take their
// next value, truncated to the declared width, and the activation counter
// advances.
func (g *graphExec) commitNext() {
	next := make([]ir.Value, len(g.state))
	for i, idx := range g.proc.Next {
		switch t := g.proc.Params[i].Type.(type) {
		case ir.BitsType:
			next[i] = ir.UBits(g.vals[idx].Bits, t.Width)
		default:
			next[i] = ir.Unit()
		}
	}
	g.state = next
	g.activation++
	g.cursor = 0
	for i := range g.done {
		g.done[i] = false
	}
	g.doneThisTick = true
}

// predicateTrue evaluates a node's predicate operand; unpredicated
// operations are always enabled.
func (g *graphExec) predicateTrue(n *ir.Node) bool {
	if n.Predicate == ir.NoPredicate {
		return true
	}
	return g.vals[n.Predicate].IsTrue()
}

func (g *graphExec) eval(rt *Runtime, idx int) (bool, error) {
	n := &g.proc.Nodes[idx]
	switch n.Kind {
	case ir.OpParam:
		g.vals[idx] = g.state[n.Param]
	case ir.OpLiteral:
		g.vals[idx] = n.Value
	case ir.OpTupleIndex:
		g.vals[idx] = g.tupleElem(n.Args[0], n.Index)
	case ir.OpAfterAll:
		g.vals[idx] = ir.Unit()
	case ir.OpNot:
		g.vals[idx] = g.vals[n.Args[0]].Not()
	case ir.OpAdd:
		g.vals[idx] = g.vals[n.Args[0]].Add(g.vals[n.Args[1]])
	case ir.OpUGt:
		g.vals[idx] = g.vals[n.Args[0]].UGt(g.vals[n.Args[1]])
	case ir.OpBitSlice:
		g.vals[idx] = g.vals[n.Args[0]].Slice(n.Start, n.SliceWidth)
	case ir.OpReceive:
		return g.evalReceive(rt, idx, n)
	case ir.OpSend:
		return g.evalSend(rt, idx, n)
	default:
		return false, fmt.Errorf("proc %s: cannot evaluate %s node %s", g.proc.Name, n.Kind, n.Name)
	}
	return false, nil
}

// tupleElem projects an element of a tuple-valued operand. The only
// tuple-valued producers in this core are receives (token, data) and
// tuple-typed state; tokens and unit tuples carry no data.
func (g *graphExec) tupleElem(operand, index int) ir.Value {
	n := &g.proc.Nodes[operand]
	if n.Kind == ir.OpReceive && index == 1 {
		return g.vals[operand]
	}
	return ir.Unit()
}

// evalReceive performs a receive. A false predicate makes the operation
// vacuous: the token threads through, the result is the zero value of the
// element type, and the queue is untouched.
func (g *graphExec) evalReceive(rt *Runtime, idx int, n *ir.Node) (bool, error) {
	ch := rt.channel(n.ChannelID)
	if !g.predicateTrue(n) {
		g.vals[idx] = ir.Zero(ch.Width)
		return false, nil
	}
	q := rt.qm.mustQueue(n.ChannelID)
	v, ok := q.Read()
	if !ok {
		g.blockedOn = ch
		return true, nil
	}
	g.vals[idx] = v
	if err := rt.recordTransfer(ch, g.proc.Name, "receive", v); err != nil {
		return false, err
	}
	return false, nil
}

// evalSend performs a send. A false predicate is vacuous; a bounded queue
// at capacity stalls the process like an empty queue stalls a receive.
func (g *graphExec) evalSend(rt *Runtime, idx int, n *ir.Node) (bool, error) {
	ch := rt.channel(n.ChannelID)
	if !g.predicateTrue(n) {
		g.vals[idx] = ir.Unit()
		return false, nil
	}
	q := rt.qm.mustQueue(n.ChannelID)
	v := ir.UBits(g.vals[n.Args[1]].Bits, ch.Width)
	if err := q.Write(v); err != nil {
		g.blockedOn = ch
		return true, nil
	}
	g.vals[idx] = ir.Unit()
	if err := rt.recordTransfer(ch, g.proc.Name, "send", v); err != nil {
		return false, err
	}
	return false, nil
}
