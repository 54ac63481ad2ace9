package interp

import (
	"fmt"

	"github.com/weft-hdl/weft/internal/ir"
)

// adapterExec natively executes a synthesized arbitration process. Origin
// processes send their predicate value on the port's request channel each
// activation; the adapter applies the policy's selection rule and forwards
// exactly the winning transactions to or from the real channel.
//
// The adapter is quiescent, not blocked, while it waits for requests; it
// reports blocked only when a granted transaction cannot complete because
// the real channel has no data (receive side) or no capacity (send side).
type adapterExec struct {
	proc *ir.Proc
	ad   *ir.Adapter

	// pos is the cyclic position in ad.Order for the static-order
	// policies.
	pos int

	// granted tracks whether a runtime_mutually_exclusive adapter has
	// granted a transaction in the current tick; a second enabled request
	// in the same tick is a policy violation.
	granted bool

	blockedOn *ir.Channel
}

func newAdapterExec(proc *ir.Proc) *adapterExec {
	return &adapterExec{proc: proc, ad: proc.Adapter}
}

func (a *adapterExec) name() string { return a.proc.Name }

func (a *adapterExec) resetTick() {
	a.granted = false
}

func (a *adapterExec) blockedChannel() *ir.Channel { return a.blockedOn }

func (a *adapterExec) run(rt *Runtime) (bool, error) {
	switch a.ad.Policy {
	case ir.TotalOrder, ir.ArbitraryStaticOrder:
		return a.runStaticOrder(rt)
	case ir.RuntimeOrdered:
		return a.runArrivalOrder(rt)
	case ir.RuntimeMutuallyExclusive:
		return a.runMutuallyExclusive(rt)
	default:
		return false, fmt.Errorf("adapter %s: policy %s has no runtime rule", a.proc.Name, a.ad.Policy)
	}
}

// runStaticOrder serves ports strictly in the fixed order, wrapping around.
// A false-predicate request is consumed and skipped; a true one must
// complete its transaction before the next port is considered.
func (a *adapterExec) runStaticOrder(rt *Runtime) (bool, error) {
	progress := false
	for {
		port := a.ad.Ports[a.ad.Order[a.pos]]
		served, blocked, err := a.servePort(rt, port)
		if err != nil {
			return progress, err
		}
		if !served {
			if !blocked {
				a.blockedOn = nil
			}
			return progress, nil
		}
		a.pos = (a.pos + 1) % len(a.ad.Order)
		a.blockedOn = nil
		progress = true
	}
}

// runArrivalOrder serves whichever pending request arrived first, using the
// queue arrival stamps; ties cannot occur (stamps are unique) but the scan
// order makes declaration order the tie-break regardless.
func (a *adapterExec) runArrivalOrder(rt *Runtime) (bool, error) {
	progress := false
	for {
		best := -1
		var bestSeq int64
		for i, port := range a.ad.Ports {
			seq := rt.qm.mustQueue(port.Request).FrontSeq()
			if seq < 0 {
				continue
			}
			if best == -1 || seq < bestSeq {
				best = i
				bestSeq = seq
			}
		}
		if best == -1 {
			a.blockedOn = nil
			return progress, nil
		}
		served, blocked, err := a.servePort(rt, a.ad.Ports[best])
		if err != nil {
			return progress, err
		}
		if !served {
			if !blocked {
				a.blockedOn = nil
			}
			return progress, nil
		}
		a.blockedOn = nil
		progress = true
	}
}

// runMutuallyExclusive grants the first enabled request per tick. A second
// enabled request observed in the same tick, before or after the grant,
// aborts the run.
func (a *adapterExec) runMutuallyExclusive(rt *Runtime) (bool, error) {
	progress := false
	for {
		enabled := -1
		acted := false
		for i, port := range a.ad.Ports {
			reqq := rt.qm.mustQueue(port.Request)
			pred, ok := reqq.Peek()
			if !ok {
				continue
			}
			if !pred.IsTrue() {
				// Vacuous request: consume it and move on.
				reqq.Read()
				acted = true
				progress = true
				continue
			}
			if a.granted || enabled != -1 {
				return progress, a.violation(rt)
			}
			enabled = i
		}
		if enabled == -1 {
			if !acted {
				a.blockedOn = nil
				return progress, nil
			}
			continue
		}
		served, blocked, err := a.servePort(rt, a.ad.Ports[enabled])
		if err != nil {
			return progress, err
		}
		if !served {
			if !blocked {
				a.blockedOn = nil
			}
			return progress, nil
		}
		a.granted = true
		a.blockedOn = nil
		progress = true
	}
}

func (a *adapterExec) violation(rt *Runtime) error {
	real := rt.channel(a.ad.ChannelID)
	rt.trace("violation", real, a.proc.Name, ir.Value{})
	return &ViolationError{Channel: real.Name, Policy: a.ad.Policy.String()}
}

// servePort attempts one transaction for a port whose request is pending.
// Returns served=false with blocked=false when no request is pending, and
// served=false with blocked=true when the transaction cannot complete yet
// (the request stays queued so the next attempt retries it).
func (a *adapterExec) servePort(rt *Runtime, port ir.AdapterPort) (served, blocked bool, err error) {
	reqq := rt.qm.mustQueue(port.Request)
	pred, ok := reqq.Peek()
	if !ok {
		return false, false, nil
	}
	if !pred.IsTrue() {
		reqq.Read()
		return true, false, nil
	}

	real := rt.channel(a.ad.ChannelID)
	realq := rt.qm.mustQueue(a.ad.ChannelID)

	if a.ad.Direction == ir.ReceiveOnly {
		// Origin receives: pull from the real channel, push to the port.
		v, ok := realq.Read()
		if !ok {
			a.blockedOn = real
			return false, true, nil
		}
		reqq.Read()
		rt.trace("receive", real, a.proc.Name, v)
		if err := rt.qm.mustQueue(port.Data).Write(v); err != nil {
			return false, false, fmt.Errorf("adapter %s: forward to port: %w", a.proc.Name, err)
		}
		return true, false, nil
	}

	// Origin sends: pull the payload from the port, push to the real
	// channel, acknowledge. The payload arrives in the same tick wave as
	// the request, so an empty data queue just means the origin has not
	// been rescanned yet.
	dataq := rt.qm.mustQueue(port.Data)
	v, ok := dataq.Peek()
	if !ok {
		return false, false, nil
	}
	if err := realq.Write(v); err != nil {
		a.blockedOn = real
		return false, true, nil
	}
	dataq.Read()
	reqq.Read()
	rt.trace("send", real, a.proc.Name, v)
	if err := rt.qm.mustQueue(port.Ack).Write(ir.UBits(1, 1)); err != nil {
		return false, false, fmt.Errorf("adapter %s: acknowledge: %w", a.proc.Name, err)
	}
	return true, false, nil
}
