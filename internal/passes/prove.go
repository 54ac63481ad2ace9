package passes

import (
	"fmt"

	"github.com/weft-hdl/weft/internal/ir"
)

// proveMutuallyExclusive attempts a static proof that at most one operation
// in the group has a true predicate per activation. It returns an empty
// string on success, or a failure reason.
//
// Two proof rules are implemented:
//
//  1. Structural complement: both operations live in one process and one
//     predicate is the bitwise not of the other, so exactly one holds.
//  2. Toggle induction: each predicate is a one-bit state element whose
//     next-state function is its own complement, and exactly one is
//     initialized true. Every process completes exactly one activation per
//     tick, so the "exactly one predicate true" invariant is preserved
//     inductively across ticks even though the bits live in different
//     processes.
//
// Anything outside these shapes is rejected; a sound prover that gives up
// is preferable to a clever one that guesses.
func proveMutuallyExclusive(group []ir.ChannelOp) string {
	for _, op := range group {
		if op.Proc.Nodes[op.Node].Predicate == ir.NoPredicate {
			return fmt.Sprintf("operation %s is unpredicated, not proven mutually exclusive",
				op.Proc.Nodes[op.Node].Name)
		}
	}
	if len(group) != 2 {
		return fmt.Sprintf("%d operations, not proven mutually exclusive (only pairwise proofs are supported)", len(group))
	}
	a, b := group[0], group[1]
	if a.Proc == b.Proc && structurallyComplementary(a.Proc, a, b) {
		return ""
	}
	ia, oka := togglingStateBit(a)
	ib, okb := togglingStateBit(b)
	if oka && okb && ia.IsTrue() != ib.IsTrue() {
		return ""
	}
	return "predicates not proven mutually exclusive"
}

// structurallyComplementary reports whether one predicate node is the
// bitwise not of the other.
func structurallyComplementary(proc *ir.Proc, a, b ir.ChannelOp) bool {
	pa := proc.Nodes[a.Node].Predicate
	pb := proc.Nodes[b.Node].Predicate
	na := &proc.Nodes[pa]
	nb := &proc.Nodes[pb]
	if na.Kind == ir.OpNot && na.Args[0] == pb {
		return true
	}
	if nb.Kind == ir.OpNot && nb.Args[0] == pa {
		return true
	}
	return false
}

// togglingStateBit matches a predicate that reads a one-bit state element
// whose next value is the complement of its current value. Returns the
// element's initial value.
func togglingStateBit(op ir.ChannelOp) (ir.Value, bool) {
	proc := op.Proc
	p := proc.Nodes[op.Node].Predicate
	pn := &proc.Nodes[p]
	if pn.Kind != ir.OpParam {
		return ir.Value{}, false
	}
	k := pn.Param
	if bt, ok := proc.Params[k].Type.(ir.BitsType); !ok || bt.Width != 1 {
		return ir.Value{}, false
	}
	nn := &proc.Nodes[proc.Next[k]]
	if nn.Kind != ir.OpNot || nn.Args[0] != p {
		return ir.Value{}, false
	}
	return proc.Params[k].Init, true
}
