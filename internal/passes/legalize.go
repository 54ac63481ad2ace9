package passes

import (
	"errors"
	"fmt"
	"sort"

	"github.com/weft-hdl/weft/internal/ir"
)

// ChannelLegalization rewrites every channel with multiple same-direction
// operations so that its declared strictness policy holds. Depending on the
// policy this either proves exclusivity statically (no rewrite), or inserts
// an arbitration adapter and reroutes the original operations through
// internal request/data channels.
//
// Channels fail independently: all failures are joined into one error, and
// a failed channel is left untouched.
type ChannelLegalization struct{}

func (ChannelLegalization) Name() string { return "channel_legalization" }

func (ChannelLegalization) Run(pkg *ir.Package, _ *Results) (bool, error) {
	changed := false
	var errs []error

	// Synthesis appends channels; iterate a snapshot of the declared set.
	declared := append([]*ir.Channel(nil), pkg.Channels...)
	for _, ch := range declared {
		if ch.Internal || ch.Proven {
			continue
		}
		var sends, recvs []ir.ChannelOp
		for _, op := range pkg.ChannelOperations(ch.ID) {
			if op.Kind() == ir.OpSend {
				sends = append(sends, op)
			} else {
				recvs = append(recvs, op)
			}
		}
		if len(recvs) >= 2 {
			c, err := legalizeGroup(pkg, ch, recvs, ir.ReceiveOnly)
			changed = changed || c
			if err != nil {
				errs = append(errs, err)
			}
		}
		if len(sends) >= 2 {
			c, err := legalizeGroup(pkg, ch, sends, ir.SendOnly)
			changed = changed || c
			if err != nil {
				errs = append(errs, err)
			}
		}
	}
	return changed, errors.Join(errs...)
}

func legalizeGroup(pkg *ir.Package, ch *ir.Channel, group []ir.ChannelOp, dir ir.ChannelOps) (bool, error) {
	switch ch.Strictness {
	case ir.ProvenMutuallyExclusive:
		if msg := proveMutuallyExclusive(group); msg != "" {
			return false, &LegalizationError{Channel: ch.Name, Policy: ch.Strictness, Message: msg}
		}
		ch.Proven = true
		return true, nil

	case ir.TotalOrder:
		order, err := tokenTotalOrder(ch, group)
		if err != nil {
			return false, err
		}
		return true, synthesizeAdapter(pkg, ch, group, dir, order)

	case ir.ArbitraryStaticOrder:
		order := make([]int, len(group))
		for i := range order {
			order[i] = i
		}
		return true, synthesizeAdapter(pkg, ch, group, dir, order)

	case ir.RuntimeOrdered, ir.RuntimeMutuallyExclusive:
		return true, synthesizeAdapter(pkg, ch, group, dir, nil)

	default:
		return false, &LegalizationError{
			Channel: ch.Name,
			Policy:  ch.Strictness,
			Message: "unknown strictness policy",
		}
	}
}

// tokenTotalOrder linearizes the group by token reachability. Operations in
// the same process must be pairwise ordered by the token graph; across
// processes no token edges exist, so process declaration order decides.
func tokenTotalOrder(ch *ir.Channel, group []ir.ChannelOp) ([]int, error) {
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			a, b := group[i], group[j]
			if a.Proc != b.Proc {
				continue
			}
			if !a.Proc.Reaches(a.Node, b.Node) && !a.Proc.Reaches(b.Node, a.Node) {
				return nil, &LegalizationError{
					Channel: ch.Name,
					Policy:  ch.Strictness,
					Message: fmt.Sprintf("channel is not totally ordered: %s and %s in proc %s share no token path",
						a.Proc.Nodes[a.Node].Name, b.Proc.Nodes[b.Node].Name, a.Proc.Name),
				}
			}
		}
	}
	order := make([]int, len(group))
	for i := range order {
		order[i] = i
	}
	// Group entries are already clustered by process in declaration order,
	// so a stable sort on the within-process relation keeps that clustering.
	sort.SliceStable(order, func(x, y int) bool {
		a, b := group[order[x]], group[order[y]]
		if a.Proc != b.Proc {
			return false
		}
		return a.Proc.Reaches(a.Node, b.Node)
	})
	return order, nil
}
