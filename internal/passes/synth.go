package passes

import (
	"fmt"

	"github.com/weft-hdl/weft/internal/ir"
)

// synthesizeAdapter inserts the arbitration machinery for one group:
// internal request/data (and for sends, ack) channels per operation, an
// adapter process applying the policy, and an in-place rewrite of every
// original operation so it talks to its port instead of the real channel.
//
// The rewrite keeps node indices stable. A receive keeps its index and
// type but is repointed at the port's data channel, fed by an appended
// request send. A send grows request/data/ack nodes and itself becomes a
// token projection of the ack, so downstream token users are untouched.
// After the rewrite the real channel is accessed only by the adapter.
func synthesizeAdapter(pkg *ir.Package, ch *ir.Channel, group []ir.ChannelOp, dir ir.ChannelOps, order []int) error {
	ports := make([]ir.AdapterPort, 0, len(group))
	for i, op := range group {
		origName := op.Proc.Nodes[op.Node].Name

		reqID, err := addInternalChannel(pkg, fmt.Sprintf("%s__op%d_req", ch.Name, i), 1)
		if err != nil {
			return err
		}
		dataID, err := addInternalChannel(pkg, fmt.Sprintf("%s__op%d_data", ch.Name, i), ch.Width)
		if err != nil {
			return err
		}
		port := ir.AdapterPort{
			Request:    reqID,
			Data:       dataID,
			OriginProc: op.Proc.Name,
			OriginNode: origName,
		}

		if dir == ir.ReceiveOnly {
			rewireReceive(op, reqID, dataID)
		} else {
			ackID, err := addInternalChannel(pkg, fmt.Sprintf("%s__op%d_ack", ch.Name, i), 1)
			if err != nil {
				return err
			}
			port.Ack = ackID
			rewireSend(op, reqID, dataID, ackID)
		}
		ports = append(ports, port)
	}

	adapter := &ir.Proc{
		Name: fmt.Sprintf("%s__adapter", ch.Name),
		Adapter: &ir.Adapter{
			Policy:    ch.Strictness,
			ChannelID: ch.ID,
			Direction: dir,
			Ports:     ports,
			Order:     order,
		},
	}
	return pkg.AddProc(adapter)
}

func addInternalChannel(pkg *ir.Package, name string, width int) (int64, error) {
	ch := &ir.Channel{
		ID:          pkg.NextChannelID(),
		Name:        name,
		Width:       width,
		Kind:        ir.Streaming,
		Ops:         ir.SendReceive,
		FlowControl: ir.ReadyValid,
		Strictness:  ir.DefaultStrictness,
		Internal:    true,
	}
	if err := pkg.AddChannel(ch); err != nil {
		return 0, err
	}
	return ch.ID, nil
}

// requestValue returns the node whose value the origin sends on the request
// channel: the operation's predicate, or an appended constant one for an
// unpredicated operation.
func requestValue(op ir.ChannelOp) int {
	n := &op.Proc.Nodes[op.Node]
	if n.Predicate != ir.NoPredicate {
		return n.Predicate
	}
	return op.Proc.AppendNode(ir.Node{
		Name:      n.Name + "_req_value",
		Kind:      ir.OpLiteral,
		Type:      ir.BitsType{Width: 1},
		Value:     ir.UBits(1, 1),
		Predicate: ir.NoPredicate,
	})
}

func rewireReceive(op ir.ChannelOp, reqID, dataID int64) {
	proc := op.Proc
	predVal := requestValue(op)
	tok := proc.Nodes[op.Node].Args[0]
	req := proc.AppendNode(ir.Node{
		Name:      proc.Nodes[op.Node].Name + "_req",
		Kind:      ir.OpSend,
		Type:      ir.TokenType{},
		Args:      []int{tok, predVal},
		Predicate: ir.NoPredicate,
		ChannelID: reqID,
	})
	n := proc.Node(op.Node)
	n.ChannelID = dataID
	n.Args = []int{req}
}

func rewireSend(op ir.ChannelOp, reqID, dataID, ackID int64) {
	proc := op.Proc
	predVal := requestValue(op)
	orig := proc.Nodes[op.Node]
	tok, val := orig.Args[0], orig.Args[1]
	req := proc.AppendNode(ir.Node{
		Name:      orig.Name + "_req",
		Kind:      ir.OpSend,
		Type:      ir.TokenType{},
		Args:      []int{tok, predVal},
		Predicate: ir.NoPredicate,
		ChannelID: reqID,
	})
	data := proc.AppendNode(ir.Node{
		Name:      orig.Name + "_data",
		Kind:      ir.OpSend,
		Type:      ir.TokenType{},
		Args:      []int{req, val},
		Predicate: orig.Predicate,
		ChannelID: dataID,
	})
	ack := proc.AppendNode(ir.Node{
		Name:      orig.Name + "_ack",
		Kind:      ir.OpReceive,
		Type:      ir.TupleType{Elems: []ir.Type{ir.TokenType{}, ir.BitsType{Width: 1}}},
		Args:      []int{data},
		Predicate: orig.Predicate,
		ChannelID: ackID,
	})
	n := proc.Node(op.Node)
	n.Kind = ir.OpTupleIndex
	n.Type = ir.TokenType{}
	n.Args = []int{ack}
	n.Predicate = ir.NoPredicate
	n.ChannelID = 0
	n.Index = 0
}
