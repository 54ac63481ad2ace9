package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpText(t *testing.T) {
	pkg := NewPackage("demo")
	require.NoError(t, pkg.AddChannel(&Channel{
		ID: 0, Name: "in", Width: 32,
		Kind: Streaming, Ops: ReceiveOnly, FlowControl: ReadyValid,
		Strictness: DefaultStrictness,
	}))
	require.NoError(t, pkg.AddChannel(&Channel{
		ID: 1, Name: "out", Width: 32,
		Kind: Streaming, Ops: SendOnly, FlowControl: ReadyValid,
		Strictness: TotalOrder, Metadata: "fifo",
	}))

	p := &Proc{Name: "worker", Params: []Param{
		{Name: "tok", Type: TokenType{}},
		{Name: "cnt", Type: BitsType{Width: 32}, Init: UBits(5, 32)},
	}}
	tok := p.AppendNode(Node{Name: "tok", Kind: OpParam, Type: TokenType{}, Param: 0, Predicate: NoPredicate})
	cnt := p.AppendNode(Node{Name: "cnt", Kind: OpParam, Type: BitsType{Width: 32}, Param: 1, Predicate: NoPredicate})
	recv := p.AppendNode(Node{Name: "recv", Kind: OpReceive, Type: TupleType{Elems: []Type{TokenType{}, BitsType{Width: 32}}}, Args: []int{tok}, Predicate: NoPredicate, ChannelID: 0})
	rtok := p.AppendNode(Node{Name: "recv_tok", Kind: OpTupleIndex, Type: TokenType{}, Args: []int{recv}, Predicate: NoPredicate, Index: 0})
	rdata := p.AppendNode(Node{Name: "recv_data", Kind: OpTupleIndex, Type: BitsType{Width: 32}, Args: []int{recv}, Predicate: NoPredicate, Index: 1})
	sum := p.AppendNode(Node{Name: "sum", Kind: OpAdd, Type: BitsType{Width: 32}, Args: []int{rdata, cnt}, Predicate: NoPredicate})
	send := p.AppendNode(Node{Name: "send", Kind: OpSend, Type: TokenType{}, Args: []int{rtok, sum}, Predicate: NoPredicate, ChannelID: 1})
	p.Next = []int{send, sum}
	require.NoError(t, pkg.AddProc(p))
	pkg.Top = "worker"

	require.NoError(t, pkg.AddProc(&Proc{
		Name: "out__adapter",
		Adapter: &Adapter{
			Policy:    TotalOrder,
			ChannelID: 1,
			Direction: SendOnly,
			Ports: []AdapterPort{
				{Request: 2, Data: 3, Ack: 4, OriginProc: "worker", OriginNode: "send"},
			},
			Order: []int{0},
		},
	}))

	want := `package demo

chan in(bits[32], id=0, kind=streaming, ops=receive_only, flow_control=ready_valid, strictness=proven_mutually_exclusive, metadata="")
chan out(bits[32], id=1, kind=streaming, ops=send_only, flow_control=ready_valid, strictness=total_order, metadata="fifo")

top proc worker(tok: token, cnt: bits[32], init={5}) {
  recv: (token, bits[32]) = receive(tok, channel_id=0)
  recv_tok: token = tuple_index(recv, index=0)
  recv_data: bits[32] = tuple_index(recv, index=1)
  sum: bits[32] = add(recv_data, cnt)
  send: token = send(recv_tok, sum, channel_id=1)
  next (send, sum)
}

adapter out__adapter(channel_id=1, policy=total_order, direction=send_only) {
  port 0: request=2, data=3, ack=4, origin=worker.send
  order: 0
}
`
	assert.Equal(t, want, pkg.DumpText())
}

func TestDumpText_ChannelsSortedByID(t *testing.T) {
	pkg := NewPackage("p")
	require.NoError(t, pkg.AddChannel(&Channel{ID: 3, Name: "c", Width: 1}))
	require.NoError(t, pkg.AddChannel(&Channel{ID: 1, Name: "a", Width: 1}))
	require.NoError(t, pkg.AddChannel(&Channel{ID: 2, Name: "b", Width: 1}))

	text := pkg.DumpText()
	assert.Regexp(t, `(?s)chan a.*chan b.*chan c`, text)
}
