package interp

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-hdl/weft/internal/passes"
	"github.com/weft-hdl/weft/internal/testutil"
)

// A single proc performing two receives and two sends on shared channels.
// The second-received value is sent first, so a correctly ordered network
// emits pairs swapped: 1, 0, 3, 2, ...
const interleaveIR = `package test

chan in(bits[32], id=0, kind=streaming, ops=receive_only, flow_control=ready_valid, strictness=%s, metadata="")
chan out(bits[32], id=1, kind=streaming, ops=send_only, flow_control=ready_valid, strictness=%s, metadata="")

top proc my_proc(tok: token, init={}) {
  recv0: (token, bits[32]) = receive(tok, channel_id=0)
  recv0_tok: token = tuple_index(recv0, index=0)
  recv0_data: bits[32] = tuple_index(recv0, index=1)
  recv1: (token, bits[32]) = receive(recv0_tok, channel_id=0)
  recv1_tok: token = tuple_index(recv1, index=0)
  recv1_data: bits[32] = tuple_index(recv1, index=1)
  send0: token = send(recv1_tok, recv1_data, channel_id=1)
  send1: token = send(send0, recv0_data, channel_id=1)
  next (send1)
}
`

// Two procs alternating over shared channels, gated by toggling state bits
// with opposite initial values. Exactly one proc is active per tick, so the
// shared channels carry at most one transfer each per tick under every
// policy, and values pass through in order.
const alternateIR = `package test

chan in(bits[32], id=0, kind=streaming, ops=receive_only, flow_control=ready_valid, strictness=%s, metadata="")
chan out(bits[32], id=1, kind=streaming, ops=send_only, flow_control=ready_valid, strictness=%s, metadata="")

top proc proc_a(tok: token, pred: bits[1], init={1}) {
  recv: (token, bits[32]) = receive(tok, predicate=pred, channel_id=0)
  recv_tok: token = tuple_index(recv, index=0)
  recv_data: bits[32] = tuple_index(recv, index=1)
  send: token = send(recv_tok, recv_data, predicate=pred, channel_id=1)
  next_pred: bits[1] = not(pred)
  next (send, next_pred)
}

proc proc_b(tok: token, pred: bits[1], init={0}) {
  recv: (token, bits[32]) = receive(tok, predicate=pred, channel_id=0)
  recv_tok: token = tuple_index(recv, index=0)
  recv_data: bits[32] = tuple_index(recv, index=1)
  send: token = send(recv_tok, recv_data, predicate=pred, channel_id=1)
  next_pred: bits[1] = not(pred)
  next (send, next_pred)
}
`

// Two predicated sends on one channel; each predicate arrives on its own
// input channel. Starving the first predicate stalls the whole proc even
// though the second send's operands are ready.
const predicatedSendsIR = `package test

chan pred0(bits[1], id=0, kind=streaming, ops=receive_only, flow_control=ready_valid, metadata="")
chan pred1(bits[1], id=1, kind=streaming, ops=receive_only, flow_control=ready_valid, metadata="")
chan out(bits[32], id=2, kind=streaming, ops=send_only, flow_control=ready_valid, strictness=total_order, metadata="")

top proc test_proc(tkn: token, init={}) {
  pred1_recv: (token, bits[1]) = receive(tkn, channel_id=1)
  pred1_recv_token: token = tuple_index(pred1_recv, index=0)
  pred1_recv_data: bits[1] = tuple_index(pred1_recv, index=1)
  pred0_recv: (token, bits[1]) = receive(pred1_recv_token, channel_id=0)
  pred0_recv_token: token = tuple_index(pred0_recv, index=0)
  pred0_recv_data: bits[1] = tuple_index(pred0_recv, index=1)
  literal0: bits[32] = literal(value=0)
  literal1: bits[32] = literal(value=1)
  out_send0: token = send(pred0_recv_token, literal0, predicate=pred0_recv_data, channel_id=2)
  after_all_tok: token = after_all(out_send0, pred1_recv_token)
  out_send1: token = send(after_all_tok, literal1, predicate=pred1_recv_data, channel_id=2)
  next (out_send1)
}
`

// Three receives and three sends on shared channels. recv0/send0 are
// unpredicated; the other two are gated by bits of a side-channel value and
// are unordered with respect to each other, so only a partial token order
// exists within each group.
const partialOrderIR = `package test

chan in(bits[32], id=0, kind=streaming, ops=receive_only, flow_control=ready_valid, strictness=%s, metadata="")
chan out(bits[32], id=1, kind=streaming, ops=send_only, flow_control=ready_valid, strictness=%s, metadata="")
chan pred(bits[2], id=2, kind=streaming, ops=receive_only, flow_control=ready_valid, metadata="")

top proc my_proc(tok: token, init={}) {
  pred_recv: (token, bits[2]) = receive(tok, channel_id=2)
  pred_token: token = tuple_index(pred_recv, index=0)
  pred_data: bits[2] = tuple_index(pred_recv, index=1)
  pred0: bits[1] = bit_slice(pred_data, start=0, width=1)
  pred1: bits[1] = bit_slice(pred_data, start=1, width=1)
  recv0: (token, bits[32]) = receive(pred_token, channel_id=0)
  recv0_tok: token = tuple_index(recv0, index=0)
  recv0_data: bits[32] = tuple_index(recv0, index=1)
  recv1: (token, bits[32]) = receive(recv0_tok, predicate=pred0, channel_id=0)
  recv1_tok: token = tuple_index(recv1, index=0)
  recv1_data: bits[32] = tuple_index(recv1, index=1)
  recv2: (token, bits[32]) = receive(recv0_tok, predicate=pred1, channel_id=0)
  recv2_tok: token = tuple_index(recv2, index=0)
  recv2_data: bits[32] = tuple_index(recv2, index=1)
  all_recv_tok: token = after_all(recv0_tok, recv1_tok, recv2_tok)
  send0: token = send(all_recv_tok, recv0_data, channel_id=1)
  send1: token = send(send0, recv1_data, predicate=pred0, channel_id=1)
  send2: token = send(send0, recv2_data, predicate=pred1, channel_id=1)
  all_send_tok: token = after_all(send0, send1, send2)
  next (all_send_tok)
}
`

// One unpredicated receive followed by one whose predicate depends on the
// first value received, then the mirrored pair of sends.
const dataDependentIR = `package test

chan in(bits[32], id=0, kind=streaming, ops=receive_only, flow_control=ready_valid, strictness=%s, metadata="")
chan out(bits[32], id=1, kind=streaming, ops=send_only, flow_control=ready_valid, strictness=%s, metadata="")

top proc test_proc(tok: token, init={}) {
  in_recv0: (token, bits[32]) = receive(tok, channel_id=0)
  in_recv0_token: token = tuple_index(in_recv0, index=0)
  in_recv0_data: bits[32] = tuple_index(in_recv0, index=1)
  comp_data: bits[32] = literal(value=5)
  in_recv1_pred: bits[1] = ugt(in_recv0_data, comp_data)
  in_recv1: (token, bits[32]) = receive(in_recv0_token, predicate=in_recv1_pred, channel_id=0)
  in_recv1_token: token = tuple_index(in_recv1, index=0)
  in_recv1_data: bits[32] = tuple_index(in_recv1, index=1)
  data_to_send: bits[32] = add(in_recv0_data, in_recv1_data)
  out_send0: token = send(in_recv1_token, data_to_send, channel_id=1)
  out_send1: token = send(out_send0, data_to_send, predicate=in_recv1_pred, channel_id=1)
  next (out_send1)
}
`

func iota32() []uint64 {
	vals := make([]uint64, 32)
	for i := range vals {
		vals[i] = uint64(i)
	}
	return vals
}

func TestScenario_InterleavedOps_OrderedPolicies(t *testing.T) {
	for _, strictness := range []string{"total_order", "runtime_ordered", "arbitrary_static_order"} {
		t.Run(strictness, func(t *testing.T) {
			src := fmt.Sprintf(interleaveIR, strictness, strictness)
			pkg := testutil.MustParsePackage(t, src)
			testutil.MustLegalize(t, pkg)

			rt, err := New(pkg)
			require.NoError(t, err)
			feed(t, rt, "in", iota32()...)

			_, err = rt.TickUntilOutput(map[string]int64{"out": 32}, 200)
			require.NoError(t, err)

			want := make([]uint64, 0, 32)
			for i := uint64(0); i < 32; i += 2 {
				want = append(want, i+1, i)
			}
			assert.Equal(t, want, drain(t, rt, "out"))
		})
	}
}

func TestScenario_InterleavedOps_RuntimeMutuallyExclusiveAborts(t *testing.T) {
	src := fmt.Sprintf(interleaveIR, "runtime_mutually_exclusive", "runtime_mutually_exclusive")
	pkg := testutil.MustParsePackage(t, src)
	testutil.MustLegalize(t, pkg)

	rt, err := New(pkg)
	require.NoError(t, err)
	feed(t, rt, "in", iota32()...)

	_, err = rt.TickUntilOutput(map[string]int64{"out": 32}, 200)
	require.Error(t, err)
	assert.True(t, IsViolation(err))
	assert.ErrorContains(t, err, "predicate was not mutually exclusive")
}

func TestScenario_InterleavedOps_ProofRejectsUnpredicatedOps(t *testing.T) {
	src := fmt.Sprintf(interleaveIR, "proven_mutually_exclusive", "proven_mutually_exclusive")
	pkg := testutil.MustParsePackage(t, src)

	_, err := passes.NewPipeline(passes.ChannelLegalization{}).Run(pkg)
	require.Error(t, err)
	_, ok := passes.IsLegalizationError(err)
	assert.True(t, ok)
	assert.ErrorContains(t, err, "not proven mutually exclusive")
}

func TestScenario_AlternatingProcs_AllPolicies(t *testing.T) {
	for _, strictness := range []string{
		"proven_mutually_exclusive",
		"runtime_mutually_exclusive",
		"total_order",
		"runtime_ordered",
		"arbitrary_static_order",
	} {
		t.Run(strictness, func(t *testing.T) {
			src := fmt.Sprintf(alternateIR, strictness, strictness)
			pkg := testutil.MustParsePackage(t, src)
			testutil.MustLegalize(t, pkg)

			rt, err := New(pkg)
			require.NoError(t, err)
			feed(t, rt, "in", iota32()...)

			_, err = rt.TickUntilOutput(map[string]int64{"out": 32}, 200)
			require.NoError(t, err)
			assert.Equal(t, iota32(), drain(t, rt, "out"))
		})
	}
}

func TestScenario_AlternatingProcs_ProofMarksChannels(t *testing.T) {
	src := fmt.Sprintf(alternateIR, "proven_mutually_exclusive", "proven_mutually_exclusive")
	pkg := testutil.MustParsePackage(t, src)
	testutil.MustLegalize(t, pkg)

	// Toggle-state induction proves exclusivity statically: no adapters,
	// no internal channels.
	assert.Len(t, pkg.Channels, 2)
	assert.Len(t, pkg.Procs, 2)
	for _, ch := range pkg.Channels {
		assert.True(t, ch.Proven, "channel %s", ch.Name)
	}
}

func TestScenario_PredicatedSends_StarvedPredicateDeadlocks(t *testing.T) {
	pkg := testutil.MustParsePackage(t, predicatedSendsIR)
	testutil.MustLegalize(t, pkg)

	rt, err := New(pkg)
	require.NoError(t, err)

	feed(t, rt, "pred1", 1)
	_, err = rt.TickUntilOutput(map[string]int64{"out": 1}, 20)
	require.Error(t, err)
	assert.True(t, IsDeadlock(err))
	assert.ErrorContains(t, err, "Blocked channels: pred0")

	// Supplying the starved predicate unblocks the proc; both predicated
	// sends fire in token order.
	feed(t, rt, "pred0", 1)
	_, err = rt.TickUntilOutput(map[string]int64{"out": 2}, 20)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, drain(t, rt, "out"))
}

func TestScenario_PredicatedSends_FalsePredicatesSkipSends(t *testing.T) {
	pkg := testutil.MustParsePackage(t, predicatedSendsIR)
	testutil.MustLegalize(t, pkg)

	rt, err := New(pkg)
	require.NoError(t, err)

	// First activation: both predicates false, nothing emitted. Second:
	// both true, values 0 then 1.
	feed(t, rt, "pred1", 0, 1)
	feed(t, rt, "pred0", 0, 1)
	_, err = rt.TickUntilOutput(map[string]int64{"out": 2}, 20)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, drain(t, rt, "out"))
}

func TestScenario_PartialOrder_TotalOrderRejected(t *testing.T) {
	src := fmt.Sprintf(partialOrderIR, "total_order", "total_order")
	pkg := testutil.MustParsePackage(t, src)

	// recv1 and recv2 both hang off recv0's token with no path between
	// them, and likewise send1/send2 off send0.
	_, err := passes.NewPipeline(passes.ChannelLegalization{}).Run(pkg)
	require.Error(t, err)
	_, ok := passes.IsLegalizationError(err)
	assert.True(t, ok)
	assert.ErrorContains(t, err, "is not totally ordered")
	assert.ErrorContains(t, err, "recv1 and recv2")
}

func TestScenario_PartialOrder_OrderedRuntimePolicies(t *testing.T) {
	// The unpredicated port always fires; each predicate bit adds one more
	// receive/send pair pulling the next queued input. Within a tick the
	// token chain releases one request at a time, so both policies serve
	// the three ports in the same order.
	cases := []struct {
		name string
		pred uint64
		want []uint64
	}{
		{"neither", 0, []uint64{0}},
		{"first", 1, []uint64{0, 1}},
		{"second", 2, []uint64{0, 1}},
		{"both", 3, []uint64{0, 1, 2}},
	}
	for _, strictness := range []string{"runtime_ordered", "arbitrary_static_order"} {
		for _, tt := range cases {
			t.Run(strictness+"/"+tt.name, func(t *testing.T) {
				src := fmt.Sprintf(partialOrderIR, strictness, strictness)
				pkg := testutil.MustParsePackage(t, src)
				testutil.MustLegalize(t, pkg)

				rt, err := New(pkg)
				require.NoError(t, err)
				feed(t, rt, "in", 0, 1, 2)
				feed(t, rt, "pred", tt.pred)

				_, err = rt.TickUntilOutput(map[string]int64{"out": int64(len(tt.want))}, 20)
				require.NoError(t, err)
				assert.Equal(t, tt.want, drain(t, rt, "out"))
			})
		}
	}
}

func TestScenario_PartialOrder_RuntimeMutuallyExclusive(t *testing.T) {
	src := fmt.Sprintf(partialOrderIR, "runtime_mutually_exclusive", "runtime_mutually_exclusive")

	t.Run("only unpredicated port fires", func(t *testing.T) {
		pkg := testutil.MustParsePackage(t, src)
		testutil.MustLegalize(t, pkg)

		rt, err := New(pkg)
		require.NoError(t, err)
		feed(t, rt, "in", 0, 1, 2)
		feed(t, rt, "pred", 0)

		_, err = rt.TickUntilOutput(map[string]int64{"out": 1}, 20)
		require.NoError(t, err)
		assert.Equal(t, []uint64{0}, drain(t, rt, "out"))
	})

	// The unpredicated receive counts as a grant, so enabling either
	// predicated port in the same activation violates exclusivity.
	t.Run("second grant aborts", func(t *testing.T) {
		pkg := testutil.MustParsePackage(t, src)
		testutil.MustLegalize(t, pkg)

		rt, err := New(pkg)
		require.NoError(t, err)
		feed(t, rt, "in", 0, 1, 2)
		feed(t, rt, "pred", 1)

		_, err = rt.TickUntilOutput(map[string]int64{"out": 2}, 20)
		require.Error(t, err)
		assert.True(t, IsViolation(err))
		assert.ErrorContains(t, err, "predicate was not mutually exclusive")
	})
}

func TestScenario_DataDependentReceive_OrderedPolicies(t *testing.T) {
	// Values at most 5 pass straight through. A larger value enables the
	// second receive, which consumes the following input, and the sum of
	// the pair is emitted twice.
	want := []uint64{0, 1, 2, 3, 4, 5}
	for i := uint64(6); i < 20; i += 2 {
		sum := i + i + 1
		want = append(want, sum, sum)
	}

	for _, strictness := range []string{"total_order", "runtime_ordered", "arbitrary_static_order"} {
		t.Run(strictness, func(t *testing.T) {
			src := fmt.Sprintf(dataDependentIR, strictness, strictness)
			pkg := testutil.MustParsePackage(t, src)
			testutil.MustLegalize(t, pkg)

			rt, err := New(pkg)
			require.NoError(t, err)
			feed(t, rt, "in", iota32()[:20]...)

			_, err = rt.TickUntilOutput(map[string]int64{"out": int64(len(want))}, 50)
			require.NoError(t, err)
			assert.Equal(t, want, drain(t, rt, "out"))
		})
	}
}

func TestScenario_DataDependentReceive_RuntimeMutuallyExclusiveAborts(t *testing.T) {
	src := fmt.Sprintf(dataDependentIR, "runtime_mutually_exclusive", "runtime_mutually_exclusive")
	pkg := testutil.MustParsePackage(t, src)
	testutil.MustLegalize(t, pkg)

	rt, err := New(pkg)
	require.NoError(t, err)
	feed(t, rt, "in", iota32()[:20]...)

	// Values up to 5 pass through with the second port idle; the first
	// value above 5 enables it alongside the unpredicated port.
	_, err = rt.TickUntilOutput(map[string]int64{"out": 20}, 50)
	require.Error(t, err)
	assert.True(t, IsViolation(err))
	assert.ErrorContains(t, err, "predicate was not mutually exclusive")
	assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5}, drain(t, rt, "out"))
}
