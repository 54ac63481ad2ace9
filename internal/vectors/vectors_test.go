package vectors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-hdl/weft/internal/testutil"
)

const passthroughIR = `package test

chan in(bits[32], id=0, kind=streaming, ops=receive_only, flow_control=ready_valid, metadata="")
chan out(bits[32], id=1, kind=streaming, ops=send_only, flow_control=ready_valid, metadata="")

top proc main(tok: token, init={}) {
  recv: (token, bits[32]) = receive(tok, channel_id=0)
  recv_tok: token = tuple_index(recv, index=0)
  recv_data: bits[32] = tuple_index(recv, index=1)
  send: token = send(recv_tok, recv_data, channel_id=1)
  next (send)
}
`

const interleaveIR = `package test

chan in(bits[32], id=0, kind=streaming, ops=receive_only, flow_control=ready_valid, strictness=total_order, metadata="")
chan out(bits[32], id=1, kind=streaming, ops=send_only, flow_control=ready_valid, strictness=total_order, metadata="")

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

func TestLoad(t *testing.T) {
	v, err := Load(filepath.Join("testdata", "passthrough.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "passthrough", v.Name)
	assert.False(t, v.Legalize)
	assert.Equal(t, []uint64{10, 20, 30}, v.Inputs["in"])
	assert.Equal(t, []uint64{10, 20, 30}, v.Expect["out"])
	assert.Equal(t, int64(50), v.MaxTicks)
}

func TestLoad_DefaultsMaxTicks(t *testing.T) {
	v, err := Load(filepath.Join("testdata", "interleave.yaml"))
	require.NoError(t, err)
	assert.True(t, v.Legalize)
	assert.Equal(t, int64(DefaultMaxTicks), v.MaxTicks)
}

func TestLoad_Invalid(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "v.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
	t.Run("missing name", func(t *testing.T) {
		_, err := Load(write(t, "expect:\n  out: [1]\n"))
		assert.ErrorContains(t, err, "missing name")
	})
	t.Run("no expectations", func(t *testing.T) {
		_, err := Load(write(t, "name: x\ninputs:\n  in: [1]\n"))
		assert.ErrorContains(t, err, "no expected outputs")
	})
	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(write(t, "name: [unclosed\n"))
		assert.Error(t, err)
	})
}

func TestLoadDir(t *testing.T) {
	vs, err := LoadDir("testdata")
	require.NoError(t, err)
	require.Len(t, vs, 2)
	// Sorted by file name, not vector name.
	assert.Equal(t, "interleave", vs[0].Name)
	assert.Equal(t, "passthrough", vs[1].Name)
}

func TestRun_Passthrough(t *testing.T) {
	v, err := Load(filepath.Join("testdata", "passthrough.yaml"))
	require.NoError(t, err)

	pkg := testutil.MustParsePackage(t, passthroughIR)
	res, err := Run(pkg, v)
	require.NoError(t, err)
	require.NoError(t, res.Verify(v))
	assert.Equal(t, []uint64{10, 20, 30}, res.Outputs["out"])
	assert.Greater(t, res.Ticks, int64(0))
}

func TestRun_LegalizesWhenRequested(t *testing.T) {
	v, err := Load(filepath.Join("testdata", "interleave.yaml"))
	require.NoError(t, err)

	pkg := testutil.MustParsePackage(t, interleaveIR)
	res, err := Run(pkg, v)
	require.NoError(t, err)
	require.NoError(t, res.Verify(v))

	// Legalization mutated the package in place.
	assert.Greater(t, len(pkg.Channels), 2)
}

func TestRun_UnknownInputChannel(t *testing.T) {
	v := &Vector{
		Name:     "bad",
		Inputs:   map[string][]uint64{"ghost": {1}},
		Expect:   map[string][]uint64{"out": {1}},
		MaxTicks: 10,
	}
	pkg := testutil.MustParsePackage(t, passthroughIR)
	_, err := Run(pkg, v)
	assert.ErrorContains(t, err, "ghost")
}

func TestVerify_Mismatch(t *testing.T) {
	v := &Vector{
		Name:   "m",
		Expect: map[string][]uint64{"out": {1, 2}},
	}

	t.Run("wrong value", func(t *testing.T) {
		res := &Result{Outputs: map[string][]uint64{"out": {1, 3}}}
		err := res.Verify(v)
		assert.ErrorContains(t, err, "value 1: got 3, want 2")
	})
	t.Run("missing values", func(t *testing.T) {
		res := &Result{Outputs: map[string][]uint64{"out": {1}}}
		err := res.Verify(v)
		assert.ErrorContains(t, err, "got 1 values, want 2")
	})
	t.Run("extra values", func(t *testing.T) {
		res := &Result{Outputs: map[string][]uint64{"out": {1, 2, 3}}}
		assert.Error(t, res.Verify(v))
	})
	t.Run("exact", func(t *testing.T) {
		res := &Result{Outputs: map[string][]uint64{"out": {1, 2}}}
		assert.NoError(t, res.Verify(v))
	})
}
