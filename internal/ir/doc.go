// Package ir defines the proc-network intermediate representation: typed
// channels, persistent processes, and per-process operation graphs ordered by
// tokens.
//
// The representation is arena-indexed: a process owns a flat slice of
// operation nodes and every operand reference is an index into that slice.
// Acyclicity of the operand graph is an invariant checked once at
// construction (Proc.Validate), not re-derived per query.
//
// Topology is immutable after construction with one exception: the channel
// legalization pass may append adapter processes and internal channels and
// rewire the channel references of existing nodes. All such mutation happens
// before interpretation begins. The interpreter mutates only queue contents
// and per-process state, never the graph.
package ir
