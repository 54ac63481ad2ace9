package ir

import "fmt"

// Param is one state element of a process. The first parameter is
// conventionally the process's token; data parameters carry an initial value
// from the declaration's init list.
type Param struct {
	Name string
	Type Type
	Init Value
}

// Proc is a named, persistent state machine: a set of state elements bound
// fresh each activation and an operation graph executed once per tick,
// terminated by a next() that selects the following activation's state.
//
// Adapter processes synthesized by legalization carry an Adapter description
// instead of an operation graph; their arbitration behavior is executed
// natively by the interpreter.
type Proc struct {
	Name   string
	Params []Param
	Nodes  []Node

	// Next holds the next() terminator operands, aligned with Params:
	// Next[0] is the recurrence token, Next[i] the next value of Params[i].
	Next []int

	Adapter *Adapter
}

// IsAdapter reports whether the process is a synthesized arbitration
// adapter rather than a graph process.
func (p *Proc) IsAdapter() bool {
	return p.Adapter != nil
}

// AppendNode adds a node to the arena and returns its index.
func (p *Proc) AppendNode(n Node) int {
	p.Nodes = append(p.Nodes, n)
	return len(p.Nodes) - 1
}

// Node returns the node at the given index.
func (p *Proc) Node(idx int) *Node {
	return &p.Nodes[idx]
}

// NodeByName finds a node by name, or -1.
func (p *Proc) NodeByName(name string) int {
	for i := range p.Nodes {
		if p.Nodes[i].Name == name {
			return i
		}
	}
	return -1
}

// Validate checks the structural invariants of a graph process: operand
// indices in range, unique node names, a well-formed next() terminator, and
// an acyclic operand graph.
func (p *Proc) Validate() error {
	if p.IsAdapter() {
		return nil
	}
	names := make(map[string]bool, len(p.Nodes))
	for i := range p.Nodes {
		n := &p.Nodes[i]
		if n.Name != "" {
			if names[n.Name] {
				return &GraphError{Proc: p.Name, Node: n.Name, Message: "duplicate node name"}
			}
			names[n.Name] = true
		}
		for _, op := range n.Operands() {
			if op < 0 || op >= len(p.Nodes) {
				return &GraphError{Proc: p.Name, Node: n.Name, Message: fmt.Sprintf("operand index %d out of range", op)}
			}
		}
		if n.Kind == OpParam && (n.Param < 0 || n.Param >= len(p.Params)) {
			return &GraphError{Proc: p.Name, Node: n.Name, Message: fmt.Sprintf("param index %d out of range", n.Param)}
		}
	}
	if len(p.Next) != len(p.Params) {
		return &GraphError{Proc: p.Name, Message: fmt.Sprintf("next() has %d operands for %d state elements", len(p.Next), len(p.Params))}
	}
	for _, idx := range p.Next {
		if idx < 0 || idx >= len(p.Nodes) {
			return &GraphError{Proc: p.Name, Message: fmt.Sprintf("next() operand index %d out of range", idx)}
		}
	}
	if _, err := p.TopoOrder(); err != nil {
		return err
	}
	return nil
}
