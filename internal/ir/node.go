package ir

import "fmt"

// OpKind identifies an operation node. The set is closed; the interpreter
// and printer switch over it exhaustively.
type OpKind int

const (
	// OpParam reads a process state element (token or data).
	OpParam OpKind = iota
	// OpLiteral produces a constant value.
	OpLiteral
	// OpReceive reads a value from a channel. Result is (token, bits[w]).
	OpReceive
	// OpSend writes a value to a channel. Result is a token.
	OpSend
	// OpTupleIndex projects one element of a tuple-typed operand.
	OpTupleIndex
	// OpAfterAll merges tokens, preserving all happens-before edges.
	OpAfterAll
	// OpNot is bitwise complement, used to compute predicates.
	OpNot
	// OpAdd is addition truncated to the operand width.
	OpAdd
	// OpUGt is unsigned greater-than, producing bits[1].
	OpUGt
	// OpBitSlice extracts a bit range.
	OpBitSlice
)

var opNames = map[OpKind]string{
	OpParam:      "param",
	OpLiteral:    "literal",
	OpReceive:    "receive",
	OpSend:       "send",
	OpTupleIndex: "tuple_index",
	OpAfterAll:   "after_all",
	OpNot:        "not",
	OpAdd:        "add",
	OpUGt:        "ugt",
	OpBitSlice:   "bit_slice",
}

func (k OpKind) String() string {
	if n, ok := opNames[k]; ok {
		return n
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// NoPredicate is the Predicate field value of an unpredicated operation.
const NoPredicate = -1

// Node is one operation in a process's arena. Operand references are indices
// into the owning process's node slice. Side-effecting nodes (send, receive)
// consume the token operand Args[0] and produce a token, threading the
// partial order.
//
// Field usage by kind:
//
//	param:       Param (state element index)
//	literal:     Value
//	receive:     Args[0]=token, ChannelID, optional Predicate
//	send:        Args[0]=token, Args[1]=data, ChannelID, optional Predicate
//	tuple_index: Args[0]=tuple operand, Index
//	after_all:   Args = token operands
//	not:         Args[0]
//	add, ugt:    Args[0], Args[1]
//	bit_slice:   Args[0], Start, SliceWidth
type Node struct {
	Name string
	Kind OpKind
	Type Type

	Args      []int
	Predicate int // node index, or NoPredicate

	ChannelID  int64
	Value      Value
	Index      int
	Start      int
	SliceWidth int
	Param      int
}

// Operands returns all operand indices including the predicate, for graph
// traversal. The returned slice must not be mutated.
func (n *Node) Operands() []int {
	if n.Predicate == NoPredicate {
		return n.Args
	}
	ops := make([]int, 0, len(n.Args)+1)
	ops = append(ops, n.Args...)
	ops = append(ops, n.Predicate)
	return ops
}

// IsChannelOp reports whether the node touches a channel queue.
func (n *Node) IsChannelOp() bool {
	return n.Kind == OpReceive || n.Kind == OpSend
}
