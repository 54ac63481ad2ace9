package ir

import "fmt"

// Type describes the result type of an operation node.
// The closed set is: token, bits[N], and tuples of those.
type Type interface {
	fmt.Stringer
	isType()
}

// TokenType is the type of ordering tokens. Tokens carry no data.
type TokenType struct{}

func (TokenType) isType()        {}
func (TokenType) String() string { return "token" }

// BitsType is a fixed-width bit vector type.
type BitsType struct {
	Width int
}

func (BitsType) isType()          {}
func (t BitsType) String() string { return fmt.Sprintf("bits[%d]", t.Width) }

// TupleType is a tuple of element types. The empty tuple "()" is the unit
// type used for stateless process state.
type TupleType struct {
	Elems []Type
}

func (TupleType) isType() {}

func (t TupleType) String() string {
	s := "("
	for i, e := range t.Elems {
		if i > 0 {
			s += ", "
		}
		s += e.String()
	}
	return s + ")"
}

// ZeroValue returns the zero value of a type. Tokens and tuples are
// represented as zero-width values; tuple-typed state never carries data in
// this core.
func ZeroValue(t Type) Value {
	if b, ok := t.(BitsType); ok {
		return Zero(b.Width)
	}
	return Unit()
}
