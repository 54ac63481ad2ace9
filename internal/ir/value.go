package ir

import "fmt"

// Value is a fixed-width bit vector. Widths above 64 bits are not modeled;
// the numeric semantics of arithmetic operators are out of scope here and
// only the comparisons and bit operations needed for predicates are defined.
//
// A zero-width Value doubles as the unit value (the empty-tuple state some
// processes carry) and as the payload of a bare token.
type Value struct {
	Bits  uint64
	Width int
}

// UBits constructs a Value from an unsigned integer and a bit width.
// Bits outside the width are masked off so equality is well defined.
func UBits(bits uint64, width int) Value {
	return Value{Bits: mask(bits, width), Width: width}
}

// Unit returns the zero-width value.
func Unit() Value {
	return Value{}
}

// Zero returns the all-zeros value of the given width.
func Zero(width int) Value {
	return Value{Width: width}
}

// Equal reports whether two values have the same width and bits.
func (v Value) Equal(o Value) bool {
	return v.Width == o.Width && v.Bits == o.Bits
}

// IsTrue reports whether the value is nonzero. Predicates are 1-bit values;
// any nonzero bit pattern counts as true.
func (v Value) IsTrue() bool {
	return v.Bits != 0
}

// Slice extracts width bits starting at the given bit offset.
func (v Value) Slice(start, width int) Value {
	return UBits(v.Bits>>uint(start), width)
}

// Not returns the bitwise complement within the value's width.
func (v Value) Not() Value {
	return UBits(^v.Bits, v.Width)
}

// Add returns the sum, truncated to the receiver's width.
func (v Value) Add(o Value) Value {
	return UBits(v.Bits+o.Bits, v.Width)
}

// UGt returns a 1-bit value reporting unsigned v > o.
func (v Value) UGt(o Value) Value {
	if v.Bits > o.Bits {
		return UBits(1, 1)
	}
	return UBits(0, 1)
}

func (v Value) String() string {
	return fmt.Sprintf("bits[%d]:%d", v.Width, v.Bits)
}

func mask(bits uint64, width int) uint64 {
	if width <= 0 {
		return 0
	}
	if width >= 64 {
		return bits
	}
	return bits & ((1 << uint(width)) - 1)
}
