package compiler

import "fmt"

// MemoryKind tags where an Address's value lives.
type MemoryKind uint8

const (
	// MemoryRegister addresses live in the function's register file.
	MemoryRegister MemoryKind = iota
	// MemoryConstant addresses index into the constant table.
	MemoryConstant
	// MemoryEncoded addresses carry their value directly in the index
	// field — used for booleans and bytes, which always fit in 16 bits and
	// so never need to be interned.
	MemoryEncoded
)

func (k MemoryKind) String() string {
	switch k {
	case MemoryRegister:
		return "register"
	case MemoryConstant:
		return "constant"
	case MemoryEncoded:
		return "encoded"
	default:
		return fmt.Sprintf("<invalid memory kind %d>", uint8(k))
	}
}

// Address is a tagged reference to either a register, a constant-table
// index, or an inline-encoded small value.
type Address struct {
	Kind  MemoryKind
	Index uint32
}

func (a Address) String() string {
	return fmt.Sprintf("%s(%d)", a.Kind, a.Index)
}

// RegisterAddress builds an Address referring to register r.
func RegisterAddress(r uint16) Address {
	return Address{Kind: MemoryRegister, Index: uint32(r)}
}

// ConstantAddress builds an Address referring to constant-table index idx.
func ConstantAddress(idx uint32) Address {
	return Address{Kind: MemoryConstant, Index: idx}
}

// EncodedAddress builds an Address whose value is carried inline.
func EncodedAddress(value uint16) Address {
	return Address{Kind: MemoryEncoded, Index: uint32(value)}
}

// BooleanAddress encodes a boolean constant inline, never touching the
// constant table.
func BooleanAddress(b bool) Address {
	if b {
		return EncodedAddress(1)
	}
	return EncodedAddress(0)
}

// ByteAddress encodes a byte constant inline, never touching the constant
// table.
func ByteAddress(b byte) Address {
	return EncodedAddress(uint16(b))
}

// Register returns a's register index. It is only meaningful when
// a.Kind == MemoryRegister.
func (a Address) Register() uint16 { return uint16(a.Index) }
