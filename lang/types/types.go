// Package types implements Dust's static type system: the small set of
// primitive and composite types a program's declarations and expressions
// carry, and the OperandType lattice the compiler uses to pick an
// instruction variant. Type inference beyond local propagation along
// emission paths, and generic instantiation, are not implemented here (see
// the compiler package's non-goals).
package types

import "fmt"

// TypeId is an opaque reference into a Resolver's type table. Two
// expressions share a TypeId if and only if the resolver proved they have
// the same type.
type TypeId uint32

// Well-known type ids, always present regardless of what a particular
// program declares. The resolver is free to allocate TypeId values above
// these for composite types (lists, functions).
const (
	NONE TypeId = iota
	BOOLEAN
	BYTE
	CHARACTER
	FLOAT
	INTEGER
	STRING

	firstDynamicTypeId
)

// Kind discriminates the shape of a Type: primitive, list, or function.
type Kind uint8

const (
	KindNone Kind = iota
	KindBoolean
	KindByte
	KindCharacter
	KindFloat
	KindInteger
	KindString
	KindList
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBoolean:
		return "bool"
	case KindByte:
		return "byte"
	case KindCharacter:
		return "char"
	case KindFloat:
		return "float"
	case KindInteger:
		return "int"
	case KindString:
		return "str"
	case KindList:
		return "list"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("<invalid kind %d>", k)
	}
}

// Type is the fully resolved semantic type of a declaration or expression.
// For KindList, Element names the element type; for KindFunction,
// Parameters and Return describe the signature.
type Type struct {
	Kind       Kind
	Element    TypeId
	Parameters []TypeId
	Return     TypeId
}

func (t Type) String() string {
	switch t.Kind {
	case KindList:
		return fmt.Sprintf("list<%d>", t.Element)
	case KindFunction:
		return fmt.Sprintf("fn(%v) -> %d", t.Parameters, t.Return)
	default:
		return t.Kind.String()
	}
}

// OperandType names the runtime representation flowing through an
// instruction operand. It is not a semantic Type: it exists purely to pick
// an instruction variant (e.g. ADD on OperandType INTEGER vs FLOAT), and
// several distinct Types (every list-of-T) may share one OperandType family
// member while still being distinguished by the LIST_<element> tag.
type OperandType uint8

const (
	OperandNone OperandType = iota
	OperandBoolean
	OperandByte
	OperandCharacter
	OperandFloat
	OperandInteger
	OperandString
	OperandFunction

	// Mixed-operand concatenation tags: a CHARACTER combined with a STRING
	// (in either order) produces a STRING result, but the instruction must
	// know which side was which to index the correct operand.
	OperandStringCharacter
	OperandCharacterString

	// OperandListBase + an element OperandType gives the LIST_<element> tag
	// for a list of that element type, e.g. OperandListBase+OperandInteger
	// is LIST_INTEGER.
	OperandListBase
)

// ListOperandType returns the LIST_<element> operand type tag for a list
// whose elements have the given element operand type.
func ListOperandType(element OperandType) OperandType {
	return OperandListBase + element
}

func (o OperandType) String() string {
	switch {
	case o == OperandNone:
		return "none"
	case o == OperandBoolean:
		return "boolean"
	case o == OperandByte:
		return "byte"
	case o == OperandCharacter:
		return "character"
	case o == OperandFloat:
		return "float"
	case o == OperandInteger:
		return "integer"
	case o == OperandString:
		return "string"
	case o == OperandFunction:
		return "function"
	case o == OperandStringCharacter:
		return "string_character"
	case o == OperandCharacterString:
		return "character_string"
	case o >= OperandListBase:
		return fmt.Sprintf("list_%s", (o - OperandListBase).String())
	default:
		return fmt.Sprintf("<invalid operand type %d>", uint8(o))
	}
}

// OperandTypeOf maps a resolved Type's Kind to the OperandType the compiler
// threads through instructions for values of that type.
func OperandTypeOf(resolve func(TypeId) (Type, bool), id TypeId) (OperandType, bool) {
	t, ok := resolve(id)
	if !ok {
		return OperandNone, false
	}
	switch t.Kind {
	case KindNone:
		return OperandNone, true
	case KindBoolean:
		return OperandBoolean, true
	case KindByte:
		return OperandByte, true
	case KindCharacter:
		return OperandCharacter, true
	case KindFloat:
		return OperandFloat, true
	case KindInteger:
		return OperandInteger, true
	case KindString:
		return OperandString, true
	case KindFunction:
		return OperandFunction, true
	case KindList:
		elem, ok := OperandTypeOf(resolve, t.Element)
		if !ok {
			return OperandNone, false
		}
		return ListOperandType(elem), true
	default:
		return OperandNone, false
	}
}
