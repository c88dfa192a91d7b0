package compiler

import "github.com/solaeus/dust/lang/types"

// EmissionKind discriminates the shapes an expression's compiled result can
// take before it is placed into a target register.
type EmissionKind uint8

const (
	// EmissionNone: the expression produced no value (e.g. a let statement).
	EmissionNone EmissionKind = iota
	// EmissionConstant: the value is already sitting at a known Address and
	// needs no instructions to materialize — only, perhaps, a MOVE if the
	// caller demands a specific register.
	EmissionConstant
	// EmissionLocal: the value already lives in a named local's register.
	EmissionLocal
	// EmissionFunction: a reference to a function prototype, not yet placed
	// at a call site.
	EmissionFunction
	// EmissionInstructions: the expression emitted one or more instructions
	// that write their result into Register.
	EmissionInstructions
)

// Emission is the tagged union every expression-compiling function
// returns. Only the fields documented for Kind are meaningful.
// OperandType is populated for every kind except EmissionNone/
// EmissionFunction, so a caller can always place the value into a target
// register without having to re-derive its operand type from the syntax
// tree.
type Emission struct {
	Kind        EmissionKind
	OperandType types.OperandType

	// EmissionConstant
	ConstantAddress Address

	// EmissionLocal
	LocalRegister uint16
	LocalMutable  bool

	// EmissionFunction
	PrototypeIndex uint32

	// EmissionInstructions: the instructions have already been appended to
	// the function compiler's instruction stream; Register names where
	// their result landed.
	Register uint16
}

// NoneEmission is the result of compiling something that yields no value.
func NoneEmission() Emission { return Emission{Kind: EmissionNone} }

// ConstantEmission wraps an already-known Address — a literal that needed
// no instructions, or an inline ENCODED boolean/byte.
func ConstantEmission(addr Address, opType types.OperandType) Emission {
	return Emission{Kind: EmissionConstant, ConstantAddress: addr, OperandType: opType}
}

// LocalEmission wraps a reference to a named local already resident in a
// register.
func LocalEmission(register uint16, mutable bool, opType types.OperandType) Emission {
	return Emission{Kind: EmissionLocal, LocalRegister: register, LocalMutable: mutable, OperandType: opType}
}

// FunctionEmission wraps a reference to a compiled-or-reserved function
// prototype.
func FunctionEmission(prototypeIndex uint32) Emission {
	return Emission{Kind: EmissionFunction, PrototypeIndex: prototypeIndex}
}

// InstructionsEmission wraps the common case: instructions were emitted
// and wrote their result into register.
func InstructionsEmission(register uint16, opType types.OperandType) Emission {
	return Emission{Kind: EmissionInstructions, Register: register, OperandType: opType}
}

// Address reports the Address an already-materialized Emission occupies,
// used by callers that only need to read the value (e.g. as an operand to
// a binary instruction) without forcing a MOVE into a fresh register. It
// is not meaningful for EmissionInstructions results that still need a
// target register assigned by the caller — use TargetRegister for those.
func (e Emission) Address() (Address, bool) {
	switch e.Kind {
	case EmissionConstant:
		return e.ConstantAddress, true
	case EmissionLocal:
		return RegisterAddress(e.LocalRegister), true
	case EmissionInstructions:
		return RegisterAddress(e.Register), true
	default:
		return Address{}, false
	}
}

// TargetRegister reports the register an Emission's value already sits in,
// if any — used to decide whether placing it into a caller-requested
// target register can be elided: if the value already sits where the
// caller wants it, skip the MOVE.
func (e Emission) TargetRegister() (uint16, bool) {
	switch e.Kind {
	case EmissionLocal:
		return e.LocalRegister, true
	case EmissionInstructions:
		return e.Register, true
	default:
		return 0, false
	}
}
