package compiler

import (
	"fmt"

	"github.com/solaeus/dust/lang/types"
)

// Operation names the register-machine opcode an Instruction performs.
// Unlike a stack-machine opcode, none of these operations push or pop an
// operand stack — every operand and result is an explicit register or
// constant Address.
type Operation uint8

const (
	NoOp Operation = iota
	Move
	Add
	Subtract
	Multiply
	Divide
	Modulo
	Power
	Equal
	Less
	LessEqual
	Negate
	ToString
	Test
	Jump
	NewList
	SetList
	GetList
	Call
	CallNative
	Return
	Drop
)

func (op Operation) String() string {
	switch op {
	case NoOp:
		return "NO_OP"
	case Move:
		return "MOVE"
	case Add:
		return "ADD"
	case Subtract:
		return "SUBTRACT"
	case Multiply:
		return "MULTIPLY"
	case Divide:
		return "DIVIDE"
	case Modulo:
		return "MODULO"
	case Power:
		return "POWER"
	case Equal:
		return "EQUAL"
	case Less:
		return "LESS"
	case LessEqual:
		return "LESS_EQUAL"
	case Negate:
		return "NEGATE"
	case ToString:
		return "TO_STRING"
	case Test:
		return "TEST"
	case Jump:
		return "JUMP"
	case NewList:
		return "NEW_LIST"
	case SetList:
		return "SET_LIST"
	case GetList:
		return "GET_LIST"
	case Call:
		return "CALL"
	case CallNative:
		return "CALL_NATIVE"
	case Return:
		return "RETURN"
	case Drop:
		return "DROP"
	default:
		return fmt.Sprintf("<invalid operation %d>", uint8(op))
	}
}

// NoRegister marks a destination register field as absent — used when an
// instruction's result is discarded (e.g. a CALL to a function returning
// none, or a RETURN with no value).
const NoRegister uint16 = 0xFFFF

// Instruction is a fixed-width record: one emitted bytecode instruction.
// Every Instruction carries the full field set regardless of Operation;
// only the fields documented for that Operation below are meaningful. This
// is the idiomatic-Go equivalent of the compiler's packed bitfield record —
// a plain struct of fixed size rather than a hand-rolled bit layout, since
// nothing downstream of this repository needs the bits to be physically
// packed (see DESIGN.md).
type Instruction struct {
	Operation   Operation
	A           uint16 // destination register, or NoRegister
	B           Address
	C           Address
	OperandType types.OperandType

	// MOVE / JUMP: relative displacement and direction of a coalesced jump.
	JumpDistance   uint16
	JumpIsPositive bool

	// TEST: the operand truthiness under which the jump does not fire; the
	// jump fires when the operand's truthiness differs from Comparator.
	Comparator bool

	// DROP and JUMP-with-drops: the half-open [RangeStart, RangeEnd) slice
	// of the owning Prototype's DropLists array naming which registers to
	// release — an index range, not a register range, since the
	// string-typed locals leaving scope together need not be adjacent
	// registers themselves. CALL and CALL_NATIVE reuse the same pair of
	// fields for the half-open *register* range holding the call's
	// arguments, which the calling convention requires to be contiguous.
	RangeStart uint16
	RangeEnd   uint16

	// CALL_NATIVE only: index into the native function table.
	NativeFunctionId uint16
}

func destString(a uint16) string {
	if a == NoRegister {
		return "_"
	}
	return fmt.Sprintf("R%d", a)
}

func (i Instruction) String() string {
	switch i.Operation {
	case NoOp:
		return "NO_OP"
	case Move:
		if i.JumpDistance != 0 {
			return fmt.Sprintf("MOVE %s = %s (%s) ; jump %s%d", destString(i.A), i.B, i.OperandType, jumpSign(i.JumpIsPositive), i.JumpDistance)
		}
		return fmt.Sprintf("MOVE %s = %s (%s)", destString(i.A), i.B, i.OperandType)
	case Add, Subtract, Multiply, Divide, Modulo, Power:
		return fmt.Sprintf("%s %s = %s, %s (%s)", i.Operation, destString(i.A), i.B, i.C, i.OperandType)
	case Equal, Less, LessEqual:
		return fmt.Sprintf("%s %v %s, %s (%s)", i.Operation, i.Comparator, i.B, i.C, i.OperandType)
	case Negate, ToString:
		return fmt.Sprintf("%s %s = %s (%s)", i.Operation, destString(i.A), i.B, i.OperandType)
	case Test:
		return fmt.Sprintf("TEST %s, %v ; jump %d", i.B, i.Comparator, i.JumpDistance)
	case Jump:
		if i.RangeEnd > i.RangeStart {
			return fmt.Sprintf("JUMP %s%d ; drop [%d,%d)", jumpSign(i.JumpIsPositive), i.JumpDistance, i.RangeStart, i.RangeEnd)
		}
		return fmt.Sprintf("JUMP %s%d", jumpSign(i.JumpIsPositive), i.JumpDistance)
	case NewList:
		return fmt.Sprintf("NEW_LIST %s, len=%d (%s)", destString(i.A), i.B.Index, i.OperandType)
	case SetList:
		return fmt.Sprintf("SET_LIST %s[%d] = %s (%s)", destString(i.A), i.C.Index, i.B, i.OperandType)
	case GetList:
		return fmt.Sprintf("GET_LIST %s = %s[%s] (%s)", destString(i.A), i.B, i.C, i.OperandType)
	case Call:
		return fmt.Sprintf("CALL %s = %s(args [%d,%d))", destString(i.A), i.B, i.RangeStart, i.RangeEnd)
	case CallNative:
		return fmt.Sprintf("CALL_NATIVE %s = native#%d(args [%d,%d))", destString(i.A), i.NativeFunctionId, i.RangeStart, i.RangeEnd)
	case Return:
		if i.OperandType == types.OperandNone {
			return "RETURN"
		}
		return fmt.Sprintf("RETURN %s (%s)", i.B, i.OperandType)
	case Drop:
		return fmt.Sprintf("DROP [%d,%d)", i.RangeStart, i.RangeEnd)
	default:
		return fmt.Sprintf("<invalid instruction %+v>", i)
	}
}

func jumpSign(positive bool) string {
	if positive {
		return "+"
	}
	return "-"
}

// NewNoOp builds a NO_OP, used as a placeholder instruction later
// backpatched once its real operands are known.
func NewNoOp() Instruction { return Instruction{Operation: NoOp} }

// NewMove builds a plain MOVE: dest = operand.
func NewMove(dest uint16, operand Address, opType types.OperandType) Instruction {
	return Instruction{Operation: Move, A: dest, B: operand, OperandType: opType}
}

// NewMoveWithJump builds a MOVE that also carries a jump of the given
// distance and direction, taken after the move, in place of a separate
// JUMP instruction.
func NewMoveWithJump(dest uint16, operand Address, opType types.OperandType, distance uint16, positive bool) Instruction {
	return Instruction{Operation: Move, A: dest, B: operand, OperandType: opType, JumpDistance: distance, JumpIsPositive: positive}
}

// NewTest builds a TEST: skip the next instruction unless operand's
// truthiness equals comparator.
func NewTest(operand Address, comparator bool, distance uint16) Instruction {
	return Instruction{Operation: Test, B: operand, Comparator: comparator, JumpDistance: distance}
}

// NewJump builds a standalone JUMP, used when no MOVE or TEST is available
// to coalesce it into.
func NewJump(distance uint16, positive bool) Instruction {
	return Instruction{Operation: Jump, JumpDistance: distance, JumpIsPositive: positive}
}

// NewJumpWithDrops builds a JUMP that also carries a [start,end) drop-list
// range, coalescing what would otherwise be a separate DROP instruction.
func NewJumpWithDrops(distance uint16, positive bool, start, end uint16) Instruction {
	return Instruction{Operation: Jump, JumpDistance: distance, JumpIsPositive: positive, RangeStart: start, RangeEnd: end}
}

// NewAdd, NewSubtract, NewMultiply, NewDivide, NewModulo and NewPower build
// the arithmetic instructions: dest = left OP right.
func NewAdd(dest uint16, left, right Address, opType types.OperandType) Instruction {
	return Instruction{Operation: Add, A: dest, B: left, C: right, OperandType: opType}
}
func NewSubtract(dest uint16, left, right Address, opType types.OperandType) Instruction {
	return Instruction{Operation: Subtract, A: dest, B: left, C: right, OperandType: opType}
}
func NewMultiply(dest uint16, left, right Address, opType types.OperandType) Instruction {
	return Instruction{Operation: Multiply, A: dest, B: left, C: right, OperandType: opType}
}
func NewDivide(dest uint16, left, right Address, opType types.OperandType) Instruction {
	return Instruction{Operation: Divide, A: dest, B: left, C: right, OperandType: opType}
}
func NewModulo(dest uint16, left, right Address, opType types.OperandType) Instruction {
	return Instruction{Operation: Modulo, A: dest, B: left, C: right, OperandType: opType}
}
func NewPower(dest uint16, left, right Address, opType types.OperandType) Instruction {
	return Instruction{Operation: Power, A: dest, B: left, C: right, OperandType: opType}
}

// NewEqual, NewLess and NewLessEqual build comparison instructions. They
// never write a register directly: a comparison skips the next instruction
// when its result differs from comparator, and its result surfaces either
// through the MOVE-with-jump idiom or as a conditional JUMP.
func NewEqual(comparator bool, left, right Address, opType types.OperandType) Instruction {
	return Instruction{Operation: Equal, Comparator: comparator, B: left, C: right, OperandType: opType}
}
func NewLess(comparator bool, left, right Address, opType types.OperandType) Instruction {
	return Instruction{Operation: Less, Comparator: comparator, B: left, C: right, OperandType: opType}
}
func NewLessEqual(comparator bool, left, right Address, opType types.OperandType) Instruction {
	return Instruction{Operation: LessEqual, Comparator: comparator, B: left, C: right, OperandType: opType}
}

// NewNegate builds NEGATE: dest = -operand.
func NewNegate(dest uint16, operand Address, opType types.OperandType) Instruction {
	return Instruction{Operation: Negate, A: dest, B: operand, OperandType: opType}
}

// NewToString builds TO_STRING: dest = stringify(operand).
func NewToString(dest uint16, operand Address, opType types.OperandType) Instruction {
	return Instruction{Operation: ToString, A: dest, B: operand, OperandType: opType}
}

// NewNewList builds NEW_LIST: allocate a list of the given length in dest.
// Its operand type names the list's element operand type.
func NewNewList(dest uint16, length uint16, elementOperandType types.OperandType) Instruction {
	return Instruction{Operation: NewList, A: dest, B: Address{Kind: MemoryEncoded, Index: uint32(length)}, OperandType: elementOperandType}
}

// NewSetList builds SET_LIST: list[index] = element.
func NewSetList(list uint16, element Address, index uint16, elementOperandType types.OperandType) Instruction {
	return Instruction{Operation: SetList, A: list, B: element, C: Address{Kind: MemoryEncoded, Index: uint32(index)}, OperandType: elementOperandType}
}

// NewGetList builds GET_LIST: dest = list[index].
func NewGetList(dest uint16, list, index Address, elementOperandType types.OperandType) Instruction {
	return Instruction{Operation: GetList, A: dest, B: list, C: index, OperandType: elementOperandType}
}

// NewCall builds CALL: dest = callee(registers [start,end)). dest may
// be NoRegister when the callee's return type is none.
func NewCall(dest uint16, callee Address, argsStart, argsEnd uint16) Instruction {
	return Instruction{Operation: Call, A: dest, B: callee, RangeStart: argsStart, RangeEnd: argsEnd}
}

// NewCallNative builds CALL_NATIVE: dest = natives[functionId](registers [start,end)).
func NewCallNative(dest uint16, functionId uint16, argsStart, argsEnd uint16) Instruction {
	return Instruction{Operation: CallNative, A: dest, NativeFunctionId: functionId, RangeStart: argsStart, RangeEnd: argsEnd}
}

// NewReturn builds RETURN. An OperandType of types.OperandNone means the
// function returns no value and operand is ignored.
func NewReturn(operand Address, opType types.OperandType) Instruction {
	return Instruction{Operation: Return, B: operand, OperandType: opType}
}

// NewDrop builds DROP: release registers in the half-open range [start,end).
func NewDrop(start, end uint16) Instruction {
	return Instruction{Operation: Drop, RangeStart: start, RangeEnd: end}
}
