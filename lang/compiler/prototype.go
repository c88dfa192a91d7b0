package compiler

import (
	"github.com/solaeus/dust/lang/constant"
	"github.com/solaeus/dust/lang/types"
)

// Prototype is one compiled function: its instruction stream plus the
// metadata a caller or disassembler needs to make sense of it.
type Prototype struct {
	Name          string
	Parameters    []types.TypeId
	ReturnType    types.TypeId
	Instructions  []Instruction
	RegisterCount uint16

	// DropLists is a flat list of register indices; a DROP or
	// JUMP-with-drops instruction's RangeStart/RangeEnd fields index a
	// contiguous slice of this array (not a contiguous register range),
	// since the string-typed locals going out of scope together at one
	// exit point need not themselves sit in adjacent registers.
	DropLists []uint16

	// IsMain marks the implicit top-level function every chunk compiles to.
	IsMain bool
}

// Program is the output of compiling a complete set of source files: every
// function prototype plus the constant table every prototype's CONSTANT
// addresses index into. The constant table is shared
// across all prototypes in a Program rather than duplicated per-function,
// since adjacent-range string fusion and scalar interning are only
// effective when every function contributes to the same pool.
type Program struct {
	Prototypes []*Prototype
	Constants  *constant.Table

	// Natives records which native function names CALL_NATIVE instructions
	// reference, indexed by NativeFunctionId.
	Natives *NativeTable

	// MainIndex is the index into Prototypes of the implicit main function
	// — the entry point a VM would start executing.
	MainIndex uint32
}

// Prototype looks up a compiled function by its index, as stored in a
// Declaration's PrototypeIndex.
func (p *Program) Prototype(index uint32) (*Prototype, bool) {
	if int(index) >= len(p.Prototypes) {
		return nil, false
	}
	return p.Prototypes[index], true
}

// Main returns the program's entry-point prototype.
func (p *Program) Main() *Prototype {
	return p.Prototypes[p.MainIndex]
}
