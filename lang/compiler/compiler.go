// Package compiler translates a resolved syntax tree into register-based
// bytecode. It consumes an ast.Tree plus a resolver.Resolver and produces a
// Program: a set of Prototypes sharing one constant.Table.
//
// Compilation proceeds bottom-up over expressions (each expression compiler
// returns an Emission describing where its value ended up) and top-down
// over items (CompileFiles walks the main chunk, lazily compiling any
// function it calls into via ensurePrototypeCompiled): one long-lived
// Compiler coordinating multiple short-lived per-function FunctionCompiler
// passes.
package compiler

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/solaeus/dust/lang/ast"
	"github.com/solaeus/dust/lang/constant"
	"github.com/solaeus/dust/lang/resolver"
	"github.com/solaeus/dust/lang/token"
	"github.com/solaeus/dust/lang/types"
)

// Compiler drives compilation of a set of source files, sharing one Program
// (and so one constant table) across every function it compiles.
type Compiler struct {
	resolver resolver.Resolver
	trees    map[resolver.FileId]*ast.Tree
	program  *Program
	natives  *NativeTable
	log      *logrus.Entry
}

// New creates a Compiler over trees, resolved by resolver. log may be nil,
// in which case compilation proceeds silently.
func New(res resolver.Resolver, trees map[resolver.FileId]*ast.Tree, log *logrus.Entry) *Compiler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Compiler{resolver: res, trees: trees, natives: NewNativeTable(), log: log}
}

// CompileFiles compiles mainFileId's chunk as the program's entry point,
// lazily compiling every function transitively reachable from it, and
// returns the resulting Program.
func (c *Compiler) CompileFiles(mainFileId resolver.FileId) (*Program, error) {
	c.program = &Program{Constants: constant.New(), Natives: c.natives}

	tree, ok := c.trees[mainFileId]
	if !ok {
		return nil, newError(ErrorMissingSyntaxTree, token.Position{})
	}

	rootId := tree.Root()
	root := tree.Node(rootId)
	scope, ok := c.resolver.GetScopeBinding(rootId)
	if !ok {
		return nil, newErrorDetail(ErrorMissingScopeBinding, tree.File.Position(root.Start), "chunk")
	}

	fc := c.newFunctionCompiler(mainFileId, tree, scope)
	if err := fc.compileChunk(rootId); err != nil {
		return nil, err
	}

	proto := &Prototype{
		Name:          "main",
		ReturnType:    types.NONE,
		Instructions:  fc.instructions,
		RegisterCount: fc.registers.RegisterCount(),
		DropLists:     fc.dropLists,
		IsMain:        true,
	}
	fc.jumps.Finish(proto.Instructions)
	c.program.Prototypes = append(c.program.Prototypes, proto)
	c.program.MainIndex = uint32(len(c.program.Prototypes) - 1)
	return c.program, nil
}

// ensurePrototypeCompiled returns the Program index of declId's compiled
// function, compiling it now if this is the first reference. The
// prototype's slot is reserved and recorded on the Declaration *before*
// recursing into the body, so a reference to declId from within its own
// body (direct recursion) or from a sibling function compiled earlier in
// the same cycle (mutual recursion) observes a valid, if not yet populated,
// index instead of looping forever.
func (c *Compiler) ensurePrototypeCompiled(declId resolver.DeclarationId) (uint32, error) {
	decl, ok := c.resolver.GetDeclaration(declId)
	if !ok {
		return 0, newError(ErrorMissingDeclaration, token.Position{})
	}
	if decl.PrototypeIndex != nil {
		return *decl.PrototypeIndex, nil
	}

	index := uint32(len(c.program.Prototypes))
	c.program.Prototypes = append(c.program.Prototypes, &Prototype{Name: decl.Name})
	if mut := c.resolver.GetDeclarationMut(declId); mut != nil {
		mut.PrototypeIndex = &index
	}

	tree, ok := c.trees[decl.FileId]
	if !ok {
		return 0, newErrorDetail(ErrorMissingSyntaxTree, decl.Position, decl.Name)
	}

	c.log.WithField("function", decl.Name).Debug("compiling function")

	fc := c.newFunctionCompiler(decl.FileId, tree, decl.InnerScopeId)
	if err := fc.compileFunctionBody(decl); err != nil {
		return 0, err
	}

	proto := c.program.Prototypes[index]
	proto.Parameters = make([]types.TypeId, len(decl.Parameters))
	for i, p := range decl.Parameters {
		proto.Parameters[i] = p.TypeId
	}
	proto.ReturnType = decl.TypeId
	proto.Instructions = fc.instructions
	proto.RegisterCount = fc.registers.RegisterCount()
	proto.DropLists = fc.dropLists
	fc.jumps.Finish(proto.Instructions)
	return index, nil
}

// FunctionCompiler compiles one function body: its instruction stream,
// register allocation and jump resolution are entirely local to it, but it
// shares the parent Compiler's resolver, trees and Program (and so its
// constant table) so cross-function references resolve correctly.
type FunctionCompiler struct {
	c      *Compiler
	tree   *ast.Tree
	fileId resolver.FileId
	scope  resolver.ScopeId

	registers *RegisterAllocator
	jumps     *Manager

	// localRegisters maps a resolved local/parameter declaration to the
	// register the compiler assigned it, populated as each let statement or
	// parameter is bound. The resolver itself has no notion of registers.
	localRegisters map[resolver.DeclarationId]uint16

	// pendingDrops is a stack with one entry per currently open block scope:
	// pendingDrops[len-1] collects the register of every string-typed local
	// declared directly in the innermost open block. A nested block's own
	// exitBlockScope pops and drains exactly its own entry into dropLists,
	// so a register a child scope already accounted for is never seen again
	// by an enclosing scope's own exit.
	pendingDrops [][]uint16

	// dropLists accumulates, in the order each block scope drained its own
	// pendingDrops entry, the register of every string-typed local whose
	// scope has closed; a block's DROP/JUMP-with-drops instruction
	// references the slice of this array exitBlockScope reported for it.
	dropLists []uint16

	instructions []Instruction
	log          *logrus.Entry
}

func (c *Compiler) newFunctionCompiler(fileId resolver.FileId, tree *ast.Tree, scope resolver.ScopeId) *FunctionCompiler {
	return &FunctionCompiler{
		c:              c,
		tree:           tree,
		fileId:         fileId,
		scope:          scope,
		registers:      NewRegisterAllocator(c.log),
		jumps:          NewManager(),
		localRegisters: map[resolver.DeclarationId]uint16{},
		log:            c.log,
	}
}

// emit appends instr and returns its index, for later jump-placement
// reference.
func (f *FunctionCompiler) emit(instr Instruction) int {
	idx := len(f.instructions)
	f.instructions = append(f.instructions, instr)
	return idx
}

// position converts a tree-relative source offset into a full Position
// using the function's own file, for error reporting.
func (f *FunctionCompiler) position(p token.Pos) token.Position {
	return f.tree.File.Position(p)
}

// errAt is a small convenience wrapper building a CompileError anchored to
// node's start position.
func (f *FunctionCompiler) errAt(kind ErrorKind, node ast.Node, detail string) *CompileError {
	if detail == "" {
		return newError(kind, f.position(node.Start))
	}
	return newErrorDetail(kind, f.position(node.Start), detail)
}

// placeInto ensures e's value ends up in register target, eliding the MOVE
// when e already occupies it.
func (f *FunctionCompiler) placeInto(e Emission, target uint16) error {
	if reg, ok := e.TargetRegister(); ok && reg == target {
		return nil
	}
	addr, ok := e.Address()
	if !ok {
		return fmt.Errorf("compiler: cannot place a %T emission of kind %d into a register", e, e.Kind)
	}
	f.emit(NewMove(target, addr, e.OperandType))
	return nil
}

// blockMark snapshots the register allocator's watermarks (register.go's
// ScopeMark) a block scope needs restored on exit. The matching pendingDrops
// entry is tracked by stack position rather than captured here, since it is
// always the top of the stack until the scope that pushed it exits.
type blockMark struct {
	registers ScopeMark
}

// enterBlockScope opens a new block scope, recording the register
// allocator's state and pushing a fresh, empty pending-drops entry that
// collects this scope's own string-typed locals as they are declared.
func (f *FunctionCompiler) enterBlockScope() blockMark {
	f.pendingDrops = append(f.pendingDrops, nil)
	return blockMark{registers: f.registers.EnterScope()}
}

// exitBlockScope closes a block scope opened by enterBlockScope, reclaiming
// its registers and draining its pending-drops entry into the function's
// flat dropLists, excluding register except when hasExcept is set — a
// block's own result register must survive past the block's exit rather
// than be dropped alongside its siblings. It reports the [start,end) slice
// of dropLists holding the drained registers, the range a DROP or
// JUMP-with-drops instruction closing the block should reference.
func (f *FunctionCompiler) exitBlockScope(mark blockMark, except uint16, hasExcept bool) (dropStart, dropEnd uint16) {
	f.registers.ExitScope(mark.registers)

	top := len(f.pendingDrops) - 1
	pending := f.pendingDrops[top]
	f.pendingDrops = f.pendingDrops[:top]

	start := len(f.dropLists)
	for _, reg := range pending {
		if hasExcept && reg == except {
			continue
		}
		f.dropLists = append(f.dropLists, reg)
	}
	return uint16(start), uint16(len(f.dropLists))
}

// materialize forces e into some register, allocating a fresh temporary
// only if e doesn't already occupy one, so that its value can be read
// through a register address rather than, say, a CONSTANT address.
func (f *FunctionCompiler) materialize(e Emission) (uint16, error) {
	if reg, ok := e.TargetRegister(); ok {
		return reg, nil
	}
	addr, ok := e.Address()
	if !ok {
		return 0, fmt.Errorf("compiler: cannot materialize emission of kind %d", e.Kind)
	}
	reg := f.registers.AllocateTemporaryRegister()
	f.emit(NewMove(reg, addr, e.OperandType))
	return reg, nil
}
