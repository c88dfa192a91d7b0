package compiler

import (
	"github.com/solaeus/dust/lang/ast"
	"github.com/solaeus/dust/lang/resolver"
	"github.com/solaeus/dust/lang/types"
)

// compileStatement dispatches a block child that produces no value of its
// own.
func (f *FunctionCompiler) compileStatement(id ast.NodeId) error {
	node := f.tree.Node(id)
	switch {
	case node.Kind == ast.KindLetStatement:
		return f.compileLetStatement(id)
	case node.Kind == ast.KindReassignmentStatement:
		return f.compileReassignmentStatement(id)
	case node.Kind == ast.KindExpressionStatement:
		return f.compileExpressionStatement(id)
	case node.Kind.IsCompoundAssign():
		return f.compileCompoundAssignStatement(id)
	default:
		return f.errAt(ErrorExpectedStatement, node, "")
	}
}

// compileLetStatement binds the statement's single child expression's value
// into a freshly allocated local register, recording the resolver's
// declaration for that name so later references (compilePathExpression) and
// reassignments find it.
func (f *FunctionCompiler) compileLetStatement(id ast.NodeId) error {
	node := f.tree.Node(id)
	children := f.tree.ChildIds(node)
	if len(children) != 1 {
		return f.errAt(ErrorMissingChild, node, "let initializer")
	}
	value, err := f.compileExpression(children[0])
	if err != nil {
		return err
	}

	reg := f.registers.AllocateLocalRegister()
	if err := f.placeInto(value, reg); err != nil {
		return err
	}

	name := node.Payload.Text
	declId, ok := f.c.resolver.FindDeclarationInScope(name, f.scope)
	if !ok {
		return f.errAt(ErrorMissingDeclaration, node, name)
	}
	f.localRegisters[declId] = reg
	if value.OperandType == types.OperandString {
		top := len(f.pendingDrops) - 1
		f.pendingDrops[top] = append(f.pendingDrops[top], reg)
	}
	return nil
}

// compileReassignmentStatement overwrites an already-bound mutable local's
// register in place; ErrorCannotMutate fires for anything the resolver
// didn't mark KindLocalMutable.
func (f *FunctionCompiler) compileReassignmentStatement(id ast.NodeId) error {
	node := f.tree.Node(id)
	children := f.tree.ChildIds(node)
	if len(children) != 1 {
		return f.errAt(ErrorMissingChild, node, "reassignment value")
	}

	name := node.Payload.Text
	declId, ok := f.c.resolver.FindDeclarationInScope(name, f.scope)
	if !ok {
		return f.errAt(ErrorUndeclaredVariable, node, name)
	}
	decl, ok := f.c.resolver.GetDeclaration(declId)
	if !ok {
		return f.errAt(ErrorMissingDeclaration, node, name)
	}
	if decl.Kind != resolver.KindLocalMutable {
		return f.errAt(ErrorCannotMutate, node, name)
	}
	reg, ok := f.localRegisters[declId]
	if !ok {
		return f.errAt(ErrorMissingDeclaration, node, name)
	}

	value, err := f.compileExpression(children[0])
	if err != nil {
		return err
	}
	return f.placeInto(value, reg)
}

// compoundAssignArithmeticKind maps a KindXxxAssignStatement to the plain
// binary-arithmetic Kind it abbreviates.
func compoundAssignArithmeticKind(k ast.Kind) ast.Kind {
	switch k {
	case ast.KindAddAssignStatement:
		return ast.KindAdditionExpression
	case ast.KindSubtractAssignStatement:
		return ast.KindSubtractionExpression
	case ast.KindMultiplyAssignStatement:
		return ast.KindMultiplicationExpression
	case ast.KindDivideAssignStatement:
		return ast.KindDivisionExpression
	case ast.KindModuloAssignStatement:
		return ast.KindModuloExpression
	default:
		return ast.KindInvalid
	}
}

// compileCompoundAssignStatement compiles `name OP= value` as `name = name
// OP value`, reusing the same constant-folding path plain arithmetic does —
// folding only ever triggers when the current register value happens to be
// a constant emission, which a local variable's is not, so in practice this
// always falls through to emitting an instruction.
func (f *FunctionCompiler) compileCompoundAssignStatement(id ast.NodeId) error {
	node := f.tree.Node(id)
	children := f.tree.ChildIds(node)
	if len(children) != 1 {
		return f.errAt(ErrorMissingChild, node, "compound assignment value")
	}

	name := node.Payload.Text
	declId, ok := f.c.resolver.FindDeclarationInScope(name, f.scope)
	if !ok {
		return f.errAt(ErrorUndeclaredVariable, node, name)
	}
	decl, ok := f.c.resolver.GetDeclaration(declId)
	if !ok {
		return f.errAt(ErrorMissingDeclaration, node, name)
	}
	if decl.Kind != resolver.KindLocalMutable {
		return f.errAt(ErrorCannotMutate, node, name)
	}
	reg, ok := f.localRegisters[declId]
	if !ok {
		return f.errAt(ErrorMissingDeclaration, node, name)
	}
	opType, ok := f.c.resolver.GetOperandType(decl.TypeId)
	if !ok {
		return f.errAt(ErrorMissingType, node, name)
	}

	rhs, err := f.compileExpression(children[0])
	if err != nil {
		return err
	}

	arithKind := compoundAssignArithmeticKind(node.Kind)
	left := LocalEmission(reg, true, opType)
	if folded, ok, err := f.foldArithmetic(arithKind, node, left, rhs); err != nil {
		return err
	} else if ok {
		return f.placeInto(folded, reg)
	}

	rhsAddr, ok := rhs.Address()
	if !ok {
		return f.errAt(ErrorExpectedExpression, node, "")
	}

	instrType, _, ok := arithmeticTypes(arithKind, opType, rhs.OperandType)
	if !ok {
		return f.errAt(ErrorMismatchedConstantTypes, node, "")
	}

	var instr Instruction
	switch arithKind {
	case ast.KindAdditionExpression:
		instr = NewAdd(reg, RegisterAddress(reg), rhsAddr, instrType)
	case ast.KindSubtractionExpression:
		instr = NewSubtract(reg, RegisterAddress(reg), rhsAddr, instrType)
	case ast.KindMultiplicationExpression:
		instr = NewMultiply(reg, RegisterAddress(reg), rhsAddr, instrType)
	case ast.KindDivisionExpression:
		instr = NewDivide(reg, RegisterAddress(reg), rhsAddr, instrType)
	case ast.KindModuloExpression:
		instr = NewModulo(reg, RegisterAddress(reg), rhsAddr, instrType)
	default:
		return f.errAt(ErrorExpectedStatement, node, "")
	}
	f.emit(instr)
	return nil
}

// compileExpressionStatement compiles an expression purely for its side
// effects (a bare call, typically), discarding any temporary registers it
// allocated once the statement ends.
func (f *FunctionCompiler) compileExpressionStatement(id ast.NodeId) error {
	node := f.tree.Node(id)
	children := f.tree.ChildIds(node)
	if len(children) != 1 {
		return f.errAt(ErrorMissingChild, node, "expression statement")
	}
	watermark := f.registers.NextTemporaryRegister()
	if _, err := f.compileExpression(children[0]); err != nil {
		return err
	}
	f.registers.FreeTemporaryRegisters(watermark)
	return nil
}
