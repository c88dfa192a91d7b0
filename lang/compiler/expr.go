package compiler

import (
	"github.com/solaeus/dust/lang/ast"
	"github.com/solaeus/dust/lang/resolver"
	"github.com/solaeus/dust/lang/types"
)

// compileExpression is the bottom-up entry point every expression-shaped
// node dispatches through.
func (f *FunctionCompiler) compileExpression(id ast.NodeId) (Emission, error) {
	node := f.tree.Node(id)

	switch {
	case node.Kind.IsBinaryArithmetic():
		return f.compileBinaryArithmetic(id)
	case node.Kind.IsComparison():
		return f.compileComparisonValue(id)
	}

	switch node.Kind {
	case ast.KindBooleanLiteral:
		return ConstantEmission(BooleanAddress(node.Payload.Bool), types.OperandBoolean), nil
	case ast.KindByteLiteral:
		return ConstantEmission(ByteAddress(node.Payload.Byte), types.OperandByte), nil
	case ast.KindCharacterLiteral:
		idx := f.c.program.Constants.AddCharacter(node.Payload.Char)
		return ConstantEmission(ConstantAddress(idx), types.OperandCharacter), nil
	case ast.KindFloatLiteral:
		idx := f.c.program.Constants.AddFloat(node.Payload.Float)
		return ConstantEmission(ConstantAddress(idx), types.OperandFloat), nil
	case ast.KindIntegerLiteral:
		idx := f.c.program.Constants.AddInteger(node.Payload.Int)
		return ConstantEmission(ConstantAddress(idx), types.OperandInteger), nil
	case ast.KindStringLiteral:
		r := f.c.program.Constants.PushStrToStringPool([]byte(node.Payload.Text))
		idx := f.c.program.Constants.AddPooledString(r)
		return ConstantEmission(ConstantAddress(idx), types.OperandString), nil
	case ast.KindPathExpression:
		return f.compilePathExpression(id)
	case ast.KindBlockExpression:
		result, dropStart, dropEnd, berr := f.compileBlockExpression(id)
		if berr != nil {
			return Emission{}, berr
		}
		if dropEnd > dropStart {
			f.emit(NewDrop(dropStart, dropEnd))
		}
		return result, nil
	case ast.KindIfExpression:
		return f.compileIfExpression(id)
	case ast.KindWhileExpression:
		return f.compileWhileExpression(id)
	case ast.KindFunctionExpression:
		return f.compileFunctionExpression(id)
	case ast.KindCallExpression:
		return f.compileCallExpression(id)
	case ast.KindIndexExpression:
		return f.compileIndexExpression(id)
	case ast.KindListExpression:
		return f.compileListExpression(id)
	case ast.KindUnaryExpression:
		return f.compileUnaryExpression(id)
	case ast.KindLogicalAndExpression:
		return f.compileLogicalAnd(id)
	case ast.KindLogicalOrExpression:
		return f.compileLogicalOr(id)
	default:
		return Emission{}, f.errAt(ErrorExpectedExpression, node, "")
	}
}

func (f *FunctionCompiler) compileBinaryArithmetic(id ast.NodeId) (Emission, error) {
	node := f.tree.Node(id)
	children := f.tree.ChildIds(node)
	if len(children) != 2 {
		return Emission{}, f.errAt(ErrorMissingChildren, node, "binary operands")
	}
	left, err := f.compileExpression(children[0])
	if err != nil {
		return Emission{}, err
	}
	right, err := f.compileExpression(children[1])
	if err != nil {
		return Emission{}, err
	}

	if folded, ok, err := f.foldArithmetic(node.Kind, node, left, right); err != nil {
		return Emission{}, err
	} else if ok {
		return folded, nil
	}

	leftAddr, ok := left.Address()
	if !ok {
		return Emission{}, f.errAt(ErrorExpectedExpression, node, "")
	}
	rightAddr, ok := right.Address()
	if !ok {
		return Emission{}, f.errAt(ErrorExpectedExpression, node, "")
	}

	opType, resultType, ok := arithmeticTypes(node.Kind, left.OperandType, right.OperandType)
	if !ok {
		return Emission{}, f.errAt(ErrorMismatchedConstantTypes, node, "")
	}

	dest := f.registers.AllocateTemporaryRegister()
	var instr Instruction
	switch node.Kind {
	case ast.KindAdditionExpression:
		instr = NewAdd(dest, leftAddr, rightAddr, opType)
	case ast.KindSubtractionExpression:
		instr = NewSubtract(dest, leftAddr, rightAddr, opType)
	case ast.KindMultiplicationExpression:
		instr = NewMultiply(dest, leftAddr, rightAddr, opType)
	case ast.KindDivisionExpression:
		instr = NewDivide(dest, leftAddr, rightAddr, opType)
	case ast.KindModuloExpression:
		instr = NewModulo(dest, leftAddr, rightAddr, opType)
	case ast.KindPowerExpression:
		instr = NewPower(dest, leftAddr, rightAddr, opType)
	default:
		return Emission{}, f.errAt(ErrorExpectedExpression, node, "")
	}
	f.emit(instr)
	return InstructionsEmission(dest, resultType), nil
}

// comparisonInstruction builds the EQUAL/LESS/LESS_EQUAL instruction for a
// comparison Kind, normalizing NotEqual/Greater/GreaterOrEqual onto the
// three primitive comparisons by swapping operands or polarity — there is
// no dedicated NOT_EQUAL or GREATER opcode.
func comparisonInstruction(kind ast.Kind, comparator bool, left, right Address, opType types.OperandType) Instruction {
	switch kind {
	case ast.KindEqualExpression:
		return NewEqual(comparator, left, right, opType)
	case ast.KindNotEqualExpression:
		return NewEqual(!comparator, left, right, opType)
	case ast.KindLessThanExpression:
		return NewLess(comparator, left, right, opType)
	case ast.KindLessThanOrEqualExpression:
		return NewLessEqual(comparator, left, right, opType)
	case ast.KindGreaterThanExpression:
		return NewLess(comparator, right, left, opType)
	case ast.KindGreaterThanOrEqualExpression:
		return NewLessEqual(comparator, right, left, opType)
	default:
		return NewEqual(comparator, left, right, opType)
	}
}

// compileComparisonValue materializes a comparison's boolean result into a
// register via the MOVE-with-jump idiom: when the comparison holds, a JUMP
// skips the instruction that would set the register to false; otherwise the
// comparison skips that JUMP, and the false-setting MOVE jumps over the
// true-setting MOVE in turn. Both jump distances are always exactly 1,
// since the four instructions are always emitted contiguously.
func (f *FunctionCompiler) compileComparisonValue(id ast.NodeId) (Emission, error) {
	node := f.tree.Node(id)
	children := f.tree.ChildIds(node)
	if len(children) != 2 {
		return Emission{}, f.errAt(ErrorMissingChildren, node, "comparison operands")
	}
	left, err := f.compileExpression(children[0])
	if err != nil {
		return Emission{}, err
	}
	right, err := f.compileExpression(children[1])
	if err != nil {
		return Emission{}, err
	}

	if folded, ok := f.foldComparison(node.Kind, left, right); ok {
		return folded, nil
	}

	leftAddr, ok := left.Address()
	if !ok {
		return Emission{}, f.errAt(ErrorExpectedExpression, node, "")
	}
	rightAddr, ok := right.Address()
	if !ok {
		return Emission{}, f.errAt(ErrorExpectedExpression, node, "")
	}

	// comparator=true: the COMPARE skips the standalone JUMP precisely when
	// the comparison is false, falling into the MOVE that sets dest=false
	// (which itself jumps past the MOVE that sets dest=true). When the
	// comparison is true, the COMPARE falls through into the JUMP, which
	// lands directly on the dest=true MOVE.
	dest := f.registers.AllocateTemporaryRegister()
	f.emit(comparisonInstruction(node.Kind, true, leftAddr, rightAddr, left.OperandType))
	f.emit(NewJump(1, true))
	f.emit(NewMoveWithJump(dest, BooleanAddress(false), types.OperandBoolean, 1, true))
	f.emit(NewMove(dest, BooleanAddress(true), types.OperandBoolean))
	return InstructionsEmission(dest, types.OperandBoolean), nil
}

// compileBranch emits the instructions that test nodeId's boolean value and
// jump to falseAnchor when it is false, falling through when true.
// Comparisons are special-cased to avoid materializing an intermediate
// boolean register, reusing the same polarity trick compileComparisonValue
// uses, but driving a real branch instead of a MOVE pair.
func (f *FunctionCompiler) compileBranch(id ast.NodeId, falseAnchor AnchorId) error {
	node := f.tree.Node(id)
	if node.Kind.IsComparison() {
		children := f.tree.ChildIds(node)
		if len(children) != 2 {
			return f.errAt(ErrorMissingChildren, node, "comparison operands")
		}
		left, err := f.compileExpression(children[0])
		if err != nil {
			return err
		}
		right, err := f.compileExpression(children[1])
		if err != nil {
			return err
		}
		leftAddr, ok := left.Address()
		if !ok {
			return f.errAt(ErrorExpectedBooleanExpression, node, "")
		}
		rightAddr, ok := right.Address()
		if !ok {
			return f.errAt(ErrorExpectedBooleanExpression, node, "")
		}
		// comparator=false: the COMPARE skips this JUMP precisely when the
		// comparison is true, falling straight into the then-branch; a false
		// comparison falls through into the JUMP, which targets falseAnchor.
		f.emit(comparisonInstruction(node.Kind, false, leftAddr, rightAddr, left.OperandType))
		idx := f.emit(NewJump(0, true))
		f.jumps.PlaceJump(falseAnchor, idx)
		return nil
	}

	e, err := f.compileExpression(id)
	if err != nil {
		return err
	}
	addr, ok := e.Address()
	if !ok {
		return f.errAt(ErrorExpectedBooleanExpression, node, "")
	}
	// Same comparator=false polarity as above: TEST skips the JUMP when the
	// operand is truthy, so the branch falls through into the then-code.
	f.emit(NewTest(addr, false, 1))
	idx := f.emit(NewJump(0, true))
	f.jumps.PlaceJump(falseAnchor, idx)
	return nil
}

func (f *FunctionCompiler) compileIfExpression(id ast.NodeId) (Emission, error) {
	node := f.tree.Node(id)
	children := f.tree.ChildIds(node)
	if len(children) < 2 {
		return Emission{}, f.errAt(ErrorMissingChildren, node, "if condition/then")
	}
	condId, thenId := children[0], children[1]
	var elseId ast.NodeId
	hasElse := len(children) == 3
	if hasElse {
		elseId = children[2]
	}

	elseAnchor := f.jumps.NewAnchor(AnchorForwardToNext, 0)
	if err := f.compileBranch(condId, elseAnchor); err != nil {
		return Emission{}, err
	}

	thenEmission, thenDropStart, thenDropEnd, err := f.compileBlockExpression(thenId)
	if err != nil {
		return Emission{}, err
	}

	if !hasElse {
		if thenDropEnd > thenDropStart {
			f.emit(NewDrop(thenDropStart, thenDropEnd))
		}
		f.jumps.Resolve(elseAnchor, len(f.instructions))
		return NoneEmission(), nil
	}

	producesValue := thenEmission.Kind != EmissionNone
	var dest uint16
	if producesValue {
		dest = f.registers.AllocateTemporaryRegister()
		if err := f.placeInto(thenEmission, dest); err != nil {
			return Emission{}, err
		}
	}

	endAnchor := f.jumps.NewAnchor(AnchorForwardToNext, 0)
	idx := f.emit(NewJump(0, true))
	if thenDropEnd > thenDropStart {
		f.jumps.PlaceJumpWithDrops(endAnchor, idx, thenDropStart, thenDropEnd)
	} else {
		f.jumps.PlaceJump(endAnchor, idx)
	}

	f.jumps.Resolve(elseAnchor, len(f.instructions))
	elseEmission, elseDropStart, elseDropEnd, err := f.compileBlockExpression(elseId)
	if err != nil {
		return Emission{}, err
	}

	if producesValue {
		if elseEmission.Kind == EmissionNone || elseEmission.OperandType != thenEmission.OperandType {
			return Emission{}, f.errAt(ErrorMismatchedIfElseTypes, node, "")
		}
		if err := f.placeInto(elseEmission, dest); err != nil {
			return Emission{}, err
		}
	}
	if elseDropEnd > elseDropStart {
		f.emit(NewDrop(elseDropStart, elseDropEnd))
	}

	f.jumps.Resolve(endAnchor, len(f.instructions))

	if producesValue {
		return InstructionsEmission(dest, thenEmission.OperandType), nil
	}
	return NoneEmission(), nil
}

func (f *FunctionCompiler) compileWhileExpression(id ast.NodeId) (Emission, error) {
	node := f.tree.Node(id)
	children := f.tree.ChildIds(node)
	if len(children) != 2 {
		return Emission{}, f.errAt(ErrorMissingChildren, node, "while condition/body")
	}
	condId, bodyId := children[0], children[1]

	startAnchor := f.jumps.NewAnchor(AnchorLoopStartHere, len(f.instructions))
	endAnchor := f.jumps.NewAnchor(AnchorLoopEndOnNext, 0)

	if err := f.compileBranch(condId, endAnchor); err != nil {
		return Emission{}, err
	}

	bodyEmission, dropStart, dropEnd, err := f.compileBlockExpression(bodyId)
	if err != nil {
		return Emission{}, err
	}
	if bodyEmission.Kind != EmissionNone {
		return Emission{}, f.errAt(ErrorExpectedStatement, f.tree.Node(bodyId), "a loop body produces no value")
	}
	if dropEnd > dropStart {
		f.emit(NewDrop(dropStart, dropEnd))
	}

	idx := f.emit(NewJump(0, false))
	f.jumps.PlaceJump(startAnchor, idx)

	f.jumps.Resolve(endAnchor, len(f.instructions))
	return NoneEmission(), nil
}

func (f *FunctionCompiler) compileLogicalAnd(id ast.NodeId) (Emission, error) {
	node := f.tree.Node(id)
	children := f.tree.ChildIds(node)
	if len(children) != 2 {
		return Emission{}, f.errAt(ErrorMissingChildren, node, "logical-and operands")
	}
	left, err := f.compileExpression(children[0])
	if err != nil {
		return Emission{}, err
	}
	dest := f.registers.AllocateTemporaryRegister()
	if err := f.placeInto(left, dest); err != nil {
		return Emission{}, err
	}

	// comparator=false: TEST skips the JUMP (so the right operand is
	// evaluated and overwrites dest) exactly when the left operand is
	// truthy; a falsy left short-circuits by taking the JUMP straight to
	// end, leaving dest holding the falsy left value.
	f.emit(NewTest(RegisterAddress(dest), false, 1))
	end := f.jumps.NewAnchor(AnchorForwardToNext, 0)
	idx := f.emit(NewJump(0, true))
	f.jumps.PlaceJump(end, idx)

	right, err := f.compileExpression(children[1])
	if err != nil {
		return Emission{}, err
	}
	if err := f.placeInto(right, dest); err != nil {
		return Emission{}, err
	}

	f.jumps.Resolve(end, len(f.instructions))
	return InstructionsEmission(dest, types.OperandBoolean), nil
}

func (f *FunctionCompiler) compileLogicalOr(id ast.NodeId) (Emission, error) {
	node := f.tree.Node(id)
	children := f.tree.ChildIds(node)
	if len(children) != 2 {
		return Emission{}, f.errAt(ErrorMissingChildren, node, "logical-or operands")
	}
	left, err := f.compileExpression(children[0])
	if err != nil {
		return Emission{}, err
	}
	dest := f.registers.AllocateTemporaryRegister()
	if err := f.placeInto(left, dest); err != nil {
		return Emission{}, err
	}

	// comparator=true: TEST skips the JUMP (evaluating the right operand)
	// exactly when the left operand is falsy; a truthy left short-circuits
	// by taking the JUMP straight to end, leaving dest holding the truthy
	// left value.
	f.emit(NewTest(RegisterAddress(dest), true, 1))
	end := f.jumps.NewAnchor(AnchorForwardToNext, 0)
	idx := f.emit(NewJump(0, true))
	f.jumps.PlaceJump(end, idx)

	right, err := f.compileExpression(children[1])
	if err != nil {
		return Emission{}, err
	}
	if err := f.placeInto(right, dest); err != nil {
		return Emission{}, err
	}

	f.jumps.Resolve(end, len(f.instructions))
	return InstructionsEmission(dest, types.OperandBoolean), nil
}

func (f *FunctionCompiler) compileUnaryExpression(id ast.NodeId) (Emission, error) {
	node := f.tree.Node(id)
	children := f.tree.ChildIds(node)
	if len(children) != 1 {
		return Emission{}, f.errAt(ErrorMissingChild, node, "unary operand")
	}
	operand, err := f.compileExpression(children[0])
	if err != nil {
		return Emission{}, err
	}
	if folded, ok := f.foldNegate(operand); ok {
		return folded, nil
	}
	addr, ok := operand.Address()
	if !ok {
		return Emission{}, f.errAt(ErrorExpectedExpression, node, "")
	}
	dest := f.registers.AllocateTemporaryRegister()
	f.emit(NewNegate(dest, addr, operand.OperandType))
	return InstructionsEmission(dest, operand.OperandType), nil
}

func (f *FunctionCompiler) compilePathExpression(id ast.NodeId) (Emission, error) {
	node := f.tree.Node(id)
	name := node.Payload.Text
	declId, ok := f.c.resolver.FindDeclarationInScope(name, f.scope)
	if !ok {
		return Emission{}, f.errAt(ErrorUndeclaredVariable, node, name)
	}
	decl, ok := f.c.resolver.GetDeclaration(declId)
	if !ok {
		return Emission{}, f.errAt(ErrorMissingDeclaration, node, name)
	}

	switch decl.Kind {
	case resolver.KindLocal, resolver.KindLocalMutable:
		reg, ok := f.localRegisters[declId]
		if !ok {
			return Emission{}, f.errAt(ErrorMissingDeclaration, node, name)
		}
		opType, ok := f.c.resolver.GetOperandType(decl.TypeId)
		if !ok {
			return Emission{}, f.errAt(ErrorMissingType, node, name)
		}
		return LocalEmission(reg, decl.Kind == resolver.KindLocalMutable, opType), nil
	case resolver.KindFunction:
		idx, err := f.c.ensurePrototypeCompiled(declId)
		if err != nil {
			return Emission{}, err
		}
		return FunctionEmission(idx), nil
	default:
		return Emission{}, f.errAt(ErrorExpectedExpression, node, name)
	}
}

func (f *FunctionCompiler) compileFunctionExpression(id ast.NodeId) (Emission, error) {
	node := f.tree.Node(id)
	name := node.Payload.Text
	for _, declId := range f.c.resolver.FindDeclarations(name) {
		decl, ok := f.c.resolver.GetDeclaration(declId)
		if !ok || decl.Kind != resolver.KindFunction || decl.SyntaxId != id {
			continue
		}
		idx, err := f.c.ensurePrototypeCompiled(declId)
		if err != nil {
			return Emission{}, err
		}
		return FunctionEmission(idx), nil
	}
	return Emission{}, f.errAt(ErrorMissingDeclaration, node, name)
}

func (f *FunctionCompiler) compileCallExpression(id ast.NodeId) (Emission, error) {
	node := f.tree.Node(id)
	children := f.tree.ChildIds(node)
	if len(children) == 0 {
		return Emission{}, f.errAt(ErrorExpectedFunction, node, "")
	}
	calleeId := children[0]
	calleeNode := f.tree.Node(calleeId)
	if calleeNode.Kind != ast.KindPathExpression {
		return Emission{}, f.errAt(ErrorExpectedFunction, node, "")
	}
	name := calleeNode.Payload.Text
	declId, ok := f.c.resolver.FindDeclarationInScope(name, f.scope)
	if !ok {
		return Emission{}, f.errAt(ErrorUndeclaredVariable, calleeNode, name)
	}
	decl, ok := f.c.resolver.GetDeclaration(declId)
	if !ok {
		return Emission{}, f.errAt(ErrorMissingDeclaration, calleeNode, name)
	}
	if decl.Kind != resolver.KindFunction && decl.Kind != resolver.KindNativeFunction {
		return Emission{}, f.errAt(ErrorExpectedFunction, calleeNode, name)
	}

	argIds := children[1:]
	argsStart := f.registers.NextTemporaryRegister()
	for range argIds {
		f.registers.AllocateTemporaryRegister()
	}
	argsEnd := f.registers.NextTemporaryRegister()
	for i, argId := range argIds {
		arg, err := f.compileExpression(argId)
		if err != nil {
			return Emission{}, err
		}
		if err := f.placeInto(arg, argsStart+uint16(i)); err != nil {
			return Emission{}, err
		}
	}

	dest := NoRegister
	if decl.TypeId != types.NONE {
		dest = f.registers.AllocateTemporaryRegister()
	}

	if decl.Kind == resolver.KindNativeFunction {
		nativeId := f.c.natives.IndexOf(decl.NativeName)
		f.emit(NewCallNative(dest, nativeId, argsStart, argsEnd))
	} else {
		protoIdx, err := f.c.ensurePrototypeCompiled(declId)
		if err != nil {
			return Emission{}, err
		}
		f.emit(NewCall(dest, Address{Kind: MemoryEncoded, Index: protoIdx}, argsStart, argsEnd))
	}

	if dest == NoRegister {
		return NoneEmission(), nil
	}
	opType, ok := f.c.resolver.GetOperandType(decl.TypeId)
	if !ok {
		return Emission{}, f.errAt(ErrorMissingType, calleeNode, name)
	}
	return InstructionsEmission(dest, opType), nil
}

func elementOperandType(listOperand types.OperandType) types.OperandType {
	if listOperand < types.OperandListBase {
		return types.OperandNone
	}
	return listOperand - types.OperandListBase
}

func (f *FunctionCompiler) compileIndexExpression(id ast.NodeId) (Emission, error) {
	node := f.tree.Node(id)
	children := f.tree.ChildIds(node)
	if len(children) != 2 {
		return Emission{}, f.errAt(ErrorMissingChildren, node, "index operands")
	}
	list, err := f.compileExpression(children[0])
	if err != nil {
		return Emission{}, err
	}
	index, err := f.compileExpression(children[1])
	if err != nil {
		return Emission{}, err
	}
	listAddr, ok := list.Address()
	if !ok {
		return Emission{}, f.errAt(ErrorExpectedList, node, "")
	}
	indexAddr, ok := index.Address()
	if !ok {
		return Emission{}, f.errAt(ErrorExpectedExpression, node, "")
	}
	elemType := elementOperandType(list.OperandType)
	dest := f.registers.AllocateTemporaryRegister()
	f.emit(NewGetList(dest, listAddr, indexAddr, elemType))
	return InstructionsEmission(dest, elemType), nil
}

func (f *FunctionCompiler) compileListExpression(id ast.NodeId) (Emission, error) {
	node := f.tree.Node(id)
	children := f.tree.ChildIds(node)
	if len(children) == 0 {
		return Emission{}, f.errAt(ErrorCannotInferListType, node, "")
	}

	dest := f.registers.AllocateTemporaryRegister()
	placeholderIdx := f.emit(NewNoOp())

	elemType := types.OperandNone
	for i, childId := range children {
		elem, err := f.compileExpression(childId)
		if err != nil {
			return Emission{}, err
		}
		if i == 0 {
			elemType = elem.OperandType
		} else if elem.OperandType != elemType {
			return Emission{}, f.errAt(ErrorMismatchedConstantTypes, f.tree.Node(childId), "list elements must share one type")
		}
		elemAddr, ok := elem.Address()
		if !ok {
			return Emission{}, f.errAt(ErrorExpectedExpression, f.tree.Node(childId), "")
		}
		f.emit(NewSetList(dest, elemAddr, uint16(i), elemType))
	}

	f.instructions[placeholderIdx] = NewNewList(dest, uint16(len(children)), elemType)
	return InstructionsEmission(dest, types.ListOperandType(elemType)), nil
}
