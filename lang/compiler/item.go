package compiler

import (
	"fmt"

	"github.com/solaeus/dust/lang/ast"
	"github.com/solaeus/dust/lang/resolver"
	"github.com/solaeus/dust/lang/types"
)

// isStatementKind reports whether id's node compiles via compileStatement
// rather than compileExpression — used by compileBlockExpression to decide
// whether a block's last child is a trailing statement or the block's
// implicit return value.
func isStatementKind(k ast.Kind) bool {
	return k == ast.KindLetStatement ||
		k == ast.KindReassignmentStatement ||
		k == ast.KindExpressionStatement ||
		k.IsCompoundAssign()
}

// compileBlockExpression compiles every statement in a block in order, then
// evaluates a trailing expression (if any) as the block's value, narrowing
// f.scope to the block's own scope for the duration. It owns the block's
// register scope and string-local drop bookkeeping itself — every block,
// not just an if/while branch, reclaims its own registers and reports the
// dropLists range for its own string-typed locals on exit — so a bare
// block used as a value (e.g. `let x = { let s = "hi"; s };`) is handled
// identically to an if/else branch or a while body. The returned
// [dropStart,dropEnd) range excludes the block's own result register (see
// exitBlockScope); the caller decides whether to emit it as a standalone
// DROP or coalesce it into a JUMP it is about to emit.
func (f *FunctionCompiler) compileBlockExpression(id ast.NodeId) (result Emission, dropStart, dropEnd uint16, err error) {
	node := f.tree.Node(id)
	savedScope := f.scope
	if scope, ok := f.c.resolver.GetScopeBinding(id); ok {
		f.scope = scope
	}
	defer func() { f.scope = savedScope }()

	mark := f.enterBlockScope()

	children := f.tree.ChildIds(node)
	result = NoneEmission()
	for i, childId := range children {
		child := f.tree.Node(childId)
		if i == len(children)-1 && !isStatementKind(child.Kind) {
			e, cerr := f.compileExpression(childId)
			if cerr != nil {
				return Emission{}, 0, 0, cerr
			}
			result = e
			continue
		}
		if serr := f.compileStatement(childId); serr != nil {
			return Emission{}, 0, 0, serr
		}
	}

	except, hasExcept := result.TargetRegister()
	dropStart, dropEnd = f.exitBlockScope(mark, except, hasExcept)
	return result, dropStart, dropEnd, nil
}

// emitReturn emits the RETURN instruction closing out a function body,
// carrying e's value when it produced one.
func (f *FunctionCompiler) emitReturn(e Emission) error {
	if e.Kind == EmissionNone {
		f.emit(NewReturn(Address{}, types.OperandNone))
		return nil
	}
	addr, ok := e.Address()
	if !ok {
		return fmt.Errorf("compiler: cannot return emission of kind %d", e.Kind)
	}
	f.emit(NewReturn(addr, e.OperandType))
	return nil
}

// compileChunk compiles a source file's top-level chunk: it locates the
// implicit main function item among the chunk's children and compiles its
// body as the program's entry point.
func (f *FunctionCompiler) compileChunk(rootId ast.NodeId) error {
	root := f.tree.Node(rootId)
	var mainId ast.NodeId
	found := false
	for _, childId := range f.tree.ChildIds(root) {
		if f.tree.Node(childId).Kind == ast.KindMainFunctionItem {
			mainId = childId
			found = true
			break
		}
	}
	if !found {
		return f.errAt(ErrorMissingSyntaxNode, root, "main function item")
	}

	mainNode := f.tree.Node(mainId)
	children := f.tree.ChildIds(mainNode)
	if len(children) == 0 {
		return f.errAt(ErrorMissingChild, mainNode, "main function body")
	}
	bodyId := children[len(children)-1]

	result, dropStart, dropEnd, err := f.compileBlockExpression(bodyId)
	if err != nil {
		return err
	}
	if dropEnd > dropStart {
		f.emit(NewDrop(dropStart, dropEnd))
	}
	return f.emitReturn(result)
}

// compileFunctionBody compiles a user-defined function's parameter bindings
// and body, called once per declaration by Compiler.ensurePrototypeCompiled.
func (f *FunctionCompiler) compileFunctionBody(decl resolver.Declaration) error {
	for _, param := range decl.Parameters {
		reg := f.registers.AllocateLocalRegister()
		declId, ok := f.c.resolver.FindDeclarationInScope(param.Name, decl.InnerScopeId)
		if !ok {
			return newErrorDetail(ErrorMissingDeclaration, decl.Position, param.Name)
		}
		f.localRegisters[declId] = reg
	}

	node := f.tree.Node(decl.SyntaxId)
	children := f.tree.ChildIds(node)
	if len(children) == 0 {
		return f.errAt(ErrorMissingChild, node, "function body")
	}
	bodyId := children[len(children)-1]

	result, dropStart, dropEnd, err := f.compileBlockExpression(bodyId)
	if err != nil {
		return err
	}
	if dropEnd > dropStart {
		f.emit(NewDrop(dropStart, dropEnd))
	}
	return f.emitReturn(result)
}
