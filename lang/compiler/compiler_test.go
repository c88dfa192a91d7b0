package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaeus/dust/lang/ast"
	"github.com/solaeus/dust/lang/resolver"
	"github.com/solaeus/dust/lang/token"
	"github.com/solaeus/dust/lang/types"
)

// testBuilder is compiler_test.go's own copy of internal/examples' builder:
// a single-file FileSet plus a resolver.Table, with a handful of node
// constructors so each test case avoids repeating ast.Node literals.
type testBuilder struct {
	tree *ast.Tree
	tbl  *resolver.Table
}

func newTestBuilder() *testBuilder {
	fs := token.NewFileSet()
	file := fs.AddFile("test.ds", -1, 0)
	return &testBuilder{tree: ast.NewTree(file), tbl: resolver.NewTable()}
}

func (b *testBuilder) integer(v int64) ast.NodeId {
	return b.tree.Push(ast.Node{Kind: ast.KindIntegerLiteral, Payload: ast.Payload{Int: v}})
}

func (b *testBuilder) boolean(v bool) ast.NodeId {
	return b.tree.Push(ast.Node{Kind: ast.KindBooleanLiteral, Payload: ast.Payload{Bool: v}})
}

func (b *testBuilder) str(v string) ast.NodeId {
	return b.tree.Push(ast.Node{Kind: ast.KindStringLiteral, Payload: ast.Payload{Text: v}})
}

func (b *testBuilder) path(name string) ast.NodeId {
	return b.tree.Push(ast.Node{Kind: ast.KindPathExpression, Payload: ast.Payload{Text: name}})
}

func (b *testBuilder) binary(kind ast.Kind, left, right ast.NodeId) ast.NodeId {
	return b.tree.PushWithChildren(ast.Node{Kind: kind}, left, right)
}

func (b *testBuilder) block(children ...ast.NodeId) ast.NodeId {
	return b.tree.PushWithChildren(ast.Node{Kind: ast.KindBlockExpression}, children...)
}

func (b *testBuilder) letStmt(name string, mutable bool, value ast.NodeId) ast.NodeId {
	return b.tree.PushWithChildren(ast.Node{Kind: ast.KindLetStatement, Payload: ast.Payload{Text: name, Mutable: mutable}}, value)
}

func (b *testBuilder) local(name string, mutable bool, typeId types.TypeId, scope resolver.ScopeId) resolver.DeclarationId {
	kind := resolver.KindLocal
	if mutable {
		kind = resolver.KindLocalMutable
	}
	id := b.tbl.AddDeclaration(name, resolver.Declaration{Kind: kind, TypeId: typeId})
	b.tbl.Bind(scope, name, id)
	return id
}

// mainChunk wraps body as the sole statement/expression of the implicit
// main function, binds mainScope to the chunk, and returns the chunk's
// node id together with the usual single-file tree map compiler.New wants.
func (b *testBuilder) mainChunk(mainScope resolver.ScopeId, body ...ast.NodeId) (ast.NodeId, map[resolver.FileId]*ast.Tree) {
	mainBody := b.block(body...)
	mainItem := b.tree.PushWithChildren(ast.Node{Kind: ast.KindMainFunctionItem}, mainBody)
	chunk := b.tree.PushWithChildren(ast.Node{Kind: ast.KindChunk}, mainItem)
	b.tbl.SetScopeBinding(chunk, mainScope)
	return chunk, map[resolver.FileId]*ast.Tree{0: b.tree}
}

// 40 + 2 folds entirely at compile time: the chunk's main prototype should
// hold a single RETURN of the constant 42, with no registers allocated.
func TestConstantFoldingCollapsesToSingleReturn(t *testing.T) {
	b := newTestBuilder()
	mainScope := b.tbl.AddScope(resolver.Scope{Parent: resolver.NoScope})
	sum := b.binary(ast.KindAdditionExpression, b.integer(40), b.integer(2))
	_, trees := b.mainChunk(mainScope, sum)

	prog, err := New(b.tbl, trees, nil).CompileFiles(0)
	require.NoError(t, err)

	main := prog.Prototypes[prog.MainIndex]
	require.Len(t, main.Instructions, 1)
	require.Equal(t, uint16(0), main.RegisterCount)

	instr := main.Instructions[0]
	assert.Equal(t, Return, instr.Operation)
	assert.Equal(t, types.OperandInteger, instr.OperandType)
	require.Equal(t, MemoryConstant, instr.B.Kind)
	v, ok := prog.Constants.GetInteger(instr.B.Index)
	require.True(t, ok)
	assert.EqualValues(t, 42, v)
}

// let x = 10; let y = 20; x + y cannot fold (both operands are locals), so
// it compiles to two MOVEs populating the locals, an ADD into a temporary,
// and a RETURN of that temporary — three registers total.
func TestLocalArithmeticEmitsMovesAndAdd(t *testing.T) {
	b := newTestBuilder()
	mainScope := b.tbl.AddScope(resolver.Scope{Parent: resolver.NoScope})
	letX := b.letStmt("x", false, b.integer(10))
	letY := b.letStmt("y", false, b.integer(20))
	sum := b.binary(ast.KindAdditionExpression, b.path("x"), b.path("y"))
	b.local("x", false, types.INTEGER, mainScope)
	b.local("y", false, types.INTEGER, mainScope)

	_, trees := b.mainChunk(mainScope, letX, letY, sum)
	prog, err := New(b.tbl, trees, nil).CompileFiles(0)
	require.NoError(t, err)

	main := prog.Prototypes[prog.MainIndex]
	require.Len(t, main.Instructions, 4)
	assert.Equal(t, Move, main.Instructions[0].Operation)
	assert.Equal(t, Move, main.Instructions[1].Operation)
	assert.Equal(t, Add, main.Instructions[2].Operation)
	assert.Equal(t, Return, main.Instructions[3].Operation)
	assert.EqualValues(t, 3, main.RegisterCount)
}

// "foo" + "bar" folds at compile time into one fused string constant,
// never emitting an ADD, and the fused range is adjacent in the pool
// rather than a fresh copy.
func TestStringConcatenationFusesAdjacentPoolRanges(t *testing.T) {
	b := newTestBuilder()
	mainScope := b.tbl.AddScope(resolver.Scope{Parent: resolver.NoScope})
	concat := b.binary(ast.KindAdditionExpression, b.str("foo"), b.str("bar"))
	_, trees := b.mainChunk(mainScope, concat)

	prog, err := New(b.tbl, trees, nil).CompileFiles(0)
	require.NoError(t, err)

	main := prog.Prototypes[prog.MainIndex]
	require.Len(t, main.Instructions, 1)
	instr := main.Instructions[0]
	assert.Equal(t, Return, instr.Operation)
	assert.Equal(t, types.OperandString, instr.OperandType)

	s, ok := prog.Constants.GetString(instr.B.Index)
	require.True(t, ok)
	assert.Equal(t, "foobar", s)

	r, ok := prog.Constants.StringRange(instr.B.Index)
	require.True(t, ok)
	assert.EqualValues(t, 6, r.End-r.Start, "fused range spans both literals without a gap")
}

// A string local concatenated with a character local cannot fold, so it
// must emit a STRING_CHARACTER-tagged ADD rather than reject the mismatch.
func TestStringCharacterConcatenationUsesMixedOperandTag(t *testing.T) {
	b := newTestBuilder()
	mainScope := b.tbl.AddScope(resolver.Scope{Parent: resolver.NoScope})
	letS := b.letStmt("s", false, b.str("hi"))
	letC := b.letStmt("c", false, b.tree.Push(ast.Node{Kind: ast.KindCharacterLiteral, Payload: ast.Payload{Char: '!'}}))
	concat := b.binary(ast.KindAdditionExpression, b.path("s"), b.path("c"))
	b.local("s", false, types.STRING, mainScope)
	b.local("c", false, types.CHARACTER, mainScope)

	_, trees := b.mainChunk(mainScope, letS, letC, concat)
	prog, err := New(b.tbl, trees, nil).CompileFiles(0)
	require.NoError(t, err)

	main := prog.Prototypes[prog.MainIndex]
	var add *Instruction
	for i := range main.Instructions {
		if main.Instructions[i].Operation == Add {
			add = &main.Instructions[i]
		}
	}
	require.NotNil(t, add, "locals cannot fold, so a real ADD must be emitted")
	assert.Equal(t, types.OperandStringCharacter, add.OperandType)
}

// String-typed locals are recorded in the function's drop list on
// declaration; a block exiting with string locals in scope emits a DROP
// whose range indexes that list rather than a bare register range.
func TestStringLocalsPopulateDropList(t *testing.T) {
	b := newTestBuilder()
	mainScope := b.tbl.AddScope(resolver.Scope{Parent: resolver.NoScope})
	cond := b.boolean(true)
	letInner := b.letStmt("word", false, b.str("hello"))
	thenBlock := b.block(letInner, b.integer(1))
	elseBlock := b.block(b.integer(0))
	ifExpr := b.tree.PushWithChildren(ast.Node{Kind: ast.KindIfExpression}, cond, thenBlock, elseBlock)
	b.local("word", false, types.STRING, mainScope)

	_, trees := b.mainChunk(mainScope, ifExpr)
	prog, err := New(b.tbl, trees, nil).CompileFiles(0)
	require.NoError(t, err)

	main := prog.Prototypes[prog.MainIndex]
	require.Len(t, main.DropLists, 1, "the then-branch's one string local should appear exactly once")

	foundDropRange := false
	for _, instr := range main.Instructions {
		if instr.Operation == Jump && instr.RangeEnd > instr.RangeStart {
			foundDropRange = true
			regs := main.DropLists[instr.RangeStart:instr.RangeEnd]
			assert.Len(t, regs, 1)
		}
	}
	assert.True(t, foundDropRange, "the then-branch's closing jump should coalesce the string drop")
}

// if true { 1 } else { 2 }: both branches place a constant into the same
// destination register and share one result type.
func TestIfElseSharesDestinationRegister(t *testing.T) {
	b := newTestBuilder()
	mainScope := b.tbl.AddScope(resolver.Scope{Parent: resolver.NoScope})
	cond := b.boolean(true)
	thenBlock := b.block(b.integer(1))
	elseBlock := b.block(b.integer(2))
	ifExpr := b.tree.PushWithChildren(ast.Node{Kind: ast.KindIfExpression}, cond, thenBlock, elseBlock)

	_, trees := b.mainChunk(mainScope, ifExpr)
	prog, err := New(b.tbl, trees, nil).CompileFiles(0)
	require.NoError(t, err)

	main := prog.Prototypes[prog.MainIndex]
	var moves []Instruction
	for _, instr := range main.Instructions {
		if instr.Operation == Move {
			moves = append(moves, instr)
		}
	}
	require.Len(t, moves, 2, "each branch places its literal into the shared destination with one MOVE")
	assert.Equal(t, moves[0].A, moves[1].A)
	assert.Equal(t, Return, main.Instructions[len(main.Instructions)-1].Operation)
}

// let mut i = 0; while i < 10 { i += 1 } produces the canonical loop shape:
// an initializing MOVE, the condition test/jump pair guarding the body,
// the compound-assign ADD, and a backward JUMP to the loop start.
func TestWhileLoopProducesBackwardJump(t *testing.T) {
	b := newTestBuilder()
	mainScope := b.tbl.AddScope(resolver.Scope{Parent: resolver.NoScope})
	letI := b.letStmt("i", true, b.integer(0))
	cond := b.binary(ast.KindLessThanExpression, b.path("i"), b.integer(10))
	incr := b.tree.PushWithChildren(ast.Node{Kind: ast.KindAddAssignStatement, Payload: ast.Payload{Text: "i"}}, b.integer(1))
	body := b.block(incr)
	whileExpr := b.tree.PushWithChildren(ast.Node{Kind: ast.KindWhileExpression}, cond, body)
	b.local("i", true, types.INTEGER, mainScope)

	_, trees := b.mainChunk(mainScope, letI, whileExpr)
	prog, err := New(b.tbl, trees, nil).CompileFiles(0)
	require.NoError(t, err)

	main := prog.Prototypes[prog.MainIndex]
	var backwardJumps int
	for _, instr := range main.Instructions {
		if instr.Operation == Jump && !instr.JumpIsPositive {
			backwardJumps++
		}
	}
	assert.Equal(t, 1, backwardJumps, "exactly one backward jump should close the loop body")

	var adds int
	for _, instr := range main.Instructions {
		if instr.Operation == Add {
			adds++
		}
	}
	assert.Equal(t, 1, adds)
}

// 10 / 0 fails compilation with ErrorDivisionByZero rather than silently
// folding to a garbage constant.
func TestConstantDivisionByZeroFails(t *testing.T) {
	b := newTestBuilder()
	mainScope := b.tbl.AddScope(resolver.Scope{Parent: resolver.NoScope})
	div := b.binary(ast.KindDivisionExpression, b.integer(10), b.integer(0))
	_, trees := b.mainChunk(mainScope, div)

	_, err := New(b.tbl, trees, nil).CompileFiles(0)
	require.Error(t, err)
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, ErrorDivisionByZero, compileErr.Kind)
}

// A function called from main compiles lazily via ensurePrototypeCompiled
// into its own prototype, which main's CALL references by index.
func TestFunctionCallCompilesCalleeLazily(t *testing.T) {
	b := newTestBuilder()
	addScope := b.tbl.AddScope(resolver.Scope{Parent: resolver.NoScope})
	addBody := b.block(b.binary(ast.KindAdditionExpression, b.path("a"), b.path("b")))
	addItem := b.tree.PushWithChildren(ast.Node{Kind: ast.KindFunctionItem, Payload: ast.Payload{Text: "add"}}, addBody)
	b.local("a", false, types.INTEGER, addScope)
	b.local("b", false, types.INTEGER, addScope)

	mainScope := b.tbl.AddScope(resolver.Scope{Parent: resolver.NoScope})
	addDecl := b.tbl.AddDeclaration("add", resolver.Declaration{
		Kind:         resolver.KindFunction,
		TypeId:       types.INTEGER,
		SyntaxId:     addItem,
		InnerScopeId: addScope,
		Parameters: []resolver.Parameter{
			{Name: "a", TypeId: types.INTEGER},
			{Name: "b", TypeId: types.INTEGER},
		},
	})
	b.tbl.Bind(mainScope, "add", addDecl)

	call := b.tree.PushWithChildren(ast.Node{Kind: ast.KindCallExpression}, b.path("add"), b.integer(2), b.integer(3))
	_, trees := b.mainChunk(mainScope, call)

	prog, err := New(b.tbl, trees, nil).CompileFiles(0)
	require.NoError(t, err)
	require.Len(t, prog.Prototypes, 2, "main plus the one compiled function")

	main := prog.Prototypes[prog.MainIndex]
	var call0 *Instruction
	for i := range main.Instructions {
		if main.Instructions[i].Operation == Call {
			call0 = &main.Instructions[i]
		}
	}
	require.NotNil(t, call0)
	assert.NotEqual(t, prog.MainIndex, call0.B.Index)

	callee := prog.Prototypes[call0.B.Index]
	assert.Len(t, callee.Instructions, 2, "ADD into a temporary, then RETURN")
}

// A list's elements must share one operand type; mixing integer and
// string literals must fail rather than silently pick one side's type.
func TestListExpressionRejectsMismatchedElementTypes(t *testing.T) {
	b := newTestBuilder()
	mainScope := b.tbl.AddScope(resolver.Scope{Parent: resolver.NoScope})
	list := b.tree.PushWithChildren(ast.Node{Kind: ast.KindListExpression}, b.integer(1), b.str("two"))
	_, trees := b.mainChunk(mainScope, list)

	_, err := New(b.tbl, trees, nil).CompileFiles(0)
	require.Error(t, err)
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, ErrorMismatchedConstantTypes, compileErr.Kind)
}
