// Package examples supplies a small registry of hand-built programs for the
// compile command (internal/maincmd) and for tests that want a realistic,
// multi-feature Program without depending on a real source-text front end.
//
// Lexing, parsing and name resolution are explicitly out of scope for this
// repository (see lang/ast and lang/resolver's package docs): this module
// never produces a *ast.Tree or resolver.Table from Dust source text.
// Instead, each entry here builds its tree and resolver table directly
// through the same Go construction APIs lang/resolver's own tests use
// (resolver.Table.AddScope / AddDeclaration / Bind, ast.Tree.Push /
// PushWithChildren), standing in for what a conformant parser and resolver
// would have produced: a fixed, named set of example ASTs in place of a
// source-text front end.
package examples

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/solaeus/dust/lang/ast"
	"github.com/solaeus/dust/lang/resolver"
	"github.com/solaeus/dust/lang/token"
	"github.com/solaeus/dust/lang/types"
)

// Program is a fully resolved, ready-to-compile example: everything
// compiler.Compiler.CompileFiles needs beyond its own construction.
type Program struct {
	Name     string
	Describe string
	Resolver resolver.Resolver
	Trees    map[resolver.FileId]*ast.Tree
	MainFile resolver.FileId
}

var registry = map[string]func() Program{
	"arithmetic": buildArithmetic,
	"functions":  buildFunctions,
	"lists":      buildLists,
}

// Names returns every registered example's name, sorted for stable CLI
// listing — registry is a plain map, so iteration order isn't otherwise
// guaranteed.
func Names() []string {
	names := maps.Keys(registry)
	slices.Sort(names)
	return names
}

// Get builds and returns the named example.
func Get(name string) (Program, error) {
	build, ok := registry[name]
	if !ok {
		return Program{}, fmt.Errorf("examples: unknown example %q (have: %v)", name, Names())
	}
	return build(), nil
}

// builder collects the small amount of shared scaffolding every example
// needs: a single-file FileSet, a resolver.Table, and a handful of node
// constructors that save each example from repeating ast.Node literals.
type builder struct {
	tree *ast.Tree
	tbl  *resolver.Table
}

func newBuilder(filename string) *builder {
	fs := token.NewFileSet()
	file := fs.AddFile(filename, -1, 0)
	return &builder{tree: ast.NewTree(file), tbl: resolver.NewTable()}
}

func (b *builder) integer(v int64) ast.NodeId {
	return b.tree.Push(ast.Node{Kind: ast.KindIntegerLiteral, Payload: ast.Payload{Int: v}})
}

func (b *builder) path(name string) ast.NodeId {
	return b.tree.Push(ast.Node{Kind: ast.KindPathExpression, Payload: ast.Payload{Text: name}})
}

func (b *builder) binary(kind ast.Kind, left, right ast.NodeId) ast.NodeId {
	return b.tree.PushWithChildren(ast.Node{Kind: kind}, left, right)
}

func (b *builder) block(children ...ast.NodeId) ast.NodeId {
	return b.tree.PushWithChildren(ast.Node{Kind: ast.KindBlockExpression}, children...)
}

func (b *builder) letStmt(name string, mutable bool, value ast.NodeId) ast.NodeId {
	return b.tree.PushWithChildren(ast.Node{Kind: ast.KindLetStatement, Payload: ast.Payload{Text: name, Mutable: mutable}}, value)
}

func (b *builder) local(name string, mutable bool, typeId types.TypeId, scope resolver.ScopeId) resolver.DeclarationId {
	kind := resolver.KindLocal
	if mutable {
		kind = resolver.KindLocalMutable
	}
	id := b.tbl.AddDeclaration(name, resolver.Declaration{Kind: kind, TypeId: typeId})
	b.tbl.Bind(scope, name, id)
	return id
}

// buildArithmetic exercises constant folding (1 + 2*3 folds to a single
// constant), a mutable local with a compound-assignment statement, and an
// if/else both branches of which produce a value.
func buildArithmetic() Program {
	b := newBuilder("arithmetic.ds")

	sum := b.binary(ast.KindAdditionExpression, b.integer(1),
		b.binary(ast.KindMultiplicationExpression, b.integer(2), b.integer(3)))
	letX := b.letStmt("x", false, sum)
	letY := b.letStmt("y", true, b.path("x"))

	four := b.integer(4)
	incrY := b.tree.PushWithChildren(ast.Node{Kind: ast.KindAddAssignStatement, Payload: ast.Payload{Text: "y"}}, four)

	cond := b.binary(ast.KindGreaterThanExpression, b.path("y"), b.integer(5))
	thenBlock := b.block(b.path("y"))
	elseBlock := b.block(b.integer(0))
	ifExpr := b.tree.PushWithChildren(ast.Node{Kind: ast.KindIfExpression}, cond, thenBlock, elseBlock)

	mainBody := b.block(letX, letY, incrY, ifExpr)
	mainItem := b.tree.PushWithChildren(ast.Node{Kind: ast.KindMainFunctionItem}, mainBody)
	chunk := b.tree.PushWithChildren(ast.Node{Kind: ast.KindChunk}, mainItem)

	mainScope := b.tbl.AddScope(resolver.Scope{Parent: resolver.NoScope})
	b.tbl.SetScopeBinding(chunk, mainScope)
	b.local("x", false, types.INTEGER, mainScope)
	b.local("y", true, types.INTEGER, mainScope)

	return Program{
		Name:     "arithmetic",
		Describe: "constant folding, a mutable local, and an if/else producing a value",
		Resolver: b.tbl,
		Trees:    map[resolver.FileId]*ast.Tree{0: b.tree},
		MainFile: 0,
	}
}

// buildFunctions exercises a user-defined function (ensurePrototypeCompiled)
// called from main, and the RETURN/CALL instruction pair.
func buildFunctions() Program {
	b := newBuilder("functions.ds")

	addBody := b.block(b.binary(ast.KindAdditionExpression, b.path("a"), b.path("b")))
	addItem := b.tree.PushWithChildren(ast.Node{Kind: ast.KindFunctionItem, Payload: ast.Payload{Text: "add"}}, addBody)

	call := b.tree.PushWithChildren(ast.Node{Kind: ast.KindCallExpression}, b.path("add"), b.integer(2), b.integer(3))
	letSum := b.letStmt("sum", false, call)
	doubled := b.binary(ast.KindMultiplicationExpression, b.path("sum"), b.integer(2))
	letDoubled := b.letStmt("doubled", false, doubled)

	mainBody := b.block(letSum, letDoubled, b.path("doubled"))
	mainItem := b.tree.PushWithChildren(ast.Node{Kind: ast.KindMainFunctionItem}, mainBody)
	chunk := b.tree.PushWithChildren(ast.Node{Kind: ast.KindChunk}, mainItem)

	mainScope := b.tbl.AddScope(resolver.Scope{Parent: resolver.NoScope})
	b.tbl.SetScopeBinding(chunk, mainScope)

	addScope := b.tbl.AddScope(resolver.Scope{Parent: resolver.NoScope})
	b.local("a", false, types.INTEGER, addScope)
	b.local("b", false, types.INTEGER, addScope)

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
	b.local("sum", false, types.INTEGER, mainScope)
	b.local("doubled", false, types.INTEGER, mainScope)

	return Program{
		Name:     "functions",
		Describe: "a user-defined function compiled lazily via a call from main",
		Resolver: b.tbl,
		Trees:    map[resolver.FileId]*ast.Tree{0: b.tree},
		MainFile: 0,
	}
}

// buildLists exercises NEW_LIST/SET_LIST/GET_LIST and a CALL_NATIVE
// dispatch through a native function declaration.
func buildLists() Program {
	b := newBuilder("lists.ds")

	list := b.tree.PushWithChildren(ast.Node{Kind: ast.KindListExpression}, b.integer(1), b.integer(2), b.integer(3))
	letXs := b.letStmt("xs", false, list)

	call := b.tree.PushWithChildren(ast.Node{Kind: ast.KindCallExpression}, b.path("length"), b.path("xs"))
	letN := b.letStmt("n", false, call)

	index := b.tree.PushWithChildren(ast.Node{Kind: ast.KindIndexExpression}, b.path("xs"), b.integer(0))
	letFirst := b.letStmt("first", false, index)

	result := b.binary(ast.KindAdditionExpression, b.path("n"), b.path("first"))

	mainBody := b.block(letXs, letN, letFirst, result)
	mainItem := b.tree.PushWithChildren(ast.Node{Kind: ast.KindMainFunctionItem}, mainBody)
	chunk := b.tree.PushWithChildren(ast.Node{Kind: ast.KindChunk}, mainItem)

	mainScope := b.tbl.AddScope(resolver.Scope{Parent: resolver.NoScope})
	b.tbl.SetScopeBinding(chunk, mainScope)

	listType := b.tbl.AddTypeMembers([]types.TypeId{types.INTEGER})
	b.local("xs", false, listType, mainScope)
	b.local("n", false, types.INTEGER, mainScope)
	b.local("first", false, types.INTEGER, mainScope)

	lengthDecl := b.tbl.AddDeclaration("length", resolver.Declaration{
		Kind:       resolver.KindNativeFunction,
		TypeId:     types.INTEGER,
		NativeName: "length",
	})
	b.tbl.Bind(mainScope, "length", lengthDecl)

	return Program{
		Name:     "lists",
		Describe: "a list literal, indexing, and a native function call",
		Resolver: b.tbl,
		Trees:    map[resolver.FileId]*ast.Tree{0: b.tree},
		MainFile: 0,
	}
}
