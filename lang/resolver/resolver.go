// Package resolver defines the declaration/scope/type resolver the compiler
// consumes. Name resolution itself — binding identifiers to declarations,
// building scope trees, inferring types — happens upstream of this
// repository; this package only specifies the shape of that collaborator
// (the Resolver interface) and ships a straightforward in-memory
// implementation (Table) so the compiler can be exercised and tested
// without a real front end.
package resolver

import (
	"github.com/dolthub/swiss"

	"github.com/solaeus/dust/lang/ast"
	"github.com/solaeus/dust/lang/token"
	"github.com/solaeus/dust/lang/types"
)

// DeclarationId references a Declaration in a Resolver.
type DeclarationId uint32

// ScopeId references a Scope in a Resolver.
type ScopeId uint32

// FileId references a source file by index into the Resolver's file list.
type FileId uint32

// NoScope is the zero ScopeId, reserved for "no enclosing scope" (the
// implicit scope above a chunk's top level).
const NoScope ScopeId = 0

// Parameter is one parameter of a function declaration.
type Parameter struct {
	Name   string
	TypeId types.TypeId
}

// Kind discriminates the five declaration shapes a resolver can produce.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindLocal
	KindLocalMutable
	KindFunction
	KindModule
	KindNativeFunction
)

// Declaration is what a name resolves to. Only the fields relevant to Kind
// are meaningful; see the Kind* constants.
type Declaration struct {
	Name     string
	Kind     Kind
	Position token.Position
	TypeId   types.TypeId

	Shadowed bool // Local/LocalMutable: another binding of the same name is visible in an enclosing scope

	// Function
	PrototypeIndex *uint32 // nil until the function has been lazily compiled
	FileId         FileId
	InnerScopeId   ScopeId
	SyntaxId       ast.NodeId
	Parameters     []Parameter

	// Module
	// InnerScopeId is reused for Module declarations too.

	// NativeFunction
	NativeName string
}

// Scope is one lexical block: a set of name bindings plus a link to its
// enclosing scope.
type Scope struct {
	Parent   ScopeId
	bindings map[string]DeclarationId
}

// FunctionTypeNode is the not-yet-resolved signature of a function,
// recorded with AddTypeNode and turned into a KindFunction Type by
// ResolveType.
type FunctionTypeNode struct {
	Parameters []types.TypeId
	Return     types.TypeId
}

// Resolver is the interface the compiler consumes. *Table below is the
// in-memory implementation used by this repository's own tests and CLI.
type Resolver interface {
	GetDeclaration(id DeclarationId) (Declaration, bool)
	GetDeclarationMut(id DeclarationId) *Declaration
	AddDeclaration(name string, decl Declaration) DeclarationId
	FindDeclarationInScope(name string, scope ScopeId) (DeclarationId, bool)
	FindDeclarations(name string) []DeclarationId

	GetScopeBinding(syntaxId ast.NodeId) (ScopeId, bool)
	SetScopeBinding(syntaxId ast.NodeId, scope ScopeId)
	AddScope(scope Scope) ScopeId

	AddTypeNode(node FunctionTypeNode) types.TypeId
	GetTypeNode(id types.TypeId) (FunctionTypeNode, bool)
	ResolveType(id types.TypeId) (types.Type, bool)
	GetOperandType(id types.TypeId) (types.OperandType, bool)
	AddTypeMembers(ids []types.TypeId) types.TypeId
	GetParameter(declId DeclarationId, index int) (Parameter, bool)
}

// Table is a straightforward, single-threaded Resolver implementation. Its
// syntax-node-to-scope map, by-name declaration index and type-node index
// are backed by dolthub/swiss.Map, the open-addressing hash map the
// constant table also uses; each Scope's own bindings are a plain Go map.
type Table struct {
	declarations []Declaration
	scopes       []Scope
	scopeOf      *swiss.Map[ast.NodeId, ScopeId]
	byName       *swiss.Map[string, []DeclarationId]

	typeNodes    []FunctionTypeNode
	typeNodeById *swiss.Map[types.TypeId, int]
	types        []types.Type
}

var _ Resolver = (*Table)(nil)

// NewTable creates an empty Table seeded with the well-known primitive
// TypeIds from the types package, plus the implicit root scope (NoScope).
func NewTable() *Table {
	t := &Table{
		scopeOf:      swiss.NewMap[ast.NodeId, ScopeId](8),
		byName:       swiss.NewMap[string, []DeclarationId](8),
		typeNodeById: swiss.NewMap[types.TypeId, int](4),
		types:        make([]types.Type, firstDynamicTypeId()),
	}
	t.types[types.BOOLEAN] = types.Type{Kind: types.KindBoolean}
	t.types[types.BYTE] = types.Type{Kind: types.KindByte}
	t.types[types.CHARACTER] = types.Type{Kind: types.KindCharacter}
	t.types[types.FLOAT] = types.Type{Kind: types.KindFloat}
	t.types[types.INTEGER] = types.Type{Kind: types.KindInteger}
	t.types[types.STRING] = types.Type{Kind: types.KindString}
	t.scopes = append(t.scopes, Scope{Parent: NoScope, bindings: map[string]DeclarationId{}}) // NoScope itself
	return t
}

// firstDynamicTypeId mirrors types.firstDynamicTypeId, duplicated here since
// that identifier is unexported; it assumes types.STRING is the last
// primitive TypeId.
func firstDynamicTypeId() int { return int(types.STRING) + 1 }

func (t *Table) GetDeclaration(id DeclarationId) (Declaration, bool) {
	if int(id) >= len(t.declarations) {
		return Declaration{}, false
	}
	return t.declarations[id], true
}

func (t *Table) GetDeclarationMut(id DeclarationId) *Declaration {
	if int(id) >= len(t.declarations) {
		return nil
	}
	return &t.declarations[id]
}

func (t *Table) AddDeclaration(name string, decl Declaration) DeclarationId {
	decl.Name = name
	id := DeclarationId(len(t.declarations))
	t.declarations = append(t.declarations, decl)

	existing, _ := t.byName.Get(name)
	t.byName.Put(name, append(existing, id))
	return id
}

func (t *Table) FindDeclarationInScope(name string, scope ScopeId) (DeclarationId, bool) {
	for s := scope; ; {
		if int(s) >= len(t.scopes) {
			return 0, false
		}
		sc := t.scopes[s]
		if id, ok := sc.bindings[name]; ok {
			return id, true
		}
		if s == NoScope {
			return 0, false
		}
		s = sc.Parent
	}
}

func (t *Table) FindDeclarations(name string) []DeclarationId {
	ids, _ := t.byName.Get(name)
	return ids
}

func (t *Table) GetScopeBinding(syntaxId ast.NodeId) (ScopeId, bool) {
	return t.scopeOf.Get(syntaxId)
}

func (t *Table) SetScopeBinding(syntaxId ast.NodeId, scope ScopeId) {
	t.scopeOf.Put(syntaxId, scope)
}

func (t *Table) AddScope(scope Scope) ScopeId {
	if scope.bindings == nil {
		scope.bindings = map[string]DeclarationId{}
	}
	id := ScopeId(len(t.scopes))
	t.scopes = append(t.scopes, scope)
	return id
}

// Bind declares name in scope, pointing it at declId. It is a convenience
// used by this repository's tests (a real resolver would have done this
// during its own binding pass).
func (t *Table) Bind(scope ScopeId, name string, declId DeclarationId) {
	t.scopes[scope].bindings[name] = declId
}

func (t *Table) AddTypeNode(node FunctionTypeNode) types.TypeId {
	id := types.TypeId(len(t.types))
	t.types = append(t.types, types.Type{}) // placeholder resolved lazily by ResolveType
	t.typeNodeById.Put(id, len(t.typeNodes))
	t.typeNodes = append(t.typeNodes, node)
	return id
}

func (t *Table) GetTypeNode(id types.TypeId) (FunctionTypeNode, bool) {
	i, ok := t.typeNodeById.Get(id)
	if !ok {
		return FunctionTypeNode{}, false
	}
	return t.typeNodes[i], true
}

func (t *Table) ResolveType(id types.TypeId) (types.Type, bool) {
	if node, ok := t.GetTypeNode(id); ok {
		return types.Type{Kind: types.KindFunction, Parameters: node.Parameters, Return: node.Return}, true
	}
	if int(id) >= len(t.types) {
		return types.Type{}, false
	}
	return t.types[id], true
}

func (t *Table) GetOperandType(id types.TypeId) (types.OperandType, bool) {
	return types.OperandTypeOf(t.ResolveType, id)
}

// AddTypeMembers interns a composite type from its member TypeIds. Dust's
// compiler core supports one composite shape, lists, so a single member is
// interpreted as the list's element type; tuples (multiple members) are a
// non-goal and AddTypeMembers(ids) with len(ids) != 1 panics rather than
// silently truncating.
func (t *Table) AddTypeMembers(ids []types.TypeId) types.TypeId {
	if len(ids) != 1 {
		panic("resolver: AddTypeMembers supports exactly one member (list element); tuples are not implemented")
	}
	id := types.TypeId(len(t.types))
	t.types = append(t.types, types.Type{Kind: types.KindList, Element: ids[0]})
	return id
}

func (t *Table) GetParameter(declId DeclarationId, index int) (Parameter, bool) {
	decl, ok := t.GetDeclaration(declId)
	if !ok || index < 0 || index >= len(decl.Parameters) {
		return Parameter{}, false
	}
	return decl.Parameters[index], true
}
