package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaeus/dust/lang/types"
)

func TestTableScopeChain(t *testing.T) {
	tbl := NewTable()

	outer := tbl.AddScope(Scope{Parent: NoScope})
	inner := tbl.AddScope(Scope{Parent: outer})

	xDecl := tbl.AddDeclaration("x", Declaration{Kind: KindLocal, TypeId: types.INTEGER})
	tbl.Bind(outer, "x", xDecl)

	id, ok := tbl.FindDeclarationInScope("x", inner)
	require.True(t, ok)
	assert.Equal(t, xDecl, id)

	_, ok = tbl.FindDeclarationInScope("y", inner)
	assert.False(t, ok)
}

func TestTableFindDeclarationsReturnsAllWithName(t *testing.T) {
	tbl := NewTable()

	first := tbl.AddDeclaration("add", Declaration{Kind: KindFunction})
	second := tbl.AddDeclaration("add", Declaration{Kind: KindFunction})

	ids := tbl.FindDeclarations("add")
	assert.ElementsMatch(t, []DeclarationId{first, second}, ids)
}

func TestTableResolveListType(t *testing.T) {
	tbl := NewTable()

	listId := tbl.AddTypeMembers([]types.TypeId{types.INTEGER})
	resolved, ok := tbl.ResolveType(listId)
	require.True(t, ok)
	assert.Equal(t, types.KindList, resolved.Kind)
	assert.Equal(t, types.INTEGER, resolved.Element)

	operand, ok := tbl.GetOperandType(listId)
	require.True(t, ok)
	assert.Equal(t, types.ListOperandType(types.OperandInteger), operand)
}

func TestTableFunctionTypeNodeRoundTrips(t *testing.T) {
	tbl := NewTable()

	fnType := tbl.AddTypeNode(FunctionTypeNode{Parameters: []types.TypeId{types.INTEGER, types.INTEGER}, Return: types.INTEGER})
	resolved, ok := tbl.ResolveType(fnType)
	require.True(t, ok)
	assert.Equal(t, types.KindFunction, resolved.Kind)
	assert.Equal(t, types.INTEGER, resolved.Return)
}

func TestTableGetParameter(t *testing.T) {
	tbl := NewTable()

	decl := tbl.AddDeclaration("add", Declaration{
		Kind: KindFunction,
		Parameters: []Parameter{
			{Name: "a", TypeId: types.INTEGER},
			{Name: "b", TypeId: types.INTEGER},
		},
	})

	p, ok := tbl.GetParameter(decl, 1)
	require.True(t, ok)
	assert.Equal(t, "b", p.Name)

	_, ok = tbl.GetParameter(decl, 2)
	assert.False(t, ok)
}
