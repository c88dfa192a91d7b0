// Package ast defines the flat syntax tree the compiler consumes. Lexing,
// parsing and name resolution live outside this repository's scope; this
// package only provides the shape of the tree a conformant parser must
// produce, plus enough construction helpers for the compiler's own tests
// to build trees by hand.
//
// The tree is stored as a single flat slice of Node values rather than a
// graph of pointers. A node's children are a packed (start, count) pair
// indexing a contiguous run of NodeId values in a shared arena, which keeps
// the representation cheap to build incrementally and cheap to walk
// bottom-up (the compiler never needs to mutate a node once appended).
package ast

import "github.com/solaeus/dust/lang/token"

// NodeId indexes a Node within a Tree.
type NodeId uint32

// Kind enumerates every node shape the compiler's expression, statement and
// item compilers dispatch on.
type Kind uint16

//nolint:revive
const (
	KindInvalid Kind = iota

	// Items
	KindChunk
	KindMainFunctionItem
	KindFunctionItem
	KindModuleItem
	KindUseItem

	// Statements
	KindLetStatement
	KindReassignmentStatement
	KindExpressionStatement

	// Expressions
	KindBooleanLiteral
	KindByteLiteral
	KindCharacterLiteral
	KindFloatLiteral
	KindIntegerLiteral
	KindStringLiteral
	KindPathExpression
	KindBlockExpression
	KindIfExpression
	KindWhileExpression
	KindFunctionExpression
	KindCallExpression
	KindIndexExpression
	KindListExpression
	KindUnaryExpression
	KindLogicalAndExpression
	KindLogicalOrExpression

	// Binary arithmetic / comparison, grouped so range checks are cheap.
	KindAdditionExpression
	KindSubtractionExpression
	KindMultiplicationExpression
	KindDivisionExpression
	KindModuloExpression
	KindPowerExpression
	KindEqualExpression
	KindNotEqualExpression
	KindLessThanExpression
	KindLessThanOrEqualExpression
	KindGreaterThanExpression
	KindGreaterThanOrEqualExpression

	// Compound assignment, one per arithmetic operator.
	KindAddAssignStatement
	KindSubtractAssignStatement
	KindMultiplyAssignStatement
	KindDivideAssignStatement
	KindModuloAssignStatement
)

func (k Kind) IsBinaryArithmetic() bool {
	return k >= KindAdditionExpression && k <= KindPowerExpression
}

func (k Kind) IsComparison() bool {
	return k >= KindEqualExpression && k <= KindGreaterThanOrEqualExpression
}

func (k Kind) IsCompoundAssign() bool {
	return k >= KindAddAssignStatement && k <= KindModuloAssignStatement
}

// Node is one entry of a Tree. Children is a (start, count) pair into the
// Tree's children arena; how it is interpreted (e.g. "left, right" for a
// binary expression, "condition, then, else" for an if) is documented per
// Kind by the compiler that consumes it.
type Node struct {
	Kind     Kind
	Start    token.Pos
	End      token.Pos
	Children [2]uint32 // (childStart, childCount)

	// Payload carries kind-specific auxiliary data that doesn't fit the
	// generic children shape: the decoded value of a literal, the name of a
	// path segment, or the name a let, reassignment or compound assignment
	// binds to (a compound assignment's operator is its Kind).
	Payload Payload
}

func (n Node) Span() (token.Pos, token.Pos) { return n.Start, n.End }

// Payload is a tagged union of the small amount of per-node data that isn't
// itself a child node: literal values and interned names. Which fields are
// meaningful is selected by the owning Node's Kind; a let statement uses
// both Text and Mutable, every other kind at most one field.
type Payload struct {
	Bool    bool
	Byte    byte
	Char    rune
	Float   float64
	Int     int64
	Text    string // string literal content, or a path/identifier segment
	Mutable bool   // KindLetStatement: true if declared with "let mut"
}

// Tree is a flat, append-only arena of Node values plus the child-index
// arena they reference. A *Tree is produced by the (out-of-scope) parser and
// consumed read-only by the compiler.
type Tree struct {
	File     *token.File
	Nodes    []Node
	Children []NodeId
}

// NewTree creates an empty Tree anchored at file.
func NewTree(file *token.File) *Tree {
	return &Tree{File: file}
}

// Node returns the node at id.
func (t *Tree) Node(id NodeId) Node { return t.Nodes[id] }

// ChildIds returns the NodeId slice referenced by a node's Children field.
func (t *Tree) ChildIds(n Node) []NodeId {
	start, count := n.Children[0], n.Children[1]
	return t.Children[start : start+count]
}

// Child returns the i'th child of n.
func (t *Tree) Child(n Node, i int) Node {
	return t.Node(t.ChildIds(n)[i])
}

// Push appends a node with no children and returns its id.
func (t *Tree) Push(n Node) NodeId {
	id := NodeId(len(t.Nodes))
	t.Nodes = append(t.Nodes, n)
	return id
}

// PushWithChildren appends n after recording childIds in the children arena,
// setting n.Children accordingly, and returns the new node's id.
func (t *Tree) PushWithChildren(n Node, childIds ...NodeId) NodeId {
	start := uint32(len(t.Children))
	t.Children = append(t.Children, childIds...)
	n.Children = [2]uint32{start, uint32(len(childIds))}
	return t.Push(n)
}

// Root is the conventional id of a Tree's top-level Chunk node, always the
// last node pushed by a well-formed parse.
func (t *Tree) Root() NodeId { return NodeId(len(t.Nodes) - 1) }
