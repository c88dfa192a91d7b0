package compiler

import (
	"fmt"

	"github.com/solaeus/dust/lang/token"
)

// ErrorKind enumerates every distinct way compilation can fail. Compilation
// is fail-fast: the first error encountered is returned immediately rather
// than accumulated, since a wrong assumption about one syntax node easily
// cascades into nonsense reports about others.
type ErrorKind uint8

const (
	// errorNone is the zero value, reserved so folding helpers can use 0 as
	// an "no error" sentinel without colliding with a real ErrorKind.
	errorNone ErrorKind = iota
	ErrorExpectedStatement
	ErrorExpectedItem
	ErrorExpectedExpression
	ErrorExpectedFunction
	ErrorExpectedFunctionType
	ErrorExpectedBooleanExpression
	ErrorExpectedList
	ErrorMissingSyntaxNode
	ErrorMissingChild
	ErrorMissingChildren
	ErrorMissingSyntaxTree
	ErrorMissingSourceFile
	ErrorMissingDeclaration
	ErrorMissingDeclarations
	ErrorMissingType
	ErrorMissingScopeBinding
	ErrorMissingNativeFunction
	ErrorUndeclaredVariable
	ErrorCannotMutate
	ErrorCannotImport
	ErrorMismatchedConstantTypes
	ErrorMismatchedIfElseTypes
	ErrorCannotInferListType
	ErrorDivisionByZero
)

func (k ErrorKind) String() string {
	switch k {
	case errorNone:
		return "<no error>"
	case ErrorExpectedStatement:
		return "expected a statement"
	case ErrorExpectedItem:
		return "expected an item"
	case ErrorExpectedExpression:
		return "expected an expression"
	case ErrorExpectedFunction:
		return "expected a function"
	case ErrorExpectedFunctionType:
		return "expected a function type"
	case ErrorExpectedBooleanExpression:
		return "expected a boolean expression"
	case ErrorExpectedList:
		return "expected a list"
	case ErrorMissingSyntaxNode:
		return "missing syntax node"
	case ErrorMissingChild:
		return "missing child node"
	case ErrorMissingChildren:
		return "missing child nodes"
	case ErrorMissingSyntaxTree:
		return "missing syntax tree"
	case ErrorMissingSourceFile:
		return "missing source file"
	case ErrorMissingDeclaration:
		return "missing declaration"
	case ErrorMissingDeclarations:
		return "missing declarations"
	case ErrorMissingType:
		return "missing type"
	case ErrorMissingScopeBinding:
		return "missing scope binding"
	case ErrorMissingNativeFunction:
		return "missing native function"
	case ErrorUndeclaredVariable:
		return "undeclared variable"
	case ErrorCannotMutate:
		return "cannot mutate"
	case ErrorCannotImport:
		return "cannot import"
	case ErrorMismatchedConstantTypes:
		return "mismatched constant types"
	case ErrorMismatchedIfElseTypes:
		return "mismatched if/else branch types"
	case ErrorCannotInferListType:
		return "cannot infer list element type"
	case ErrorDivisionByZero:
		return "division by zero"
	default:
		return fmt.Sprintf("<invalid error kind %d>", uint8(k))
	}
}

// CompileError is the single error type every compiler operation returns.
// It always carries the source Position closest to the failure, so a
// caller can report a precise location without this package needing to
// know anything about diagnostic rendering.
type CompileError struct {
	Kind     ErrorKind
	Position token.Position
	Detail   string // optional: a variable name, a type name, etc.
}

func (e *CompileError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Position, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Position, e.Kind, e.Detail)
}

func newError(kind ErrorKind, pos token.Position) *CompileError {
	return &CompileError{Kind: kind, Position: pos}
}

func newErrorDetail(kind ErrorKind, pos token.Position, detail string) *CompileError {
	return &CompileError{Kind: kind, Position: pos, Detail: detail}
}
