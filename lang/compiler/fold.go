package compiler

import (
	"math"

	"github.com/solaeus/dust/lang/ast"
	"github.com/solaeus/dust/lang/constant"
	"github.com/solaeus/dust/lang/types"
)

// constantInteger reads back an already-interned integer constant's value,
// used by folding to avoid re-deriving it from the syntax tree.
func (f *FunctionCompiler) constantInteger(e Emission) (int64, bool) {
	if e.Kind != EmissionConstant || e.OperandType != types.OperandInteger || e.ConstantAddress.Kind != MemoryConstant {
		return 0, false
	}
	return f.c.program.Constants.GetInteger(e.ConstantAddress.Index)
}

func (f *FunctionCompiler) constantFloat(e Emission) (float64, bool) {
	if e.Kind != EmissionConstant || e.OperandType != types.OperandFloat || e.ConstantAddress.Kind != MemoryConstant {
		return 0, false
	}
	return f.c.program.Constants.GetFloat(e.ConstantAddress.Index)
}

func constantByte(e Emission) (byte, bool) {
	if e.Kind != EmissionConstant || e.OperandType != types.OperandByte || e.ConstantAddress.Kind != MemoryEncoded {
		return 0, false
	}
	return byte(e.ConstantAddress.Index), true
}

func constantBool(e Emission) (bool, bool) {
	if e.Kind != EmissionConstant || e.OperandType != types.OperandBoolean || e.ConstantAddress.Kind != MemoryEncoded {
		return false, false
	}
	return e.ConstantAddress.Index != 0, true
}

func (f *FunctionCompiler) constantCharacter(e Emission) (rune, bool) {
	if e.Kind != EmissionConstant || e.OperandType != types.OperandCharacter || e.ConstantAddress.Kind != MemoryConstant {
		return 0, false
	}
	return f.c.program.Constants.GetCharacter(e.ConstantAddress.Index)
}

// arithmeticTypes maps a pair of operand types (and, for the concatenation
// forms, the operator) onto the OperandType that selects the instruction
// variant and the OperandType the result carries — the table in the
// expression compiler's §4.6 matrix. Every numeric pair requires left ==
// right and carries its type straight through; character/string pairs
// only combine under addition and always produce a string.
func arithmeticTypes(kind ast.Kind, left, right types.OperandType) (opType, resultType types.OperandType, ok bool) {
	if left == right {
		switch left {
		case types.OperandInteger, types.OperandFloat, types.OperandByte:
			return left, left, true
		case types.OperandCharacter:
			if kind == ast.KindAdditionExpression {
				return types.OperandCharacter, types.OperandString, true
			}
		case types.OperandString:
			if kind == ast.KindAdditionExpression {
				return types.OperandString, types.OperandString, true
			}
		}
		return 0, 0, false
	}
	if kind != ast.KindAdditionExpression {
		return 0, 0, false
	}
	switch {
	case left == types.OperandString && right == types.OperandCharacter:
		return types.OperandStringCharacter, types.OperandString, true
	case left == types.OperandCharacter && right == types.OperandString:
		return types.OperandCharacterString, types.OperandString, true
	default:
		return 0, 0, false
	}
}

// poolRangeFor returns the byte-pool range holding a constant emission's
// content. Strings already have one; a character constant is pushed fresh
// (characters are never pool-backed on their own), which — since nothing
// else can have touched the pool between compiling the two sides of a
// concatenation — lands byte-adjacent to a preceding string, letting
// foldConcat fuse instead of copy.
func (f *FunctionCompiler) poolRangeFor(e Emission) (constant.PoolRange, bool) {
	switch e.OperandType {
	case types.OperandString:
		if e.ConstantAddress.Kind != MemoryConstant {
			return constant.PoolRange{}, false
		}
		return f.c.program.Constants.StringRange(e.ConstantAddress.Index)
	case types.OperandCharacter:
		ch, ok := f.constantCharacter(e)
		if !ok {
			return constant.PoolRange{}, false
		}
		return f.c.program.Constants.PushStrToStringPool([]byte(string(ch))), true
	default:
		return constant.PoolRange{}, false
	}
}

// foldConcat evaluates a character/string concatenation at compile time,
// fusing adjacent pool ranges per the Table invariant rather than copying
// bytes whenever possible.
func (f *FunctionCompiler) foldConcat(left, right Emission) (Emission, bool) {
	leftRange, ok := f.poolRangeFor(left)
	if !ok {
		return Emission{}, false
	}
	rightRange, ok := f.poolRangeFor(right)
	if !ok {
		return Emission{}, false
	}
	fused := f.c.program.Constants.FuseOrConcat(leftRange, rightRange)
	idx := f.c.program.Constants.AddPooledString(fused)
	return ConstantEmission(ConstantAddress(idx), types.OperandString), true
}

// saturatingAddInt64, saturatingSubInt64 and saturatingMulInt64 clamp to
// [math.MinInt64, math.MaxInt64] on overflow rather than wrapping, matching
// how Dust's own integers behave.
func saturatingAddInt64(a, b int64) int64 {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		if b > 0 {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return sum
}

func saturatingSubInt64(a, b int64) int64 {
	if b == math.MinInt64 {
		if a >= 0 {
			return math.MaxInt64
		}
		return a + math.MaxInt64 + 1
	}
	return saturatingAddInt64(a, -b)
}

func saturatingMulInt64(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a == math.MinInt64 && b == -1 {
		return math.MaxInt64
	}
	result := a * b
	if result/b != a {
		if (a > 0) == (b > 0) {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return result
}

func saturatingPowInt64(base int64, exp int64) int64 {
	if exp < 0 {
		if base == 1 {
			return 1
		}
		if base == -1 {
			if exp%2 == 0 {
				return 1
			}
			return -1
		}
		return 0
	}
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		result = saturatingMulInt64(result, base)
	}
	return result
}

// foldIntArithmetic evaluates a binary arithmetic Kind over two already-
// interned integer constants, returning an error only for division/modulo
// by zero; every other integer
// operation saturates instead of overflowing.
func foldIntArithmetic(kind ast.Kind, a, b int64) (int64, ErrorKind) {
	switch kind {
	case ast.KindAdditionExpression:
		return saturatingAddInt64(a, b), 0
	case ast.KindSubtractionExpression:
		return saturatingSubInt64(a, b), 0
	case ast.KindMultiplicationExpression:
		return saturatingMulInt64(a, b), 0
	case ast.KindDivisionExpression:
		if b == 0 {
			return 0, ErrorDivisionByZero
		}
		if a == math.MinInt64 && b == -1 {
			return math.MaxInt64, 0
		}
		return a / b, 0
	case ast.KindModuloExpression:
		if b == 0 {
			return 0, ErrorDivisionByZero
		}
		return a % b, 0
	case ast.KindPowerExpression:
		return saturatingPowInt64(a, b), 0
	default:
		return 0, 0
	}
}

func floatArithmetic(kind ast.Kind, a, b float64) float64 {
	switch kind {
	case ast.KindAdditionExpression:
		return a + b
	case ast.KindSubtractionExpression:
		return a - b
	case ast.KindMultiplicationExpression:
		return a * b
	case ast.KindDivisionExpression:
		return a / b
	case ast.KindModuloExpression:
		return math.Mod(a, b)
	case ast.KindPowerExpression:
		return math.Pow(a, b)
	default:
		return 0
	}
}

func saturatingAddByte(a, b byte) byte {
	sum := int(a) + int(b)
	if sum > math.MaxUint8 {
		return math.MaxUint8
	}
	return byte(sum)
}

func saturatingSubByte(a, b byte) byte {
	if int(a)-int(b) < 0 {
		return 0
	}
	return a - b
}

func saturatingMulByte(a, b byte) byte {
	product := int(a) * int(b)
	if product > math.MaxUint8 {
		return math.MaxUint8
	}
	return byte(product)
}

func byteArithmetic(kind ast.Kind, a, b byte) (byte, ErrorKind) {
	switch kind {
	case ast.KindAdditionExpression:
		return saturatingAddByte(a, b), 0
	case ast.KindSubtractionExpression:
		return saturatingSubByte(a, b), 0
	case ast.KindMultiplicationExpression:
		return saturatingMulByte(a, b), 0
	case ast.KindDivisionExpression:
		if b == 0 {
			return 0, ErrorDivisionByZero
		}
		return a / b, 0
	case ast.KindModuloExpression:
		if b == 0 {
			return 0, ErrorDivisionByZero
		}
		return a % b, 0
	case ast.KindPowerExpression:
		result := byte(1)
		for i := byte(0); i < b; i++ {
			result = saturatingMulByte(result, a)
		}
		return result, 0
	default:
		return 0, 0
	}
}

// foldArithmetic attempts to evaluate a binary arithmetic expression at
// compile time, returning ok=false when either operand isn't a constant
// (in which case the caller falls back to emitting an instruction).
func (f *FunctionCompiler) foldArithmetic(kind ast.Kind, node ast.Node, left, right Emission) (Emission, bool, error) {
	if left.Kind != EmissionConstant || right.Kind != EmissionConstant {
		return Emission{}, false, nil
	}
	opType, _, ok := arithmeticTypes(kind, left.OperandType, right.OperandType)
	if !ok {
		return Emission{}, false, nil
	}
	switch opType {
	case types.OperandCharacter, types.OperandString, types.OperandStringCharacter, types.OperandCharacterString:
		e, ok := f.foldConcat(left, right)
		return e, ok, nil
	case types.OperandInteger:
		a, ok1 := f.constantInteger(left)
		b, ok2 := f.constantInteger(right)
		if !ok1 || !ok2 {
			return Emission{}, false, nil
		}
		result, errKind := foldIntArithmetic(kind, a, b)
		if errKind != 0 {
			return Emission{}, false, f.errAt(errKind, node, "")
		}
		idx := f.c.program.Constants.AddInteger(result)
		return ConstantEmission(ConstantAddress(idx), types.OperandInteger), true, nil
	case types.OperandFloat:
		a, ok1 := f.constantFloat(left)
		b, ok2 := f.constantFloat(right)
		if !ok1 || !ok2 {
			return Emission{}, false, nil
		}
		idx := f.c.program.Constants.AddFloat(floatArithmetic(kind, a, b))
		return ConstantEmission(ConstantAddress(idx), types.OperandFloat), true, nil
	case types.OperandByte:
		a, ok1 := constantByte(left)
		b, ok2 := constantByte(right)
		if !ok1 || !ok2 {
			return Emission{}, false, nil
		}
		result, errKind := byteArithmetic(kind, a, b)
		if errKind != 0 {
			return Emission{}, false, f.errAt(errKind, node, "")
		}
		return ConstantEmission(ByteAddress(result), types.OperandByte), true, nil
	default:
		return Emission{}, false, nil
	}
}

// foldComparison attempts to evaluate a comparison expression at compile
// time when both operands are constants.
func (f *FunctionCompiler) foldComparison(kind ast.Kind, left, right Emission) (Emission, bool) {
	if left.Kind != EmissionConstant || right.Kind != EmissionConstant {
		return Emission{}, false
	}
	var cmp int
	switch left.OperandType {
	case types.OperandInteger:
		a, ok1 := f.constantInteger(left)
		b, ok2 := f.constantInteger(right)
		if !ok1 || !ok2 {
			return Emission{}, false
		}
		cmp = compareInt64(a, b)
	case types.OperandFloat:
		a, ok1 := f.constantFloat(left)
		b, ok2 := f.constantFloat(right)
		if !ok1 || !ok2 {
			return Emission{}, false
		}
		cmp = compareFloat64(a, b)
	case types.OperandByte:
		a, ok1 := constantByte(left)
		b, ok2 := constantByte(right)
		if !ok1 || !ok2 {
			return Emission{}, false
		}
		cmp = int(a) - int(b)
	case types.OperandBoolean:
		a, ok1 := constantBool(left)
		b, ok2 := constantBool(right)
		if !ok1 || !ok2 {
			return Emission{}, false
		}
		if kind != ast.KindEqualExpression && kind != ast.KindNotEqualExpression {
			return Emission{}, false
		}
		result := a == b
		if kind == ast.KindNotEqualExpression {
			result = !result
		}
		return ConstantEmission(BooleanAddress(result), types.OperandBoolean), true
	default:
		return Emission{}, false
	}

	var result bool
	switch kind {
	case ast.KindEqualExpression:
		result = cmp == 0
	case ast.KindNotEqualExpression:
		result = cmp != 0
	case ast.KindLessThanExpression:
		result = cmp < 0
	case ast.KindLessThanOrEqualExpression:
		result = cmp <= 0
	case ast.KindGreaterThanExpression:
		result = cmp > 0
	case ast.KindGreaterThanOrEqualExpression:
		result = cmp >= 0
	default:
		return Emission{}, false
	}
	return ConstantEmission(BooleanAddress(result), types.OperandBoolean), true
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// foldNegate attempts to evaluate a unary negation at compile time.
func (f *FunctionCompiler) foldNegate(operand Emission) (Emission, bool) {
	if operand.Kind != EmissionConstant {
		return Emission{}, false
	}
	switch operand.OperandType {
	case types.OperandInteger:
		a, ok := f.constantInteger(operand)
		if !ok {
			return Emission{}, false
		}
		var result int64
		if a == math.MinInt64 {
			result = math.MaxInt64
		} else {
			result = -a
		}
		idx := f.c.program.Constants.AddInteger(result)
		return ConstantEmission(ConstantAddress(idx), types.OperandInteger), true
	case types.OperandFloat:
		a, ok := f.constantFloat(operand)
		if !ok {
			return Emission{}, false
		}
		idx := f.c.program.Constants.AddFloat(-a)
		return ConstantEmission(ConstantAddress(idx), types.OperandFloat), true
	case types.OperandBoolean:
		a, ok := constantBool(operand)
		if !ok {
			return Emission{}, false
		}
		return ConstantEmission(BooleanAddress(!a), types.OperandBoolean), true
	default:
		return Emission{}, false
	}
}
