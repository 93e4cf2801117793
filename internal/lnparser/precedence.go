// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnparser

import (
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/lntoken"
)

// binaryInfo is one entry of the binary-operator precedence table driving
// [Parser.parseBinary]'s precedence climbing.
type binaryInfo struct {
	op         lnast.BinaryOp
	precedence int
	rightAssoc bool
}

// binaryOps maps every binary-operator token kind to its [lnast.BinaryOp]
// and precedence level. Levels increase with binding strength; this table
// covers levels 6 (nullish coalescing) through 17 (multiplicative), with
// concatenation at 15 and the additive operators at 16. Unary operators,
// power, and postfix forms are not in the table: parseErrorChainOrUnary,
// parsePower, and parsePostfix handle them directly since they aren't
// binary-infix in the same uniform sense (power is right-associative and
// binds *tighter* than unary on its left operand, matching Lua).
var binaryOps = map[lntoken.Kind]binaryInfo{
	lntoken.QuestionQuestion: {lnast.BinNullishCoalesce, 6, false},
	lntoken.Or:               {lnast.BinOr, 7, false},
	lntoken.And:              {lnast.BinAnd, 8, false},
	lntoken.BitOr:            {lnast.BinBitOr, 9, false},
	lntoken.BitXor:           {lnast.BinBitXor, 10, false},
	lntoken.BitAnd:           {lnast.BinBitAnd, 11, false},
	lntoken.Equal:            {lnast.BinEqual, 12, false},
	lntoken.NotEqual:         {lnast.BinNotEqual, 12, false},
	lntoken.Less:             {lnast.BinLess, 13, false},
	lntoken.LessEqual:        {lnast.BinLessEqual, 13, false},
	lntoken.Greater:          {lnast.BinGreater, 13, false},
	lntoken.GreaterEqual:     {lnast.BinGreaterEqual, 13, false},
	lntoken.LShift:           {lnast.BinLShift, 14, false},
	lntoken.RShift:           {lnast.BinRShift, 14, false},
	lntoken.Concat:           {lnast.BinConcat, 15, true},
	lntoken.Add:              {lnast.BinAdd, 16, false},
	lntoken.Sub:              {lnast.BinSub, 16, false},
	lntoken.Mul:              {lnast.BinMul, 17, false},
	lntoken.Div:              {lnast.BinDiv, 17, false},
	lntoken.IntDiv:           {lnast.BinIntDiv, 17, false},
	lntoken.Mod:              {lnast.BinMod, 17, false},
}

// assignOps maps a compound-assignment token kind to its [lnast.AssignOp].
var assignOps = map[lntoken.Kind]lnast.AssignOp{
	lntoken.Assign:       lnast.AssignPlain,
	lntoken.AddAssign:    lnast.AssignAdd,
	lntoken.SubAssign:    lnast.AssignSub,
	lntoken.MulAssign:    lnast.AssignMul,
	lntoken.DivAssign:    lnast.AssignDiv,
	lntoken.IntDivAssign: lnast.AssignIntDiv,
	lntoken.ModAssign:    lnast.AssignMod,
	lntoken.PowAssign:    lnast.AssignPow,
	lntoken.ConcatAssign: lnast.AssignConcat,
	lntoken.BitAndAssign: lnast.AssignBitAnd,
	lntoken.BitOrAssign:  lnast.AssignBitOr,
	lntoken.BitXorAssign: lnast.AssignBitXor,
	lntoken.LShiftAssign: lnast.AssignLShift,
	lntoken.RShiftAssign: lnast.AssignRShift,
}

// unaryOps maps a prefix-operator token kind to its [lnast.UnaryOp].
var unaryOps = map[lntoken.Kind]lnast.UnaryOp{
	lntoken.Sub:    lnast.UnNeg,
	lntoken.Not:    lnast.UnNot,
	lntoken.Len:    lnast.UnLen,
	lntoken.BitXor: lnast.UnBitNot,
}
