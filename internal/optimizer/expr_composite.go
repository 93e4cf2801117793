// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package optimizer

import (
	"strconv"

	"luanext.dev/compiler/internal/lnast"
)

// literalNumber extracts a literal's numeric value and integer-ness, if e is
// a [lnast.NumberLiteral].
func literalNumber(e lnast.Expression) (value float64, isInt bool, ok bool) {
	n, is := e.(*lnast.NumberLiteral)
	if !is {
		return 0, false, false
	}
	v, err := strconv.ParseFloat(n.Text, 64)
	if err != nil {
		return 0, false, false
	}
	return v, n.Integer, true
}

func literalBool(e lnast.Expression) (bool, bool) {
	b, ok := e.(*lnast.BoolLiteral)
	if !ok {
		return false, false
	}
	return b.Value, true
}

func literalString(e lnast.Expression) (string, bool) {
	s, ok := e.(*lnast.StringLiteral)
	if !ok {
		return "", false
	}
	return s.Value, true
}

func isNilLiteral(e lnast.Expression) bool {
	_, ok := e.(*lnast.NilLiteral)
	return ok
}

func numberLiteral(span lnast.Span, v float64, isInt bool) *lnast.NumberLiteral {
	text := strconv.FormatFloat(v, 'g', -1, 64)
	if isInt {
		text = strconv.FormatInt(int64(v), 10)
	}
	n := &lnast.NumberLiteral{Text: text, Integer: isInt}
	n.Span = span
	return n
}

func boolLiteral(span lnast.Span, v bool) *lnast.BoolLiteral {
	b := &lnast.BoolLiteral{Value: v}
	b.Span = span
	return b
}

func stringLiteral(span lnast.Span, v string) *lnast.StringLiteral {
	s := &lnast.StringLiteral{Value: v}
	s.Span = span
	return s
}

// foldConstants implements the O1 constant-folding pass (spec.md §4.5.3):
// arithmetic, comparison, and logical operators applied to two literal
// operands collapse to a single literal.
func foldConstants(_ *Context, e lnast.Expression) (lnast.Expression, bool) {
	switch n := e.(type) {
	case *lnast.BinaryExpr:
		if lv, lInt, ok := literalNumber(n.Left); ok {
			if rv, rInt, ok := literalNumber(n.Right); ok {
				isInt := lInt && rInt
				switch n.Op {
				case lnast.BinAdd:
					return numberLiteral(n.Span, lv+rv, isInt), true
				case lnast.BinSub:
					return numberLiteral(n.Span, lv-rv, isInt), true
				case lnast.BinMul:
					return numberLiteral(n.Span, lv*rv, isInt), true
				case lnast.BinDiv:
					if rv != 0 {
						return numberLiteral(n.Span, lv/rv, false), true
					}
				case lnast.BinLess:
					return boolLiteral(n.Span, lv < rv), true
				case lnast.BinLessEqual:
					return boolLiteral(n.Span, lv <= rv), true
				case lnast.BinGreater:
					return boolLiteral(n.Span, lv > rv), true
				case lnast.BinGreaterEqual:
					return boolLiteral(n.Span, lv >= rv), true
				case lnast.BinEqual:
					return boolLiteral(n.Span, lv == rv), true
				case lnast.BinNotEqual:
					return boolLiteral(n.Span, lv != rv), true
				}
			}
		}
		if lv, ok := literalBool(n.Left); ok {
			if rv, ok := literalBool(n.Right); ok {
				switch n.Op {
				case lnast.BinAnd:
					return boolLiteral(n.Span, lv && rv), true
				case lnast.BinOr:
					return boolLiteral(n.Span, lv || rv), true
				case lnast.BinEqual:
					return boolLiteral(n.Span, lv == rv), true
				case lnast.BinNotEqual:
					return boolLiteral(n.Span, lv != rv), true
				}
			}
		}
		if lv, ok := literalString(n.Left); ok {
			if rv, ok := literalString(n.Right); ok && n.Op == lnast.BinConcat {
				return stringLiteral(n.Span, lv+rv), true
			}
		}
	case *lnast.UnaryExpr:
		if v, isInt, ok := literalNumber(n.Operand); ok && n.Op == lnast.UnNeg {
			return numberLiteral(n.Span, -v, isInt), true
		}
		if v, ok := literalBool(n.Operand); ok && n.Op == lnast.UnNot {
			return boolLiteral(n.Span, !v), true
		}
	case *lnast.TernaryExpr:
		if v, ok := literalBool(n.Cond); ok {
			if v {
				return n.Then, true
			}
			return n.Else, true
		}
	}
	return e, false
}

// simplifyAlgebraic implements the O1 algebraic-simplification pass: `x+0`,
// `0+x`, `x-0`, `x*1`, `1*x`, and a nullish coalesce whose left side is nil
// or a non-nil literal collapse to one side. Only binary expressions are
// rewritten; `x*0`, `x or false`, `x and true`, and double negation are left
// as written.
func simplifyAlgebraic(_ *Context, e lnast.Expression) (lnast.Expression, bool) {
	n, ok := e.(*lnast.BinaryExpr)
	if !ok {
		return e, false
	}
	switch n.Op {
	case lnast.BinAdd:
		if v, _, ok := literalNumber(n.Right); ok && v == 0 {
			return n.Left, true
		}
		if v, _, ok := literalNumber(n.Left); ok && v == 0 {
			return n.Right, true
		}
	case lnast.BinSub:
		if v, _, ok := literalNumber(n.Right); ok && v == 0 {
			return n.Left, true
		}
	case lnast.BinMul:
		if v, _, ok := literalNumber(n.Right); ok && v == 1 {
			return n.Left, true
		}
		if v, _, ok := literalNumber(n.Left); ok && v == 1 {
			return n.Right, true
		}
	case lnast.BinNullishCoalesce:
		if isNilLiteral(n.Left) {
			return n.Right, true
		}
		switch n.Left.(type) {
		case *lnast.NumberLiteral, *lnast.StringLiteral, *lnast.BoolLiteral, *lnast.ObjectLiteral, *lnast.ArrayLiteral:
			return n.Left, true
		}
	}
	if u, ok := e.(*lnast.UnaryExpr); ok && u.Op == lnast.UnNot {
		if inner, ok := u.Operand.(*lnast.UnaryExpr); ok && inner.Op == lnast.UnNot {
			return inner.Operand, true
		}
	}
	return e, false
}

// peephole implements the O2 peephole pass: operator-specific rewrites that
// need more than one literal operand to fire, such as `not (a == b)` to
// `a ~= b`, run after constant folding/algebraic simplification have had a
// chance to reduce operands to their simplest form.
func peephole(_ *Context, e lnast.Expression) (lnast.Expression, bool) {
	u, ok := e.(*lnast.UnaryExpr)
	if !ok || u.Op != lnast.UnNot {
		return e, false
	}
	b, ok := u.Operand.(*lnast.BinaryExpr)
	if !ok {
		return e, false
	}
	inverse, ok := map[lnast.BinaryOp]lnast.BinaryOp{
		lnast.BinEqual:        lnast.BinNotEqual,
		lnast.BinNotEqual:     lnast.BinEqual,
		lnast.BinLess:         lnast.BinGreaterEqual,
		lnast.BinGreaterEqual: lnast.BinLess,
		lnast.BinGreater:      lnast.BinLessEqual,
		lnast.BinLessEqual:    lnast.BinGreater,
	}[b.Op]
	if !ok {
		return e, false
	}
	b.Op = inverse
	return b, true
}

// operatorMetamethods maps the overloadable binary operators to the Lua
// metamethod name a class's `operator` member declares.
var operatorMetamethods = map[lnast.BinaryOp]string{
	lnast.BinAdd:       "__add",
	lnast.BinSub:       "__sub",
	lnast.BinMul:       "__mul",
	lnast.BinDiv:       "__div",
	lnast.BinIntDiv:    "__idiv",
	lnast.BinMod:       "__mod",
	lnast.BinPow:       "__pow",
	lnast.BinConcat:    "__concat",
	lnast.BinEqual:     "__eq",
	lnast.BinLess:      "__lt",
	lnast.BinLessEqual: "__le",
	lnast.BinBitAnd:    "__band",
	lnast.BinBitOr:     "__bor",
	lnast.BinBitXor:    "__bxor",
	lnast.BinLShift:    "__shl",
	lnast.BinRShift:    "__shr",
}

// operatorInlining implements the O3 operator-inlining pass: a binary
// operator whose left operand's static class (from the checker's analysis
// slot) declares the matching operator overload is rewritten from metatable
// dispatch to a direct call of the class's operator function, consuming the
// whole-program class hierarchy (spec.md §4.5.1's expression composite).
func operatorInlining(ctx *Context, e lnast.Expression) (lnast.Expression, bool) {
	if ctx.Whole == nil {
		return e, false
	}
	bin, ok := e.(*lnast.BinaryExpr)
	if !ok {
		return e, false
	}
	tag, ok := operatorMetamethods[bin.Op]
	if !ok {
		return e, false
	}
	cls, ok := receiverClassOf(bin.Left)
	if !ok {
		return e, false
	}
	node, ok := ctx.Whole.Classes[cls]
	if !ok || node.Decl == nil {
		return e, false
	}
	for i := range node.Decl.Members {
		m := &node.Decl.Members[i]
		if m.OperatorTag != tag {
			continue
		}
		clsIdent := &lnast.IdentExpr{Name: cls}
		clsIdent.Span = bin.Span
		member := &lnast.MemberExpr{Object: clsIdent, Property: m.Name}
		member.Span = bin.Span
		call := &lnast.CallExpr{Callee: member, Args: []lnast.Expression{bin.Left, bin.Right}}
		call.Span = bin.Span
		return call, true
	}
	return e, false
}

func init() {
	Register(&Pass{Name: "constant-folding", Level: O1, Role: RoleExpression, VisitExpr: foldConstants})
	Register(&Pass{Name: "algebraic-simplification", Level: O1, Role: RoleExpression, VisitExpr: simplifyAlgebraic})
	Register(&Pass{Name: "peephole", Level: O2, Role: RoleExpression, VisitExpr: peephole})
	Register(&Pass{Name: "operator-inlining", Level: O3, Role: RoleExpression, Requires: lnast.FeatureClasses, VisitExpr: operatorInlining})
}
