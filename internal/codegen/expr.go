// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package codegen

import (
	"fmt"
	"strings"

	"luanext.dev/compiler/internal/lnast"
)

// genExpr lowers e to Lua, writing directly through g.e. Constructs with no
// direct Lua equivalent — optional chaining, nullish coalescing, the ternary
// and match expressions, inline try/catch, and the error-chain operators —
// lower to an immediately-invoked anonymous function so they can still be
// used from an expression position (spec.md §4.7).
func (g *Generator) genExpr(e lnast.Expression) {
	switch n := e.(type) {
	case *lnast.NilLiteral:
		g.e.WriteString("nil")
	case *lnast.BoolLiteral:
		if n.Value {
			g.e.WriteString("true")
		} else {
			g.e.WriteString("false")
		}
	case *lnast.NumberLiteral:
		g.e.WriteString(n.Text)
	case *lnast.StringLiteral:
		g.e.Writef("%q", n.Value)
	case *lnast.IdentExpr:
		g.e.WriteString(g.resolve(n.Name))
	case *lnast.SelfExpr:
		g.e.WriteString("self")
	case *lnast.SuperExpr:
		g.e.WriteString(g.superClassName())
	case *lnast.BinaryExpr:
		g.genBinaryExpr(n)
	case *lnast.UnaryExpr:
		g.genUnaryExpr(n)
	case *lnast.AssignExpr:
		g.genAssignExpr(n)
	case *lnast.MemberExpr:
		g.genMemberExpr(n)
	case *lnast.IndexExpr:
		g.genIndexExpr(n)
	case *lnast.CallExpr:
		g.genCallExpr(n)
	case *lnast.MethodCallExpr:
		g.genMethodCallExpr(n)
	case *lnast.NewExpr:
		g.genNewExpr(n)
	case *lnast.ArrayLiteral:
		g.genArrayLiteral(n)
	case *lnast.ObjectLiteral:
		g.genObjectLiteral(n)
	case *lnast.ArrowExpr:
		g.genArrowExpr(n)
	case *lnast.FunctionExpr:
		g.genFunctionExprLit(n)
	case *lnast.TernaryExpr:
		g.genTernaryExpr(n)
	case *lnast.PipeExpr:
		g.genPipeExpr(n)
	case *lnast.MatchExpr:
		g.genMatchExpr(n)
	case *lnast.TemplateLiteralExpr:
		g.genTemplateLiteral(n)
	case *lnast.TypeAssertionExpr:
		g.genTypeAssertionExpr(n)
	case *lnast.TryExpr:
		g.genTryExpr(n)
	case *lnast.ErrorChainExpr:
		g.genErrorChainExpr(n)
	case *lnast.ParenExpr:
		g.e.WriteString("(")
		g.genExpr(n.Inner)
		g.e.WriteString(")")
	default:
		g.e.Writef("--[[ unhandled expr %T ]] nil", n)
	}
}

func (g *Generator) genBinaryExpr(n *lnast.BinaryExpr) {
	if n.Op == lnast.BinNullishCoalesce {
		lhs, rhs := g.exprString(n.Left), g.exprString(n.Right)
		if sideEffectFree(n.Left) {
			// Safe to evaluate the operand twice, so skip the IIFE
			// (spec.md §4.7).
			g.e.Writef("(%s ~= nil and %s) or %s", lhs, lhs, rhs)
			return
		}
		g.e.Writef("(function() local __n = %s; if __n ~= nil then return __n end return %s end)()", lhs, rhs)
		return
	}
	lhs, rhs := g.exprString(n.Left), g.exprString(n.Right)
	switch n.Op {
	case lnast.BinAdd:
		g.e.Writef("(%s + %s)", lhs, rhs)
	case lnast.BinSub:
		g.e.Writef("(%s - %s)", lhs, rhs)
	case lnast.BinMul:
		g.e.Writef("(%s * %s)", lhs, rhs)
	case lnast.BinDiv:
		g.e.Writef("(%s / %s)", lhs, rhs)
	case lnast.BinIntDiv:
		g.e.WriteString(g.strategy.IntDivide(lhs, rhs))
	case lnast.BinMod:
		g.e.Writef("(%s %% %s)", lhs, rhs)
	case lnast.BinPow:
		g.e.Writef("(%s ^ %s)", lhs, rhs)
	case lnast.BinConcat:
		g.e.Writef("(%s .. %s)", lhs, rhs)
	case lnast.BinEqual:
		g.e.Writef("(%s == %s)", lhs, rhs)
	case lnast.BinNotEqual:
		g.e.Writef("(%s ~= %s)", lhs, rhs)
	case lnast.BinLess:
		g.e.Writef("(%s < %s)", lhs, rhs)
	case lnast.BinLessEqual:
		g.e.Writef("(%s <= %s)", lhs, rhs)
	case lnast.BinGreater:
		g.e.Writef("(%s > %s)", lhs, rhs)
	case lnast.BinGreaterEqual:
		g.e.Writef("(%s >= %s)", lhs, rhs)
	case lnast.BinAnd:
		g.e.Writef("(%s and %s)", lhs, rhs)
	case lnast.BinOr:
		g.e.Writef("(%s or %s)", lhs, rhs)
	case lnast.BinBitAnd:
		g.e.WriteString(g.strategy.BitwiseOp("&", lhs, rhs))
	case lnast.BinBitOr:
		g.e.WriteString(g.strategy.BitwiseOp("|", lhs, rhs))
	case lnast.BinBitXor:
		g.e.WriteString(g.strategy.BitwiseOp("~", lhs, rhs))
	case lnast.BinLShift:
		g.e.WriteString(g.strategy.BitwiseOp("<<", lhs, rhs))
	case lnast.BinRShift:
		g.e.WriteString(g.strategy.BitwiseOp(">>", lhs, rhs))
	}
}

// sideEffectFree reports whether re-evaluating e is observably identical to
// evaluating it once: literals, identifiers, self, and plain (non-optional,
// non-index) member chains over those. Member access can in principle hit a
// __index metamethod, which the type system disallows a side effect in, so a
// dotted chain still counts.
func sideEffectFree(e lnast.Expression) bool {
	switch n := e.(type) {
	case *lnast.NilLiteral, *lnast.BoolLiteral, *lnast.NumberLiteral, *lnast.StringLiteral, *lnast.IdentExpr, *lnast.SelfExpr:
		return true
	case *lnast.MemberExpr:
		return !n.Optional && sideEffectFree(n.Object)
	case *lnast.ParenExpr:
		return sideEffectFree(n.Inner)
	default:
		return false
	}
}

func (g *Generator) genUnaryExpr(n *lnast.UnaryExpr) {
	operand := g.exprString(n.Operand)
	switch n.Op {
	case lnast.UnNeg:
		g.e.Writef("(-%s)", operand)
	case lnast.UnNot:
		g.e.Writef("(not %s)", operand)
	case lnast.UnLen:
		g.e.Writef("(#%s)", operand)
	case lnast.UnBitNot:
		g.e.WriteString(g.strategy.BitwiseNot(operand))
	}
}

// genAssignExpr lowers an assignment used in expression position to an IIFE
// that performs the (possibly compound) assignment and yields the assigned
// value, since Lua assignment is a statement, not an expression. A target
// with side-effecting subexpressions (a computed index, say) is evaluated
// twice — once to assign, once to read back — a known sharp edge documented
// in DESIGN.md.
func (g *Generator) genAssignExpr(n *lnast.AssignExpr) {
	target := g.exprString(n.Target)
	value := g.exprString(n.Value)
	var rhs string
	switch n.Op {
	case lnast.AssignPlain:
		rhs = value
	case lnast.AssignAdd:
		rhs = target + " + " + value
	case lnast.AssignSub:
		rhs = target + " - " + value
	case lnast.AssignMul:
		rhs = target + " * " + value
	case lnast.AssignDiv:
		rhs = target + " / " + value
	case lnast.AssignIntDiv:
		rhs = g.strategy.IntDivide(target, value)
	case lnast.AssignMod:
		rhs = target + " % " + value
	case lnast.AssignPow:
		rhs = target + " ^ " + value
	case lnast.AssignConcat:
		rhs = target + " .. " + value
	case lnast.AssignBitAnd:
		rhs = g.strategy.BitwiseOp("&", target, value)
	case lnast.AssignBitOr:
		rhs = g.strategy.BitwiseOp("|", target, value)
	case lnast.AssignBitXor:
		rhs = g.strategy.BitwiseOp("~", target, value)
	case lnast.AssignLShift:
		rhs = g.strategy.BitwiseOp("<<", target, value)
	case lnast.AssignRShift:
		rhs = g.strategy.BitwiseOp(">>", target, value)
	}
	g.e.Writef("(function() %s = %s; return %s end)()", target, rhs, target)
}

func (g *Generator) genMemberExpr(n *lnast.MemberExpr) {
	prop := g.resolve(n.Property)
	if _, ok := n.Object.(*lnast.SuperExpr); ok {
		g.e.Writef("%s.%s", g.superClassName(), prop)
		return
	}
	if !n.Optional {
		g.genExpr(n.Object)
		g.e.Writef(".%s", prop)
		return
	}
	obj := g.exprString(n.Object)
	g.e.Writef("(function() local __o = %s; if __o == nil then return nil end return __o.%s end)()", obj, prop)
}

func (g *Generator) genIndexExpr(n *lnast.IndexExpr) {
	if !n.Optional {
		g.genExpr(n.Object)
		g.e.WriteString("[")
		g.genExpr(n.Index)
		g.e.WriteString("]")
		return
	}
	obj, idx := g.exprString(n.Object), g.exprString(n.Index)
	g.e.Writef("(function() local __o = %s; if __o == nil then return nil end return __o[%s] end)()", obj, idx)
}

// genArgList writes a parenthesized argument list, unpacking spread
// arguments through the dialect's [Strategy.UnpackExpr].
func (g *Generator) genArgList(args []lnast.Expression, spreads []bool) {
	g.e.WriteString("(")
	for i, a := range args {
		if i > 0 {
			g.e.WriteString(", ")
		}
		if i < len(spreads) && spreads[i] {
			g.e.Writef("%s(", g.strategy.UnpackExpr())
			g.genExpr(a)
			g.e.WriteString(")")
			continue
		}
		g.genExpr(a)
	}
	g.e.WriteString(")")
}

func (g *Generator) genCallExpr(n *lnast.CallExpr) {
	if _, ok := n.Callee.(*lnast.SuperExpr); ok {
		g.e.Writef("%s.__ctor(self", g.superClassName())
		for _, a := range n.Args {
			g.e.WriteString(", ")
			g.genExpr(a)
		}
		g.e.WriteString(")")
		return
	}
	if !n.Optional {
		g.genExpr(n.Callee)
		g.genArgList(n.Args, n.Spreads)
		return
	}
	callee := g.exprString(n.Callee)
	g.e.Writef("(function() local __f = %s; if __f == nil then return nil end return __f", callee)
	g.genArgList(n.Args, n.Spreads)
	g.e.WriteString(" end)()")
}

func (g *Generator) genMethodCallExpr(n *lnast.MethodCallExpr) {
	method := g.resolve(n.Method)
	if _, ok := n.Object.(*lnast.SuperExpr); ok {
		g.e.Writef("%s.%s(self", g.superClassName(), method)
		for _, a := range n.Args {
			g.e.WriteString(", ")
			g.genExpr(a)
		}
		g.e.WriteString(")")
		return
	}
	if !n.Optional {
		g.genExpr(n.Object)
		g.e.Writef(":%s", method)
		g.genArgList(n.Args, n.Spreads)
		return
	}
	obj := g.exprString(n.Object)
	g.e.Writef("(function() local __o = %s; if __o == nil then return nil end return __o:%s", obj, method)
	g.genArgList(n.Args, n.Spreads)
	g.e.WriteString(" end)()")
}

func (g *Generator) genNewExpr(n *lnast.NewExpr) {
	g.e.WriteString("__class_new(")
	g.genExpr(n.Callee)
	for _, a := range n.Args {
		g.e.WriteString(", ")
		g.genExpr(a)
	}
	g.e.WriteString(")")
}

func (g *Generator) genArrayLiteral(n *lnast.ArrayLiteral) {
	hasSpread := false
	for _, s := range n.Spreads {
		if s {
			hasSpread = true
			break
		}
	}
	if !hasSpread {
		g.e.WriteString("{")
		for i, el := range n.Elements {
			if i > 0 {
				g.e.WriteString(", ")
			}
			g.genExpr(el)
		}
		g.e.WriteString("}")
		return
	}
	g.e.WriteString("(function() local __t = {} ")
	for i, el := range n.Elements {
		if i < len(n.Spreads) && n.Spreads[i] {
			g.e.Writef("for _, __v in ipairs(%s) do table.insert(__t, __v) end ", g.exprString(el))
		} else {
			g.e.Writef("table.insert(__t, %s) ", g.exprString(el))
		}
	}
	g.e.WriteString("return __t end)()")
}

func (g *Generator) genObjectLiteral(n *lnast.ObjectLiteral) {
	simple := true
	for _, p := range n.Properties {
		if p.Spread || p.ComputedKey != nil {
			simple = false
			break
		}
	}
	if simple {
		g.e.WriteString("{")
		for i, p := range n.Properties {
			if i > 0 {
				g.e.WriteString(", ")
			}
			key := g.resolve(p.Key)
			g.e.Writef("%s = ", key)
			if p.Shorthand {
				g.e.WriteString(key)
			} else {
				g.genExpr(p.Value)
			}
		}
		g.e.WriteString("}")
		return
	}
	g.e.WriteString("(function() local __t = {} ")
	for _, p := range n.Properties {
		switch {
		case p.Spread:
			g.e.Writef("for __k, __v in pairs(%s) do __t[__k] = __v end ", g.exprString(p.Value))
		case p.ComputedKey != nil:
			g.e.Writef("__t[%s] = %s ", g.exprString(p.ComputedKey), g.exprString(p.Value))
		case p.Shorthand:
			key := g.resolve(p.Key)
			g.e.Writef("__t.%s = %s ", key, key)
		default:
			g.e.Writef("__t.%s = %s ", g.resolve(p.Key), g.exprString(p.Value))
		}
	}
	g.e.WriteString("return __t end)()")
}

func (g *Generator) genArrowExpr(n *lnast.ArrowExpr) {
	g.e.WriteString("function(")
	g.genParamList(n.Params)
	g.e.WriteString(")")
	if n.ExprBody != nil {
		g.e.WriteString(" return ")
		g.genExpr(n.ExprBody)
		g.e.WriteString(" end")
		return
	}
	g.e.Indent()
	g.e.NewLine()
	g.genParamDefaults(n.Params)
	g.genStatements(n.Body)
	g.e.Dedent()
	g.e.WriteString("end")
}

func (g *Generator) genFunctionExprLit(n *lnast.FunctionExpr) {
	g.e.WriteString("function(")
	g.genParamList(n.Params)
	g.e.WriteString(")")
	g.e.Indent()
	g.e.NewLine()
	g.genParamDefaults(n.Params)
	g.genStatements(n.Body)
	g.e.Dedent()
	g.e.WriteString("end")
}

func (g *Generator) genTernaryExpr(n *lnast.TernaryExpr) {
	g.e.Writef("(function() if %s then return %s else return %s end end)()",
		g.exprString(n.Cond), g.exprString(n.Then), g.exprString(n.Else))
}

// genPipeExpr lowers `a |> f` to `f(a)`, per the [lnast.PipeExpr] doc
// comment: purely syntactic sugar erased at codegen.
func (g *Generator) genPipeExpr(n *lnast.PipeExpr) {
	g.genExpr(n.Right)
	g.e.WriteString("(")
	g.genExpr(n.Left)
	g.e.WriteString(")")
}

func (g *Generator) genMatchExpr(n *lnast.MatchExpr) {
	subject := g.tempName()
	g.e.Writef("(function() local %s = %s; ", subject, g.exprString(n.Subject))
	for _, arm := range n.Arms {
		test, binds := g.matchPatternTest(arm.Pattern, subject)
		g.e.Writef("if %s then %s", test, binds)
		if arm.Guard != nil {
			g.e.Writef("if %s then return %s end ", g.exprString(arm.Guard), g.exprString(arm.Body))
		} else {
			g.e.Writef("return %s ", g.exprString(arm.Body))
		}
		g.e.WriteString("end ")
	}
	g.e.WriteString(`error("no match arm satisfied", 0) end)()`)
}

// matchPatternTest returns a boolean Lua expression testing whether subject
// matches pat, plus any `local name = ...` binding statements the pattern's
// captures need in scope for the arm's guard and body. An array or object
// pattern tests only that the subject is a table: its element and field
// sub-patterns contribute bindings but no tests, and length is not checked.
// Template patterns are accepted unconditionally, a known limitation
// recorded in DESIGN.md.
func (g *Generator) matchPatternTest(pat lnast.Pattern, subject string) (string, string) {
	switch p := pat.(type) {
	case *lnast.WildcardPattern:
		return "true", ""
	case *lnast.IdentPattern:
		return "true", fmt.Sprintf("local %s = %s; ", g.resolve(p.Name), subject)
	case *lnast.LiteralPattern:
		return fmt.Sprintf("%s == %s", subject, g.exprString(p.Value)), ""
	case *lnast.OrPattern:
		var tests []string
		var binds strings.Builder
		for _, alt := range p.Alternatives {
			t, b := g.matchPatternTest(alt, subject)
			tests = append(tests, t)
			binds.WriteString(b)
		}
		return "(" + strings.Join(tests, " or ") + ")", binds.String()
	case *lnast.ArrayPattern:
		var binds strings.Builder
		for i, el := range p.Elements {
			if el.Pattern == nil || el.Rest {
				continue
			}
			_, b := g.matchPatternTest(el.Pattern, fmt.Sprintf("%s[%d]", subject, i+1))
			binds.WriteString(b)
		}
		return fmt.Sprintf("type(%s) == \"table\"", subject), binds.String()
	case *lnast.ObjectPattern:
		var binds strings.Builder
		for _, f := range p.Fields {
			key := g.resolve(f.Key)
			_, b := g.matchPatternTest(f.Value, subject+"."+key)
			binds.WriteString(b)
		}
		return fmt.Sprintf("type(%s) == \"table\"", subject), binds.String()
	default:
		return "true", ""
	}
}

func (g *Generator) genTemplateLiteral(n *lnast.TemplateLiteralExpr) {
	g.e.WriteString("(")
	first := true
	write := func(s string) {
		if !first {
			g.e.WriteString(" .. ")
		}
		first = false
		g.e.WriteString(s)
	}
	for i, q := range n.Quasis {
		write(fmt.Sprintf("%q", q))
		if i < len(n.Exprs) {
			write("tostring(" + g.exprString(n.Exprs[i]) + ")")
		}
	}
	g.e.WriteString(")")
}

// genTypeAssertionExpr erases `expr as T` to expr, except under full
// reflection, where a named target type is verified at runtime through
// `assertType`, per spec.md §4.7.
func (g *Generator) genTypeAssertionExpr(n *lnast.TypeAssertionExpr) {
	if g.opts.Reflection == ReflectionFull {
		if nt, ok := n.AssertedType.(*lnast.NamedType); ok {
			g.e.Writef("assertType(%s, %q)", g.exprString(n.Expr), g.resolve(nt.Name))
			return
		}
	}
	g.genExpr(n.Expr)
}

func (g *Generator) genTryExpr(n *lnast.TryExpr) {
	tryCode := g.exprString(n.Try)
	g.e.Writef("(function() local __ok, __v = pcall(function() return %s end); if __ok then return __v end ", tryCode)
	if n.CatchParam != nil {
		g.e.Writef("local %s = __v; ", g.resolve(n.CatchParam.Name))
	}
	g.e.Writef("return %s end)()", g.exprString(n.Catch))
}

// genErrorChainExpr lowers `expr!` and `expr!!`: both assert the operand is
// non-nil and raise if not, reflecting the caught-exception error model this
// compiler's try/catch targets rather than a separate Result/Option type
// (spec.md §4.7); `!!` is kept as a distinct node so a future Result type
// can give it a different lowering without a parser change.
func (g *Generator) genErrorChainExpr(n *lnast.ErrorChainExpr) {
	operand := g.exprString(n.Operand)
	g.e.Writef(`(function() local __v = %s; if __v == nil then error("error-chain: value was nil", 0) end return __v end)()`, operand)
}
