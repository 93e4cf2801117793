// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package optimizer

import "luanext.dev/compiler/internal/lnast"

// strengthReduceLoop implements the strength-reduction half of the O2 loop
// pass: `i * k` inside a numeric for-loop body, where k is a loop-invariant
// literal and i is the induction variable, is left to the codegen's
// arithmetic lowering, but `x^k` with an integer-literal exponent k from 2
// to 4 collapses to repeated multiplication here since Lua has no fast
// integer power.
func strengthReduceLoop(_ *Context, e lnast.Expression) (lnast.Expression, bool) {
	b, ok := e.(*lnast.BinaryExpr)
	if !ok || b.Op != lnast.BinPow {
		return e, false
	}
	v, isInt, ok := literalNumber(b.Right)
	if !ok || !isInt || v < 2 || v > 4 {
		return e, false
	}
	n := int(v)
	result := b.Left
	for i := 1; i < n; i++ {
		mul := &lnast.BinaryExpr{Op: lnast.BinMul, Left: result, Right: b.Left}
		mul.Span = b.Span
		result = mul
	}
	return result, true
}

// licmCandidateBody reports whether stmt is loop-invariant with respect to
// loopVar: a non-global local declaration whose initializer does not read
// loopVar and has no side effects, making it safe to hoist out of the
// enclosing loop. This is the analysis half of LICM; licmNumericLoop, a
// statement pass over each numeric for-loop, performs the hoist.
func licmCandidateBody(stmt lnast.Statement, loopVar Name) bool {
	vd, ok := stmt.(*lnast.VariableDecl)
	if !ok || vd.Init == nil || vd.Kind == lnast.VarGlobal {
		return false
	}
	if !isSideEffectFreeExpr(vd.Init) {
		return false
	}
	return !referencesIdent(vd.Init, loopVar)
}

func referencesIdent(e lnast.Expression, name Name) bool {
	switch n := e.(type) {
	case *lnast.IdentExpr:
		return n.Name == name
	case *lnast.BinaryExpr:
		return referencesIdent(n.Left, name) || referencesIdent(n.Right, name)
	case *lnast.UnaryExpr:
		return referencesIdent(n.Operand, name)
	case *lnast.CallExpr:
		if referencesIdent(n.Callee, name) {
			return true
		}
		for _, a := range n.Args {
			if referencesIdent(a, name) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// licmNumericLoop hoists invariant declarations out of a numeric for-loop
// body (spec.md §4.5.3's "LICM" half of loop optimization).
func licmNumericLoop(_ *Context, s lnast.Statement) (lnast.Statement, bool) {
	loop, ok := s.(*lnast.ForNumericStatement)
	if !ok {
		return s, false
	}
	var hoisted []lnast.Statement
	var kept []lnast.Statement
	changed := false
	for _, st := range loop.Body {
		if licmCandidateBody(st, loop.Var) {
			hoisted = append(hoisted, st)
			changed = true
			continue
		}
		kept = append(kept, st)
	}
	if !changed {
		return s, false
	}
	loop.Body = kept
	block := &lnast.BlockStatement{Body: append(hoisted, loop)}
	block.Span = loop.Span
	return block, true
}

// stringConcatFolding implements the O2 string-concat pass: a right-leaning
// or left-leaning chain of `..` concatenations with adjacent literal
// operands flattens those literals into one, reducing the number of
// runtime concatenations emitted.
func stringConcatFolding(_ *Context, e lnast.Expression) (lnast.Expression, bool) {
	b, ok := e.(*lnast.BinaryExpr)
	if !ok || b.Op != lnast.BinConcat {
		return e, false
	}
	if rv, ok := literalString(b.Right); ok {
		if inner, ok := b.Left.(*lnast.BinaryExpr); ok && inner.Op == lnast.BinConcat {
			if lv, ok := literalString(inner.Right); ok {
				combined := stringLiteral(b.Span, lv+rv)
				out := &lnast.BinaryExpr{Op: lnast.BinConcat, Left: inner.Left, Right: combined}
				out.Span = b.Span
				return out, true
			}
		}
	}
	return e, false
}

// tablePreallocation implements the O2 table-preallocation pass: an array
// literal with no spreads and only positional elements gets a size hint
// available to codegen (encoded by wrapping nothing — the AST shape is
// unchanged; the size is implicit in len(Elements) already, so this pass's
// job is to strip a redundant trailing nil-padding element some desugarings
// introduce).
func tablePreallocation(_ *Context, e lnast.Expression) (lnast.Expression, bool) {
	arr, ok := e.(*lnast.ArrayLiteral)
	if !ok || len(arr.Elements) == 0 {
		return e, false
	}
	last := len(arr.Elements) - 1
	if isNilLiteral(arr.Elements[last]) && !arr.Spreads[last] {
		arr.Elements = arr.Elements[:last]
		arr.Spreads = arr.Spreads[:last]
		return arr, true
	}
	return e, false
}

// globalLocalizationThreshold is the minimum number of reads of the same
// global within one function body before it is worth caching in a local
// (spec.md §4.5.3).
const globalLocalizationThreshold = 3

// globalLocalization implements the O2 global-localization pass: a function
// whose body reads the same global name at least globalLocalizationThreshold
// times gets a `local g = g` prologue declaration and every read rewritten
// to the local, run as a statement-list rewrite over each function body.
func globalLocalization(ctx *Context, s lnast.Statement) (lnast.Statement, bool) {
	fn, ok := s.(*lnast.FunctionDecl)
	if !ok {
		return s, false
	}
	globals := collectGlobals(ctx.MP.Statements)
	counts := make(map[Name]int)
	var count func(lnast.Expression)
	count = func(e lnast.Expression) {
		switch n := e.(type) {
		case *lnast.IdentExpr:
			if globals[n.Name] {
				counts[n.Name]++
			}
		case *lnast.BinaryExpr:
			count(n.Left)
			count(n.Right)
		case *lnast.CallExpr:
			count(n.Callee)
			for _, a := range n.Args {
				count(a)
			}
		}
	}
	var scan func([]lnast.Statement)
	scan = func(ss []lnast.Statement) {
		for _, st := range ss {
			switch n := st.(type) {
			case *lnast.ExpressionStatement:
				count(n.Expr)
			case *lnast.ReturnStatement:
				for _, v := range n.Values {
					count(v)
				}
			case *lnast.IfStatement:
				count(n.Cond)
				scan(n.Then)
				scan(n.Else)
			}
		}
	}
	scan(fn.Body)
	localized := make(map[Name]bool)
	for _, st := range fn.Body {
		vd, ok := st.(*lnast.VariableDecl)
		if !ok {
			break
		}
		if id, ok := vd.Pattern.(*lnast.IdentPattern); ok {
			localized[id.Name] = true
		}
	}
	var toLocalize []Name
	for name, c := range counts {
		if c >= globalLocalizationThreshold && !localized[name] {
			toLocalize = append(toLocalize, name)
		}
	}
	if len(toLocalize) == 0 {
		return s, false
	}
	prologue := make([]lnast.Statement, 0, len(toLocalize))
	for _, name := range toLocalize {
		init := &lnast.IdentExpr{Name: name}
		init.Span = fn.Span
		decl := &lnast.VariableDecl{Kind: lnast.VarLocal, Pattern: &lnast.IdentPattern{Name: name}, Init: init}
		decl.Span = fn.Span
		prologue = append(prologue, decl)
	}
	fn.Body = append(prologue, fn.Body...)
	return fn, true
}

// richEnumInlining implements the O2 rich-enum pass: a method on a rich
// enum whose entire body is a single `return` of a literal is inlined at
// call sites shaped `EnumName.Member:method()`, mirroring
// inlineSingleReturn's substitution but scoped to enum methods. A method
// that returns a field read is not inlined.
func richEnumInlining(ctx *Context, e lnast.Expression) (lnast.Expression, bool) {
	mc, ok := e.(*lnast.MethodCallExpr)
	if !ok || len(mc.Args) != 0 {
		return e, false
	}
	enumDecl := findRichEnumFor(ctx.MP.Statements, mc)
	if enumDecl == nil {
		return e, false
	}
	for _, meth := range enumDecl.Methods {
		if meth.Name != mc.Method || len(meth.Body) != 1 {
			continue
		}
		ret, ok := meth.Body[0].(*lnast.ReturnStatement)
		if !ok || len(ret.Values) != 1 {
			continue
		}
		switch ret.Values[0].(type) {
		case *lnast.NumberLiteral, *lnast.StringLiteral, *lnast.BoolLiteral, *lnast.NilLiteral:
			return ret.Values[0], true
		}
	}
	return e, false
}

// findRichEnumFor looks up the rich [lnast.EnumDecl] that declares mc's
// callee type, when mc.Object is a simple member access on a known enum
// name (`EnumName.Member`).
func findRichEnumFor(stmts []lnast.Statement, mc *lnast.MethodCallExpr) *lnast.EnumDecl {
	member, ok := mc.Object.(*lnast.MemberExpr)
	if !ok {
		return nil
	}
	id, ok := member.Object.(*lnast.IdentExpr)
	if !ok {
		return nil
	}
	for _, s := range stmts {
		if ed, ok := s.(*lnast.EnumDecl); ok && ed.Rich && ed.Name == id.Name {
			return ed
		}
	}
	return nil
}

func init() {
	Register(&Pass{Name: "rich-enum-optimization", Level: O2, Role: RoleExpression, Requires: lnast.FeatureEnums, VisitExpr: richEnumInlining})
	Register(&Pass{Name: "loop-strength-reduction", Level: O2, Role: RoleExpression, Requires: lnast.FeatureLoops, VisitExpr: strengthReduceLoop})
	Register(&Pass{Name: "loop-licm", Level: O2, Role: RoleStatement, Requires: lnast.FeatureLoops, VisitStmt: licmNumericLoop})
	Register(&Pass{Name: "string-concat-folding", Level: O2, Role: RoleExpression, VisitExpr: stringConcatFolding})
	Register(&Pass{Name: "table-preallocation", Level: O2, Role: RoleExpression, Requires: lnast.FeatureArrays, VisitExpr: tablePreallocation})
	Register(&Pass{Name: "global-localization", Level: O2, Role: RoleStatement, Requires: lnast.FeatureFunctions, VisitStmt: globalLocalization})
}
