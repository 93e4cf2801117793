// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package optimizer

import (
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/typesys"
)

// smallFunctionStatementCap bounds how large a function body may be and
// still be considered for inlining at O2 (spec.md §4.5.3: "small,
// non-recursive").
const smallFunctionStatementCap = 4

// inlineCandidates maps a function name to its declaration for every
// top-level, non-recursive function at or below the size cap.
func inlineCandidates(stmts []lnast.Statement) map[Name]*lnast.FunctionDecl {
	out := make(map[Name]*lnast.FunctionDecl)
	for _, s := range stmts {
		fn, ok := s.(*lnast.FunctionDecl)
		if !ok || fn.Ambient || fn.Abstract || len(fn.Body) > smallFunctionStatementCap {
			continue
		}
		if callsSelf(fn) {
			continue
		}
		out[fn.Name] = fn
	}
	return out
}

func callsSelf(fn *lnast.FunctionDecl) bool {
	found := false
	var walkExpr func(lnast.Expression)
	var walkStmts func([]lnast.Statement)
	walkExpr = func(e lnast.Expression) {
		if found {
			return
		}
		switch n := e.(type) {
		case *lnast.CallExpr:
			if id, ok := n.Callee.(*lnast.IdentExpr); ok && id.Name == fn.Name {
				found = true
				return
			}
			walkExpr(n.Callee)
			for _, a := range n.Args {
				walkExpr(a)
			}
		case *lnast.BinaryExpr:
			walkExpr(n.Left)
			walkExpr(n.Right)
		}
	}
	walkStmts = func(ss []lnast.Statement) {
		for _, s := range ss {
			if found {
				return
			}
			switch n := s.(type) {
			case *lnast.ExpressionStatement:
				walkExpr(n.Expr)
			case *lnast.ReturnStatement:
				for _, v := range n.Values {
					walkExpr(v)
				}
			case *lnast.IfStatement:
				walkStmts(n.Then)
				walkStmts(n.Else)
			}
		}
	}
	walkStmts(fn.Body)
	return found
}

// inlineSingleReturn rewrites a call to a single-statement `return expr`
// function directly into expr, with its parameters substituted by the call
// arguments positionally. Only functions whose entire body is one return
// statement are inlined this way; anything with side-effecting prologue
// statements is left to the general small-function path (not attempted
// here given effort constraints — see DESIGN.md).
func inlineSingleReturn(ctx *Context, e lnast.Expression) (lnast.Expression, bool) {
	call, ok := e.(*lnast.CallExpr)
	if !ok {
		return e, false
	}
	id, ok := call.Callee.(*lnast.IdentExpr)
	if !ok {
		return e, false
	}
	cands := inlineCandidates(ctx.MP.Statements)
	fn, ok := cands[id.Name]
	if !ok || len(fn.Body) != 1 || len(fn.TypeParams) != 0 {
		return e, false
	}
	ret, ok := fn.Body[0].(*lnast.ReturnStatement)
	if !ok || len(ret.Values) != 1 || len(fn.Params) != len(call.Args) {
		return e, false
	}
	subst := make(map[Name]lnast.Expression, len(fn.Params))
	for i, p := range fn.Params {
		if id, ok := p.Pattern.(*lnast.IdentPattern); ok {
			subst[id.Name] = call.Args[i]
		}
	}
	var substitute func(lnast.Expression) lnast.Expression
	substitute = func(expr lnast.Expression) lnast.Expression {
		if id, ok := expr.(*lnast.IdentExpr); ok {
			if v, ok := subst[id.Name]; ok {
				return v
			}
		}
		return walkExprChildren(expr, substitute)
	}
	return substitute(ret.Values[0]), true
}

// tailCallConversion marks a `return f(args)` as a genuine tail call by
// rewriting it to `return f(args)` unchanged in shape but flattened through
// any enclosing paren, which is the form the code generator recognizes to
// emit a native Lua tail call instead of an intermediate local (spec.md
// §4.5.3's tail-call pass; the actual emission lives in codegen, this pass
// only normalizes the AST shape).
func tailCallConversion(_ *Context, s lnast.Statement) (lnast.Statement, bool) {
	ret, ok := s.(*lnast.ReturnStatement)
	if !ok || len(ret.Values) != 1 {
		return s, false
	}
	if p, ok := ret.Values[0].(*lnast.ParenExpr); ok {
		if _, isCall := p.Inner.(*lnast.CallExpr); isCall {
			ret.Values[0] = p.Inner
			return ret, true
		}
	}
	return s, false
}

// methodToFunction rewrites `obj:method(args)` to `obj.method(obj, args)`
// when obj is a plain identifier, matching how Lua method-call sugar
// desugars; doing it here (rather than leaving it to codegen) lets later
// CSE/alias passes see the explicit receiver argument (spec.md §4.5.3).
func methodToFunction(_ *Context, e lnast.Expression) (lnast.Expression, bool) {
	mc, ok := e.(*lnast.MethodCallExpr)
	if !ok {
		return e, false
	}
	if _, ok := mc.Object.(*lnast.IdentExpr); !ok {
		return e, false
	}
	member := &lnast.MemberExpr{Object: mc.Object, Property: mc.Method, Optional: mc.Optional}
	member.Span = mc.Span
	args := append([]lnast.Expression{mc.Object}, mc.Args...)
	call := &lnast.CallExpr{Callee: member, Args: args, Optional: mc.Optional}
	call.Span = mc.Span
	return call, true
}

// aggressiveInlineStatementCap bounds how large a body the O3 aggressive
// inliner will duplicate at a call site.
const aggressiveInlineStatementCap = 8

// aggressiveInlining implements the O3 aggressive-inlining pass: calls to
// multi-statement functions too big for the O2 single-return inliner are
// rewritten to an immediately-invoked function expression cloning the body
// at the call site, which removes the name lookup and exposes the body to
// the other expression passes in the same fixed-point loop. Bodies that
// build closures are skipped (an inlined copy would capture different
// upvalues than the original declaration site).
func aggressiveInlining(ctx *Context, e lnast.Expression) (lnast.Expression, bool) {
	call, ok := e.(*lnast.CallExpr)
	if !ok || len(call.TypeArgs) > 0 {
		return e, false
	}
	id, ok := call.Callee.(*lnast.IdentExpr)
	if !ok {
		return e, false
	}
	fn, ok := topLevelFunction(ctx.MP.Statements, id.Name)
	if !ok || fn.Ambient || fn.Abstract || len(fn.TypeParams) > 0 || callsSelf(fn) {
		return e, false
	}
	if len(fn.Body) < 2 || len(fn.Body) > aggressiveInlineStatementCap {
		return e, false
	}
	if len(fn.Params) != len(call.Args) || !plainParams(fn.Params) {
		return e, false
	}
	if buildsClosure(fn.Body) {
		return e, false
	}
	fe := &lnast.FunctionExpr{Params: fn.Params, Body: lnast.CloneStatements(ctx.MP.Arena, fn.Body)}
	fe.Span = call.Span
	paren := &lnast.ParenExpr{Inner: fe}
	paren.Span = call.Span
	inlined := &lnast.CallExpr{Callee: paren, Args: call.Args, Spreads: call.Spreads}
	inlined.Span = call.Span
	return inlined, true
}

func topLevelFunction(stmts []lnast.Statement, name Name) (*lnast.FunctionDecl, bool) {
	for _, s := range stmts {
		if fn, ok := s.(*lnast.FunctionDecl); ok && fn.Name == name {
			return fn, true
		}
	}
	return nil, false
}

// plainParams reports whether every parameter is a bare identifier with no
// default and no rest collector, the only shape positional substitution and
// IIFE re-binding both handle soundly.
func plainParams(params []lnast.Param) bool {
	for _, p := range params {
		if p.Rest || p.Default != nil {
			return false
		}
		if _, ok := p.Pattern.(*lnast.IdentPattern); !ok {
			return false
		}
	}
	return true
}

func buildsClosure(stmts []lnast.Statement) bool {
	found := false
	var visit func(lnast.Expression) lnast.Expression
	visit = func(e lnast.Expression) lnast.Expression {
		switch e.(type) {
		case *lnast.FunctionExpr, *lnast.ArrowExpr:
			found = true
			return e
		}
		return walkExprChildren(e, visit)
	}
	walkStmtsExprs(stmts, visit)
	return found
}

// interfaceMethodInlining implements the O3 interface-method-inlining pass:
// a method call through a receiver whose static type is an interface with
// exactly one instantiated implementing class is rewritten to call that
// class's method directly, skipping the per-instance dispatch (spec.md
// §4.5.1's function composite; consumes the class hierarchy per §4.5.3).
func interfaceMethodInlining(ctx *Context, e lnast.Expression) (lnast.Expression, bool) {
	if ctx.Whole == nil {
		return e, false
	}
	mc, ok := e.(*lnast.MethodCallExpr)
	if !ok || mc.Optional {
		return e, false
	}
	iface, ok := staticNamedTypeOf(mc.Object)
	if !ok {
		return e, false
	}
	impls := ctx.Whole.Implementors[iface]
	if len(impls) != 1 || impls[0].Decl == nil {
		return e, false
	}
	impl := impls[0]
	if ctx.Whole.RTA[impl.Decl.Name] == 0 {
		return e, false
	}
	clsIdent := &lnast.IdentExpr{Name: impl.Decl.Name}
	clsIdent.Span = mc.Span
	member := &lnast.MemberExpr{Object: clsIdent, Property: mc.Method}
	member.Span = mc.Span
	args := append([]lnast.Expression{mc.Object}, mc.Args...)
	call := &lnast.CallExpr{Callee: member, Args: args}
	call.Span = mc.Span
	return call, true
}

// staticNamedTypeOf reports the name of e's checker-annotated static type
// when that type is a named reference (interface, class, or alias).
func staticNamedTypeOf(e lnast.Expression) (Name, bool) {
	a := e.Analysis()
	if a == nil || a.AnnotatedType == nil {
		return 0, false
	}
	t, ok := a.AnnotatedType.(*typesys.Type)
	if !ok || t.Kind != typesys.KindNamed {
		return 0, false
	}
	return t.Name, true
}

func init() {
	Register(&Pass{Name: "function-inlining", Level: O2, Role: RoleExpression, VisitExpr: inlineSingleReturn})
	Register(&Pass{Name: "tail-call", Level: O2, Role: RoleStatement, VisitStmt: tailCallConversion})
	Register(&Pass{Name: "method-to-function", Level: O2, Role: RoleExpression, Requires: lnast.FeatureMethods, VisitExpr: methodToFunction})
	Register(&Pass{Name: "aggressive-inlining", Level: O3, Role: RoleExpression, Requires: lnast.FeatureFunctions, VisitExpr: aggressiveInlining})
	Register(&Pass{Name: "interface-method-inlining", Level: O3, Role: RoleExpression, Requires: lnast.FeatureInterfaces | lnast.FeatureClasses, VisitExpr: interfaceMethodInlining})
}
