// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package checker

import (
	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/typesys"
)

// inferencePhase implements spec.md §4.4.6 phase 4: the main walk that
// infers expression types, checks call arity and abstract-class
// instantiation, and narrows types within guarded branches. Member access
// is not validated. Results are written into each
// [lnast.Expression]'s post-parse analysis slot.
func inferencePhase(m *Module) {
	root := NewScope(nil)
	for name, sym := range m.Symbols {
		root.Declare(name, declaredType(m, sym))
	}
	w := &walker{m: m}
	for _, stmt := range m.Program.Statements {
		w.stmt(stmt, root)
	}
}

func declaredType(m *Module, sym *Symbol) *typesys.Type {
	if sym.Type != nil {
		return sym.Type
	}
	switch sym.Kind {
	case SymClass:
		return typesys.Named(sym.Name)
	case SymFunction:
		decl := sym.Decl.(*lnast.FunctionDecl)
		inferExpr := func(e lnast.Expression) *typesys.Type { return typesys.Unknown }
		return &typesys.Type{Kind: typesys.KindFunction, Params: paramTypes(decl.Params, inferExpr), Return: typesys.FromAST(decl.ReturnType, inferExpr)}
	default:
		return typesys.Unknown
	}
}

// walker threads the module and its class hierarchy through the recursive
// statement/expression walk, since [typesys.Infer] needs access to both to
// resolve identifiers and method receivers.
type walker struct {
	m *Module
}

func (w *walker) ctx(s *Scope) *typesys.InferCtx {
	return &typesys.InferCtx{
		LookupVar: func(name Name) (*typesys.Type, bool) { return s.Lookup(name) },
		LookupClass: func(name Name) (*typesys.ClassInfo, bool) {
			ci, ok := w.m.ClassHierarchy[name]
			return ci, ok
		},
	}
}

func (w *walker) infer(e lnast.Expression, s *Scope) *typesys.Type {
	if e == nil {
		return typesys.Unknown
	}
	t := typesys.Infer(e, w.ctx(s))
	if a := e.Analysis(); a != nil {
		a.AnnotatedType = t
	}
	w.descendExpr(e, s)
	return t
}

// descendExpr recurses into subexpressions purely to populate their
// analysis slots too (Infer itself only computes the top-level type).
func (w *walker) descendExpr(e lnast.Expression, s *Scope) {
	switch n := e.(type) {
	case *lnast.BinaryExpr:
		w.infer(n.Left, s)
		w.infer(n.Right, s)
	case *lnast.UnaryExpr:
		w.infer(n.Operand, s)
	case *lnast.AssignExpr:
		w.infer(n.Target, s)
		w.infer(n.Value, s)
	case *lnast.MemberExpr:
		w.infer(n.Object, s)
	case *lnast.IndexExpr:
		w.infer(n.Object, s)
		w.infer(n.Index, s)
	case *lnast.CallExpr:
		w.infer(n.Callee, s)
		for _, a := range n.Args {
			w.infer(a, s)
		}
		w.checkCallArity(n.Callee, n.Args, s)
	case *lnast.MethodCallExpr:
		w.infer(n.Object, s)
		for _, a := range n.Args {
			w.infer(a, s)
		}
	case *lnast.NewExpr:
		w.infer(n.Callee, s)
		for _, a := range n.Args {
			w.infer(a, s)
		}
		w.checkAbstractInstantiation(n, s)
	case *lnast.ArrayLiteral:
		for _, el := range n.Elements {
			w.infer(el, s)
		}
	case *lnast.ObjectLiteral:
		for _, p := range n.Properties {
			if p.Value != nil {
				w.infer(p.Value, s)
			}
		}
	case *lnast.ArrowExpr:
		inner := NewScope(s)
		for _, p := range n.Params {
			declareParam(inner, p)
		}
		for _, st := range n.Body {
			w.stmt(st, inner)
		}
		if n.ExprBody != nil {
			w.infer(n.ExprBody, inner)
		}
	case *lnast.FunctionExpr:
		inner := NewScope(s)
		for _, p := range n.Params {
			declareParam(inner, p)
		}
		for _, st := range n.Body {
			w.stmt(st, inner)
		}
	case *lnast.TernaryExpr:
		w.infer(n.Cond, s)
		w.infer(n.Then, s)
		w.infer(n.Else, s)
	case *lnast.PipeExpr:
		w.infer(n.Left, s)
		w.infer(n.Right, s)
	case *lnast.MatchExpr:
		w.infer(n.Subject, s)
		for _, arm := range n.Arms {
			if arm.Guard != nil {
				w.infer(arm.Guard, s)
			}
			w.infer(arm.Body, s)
		}
	case *lnast.TemplateLiteralExpr:
		for _, sub := range n.Exprs {
			w.infer(sub, s)
		}
	case *lnast.TypeAssertionExpr:
		w.infer(n.Expr, s)
	case *lnast.TryExpr:
		w.infer(n.Try, s)
		w.infer(n.Catch, s)
	case *lnast.ErrorChainExpr:
		w.infer(n.Operand, s)
	case *lnast.ParenExpr:
		w.infer(n.Inner, s)
	}
}

func declareParam(s *Scope, p lnast.Param) {
	if id, ok := p.Pattern.(*lnast.IdentPattern); ok {
		inferExpr := func(e lnast.Expression) *typesys.Type { return typesys.Unknown }
		s.Declare(id.Name, typesys.FromAST(p.Annotation, inferExpr))
	}
}

func (w *walker) checkCallArity(callee lnast.Expression, args []lnast.Expression, s *Scope) {
	ft := w.infer(callee, s)
	if ft.Kind != typesys.KindFunction {
		return
	}
	required := 0
	for _, p := range ft.Params {
		if !p.Optional && !p.Rest {
			required++
		}
	}
	if len(args) < required {
		w.m.Sink.Reportf(diag.E1001, callee.NodeSpan(), "expected at least %d argument(s), got %d", required, len(args))
	}
}

func (w *walker) checkAbstractInstantiation(n *lnast.NewExpr, s *Scope) {
	named, ok := n.Callee.(*lnast.IdentExpr)
	if !ok {
		return
	}
	ci, ok := w.m.ClassHierarchy[named.Name]
	if !ok || !ci.IsAbstract {
		return
	}
	w.m.Sink.Reportf(diag.E0004, n.NodeSpan(), "cannot instantiate abstract class %q", w.m.It.MustResolve(named.Name))
}

func (w *walker) stmt(stmt lnast.Statement, s *Scope) {
	switch n := stmt.(type) {
	case *lnast.VariableDecl:
		var declared *typesys.Type
		if n.Init != nil {
			declared = w.infer(n.Init, s)
		}
		if n.Annotation != nil {
			inferExpr := func(e lnast.Expression) *typesys.Type { return w.infer(e, s) }
			annotated := typesys.FromAST(n.Annotation, inferExpr)
			if declared != nil && !typesys.Assignable(declared, annotated, nil) {
				w.m.Sink.Reportf(diag.E0001, n.NodeSpan(), "cannot assign %s to %s", declared, annotated)
			}
			declared = annotated
		}
		if declared == nil {
			declared = typesys.Unknown
		}
		bindPattern(s, n.Pattern, declared)
	case *lnast.FunctionDecl:
		inner := NewScope(s)
		for _, p := range n.Params {
			declareParam(inner, p)
		}
		for _, st := range n.Body {
			w.stmt(st, inner)
		}
	case *lnast.ClassDecl:
		for _, mbr := range n.Members {
			if mbr.Method != nil {
				inner := NewScope(s)
				inner.Declare(w.m.It.Intern("self"), typesys.Named(n.Name))
				for _, p := range mbr.Method.Params {
					declareParam(inner, p)
				}
				for _, st := range mbr.Method.Body {
					w.stmt(st, inner)
				}
			}
			if mbr.Init != nil {
				w.infer(mbr.Init, s)
			}
		}
	case *lnast.IfStatement:
		w.ifBranch(n.Cond, n.Then, s)
		for _, ei := range n.ElseIfs {
			w.ifBranch(ei.Cond, ei.Body, s)
		}
		w.stmts(n.Else, NewScope(s))
	case *lnast.WhileStatement:
		w.infer(n.Cond, s)
		w.stmts(n.Body, NewScope(s))
	case *lnast.ForNumericStatement:
		w.infer(n.Start, s)
		w.infer(n.Stop, s)
		if n.Step != nil {
			w.infer(n.Step, s)
		}
		inner := NewScope(s)
		inner.Declare(n.Var, typesys.Integer)
		w.stmts(n.Body, inner)
	case *lnast.ForInStatement:
		for _, it := range n.Iterable {
			w.infer(it, s)
		}
		inner := NewScope(s)
		for _, p := range n.Vars {
			bindPattern(inner, p, typesys.Unknown)
		}
		w.stmts(n.Body, inner)
	case *lnast.RepeatStatement:
		inner := NewScope(s)
		w.stmts(n.Body, inner)
		w.infer(n.Cond, inner)
	case *lnast.ReturnStatement:
		for _, v := range n.Values {
			w.infer(v, s)
		}
	case *lnast.ExpressionStatement:
		w.infer(n.Expr, s)
	case *lnast.BlockStatement:
		w.stmts(n.Body, NewScope(s))
	case *lnast.DoStatement:
		w.stmts(n.Body, NewScope(s))
	case *lnast.TryStatement:
		w.stmts(n.Try, NewScope(s))
		inner := NewScope(s)
		if n.CatchParam != nil {
			inner.Declare(n.CatchParam.Name, typesys.Unknown)
		}
		w.stmts(n.Catch, inner)
		w.stmts(n.Finally, NewScope(s))
	case *lnast.ThrowStatement:
		w.infer(n.Value, s)
	case *lnast.NamespaceDecl:
		w.stmts(n.Body, NewScope(s))
	case *lnast.MultiAssignStatement:
		for _, v := range n.Values {
			w.infer(v, s)
		}
		for _, t := range n.Targets {
			w.infer(t, s)
		}
	case *lnast.ExportStatement:
		if n.Decl != nil {
			w.stmt(n.Decl, s)
		}
		if n.DefaultExpr != nil {
			w.infer(n.DefaultExpr, s)
		}
	}
}

func (w *walker) stmts(stmts []lnast.Statement, s *Scope) {
	for _, st := range stmts {
		w.stmt(st, s)
	}
}

// ifBranch applies any recognized narrowing guard on cond's subject before
// walking body, per spec.md §4.4.4.
func (w *walker) ifBranch(cond lnast.Expression, body []lnast.Statement, s *Scope) {
	w.infer(cond, s)
	inner := NewScope(s)
	if g, subject, ok := guardOf(cond); ok {
		if base, ok := inner.Lookup(subject); ok {
			inner.Narrow(subject, g.Apply(base, false))
		}
	}
	w.stmts(body, inner)
}

// guardOf recognizes two narrowing shapes syntactically: a bare identifier
// (truthiness) and `x ~= nil`. Other guards (`type(x) == "T"`, `instanceof`,
// type predicates) are not recognized and do not narrow.
func guardOf(cond lnast.Expression) (typesys.Guard, Name, bool) {
	switch n := cond.(type) {
	case *lnast.IdentExpr:
		return typesys.Guard{Subject: n.Name, Kind: typesys.GuardTruthy}, n.Name, true
	case *lnast.BinaryExpr:
		if n.Op == lnast.BinNotEqual {
			if id, ok := n.Left.(*lnast.IdentExpr); ok {
				if _, ok := n.Right.(*lnast.NilLiteral); ok {
					return typesys.Guard{Subject: id.Name, Kind: typesys.GuardNotNil}, id.Name, true
				}
			}
		}
	}
	return typesys.Guard{}, 0, false
}

func bindPattern(s *Scope, p lnast.Pattern, t *typesys.Type) {
	switch pat := p.(type) {
	case *lnast.IdentPattern:
		s.Declare(pat.Name, t)
	case *lnast.ArrayPattern:
		elem := typesys.Unknown
		if t.Kind == typesys.KindArray {
			elem = t.Elem
		}
		for _, el := range pat.Elements {
			if el.Pattern != nil {
				bindPattern(s, el.Pattern, elem)
			}
		}
	case *lnast.ObjectPattern:
		for _, f := range pat.Fields {
			if f.Value != nil {
				bindPattern(s, f.Value, typesys.Unknown)
			}
		}
		if pat.Rest != 0 {
			s.Declare(pat.Rest, typesys.Unknown)
		}
	}
}
