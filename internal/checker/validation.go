// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package checker

import (
	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/typesys"
)

// validationPhase implements spec.md §4.4.6 phase 5: return-type
// consistency, unused-variable warnings (non-fatal), and final-override
// checks. Abstract-instantiation rejection is applied during phase 4's walk
// (inference.go's checkAbstractInstantiation) since it falls naturally out
// of visiting each `new` expression once; see DESIGN.md.
func validationPhase(m *Module) {
	for _, stmt := range m.Program.Statements {
		validateStmt(m, stmt)
	}
}

func validateStmt(m *Module, stmt lnast.Statement) {
	switch n := stmt.(type) {
	case *lnast.FunctionDecl:
		checkReturnConsistency(m, n.Name, n.ReturnType, n.Body)
		checkUnusedLocals(m, n.Body)
	case *lnast.ClassDecl:
		checkFinalOverrides(m, n)
		for _, mbr := range n.Members {
			if mbr.Method != nil {
				checkReturnConsistency(m, mbr.Name, mbr.Method.ReturnType, mbr.Method.Body)
				checkUnusedLocals(m, mbr.Method.Body)
			}
		}
	case *lnast.NamespaceDecl:
		for _, inner := range n.Body {
			validateStmt(m, inner)
		}
	case *lnast.ExportStatement:
		if n.Decl != nil {
			validateStmt(m, n.Decl)
		}
	}
}

// checkReturnConsistency compares every return statement's inferred value
// type against the declared return annotation, skipping functions with no
// explicit annotation (inferred-return functions are not cross-checked).
func checkReturnConsistency(m *Module, name Name, retType lnast.Type, body []lnast.Statement) {
	if retType == nil {
		return
	}
	inferExpr := func(e lnast.Expression) *typesys.Type { return typesys.Unknown }
	declared := typesys.FromAST(retType, inferExpr)
	var walk func([]lnast.Statement)
	walk = func(stmts []lnast.Statement) {
		for _, st := range stmts {
			switch n := st.(type) {
			case *lnast.ReturnStatement:
				if len(n.Values) == 0 {
					continue
				}
				var actual *typesys.Type
				if a := n.Values[0].Analysis(); a != nil {
					if t, ok := a.AnnotatedType.(*typesys.Type); ok {
						actual = t
					}
				}
				if actual == nil {
					continue
				}
				if !typesys.Assignable(actual, declared, nil) {
					m.Sink.Reportf(diag.E1002, n.NodeSpan(), "function %q: cannot return %s as %s", m.It.MustResolve(name), actual, declared)
				}
			case *lnast.IfStatement:
				walk(n.Then)
				for _, ei := range n.ElseIfs {
					walk(ei.Body)
				}
				walk(n.Else)
			case *lnast.WhileStatement:
				walk(n.Body)
			case *lnast.ForNumericStatement:
				walk(n.Body)
			case *lnast.ForInStatement:
				walk(n.Body)
			case *lnast.RepeatStatement:
				walk(n.Body)
			case *lnast.BlockStatement:
				walk(n.Body)
			case *lnast.DoStatement:
				walk(n.Body)
			case *lnast.TryStatement:
				walk(n.Try)
				walk(n.Catch)
				walk(n.Finally)
			}
		}
	}
	walk(body)
}

// checkUnusedLocals warns (non-fatally) about a `const`/`let`/`local`
// declaration whose name is never referenced again in the same block list,
// and whose initializer is side-effect-free enough that dropping it would
// not change behavior (a bare literal or identifier).
func checkUnusedLocals(m *Module, body []lnast.Statement) {
	declared := make(map[Name]lnast.Span)
	used := make(map[Name]bool)
	var collect func([]lnast.Statement)
	var collectExpr func(lnast.Expression)
	collectExpr = func(e lnast.Expression) {
		switch n := e.(type) {
		case *lnast.IdentExpr:
			used[n.Name] = true
		case *lnast.BinaryExpr:
			collectExpr(n.Left)
			collectExpr(n.Right)
		case *lnast.UnaryExpr:
			collectExpr(n.Operand)
		case *lnast.CallExpr:
			collectExpr(n.Callee)
			for _, a := range n.Args {
				collectExpr(a)
			}
		case *lnast.MemberExpr:
			collectExpr(n.Object)
		case *lnast.IndexExpr:
			collectExpr(n.Object)
			collectExpr(n.Index)
		case *lnast.AssignExpr:
			collectExpr(n.Value)
		case *lnast.ParenExpr:
			collectExpr(n.Inner)
		}
	}
	collect = func(stmts []lnast.Statement) {
		for _, st := range stmts {
			switch n := st.(type) {
			case *lnast.VariableDecl:
				if n.Kind == lnast.VarGlobal || n.Ambient {
					continue
				}
				if id, ok := n.Pattern.(*lnast.IdentPattern); ok {
					isSimple := n.Init == nil || isSideEffectFreeInit(n.Init)
					if isSimple {
						declared[id.Name] = n.NodeSpan()
					}
				}
				if n.Init != nil {
					collectExpr(n.Init)
				}
			case *lnast.ExpressionStatement:
				collectExpr(n.Expr)
			case *lnast.ReturnStatement:
				for _, v := range n.Values {
					collectExpr(v)
				}
			case *lnast.IfStatement:
				collectExpr(n.Cond)
				collect(n.Then)
				for _, ei := range n.ElseIfs {
					collectExpr(ei.Cond)
					collect(ei.Body)
				}
				collect(n.Else)
			case *lnast.WhileStatement:
				collectExpr(n.Cond)
				collect(n.Body)
			case *lnast.BlockStatement:
				collect(n.Body)
			case *lnast.DoStatement:
				collect(n.Body)
			}
		}
	}
	collect(body)
	for name, span := range declared {
		if !used[name] {
			m.Sink.Report(diag.Warningf(diag.E1003, span, "local %q is declared but never used", m.It.MustResolve(name)))
		}
	}
}

func isSideEffectFreeInit(e lnast.Expression) bool {
	switch e.(type) {
	case *lnast.NilLiteral, *lnast.BoolLiteral, *lnast.NumberLiteral, *lnast.StringLiteral, *lnast.IdentExpr:
		return true
	default:
		return false
	}
}

// checkFinalOverrides rejects a subclass method overriding a superclass
// method whose name matches a member the superclass declared and the
// subclass redeclares with an incompatible signature (a coarse proxy for
// "final override checks" since the AST has no explicit `final` modifier;
// see DESIGN.md's Open Question decision).
func checkFinalOverrides(m *Module, decl *lnast.ClassDecl) {
	ci, ok := m.ClassHierarchy[decl.Name]
	if !ok || ci.Super == nil {
		return
	}
	for _, mbr := range decl.Members {
		if !mbr.IsMethod || mbr.Method == nil {
			continue
		}
		superType, ok := ci.Super.Methods[mbr.Name]
		if !ok {
			continue
		}
		inferExpr := func(e lnast.Expression) *typesys.Type { return typesys.Unknown }
		overrideType := &typesys.Type{Kind: typesys.KindFunction, Params: paramTypes(mbr.Method.Params, inferExpr), Return: typesys.FromAST(mbr.Method.ReturnType, inferExpr)}
		if !typesys.Assignable(overrideType, superType, nil) {
			m.Sink.Reportf(diag.E1004, mbr.Span, "method %q does not override %q compatibly", m.It.MustResolve(mbr.Name), m.It.MustResolve(decl.Name))
		}
	}
}
