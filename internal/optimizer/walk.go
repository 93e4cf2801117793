// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package optimizer

import "luanext.dev/compiler/internal/lnast"

// walkExprChildren rewrites e's immediate child expressions in place via f
// and returns e. Used by the expression-composite traversal to visit
// children before the parent (bottom-up), per spec.md §4.5.1.
func walkExprChildren(e lnast.Expression, f func(lnast.Expression) lnast.Expression) lnast.Expression {
	switch n := e.(type) {
	case *lnast.BinaryExpr:
		n.Left = f(n.Left)
		n.Right = f(n.Right)
	case *lnast.UnaryExpr:
		n.Operand = f(n.Operand)
	case *lnast.AssignExpr:
		n.Target = f(n.Target)
		n.Value = f(n.Value)
	case *lnast.MemberExpr:
		n.Object = f(n.Object)
	case *lnast.IndexExpr:
		n.Object = f(n.Object)
		n.Index = f(n.Index)
	case *lnast.CallExpr:
		n.Callee = f(n.Callee)
		for i, a := range n.Args {
			n.Args[i] = f(a)
		}
	case *lnast.MethodCallExpr:
		n.Object = f(n.Object)
		for i, a := range n.Args {
			n.Args[i] = f(a)
		}
	case *lnast.NewExpr:
		n.Callee = f(n.Callee)
		for i, a := range n.Args {
			n.Args[i] = f(a)
		}
	case *lnast.ArrayLiteral:
		for i, el := range n.Elements {
			n.Elements[i] = f(el)
		}
	case *lnast.ObjectLiteral:
		for i, p := range n.Properties {
			if p.Value != nil {
				n.Properties[i].Value = f(p.Value)
			}
			if p.ComputedKey != nil {
				n.Properties[i].ComputedKey = f(p.ComputedKey)
			}
		}
	case *lnast.ArrowExpr:
		walkStmtsExprs(n.Body, f)
		if n.ExprBody != nil {
			n.ExprBody = f(n.ExprBody)
		}
	case *lnast.FunctionExpr:
		walkStmtsExprs(n.Body, f)
	case *lnast.TernaryExpr:
		n.Cond = f(n.Cond)
		n.Then = f(n.Then)
		n.Else = f(n.Else)
	case *lnast.PipeExpr:
		n.Left = f(n.Left)
		n.Right = f(n.Right)
	case *lnast.MatchExpr:
		n.Subject = f(n.Subject)
		for i, arm := range n.Arms {
			if arm.Guard != nil {
				n.Arms[i].Guard = f(arm.Guard)
			}
			n.Arms[i].Body = f(arm.Body)
		}
	case *lnast.TemplateLiteralExpr:
		for i, sub := range n.Exprs {
			n.Exprs[i] = f(sub)
		}
	case *lnast.TypeAssertionExpr:
		n.Expr = f(n.Expr)
	case *lnast.TryExpr:
		n.Try = f(n.Try)
		n.Catch = f(n.Catch)
	case *lnast.ErrorChainExpr:
		n.Operand = f(n.Operand)
	case *lnast.ParenExpr:
		n.Inner = f(n.Inner)
	}
	return e
}

// walkStmtsExprs rewrites every expression reachable from stmts in place,
// used to descend into nested function/arrow bodies from an expression
// visitor.
func walkStmtsExprs(stmts []lnast.Statement, f func(lnast.Expression) lnast.Expression) {
	for _, s := range stmts {
		mapStmtExprs(s, f, func(ss []lnast.Statement) []lnast.Statement {
			walkStmtsExprs(ss, f)
			return ss
		})
	}
}

// mapStmtExprs rewrites s's immediate child expressions via f and recurses
// into nested statement lists via walkStmts, returning s.
func mapStmtExprs(s lnast.Statement, f func(lnast.Expression) lnast.Expression, walkStmts func([]lnast.Statement) []lnast.Statement) lnast.Statement {
	switch n := s.(type) {
	case *lnast.VariableDecl:
		if n.Init != nil {
			n.Init = f(n.Init)
		}
	case *lnast.FunctionDecl:
		n.Body = walkStmts(n.Body)
	case *lnast.ClassDecl:
		for i, mbr := range n.Members {
			if mbr.Init != nil {
				n.Members[i].Init = f(mbr.Init)
			}
			if mbr.Method != nil {
				mbr.Method.Body = walkStmts(mbr.Method.Body)
			}
		}
	case *lnast.EnumDecl:
		for i := range n.Members {
			if n.Members[i].Value != nil {
				n.Members[i].Value = f(n.Members[i].Value)
			}
		}
		for i := range n.Methods {
			n.Methods[i].Body = walkStmts(n.Methods[i].Body)
		}
	case *lnast.IfStatement:
		n.Cond = f(n.Cond)
		n.Then = walkStmts(n.Then)
		for i, ei := range n.ElseIfs {
			n.ElseIfs[i].Cond = f(ei.Cond)
			n.ElseIfs[i].Body = walkStmts(ei.Body)
		}
		n.Else = walkStmts(n.Else)
	case *lnast.WhileStatement:
		n.Cond = f(n.Cond)
		n.Body = walkStmts(n.Body)
	case *lnast.ForNumericStatement:
		n.Start = f(n.Start)
		n.Stop = f(n.Stop)
		if n.Step != nil {
			n.Step = f(n.Step)
		}
		n.Body = walkStmts(n.Body)
	case *lnast.ForInStatement:
		for i, it := range n.Iterable {
			n.Iterable[i] = f(it)
		}
		n.Body = walkStmts(n.Body)
	case *lnast.RepeatStatement:
		n.Body = walkStmts(n.Body)
		n.Cond = f(n.Cond)
	case *lnast.ReturnStatement:
		for i, v := range n.Values {
			n.Values[i] = f(v)
		}
	case *lnast.ExpressionStatement:
		n.Expr = f(n.Expr)
	case *lnast.BlockStatement:
		n.Body = walkStmts(n.Body)
	case *lnast.DoStatement:
		n.Body = walkStmts(n.Body)
	case *lnast.TryStatement:
		n.Try = walkStmts(n.Try)
		n.Catch = walkStmts(n.Catch)
		n.Finally = walkStmts(n.Finally)
	case *lnast.ThrowStatement:
		n.Value = f(n.Value)
	case *lnast.NamespaceDecl:
		n.Body = walkStmts(n.Body)
	case *lnast.MultiAssignStatement:
		for i, v := range n.Values {
			n.Values[i] = f(v)
		}
		for i, t := range n.Targets {
			n.Targets[i] = f(t)
		}
	case *lnast.ExportStatement:
		if n.Decl != nil {
			n.Decl = mapStmtExprs(n.Decl, f, walkStmts)
		}
		if n.DefaultExpr != nil {
			n.DefaultExpr = f(n.DefaultExpr)
		}
	}
	return s
}

// descendStmt recurses into s's nested statement lists via walkStmts and
// returns s, used by the statement-composite traversal (bottom-up, like
// walkExprChildren).
func descendStmt(s lnast.Statement, walkStmts func([]lnast.Statement) []lnast.Statement) lnast.Statement {
	switch n := s.(type) {
	case *lnast.FunctionDecl:
		n.Body = walkStmts(n.Body)
	case *lnast.ClassDecl:
		for _, mbr := range n.Members {
			if mbr.Method != nil {
				mbr.Method.Body = walkStmts(mbr.Method.Body)
			}
		}
	case *lnast.EnumDecl:
		for i := range n.Methods {
			n.Methods[i].Body = walkStmts(n.Methods[i].Body)
		}
	case *lnast.IfStatement:
		n.Then = walkStmts(n.Then)
		for i, ei := range n.ElseIfs {
			n.ElseIfs[i].Body = walkStmts(ei.Body)
		}
		n.Else = walkStmts(n.Else)
	case *lnast.WhileStatement:
		n.Body = walkStmts(n.Body)
	case *lnast.ForNumericStatement:
		n.Body = walkStmts(n.Body)
	case *lnast.ForInStatement:
		n.Body = walkStmts(n.Body)
	case *lnast.RepeatStatement:
		n.Body = walkStmts(n.Body)
	case *lnast.BlockStatement:
		n.Body = walkStmts(n.Body)
	case *lnast.DoStatement:
		n.Body = walkStmts(n.Body)
	case *lnast.TryStatement:
		n.Try = walkStmts(n.Try)
		n.Catch = walkStmts(n.Catch)
		n.Finally = walkStmts(n.Finally)
	case *lnast.NamespaceDecl:
		n.Body = walkStmts(n.Body)
	}
	return s
}
