// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package codegen

import "luanext.dev/compiler/internal/lnast"

// programUsesBitwise, programUsesClasses, programUsesRichEnums, and
// programUsesDecorators scan a whole program, including nested function,
// method, arrow, and class bodies, to decide which runtime preambles
// Generate must inject (spec.md §4.7). They mirror the recursive walk
// [lnast.ComputeFeatures] uses for the optimizer's feature bitset, but probe
// for a different, codegen-specific set of constructs that bitset doesn't
// carry (bitwise operators, rich enums, decorators).

func programUsesBitwise(prog *lnast.Program) bool {
	found := false
	walkProgram(prog.Statements, func(e lnast.Expression) {
		switch n := e.(type) {
		case *lnast.BinaryExpr:
			switch n.Op {
			case lnast.BinBitAnd, lnast.BinBitOr, lnast.BinBitXor, lnast.BinLShift, lnast.BinRShift:
				found = true
			}
		case *lnast.UnaryExpr:
			if n.Op == lnast.UnBitNot {
				found = true
			}
		case *lnast.AssignExpr:
			switch n.Op {
			case lnast.AssignBitAnd, lnast.AssignBitOr, lnast.AssignBitXor, lnast.AssignLShift, lnast.AssignRShift:
				found = true
			}
		}
	}, nil)
	return found
}

func programUsesClasses(prog *lnast.Program) bool {
	found := false
	walkProgram(prog.Statements, nil, func(s lnast.Statement) {
		if _, ok := s.(*lnast.ClassDecl); ok {
			found = true
		}
	})
	return found
}

func programUsesRichEnums(prog *lnast.Program) bool {
	found := false
	walkProgram(prog.Statements, nil, func(s lnast.Statement) {
		if n, ok := s.(*lnast.EnumDecl); ok && n.Rich {
			found = true
		}
	})
	return found
}

func programUsesDecorators(prog *lnast.Program) bool {
	found := false
	walkProgram(prog.Statements, nil, func(s lnast.Statement) {
		switch n := s.(type) {
		case *lnast.FunctionDecl:
			if len(n.Decorators) > 0 {
				found = true
			}
		case *lnast.ClassDecl:
			if len(n.Decorators) > 0 {
				found = true
			}
			for _, m := range n.Members {
				if len(m.Decorators) > 0 {
					found = true
				}
			}
		}
	})
	return found
}

// walkProgram recurses through every statement and expression in stmts,
// invoking onExpr (if non-nil) for every expression node reached and onStmt
// (if non-nil) for every statement node reached, including those nested
// inside function, method, arrow, and class bodies.
func walkProgram(stmts []lnast.Statement, onExpr func(lnast.Expression), onStmt func(lnast.Statement)) {
	var walkStmts func([]lnast.Statement)
	var walkStmt func(lnast.Statement)
	var walkExpr func(lnast.Expression)
	var walkExprs func([]lnast.Expression)

	walkExprs = func(es []lnast.Expression) {
		for _, e := range es {
			walkExpr(e)
		}
	}

	walkExpr = func(e lnast.Expression) {
		if e == nil {
			return
		}
		if onExpr != nil {
			onExpr(e)
		}
		switch n := e.(type) {
		case *lnast.BinaryExpr:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *lnast.UnaryExpr:
			walkExpr(n.Operand)
		case *lnast.AssignExpr:
			walkExpr(n.Target)
			walkExpr(n.Value)
		case *lnast.MemberExpr:
			walkExpr(n.Object)
		case *lnast.IndexExpr:
			walkExpr(n.Object)
			walkExpr(n.Index)
		case *lnast.CallExpr:
			walkExpr(n.Callee)
			walkExprs(n.Args)
		case *lnast.MethodCallExpr:
			walkExpr(n.Object)
			walkExprs(n.Args)
		case *lnast.NewExpr:
			walkExpr(n.Callee)
			walkExprs(n.Args)
		case *lnast.ArrayLiteral:
			walkExprs(n.Elements)
		case *lnast.ObjectLiteral:
			for _, p := range n.Properties {
				walkExpr(p.ComputedKey)
				walkExpr(p.Value)
			}
		case *lnast.ArrowExpr:
			for _, p := range n.Params {
				walkExpr(p.Default)
			}
			walkStmts(n.Body)
			walkExpr(n.ExprBody)
		case *lnast.FunctionExpr:
			for _, p := range n.Params {
				walkExpr(p.Default)
			}
			walkStmts(n.Body)
		case *lnast.TernaryExpr:
			walkExpr(n.Cond)
			walkExpr(n.Then)
			walkExpr(n.Else)
		case *lnast.PipeExpr:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *lnast.MatchExpr:
			walkExpr(n.Subject)
			for _, arm := range n.Arms {
				walkExpr(arm.Guard)
				walkExpr(arm.Body)
			}
		case *lnast.TemplateLiteralExpr:
			walkExprs(n.Exprs)
		case *lnast.TypeAssertionExpr:
			walkExpr(n.Expr)
		case *lnast.TryExpr:
			walkExpr(n.Try)
			walkExpr(n.Catch)
		case *lnast.ErrorChainExpr:
			walkExpr(n.Operand)
		case *lnast.ParenExpr:
			walkExpr(n.Inner)
		}
	}

	walkStmt = func(s lnast.Statement) {
		if s == nil {
			return
		}
		if onStmt != nil {
			onStmt(s)
		}
		switch n := s.(type) {
		case *lnast.VariableDecl:
			walkExpr(n.Init)
		case *lnast.FunctionDecl:
			for _, p := range n.Params {
				walkExpr(p.Default)
			}
			walkStmts(n.Body)
		case *lnast.ClassDecl:
			for _, m := range n.Members {
				walkExpr(m.Init)
				if m.Method != nil {
					walkExpr(m.Method)
				}
				for _, dec := range m.Decorators {
					walkExprs(dec.Args)
				}
			}
			for _, dec := range n.Decorators {
				walkExprs(dec.Args)
			}
		case *lnast.EnumDecl:
			for _, m := range n.Members {
				walkExpr(m.Value)
			}
			for i := range n.Methods {
				walkStmts(n.Methods[i].Body)
			}
		case *lnast.NamespaceDecl:
			walkStmts(n.Body)
		case *lnast.IfStatement:
			walkExpr(n.Cond)
			walkStmts(n.Then)
			for _, ei := range n.ElseIfs {
				walkExpr(ei.Cond)
				walkStmts(ei.Body)
			}
			walkStmts(n.Else)
		case *lnast.WhileStatement:
			walkExpr(n.Cond)
			walkStmts(n.Body)
		case *lnast.ForNumericStatement:
			walkExpr(n.Start)
			walkExpr(n.Stop)
			walkExpr(n.Step)
			walkStmts(n.Body)
		case *lnast.ForInStatement:
			walkExprs(n.Iterable)
			walkStmts(n.Body)
		case *lnast.RepeatStatement:
			walkStmts(n.Body)
			walkExpr(n.Cond)
		case *lnast.ReturnStatement:
			walkExprs(n.Values)
		case *lnast.ExportStatement:
			if n.Decl != nil {
				walkStmt(n.Decl)
			}
			walkExpr(n.DefaultExpr)
		case *lnast.ThrowStatement:
			walkExpr(n.Value)
		case *lnast.TryStatement:
			walkStmts(n.Try)
			walkStmts(n.Catch)
			walkStmts(n.Finally)
		case *lnast.BlockStatement:
			walkStmts(n.Body)
		case *lnast.DoStatement:
			walkStmts(n.Body)
		case *lnast.ExpressionStatement:
			walkExpr(n.Expr)
		case *lnast.MultiAssignStatement:
			walkExprs(n.Targets)
			walkExprs(n.Values)
		}
	}

	walkStmts = func(ss []lnast.Statement) {
		for _, s := range ss {
			walkStmt(s)
		}
	}

	walkStmts(stmts)
}
