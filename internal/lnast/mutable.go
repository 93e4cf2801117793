// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnast

import "luanext.dev/compiler/internal/intern"

// MutableProgram is the optimizer-side view of a Program: the top-level
// statement sequence is owned and resizable (passes insert, delete, and
// reorder statements freely), while every expression and type referenced
// from those statements remains borrowed from the original Arena. A pass
// that needs new substructure — not just a new top-level order — clones the
// node it wants to change via the Arena and swaps the pointer in place;
// clone-mutate-reallocate doesn't require touching every parent.
type MutableProgram struct {
	Arena      *Arena
	Statements []Statement
	Source     string

	// Interner is the compile's string interner, set by the driver so that
	// passes which synthesize new declarations (generic specialization,
	// function cloning, scalar replacement) can mint names. Passes must
	// tolerate nil and decline to fire.
	Interner *intern.Interner

	// Features is computed once before the optimizer's fixed-point loop
	// begins and is not refreshed between iterations.
	Features AstFeatures
}

// NewMutableProgram borrows p's Arena and copies its statement sequence into
// an owned, independently resizable slice. p itself is left untouched.
func NewMutableProgram(p *Program) *MutableProgram {
	stmts := make([]Statement, len(p.Statements))
	copy(stmts, p.Statements)
	return &MutableProgram{
		Arena:      p.Arena,
		Statements: stmts,
		Source:     p.Source,
	}
}

// Freeze collapses mp back into a Program, rebuilding the statement-span
// side table. Called once after the optimizer's fixed-point loop converges,
// before the result is handed to the code generator.
func (mp *MutableProgram) Freeze() *Program {
	p := &Program{
		Arena:      mp.Arena,
		Statements: mp.Statements,
		Source:     mp.Source,
	}
	p.ReindexSpans()
	return p
}

// AstFeatures is a bitset describing which high-level constructs appear in a
// program. The optimizer computes it once per MutableProgram before running
// any pass; a pass whose required features are absent from the bitset is
// skipped entirely for that program.
type AstFeatures uint16

const (
	FeatureLoops AstFeatures = 1 << iota
	FeatureClasses
	FeatureMethods
	FeatureFunctions
	FeatureArrows
	FeatureInterfaces
	FeatureArrays
	FeatureObjects
	FeatureEnums
)

// Has reports whether every bit set in want is also set in f.
func (f AstFeatures) Has(want AstFeatures) bool {
	return f&want == want
}

// ComputeFeatures scans stmts and returns the AstFeatures bitset describing
// which high-level constructs it contains. It descends into nested statement
// lists and into the bodies of function declarations and of function and
// arrow expressions; of a class it scans member initializers only, not
// method bodies.
func ComputeFeatures(stmts []Statement) AstFeatures {
	var f AstFeatures
	var walkStmt func(Statement)
	var walkStmts func([]Statement)
	var walkExpr func(Expression)

	walkStmts = func(ss []Statement) {
		for _, s := range ss {
			walkStmt(s)
		}
	}

	walkStmt = func(s Statement) {
		switch n := s.(type) {
		case *WhileStatement:
			f |= FeatureLoops
			walkExpr(n.Cond)
			walkStmts(n.Body)
		case *ForNumericStatement:
			f |= FeatureLoops
			walkStmts(n.Body)
		case *ForInStatement:
			f |= FeatureLoops
			walkStmts(n.Body)
		case *RepeatStatement:
			f |= FeatureLoops
			walkExpr(n.Cond)
			walkStmts(n.Body)
		case *ClassDecl:
			f |= FeatureClasses
			for _, m := range n.Members {
				if m.IsMethod || m.IsGetter || m.IsSetter {
					f |= FeatureMethods
				}
				if m.Init != nil {
					walkExpr(m.Init)
				}
			}
		case *InterfaceDecl:
			f |= FeatureInterfaces
		case *EnumDecl:
			f |= FeatureEnums
		case *FunctionDecl:
			f |= FeatureFunctions
			walkStmts(n.Body)
		case *IfStatement:
			walkExpr(n.Cond)
			walkStmts(n.Then)
			for _, ei := range n.ElseIfs {
				walkExpr(ei.Cond)
				walkStmts(ei.Body)
			}
			walkStmts(n.Else)
		case *VariableDecl:
			if n.Init != nil {
				walkExpr(n.Init)
			}
		case *ReturnStatement:
			for _, v := range n.Values {
				walkExpr(v)
			}
		case *ExpressionStatement:
			walkExpr(n.Expr)
		case *BlockStatement:
			walkStmts(n.Body)
		case *DoStatement:
			walkStmts(n.Body)
		case *TryStatement:
			walkStmts(n.Try)
			walkStmts(n.Catch)
			walkStmts(n.Finally)
		case *ThrowStatement:
			walkExpr(n.Value)
		case *NamespaceDecl:
			walkStmts(n.Body)
		case *MultiAssignStatement:
			for _, v := range n.Values {
				walkExpr(v)
			}
		}
	}

	walkExpr = func(e Expression) {
		switch n := e.(type) {
		case *ArrowExpr:
			f |= FeatureArrows
			walkStmts(n.Body)
			if n.ExprBody != nil {
				walkExpr(n.ExprBody)
			}
		case *FunctionExpr:
			f |= FeatureFunctions
			walkStmts(n.Body)
		case *ArrayLiteral:
			f |= FeatureArrays
			for _, el := range n.Elements {
				walkExpr(el)
			}
		case *ObjectLiteral:
			f |= FeatureObjects
			for _, p := range n.Properties {
				if p.Value != nil {
					walkExpr(p.Value)
				}
			}
		case *BinaryExpr:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *UnaryExpr:
			walkExpr(n.Operand)
		case *CallExpr:
			walkExpr(n.Callee)
			for _, a := range n.Args {
				walkExpr(a)
			}
		case *MethodCallExpr:
			f |= FeatureMethods
			walkExpr(n.Object)
			for _, a := range n.Args {
				walkExpr(a)
			}
		case *AssignExpr:
			walkExpr(n.Target)
			walkExpr(n.Value)
		case *MemberExpr:
			walkExpr(n.Object)
		case *IndexExpr:
			walkExpr(n.Object)
			walkExpr(n.Index)
		case *TernaryExpr:
			walkExpr(n.Cond)
			walkExpr(n.Then)
			walkExpr(n.Else)
		case *ParenExpr:
			walkExpr(n.Inner)
		}
	}

	walkStmts(stmts)
	return f
}
