// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package optimizer

import (
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/typesys"
)

// ClassNode is one class's position in the cross-module hierarchy: its
// resolved [typesys.ClassInfo], its direct subclasses, and whether it is
// declared final (non-overridable) anywhere in the checked program.
type ClassNode struct {
	Info         *typesys.ClassInfo
	Decl         *lnast.ClassDecl
	Children     []*ClassNode
	Final        bool
	DeclaredHere bool // false if Decl is nil (an ambient/imported-only class)
}

// WholeProgram is the class-hierarchy and RTA bundle that [Run] builds at
// O3 from the one program it optimizes, and that its passes read without
// modifying (spec.md §4.5.4).
type WholeProgram struct {
	Classes map[Name]*ClassNode
	// Implementors maps an interface name to every class whose declaration
	// lists it in an `implements` clause; interface-method inlining fires
	// only when exactly one implementor was ever instantiated.
	Implementors map[Name][]*ClassNode
	// RTA maps a class name to the number of `new` expressions observed
	// instantiating it across the whole program; devirtualization and
	// interface-method inlining use this to tell "exactly one concrete
	// implementor was ever instantiated" from "many".
	RTA map[Name]int
}

// BuildWholeProgram scans mp for class declarations and `new` expressions
// to assemble the RTA-backed class hierarchy. It sees only the classes and
// instantiations of mp itself; [Run] builds one per program it optimizes,
// and no WholePrograms of different modules are merged.
func BuildWholeProgram(mp *lnast.MutableProgram) *WholeProgram {
	wp := &WholeProgram{
		Classes:      make(map[Name]*ClassNode),
		Implementors: make(map[Name][]*ClassNode),
		RTA:          make(map[Name]int),
	}

	var collectClasses func([]lnast.Statement)
	collectClasses = func(stmts []lnast.Statement) {
		for _, s := range stmts {
			switch n := s.(type) {
			case *lnast.ClassDecl:
				if n.Forward {
					continue
				}
				wp.Classes[n.Name] = &ClassNode{Decl: n, DeclaredHere: true}
			case *lnast.NamespaceDecl:
				collectClasses(n.Body)
			case *lnast.ExportStatement:
				if n.Decl != nil {
					collectClasses([]lnast.Statement{n.Decl})
				}
			}
		}
	}
	collectClasses(mp.Statements)

	for name, node := range wp.Classes {
		for _, impl := range node.Decl.Implements {
			if ifaceName, ok := namedTypeName(impl); ok {
				wp.Implementors[ifaceName] = append(wp.Implementors[ifaceName], node)
			}
		}
		if node.Decl.Extends == nil {
			continue
		}
		superName, ok := namedTypeName(node.Decl.Extends)
		if !ok {
			continue
		}
		if super, ok := wp.Classes[superName]; ok {
			super.Children = append(super.Children, wp.Classes[name])
		}
	}

	// A class with no recorded subclasses and no reachable re-declaration
	// is conservatively treated as final for devirtualization purposes
	// (spec.md §4.5.3's devirtualization pass double-checks RTA before
	// acting on this).
	for _, node := range wp.Classes {
		node.Final = len(node.Children) == 0
	}

	var walkExpr func(lnast.Expression)
	var walkStmts func([]lnast.Statement)
	walkExpr = func(e lnast.Expression) {
		switch n := e.(type) {
		case *lnast.NewExpr:
			if name, ok := namedTypeOrIdentName(n.Callee); ok {
				wp.RTA[name]++
			}
			for _, a := range n.Args {
				walkExpr(a)
			}
		case *lnast.CallExpr:
			walkExpr(n.Callee)
			for _, a := range n.Args {
				walkExpr(a)
			}
		case *lnast.MethodCallExpr:
			walkExpr(n.Object)
			for _, a := range n.Args {
				walkExpr(a)
			}
		case *lnast.BinaryExpr:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *lnast.AssignExpr:
			walkExpr(n.Value)
		case *lnast.ArrayLiteral:
			for _, el := range n.Elements {
				walkExpr(el)
			}
		}
	}
	walkStmts = func(ss []lnast.Statement) {
		for _, s := range ss {
			switch n := s.(type) {
			case *lnast.ExpressionStatement:
				walkExpr(n.Expr)
			case *lnast.VariableDecl:
				if n.Init != nil {
					walkExpr(n.Init)
				}
			case *lnast.ReturnStatement:
				for _, v := range n.Values {
					walkExpr(v)
				}
			case *lnast.FunctionDecl:
				walkStmts(n.Body)
			case *lnast.ClassDecl:
				for _, mbr := range n.Members {
					if mbr.Method != nil {
						walkStmts(mbr.Method.Body)
					}
					if mbr.Init != nil {
						walkExpr(mbr.Init)
					}
				}
			case *lnast.IfStatement:
				walkStmts(n.Then)
				for _, ei := range n.ElseIfs {
					walkStmts(ei.Body)
				}
				walkStmts(n.Else)
			case *lnast.WhileStatement:
				walkStmts(n.Body)
			case *lnast.ForNumericStatement:
				walkStmts(n.Body)
			case *lnast.ForInStatement:
				walkStmts(n.Body)
			case *lnast.RepeatStatement:
				walkStmts(n.Body)
			case *lnast.BlockStatement:
				walkStmts(n.Body)
			case *lnast.DoStatement:
				walkStmts(n.Body)
			case *lnast.TryStatement:
				walkStmts(n.Try)
				walkStmts(n.Catch)
				walkStmts(n.Finally)
			case *lnast.NamespaceDecl:
				walkStmts(n.Body)
			}
		}
	}
	walkStmts(mp.Statements)

	return wp
}

// namedTypeName extracts the class name from a `Type` that refers to
// another class by name (the only shape [lnast.ClassDecl.Extends] takes).
func namedTypeName(t lnast.Type) (Name, bool) {
	if nt, ok := t.(*lnast.NamedType); ok {
		return nt.Name, true
	}
	return 0, false
}

// namedTypeOrIdentName extracts a class name from a `new` expression's
// callee, which the parser restricts to an identifier or dotted member
// path; only the simple-identifier form is resolved here.
func namedTypeOrIdentName(e lnast.Expression) (Name, bool) {
	if id, ok := e.(*lnast.IdentExpr); ok {
		return id.Name, true
	}
	return 0, false
}

// IsDevirtualizable reports whether calls to class cls's methods can be
// devirtualized: the class has no live subclasses and RTA observed at most
// one instantiation site reaching it (spec.md §4.5.3).
func (wp *WholeProgram) IsDevirtualizable(cls Name) bool {
	node, ok := wp.Classes[cls]
	if !ok {
		return false
	}
	return node.Final && wp.RTA[cls] <= 1
}
