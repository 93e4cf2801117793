// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnast

import (
	"testing"

	"luanext.dev/compiler/internal/intern"
)

func TestCloneStatementsProducesIndependentCopies(t *testing.T) {
	it := intern.New()
	x := it.Intern("x")
	init := &NumberLiteral{Text: "1", Integer: true}
	decl := &VariableDecl{Kind: VarConst, Pattern: &IdentPattern{Name: x}, Init: init}

	fresh := NewArena()
	cloned := CloneStatements(fresh, []Statement{decl})
	if len(cloned) != 1 {
		t.Fatalf("CloneStatements() produced %d statements; want 1", len(cloned))
	}
	clonedDecl, ok := cloned[0].(*VariableDecl)
	if !ok {
		t.Fatalf("clone is %T; want *VariableDecl", cloned[0])
	}
	if clonedDecl == decl {
		t.Fatal("CloneStatements() returned the original pointer; want a deep copy")
	}

	// Mutating the original must not leak into the clone.
	init.Text = "999"
	clonedInit := clonedDecl.Init.(*NumberLiteral)
	if clonedInit.Text != "1" {
		t.Errorf("clone init = %q after mutating the original; want %q", clonedInit.Text, "1")
	}
	if id := clonedDecl.Pattern.(*IdentPattern); id.Name != x {
		t.Errorf("clone pattern name = %v; want %v", id.Name, x)
	}
}

func TestMutableProgramLeavesOriginalUntouched(t *testing.T) {
	it := intern.New()
	decl := &VariableDecl{Kind: VarConst, Pattern: &IdentPattern{Name: it.Intern("x")}}
	prog := &Program{Arena: NewArena(), Statements: []Statement{decl}}
	prog.ReindexSpans()

	mp := NewMutableProgram(prog)
	mp.Statements = append(mp.Statements, &ReturnStatement{})
	if len(prog.Statements) != 1 {
		t.Errorf("original program has %d statements after mutating the MutableProgram; want 1", len(prog.Statements))
	}

	frozen := mp.Freeze()
	if len(frozen.Statements) != 2 {
		t.Errorf("Freeze() has %d statements; want 2", len(frozen.Statements))
	}
	if len(frozen.StatementSpans) != 2 {
		t.Errorf("Freeze() rebuilt %d statement spans; want 2", len(frozen.StatementSpans))
	}
}

func TestComputeFeatures(t *testing.T) {
	it := intern.New()
	stmts := []Statement{
		&WhileStatement{Cond: &BoolLiteral{Value: true}},
		&ClassDecl{Name: it.Intern("C"), Members: []ClassMember{{Name: it.Intern("m"), IsMethod: true}}},
		&ExpressionStatement{Expr: &ArrayLiteral{}},
	}
	f := ComputeFeatures(stmts)
	for _, want := range []AstFeatures{FeatureLoops, FeatureClasses, FeatureMethods, FeatureArrays} {
		if !f.Has(want) {
			t.Errorf("ComputeFeatures() = %b; missing feature %b", f, want)
		}
	}
	for _, absent := range []AstFeatures{FeatureEnums, FeatureInterfaces, FeatureArrows} {
		if f.Has(absent) {
			t.Errorf("ComputeFeatures() = %b; feature %b should be absent", f, absent)
		}
	}
}

func TestWalkVisitsNestedNodes(t *testing.T) {
	it := intern.New()
	a, b := it.Intern("a"), it.Intern("b")
	named := it.Intern("Box")
	stmts := []Statement{
		&VariableDecl{
			Kind:       VarConst,
			Pattern:    &IdentPattern{Name: a},
			Annotation: &NamedType{Name: named},
			Init: &BinaryExpr{
				Op:   BinAdd,
				Left: &IdentExpr{Name: a},
				Right: &CallExpr{
					Callee: &IdentExpr{Name: b},
					Args:   []Expression{&IdentExpr{Name: a}},
				},
			},
		},
		&FunctionDecl{
			Name: it.Intern("f"),
			Body: []Statement{&ReturnStatement{Values: []Expression{&IdentExpr{Name: b}}}},
		},
	}

	idents := 0
	types := 0
	statements := 0
	Walk(stmts, Visitor{
		Stmt: func(Statement) { statements++ },
		Expr: func(e Expression) {
			if _, ok := e.(*IdentExpr); ok {
				idents++
			}
		},
		Type: func(tt Type) {
			if _, ok := tt.(*NamedType); ok {
				types++
			}
		},
	})
	if idents != 4 {
		t.Errorf("Walk() visited %d identifier expressions; want 4 (including nested call args and function body)", idents)
	}
	if types != 1 {
		t.Errorf("Walk() visited %d named types; want 1", types)
	}
	if statements != 3 {
		t.Errorf("Walk() visited %d statements; want 3 (two top-level plus the nested return)", statements)
	}
}

func TestArenaSliceOwnership(t *testing.T) {
	a := NewArena()
	lit := Alloc[NumberLiteral](a)
	lit.Text = "7"
	exprs := a.ExpressionSlice([]Expression{lit})
	if len(exprs) != 1 || exprs[0] != Expression(lit) {
		t.Errorf("ExpressionSlice() = %v; want the single allocated literal", exprs)
	}
}
