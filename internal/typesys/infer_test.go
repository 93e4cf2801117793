// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package typesys

import (
	"testing"

	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lnast"
)

func TestInferLiterals(t *testing.T) {
	ctx := new(InferCtx)
	tests := []struct {
		name     string
		expr     lnast.Expression
		wantKind Kind
		wantBase Kind
	}{
		{"nil", &lnast.NilLiteral{}, KindNil, 0},
		{"true", &lnast.BoolLiteral{Value: true}, KindLiteral, KindBoolean},
		{"integer", &lnast.NumberLiteral{Text: "5", Integer: true}, KindLiteral, KindInteger},
		{"float", &lnast.NumberLiteral{Text: "5.5"}, KindLiteral, KindNumber},
		{"string", &lnast.StringLiteral{Value: "s"}, KindLiteral, KindString},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Infer(test.expr, ctx)
			if got.Kind != test.wantKind {
				t.Fatalf("Infer() kind = %v; want %v", got.Kind, test.wantKind)
			}
			if test.wantKind == KindLiteral && got.Base != test.wantBase {
				t.Errorf("Infer() base = %v; want %v", got.Base, test.wantBase)
			}
		})
	}
}

func TestInferBinaryOperators(t *testing.T) {
	ctx := new(InferCtx)
	one := &lnast.NumberLiteral{Text: "1", Integer: true}
	half := &lnast.NumberLiteral{Text: "0.5"}

	concat := Infer(&lnast.BinaryExpr{Op: lnast.BinConcat, Left: one, Right: one}, ctx)
	if concat.Kind != KindString {
		t.Errorf("Infer(a .. b) = %v; want string", concat)
	}
	cmp := Infer(&lnast.BinaryExpr{Op: lnast.BinLess, Left: one, Right: one}, ctx)
	if cmp.Kind != KindBoolean {
		t.Errorf("Infer(a < b) = %v; want boolean", cmp)
	}
	intDiv := Infer(&lnast.BinaryExpr{Op: lnast.BinIntDiv, Left: one, Right: one}, ctx)
	if intDiv.Kind != KindInteger {
		t.Errorf("Infer(a // b) = %v; want integer", intDiv)
	}
	mixed := Infer(&lnast.BinaryExpr{Op: lnast.BinAdd, Left: one, Right: half}, ctx)
	if mixed.Kind != KindNumber {
		t.Errorf("Infer(int + float) = %v; want number", mixed)
	}
}

func TestInferUnaryOperators(t *testing.T) {
	ctx := new(InferCtx)
	one := &lnast.NumberLiteral{Text: "1", Integer: true}
	if got := Infer(&lnast.UnaryExpr{Op: lnast.UnNot, Operand: one}, ctx); got.Kind != KindBoolean {
		t.Errorf("Infer(not x) = %v; want boolean", got)
	}
	if got := Infer(&lnast.UnaryExpr{Op: lnast.UnLen, Operand: one}, ctx); got.Kind != KindInteger {
		t.Errorf("Infer(#x) = %v; want integer", got)
	}
	neg := Infer(&lnast.UnaryExpr{Op: lnast.UnNeg, Operand: one}, ctx)
	if neg.Kind != KindLiteral || neg.Base != KindInteger {
		t.Errorf("Infer(-x) = %v; unary minus must preserve the operand's type", neg)
	}
}

func TestInferLookupVar(t *testing.T) {
	it := intern.New()
	x := it.Intern("x")
	ctx := &InferCtx{LookupVar: func(name intern.StringId) (*Type, bool) {
		if name == x {
			return String, true
		}
		return nil, false
	}}
	if got := Infer(&lnast.IdentExpr{Name: x}, ctx); got != String {
		t.Errorf("Infer(x) = %v; want the declared string type", got)
	}
	if got := Infer(&lnast.IdentExpr{Name: it.Intern("y")}, ctx); got != Unknown {
		t.Errorf("Infer(y) = %v; unresolvable identifiers infer as unknown", got)
	}
}

func TestInferCallReturnsCalleeReturn(t *testing.T) {
	it := intern.New()
	f := it.Intern("f")
	fnType := &Type{Kind: KindFunction, Return: Integer}
	ctx := &InferCtx{LookupVar: func(name intern.StringId) (*Type, bool) {
		return fnType, name == f
	}}
	call := &lnast.CallExpr{Callee: &lnast.IdentExpr{Name: f}}
	if got := Infer(call, ctx); got != Integer {
		t.Errorf("Infer(f()) = %v; want the callee's return type", got)
	}
}

func TestInferArrayLiteral(t *testing.T) {
	ctx := new(InferCtx)
	arr := &lnast.ArrayLiteral{Elements: []lnast.Expression{
		&lnast.NumberLiteral{Text: "1", Integer: true},
		&lnast.StringLiteral{Value: "s"},
	}}
	got := Infer(arr, ctx)
	if got.Kind != KindArray {
		t.Fatalf("Infer([1, \"s\"]) = %v; want array", got)
	}
	if got.Elem.Kind != KindUnion || len(got.Elem.Members) != 2 {
		t.Errorf("array element type = %v; want the union of element types", got.Elem)
	}
}

func TestInferTernaryIsBranchUnion(t *testing.T) {
	it := intern.New()
	a, b := it.Intern("a"), it.Intern("b")
	ctx := &InferCtx{LookupVar: func(name intern.StringId) (*Type, bool) {
		switch name {
		case a:
			return String, true
		case b:
			return Integer, true
		}
		return nil, false
	}}
	tern := &lnast.TernaryExpr{
		Cond: &lnast.BoolLiteral{Value: true},
		Then: &lnast.IdentExpr{Name: a},
		Else: &lnast.IdentExpr{Name: b},
	}
	got := Infer(tern, ctx)
	if got.Kind != KindUnion || len(got.Members) != 2 {
		t.Errorf("Infer(cond ? a : b) = %v; want string | integer", got)
	}
}

func TestInferMethodWithGetterFallback(t *testing.T) {
	it := intern.New()
	recv := it.Intern("Point")
	p := it.Intern("p")
	x := it.Intern("x")
	ci := &ClassInfo{
		Name:    recv,
		Members: map[intern.StringId]Property{},
		Methods: map[intern.StringId]*Type{},
		Getters: map[intern.StringId]*Type{x: Number},
	}
	ctx := &InferCtx{
		LookupVar: func(name intern.StringId) (*Type, bool) {
			return Named(recv), name == p
		},
		LookupClass: func(name intern.StringId) (*ClassInfo, bool) {
			return ci, name == recv
		},
	}
	got := Infer(&lnast.MemberExpr{Object: &lnast.IdentExpr{Name: p}, Property: x}, ctx)
	if got != Number {
		t.Errorf("Infer(p.x) = %v; want get_x fallback to number", got)
	}
}

func TestInferTemplateLiteralIsString(t *testing.T) {
	ctx := new(InferCtx)
	tmpl := &lnast.TemplateLiteralExpr{Quasis: []string{"a", ""}, Exprs: []lnast.Expression{&lnast.NumberLiteral{Text: "1", Integer: true}}}
	if got := Infer(tmpl, ctx); got.Kind != KindString {
		t.Errorf("Infer(template) = %v; want string", got)
	}
}
