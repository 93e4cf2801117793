// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package typesys

import (
	"testing"

	"luanext.dev/compiler/internal/intern"
)

func objectOf(props ...Property) *Type {
	return &Type{Kind: KindObject, Props: props}
}

func TestEvaluateKeyof(t *testing.T) {
	it := intern.New()
	obj := objectOf(
		Property{Name: it.Intern("a"), Type: String},
		Property{Name: it.Intern("b"), Type: Number},
	)
	keys := Evaluate(&Type{Kind: KindKeyof, Object: obj}, &Env{})
	if keys.Kind != KindUnion || len(keys.Members) != 2 {
		t.Fatalf("Evaluate(keyof T) = %v; want a two-member string-literal union", keys)
	}
	for _, k := range keys.Members {
		if k.Kind != KindLiteral || k.Base != KindString {
			t.Errorf("keyof member = %v; want string literal", k)
		}
	}
}

func TestEvaluateKeyofNonObjectIsNever(t *testing.T) {
	keys := Evaluate(&Type{Kind: KindKeyof, Object: Number}, &Env{})
	if keys != Never {
		t.Errorf("Evaluate(keyof number) = %v; want never", keys)
	}
}

func TestEvaluateIndexedAccess(t *testing.T) {
	it := intern.New()
	a := it.Intern("a")
	obj := objectOf(Property{Name: a, Type: Integer})
	idx := &Type{Kind: KindLiteral, Base: KindString, Str: a.String()}
	got := Evaluate(&Type{Kind: KindIndexedAccess, Object: obj, Index: idx}, &Env{})
	if got != Integer {
		t.Errorf("Evaluate(T[%q]) = %v; want integer", "a", got)
	}
}

func TestEvaluateIndexedAccessThroughKeyof(t *testing.T) {
	it := intern.New()
	obj := objectOf(
		Property{Name: it.Intern("a"), Type: String},
		Property{Name: it.Intern("b"), Type: Integer},
	)
	keyof := &Type{Kind: KindKeyof, Object: obj}
	got := Evaluate(&Type{Kind: KindIndexedAccess, Object: obj, Index: keyof}, &Env{})
	if got.Kind != KindUnion || len(got.Members) != 2 {
		t.Errorf("Evaluate(T[keyof T]) = %v; want string | integer", got)
	}
}

func TestEvaluateConditional(t *testing.T) {
	cond := &Type{Kind: KindConditional, Check: Integer, Extends: Number, True: String, False: Never}
	if got := Evaluate(cond, &Env{}); got != String {
		t.Errorf("Evaluate(integer extends number ? string : never) = %v; want string", got)
	}
	cond = &Type{Kind: KindConditional, Check: String, Extends: Number, True: String, False: Never}
	if got := Evaluate(cond, &Env{}); got != Never {
		t.Errorf("Evaluate(string extends number ? string : never) = %v; want never", got)
	}
}

func TestConditionalDistributesOverUnion(t *testing.T) {
	it := intern.New()
	tp := it.Intern("T")
	env := &Env{Subst: map[intern.StringId]*Type{tp: Union(String, Integer)}}
	// T extends string ? T : never — filters the union down to string.
	cond := &Type{
		Kind:    KindConditional,
		Check:   Named(tp),
		Extends: String,
		True:    Named(tp),
		False:   Never,
	}
	got := Evaluate(cond, env)
	if got != String {
		t.Errorf("Evaluate(distributive conditional) = %v; want string", got)
	}
}

func TestConditionalInferBinding(t *testing.T) {
	it := intern.New()
	e := it.Intern("E")
	// number[] extends (infer E)[] ? E : never — binds E to number.
	cond := &Type{
		Kind:    KindConditional,
		Check:   Array(Number),
		Extends: Array(&Type{Kind: KindInferVar, InferName: e}),
		True:    Named(e),
		False:   Never,
	}
	got := Evaluate(cond, &Env{})
	if got != Number {
		t.Errorf("Evaluate(infer conditional) = %v; want number bound through infer", got)
	}
}

func TestEvaluateMappedOptionalModifier(t *testing.T) {
	it := intern.New()
	k := it.Intern("K")
	obj := objectOf(
		Property{Name: it.Intern("a"), Type: String},
		Property{Name: it.Intern("b"), Type: Integer},
	)
	mapped := &Type{
		Kind:             KindMapped,
		KeyName:          k,
		Constraint:       obj,
		Value:            Boolean,
		OptionalModifier: 1,
	}
	got := Evaluate(mapped, &Env{})
	if got.Kind != KindObject || len(got.Props) != 2 {
		t.Fatalf("Evaluate(mapped) = %v; want a two-property object", got)
	}
	for _, p := range got.Props {
		if !p.Optional {
			t.Errorf("property %v not optional; +? must add the modifier", p.Name)
		}
		if p.Type != Boolean {
			t.Errorf("property type = %v; want the mapped value type", p.Type)
		}
	}
}

func TestEvaluateTemplateLiteralFoldsLiterals(t *testing.T) {
	tmpl := &Type{
		Kind:   KindTemplateLiteral,
		Quasis: []string{"on", ""},
		Types:  []*Type{{Kind: KindLiteral, Base: KindString, Str: "Click"}},
	}
	got := Evaluate(tmpl, &Env{})
	if got.Kind != KindLiteral || got.Str != "onClick" {
		t.Errorf("Evaluate(`on${...}`) = %v; want the folded literal onClick", got)
	}
}

func TestEvaluateSubstitution(t *testing.T) {
	it := intern.New()
	tp := it.Intern("T")
	env := &Env{Subst: map[intern.StringId]*Type{tp: Integer}}
	if got := Evaluate(Named(tp), env); got != Integer {
		t.Errorf("Evaluate(T) = %v; want the substituted integer", got)
	}
	if got := Evaluate(Array(Named(tp)), env); got.Kind != KindArray || got.Elem != Integer {
		t.Errorf("Evaluate(T[]) = %v; want integer[]", got)
	}
}
