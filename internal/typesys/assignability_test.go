// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package typesys

import (
	"testing"
	"time"

	"luanext.dev/compiler/internal/intern"
)

func TestAssignablePrimitives(t *testing.T) {
	tests := []struct {
		name     string
		src, dst *Type
		want     bool
	}{
		{"same kind", String, String, true},
		{"integer to number widens", Integer, Number, true},
		{"number to integer does not narrow", Number, Integer, false},
		{"string to number", String, Number, false},
		{"void to nil", Void, Nil, true},
		{"anything to unknown", String, Unknown, true},
		{"never to anything", Never, String, true},
		{"anything to never", String, Never, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Assignable(test.src, test.dst, nil); got != test.want {
				t.Errorf("Assignable(%v, %v) = %v; want %v", test.src, test.dst, got, test.want)
			}
		})
	}
}

func TestAssignableUnion(t *testing.T) {
	su := Union(String, Number)
	if !Assignable(String, su, nil) {
		t.Error("Assignable(String, String|Number) = false; want true")
	}
	if Assignable(Boolean, su, nil) {
		t.Error("Assignable(Boolean, String|Number) = true; want false")
	}
	if !Assignable(su, Union(String, Number, Boolean), nil) {
		t.Error("Assignable(String|Number, String|Number|Boolean) = false; want true")
	}
}

func TestAssignableIntersection(t *testing.T) {
	objA := &Type{Kind: KindObject, Props: []Property{{Name: 1, Type: String}}}
	objB := &Type{Kind: KindObject, Props: []Property{{Name: 2, Type: Number}}}
	inter := Intersection(objA, objB)
	combined := &Type{Kind: KindObject, Props: []Property{
		{Name: 1, Type: String}, {Name: 2, Type: Number},
	}}
	if !Assignable(combined, inter, nil) {
		t.Error("Assignable(combined-object, A&B) = false; want true when combined has all required props")
	}
}

func TestAssignableArrayCovariance(t *testing.T) {
	numbers := Array(Integer)
	nums := Array(Number)
	if !Assignable(numbers, nums, nil) {
		t.Error("Assignable(Integer[], Number[]) = false; want true (element-wise covariance)")
	}
	strs := Array(String)
	if Assignable(numbers, strs, nil) {
		t.Error("Assignable(Integer[], String[]) = true; want false")
	}
}

func TestAssignableTupleToArray(t *testing.T) {
	tuple := &Type{Kind: KindTuple, Elements: []*Type{Integer, Integer}}
	if !Assignable(tuple, Array(Number), nil) {
		t.Error("Assignable([Integer, Integer], Number[]) = false; want true")
	}
}

func TestAssignableTupleArity(t *testing.T) {
	a := &Type{Kind: KindTuple, Elements: []*Type{String, Number}}
	b := &Type{Kind: KindTuple, Elements: []*Type{String}}
	if Assignable(a, b, nil) {
		t.Error("Assignable(tuple of 2, tuple of 1) = true; want false (arity mismatch)")
	}
}

func TestAssignableObjectStructural(t *testing.T) {
	wide := &Type{Kind: KindObject, Props: []Property{
		{Name: 1, Type: String},
		{Name: 2, Type: Number},
	}}
	narrow := &Type{Kind: KindObject, Props: []Property{
		{Name: 1, Type: String},
	}}
	if !Assignable(wide, narrow, nil) {
		t.Error("Assignable(wide-object, narrow-object) = false; want true (structural subtyping drops extra props)")
	}
	if Assignable(narrow, wide, nil) {
		t.Error("Assignable(narrow-object, wide-object) = true; want false (missing required prop)")
	}
}

func TestAssignableObjectOptionalProp(t *testing.T) {
	withOpt := &Type{Kind: KindObject, Props: []Property{
		{Name: 1, Type: String, Optional: true},
	}}
	empty := &Type{Kind: KindObject}
	if !Assignable(empty, withOpt, nil) {
		t.Error("Assignable(empty-object, object-with-optional-prop) = false; want true")
	}
}

func TestAssignableFunctionParamContravariance(t *testing.T) {
	wideParam := &Type{Kind: KindFunction, Params: []Param{{Type: Union(String, Number)}}, Return: Void}
	narrowParam := &Type{Kind: KindFunction, Params: []Param{{Type: String}}, Return: Void}
	if !Assignable(wideParam, narrowParam, nil) {
		t.Error("Assignable(fn(string|number), fn(string)) = false; want true (wider param accepts narrower call sites)")
	}
	if Assignable(narrowParam, wideParam, nil) {
		t.Error("Assignable(fn(string), fn(string|number)) = true; want false")
	}
}

func TestAssignableFunctionReturnCovariance(t *testing.T) {
	narrowReturn := &Type{Kind: KindFunction, Return: Integer}
	wideReturn := &Type{Kind: KindFunction, Return: Number}
	if !Assignable(narrowReturn, wideReturn, nil) {
		t.Error("Assignable(fn()->Integer, fn()->Number) = false; want true (covariant return)")
	}
}

type fakeResolver struct {
	types map[intern.StringId]*Type
}

func (r fakeResolver) Lookup(name intern.StringId) *Type     { return r.types[name] }
func (r fakeResolver) ResolveName(id intern.StringId) string { return "" }

func TestAssignableNamedViaResolver(t *testing.T) {
	it := intern.New()
	name := it.Intern("Widget")
	widgetShape := &Type{Kind: KindObject, Props: []Property{{Name: 1, Type: String}}}
	res := fakeResolver{types: map[intern.StringId]*Type{name: widgetShape}}
	namedRef := &Type{Kind: KindNamed, Name: name}
	concrete := &Type{Kind: KindObject, Props: []Property{{Name: 1, Type: String}}}
	if !Assignable(concrete, namedRef, res) {
		t.Error("Assignable(concrete, named-ref) via resolver = false; want true once resolved")
	}
}

func TestAssignableRecursiveTypeDoesNotInfiniteLoop(t *testing.T) {
	node := &Type{Kind: KindObject}
	node.Props = []Property{{Name: 1, Type: node}}
	done := make(chan bool, 1)
	go func() {
		done <- Assignable(node, node, nil)
	}()
	select {
	case ok := <-done:
		if !ok {
			t.Error("Assignable(recursive, recursive) = false; want true (cycle guard returns true on revisit)")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Assignable() did not return; want cycle guard to prevent infinite recursion")
	}
}
