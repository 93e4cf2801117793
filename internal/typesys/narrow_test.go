// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package typesys

import (
	"testing"

	"luanext.dev/compiler/internal/intern"
)

func TestNarrowNotNilStripsNil(t *testing.T) {
	g := Guard{Kind: GuardNotNil}
	got := g.Apply(Nullable(String), false)
	if got != String {
		t.Errorf("Apply(string | nil, not-nil) = %v; want string", got)
	}
}

func TestNarrowTruthyStripsNilAndFalse(t *testing.T) {
	falseLit := &Type{Kind: KindLiteral, Base: KindBoolean, Boolean: false}
	subject := Union(String, Nil, falseLit)
	g := Guard{Kind: GuardTruthy}
	got := g.Apply(subject, false)
	if got != String {
		t.Errorf("Apply(string | nil | false, truthy) = %v; want string", got)
	}
}

func TestNarrowTruthyNegatedKeepsFalsy(t *testing.T) {
	subject := Union(String, Nil)
	g := Guard{Kind: GuardTruthy}
	got := g.Apply(subject, true)
	if got != Nil {
		t.Errorf("Apply(string | nil, truthy, negate) = %v; want nil", got)
	}
}

func TestNarrowTypeofEquals(t *testing.T) {
	subject := Union(String, Number)
	g := Guard{Kind: GuardTypeofEquals, Primitive: KindString}
	if got := g.Apply(subject, false); got != String {
		t.Errorf("Apply(string | number, typeof == string) = %v; want string", got)
	}
	if got := g.Apply(subject, true); got != Number {
		t.Errorf("Apply(string | number, typeof ~= string) = %v; want number", got)
	}
}

func TestNarrowInstanceof(t *testing.T) {
	it := intern.New()
	c := it.Intern("Shape")
	g := Guard{Kind: GuardInstanceof, ClassName: c}
	got := g.Apply(Unknown, false)
	if got.Kind != KindNamed || got.Name != c {
		t.Errorf("Apply(unknown, instanceof Shape) = %v; want Shape", got)
	}
}

func TestNarrowUserPredicate(t *testing.T) {
	asserted := Array(Number)
	g := Guard{Kind: GuardUserPredicate, Predicate: asserted}
	if got := g.Apply(Unknown, false); got != asserted {
		t.Errorf("Apply(unknown, x is number[]) = %v; want the predicate's asserted type", got)
	}
	if got := g.Apply(Unknown, true); got != Unknown {
		t.Errorf("Apply(unknown, x is number[], negate) = %v; the failed branch keeps the original", got)
	}
}
