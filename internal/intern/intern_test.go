// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package intern

import "testing"

func TestInternReturnsSameIdForSameString(t *testing.T) {
	it := new(Interner)
	a := it.Intern("foo")
	b := it.Intern("foo")
	if a != b {
		t.Errorf("Intern(%q) = %v, then %v; want equal ids", "foo", a, b)
	}
}

func TestInternDistinctStringsGetDistinctIds(t *testing.T) {
	it := new(Interner)
	a := it.Intern("foo")
	b := it.Intern("bar")
	if a == b {
		t.Errorf("Intern(%q) and Intern(%q) both returned %v; want distinct ids", "foo", "bar", a)
	}
}

func TestZeroStringIdNeverResolves(t *testing.T) {
	it := new(Interner)
	it.Intern("foo")
	if _, ok := it.Resolve(0); ok {
		t.Error("Resolve(0) = ok; want zero StringId to never resolve")
	}
}

func TestResolveRoundTrip(t *testing.T) {
	it := new(Interner)
	id := it.Intern("hello")
	got, ok := it.Resolve(id)
	if !ok || got != "hello" {
		t.Errorf("Resolve(%v) = %q, %v; want %q, true", id, got, ok, "hello")
	}
}

func TestResolveUnknownId(t *testing.T) {
	it := new(Interner)
	it.Intern("only")
	if _, ok := it.Resolve(StringId(99)); ok {
		t.Error("Resolve(99) = ok; want false for an id never issued")
	}
}

func TestMustResolvePanicsOnInvalidId(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustResolve did not panic on invalid StringId")
		}
	}()
	it := new(Interner)
	it.MustResolve(StringId(1))
}

func TestNewPrePopulatesCommonIdentifiers(t *testing.T) {
	it := New()
	if it.Len() != len(CommonIdentifiers) {
		t.Fatalf("New().Len() = %d; want %d", it.Len(), len(CommonIdentifiers))
	}
	for _, s := range CommonIdentifiers {
		if _, ok := it.Resolve(it.Intern(s)); !ok {
			t.Errorf("CommonIdentifiers entry %q did not resolve after New()", s)
		}
	}
	if it.Len() != len(CommonIdentifiers) {
		t.Errorf("Len() grew from re-interning known identifiers; got %d, want %d", it.Len(), len(CommonIdentifiers))
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := new(Interner)
	ids := make([]StringId, 3)
	ids[0] = src.Intern("a")
	ids[1] = src.Intern("b")
	ids[2] = src.Intern("c")

	snapshot := src.Export()

	dst := new(Interner)
	dst.Import(snapshot)

	for i, id := range ids {
		want := []string{"a", "b", "c"}[i]
		got, ok := dst.Resolve(id)
		if !ok || got != want {
			t.Errorf("after Import, Resolve(%v) = %q, %v; want %q, true", id, got, ok, want)
		}
	}
}

func TestImportReplacesContents(t *testing.T) {
	it := new(Interner)
	old := it.Intern("stale")
	it.Import([]string{"fresh"})
	if s, ok := it.Resolve(old); ok && s == "stale" {
		t.Error("Resolve() found a string from before Import; want Import to replace contents")
	}
	fresh := it.Intern("fresh")
	if fresh != StringId(1) {
		t.Errorf("Intern(%q) after Import = %v; want StringId(1)", "fresh", fresh)
	}
}

func TestStringIdStringDoesNotPanicOnZero(t *testing.T) {
	if got := StringId(0).String(); got != "#0" {
		t.Errorf("StringId(0).String() = %q; want %q", got, "#0")
	}
}
