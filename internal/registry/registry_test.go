// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package registry

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/resolver"
	"luanext.dev/compiler/internal/typesys"
)

func TestPutStartsInParsedStatus(t *testing.T) {
	r := New()
	e := r.Put("a.luax", nil)
	if e.Status != Parsed {
		t.Errorf("Put() entry status = %v; want %v", e.Status, Parsed)
	}
	got, ok := r.Get("a.luax")
	if !ok || got != e {
		t.Errorf("Get() = %v, %v; want the entry just Put", got, ok)
	}
}

func TestMarkCheckedUpdatesStatusAndExports(t *testing.T) {
	r := New()
	r.Put("a.luax", nil)
	it := intern.New()
	name := it.Intern("widget")
	exports := map[intern.StringId]*typesys.Type{name: typesys.Number}
	r.MarkChecked("a.luax", exports)

	e, _ := r.Get("a.luax")
	if e.Status != Checked {
		t.Errorf("Status after MarkChecked = %v; want %v", e.Status, Checked)
	}
	if e.Exports[name] != typesys.Number {
		t.Errorf("Exports[widget] = %v; want %v", e.Exports[name], typesys.Number)
	}
}

func TestMarkInvalidOnUnknownIdIsNoop(t *testing.T) {
	r := New()
	r.MarkInvalid("missing.luax")
	if _, ok := r.Get("missing.luax"); ok {
		t.Error("MarkInvalid() created an entry for an unknown id; want no-op")
	}
}

func TestEnsureCheckedCallsHookOnlyOnce(t *testing.T) {
	r := New()
	r.Put("a.luax", nil)
	calls := 0
	r.SetCheckHook(func(id ModuleId) error {
		calls++
		r.MarkChecked(id, nil)
		return nil
	})
	if err := r.EnsureChecked("a.luax"); err != nil {
		t.Fatalf("EnsureChecked() error: %v", err)
	}
	if err := r.EnsureChecked("a.luax"); err != nil {
		t.Fatalf("EnsureChecked() (second call) error: %v", err)
	}
	if calls != 1 {
		t.Errorf("check hook called %d times; want exactly 1", calls)
	}
}

func TestEnsureCheckedUnknownModule(t *testing.T) {
	r := New()
	if err := r.EnsureChecked("nope.luax"); err == nil {
		t.Error("EnsureChecked() on an unregistered module = nil error; want error")
	}
}

func TestEnsureCheckedDetectsReentrantCycle(t *testing.T) {
	r := New()
	r.Put("a.luax", nil)
	r.SetCheckHook(func(id ModuleId) error {
		// Re-entering EnsureChecked for the same module while it is still
		// on the call stack must fail instead of deadlocking or recursing.
		return r.EnsureChecked(id)
	})
	err := r.EnsureChecked("a.luax")
	if !errors.Is(err, ErrTypeCheckInProgress) {
		t.Errorf("EnsureChecked() on self-recursive hook = %v; want %v", err, ErrTypeCheckInProgress)
	}
}

func TestEnsureCheckedRestoresDepthAfterFailure(t *testing.T) {
	r := New()
	r.Put("a.luax", nil)
	attempt := 0
	r.SetCheckHook(func(id ModuleId) error {
		attempt++
		if attempt == 1 {
			return errors.New("boom")
		}
		r.MarkChecked(id, nil)
		return nil
	})
	if err := r.EnsureChecked("a.luax"); err == nil {
		t.Fatal("EnsureChecked() first call = nil error; want the hook's error")
	}
	// A failed check must not leave checkDepth stuck, or a later retry
	// would be misreported as a circular reference.
	if err := r.EnsureChecked("a.luax"); err != nil {
		t.Errorf("EnsureChecked() retry after failure = %v; want nil (hook succeeds on retry)", err)
	}
}

func TestExportTypeResolvesViaEnsureChecked(t *testing.T) {
	r := New()
	r.Put("a.luax", nil)
	it := intern.New()
	name := it.Intern("widget")
	r.SetCheckHook(func(id ModuleId) error {
		r.MarkChecked(id, map[intern.StringId]*typesys.Type{name: typesys.String})
		return nil
	})
	got, err := r.ExportType("a.luax", name)
	if err != nil {
		t.Fatalf("ExportType() error: %v", err)
	}
	if got != typesys.String {
		t.Errorf("ExportType() = %v; want %v", got, typesys.String)
	}
}

func TestExportTypeUnknownExport(t *testing.T) {
	r := New()
	r.Put("a.luax", nil)
	r.SetCheckHook(func(id ModuleId) error {
		r.MarkChecked(id, map[intern.StringId]*typesys.Type{})
		return nil
	})
	it := intern.New()
	if _, err := r.ExportType("a.luax", it.Intern("missing")); err == nil {
		t.Error("ExportType() for an unexported name = nil error; want error")
	}
}

func TestTopoOrderLinearChain(t *testing.T) {
	a, b, c := ModuleId("a"), ModuleId("b"), ModuleId("c")
	edges := []Edge{
		{From: b, To: a, Kind: EdgeValue},
		{From: c, To: b, Kind: EdgeValue},
	}
	order, cycle := TopoOrder([]ModuleId{c, b, a}, edges)
	if cycle {
		t.Fatal("TopoOrder() reported a cycle for an acyclic chain")
	}
	want := []ModuleId{a, b, c}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("TopoOrder() mismatch (-want +got):\n%s", diff)
	}
}

func TestTopoOrderDetectsValueCycle(t *testing.T) {
	a, b := ModuleId("a"), ModuleId("b")
	edges := []Edge{
		{From: a, To: b, Kind: EdgeValue},
		{From: b, To: a, Kind: EdgeValue},
	}
	_, cycle := TopoOrder([]ModuleId{a, b}, edges)
	if !cycle {
		t.Error("TopoOrder() did not report a cycle for a mutual Value-edge import")
	}
}

func TestTopoOrderTypeOnlyCycleDoesNotFail(t *testing.T) {
	a, b := ModuleId("a"), ModuleId("b")
	edges := []Edge{
		{From: a, To: b, Kind: EdgeTypeOnly},
		{From: b, To: a, Kind: EdgeTypeOnly},
	}
	order, cycle := TopoOrder([]ModuleId{a, b}, edges)
	if cycle {
		t.Error("TopoOrder() reported a fatal cycle for a TypeOnly-only cycle; want it to degrade instead")
	}
	if len(order) != 2 {
		t.Errorf("TopoOrder() with a TypeOnly cycle returned %d ids; want both modules present", len(order))
	}
}

func TestParseOverridePragmaNoPragmaIsNil(t *testing.T) {
	pragma, err := ParseOverridePragma("declare const widget: number")
	if err != nil {
		t.Fatalf("ParseOverridePragma() error = %v", err)
	}
	if pragma != nil {
		t.Errorf("ParseOverridePragma() = %v; want nil for source with no pragma", pragma)
	}
}

func TestParseOverridePragmaDecodesAliases(t *testing.T) {
	src := `/*@luanext-override
	{
		// path aliases this declaration file wants in effect
		"aliases": [
			{ "pattern": "@app/*", "replacements": ["./src/*"] },
		],
	}
	*/
	declare const widget: number`

	pragma, err := ParseOverridePragma(src)
	if err != nil {
		t.Fatalf("ParseOverridePragma() error = %v", err)
	}
	want := &OverridePragma{
		Aliases: []resolver.Alias{
			{Pattern: "@app/*", Replacements: []string{"./src/*"}},
		},
	}
	if diff := cmp.Diff(want, pragma); diff != "" {
		t.Errorf("ParseOverridePragma() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOverridePragmaInvalidJSONErrors(t *testing.T) {
	src := "/*@luanext-override {not json} */"
	if _, err := ParseOverridePragma(src); err == nil {
		t.Error("ParseOverridePragma() error = nil; want an error for malformed pragma body")
	}
}
