// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package checker

import (
	"testing"

	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lnparser"
	"luanext.dev/compiler/internal/registry"
	"luanext.dev/compiler/internal/resolver"
)

// checkSource parses src and runs all five phases over it against an empty
// registry (no other modules on disk).
func checkSource(t *testing.T, src string) (*Module, *intern.Interner) {
	t.Helper()
	it := intern.New()
	reg := registry.New()
	chk := New(reg, &resolver.Config{}, func(string) bool { return false }, it)
	parseSink := new(diag.Sink)
	prog := lnparser.Parse(src, it, parseSink)
	if parseSink.HasErrors() {
		t.Fatalf("parse diagnostics for %q: %v", src, parseSink.All())
	}
	m, err := chk.Check(prog, "test.luax")
	if err != nil {
		t.Fatalf("Check() error: %v", err)
	}
	return m, it
}

func sinkHasCode(m *Module, code diag.Code) bool {
	for _, d := range m.Sink.All() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestUnusedLocalWarning(t *testing.T) {
	m, _ := checkSource(t, "function f() { const unused = 1 return 0 }")
	if !sinkHasCode(m, diag.E1003) {
		t.Errorf("Check() diagnostics = %v; want E1003 unused-local warning", m.Sink.All())
	}
	for _, d := range m.Sink.All() {
		if d.Code == diag.E1003 && d.Severity != diag.Warning {
			t.Errorf("E1003 severity = %v; unused locals are non-fatal warnings", d.Severity)
		}
	}
}

func TestUsedLocalNotWarned(t *testing.T) {
	m, _ := checkSource(t, "function f() { const v = 1 return v }")
	if sinkHasCode(m, diag.E1003) {
		t.Errorf("Check() diagnostics = %v; v is used, no warning expected", m.Sink.All())
	}
}

func TestAbstractClassInstantiation(t *testing.T) {
	m, _ := checkSource(t, "abstract class Shape { }\nconst s = new Shape()")
	if !sinkHasCode(m, diag.E0004) {
		t.Errorf("Check() diagnostics = %v; want E0004 for abstract instantiation", m.Sink.All())
	}
}

func TestConcreteClassInstantiationAllowed(t *testing.T) {
	m, _ := checkSource(t, "class Shape { }\nconst s = new Shape()")
	if sinkHasCode(m, diag.E0004) {
		t.Errorf("Check() diagnostics = %v; concrete class instantiation must pass", m.Sink.All())
	}
}

func TestAnnotationMismatch(t *testing.T) {
	m, _ := checkSource(t, `const x: number = "nope"`)
	if !sinkHasCode(m, diag.E0001) {
		t.Errorf("Check() diagnostics = %v; want E0001 type mismatch", m.Sink.All())
	}
}

func TestAnnotationMatchPasses(t *testing.T) {
	m, _ := checkSource(t, "const x: number = 5")
	if sinkHasCode(m, diag.E0001) {
		t.Errorf("Check() diagnostics = %v; integer literal widens to number", m.Sink.All())
	}
}

func TestCircularTypeAlias(t *testing.T) {
	m, _ := checkSource(t, "type A = B\ntype B = A")
	if !sinkHasCode(m, diag.E0002) {
		t.Errorf("Check() diagnostics = %v; want E0002 circular alias", m.Sink.All())
	}
}

func TestMissingImportModule(t *testing.T) {
	m, _ := checkSource(t, `import { a } from "./missing"`)
	if !sinkHasCode(m, diag.E3001) {
		t.Errorf("Check() diagnostics = %v; want E3001 module not found", m.Sink.All())
	}
}

func TestExportRegistersSymbol(t *testing.T) {
	m, it := checkSource(t, "export function handler() { return 1 }")
	if _, ok := m.Exports[it.Intern("handler")]; !ok {
		t.Errorf("m.Exports = %v; want handler registered", m.Exports)
	}
}

func TestCrossModuleExportVisibility(t *testing.T) {
	it := intern.New()
	reg := registry.New()
	chk := New(reg, &resolver.Config{}, func(string) bool { return false }, it)

	sink := new(diag.Sink)
	libProg := lnparser.Parse("export const answer = 42", it, sink)
	if _, err := chk.Check(libProg, "lib.luax"); err != nil {
		t.Fatalf("Check(lib) error: %v", err)
	}
	if sink.HasErrors() {
		t.Fatalf("lib parse diagnostics: %v", sink.All())
	}
	tt, err := reg.ExportType("lib.luax", it.Intern("answer"))
	if err != nil {
		t.Fatalf("ExportType() error: %v", err)
	}
	if tt == nil {
		t.Error("ExportType() = nil type; want the checked export visible in the registry")
	}
}
