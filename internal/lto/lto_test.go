// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lto

import (
	"testing"

	"luanext.dev/compiler/internal/registry"
)

func noResolve(registry.ModuleId, string) (registry.ModuleId, bool) { return "", false }

func TestReachableFollowsValueImportsNotTypeOnly(t *testing.T) {
	g := NewGraph(noResolve)
	g.Entries["main"] = &ModuleGraphEntry{ID: "main", Imports: []ImportInfo{
		{Name: 1, SourceModule: "used", IsTypeOnly: false},
		{Name: 2, SourceModule: "typeonly", IsTypeOnly: true},
	}}
	g.Entries["used"] = &ModuleGraphEntry{ID: "used"}
	g.Entries["typeonly"] = &ModuleGraphEntry{ID: "typeonly"}

	reachable := g.Reachable([]registry.ModuleId{"main"})
	if !reachable.Has("main") || !reachable.Has("used") {
		t.Errorf("Reachable() missing main or used; got %v", reachable)
	}
	if reachable.Has("typeonly") {
		t.Error("Reachable() included a module only reached via a type-only import; want it excluded")
	}
}

func TestReachableFollowsReExports(t *testing.T) {
	g := NewGraph(noResolve)
	g.Entries["barrel"] = &ModuleGraphEntry{ID: "barrel", ReExports: []ReExportInfo{
		{Source: "impl", Kind: ReExportAll},
	}}
	g.Entries["impl"] = &ModuleGraphEntry{ID: "impl"}

	reachable := g.Reachable([]registry.ModuleId{"barrel"})
	if !reachable.Has("impl") {
		t.Error("Reachable() did not follow a blanket re-export to its source module")
	}
}

func TestReachableHandlesCycles(t *testing.T) {
	g := NewGraph(noResolve)
	g.Entries["a"] = &ModuleGraphEntry{ID: "a", Imports: []ImportInfo{{Name: 1, SourceModule: "b"}}}
	g.Entries["b"] = &ModuleGraphEntry{ID: "b", Imports: []ImportInfo{{Name: 1, SourceModule: "a"}}}

	reachable := g.Reachable([]registry.ModuleId{"a"})
	if !reachable.Has("a") || !reachable.Has("b") {
		t.Errorf("Reachable() on a cyclic import pair = %v; want both a and b", reachable)
	}
}

func TestShouldCompileEntryPointAlwaysCompiles(t *testing.T) {
	reachable := NewGraph(noResolve).Reachable(nil)
	if !ShouldCompile("main", reachable, []registry.ModuleId{"main"}) {
		t.Error("ShouldCompile() = false for an entry point; want true regardless of reachability")
	}
}

func TestShouldCompileUnreachableDrops(t *testing.T) {
	g := NewGraph(noResolve)
	g.Entries["main"] = &ModuleGraphEntry{ID: "main"}
	g.Entries["dead"] = &ModuleGraphEntry{ID: "dead"}
	reachable := g.Reachable([]registry.ModuleId{"main"})
	if ShouldCompile("dead", reachable, []registry.ModuleId{"main"}) {
		t.Error("ShouldCompile() = true for an unreachable non-entry module; want false")
	}
}

func TestShouldCompileNilReachableDefaultsToCompile(t *testing.T) {
	if !ShouldCompile("anything", nil, nil) {
		t.Error("ShouldCompile() with nil reachable set = false; want true (fail open, never silently drop)")
	}
}

func TestDeadImportEliminationKeepsOnlyReferenced(t *testing.T) {
	in := []ImportInfo{
		{Name: 1, IsReferenced: true},
		{Name: 2, IsReferenced: false},
	}
	out := DeadImportElimination(in)
	if len(out) != 1 || out[0].Name != 1 {
		t.Errorf("DeadImportElimination() = %v; want only the referenced import", out)
	}
}

func TestDeadExportEliminationKeepsUsedAndDefault(t *testing.T) {
	in := []ExportInfo{
		{Name: 1, IsUsed: true},
		{Name: 2, IsUsed: false},
		{IsDefault: true, IsUsed: false},
	}
	out := DeadExportElimination(in)
	if len(out) != 2 {
		t.Fatalf("DeadExportElimination() = %v; want 2 entries (used + default)", out)
	}
}

func TestResolveReExportChainSingleHop(t *testing.T) {
	g := NewGraph(noResolve)
	g.Entries["barrel"] = &ModuleGraphEntry{ID: "barrel", ReExports: []ReExportInfo{
		{Source: "impl", Kind: ReExportNamed, Named: []NamedReExport{{Local: 5, External: 1}}},
	}}
	mod, name, ok := g.ResolveReExportChain("barrel", 1)
	if !ok || mod != "impl" || name != 5 {
		t.Errorf("ResolveReExportChain() = %v, %v, %v; want impl, 5, true", mod, name, ok)
	}
}

func TestResolveReExportChainMultiHop(t *testing.T) {
	g := NewGraph(noResolve)
	g.Entries["a"] = &ModuleGraphEntry{ID: "a", ReExports: []ReExportInfo{
		{Source: "b", Kind: ReExportNamed, Named: []NamedReExport{{Local: 2, External: 1}}},
	}}
	g.Entries["b"] = &ModuleGraphEntry{ID: "b", ReExports: []ReExportInfo{
		{Source: "c", Kind: ReExportNamed, Named: []NamedReExport{{Local: 3, External: 2}}},
	}}
	mod, name, ok := g.ResolveReExportChain("a", 1)
	if !ok || mod != "c" || name != 3 {
		t.Errorf("ResolveReExportChain() = %v, %v, %v; want c, 3, true", mod, name, ok)
	}
}

func TestResolveReExportChainDetectsCycle(t *testing.T) {
	g := NewGraph(noResolve)
	g.Entries["a"] = &ModuleGraphEntry{ID: "a", ReExports: []ReExportInfo{
		{Source: "b", Kind: ReExportAll},
	}}
	g.Entries["b"] = &ModuleGraphEntry{ID: "b", ReExports: []ReExportInfo{
		{Source: "a", Kind: ReExportAll},
	}}
	_, _, ok := g.ResolveReExportChain("a", 1)
	if ok {
		t.Error("ResolveReExportChain() on a re-export cycle = ok; want false")
	}
}

func TestMarkReferencedFlipsUsedImports(t *testing.T) {
	g := NewGraph(noResolve)
	g.Entries["m"] = &ModuleGraphEntry{ID: "m", Imports: []ImportInfo{
		{Name: 1}, {Name: 2},
	}}
	g.MarkReferenced("m", map[Name]bool{1: true})
	if !g.Entries["m"].Imports[0].IsReferenced {
		t.Error("MarkReferenced() did not flip IsReferenced for a used import")
	}
	if g.Entries["m"].Imports[1].IsReferenced {
		t.Error("MarkReferenced() flipped IsReferenced for an unused import")
	}
}

func TestMarkExportsUsedCrossModule(t *testing.T) {
	g := NewGraph(noResolve)
	g.Entries["lib"] = &ModuleGraphEntry{ID: "lib", Exports: []ExportInfo{{Name: 7}}}
	g.Entries["main"] = &ModuleGraphEntry{ID: "main", Imports: []ImportInfo{
		{Name: 1, SourceModule: "lib", SourceSymbol: 7, IsReferenced: true},
	}}
	g.MarkExportsUsed()
	if !g.Entries["lib"].Exports[0].IsUsed {
		t.Error("MarkExportsUsed() did not mark an export used by another module's referenced import")
	}
}
