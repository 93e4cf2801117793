// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

// Package lto builds the cross-module graph used for link-time
// optimization, per spec.md §4.6: import/export/re-export scanning,
// reachability from entry points, re-export chain resolution, and the
// per-module LTO passes applied during codegen (outside the optimizer's
// fixed-point loop).
package lto

import (
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/registry"
	"luanext.dev/compiler/internal/sets"
	"luanext.dev/compiler/internal/xslices"
)

// ReExportKind distinguishes a blanket `export * from "m"` re-export from a
// named one.
type ReExportKind int

const (
	ReExportAll ReExportKind = iota
	ReExportNamed
)

// ExportInfo describes one export surfaced by a module.
type ExportInfo struct {
	Name       Name
	IsTypeOnly bool
	IsDefault  bool
	IsUsed     bool
}

// ImportInfo describes one import clause entry.
type ImportInfo struct {
	Name         Name
	SourceModule registry.ModuleId
	SourceSymbol Name
	IsTypeOnly   bool
	IsReferenced bool
}

// ReExportInfo describes one re-export clause.
type ReExportInfo struct {
	Source registry.ModuleId
	Kind   ReExportKind
	// Named holds (local, external) pairs; empty for ReExportAll.
	Named []NamedReExport
}

// NamedReExport is one (local, external) pair of a named re-export clause.
type NamedReExport struct {
	Local, External Name
}

// Name is a local alias so lto.go need not import intern directly.
type Name = lnast.Name

// ModuleGraphEntry is one module's scan result.
type ModuleGraphEntry struct {
	ID        registry.ModuleId
	Exports   []ExportInfo
	Imports   []ImportInfo
	ReExports []ReExportInfo
}

// Graph is the whole-program module graph used by reachability and the LTO
// passes.
type Graph struct {
	Entries map[registry.ModuleId]*ModuleGraphEntry
	resolve func(fromModule registry.ModuleId, path string) (registry.ModuleId, bool)
}

// NewGraph returns an empty Graph. resolve maps an import/re-export's
// module-path string to a canonical [registry.ModuleId], as produced by
// [luanext.dev/compiler/internal/resolver].
func NewGraph(resolve func(fromModule registry.ModuleId, path string) (registry.ModuleId, bool)) *Graph {
	return &Graph{Entries: make(map[registry.ModuleId]*ModuleGraphEntry), resolve: resolve}
}

// Scan walks prog's top-level statements and records id's exports, imports,
// and re-exports into the graph (spec.md §4.6 step 1).
func (g *Graph) Scan(id registry.ModuleId, prog *lnast.Program) {
	entry := &ModuleGraphEntry{ID: id}
	for _, s := range prog.Statements {
		switch n := s.(type) {
		case *lnast.ImportStatement:
			entry.Imports = append(entry.Imports, g.scanImport(id, n)...)
		case *lnast.ExportStatement:
			if re, ok := g.scanReExport(id, n); ok {
				entry.ReExports = append(entry.ReExports, re)
				continue
			}
			entry.Exports = append(entry.Exports, scanExport(n)...)
		}
	}
	g.Entries[id] = entry
}

func (g *Graph) scanImport(id registry.ModuleId, n *lnast.ImportStatement) []ImportInfo {
	source, _ := g.resolve(id, n.ModulePath)
	var out []ImportInfo
	switch n.Kind {
	case lnast.ImportDefault:
		out = append(out, ImportInfo{Name: n.Default, SourceModule: source, SourceSymbol: n.Default, IsTypeOnly: n.TypeOnly})
	case lnast.ImportNamespace:
		out = append(out, ImportInfo{Name: n.Namespace, SourceModule: source, IsTypeOnly: n.TypeOnly})
	case lnast.ImportNamed:
		for _, spec := range n.Specifiers {
			local := spec.Alias
			if local == 0 {
				local = spec.Name
			}
			out = append(out, ImportInfo{Name: local, SourceModule: source, SourceSymbol: spec.Name, IsTypeOnly: n.TypeOnly || spec.TypeOnly})
		}
	}
	return out
}

func scanExport(n *lnast.ExportStatement) []ExportInfo {
	if n.Decl != nil {
		return []ExportInfo{{Name: declExportName(n.Decl)}}
	}
	if n.DefaultExpr != nil {
		return []ExportInfo{{IsDefault: true}}
	}
	var out []ExportInfo
	for _, spec := range n.Specifiers {
		out = append(out, ExportInfo{Name: spec.External, IsTypeOnly: spec.TypeOnly})
	}
	return out
}

func declExportName(s lnast.Statement) Name {
	switch n := s.(type) {
	case *lnast.FunctionDecl:
		return n.Name
	case *lnast.ClassDecl:
		return n.Name
	case *lnast.InterfaceDecl:
		return n.Name
	case *lnast.TypeAliasDecl:
		return n.Name
	case *lnast.EnumDecl:
		return n.Name
	case *lnast.NamespaceDecl:
		return n.Name
	case *lnast.VariableDecl:
		if id, ok := n.Pattern.(*lnast.IdentPattern); ok {
			return id.Name
		}
	}
	return 0
}

func (g *Graph) scanReExport(id registry.ModuleId, n *lnast.ExportStatement) (ReExportInfo, bool) {
	if n.ReExport == lnast.ReExportNone {
		return ReExportInfo{}, false
	}
	source, _ := g.resolve(id, n.FromPath)
	if n.ReExport == lnast.ReExportAll {
		return ReExportInfo{Source: source, Kind: ReExportAll}, true
	}
	re := ReExportInfo{Source: source, Kind: ReExportNamed}
	for _, spec := range n.Specifiers {
		re.Named = append(re.Named, NamedReExport{Local: spec.Local, External: spec.External})
	}
	return re, true
}

// MarkReferenced flips IsReferenced for every import in module id whose
// Name appears in used (spec.md §4.6 step 2). The driver computes used
// with [CollectUsedNames] over the module's program.
func (g *Graph) MarkReferenced(id registry.ModuleId, used map[Name]bool) {
	entry, ok := g.Entries[id]
	if !ok {
		return
	}
	for i, imp := range entry.Imports {
		if used[imp.Name] {
			entry.Imports[i].IsReferenced = true
		}
	}
}

// MarkExportsUsed flips IsUsed on every export of id that some other
// module's Imports reference by SourceSymbol (spec.md §4.6 step 5).
func (g *Graph) MarkExportsUsed() {
	usedBySource := make(map[registry.ModuleId]map[Name]bool)
	for _, entry := range g.Entries {
		for _, imp := range entry.Imports {
			if !imp.IsReferenced || imp.SourceModule == "" {
				continue
			}
			if usedBySource[imp.SourceModule] == nil {
				usedBySource[imp.SourceModule] = make(map[Name]bool)
			}
			usedBySource[imp.SourceModule][imp.SourceSymbol] = true
		}
	}
	for id, entry := range g.Entries {
		used := usedBySource[id]
		for i, exp := range entry.Exports {
			if used[exp.Name] {
				entry.Exports[i].IsUsed = true
			}
		}
	}
}

// Reachable computes the set of module ids reachable from entryPoints via
// value imports and all re-exports; type-only import edges do not
// propagate reachability (spec.md §4.6 step 4).
func (g *Graph) Reachable(entryPoints []registry.ModuleId) sets.Set[registry.ModuleId] {
	visited := sets.New[registry.ModuleId]()
	var stack []registry.ModuleId
	stack = append(stack, entryPoints...)
	for len(stack) > 0 {
		id := xslices.Last(stack)
		stack = xslices.Pop(stack, 1)
		if visited.Has(id) {
			continue
		}
		visited.Add(id)
		entry, ok := g.Entries[id]
		if !ok {
			continue
		}
		for _, imp := range entry.Imports {
			if imp.IsTypeOnly || imp.SourceModule == "" {
				continue
			}
			if !visited.Has(imp.SourceModule) {
				stack = append(stack, imp.SourceModule)
			}
		}
		for _, re := range entry.ReExports {
			if re.Source != "" && !visited.Has(re.Source) {
				stack = append(stack, re.Source)
			}
		}
	}
	return visited
}

// maxReExportHops bounds named re-export chain resolution (spec.md §4.6).
const maxReExportHops = 10

// ResolveReExportChain walks named or blanket re-exports from id for
// symbol name to its ultimate source module and symbol name, following at
// most maxReExportHops hops and refusing to revisit a module (cycle guard).
func (g *Graph) ResolveReExportChain(id registry.ModuleId, name Name) (registry.ModuleId, Name, bool) {
	visited := sets.New[registry.ModuleId]()
	curID, curName := id, name
	for hop := 0; hop < maxReExportHops; hop++ {
		if visited.Has(curID) {
			return "", 0, false
		}
		visited.Add(curID)
		entry, ok := g.Entries[curID]
		if !ok {
			return curID, curName, true
		}
		next, nextName, found := followOneHop(entry, curName)
		if !found {
			return curID, curName, true
		}
		curID, curName = next, nextName
	}
	return "", 0, false
}

func followOneHop(entry *ModuleGraphEntry, name Name) (registry.ModuleId, Name, bool) {
	for _, re := range entry.ReExports {
		if re.Kind == ReExportAll {
			return re.Source, name, true
		}
		for _, pair := range re.Named {
			if pair.External == name {
				return re.Source, pair.Local, true
			}
		}
	}
	return "", 0, false
}

// ShouldCompile implements the O2+ unused-module-elimination predicate:
// entry points always compile, and any module not present in reachable
// (an unknown or unreachable path) defaults to compiling rather than being
// silently dropped (spec.md §4.6).
func ShouldCompile(id registry.ModuleId, reachable sets.Set[registry.ModuleId], entryPoints []registry.ModuleId) bool {
	for _, ep := range entryPoints {
		if ep == id {
			return true
		}
	}
	if reachable == nil {
		return true
	}
	return reachable.Has(id)
}

// DeadImportElimination drops specifiers whose IsReferenced is false,
// returning the filtered import list (spec.md §4.6, O2+).
func DeadImportElimination(imports []ImportInfo) []ImportInfo {
	out := make([]ImportInfo, 0, len(imports))
	for _, imp := range imports {
		if imp.IsReferenced {
			out = append(out, imp)
		}
	}
	return out
}

// DeadExportElimination reports which of a module's export wrapper
// statements may be dropped: any ExportStatement whose specifiers are all
// unused collapses to nothing, keeping the underlying declaration (when
// n.Decl is non-nil, the declaration itself is never dropped — only the
// `export` wrapping it would be, which the code generator handles by
// checking IsUsed directly rather than by AST removal here).
func DeadExportElimination(exports []ExportInfo) []ExportInfo {
	out := make([]ExportInfo, 0, len(exports))
	for _, exp := range exports {
		if exp.IsUsed || exp.IsDefault {
			out = append(out, exp)
		}
	}
	return out
}

// ReExportFlatten implements the O3-only re-export-flattening pass: given a
// named re-export whose chain resolves through one or more intermediate
// modules, it returns the ultimate (module, symbol) pair so codegen can
// require it directly instead of threading through every hop.
func (g *Graph) ReExportFlatten(id registry.ModuleId, name Name) (registry.ModuleId, Name, bool) {
	return g.ResolveReExportChain(id, name)
}
