// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package checker

import (
	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/registry"
	"luanext.dev/compiler/internal/resolver"
	"luanext.dev/compiler/internal/typesys"
)

// modulePhase implements spec.md §4.4.6 phase 3: resolve imports/exports
// against the registry, validate type-only import/export constraints, and
// resolve each re-export one hop through [Checker.resolveReExportChain].
// Re-export chains past that first hop, and cycles among them, are not
// followed or detected here.
func (c *Checker) modulePhase(m *Module) {
	for _, sym := range m.Symbols {
		if !sym.FromImport {
			continue
		}
		c.resolveImportSymbol(m, sym)
	}

	for _, stmt := range m.Program.Statements {
		c.resolveExportStmt(m, stmt)
	}
}

func (c *Checker) resolveImportSymbol(m *Module, sym *Symbol) {
	target, ok := resolver.Resolve(c.ResolveCfg, string(m.ID), sym.ImportModule, c.FileExists)
	if !ok {
		m.Sink.Reportf(diag.E3001, lntokenZeroSpan(), "module %q not found", sym.ImportModule)
		sym.Type = typesys.Unknown
		return
	}
	kind := registry.EdgeValue
	if sym.ImportTypeOnly {
		kind = registry.EdgeTypeOnly
	}
	c.Reg.AddEdge(m.ID, registry.ModuleId(target), kind)

	if sym.ImportExport == 0 {
		// namespace import: the whole module's export table.
		sym.Type = typesys.Unknown
		return
	}
	t, err := c.Reg.ExportType(registry.ModuleId(target), sym.ImportExport)
	if err != nil {
		if err == registry.ErrTypeCheckInProgress {
			if kind == registry.EdgeTypeOnly {
				sym.Type = typesys.Unknown
				return
			}
			m.Sink.Reportf(diag.E3006, lntokenZeroSpan(), "circular import of %q while type-checking", sym.ImportModule)
		}
		sym.Type = typesys.Unknown
		return
	}
	sym.Type = t
}

// resolveExportStmt registers export symbols and chases re-export chains.
func (c *Checker) resolveExportStmt(m *Module, stmt lnast.Statement) {
	n, ok := stmt.(*lnast.ExportStatement)
	if !ok {
		return
	}
	switch {
	case n.Decl != nil:
		c.exportDecl(m, n.Decl)
	case n.ReExport == lnast.ReExportAll:
		c.resolveReExportChain(m, n.FromPath, 0, 0, 0)
	case n.ReExport == lnast.ReExportNamed:
		for _, spec := range n.Specifiers {
			c.resolveReExportChain(m, n.FromPath, spec.Local, spec.External, 0)
			m.ExportTypeOnly[spec.External] = spec.TypeOnly
		}
	default:
		for _, spec := range n.Specifiers {
			if sym, ok := m.Symbols[spec.Local]; ok {
				m.Exports[spec.External] = symbolType(sym)
				m.ExportTypeOnly[spec.External] = spec.TypeOnly
			}
		}
		if n.DefaultExpr != nil {
			m.Exports[m.It.Intern("default")] = typesys.Unknown
		}
	}
}

func (c *Checker) exportDecl(m *Module, decl lnast.Statement) {
	name, ok := declName(decl)
	if !ok {
		return
	}
	sym, ok := m.Symbols[name]
	if !ok {
		return
	}
	m.Exports[name] = symbolType(sym)
}

func declName(stmt lnast.Statement) (Name, bool) {
	switch n := stmt.(type) {
	case *lnast.FunctionDecl:
		return n.Name, true
	case *lnast.ClassDecl:
		return n.Name, true
	case *lnast.InterfaceDecl:
		return n.Name, true
	case *lnast.TypeAliasDecl:
		return n.Name, true
	case *lnast.EnumDecl:
		return n.Name, true
	case *lnast.NamespaceDecl:
		return n.Name, true
	case *lnast.VariableDecl:
		if id, ok := n.Pattern.(*lnast.IdentPattern); ok {
			return id.Name, true
		}
	}
	return 0, false
}

func symbolType(sym *Symbol) *typesys.Type {
	if sym.Type != nil {
		return sym.Type
	}
	if sym.Kind == SymClass {
		return typesys.Named(sym.Name)
	}
	return typesys.Unknown
}

// resolveReExportChain resolves a re-export one hop: it resolves fromPath,
// records the dependency edge, and copies the named export's type from the
// registry. It does not follow the source module's own re-exports, and
// every caller passes depth 0, so the E3003 check for more than 10 hops
// never fires from here. sourceName == 0 means
// `export * from`; externalName is the name this module exports the result
// under (equal to sourceName unless the re-export renames it).
func (c *Checker) resolveReExportChain(m *Module, fromPath string, sourceName, externalName Name, depth int) {
	if depth > 10 {
		m.Sink.Reportf(diag.E3003, lntokenZeroSpan(), "re-export chain from %q exceeds 10 hops", fromPath)
		return
	}
	target, ok := resolver.Resolve(c.ResolveCfg, string(m.ID), fromPath, c.FileExists)
	if !ok {
		m.Sink.Reportf(diag.E3001, lntokenZeroSpan(), "re-exported module %q not found", fromPath)
		return
	}
	c.Reg.AddEdge(m.ID, registry.ModuleId(target), registry.EdgeValue)
	if sourceName == 0 {
		// export * from: mark the whole dependency used; the LTO phase
		// (spec.md §4.6) recomputes per-name reachability later.
		return
	}
	t, err := c.Reg.ExportType(registry.ModuleId(target), sourceName)
	if err != nil {
		m.Exports[externalName] = typesys.Unknown
		return
	}
	m.Exports[externalName] = t
}

// lntokenZeroSpan is used for module-level diagnostics that have no single
// AST span to anchor to (e.g. an unresolved import path).
func lntokenZeroSpan() lnast.Span {
	return lnast.Span{}
}
