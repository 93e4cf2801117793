// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package checker

import "luanext.dev/compiler/internal/lnast"

// declarationPhase implements spec.md §4.4.6 phase 1: register every
// top-level symbol without resolving its type, so that later statements can
// forward-reference symbols declared after them in source order.
func declarationPhase(m *Module) {
	for _, stmt := range m.Program.Statements {
		declareStmt(m, stmt)
	}
}

func declareStmt(m *Module, stmt lnast.Statement) {
	switch n := stmt.(type) {
	case *lnast.VariableDecl:
		declarePattern(m, n.Pattern, SymVariable, n)
	case *lnast.FunctionDecl:
		m.Symbols[n.Name] = &Symbol{Name: n.Name, Kind: SymFunction, Decl: n}
	case *lnast.ClassDecl:
		if existing, ok := m.Symbols[n.Name]; ok && existing.Kind == SymClass && !n.Forward {
			existing.Decl = n
			return
		}
		m.Symbols[n.Name] = &Symbol{Name: n.Name, Kind: SymClass, Decl: n}
	case *lnast.InterfaceDecl:
		if existing, ok := m.Symbols[n.Name]; ok && existing.Kind == SymInterface && !n.Forward {
			existing.Decl = n
			return
		}
		m.Symbols[n.Name] = &Symbol{Name: n.Name, Kind: SymInterface, Decl: n}
	case *lnast.TypeAliasDecl:
		m.Symbols[n.Name] = &Symbol{Name: n.Name, Kind: SymAlias, Decl: n}
	case *lnast.EnumDecl:
		m.Symbols[n.Name] = &Symbol{Name: n.Name, Kind: SymEnum, Decl: n}
	case *lnast.NamespaceDecl:
		m.Symbols[n.Name] = &Symbol{Name: n.Name, Kind: SymNamespace, Decl: n}
		for _, inner := range n.Body {
			declareStmt(m, inner)
		}
	case *lnast.ExportStatement:
		if n.Decl != nil {
			declareStmt(m, n.Decl)
		}
	case *lnast.ImportStatement:
		declareImport(m, n)
	}
}

func declarePattern(m *Module, p lnast.Pattern, kind SymbolKind, decl lnast.Statement) {
	switch pat := p.(type) {
	case *lnast.IdentPattern:
		m.Symbols[pat.Name] = &Symbol{Name: pat.Name, Kind: kind, Decl: decl}
	case *lnast.ArrayPattern:
		for _, el := range pat.Elements {
			if el.Pattern != nil {
				declarePattern(m, el.Pattern, kind, decl)
			}
		}
	case *lnast.ObjectPattern:
		for _, f := range pat.Fields {
			if f.Value != nil {
				declarePattern(m, f.Value, kind, decl)
			}
		}
		if pat.Rest != 0 {
			m.Symbols[pat.Rest] = &Symbol{Name: pat.Rest, Kind: kind, Decl: decl}
		}
	}
}

func declareImport(m *Module, n *lnast.ImportStatement) {
	switch n.Kind {
	case lnast.ImportDefault:
		m.Symbols[n.Default] = &Symbol{Name: n.Default, Kind: SymImport, FromImport: true,
			ImportModule: n.ModulePath, ImportExport: m.It.Intern("default"), ImportTypeOnly: n.TypeOnly}
	case lnast.ImportNamespace:
		m.Symbols[n.Namespace] = &Symbol{Name: n.Namespace, Kind: SymImport, FromImport: true,
			ImportModule: n.ModulePath, ImportTypeOnly: n.TypeOnly}
	case lnast.ImportNamed:
		for _, spec := range n.Specifiers {
			local := spec.Alias
			if local == 0 {
				local = spec.Name
			}
			m.Symbols[local] = &Symbol{Name: local, Kind: SymImport, FromImport: true,
				ImportModule: n.ModulePath, ImportExport: spec.Name, ImportTypeOnly: n.TypeOnly || spec.TypeOnly}
		}
	}
}
