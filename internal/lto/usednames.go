// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lto

import "luanext.dev/compiler/internal/lnast"

// CollectUsedNames walks prog and returns every name referenced outside an
// import clause: identifier reads and writes, named-type references (so a
// type-only import counts as referenced when its type appears in an
// annotation), and locals surfaced through an `export { x }` wrapper.
// Feeding the result to [Graph.MarkReferenced] is spec.md §4.6 step 2.
func CollectUsedNames(prog *lnast.Program) map[Name]bool {
	used := make(map[Name]bool)
	lnast.Walk(prog.Statements, lnast.Visitor{
		Expr: func(e lnast.Expression) {
			if n, ok := e.(*lnast.IdentExpr); ok {
				used[n.Name] = true
			}
		},
		Type: func(t lnast.Type) {
			if n, ok := t.(*lnast.NamedType); ok {
				used[n.Name] = true
			}
		},
		Stmt: func(s lnast.Statement) {
			ex, ok := s.(*lnast.ExportStatement)
			if !ok || ex.ReExport != lnast.ReExportNone {
				return
			}
			// A plain `export { x }` keeps x alive even if no expression
			// reads it; a re-export does not, since its symbol flows through
			// the re-export chain, not the local scope.
			for _, spec := range ex.Specifiers {
				used[spec.Local] = true
			}
		},
	})
	return used
}
