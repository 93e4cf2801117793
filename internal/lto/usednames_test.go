// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lto

import (
	"testing"

	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lnast"
)

func TestCollectUsedNames(t *testing.T) {
	it := intern.New()
	helper := it.Intern("helper")
	box := it.Intern("Box")
	unused := it.Intern("unused")
	exported := it.Intern("exported")

	prog := &lnast.Program{Statements: []lnast.Statement{
		// `import { helper, unused, Box } from ...` itself must not count
		// as a use of any of the three.
		&lnast.ImportStatement{Kind: lnast.ImportNamed, Specifiers: []lnast.ImportSpecifier{
			{Name: helper}, {Name: unused}, {Name: box},
		}, ModulePath: "./dep"},
		// A value read of helper.
		&lnast.ExpressionStatement{Expr: &lnast.CallExpr{Callee: &lnast.IdentExpr{Name: helper}}},
		// A type-position reference to Box.
		&lnast.VariableDecl{
			Kind:       lnast.VarConst,
			Pattern:    &lnast.IdentPattern{Name: it.Intern("b")},
			Annotation: &lnast.NamedType{Name: box},
		},
		// `export { exported }` keeps its local alive.
		&lnast.ExportStatement{Specifiers: []lnast.ExportSpecifier{{Local: exported, External: exported}}},
	}}

	used := CollectUsedNames(prog)
	if !used[helper] {
		t.Error("CollectUsedNames() missed a called identifier")
	}
	if !used[box] {
		t.Error("CollectUsedNames() missed a named-type reference; type-only imports would never count as referenced")
	}
	if !used[exported] {
		t.Error("CollectUsedNames() missed an export specifier's local")
	}
	if used[unused] {
		t.Error("CollectUsedNames() counted an import clause as a use of its own binding")
	}
}

func TestCollectUsedNamesIgnoresReExports(t *testing.T) {
	it := intern.New()
	x := it.Intern("x")
	prog := &lnast.Program{Statements: []lnast.Statement{
		&lnast.ExportStatement{
			ReExport:   lnast.ReExportNamed,
			FromPath:   "./dep",
			Specifiers: []lnast.ExportSpecifier{{Local: x, External: x}},
		},
	}}
	if used := CollectUsedNames(prog); used[x] {
		t.Error("CollectUsedNames() counted a re-export specifier as a local use")
	}
}
