// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnparser

import (
	"strings"
	"testing"

	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lnast"
)

func parseSource(t *testing.T, src string) (*lnast.Program, *intern.Interner, *diag.Sink) {
	t.Helper()
	it := intern.New()
	sink := new(diag.Sink)
	prog := Parse(src, it, sink)
	if prog == nil {
		t.Fatalf("Parse(%q) = nil Program", src)
	}
	return prog, it, sink
}

func hasCode(sink *diag.Sink, code diag.Code) bool {
	for _, d := range sink.All() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestParseTotalityOnGarbage(t *testing.T) {
	inputs := []string{
		") ) )",
		"const = 1",
		"if while do",
		"function",
		"[[[",
	}
	for _, src := range inputs {
		prog, _, sink := parseSource(t, src)
		if prog == nil {
			t.Errorf("Parse(%q) = nil; parsing must always produce a Program", src)
		}
		if len(sink.All()) == 0 {
			t.Errorf("Parse(%q) emitted no diagnostics; want at least one", src)
		}
	}
}

func TestParseVariableDecl(t *testing.T) {
	prog, it, sink := parseSource(t, "const x: number = 5")
	if len(sink.All()) != 0 {
		t.Fatalf("Parse() diagnostics: %v", sink.All())
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("Parse() produced %d statements; want 1", len(prog.Statements))
	}
	decl, ok := prog.Statements[0].(*lnast.VariableDecl)
	if !ok {
		t.Fatalf("Parse() statement is %T; want *lnast.VariableDecl", prog.Statements[0])
	}
	if decl.Kind != lnast.VarConst {
		t.Errorf("decl.Kind = %v; want VarConst", decl.Kind)
	}
	if decl.Annotation == nil {
		t.Error("decl.Annotation = nil; want the declared number annotation")
	}
	num, ok := decl.Init.(*lnast.NumberLiteral)
	if !ok || num.Text != "5" || !num.Integer {
		t.Errorf("decl.Init = %#v; want integer literal 5", decl.Init)
	}
	if id, ok := decl.Pattern.(*lnast.IdentPattern); !ok || it.MustResolve(id.Name) != "x" {
		t.Errorf("decl.Pattern = %#v; want identifier x", decl.Pattern)
	}
}

func TestSpanCoverage(t *testing.T) {
	src := "const a = 1\nconst b = a + 2\n"
	prog, _, _ := parseSource(t, src)
	if len(prog.StatementSpans) != len(prog.Statements) {
		t.Fatalf("StatementSpans has %d entries for %d statements", len(prog.StatementSpans), len(prog.Statements))
	}
	for i, s := range prog.Statements {
		span := s.NodeSpan()
		if span.StartByte < 0 || span.EndByte > len(src) || span.StartByte > span.EndByte {
			t.Errorf("statement %d span [%d, %d) outside source of length %d", i, span.StartByte, span.EndByte, len(src))
		}
		if prog.StatementSpans[i] != span {
			t.Errorf("StatementSpans[%d] = %v; want %v (side table must agree with inline spans)", i, prog.StatementSpans[i], span)
		}
	}
}

func TestBlockStyleMismatch(t *testing.T) {
	_, _, sink := parseSource(t, "do return 1 }")
	if !hasCode(sink, diag.E2006) {
		t.Errorf("Parse(%q) diagnostics = %v; want E2006 for keyword block closed with '}'", "do return 1 }", sink.All())
	}

	_, _, sink = parseSource(t, "{ return 1 end")
	if !hasCode(sink, diag.E2006) {
		t.Errorf("Parse(%q) diagnostics = %v; want E2006 for brace block closed with 'end'", "{ return 1 end", sink.All())
	}
}

func TestGenericCallVsComparison(t *testing.T) {
	prog, _, _ := parseSource(t, "f<number>(1)")
	es, ok := prog.Statements[0].(*lnast.ExpressionStatement)
	if !ok {
		t.Fatalf("statement is %T; want ExpressionStatement", prog.Statements[0])
	}
	call, ok := es.Expr.(*lnast.CallExpr)
	if !ok {
		t.Fatalf("expression is %T; want a generic CallExpr", es.Expr)
	}
	if len(call.TypeArgs) != 1 {
		t.Errorf("call.TypeArgs has %d entries; want 1", len(call.TypeArgs))
	}

	prog, _, _ = parseSource(t, "const r = a < b")
	decl := prog.Statements[0].(*lnast.VariableDecl)
	bin, ok := decl.Init.(*lnast.BinaryExpr)
	if !ok || bin.Op != lnast.BinLess {
		t.Errorf("init = %#v; want comparison a < b after failed type-argument parse", decl.Init)
	}
}

func TestArrowFunction(t *testing.T) {
	prog, _, sink := parseSource(t, "const f = (x: number): number => x + 1")
	if len(sink.All()) != 0 {
		t.Fatalf("Parse() diagnostics: %v", sink.All())
	}
	decl := prog.Statements[0].(*lnast.VariableDecl)
	arrow, ok := decl.Init.(*lnast.ArrowExpr)
	if !ok {
		t.Fatalf("init is %T; want *lnast.ArrowExpr", decl.Init)
	}
	if arrow.ExprBody == nil {
		t.Error("arrow.ExprBody = nil; want bare-expression body")
	}
	if len(arrow.Params) != 1 {
		t.Errorf("arrow has %d params; want 1", len(arrow.Params))
	}
}

func TestImportStatementForms(t *testing.T) {
	src := `import X from "./m"
import { a, b as c } from "./m"
import * as M from "./m"
import type { T } from "./types"
`
	prog, it, sink := parseSource(t, src)
	if len(sink.All()) != 0 {
		t.Fatalf("Parse() diagnostics: %v", sink.All())
	}
	if len(prog.Statements) != 4 {
		t.Fatalf("Parse() produced %d statements; want 4", len(prog.Statements))
	}
	def := prog.Statements[0].(*lnast.ImportStatement)
	if def.Kind != lnast.ImportDefault || it.MustResolve(def.Default) != "X" || def.ModulePath != "./m" {
		t.Errorf("default import = %+v; want X from ./m", def)
	}
	named := prog.Statements[1].(*lnast.ImportStatement)
	if named.Kind != lnast.ImportNamed || len(named.Specifiers) != 2 {
		t.Fatalf("named import = %+v; want two specifiers", named)
	}
	if it.MustResolve(named.Specifiers[1].Name) != "b" || it.MustResolve(named.Specifiers[1].Alias) != "c" {
		t.Errorf("second specifier = %+v; want b as c", named.Specifiers[1])
	}
	ns := prog.Statements[2].(*lnast.ImportStatement)
	if ns.Kind != lnast.ImportNamespace || it.MustResolve(ns.Namespace) != "M" {
		t.Errorf("namespace import = %+v; want * as M", ns)
	}
	typeOnly := prog.Statements[3].(*lnast.ImportStatement)
	if !typeOnly.TypeOnly {
		t.Errorf("type import = %+v; want TypeOnly set", typeOnly)
	}
}

func TestKeywordAsMemberName(t *testing.T) {
	prog, _, sink := parseSource(t, "obj.type = 1")
	if len(sink.All()) != 0 {
		t.Fatalf("Parse() diagnostics: %v", sink.All())
	}
	es := prog.Statements[0].(*lnast.ExpressionStatement)
	assign, ok := es.Expr.(*lnast.AssignExpr)
	if !ok {
		t.Fatalf("expression is %T; want assignment to a keyword-named member", es.Expr)
	}
	if _, ok := assign.Target.(*lnast.MemberExpr); !ok {
		t.Errorf("assignment target is %T; want MemberExpr", assign.Target)
	}
}

func TestIncrementalUnchangedTextReturnsCachedProgram(t *testing.T) {
	it := intern.New()
	sink := new(diag.Sink)
	s := NewSession("const a = 1\n", it, sink)
	before := s.Program()
	after := s.Reparse([]Edit{{Start: 10, End: 11, Replacement: "1"}})
	if before != after {
		t.Error("Reparse() with a no-op edit returned a new Program; want the cached one verbatim")
	}
}

func TestIncrementalEditEquivalence(t *testing.T) {
	src := "const a = 1\nconst b = 2\nconst c = 3\n"
	it := intern.New()
	sink := new(diag.Sink)
	s := NewSession(src, it, sink)

	// Replace b's initializer `2` with `42`.
	idx := strings.Index(src, "2")
	got := s.Reparse([]Edit{{Start: idx, End: idx + 1, Replacement: "42"}})

	newSrc := strings.Replace(src, "= 2", "= 42", 1)
	if got.Source != newSrc {
		t.Fatalf("Reparse() source = %q; want %q", got.Source, newSrc)
	}

	fullIt := intern.New()
	fullSink := new(diag.Sink)
	full := Parse(newSrc, fullIt, fullSink)
	if len(got.Statements) != len(full.Statements) {
		t.Fatalf("Reparse() produced %d statements; full parse produced %d", len(got.Statements), len(full.Statements))
	}
	for i := range full.Statements {
		wantDecl := full.Statements[i].(*lnast.VariableDecl)
		gotDecl, ok := got.Statements[i].(*lnast.VariableDecl)
		if !ok {
			t.Fatalf("statement %d is %T; want *lnast.VariableDecl", i, got.Statements[i])
		}
		wantInit := wantDecl.Init.(*lnast.NumberLiteral)
		gotInit, ok := gotDecl.Init.(*lnast.NumberLiteral)
		if !ok || gotInit.Text != wantInit.Text {
			t.Errorf("statement %d init = %#v; want literal %q", i, gotDecl.Init, wantInit.Text)
		}
	}
	if sink.HasErrors() {
		t.Errorf("incremental reparse diagnostics: %v", sink.All())
	}
}

func TestIncrementalAppendStatement(t *testing.T) {
	src := "const a = 1\n"
	it := intern.New()
	sink := new(diag.Sink)
	s := NewSession(src, it, sink)
	got := s.Reparse([]Edit{{Start: len(src), End: len(src), Replacement: "const b = 2\n"}})
	if len(got.Statements) != 2 {
		t.Fatalf("Reparse() produced %d statements; want 2 after append", len(got.Statements))
	}
	if sink.HasErrors() {
		t.Errorf("append reparse diagnostics: %v", sink.All())
	}
}

func TestIncrementalConsolidation(t *testing.T) {
	src := "const a = 1\n"
	it := intern.New()
	sink := new(diag.Sink)
	s := NewSession(src, it, sink)
	// Drive well past the consolidation interval; each edit rewrites a's
	// initializer to a fresh value so no reparse short-circuits.
	for i := 0; i < 25; i++ {
		cur := s.Program().Source
		idx := strings.Index(cur, "= ") + 2
		end := strings.Index(cur, "\n")
		s.Reparse([]Edit{{Start: idx, End: end, Replacement: strings.Repeat("9", i%3+1)}})
	}
	if n := len(s.Arenas()); n > maxLiveArenas {
		t.Errorf("session keeps %d arenas alive; policy caps at %d", n, maxLiveArenas)
	}
	if len(s.Program().Statements) != 1 {
		t.Errorf("session program has %d statements; want 1", len(s.Program().Statements))
	}
}
