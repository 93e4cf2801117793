// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package codegen

import (
	"strings"
	"testing"

	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lnast"
)

// generate runs a Generator over stmts and returns the emitted Lua text.
func generate(t *testing.T, opts Options, it *intern.Interner, stmts ...lnast.Statement) string {
	t.Helper()
	prog := &lnast.Program{Statements: stmts}
	prog.ReindexSpans()
	g := NewGenerator(opts, it)
	res, err := g.Generate(prog)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	return res.Code
}

func readable(target Target) Options {
	return Options{Target: target, Format: Readable, Module: ModuleRequire}
}

func constDecl(name lnast.Name, init lnast.Expression) *lnast.VariableDecl {
	return &lnast.VariableDecl{Kind: lnast.VarConst, Pattern: &lnast.IdentPattern{Name: name}, Init: init}
}

func intLit(text string) *lnast.NumberLiteral {
	return &lnast.NumberLiteral{Text: text, Integer: true}
}

func TestNullCoalescingOnLiteral(t *testing.T) {
	it := intern.New()
	decl := constDecl(it.Intern("x"), &lnast.BinaryExpr{
		Op:    lnast.BinNullishCoalesce,
		Left:  &lnast.NilLiteral{},
		Right: intLit("5"),
	})
	got := generate(t, readable(Lua54), it, decl)
	want := "local x = (nil ~= nil and nil) or 5\nreturn {}\n"
	if got != want {
		t.Errorf("Generate() = %q; want %q", got, want)
	}
}

func TestNullCoalescingSideEffectingOperand(t *testing.T) {
	it := intern.New()
	call := &lnast.CallExpr{Callee: &lnast.IdentExpr{Name: it.Intern("f")}}
	decl := constDecl(it.Intern("x"), &lnast.BinaryExpr{
		Op:    lnast.BinNullishCoalesce,
		Left:  call,
		Right: intLit("5"),
	})
	got := generate(t, readable(Lua54), it, decl)
	if !strings.Contains(got, "function() local __n = f()") {
		t.Errorf("Generate() = %q; want an IIFE capturing the side-effecting operand", got)
	}
	if strings.Contains(got, "f() ~= nil and f()") {
		t.Errorf("Generate() = %q; side-effecting operand must not be evaluated twice", got)
	}
}

func TestIntegerDivideByTarget(t *testing.T) {
	tests := []struct {
		target Target
		want   string
	}{
		{Lua53, "local q = (7 // 2)\nreturn {}\n"},
		{Lua54, "local q = (7 // 2)\nreturn {}\n"},
		{Lua51, "local q = math.floor((7) / (2))\nreturn {}\n"},
		{Lua52, "local q = math.floor((7) / (2))\nreturn {}\n"},
	}
	for _, test := range tests {
		t.Run(test.target.String(), func(t *testing.T) {
			it := intern.New()
			decl := constDecl(it.Intern("q"), &lnast.BinaryExpr{Op: lnast.BinIntDiv, Left: intLit("7"), Right: intLit("2")})
			if got := generate(t, readable(test.target), it, decl); got != test.want {
				t.Errorf("Generate() = %q; want %q", got, test.want)
			}
		})
	}
}

func TestTryCatchLowering(t *testing.T) {
	it := intern.New()
	try := &lnast.TryStatement{
		Try:        []lnast.Statement{&lnast.ReturnStatement{Values: []lnast.Expression{intLit("1")}}},
		CatchParam: &lnast.Ident{Name: it.Intern("e")},
		Catch:      []lnast.Statement{&lnast.ReturnStatement{Values: []lnast.Expression{intLit("2")}}},
	}
	got := generate(t, readable(Lua54), it, try)
	for _, frag := range []string{
		"local __ok, __result = pcall(function()",
		"return 1",
		"if not __ok then",
		"local e = __result",
		"return 2",
		// Both branches always return, so the pcall result propagates.
		"return __result",
	} {
		if !strings.Contains(got, frag) {
			t.Errorf("Generate() = %q; missing %q", got, frag)
		}
	}
	if strings.Contains(got, "else") {
		t.Errorf("Generate() = %q; catch must run inside `if not __ok then` with no else", got)
	}
}

func TestRequireModeImports(t *testing.T) {
	it := intern.New()
	a, b := it.Intern("a"), it.Intern("b")
	imp := &lnast.ImportStatement{
		Kind:       lnast.ImportNamed,
		Specifiers: []lnast.ImportSpecifier{{Name: a}, {Name: b}},
		ModulePath: "./utils",
	}
	got := generate(t, readable(Lua54), it, imp)
	want := "local __tmp1 = require(\"./utils\")\nlocal a = __tmp1.a\nlocal b = __tmp1.b\nreturn {}\n"
	if got != want {
		t.Errorf("Generate() = %q; want %q", got, want)
	}
}

func TestDeadImportElimination(t *testing.T) {
	it := intern.New()
	a, b := it.Intern("a"), it.Intern("b")
	imp := &lnast.ImportStatement{
		Kind:       lnast.ImportNamed,
		Specifiers: []lnast.ImportSpecifier{{Name: a}, {Name: b}},
		ModulePath: "./utils",
	}
	opts := readable(Lua54)
	opts.DeadImports = map[lnast.Name]bool{b: true}
	got := generate(t, opts, it, imp)
	if !strings.Contains(got, "local a = __tmp1.a") {
		t.Errorf("Generate() = %q; referenced import %q must survive", got, "a")
	}
	if strings.Contains(got, ".b") {
		t.Errorf("Generate() = %q; unreferenced import %q must be dropped", got, "b")
	}
}

func TestTypeOnlyImportEmitsNothing(t *testing.T) {
	it := intern.New()
	imp := &lnast.ImportStatement{
		Kind:       lnast.ImportNamed,
		Specifiers: []lnast.ImportSpecifier{{Name: it.Intern("T")}},
		TypeOnly:   true,
		ModulePath: "./types",
	}
	got := generate(t, readable(Lua54), it, imp)
	if strings.Contains(got, "require") {
		t.Errorf("Generate() = %q; type-only import must emit nothing", got)
	}
}

func TestDefaultAndNamespaceImports(t *testing.T) {
	it := intern.New()
	def := &lnast.ImportStatement{Kind: lnast.ImportDefault, Default: it.Intern("X"), ModulePath: "./m"}
	ns := &lnast.ImportStatement{Kind: lnast.ImportNamespace, Namespace: it.Intern("M"), ModulePath: "./m"}
	got := generate(t, readable(Lua54), it, def, ns)
	for _, frag := range []string{`local X = require("./m")`, `local M = require("./m")`} {
		if !strings.Contains(got, frag) {
			t.Errorf("Generate() = %q; missing %q", got, frag)
		}
	}
}

func TestImportAliasRewrite(t *testing.T) {
	it := intern.New()
	imp := &lnast.ImportStatement{Kind: lnast.ImportDefault, Default: it.Intern("X"), ModulePath: "@/helpers"}
	opts := readable(Lua54)
	opts.RewriteImportPath = func(spec string) string {
		if spec == "@/helpers" {
			return "./src/helpers"
		}
		return spec
	}
	got := generate(t, opts, it, imp)
	if !strings.Contains(got, `require("./src/helpers")`) {
		t.Errorf("Generate() = %q; alias specifier not rewritten", got)
	}
}

func TestReachableExportsFilter(t *testing.T) {
	it := intern.New()
	mkExport := func(name string) *lnast.ExportStatement {
		return &lnast.ExportStatement{Decl: &lnast.FunctionDecl{
			Name: it.Intern(name),
			Body: []lnast.Statement{&lnast.ReturnStatement{Values: []lnast.Expression{intLit("1")}}},
		}}
	}
	opts := readable(Lua54)
	opts.ReachableExports = map[string]bool{"a": true}
	got := generate(t, opts, it, mkExport("a"), mkExport("b"))
	if !strings.Contains(got, "local function b(") {
		t.Errorf("Generate() = %q; dead-export elimination must keep the underlying declaration", got)
	}
	if !strings.Contains(got, "a = a") {
		t.Errorf("Generate() = %q; reachable export missing from module table", got)
	}
	if strings.Contains(got, "b = b") {
		t.Errorf("Generate() = %q; unreachable export wrapper must be dropped", got)
	}
}

func TestBundlePreamble(t *testing.T) {
	it := intern.New()
	decl := constDecl(it.Intern("x"), intLit("1"))
	bundle := generate(t, Options{Target: Lua54, Format: Readable, Module: ModuleBundle}, it, decl)
	if !strings.Contains(bundle, "__require") {
		t.Errorf("Generate(bundle) = %q; missing __require loader preamble", bundle)
	}
	req := generate(t, readable(Lua54), it, decl)
	if strings.Contains(req, "__modules") {
		t.Errorf("Generate(require) = %q; must not carry the bundle loader", req)
	}
}

func TestEmptyProgramRequireMode(t *testing.T) {
	it := intern.New()
	got := generate(t, readable(Lua54), it)
	if got != "return {}\n" {
		t.Errorf("Generate() = %q; want %q", got, "return {}\n")
	}
}

func TestTypeOnlyDeclarationsEmitEmptyBody(t *testing.T) {
	it := intern.New()
	alias := &lnast.TypeAliasDecl{Name: it.Intern("A"), Value: &lnast.PrimitiveType{Kind: lnast.PrimNumber}}
	iface := &lnast.InterfaceDecl{Name: it.Intern("I")}
	got := generate(t, readable(Lua54), it, alias, iface)
	if got != "return {}\n" {
		t.Errorf("Generate() = %q; type-only module must emit an empty body", got)
	}
}

func TestMethodCallUsesColon(t *testing.T) {
	it := intern.New()
	call := &lnast.MethodCallExpr{
		Object: &lnast.IdentExpr{Name: it.Intern("obj")},
		Method: it.Intern("update"),
		Args:   []lnast.Expression{intLit("1")},
	}
	got := generate(t, readable(Lua54), it, &lnast.ExpressionStatement{Expr: call})
	if !strings.Contains(got, "obj:update(1)") {
		t.Errorf("Generate() = %q; want single-colon method call", got)
	}
}

func TestPipeLowersToCall(t *testing.T) {
	it := intern.New()
	pipe := &lnast.PipeExpr{
		Left:  &lnast.IdentExpr{Name: it.Intern("value")},
		Right: &lnast.IdentExpr{Name: it.Intern("render")},
	}
	got := generate(t, readable(Lua54), it, &lnast.ExpressionStatement{Expr: pipe})
	if !strings.Contains(got, "render(value)") {
		t.Errorf("Generate() = %q; want %q", got, "render(value)")
	}
}

func TestTemplateLiteralConcatenation(t *testing.T) {
	it := intern.New()
	tmpl := &lnast.TemplateLiteralExpr{
		Quasis: []string{"v=", ""},
		Exprs:  []lnast.Expression{&lnast.IdentExpr{Name: it.Intern("x")}},
	}
	got := generate(t, readable(Lua54), it, constDecl(it.Intern("s"), tmpl))
	if !strings.Contains(got, `"v=" .. tostring(x)`) {
		t.Errorf("Generate() = %q; want interpolations wrapped in tostring", got)
	}
}

func TestTypeAssertionErased(t *testing.T) {
	it := intern.New()
	assert := &lnast.TypeAssertionExpr{Expr: intLit("1"), AssertedType: &lnast.PrimitiveType{Kind: lnast.PrimNumber}}
	got := generate(t, readable(Lua54), it, constDecl(it.Intern("x"), assert))
	if !strings.Contains(got, "local x = 1\n") {
		t.Errorf("Generate() = %q; type assertion must erase to its operand", got)
	}
}

func TestContinueByTarget(t *testing.T) {
	it := intern.New()
	loop := func() *lnast.WhileStatement {
		return &lnast.WhileStatement{
			Cond: &lnast.BoolLiteral{Value: true},
			Body: []lnast.Statement{&lnast.ContinueStatement{}},
		}
	}

	got55 := generate(t, readable(Lua55), it, loop())
	if !strings.Contains(got55, "continue\n") || strings.Contains(got55, "goto") {
		t.Errorf("Generate(5.5) = %q; want native continue", got55)
	}
	got54 := generate(t, readable(Lua54), it, loop())
	if !strings.Contains(got54, "goto __continue") || !strings.Contains(got54, "::__continue::") {
		t.Errorf("Generate(5.4) = %q; want goto-based continue with end-of-loop label", got54)
	}
	got51 := generate(t, readable(Lua51), it, loop())
	if strings.Contains(got51, "goto") {
		t.Errorf("Generate(5.1) = %q; 5.1 has no goto to lower continue to", got51)
	}
}

func TestSpreadUnpackByTarget(t *testing.T) {
	it := intern.New()
	call := func() *lnast.CallExpr {
		return &lnast.CallExpr{
			Callee:  &lnast.IdentExpr{Name: it.Intern("f")},
			Args:    []lnast.Expression{&lnast.IdentExpr{Name: it.Intern("xs")}},
			Spreads: []bool{true},
		}
	}
	got54 := generate(t, readable(Lua54), it, &lnast.ExpressionStatement{Expr: call()})
	if !strings.Contains(got54, "table.unpack(xs)") {
		t.Errorf("Generate(5.4) = %q; want table.unpack", got54)
	}
	got51 := generate(t, readable(Lua51), it, &lnast.ExpressionStatement{Expr: call()})
	if !strings.Contains(got51, "unpack(xs)") || strings.Contains(got51, "table.unpack") {
		t.Errorf("Generate(5.1) = %q; want bare unpack", got51)
	}
}

func TestBitwiseByTarget(t *testing.T) {
	it := intern.New()
	band := func() *lnast.BinaryExpr {
		return &lnast.BinaryExpr{Op: lnast.BinBitAnd, Left: intLit("3"), Right: intLit("5")}
	}
	got53 := generate(t, readable(Lua53), it, constDecl(it.Intern("x"), band()))
	if !strings.Contains(got53, "(3 & 5)") {
		t.Errorf("Generate(5.3) = %q; want native bitwise operator", got53)
	}
	got52 := generate(t, readable(Lua52), it, constDecl(it.Intern("x"), band()))
	if !strings.Contains(got52, "bit32.band(3, 5)") {
		t.Errorf("Generate(5.2) = %q; want bit32 library call", got52)
	}
	got51 := generate(t, readable(Lua51), it, constDecl(it.Intern("x"), band()))
	if !strings.Contains(got51, "__bit_band(3, 5)") {
		t.Errorf("Generate(5.1) = %q; want helper-function call", got51)
	}
	if !strings.Contains(got51, "local __bit_band") {
		t.Errorf("Generate(5.1) = %q; bitwise use must inject the helper preamble", got51)
	}
}

func TestNewExprUsesClassNew(t *testing.T) {
	it := intern.New()
	decl := constDecl(it.Intern("p"), &lnast.NewExpr{
		Callee: &lnast.IdentExpr{Name: it.Intern("Point")},
		Args:   []lnast.Expression{intLit("1"), intLit("2")},
	})
	got := generate(t, readable(Lua54), it, decl)
	if !strings.Contains(got, "__class_new(Point, 1, 2)") {
		t.Errorf("Generate() = %q; want constructor dispatch through __class_new", got)
	}
}

func TestClassEmission(t *testing.T) {
	it := intern.New()
	cls := &lnast.ClassDecl{
		Name: it.Intern("Point"),
		Members: []lnast.ClassMember{{
			Name:     it.Intern("magnitude"),
			IsMethod: true,
			Method:   &lnast.FunctionExpr{IsMethod: true, Body: []lnast.Statement{&lnast.ReturnStatement{Values: []lnast.Expression{intLit("0")}}}},
		}},
	}
	got := generate(t, readable(Lua54), it, cls)
	for _, frag := range []string{"local Point = {}", "__class_new", "magnitude"} {
		if !strings.Contains(got, frag) {
			t.Errorf("Generate() = %q; missing %q", got, frag)
		}
	}
}

func TestInheritanceSetsParentIndex(t *testing.T) {
	it := intern.New()
	base := &lnast.ClassDecl{Name: it.Intern("Base")}
	derived := &lnast.ClassDecl{
		Name:    it.Intern("Derived"),
		Extends: &lnast.NamedType{Name: it.Intern("Base")},
	}
	got := generate(t, readable(Lua54), it, base, derived)
	if !strings.Contains(got, "local Derived = setmetatable({}, { __index = Base })") {
		t.Errorf("Generate() = %q; want derived class chained to Base via __index", got)
	}
}

func TestArrayDestructuringIndexesFromOne(t *testing.T) {
	it := intern.New()
	decl := &lnast.VariableDecl{
		Kind: lnast.VarConst,
		Pattern: &lnast.ArrayPattern{Elements: []lnast.ArrayElement{
			{Pattern: &lnast.IdentPattern{Name: it.Intern("a")}},
			{Pattern: &lnast.IdentPattern{Name: it.Intern("b")}},
		}},
		Init: &lnast.IdentExpr{Name: it.Intern("pair")},
	}
	got := generate(t, readable(Lua54), it, decl)
	for _, frag := range []string{"local __tmp1 = pair", "local a = __tmp1[1]", "local b = __tmp1[2]"} {
		if !strings.Contains(got, frag) {
			t.Errorf("Generate() = %q; missing %q", got, frag)
		}
	}
}

func TestGlobalDeclarationPrefix(t *testing.T) {
	it := intern.New()
	decl := func() *lnast.VariableDecl {
		return &lnast.VariableDecl{Kind: lnast.VarGlobal, Pattern: &lnast.IdentPattern{Name: it.Intern("g")}, Init: intLit("1")}
	}
	got55 := generate(t, readable(Lua55), it, decl())
	if !strings.Contains(got55, "global g = 1") {
		t.Errorf("Generate(5.5) = %q; want explicit global keyword", got55)
	}
	got54 := generate(t, readable(Lua54), it, decl())
	if !strings.Contains(got54, "g = 1") || strings.Contains(got54, "global ") || strings.Contains(got54, "local g") {
		t.Errorf("Generate(5.4) = %q; want bare assignment for a global", got54)
	}
}
