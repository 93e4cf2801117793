// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnlex

import (
	"bytes"
	"io"
	"testing"

	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lntoken"
)

func scanAll(t *testing.T, src string) ([]lntoken.Token, *intern.Interner, *diag.Sink) {
	t.Helper()
	it := intern.New()
	sink := new(diag.Sink)
	s := NewScanner(bytes.NewReader([]byte(src)), it, sink)
	var toks []lntoken.Token
	for {
		tok, err := s.Scan()
		if err != nil && err != io.EOF {
			t.Fatalf("Scan() error on %q: %v", src, err)
		}
		toks = append(toks, tok)
		if tok.Kind == lntoken.EOF {
			break
		}
	}
	return toks, it, sink
}

func kinds(toks []lntoken.Token) []lntoken.Kind {
	out := make([]lntoken.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestScanIdentifiersAndKeywords(t *testing.T) {
	toks, it, _ := scanAll(t, "let x = foo")
	got := kinds(toks)
	want := []lntoken.Kind{lntoken.Let, lntoken.Ident_, lntoken.Assign, lntoken.Ident_, lntoken.EOF}
	if len(got) != len(want) {
		t.Fatalf("Scan() kinds = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Scan() kinds[%d] = %v; want %v", i, got[i], want[i])
		}
	}
	name, ok := it.Resolve(toks[1].Name)
	if !ok || name != "x" {
		t.Errorf("identifier token resolved to %q, %v; want %q, true", name, ok, "x")
	}
}

func TestScanOperators(t *testing.T) {
	tests := []struct {
		src  string
		want lntoken.Kind
	}{
		{"==", lntoken.Equal},
		{"~=", lntoken.NotEqual},
		{"<=", lntoken.LessEqual},
		{">=", lntoken.GreaterEqual},
		{"->", lntoken.Arrow},
		{"=>", lntoken.FatArrow},
		{"|>", lntoken.Pipe},
		{"?.", lntoken.QuestionDot},
		{"??", lntoken.QuestionQuestion},
		{"+=", lntoken.AddAssign},
	}
	for _, test := range tests {
		toks, _, sink := scanAll(t, test.src)
		if sink.HasErrors() {
			t.Errorf("Scan(%q) reported errors; want none", test.src)
			continue
		}
		if len(toks) < 1 || toks[0].Kind != test.want {
			t.Errorf("Scan(%q)[0].Kind = %v; want %v", test.src, toks[0].Kind, test.want)
		}
	}
}

func TestScanDotVsVarargVsConcat(t *testing.T) {
	tests := []struct {
		src  string
		want lntoken.Kind
	}{
		{".", lntoken.Dot},
		{"..", lntoken.Concat},
		{"...", lntoken.Vararg},
	}
	for _, test := range tests {
		toks, _, _ := scanAll(t, test.src)
		if toks[0].Kind != test.want {
			t.Errorf("Scan(%q)[0].Kind = %v; want %v", test.src, toks[0].Kind, test.want)
		}
	}
}

func TestScanLineComment(t *testing.T) {
	toks, _, _ := scanAll(t, "local x -- a comment\nlocal y")
	got := kinds(toks)
	want := []lntoken.Kind{lntoken.Local, lntoken.Ident_, lntoken.Local, lntoken.Ident_, lntoken.EOF}
	if len(got) != len(want) {
		t.Fatalf("Scan() with trailing line comment = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Scan() kinds[%d] = %v; want %v", i, got[i], want[i])
		}
	}
}

func TestScanShortString(t *testing.T) {
	toks, _, sink := scanAll(t, `"hello\nworld"`)
	if sink.HasErrors() {
		t.Fatalf("Scan() reported errors: %v", sink.All())
	}
	if toks[0].Kind != lntoken.String {
		t.Fatalf("Scan() kind = %v; want %v", toks[0].Kind, lntoken.String)
	}
	if toks[0].Text != "hello\nworld" {
		t.Errorf("Scan() decoded text = %q; want %q", toks[0].Text, "hello\nworld")
	}
}

func TestScanUnterminatedStringReportsError(t *testing.T) {
	_, _, sink := scanAll(t, `"unterminated`)
	if !sink.HasErrors() {
		t.Error("Scan() on an unterminated string reported no errors; want one")
	}
}

func TestScanNumber(t *testing.T) {
	tests := []string{"42", "3.14", "0x1F", ".5"}
	for _, src := range tests {
		toks, _, sink := scanAll(t, src)
		if sink.HasErrors() {
			t.Errorf("Scan(%q) reported errors: %v", src, sink.All())
			continue
		}
		if toks[0].Kind != lntoken.Number {
			t.Errorf("Scan(%q)[0].Kind = %v; want %v", src, toks[0].Kind, lntoken.Number)
		}
	}
}

func TestScanTemplateStringHoles(t *testing.T) {
	toks, it, sink := scanAll(t, "`a${x}b`")
	if sink.HasErrors() {
		t.Fatalf("Scan() reported errors: %v", sink.All())
	}
	tok := toks[0]
	if tok.Kind != lntoken.TemplateStringToken {
		t.Fatalf("Scan() kind = %v; want %v", tok.Kind, lntoken.TemplateStringToken)
	}
	if tok.Template == nil {
		t.Fatal("Scan() template token has nil Template")
	}
	if len(tok.Template.Quasis) != 2 || tok.Template.Quasis[0] != "a" || tok.Template.Quasis[1] != "b" {
		t.Errorf("Template.Quasis = %v; want [a b]", tok.Template.Quasis)
	}
	if len(tok.Template.Exprs) != 1 || len(tok.Template.Exprs[0]) < 1 {
		t.Fatalf("Template.Exprs = %v; want one hole with at least one token", tok.Template.Exprs)
	}
	holeTok := tok.Template.Exprs[0][0]
	if holeTok.Kind != lntoken.Ident_ {
		t.Fatalf("first hole token kind = %v; want %v", holeTok.Kind, lntoken.Ident_)
	}
	name, ok := it.Resolve(holeTok.Name)
	if !ok || name != "x" {
		t.Errorf("hole identifier resolved to %q, %v; want %q, true", name, ok, "x")
	}
}

func TestScanEmptySourceYieldsEOF(t *testing.T) {
	toks, _, _ := scanAll(t, "")
	if len(toks) != 1 || toks[0].Kind != lntoken.EOF {
		t.Errorf("Scan() on empty source = %v; want a single EOF token", toks)
	}
}

func TestScanMinusVsDecrementLikeSequence(t *testing.T) {
	toks, _, _ := scanAll(t, "a -= 1")
	got := kinds(toks)
	want := []lntoken.Kind{lntoken.Ident_, lntoken.SubAssign, lntoken.Number, lntoken.EOF}
	if len(got) != len(want) {
		t.Fatalf("Scan(\"a -= 1\") = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Scan() kinds[%d] = %v; want %v", i, got[i], want[i])
		}
	}
}

func TestParseIdentifierOrKeywordAllowsKeywordAsMemberName(t *testing.T) {
	it := intern.New()
	id := ParseIdentifierOrKeyword(it, "type")
	name, ok := it.Resolve(id)
	if !ok || name != "type" {
		t.Errorf("ParseIdentifierOrKeyword(%q) resolved to %q, %v; want %q, true", "type", name, ok, "type")
	}
}
