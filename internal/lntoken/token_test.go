// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lntoken

import "testing"

func TestPositionString(t *testing.T) {
	tests := []struct {
		pos  Position
		want string
	}{
		{Pos(3, 4), "3:4"},
		{Pos(3, 0), "3"},
	}
	for _, test := range tests {
		if got := test.pos.String(); got != test.want {
			t.Errorf("Pos(%d,%d).String() = %q; want %q", test.pos.Line, test.pos.Column, got, test.want)
		}
	}
}

func TestPosPanicsOnInvalidLine(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Pos(0, 1) did not panic; want panic for a non-positive line")
		}
	}()
	Pos(0, 1)
}

func TestSpanContains(t *testing.T) {
	outer := Span{StartByte: 0, EndByte: 20}
	inner := Span{StartByte: 5, EndByte: 10}
	if !outer.Contains(inner) {
		t.Error("Contains() = false; want outer span to contain inner span")
	}
	if inner.Contains(outer) {
		t.Error("Contains() = true; want inner span to not contain the larger outer span")
	}
}

func TestSpanOverlaps(t *testing.T) {
	a := Span{StartByte: 0, EndByte: 10}
	b := Span{StartByte: 5, EndByte: 15}
	c := Span{StartByte: 10, EndByte: 20}
	if !a.Overlaps(b) {
		t.Error("Overlaps() = false for overlapping spans a and b; want true")
	}
	if a.Overlaps(c) {
		t.Error("Overlaps() = true for adjacent, non-overlapping spans a and c; want false")
	}
}

func TestJoinCoversBothSpans(t *testing.T) {
	a := Span{StartByte: 5, EndByte: 10, Start: Pos(1, 6), End: Pos(1, 11)}
	b := Span{StartByte: 0, EndByte: 7, Start: Pos(1, 1), End: Pos(1, 8)}
	j := Join(a, b)
	if j.StartByte != 0 || j.EndByte != 10 {
		t.Errorf("Join() = [%d,%d]; want [0,10]", j.StartByte, j.EndByte)
	}
	if j.Start != Pos(1, 1) {
		t.Errorf("Join().Start = %v; want %v", j.Start, Pos(1, 1))
	}
}

func TestLookupKeywordFindsExactMatch(t *testing.T) {
	tests := []struct {
		text string
		want Kind
	}{
		{"function", Function},
		{"let", Let},
		{"type", Type},
		{"async", Error}, // not a keyword
	}
	for _, test := range tests {
		got, ok := LookupKeyword(test.text)
		if test.want == Error {
			if ok {
				t.Errorf("LookupKeyword(%q) = %v, true; want not-a-keyword", test.text, got)
			}
			continue
		}
		if !ok || got != test.want {
			t.Errorf("LookupKeyword(%q) = %v, %v; want %v, true", test.text, got, ok, test.want)
		}
	}
}

func TestLookupKeywordLengthBucketDoesNotCollide(t *testing.T) {
	// "do" (2) and "in" (2) share a length bucket; confirm both resolve
	// distinctly rather than one shadowing the other.
	do, ok := LookupKeyword("do")
	if !ok || do != Do {
		t.Errorf("LookupKeyword(%q) = %v, %v; want %v, true", "do", do, ok, Do)
	}
	in, ok := LookupKeyword("in")
	if !ok || in != In {
		t.Errorf("LookupKeyword(%q) = %v, %v; want %v, true", "in", in, ok, In)
	}
}

func TestIsKeywordBoundary(t *testing.T) {
	if !IsKeyword(Function) {
		t.Error("IsKeyword(Function) = false; want true")
	}
	if IsKeyword(Ident_) {
		t.Error("IsKeyword(Ident_) = true; want false")
	}
	if IsKeyword(Add) {
		t.Error("IsKeyword(Add) = true; want false for an operator kind")
	}
}

func TestAllKeywordsRoundTripThroughLookup(t *testing.T) {
	for text, kind := range Keywords {
		got, ok := LookupKeyword(text)
		if !ok || got != kind {
			t.Errorf("LookupKeyword(%q) = %v, %v; want %v, true", text, got, ok, kind)
		}
	}
}
