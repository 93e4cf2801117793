// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package diag

import (
	"strings"
	"testing"

	"luanext.dev/compiler/internal/lntoken"
)

func span(line, col, startByte, endByte int) lntoken.Span {
	return lntoken.Span{
		StartByte: startByte,
		EndByte:   endByte,
		Start:     lntoken.Pos(line, col),
		End:       lntoken.Pos(line, col+(endByte-startByte)),
	}
}

func TestSinkHasErrorsOnlyForErrorSeverity(t *testing.T) {
	var s Sink
	s.Report(Warningf(E1003, span(1, 1, 0, 1), "unused local %q", "x"))
	if s.HasErrors() {
		t.Error("HasErrors() = true after only a warning; want false")
	}
	s.Report(New(E0001, span(2, 1, 10, 11), "type mismatch"))
	if !s.HasErrors() {
		t.Error("HasErrors() = false after an error-severity diagnostic; want true")
	}
}

func TestSinkLenAndAll(t *testing.T) {
	var s Sink
	s.Reportf(E2001, span(1, 1, 0, 1), "unexpected byte %q", '@')
	s.Reportf(E2005, span(1, 2, 1, 2), "expected %s", "';'")
	if s.Len() != 2 {
		t.Fatalf("Len() = %d; want 2", s.Len())
	}
	if len(s.All()) != 2 {
		t.Fatalf("len(All()) = %d; want 2", len(s.All()))
	}
}

func TestSinkSortedOrdersByByteOffsetThenCode(t *testing.T) {
	var s Sink
	s.Report(New(E2005, span(1, 5, 20, 21), "second"))
	s.Report(New(E2001, span(1, 1, 0, 1), "first"))
	s.Report(New(E0001, span(1, 1, 0, 1), "tied-offset, lower code"))

	sorted := s.Sorted()
	if len(sorted) != 3 {
		t.Fatalf("Sorted() returned %d diagnostics; want 3", len(sorted))
	}
	if sorted[0].Code != E0001 || sorted[1].Code != E2001 {
		t.Errorf("Sorted()[:2] codes = %v, %v; want %v first (tied offset, lower code) then %v", sorted[0].Code, sorted[1].Code, E0001, E2001)
	}
	if sorted[2].Code != E2005 {
		t.Errorf("Sorted()[2].Code = %v; want %v", sorted[2].Code, E2005)
	}
}

func TestSortedDoesNotMutateOriginalOrder(t *testing.T) {
	var s Sink
	s.Report(New(E2005, span(1, 5, 20, 21), "b"))
	s.Report(New(E2001, span(1, 1, 0, 1), "a"))
	_ = s.Sorted()
	all := s.All()
	if all[0].Code != E2005 {
		t.Error("Sorted() mutated the underlying report order; want All() unaffected")
	}
}

func TestWithFixAttachesFix(t *testing.T) {
	d := New(E2007, span(1, 1, 0, 1), "'=' where '==' was likely meant").
		WithFix("use '=='", "==", span(1, 1, 0, 1))
	if d.Fix == nil || d.Fix.Replacement != "==" {
		t.Errorf("WithFix() did not attach the fix; got %+v", d.Fix)
	}
}

func TestDiagnosticErrorFormatsSpanSeverityCode(t *testing.T) {
	d := New(E0001, span(3, 4, 0, 1), "type mismatch")
	got := d.Error()
	for _, want := range []string{"3:4", "error", "E0001", "type mismatch"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q; want it to contain %q", got, want)
		}
	}
}

func TestPrettyPrintPlainIsOneLinePerDiagnostic(t *testing.T) {
	ds := []Diagnostic{New(E2001, span(1, 1, 0, 1), "unexpected byte")}
	var sb strings.Builder
	PrettyPrint(&sb, "local x = 1\n", ds, true)
	out := sb.String()
	if strings.Count(out, "\n") != 1 {
		t.Errorf("PrettyPrint(plain=true) produced %d lines; want exactly 1", strings.Count(out, "\n"))
	}
}

func TestPrettyPrintShowsSourceFrame(t *testing.T) {
	ds := []Diagnostic{New(E2001, span(1, 7, 6, 7), "unexpected byte")}
	var sb strings.Builder
	PrettyPrint(&sb, "local @ = 1\n", ds, false)
	out := sb.String()
	if !strings.Contains(out, "local @ = 1") {
		t.Errorf("PrettyPrint() = %q; want it to echo the offending source line", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("PrettyPrint() = %q; want a caret marking the column", out)
	}
}

func TestPrettyPrintIncludesFixHelp(t *testing.T) {
	ds := []Diagnostic{
		New(E2007, span(1, 1, 0, 1), "'=' where '==' was likely meant").WithFix("use '=='", "==", span(1, 1, 0, 1)),
	}
	var sb strings.Builder
	PrettyPrint(&sb, "if x = 1 then end\n", ds, false)
	if !strings.Contains(sb.String(), "help: use '=='") {
		t.Errorf("PrettyPrint() = %q; want it to render the fix-it help text", sb.String())
	}
}

func TestSeverityStringValues(t *testing.T) {
	tests := []struct {
		sev  Severity
		want string
	}{
		{Error, "error"},
		{Warning, "warning"},
		{Info, "info"},
	}
	for _, test := range tests {
		if got := test.sev.String(); got != test.want {
			t.Errorf("Severity(%d).String() = %q; want %q", test.sev, got, test.want)
		}
	}
}
