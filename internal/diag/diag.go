// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

// Package diag provides the structured diagnostic sink used throughout the
// compiler pipeline. Diagnostics are never fatal on their own: each stage
// collects them on a [Sink] and keeps going, per spec.md §7.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"luanext.dev/compiler/internal/lntoken"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (sev Severity) String() string {
	switch sev {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "info"
	}
}

// Code is a four-digit diagnostic code, "E" followed by a family digit and
// three sequence digits: E00xx type, E10xx functions, E20xx lexer/parser,
// E30xx modules, E40xx generics, E50xx pattern matching, E60xx decorators,
// E70xx naming.
type Code string

const (
	E2001 Code = "E2001" // unexpected byte
	E2002 Code = "E2002" // unterminated string literal
	E2003 Code = "E2003" // unterminated template literal
	E2004 Code = "E2004" // unterminated template expression
	E2005 Code = "E2005" // expected token
	E2006 Code = "E2006" // mismatched block delimiter style
	E2007 Code = "E2007" // '=' where '==' was likely meant
	E2008 Code = "E2008" // invalid assignment target
	E2009 Code = "E2009" // duplicate label
	E2010 Code = "E2010" // goto to undefined label
	E2011 Code = "E2011" // break outside loop
	E2012 Code = "E2012" // continue outside loop
	E2013 Code = "E2013" // forward declaration without matching definition
	E2014 Code = "E2014" // unexpected token
	E2015 Code = "E2015" // invalid number literal
	E2016 Code = "E2016" // unclosed generic argument list
	E2017 Code = "E2017" // arrow function parameter list expected
	E2018 Code = "E2018" // invalid destructuring pattern
	E2019 Code = "E2019" // match arm missing body
	E2020 Code = "E2020" // empty parenthesized expression
	E2021 Code = "E2021" // rest parameter must be last

	E0001 Code = "E0001" // type mismatch
	E0002 Code = "E0002" // unknown type reference
	E0003 Code = "E0003" // excess property in object literal
	E0004 Code = "E0004" // abstract class instantiation

	E1001 Code = "E1001" // too few call arguments
	E1002 Code = "E1002" // return type mismatch
	E1003 Code = "E1003" // unused local variable
	E1004 Code = "E1004" // final method overridden

	E3001 Code = "E3001" // module not found
	E3002 Code = "E3002" // circular value import
	E3003 Code = "E3003" // re-export chain too deep
	E3004 Code = "E3004" // runtime import of type-only export
	E3005 Code = "E3005" // export type mismatch
	E3006 Code = "E3006" // type-check already in progress (circular)

	E4001 Code = "E4001" // generic arity mismatch

	E5001 Code = "E5001" // non-exhaustive match

	E6001 Code = "E6001" // unknown decorator

	E7001 Code = "E7001" // naming convention violation
)

// Fix is a suggested edit attached to a Diagnostic.
type Fix struct {
	Message     string
	Replacement string
	Span        lntoken.Span
}

// Diagnostic is one entry in a [Sink]: severity, code, span, message, and an
// optional fix-it suggestion, matching the structured sink described in
// spec.md §6.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Span     lntoken.Span
	Message  string
	Fix      *Fix
}

// New returns an [Error]-severity Diagnostic.
func New(code Code, span lntoken.Span, message string) Diagnostic {
	return Diagnostic{Severity: Error, Code: code, Span: span, Message: message}
}

// Warningf returns a [Warning]-severity Diagnostic.
func Warningf(code Code, span lntoken.Span, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Warning, Code: code, Span: span, Message: fmt.Sprintf(format, args...)}
}

// WithFix attaches a fix-it suggestion and returns d.
func (d Diagnostic) WithFix(message, replacement string, span lntoken.Span) Diagnostic {
	d.Fix = &Fix{Message: message, Replacement: replacement, Span: span}
	return d
}

// Error implements the error interface so a Diagnostic can be returned or
// wrapped directly from fallible APIs.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s [%s] %s", d.Span.Start, d.Severity, d.Code, d.Message)
}

// A Sink collects diagnostics for a single compilation unit (or the whole
// batch, for cross-module errors). The zero Sink is ready to use.
type Sink struct {
	diags []Diagnostic
}

// Report appends d to the sink.
func (s *Sink) Report(d Diagnostic) {
	s.diags = append(s.diags, d)
}

// Reportf is a convenience wrapper around [New] and [Sink.Report].
func (s *Sink) Reportf(code Code, span lntoken.Span, format string, args ...any) {
	s.Report(New(code, span, fmt.Sprintf(format, args...)))
}

// All returns every diagnostic reported so far, in report order.
func (s *Sink) All() []Diagnostic {
	return s.diags
}

// HasErrors reports whether any reported diagnostic has [Error] severity.
func (s *Sink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Len returns the number of diagnostics reported.
func (s *Sink) Len() int { return len(s.diags) }

// Sorted returns a copy of the diagnostics ordered by span start, then
// code, for deterministic output.
func (s *Sink) Sorted() []Diagnostic {
	out := append([]Diagnostic(nil), s.diags...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Span.StartByte != out[j].Span.StartByte {
			return out[i].Span.StartByte < out[j].Span.StartByte
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// PrettyPrint renders diagnostics with a source code frame: the offending
// line plus a caret under the span, matching the "pretty by default"
// behavior in spec.md §7. Pass plain=true for the CI-friendly one-line-per-
// diagnostic form.
func PrettyPrint(w *strings.Builder, source string, ds []Diagnostic, plain bool) {
	lines := strings.Split(source, "\n")
	for _, d := range ds {
		if plain {
			fmt.Fprintf(w, "%s: %s [%s] %s\n", d.Span.Start, d.Severity, d.Code, d.Message)
			continue
		}
		fmt.Fprintf(w, "%s: %s [%s] %s\n", d.Span.Start, d.Severity, d.Code, d.Message)
		if li := d.Span.Start.Line - 1; li >= 0 && li < len(lines) {
			fmt.Fprintf(w, "  %4d | %s\n", d.Span.Start.Line, lines[li])
			caretCol := max(d.Span.Start.Column-1, 0)
			fmt.Fprintf(w, "       | %s^\n", strings.Repeat(" ", caretCol))
		}
		if d.Fix != nil {
			fmt.Fprintf(w, "  help: %s\n", d.Fix.Message)
		}
	}
}
