// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnast

import (
	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lntoken"
)

// Span and Ident are re-exported from lntoken so that every package that
// consumes an AST only needs to import lnast.
type Span = lntoken.Span
type Ident = lntoken.Ident

// Program is the root of a parsed module: an ordered sequence of top-level
// Statements, its owning Arena, and a statement-index side table used by
// incremental reparse to locate a statement's byte range without walking
// the tree.
type Program struct {
	Arena      *Arena
	Statements []Statement
	// StatementSpans[i] is Statements[i].NodeSpan(); kept denormalized so
	// the incremental parser can binary-search for edited statements
	// without re-deriving spans from the tree on every edit.
	StatementSpans []Span
	// Source is the full source text this Program was parsed from. Kept
	// so that range-limited incremental reparse can slice out dirty
	// regions.
	Source string
}

// ReindexSpans rebuilds StatementSpans from Statements. Callers that mutate
// Statements directly (the optimizer's MutableProgram collapses back into a
// Program before codegen) must call this before relying on the side table.
func (p *Program) ReindexSpans() {
	p.StatementSpans = make([]Span, len(p.Statements))
	for i, s := range p.Statements {
		p.StatementSpans[i] = s.NodeSpan()
	}
}

// Node is implemented by every AST entity; it exposes the span every node
// carries per spec.md §3.4.
type Node interface {
	NodeSpan() Span
}

// base is embedded in every concrete node type to provide its Span without
// repeating the field and accessor on every type.
type base struct {
	Span Span
}

func (b base) NodeSpan() Span { return b.Span }

// Statement is implemented by every statement variant (30+, per spec.md
// §3.3): declarations, control flow, module statements, exception
// statements, blocks, expression statements, and multi-assignment.
type Statement interface {
	Node
	stmtNode()
}

// Expression is implemented by every expression variant. Two fields are
// post-parse analysis slots: AnnotatedType, which the type checker fills
// in, and ReceiverClassInfo, which no checker phase writes, so it stays
// nil. They are exposed through the interface so every expression kind
// shares one analysis-result surface.
type Expression interface {
	Node
	exprNode()
	// Analysis returns the post-parse analysis slots, initially both nil.
	Analysis() *ExprAnalysis
}

// ExprAnalysis holds the two analysis slots. The checker fills in
// AnnotatedType during phase 4 (inference); ReceiverClassInfo is not
// written by the checker. Both are nil immediately after parsing.
type ExprAnalysis struct {
	AnnotatedType     any // *typesys.Type, kept as any to avoid an import cycle
	ReceiverClassInfo any // *typesys.ClassInfo
}

type exprBase struct {
	base
	analysis ExprAnalysis
}

func (e *exprBase) exprNode() {}
func (e *exprBase) Analysis() *ExprAnalysis {
	return &e.analysis
}

// Type is implemented by every type-annotation variant (primitive, literal,
// union, intersection, nullable, array, tuple, object, function, named
// reference, type-query, keyof, indexed-access, conditional, mapped,
// template-literal, parenthesized, predicate, variadic).
type Type interface {
	Node
	typeNode()
}

type typeBase struct{ base }

func (t typeBase) typeNode() {}

// Pattern is implemented by every destructuring pattern variant.
type Pattern interface {
	Node
	patternNode()
}

type patternBase struct{ base }

func (p patternBase) patternNode() {}

// Name is a convenience alias so callers need not import intern directly
// just to spell out a StringId.
type Name = intern.StringId
