// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

// Package lnparser turns a LuaNext token stream into an arena-allocated
// [lnast.Program] by strict recursive descent with Pratt-style precedence
// climbing for expressions, grounded on the teacher's hand-written Lua
// parser (internal/luacode/parser.go in the retrieval pack): a single
// current/lookahead token pair, an advance/peek pair, and syntax errors
// raised through a dedicated helper — except here a parse error is a
// diagnostic reported to a [diag.Sink] and followed by [Parser.synchronize],
// not a hard failure, so compilation can continue past the first mistake.
package lnparser

import (
	"errors"
	"io"
	"strings"

	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/lnlex"
	"luanext.dev/compiler/internal/lntoken"
)

// depthLimit bounds recursive-descent recursion, mirroring the teacher's
// depthLimit (itself equivalent to LUAI_MAXCCALLS in upstream Lua).
const depthLimit = 200

var errDepthExceeded = errors.New("lnparser: recursion depth exceeded")

// tokenSource is anything the parser can pull tokens from: the live
// [lnlex.Scanner] for a fresh parse, or a fixed token slice when the parser
// re-enters a template-string hole or an incremental edit's dirty region
// (spec.md §4.2's "swap it in for the parser's token stream ... restore the
// stream").
type tokenSource interface {
	next() (lntoken.Token, error)
}

type scannerSource struct{ sc *lnlex.Scanner }

func (s scannerSource) next() (lntoken.Token, error) { return s.sc.Scan() }

type sliceSource struct {
	toks []lntoken.Token
	i    int
}

func (s *sliceSource) next() (lntoken.Token, error) {
	if s.i >= len(s.toks) {
		return lntoken.Token{Kind: lntoken.EOF}, nil
	}
	t := s.toks[s.i]
	s.i++
	return t, nil
}

// Parser is the in-progress state of a single [Parse] call (or a resumed
// incremental reparse; see incremental.go).
type Parser struct {
	src       tokenSource
	srcStack  []tokenSource
	currStack []lntoken.Token

	it   *intern.Interner
	sink *diag.Sink

	arena *lnast.Arena

	curr, peeked lntoken.Token
	havePeek     bool

	depth int

	// loopDepth counts enclosing loop constructs, for break/continue
	// placement checks (E2011/E2012).
	loopDepth int
	// labels collects ::name:: labels declared so far in the current
	// function, for goto-target validation (E2010).
	labels map[intern.StringId]bool
}

// New returns a Parser reading from r, interning identifiers with it and
// reporting diagnostics to sink. The returned Parser's arena owns every node
// it allocates.
func New(r io.ByteScanner, it *intern.Interner, sink *diag.Sink) *Parser {
	return NewInto(lnast.NewArena(), r, it, sink)
}

// NewInto is like [New] but allocates every node into arena instead of a
// freshly created one, so a caller pooling arenas (the LSP document cache)
// can reuse one instead of allocating.
func NewInto(arena *lnast.Arena, r io.ByteScanner, it *intern.Interner, sink *diag.Sink) *Parser {
	p := &Parser{
		it:     it,
		sink:   sink,
		arena:  arena,
		labels: make(map[intern.StringId]bool),
	}
	p.src = scannerSource{sc: lnlex.NewScanner(r, it, sink)}
	p.advance()
	return p
}

// Parse lexes and parses source in full, returning the resulting Program.
// Parse never fails outright: lexical and syntactic errors are reported to
// the sink and parsing recovers at the next statement boundary, per
// spec.md §4.2 and §7.
func Parse(source string, it *intern.Interner, sink *diag.Sink) *lnast.Program {
	return ParseInto(lnast.NewArena(), source, it, sink)
}

// ParseInto is like [Parse] but allocates every node into arena instead of
// a freshly created one.
func ParseInto(arena *lnast.Arena, source string, it *intern.Interner, sink *diag.Sink) *lnast.Program {
	p := NewInto(arena, strings.NewReader(source), it, sink)
	stmts := p.parseStatementsUntil(func() bool { return p.curr.Kind == lntoken.EOF })
	prog := &lnast.Program{
		Arena:      p.arena,
		Statements: p.arena.StatementSlice(stmts),
		Source:     source,
	}
	prog.ReindexSpans()
	return prog
}

// advance discards the current token and pulls the next one, either from
// the peek buffer or directly from the active source.
func (p *Parser) advance() {
	if p.havePeek {
		p.curr = p.peeked
		p.havePeek = false
		return
	}
	tok, err := p.src.next()
	if err != nil && !errors.Is(err, io.EOF) {
		tok = lntoken.Token{Kind: lntoken.EOF}
	}
	p.curr = tok
}

// peek returns the token after curr without consuming it.
func (p *Parser) peek() lntoken.Token {
	if !p.havePeek {
		tok, err := p.src.next()
		if err != nil && !errors.Is(err, io.EOF) {
			tok = lntoken.Token{Kind: lntoken.EOF}
		}
		p.peeked = tok
		p.havePeek = true
	}
	return p.peeked
}

// pushSource temporarily redirects token production to src, saving the
// current source, current token, and any buffered peek to restore later via
// popSource. Used to re-enter parsing on a template-string hole's pre-lexed
// token vector without disturbing the enclosing token stream's position.
func (p *Parser) pushSource(src tokenSource) {
	p.srcStack = append(p.srcStack, p.src)
	p.currStack = append(p.currStack, p.curr)
	p.src = src
	p.havePeek = false
}

// popSource restores the source and current token saved by the matching
// pushSource, discarding whatever the inner source left as curr (the hole's
// trailing EOF sentinel).
func (p *Parser) popSource() {
	n := len(p.srcStack)
	p.src = p.srcStack[n-1]
	p.srcStack = p.srcStack[:n-1]
	m := len(p.currStack)
	p.curr = p.currStack[m-1]
	p.currStack = p.currStack[:m-1]
	p.havePeek = false
}

// mark returns a checkpoint the parser can later roll back to via reset,
// used for tentative parses (arrow-function heads, generic call argument
// lists).
type checkpoint struct {
	toks []lntoken.Token
}

// mark begins recording every token advance returns from this point, so a
// failed tentative parse can replay them instead of re-lexing.
func (p *Parser) mark() *checkpoint {
	cp := &checkpoint{toks: []lntoken.Token{p.curr}}
	if p.havePeek {
		cp.toks = append(cp.toks, p.peeked)
	}
	rec := &recordingSource{inner: p.src, cp: cp}
	p.src = rec
	p.havePeek = false
	return cp
}

// reset rewinds the parser to the token recorded at mark time, replaying
// every token observed since.
func (p *Parser) reset(cp *checkpoint) {
	if rec, ok := p.src.(*recordingSource); ok {
		p.src = rec.inner
	}
	p.pushSource(&sliceSource{toks: cp.toks})
	p.advance()
}

// commit discards the checkpoint without rewinding; the recordingSource
// installed by mark unwraps itself back to the real source.
func (p *Parser) commit(cp *checkpoint) {
	if rec, ok := p.src.(*recordingSource); ok {
		p.src = rec.inner
	}
}

// recordingSource wraps another tokenSource, appending every token it
// produces to cp so a later reset can replay them verbatim.
type recordingSource struct {
	inner tokenSource
	cp    *checkpoint
}

func (r *recordingSource) next() (lntoken.Token, error) {
	tok, err := r.inner.next()
	if err == nil {
		r.cp.toks = append(r.cp.toks, tok)
	}
	return tok, err
}

// check reports whether curr has the given kind.
func (p *Parser) check(k lntoken.Kind) bool { return p.curr.Kind == k }

// accept consumes and returns true if curr has kind k, otherwise leaves curr
// untouched and returns false.
func (p *Parser) accept(k lntoken.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

// expect consumes curr if it has kind k; otherwise reports E2005 and leaves
// curr in place for the caller's recovery path to inspect.
func (p *Parser) expect(k lntoken.Kind) (lntoken.Token, bool) {
	if p.check(k) {
		tok := p.curr
		p.advance()
		return tok, true
	}
	p.sink.Reportf(diag.E2005, p.curr.Span, "expected %s, found %s", k, p.curr.Kind)
	return lntoken.Token{}, false
}

// checkMatch expects the closing delimiter close, reporting a pointer back
// to where the opening delimiter open was seen at openSpan if it's missing —
// mirroring the teacher's checkMatch, which blames the unmatched opener
// rather than just the current token when the two are on different lines.
func (p *Parser) checkMatch(openSpan lntoken.Span, open, close lntoken.Kind) {
	if p.accept(close) {
		return
	}
	if openSpan.Start.Line == p.curr.Span.Start.Line {
		p.sink.Reportf(diag.E2005, p.curr.Span, "%s expected, found %s", close, p.curr.Kind)
	} else {
		p.sink.Reportf(diag.E2005, p.curr.Span, "%s expected (to close %s at line %d), found %s",
			close, open, openSpan.Start.Line, p.curr.Kind)
	}
}

// identOrKeyword consumes curr as a [lnast.Ident], accepting either a plain
// identifier or a keyword used in a member/property position, per spec.md
// §4.1's parse_identifier_or_keyword path.
func (p *Parser) identOrKeyword() lnast.Ident {
	if p.check(lntoken.Ident_) || lntoken.IsKeyword(p.curr.Kind) {
		id := lnast.Ident{Name: p.curr.Name, Span: p.curr.Span}
		p.advance()
		return id
	}
	p.sink.Reportf(diag.E2005, p.curr.Span, "expected identifier, found %s", p.curr.Kind)
	return lnast.Ident{}
}

// ident consumes curr as a plain identifier; keywords are rejected in this
// position (variable-name positions never accept a keyword).
func (p *Parser) ident() lnast.Ident {
	if p.check(lntoken.Ident_) {
		id := lnast.Ident{Name: p.curr.Name, Span: p.curr.Span}
		p.advance()
		return id
	}
	p.sink.Reportf(diag.E2005, p.curr.Span, "expected identifier, found %s", p.curr.Kind)
	return lnast.Ident{}
}

// blockTerminators are the token kinds that end a keyword-delimited block
// without being consumed by it.
var blockTerminators = map[lntoken.Kind]bool{
	lntoken.EOF:     true,
	lntoken.End:     true,
	lntoken.Else:    true,
	lntoken.Elseif:  true,
	lntoken.Until:   true,
	lntoken.Catch:   true,
	lntoken.Finally: true,
	lntoken.RBrace:  true,
}

// statementStarters are token kinds that can legally begin a new statement;
// synchronize stops advancing once curr is one of these (or a terminator).
var statementStarters = map[lntoken.Kind]bool{
	lntoken.If: true, lntoken.While: true, lntoken.Do: true, lntoken.For: true,
	lntoken.Repeat: true, lntoken.Function: true, lntoken.Local: true,
	lntoken.Const: true, lntoken.Let: true, lntoken.Var: true, lntoken.Global: true,
	lntoken.Return: true, lntoken.Break: true, lntoken.Continue: true,
	lntoken.Class: true, lntoken.Interface: true, lntoken.Type: true,
	lntoken.Enum: true, lntoken.Namespace: true, lntoken.Import: true,
	lntoken.Export: true, lntoken.Throw: true, lntoken.Try: true,
	lntoken.Declare: true, lntoken.Semi: true, lntoken.Label: true,
	lntoken.Goto: true,
}

// synchronize discards tokens until curr looks like the start of a new
// statement or a block terminator, per spec.md §4.2's error-recovery
// contract.
func (p *Parser) synchronize() {
	for !blockTerminators[p.curr.Kind] && !statementStarters[p.curr.Kind] {
		p.advance()
	}
}

// enterDepth increments recursion depth, returning an error once depthLimit
// is exceeded; callers defer p.depth-- alongside checking the error.
func (p *Parser) enterDepth() error {
	p.depth++
	if p.depth > depthLimit {
		return errDepthExceeded
	}
	return nil
}

func (p *Parser) leaveDepth() { p.depth-- }

// parseStatementsUntil parses statements into a slice until done reports
// true, used both for the top-level Program and for any brace/keyword-
// delimited block body.
func (p *Parser) parseStatementsUntil(done func() bool) []lnast.Statement {
	var stmts []lnast.Statement
	for !done() && p.curr.Kind != lntoken.EOF {
		if err := p.enterDepth(); err != nil {
			p.sink.Reportf(diag.E2014, p.curr.Span, "expression nested too deeply")
			break
		}
		ss := p.parseStatement()
		p.leaveDepth()
		stmts = append(stmts, ss...)
	}
	return stmts
}

// blockStyle records which delimiter family opened a block, so its closer
// can be checked for a match (spec.md §4.2: "must surface a diagnostic when
// a block starts with one style and ends with another").
type blockStyle int

const (
	styleBrace blockStyle = iota
	styleKeyword
)

// parseBlockBody parses a block after its opening delimiter has already been
// consumed by the caller (the caller knows which keyword introduced it, e.g.
// `then`/`do`, or that a `{` was seen). closeKeyword is the keyword that
// would close a keyword-style block (lntoken.End in most cases); it is
// ignored when style is styleBrace.
func (p *Parser) parseBlockBody(openSpan lntoken.Span, style blockStyle, closeKeyword lntoken.Kind) []lnast.Statement {
	// Both closers terminate the scan so that a mismatched-style closer is
	// seen here and diagnosed as E2006 instead of being consumed as a
	// garbage expression token deeper in the block.
	if style == styleBrace {
		stmts := p.parseStatementsUntil(func() bool { return p.check(lntoken.RBrace) || p.check(closeKeyword) })
		if p.check(closeKeyword) {
			p.sink.Reportf(diag.E2006, p.curr.Span,
				"block opened with '{' cannot be closed with keyword %s", closeKeyword)
			p.advance()
			return stmts
		}
		p.checkMatch(openSpan, lntoken.LBrace, lntoken.RBrace)
		return stmts
	}
	stmts := p.parseStatementsUntil(func() bool { return p.check(closeKeyword) || p.check(lntoken.RBrace) })
	if p.check(lntoken.RBrace) {
		p.sink.Reportf(diag.E2006, p.curr.Span,
			"block opened with keyword cannot be closed with '}'")
		p.advance()
		return stmts
	}
	p.checkMatch(openSpan, closeKeyword, closeKeyword)
	return stmts
}

// parseBlock parses a brace- or keyword-delimited block, choosing the style
// from whichever opener is present. openKeyword is the keyword accepted in
// keyword style (e.g. Then, Do); closeKeyword is its matching closer (almost
// always End).
func (p *Parser) parseBlock(openKeyword, closeKeyword lntoken.Kind) []lnast.Statement {
	openSpan := p.curr.Span
	switch {
	case p.accept(lntoken.LBrace):
		return p.parseBlockBody(openSpan, styleBrace, closeKeyword)
	case p.accept(openKeyword):
		return p.parseBlockBody(openSpan, styleKeyword, closeKeyword)
	default:
		p.sink.Reportf(diag.E2005, p.curr.Span, "expected '{' or %s to start block, found %s", openKeyword, p.curr.Kind)
		return nil
	}
}

func joinSpan(start lntoken.Span, end lntoken.Span) lntoken.Span {
	return lntoken.Join(start, end)
}

// lastSpan returns the span of curr, used to close off a node whose end is
// "whatever was just consumed" without threading an explicit end position
// through every helper.
func (p *Parser) lastSpan() lntoken.Span { return p.curr.Span }
