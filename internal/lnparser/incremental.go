// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnparser

import (
	"errors"
	"io"
	"sort"
	"strings"

	"luanext.dev/compiler/internal/bufseek"
	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/fxhash"
	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/lnlex"
	"luanext.dev/compiler/internal/lntoken"
)

// maxLiveArenas bounds how many arenas a [Session] keeps alive at once
// before dropping the oldest, per spec.md §4.2's multi-arena policy.
const maxLiveArenas = 3

// consolidateInterval is how often (in successful reparses) a [Session]
// deep-clones its cached statements into one fresh arena, per spec.md §4.2.
const consolidateInterval = 10

// Edit describes one source-text replacement for [Session.Reparse], with
// Start and End as byte offsets into the *prior* source text.
type Edit struct {
	Start, End  int
	Replacement string
}

// Session holds the state an editor keeps across incremental reparses of one
// open document: the live Program, the arenas still reachable from it or
// from statements cached during a reparse, and the parse count driving the
// consolidation policy.
type Session struct {
	it   *intern.Interner
	sink *diag.Sink

	prog   *lnast.Program
	arenas []*lnast.Arena
	parses int
}

// NewSession starts a fresh incremental-parse session by fully parsing
// source (path 1 of spec.md §4.2's three incremental-reparse paths).
func NewSession(source string, it *intern.Interner, sink *diag.Sink) *Session {
	prog := Parse(source, it, sink)
	return &Session{
		it:     it,
		sink:   sink,
		prog:   prog,
		arenas: []*lnast.Arena{prog.Arena},
		parses: 1,
	}
}

// Program returns the session's current parse result.
func (s *Session) Program() *lnast.Program { return s.prog }

// Arenas returns every arena the session currently keeps alive. Callers
// that retire a whole Session (e.g. the LSP document cache, on
// textDocument/didClose) can hand these to an arena pool for reuse once
// they're certain nothing still borrows into them.
func (s *Session) Arenas() []*lnast.Arena {
	return append([]*lnast.Arena(nil), s.arenas...)
}

// Reparse applies edits (given in the byte coordinates of s.Program().Source)
// and returns the resulting Program, following spec.md §4.2's three paths:
// unchanged text is returned verbatim with zero work; otherwise statements
// whose span does not overlap any edit are reused as-is, and the region
// spanning the edits is re-lexed and re-parsed in isolation.
func (s *Session) Reparse(edits []Edit) *lnast.Program {
	if len(edits) == 0 {
		return s.prog
	}
	sorted := append([]Edit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	newSource := applyEdits(s.prog.Source, sorted)
	if fxhash.Sum64String(newSource) == fxhash.Sum64String(s.prog.Source) {
		return s.prog
	}

	next := s.reparseEdited(newSource, sorted)
	s.prog = next
	s.arenas = append(s.arenas, next.Arena)
	if len(s.arenas) > maxLiveArenas {
		s.arenas = s.arenas[len(s.arenas)-maxLiveArenas:]
	}
	s.parses++
	if s.parses%consolidateInterval == 0 {
		s.consolidate()
	}
	return s.prog
}

// applyEdits returns the source text that results from applying sorted
// (already sorted by Start, per spec.md's "ordered list of edits") to src.
func applyEdits(src string, sorted []Edit) string {
	var b strings.Builder
	cursor := 0
	for _, e := range sorted {
		if e.Start > cursor {
			b.WriteString(src[cursor:e.Start])
		}
		b.WriteString(e.Replacement)
		cursor = e.End
	}
	if cursor < len(src) {
		b.WriteString(src[cursor:])
	}
	return b.String()
}

// mapOldToNew translates a byte offset in the pre-edit source to the
// corresponding offset in the post-edit source, given sorted edits already
// applied. Offsets at or before every edit are unaffected; an offset past an
// edit shifts by that edit's length delta.
func mapOldToNew(sorted []Edit, pos int) int {
	out := pos
	for _, e := range sorted {
		if e.End <= pos {
			out += len(e.Replacement) - (e.End - e.Start)
		}
	}
	return out
}

// dirtyRun is a contiguous range of statement indices whose spans overlap at
// least one edit.
type dirtyRun struct {
	first, last int // inclusive statement indices
}

// reparseEdited implements path 3 of spec.md §4.2: it classifies every
// cached statement as clean or dirty, re-lexes and re-parses each dirty
// region in isolation (swapping in a range-limited token slice, per the
// parser's pushSource/popSource mechanism), and splices the results back
// into source order. Clean statements are reused verbatim, stale byte
// offsets and all, per spec.md's open question on that tradeoff.
func (s *Session) reparseEdited(newSource string, sorted []Edit) *lnast.Program {
	prior := s.prog
	dirty := make([]bool, len(prior.Statements))
	for i, span := range prior.StatementSpans {
		for _, e := range sorted {
			if spanOverlapsEdit(span, e) {
				dirty[i] = true
				break
			}
		}
	}

	var runs []dirtyRun
	i := 0
	for i < len(dirty) {
		if !dirty[i] {
			i++
			continue
		}
		j := i
		for j+1 < len(dirty) && dirty[j+1] {
			j++
		}
		runs = append(runs, dirtyRun{first: i, last: j})
		i = j + 1
	}

	// An edit that lands entirely outside every cached statement (e.g. an
	// append past the last statement, or an insert before the first one on
	// an otherwise-untouched file) still needs a parse pass; synthesize a
	// zero-width run anchored at the nearest boundary so its region is
	// covered below.
	if len(runs) == 0 {
		runs = append(runs, syntheticRun(prior, sorted))
	}

	fresh := lnast.NewArena()
	var out []lnast.Statement
	cursor := 0
	for _, run := range runs {
		out = append(out, prior.Statements[cursor:run.first]...)

		oldStart, oldEnd := runBounds(prior, run, sorted)
		newStart := mapOldToNew(sorted, oldStart)
		newEnd := mapOldToNew(sorted, oldEnd)
		if newEnd > len(newSource) {
			newEnd = len(newSource)
		}
		if newStart > newEnd {
			newStart = newEnd
		}

		reparsed := s.reparseRegion(fresh, newSource, newStart, newEnd)
		out = append(out, reparsed...)
		cursor = run.last + 1
	}
	out = append(out, prior.Statements[cursor:]...)

	prog := &lnast.Program{
		Arena:      fresh,
		Statements: fresh.StatementSlice(out),
		Source:     newSource,
	}
	prog.ReindexSpans()
	return prog
}

func spanOverlapsEdit(span lntoken.Span, e Edit) bool {
	if e.Start == e.End {
		// Pure insertion: dirties the statement it falls inside (including
		// at either boundary, to be conservative about reused stale spans).
		return span.StartByte <= e.Start && e.Start <= span.EndByte
	}
	return span.StartByte < e.End && e.Start < span.EndByte
}

// syntheticRun anchors a dirty region when no cached statement overlaps any
// edit — e.g. appending text after the last statement.
func syntheticRun(prior *lnast.Program, sorted []Edit) dirtyRun {
	if len(prior.Statements) == 0 {
		return dirtyRun{first: 0, last: -1}
	}
	last := len(prior.Statements) - 1
	return dirtyRun{first: last + 1, last: last}
}

// runBounds returns the old-source byte range a dirty run's re-lex should
// cover: the union of its statements' spans, extended to cover every edit
// that overlaps it (an edit can extend past the statements it touches, e.g.
// inserting a brand-new trailing statement).
func runBounds(prior *lnast.Program, run dirtyRun, sorted []Edit) (start, end int) {
	if run.first <= run.last {
		start = prior.StatementSpans[run.first].StartByte
		end = prior.StatementSpans[run.last].EndByte
	} else if run.first > 0 && run.first <= len(prior.Statements) {
		start = prior.StatementSpans[run.first-1].EndByte
		end = start
	} else {
		start, end = 0, len(prior.Source)
	}
	for _, e := range sorted {
		if e.Start < end && e.End > start || (e.Start == e.End && e.Start >= start && e.Start <= end) {
			if e.Start < start {
				start = e.Start
			}
			if e.End > end {
				end = e.End
			}
		}
	}
	if end > len(prior.Source) {
		end = len(prior.Source)
	}
	return start, end
}

// reparseRegion re-lexes newSource[start:end) into a standalone token slice
// with spans shifted to absolute positions, then swaps it in as the active
// token source and parses statements from it until exhausted, per spec.md
// §4.2 ("swap it in for the parser's token stream ... restore the stream").
func (s *Session) reparseRegion(fresh *lnast.Arena, newSource string, start, end int) []lnast.Statement {
	toks := lexRegion(newSource, start, end, s.it, s.sink)

	p := &Parser{
		it:     s.it,
		sink:   s.sink,
		arena:  fresh,
		labels: make(map[intern.StringId]bool),
	}
	p.pushSource(&sliceSource{toks: toks})
	p.advance()
	return p.parseStatementsUntil(func() bool { return p.curr.Kind == lntoken.EOF })
}

// regionScanner adapts a [bufseek.Reader] positioned at a dirty region's
// start into the [io.ByteScanner] the lexer consumes, refusing to read past
// the region's end so the re-lex stays range-limited. UnreadByte rewinds
// through an absolute Seek on the reader, which is what distinguishes
// bufseek from a plain bufio.Reader here.
type regionScanner struct {
	r   *bufseek.Reader
	pos int64 // absolute offset of the next unread byte
	end int64
}

func (rs *regionScanner) ReadByte() (byte, error) {
	if rs.pos >= rs.end {
		return 0, io.EOF
	}
	b, err := rs.r.ReadByte()
	if err == nil {
		rs.pos++
	}
	return b, err
}

func (rs *regionScanner) UnreadByte() error {
	if _, err := rs.r.Seek(rs.pos-1, io.SeekStart); err != nil {
		return err
	}
	rs.pos--
	return nil
}

// lexRegion lexes src[start:end) in isolation — reading the bytes through a
// range-limited [bufseek.Reader] over the full source rather than slicing a
// copy out of it — and shifts every token's span so it reads as if the
// region still sat inside its enclosing source.
func lexRegion(src string, start, end int, it *intern.Interner, sink *diag.Sink) []lntoken.Token {
	br := bufseek.NewReader(strings.NewReader(src))
	if _, err := br.Seek(int64(start), io.SeekStart); err != nil {
		return []lntoken.Token{{Kind: lntoken.EOF}}
	}
	basePos := positionAt(src, start)
	sc := lnlex.NewScanner(&regionScanner{r: br, pos: int64(start), end: int64(end)}, it, sink)
	var toks []lntoken.Token
	for {
		tok, err := sc.Scan()
		if err != nil && !errors.Is(err, io.EOF) {
			tok = lntoken.Token{Kind: lntoken.EOF}
		}
		tok.Span = shiftSpan(tok.Span, start, basePos)
		toks = append(toks, tok)
		if tok.Kind == lntoken.EOF {
			break
		}
	}
	return toks
}

// shiftSpan translates span, which was produced by lexing a substring
// starting at byte byteOffset and text position basePos, back into the
// coordinates of the full source it was carved from.
func shiftSpan(span lntoken.Span, byteOffset int, basePos lntoken.Position) lntoken.Span {
	span.StartByte += byteOffset
	span.EndByte += byteOffset
	span.Start = addPos(basePos, span.Start)
	span.End = addPos(basePos, span.End)
	return span
}

// addPos composes a relative position (1-based, as produced by lexing a
// standalone substring) onto base, the absolute position of the substring's
// first byte.
func addPos(base, rel lntoken.Position) lntoken.Position {
	if rel.Line <= 1 {
		return lntoken.Position{Line: base.Line, Column: base.Column + rel.Column - 1}
	}
	return lntoken.Position{Line: base.Line + rel.Line - 1, Column: rel.Column}
}

// positionAt returns the 1-based line/column of byte offset in src.
func positionAt(src string, offset int) lntoken.Position {
	if offset > len(src) {
		offset = len(src)
	}
	line := 1
	lastNL := -1
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			lastNL = i
		}
	}
	return lntoken.Position{Line: line, Column: offset - lastNL}
}

// consolidate deep-clones every statement in the current Program into one
// fresh arena and drops every other live arena, per spec.md §4.2's
// every-K-parses consolidation pass. Cloned data is fully owned by the fresh
// arena (or, for composite-struct slices the arena doesn't pool directly,
// by freshly allocated Go slices) before the old arenas are released, so the
// pass is memory-safe even while readers may still hold the prior Program.
func (s *Session) consolidate() {
	fresh := lnast.NewArena()
	cloned := lnast.CloneStatements(fresh, s.prog.Statements)
	prog := &lnast.Program{
		Arena:      fresh,
		Statements: fresh.StatementSlice(cloned),
		Source:     s.prog.Source,
	}
	prog.ReindexSpans()
	s.prog = prog
	s.arenas = []*lnast.Arena{fresh}
}
