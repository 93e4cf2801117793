// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package codegen

import (
	"fmt"
	"io"
	"strings"

	"luanext.dev/compiler/internal/bytewriter"
	"luanext.dev/compiler/internal/xio"
)

// Format controls the emitter's whitespace density (spec.md §4.7).
type Format int

const (
	Readable Format = iota
	Compact
	Minified
)

// Mapping is one Source Map v3 segment: the generated position this
// semantic node started at, paired with its original-source position.
type Mapping struct {
	GeneratedLine, GeneratedCol int
	SourceIndex                 int
	SourceLine, SourceCol       int
	NameIndex                   int // -1 if this mapping carries no name
}

// Emitter appends Lua source text with tracked indentation; depth changes
// via Indent/Dedent and every NewLine call applies the current depth,
// matching the three output formats' differing whitespace rules.
type Emitter struct {
	// b is a seekable byte buffer rather than a plain strings.Builder so
	// String can rewind and drain it through WriteTo without a second
	// allocation; counted tracks total bytes written for Size,
	// independently of b's own notion of position.
	b           bytewriter.Buffer
	counted     xio.WriteCounter
	format      Format
	depth       int
	line        int
	col         int
	atLineStart bool

	Mappings []Mapping
}

// NewEmitter returns an Emitter configured for format.
func NewEmitter(format Format) *Emitter {
	return &Emitter{format: format, line: 0, col: 0, atLineStart: true}
}

// write appends s to both the byte buffer and the running size counter.
func (e *Emitter) write(s string) {
	mw := io.MultiWriter(&e.b, &e.counted)
	io.WriteString(mw, s)
}

// Size returns the total number of bytes emitted so far.
func (e *Emitter) Size() int64 { return int64(e.counted) }

// Indent increases the tracked indentation depth by one level.
func (e *Emitter) Indent() { e.depth++ }

// Dedent decreases the tracked indentation depth by one level.
func (e *Emitter) Dedent() {
	if e.depth > 0 {
		e.depth--
	}
}

func (e *Emitter) indentString() string {
	if e.format != Readable {
		return ""
	}
	return strings.Repeat("  ", e.depth)
}

// WriteString appends s verbatim, emitting the current indentation first if
// the writer is at the start of a line.
func (e *Emitter) WriteString(s string) {
	if e.atLineStart && s != "" {
		ind := e.indentString()
		e.write(ind)
		e.col += len(ind)
		e.atLineStart = false
	}
	e.write(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		e.line += strings.Count(s, "\n")
		e.col = len(s) - i - 1
	} else {
		e.col += len(s)
	}
}

// Writef is a convenience wrapper around fmt.Sprintf and WriteString.
func (e *Emitter) Writef(format string, args ...any) {
	e.WriteString(fmt.Sprintf(format, args...))
}

// NewLine terminates the current line. In Minified format NewLine writes a
// single space rather than a line break; Compact keeps newlines but no blank
// lines between statements, Readable preserves both.
func (e *Emitter) NewLine() {
	switch e.format {
	case Minified:
		e.write(" ")
		e.col++
	default:
		e.write("\n")
		e.line++
		e.col = 0
		e.atLineStart = true
	}
}

// BlankLine emits an extra blank line between top-level declarations; a
// no-op outside Readable format.
func (e *Emitter) BlankLine() {
	if e.format == Readable {
		e.NewLine()
	}
}

// Pos returns the emitter's current (line, column), 0-based, for source-map
// recording.
func (e *Emitter) Pos() (line, col int) { return e.line, e.col }

// RecordMapping appends a mapping from the emitter's current position to
// the given original-source position.
func (e *Emitter) RecordMapping(sourceIndex, sourceLine, sourceCol, nameIndex int) {
	gl, gc := e.Pos()
	e.Mappings = append(e.Mappings, Mapping{GeneratedLine: gl, GeneratedCol: gc, SourceIndex: sourceIndex, SourceLine: sourceLine, SourceCol: sourceCol, NameIndex: nameIndex})
}

// String returns the emitted source text so far, by rewinding the
// underlying buffer and draining it through [bytewriter.Buffer.WriteTo].
func (e *Emitter) String() string {
	var sb strings.Builder
	if _, err := e.b.Seek(0, io.SeekStart); err != nil {
		return ""
	}
	e.b.WriteTo(&sb)
	return sb.String()
}
