// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

// Package lnlex converts LuaNext source bytes into a flat token sequence.
//
// The scanner is a direct descendant of the teacher's Lua 5.4 scanner
// (internal/lualex in the retrieval pack): a byte-at-a-time
// [io.ByteScanner]-backed state machine with the same read/unread
// discipline, extended with LuaNext's additional operators, string
// interning of identifiers, and pre-lexed template-string substructure.
package lnlex

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lntoken"
)

// Scanner parses LuaNext tokens from a byte stream.
type Scanner struct {
	r    io.ByteScanner
	it   *intern.Interner
	sink *diag.Sink

	offset   int
	line     int
	col      int
	prevOff  int
	prevLine int
	prevCol  int

	err error
}

// NewScanner returns a Scanner that reads from r, interning identifiers with
// it and reporting lexical errors to sink. NewScanner does not buffer r.
func NewScanner(r io.ByteScanner, it *intern.Interner, sink *diag.Sink) *Scanner {
	return &Scanner{r: r, it: it, sink: sink, line: 1, col: 1}
}

func (s *Scanner) position() lntoken.Position {
	return lntoken.Position{Line: s.line, Column: s.col}
}

func (s *Scanner) readByte() (byte, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, err
	}
	s.prevOff, s.prevLine, s.prevCol = s.offset, s.line, s.col
	s.offset++
	if b == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return b, nil
}

func (s *Scanner) unreadByte() {
	_ = s.r.UnreadByte()
	s.offset, s.line, s.col = s.prevOff, s.prevLine, s.prevCol
}

func (s *Scanner) readByteNoEOF() (byte, error) {
	b, err := s.readByte()
	if errors.Is(err, io.EOF) {
		return 0, io.ErrUnexpectedEOF
	}
	return b, err
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}
func isDigit(b byte) bool { return '0' <= b && b <= '9' }
func isHex(b byte) bool {
	return isDigit(b) || 'a' <= b && b <= 'f' || 'A' <= b && b <= 'F'
}
func isLetter(b byte) bool {
	return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || b >= utf8.RuneSelf
}

func (s *Scanner) mark() (lntoken.Position, int) {
	return s.position(), s.offset
}

func (s *Scanner) span(start lntoken.Position, startOff int) lntoken.Span {
	return lntoken.Span{StartByte: startOff, EndByte: s.offset, Start: start, End: s.position()}
}

// Scan reads the next [lntoken.Token] from the stream.
// On a lexical error, Scan reports a diagnostic to the sink, returns a
// token of kind [lntoken.Error], and resumes scanning on the next call
// (best-effort synchronization), matching the error-reporting contract in
// spec.md §4.1 and §7.
func (s *Scanner) Scan() (lntoken.Token, error) {
	if s.err != nil {
		return lntoken.Token{Kind: lntoken.EOF}, s.err
	}
	for {
		start, startOff := s.mark()
		b, err := s.readByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return lntoken.Token{Kind: lntoken.EOF, Span: s.span(start, startOff)}, nil
			}
			s.err = err
			return lntoken.Token{Kind: lntoken.Error}, err
		}
		switch {
		case isSpace(b):
			continue
		case isLetter(b) || b == '_':
			return s.identifierOrKeyword(start, startOff, b), nil
		case isDigit(b):
			s.unreadByte()
			return s.number(start, startOff, false)
		case b == '.':
			return s.dotOrVararg(start, startOff)
		case b == '\'' || b == '"':
			return s.shortString(start, startOff, b)
		case b == '`':
			return s.templateString(start, startOff)
		case b == '-':
			nb, nerr := s.readByte()
			if nerr != nil {
				return lntoken.Token{Kind: lntoken.Sub, Span: s.span(start, startOff)}, nil
			}
			if nb == '-' {
				s.skipLineComment()
				continue
			}
			if nb == '=' {
				return lntoken.Token{Kind: lntoken.SubAssign, Span: s.span(start, startOff)}, nil
			}
			if nb == '>' {
				return lntoken.Token{Kind: lntoken.Arrow, Span: s.span(start, startOff)}, nil
			}
			s.unreadByte()
			return lntoken.Token{Kind: lntoken.Sub, Span: s.span(start, startOff)}, nil
		default:
			return s.operator(start, startOff, b)
		}
	}
}

func (s *Scanner) skipLineComment() {
	for {
		b, err := s.readByte()
		if err != nil || b == '\n' {
			return
		}
	}
}

func (s *Scanner) identifierOrKeyword(start lntoken.Position, startOff int, first byte) lntoken.Token {
	sb := new(strings.Builder)
	sb.WriteByte(first)
	for {
		b, err := s.readByte()
		if err != nil {
			break
		}
		if b != '_' && !isLetter(b) && !isDigit(b) {
			s.unreadByte()
			break
		}
		sb.WriteByte(b)
	}
	text := sb.String()
	sp := s.span(start, startOff)
	if kind, ok := lntoken.LookupKeyword(text); ok {
		return lntoken.Token{Kind: kind, Span: sp, Name: s.it.Intern(text)}
	}
	return lntoken.Token{Kind: lntoken.Ident_, Span: sp, Name: s.it.Intern(text)}
}

// ParseIdentifierOrKeyword interns text as a member/property/method name
// even when it collides with a keyword: `obj.type` and `function type()`
// are legal, because member positions go through this helper instead of
// the variable-name path, which rejects keywords.
func ParseIdentifierOrKeyword(it *intern.Interner, text string) intern.StringId {
	return it.Intern(text)
}

func (s *Scanner) dotOrVararg(start lntoken.Position, startOff int) (lntoken.Token, error) {
	b, err := s.readByte()
	if err != nil {
		return lntoken.Token{Kind: lntoken.Dot, Span: s.span(start, startOff)}, nil
	}
	switch {
	case b == '.':
		b, err := s.readByte()
		if err != nil {
			return lntoken.Token{Kind: lntoken.Concat, Span: s.span(start, startOff)}, nil
		}
		if b == '.' {
			return lntoken.Token{Kind: lntoken.Vararg, Span: s.span(start, startOff)}, nil
		}
		if b == '=' {
			return lntoken.Token{Kind: lntoken.ConcatAssign, Span: s.span(start, startOff)}, nil
		}
		s.unreadByte()
		return lntoken.Token{Kind: lntoken.Concat, Span: s.span(start, startOff)}, nil
	case isDigit(b):
		s.unreadByte()
		return s.number(start, startOff, true)
	default:
		s.unreadByte()
		return lntoken.Token{Kind: lntoken.Dot, Span: s.span(start, startOff)}, nil
	}
}

func (s *Scanner) operator(start lntoken.Position, startOff int, b byte) (lntoken.Token, error) {
	one := func(k lntoken.Kind) (lntoken.Token, error) {
		return lntoken.Token{Kind: k, Span: s.span(start, startOff)}, nil
	}
	assignable := func(base, withEquals lntoken.Kind) (lntoken.Token, error) {
		nb, err := s.readByte()
		if err == nil {
			if nb == '=' {
				return one(withEquals)
			}
			s.unreadByte()
		}
		return one(base)
	}
	switch b {
	case '+':
		return assignable(lntoken.Add, lntoken.AddAssign)
	case '*':
		return assignable(lntoken.Mul, lntoken.MulAssign)
	case '%':
		return assignable(lntoken.Mod, lntoken.ModAssign)
	case '^':
		return assignable(lntoken.Pow, lntoken.PowAssign)
	case '#':
		return one(lntoken.Len)
	case '&':
		return assignable(lntoken.BitAnd, lntoken.BitAndAssign)
	case '|':
		nb, err := s.readByte()
		if err == nil {
			if nb == '>' {
				return one(lntoken.Pipe)
			}
			if nb == '=' {
				return one(lntoken.BitOrAssign)
			}
			s.unreadByte()
		}
		return one(lntoken.BitOr)
	case '~':
		nb, err := s.readByte()
		if err == nil {
			if nb == '=' {
				return one(lntoken.NotEqual)
			}
			s.unreadByte()
		}
		return one(lntoken.BitXor)
	case '/':
		nb, err := s.readByte()
		if err != nil {
			return one(lntoken.Div)
		}
		if nb == '/' {
			return assignable(lntoken.IntDiv, lntoken.IntDivAssign)
		}
		if nb == '=' {
			return one(lntoken.DivAssign)
		}
		s.unreadByte()
		return one(lntoken.Div)
	case '<':
		nb, err := s.readByte()
		if err == nil {
			switch nb {
			case '<':
				return assignable(lntoken.LShift, lntoken.LShiftAssign)
			case '=':
				return one(lntoken.LessEqual)
			}
			s.unreadByte()
		}
		return one(lntoken.Less)
	case '>':
		nb, err := s.readByte()
		if err == nil {
			switch nb {
			case '>':
				return assignable(lntoken.RShift, lntoken.RShiftAssign)
			case '=':
				return one(lntoken.GreaterEqual)
			}
			s.unreadByte()
		}
		return one(lntoken.Greater)
	case '=':
		nb, err := s.readByte()
		if err == nil {
			switch nb {
			case '=':
				return one(lntoken.Equal)
			case '>':
				return one(lntoken.FatArrow)
			}
			s.unreadByte()
		}
		return one(lntoken.Assign)
	case '(':
		return one(lntoken.LParen)
	case ')':
		return one(lntoken.RParen)
	case '{':
		return one(lntoken.LBrace)
	case '}':
		return one(lntoken.RBrace)
	case '[':
		return one(lntoken.LBracket)
	case ']':
		return one(lntoken.RBracket)
	case ':':
		nb, err := s.readByte()
		if err == nil {
			if nb == ':' {
				return one(lntoken.Label)
			}
			s.unreadByte()
		}
		return one(lntoken.Colon)
	case ';':
		return one(lntoken.Semi)
	case ',':
		return one(lntoken.Comma)
	case '-':
		return assignable(lntoken.Sub, lntoken.SubAssign)
	case '?':
		nb, err := s.readByte()
		if err == nil {
			switch nb {
			case '?':
				return one(lntoken.QuestionQuestion)
			case '.':
				return one(lntoken.QuestionDot)
			}
			s.unreadByte()
		}
		return one(lntoken.Question)
	case '!':
		nb, err := s.readByte()
		if err == nil {
			if nb == '!' {
				return one(lntoken.BangBang)
			}
			s.unreadByte()
		}
		return one(lntoken.Bang)
	case '@':
		return one(lntoken.At)
	default:
		d := diag.New(diag.E2001, s.span(start, startOff), fmt.Sprintf("unexpected %q", b))
		s.sink.Report(d)
		return lntoken.Token{Kind: lntoken.Error, Span: s.span(start, startOff)}, nil
	}
}

// number scans a [lntoken.Number] token. leadingDot indicates the caller
// already consumed the decimal point (as in `.5`).
func (s *Scanner) number(start lntoken.Position, startOff int, leadingDot bool) (lntoken.Token, error) {
	sb := new(strings.Builder)
	isHexNum := false
	if leadingDot {
		sb.WriteByte('.')
	} else {
		first, _ := s.readByte()
		sb.WriteByte(first)
		second, err := s.readByte()
		if err == nil {
			if first == '0' && (second == 'x' || second == 'X') {
				isHexNum = true
				sb.WriteByte(second)
			} else {
				s.unreadByte()
			}
		}
	}
	digit := isDigit
	if isHexNum {
		digit = isHex
	}
	sawDot := leadingDot
	for {
		b, err := s.readByte()
		if err != nil {
			break
		}
		switch {
		case digit(b):
			sb.WriteByte(b)
		case b == '.' && !sawDot:
			sawDot = true
			sb.WriteByte(b)
		case !isHexNum && (b == 'e' || b == 'E') || isHexNum && (b == 'p' || b == 'P'):
			sb.WriteByte(b)
			if sign, err := s.readByte(); err == nil {
				if sign == '+' || sign == '-' {
					sb.WriteByte(sign)
				} else {
					s.unreadByte()
				}
			}
		default:
			s.unreadByte()
			goto done
		}
	}
done:
	return lntoken.Token{Kind: lntoken.Number, Span: s.span(start, startOff), Text: sb.String()}, nil
}

func (s *Scanner) shortString(start lntoken.Position, startOff int, quote byte) (lntoken.Token, error) {
	text, err := s.scanQuoted(quote)
	sp := s.span(start, startOff)
	if err != nil {
		d := diag.New(diag.E2002, sp, fmt.Sprintf("unterminated string literal: %v", err))
		s.sink.Report(d)
		return lntoken.Token{Kind: lntoken.Error, Span: sp}, nil
	}
	return lntoken.Token{Kind: lntoken.String, Span: sp, Text: text}, nil
}

// scanQuoted scans the body of a quoted literal up to (and consuming) the
// closing quote, decoding backslash escapes.
func (s *Scanner) scanQuoted(quote byte) (string, error) {
	sb := new(strings.Builder)
	for {
		b, err := s.readByteNoEOF()
		if err != nil {
			return sb.String(), err
		}
		switch {
		case b == quote:
			return sb.String(), nil
		case b == '\n':
			return sb.String(), errors.New("unescaped newline")
		case b != '\\':
			sb.WriteByte(b)
			continue
		}
		b, err = s.readByteNoEOF()
		if err != nil {
			return sb.String(), err
		}
		switch b {
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case '\\', '\'', '"', '`', '$':
			sb.WriteByte(b)
		case 'x':
			var nibbles [2]byte
			for i := range nibbles {
				digit, err := s.readByteNoEOF()
				if err != nil {
					return sb.String(), err
				}
				v, ok := hexValue(digit)
				if !ok {
					return sb.String(), fmt.Errorf("invalid hex escape %q", digit)
				}
				nibbles[i] = v
			}
			sb.WriteByte(nibbles[0]<<4 | nibbles[1])
		case 'u':
			if b, err := s.readByteNoEOF(); err != nil || b != '{' {
				return sb.String(), errors.New("expected '{' after \\u")
			}
			var r rune
			for first := true; ; first = false {
				b, err := s.readByteNoEOF()
				if err != nil {
					return sb.String(), err
				}
				if b == '}' {
					if first {
						return sb.String(), errors.New("empty \\u escape")
					}
					break
				}
				v, ok := hexValue(b)
				if !ok {
					return sb.String(), fmt.Errorf("invalid hex escape %q", b)
				}
				r = r<<4 | rune(v)
			}
			sb.WriteRune(r)
		default:
			return sb.String(), fmt.Errorf("invalid escape sequence \\%c", b)
		}
	}
}

func hexValue(b byte) (byte, bool) {
	switch {
	case '0' <= b && b <= '9':
		return b - '0', true
	case 'a' <= b && b <= 'f':
		return b - 'a' + 10, true
	case 'A' <= b && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}

// templateString scans a backtick-delimited template literal, splitting it
// into literal quasis and `${ expr }` holes. Each hole is lexed eagerly into
// its own token vector (terminated by an [lntoken.EOF] sentinel) so that the
// parser can re-enter expression parsing on it without re-lexing the
// surrounding text, per spec.md §4.1.
func (s *Scanner) templateString(start lntoken.Position, startOff int) (lntoken.Token, error) {
	parts := &lntoken.TemplateParts{}
	quasi := new(strings.Builder)
	for {
		b, err := s.readByteNoEOF()
		if err != nil {
			d := diag.New(diag.E2003, s.span(start, startOff), "unterminated template literal")
			s.sink.Report(d)
			return lntoken.Token{Kind: lntoken.Error, Span: s.span(start, startOff)}, nil
		}
		switch {
		case b == '`':
			parts.Quasis = append(parts.Quasis, quasi.String())
			return lntoken.Token{Kind: lntoken.TemplateStringToken, Span: s.span(start, startOff), Template: parts}, nil
		case b == '\\':
			nb, err := s.readByteNoEOF()
			if err != nil {
				d := diag.New(diag.E2003, s.span(start, startOff), "unterminated template literal")
				s.sink.Report(d)
				return lntoken.Token{Kind: lntoken.Error, Span: s.span(start, startOff)}, nil
			}
			if nb == '`' || nb == '$' || nb == '\\' {
				quasi.WriteByte(nb)
			} else {
				quasi.WriteByte('\\')
				quasi.WriteByte(nb)
			}
		case b == '$':
			nb, err := s.readByte()
			if err != nil || nb != '{' {
				if err == nil {
					s.unreadByte()
				}
				quasi.WriteByte('$')
				continue
			}
			parts.Quasis = append(parts.Quasis, quasi.String())
			quasi.Reset()
			toks, err := s.lexHole()
			if err != nil {
				d := diag.New(diag.E2004, s.span(start, startOff), fmt.Sprintf("unterminated template expression: %v", err))
				s.sink.Report(d)
				return lntoken.Token{Kind: lntoken.Error, Span: s.span(start, startOff)}, nil
			}
			parts.Exprs = append(parts.Exprs, toks)
		default:
			quasi.WriteByte(b)
		}
	}
}

// lexHole lexes tokens up to (and consuming) the matching '}' for a
// template-string `${ ... }` hole, tracking nested braces.
func (s *Scanner) lexHole() ([]lntoken.Token, error) {
	depth := 0
	var toks []lntoken.Token
	for {
		tok, err := s.Scan()
		if err != nil {
			return toks, err
		}
		if tok.Kind == lntoken.EOF {
			return toks, io.ErrUnexpectedEOF
		}
		if tok.Kind == lntoken.LBrace {
			depth++
		}
		if tok.Kind == lntoken.RBrace {
			if depth == 0 {
				toks = append(toks, lntoken.Token{Kind: lntoken.EOF, Span: tok.Span})
				return toks, nil
			}
			depth--
		}
		toks = append(toks, tok)
	}
}
