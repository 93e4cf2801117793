// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnparser

import (
	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/lntoken"
)

// parsePattern parses a destructuring pattern: identifier, wildcard,
// literal, array, or object. Top-level "or" alternation (`pattern | pattern`)
// is assembled by callers that need it (match arms); parsePattern itself
// parses one alternative.
func (p *Parser) parsePattern() lnast.Pattern {
	switch p.curr.Kind {
	case lntoken.Ident_:
		if p.it.MustResolve(p.curr.Name) == "_" {
			n := lnast.Alloc[lnast.WildcardPattern](p.arena)
			n.Span = p.curr.Span
			p.advance()
			return n
		}
		id := p.ident()
		return identPattern(p.arena, id)
	case lntoken.Nil, lntoken.True, lntoken.False, lntoken.Number, lntoken.String:
		start := p.curr.Span
		val := p.parsePrimary()
		n := lnast.Alloc[lnast.LiteralPattern](p.arena)
		n.Span, n.Value = joinSpan(start, val.NodeSpan()), val
		return n
	case lntoken.TemplateStringToken:
		return p.parseTemplatePattern()
	case lntoken.LBracket:
		return p.parseArrayPattern()
	case lntoken.LBrace:
		return p.parseObjectPattern()
	default:
		p.sink.Reportf(diag.E2018, p.curr.Span, "invalid pattern, found %s", p.curr.Kind)
		n := lnast.Alloc[lnast.WildcardPattern](p.arena)
		n.Span = p.curr.Span
		if !p.check(lntoken.EOF) {
			p.advance()
		}
		return n
	}
}

func (p *Parser) parseArrayPattern() lnast.Pattern {
	openSpan := p.curr.Span
	p.advance()
	var elems []lnast.ArrayElement
	for !p.check(lntoken.RBracket) && !p.check(lntoken.EOF) {
		if p.check(lntoken.Comma) {
			elems = append(elems, lnast.ArrayElement{})
			p.advance()
			continue
		}
		rest := p.accept(lntoken.DotDotDot)
		elem := lnast.ArrayElement{Rest: rest}
		if !rest {
			elem.Pattern = p.parsePattern()
			if p.accept(lntoken.Assign) {
				elem.Default = p.parseAssignment()
			}
		} else {
			elem.Pattern = p.parsePattern()
		}
		elems = append(elems, elem)
		if !p.accept(lntoken.Comma) {
			break
		}
	}
	p.checkMatch(openSpan, lntoken.LBracket, lntoken.RBracket)
	n := lnast.Alloc[lnast.ArrayPattern](p.arena)
	n.Span = joinSpan(openSpan, p.lastSpan())
	n.Elements = elems
	return n
}

func (p *Parser) parseObjectPattern() lnast.Pattern {
	openSpan := p.curr.Span
	p.advance()
	var fields []lnast.ObjectField
	var rest lnast.Name
	for !p.check(lntoken.RBrace) && !p.check(lntoken.EOF) {
		if p.accept(lntoken.DotDotDot) {
			id := p.ident()
			rest = id.Name
			break
		}
		if p.check(lntoken.LBracket) {
			p.advance()
			key := p.parseExpression()
			p.expect(lntoken.RBracket)
			p.expect(lntoken.Colon)
			val := p.parsePattern()
			var def lnast.Expression
			if p.accept(lntoken.Assign) {
				def = p.parseAssignment()
			}
			fields = append(fields, lnast.ObjectField{ComputedKey: key, Value: val, Default: def})
			if !p.accept(lntoken.Comma) {
				break
			}
			continue
		}
		name := p.identOrKeyword()
		if p.accept(lntoken.Colon) {
			val := p.parsePattern()
			var def lnast.Expression
			if p.accept(lntoken.Assign) {
				def = p.parseAssignment()
			}
			fields = append(fields, lnast.ObjectField{Key: name.Name, Value: val, Default: def})
		} else {
			field := lnast.ObjectField{Key: name.Name, Value: identPattern(p.arena, name), Shorthand: true}
			if p.accept(lntoken.Assign) {
				field.Default = p.parseAssignment()
			}
			fields = append(fields, field)
		}
		if !p.accept(lntoken.Comma) {
			break
		}
	}
	p.checkMatch(openSpan, lntoken.LBrace, lntoken.RBrace)
	n := lnast.Alloc[lnast.ObjectPattern](p.arena)
	n.Span = joinSpan(openSpan, p.lastSpan())
	n.Fields, n.Rest = fields, rest
	return n
}

// parseTemplatePattern mirrors parseTemplateLiteral, but each hole is parsed
// as a nested pattern (typically a bare identifier capture) rather than an
// expression.
func (p *Parser) parseTemplatePattern() lnast.Pattern {
	tok := p.curr
	start := tok.Span
	parts := tok.Template
	p.advance()
	n := lnast.Alloc[lnast.TemplatePattern](p.arena)
	n.Span = start
	if parts == nil {
		return n
	}
	n.Quasis = parts.Quasis
	n.Captures = make([]lnast.Pattern, len(parts.Exprs))
	for i, toks := range parts.Exprs {
		p.pushSource(&sliceSource{toks: toks})
		p.advance()
		n.Captures[i] = p.parsePattern()
		p.popSource()
	}
	return n
}
