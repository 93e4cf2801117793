// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnparser

import (
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/lntoken"
)

// primitiveKeywords maps the keyword token that spells a primitive type to
// its [lnast.Primitive] kind.
var primitiveKeywords = map[lntoken.Kind]lnast.Primitive{
	lntoken.Nil:     lnast.PrimNil,
	lntoken.Number_: lnast.PrimNumber,
	lntoken.String_: lnast.PrimString,
	lntoken.Unknown: lnast.PrimUnknown,
	lntoken.Never:   lnast.PrimNever,
	lntoken.Void:    lnast.PrimVoid,
	lntoken.Table:   lnast.PrimTable,
}

// parseType is the entry point into type-annotation parsing: a conditional
// type, which may in turn be a union of intersections of postfix-modified
// primaries. Conditional types sit at the bottom since `extends ... ? ... :`
// must see the widest possible check/extends operands.
func (p *Parser) parseType() lnast.Type {
	return p.parseConditionalType()
}

func (p *Parser) parseConditionalType() lnast.Type {
	check := p.parseUnionType()
	if !p.accept(lntoken.Extends) {
		return check
	}
	extends := p.parseUnionType()
	p.expect(lntoken.Question)
	trueT := p.parseType()
	p.expect(lntoken.Colon)
	falseT := p.parseType()
	n := lnast.Alloc[lnast.ConditionalType](p.arena)
	n.Span = joinSpan(check.NodeSpan(), falseT.NodeSpan())
	n.Check, n.Extends, n.True, n.False = check, extends, trueT, falseT
	return n
}

func (p *Parser) parseUnionType() lnast.Type {
	p.accept(lntoken.BitOr) // optional leading '|'
	first := p.parseIntersectionType()
	members := []lnast.Type{first}
	for p.accept(lntoken.BitOr) {
		members = append(members, p.parseIntersectionType())
	}
	if len(members) == 1 {
		return first
	}
	n := lnast.Alloc[lnast.UnionType](p.arena)
	n.Span = joinSpan(members[0].NodeSpan(), members[len(members)-1].NodeSpan())
	n.Members = members
	return n
}

func (p *Parser) parseIntersectionType() lnast.Type {
	p.accept(lntoken.BitAnd) // optional leading '&'
	first := p.parseNullableType()
	members := []lnast.Type{first}
	for p.accept(lntoken.BitAnd) {
		members = append(members, p.parseNullableType())
	}
	if len(members) == 1 {
		return first
	}
	n := lnast.Alloc[lnast.IntersectionType](p.arena)
	n.Span = joinSpan(members[0].NodeSpan(), members[len(members)-1].NodeSpan())
	n.Members = members
	return n
}

func (p *Parser) parseNullableType() lnast.Type {
	inner := p.parsePostfixType()
	for p.accept(lntoken.Question) {
		n := lnast.Alloc[lnast.NullableType](p.arena)
		n.Span = joinSpan(inner.NodeSpan(), p.lastSpan())
		n.Inner = inner
		inner = n
	}
	return inner
}

// parsePostfixType handles `T[]` (array) and `T[K]` (indexed access), both
// of which share the `[` postfix position and are disambiguated by whether
// a type follows the bracket.
func (p *Parser) parsePostfixType() lnast.Type {
	t := p.parsePrimaryType()
	for p.check(lntoken.LBracket) {
		openSpan := p.curr.Span
		p.advance()
		if p.accept(lntoken.RBracket) {
			n := lnast.Alloc[lnast.ArrayType](p.arena)
			n.Span = joinSpan(t.NodeSpan(), p.lastSpan())
			n.Element = t
			t = n
			continue
		}
		idx := p.parseType()
		p.checkMatch(openSpan, lntoken.LBracket, lntoken.RBracket)
		n := lnast.Alloc[lnast.IndexedAccessType](p.arena)
		n.Span = joinSpan(t.NodeSpan(), p.lastSpan())
		n.Object, n.Index = t, idx
		t = n
	}
	return t
}

func (p *Parser) parsePrimaryType() lnast.Type {
	switch p.curr.Kind {
	case lntoken.Nil, lntoken.Number_, lntoken.String_, lntoken.Unknown, lntoken.Never, lntoken.Void, lntoken.Table:
		kind := primitiveKeywords[p.curr.Kind]
		n := lnast.Alloc[lnast.PrimitiveType](p.arena)
		n.Span, n.Kind = p.curr.Span, kind
		p.advance()
		return n
	case lntoken.True, lntoken.False:
		n := lnast.Alloc[lnast.LiteralType](p.arena)
		n.Span, n.Kind, n.Boolean = p.curr.Span, lnast.PrimBoolean, p.curr.Kind == lntoken.True
		p.advance()
		return n
	case lntoken.Number:
		n := lnast.Alloc[lnast.LiteralType](p.arena)
		n.Span, n.Kind, n.Number = p.curr.Span, lnast.PrimNumber, p.curr.Text
		if isIntegerLiteral(p.curr.Text) {
			n.Kind = lnast.PrimInteger
		}
		p.advance()
		return n
	case lntoken.String:
		n := lnast.Alloc[lnast.LiteralType](p.arena)
		n.Span, n.Kind, n.String = p.curr.Span, lnast.PrimString, p.curr.Text
		p.advance()
		return n
	case lntoken.TemplateStringToken:
		return p.parseTemplateLiteralType()
	case lntoken.Typeof:
		start := p.curr.Span
		p.advance()
		e := p.parsePostfix()
		n := lnast.Alloc[lnast.TypeQueryType](p.arena)
		n.Span, n.Expr = joinSpan(start, e.NodeSpan()), e
		return n
	case lntoken.Keyof:
		start := p.curr.Span
		p.advance()
		operand := p.parseNullableType()
		n := lnast.Alloc[lnast.KeyofType](p.arena)
		n.Span, n.Operand = joinSpan(start, operand.NodeSpan()), operand
		return n
	case lntoken.Infer:
		start := p.curr.Span
		p.advance()
		id := p.ident()
		n := lnast.Alloc[lnast.InferVar](p.arena)
		n.Span, n.Name = joinSpan(start, id.Span), id.Name
		return n
	case lntoken.DotDotDot:
		start := p.curr.Span
		p.advance()
		elem := p.parseType()
		n := lnast.Alloc[lnast.VariadicType](p.arena)
		n.Span, n.Element = joinSpan(start, elem.NodeSpan()), elem
		return n
	case lntoken.LParen:
		return p.parseParenOrFunctionType()
	case lntoken.LBracket:
		return p.parseTupleType()
	case lntoken.LBrace:
		return p.parseObjectOrMappedType()
	case lntoken.Ident_:
		return p.parseNamedOrPredicateType()
	default:
		n := lnast.Alloc[lnast.PrimitiveType](p.arena)
		n.Span, n.Kind = p.curr.Span, lnast.PrimUnknown
		if !p.check(lntoken.EOF) {
			p.advance()
		}
		return n
	}
}

func (p *Parser) parseTemplateLiteralType() lnast.Type {
	tok := p.curr
	start := tok.Span
	parts := tok.Template
	p.advance()
	n := lnast.Alloc[lnast.TemplateLiteralType](p.arena)
	n.Span = start
	if parts == nil {
		return n
	}
	n.Quasis = parts.Quasis
	n.Types = make([]lnast.Type, len(parts.Exprs))
	for i, toks := range parts.Exprs {
		p.pushSource(&sliceSource{toks: toks})
		p.advance()
		n.Types[i] = p.parseType()
		p.popSource()
	}
	return n
}

// parseNamedOrPredicateType parses `Name<Args>` or `x is T`, both of which
// begin with a bare identifier.
func (p *Parser) parseNamedOrPredicateType() lnast.Type {
	id := p.ident()
	if p.check(lntoken.Is) {
		p.advance()
		asserted := p.parseType()
		n := lnast.Alloc[lnast.PredicateType](p.arena)
		n.Span, n.ParamName, n.Asserted = joinSpan(id.Span, asserted.NodeSpan()), id.Name, asserted
		return n
	}
	n := lnast.Alloc[lnast.NamedType](p.arena)
	n.Span, n.Name = id.Span, id.Name
	if p.accept(lntoken.Less) {
		for !p.check(lntoken.Greater) && !p.check(lntoken.EOF) {
			n.Args = append(n.Args, p.parseType())
			if !p.accept(lntoken.Comma) {
				break
			}
		}
		p.expect(lntoken.Greater)
		n.Span = joinSpan(n.Span, p.lastSpan())
	}
	return n
}

func (p *Parser) parseTupleType() lnast.Type {
	openSpan := p.curr.Span
	p.advance()
	var elems []lnast.Type
	for !p.check(lntoken.RBracket) && !p.check(lntoken.EOF) {
		elems = append(elems, p.parseType())
		if !p.accept(lntoken.Comma) {
			break
		}
	}
	p.checkMatch(openSpan, lntoken.LBracket, lntoken.RBracket)
	n := lnast.Alloc[lnast.TupleType](p.arena)
	n.Span = joinSpan(openSpan, p.lastSpan())
	n.Elements = elems
	return n
}

// parseParenOrFunctionType disambiguates `(T)` from `(params) => Return`:
// both start with `(`, so it tentatively parses a function-type parameter
// list and commits only when `=>` follows.
func (p *Parser) parseParenOrFunctionType() lnast.Type {
	cp := p.mark()
	start := p.curr.Span
	params, ok := p.tryParseTypeParamList()
	if ok && p.check(lntoken.FatArrow) {
		p.commit(cp)
		p.advance() // '=>'
		ret := p.parseType()
		var throws lnast.Type
		if p.accept(lntoken.Throw) {
			throws = p.parseType()
		}
		n := lnast.Alloc[lnast.FunctionType](p.arena)
		n.Span = joinSpan(start, ret.NodeSpan())
		n.Params, n.Return, n.Throws = params, ret, throws
		return n
	}
	p.reset(cp)
	openSpan := p.curr.Span
	p.advance()
	inner := p.parseType()
	p.checkMatch(openSpan, lntoken.LParen, lntoken.RParen)
	n := lnast.Alloc[lnast.ParenType](p.arena)
	n.Span = joinSpan(openSpan, p.lastSpan())
	n.Inner = inner
	return n
}

// tryParseTypeParamList tentatively parses "(" [name ":"] type ("," ...) ")"
// as a function-type parameter list.
func (p *Parser) tryParseTypeParamList() ([]lnast.Param, bool) {
	p.advance() // '('
	var params []lnast.Param
	for !p.check(lntoken.RParen) {
		if p.check(lntoken.EOF) {
			return nil, false
		}
		rest := p.accept(lntoken.DotDotDot)
		if p.check(lntoken.Ident_) && p.peek().Kind == lntoken.Colon {
			id := p.ident()
			p.advance() // ':'
			t := p.parseType()
			params = append(params, lnast.Param{Pattern: identPattern(p.arena, id), Annotation: t, Rest: rest})
		} else {
			t := p.parseType()
			params = append(params, lnast.Param{Annotation: t, Rest: rest})
		}
		if !p.accept(lntoken.Comma) {
			break
		}
	}
	if !p.check(lntoken.RParen) {
		return nil, false
	}
	p.advance()
	return params, true
}

// parseObjectOrMappedType disambiguates `{ [K in keyof T]: V }` (mapped)
// from `{ prop: T, [k: K]: V }` (structural object type).
func (p *Parser) parseObjectOrMappedType() lnast.Type {
	openSpan := p.curr.Span
	p.advance()
	if p.check(lntoken.LBracket) {
		cp := p.mark()
		p.advance() // '['
		if p.check(lntoken.Ident_) && p.peek().Kind == lntoken.In {
			p.commit(cp)
			return p.finishMappedType(openSpan)
		}
		p.reset(cp)
	}
	var members []lnast.ObjectTypeMember
	for !p.check(lntoken.RBrace) && !p.check(lntoken.EOF) {
		members = append(members, p.parseObjectTypeMember())
		if !p.accept(lntoken.Comma) {
			p.accept(lntoken.Semi)
		}
	}
	p.checkMatch(openSpan, lntoken.LBrace, lntoken.RBrace)
	n := lnast.Alloc[lnast.ObjectType](p.arena)
	n.Span = joinSpan(openSpan, p.lastSpan())
	n.Members = members
	return n
}

func (p *Parser) parseObjectTypeMember() lnast.ObjectTypeMember {
	if p.check(lntoken.LBracket) {
		p.advance()
		keyName := p.ident()
		p.expect(lntoken.Colon)
		keyType := p.parseType()
		p.expect(lntoken.RBracket)
		p.expect(lntoken.Colon)
		valType := p.parseType()
		return lnast.ObjectTypeMember{
			Kind: lnast.ObjectIndexSignature, IndexKeyName: keyName.Name,
			IndexKeyType: keyType, IndexValue: valType,
		}
	}
	readonly := p.accept(lntoken.Readonly)
	name := p.identOrKeyword()
	optional := p.accept(lntoken.Question)
	if p.check(lntoken.LParen) {
		params := p.parseParamList()
		var ret lnast.Type
		if p.accept(lntoken.Colon) {
			ret = p.parseType()
		}
		return lnast.ObjectTypeMember{
			Kind: lnast.ObjectMethod, Name: name.Name, Optional: optional,
			Params: params, ReturnType: ret,
		}
	}
	p.expect(lntoken.Colon)
	t := p.parseType()
	return lnast.ObjectTypeMember{Kind: lnast.ObjectProp, Name: name.Name, Optional: optional, Readonly: readonly, Annotation: t}
}

// finishMappedType parses `[K in Constraint]+?/-?/+readonly/-readonly: V`
// after confirming the `[Ident in` shape; openSpan is the brace that began
// the type.
func (p *Parser) finishMappedType(openSpan lntoken.Span) lnast.Type {
	p.advance() // '['
	key := p.ident()
	p.expect(lntoken.In)
	constraint := p.parseType()
	p.expect(lntoken.RBracket)

	readonlyMod := 0
	optionalMod := 0
	for {
		switch {
		case p.check(lntoken.Add) && p.peek().Kind == lntoken.Readonly:
			p.advance()
			p.advance()
			readonlyMod = 1
		case p.check(lntoken.Sub) && p.peek().Kind == lntoken.Readonly:
			p.advance()
			p.advance()
			readonlyMod = -1
		case p.accept(lntoken.Readonly):
			readonlyMod = 1
		case p.check(lntoken.Add) && p.peek().Kind == lntoken.Question:
			p.advance()
			p.advance()
			optionalMod = 1
		case p.check(lntoken.Sub) && p.peek().Kind == lntoken.Question:
			p.advance()
			p.advance()
			optionalMod = -1
		case p.accept(lntoken.Question):
			optionalMod = 1
		default:
			goto modsDone
		}
	}
modsDone:
	p.expect(lntoken.Colon)
	value := p.parseType()
	p.checkMatch(openSpan, lntoken.LBrace, lntoken.RBrace)
	n := lnast.Alloc[lnast.MappedType](p.arena)
	n.Span = joinSpan(openSpan, p.lastSpan())
	n.KeyName, n.Constraint, n.Value = key.Name, constraint, value
	n.ReadonlyModifier, n.OptionalModifier = readonlyMod, optionalMod
	return n
}

// tryParseTypeParams parses an optional `<T extends U = Default, ...>`
// generic parameter list on a class/interface/function/alias declaration.
func (p *Parser) tryParseTypeParams() []lnast.TypeParam {
	if !p.accept(lntoken.Less) {
		return nil
	}
	var params []lnast.TypeParam
	for !p.check(lntoken.Greater) && !p.check(lntoken.EOF) {
		name := p.ident()
		tp := lnast.TypeParam{Name: name.Name}
		if p.accept(lntoken.Extends) {
			tp.Constraint = p.parseType()
		}
		if p.accept(lntoken.Assign) {
			tp.Default = p.parseType()
		}
		params = append(params, tp)
		if !p.accept(lntoken.Comma) {
			break
		}
	}
	p.expect(lntoken.Greater)
	return params
}
