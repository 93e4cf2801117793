// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnparser

import (
	"strings"

	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/lntoken"
)

// parseExpression is the single entry point into expression parsing: an
// assignment, which may in turn be a ternary, a pipe, or fall all the way
// through to a primary expression. Mirrors the teacher's top-level
// `expression` wrapping `subExpression(fs, 0)`, generalized with extra
// levels above and below the binary-operator core for assignment, ternary,
// pipe, and arrow functions (spec.md §4.2: "18 levels, assignment lowest").
func (p *Parser) parseExpression() lnast.Expression {
	if e, ok := p.tryParseArrow(); ok {
		return e
	}
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() lnast.Expression {
	left := p.parseTernary()
	if op, ok := assignOps[p.curr.Kind]; ok {
		p.advance()
		value := p.parseAssignment()
		if !isAssignable(left) {
			p.sink.Reportf(diag.E2008, left.NodeSpan(), "invalid assignment target")
		}
		n := lnast.Alloc[lnast.AssignExpr](p.arena)
		n.Span = joinSpan(left.NodeSpan(), value.NodeSpan())
		n.Op, n.Target, n.Value = op, left, value
		return n
	}
	return left
}

func isAssignable(e lnast.Expression) bool {
	switch e.(type) {
	case *lnast.IdentExpr, *lnast.MemberExpr, *lnast.IndexExpr:
		return true
	default:
		return false
	}
}

func (p *Parser) parseTernary() lnast.Expression {
	cond := p.parsePipe()
	if !p.accept(lntoken.Question) {
		return cond
	}
	then := p.parseAssignment()
	if _, ok := p.expect(lntoken.Colon); !ok {
		return then
	}
	els := p.parseAssignment()
	n := lnast.Alloc[lnast.TernaryExpr](p.arena)
	n.Span = joinSpan(cond.NodeSpan(), els.NodeSpan())
	n.Cond, n.Then, n.Else = cond, then, els
	return n
}

func (p *Parser) parsePipe() lnast.Expression {
	left := p.parseBinary(0)
	for p.check(lntoken.Pipe) {
		p.advance()
		right := p.parseBinary(0)
		n := lnast.Alloc[lnast.PipeExpr](p.arena)
		n.Span = joinSpan(left.NodeSpan(), right.NodeSpan())
		n.Left, n.Right = left, right
		left = n
	}
	return left
}

// parseBinary implements precedence climbing over [binaryOps]: it parses
// the unary-or-tighter left operand, then repeatedly consumes any binary
// operator whose precedence is at least minPrec, recursing with that operator's
// own precedence (or one higher, for its left-associative neighbors) as the
// new floor. Right-associative operators (only `..`, concat) recurse at
// their own precedence rather than precedence+1.
func (p *Parser) parseBinary(minPrec int) lnast.Expression {
	left := p.parseErrorChainOrUnary()
	for {
		info, ok := binaryOps[p.curr.Kind]
		if !ok || info.precedence < minPrec {
			return left
		}
		p.advance()
		nextMin := info.precedence + 1
		if info.rightAssoc {
			nextMin = info.precedence
		}
		right := p.parseBinary(nextMin)
		n := lnast.Alloc[lnast.BinaryExpr](p.arena)
		n.Span = joinSpan(left.NodeSpan(), right.NodeSpan())
		n.Op, n.Left, n.Right = info.op, left, right
		left = n
	}
}

// parseErrorChainOrUnary handles the unary-operator prefix level (the kinds
// in unaryOps; `typeof` is parsed only in type position), then the `!`/`!!`
// error-chain postfix level, both of which bind tighter
// than any binary operator but looser than `^` (power) and postfix
// call/member/index.
func (p *Parser) parseErrorChainOrUnary() lnast.Expression {
	if op, ok := unaryOps[p.curr.Kind]; ok {
		start := p.curr.Span
		p.advance()
		operand := p.parseErrorChainOrUnary()
		n := lnast.Alloc[lnast.UnaryExpr](p.arena)
		n.Span = joinSpan(start, operand.NodeSpan())
		n.Op, n.Operand = op, operand
		return n
	}
	e := p.parsePower()
	for p.check(lntoken.Bang) || p.check(lntoken.BangBang) {
		assertNonNil := p.check(lntoken.BangBang)
		opSpan := p.curr.Span
		p.advance()
		n := lnast.Alloc[lnast.ErrorChainExpr](p.arena)
		n.Span = joinSpan(e.NodeSpan(), opSpan)
		n.Operand, n.Assert = e, assertNonNil
		e = n
	}
	if p.check(lntoken.As) {
		p.advance()
		t := p.parseType()
		n := lnast.Alloc[lnast.TypeAssertionExpr](p.arena)
		n.Span = joinSpan(e.NodeSpan(), t.NodeSpan())
		n.Expr, n.AssertedType = e, t
		e = n
	}
	return e
}

// parsePower handles `^`, which is right-associative and binds tighter than
// unary minus on its left operand but accepts a unary-prefixed right
// operand (`-2^2 == -(2^2)`, `2^-2 == 2^(-2)`), matching Lua.
func (p *Parser) parsePower() lnast.Expression {
	left := p.parsePostfix()
	if p.check(lntoken.Pow) {
		p.advance()
		right := p.parseErrorChainOrUnary()
		n := lnast.Alloc[lnast.BinaryExpr](p.arena)
		n.Span = joinSpan(left.NodeSpan(), right.NodeSpan())
		n.Op, n.Left, n.Right = lnast.BinPow, left, right
		return n
	}
	return left
}

// parsePostfix parses a primary expression followed by any chain of member
// access, index access, and calls, mirroring the teacher's
// prefixExpression/suffixedexp loop.
func (p *Parser) parsePostfix() lnast.Expression {
	e := p.parsePrimary()
	for {
		switch {
		case p.check(lntoken.Dot):
			p.advance()
			name := p.identOrKeyword()
			n := lnast.Alloc[lnast.MemberExpr](p.arena)
			n.Span = joinSpan(e.NodeSpan(), name.Span)
			n.Object, n.Property = e, name.Name
			e = n
		case p.check(lntoken.QuestionDot):
			p.advance()
			if p.check(lntoken.LBracket) {
				e = p.parseIndexTail(e, true)
				continue
			}
			name := p.identOrKeyword()
			n := lnast.Alloc[lnast.MemberExpr](p.arena)
			n.Span = joinSpan(e.NodeSpan(), name.Span)
			n.Object, n.Property, n.Optional = e, name.Name, true
			e = n
		case p.check(lntoken.LBracket):
			e = p.parseIndexTail(e, false)
		case p.check(lntoken.Colon):
			p.advance()
			name := p.identOrKeyword()
			args, spreads, typeArgs := p.parseCallTail()
			n := lnast.Alloc[lnast.MethodCallExpr](p.arena)
			n.Span = joinSpan(e.NodeSpan(), p.lastSpan())
			n.Object, n.Method, n.Args, n.Spreads, n.TypeArgs = e, name.Name, args, spreads, typeArgs
			e = n
		case p.check(lntoken.LParen):
			args, spreads, typeArgs := p.parseCallTail()
			n := lnast.Alloc[lnast.CallExpr](p.arena)
			n.Span = joinSpan(e.NodeSpan(), p.lastSpan())
			n.Callee, n.Args, n.Spreads, n.TypeArgs = e, args, spreads, typeArgs
			e = n
		case p.check(lntoken.Less):
			if n, ok := p.tryParseGenericCall(e); ok {
				e = n
				continue
			}
			return e
		default:
			return e
		}
	}
}

func (p *Parser) parseIndexTail(obj lnast.Expression, optional bool) lnast.Expression {
	p.advance() // '['
	idx := p.parseExpression()
	p.expect(lntoken.RBracket)
	n := lnast.Alloc[lnast.IndexExpr](p.arena)
	n.Span = joinSpan(obj.NodeSpan(), p.lastSpan())
	n.Object, n.Index, n.Optional = obj, idx, optional
	return n
}

// parseCallTail parses a `(args)` call argument list, already positioned at
// the opening paren.
func (p *Parser) parseCallTail() ([]lnast.Expression, []bool, []lnast.Type) {
	openSpan := p.curr.Span
	p.advance()
	var args []lnast.Expression
	var spreads []bool
	for !p.check(lntoken.RParen) && !p.check(lntoken.EOF) {
		spread := p.accept(lntoken.DotDotDot)
		args = append(args, p.parseAssignment())
		spreads = append(spreads, spread)
		if !p.accept(lntoken.Comma) {
			break
		}
	}
	p.checkMatch(openSpan, lntoken.LParen, lntoken.RParen)
	return args, spreads, nil
}

// tryParseGenericCall implements spec.md §4.2's generic-call ambiguity
// resolution: at a postfix `<`, tentatively parse a type-argument list,
// committing only if it is immediately followed by `(`. A `>>` encountered
// while still inside the tentative list is split in place into two `>`
// tokens the same way the teacher's scanner never has to, since lnlex
// always emits single-character `>` and RShift tokens separately — the
// second `>` is recovered here by re-checking curr after consuming one.
func (p *Parser) tryParseGenericCall(callee lnast.Expression) (lnast.Expression, bool) {
	cp := p.mark()
	p.advance() // '<'
	var typeArgs []lnast.Type
	ok := true
	for !p.check(lntoken.Greater) && !p.check(lntoken.RShift) {
		if p.check(lntoken.EOF) || p.check(lntoken.Semi) || p.check(lntoken.LBrace) {
			ok = false
			break
		}
		typeArgs = append(typeArgs, p.parseType())
		if !p.accept(lntoken.Comma) {
			break
		}
	}
	if ok {
		switch {
		case p.check(lntoken.Greater):
			p.advance()
		case p.check(lntoken.RShift):
			// Split '>>' into one consumed '>' and one synthesized '>' left
			// as curr for the next check.
			p.curr = lntoken.Token{Kind: lntoken.Greater, Span: p.curr.Span}
		default:
			ok = false
		}
	}
	if ok && p.check(lntoken.LParen) {
		p.commit(cp)
		args, spreads, _ := p.parseCallTail()
		n := lnast.Alloc[lnast.CallExpr](p.arena)
		n.Span = joinSpan(callee.NodeSpan(), p.lastSpan())
		n.Callee, n.Args, n.Spreads, n.TypeArgs = callee, args, spreads, typeArgs
		return n, true
	}
	p.reset(cp)
	return nil, false
}

// tryParseArrow attempts an arrow-function head at a saved position; on
// failure it restores the parser and reports false so the caller falls
// through to assignment-level parsing, per spec.md §4.2.
func (p *Parser) tryParseArrow() (lnast.Expression, bool) {
	if p.check(lntoken.Ident_) && p.peek().Kind == lntoken.FatArrow {
		start := p.curr.Span
		id := p.ident()
		p.advance() // '=>'
		param := lnast.Param{Pattern: identPattern(p.arena, id)}
		return p.finishArrow(start, []lnast.Param{param}, nil)
	}
	if !p.check(lntoken.LParen) {
		return nil, false
	}
	cp := p.mark()
	start := p.curr.Span
	params, ok := p.tryParseParamList()
	if !ok {
		p.reset(cp)
		return nil, false
	}
	var ret lnast.Type
	if p.accept(lntoken.Colon) {
		ret = p.parseType()
	}
	if !p.check(lntoken.FatArrow) {
		p.reset(cp)
		return nil, false
	}
	p.commit(cp)
	p.advance() // '=>'
	return p.finishArrow(start, params, ret)
}

func (p *Parser) finishArrow(start lntoken.Span, params []lnast.Param, ret lnast.Type) (lnast.Expression, bool) {
	n := lnast.Alloc[lnast.ArrowExpr](p.arena)
	n.Params, n.ReturnType = params, ret
	if p.check(lntoken.LBrace) || p.check(lntoken.Do) {
		n.Body = p.parseBlock(lntoken.Do, lntoken.End)
	} else {
		n.ExprBody = p.parseAssignment()
	}
	n.Span = joinSpan(start, p.lastSpan())
	return n, true
}

// tryParseParamList tentatively parses "(" paramList ")" as an arrow-head
// parameter list, reporting ok=false on any shape it doesn't recognize so
// the caller can fall back to parsing "(" as a parenthesized expression.
func (p *Parser) tryParseParamList() ([]lnast.Param, bool) {
	p.advance() // '('
	var params []lnast.Param
	for !p.check(lntoken.RParen) {
		if p.check(lntoken.EOF) {
			return nil, false
		}
		rest := p.accept(lntoken.DotDotDot)
		if !p.check(lntoken.Ident_) {
			return nil, false
		}
		id := p.ident()
		var annotation lnast.Type
		if p.accept(lntoken.Colon) {
			annotation = p.parseType()
		}
		var def lnast.Expression
		if p.accept(lntoken.Assign) {
			def = p.parseAssignment()
		}
		params = append(params, lnast.Param{
			Pattern: identPattern(p.arena, id), Annotation: annotation, Default: def, Rest: rest,
		})
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

func identPattern(a *lnast.Arena, id lnast.Ident) lnast.Pattern {
	n := lnast.Alloc[lnast.IdentPattern](a)
	n.Span, n.Name = id.Span, id.Name
	return n
}

// parsePrimary parses a literal, identifier, parenthesized expression, `new`
// expression, array/object literal, match expression, template literal,
// try-expression, or function expression — anything that cannot itself be
// decomposed into a tighter-binding prefix/infix/postfix operator.
func (p *Parser) parsePrimary() lnast.Expression {
	switch p.curr.Kind {
	case lntoken.Nil:
		n := lnast.Alloc[lnast.NilLiteral](p.arena)
		n.Span = p.curr.Span
		p.advance()
		return n
	case lntoken.True, lntoken.False:
		n := lnast.Alloc[lnast.BoolLiteral](p.arena)
		n.Span, n.Value = p.curr.Span, p.curr.Kind == lntoken.True
		p.advance()
		return n
	case lntoken.Number:
		return p.parseNumberLiteral()
	case lntoken.String:
		n := lnast.Alloc[lnast.StringLiteral](p.arena)
		n.Span, n.Value = p.curr.Span, p.curr.Text
		p.advance()
		return n
	case lntoken.TemplateStringToken:
		return p.parseTemplateLiteral()
	case lntoken.Self:
		n := lnast.Alloc[lnast.SelfExpr](p.arena)
		n.Span = p.curr.Span
		p.advance()
		return n
	case lntoken.Super:
		n := lnast.Alloc[lnast.SuperExpr](p.arena)
		n.Span = p.curr.Span
		p.advance()
		return n
	case lntoken.Ident_:
		id := p.ident()
		n := lnast.Alloc[lnast.IdentExpr](p.arena)
		n.Span, n.Name = id.Span, id.Name
		return n
	case lntoken.Vararg:
		id := lnast.Ident{Name: p.it.Intern("..."), Span: p.curr.Span}
		p.advance()
		n := lnast.Alloc[lnast.IdentExpr](p.arena)
		n.Span, n.Name = id.Span, id.Name
		return n
	case lntoken.LParen:
		return p.parseParenExpr()
	case lntoken.LBracket:
		return p.parseArrayLiteral()
	case lntoken.LBrace:
		return p.parseObjectLiteral()
	case lntoken.New:
		return p.parseNewExpr()
	case lntoken.Function:
		return p.parseFunctionExpr()
	case lntoken.Match:
		return p.parseMatchExpr()
	case lntoken.Try:
		return p.parseTryExpr()
	default:
		p.sink.Reportf(diag.E2014, p.curr.Span, "unexpected token %s in expression", p.curr.Kind)
		n := lnast.Alloc[lnast.NilLiteral](p.arena)
		n.Span = p.curr.Span
		if !p.check(lntoken.EOF) {
			p.advance()
		}
		return n
	}
}

// isIntegerLiteral reports whether text is an integer-kind numeric literal:
// no decimal point and, for decimal literals, no exponent. A hex literal
// with a 'p'/'P' binary exponent or a '.' is a float; otherwise it's an
// integer.
func isIntegerLiteral(text string) bool {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		return !strings.ContainsAny(text, ".pP")
	}
	return !strings.ContainsAny(text, ".eE")
}

func (p *Parser) parseNumberLiteral() lnast.Expression {
	n := lnast.Alloc[lnast.NumberLiteral](p.arena)
	n.Span, n.Text = p.curr.Span, p.curr.Text
	n.Integer = isIntegerLiteral(p.curr.Text)
	p.advance()
	return n
}

func (p *Parser) parseParenExpr() lnast.Expression {
	openSpan := p.curr.Span
	p.advance()
	if p.check(lntoken.RParen) {
		p.sink.Reportf(diag.E2020, p.curr.Span, "empty parenthesized expression")
		p.advance()
		n := lnast.Alloc[lnast.NilLiteral](p.arena)
		n.Span = joinSpan(openSpan, p.lastSpan())
		return n
	}
	inner := p.parseExpression()
	p.checkMatch(openSpan, lntoken.LParen, lntoken.RParen)
	n := lnast.Alloc[lnast.ParenExpr](p.arena)
	n.Span = joinSpan(openSpan, p.lastSpan())
	n.Inner = inner
	return n
}

func (p *Parser) parseArrayLiteral() lnast.Expression {
	openSpan := p.curr.Span
	p.advance()
	var elems []lnast.Expression
	var spreads []bool
	for !p.check(lntoken.RBracket) && !p.check(lntoken.EOF) {
		spread := p.accept(lntoken.DotDotDot)
		elems = append(elems, p.parseAssignment())
		spreads = append(spreads, spread)
		if !p.accept(lntoken.Comma) {
			break
		}
	}
	p.checkMatch(openSpan, lntoken.LBracket, lntoken.RBracket)
	n := lnast.Alloc[lnast.ArrayLiteral](p.arena)
	n.Span = joinSpan(openSpan, p.lastSpan())
	n.Elements, n.Spreads = elems, spreads
	return n
}

func (p *Parser) parseObjectLiteral() lnast.Expression {
	openSpan := p.curr.Span
	p.advance()
	var props []lnast.ObjectProperty
	for !p.check(lntoken.RBrace) && !p.check(lntoken.EOF) {
		props = append(props, p.parseObjectProperty())
		if !p.accept(lntoken.Comma) {
			break
		}
	}
	p.checkMatch(openSpan, lntoken.LBrace, lntoken.RBrace)
	n := lnast.Alloc[lnast.ObjectLiteral](p.arena)
	n.Span = joinSpan(openSpan, p.lastSpan())
	n.Properties = props
	return n
}

func (p *Parser) parseObjectProperty() lnast.ObjectProperty {
	if p.accept(lntoken.DotDotDot) {
		v := p.parseAssignment()
		return lnast.ObjectProperty{Value: v, Spread: true}
	}
	if p.check(lntoken.LBracket) {
		p.advance()
		key := p.parseExpression()
		p.expect(lntoken.RBracket)
		p.expect(lntoken.Colon)
		v := p.parseAssignment()
		return lnast.ObjectProperty{ComputedKey: key, Value: v}
	}
	name := p.identOrKeyword()
	if p.check(lntoken.LParen) {
		// Method shorthand: `key(params) { body }`.
		fn := p.parseFunctionTail(name.Span, false)
		return lnast.ObjectProperty{Key: name.Name, Value: fn, Method: true}
	}
	if !p.accept(lntoken.Colon) {
		n := lnast.Alloc[lnast.IdentExpr](p.arena)
		n.Span, n.Name = name.Span, name.Name
		return lnast.ObjectProperty{Key: name.Name, Value: n, Shorthand: true}
	}
	v := p.parseAssignment()
	return lnast.ObjectProperty{Key: name.Name, Value: v}
}

func (p *Parser) parseNewExpr() lnast.Expression {
	start := p.curr.Span
	p.advance()
	callee := p.parsePostfixNoCall()
	var typeArgs []lnast.Type
	if p.check(lntoken.Less) {
		if n, ok := p.tryParseGenericCall(callee); ok {
			call := n.(*lnast.CallExpr)
			result := lnast.Alloc[lnast.NewExpr](p.arena)
			result.Span = joinSpan(start, p.lastSpan())
			result.Callee, result.Args, result.TypeArgs = call.Callee, call.Args, call.TypeArgs
			return result
		}
	}
	var args []lnast.Expression
	if p.check(lntoken.LParen) {
		args, _, _ = p.parseCallTail()
	}
	n := lnast.Alloc[lnast.NewExpr](p.arena)
	n.Span = joinSpan(start, p.lastSpan())
	n.Callee, n.Args, n.TypeArgs = callee, args, typeArgs
	return n
}

// parsePostfixNoCall parses the callee of a `new` expression: a chain of
// member accesses without consuming a call, since `new C(...)` calls belong
// to the NewExpr, not a nested CallExpr on the callee.
func (p *Parser) parsePostfixNoCall() lnast.Expression {
	e := p.parsePrimary()
	for p.check(lntoken.Dot) {
		p.advance()
		name := p.identOrKeyword()
		n := lnast.Alloc[lnast.MemberExpr](p.arena)
		n.Span = joinSpan(e.NodeSpan(), name.Span)
		n.Object, n.Property = e, name.Name
		e = n
	}
	return e
}

func (p *Parser) parseFunctionExpr() lnast.Expression {
	start := p.curr.Span
	p.advance()
	return p.parseFunctionTailWithTypeParams(start)
}

func (p *Parser) parseFunctionTailWithTypeParams(start lntoken.Span) lnast.Expression {
	typeParams := p.tryParseTypeParams()
	fn := p.parseFunctionTail(start, false)
	fe := fn.(*lnast.FunctionExpr)
	fe.TypeParams = typeParams
	fe.Span = joinSpan(start, fe.Span)
	return fe
}

// parseFunctionTail parses "(" params ")" [":" retType] ["throw" T] block,
// already positioned just after `function` (or a method name). isMethod
// marks the receiver as implicitly having `self`.
func (p *Parser) parseFunctionTail(start lntoken.Span, isMethod bool) lnast.Expression {
	params := p.parseParamList()
	var ret, throws lnast.Type
	if p.accept(lntoken.Colon) {
		ret = p.parseType()
	}
	if p.accept(lntoken.Throw) {
		throws = p.parseType()
	}
	n := lnast.Alloc[lnast.FunctionExpr](p.arena)
	n.Params, n.ReturnType, n.Throws, n.IsMethod = params, ret, throws, isMethod
	n.Body = p.parseBlock(lntoken.Do, lntoken.End)
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

// parseParamList parses a parenthesized, possibly-annotated parameter list
// shared by function declarations, function/method expressions, and (via
// tryParseParamList) tentative arrow heads.
func (p *Parser) parseParamList() []lnast.Param {
	openSpan := p.curr.Span
	p.expect(lntoken.LParen)
	var params []lnast.Param
	for !p.check(lntoken.RParen) && !p.check(lntoken.EOF) {
		params = append(params, p.parseParam())
		if !p.accept(lntoken.Comma) {
			break
		}
	}
	p.checkMatch(openSpan, lntoken.LParen, lntoken.RParen)
	for i, prm := range params {
		if prm.Rest && i != len(params)-1 {
			p.sink.Report(diag.New(diag.E2021, prm.Pattern.NodeSpan(), "rest parameter must be last"))
		}
	}
	return params
}

func (p *Parser) parseParam() lnast.Param {
	rest := p.accept(lntoken.DotDotDot)
	pat := p.parsePattern()
	var annotation lnast.Type
	if p.accept(lntoken.Colon) {
		annotation = p.parseType()
	}
	var def lnast.Expression
	if p.accept(lntoken.Assign) {
		def = p.parseAssignment()
	}
	return lnast.Param{Pattern: pat, Annotation: annotation, Default: def, Rest: rest}
}

func (p *Parser) parseMatchExpr() lnast.Expression {
	start := p.curr.Span
	p.advance()
	p.expect(lntoken.LParen)
	subject := p.parseExpression()
	p.expect(lntoken.RParen)
	openSpan := p.curr.Span
	p.expect(lntoken.LBrace)
	var arms []lnast.MatchArm
	for !p.check(lntoken.RBrace) && !p.check(lntoken.EOF) {
		p.expect(lntoken.Case)
		pat := p.parsePattern()
		for p.accept(lntoken.Pipe) {
			alt := p.parsePattern()
			or, ok := pat.(*lnast.OrPattern)
			if !ok {
				or = lnast.Alloc[lnast.OrPattern](p.arena)
				or.Span = pat.NodeSpan()
				or.Alternatives = []lnast.Pattern{pat}
			}
			or.Alternatives = append(or.Alternatives, alt)
			pat = or
		}
		var guard lnast.Expression
		if p.accept(lntoken.If) {
			guard = p.parseExpression()
		}
		if _, ok := p.expect(lntoken.Arrow); !ok {
			p.sink.Report(diag.New(diag.E2019, p.curr.Span, "match arm missing '->' before body"))
		}
		body := p.parseAssignment()
		arms = append(arms, lnast.MatchArm{Pattern: pat, Guard: guard, Body: body})
		if !p.accept(lntoken.Comma) {
			p.accept(lntoken.Semi)
		}
	}
	p.checkMatch(openSpan, lntoken.LBrace, lntoken.RBrace)
	n := lnast.Alloc[lnast.MatchExpr](p.arena)
	n.Span = joinSpan(start, p.lastSpan())
	n.Subject, n.Arms = subject, arms
	return n
}

func (p *Parser) parseTryExpr() lnast.Expression {
	start := p.curr.Span
	p.advance()
	tryExpr := p.parseAssignment()
	n := lnast.Alloc[lnast.TryExpr](p.arena)
	n.Try = tryExpr
	if p.accept(lntoken.Catch) {
		if p.accept(lntoken.LParen) {
			id := p.ident()
			n.CatchParam = &lnast.Ident{Name: id.Name, Span: id.Span}
			p.expect(lntoken.RParen)
		}
		n.Catch = p.parseAssignment()
	}
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

// parseTemplateLiteral converts the lexer's pre-lexed [lntoken.TemplateParts]
// into a [lnast.TemplateLiteralExpr], re-entering expression parsing on each
// hole's already-lexed token vector without touching the byte stream again.
func (p *Parser) parseTemplateLiteral() lnast.Expression {
	tok := p.curr
	start := tok.Span
	parts := tok.Template
	p.advance()
	n := lnast.Alloc[lnast.TemplateLiteralExpr](p.arena)
	n.Span = start
	if parts == nil {
		return n
	}
	n.Quasis = parts.Quasis
	n.Exprs = make([]lnast.Expression, len(parts.Exprs))
	for i, toks := range parts.Exprs {
		p.pushSource(&sliceSource{toks: toks})
		p.advance()
		n.Exprs[i] = p.parseExpression()
		p.popSource()
	}
	return n
}
