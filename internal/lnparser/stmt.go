// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnparser

import (
	"strings"

	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/lntoken"
)

// variableKinds maps the introducing keyword of a [lnast.VariableDecl] to its
// [lnast.VariableKind].
var variableKinds = map[lntoken.Kind]lnast.VariableKind{
	lntoken.Const:  lnast.VarConst,
	lntoken.Let:    lnast.VarLet,
	lntoken.Local:  lnast.VarLocal,
	lntoken.Global: lnast.VarGlobal,
	lntoken.Var:    lnast.VarVar,
}

// parseStatement dispatches on curr's kind to the one parsing function that
// owns it, per spec.md §4.2's single-switch statement dispatcher. Most
// statement kinds produce exactly one [lnast.Statement]; variable
// declarations may produce several (one per comma-separated binding) and a
// bare semicolon produces none.
func (p *Parser) parseStatement() []lnast.Statement {
	switch p.curr.Kind {
	case lntoken.Semi:
		p.advance()
		return nil
	case lntoken.At:
		return []lnast.Statement{p.parseDecorated()}
	case lntoken.Abstract:
		return []lnast.Statement{p.parseAbstractDecl()}
	case lntoken.LBrace:
		return []lnast.Statement{p.parseBlockStatement()}
	case lntoken.Do:
		return []lnast.Statement{p.parseDoStatement()}
	case lntoken.If:
		return []lnast.Statement{p.parseIfStatement()}
	case lntoken.While:
		return []lnast.Statement{p.parseWhileStatement()}
	case lntoken.For:
		return []lnast.Statement{p.parseForStatement()}
	case lntoken.Repeat:
		return []lnast.Statement{p.parseRepeatStatement()}
	case lntoken.Const, lntoken.Let, lntoken.Local, lntoken.Var, lntoken.Global:
		return p.parseVariableDecl()
	case lntoken.Function:
		return []lnast.Statement{p.parseFunctionDecl(nil, false)}
	case lntoken.Class:
		return []lnast.Statement{p.parseClassDecl(nil, false, false)}
	case lntoken.Interface:
		return []lnast.Statement{p.parseInterfaceDecl(false)}
	case lntoken.Type:
		return []lnast.Statement{p.parseTypeAliasDecl(false)}
	case lntoken.Enum:
		return []lnast.Statement{p.parseEnumDecl(false)}
	case lntoken.Namespace:
		return []lnast.Statement{p.parseNamespaceDecl()}
	case lntoken.Import:
		return []lnast.Statement{p.parseImportStatement()}
	case lntoken.Export:
		return []lnast.Statement{p.parseExportStatement()}
	case lntoken.Throw:
		return []lnast.Statement{p.parseThrowStatement()}
	case lntoken.Try:
		return []lnast.Statement{p.parseTryStatement()}
	case lntoken.Declare:
		return p.parseDeclareStatement()
	case lntoken.Return:
		return []lnast.Statement{p.parseReturnStatement()}
	case lntoken.Break:
		return []lnast.Statement{p.parseBreakStatement()}
	case lntoken.Continue:
		return []lnast.Statement{p.parseContinueStatement()}
	case lntoken.Label:
		return []lnast.Statement{p.parseLabelStatement()}
	case lntoken.Goto:
		return []lnast.Statement{p.parseGotoStatement()}
	default:
		stmt := p.parseSimpleStatement()
		return []lnast.Statement{stmt}
	}
}

// parseDecorator parses one `@name(args...)` attribute, already positioned
// at the `@`.
func (p *Parser) parseDecorator() lnast.Decorator {
	start := p.curr.Span
	p.advance() // '@'
	name := p.ident()
	var args []lnast.Expression
	if p.check(lntoken.LParen) {
		args, _, _ = p.parseCallTail()
	}
	return lnast.Decorator{Span: joinSpan(start, p.lastSpan()), Name: name.Name, Args: args}
}

// parseDecorated consumes a run of decorators and routes to the declaration
// kind they may legally precede.
func (p *Parser) parseDecorated() lnast.Statement {
	var decorators []lnast.Decorator
	for p.check(lntoken.At) {
		decorators = append(decorators, p.parseDecorator())
	}
	switch p.curr.Kind {
	case lntoken.Class:
		return p.parseClassDecl(decorators, false, false)
	case lntoken.Abstract:
		p.advance()
		return p.parseClassDecl(decorators, false, true)
	case lntoken.Function:
		return p.parseFunctionDecl(decorators, false)
	default:
		p.sink.Reportf(diag.E2005, p.curr.Span, "decorator must precede a class or function declaration, found %s", p.curr.Kind)
		return p.parseSimpleStatement()
	}
}

func (p *Parser) parseAbstractDecl() lnast.Statement {
	p.advance() // 'abstract'
	if p.check(lntoken.Class) {
		return p.parseClassDecl(nil, false, true)
	}
	p.sink.Reportf(diag.E2005, p.curr.Span, "expected 'class' after 'abstract', found %s", p.curr.Kind)
	return p.parseSimpleStatement()
}

func (p *Parser) parseBlockStatement() lnast.Statement {
	openSpan := p.curr.Span
	p.advance() // '{'
	body := p.parseBlockBody(openSpan, styleBrace, lntoken.End)
	n := lnast.Alloc[lnast.BlockStatement](p.arena)
	n.Body = body
	n.Span = joinSpan(openSpan, p.lastSpan())
	return n
}

func (p *Parser) parseDoStatement() lnast.Statement {
	start := p.curr.Span
	body := p.parseBlock(lntoken.Do, lntoken.End)
	n := lnast.Alloc[lnast.DoStatement](p.arena)
	n.Body = body
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

// openThenBlock consumes the opener of an if/elseif clause body, reporting
// which delimiter family was used so the caller can decide whether a final
// `end` is required.
func (p *Parser) openThenBlock() (blockStyle, bool) {
	switch {
	case p.accept(lntoken.LBrace):
		return styleBrace, true
	case p.accept(lntoken.Then):
		return styleKeyword, true
	default:
		p.sink.Reportf(diag.E2005, p.curr.Span, "expected '{' or 'then', found %s", p.curr.Kind)
		return styleKeyword, false
	}
}

// parseClauseBody parses one if/elseif/else clause's statements, stopping at
// its own '}' in brace style or at the next elseif/else/end in keyword
// style without consuming that terminator.
func (p *Parser) parseClauseBody(openSpan lntoken.Span, style blockStyle) []lnast.Statement {
	if style == styleBrace {
		stmts := p.parseStatementsUntil(func() bool { return p.check(lntoken.RBrace) })
		p.checkMatch(openSpan, lntoken.LBrace, lntoken.RBrace)
		return stmts
	}
	return p.parseStatementsUntil(func() bool {
		return p.check(lntoken.Else) || p.check(lntoken.Elseif) || p.check(lntoken.End)
	})
}

func (p *Parser) parseIfStatement() lnast.Statement {
	start := p.curr.Span
	p.advance() // 'if'
	cond := p.parseExpression()
	openSpan := p.curr.Span
	style, ok := p.openThenBlock()
	n := lnast.Alloc[lnast.IfStatement](p.arena)
	n.Cond = cond
	if !ok {
		n.Span = joinSpan(start, p.lastSpan())
		return n
	}
	n.Then = p.parseClauseBody(openSpan, style)
	for p.check(lntoken.Elseif) {
		p.advance()
		eCond := p.parseExpression()
		eOpenSpan := p.curr.Span
		eStyle, eok := p.openThenBlock()
		if !eok {
			break
		}
		eBody := p.parseClauseBody(eOpenSpan, eStyle)
		n.ElseIfs = append(n.ElseIfs, lnast.ElseIf{Cond: eCond, Body: eBody})
	}
	if p.accept(lntoken.Else) {
		elseOpenSpan := p.curr.Span
		if p.check(lntoken.LBrace) {
			p.advance()
			n.Else = p.parseBlockBody(elseOpenSpan, styleBrace, lntoken.End)
		} else {
			n.Else = p.parseStatementsUntil(func() bool { return p.check(lntoken.End) })
		}
	}
	if style == styleKeyword {
		p.checkMatch(start, lntoken.If, lntoken.End)
	}
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

func (p *Parser) parseWhileStatement() lnast.Statement {
	start := p.curr.Span
	p.advance() // 'while'
	cond := p.parseExpression()
	p.loopDepth++
	body := p.parseBlock(lntoken.Do, lntoken.End)
	p.loopDepth--
	n := lnast.Alloc[lnast.WhileStatement](p.arena)
	n.Cond, n.Body = cond, body
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

func (p *Parser) parseRepeatStatement() lnast.Statement {
	start := p.curr.Span
	p.advance() // 'repeat'
	p.loopDepth++
	var body []lnast.Statement
	if p.check(lntoken.LBrace) {
		openSpan := p.curr.Span
		p.advance()
		body = p.parseStatementsUntil(func() bool { return p.check(lntoken.RBrace) })
		p.checkMatch(openSpan, lntoken.LBrace, lntoken.RBrace)
	} else {
		body = p.parseStatementsUntil(func() bool { return p.check(lntoken.Until) })
	}
	p.loopDepth--
	p.expect(lntoken.Until)
	cond := p.parseExpression()
	n := lnast.Alloc[lnast.RepeatStatement](p.arena)
	n.Body, n.Cond = body, cond
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

// parseForStatement disambiguates numeric-for from for-in by checking
// whether a single bare identifier is immediately followed by '='.
func (p *Parser) parseForStatement() lnast.Statement {
	start := p.curr.Span
	p.advance() // 'for'
	if p.check(lntoken.Ident_) && p.peek().Kind == lntoken.Assign {
		return p.parseForNumeric(start)
	}
	return p.parseForIn(start)
}

func (p *Parser) parseForNumeric(start lntoken.Span) lnast.Statement {
	id := p.ident()
	p.expect(lntoken.Assign)
	from := p.parseAssignment()
	p.expect(lntoken.Comma)
	to := p.parseAssignment()
	var step lnast.Expression
	if p.accept(lntoken.Comma) {
		step = p.parseAssignment()
	}
	p.loopDepth++
	body := p.parseBlock(lntoken.Do, lntoken.End)
	p.loopDepth--
	n := lnast.Alloc[lnast.ForNumericStatement](p.arena)
	n.Var, n.Start, n.Stop, n.Step, n.Body = id.Name, from, to, step, body
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

func (p *Parser) parseForIn(start lntoken.Span) lnast.Statement {
	vars := []lnast.Pattern{p.parsePattern()}
	for p.accept(lntoken.Comma) {
		vars = append(vars, p.parsePattern())
	}
	p.expect(lntoken.In)
	iterable := []lnast.Expression{p.parseAssignment()}
	for p.accept(lntoken.Comma) {
		iterable = append(iterable, p.parseAssignment())
	}
	p.loopDepth++
	body := p.parseBlock(lntoken.Do, lntoken.End)
	p.loopDepth--
	n := lnast.Alloc[lnast.ForInStatement](p.arena)
	n.Vars, n.Iterable, n.Body = vars, iterable, body
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

// parseVariableDecl parses "kind binding (',' binding)* ';'?" where each
// binding is "pattern [':' type] ['=' init]", producing one
// [lnast.VariableDecl] per binding.
func (p *Parser) parseVariableDecl() []lnast.Statement {
	start := p.curr.Span
	kind := variableKinds[p.curr.Kind]
	p.advance()
	var stmts []lnast.Statement
	for {
		pat := p.parsePattern()
		var annotation lnast.Type
		if p.accept(lntoken.Colon) {
			annotation = p.parseType()
		}
		var init lnast.Expression
		if p.accept(lntoken.Assign) {
			init = p.parseExpression()
		}
		n := lnast.Alloc[lnast.VariableDecl](p.arena)
		n.Kind, n.Pattern, n.Annotation, n.Init = kind, pat, annotation, init
		n.Span = joinSpan(start, p.lastSpan())
		stmts = append(stmts, n)
		if !p.accept(lntoken.Comma) {
			break
		}
	}
	p.accept(lntoken.Semi)
	return stmts
}

func (p *Parser) parseFunctionDecl(decorators []lnast.Decorator, ambient bool) lnast.Statement {
	start := p.curr.Span
	p.advance() // 'function'
	name := p.ident()
	typeParams := p.tryParseTypeParams()
	params := p.parseParamList()
	var ret, throws lnast.Type
	if p.accept(lntoken.Colon) {
		ret = p.parseType()
	}
	if p.accept(lntoken.Throw) {
		throws = p.parseType()
	}
	n := lnast.Alloc[lnast.FunctionDecl](p.arena)
	n.Name, n.TypeParams, n.Params, n.ReturnType, n.Throws = name.Name, typeParams, params, ret, throws
	n.Ambient, n.Decorators = ambient, decorators
	if ambient {
		p.accept(lntoken.Semi)
	} else {
		n.Body = p.parseBlock(lntoken.Do, lntoken.End)
	}
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

// parseMethodSignature parses "(params) [':' retType] ['throw' T] body",
// already positioned just after the method's name; body is omitted (only a
// trailing ';' consumed) when abstract is set.
func (p *Parser) parseMethodSignature(nameSpan lntoken.Span, typeParams []lnast.TypeParam, abstract bool) *lnast.FunctionExpr {
	params := p.parseParamList()
	var ret, throws lnast.Type
	if p.accept(lntoken.Colon) {
		ret = p.parseType()
	}
	if p.accept(lntoken.Throw) {
		throws = p.parseType()
	}
	fe := lnast.Alloc[lnast.FunctionExpr](p.arena)
	fe.Params, fe.ReturnType, fe.Throws, fe.IsMethod, fe.TypeParams = params, ret, throws, true, typeParams
	if abstract {
		p.accept(lntoken.Semi)
	} else {
		fe.Body = p.parseBlock(lntoken.Do, lntoken.End)
	}
	fe.Span = joinSpan(nameSpan, p.lastSpan())
	return fe
}

// parseClassMember parses one field, method, getter, setter, operator
// overload, or constructor of a [lnast.ClassDecl].
func (p *Parser) parseClassMember() lnast.ClassMember {
	start := p.curr.Span
	var decorators []lnast.Decorator
	for p.check(lntoken.At) {
		decorators = append(decorators, p.parseDecorator())
	}
	vis := lnast.Public
	switch p.curr.Kind {
	case lntoken.Public:
		p.advance()
	case lntoken.Protected:
		vis = lnast.Protected
		p.advance()
	case lntoken.Private:
		vis = lnast.Private
		p.advance()
	}
	static := p.accept(lntoken.Static)
	abstract := p.accept(lntoken.Abstract)
	readonly := p.accept(lntoken.Readonly)

	// `get`/`set` only introduce an accessor when not themselves the member
	// name (a field or method literally called "get"/"set" is legal).
	isAccessorIntro := func() bool {
		switch p.peek().Kind {
		case lntoken.LParen, lntoken.Colon, lntoken.Assign, lntoken.Semi, lntoken.Comma:
			return false
		default:
			return true
		}
	}
	if p.check(lntoken.Get) && isAccessorIntro() {
		p.advance()
		name := p.identOrKeyword()
		fe := p.parseMethodSignature(name.Span, nil, abstract)
		return lnast.ClassMember{Span: joinSpan(start, fe.Span), Name: name.Name, Visibility: vis,
			Static: static, Abstract: abstract, IsGetter: true, IsMethod: true, Decorators: decorators, Method: fe}
	}
	if p.check(lntoken.Set) && isAccessorIntro() {
		p.advance()
		name := p.identOrKeyword()
		fe := p.parseMethodSignature(name.Span, nil, abstract)
		return lnast.ClassMember{Span: joinSpan(start, fe.Span), Name: name.Name, Visibility: vis,
			Static: static, Abstract: abstract, IsSetter: true, IsMethod: true, Decorators: decorators, Method: fe}
	}
	if p.accept(lntoken.Operator) {
		opName := p.identOrKeyword()
		fe := p.parseMethodSignature(opName.Span, nil, abstract)
		return lnast.ClassMember{Span: joinSpan(start, fe.Span), Name: opName.Name, Visibility: vis,
			Static: static, Abstract: abstract, Decorators: decorators, Method: fe, IsMethod: true,
			OperatorTag: p.it.MustResolve(opName.Name)}
	}

	name := p.identOrKeyword()
	typeParams := p.tryParseTypeParams()
	if p.check(lntoken.LParen) {
		fe := p.parseMethodSignature(name.Span, typeParams, abstract)
		return lnast.ClassMember{Span: joinSpan(start, fe.Span), Name: name.Name, Visibility: vis,
			Static: static, Abstract: abstract, Decorators: decorators, Method: fe, IsMethod: true}
	}
	var annotation lnast.Type
	if p.accept(lntoken.Colon) {
		annotation = p.parseType()
	}
	var init lnast.Expression
	if p.accept(lntoken.Assign) {
		init = p.parseAssignment()
	}
	p.accept(lntoken.Semi)
	p.accept(lntoken.Comma)
	return lnast.ClassMember{Span: joinSpan(start, p.lastSpan()), Name: name.Name, Visibility: vis,
		Static: static, Readonly: readonly, Decorators: decorators, Annotation: annotation, Init: init, IsField: true}
}

func (p *Parser) parseClassDecl(decorators []lnast.Decorator, ambient, abstract bool) lnast.Statement {
	start := p.curr.Span
	p.advance() // 'class'
	name := p.ident()
	typeParams := p.tryParseTypeParams()
	var extends lnast.Type
	if p.accept(lntoken.Extends) {
		extends = p.parseType()
	}
	var implements []lnast.Type
	if p.accept(lntoken.Implements) {
		implements = append(implements, p.parseType())
		for p.accept(lntoken.Comma) {
			implements = append(implements, p.parseType())
		}
	}
	if ambient && p.check(lntoken.Semi) {
		p.advance()
		n := lnast.Alloc[lnast.ClassDecl](p.arena)
		n.Name, n.TypeParams, n.Extends, n.Implements = name.Name, typeParams, extends, implements
		n.Ambient, n.Forward, n.Decorators, n.Abstract = true, true, decorators, abstract
		n.Span = joinSpan(start, p.lastSpan())
		return n
	}
	openSpan := p.curr.Span
	p.expect(lntoken.LBrace)
	var members []lnast.ClassMember
	for !p.check(lntoken.RBrace) && !p.check(lntoken.EOF) {
		members = append(members, p.parseClassMember())
	}
	p.checkMatch(openSpan, lntoken.LBrace, lntoken.RBrace)
	n := lnast.Alloc[lnast.ClassDecl](p.arena)
	n.Name, n.TypeParams, n.Extends, n.Implements, n.Members = name.Name, typeParams, extends, implements, members
	n.Ambient, n.Abstract, n.Decorators = ambient, abstract, decorators
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

func (p *Parser) parseInterfaceDecl(ambient bool) lnast.Statement {
	start := p.curr.Span
	p.advance() // 'interface'
	name := p.ident()
	typeParams := p.tryParseTypeParams()
	var extends []lnast.Type
	if p.accept(lntoken.Extends) {
		extends = append(extends, p.parseType())
		for p.accept(lntoken.Comma) {
			extends = append(extends, p.parseType())
		}
	}
	if ambient && p.check(lntoken.Semi) {
		p.advance()
		n := lnast.Alloc[lnast.InterfaceDecl](p.arena)
		n.Name, n.TypeParams, n.Extends = name.Name, typeParams, extends
		n.Ambient, n.Forward = true, true
		n.Span = joinSpan(start, p.lastSpan())
		return n
	}
	openSpan := p.curr.Span
	p.expect(lntoken.LBrace)
	var members []lnast.InterfaceMember
	for !p.check(lntoken.RBrace) && !p.check(lntoken.EOF) {
		members = append(members, p.parseInterfaceMember())
	}
	p.checkMatch(openSpan, lntoken.LBrace, lntoken.RBrace)
	n := lnast.Alloc[lnast.InterfaceDecl](p.arena)
	n.Name, n.TypeParams, n.Extends, n.Members, n.Ambient = name.Name, typeParams, extends, members, ambient
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

func (p *Parser) parseInterfaceMember() lnast.InterfaceMember {
	start := p.curr.Span
	readonly := p.accept(lntoken.Readonly)
	name := p.identOrKeyword()
	optional := p.accept(lntoken.Question)
	if p.check(lntoken.LParen) {
		params := p.parseParamList()
		var ret lnast.Type
		if p.accept(lntoken.Colon) {
			ret = p.parseType()
		}
		var body []lnast.Statement
		if p.check(lntoken.LBrace) || p.check(lntoken.Do) {
			body = p.parseBlock(lntoken.Do, lntoken.End)
		} else {
			p.accept(lntoken.Semi)
		}
		return lnast.InterfaceMember{Span: joinSpan(start, p.lastSpan()), Name: name.Name, Optional: optional,
			Params: params, ReturnType: ret, IsMethod: true, Body: body}
	}
	p.expect(lntoken.Colon)
	t := p.parseType()
	p.accept(lntoken.Semi)
	p.accept(lntoken.Comma)
	return lnast.InterfaceMember{Span: joinSpan(start, p.lastSpan()), Name: name.Name, Optional: optional, Readonly: readonly, Annotation: t}
}

func (p *Parser) parseTypeAliasDecl(ambient bool) lnast.Statement {
	start := p.curr.Span
	p.advance() // 'type'
	name := p.ident()
	typeParams := p.tryParseTypeParams()
	p.expect(lntoken.Assign)
	value := p.parseType()
	p.accept(lntoken.Semi)
	n := lnast.Alloc[lnast.TypeAliasDecl](p.arena)
	n.Name, n.TypeParams, n.Value, n.Ambient = name.Name, typeParams, value, ambient
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

// parseEnumDecl parses a simple or rich enum: members optionally carrying
// constructor fields, followed by zero or more method declarations sharing
// the enum's body.
func (p *Parser) parseEnumDecl(ambient bool) lnast.Statement {
	start := p.curr.Span
	p.advance() // 'enum'
	name := p.ident()
	openSpan := p.curr.Span
	p.expect(lntoken.LBrace)
	var members []lnast.EnumMember
	rich := false
	for !p.check(lntoken.RBrace) && !p.check(lntoken.EOF) && !p.check(lntoken.Function) {
		mStart := p.curr.Span
		mName := p.ident()
		m := lnast.EnumMember{Span: mStart, Name: mName.Name}
		switch {
		case p.check(lntoken.LParen):
			rich = true
			openP := p.curr.Span
			p.advance()
			for !p.check(lntoken.RParen) && !p.check(lntoken.EOF) {
				m.Fields = append(m.Fields, p.parseParam())
				if !p.accept(lntoken.Comma) {
					break
				}
			}
			p.checkMatch(openP, lntoken.LParen, lntoken.RParen)
		case p.accept(lntoken.Assign):
			m.Value = p.parseAssignment()
		}
		m.Span = joinSpan(mStart, p.lastSpan())
		members = append(members, m)
		if !p.accept(lntoken.Comma) {
			break
		}
	}
	var methods []lnast.FunctionDecl
	for p.check(lntoken.Function) {
		fnStart := p.curr.Span
		p.advance()
		fnName := p.ident()
		fe := p.parseMethodSignature(fnName.Span, nil, false)
		fd := lnast.FunctionDecl{Name: fnName.Name, Params: fe.Params, ReturnType: fe.ReturnType,
			Throws: fe.Throws, Body: fe.Body}
		fd.Span = joinSpan(fnStart, fe.Span)
		methods = append(methods, fd)
		rich = true
	}
	p.checkMatch(openSpan, lntoken.LBrace, lntoken.RBrace)
	n := lnast.Alloc[lnast.EnumDecl](p.arena)
	n.Name, n.Members, n.Methods, n.Rich, n.Ambient = name.Name, members, methods, rich, ambient
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

// parseDottedName parses a `.`-separated path (used by namespace
// declarations) into a single interned name.
func (p *Parser) parseDottedName() lnast.Name {
	first := p.ident()
	if !p.check(lntoken.Dot) {
		return first.Name
	}
	parts := []string{p.it.MustResolve(first.Name)}
	for p.accept(lntoken.Dot) {
		seg := p.ident()
		parts = append(parts, p.it.MustResolve(seg.Name))
	}
	return p.it.Intern(strings.Join(parts, "."))
}

func (p *Parser) parseNamespaceDecl() lnast.Statement {
	start := p.curr.Span
	p.advance() // 'namespace'
	name := p.parseDottedName()
	openSpan := p.curr.Span
	p.expect(lntoken.LBrace)
	body := p.parseStatementsUntil(func() bool { return p.check(lntoken.RBrace) })
	p.checkMatch(openSpan, lntoken.LBrace, lntoken.RBrace)
	n := lnast.Alloc[lnast.NamespaceDecl](p.arena)
	n.Name, n.Body = name, body
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

func (p *Parser) parseImportSpecifierList() []lnast.ImportSpecifier {
	p.expect(lntoken.LBrace)
	var specs []lnast.ImportSpecifier
	for !p.check(lntoken.RBrace) && !p.check(lntoken.EOF) {
		typeOnly := p.accept(lntoken.Type)
		name := p.identOrKeyword()
		spec := lnast.ImportSpecifier{Name: name.Name, TypeOnly: typeOnly}
		if p.accept(lntoken.As) {
			alias := p.ident()
			spec.Alias = alias.Name
		}
		specs = append(specs, spec)
		if !p.accept(lntoken.Comma) {
			break
		}
	}
	p.expect(lntoken.RBrace)
	return specs
}

func (p *Parser) parseImportStatement() lnast.Statement {
	start := p.curr.Span
	p.advance() // 'import'
	typeOnly := p.accept(lntoken.Type)
	n := lnast.Alloc[lnast.ImportStatement](p.arena)
	n.TypeOnly = typeOnly
	switch {
	case p.check(lntoken.Mul):
		p.advance()
		p.expect(lntoken.As)
		ns := p.ident()
		n.Kind, n.Namespace = lnast.ImportNamespace, ns.Name
	case p.check(lntoken.LBrace):
		n.Kind = lnast.ImportNamed
		n.Specifiers = p.parseImportSpecifierList()
	default:
		def := p.ident()
		n.Kind, n.Default = lnast.ImportDefault, def.Name
		if p.accept(lntoken.Comma) {
			n.Specifiers = p.parseImportSpecifierList()
		}
	}
	p.expect(lntoken.From)
	if tok, ok := p.expect(lntoken.String); ok {
		n.ModulePath = tok.Text
	}
	p.accept(lntoken.Semi)
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

func (p *Parser) parseExportStatement() lnast.Statement {
	start := p.curr.Span
	p.advance() // 'export'
	n := lnast.Alloc[lnast.ExportStatement](p.arena)
	switch {
	case p.check(lntoken.Mul):
		p.advance()
		n.ReExport = lnast.ReExportAll
		p.expect(lntoken.From)
		if tok, ok := p.expect(lntoken.String); ok {
			n.FromPath = tok.Text
		}
		p.accept(lntoken.Semi)
	case p.check(lntoken.Default):
		p.advance()
		n.DefaultExpr = p.parseAssignment()
		p.accept(lntoken.Semi)
	case p.check(lntoken.LBrace):
		p.advance()
		for !p.check(lntoken.RBrace) && !p.check(lntoken.EOF) {
			typeOnly := p.accept(lntoken.Type)
			local := p.identOrKeyword()
			spec := lnast.ExportSpecifier{Local: local.Name, TypeOnly: typeOnly}
			if p.accept(lntoken.As) {
				ext := p.identOrKeyword()
				spec.External = ext.Name
			}
			n.Specifiers = append(n.Specifiers, spec)
			if !p.accept(lntoken.Comma) {
				break
			}
		}
		p.expect(lntoken.RBrace)
		n.ReExport = lnast.ReExportNamed
		if p.accept(lntoken.From) {
			if tok, ok := p.expect(lntoken.String); ok {
				n.FromPath = tok.Text
			}
		} else {
			n.ReExport = lnast.ReExportNone
		}
		p.accept(lntoken.Semi)
	default:
		decls := p.parseStatement()
		if len(decls) > 0 {
			n.Decl = decls[0]
		}
	}
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

func (p *Parser) parseThrowStatement() lnast.Statement {
	start := p.curr.Span
	p.advance() // 'throw'
	if p.check(lntoken.Semi) || blockTerminators[p.curr.Kind] {
		p.accept(lntoken.Semi)
		n := lnast.Alloc[lnast.RethrowStatement](p.arena)
		n.Span = start
		return n
	}
	val := p.parseExpression()
	p.accept(lntoken.Semi)
	n := lnast.Alloc[lnast.ThrowStatement](p.arena)
	n.Value = val
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

// parseTryBody parses a try/catch/finally clause body, stopping before a
// sibling clause keyword or the final 'end' without consuming it.
func (p *Parser) parseTryBody() []lnast.Statement {
	if p.check(lntoken.LBrace) {
		openSpan := p.curr.Span
		p.advance()
		stmts := p.parseStatementsUntil(func() bool { return p.check(lntoken.RBrace) })
		p.checkMatch(openSpan, lntoken.LBrace, lntoken.RBrace)
		return stmts
	}
	p.expect(lntoken.Do)
	return p.parseStatementsUntil(func() bool {
		return p.check(lntoken.Catch) || p.check(lntoken.Finally) || p.check(lntoken.End)
	})
}

func (p *Parser) parseTryStatement() lnast.Statement {
	start := p.curr.Span
	p.advance() // 'try'
	style := styleKeyword
	if p.check(lntoken.LBrace) {
		style = styleBrace
	}
	n := lnast.Alloc[lnast.TryStatement](p.arena)
	n.Try = p.parseTryBody()
	if p.accept(lntoken.Catch) {
		if p.accept(lntoken.LParen) {
			id := p.ident()
			n.CatchParam = &lnast.Ident{Name: id.Name, Span: id.Span}
			p.expect(lntoken.RParen)
		}
		n.Catch = p.parseTryBody()
	}
	if p.accept(lntoken.Finally) {
		n.Finally = p.parseTryBody()
	}
	if style == styleKeyword {
		p.expect(lntoken.End)
	}
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

// parseDeclareStatement parses the `declare` ambient-modifier wrapper,
// marking whichever declaration follows as Ambient (ClassDecl/InterfaceDecl
// additionally become Forward declarations when no body follows).
func (p *Parser) parseDeclareStatement() []lnast.Statement {
	p.advance() // 'declare'
	switch p.curr.Kind {
	case lntoken.Function:
		return []lnast.Statement{p.parseFunctionDecl(nil, true)}
	case lntoken.Class:
		return []lnast.Statement{p.parseClassDecl(nil, true, false)}
	case lntoken.Interface:
		return []lnast.Statement{p.parseInterfaceDecl(true)}
	case lntoken.Enum:
		return []lnast.Statement{p.parseEnumDecl(true)}
	case lntoken.Namespace:
		return []lnast.Statement{p.parseNamespaceDecl()}
	case lntoken.Type:
		return []lnast.Statement{p.parseTypeAliasDecl(true)}
	case lntoken.Const, lntoken.Let, lntoken.Var, lntoken.Global, lntoken.Local:
		stmts := p.parseVariableDecl()
		for _, s := range stmts {
			if vd, ok := s.(*lnast.VariableDecl); ok {
				vd.Ambient = true
			}
		}
		return stmts
	default:
		p.sink.Reportf(diag.E2005, p.curr.Span, "expected a declaration after 'declare', found %s", p.curr.Kind)
		return nil
	}
}

func (p *Parser) parseReturnStatement() lnast.Statement {
	start := p.curr.Span
	p.advance() // 'return'
	var values []lnast.Expression
	if !p.check(lntoken.Semi) && !blockTerminators[p.curr.Kind] {
		values = append(values, p.parseAssignment())
		for p.accept(lntoken.Comma) {
			values = append(values, p.parseAssignment())
		}
	}
	p.accept(lntoken.Semi)
	n := lnast.Alloc[lnast.ReturnStatement](p.arena)
	n.Values = values
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

func (p *Parser) parseBreakStatement() lnast.Statement {
	start := p.curr.Span
	p.advance() // 'break'
	if p.loopDepth == 0 {
		p.sink.Reportf(diag.E2011, start, "break outside loop")
	}
	p.accept(lntoken.Semi)
	n := lnast.Alloc[lnast.BreakStatement](p.arena)
	n.Span = start
	return n
}

func (p *Parser) parseContinueStatement() lnast.Statement {
	start := p.curr.Span
	p.advance() // 'continue'
	if p.loopDepth == 0 {
		p.sink.Reportf(diag.E2012, start, "continue outside loop")
	}
	p.accept(lntoken.Semi)
	n := lnast.Alloc[lnast.ContinueStatement](p.arena)
	n.Span = start
	return n
}

func (p *Parser) parseLabelStatement() lnast.Statement {
	start := p.curr.Span
	p.advance() // '::'
	name := p.ident()
	p.expect(lntoken.Label)
	if p.labels[name.Name] {
		p.sink.Reportf(diag.E2009, name.Span, "duplicate label %q", p.it.MustResolve(name.Name))
	}
	p.labels[name.Name] = true
	n := lnast.Alloc[lnast.LabelStatement](p.arena)
	n.Name = name.Name
	n.Span = joinSpan(start, p.lastSpan())
	return n
}

func (p *Parser) parseGotoStatement() lnast.Statement {
	start := p.curr.Span
	p.advance() // 'goto'
	label := p.ident()
	n := lnast.Alloc[lnast.GotoStatement](p.arena)
	n.Label = label.Name
	n.Span = joinSpan(start, label.Span)
	p.accept(lntoken.Semi)
	return n
}

// parseSimpleStatement parses a bare expression statement or a multi-target
// assignment `a, b = 1, 2`, distinguished by whether a ',' follows the first
// parsed expression.
func (p *Parser) parseSimpleStatement() lnast.Statement {
	start := p.curr.Span
	first := p.parseExpression()
	if p.check(lntoken.Comma) {
		targets := []lnast.Expression{first}
		for p.accept(lntoken.Comma) {
			targets = append(targets, p.parseTernary())
		}
		p.expect(lntoken.Assign)
		values := []lnast.Expression{p.parseAssignment()}
		for p.accept(lntoken.Comma) {
			values = append(values, p.parseAssignment())
		}
		for _, t := range targets {
			if !isAssignable(t) {
				p.sink.Reportf(diag.E2008, t.NodeSpan(), "invalid assignment target")
			}
		}
		p.accept(lntoken.Semi)
		n := lnast.Alloc[lnast.MultiAssignStatement](p.arena)
		n.Targets, n.Values = targets, values
		n.Span = joinSpan(start, p.lastSpan())
		return n
	}
	p.accept(lntoken.Semi)
	n := lnast.Alloc[lnast.ExpressionStatement](p.arena)
	n.Expr = first
	n.Span = joinSpan(start, p.lastSpan())
	return n
}
