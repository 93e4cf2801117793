// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package codegen

import (
	"luanext.dev/compiler/internal/lnast"
)

func (g *Generator) genFunctionDecl(n *lnast.FunctionDecl) {
	if n.Ambient {
		return
	}
	g.e.Writef("local function %s(", g.resolve(n.Name))
	g.genParamList(n.Params)
	g.e.WriteString(")")
	g.e.Indent()
	g.e.NewLine()
	g.genParamDefaults(n.Params)
	g.genStatements(n.Body)
	g.e.Dedent()
	g.e.WriteString("end")
	g.e.NewLine()
}

func (g *Generator) genParamList(params []lnast.Param) {
	for i, p := range params {
		if i > 0 {
			g.e.WriteString(", ")
		}
		if p.Rest {
			g.e.WriteString("...")
			continue
		}
		if id, ok := p.Pattern.(*lnast.IdentPattern); ok {
			g.e.WriteString(g.resolve(id.Name))
		} else {
			g.e.Writef("__p%d", i)
		}
	}
}

// genParamDefaults emits default-value prologue assignments and
// destructuring bindings for params whose pattern is not a bare identifier
// (spec.md §4.7: default parameters lower to `if x == nil then x = default
// end`, run in declaration order before the body).
func (g *Generator) genParamDefaults(params []lnast.Param) {
	for i, p := range params {
		if p.Rest {
			continue
		}
		if id, ok := p.Pattern.(*lnast.IdentPattern); ok {
			name := g.resolve(id.Name)
			if p.Default != nil {
				g.e.Writef("if %s == nil then %s = ", name, name)
				g.genExpr(p.Default)
				g.e.WriteString(" end")
				g.e.NewLine()
			}
			continue
		}
		g.genDestructure(p.Pattern, fmtParam(i), lnast.VarLocal)
	}
}

func fmtParam(i int) string { return "__p" + itoaSmall(i) }

func (g *Generator) genIfStatement(n *lnast.IfStatement) {
	g.e.WriteString("if ")
	g.genExpr(n.Cond)
	g.e.WriteString(" then")
	g.e.Indent()
	g.e.NewLine()
	g.genStatements(n.Then)
	g.e.Dedent()
	for _, ei := range n.ElseIfs {
		g.e.WriteString("elseif ")
		g.genExpr(ei.Cond)
		g.e.WriteString(" then")
		g.e.Indent()
		g.e.NewLine()
		g.genStatements(ei.Body)
		g.e.Dedent()
	}
	if n.Else != nil {
		g.e.WriteString("else")
		g.e.Indent()
		g.e.NewLine()
		g.genStatements(n.Else)
		g.e.Dedent()
	}
	g.e.WriteString("end")
	g.e.NewLine()
}

func (g *Generator) genWhileStatement(n *lnast.WhileStatement) {
	g.e.WriteString("while ")
	g.genExpr(n.Cond)
	g.e.WriteString(" do")
	g.e.Indent()
	g.e.NewLine()
	g.genStatements(n.Body)
	g.genContinueLabelIfNeeded(n.Body)
	g.e.Dedent()
	g.e.WriteString("end")
	g.e.NewLine()
}

// genContinueLabelIfNeeded appends the `::__continue::` label a goto-based
// continue lowering needs at the bottom of the loop body, when the target
// dialect has no native continue keyword.
func (g *Generator) genContinueLabelIfNeeded(body []lnast.Statement) {
	if g.strategy.SupportsNativeContinue() {
		return
	}
	if !bodyUsesContinue(body) {
		return
	}
	g.e.WriteString("::__continue::")
	g.e.NewLine()
}

func bodyUsesContinue(stmts []lnast.Statement) bool {
	for _, s := range stmts {
		switch n := s.(type) {
		case *lnast.ContinueStatement:
			return true
		case *lnast.IfStatement:
			if bodyUsesContinue(n.Then) || bodyUsesContinue(n.Else) {
				return true
			}
			for _, ei := range n.ElseIfs {
				if bodyUsesContinue(ei.Body) {
					return true
				}
			}
		case *lnast.BlockStatement:
			if bodyUsesContinue(n.Body) {
				return true
			}
		case *lnast.DoStatement:
			if bodyUsesContinue(n.Body) {
				return true
			}
		case *lnast.TryStatement:
			if bodyUsesContinue(n.Try) || bodyUsesContinue(n.Catch) || bodyUsesContinue(n.Finally) {
				return true
			}
		}
	}
	return false
}

func (g *Generator) genForNumericStatement(n *lnast.ForNumericStatement) {
	g.e.Writef("for %s = ", g.resolve(n.Var))
	g.genExpr(n.Start)
	g.e.WriteString(", ")
	g.genExpr(n.Stop)
	if n.Step != nil {
		g.e.WriteString(", ")
		g.genExpr(n.Step)
	}
	g.e.WriteString(" do")
	g.e.Indent()
	g.e.NewLine()
	g.genStatements(n.Body)
	g.genContinueLabelIfNeeded(n.Body)
	g.e.Dedent()
	g.e.WriteString("end")
	g.e.NewLine()
}

func (g *Generator) genForInStatement(n *lnast.ForInStatement) {
	g.e.WriteString("for ")
	for i, v := range n.Vars {
		if i > 0 {
			g.e.WriteString(", ")
		}
		if id, ok := v.(*lnast.IdentPattern); ok {
			g.e.WriteString(g.resolve(id.Name))
		} else {
			g.e.Writef("__it%d", i)
		}
	}
	g.e.WriteString(" in ")
	for i, it := range n.Iterable {
		if i > 0 {
			g.e.WriteString(", ")
		}
		g.genExpr(it)
	}
	g.e.WriteString(" do")
	g.e.Indent()
	g.e.NewLine()
	for i, v := range n.Vars {
		if _, ok := v.(*lnast.IdentPattern); !ok {
			g.genDestructure(v, fmtTemp(i), lnast.VarLocal)
		}
	}
	g.genStatements(n.Body)
	g.genContinueLabelIfNeeded(n.Body)
	g.e.Dedent()
	g.e.WriteString("end")
	g.e.NewLine()
}

func fmtTemp(i int) string {
	return "__it" + itoaSmall(i)
}

func itoaSmall(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

func (g *Generator) genRepeatStatement(n *lnast.RepeatStatement) {
	g.e.WriteString("repeat")
	g.e.Indent()
	g.e.NewLine()
	g.genStatements(n.Body)
	g.e.Dedent()
	g.e.WriteString("until ")
	g.genExpr(n.Cond)
	g.e.NewLine()
}

func (g *Generator) genReturnStatement(n *lnast.ReturnStatement) {
	g.e.WriteString("return")
	for i, v := range n.Values {
		if i == 0 {
			g.e.WriteString(" ")
		} else {
			g.e.WriteString(", ")
		}
		g.genExpr(v)
	}
	g.e.NewLine()
}

// genImportStatement lowers `import` to a local `require` binding in
// require mode, per spec.md §6's wire-level forms. Type-only imports emit
// nothing. In bundle mode, imports carry no runtime effect (the bundler has
// already hoisted every module's declarations into one scope with
// collision-renamed locals) so nothing is emitted there either. Specifiers
// listed in Options.DeadImports are dropped (spec.md §4.6's dead-import
// elimination); when every specifier is dead the require call itself is
// kept, binding-free, so a module imported for its side effects still loads.
func (g *Generator) genImportStatement(n *lnast.ImportStatement) {
	if g.opts.Module != ModuleRequire || n.TypeOnly {
		return
	}
	path := n.ModulePath
	if g.opts.RewriteImportPath != nil {
		path = g.opts.RewriteImportPath(path)
	}
	switch n.Kind {
	case lnast.ImportDefault:
		if g.opts.DeadImports[n.Default] {
			g.e.Writef("require(%q)", path)
			g.e.NewLine()
			return
		}
		g.e.Writef("local %s = require(%q)", g.resolve(n.Default), path)
		g.e.NewLine()
	case lnast.ImportNamespace:
		if g.opts.DeadImports[n.Namespace] {
			g.e.Writef("require(%q)", path)
			g.e.NewLine()
			return
		}
		g.e.Writef("local %s = require(%q)", g.resolve(n.Namespace), path)
		g.e.NewLine()
	case lnast.ImportNamed:
		live := n.Specifiers[:0:0]
		for _, spec := range n.Specifiers {
			local := spec.Alias
			if local == 0 {
				local = spec.Name
			}
			if spec.TypeOnly || g.opts.DeadImports[local] {
				continue
			}
			live = append(live, spec)
		}
		if len(live) == 0 {
			g.e.Writef("require(%q)", path)
			g.e.NewLine()
			return
		}
		tmp := g.tempName()
		g.e.Writef("local %s = require(%q)", tmp, path)
		g.e.NewLine()
		for _, spec := range live {
			local := spec.Alias
			if local == 0 {
				local = spec.Name
			}
			g.e.Writef("local %s = %s.%s", g.resolve(local), tmp, g.resolve(spec.Name))
			g.e.NewLine()
		}
	}
}

// genTryStatement lowers try/catch/finally to pcall, per spec.md §4.7: the
// try body runs inside an anonymous function passed to pcall, the catch
// clause binds the error value, and finally always runs via a second
// wrapping (so it executes whether or not the try body raised).
//
// pcall's second result is the try body's returned value, so when every path
// through the try body (and, if present, the catch body) is statically known
// to end in return — [stmtsAlwaysReturn] — that value is re-returned from the
// enclosing function instead of being dropped. A try body that only
// sometimes returns (e.g. behind an untaken if) can't be told apart at
// runtime from one that never does, since both leave pcall's second result
// nil; that case keeps the non-propagating lowering, so an early return
// nested under a conditional inside a try block does not escape it.
func (g *Generator) genTryStatement(n *lnast.TryStatement) {
	hasFinally := len(n.Finally) > 0
	propagate := stmtsAlwaysReturn(n.Try) && (n.Catch == nil || stmtsAlwaysReturn(n.Catch))

	if hasFinally {
		g.e.WriteString("do")
		g.e.Indent()
		g.e.NewLine()
	}
	g.e.WriteString("local __ok, __result = pcall(function()")
	g.e.Indent()
	g.e.NewLine()
	g.genStatements(n.Try)
	g.e.Dedent()
	g.e.WriteString("end)")
	g.e.NewLine()
	if n.Catch != nil {
		g.e.WriteString("if not __ok then")
		g.e.Indent()
		g.e.NewLine()
		if n.CatchParam != nil {
			g.e.Writef("local %s = __result", g.resolve(n.CatchParam.Name))
			g.e.NewLine()
		}
		g.genStatements(n.Catch)
		g.e.Dedent()
		g.e.WriteString("end")
		g.e.NewLine()
	}
	if hasFinally {
		g.genStatements(n.Finally)
	}
	switch {
	case propagate:
		g.e.WriteString("return __result")
		g.e.NewLine()
	case n.Catch == nil:
		g.e.WriteString("if not __ok then error(__result, 0) end")
		g.e.NewLine()
	}
	if hasFinally {
		g.e.Dedent()
		g.e.WriteString("end")
		g.e.NewLine()
	}
}

// stmtsAlwaysReturn reports whether every control-flow path through stmts
// ends in a return (or a throw/rethrow, which never falls through to the
// statement after it either).
func stmtsAlwaysReturn(stmts []lnast.Statement) bool {
	if len(stmts) == 0 {
		return false
	}
	return stmtAlwaysReturns(stmts[len(stmts)-1])
}

func stmtAlwaysReturns(s lnast.Statement) bool {
	switch n := s.(type) {
	case *lnast.ReturnStatement:
		return true
	case *lnast.ThrowStatement:
		return true
	case *lnast.RethrowStatement:
		return true
	case *lnast.IfStatement:
		if n.Else == nil {
			return false
		}
		if !stmtsAlwaysReturn(n.Then) || !stmtsAlwaysReturn(n.Else) {
			return false
		}
		for _, ei := range n.ElseIfs {
			if !stmtsAlwaysReturn(ei.Body) {
				return false
			}
		}
		return true
	case *lnast.BlockStatement:
		return stmtsAlwaysReturn(n.Body)
	case *lnast.DoStatement:
		return stmtsAlwaysReturn(n.Body)
	case *lnast.TryStatement:
		if !stmtsAlwaysReturn(n.Try) {
			return false
		}
		return n.Catch == nil || stmtsAlwaysReturn(n.Catch)
	default:
		return false
	}
}

func (g *Generator) genMultiAssign(n *lnast.MultiAssignStatement) {
	for i, t := range n.Targets {
		if i > 0 {
			g.e.WriteString(", ")
		}
		g.genExpr(t)
	}
	g.e.WriteString(" = ")
	for i, v := range n.Values {
		if i > 0 {
			g.e.WriteString(", ")
		}
		g.genExpr(v)
	}
	g.e.NewLine()
}

func (g *Generator) genNamespaceDecl(n *lnast.NamespaceDecl) {
	g.e.Writef("local %s = {}", g.resolve(n.Name))
	g.e.NewLine()
	g.e.WriteString("do")
	g.e.Indent()
	g.e.NewLine()
	g.genStatements(n.Body)
	g.e.Dedent()
	g.e.WriteString("end")
	g.e.NewLine()
}
