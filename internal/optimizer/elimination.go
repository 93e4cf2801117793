// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package optimizer

import (
	"luanext.dev/compiler/internal/fxhash"
	"luanext.dev/compiler/internal/lnast"
)

// isTerminal reports whether s unconditionally transfers control away from
// the statements after it in the same block (return/break/continue/throw),
// making everything following it in that block dead.
func isTerminal(s lnast.Statement) bool {
	switch s.(type) {
	case *lnast.ReturnStatement, *lnast.BreakStatement, *lnast.ContinueStatement, *lnast.ThrowStatement, *lnast.RethrowStatement:
		return true
	}
	return false
}

// deadCodeElimination implements the O1 dead-code pass (spec.md §4.5.3):
// truncate a block after its first terminal statement, drop `if false`
// branches, and simplify `if true` to its then-branch. Unused local
// declarations are not dropped by this pass.
func deadCodeElimination(_ *Context, stmts []lnast.Statement) ([]lnast.Statement, bool) {
	changed := false
	for i, s := range stmts {
		if isTerminal(s) && i+1 < len(stmts) {
			stmts = stmts[:i+1]
			changed = true
			break
		}
	}
	out := make([]lnast.Statement, 0, len(stmts))
	for _, s := range stmts {
		if ifs, ok := s.(*lnast.IfStatement); ok {
			if v, ok := literalBool(ifs.Cond); ok {
				changed = true
				if v {
					out = append(out, ifs.Then...)
				} else if len(ifs.ElseIfs) > 0 {
					first := ifs.ElseIfs[0]
					rest := ifs.ElseIfs[1:]
					out = append(out, &lnast.IfStatement{Cond: first.Cond, Then: first.Body, ElseIfs: rest, Else: ifs.Else})
				} else {
					out = append(out, ifs.Else...)
				}
				continue
			}
		}
		out = append(out, s)
	}
	return out, changed
}

// copyPropagation implements the O2 copy-propagation pass: `local a = b;
// ...a...` rewrites later plain-identifier reads of `a` to `b` within the
// same block, when `b` is itself a plain identifier never reassigned in
// between and `a` is never reassigned either.
func copyPropagation(_ *Context, stmts []lnast.Statement) ([]lnast.Statement, bool) {
	changed := false
	copies := make(map[Name]Name)
	reassigned := func(name Name) {
		delete(copies, name)
		for k, v := range copies {
			if v == name {
				delete(copies, k)
			}
		}
	}
	var rewrite func(lnast.Expression) lnast.Expression
	rewrite = func(e lnast.Expression) lnast.Expression {
		if id, ok := e.(*lnast.IdentExpr); ok {
			if src, ok := copies[id.Name]; ok {
				changed = true
				return &lnast.IdentExpr{Name: src}
			}
		}
		return e
	}
	for _, s := range stmts {
		switch n := s.(type) {
		case *lnast.VariableDecl:
			if n.Init != nil {
				n.Init = rewrite(n.Init)
			}
			if id, ok := n.Pattern.(*lnast.IdentPattern); ok {
				reassigned(id.Name)
				if n.Kind != lnast.VarGlobal && !n.Ambient {
					if src, ok := n.Init.(*lnast.IdentExpr); ok {
						copies[id.Name] = src.Name
					}
				}
			}
		case *lnast.ExpressionStatement:
			if a, ok := n.Expr.(*lnast.AssignExpr); ok {
				if id, ok := a.Target.(*lnast.IdentExpr); ok {
					reassigned(id.Name)
				}
			}
		case *lnast.ReturnStatement:
			for i, v := range n.Values {
				n.Values[i] = rewrite(v)
			}
		}
	}
	return stmts, changed
}

// deadStoreElimination implements the O2 dead-store pass (spec.md §4.5.3):
// a `local` assignment whose value is never read before the variable is
// reassigned or the block ends is removed, computed via reverse liveness
// over the block's statement list.
func deadStoreElimination(_ *Context, stmts []lnast.Statement) ([]lnast.Statement, bool) {
	changed := false
	liveAfter := make(map[Name]bool)
	var usesOf func(lnast.Expression, map[Name]bool)
	usesOf = func(e lnast.Expression, out map[Name]bool) {
		switch n := e.(type) {
		case *lnast.IdentExpr:
			out[n.Name] = true
		case *lnast.BinaryExpr:
			usesOf(n.Left, out)
			usesOf(n.Right, out)
		case *lnast.UnaryExpr:
			usesOf(n.Operand, out)
		case *lnast.CallExpr:
			usesOf(n.Callee, out)
			for _, a := range n.Args {
				usesOf(a, out)
			}
		case *lnast.MemberExpr:
			usesOf(n.Object, out)
		case *lnast.IndexExpr:
			usesOf(n.Object, out)
			usesOf(n.Index, out)
		}
	}
	keep := make([]bool, len(stmts))
	for i := range stmts {
		keep[i] = true
	}
	for i := len(stmts) - 1; i >= 0; i-- {
		switch n := stmts[i].(type) {
		case *lnast.VariableDecl:
			if id, ok := n.Pattern.(*lnast.IdentPattern); ok && n.Kind != lnast.VarGlobal && !n.Ambient {
				if !liveAfter[id.Name] && n.Init != nil && isSideEffectFreeExpr(n.Init) {
					keep[i] = false
					changed = true
				}
				delete(liveAfter, id.Name)
				if n.Init != nil {
					usesOf(n.Init, liveAfter)
				}
				continue
			}
		case *lnast.ExpressionStatement:
			usesOf(n.Expr, liveAfter)
		case *lnast.ReturnStatement:
			for _, v := range n.Values {
				usesOf(v, liveAfter)
			}
		case *lnast.IfStatement:
			usesOf(n.Cond, liveAfter)
		}
	}
	if !changed {
		return stmts, false
	}
	out := make([]lnast.Statement, 0, len(stmts))
	for i, s := range stmts {
		if keep[i] {
			out = append(out, s)
		}
	}
	return out, true
}

func isSideEffectFreeExpr(e lnast.Expression) bool {
	switch n := e.(type) {
	case *lnast.NilLiteral, *lnast.BoolLiteral, *lnast.NumberLiteral, *lnast.StringLiteral, *lnast.IdentExpr:
		return true
	case *lnast.BinaryExpr:
		return isSideEffectFreeExpr(n.Left) && isSideEffectFreeExpr(n.Right)
	case *lnast.UnaryExpr:
		return isSideEffectFreeExpr(n.Operand)
	default:
		return false
	}
}

// sccp implements the O2 sparse-conditional-constant-propagation pass
// (spec.md §4.5.3). The lattice is per-local: a `local x = <literal>` whose
// name is never reassigned anywhere in the block stays constant; every later
// read of x is replaced by the literal. The *conditional* half emerges from
// the fixed-point loop: once a condition's operands are literals, constant
// folding reduces the condition and dead-code elimination removes the
// untaken branch, which can in turn make more locals constant on the next
// iteration.
func sccp(_ *Context, stmts []lnast.Statement) ([]lnast.Statement, bool) {
	consts := make(map[Name]lnast.Expression)
	reassigned := make(map[Name]bool)
	collectReassignments(stmts, reassigned)
	for _, s := range stmts {
		decl, ok := s.(*lnast.VariableDecl)
		if !ok || decl.Kind == lnast.VarGlobal || decl.Ambient {
			continue
		}
		id, ok := decl.Pattern.(*lnast.IdentPattern)
		if !ok || reassigned[id.Name] || decl.Init == nil || !isLiteral(decl.Init) {
			continue
		}
		consts[id.Name] = decl.Init
	}
	if len(consts) == 0 {
		return stmts, false
	}

	changed := false
	var subst func(lnast.Expression) lnast.Expression
	subst = func(e lnast.Expression) lnast.Expression {
		switch n := e.(type) {
		case *lnast.IdentExpr:
			if lit, ok := consts[n.Name]; ok {
				changed = true
				return cloneLiteral(lit, n.Span)
			}
		case *lnast.AssignExpr:
			// Never rewrite the assignment target, even when (because of a
			// shadowing inner scope) it shares a constant's name.
			n.Value = subst(n.Value)
			return n
		}
		return walkExprChildren(e, subst)
	}
	for _, s := range stmts {
		if decl, ok := s.(*lnast.VariableDecl); ok {
			if id, ok := decl.Pattern.(*lnast.IdentPattern); ok {
				if _, isConst := consts[id.Name]; isConst {
					continue // the defining statement itself stays put
				}
			}
		}
		mapStmtExprs(s, subst, func(ss []lnast.Statement) []lnast.Statement {
			walkStmtsExprs(ss, subst)
			return ss
		})
	}
	return stmts, changed
}

// collectReassignments records every name written after its declaration
// anywhere under stmts: compound/plain assignment targets, multi-assignment
// targets, and numeric-for induction variables.
func collectReassignments(stmts []lnast.Statement, out map[Name]bool) {
	var noteTarget func(lnast.Expression)
	noteTarget = func(e lnast.Expression) {
		if id, ok := e.(*lnast.IdentExpr); ok {
			out[id.Name] = true
		}
	}
	var visit func(lnast.Expression) lnast.Expression
	visit = func(e lnast.Expression) lnast.Expression {
		if a, ok := e.(*lnast.AssignExpr); ok {
			noteTarget(a.Target)
		}
		return walkExprChildren(e, visit)
	}
	for _, s := range stmts {
		if ma, ok := s.(*lnast.MultiAssignStatement); ok {
			for _, t := range ma.Targets {
				noteTarget(t)
			}
		}
		if fl, ok := s.(*lnast.ForNumericStatement); ok {
			out[fl.Var] = true
		}
		mapStmtExprs(s, visit, func(ss []lnast.Statement) []lnast.Statement {
			collectReassignments(ss, out)
			return ss
		})
	}
}

// cloneLiteral returns a fresh literal node carrying lit's value at span, so
// substituted occurrences don't share one AST node across distinct source
// positions.
func cloneLiteral(lit lnast.Expression, span lnast.Span) lnast.Expression {
	switch n := lit.(type) {
	case *lnast.NumberLiteral:
		c := &lnast.NumberLiteral{Text: n.Text, Integer: n.Integer}
		c.Span = span
		return c
	case *lnast.StringLiteral:
		c := &lnast.StringLiteral{Value: n.Value}
		c.Span = span
		return c
	case *lnast.BoolLiteral:
		c := &lnast.BoolLiteral{Value: n.Value}
		c.Span = span
		return c
	default:
		c := &lnast.NilLiteral{}
		c.Span = span
		return c
	}
}

// jumpThreading implements the O2 jump-threading pass: a goto whose target
// label is immediately followed by another goto is retargeted at the chain's
// ultimate destination, with a visited set so a goto cycle is left alone
// rather than looped on (spec.md §4.5.3).
func jumpThreading(_ *Context, stmts []lnast.Statement) ([]lnast.Statement, bool) {
	labelAt := make(map[Name]int)
	for i, s := range stmts {
		if l, ok := s.(*lnast.LabelStatement); ok {
			labelAt[l.Name] = i
		}
	}
	if len(labelAt) == 0 {
		return stmts, false
	}
	changed := false
	for _, s := range stmts {
		g, ok := s.(*lnast.GotoStatement)
		if !ok {
			continue
		}
		final := g.Label
		visited := make(map[Name]bool)
		for !visited[final] {
			visited[final] = true
			idx, ok := labelAt[final]
			if !ok || idx+1 >= len(stmts) {
				break
			}
			next, ok := stmts[idx+1].(*lnast.GotoStatement)
			if !ok {
				break
			}
			final = next.Label
		}
		if final != g.Label {
			g.Label = final
			changed = true
		}
	}
	return stmts, changed
}

// cse implements the O2 common-subexpression-elimination pass: local
// initializers are value-numbered within the block (pure expressions only —
// literals, identifier reads, and operators over those, so a member access
// that could hit an __index metamethod never participates), and a later
// local bound to an already-available value number is rewritten to read the
// first binding instead of recomputing (spec.md §4.5.3).
func cse(_ *Context, stmts []lnast.Statement) ([]lnast.Statement, bool) {
	avail := make(map[uint64]available)
	changed := false
	invalidate := func(name Name) {
		for vn, a := range avail {
			if a.rep == name {
				delete(avail, vn)
				continue
			}
			for _, d := range a.deps {
				if d == name {
					delete(avail, vn)
					break
				}
			}
		}
	}
	for _, s := range stmts {
		switch n := s.(type) {
		case *lnast.VariableDecl:
			id, ok := n.Pattern.(*lnast.IdentPattern)
			if !ok {
				continue
			}
			// Rebinding invalidation must run before this declaration's own
			// expression enters the table, or every fresh entry would be
			// thrown out by its own binding.
			invalidateRebinding(invalidate, id.Name, avail)
			if n.Init != nil && n.Kind != lnast.VarGlobal && !n.Ambient {
				if vn, deps, ok := valueNumber(n.Init); ok {
					if a, hit := avail[vn]; hit && a.rep != id.Name {
						repl := &lnast.IdentExpr{Name: a.rep}
						repl.Span = n.Init.NodeSpan()
						n.Init = repl
						changed = true
					} else if !hit {
						avail[vn] = available{rep: id.Name, deps: deps}
					}
				}
			}
		case *lnast.ExpressionStatement:
			if a, ok := n.Expr.(*lnast.AssignExpr); ok {
				if id, ok := a.Target.(*lnast.IdentExpr); ok {
					invalidate(id.Name)
				}
			}
		case *lnast.MultiAssignStatement:
			for _, t := range n.Targets {
				if id, ok := t.(*lnast.IdentExpr); ok {
					invalidate(id.Name)
				}
			}
		}
	}
	return stmts, changed
}

// available is cse's value-number table entry: the local holding the value
// and the identifiers its expression read (for invalidation).
type available struct {
	rep  Name
	deps []Name
}

// invalidateRebinding drops entries that depended on name, but only when the
// declaration genuinely rebinds a name some earlier available expression
// read; a first-time binding leaves the table intact.
func invalidateRebinding(invalidate func(Name), name Name, avail map[uint64]available) {
	for _, a := range avail {
		if a.rep == name {
			invalidate(name)
			return
		}
		for _, d := range a.deps {
			if d == name {
				invalidate(name)
				return
			}
		}
	}
}

// valueNumber folds e into a value number (a hash of its canonical
// rendering) and the identifier names it reads, reporting ok=false for any
// expression that is not pure under CSE's strict definition.
func valueNumber(e lnast.Expression) (uint64, []Name, bool) {
	var b []byte
	var deps []Name
	var render func(lnast.Expression) bool
	render = func(e lnast.Expression) bool {
		switch n := e.(type) {
		case *lnast.NilLiteral:
			b = append(b, 'n')
		case *lnast.BoolLiteral:
			if n.Value {
				b = append(b, 'T')
			} else {
				b = append(b, 'F')
			}
		case *lnast.NumberLiteral:
			b = append(b, '#')
			b = append(b, n.Text...)
		case *lnast.StringLiteral:
			b = append(b, '$')
			b = append(b, n.Value...)
		case *lnast.IdentExpr:
			b = append(b, '@')
			b = append(b, n.Name.String()...)
			deps = append(deps, n.Name)
		case *lnast.BinaryExpr:
			b = append(b, 'b', byte(n.Op))
			return render(n.Left) && render(n.Right)
		case *lnast.UnaryExpr:
			b = append(b, 'u', byte(n.Op))
			return render(n.Operand)
		case *lnast.ParenExpr:
			return render(n.Inner)
		default:
			return false
		}
		return true
	}
	if !render(e) {
		return 0, nil, false
	}
	// A bare literal or lone identifier is copy-propagation's job; CSE only
	// pays off on compound expressions.
	switch e.(type) {
	case *lnast.BinaryExpr, *lnast.UnaryExpr:
		return fxhash.Sum64(b), deps, true
	default:
		return 0, nil, false
	}
}

func init() {
	Register(&Pass{Name: "dead-code-elimination", Level: O1, Role: RoleBlock, VisitBlock: deadCodeElimination})
	Register(&Pass{Name: "sccp", Level: O2, Role: RoleBlock, VisitBlock: sccp})
	Register(&Pass{Name: "jump-threading", Level: O2, Role: RoleBlock, VisitBlock: jumpThreading})
	Register(&Pass{Name: "copy-propagation", Level: O2, Role: RoleBlock, VisitBlock: copyPropagation})
	Register(&Pass{Name: "cse", Level: O2, Role: RoleBlock, VisitBlock: cse})
	Register(&Pass{Name: "dead-store-elimination", Level: O2, Role: RoleBlock, VisitBlock: deadStoreElimination})
}
