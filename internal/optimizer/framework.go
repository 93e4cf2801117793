// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

// Package optimizer implements the composite visitor framework, the
// control-flow/dominance/SSA/alias/side-effect analyses, and the O1/O2/O3
// optimization passes of spec.md §4.5.
package optimizer

import (
	"luanext.dev/compiler/internal/lnast"
)

// Level is the optimization level selected via spec.md §6's
// `optimization level` option.
type Level int

const (
	O0 Level = iota
	O1
	O2
	O3
)

// Role classifies how a [Pass] participates in the composite traversal,
// per spec.md §4.5.1.
type Role int

const (
	RoleExpression Role = iota
	RoleStatement
	RoleBlock
	RolePreAnalysis
	RoleWholeProgram
)

// Pass is one optimizer transformation. Exactly one of the Visit* fields is
// set, matching Role.
type Pass struct {
	Name     string
	Level    Level
	Role     Role
	Requires lnast.AstFeatures

	// VisitExpr is set for RoleExpression: it rewrites e in place (via the
	// returned replacement, possibly e itself) and reports whether
	// anything changed.
	VisitExpr func(ctx *Context, e lnast.Expression) (lnast.Expression, bool)
	// VisitStmt is set for RoleStatement.
	VisitStmt func(ctx *Context, s lnast.Statement) (lnast.Statement, bool)
	// VisitBlock is set for RoleBlock: it may insert, delete, or reorder
	// statements in the slice and reports whether it changed anything.
	VisitBlock func(ctx *Context, stmts []lnast.Statement) ([]lnast.Statement, bool)
	// PreAnalyze is set for RolePreAnalysis: read-only, runs once before
	// its companion visitors in the same iteration.
	PreAnalyze func(ctx *Context)
	// VisitProgram is set for RoleWholeProgram: an arbitrary rewrite over
	// the full program.
	VisitProgram func(ctx *Context, mp *lnast.MutableProgram) bool
}

// Context carries the program, arena, analyses, and whole-program handle
// shared by every pass in one fixed-point loop.
type Context struct {
	MP       *lnast.MutableProgram
	Level    Level
	Features lnast.AstFeatures

	// Analyses computed once at O2+ (spec.md §4.5.1): not refreshed
	// between fixed-point iterations.
	CFGs    map[*lnast.FunctionDecl]*CFG
	Dom     map[*lnast.FunctionDecl]*Dominance
	SSAInfo map[*lnast.FunctionDecl]*SSA
	Alias   *AliasInfo
	Effects *EffectsResult

	// Whole holds the class hierarchy + RTA bundle of the program being
	// optimized, built at O3 and read-only during the passes
	// (spec.md §4.5.4).
	Whole *WholeProgram
}

// Registry is the ordered list of every pass available to the pipeline,
// populated by each pass file's init.
var Registry []*Pass

// Register appends p to the global pass registry. Called from package-level
// var initializers in each passes file.
func Register(p *Pass) *Pass {
	Registry = append(Registry, p)
	return p
}

// passesFor returns every registered pass at or below level, in registration
// order, whose Requires features are all present in ctx.Features (spec.md
// §4.5.1's feature gating).
func passesFor(level Level, features lnast.AstFeatures) []*Pass {
	var out []*Pass
	for _, p := range Registry {
		if p.Level > level {
			continue
		}
		if p.Requires != 0 && !features.Has(p.Requires) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Run executes the optimizer over mp at the given level: computes
// AstFeatures, builds O2+ analyses once, then iterates the fixed-point loop
// (≤10 iterations, spec.md §4.5.1) until no pass reports a change.
func Run(mp *lnast.MutableProgram, level Level) {
	if level == O0 {
		return // O0 is the identity transformation (spec.md §8).
	}
	mp.Features = lnast.ComputeFeatures(mp.Statements)
	ctx := &Context{MP: mp, Level: level, Features: mp.Features}

	passes := passesFor(level, mp.Features)

	if level >= O2 {
		buildAnalyses(ctx)
	}
	if level >= O3 {
		ctx.Whole = BuildWholeProgram(mp)
	}

	for _, p := range passes {
		if p.Role == RolePreAnalysis && p.PreAnalyze != nil {
			p.PreAnalyze(ctx)
		}
	}

	const maxIterations = 10
	for i := 0; i < maxIterations; i++ {
		changed := false
		for _, p := range passes {
			switch p.Role {
			case RoleExpression:
				changed = visitExprsInProgram(ctx, p) || changed
			case RoleStatement:
				changed = visitStmtsInProgram(ctx, p) || changed
			case RoleBlock:
				if newStmts, ok := p.VisitBlock(ctx, mp.Statements); ok {
					mp.Statements = newStmts
					changed = true
				}
			case RoleWholeProgram:
				if p.VisitProgram(ctx, mp) {
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
}

func visitExprsInProgram(ctx *Context, p *Pass) bool {
	changed := false
	var walkExpr func(lnast.Expression) lnast.Expression
	walkExpr = func(e lnast.Expression) lnast.Expression {
		if e == nil {
			return nil
		}
		e = walkExprChildren(e, walkExpr)
		if newE, ok := p.VisitExpr(ctx, e); ok {
			changed = true
			return newE
		}
		return e
	}
	var walkStmt func(lnast.Statement) lnast.Statement
	var walkStmts func([]lnast.Statement) []lnast.Statement
	walkStmts = func(ss []lnast.Statement) []lnast.Statement {
		for i, s := range ss {
			ss[i] = walkStmt(s)
		}
		return ss
	}
	walkStmt = func(s lnast.Statement) lnast.Statement {
		return mapStmtExprs(s, walkExpr, walkStmts)
	}
	ctx.MP.Statements = walkStmts(ctx.MP.Statements)
	return changed
}

func visitStmtsInProgram(ctx *Context, p *Pass) bool {
	changed := false
	var walkStmts func([]lnast.Statement) []lnast.Statement
	walkStmts = func(ss []lnast.Statement) []lnast.Statement {
		for i, s := range ss {
			s = descendStmt(s, walkStmts)
			if newS, ok := p.VisitStmt(ctx, s); ok {
				changed = true
				s = newS
			}
			ss[i] = s
		}
		return ss
	}
	ctx.MP.Statements = walkStmts(ctx.MP.Statements)
	return changed
}
