// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package optimizer

import "luanext.dev/compiler/internal/lnast"

// Terminator classifies how a [Block] exits, per spec.md §4.5.2.
type Terminator int

const (
	TermGoto Terminator = iota
	TermBranch
	TermReturn
	TermUnreachable
	TermLoopBack
	TermFallThrough
	TermTryCatch
)

// Block is one basic block: a contiguous run of statement indices into the
// owning function's body, plus its terminator and successor set.
type Block struct {
	Index      int
	Start, End int // [Start, End) into the function body's statement slice
	Term       Terminator
	Succs      []int // block indices; empty for ENTRY predecessors into EXIT
	// CatchTargets holds the catch-block indices for TermTryCatch, and
	// Normal holds the non-exceptional successor.
	Normal       int
	CatchTargets []int
}

// EntryBlock and ExitBlock are the sentinel indices present in every CFG,
// per spec.md §4.5.2.
const (
	EntryBlock = -1
	ExitBlock  = -2
)

// CFG is one function's control-flow graph.
type CFG struct {
	Blocks []*Block
	// Preds[i] lists the indices of blocks with i among their Succs.
	Preds map[int][]int
}

func newCFG() *CFG {
	return &CFG{Preds: make(map[int][]int)}
}

func (c *CFG) addBlock(b *Block) {
	c.Blocks = append(c.Blocks, b)
}

func (c *CFG) link(from, to int) {
	c.Preds[to] = append(c.Preds[to], from)
}

// buildCFG partitions body into basic blocks at every control-flow boundary
// (if/while/for/repeat/try/return/break/continue/goto/label), recording
// terminators per spec.md §4.5.2. Blocks end at nested-construct boundaries
// rather than descending into them; buildAnalyses runs the per-function
// analyses once per [lnast.FunctionDecl] that collectFunctions finds, so a
// nested function declaration gets its own CFG. Function expressions, arrow
// functions, and class methods get no CFG.
func buildCFG(body []lnast.Statement) *CFG {
	c := newCFG()
	start := 0
	flush := func(end int, term Terminator) *Block {
		if end <= start && term != TermFallThrough {
			return nil
		}
		b := &Block{Index: len(c.Blocks), Start: start, End: end, Term: term}
		c.addBlock(b)
		start = end
		return b
	}
	for i, s := range body {
		switch n := s.(type) {
		case *lnast.IfStatement:
			b := flush(i+1, TermBranch)
			if b != nil {
				_ = n
			}
		case *lnast.WhileStatement, *lnast.ForNumericStatement, *lnast.ForInStatement, *lnast.RepeatStatement:
			flush(i+1, TermLoopBack)
		case *lnast.TryStatement:
			flush(i+1, TermTryCatch)
		case *lnast.ReturnStatement:
			flush(i+1, TermReturn)
		case *lnast.BreakStatement, *lnast.ContinueStatement, *lnast.GotoStatement:
			flush(i+1, TermGoto)
		case *lnast.LabelStatement:
			flush(i, TermFallThrough)
		}
	}
	flush(len(body), TermFallThrough)
	for idx, b := range c.Blocks {
		if b.Term == TermFallThrough || b.Term == TermGoto {
			if idx+1 < len(c.Blocks) {
				b.Succs = []int{idx + 1}
				c.link(idx, idx+1)
			} else {
				b.Succs = []int{ExitBlock}
				c.link(idx, ExitBlock)
			}
		}
		if b.Term == TermBranch || b.Term == TermLoopBack {
			if idx+1 < len(c.Blocks) {
				b.Succs = append(b.Succs, idx+1)
				c.link(idx, idx+1)
			}
		}
		if b.Term == TermReturn {
			b.Succs = []int{ExitBlock}
			c.link(idx, ExitBlock)
		}
	}
	return c
}

// Dominance holds the immediate-dominator tree computed via the
// Cooper-Harvey-Kennedy iterative algorithm (spec.md §4.5.2).
type Dominance struct {
	IDom     map[int]int
	Children map[int][]int
	Frontier map[int][]int
}

// buildDominance computes c's dominator tree treating block 0 as the
// function entry. Unreachable blocks are left out of IDom.
func buildDominance(c *CFG) *Dominance {
	d := &Dominance{IDom: make(map[int]int), Children: make(map[int][]int), Frontier: make(map[int][]int)}
	n := len(c.Blocks)
	if n == 0 {
		return d
	}
	order := make([]int, n)
	postIndex := make(map[int]int, n)
	visited := make(map[int]bool)
	idx := 0
	var dfs func(int)
	dfs = func(b int) {
		if visited[b] || b < 0 || b >= n {
			return
		}
		visited[b] = true
		for _, s := range c.Blocks[b].Succs {
			dfs(s)
		}
		order[idx] = b
		postIndex[b] = idx
		idx++
	}
	dfs(0)
	rpo := make([]int, 0, idx)
	for i := idx - 1; i >= 0; i-- {
		rpo = append(rpo, order[i])
	}
	d.IDom[0] = 0
	changed := true
	intersect := func(a, b int) int {
		for a != b {
			for postIndex[a] < postIndex[b] {
				a = d.IDom[a]
			}
			for postIndex[b] < postIndex[a] {
				b = d.IDom[b]
			}
		}
		return a
	}
	for changed {
		changed = false
		for _, b := range rpo {
			if b == 0 {
				continue
			}
			newIdom := -1
			for _, p := range c.Preds[b] {
				if p < 0 {
					continue
				}
				if _, ok := d.IDom[p]; !ok {
					continue
				}
				if newIdom == -1 {
					newIdom = p
				} else {
					newIdom = intersect(newIdom, p)
				}
			}
			if newIdom == -1 {
				continue
			}
			if cur, ok := d.IDom[b]; !ok || cur != newIdom {
				d.IDom[b] = newIdom
				changed = true
			}
		}
	}
	for b, idom := range d.IDom {
		if b != idom {
			d.Children[idom] = append(d.Children[idom], b)
		}
	}
	for b := range d.IDom {
		preds := c.Preds[b]
		if len(preds) < 2 {
			continue
		}
		for _, p := range preds {
			runner := p
			for runner != d.IDom[b] && runner != -1 {
				d.Frontier[runner] = append(d.Frontier[runner], b)
				next, ok := d.IDom[runner]
				if !ok || next == runner {
					break
				}
				runner = next
			}
		}
	}
	return d
}

// SSA is a read-only side-table over a function's statements: phi nodes per
// block plus defs/uses per statement index, per spec.md §4.5.2. The AST
// itself is never rewritten into SSA form.
type SSA struct {
	Phis        map[int][]Name // block index -> variable names needing a phi
	Defs        map[int][]Name // statement index -> names defined there
	Uses        map[int][]Name // statement index -> names used there
	versionNext map[Name]int
}

// Name is a local alias so analysis.go need not import intern directly.
type Name = lnast.Name

// buildSSA derives phi placement from dom's dominance frontiers: a name
// assigned in block b needs a phi at every block in b's dominance frontier
// (the standard Cytron et al. placement criterion).
func buildSSA(c *CFG, dom *Dominance, defsByBlock map[int][]Name) *SSA {
	s := &SSA{Phis: make(map[int][]Name), Defs: make(map[int][]Name), Uses: make(map[int][]Name), versionNext: make(map[Name]int)}
	defSites := make(map[Name]map[int]bool)
	for b, names := range defsByBlock {
		for _, nm := range names {
			if defSites[nm] == nil {
				defSites[nm] = make(map[int]bool)
			}
			defSites[nm][b] = true
		}
	}
	hasPhi := make(map[Name]map[int]bool)
	for nm, sites := range defSites {
		worklist := make([]int, 0, len(sites))
		for b := range sites {
			worklist = append(worklist, b)
		}
		if hasPhi[nm] == nil {
			hasPhi[nm] = make(map[int]bool)
		}
		for len(worklist) > 0 {
			b := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			for _, f := range dom.Frontier[b] {
				if !hasPhi[nm][f] {
					hasPhi[nm][f] = true
					s.Phis[f] = append(s.Phis[f], nm)
					if !sites[f] {
						worklist = append(worklist, f)
					}
				}
			}
		}
	}
	return s
}

// AliasLocKind classifies one memory location tracked by the alias
// analysis, per spec.md §4.5.2.
type AliasLocKind int

const (
	LocLocal AliasLocKind = iota
	LocGlobal
	LocTableField
	LocTableDynamic
	LocUpvalue
)

// AliasResult is NoAlias/MayAlias/MustAlias.
type AliasResult int

const (
	NoAlias AliasResult = iota
	MayAlias
	MustAlias
)

// aliasLoc identifies one memory location for union-find purposes.
type aliasLoc struct {
	Kind  AliasLocKind
	Base  Name
	Field Name // valid for LocTableField
}

// AliasInfo is the flow-insensitive, intraprocedural alias analysis result
// for one function: a union-find over memory locations plus an escape set,
// per spec.md §4.5.2.
type AliasInfo struct {
	parent map[aliasLoc]aliasLoc
	escape map[aliasLoc]bool
}

func newAliasInfo() *AliasInfo {
	return &AliasInfo{parent: make(map[aliasLoc]aliasLoc), escape: make(map[aliasLoc]bool)}
}

func (a *AliasInfo) find(l aliasLoc) aliasLoc {
	p, ok := a.parent[l]
	if !ok {
		a.parent[l] = l
		return l
	}
	if p == l {
		return l
	}
	root := a.find(p)
	a.parent[l] = root
	return root
}

func (a *AliasInfo) union(x, y aliasLoc) {
	rx, ry := a.find(x), a.find(y)
	if rx != ry {
		a.parent[rx] = ry
	}
}

// Query reports the alias relationship between two locations. Locations of
// different kinds, or distinct globals/upvalues/locals, never alias;
// table-field locations with the same base and field name, or any pair
// merged by an assignment the analysis observed, are reported as
// MustAlias; dynamically-indexed table accesses on the same base are
// MayAlias since the index is unknown statically.
func (a *AliasInfo) Query(x, y aliasLoc) AliasResult {
	if a.find(x) == a.find(y) {
		return MustAlias
	}
	if x.Kind == LocTableDynamic && y.Kind == LocTableDynamic && x.Base == y.Base {
		return MayAlias
	}
	if x.Kind == LocTableDynamic && y.Kind == LocTableField && x.Base == y.Base {
		return MayAlias
	}
	if y.Kind == LocTableDynamic && x.Kind == LocTableField && x.Base == y.Base {
		return MayAlias
	}
	return NoAlias
}

// Escapes reports whether l was observed passed as a call argument or
// returned. Storing l into a table field merges the two locations but does
// not mark an escape.
func (a *AliasInfo) Escapes(l aliasLoc) bool { return a.escape[a.find(l)] }

// buildAliasForFunction scans body for assignments, calls, and returns,
// merging aliased locations and marking escapes.
func buildAliasForFunction(body []lnast.Statement) *AliasInfo {
	a := newAliasInfo()
	locOf := func(e lnast.Expression) (aliasLoc, bool) {
		switch n := e.(type) {
		case *lnast.IdentExpr:
			return aliasLoc{Kind: LocLocal, Base: n.Name}, true
		case *lnast.MemberExpr:
			if base, ok := e.(*lnast.MemberExpr); ok {
				if id, ok := base.Object.(*lnast.IdentExpr); ok {
					return aliasLoc{Kind: LocTableField, Base: id.Name, Field: n.Property}, true
				}
			}
		case *lnast.IndexExpr:
			if id, ok := n.Object.(*lnast.IdentExpr); ok {
				return aliasLoc{Kind: LocTableDynamic, Base: id.Name}, true
			}
		}
		return aliasLoc{}, false
	}
	var walkExpr func(lnast.Expression)
	var walkStmts func([]lnast.Statement)
	markEscape := func(e lnast.Expression) {
		if l, ok := locOf(e); ok {
			a.escape[a.find(l)] = true
		}
	}
	walkExpr = func(e lnast.Expression) {
		switch n := e.(type) {
		case *lnast.AssignExpr:
			if tl, tok := locOf(n.Target); tok {
				if vl, vok := locOf(n.Value); vok {
					a.union(tl, vl)
				}
			}
			walkExpr(n.Value)
		case *lnast.CallExpr:
			for _, arg := range n.Args {
				markEscape(arg)
				walkExpr(arg)
			}
		case *lnast.BinaryExpr:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *lnast.UnaryExpr:
			walkExpr(n.Operand)
		}
	}
	walkStmts = func(ss []lnast.Statement) {
		for _, s := range ss {
			switch n := s.(type) {
			case *lnast.VariableDecl:
				if n.Init != nil {
					if id, ok := n.Pattern.(*lnast.IdentPattern); ok {
						if vl, vok := locOf(n.Init); vok {
							a.union(aliasLoc{Kind: LocLocal, Base: id.Name}, vl)
						}
					}
					walkExpr(n.Init)
				}
			case *lnast.ReturnStatement:
				for _, v := range n.Values {
					markEscape(v)
					walkExpr(v)
				}
			case *lnast.ExpressionStatement:
				walkExpr(n.Expr)
			case *lnast.IfStatement:
				walkStmts(n.Then)
				for _, ei := range n.ElseIfs {
					walkStmts(ei.Body)
				}
				walkStmts(n.Else)
			case *lnast.WhileStatement:
				walkStmts(n.Body)
			case *lnast.ForNumericStatement:
				walkStmts(n.Body)
			case *lnast.ForInStatement:
				walkStmts(n.Body)
			case *lnast.RepeatStatement:
				walkStmts(n.Body)
			case *lnast.BlockStatement:
				walkStmts(n.Body)
			case *lnast.DoStatement:
				walkStmts(n.Body)
			case *lnast.TryStatement:
				walkStmts(n.Try)
				walkStmts(n.Catch)
				walkStmts(n.Finally)
			}
		}
	}
	walkStmts(body)
	return a
}

// EffectsInfo is one function's side-effect summary, per spec.md §4.5.2.
type EffectsInfo struct {
	ReadsGlobal, WritesGlobal bool
	MutatesTables             bool
	HasIO                     bool
	CallsUnknown              bool
	MayThrow                  bool
	AccessesEnvironment       bool
}

// IsPure reports whether the function has no observable side effects at
// all: no global/table mutation, no IO, no calls to an unknown callee, and
// no thrown errors.
func (e *EffectsInfo) IsPure() bool {
	return !e.WritesGlobal && !e.MutatesTables && !e.HasIO && !e.CallsUnknown && !e.MayThrow
}

// IsReadOnly reports whether the function never mutates anything it does
// not own, though it may read globals or call out.
func (e *EffectsInfo) IsReadOnly() bool {
	return !e.WritesGlobal && !e.MutatesTables
}

// EffectsResult maps each analyzed function to its [EffectsInfo].
type EffectsResult struct {
	ByFunc map[*lnast.FunctionDecl]*EffectsInfo
}

func buildEffectsForFunction(body []lnast.Statement, globals map[Name]bool) *EffectsInfo {
	info := &EffectsInfo{}
	var walkExpr func(lnast.Expression)
	var walkStmts func([]lnast.Statement)
	walkExpr = func(e lnast.Expression) {
		switch n := e.(type) {
		case *lnast.IdentExpr:
			if globals[n.Name] {
				info.ReadsGlobal = true
			}
		case *lnast.AssignExpr:
			if id, ok := n.Target.(*lnast.IdentExpr); ok && globals[id.Name] {
				info.WritesGlobal = true
			}
			if _, ok := n.Target.(*lnast.MemberExpr); ok {
				info.MutatesTables = true
			}
			if _, ok := n.Target.(*lnast.IndexExpr); ok {
				info.MutatesTables = true
			}
			walkExpr(n.Target)
			walkExpr(n.Value)
		case *lnast.CallExpr:
			info.CallsUnknown = true
			walkExpr(n.Callee)
			for _, a := range n.Args {
				walkExpr(a)
			}
		case *lnast.MethodCallExpr:
			info.CallsUnknown = true
			walkExpr(n.Object)
			for _, a := range n.Args {
				walkExpr(a)
			}
		case *lnast.BinaryExpr:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *lnast.UnaryExpr:
			walkExpr(n.Operand)
		case *lnast.MemberExpr:
			walkExpr(n.Object)
		case *lnast.IndexExpr:
			walkExpr(n.Object)
			walkExpr(n.Index)
		}
	}
	walkStmts = func(ss []lnast.Statement) {
		for _, s := range ss {
			switch n := s.(type) {
			case *lnast.ExpressionStatement:
				walkExpr(n.Expr)
			case *lnast.VariableDecl:
				if n.Init != nil {
					walkExpr(n.Init)
				}
			case *lnast.ReturnStatement:
				for _, v := range n.Values {
					walkExpr(v)
				}
			case *lnast.ThrowStatement:
				info.MayThrow = true
				walkExpr(n.Value)
			case *lnast.TryStatement:
				walkStmts(n.Try)
				walkStmts(n.Catch)
				walkStmts(n.Finally)
			case *lnast.IfStatement:
				walkExpr(n.Cond)
				walkStmts(n.Then)
				for _, ei := range n.ElseIfs {
					walkExpr(ei.Cond)
					walkStmts(ei.Body)
				}
				walkStmts(n.Else)
			case *lnast.WhileStatement:
				walkExpr(n.Cond)
				walkStmts(n.Body)
			case *lnast.ForNumericStatement:
				walkStmts(n.Body)
			case *lnast.ForInStatement:
				for _, it := range n.Iterable {
					walkExpr(it)
				}
				walkStmts(n.Body)
			case *lnast.RepeatStatement:
				walkStmts(n.Body)
				walkExpr(n.Cond)
			case *lnast.BlockStatement:
				walkStmts(n.Body)
			case *lnast.DoStatement:
				walkStmts(n.Body)
			}
		}
	}
	walkStmts(body)
	return info
}

// collectGlobals scans the top-level program for `global`-kind variable
// declarations, used by buildEffectsForFunction to classify identifier
// reads/writes.
func collectGlobals(stmts []lnast.Statement) map[Name]bool {
	globals := make(map[Name]bool)
	for _, s := range stmts {
		if vd, ok := s.(*lnast.VariableDecl); ok && vd.Kind == lnast.VarGlobal {
			if id, ok := vd.Pattern.(*lnast.IdentPattern); ok {
				globals[id.Name] = true
			}
		}
	}
	return globals
}

// collectFunctions returns every top-level and nested [lnast.FunctionDecl]
// reachable from stmts, for the once-per-program O2+ analysis pass.
func collectFunctions(stmts []lnast.Statement) []*lnast.FunctionDecl {
	var out []*lnast.FunctionDecl
	var walkStmts func([]lnast.Statement)
	walkStmts = func(ss []lnast.Statement) {
		for _, s := range ss {
			switch n := s.(type) {
			case *lnast.FunctionDecl:
				out = append(out, n)
				walkStmts(n.Body)
			case *lnast.ClassDecl:
				for _, mbr := range n.Members {
					if mbr.Method != nil {
						walkStmts(mbr.Method.Body)
					}
				}
			case *lnast.NamespaceDecl:
				walkStmts(n.Body)
			case *lnast.IfStatement:
				walkStmts(n.Then)
				for _, ei := range n.ElseIfs {
					walkStmts(ei.Body)
				}
				walkStmts(n.Else)
			case *lnast.WhileStatement:
				walkStmts(n.Body)
			case *lnast.ForNumericStatement:
				walkStmts(n.Body)
			case *lnast.ForInStatement:
				walkStmts(n.Body)
			case *lnast.RepeatStatement:
				walkStmts(n.Body)
			case *lnast.BlockStatement:
				walkStmts(n.Body)
			case *lnast.DoStatement:
				walkStmts(n.Body)
			case *lnast.TryStatement:
				walkStmts(n.Try)
				walkStmts(n.Catch)
				walkStmts(n.Finally)
			}
		}
	}
	walkStmts(stmts)
	return out
}

// buildAnalyses computes every O2+ analysis over ctx.MP once, per spec.md
// §4.5.1 ("computed once before the loop and not refreshed between
// iterations").
func buildAnalyses(ctx *Context) {
	fns := collectFunctions(ctx.MP.Statements)
	globals := collectGlobals(ctx.MP.Statements)

	ctx.CFGs = make(map[*lnast.FunctionDecl]*CFG, len(fns))
	ctx.Dom = make(map[*lnast.FunctionDecl]*Dominance, len(fns))
	ctx.SSAInfo = make(map[*lnast.FunctionDecl]*SSA, len(fns))
	ctx.Effects = &EffectsResult{ByFunc: make(map[*lnast.FunctionDecl]*EffectsInfo, len(fns))}

	aliasByFunc := newAliasInfo()
	for _, fn := range fns {
		cfg := buildCFG(fn.Body)
		ctx.CFGs[fn] = cfg
		dom := buildDominance(cfg)
		ctx.Dom[fn] = dom

		defsByBlock := make(map[int][]Name)
		for _, b := range cfg.Blocks {
			for i := b.Start; i < b.End && i < len(fn.Body); i++ {
				if vd, ok := fn.Body[i].(*lnast.VariableDecl); ok {
					if id, ok := vd.Pattern.(*lnast.IdentPattern); ok {
						defsByBlock[b.Index] = append(defsByBlock[b.Index], id.Name)
					}
				}
			}
		}
		ctx.SSAInfo[fn] = buildSSA(cfg, dom, defsByBlock)

		fa := buildAliasForFunction(fn.Body)
		for loc, parent := range fa.parent {
			aliasByFunc.parent[loc] = parent
		}
		for loc, esc := range fa.escape {
			aliasByFunc.escape[loc] = esc
		}

		ctx.Effects.ByFunc[fn] = buildEffectsForFunction(fn.Body, globals)
	}
	ctx.Alias = aliasByFunc
}
