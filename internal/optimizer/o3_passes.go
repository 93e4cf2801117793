// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package optimizer

import (
	"luanext.dev/compiler/internal/fxhash"
	"luanext.dev/compiler/internal/lnast"
)

// devirtualization implements the O3 devirtualization pass: a method call
// through an identifier whose static class is known and, per the
// whole-program RTA handle, has at most one instantiation site and no live
// subclasses, is rewritten from a metatable dispatch to a direct function
// reference (flattened to a plain call here; codegen emits the direct
// reference instead of a `:` method dispatch once it sees the rewritten
// shape is already a [lnast.CallExpr]).
func devirtualization(ctx *Context, e lnast.Expression) (lnast.Expression, bool) {
	if ctx.Whole == nil {
		return e, false
	}
	mc, ok := e.(*lnast.MethodCallExpr)
	if !ok {
		return e, false
	}
	cls, ok := receiverClassOf(mc.Object)
	if !ok || !ctx.Whole.IsDevirtualizable(cls) {
		return e, false
	}
	member := &lnast.MemberExpr{Object: mc.Object, Property: mc.Method}
	member.Span = mc.Span
	args := append([]lnast.Expression{mc.Object}, mc.Args...)
	call := &lnast.CallExpr{Callee: member, Args: args}
	call.Span = mc.Span
	return call, true
}

// receiverClassOf reports the statically-known class name of e, if e's
// ReceiverClassInfo analysis slot holds a [typesys.ClassInfo]. No checker
// phase writes that slot, so on checker output this reports false.
func receiverClassOf(e lnast.Expression) (Name, bool) {
	a := e.Analysis()
	if a == nil || a.ReceiverClassInfo == nil {
		return 0, false
	}
	type named interface{ ClassName() Name }
	if n, ok := a.ReceiverClassInfo.(named); ok {
		return n.ClassName(), true
	}
	return 0, false
}

// loopUnrollMaxTrip bounds the trip count of the O3 loop-unrolling pass
// (spec.md §4.5.3: "trip count <=4, no break/continue/return in body").
const (
	loopUnrollMaxTrip = 4
)

// loopUnrolling implements the O3 loop-unrolling pass: a numeric for-loop
// with constant bounds, a small constant trip count, and no control-flow
// escapes in its body is replaced by that many copies of the body with the
// induction variable substituted by its per-iteration literal value.
func loopUnrolling(ctx *Context, s lnast.Statement) (lnast.Statement, bool) {
	loop, ok := s.(*lnast.ForNumericStatement)
	if !ok {
		return s, false
	}
	start, startIsInt, startOK := literalNumber(loop.Start)
	stop, _, stopOK := literalNumber(loop.Stop)
	if !startOK || !stopOK || !startIsInt {
		return s, false
	}
	step := 1.0
	if loop.Step != nil {
		v, _, ok := literalNumber(loop.Step)
		if !ok {
			return s, false
		}
		step = v
	}
	if step == 0 {
		return s, false
	}
	trip := int((stop-start)/step) + 1
	if trip <= 0 || trip > loopUnrollMaxTrip {
		return s, false
	}
	if hasLoopEscape(loop.Body) {
		return s, false
	}
	var out []lnast.Statement
	for i := 0; i < trip; i++ {
		iv := start + float64(i)*step
		lit := numberLiteral(loop.Span, iv, true)
		subst := map[Name]lnast.Expression{loop.Var: lit}
		var substitute func(lnast.Expression) lnast.Expression
		substitute = func(expr lnast.Expression) lnast.Expression {
			if id, ok := expr.(*lnast.IdentExpr); ok {
				if v, ok := subst[id.Name]; ok {
					return v
				}
			}
			return walkExprChildren(expr, substitute)
		}
		for _, bs := range loop.Body {
			clone := mapStmtExprs(lnast.CloneStatement(ctx.MP.Arena, bs), substitute, func(ss []lnast.Statement) []lnast.Statement {
				walkStmtsExprs(ss, substitute)
				return ss
			})
			out = append(out, clone)
		}
	}
	block := &lnast.BlockStatement{Body: out}
	block.Span = loop.Span
	return block, true
}

func hasLoopEscape(body []lnast.Statement) bool {
	for _, s := range body {
		switch n := s.(type) {
		case *lnast.BreakStatement, *lnast.ContinueStatement, *lnast.ReturnStatement:
			return true
		case *lnast.IfStatement:
			if hasLoopEscape(n.Then) || hasLoopEscape(n.Else) {
				return true
			}
			for _, ei := range n.ElseIfs {
				if hasLoopEscape(ei.Body) {
					return true
				}
			}
		}
	}
	return false
}

// interproceduralConstPropMaxRounds bounds the O3 interprocedural
// constant-propagation fixed point (spec.md §4.5.3).
const interproceduralConstPropMaxRounds = 3

// interproceduralConstProp implements the O3 pass: when every call site to
// a function agrees on the same literal argument for one parameter, that
// parameter is replaced throughout the body by the literal; the parameter
// stays in the signature and the call sites keep passing the argument. Runs
// as a whole-program pass since it needs every call site collected before
// deciding.
func interproceduralConstProp(ctx *Context, mp *lnast.MutableProgram) bool {
	changed := false
	for round := 0; round < interproceduralConstPropMaxRounds; round++ {
		roundChanged := false
		fns := collectFunctions(mp.Statements)
		for _, fn := range fns {
			calls := collectCallsTo(mp.Statements, fn.Name)
			if len(calls) == 0 {
				continue
			}
			for pi, p := range fn.Params {
				id, ok := p.Pattern.(*lnast.IdentPattern)
				if !ok {
					continue
				}
				lit, ok := agreedLiteralArg(calls, pi)
				if !ok {
					continue
				}
				substituteParam(fn, id.Name, lit)
				roundChanged = true
			}
		}
		if !roundChanged {
			break
		}
		changed = true
	}
	_ = ctx
	return changed
}

func collectCallsTo(stmts []lnast.Statement, name Name) []*lnast.CallExpr {
	var out []*lnast.CallExpr
	var walkExpr func(lnast.Expression)
	var walkStmts func([]lnast.Statement)
	walkExpr = func(e lnast.Expression) {
		switch n := e.(type) {
		case *lnast.CallExpr:
			if id, ok := n.Callee.(*lnast.IdentExpr); ok && id.Name == name {
				out = append(out, n)
			}
			walkExpr(n.Callee)
			for _, a := range n.Args {
				walkExpr(a)
			}
		case *lnast.BinaryExpr:
			walkExpr(n.Left)
			walkExpr(n.Right)
		}
	}
	walkStmts = func(ss []lnast.Statement) {
		for _, s := range ss {
			switch n := s.(type) {
			case *lnast.ExpressionStatement:
				walkExpr(n.Expr)
			case *lnast.ReturnStatement:
				for _, v := range n.Values {
					walkExpr(v)
				}
			case *lnast.VariableDecl:
				if n.Init != nil {
					walkExpr(n.Init)
				}
			case *lnast.FunctionDecl:
				walkStmts(n.Body)
			case *lnast.IfStatement:
				walkStmts(n.Then)
				walkStmts(n.Else)
			}
		}
	}
	walkStmts(stmts)
	return out
}

func agreedLiteralArg(calls []*lnast.CallExpr, idx int) (lnast.Expression, bool) {
	var agreed lnast.Expression
	for _, c := range calls {
		if idx >= len(c.Args) {
			return nil, false
		}
		arg := c.Args[idx]
		if !isLiteral(arg) {
			return nil, false
		}
		if agreed == nil {
			agreed = arg
			continue
		}
		if !literalsEqual(agreed, arg) {
			return nil, false
		}
	}
	return agreed, agreed != nil
}

func isLiteral(e lnast.Expression) bool {
	switch e.(type) {
	case *lnast.NumberLiteral, *lnast.StringLiteral, *lnast.BoolLiteral, *lnast.NilLiteral:
		return true
	default:
		return false
	}
}

func literalsEqual(a, b lnast.Expression) bool {
	if av, _, ok := literalNumber(a); ok {
		bv, _, ok2 := literalNumber(b)
		return ok2 && av == bv
	}
	if av, ok := literalString(a); ok {
		bv, ok2 := literalString(b)
		return ok2 && av == bv
	}
	if av, ok := literalBool(a); ok {
		bv, ok2 := literalBool(b)
		return ok2 && av == bv
	}
	return isNilLiteral(a) && isNilLiteral(b)
}

func substituteParam(fn *lnast.FunctionDecl, name Name, lit lnast.Expression) {
	var substitute func(lnast.Expression) lnast.Expression
	substitute = func(expr lnast.Expression) lnast.Expression {
		if id, ok := expr.(*lnast.IdentExpr); ok && id.Name == name {
			return lit
		}
		return walkExprChildren(expr, substitute)
	}
	walkStmtsExprs(fn.Body, substitute)
}

// sraMaxFields bounds the O3 scalar-replacement pass (spec.md §4.5.3:
// "<=8 fields, only static member accesses").
const sraMaxFields = 8

// scalarReplaceAggregates implements the O3 scalar-replacement pass: a
// local `const`/`let` declaration initialized to an object literal with at
// most 8 plain fields, whose binding never escapes the block (every
// occurrence is the object of a static member access — any bare read, call
// argument, return, or table store disqualifies it), is split into one
// scalar local per field, and every member access is rewritten to read the
// matching scalar.
func scalarReplaceAggregates(ctx *Context, stmts []lnast.Statement) ([]lnast.Statement, bool) {
	it := ctx.MP.Interner
	if it == nil {
		return stmts, false
	}
	changed := false
	out := make([]lnast.Statement, 0, len(stmts))
	for i, s := range stmts {
		decl, obj, ok := sraCandidate(s)
		if !ok || sraEscapes(stmts[i+1:], decl) {
			out = append(out, s)
			continue
		}
		id := decl.Pattern.(*lnast.IdentPattern)
		base := it.MustResolve(id.Name)
		fieldNames := make(map[Name]Name, len(obj.Properties))
		for _, p := range obj.Properties {
			scalar := it.Intern(base + "__" + it.MustResolve(p.Key))
			fieldNames[p.Key] = scalar
			sd := &lnast.VariableDecl{Kind: decl.Kind, Pattern: &lnast.IdentPattern{Name: scalar}}
			if p.Shorthand {
				ref := &lnast.IdentExpr{Name: p.Key}
				ref.Span = decl.Span
				sd.Init = ref
			} else {
				sd.Init = p.Value
			}
			sd.Span = decl.Span
			out = append(out, sd)
		}
		sraRewriteAccesses(stmts[i+1:], id.Name, fieldNames)
		changed = true
	}
	return out, changed
}

// sraCandidate reports whether s declares a const/let local bound to a
// small, static-shaped object literal.
func sraCandidate(s lnast.Statement) (*lnast.VariableDecl, *lnast.ObjectLiteral, bool) {
	decl, ok := s.(*lnast.VariableDecl)
	if !ok || (decl.Kind != lnast.VarConst && decl.Kind != lnast.VarLet) || decl.Ambient {
		return nil, nil, false
	}
	if _, ok := decl.Pattern.(*lnast.IdentPattern); !ok {
		return nil, nil, false
	}
	obj, ok := decl.Init.(*lnast.ObjectLiteral)
	if !ok || len(obj.Properties) == 0 || len(obj.Properties) > sraMaxFields {
		return nil, nil, false
	}
	for _, p := range obj.Properties {
		if p.Spread || p.ComputedKey != nil || p.Method {
			return nil, nil, false
		}
	}
	return decl, obj, true
}

// sraEscapes reports whether decl's binding is ever used as anything other
// than the object of a plain (non-optional) member access in rest.
func sraEscapes(rest []lnast.Statement, decl *lnast.VariableDecl) bool {
	name := decl.Pattern.(*lnast.IdentPattern).Name
	escapes := false
	var visit func(lnast.Expression) lnast.Expression
	visit = func(e lnast.Expression) lnast.Expression {
		if m, ok := e.(*lnast.MemberExpr); ok && !m.Optional {
			if id, ok := m.Object.(*lnast.IdentExpr); ok && id.Name == name {
				// The one allowed shape; don't descend into the object
				// reference itself.
				return e
			}
		}
		if id, ok := e.(*lnast.IdentExpr); ok && id.Name == name {
			escapes = true
			return e
		}
		return walkExprChildren(e, visit)
	}
	walkStmtsExprs(rest, visit)
	return escapes
}

// sraRewriteAccesses replaces every `name.field` in rest with the scalar
// local minted for field.
func sraRewriteAccesses(rest []lnast.Statement, name Name, fields map[Name]Name) {
	var visit func(lnast.Expression) lnast.Expression
	visit = func(e lnast.Expression) lnast.Expression {
		if m, ok := e.(*lnast.MemberExpr); ok && !m.Optional {
			if id, ok := m.Object.(*lnast.IdentExpr); ok && id.Name == name {
				if scalar, ok := fields[m.Property]; ok {
					repl := &lnast.IdentExpr{Name: scalar}
					repl.Span = m.Span
					return repl
				}
			}
		}
		return walkExprChildren(e, visit)
	}
	walkStmtsExprs(rest, visit)
}

// genericSpecializationMaxClones caps how many distinct specializations one
// generic function may spawn; tuples beyond the cap keep calling the
// generic original.
const genericSpecializationMaxClones = 8

// genericSpecialization implements the O3 generic-specialization pass
// (spec.md §4.5.3): every call of a generic function with explicit type
// arguments is retargeted at a clone specialized for that concrete
// type-argument tuple. Tuples are deduplicated by hashing a canonical
// rendering of the argument types, so `id<number>` at two sites shares one
// clone. Clones are named `<fn>__spec_<n>` in first-use order, with type
// parameters erased; the generic original is dropped from the program when
// no reference to it survives the rewrite.
func genericSpecialization(_ *Context, mp *lnast.MutableProgram) bool {
	it := mp.Interner
	if it == nil {
		return false
	}
	generics := make(map[Name]*lnast.FunctionDecl)
	for _, s := range mp.Statements {
		if fn, ok := s.(*lnast.FunctionDecl); ok && len(fn.TypeParams) > 0 && !fn.Ambient && !fn.Abstract {
			generics[fn.Name] = fn
		}
	}
	if len(generics) == 0 {
		return false
	}

	type specKey struct {
		fn   Name
		args uint64
	}
	specs := make(map[specKey]Name)
	counters := make(map[Name]int)
	clones := make(map[Name][]*lnast.FunctionDecl)
	changed := false

	var visit func(lnast.Expression) lnast.Expression
	visit = func(e lnast.Expression) lnast.Expression {
		e = walkExprChildren(e, visit)
		call, ok := e.(*lnast.CallExpr)
		if !ok || len(call.TypeArgs) == 0 {
			return e
		}
		id, ok := call.Callee.(*lnast.IdentExpr)
		if !ok {
			return e
		}
		_, isGeneric := generics[id.Name]
		if !isGeneric {
			return e
		}
		key := specKey{fn: id.Name, args: typeArgsHash(call.TypeArgs)}
		specName, ok := specs[key]
		if !ok {
			if counters[id.Name] >= genericSpecializationMaxClones {
				return e
			}
			counters[id.Name]++
			specName = it.Intern(it.MustResolve(id.Name) + "__spec_" + itoa(counters[id.Name]))
			specs[key] = specName
			clone := lnast.CloneStatement(mp.Arena, generics[id.Name]).(*lnast.FunctionDecl)
			clone.Name = specName
			clone.TypeParams = nil
			clones[id.Name] = append(clones[id.Name], clone)
		}
		changed = true
		callee := &lnast.IdentExpr{Name: specName}
		callee.Span = id.Span
		spec := &lnast.CallExpr{Callee: callee, Args: call.Args, Spreads: call.Spreads, Optional: call.Optional}
		spec.Span = call.Span
		return spec
	}
	walkStmtsExprs(mp.Statements, visit)
	if !changed {
		return false
	}

	var out []lnast.Statement
	for _, s := range mp.Statements {
		if fn, ok := s.(*lnast.FunctionDecl); ok {
			if cs, has := clones[fn.Name]; has {
				if identUseCount(mp.Statements, fn.Name) > 0 {
					out = append(out, s)
				}
				for _, c := range cs {
					out = append(out, c)
				}
				continue
			}
		}
		out = append(out, s)
	}
	mp.Statements = out
	return true
}

// typeArgsHash folds a type-argument tuple into the dedup key generic
// specialization caps clones by (spec.md §4.5.3).
func typeArgsHash(args []lnast.Type) uint64 {
	var b []byte
	var render func(lnast.Type)
	render = func(t lnast.Type) {
		switch n := t.(type) {
		case *lnast.PrimitiveType:
			b = append(b, 'p', byte(n.Kind))
		case *lnast.LiteralType:
			b = append(b, 'l', byte(n.Kind))
			b = append(b, n.String...)
			b = append(b, n.Number...)
		case *lnast.NamedType:
			b = append(b, 'n')
			b = append(b, n.Name.String()...)
			for _, a := range n.Args {
				render(a)
			}
		case *lnast.ArrayType:
			b = append(b, 'a')
			render(n.Element)
		case *lnast.NullableType:
			b = append(b, '?')
			render(n.Inner)
		case *lnast.UnionType:
			b = append(b, 'u')
			for _, m := range n.Members {
				render(m)
			}
		case *lnast.ParenType:
			render(n.Inner)
		default:
			// Structurally exotic arguments (mapped, conditional, ...) fall
			// back to span identity: distinct source positions stay
			// distinct, which only costs a missed dedup, never a wrong one.
			span := t.NodeSpan()
			b = append(b, 'x')
			b = append(b, itoa(span.StartByte)...)
			b = append(b, ':')
			b = append(b, itoa(span.EndByte)...)
		}
		b = append(b, ';')
	}
	for _, a := range args {
		render(a)
	}
	return fxhash.Sum64(b)
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var digits []byte
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

// identUseCount counts IdentExpr references to name across the program
// (declaration name fields are not expressions and don't count).
func identUseCount(stmts []lnast.Statement, name Name) int {
	count := 0
	var visit func(lnast.Expression) lnast.Expression
	visit = func(e lnast.Expression) lnast.Expression {
		if id, ok := e.(*lnast.IdentExpr); ok && id.Name == name {
			count++
		}
		return walkExprChildren(e, visit)
	}
	walkStmtsExprs(stmts, visit)
	return count
}

// functionCloneBodyCap and functionCloneMax bound the O3 function-cloning
// pass (spec.md §4.5.3: "bodies <=8 statements, <=4 clones each").
const (
	functionCloneBodyCap = 8
	functionCloneMax     = 4
)

// functionCloning implements the O3 function-cloning pass: when different
// call sites pass different all-literal argument tuples to the same small
// function — so interprocedural constant propagation cannot fire, since the
// callers disagree — each distinct tuple gets a clone with the literals
// substituted into the body and the parameters dropped, and the call sites
// are retargeted. Identical tuples deduplicate onto one clone; a function
// spawns at most four.
func functionCloning(_ *Context, mp *lnast.MutableProgram) bool {
	it := mp.Interner
	if it == nil {
		return false
	}
	changed := false
	clones := make(map[Name][]*lnast.FunctionDecl)
	for _, s := range mp.Statements {
		fn, ok := s.(*lnast.FunctionDecl)
		if !ok || fn.Ambient || fn.Abstract || len(fn.TypeParams) > 0 {
			continue
		}
		if len(fn.Body) == 0 || len(fn.Body) > functionCloneBodyCap || len(fn.Params) == 0 {
			continue
		}
		if !plainParams(fn.Params) || callsSelf(fn) {
			continue
		}
		calls := collectCallsTo(mp.Statements, fn.Name)
		if len(calls) < 2 {
			continue
		}
		tuples := make(map[uint64][]*lnast.CallExpr)
		for _, c := range calls {
			if key, ok := literalTupleKey(c.Args, len(fn.Params)); ok {
				tuples[key] = append(tuples[key], c)
			}
		}
		// Cloning pays off only when callers genuinely disagree; a single
		// agreed tuple is interprocedural const-prop's case, not this one.
		if len(tuples) < 2 || len(tuples) > functionCloneMax {
			continue
		}
		counter := 0
		for _, sites := range tuples {
			counter++
			cloneName := it.Intern(it.MustResolve(fn.Name) + "__clone_" + itoa(counter))
			clone := lnast.CloneStatement(mp.Arena, fn).(*lnast.FunctionDecl)
			clone.Name = cloneName
			for pi, p := range fn.Params {
				id := p.Pattern.(*lnast.IdentPattern)
				substituteParam(clone, id.Name, sites[0].Args[pi])
			}
			clone.Params = nil
			clones[fn.Name] = append(clones[fn.Name], clone)
			for _, c := range sites {
				callee := c.Callee.(*lnast.IdentExpr)
				callee.Name = cloneName
				c.Args = nil
				c.Spreads = nil
			}
			changed = true
		}
	}
	if !changed {
		return false
	}
	var out []lnast.Statement
	for _, s := range mp.Statements {
		out = append(out, s)
		if fn, ok := s.(*lnast.FunctionDecl); ok {
			for _, c := range clones[fn.Name] {
				out = append(out, c)
			}
		}
	}
	mp.Statements = out
	return true
}

// literalTupleKey hashes an all-literal argument tuple; ok is false when any
// argument is non-literal or the arity doesn't match.
func literalTupleKey(args []lnast.Expression, arity int) (uint64, bool) {
	if len(args) != arity {
		return 0, false
	}
	var b []byte
	for _, a := range args {
		if !isLiteral(a) {
			return 0, false
		}
		switch n := a.(type) {
		case *lnast.NumberLiteral:
			b = append(b, '#')
			b = append(b, n.Text...)
		case *lnast.StringLiteral:
			b = append(b, '$')
			b = append(b, n.Value...)
		case *lnast.BoolLiteral:
			if n.Value {
				b = append(b, 'T')
			} else {
				b = append(b, 'F')
			}
		case *lnast.NilLiteral:
			b = append(b, 'n')
		}
		b = append(b, ';')
	}
	return fxhash.Sum64(b), true
}

func init() {
	Register(&Pass{Name: "devirtualization", Level: O3, Role: RoleExpression, Requires: lnast.FeatureClasses, VisitExpr: devirtualization})
	Register(&Pass{Name: "loop-unrolling", Level: O3, Role: RoleStatement, Requires: lnast.FeatureLoops, VisitStmt: loopUnrolling})
	Register(&Pass{Name: "interprocedural-const-prop", Level: O3, Role: RoleWholeProgram, Requires: lnast.FeatureFunctions, VisitProgram: interproceduralConstProp})
	Register(&Pass{Name: "generic-specialization", Level: O3, Role: RoleWholeProgram, Requires: lnast.FeatureFunctions, VisitProgram: genericSpecialization})
	Register(&Pass{Name: "function-cloning", Level: O3, Role: RoleWholeProgram, Requires: lnast.FeatureFunctions, VisitProgram: functionCloning})
	Register(&Pass{Name: "scalar-replacement", Level: O3, Role: RoleBlock, Requires: lnast.FeatureObjects, VisitBlock: scalarReplaceAggregates})
}
