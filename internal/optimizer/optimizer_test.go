// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package optimizer

import (
	"reflect"
	"testing"

	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/typesys"
)

func intLit(text string) *lnast.NumberLiteral {
	return &lnast.NumberLiteral{Text: text, Integer: true}
}

func constDecl(name lnast.Name, init lnast.Expression) *lnast.VariableDecl {
	return &lnast.VariableDecl{Kind: lnast.VarConst, Pattern: &lnast.IdentPattern{Name: name}, Init: init}
}

func mutable(stmts ...lnast.Statement) *lnast.MutableProgram {
	prog := &lnast.Program{Arena: lnast.NewArena(), Statements: stmts}
	prog.ReindexSpans()
	return lnast.NewMutableProgram(prog)
}

func mutableWith(it *intern.Interner, stmts ...lnast.Statement) *lnast.MutableProgram {
	mp := mutable(stmts...)
	mp.Interner = it
	return mp
}

func TestO0IsIdentity(t *testing.T) {
	it := intern.New()
	add := &lnast.BinaryExpr{Op: lnast.BinAdd, Left: intLit("2"), Right: intLit("3")}
	decl := constDecl(it.Intern("x"), add)
	mp := mutable(decl)
	Run(mp, O0)
	if len(mp.Statements) != 1 || mp.Statements[0] != lnast.Statement(decl) {
		t.Fatal("Run(O0) touched the statement list; O0 must be the identity transformation")
	}
	if decl.Init != lnast.Expression(add) {
		t.Error("Run(O0) rewrote an expression; O0 must be the identity transformation")
	}
}

func TestConstantFolding(t *testing.T) {
	tests := []struct {
		name string
		expr lnast.Expression
		want string
	}{
		{"add", &lnast.BinaryExpr{Op: lnast.BinAdd, Left: intLit("2"), Right: intLit("3")}, "5"},
		{"mul", &lnast.BinaryExpr{Op: lnast.BinMul, Left: intLit("6"), Right: intLit("7")}, "42"},
		{"nested", &lnast.BinaryExpr{
			Op:    lnast.BinAdd,
			Left:  &lnast.BinaryExpr{Op: lnast.BinMul, Left: intLit("2"), Right: intLit("3")},
			Right: intLit("4"),
		}, "10"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			it := intern.New()
			mp := mutable(constDecl(it.Intern("x"), test.expr))
			Run(mp, O1)
			decl := mp.Statements[0].(*lnast.VariableDecl)
			lit, ok := decl.Init.(*lnast.NumberLiteral)
			if !ok {
				t.Fatalf("init after O1 = %#v; want a folded NumberLiteral", decl.Init)
			}
			if lit.Text != test.want || !lit.Integer {
				t.Errorf("folded literal = %q (integer=%v); want %q", lit.Text, lit.Integer, test.want)
			}
		})
	}
}

func TestStringConcatFolding(t *testing.T) {
	it := intern.New()
	concat := &lnast.BinaryExpr{
		Op:    lnast.BinConcat,
		Left:  &lnast.StringLiteral{Value: "foo"},
		Right: &lnast.StringLiteral{Value: "bar"},
	}
	mp := mutable(constDecl(it.Intern("s"), concat))
	Run(mp, O1)
	lit, ok := mp.Statements[0].(*lnast.VariableDecl).Init.(*lnast.StringLiteral)
	if !ok || lit.Value != "foobar" {
		t.Errorf("init after O1 = %#v; want folded string literal %q", mp.Statements[0].(*lnast.VariableDecl).Init, "foobar")
	}
}

func TestAlgebraicSimplification(t *testing.T) {
	it := intern.New()
	x := it.Intern("x")
	addZero := &lnast.BinaryExpr{Op: lnast.BinAdd, Left: &lnast.IdentExpr{Name: x}, Right: intLit("0")}
	mp := mutable(&lnast.ReturnStatement{Values: []lnast.Expression{addZero}})
	Run(mp, O1)
	ret := mp.Statements[0].(*lnast.ReturnStatement)
	if id, ok := ret.Values[0].(*lnast.IdentExpr); !ok || id.Name != x {
		t.Errorf("return value after O1 = %#v; want x with the +0 stripped", ret.Values[0])
	}
}

func TestDeadCodeAfterReturn(t *testing.T) {
	it := intern.New()
	mp := mutable(
		&lnast.ReturnStatement{Values: []lnast.Expression{intLit("1")}},
		constDecl(it.Intern("x"), intLit("2")),
	)
	Run(mp, O1)
	if len(mp.Statements) != 1 {
		t.Fatalf("Run(O1) kept %d statements; want truncation after return", len(mp.Statements))
	}
	if _, ok := mp.Statements[0].(*lnast.ReturnStatement); !ok {
		t.Errorf("surviving statement is %T; want the return", mp.Statements[0])
	}
}

func TestIfFalseBranchDropped(t *testing.T) {
	it := intern.New()
	mp := mutable(&lnast.IfStatement{
		Cond: &lnast.BoolLiteral{Value: false},
		Then: []lnast.Statement{constDecl(it.Intern("a"), intLit("1"))},
		Else: []lnast.Statement{&lnast.ReturnStatement{Values: []lnast.Expression{intLit("2")}}},
	})
	Run(mp, O1)
	if len(mp.Statements) != 1 {
		t.Fatalf("Run(O1) left %d statements; want the else branch inlined", len(mp.Statements))
	}
	if _, ok := mp.Statements[0].(*lnast.ReturnStatement); !ok {
		t.Errorf("surviving statement is %T; want the else branch's return", mp.Statements[0])
	}
}

func TestIfTrueSimplified(t *testing.T) {
	it := intern.New()
	mp := mutable(&lnast.IfStatement{
		Cond: &lnast.BoolLiteral{Value: true},
		Then: []lnast.Statement{constDecl(it.Intern("a"), intLit("1"))},
		Else: []lnast.Statement{constDecl(it.Intern("b"), intLit("2"))},
	})
	Run(mp, O1)
	if len(mp.Statements) != 1 {
		t.Fatalf("Run(O1) left %d statements; want only the then branch", len(mp.Statements))
	}
	decl, ok := mp.Statements[0].(*lnast.VariableDecl)
	if !ok {
		t.Fatalf("surviving statement is %T; want the then branch's declaration", mp.Statements[0])
	}
	if id := decl.Pattern.(*lnast.IdentPattern); it.MustResolve(id.Name) != "a" {
		t.Errorf("surviving declaration binds %q; want a", it.MustResolve(id.Name))
	}
}

func TestCopyPropagationAndDeadStore(t *testing.T) {
	it := intern.New()
	a, b := it.Intern("a"), it.Intern("b")
	mp := mutable(
		constDecl(a, &lnast.IdentExpr{Name: b}),
		&lnast.ReturnStatement{Values: []lnast.Expression{&lnast.IdentExpr{Name: a}}},
	)
	Run(mp, O2)
	last := mp.Statements[len(mp.Statements)-1].(*lnast.ReturnStatement)
	id, ok := last.Values[0].(*lnast.IdentExpr)
	if !ok || id.Name != b {
		t.Errorf("return value after O2 = %#v; want the copy source b", last.Values[0])
	}
	for _, s := range mp.Statements {
		if decl, ok := s.(*lnast.VariableDecl); ok {
			if p := decl.Pattern.(*lnast.IdentPattern); p.Name == a {
				t.Errorf("dead store `local a = b` survived O2")
			}
		}
	}
}

func TestFixedPointIdempotent(t *testing.T) {
	it := intern.New()
	expr := &lnast.BinaryExpr{
		Op:    lnast.BinAdd,
		Left:  &lnast.BinaryExpr{Op: lnast.BinMul, Left: intLit("3"), Right: intLit("3")},
		Right: intLit("1"),
	}
	mp := mutable(
		constDecl(it.Intern("x"), expr),
		&lnast.ReturnStatement{Values: []lnast.Expression{&lnast.IdentExpr{Name: it.Intern("x")}}},
	)
	Run(mp, O1)
	snapshot := lnast.CloneStatements(lnast.NewArena(), mp.Statements)
	Run(mp, O1)
	if !reflect.DeepEqual(stripArena(mp.Statements), stripArena(snapshot)) {
		t.Error("second Run(O1) changed an already-converged program; the pipeline must be a fixed point")
	}
}

// stripArena renders statements through %#v-insensitive structural copy:
// CloneStatements already produced owned nodes, so a DeepEqual over the two
// slices compares structure; this hook exists for symmetry if representation
// details ever diverge.
func stripArena(stmts []lnast.Statement) []lnast.Statement { return stmts }

func TestFeatureGatingSkipsInapplicablePasses(t *testing.T) {
	features := lnast.ComputeFeatures([]lnast.Statement{
		&lnast.ReturnStatement{Values: []lnast.Expression{intLit("1")}},
	})
	if features.Has(lnast.FeatureLoops) || features.Has(lnast.FeatureClasses) {
		t.Fatalf("ComputeFeatures() = %b; a bare return has no loops or classes", features)
	}
	gated := passesFor(O3, features)
	for _, p := range gated {
		if p.Requires != 0 && !features.Has(p.Requires) {
			t.Errorf("passesFor() kept %q whose required features %b are absent", p.Name, p.Requires)
		}
	}
	all := passesFor(O3, ^lnast.AstFeatures(0))
	if len(gated) >= len(all) {
		t.Errorf("passesFor() gated %d of %d passes; want at least one feature-gated pass skipped", len(all)-len(gated), len(all))
	}
}

func TestSCCPPropagatesBlockConstants(t *testing.T) {
	it := intern.New()
	k := it.Intern("k")
	stmts := []lnast.Statement{
		constDecl(k, intLit("10")),
		&lnast.ReturnStatement{Values: []lnast.Expression{
			&lnast.BinaryExpr{Op: lnast.BinAdd, Left: &lnast.IdentExpr{Name: k}, Right: intLit("1")},
		}},
	}
	out, changed := sccp(nil, stmts)
	if !changed {
		t.Fatal("sccp() reported no change on a constant local read")
	}
	ret := out[len(out)-1].(*lnast.ReturnStatement)
	bin := ret.Values[0].(*lnast.BinaryExpr)
	lit, ok := bin.Left.(*lnast.NumberLiteral)
	if !ok || lit.Text != "10" {
		t.Errorf("return operand after sccp = %#v; want the propagated literal 10", bin.Left)
	}
}

func TestSCCPSkipsReassignedLocals(t *testing.T) {
	it := intern.New()
	k := it.Intern("k")
	stmts := []lnast.Statement{
		&lnast.VariableDecl{Kind: lnast.VarLet, Pattern: &lnast.IdentPattern{Name: k}, Init: intLit("10")},
		&lnast.ExpressionStatement{Expr: &lnast.AssignExpr{
			Op:     lnast.AssignPlain,
			Target: &lnast.IdentExpr{Name: k},
			Value:  intLit("20"),
		}},
		&lnast.ReturnStatement{Values: []lnast.Expression{&lnast.IdentExpr{Name: k}}},
	}
	_, changed := sccp(nil, stmts)
	if changed {
		t.Error("sccp() propagated a local that is reassigned in the block")
	}
}

func TestJumpThreadingFollowsGotoChains(t *testing.T) {
	it := intern.New()
	l1, l2 := it.Intern("l1"), it.Intern("l2")
	first := &lnast.GotoStatement{Label: l1}
	stmts := []lnast.Statement{
		first,
		&lnast.LabelStatement{Name: l1},
		&lnast.GotoStatement{Label: l2},
		&lnast.LabelStatement{Name: l2},
		&lnast.ReturnStatement{},
	}
	_, changed := jumpThreading(nil, stmts)
	if !changed {
		t.Fatal("jumpThreading() reported no change on a goto-to-goto chain")
	}
	if first.Label != l2 {
		t.Errorf("first goto targets %v after threading; want the chain's end %v", first.Label, l2)
	}
}

func TestJumpThreadingLeavesGotoCyclesAlone(t *testing.T) {
	it := intern.New()
	l1, l2 := it.Intern("l1"), it.Intern("l2")
	stmts := []lnast.Statement{
		&lnast.LabelStatement{Name: l1},
		&lnast.GotoStatement{Label: l2},
		&lnast.LabelStatement{Name: l2},
		&lnast.GotoStatement{Label: l1},
	}
	// Must terminate; retargeting inside the cycle is fine, looping is not.
	jumpThreading(nil, stmts)
}

func TestCSEReusesValueNumberedInitializer(t *testing.T) {
	it := intern.New()
	x, y, a, b := it.Intern("x"), it.Intern("y"), it.Intern("a"), it.Intern("b")
	mul := func() *lnast.BinaryExpr {
		return &lnast.BinaryExpr{Op: lnast.BinMul, Left: &lnast.IdentExpr{Name: x}, Right: &lnast.IdentExpr{Name: y}}
	}
	second := constDecl(b, mul())
	stmts := []lnast.Statement{constDecl(a, mul()), second}
	_, changed := cse(nil, stmts)
	if !changed {
		t.Fatal("cse() reported no change on two identical pure initializers")
	}
	id, ok := second.Init.(*lnast.IdentExpr)
	if !ok || id.Name != a {
		t.Errorf("second initializer after cse = %#v; want a read of the first binding", second.Init)
	}
}

func TestCSEInvalidatesOnReassignment(t *testing.T) {
	it := intern.New()
	x, y, a, b := it.Intern("x"), it.Intern("y"), it.Intern("a"), it.Intern("b")
	mul := func() *lnast.BinaryExpr {
		return &lnast.BinaryExpr{Op: lnast.BinMul, Left: &lnast.IdentExpr{Name: x}, Right: &lnast.IdentExpr{Name: y}}
	}
	second := constDecl(b, mul())
	stmts := []lnast.Statement{
		constDecl(a, mul()),
		&lnast.ExpressionStatement{Expr: &lnast.AssignExpr{
			Op:     lnast.AssignPlain,
			Target: &lnast.IdentExpr{Name: x},
			Value:  intLit("0"),
		}},
		second,
	}
	_, changed := cse(nil, stmts)
	if changed {
		t.Errorf("cse() reused a value number whose operand was reassigned in between")
	}
}

func TestGenericSpecialization(t *testing.T) {
	it := intern.New()
	id, x := it.Intern("id"), it.Intern("x")
	generic := &lnast.FunctionDecl{
		Name:       id,
		TypeParams: []lnast.TypeParam{{Name: it.Intern("T")}},
		Params:     []lnast.Param{{Pattern: &lnast.IdentPattern{Name: x}}},
		Body:       []lnast.Statement{&lnast.ReturnStatement{Values: []lnast.Expression{&lnast.IdentExpr{Name: x}}}},
	}
	callNum := &lnast.CallExpr{
		Callee:   &lnast.IdentExpr{Name: id},
		Args:     []lnast.Expression{intLit("1")},
		TypeArgs: []lnast.Type{&lnast.PrimitiveType{Kind: lnast.PrimNumber}},
	}
	callStr := &lnast.CallExpr{
		Callee:   &lnast.IdentExpr{Name: id},
		Args:     []lnast.Expression{&lnast.StringLiteral{Value: "s"}},
		TypeArgs: []lnast.Type{&lnast.PrimitiveType{Kind: lnast.PrimString}},
	}
	callNumAgain := &lnast.CallExpr{
		Callee:   &lnast.IdentExpr{Name: id},
		Args:     []lnast.Expression{intLit("2")},
		TypeArgs: []lnast.Type{&lnast.PrimitiveType{Kind: lnast.PrimNumber}},
	}
	mp := mutableWith(it, generic,
		&lnast.ExpressionStatement{Expr: callNum},
		&lnast.ExpressionStatement{Expr: callStr},
		&lnast.ExpressionStatement{Expr: callNumAgain},
	)
	if !genericSpecialization(nil, mp) {
		t.Fatal("genericSpecialization() reported no change on explicit generic calls")
	}

	fns := make(map[string]*lnast.FunctionDecl)
	for _, s := range mp.Statements {
		if fn, ok := s.(*lnast.FunctionDecl); ok {
			fns[it.MustResolve(fn.Name)] = fn
		}
	}
	for _, want := range []string{"id__spec_1", "id__spec_2"} {
		fn, ok := fns[want]
		if !ok {
			t.Fatalf("specialized function %q missing; have %v", want, fns)
		}
		if len(fn.TypeParams) != 0 {
			t.Errorf("%q kept type parameters; specialization must erase them", want)
		}
	}
	if _, ok := fns["id"]; ok {
		t.Error("generic original survived although every reference was specialized away")
	}
	if len(fns) != 2 {
		t.Errorf("got %d specializations; identical type-argument tuples must dedup onto one clone", len(fns))
	}
	retargeted := 0
	for _, s := range mp.Statements {
		es, ok := s.(*lnast.ExpressionStatement)
		if !ok {
			continue
		}
		call := es.Expr.(*lnast.CallExpr)
		callee := call.Callee.(*lnast.IdentExpr)
		name := it.MustResolve(callee.Name)
		if name == "id__spec_1" || name == "id__spec_2" {
			retargeted++
		}
		if len(call.TypeArgs) != 0 {
			t.Errorf("specialized call still carries type arguments")
		}
	}
	if retargeted != 3 {
		t.Errorf("%d of 3 call sites retargeted at specializations", retargeted)
	}
}

func TestFunctionCloningPerLiteralTuple(t *testing.T) {
	it := intern.New()
	f, a := it.Intern("f"), it.Intern("a")
	fn := &lnast.FunctionDecl{
		Name:   f,
		Params: []lnast.Param{{Pattern: &lnast.IdentPattern{Name: a}}},
		Body:   []lnast.Statement{&lnast.ReturnStatement{Values: []lnast.Expression{&lnast.IdentExpr{Name: a}}}},
	}
	callOne := &lnast.CallExpr{Callee: &lnast.IdentExpr{Name: f}, Args: []lnast.Expression{intLit("1")}}
	callTwo := &lnast.CallExpr{Callee: &lnast.IdentExpr{Name: f}, Args: []lnast.Expression{intLit("2")}}
	mp := mutableWith(it, fn,
		&lnast.ExpressionStatement{Expr: callOne},
		&lnast.ExpressionStatement{Expr: callTwo},
	)
	if !functionCloning(nil, mp) {
		t.Fatal("functionCloning() reported no change with two disagreeing literal call sites")
	}
	names := make(map[string]bool)
	for _, s := range mp.Statements {
		if fd, ok := s.(*lnast.FunctionDecl); ok {
			names[it.MustResolve(fd.Name)] = true
		}
	}
	if !names["f__clone_1"] || !names["f__clone_2"] {
		t.Fatalf("clones missing; declared functions: %v", names)
	}
	if len(callOne.Args) != 0 || len(callTwo.Args) != 0 {
		t.Error("cloned call sites kept their literal arguments; the literals are baked into the clone bodies")
	}
	if it.MustResolve(callOne.Callee.(*lnast.IdentExpr).Name) == "f" {
		t.Error("call site still targets the original function")
	}
}

func TestScalarReplacementSplitsNonEscapingTable(t *testing.T) {
	it := intern.New()
	p := it.Intern("p")
	xKey, yKey := it.Intern("x"), it.Intern("y")
	decl := &lnast.VariableDecl{
		Kind:    lnast.VarConst,
		Pattern: &lnast.IdentPattern{Name: p},
		Init: &lnast.ObjectLiteral{Properties: []lnast.ObjectProperty{
			{Key: xKey, Value: intLit("1")},
			{Key: yKey, Value: intLit("2")},
		}},
	}
	ret := &lnast.ReturnStatement{Values: []lnast.Expression{&lnast.BinaryExpr{
		Op:    lnast.BinAdd,
		Left:  &lnast.MemberExpr{Object: &lnast.IdentExpr{Name: p}, Property: xKey},
		Right: &lnast.MemberExpr{Object: &lnast.IdentExpr{Name: p}, Property: yKey},
	}}}
	mp := mutableWith(it)
	ctx := &Context{MP: mp}
	out, changed := scalarReplaceAggregates(ctx, []lnast.Statement{decl, ret})
	if !changed {
		t.Fatal("scalarReplaceAggregates() reported no change on a non-escaping table")
	}
	if len(out) != 3 {
		t.Fatalf("scalarReplaceAggregates() produced %d statements; want two scalars plus the return", len(out))
	}
	first := out[0].(*lnast.VariableDecl).Pattern.(*lnast.IdentPattern)
	if it.MustResolve(first.Name) != "p__x" {
		t.Errorf("first scalar binds %q; want p__x", it.MustResolve(first.Name))
	}
	bin := ret.Values[0].(*lnast.BinaryExpr)
	if _, ok := bin.Left.(*lnast.IdentExpr); !ok {
		t.Errorf("member access survived scalar replacement: %#v", bin.Left)
	}
}

func TestScalarReplacementSkipsEscapingTable(t *testing.T) {
	it := intern.New()
	p := it.Intern("p")
	decl := &lnast.VariableDecl{
		Kind:    lnast.VarConst,
		Pattern: &lnast.IdentPattern{Name: p},
		Init: &lnast.ObjectLiteral{Properties: []lnast.ObjectProperty{
			{Key: it.Intern("x"), Value: intLit("1")},
		}},
	}
	// Passing p to a call makes it escape.
	use := &lnast.ExpressionStatement{Expr: &lnast.CallExpr{
		Callee: &lnast.IdentExpr{Name: it.Intern("sink")},
		Args:   []lnast.Expression{&lnast.IdentExpr{Name: p}},
	}}
	mp := mutableWith(it)
	ctx := &Context{MP: mp}
	_, changed := scalarReplaceAggregates(ctx, []lnast.Statement{decl, use})
	if changed {
		t.Error("scalarReplaceAggregates() split a table that escapes through a call argument")
	}
}

func TestAggressiveInliningClonesBodyAtCallSite(t *testing.T) {
	it := intern.New()
	g, x, tmp := it.Intern("g"), it.Intern("x"), it.Intern("t")
	fn := &lnast.FunctionDecl{
		Name:   g,
		Params: []lnast.Param{{Pattern: &lnast.IdentPattern{Name: x}}},
		Body: []lnast.Statement{
			constDecl(tmp, &lnast.IdentExpr{Name: x}),
			&lnast.ReturnStatement{Values: []lnast.Expression{&lnast.IdentExpr{Name: tmp}}},
		},
	}
	call := &lnast.CallExpr{Callee: &lnast.IdentExpr{Name: g}, Args: []lnast.Expression{intLit("5")}}
	mp := mutable(fn, &lnast.ExpressionStatement{Expr: call})
	ctx := &Context{MP: mp}
	inlined, changed := aggressiveInlining(ctx, call)
	if !changed {
		t.Fatal("aggressiveInlining() declined a small multi-statement function")
	}
	outer := inlined.(*lnast.CallExpr)
	paren, ok := outer.Callee.(*lnast.ParenExpr)
	if !ok {
		t.Fatalf("inlined callee is %T; want a parenthesized function expression", outer.Callee)
	}
	fe := paren.Inner.(*lnast.FunctionExpr)
	if len(fe.Body) != len(fn.Body) {
		t.Errorf("inlined body has %d statements; want %d", len(fe.Body), len(fn.Body))
	}
	if &fe.Body[0] == &fn.Body[0] {
		t.Error("inlined body shares the original's statement slice; must be a clone")
	}
}

func TestOperatorInliningUsesClassOverload(t *testing.T) {
	it := intern.New()
	vec, addTag := it.Intern("Vec"), it.Intern("__add")
	cls := &lnast.ClassDecl{
		Name: vec,
		Members: []lnast.ClassMember{{
			Name:        addTag,
			IsMethod:    true,
			OperatorTag: "__add",
			Method:      &lnast.FunctionExpr{IsMethod: true},
		}},
	}
	left := &lnast.IdentExpr{Name: it.Intern("a")}
	left.Analysis().ReceiverClassInfo = &typesys.ClassInfo{Name: vec}
	bin := &lnast.BinaryExpr{Op: lnast.BinAdd, Left: left, Right: &lnast.IdentExpr{Name: it.Intern("b")}}
	mp := mutableWith(it, cls, &lnast.ExpressionStatement{Expr: bin})
	ctx := &Context{MP: mp, Whole: BuildWholeProgram(mp)}
	out, changed := operatorInlining(ctx, bin)
	if !changed {
		t.Fatal("operatorInlining() declined an overloaded operator with a known receiver class")
	}
	call := out.(*lnast.CallExpr)
	member := call.Callee.(*lnast.MemberExpr)
	if it.MustResolve(member.Object.(*lnast.IdentExpr).Name) != "Vec" || member.Property != addTag {
		t.Errorf("operator inlined to %#v; want a direct Vec.__add call", call.Callee)
	}
	if len(call.Args) != 2 {
		t.Errorf("inlined operator call has %d args; want both operands", len(call.Args))
	}
}

func TestPassLevelGating(t *testing.T) {
	o1 := passesFor(O1, ^lnast.AstFeatures(0))
	for _, p := range o1 {
		if p.Level > O1 {
			t.Errorf("passesFor(O1) included %q at level %d", p.Name, p.Level)
		}
	}
	o3 := passesFor(O3, ^lnast.AstFeatures(0))
	if len(o3) <= len(o1) {
		t.Errorf("passesFor(O3) = %d passes, passesFor(O1) = %d; higher levels must add passes", len(o3), len(o1))
	}
}
