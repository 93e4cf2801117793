// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnast

// BinaryOp enumerates the 22 binary operators.
type BinaryOp int

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinIntDiv
	BinMod
	BinPow
	BinConcat
	BinEqual
	BinNotEqual
	BinLess
	BinLessEqual
	BinGreater
	BinGreaterEqual
	BinAnd
	BinOr
	BinBitAnd
	BinBitOr
	BinBitXor
	BinLShift
	BinRShift
	BinNullishCoalesce
)

// UnaryOp enumerates the 4 unary operators.
type UnaryOp int

const (
	UnNeg UnaryOp = iota
	UnNot
	UnLen
	UnBitNot
)

// AssignOp enumerates plain assignment and the 13 compound forms.
type AssignOp int

const (
	AssignPlain AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignIntDiv
	AssignMod
	AssignPow
	AssignConcat
	AssignBitAnd
	AssignBitOr
	AssignBitXor
	AssignLShift
	AssignRShift
)

// NilLiteral is the `nil` literal.
type NilLiteral struct{ exprBase }

// BoolLiteral is `true` or `false`.
type BoolLiteral struct {
	exprBase
	Value bool
}

// NumberLiteral is a numeric constant; Integer distinguishes an
// integer-kind literal from a floating-point one, per spec.md §4.4.3
// ("integer vs number is literal-kind-based").
type NumberLiteral struct {
	exprBase
	Text    string
	Integer bool
}

// StringLiteral is a quoted string constant.
type StringLiteral struct {
	exprBase
	Value string
}

// IdentExpr references a local, parameter, or global by name.
type IdentExpr struct {
	exprBase
	Name Name
}

// SelfExpr is `self` inside a method body.
type SelfExpr struct{ exprBase }

// SuperExpr is `super` inside a derived class's method body.
type SuperExpr struct{ exprBase }

// BinaryExpr applies one of the 22 [BinaryOp]s.
type BinaryExpr struct {
	exprBase
	Op          BinaryOp
	Left, Right Expression
}

// UnaryExpr applies one of the 4 [UnaryOp]s.
type UnaryExpr struct {
	exprBase
	Op      UnaryOp
	Operand Expression
}

// AssignExpr is a plain or compound assignment; Target is restricted by the
// parser to identifier, member, or index expressions.
type AssignExpr struct {
	exprBase
	Op     AssignOp
	Target Expression
	Value  Expression
}

// MemberExpr is `obj.prop`, or `obj?.prop` when Optional is set.
type MemberExpr struct {
	exprBase
	Object   Expression
	Property Name
	Optional bool
}

// IndexExpr is `obj[index]`, or `obj?.[index]` when Optional is set.
type IndexExpr struct {
	exprBase
	Object   Expression
	Index    Expression
	Optional bool
}

// CallExpr is `callee(args...)`, or `callee?.(args...)` when Optional is
// set. TypeArgs holds explicit generic type arguments, if any.
type CallExpr struct {
	exprBase
	Callee   Expression
	Args     []Expression
	Spreads  []bool
	TypeArgs []Type
	Optional bool
}

// MethodCallExpr is `obj:method(args...)` (or `obj?:method(...)`).
type MethodCallExpr struct {
	exprBase
	Object   Expression
	Method   Name
	Args     []Expression
	Spreads  []bool
	TypeArgs []Type
	Optional bool
}

// NewExpr is `new C(args...)`.
type NewExpr struct {
	exprBase
	Callee   Expression
	Args     []Expression
	TypeArgs []Type
}

// ArrayLiteral is `[e1, ...e2, e3]`; Spreads[i] reports whether
// Elements[i] is a spread element.
type ArrayLiteral struct {
	exprBase
	Elements []Expression
	Spreads  []bool
}

// ObjectProperty is one entry of an [ObjectLiteral].
type ObjectProperty struct {
	Key         Name
	ComputedKey Expression
	Value       Expression
	Shorthand   bool
	Spread      bool
	Method      bool
}

// ObjectLiteral is `{ k: v, ...rest }`.
type ObjectLiteral struct {
	exprBase
	Properties []ObjectProperty
}

// Param is a function or arrow parameter.
type Param struct {
	Pattern    Pattern
	Annotation Type
	Default    Expression
	Rest       bool
}

// TypeParam is a generic type parameter, e.g. `T extends U = Default`.
type TypeParam struct {
	Name       Name
	Constraint Type
	Default    Type
}

// ArrowExpr is `(params): RetType => body`. Arrows never accept explicit
// type parameters (spec.md §4.2); ExprBody is set when the arrow has a
// bare-expression body instead of a block.
type ArrowExpr struct {
	exprBase
	Params     []Param
	ReturnType Type
	Body       []Statement
	ExprBody   Expression
}

// FunctionExpr is `function (params): RetType throw E { body }`, possibly
// with explicit type parameters (unlike [ArrowExpr]).
type FunctionExpr struct {
	exprBase
	TypeParams []TypeParam
	Params     []Param
	ReturnType Type
	Throws     Type
	Body       []Statement
	IsMethod   bool
}

// TernaryExpr is `cond ? then : else`.
type TernaryExpr struct {
	exprBase
	Cond, Then, Else Expression
}

// PipeExpr is `a |> f`, purely syntactic per spec.md §4.7 (lowered to
// `f(a)` at codegen).
type PipeExpr struct {
	exprBase
	Left, Right Expression
}

// MatchArm is one arm of a [MatchExpr].
type MatchArm struct {
	Pattern Pattern
	Guard   Expression
	Body    Expression
}

// MatchExpr is `match (subject) { arm... }`.
type MatchExpr struct {
	exprBase
	Subject Expression
	Arms    []MatchArm
}

// TemplateLiteralExpr is a backtick template string; len(Quasis) ==
// len(Exprs)+1.
type TemplateLiteralExpr struct {
	exprBase
	Quasis []string
	Exprs  []Expression
}

// TypeAssertionExpr is `expr as T`; erased at codegen.
type TypeAssertionExpr struct {
	exprBase
	Expr         Expression
	AssertedType Type
}

// TryExpr is an inline `try expr catch (e) expr2` form.
type TryExpr struct {
	exprBase
	Try        Expression
	CatchParam *Ident
	Catch      Expression
}

// ErrorChainExpr is `expr!` (propagate) or `expr!!` (propagate-and-assert
// non-nil), the expression-level error-chain operator.
type ErrorChainExpr struct {
	exprBase
	Operand Expression
	Assert  bool
}

// ParenExpr is `(expr)`, preserved so that codegen and source maps can
// reproduce explicit grouping when it affects precedence of the emitted
// Lua.
type ParenExpr struct {
	exprBase
	Inner Expression
}

// NewNilLiteral allocates a [NilLiteral] in a's arena.
func NewNilLiteral(a *Arena, span Span) *NilLiteral {
	n := Alloc[NilLiteral](a)
	n.Span = span
	return n
}
