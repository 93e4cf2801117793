// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

// Package codegen lowers a checked, optimized [lnast.Program] to Lua source
// text, per spec.md §4.7: a tracked-indentation emitter, one target
// strategy per Lua dialect, statement/expression/class/enum/decorator
// codegen, reflection metadata, and Source Map v3 output.
package codegen

// Target selects the Lua dialect codegen targets.
type Target int

const (
	Lua51 Target = iota
	Lua52
	Lua53
	Lua54
	Lua55
	LuaJIT
)

func (t Target) String() string {
	switch t {
	case Lua51:
		return "5.1"
	case Lua52:
		return "5.2"
	case Lua53:
		return "5.3"
	case Lua54:
		return "5.4"
	case Lua55:
		return "5.5"
	case LuaJIT:
		return "jit"
	default:
		return "unknown"
	}
}

// Strategy encapsulates the per-dialect emission rules spec.md §4.7
// describes: bitwise ops, integer divide, continue, and global declarations
// all vary enough across 5.1 through 5.5 and LuaJIT to need their own
// implementation rather than a single parameterized function.
type Strategy interface {
	Target() Target

	// BitwiseOp renders `lhs OP rhs` for one of the five binary bitwise
	// operators ("&", "|", "~" binary xor, "<<", ">>"); unary bitwise-not
	// is rendered by BitwiseNot.
	BitwiseOp(op string, lhs, rhs string) string
	BitwiseNot(operand string) string

	// IntDivide renders `lhs // rhs` natively on 5.3+, else a math.floor
	// call.
	IntDivide(lhs, rhs string) string

	// SupportsNativeContinue reports whether `continue` is a native
	// keyword (5.5 only).
	SupportsNativeContinue() bool
	// SupportsGoto reports whether `goto`/labels are available at all
	// (false only for 5.1).
	SupportsGoto() bool

	// GlobalPrefix returns the keyword prefixed to a global declaration
	// ("global" on 5.5, "" elsewhere, where a bare assignment suffices).
	GlobalPrefix() string

	// Preamble returns dialect-specific helper source injected once at the
	// top of a bundle when the program uses a feature that needs it (e.g.
	// the bitwise-helper library on 5.1/LuaJIT).
	Preamble(needsBitwiseHelpers bool) string

	// UnpackExpr renders the spread-unpack call name: "table.unpack" on
	// 5.2+, "unpack" on 5.1/LuaJIT.
	UnpackExpr() string
}

type baseStrategy struct {
	target Target
}

func (s baseStrategy) Target() Target { return s.target }

// lua51Strategy covers Lua 5.1 and LuaJIT, which share the same bitwise
// (helper-function), integer-divide (math.floor), and goto (no continue)
// rules; LuaJIT additionally supports goto/labels, handled by luaJITStrategy
// embedding this and overriding SupportsGoto.
type lua51Strategy struct{ baseStrategy }

func (lua51Strategy) BitwiseOp(op, lhs, rhs string) string {
	name := map[string]string{"&": "band", "|": "bor", "~": "bxor", "<<": "lshift", ">>": "rshift"}[op]
	return "__bit_" + name + "(" + lhs + ", " + rhs + ")"
}
func (lua51Strategy) BitwiseNot(operand string) string { return "__bit_bnot(" + operand + ")" }
func (lua51Strategy) IntDivide(lhs, rhs string) string {
	return "math.floor((" + lhs + ") / (" + rhs + "))"
}
func (lua51Strategy) SupportsNativeContinue() bool { return false }
func (lua51Strategy) SupportsGoto() bool           { return false }
func (lua51Strategy) GlobalPrefix() string         { return "" }
func (lua51Strategy) UnpackExpr() string           { return "unpack" }
func (lua51Strategy) Preamble(needsBitwise bool) string {
	if needsBitwise {
		return bitwiseHelperPreamble
	}
	return ""
}

// luaJITStrategy is identical to 5.1 except it supports goto/labels
// natively, so `continue` lowers to a `goto __continue` with an
// end-of-loop label instead of being disallowed.
type luaJITStrategy struct{ lua51Strategy }

func (luaJITStrategy) SupportsGoto() bool { return true }

// lua52Strategy covers 5.2: bit32.* bitwise, math.floor divide, goto-based
// continue, no native integer divide operator yet.
type lua52Strategy struct{ baseStrategy }

func (lua52Strategy) BitwiseOp(op, lhs, rhs string) string {
	name := map[string]string{"&": "band", "|": "bor", "~": "bxor", "<<": "lshift", ">>": "rshift"}[op]
	return "bit32." + name + "(" + lhs + ", " + rhs + ")"
}
func (lua52Strategy) BitwiseNot(operand string) string { return "bit32.bnot(" + operand + ")" }
func (lua52Strategy) IntDivide(lhs, rhs string) string {
	return "math.floor((" + lhs + ") / (" + rhs + "))"
}
func (lua52Strategy) SupportsNativeContinue() bool { return false }
func (lua52Strategy) SupportsGoto() bool           { return true }
func (lua52Strategy) GlobalPrefix() string         { return "" }
func (lua52Strategy) UnpackExpr() string           { return "table.unpack" }
func (lua52Strategy) Preamble(bool) string         { return "" }

// nativeStrategy covers 5.3 and 5.4: native bitwise operators and `//`
// integer divide, goto-based continue (5.5 adds a real `continue`
// keyword, handled by lua55Strategy).
type nativeStrategy struct{ baseStrategy }

func (nativeStrategy) BitwiseOp(op, lhs, rhs string) string {
	return "(" + lhs + " " + op + " " + rhs + ")"
}
func (nativeStrategy) BitwiseNot(operand string) string { return "(~" + operand + ")" }
func (nativeStrategy) IntDivide(lhs, rhs string) string { return "(" + lhs + " // " + rhs + ")" }
func (nativeStrategy) SupportsNativeContinue() bool     { return false }
func (nativeStrategy) SupportsGoto() bool               { return true }
func (nativeStrategy) GlobalPrefix() string             { return "" }
func (nativeStrategy) UnpackExpr() string               { return "table.unpack" }
func (nativeStrategy) Preamble(bool) string             { return "" }

// lua55Strategy adds the `global` declaration keyword and a native
// `continue` statement on top of nativeStrategy's bitwise/divide rules.
type lua55Strategy struct{ nativeStrategy }

func (lua55Strategy) SupportsNativeContinue() bool { return true }
func (lua55Strategy) GlobalPrefix() string         { return "global " }

// NewStrategy returns the [Strategy] implementation for t.
func NewStrategy(t Target) Strategy {
	switch t {
	case Lua51:
		return lua51Strategy{baseStrategy{t}}
	case LuaJIT:
		return luaJITStrategy{lua51Strategy{baseStrategy{t}}}
	case Lua52:
		return lua52Strategy{baseStrategy{t}}
	case Lua53, Lua54:
		return nativeStrategy{baseStrategy{t}}
	case Lua55:
		return lua55Strategy{nativeStrategy{baseStrategy{t}}}
	default:
		return nativeStrategy{baseStrategy{Lua54}}
	}
}
