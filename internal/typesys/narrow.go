// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package typesys

import "luanext.dev/compiler/internal/intern"

// Guard describes a narrowing condition extracted from a branch's test
// expression, per spec.md §4.4.4. [Guard.Apply] gives the subject's type
// where the guard held, or with negate set, where it failed. The checker's
// inference phase builds only GuardTruthy and GuardNotNil guards, from
// if/elseif conditions, and narrows only the branch where the guard held;
// ternary and match conditions and else branches are not narrowed.
type Guard struct {
	// Subject is the StringId of the local being narrowed; the zero value
	// means the guard does not narrow a simple identifier (e.g. it tests a
	// member access) and callers should skip narrowing.
	Subject intern.StringId
	Kind    GuardKind
	// Primitive is set for GuardTypeofEquals.
	Primitive Kind
	// ClassName is set for GuardInstanceof.
	ClassName intern.StringId
	// Predicate is set for GuardUserPredicate: the asserted type from a
	// callee's `x is T` return annotation.
	Predicate *Type
}

// GuardKind enumerates the narrowing shapes spec.md §4.4.4 lists.
type GuardKind int

const (
	GuardTruthy GuardKind = iota
	GuardNotNil
	GuardTypeofEquals
	GuardInstanceof
	GuardUserPredicate
)

// Apply returns the narrowed type of t within the branch where g held,
// and negate returns the narrowed type within the branch where g did not
// hold (used for the else-branch / failed-guard case).
func (g Guard) Apply(t *Type, negate bool) *Type {
	switch g.Kind {
	case GuardTruthy, GuardNotNil:
		if !negate {
			return removeFalsy(t)
		}
		return keepFalsy(t)
	case GuardTypeofEquals:
		if !negate {
			return narrowToPrimitive(t, g.Primitive)
		}
		return removeKind(t, g.Primitive)
	case GuardInstanceof:
		if !negate {
			return Named(g.ClassName)
		}
		return t
	case GuardUserPredicate:
		if !negate {
			return g.Predicate
		}
		return t
	default:
		return t
	}
}

// removeFalsy strips nil and the literal `false` from a union, per
// spec.md §4.4.4's `x ~= nil` / truthiness guard.
func removeFalsy(t *Type) *Type {
	if t.Kind != KindUnion {
		if t.Kind == KindNil || isFalseLiteral(t) {
			return Never
		}
		return t
	}
	var rest []*Type
	for _, m := range t.Members {
		if m.Kind == KindNil || isFalseLiteral(m) {
			continue
		}
		rest = append(rest, m)
	}
	if len(rest) == 0 {
		return Never
	}
	return Union(rest...)
}

// keepFalsy returns the falsy-only remainder of t (nil and/or `false`), for
// an else-branch after a truthiness guard failed.
func keepFalsy(t *Type) *Type {
	if t.Kind != KindUnion {
		if t.Kind == KindNil || isFalseLiteral(t) {
			return t
		}
		return Nil
	}
	var rest []*Type
	for _, m := range t.Members {
		if m.Kind == KindNil || isFalseLiteral(m) {
			rest = append(rest, m)
		}
	}
	if len(rest) == 0 {
		return Nil
	}
	return Union(rest...)
}

func isFalseLiteral(t *Type) bool {
	return t.Kind == KindLiteral && t.Base == KindBoolean && !t.Boolean
}

func narrowToPrimitive(t *Type, k Kind) *Type {
	if t.Kind != KindUnion {
		if t.Kind == k || (t.Kind == KindLiteral && t.Base == k) {
			return t
		}
		return Never
	}
	var rest []*Type
	for _, m := range t.Members {
		if m.Kind == k || (m.Kind == KindLiteral && m.Base == k) {
			rest = append(rest, m)
		}
	}
	if len(rest) == 0 {
		return Never
	}
	return Union(rest...)
}

func removeKind(t *Type, k Kind) *Type {
	if t.Kind != KindUnion {
		if t.Kind == k {
			return Never
		}
		return t
	}
	var rest []*Type
	for _, m := range t.Members {
		if m.Kind == k {
			continue
		}
		rest = append(rest, m)
	}
	if len(rest) == 0 {
		return Never
	}
	return Union(rest...)
}
