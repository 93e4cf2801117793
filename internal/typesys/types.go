// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

// Package typesys implements LuaNext's structural type system: resolved
// types, the assignability relation, expression-kind-directed inference, and
// narrowing, per spec.md §4.4. It operates over the AST types defined in
// [luanext.dev/compiler/internal/lnast] but represents *resolved* types as
// its own tree so that named references, conditional types, and mapped types
// can be evaluated against a type [Env] without re-walking the AST on every
// query.
package typesys

import (
	"fmt"
	"strings"

	"luanext.dev/compiler/internal/intern"
)

// Kind discriminates a resolved [Type].
type Kind int

const (
	KindNil Kind = iota
	KindBoolean
	KindNumber
	KindInteger
	KindString
	KindUnknown
	KindNever
	KindVoid
	KindTable
	KindCoroutine
	KindThread

	KindLiteral
	KindUnion
	KindIntersection
	KindArray
	KindTuple
	KindObject
	KindFunction
	KindNamed
	KindKeyof
	KindIndexedAccess
	KindConditional
	KindMapped
	KindTemplateLiteral
	KindPredicate
	KindVariadic
	KindInferVar
)

// Type is a resolved structural type. The zero value is not a valid Type;
// use the constructors below.
type Type struct {
	Kind Kind

	// Literal (Kind == KindLiteral): Base holds the underlying primitive
	// Kind (KindString, KindNumber, KindInteger, or KindBoolean).
	Base    Kind
	Str     string
	Num     string
	Boolean bool

	// Union / Intersection
	Members []*Type

	// Array
	Elem *Type

	// Tuple
	Elements []*Type

	// Object
	Props []Property

	// Function
	TypeParams []TypeParam
	Params     []Param
	Return     *Type
	Throws     *Type

	// Named reference
	Name intern.StringId
	Args []*Type

	// Keyof / IndexedAccess
	Object *Type
	Index  *Type

	// Conditional
	Check   *Type
	Extends *Type
	True    *Type
	False   *Type

	// Mapped
	KeyName          intern.StringId
	Constraint       *Type
	Value            *Type
	ReadonlyModifier int
	OptionalModifier int

	// TemplateLiteral
	Quasis []string
	Types  []*Type

	// Predicate
	ParamName intern.StringId
	Asserted  *Type

	// InferVar
	InferName intern.StringId
}

// Property is one structural member of an object type.
type Property struct {
	Name     intern.StringId
	Type     *Type
	Optional bool
	Readonly bool
	IsMethod bool
	// IndexKey/IndexKeyTyp are set for an index signature member
	// (Name == 0); Type is the index's value type.
	IsIndex     bool
	IndexKey    intern.StringId
	IndexKeyTyp *Type
}

// Param is one function parameter.
type Param struct {
	Name     intern.StringId
	Type     *Type
	Optional bool
	Rest     bool
	Default  bool
}

// TypeParam is one generic type parameter, with an optional constraint and
// default.
type TypeParam struct {
	Name       intern.StringId
	Constraint *Type
	Default    *Type
}

var (
	Nil       = &Type{Kind: KindNil}
	Boolean   = &Type{Kind: KindBoolean}
	Number    = &Type{Kind: KindNumber}
	Integer   = &Type{Kind: KindInteger}
	String    = &Type{Kind: KindString}
	Unknown   = &Type{Kind: KindUnknown}
	Never     = &Type{Kind: KindNever}
	Void      = &Type{Kind: KindVoid}
	Table     = &Type{Kind: KindTable}
	Coroutine = &Type{Kind: KindCoroutine}
	Thread    = &Type{Kind: KindThread}
)

// Nullable returns `t | nil`, flattening an existing union rather than
// nesting one.
func Nullable(t *Type) *Type {
	return Union(t, Nil)
}

// Union constructs a union type, flattening nested unions and deduplicating
// identical members by pointer identity (callers are expected to intern
// structurally-equal leaf types themselves, as the checker's type cache
// does).
func Union(members ...*Type) *Type {
	var flat []*Type
	seen := make(map[*Type]bool)
	var add func(*Type)
	add = func(t *Type) {
		if t.Kind == KindUnion {
			for _, m := range t.Members {
				add(m)
			}
			return
		}
		if t.Kind == KindNever {
			// never is the union identity; `T | never` is T.
			return
		}
		if seen[t] {
			return
		}
		seen[t] = true
		flat = append(flat, t)
	}
	for _, m := range members {
		add(m)
	}
	if len(flat) == 0 {
		return Never
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return &Type{Kind: KindUnion, Members: flat}
}

// Intersection constructs an intersection type, flattening nested ones.
func Intersection(members ...*Type) *Type {
	var flat []*Type
	var add func(*Type)
	add = func(t *Type) {
		if t.Kind == KindIntersection {
			for _, m := range t.Members {
				add(m)
			}
			return
		}
		flat = append(flat, t)
	}
	for _, m := range members {
		add(m)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return &Type{Kind: KindIntersection, Members: flat}
}

// Array returns `elem[]`.
func Array(elem *Type) *Type { return &Type{Kind: KindArray, Elem: elem} }

// Tuple returns `[t1, t2, ...]`.
func Tuple(elems ...*Type) *Type { return &Type{Kind: KindTuple, Elements: elems} }

// Named returns a reference to a declared type by name with type arguments.
func Named(name intern.StringId, args ...*Type) *Type {
	return &Type{Kind: KindNamed, Name: name, Args: args}
}

// StripNullable returns the non-nil members of t if t is a union containing
// nil, and reports whether anything was removed.
func StripNullable(t *Type) (*Type, bool) {
	if t.Kind != KindUnion {
		return t, false
	}
	var rest []*Type
	removed := false
	for _, m := range t.Members {
		if m.Kind == KindNil {
			removed = true
			continue
		}
		rest = append(rest, m)
	}
	if !removed {
		return t, false
	}
	if len(rest) == 0 {
		return Never, true
	}
	return Union(rest...), true
}

// Resolver looks up a declared type's environment-level definition by name,
// used when resolving [KindNamed] references for assignability and
// inference. Implemented by the checker's per-module type environment; kept
// as an interface here to avoid an import cycle between typesys and checker.
type Resolver interface {
	// Lookup returns the type that Name resolves to (an alias body, the
	// structural type of a class/interface, or nil for an unresolved
	// reference).
	Lookup(name intern.StringId) *Type
	// ResolveName returns the source text of an interned name, for
	// diagnostics and String().
	ResolveName(id intern.StringId) string
}

// String renders t for diagnostics and debug output. res may be nil, in
// which case named references print their raw StringId.
func (t *Type) String() string {
	return t.str(nil)
}

// StringWith is like String but resolves identifier names via res.
func (t *Type) StringWith(res Resolver) string {
	return t.str(res)
}

func (t *Type) str(res Resolver) string {
	if t == nil {
		return "<nil>"
	}
	name := func(id intern.StringId) string {
		if res != nil {
			return res.ResolveName(id)
		}
		return id.String()
	}
	switch t.Kind {
	case KindNil:
		return "nil"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	case KindUnknown:
		return "unknown"
	case KindNever:
		return "never"
	case KindVoid:
		return "void"
	case KindTable:
		return "table"
	case KindCoroutine:
		return "coroutine"
	case KindThread:
		return "thread"
	case KindLiteral:
		switch t.Base {
		case KindString:
			return fmt.Sprintf("%q", t.Str)
		case KindBoolean:
			if t.Boolean {
				return "true"
			}
			return "false"
		default:
			return t.Num
		}
	case KindUnion:
		parts := make([]string, len(t.Members))
		for i, m := range t.Members {
			parts[i] = m.str(res)
		}
		return strings.Join(parts, " | ")
	case KindIntersection:
		parts := make([]string, len(t.Members))
		for i, m := range t.Members {
			parts[i] = m.str(res)
		}
		return strings.Join(parts, " & ")
	case KindArray:
		return t.Elem.str(res) + "[]"
	case KindTuple:
		parts := make([]string, len(t.Elements))
		for i, m := range t.Elements {
			parts[i] = m.str(res)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		var b strings.Builder
		b.WriteString("{ ")
		for i, p := range t.Props {
			if i > 0 {
				b.WriteString(", ")
			}
			if p.IsIndex {
				fmt.Fprintf(&b, "[%s]: %s", name(p.IndexKey), p.IndexKeyTyp.str(res))
				continue
			}
			b.WriteString(name(p.Name))
			if p.Optional {
				b.WriteString("?")
			}
			b.WriteString(": ")
			b.WriteString(p.Type.str(res))
		}
		b.WriteString(" }")
		return b.String()
	case KindFunction:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = name(p.Name) + ": " + p.Type.str(res)
		}
		ret := "void"
		if t.Return != nil {
			ret = t.Return.str(res)
		}
		return "(" + strings.Join(parts, ", ") + ") => " + ret
	case KindNamed:
		s := name(t.Name)
		if len(t.Args) > 0 {
			parts := make([]string, len(t.Args))
			for i, a := range t.Args {
				parts[i] = a.str(res)
			}
			s += "<" + strings.Join(parts, ", ") + ">"
		}
		return s
	case KindKeyof:
		return "keyof " + t.Object.str(res)
	case KindIndexedAccess:
		return t.Object.str(res) + "[" + t.Index.str(res) + "]"
	case KindConditional:
		return t.Check.str(res) + " extends " + t.Extends.str(res) + " ? " + t.True.str(res) + " : " + t.False.str(res)
	case KindMapped:
		return "{ [" + name(t.KeyName) + " in keyof " + t.Constraint.str(res) + "]: " + t.Value.str(res) + " }"
	case KindTemplateLiteral:
		var b strings.Builder
		for i, q := range t.Quasis {
			b.WriteString(q)
			if i < len(t.Types) {
				b.WriteString("${")
				b.WriteString(t.Types[i].str(res))
				b.WriteString("}")
			}
		}
		return b.String()
	case KindPredicate:
		return name(t.ParamName) + " is " + t.Asserted.str(res)
	case KindVariadic:
		return "..." + t.Elem.str(res)
	case KindInferVar:
		return "infer " + name(t.InferName)
	default:
		return "?"
	}
}
