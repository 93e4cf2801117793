// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnast

// Primitive enumerates the built-in primitive type kinds.
type Primitive int

const (
	PrimNil Primitive = iota
	PrimBoolean
	PrimNumber
	PrimInteger
	PrimString
	PrimUnknown
	PrimNever
	PrimVoid
	PrimTable
	PrimCoroutine
	PrimThread
)

// PrimitiveType is a reference to one of the built-in primitive kinds.
type PrimitiveType struct {
	typeBase
	Kind Primitive
}

// LiteralType is a type narrowed to a single literal value, e.g. `"ok"` or
// `42` used in type position.
type LiteralType struct {
	typeBase
	// exactly one of these is set, discriminated by Kind.
	Kind    Primitive // PrimString, PrimNumber, PrimInteger, or PrimBoolean
	String  string
	Number  string
	Boolean bool
}

// UnionType is `A | B | ...`.
type UnionType struct {
	typeBase
	Members []Type
}

// IntersectionType is `A & B & ...`.
type IntersectionType struct {
	typeBase
	Members []Type
}

// NullableType is `T | nil` written as `T?`.
type NullableType struct {
	typeBase
	Inner Type
}

// ArrayType is `T[]`.
type ArrayType struct {
	typeBase
	Element Type
}

// TupleType is `[T1, T2, ...]`.
type TupleType struct {
	typeBase
	Elements []Type
}

// ObjectMemberKind distinguishes the shape of an [ObjectTypeMember].
type ObjectMemberKind int

const (
	ObjectProp ObjectMemberKind = iota
	ObjectMethod
	ObjectIndexSignature
)

// ObjectTypeMember is one property, method, or index signature of an
// [ObjectType].
type ObjectTypeMember struct {
	Kind ObjectMemberKind
	Name Name

	// Property / method:
	Optional   bool
	Readonly   bool
	Annotation Type
	Params     []Param
	ReturnType Type

	// Index signature (`[key: K]: V`):
	IndexKeyName Name
	IndexKeyType Type
	IndexValue   Type
}

// ObjectType is a structural `{ prop: T, method(): R, [k: K]: V }` type.
type ObjectType struct {
	typeBase
	Members []ObjectTypeMember
}

// FunctionType is `(params) => Return throw E`.
type FunctionType struct {
	typeBase
	TypeParams []TypeParam
	Params     []Param
	Return     Type
	Throws     Type
}

// NamedType references a declared type (class, interface, alias, enum, or
// generic parameter) by name, with optional type arguments.
type NamedType struct {
	typeBase
	Name Name
	Args []Type
}

// TypeQueryType is `typeof expr`.
type TypeQueryType struct {
	typeBase
	Expr Expression
}

// KeyofType is `keyof T`.
type KeyofType struct {
	typeBase
	Operand Type
}

// IndexedAccessType is `T[K]`.
type IndexedAccessType struct {
	typeBase
	Object Type
	Index  Type
}

// InferVar is an `infer Name` placeholder on the extends side of a
// [ConditionalType].
type InferVar struct {
	typeBase
	Name Name
}

// ConditionalType is `Check extends Extends ? True : False`. Distributes
// over unions when Check is a bare type parameter (resolved by the
// checker, not the parser).
type ConditionalType struct {
	typeBase
	Check   Type
	Extends Type
	True    Type
	False   Type
}

// MappedType is `{ [K in keyof T]+?: V }` with independent readonly/optional
// modifiers; zero means "unchanged", +1 means "add", -1 means "remove".
type MappedType struct {
	typeBase
	KeyName          Name
	Constraint       Type
	Value            Type
	ReadonlyModifier int
	OptionalModifier int
}

// TemplateLiteralType is a type-level template literal, e.g. “ `on${Capitalize<K>}` “.
type TemplateLiteralType struct {
	typeBase
	Quasis []string
	Types  []Type
}

// ParenType is `(T)`, preserved to disambiguate precedence (e.g. `(A | B)[]`).
type ParenType struct {
	typeBase
	Inner Type
}

// PredicateType is `x is T`, the return-type annotation of a user-defined
// type guard.
type PredicateType struct {
	typeBase
	ParamName Name
	Asserted  Type
}

// VariadicType is `...T`, used for a rest parameter's element type or a
// variadic tuple element.
type VariadicType struct {
	typeBase
	Element Type
}
