// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package typesys

import (
	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lnast"
)

// ClassInfo is the subset of a class declaration's structural shape that
// inference needs to resolve member and method access, including the
// getter/setter fallback rule of spec.md §4.4.3 (`get_X` ↔ `X`, `set_X` ↔
// `X`).
type ClassInfo struct {
	Name       intern.StringId
	Super      *ClassInfo
	Members    map[intern.StringId]Property
	Methods    map[intern.StringId]*Type
	Getters    map[intern.StringId]*Type
	Setters    map[intern.StringId]*Type
	Statics    map[intern.StringId]*Type
	IsAbstract bool
}

// ClassName returns the class's interned name. The optimizer reads the
// analysis slot through this method (as a local interface) rather than
// importing this package's struct shape.
func (c *ClassInfo) ClassName() intern.StringId { return c.Name }

// Member resolves name against c and its superclass chain, applying the
// getter/setter fallback: a bare `X` access falls back to `get_X`'s return
// type if no field or method `X` exists.
func (c *ClassInfo) Member(name intern.StringId, resolveName func(intern.StringId) string) (*Type, bool) {
	for cur := c; cur != nil; cur = cur.Super {
		if p, ok := cur.Members[name]; ok {
			return p.Type, true
		}
		if t, ok := cur.Methods[name]; ok {
			return t, true
		}
		if t, ok := cur.Getters[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// InferCtx bundles the lookups inference needs beyond pure syntax: resolving
// an identifier's declared type, a callee's signature, a receiver's
// ClassInfo, and named-type references.
type InferCtx struct {
	Resolver
	// LookupVar returns the declared/narrowed type of a local, parameter, or
	// global identifier.
	LookupVar func(intern.StringId) (*Type, bool)
	// LookupClass returns the ClassInfo for a named type, if it names a
	// class.
	LookupClass func(intern.StringId) (*ClassInfo, bool)
}

// Infer computes the static type of e, per the expression-kind-directed
// rules of spec.md §4.4.3. It never fails: unresolvable expressions infer as
// [Unknown] so that later phases can proceed best-effort (spec.md §7).
func Infer(e lnast.Expression, ctx *InferCtx) *Type {
	switch n := e.(type) {
	case *lnast.NilLiteral:
		return Nil
	case *lnast.BoolLiteral:
		return &Type{Kind: KindLiteral, Base: KindBoolean, Boolean: n.Value}
	case *lnast.NumberLiteral:
		if n.Integer {
			return &Type{Kind: KindLiteral, Base: KindInteger, Num: n.Text}
		}
		return &Type{Kind: KindLiteral, Base: KindNumber, Num: n.Text}
	case *lnast.StringLiteral:
		return &Type{Kind: KindLiteral, Base: KindString, Str: n.Value}
	case *lnast.IdentExpr:
		if ctx.LookupVar != nil {
			if t, ok := ctx.LookupVar(n.Name); ok {
				return t
			}
		}
		return Unknown
	case *lnast.SelfExpr, *lnast.SuperExpr:
		return Unknown
	case *lnast.BinaryExpr:
		return inferBinary(n, ctx)
	case *lnast.UnaryExpr:
		return inferUnary(n, ctx)
	case *lnast.AssignExpr:
		return Infer(n.Value, ctx)
	case *lnast.MemberExpr:
		return inferMember(n, ctx)
	case *lnast.IndexExpr:
		return inferIndex(n, ctx)
	case *lnast.CallExpr:
		return inferCallee(Infer(n.Callee, ctx))
	case *lnast.MethodCallExpr:
		return inferMethodCall(n, ctx)
	case *lnast.NewExpr:
		return Infer(n.Callee, ctx)
	case *lnast.ArrayLiteral:
		return inferArray(n, ctx)
	case *lnast.ObjectLiteral:
		return inferObject(n, ctx)
	case *lnast.ArrowExpr:
		return inferArrow(n, ctx)
	case *lnast.FunctionExpr:
		return inferFunction(n, ctx)
	case *lnast.TernaryExpr:
		return Union(Infer(n.Then, ctx), Infer(n.Else, ctx))
	case *lnast.PipeExpr:
		return inferCallee(Infer(n.Right, ctx))
	case *lnast.MatchExpr:
		return inferMatch(n, ctx)
	case *lnast.TemplateLiteralExpr:
		return String
	case *lnast.TypeAssertionExpr:
		return Unknown
	case *lnast.TryExpr:
		return Union(Infer(n.Try, ctx), Infer(n.Catch, ctx))
	case *lnast.ErrorChainExpr:
		t := Infer(n.Operand, ctx)
		if n.Assert {
			stripped, _ := StripNullable(t)
			return stripped
		}
		return t
	case *lnast.ParenExpr:
		return Infer(n.Inner, ctx)
	default:
		return Unknown
	}
}

func inferBinary(n *lnast.BinaryExpr, ctx *InferCtx) *Type {
	switch n.Op {
	case lnast.BinAnd, lnast.BinOr:
		return Union(Infer(n.Left, ctx), Infer(n.Right, ctx))
	case lnast.BinConcat:
		return String
	case lnast.BinEqual, lnast.BinNotEqual, lnast.BinLess, lnast.BinLessEqual, lnast.BinGreater, lnast.BinGreaterEqual:
		return Boolean
	case lnast.BinNullishCoalesce:
		left, _ := StripNullable(Infer(n.Left, ctx))
		return Union(left, Infer(n.Right, ctx))
	case lnast.BinBitAnd, lnast.BinBitOr, lnast.BinBitXor, lnast.BinLShift, lnast.BinRShift, lnast.BinIntDiv:
		return Integer
	default:
		l, r := Infer(n.Left, ctx), Infer(n.Right, ctx)
		if l.Kind == KindInteger && r.Kind == KindInteger {
			return Integer
		}
		return Number
	}
}

func inferUnary(n *lnast.UnaryExpr, ctx *InferCtx) *Type {
	switch n.Op {
	case lnast.UnNot:
		return Boolean
	case lnast.UnLen:
		return Integer
	case lnast.UnBitNot:
		return Integer
	default: // UnNeg preserves the operand type
		return Infer(n.Operand, ctx)
	}
}

func inferMember(n *lnast.MemberExpr, ctx *InferCtx) *Type {
	objType := Infer(n.Object, ctx)
	if ci, ok := classInfoOf(objType, ctx); ok {
		if t, ok := ci.Member(n.Property, nil); ok {
			if n.Optional {
				return Nullable(t)
			}
			return t
		}
	}
	if objType.Kind == KindObject {
		for _, p := range objType.Props {
			if !p.IsIndex && p.Name == n.Property {
				if n.Optional {
					return Nullable(p.Type)
				}
				return p.Type
			}
		}
	}
	return Unknown
}

func inferIndex(n *lnast.IndexExpr, ctx *InferCtx) *Type {
	objType := Infer(n.Object, ctx)
	var result *Type
	switch objType.Kind {
	case KindArray:
		result = objType.Elem
	case KindTuple:
		result = Unknown
	case KindObject:
		result = evaluateIndexedAccess(objType, Infer(n.Index, ctx))
	default:
		result = Unknown
	}
	if n.Optional {
		return Nullable(result)
	}
	return result
}

func inferCallee(calleeType *Type) *Type {
	if calleeType.Kind == KindFunction && calleeType.Return != nil {
		return calleeType.Return
	}
	return Unknown
}

func inferMethodCall(n *lnast.MethodCallExpr, ctx *InferCtx) *Type {
	objType := Infer(n.Object, ctx)
	if ci, ok := classInfoOf(objType, ctx); ok {
		if t, ok := ci.Member(n.Method, nil); ok {
			result := inferCallee(t)
			if n.Optional {
				return Nullable(result)
			}
			return result
		}
	}
	return Unknown
}

func classInfoOf(t *Type, ctx *InferCtx) (*ClassInfo, bool) {
	if t.Kind != KindNamed || ctx.LookupClass == nil {
		return nil, false
	}
	return ctx.LookupClass(t.Name)
}

func inferArray(n *lnast.ArrayLiteral, ctx *InferCtx) *Type {
	if len(n.Elements) == 0 {
		return Array(Unknown)
	}
	members := make([]*Type, 0, len(n.Elements))
	for _, el := range n.Elements {
		members = append(members, Infer(el, ctx))
	}
	return Array(Union(members...))
}

func inferObject(n *lnast.ObjectLiteral, ctx *InferCtx) *Type {
	props := make([]Property, 0, len(n.Properties))
	for _, p := range n.Properties {
		if p.Spread {
			continue
		}
		props = append(props, Property{Name: p.Key, Type: Infer(p.Value, ctx)})
	}
	return &Type{Kind: KindObject, Props: props}
}

func inferArrow(n *lnast.ArrowExpr, ctx *InferCtx) *Type {
	params := paramsOf(n.Params)
	var ret *Type
	if n.ExprBody != nil {
		ret = Infer(n.ExprBody, ctx)
	} else {
		ret = Void
	}
	return &Type{Kind: KindFunction, Params: params, Return: ret}
}

func inferFunction(n *lnast.FunctionExpr, ctx *InferCtx) *Type {
	return &Type{Kind: KindFunction, Params: paramsOf(n.Params), Return: Void}
}

func paramsOf(ps []lnast.Param) []Param {
	out := make([]Param, len(ps))
	for i, p := range ps {
		out[i] = Param{Rest: p.Rest, Default: p.Default != nil}
	}
	return out
}

func inferMatch(n *lnast.MatchExpr, ctx *InferCtx) *Type {
	members := make([]*Type, 0, len(n.Arms))
	for _, arm := range n.Arms {
		members = append(members, Infer(arm.Body, ctx))
	}
	return Union(members...)
}
