// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package typesys

import "luanext.dev/compiler/internal/lnast"

// FromAST converts a parsed [lnast.Type] annotation into a resolved [Type].
// Named references and anything that needs cross-module or
// cross-declaration context are converted structurally here and evaluated
// later via [Evaluate] once an [Env] is available. A type query (`typeof
// expr`) is resolved at once through the inferExpr callback, or becomes
// [Unknown] when inferExpr is nil.
func FromAST(t lnast.Type, inferExpr func(lnast.Expression) *Type) *Type {
	if t == nil {
		return Unknown
	}
	switch n := t.(type) {
	case *lnast.PrimitiveType:
		return &Type{Kind: Kind(n.Kind)}
	case *lnast.LiteralType:
		return &Type{Kind: KindLiteral, Base: Kind(n.Kind), Str: n.String, Num: n.Number, Boolean: n.Boolean}
	case *lnast.UnionType:
		members := make([]*Type, len(n.Members))
		for i, m := range n.Members {
			members[i] = FromAST(m, inferExpr)
		}
		return Union(members...)
	case *lnast.IntersectionType:
		members := make([]*Type, len(n.Members))
		for i, m := range n.Members {
			members[i] = FromAST(m, inferExpr)
		}
		return Intersection(members...)
	case *lnast.NullableType:
		return Nullable(FromAST(n.Inner, inferExpr))
	case *lnast.ArrayType:
		return Array(FromAST(n.Element, inferExpr))
	case *lnast.TupleType:
		elems := make([]*Type, len(n.Elements))
		for i, e := range n.Elements {
			elems[i] = FromAST(e, inferExpr)
		}
		return Tuple(elems...)
	case *lnast.ObjectType:
		props := make([]Property, len(n.Members))
		for i, m := range n.Members {
			switch m.Kind {
			case lnast.ObjectIndexSignature:
				props[i] = Property{IsIndex: true, IndexKey: m.IndexKeyName, IndexKeyTyp: FromAST(m.IndexKeyType, inferExpr), Type: FromAST(m.IndexValue, inferExpr)}
			case lnast.ObjectMethod:
				props[i] = Property{Name: m.Name, IsMethod: true, Optional: m.Optional, Readonly: m.Readonly,
					Type: &Type{Kind: KindFunction, Params: fromASTParams(m.Params, inferExpr), Return: FromAST(m.ReturnType, inferExpr)}}
			default:
				props[i] = Property{Name: m.Name, Optional: m.Optional, Readonly: m.Readonly, Type: FromAST(m.Annotation, inferExpr)}
			}
		}
		return &Type{Kind: KindObject, Props: props}
	case *lnast.FunctionType:
		return &Type{
			Kind:       KindFunction,
			TypeParams: fromASTTypeParams(n.TypeParams, inferExpr),
			Params:     fromASTParams(n.Params, inferExpr),
			Return:     FromAST(n.Return, inferExpr),
			Throws:     FromAST(n.Throws, inferExpr),
		}
	case *lnast.NamedType:
		args := make([]*Type, len(n.Args))
		for i, a := range n.Args {
			args[i] = FromAST(a, inferExpr)
		}
		return Named(n.Name, args...)
	case *lnast.TypeQueryType:
		if inferExpr != nil {
			return inferExpr(n.Expr)
		}
		return Unknown
	case *lnast.KeyofType:
		return &Type{Kind: KindKeyof, Object: FromAST(n.Operand, inferExpr)}
	case *lnast.IndexedAccessType:
		return &Type{Kind: KindIndexedAccess, Object: FromAST(n.Object, inferExpr), Index: FromAST(n.Index, inferExpr)}
	case *lnast.InferVar:
		return &Type{Kind: KindInferVar, InferName: n.Name}
	case *lnast.ConditionalType:
		return &Type{Kind: KindConditional, Check: FromAST(n.Check, inferExpr), Extends: FromAST(n.Extends, inferExpr), True: FromAST(n.True, inferExpr), False: FromAST(n.False, inferExpr)}
	case *lnast.MappedType:
		return &Type{Kind: KindMapped, KeyName: n.KeyName, Constraint: FromAST(n.Constraint, inferExpr), Value: FromAST(n.Value, inferExpr), ReadonlyModifier: n.ReadonlyModifier, OptionalModifier: n.OptionalModifier}
	case *lnast.TemplateLiteralType:
		types := make([]*Type, len(n.Types))
		for i, tt := range n.Types {
			types[i] = FromAST(tt, inferExpr)
		}
		return &Type{Kind: KindTemplateLiteral, Quasis: n.Quasis, Types: types}
	case *lnast.ParenType:
		return FromAST(n.Inner, inferExpr)
	case *lnast.PredicateType:
		return &Type{Kind: KindPredicate, ParamName: n.ParamName, Asserted: FromAST(n.Asserted, inferExpr)}
	case *lnast.VariadicType:
		return &Type{Kind: KindVariadic, Elem: FromAST(n.Element, inferExpr)}
	default:
		return Unknown
	}
}

func fromASTParams(ps []lnast.Param, inferExpr func(lnast.Expression) *Type) []Param {
	out := make([]Param, len(ps))
	for i, p := range ps {
		out[i] = Param{
			Type:     FromAST(p.Annotation, inferExpr),
			Rest:     p.Rest,
			Default:  p.Default != nil,
			Optional: p.Default != nil,
		}
	}
	return out
}

func fromASTTypeParams(ps []lnast.TypeParam, inferExpr func(lnast.Expression) *Type) []TypeParam {
	out := make([]TypeParam, len(ps))
	for i, p := range ps {
		out[i] = TypeParam{Name: p.Name, Constraint: FromAST(p.Constraint, inferExpr), Default: FromAST(p.Default, inferExpr)}
	}
	return out
}
