// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package typesys

import "luanext.dev/compiler/internal/intern"

// Env resolves named types and holds the substitution used while evaluating
// conditional, mapped, keyof, and indexed-access types, per spec.md §4.4.5.
type Env struct {
	Resolver
	// Subst maps a type parameter name to its concrete substitution during
	// generic instantiation or conditional-type inference.
	Subst map[intern.StringId]*Type
}

// WithSubst returns a copy of e with name bound to t, leaving e unmodified.
func (e *Env) WithSubst(name intern.StringId, t *Type) *Env {
	n := &Env{Resolver: e.Resolver, Subst: make(map[intern.StringId]*Type, len(e.Subst)+1)}
	for k, v := range e.Subst {
		n.Subst[k] = v
	}
	n.Subst[name] = t
	return n
}

// Evaluate reduces t to its normal form: named type-parameter references are
// substituted, keyof/indexed-access/conditional/mapped/template-literal
// types are evaluated against env. Unions, intersections and arrays are
// rebuilt from their evaluated members; every other kind (objects,
// functions, tuples, named references with type arguments, ...) is returned
// unchanged, and type parameters nested inside it are not substituted.
func Evaluate(t *Type, env *Env) *Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case KindNamed:
		if len(t.Args) == 0 {
			if sub, ok := env.Subst[t.Name]; ok {
				return sub
			}
		}
		return t
	case KindKeyof:
		return evaluateKeyof(Evaluate(t.Object, env))
	case KindIndexedAccess:
		return evaluateIndexedAccess(Evaluate(t.Object, env), Evaluate(t.Index, env))
	case KindConditional:
		return evaluateConditional(t, env)
	case KindMapped:
		return evaluateMapped(t, env)
	case KindTemplateLiteral:
		return evaluateTemplateLiteral(t, env)
	case KindUnion:
		members := make([]*Type, len(t.Members))
		for i, m := range t.Members {
			members[i] = Evaluate(m, env)
		}
		return Union(members...)
	case KindIntersection:
		members := make([]*Type, len(t.Members))
		for i, m := range t.Members {
			members[i] = Evaluate(m, env)
		}
		return Intersection(members...)
	case KindArray:
		return Array(Evaluate(t.Elem, env))
	default:
		return t
	}
}

// evaluateKeyof returns a union of string-literal types naming t's object
// properties, per spec.md §4.4.5.
func evaluateKeyof(t *Type) *Type {
	if t.Kind != KindObject {
		return Never
	}
	var keys []*Type
	for _, p := range t.Props {
		if p.IsIndex {
			continue
		}
		keys = append(keys, &Type{Kind: KindLiteral, Base: KindString, Str: p.Name.String()})
	}
	if len(keys) == 0 {
		return Never
	}
	return Union(keys...)
}

// evaluateIndexedAccess returns the property type of object at the given
// key type, per spec.md §3.3's `T[K]`.
func evaluateIndexedAccess(object, index *Type) *Type {
	if object.Kind != KindObject {
		return Unknown
	}
	if index.Kind == KindUnion {
		var parts []*Type
		for _, m := range index.Members {
			parts = append(parts, evaluateIndexedAccess(object, m))
		}
		return Union(parts...)
	}
	if index.Kind == KindLiteral && index.Base == KindString {
		for _, p := range object.Props {
			if p.IsIndex {
				continue
			}
			if p.Name.String() == index.Str {
				return p.Type
			}
		}
	}
	for _, p := range object.Props {
		if p.IsIndex {
			return p.Type
		}
	}
	return Unknown
}

// evaluateConditional evaluates `Check extends Extends ? True : False`,
// distributing over a union Check when Check is a bare type parameter
// reference, per spec.md §4.4.5 / §4.5.1's distribution rule. `infer`
// variables appearing in Extends are bound into a child Env for True.
func evaluateConditional(t *Type, env *Env) *Type {
	check := Evaluate(t.Check, env)
	if check.Kind == KindUnion && t.Check.Kind == KindNamed && len(t.Check.Args) == 0 {
		var parts []*Type
		for _, m := range check.Members {
			sub := env.WithSubst(t.Check.Name, m)
			parts = append(parts, evaluateConditionalOnce(t, m, sub))
		}
		return Union(parts...)
	}
	return evaluateConditionalOnce(t, check, env)
}

func evaluateConditionalOnce(t *Type, check *Type, env *Env) *Type {
	bindings := make(map[intern.StringId]*Type)
	if matchInfer(check, t.Extends, bindings) {
		sub := env
		for name, bound := range bindings {
			sub = sub.WithSubst(name, bound)
		}
		return Evaluate(t.True, sub)
	}
	return Evaluate(t.False, env)
}

// matchInfer structurally matches check against a pattern type that may
// contain [KindInferVar] placeholders, recording each match into bindings.
// It reports whether check is assignable to the pattern's non-infer shape.
func matchInfer(check, pattern *Type, bindings map[intern.StringId]*Type) bool {
	if pattern.Kind == KindInferVar {
		bindings[pattern.InferName] = check
		return true
	}
	if pattern.Kind == KindArray && check.Kind == KindArray {
		return matchInfer(check.Elem, pattern.Elem, bindings)
	}
	if pattern.Kind == KindFunction && check.Kind == KindFunction {
		ok := true
		for i := range pattern.Params {
			if i >= len(check.Params) {
				break
			}
			ok = ok && matchInfer(check.Params[i].Type, pattern.Params[i].Type, bindings)
		}
		if pattern.Return != nil && check.Return != nil {
			ok = ok && matchInfer(check.Return, pattern.Return, bindings)
		}
		return ok
	}
	return Assignable(check, pattern, nil)
}

// evaluateMapped applies `{[K in keyof T]±?: V}` to its constraint, per
// spec.md §4.4.5 and §4.5.1.
func evaluateMapped(t *Type, env *Env) *Type {
	constraint := Evaluate(t.Constraint, env)
	keys := evaluateKeyof(constraint)
	var props []Property
	addProp := func(key *Type) {
		sub := env.WithSubst(t.KeyName, key)
		valType := Evaluate(t.Value, sub)
		name := intern.StringId(0)
		if constraint.Kind == KindObject {
			for _, p := range constraint.Props {
				if !p.IsIndex && p.Name.String() == key.Str {
					name = p.Name
					break
				}
			}
		}
		optional := false
		if constraint.Kind == KindObject {
			for _, p := range constraint.Props {
				if !p.IsIndex && p.Name.String() == key.Str {
					optional = p.Optional
				}
			}
		}
		switch t.OptionalModifier {
		case 1:
			optional = true
		case -1:
			optional = false
		}
		readonly := false
		switch t.ReadonlyModifier {
		case 1:
			readonly = true
		case -1:
			readonly = false
		}
		props = append(props, Property{Name: name, Type: valType, Optional: optional, Readonly: readonly})
	}
	if keys.Kind == KindUnion {
		for _, k := range keys.Members {
			addProp(k)
		}
	} else if keys.Kind == KindLiteral {
		addProp(keys)
	}
	return &Type{Kind: KindObject, Props: props}
}

// evaluateTemplateLiteral concatenates the literal quasis and, where every
// interpolated type resolves to a literal, folds the whole type down to a
// single string literal; otherwise it leaves the template-literal type
// unevaluated (a union over possible literal strings is out of scope).
func evaluateTemplateLiteral(t *Type, env *Env) *Type {
	allLiteral := true
	resolved := make([]*Type, len(t.Types))
	for i, sub := range t.Types {
		r := Evaluate(sub, env)
		resolved[i] = r
		if r.Kind != KindLiteral {
			allLiteral = false
		}
	}
	if !allLiteral {
		return &Type{Kind: KindTemplateLiteral, Quasis: t.Quasis, Types: resolved}
	}
	var s string
	for i, q := range t.Quasis {
		s += q
		if i < len(resolved) {
			s += literalText(resolved[i])
		}
	}
	return &Type{Kind: KindLiteral, Base: KindString, Str: s}
}

func literalText(t *Type) string {
	switch t.Base {
	case KindString:
		return t.Str
	case KindBoolean:
		if t.Boolean {
			return "true"
		}
		return "false"
	default:
		return t.Num
	}
}
