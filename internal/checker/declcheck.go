// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package checker

import (
	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/typesys"
)

// declarationCheckPhase implements spec.md §4.4.6 phase 2: alias cycle
// detection, enum consistency, interface member type resolution, and
// class-hierarchy construction.
func declarationCheckPhase(m *Module) {
	inferExpr := func(e lnast.Expression) *typesys.Type { return typesys.Unknown }

	for _, sym := range m.Symbols {
		if sym.Kind != SymAlias {
			continue
		}
		visiting := make(map[Name]bool)
		if aliasCycle(m, sym.Name, visiting) {
			decl := sym.Decl.(*lnast.TypeAliasDecl)
			m.Sink.Reportf(diag.E0002, decl.NodeSpan(), "type alias %q is circular", m.It.MustResolve(sym.Name))
			sym.Type = typesys.Unknown
			continue
		}
		sym.Type = typesys.FromAST(sym.Decl.(*lnast.TypeAliasDecl).Value, inferExpr)
	}

	for _, sym := range m.Symbols {
		if sym.Kind != SymInterface {
			continue
		}
		decl := sym.Decl.(*lnast.InterfaceDecl)
		sym.Type = interfaceType(decl, inferExpr)
	}

	for _, sym := range m.Symbols {
		if sym.Kind != SymEnum {
			continue
		}
		checkEnum(m, sym)
	}

	// Class hierarchy: two passes so that a class may extend/implement a
	// class declared later in the same module (declaration-phase forward
	// references, spec.md §4.4.6 phase 1).
	for _, sym := range m.Symbols {
		if sym.Kind != SymClass {
			continue
		}
		decl := sym.Decl.(*lnast.ClassDecl)
		if decl.Forward {
			continue
		}
		m.ClassHierarchy[sym.Name] = &typesys.ClassInfo{
			Name:       sym.Name,
			Members:    make(map[Name]typesys.Property),
			Methods:    make(map[Name]*typesys.Type),
			Getters:    make(map[Name]*typesys.Type),
			Setters:    make(map[Name]*typesys.Type),
			Statics:    make(map[Name]*typesys.Type),
			IsAbstract: decl.Abstract,
		}
	}
	for _, sym := range m.Symbols {
		if sym.Kind != SymClass {
			continue
		}
		decl := sym.Decl.(*lnast.ClassDecl)
		if decl.Forward {
			continue
		}
		buildClassInfo(m, decl, inferExpr)
	}
}

// aliasCycle reports whether the alias chain starting at name revisits a
// node already on the current path.
func aliasCycle(m *Module, name Name, visiting map[Name]bool) bool {
	if visiting[name] {
		return true
	}
	sym, ok := m.Symbols[name]
	if !ok || sym.Kind != SymAlias {
		return false
	}
	visiting[name] = true
	defer delete(visiting, name)

	decl := sym.Decl.(*lnast.TypeAliasDecl)
	return referencesAlias(decl.Value, m, visiting)
}

func referencesAlias(t lnast.Type, m *Module, visiting map[Name]bool) bool {
	switch n := t.(type) {
	case *lnast.NamedType:
		if aliasCycle(m, n.Name, visiting) {
			return true
		}
		for _, a := range n.Args {
			if referencesAlias(a, m, visiting) {
				return true
			}
		}
	case *lnast.UnionType:
		for _, mm := range n.Members {
			if referencesAlias(mm, m, visiting) {
				return true
			}
		}
	case *lnast.IntersectionType:
		for _, mm := range n.Members {
			if referencesAlias(mm, m, visiting) {
				return true
			}
		}
	case *lnast.NullableType:
		return referencesAlias(n.Inner, m, visiting)
	case *lnast.ArrayType:
		return referencesAlias(n.Element, m, visiting)
	case *lnast.ParenType:
		return referencesAlias(n.Inner, m, visiting)
	}
	return false
}

func interfaceType(decl *lnast.InterfaceDecl, inferExpr func(lnast.Expression) *typesys.Type) *typesys.Type {
	props := make([]typesys.Property, len(decl.Members))
	for i, mbr := range decl.Members {
		if mbr.IsMethod {
			props[i] = typesys.Property{Name: mbr.Name, IsMethod: true, Optional: mbr.Optional, Readonly: mbr.Readonly,
				Type: &typesys.Type{Kind: typesys.KindFunction, Params: paramTypes(mbr.Params, inferExpr), Return: typesys.FromAST(mbr.ReturnType, inferExpr)}}
			continue
		}
		props[i] = typesys.Property{Name: mbr.Name, Optional: mbr.Optional, Readonly: mbr.Readonly, Type: typesys.FromAST(mbr.Annotation, inferExpr)}
	}
	return &typesys.Type{Kind: typesys.KindObject, Props: props}
}

func paramTypes(ps []lnast.Param, inferExpr func(lnast.Expression) *typesys.Type) []typesys.Param {
	out := make([]typesys.Param, len(ps))
	for i, p := range ps {
		out[i] = typesys.Param{Type: typesys.FromAST(p.Annotation, inferExpr), Rest: p.Rest, Default: p.Default != nil, Optional: p.Default != nil}
	}
	return out
}

// checkEnum sets an enum symbol's type to a union holding one Named(enum)
// entry per member, skipping constructor-style rich members (fields and no
// value). It does not check constructor arguments against declared fields,
// and members get no literal types.
func checkEnum(m *Module, sym *Symbol) {
	decl := sym.Decl.(*lnast.EnumDecl)
	var members []*typesys.Type
	for _, mbr := range decl.Members {
		if decl.Rich {
			if len(mbr.Fields) != 0 && mbr.Value == nil {
				// constructor-style member: fine, no literal value to check.
				continue
			}
		}
		members = append(members, typesys.Named(sym.Name))
	}
	if len(members) == 0 {
		sym.Type = typesys.Named(sym.Name)
		return
	}
	sym.Type = typesys.Union(members...)
}

// buildClassInfo fills in m.ClassHierarchy[decl.Name] with member, method,
// getter/setter, and static signatures, and resolves the Extends link.
func buildClassInfo(m *Module, decl *lnast.ClassDecl, inferExpr func(lnast.Expression) *typesys.Type) {
	ci := m.ClassHierarchy[decl.Name]
	if named, ok := decl.Extends.(*lnast.NamedType); ok {
		if super, ok := m.ClassHierarchy[named.Name]; ok {
			ci.Super = super
		}
	}
	for _, mbr := range decl.Members {
		t := typesys.FromAST(mbr.Annotation, inferExpr)
		switch {
		case mbr.IsGetter:
			ci.Getters[mbr.Name] = t
		case mbr.IsSetter:
			ci.Setters[mbr.Name] = t
		case mbr.IsMethod:
			fn := &typesys.Type{Kind: typesys.KindFunction, Return: t}
			if mbr.Method != nil {
				fn.Params = paramTypes(mbr.Method.Params, inferExpr)
				fn.Return = typesys.FromAST(mbr.Method.ReturnType, inferExpr)
			}
			if mbr.Static {
				ci.Statics[mbr.Name] = fn
			} else {
				ci.Methods[mbr.Name] = fn
			}
		default:
			prop := typesys.Property{Name: mbr.Name, Type: t, Readonly: mbr.Readonly}
			if mbr.Static {
				ci.Statics[mbr.Name] = t
			} else {
				ci.Members[mbr.Name] = prop
			}
		}
	}
}
