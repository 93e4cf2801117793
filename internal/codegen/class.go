// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package codegen

import (
	"fmt"
	"strings"

	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/xslices"
)

// superClassName resolves the name of the class currently being generated's
// superclass, or "nil" when there is none — used by `super` in member,
// call, and constructor-call position.
func (g *Generator) superClassName() string {
	if len(g.classStack) == 0 {
		return "nil"
	}
	cur := xslices.Last(g.classStack)
	if nt, ok := cur.Extends.(*lnast.NamedType); ok {
		return g.resolve(nt.Name)
	}
	return "nil"
}

// genClassDecl lowers a class to the standard Lua `setmetatable`/`__index`
// table idiom used both as the class's static namespace and as every
// instance's metatable (spec.md §4.7): inheritance chains through
// `__index`, the constructor runs from `__class_new`'s `__ctor` hook,
// instance fields with initializers are assigned in the constructor
// prologue, and getters/setters switch `__index`/`__newindex` to function
// metamethods only when the class actually declares one, so the common case
// stays a plain table lookup. A forward declaration (Forward) is a
// type-only stub for the checker and erases entirely; Ambient classes come
// from a `declare` block describing an externally-provided value and erase
// the same way.
func (g *Generator) genClassDecl(n *lnast.ClassDecl) {
	if n.Forward || n.Ambient {
		return
	}
	className := g.resolve(n.Name)
	if nt, ok := n.Extends.(*lnast.NamedType); ok {
		g.e.Writef("local %s = setmetatable({}, { __index = %s })", className, g.resolve(nt.Name))
	} else {
		g.e.Writef("local %s = {}", className)
	}
	g.e.NewLine()

	hasGetter, hasSetter := false, false
	for _, m := range n.Members {
		hasGetter = hasGetter || m.IsGetter
		hasSetter = hasSetter || m.IsSetter
	}
	g.genClassIndexMetamethod(className, hasGetter)
	if hasSetter {
		g.genClassNewIndexMetamethod(className)
	}
	g.e.Writef("%s.__name = %q", className, className)
	g.e.NewLine()

	g.classStack = append(g.classStack, n)

	var ctor *lnast.ClassMember
	var instanceFields []*lnast.ClassMember
	for i := range n.Members {
		m := &n.Members[i]
		if g.resolve(m.Name) == "constructor" && m.IsMethod {
			ctor = m
			continue
		}
		if m.IsField && !m.Static {
			instanceFields = append(instanceFields, m)
		}
	}
	if ctor != nil || len(instanceFields) > 0 {
		g.genClassConstructor(className, ctor, instanceFields)
	}
	for i := range n.Members {
		m := &n.Members[i]
		if m == ctor {
			continue
		}
		g.genClassMember(className, m)
	}

	g.classStack = xslices.Pop(g.classStack, 1)

	if len(n.Decorators) > 0 {
		g.e.Writef("%s = __apply_decorators(%s, %s)", className, className, g.genDecoratorList(n.Decorators))
		g.e.NewLine()
	}
	if g.opts.Reflection != ReflectionNone {
		baseArg := "nil"
		if nt, ok := n.Extends.(*lnast.NamedType); ok {
			baseArg = fmt.Sprintf("%q", g.resolve(nt.Name))
		}
		g.e.Writef("%s.__typeName = %q", className, className)
		g.e.NewLine()
		g.e.Writef("__register_type(%q, %s, %s)", className, baseArg, g.classMemberNames(n))
		g.e.NewLine()
	}
}

func (g *Generator) genClassIndexMetamethod(className string, hasGetter bool) {
	if !hasGetter {
		g.e.Writef("%s.__index = %s", className, className)
		g.e.NewLine()
		return
	}
	g.e.Writef("%s.__index = function(self, key)", className)
	g.e.Indent()
	g.e.NewLine()
	g.e.Writef("local getter = %s[\"__get_\" .. key]", className)
	g.e.NewLine()
	g.e.WriteString("if getter then return getter(self) end")
	g.e.NewLine()
	g.e.Writef("return %s[key]", className)
	g.e.NewLine()
	g.e.Dedent()
	g.e.WriteString("end")
	g.e.NewLine()
}

func (g *Generator) genClassNewIndexMetamethod(className string) {
	g.e.Writef("%s.__newindex = function(self, key, value)", className)
	g.e.Indent()
	g.e.NewLine()
	g.e.Writef("local setter = %s[\"__set_\" .. key]", className)
	g.e.NewLine()
	g.e.WriteString("if setter then setter(self, value) return end")
	g.e.NewLine()
	g.e.WriteString("rawset(self, key, value)")
	g.e.NewLine()
	g.e.Dedent()
	g.e.WriteString("end")
	g.e.NewLine()
}

// genClassConstructor emits `ClassName.__ctor`, the hook [classSupportPreamble]'s
// `__class_new` calls after allocating the instance. Field initializers run
// before the authored constructor body, matching field-initializer-before-
// constructor-body class semantics.
func (g *Generator) genClassConstructor(className string, ctor *lnast.ClassMember, fields []*lnast.ClassMember) {
	g.e.Writef("%s.__ctor = function(self", className)
	if ctor != nil {
		g.genMethodParams(ctor.Method)
	}
	g.e.WriteString(")")
	g.e.Indent()
	g.e.NewLine()
	for _, f := range fields {
		name := g.resolve(f.Name)
		g.e.Writef("self.%s = ", name)
		if f.Init != nil {
			g.genExpr(f.Init)
		} else {
			g.e.WriteString("nil")
		}
		g.e.NewLine()
	}
	if ctor != nil {
		g.genParamDefaults(ctor.Method.Params)
		g.genStatements(ctor.Method.Body)
	}
	g.e.Dedent()
	g.e.WriteString("end")
	g.e.NewLine()
}

func (g *Generator) genClassMember(className string, m *lnast.ClassMember) {
	name := g.resolve(m.Name)
	switch {
	case m.OperatorTag != "":
		g.e.Writef("%s.%s = function(self", className, m.OperatorTag)
		g.genMethodParams(m.Method)
		g.e.WriteString(")")
		g.genMethodBody(m.Method)
	case m.IsGetter:
		g.e.Writef("%s[\"__get_%s\"] = function(self)", className, name)
		g.genMethodBody(m.Method)
	case m.IsSetter:
		g.e.Writef("%s[\"__set_%s\"] = function(self", className, name)
		g.genMethodParams(m.Method)
		g.e.WriteString(")")
		g.genMethodBody(m.Method)
	case m.IsMethod && m.Static:
		g.e.Writef("%s.%s = function(", className, name)
		g.genParamList(m.Method.Params)
		g.e.WriteString(")")
		g.genMethodBody(m.Method)
	case m.IsMethod:
		g.e.Writef("%s.%s = function(self", className, name)
		g.genMethodParams(m.Method)
		g.e.WriteString(")")
		g.genMethodBody(m.Method)
	case m.IsField && m.Static:
		g.e.Writef("%s.%s = ", className, name)
		if m.Init != nil {
			g.genExpr(m.Init)
		} else {
			g.e.WriteString("nil")
		}
		g.e.NewLine()
	}
	if len(m.Decorators) == 0 || !(m.IsMethod || m.IsGetter || m.IsSetter) {
		return
	}
	ref := className + "." + name
	switch {
	case m.IsGetter:
		ref = className + "[\"__get_" + name + "\"]"
	case m.IsSetter:
		ref = className + "[\"__set_" + name + "\"]"
	}
	g.e.Writef("%s = __apply_decorators(%s, %s)", ref, ref, g.genDecoratorList(m.Decorators))
	g.e.NewLine()
}

func (g *Generator) genMethodBody(fe *lnast.FunctionExpr) {
	g.e.Indent()
	g.e.NewLine()
	g.genParamDefaults(fe.Params)
	g.genStatements(fe.Body)
	g.e.Dedent()
	g.e.WriteString("end")
	g.e.NewLine()
}

func (g *Generator) genMethodParams(fe *lnast.FunctionExpr) {
	for i, p := range fe.Params {
		g.e.WriteString(", ")
		if p.Rest {
			g.e.WriteString("...")
			continue
		}
		if id, ok := p.Pattern.(*lnast.IdentPattern); ok {
			g.e.WriteString(g.resolve(id.Name))
		} else {
			g.e.Writef("__p%d", i)
		}
	}
}

func (g *Generator) classMemberNames(n *lnast.ClassDecl) string {
	var parts []string
	for _, m := range n.Members {
		parts = append(parts, fmt.Sprintf("%q", g.resolve(m.Name)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// genDecoratorList renders a class/member decorator list as the table
// [decoratorSupportPreamble]'s `__apply_decorators` folds over: `@dec`
// (no call) references dec directly, `@dec(args)` calls it to produce the
// actual decorator function.
func (g *Generator) genDecoratorList(decs []lnast.Decorator) string {
	var parts []string
	for _, d := range decs {
		name := g.resolve(d.Name)
		if len(d.Args) == 0 {
			parts = append(parts, name)
			continue
		}
		var args []string
		for _, a := range d.Args {
			args = append(args, g.exprString(a))
		}
		parts = append(parts, name+"("+strings.Join(args, ", ")+")")
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
