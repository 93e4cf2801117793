// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package codegen

import "luanext.dev/compiler/internal/lnast"

// genEnumDecl lowers a simple or rich enum (spec.md §4.7). A simple enum
// (no member has constructor fields, no methods) becomes a plain Lua table
// mapping member name to an explicit or auto-incremented value. A rich enum
// becomes a shared metatable carrying its methods; a nullary member is a
// singleton instance built through [richEnumSupportPreamble]'s `__enum_new`,
// while a member with constructor fields becomes a factory function that
// builds one instance per call and assigns its field values by name.
func (g *Generator) genEnumDecl(n *lnast.EnumDecl) {
	if n.Ambient {
		return
	}
	name := g.resolve(n.Name)
	if !n.Rich {
		g.genSimpleEnum(name, n)
		return
	}
	g.e.Writef("local %s = {}", name)
	g.e.NewLine()
	g.e.Writef("%s.__index = %s", name, name)
	g.e.NewLine()
	for i := range n.Methods {
		g.genEnumMethod(name, &n.Methods[i])
	}
	for _, m := range n.Members {
		g.genEnumMember(name, &m)
	}
}

func (g *Generator) genSimpleEnum(name string, n *lnast.EnumDecl) {
	g.e.Writef("local %s = {}", name)
	g.e.NewLine()
	auto := 0
	for _, m := range n.Members {
		mname := g.resolve(m.Name)
		g.e.Writef("%s.%s = ", name, mname)
		if m.Value != nil {
			g.genExpr(m.Value)
		} else {
			g.e.Writef("%d", auto)
		}
		g.e.NewLine()
		auto++
	}
}

func (g *Generator) genEnumMember(enumName string, m *lnast.EnumMember) {
	mname := g.resolve(m.Name)
	if len(m.Fields) == 0 {
		g.e.Writef("%s.%s = __enum_new(%s, %q)", enumName, mname, enumName, mname)
		g.e.NewLine()
		return
	}
	var fieldNames []string
	for _, f := range m.Fields {
		if id, ok := f.Pattern.(*lnast.IdentPattern); ok {
			fieldNames = append(fieldNames, g.resolve(id.Name))
		}
	}
	g.e.Writef("%s.%s = function(", enumName, mname)
	for i, fn := range fieldNames {
		if i > 0 {
			g.e.WriteString(", ")
		}
		g.e.WriteString(fn)
	}
	g.e.WriteString(")")
	g.e.Indent()
	g.e.NewLine()
	g.e.Writef("local __m = __enum_new(%s, %q)", enumName, mname)
	g.e.NewLine()
	for _, fn := range fieldNames {
		g.e.Writef("__m.%s = %s", fn, fn)
		g.e.NewLine()
	}
	g.e.WriteString("return __m")
	g.e.NewLine()
	g.e.Dedent()
	g.e.WriteString("end")
	g.e.NewLine()
}

func (g *Generator) genEnumMethod(enumName string, fd *lnast.FunctionDecl) {
	g.e.Writef("%s.%s = function(self", enumName, g.resolve(fd.Name))
	for i, p := range fd.Params {
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
	g.e.WriteString(")")
	g.e.Indent()
	g.e.NewLine()
	g.genParamDefaults(fd.Params)
	g.genStatements(fd.Body)
	g.e.Dedent()
	g.e.WriteString("end")
	g.e.NewLine()
}
