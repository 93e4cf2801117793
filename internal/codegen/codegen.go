// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lnast"
)

// ReflectionMode selects how much type metadata the generator embeds for
// the reflection runtime (spec.md §4.7).
type ReflectionMode int

const (
	ReflectionNone ReflectionMode = iota
	ReflectionSelective
	ReflectionFull
)

// ModuleMode selects whether a program compiles to a single bundle or to a
// set of `require`-based files.
type ModuleMode int

const (
	ModuleBundle ModuleMode = iota
	ModuleRequire
)

// Options configures one [Generator] run.
type Options struct {
	Target          Target
	Format          Format
	Module          ModuleMode
	Reflection      ReflectionMode
	SourceFile      string
	EmitSourceMap   bool
	InlineSourceMap bool

	// DeadImports names import bindings the link-time analysis found never
	// referenced; genImportStatement drops those specifiers (spec.md §4.6's
	// dead-import elimination, applied per module during codegen).
	DeadImports map[lnast.Name]bool
	// ReachableExports, when non-nil, restricts the require-mode module
	// return table to the export names some other module actually imports;
	// the underlying declarations still emit (dead-export elimination drops
	// the wrapper, never the declaration).
	ReachableExports map[string]bool
	// RewriteImportPath maps an import specifier (an `@/`-style alias,
	// typically) to the path emitted into require(); nil leaves specifiers
	// untouched.
	RewriteImportPath func(string) string
}

// Generator lowers a checked [lnast.Program] to Lua source text plus an
// optional source map, per spec.md §4.7's pipeline: preamble, statements in
// declaration order, module return table.
type Generator struct {
	opts     Options
	strategy Strategy
	interner *intern.Interner
	e        *Emitter

	needsBitwise  bool
	usedNames     []string
	nameIndex     map[string]int
	tempCounter   int
	currentSource int
	classStack    []*lnast.ClassDecl
}

// NewGenerator returns a Generator for opts, resolving its dialect strategy.
func NewGenerator(opts Options, interner *intern.Interner) *Generator {
	return &Generator{
		opts:      opts,
		strategy:  NewStrategy(opts.Target),
		interner:  interner,
		e:         NewEmitter(opts.Format),
		nameIndex: make(map[string]int),
	}
}

// Result is a Generator run's output.
type Result struct {
	Code      string
	Bytes     int64
	SourceMap *SourceMap
}

// Generate runs the full pipeline over prog and returns the emitted Lua
// source (and source map, if requested).
func (g *Generator) Generate(prog *lnast.Program) (*Result, error) {
	g.needsBitwise = programUsesBitwise(prog)

	if pre := g.strategy.Preamble(g.needsBitwise); pre != "" {
		g.e.WriteString(strings.TrimPrefix(pre, "\n"))
	}
	if g.opts.Module == ModuleBundle {
		g.e.WriteString(strings.TrimPrefix(bundleRequirePreamble, "\n"))
	}
	if programUsesClasses(prog) {
		g.e.WriteString(strings.TrimPrefix(classSupportPreamble, "\n"))
	}
	if programUsesRichEnums(prog) {
		g.e.WriteString(strings.TrimPrefix(richEnumSupportPreamble, "\n"))
	}
	if programUsesDecorators(prog) {
		g.e.WriteString(strings.TrimPrefix(decoratorSupportPreamble, "\n"))
	}
	if g.opts.Reflection != ReflectionNone {
		g.e.WriteString(strings.TrimPrefix(reflectionSupportPreamble, "\n"))
	}

	exportNames := g.genStatements(prog.Statements)
	if g.opts.ReachableExports != nil {
		kept := exportNames[:0]
		for _, n := range exportNames {
			if g.opts.ReachableExports[n] || n == "__default" {
				kept = append(kept, n)
			}
		}
		exportNames = kept
	}

	if g.opts.Module == ModuleRequire && len(exportNames) == 0 {
		// An empty (or export-free) module still returns a table, so
		// `require` of it yields {} rather than true.
		g.e.WriteString("return {}")
		g.e.NewLine()
	}
	if g.opts.Module == ModuleRequire && len(exportNames) > 0 {
		g.e.NewLine()
		g.e.WriteString("return {")
		g.e.Indent()
		for i, n := range exportNames {
			if i > 0 {
				g.e.WriteString(",")
			}
			g.e.NewLine()
			g.e.Writef("%s = %s", n, n)
		}
		g.e.Dedent()
		g.e.NewLine()
		g.e.WriteString("}")
		g.e.NewLine()
	}

	res := &Result{Code: g.e.String(), Bytes: g.e.Size()}
	if g.opts.EmitSourceMap {
		res.SourceMap = BuildSourceMap(g.opts.SourceFile+".lua", g.opts.SourceFile, g.e.Mappings, g.usedNames)
	}
	return res, nil
}

func (g *Generator) resolve(n lnast.Name) string {
	if n == 0 {
		return ""
	}
	s, ok := g.interner.Resolve(n)
	if !ok {
		return "?"
	}
	return s
}

func (g *Generator) nameRef(n lnast.Name) int {
	s := g.resolve(n)
	if i, ok := g.nameIndex[s]; ok {
		return i
	}
	i := len(g.usedNames)
	g.usedNames = append(g.usedNames, s)
	g.nameIndex[s] = i
	return i
}

func (g *Generator) tempName() string {
	g.tempCounter++
	return "__tmp" + strconv.Itoa(g.tempCounter)
}

// genStatements emits stmts in order, returning the top-level names that
// were exported (used to build a require-mode module return table).
func (g *Generator) genStatements(stmts []lnast.Statement) []string {
	var exports []string
	for _, s := range stmts {
		if ex, ok := s.(*lnast.ExportStatement); ok {
			exports = append(exports, g.genExportStatement(ex)...)
			continue
		}
		g.genStatement(s)
	}
	return exports
}

func (g *Generator) genExportStatement(ex *lnast.ExportStatement) []string {
	switch {
	case ex.Decl != nil:
		g.genStatement(ex.Decl)
		return []string{g.resolve(declExportName(ex.Decl))}
	case ex.DefaultExpr != nil:
		name := "__default"
		g.e.Writef("local %s = ", name)
		g.genExpr(ex.DefaultExpr)
		g.e.NewLine()
		return []string{name}
	case ex.ReExport != lnast.ReExportNone:
		return nil
	default:
		var names []string
		for _, spec := range ex.Specifiers {
			names = append(names, g.resolve(spec.External))
		}
		return names
	}
}

func declExportName(s lnast.Statement) lnast.Name {
	switch n := s.(type) {
	case *lnast.FunctionDecl:
		return n.Name
	case *lnast.ClassDecl:
		return n.Name
	case *lnast.EnumDecl:
		return n.Name
	case *lnast.NamespaceDecl:
		return n.Name
	case *lnast.VariableDecl:
		if id, ok := n.Pattern.(*lnast.IdentPattern); ok {
			return id.Name
		}
	}
	return 0
}

func (g *Generator) genStatement(s lnast.Statement) {
	switch n := s.(type) {
	case *lnast.VariableDecl:
		g.genVariableDecl(n)
	case *lnast.FunctionDecl:
		g.genFunctionDecl(n)
	case *lnast.ClassDecl:
		g.genClassDecl(n)
	case *lnast.InterfaceDecl, *lnast.TypeAliasDecl:
		// type-only declarations erase entirely.
	case *lnast.EnumDecl:
		g.genEnumDecl(n)
	case *lnast.NamespaceDecl:
		g.genNamespaceDecl(n)
	case *lnast.IfStatement:
		g.genIfStatement(n)
	case *lnast.WhileStatement:
		g.genWhileStatement(n)
	case *lnast.ForNumericStatement:
		g.genForNumericStatement(n)
	case *lnast.ForInStatement:
		g.genForInStatement(n)
	case *lnast.RepeatStatement:
		g.genRepeatStatement(n)
	case *lnast.LabelStatement:
		g.e.Writef("::%s::", g.resolve(n.Name))
		g.e.NewLine()
	case *lnast.GotoStatement:
		g.e.Writef("goto %s", g.resolve(n.Label))
		g.e.NewLine()
	case *lnast.BreakStatement:
		g.e.WriteString("break")
		g.e.NewLine()
	case *lnast.ContinueStatement:
		g.genContinue()
	case *lnast.ReturnStatement:
		g.genReturnStatement(n)
	case *lnast.ImportStatement:
		g.genImportStatement(n)
	case *lnast.ExportStatement:
		g.genExportStatement(n)
	case *lnast.ThrowStatement:
		g.e.WriteString("error(")
		g.genExpr(n.Value)
		g.e.WriteString(", 0)")
		g.e.NewLine()
	case *lnast.TryStatement:
		g.genTryStatement(n)
	case *lnast.RethrowStatement:
		g.e.WriteString("error(__caught, 0)")
		g.e.NewLine()
	case *lnast.BlockStatement:
		g.e.WriteString("do")
		g.e.Indent()
		g.e.NewLine()
		g.genStatements(n.Body)
		g.e.Dedent()
		g.e.WriteString("end")
		g.e.NewLine()
	case *lnast.DoStatement:
		g.e.WriteString("do")
		g.e.Indent()
		g.e.NewLine()
		g.genStatements(n.Body)
		g.e.Dedent()
		g.e.WriteString("end")
		g.e.NewLine()
	case *lnast.ExpressionStatement:
		g.genExpr(n.Expr)
		g.e.NewLine()
	case *lnast.MultiAssignStatement:
		g.genMultiAssign(n)
	default:
		g.e.Writef("-- unhandled statement %T", n)
		g.e.NewLine()
	}
}

func (g *Generator) genContinue() {
	if g.strategy.SupportsNativeContinue() {
		g.e.WriteString("continue")
	} else if g.strategy.SupportsGoto() {
		g.e.WriteString("goto __continue")
	} else {
		g.e.WriteString("-- continue (unsupported on this target)")
	}
	g.e.NewLine()
}

// genVariableDecl lowers a (possibly destructuring) declaration. Array and
// object patterns bind through a synthesized temporary holding the
// initializer so that each binding can be projected independently.
func (g *Generator) genVariableDecl(n *lnast.VariableDecl) {
	if n.Ambient {
		return
	}
	switch pat := n.Pattern.(type) {
	case *lnast.IdentPattern:
		g.genScalarBinding(g.resolve(pat.Name), n.Kind, n.Init)
	default:
		tmp := g.tempName()
		g.e.Writef("local %s = ", tmp)
		if n.Init != nil {
			g.genExpr(n.Init)
		} else {
			g.e.WriteString("nil")
		}
		g.e.NewLine()
		g.genDestructure(n.Pattern, tmp, n.Kind)
	}
}

func (g *Generator) genScalarBinding(name string, kind lnast.VariableKind, init lnast.Expression) {
	var code string
	if init != nil {
		code = g.exprString(init)
	}
	g.genScalarBindingRaw(name, kind, code)
}

// genScalarBindingRaw emits `local name = code` (or the dialect's global
// form) when code is already rendered Lua text, such as a destructuring
// source reference that has no corresponding Expression node.
func (g *Generator) genScalarBindingRaw(name string, kind lnast.VariableKind, code string) {
	prefix := "local "
	if kind == lnast.VarGlobal {
		prefix = g.strategy.GlobalPrefix()
	}
	g.e.Writef("%s%s", prefix, name)
	if code != "" {
		g.e.WriteString(" = ")
		g.e.WriteString(code)
	}
	g.e.NewLine()
}

// exprString renders e to a standalone string using a scratch emitter,
// for contexts (destructuring temporaries) that need the text rather than
// writing it through g.e directly.
func (g *Generator) exprString(e lnast.Expression) string {
	saved := g.e
	g.e = NewEmitter(g.opts.Format)
	g.genExpr(e)
	s := g.e.String()
	g.e = saved
	return s
}

func (g *Generator) genDestructure(pat lnast.Pattern, source string, kind lnast.VariableKind) {
	switch p := pat.(type) {
	case *lnast.IdentPattern:
		g.genScalarBindingRaw(g.resolve(p.Name), kind, source)
	case *lnast.WildcardPattern:
		// discarded entirely
	case *lnast.ArrayPattern:
		for i, el := range p.Elements {
			if el.Pattern == nil && !el.Rest {
				continue
			}
			if el.Rest {
				g.e.Writef("local %s = {table.unpack(%s, %d)}", restName(g, el), source, i+1)
				g.e.NewLine()
				continue
			}
			elemExpr := fmt.Sprintf("%s[%d]", source, i+1)
			if el.Default != nil {
				tmp := g.tempName()
				g.e.Writef("local %s = %s", tmp, elemExpr)
				g.e.NewLine()
				g.e.Writef("if %s == nil then %s = ", tmp, tmp)
				g.genExpr(el.Default)
				g.e.WriteString(" end")
				g.e.NewLine()
				elemExpr = tmp
			}
			g.genDestructure(el.Pattern, elemExpr, kind)
		}
	case *lnast.ObjectPattern:
		seen := make(map[string]bool)
		for _, f := range p.Fields {
			key := g.resolve(f.Key)
			seen[key] = true
			access := source + "." + key
			if f.ComputedKey != nil {
				tmp := g.tempName()
				g.e.Writef("local %s = ", tmp)
				g.genExpr(f.ComputedKey)
				g.e.NewLine()
				access = source + "[" + tmp + "]"
			}
			if f.Default != nil {
				tmp := g.tempName()
				g.e.Writef("local %s = %s", tmp, access)
				g.e.NewLine()
				g.e.Writef("if %s == nil then %s = ", tmp, tmp)
				g.genExpr(f.Default)
				g.e.WriteString(" end")
				g.e.NewLine()
				access = tmp
			}
			g.genDestructure(f.Value, access, kind)
		}
		if p.Rest != 0 {
			g.e.Writef("local %s = {}", g.resolve(p.Rest))
			g.e.NewLine()
			g.e.Writef("for __k, __v in pairs(%s) do", source)
			g.e.Indent()
			g.e.NewLine()
			g.e.WriteString("local __skip = false")
			g.e.NewLine()
			for key := range seen {
				g.e.Writef("if __k == %q then __skip = true end", key)
				g.e.NewLine()
			}
			g.e.Writef("if not __skip then %s[__k] = __v end", g.resolve(p.Rest))
			g.e.NewLine()
			g.e.Dedent()
			g.e.WriteString("end")
			g.e.NewLine()
		}
	}
}

func restName(g *Generator, el lnast.ArrayElement) string {
	if id, ok := el.Pattern.(*lnast.IdentPattern); ok {
		return g.resolve(id.Name)
	}
	return g.tempName()
}
