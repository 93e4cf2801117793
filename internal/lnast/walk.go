// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnast

// Visitor bundles the callbacks [Walk] invokes as it descends. Any field may
// be nil; a nil callback simply skips notification for that node class while
// the traversal still recurses through it.
type Visitor struct {
	Stmt func(Statement)
	Expr func(Expression)
	Type func(Type)
}

// Walk traverses every statement, expression, and type annotation reachable
// from stmts, in source order, including nodes nested inside function,
// method, arrow, class, and namespace bodies. Unlike the optimizer's
// rewriting traversal, Walk is read-only: callbacks observe nodes but cannot
// replace them.
func Walk(stmts []Statement, v Visitor) {
	w := &walker{v: v}
	w.stmts(stmts)
}

type walker struct {
	v Visitor
}

func (w *walker) stmts(ss []Statement) {
	for _, s := range ss {
		w.stmt(s)
	}
}

func (w *walker) stmt(s Statement) {
	if s == nil {
		return
	}
	if w.v.Stmt != nil {
		w.v.Stmt(s)
	}
	switch n := s.(type) {
	case *VariableDecl:
		w.pattern(n.Pattern)
		w.typ(n.Annotation)
		w.expr(n.Init)
	case *FunctionDecl:
		w.typeParams(n.TypeParams)
		w.params(n.Params)
		w.typ(n.ReturnType)
		w.typ(n.Throws)
		w.decorators(n.Decorators)
		w.stmts(n.Body)
	case *ClassDecl:
		w.typeParams(n.TypeParams)
		w.typ(n.Extends)
		for _, impl := range n.Implements {
			w.typ(impl)
		}
		w.decorators(n.Decorators)
		for _, m := range n.Members {
			w.typ(m.Annotation)
			w.expr(m.Init)
			if m.Method != nil {
				w.expr(m.Method)
			}
			w.decorators(m.Decorators)
		}
	case *InterfaceDecl:
		w.typeParams(n.TypeParams)
		for _, ext := range n.Extends {
			w.typ(ext)
		}
		for _, m := range n.Members {
			w.typ(m.Annotation)
			w.params(m.Params)
			w.typ(m.ReturnType)
			w.stmts(m.Body)
		}
	case *TypeAliasDecl:
		w.typeParams(n.TypeParams)
		w.typ(n.Value)
	case *EnumDecl:
		for _, m := range n.Members {
			w.expr(m.Value)
			w.params(m.Fields)
		}
		for i := range n.Methods {
			w.params(n.Methods[i].Params)
			w.typ(n.Methods[i].ReturnType)
			w.stmts(n.Methods[i].Body)
		}
	case *NamespaceDecl:
		w.stmts(n.Body)
	case *IfStatement:
		w.expr(n.Cond)
		w.stmts(n.Then)
		for _, ei := range n.ElseIfs {
			w.expr(ei.Cond)
			w.stmts(ei.Body)
		}
		w.stmts(n.Else)
	case *WhileStatement:
		w.expr(n.Cond)
		w.stmts(n.Body)
	case *ForNumericStatement:
		w.expr(n.Start)
		w.expr(n.Stop)
		w.expr(n.Step)
		w.stmts(n.Body)
	case *ForInStatement:
		for _, p := range n.Vars {
			w.pattern(p)
		}
		w.exprs(n.Iterable)
		w.stmts(n.Body)
	case *RepeatStatement:
		w.stmts(n.Body)
		w.expr(n.Cond)
	case *ReturnStatement:
		w.exprs(n.Values)
	case *ExportStatement:
		if n.Decl != nil {
			w.stmt(n.Decl)
		}
		w.expr(n.DefaultExpr)
	case *ThrowStatement:
		w.expr(n.Value)
	case *TryStatement:
		w.stmts(n.Try)
		w.stmts(n.Catch)
		w.stmts(n.Finally)
	case *BlockStatement:
		w.stmts(n.Body)
	case *DoStatement:
		w.stmts(n.Body)
	case *ExpressionStatement:
		w.expr(n.Expr)
	case *MultiAssignStatement:
		w.exprs(n.Targets)
		w.exprs(n.Values)
	}
}

func (w *walker) exprs(es []Expression) {
	for _, e := range es {
		w.expr(e)
	}
}

func (w *walker) expr(e Expression) {
	if e == nil {
		return
	}
	if w.v.Expr != nil {
		w.v.Expr(e)
	}
	switch n := e.(type) {
	case *BinaryExpr:
		w.expr(n.Left)
		w.expr(n.Right)
	case *UnaryExpr:
		w.expr(n.Operand)
	case *AssignExpr:
		w.expr(n.Target)
		w.expr(n.Value)
	case *MemberExpr:
		w.expr(n.Object)
	case *IndexExpr:
		w.expr(n.Object)
		w.expr(n.Index)
	case *CallExpr:
		w.expr(n.Callee)
		w.exprs(n.Args)
		w.types(n.TypeArgs)
	case *MethodCallExpr:
		w.expr(n.Object)
		w.exprs(n.Args)
		w.types(n.TypeArgs)
	case *NewExpr:
		w.expr(n.Callee)
		w.exprs(n.Args)
		w.types(n.TypeArgs)
	case *ArrayLiteral:
		w.exprs(n.Elements)
	case *ObjectLiteral:
		for _, p := range n.Properties {
			w.expr(p.ComputedKey)
			w.expr(p.Value)
		}
	case *ArrowExpr:
		w.params(n.Params)
		w.typ(n.ReturnType)
		w.stmts(n.Body)
		w.expr(n.ExprBody)
	case *FunctionExpr:
		w.typeParams(n.TypeParams)
		w.params(n.Params)
		w.typ(n.ReturnType)
		w.typ(n.Throws)
		w.stmts(n.Body)
	case *TernaryExpr:
		w.expr(n.Cond)
		w.expr(n.Then)
		w.expr(n.Else)
	case *PipeExpr:
		w.expr(n.Left)
		w.expr(n.Right)
	case *MatchExpr:
		w.expr(n.Subject)
		for _, arm := range n.Arms {
			w.pattern(arm.Pattern)
			w.expr(arm.Guard)
			w.expr(arm.Body)
		}
	case *TemplateLiteralExpr:
		w.exprs(n.Exprs)
	case *TypeAssertionExpr:
		w.expr(n.Expr)
		w.typ(n.AssertedType)
	case *TryExpr:
		w.expr(n.Try)
		w.expr(n.Catch)
	case *ErrorChainExpr:
		w.expr(n.Operand)
	case *ParenExpr:
		w.expr(n.Inner)
	}
}

func (w *walker) types(ts []Type) {
	for _, t := range ts {
		w.typ(t)
	}
}

func (w *walker) typ(t Type) {
	if t == nil {
		return
	}
	if w.v.Type != nil {
		w.v.Type(t)
	}
	switch n := t.(type) {
	case *UnionType:
		w.types(n.Members)
	case *IntersectionType:
		w.types(n.Members)
	case *NullableType:
		w.typ(n.Inner)
	case *ArrayType:
		w.typ(n.Element)
	case *TupleType:
		w.types(n.Elements)
	case *ObjectType:
		for _, m := range n.Members {
			w.typ(m.Annotation)
			w.params(m.Params)
			w.typ(m.ReturnType)
			w.typ(m.IndexKeyType)
			w.typ(m.IndexValue)
		}
	case *FunctionType:
		w.typeParams(n.TypeParams)
		w.params(n.Params)
		w.typ(n.Return)
		w.typ(n.Throws)
	case *NamedType:
		w.types(n.Args)
	case *TypeQueryType:
		w.expr(n.Expr)
	case *KeyofType:
		w.typ(n.Operand)
	case *IndexedAccessType:
		w.typ(n.Object)
		w.typ(n.Index)
	case *ConditionalType:
		w.typ(n.Check)
		w.typ(n.Extends)
		w.typ(n.True)
		w.typ(n.False)
	case *MappedType:
		w.typ(n.Constraint)
		w.typ(n.Value)
	case *TemplateLiteralType:
		w.types(n.Types)
	case *ParenType:
		w.typ(n.Inner)
	case *PredicateType:
		w.typ(n.Asserted)
	case *VariadicType:
		w.typ(n.Element)
	}
}

func (w *walker) pattern(p Pattern) {
	if p == nil {
		return
	}
	switch n := p.(type) {
	case *LiteralPattern:
		w.expr(n.Value)
	case *ArrayPattern:
		for _, el := range n.Elements {
			w.pattern(el.Pattern)
			w.expr(el.Default)
		}
	case *ObjectPattern:
		for _, f := range n.Fields {
			w.expr(f.ComputedKey)
			w.pattern(f.Value)
			w.expr(f.Default)
		}
	case *OrPattern:
		for _, alt := range n.Alternatives {
			w.pattern(alt)
		}
	case *TemplatePattern:
		for _, c := range n.Captures {
			w.pattern(c)
		}
	}
}

func (w *walker) params(ps []Param) {
	for _, p := range ps {
		w.pattern(p.Pattern)
		w.typ(p.Annotation)
		w.expr(p.Default)
	}
}

func (w *walker) typeParams(tps []TypeParam) {
	for _, tp := range tps {
		w.typ(tp.Constraint)
		w.typ(tp.Default)
	}
}

func (w *walker) decorators(ds []Decorator) {
	for _, d := range ds {
		w.exprs(d.Args)
	}
}
