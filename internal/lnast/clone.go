// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnast

// This file implements the deep clone used by internal/lnparser's
// incremental-reparse consolidation pass (spec.md §4.2): every K parses, the
// parser deep-clones every cached top-level statement into a fresh Arena and
// drops the old ones, so that old arenas become unreachable and collectible
// instead of accumulating without bound across a long editing session.
//
// Each clone function starts from a shallow struct copy (`*n = *s`), which
// picks up every scalar field for free, then overwrites the fields that
// reference other nodes (nested Statement/Expression/Type/Pattern values and
// the slices of them) with freshly cloned copies so the result shares no
// mutable structure with s's original arena.

// CloneStatement deep-clones stmt into a. A nil stmt clones to nil.
func CloneStatement(a *Arena, stmt Statement) Statement {
	if stmt == nil {
		return nil
	}
	switch s := stmt.(type) {
	case *VariableDecl:
		n := Alloc[VariableDecl](a)
		*n = *s
		n.Pattern = ClonePattern(a, s.Pattern)
		n.Annotation = CloneType(a, s.Annotation)
		n.Init = CloneExpr(a, s.Init)
		return n
	case *FunctionDecl:
		n := Alloc[FunctionDecl](a)
		*n = *s
		n.TypeParams = cloneTypeParams(a, s.TypeParams)
		n.Params = cloneParams(a, s.Params)
		n.ReturnType = CloneType(a, s.ReturnType)
		n.Throws = CloneType(a, s.Throws)
		n.Body = CloneStatements(a, s.Body)
		n.Decorators = cloneDecorators(a, s.Decorators)
		return n
	case *ClassDecl:
		n := Alloc[ClassDecl](a)
		*n = *s
		n.TypeParams = cloneTypeParams(a, s.TypeParams)
		n.Extends = CloneType(a, s.Extends)
		n.Implements = CloneTypes(a, s.Implements)
		n.Members = cloneClassMembers(a, s.Members)
		n.Decorators = cloneDecorators(a, s.Decorators)
		return n
	case *InterfaceDecl:
		n := Alloc[InterfaceDecl](a)
		*n = *s
		n.TypeParams = cloneTypeParams(a, s.TypeParams)
		n.Extends = CloneTypes(a, s.Extends)
		n.Members = cloneInterfaceMembers(a, s.Members)
		return n
	case *TypeAliasDecl:
		n := Alloc[TypeAliasDecl](a)
		*n = *s
		n.TypeParams = cloneTypeParams(a, s.TypeParams)
		n.Value = CloneType(a, s.Value)
		return n
	case *EnumDecl:
		n := Alloc[EnumDecl](a)
		*n = *s
		n.Members = cloneEnumMembers(a, s.Members)
		if s.Methods != nil {
			n.Methods = make([]FunctionDecl, len(s.Methods))
			for i := range s.Methods {
				n.Methods[i] = cloneFunctionDeclValue(a, s.Methods[i])
			}
		}
		return n
	case *NamespaceDecl:
		n := Alloc[NamespaceDecl](a)
		*n = *s
		n.Body = CloneStatements(a, s.Body)
		return n
	case *IfStatement:
		n := Alloc[IfStatement](a)
		*n = *s
		n.Cond = CloneExpr(a, s.Cond)
		n.Then = CloneStatements(a, s.Then)
		n.ElseIfs = cloneElseIfs(a, s.ElseIfs)
		n.Else = CloneStatements(a, s.Else)
		return n
	case *WhileStatement:
		n := Alloc[WhileStatement](a)
		*n = *s
		n.Cond = CloneExpr(a, s.Cond)
		n.Body = CloneStatements(a, s.Body)
		return n
	case *ForNumericStatement:
		n := Alloc[ForNumericStatement](a)
		*n = *s
		n.Start = CloneExpr(a, s.Start)
		n.Stop = CloneExpr(a, s.Stop)
		n.Step = CloneExpr(a, s.Step)
		n.Body = CloneStatements(a, s.Body)
		return n
	case *ForInStatement:
		n := Alloc[ForInStatement](a)
		*n = *s
		n.Vars = ClonePatterns(a, s.Vars)
		n.Iterable = CloneExprs(a, s.Iterable)
		n.Body = CloneStatements(a, s.Body)
		return n
	case *RepeatStatement:
		n := Alloc[RepeatStatement](a)
		*n = *s
		n.Body = CloneStatements(a, s.Body)
		n.Cond = CloneExpr(a, s.Cond)
		return n
	case *LabelStatement:
		n := Alloc[LabelStatement](a)
		*n = *s
		return n
	case *GotoStatement:
		n := Alloc[GotoStatement](a)
		*n = *s
		return n
	case *BreakStatement:
		n := Alloc[BreakStatement](a)
		*n = *s
		return n
	case *ContinueStatement:
		n := Alloc[ContinueStatement](a)
		*n = *s
		return n
	case *ReturnStatement:
		n := Alloc[ReturnStatement](a)
		*n = *s
		n.Values = CloneExprs(a, s.Values)
		return n
	case *ImportStatement:
		n := Alloc[ImportStatement](a)
		*n = *s
		if s.Specifiers != nil {
			n.Specifiers = append([]ImportSpecifier(nil), s.Specifiers...)
		}
		return n
	case *ExportStatement:
		n := Alloc[ExportStatement](a)
		*n = *s
		n.Decl = CloneStatement(a, s.Decl)
		n.DefaultExpr = CloneExpr(a, s.DefaultExpr)
		if s.Specifiers != nil {
			n.Specifiers = append([]ExportSpecifier(nil), s.Specifiers...)
		}
		return n
	case *ThrowStatement:
		n := Alloc[ThrowStatement](a)
		*n = *s
		n.Value = CloneExpr(a, s.Value)
		return n
	case *TryStatement:
		n := Alloc[TryStatement](a)
		*n = *s
		n.Try = CloneStatements(a, s.Try)
		n.CatchParam = cloneIdentPtr(s.CatchParam)
		n.Catch = CloneStatements(a, s.Catch)
		n.Finally = CloneStatements(a, s.Finally)
		return n
	case *RethrowStatement:
		n := Alloc[RethrowStatement](a)
		*n = *s
		return n
	case *BlockStatement:
		n := Alloc[BlockStatement](a)
		*n = *s
		n.Body = CloneStatements(a, s.Body)
		return n
	case *DoStatement:
		n := Alloc[DoStatement](a)
		*n = *s
		n.Body = CloneStatements(a, s.Body)
		return n
	case *ExpressionStatement:
		n := Alloc[ExpressionStatement](a)
		*n = *s
		n.Expr = CloneExpr(a, s.Expr)
		return n
	case *MultiAssignStatement:
		n := Alloc[MultiAssignStatement](a)
		*n = *s
		n.Targets = CloneExprs(a, s.Targets)
		n.Values = CloneExprs(a, s.Values)
		return n
	default:
		// Unknown statement kind: nothing more to consolidate onto, so hand
		// back the original unchanged rather than drop it.
		return stmt
	}
}

// CloneStatements clones every element of stmts into a.
func CloneStatements(a *Arena, stmts []Statement) []Statement {
	if stmts == nil {
		return nil
	}
	out := make([]Statement, len(stmts))
	for i, s := range stmts {
		out[i] = CloneStatement(a, s)
	}
	return out
}

func cloneFunctionDeclValue(a *Arena, fd FunctionDecl) FunctionDecl {
	fd.TypeParams = cloneTypeParams(a, fd.TypeParams)
	fd.Params = cloneParams(a, fd.Params)
	fd.ReturnType = CloneType(a, fd.ReturnType)
	fd.Throws = CloneType(a, fd.Throws)
	fd.Body = CloneStatements(a, fd.Body)
	fd.Decorators = cloneDecorators(a, fd.Decorators)
	return fd
}

func cloneIdentPtr(id *Ident) *Ident {
	if id == nil {
		return nil
	}
	n := new(Ident)
	*n = *id
	return n
}

// CloneExpr deep-clones expr into a. A nil expr clones to nil.
func CloneExpr(a *Arena, expr Expression) Expression {
	if expr == nil {
		return nil
	}
	switch e := expr.(type) {
	case *NilLiteral:
		n := Alloc[NilLiteral](a)
		*n = *e
		return n
	case *BoolLiteral:
		n := Alloc[BoolLiteral](a)
		*n = *e
		return n
	case *NumberLiteral:
		n := Alloc[NumberLiteral](a)
		*n = *e
		return n
	case *StringLiteral:
		n := Alloc[StringLiteral](a)
		*n = *e
		return n
	case *IdentExpr:
		n := Alloc[IdentExpr](a)
		*n = *e
		return n
	case *SelfExpr:
		n := Alloc[SelfExpr](a)
		*n = *e
		return n
	case *SuperExpr:
		n := Alloc[SuperExpr](a)
		*n = *e
		return n
	case *BinaryExpr:
		n := Alloc[BinaryExpr](a)
		*n = *e
		n.Left = CloneExpr(a, e.Left)
		n.Right = CloneExpr(a, e.Right)
		return n
	case *UnaryExpr:
		n := Alloc[UnaryExpr](a)
		*n = *e
		n.Operand = CloneExpr(a, e.Operand)
		return n
	case *AssignExpr:
		n := Alloc[AssignExpr](a)
		*n = *e
		n.Target = CloneExpr(a, e.Target)
		n.Value = CloneExpr(a, e.Value)
		return n
	case *MemberExpr:
		n := Alloc[MemberExpr](a)
		*n = *e
		n.Object = CloneExpr(a, e.Object)
		return n
	case *IndexExpr:
		n := Alloc[IndexExpr](a)
		*n = *e
		n.Object = CloneExpr(a, e.Object)
		n.Index = CloneExpr(a, e.Index)
		return n
	case *CallExpr:
		n := Alloc[CallExpr](a)
		*n = *e
		n.Callee = CloneExpr(a, e.Callee)
		n.Args = CloneExprs(a, e.Args)
		n.Spreads = cloneBools(e.Spreads)
		n.TypeArgs = CloneTypes(a, e.TypeArgs)
		return n
	case *MethodCallExpr:
		n := Alloc[MethodCallExpr](a)
		*n = *e
		n.Object = CloneExpr(a, e.Object)
		n.Args = CloneExprs(a, e.Args)
		n.Spreads = cloneBools(e.Spreads)
		n.TypeArgs = CloneTypes(a, e.TypeArgs)
		return n
	case *NewExpr:
		n := Alloc[NewExpr](a)
		*n = *e
		n.Callee = CloneExpr(a, e.Callee)
		n.Args = CloneExprs(a, e.Args)
		n.TypeArgs = CloneTypes(a, e.TypeArgs)
		return n
	case *ArrayLiteral:
		n := Alloc[ArrayLiteral](a)
		*n = *e
		n.Elements = CloneExprs(a, e.Elements)
		n.Spreads = cloneBools(e.Spreads)
		return n
	case *ObjectLiteral:
		n := Alloc[ObjectLiteral](a)
		*n = *e
		n.Properties = cloneObjectProperties(a, e.Properties)
		return n
	case *ArrowExpr:
		n := Alloc[ArrowExpr](a)
		*n = *e
		n.Params = cloneParams(a, e.Params)
		n.ReturnType = CloneType(a, e.ReturnType)
		n.Body = CloneStatements(a, e.Body)
		n.ExprBody = CloneExpr(a, e.ExprBody)
		return n
	case *FunctionExpr:
		n := Alloc[FunctionExpr](a)
		*n = *e
		n.TypeParams = cloneTypeParams(a, e.TypeParams)
		n.Params = cloneParams(a, e.Params)
		n.ReturnType = CloneType(a, e.ReturnType)
		n.Throws = CloneType(a, e.Throws)
		n.Body = CloneStatements(a, e.Body)
		return n
	case *TernaryExpr:
		n := Alloc[TernaryExpr](a)
		*n = *e
		n.Cond = CloneExpr(a, e.Cond)
		n.Then = CloneExpr(a, e.Then)
		n.Else = CloneExpr(a, e.Else)
		return n
	case *PipeExpr:
		n := Alloc[PipeExpr](a)
		*n = *e
		n.Left = CloneExpr(a, e.Left)
		n.Right = CloneExpr(a, e.Right)
		return n
	case *MatchExpr:
		n := Alloc[MatchExpr](a)
		*n = *e
		n.Subject = CloneExpr(a, e.Subject)
		n.Arms = cloneMatchArms(a, e.Arms)
		return n
	case *TemplateLiteralExpr:
		n := Alloc[TemplateLiteralExpr](a)
		*n = *e
		if e.Quasis != nil {
			n.Quasis = append([]string(nil), e.Quasis...)
		}
		n.Exprs = CloneExprs(a, e.Exprs)
		return n
	case *TypeAssertionExpr:
		n := Alloc[TypeAssertionExpr](a)
		*n = *e
		n.Expr = CloneExpr(a, e.Expr)
		n.AssertedType = CloneType(a, e.AssertedType)
		return n
	case *TryExpr:
		n := Alloc[TryExpr](a)
		*n = *e
		n.Try = CloneExpr(a, e.Try)
		n.CatchParam = cloneIdentPtr(e.CatchParam)
		n.Catch = CloneExpr(a, e.Catch)
		return n
	case *ErrorChainExpr:
		n := Alloc[ErrorChainExpr](a)
		*n = *e
		n.Operand = CloneExpr(a, e.Operand)
		return n
	case *ParenExpr:
		n := Alloc[ParenExpr](a)
		*n = *e
		n.Inner = CloneExpr(a, e.Inner)
		return n
	default:
		return expr
	}
}

// CloneExprs clones every element of exprs into a.
func CloneExprs(a *Arena, exprs []Expression) []Expression {
	if exprs == nil {
		return nil
	}
	out := make([]Expression, len(exprs))
	for i, e := range exprs {
		out[i] = CloneExpr(a, e)
	}
	return out
}

func cloneBools(bs []bool) []bool {
	if bs == nil {
		return nil
	}
	return append([]bool(nil), bs...)
}

// CloneType deep-clones t into a. A nil t clones to nil.
func CloneType(a *Arena, t Type) Type {
	if t == nil {
		return nil
	}
	switch ty := t.(type) {
	case *PrimitiveType:
		n := Alloc[PrimitiveType](a)
		*n = *ty
		return n
	case *LiteralType:
		n := Alloc[LiteralType](a)
		*n = *ty
		return n
	case *UnionType:
		n := Alloc[UnionType](a)
		*n = *ty
		n.Members = CloneTypes(a, ty.Members)
		return n
	case *IntersectionType:
		n := Alloc[IntersectionType](a)
		*n = *ty
		n.Members = CloneTypes(a, ty.Members)
		return n
	case *NullableType:
		n := Alloc[NullableType](a)
		*n = *ty
		n.Inner = CloneType(a, ty.Inner)
		return n
	case *ArrayType:
		n := Alloc[ArrayType](a)
		*n = *ty
		n.Element = CloneType(a, ty.Element)
		return n
	case *TupleType:
		n := Alloc[TupleType](a)
		*n = *ty
		n.Elements = CloneTypes(a, ty.Elements)
		return n
	case *ObjectType:
		n := Alloc[ObjectType](a)
		*n = *ty
		n.Members = cloneObjectTypeMembers(a, ty.Members)
		return n
	case *FunctionType:
		n := Alloc[FunctionType](a)
		*n = *ty
		n.TypeParams = cloneTypeParams(a, ty.TypeParams)
		n.Params = cloneParams(a, ty.Params)
		n.Return = CloneType(a, ty.Return)
		n.Throws = CloneType(a, ty.Throws)
		return n
	case *NamedType:
		n := Alloc[NamedType](a)
		*n = *ty
		n.Args = CloneTypes(a, ty.Args)
		return n
	case *TypeQueryType:
		n := Alloc[TypeQueryType](a)
		*n = *ty
		n.Expr = CloneExpr(a, ty.Expr)
		return n
	case *KeyofType:
		n := Alloc[KeyofType](a)
		*n = *ty
		n.Operand = CloneType(a, ty.Operand)
		return n
	case *IndexedAccessType:
		n := Alloc[IndexedAccessType](a)
		*n = *ty
		n.Object = CloneType(a, ty.Object)
		n.Index = CloneType(a, ty.Index)
		return n
	case *InferVar:
		n := Alloc[InferVar](a)
		*n = *ty
		return n
	case *ConditionalType:
		n := Alloc[ConditionalType](a)
		*n = *ty
		n.Check = CloneType(a, ty.Check)
		n.Extends = CloneType(a, ty.Extends)
		n.True = CloneType(a, ty.True)
		n.False = CloneType(a, ty.False)
		return n
	case *MappedType:
		n := Alloc[MappedType](a)
		*n = *ty
		n.Constraint = CloneType(a, ty.Constraint)
		n.Value = CloneType(a, ty.Value)
		return n
	case *TemplateLiteralType:
		n := Alloc[TemplateLiteralType](a)
		*n = *ty
		if ty.Quasis != nil {
			n.Quasis = append([]string(nil), ty.Quasis...)
		}
		n.Types = CloneTypes(a, ty.Types)
		return n
	case *ParenType:
		n := Alloc[ParenType](a)
		*n = *ty
		n.Inner = CloneType(a, ty.Inner)
		return n
	case *PredicateType:
		n := Alloc[PredicateType](a)
		*n = *ty
		n.Asserted = CloneType(a, ty.Asserted)
		return n
	case *VariadicType:
		n := Alloc[VariadicType](a)
		*n = *ty
		n.Element = CloneType(a, ty.Element)
		return n
	default:
		return t
	}
}

// CloneTypes clones every element of types into a.
func CloneTypes(a *Arena, types []Type) []Type {
	if types == nil {
		return nil
	}
	out := make([]Type, len(types))
	for i, t := range types {
		out[i] = CloneType(a, t)
	}
	return out
}

// ClonePattern deep-clones pat into a. A nil pat clones to nil.
func ClonePattern(a *Arena, pat Pattern) Pattern {
	if pat == nil {
		return nil
	}
	switch p := pat.(type) {
	case *IdentPattern:
		n := Alloc[IdentPattern](a)
		*n = *p
		return n
	case *WildcardPattern:
		n := Alloc[WildcardPattern](a)
		*n = *p
		return n
	case *LiteralPattern:
		n := Alloc[LiteralPattern](a)
		*n = *p
		n.Value = CloneExpr(a, p.Value)
		return n
	case *ArrayPattern:
		n := Alloc[ArrayPattern](a)
		*n = *p
		if p.Elements != nil {
			n.Elements = make([]ArrayElement, len(p.Elements))
			for i, el := range p.Elements {
				n.Elements[i] = ArrayElement{
					Pattern: ClonePattern(a, el.Pattern),
					Default: CloneExpr(a, el.Default),
					Rest:    el.Rest,
				}
			}
		}
		return n
	case *ObjectPattern:
		n := Alloc[ObjectPattern](a)
		*n = *p
		if p.Fields != nil {
			n.Fields = make([]ObjectField, len(p.Fields))
			for i, f := range p.Fields {
				n.Fields[i] = ObjectField{
					Key:         f.Key,
					ComputedKey: CloneExpr(a, f.ComputedKey),
					Value:       ClonePattern(a, f.Value),
					Default:     CloneExpr(a, f.Default),
					Shorthand:   f.Shorthand,
				}
			}
		}
		return n
	case *OrPattern:
		n := Alloc[OrPattern](a)
		*n = *p
		n.Alternatives = ClonePatterns(a, p.Alternatives)
		return n
	case *TemplatePattern:
		n := Alloc[TemplatePattern](a)
		*n = *p
		if p.Quasis != nil {
			n.Quasis = append([]string(nil), p.Quasis...)
		}
		n.Captures = ClonePatterns(a, p.Captures)
		return n
	default:
		return pat
	}
}

// ClonePatterns clones every element of pats into a.
func ClonePatterns(a *Arena, pats []Pattern) []Pattern {
	if pats == nil {
		return nil
	}
	out := make([]Pattern, len(pats))
	for i, p := range pats {
		out[i] = ClonePattern(a, p)
	}
	return out
}

func cloneParams(a *Arena, params []Param) []Param {
	if params == nil {
		return nil
	}
	out := make([]Param, len(params))
	for i, p := range params {
		out[i] = Param{
			Pattern:    ClonePattern(a, p.Pattern),
			Annotation: CloneType(a, p.Annotation),
			Default:    CloneExpr(a, p.Default),
			Rest:       p.Rest,
		}
	}
	return out
}

func cloneTypeParams(a *Arena, tps []TypeParam) []TypeParam {
	if tps == nil {
		return nil
	}
	out := make([]TypeParam, len(tps))
	for i, tp := range tps {
		out[i] = TypeParam{
			Name:       tp.Name,
			Constraint: CloneType(a, tp.Constraint),
			Default:    CloneType(a, tp.Default),
		}
	}
	return out
}

func cloneDecorators(a *Arena, decs []Decorator) []Decorator {
	if decs == nil {
		return nil
	}
	out := make([]Decorator, len(decs))
	for i, d := range decs {
		out[i] = Decorator{Span: d.Span, Name: d.Name, Args: CloneExprs(a, d.Args)}
	}
	return out
}

func cloneClassMembers(a *Arena, members []ClassMember) []ClassMember {
	if members == nil {
		return nil
	}
	out := make([]ClassMember, len(members))
	for i, m := range members {
		out[i] = m
		out[i].Decorators = cloneDecorators(a, m.Decorators)
		out[i].Annotation = CloneType(a, m.Annotation)
		out[i].Init = CloneExpr(a, m.Init)
		if m.Method != nil {
			out[i].Method = CloneExpr(a, m.Method).(*FunctionExpr)
		}
	}
	return out
}

func cloneInterfaceMembers(a *Arena, members []InterfaceMember) []InterfaceMember {
	if members == nil {
		return nil
	}
	out := make([]InterfaceMember, len(members))
	for i, m := range members {
		out[i] = m
		out[i].Annotation = CloneType(a, m.Annotation)
		out[i].Params = cloneParams(a, m.Params)
		out[i].ReturnType = CloneType(a, m.ReturnType)
		out[i].Body = CloneStatements(a, m.Body)
	}
	return out
}

func cloneEnumMembers(a *Arena, members []EnumMember) []EnumMember {
	if members == nil {
		return nil
	}
	out := make([]EnumMember, len(members))
	for i, m := range members {
		out[i] = m
		out[i].Value = CloneExpr(a, m.Value)
		out[i].Fields = cloneParams(a, m.Fields)
	}
	return out
}

func cloneElseIfs(a *Arena, elseIfs []ElseIf) []ElseIf {
	if elseIfs == nil {
		return nil
	}
	out := make([]ElseIf, len(elseIfs))
	for i, ei := range elseIfs {
		out[i] = ElseIf{Cond: CloneExpr(a, ei.Cond), Body: CloneStatements(a, ei.Body)}
	}
	return out
}

func cloneObjectProperties(a *Arena, props []ObjectProperty) []ObjectProperty {
	if props == nil {
		return nil
	}
	out := make([]ObjectProperty, len(props))
	for i, p := range props {
		out[i] = p
		out[i].ComputedKey = CloneExpr(a, p.ComputedKey)
		out[i].Value = CloneExpr(a, p.Value)
	}
	return out
}

func cloneObjectTypeMembers(a *Arena, members []ObjectTypeMember) []ObjectTypeMember {
	if members == nil {
		return nil
	}
	out := make([]ObjectTypeMember, len(members))
	for i, m := range members {
		out[i] = m
		out[i].Annotation = CloneType(a, m.Annotation)
		out[i].Params = cloneParams(a, m.Params)
		out[i].ReturnType = CloneType(a, m.ReturnType)
		out[i].IndexKeyType = CloneType(a, m.IndexKeyType)
		out[i].IndexValue = CloneType(a, m.IndexValue)
	}
	return out
}

func cloneMatchArms(a *Arena, arms []MatchArm) []MatchArm {
	if arms == nil {
		return nil
	}
	out := make([]MatchArm, len(arms))
	for i, arm := range arms {
		out[i] = MatchArm{
			Pattern: ClonePattern(a, arm.Pattern),
			Guard:   CloneExpr(a, arm.Guard),
			Body:    CloneExpr(a, arm.Body),
		}
	}
	return out
}
