// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lnast

// VariableKind distinguishes the binding form used to introduce a variable.
type VariableKind int

const (
	VarConst VariableKind = iota
	VarLet
	VarLocal
	VarGlobal
	VarVar
)

// Decorator is `@name(args...)` attached to a class, method, or property.
type Decorator struct {
	Span Span
	Name Name
	Args []Expression
}

// VariableDecl declares one or more bindings, optionally destructured.
// Ambient is set for `declare` forms found in .d.luax declaration files.
type VariableDecl struct {
	base
	Kind       VariableKind
	Pattern    Pattern
	Annotation Type
	Init       Expression
	Ambient    bool
}

func (*VariableDecl) stmtNode() {}

// FunctionDecl is a named top-level or nested function declaration.
type FunctionDecl struct {
	base
	Name       Name
	TypeParams []TypeParam
	Params     []Param
	ReturnType Type
	Throws     Type
	Body       []Statement
	Ambient    bool
	Abstract   bool
	Decorators []Decorator
}

func (*FunctionDecl) stmtNode() {}

// Visibility is a class member's access modifier.
type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
)

// ClassMember is one field, method, getter, setter, or constructor in a
// [ClassDecl].
type ClassMember struct {
	Span        Span
	Name        Name
	Visibility  Visibility
	Static      bool
	Abstract    bool
	Readonly    bool
	IsGetter    bool
	IsSetter    bool
	IsMethod    bool
	IsField     bool
	Decorators  []Decorator
	Annotation  Type
	Init        Expression
	Method      *FunctionExpr
	OperatorTag string // non-empty for metamethod-mapped operator overloads
}

// ClassDecl declares a class. Forward is set for a forward-declaration node
// (empty Members, no Extends/Implements); spec.md §3.4 requires exactly one
// full declaration to follow it in the same module.
type ClassDecl struct {
	base
	Name       Name
	TypeParams []TypeParam
	Extends    Type
	Implements []Type
	Members    []ClassMember
	Abstract   bool
	Ambient    bool
	Forward    bool
	Decorators []Decorator
}

func (*ClassDecl) stmtNode() {}

// InterfaceMember is one property or method signature in an
// [InterfaceDecl]. Body is non-nil for a default-implementation method.
type InterfaceMember struct {
	Span       Span
	Name       Name
	Optional   bool
	Readonly   bool
	Annotation Type
	Params     []Param
	ReturnType Type
	IsMethod   bool
	Body       []Statement
}

// InterfaceDecl declares a structural interface. Forward mirrors
// [ClassDecl.Forward].
type InterfaceDecl struct {
	base
	Name       Name
	TypeParams []TypeParam
	Extends    []Type
	Members    []InterfaceMember
	Ambient    bool
	Forward    bool
}

func (*InterfaceDecl) stmtNode() {}

// TypeAliasDecl declares `type Name<T> = ...`.
type TypeAliasDecl struct {
	base
	Name       Name
	TypeParams []TypeParam
	Value      Type
	Ambient    bool
}

func (*TypeAliasDecl) stmtNode() {}

// EnumMember is one member of an [EnumDecl].
type EnumMember struct {
	Span   Span
	Name   Name
	Value  Expression // nil for an auto-assigned simple enum member
	Fields []Param    // non-empty for a rich-enum constructor member
}

// EnumDecl declares a simple or rich enum. Rich is set when any member has
// constructor fields or the enum declares methods.
type EnumDecl struct {
	base
	Name    Name
	Members []EnumMember
	Methods []FunctionDecl
	Rich    bool
	Ambient bool
}

func (*EnumDecl) stmtNode() {}

// NamespaceDecl groups declarations under a dotted namespace path.
type NamespaceDecl struct {
	base
	Name Name
	Body []Statement
}

func (*NamespaceDecl) stmtNode() {}

// ElseIf is one `elseif` clause of an [IfStatement].
type ElseIf struct {
	Cond Expression
	Body []Statement
}

// IfStatement is `if cond then/​{ ... } elseif ... else ... end/}`.
type IfStatement struct {
	base
	Cond    Expression
	Then    []Statement
	ElseIfs []ElseIf
	Else    []Statement
}

func (*IfStatement) stmtNode() {}

// WhileStatement is `while cond do ... end`.
type WhileStatement struct {
	base
	Cond Expression
	Body []Statement
}

func (*WhileStatement) stmtNode() {}

// ForNumericStatement is `for i = start, stop[, step] do ... end`.
type ForNumericStatement struct {
	base
	Var               Name
	Start, Stop, Step Expression
	Body              []Statement
}

func (*ForNumericStatement) stmtNode() {}

// ForInStatement is `for k, v in iterable do ... end`.
type ForInStatement struct {
	base
	Vars     []Pattern
	Iterable []Expression
	Body     []Statement
}

func (*ForInStatement) stmtNode() {}

// RepeatStatement is `repeat ... until cond`. Lua scoping rules give the
// until-expression access to locals declared in Body.
type RepeatStatement struct {
	base
	Body []Statement
	Cond Expression
}

func (*RepeatStatement) stmtNode() {}

// LabelStatement is `::name::`.
type LabelStatement struct {
	base
	Name Name
}

func (*LabelStatement) stmtNode() {}

// GotoStatement is `goto name`.
type GotoStatement struct {
	base
	Label Name
}

func (*GotoStatement) stmtNode() {}

// BreakStatement is `break`.
type BreakStatement struct{ base }

func (*BreakStatement) stmtNode() {}

// ContinueStatement is `continue`.
type ContinueStatement struct{ base }

func (*ContinueStatement) stmtNode() {}

// ReturnStatement is `return e1, e2, ...` (zero or more values).
type ReturnStatement struct {
	base
	Values []Expression
}

func (*ReturnStatement) stmtNode() {}

// ImportKind distinguishes the shape of an import clause.
type ImportKind int

const (
	ImportDefault ImportKind = iota
	ImportNamed
	ImportNamespace
)

// ImportSpecifier is one `name` or `name as alias` entry of a named import.
type ImportSpecifier struct {
	Name     Name
	Alias    Name
	TypeOnly bool
}

// ImportStatement is `import ... from "module"`.
type ImportStatement struct {
	base
	Kind       ImportKind
	Default    Name
	Namespace  Name
	Specifiers []ImportSpecifier
	TypeOnly   bool
	ModulePath string
}

func (*ImportStatement) stmtNode() {}

// ReExportKind distinguishes `export { x } from "m"` from `export * from "m"`.
type ReExportKind int

const (
	ReExportNone ReExportKind = iota
	ReExportAll
	ReExportNamed
)

// ExportSpecifier is one `local as external` entry of a named export or
// re-export.
type ExportSpecifier struct {
	Local    Name
	External Name
	TypeOnly bool
}

// ExportStatement covers `export <decl>`, `export default <expr>`,
// `export { a, b as c }`, `export { a } from "m"`, and `export * from "m"`.
type ExportStatement struct {
	base
	Decl        Statement // non-nil for `export <decl>`
	DefaultExpr Expression
	Specifiers  []ExportSpecifier
	ReExport    ReExportKind
	FromPath    string
}

func (*ExportStatement) stmtNode() {}

// ThrowStatement is `throw expr`.
type ThrowStatement struct {
	base
	Value Expression
}

func (*ThrowStatement) stmtNode() {}

// TryStatement is `try { ... } catch (e) { ... } finally { ... }`; Catch
// and Finally are independently optional (finally is required if a program
// wants cleanup without a catch; catch is required unless finally handles
// everything).
type TryStatement struct {
	base
	Try        []Statement
	CatchParam *Ident
	Catch      []Statement
	Finally    []Statement
}

func (*TryStatement) stmtNode() {}

// RethrowStatement is a bare `throw` inside a catch block, re-raising the
// caught error.
type RethrowStatement struct{ base }

func (*RethrowStatement) stmtNode() {}

// BlockStatement is `{ ... }` used as a statement (brace-delimited block
// syntax, spec.md §4.2).
type BlockStatement struct {
	base
	Body []Statement
}

func (*BlockStatement) stmtNode() {}

// DoStatement is `do ... end` used as a statement (keyword-delimited block
// syntax).
type DoStatement struct {
	base
	Body []Statement
}

func (*DoStatement) stmtNode() {}

// ExpressionStatement wraps a bare expression used as a statement.
type ExpressionStatement struct {
	base
	Expr Expression
}

func (*ExpressionStatement) stmtNode() {}

// MultiAssignStatement is `a, b = b, a` (distinct from the single-target
// compound-assignment [AssignExpr]).
type MultiAssignStatement struct {
	base
	Targets []Expression
	Values  []Expression
}

func (*MultiAssignStatement) stmtNode() {}
