// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

// Package checker implements the five-phase type checker of spec.md §4.4.6:
// declaration, declaration checking, module, inference, and validation, run
// in order for each module in topological order.
package checker

import (
	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/typesys"
)

// SymbolKind classifies a declared top-level symbol (spec.md §4.4.6 phase 1
// lists: variable, function, class, interface, alias, enum, namespace,
// parameter).
type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymFunction
	SymClass
	SymInterface
	SymAlias
	SymEnum
	SymNamespace
	SymParameter
	SymImport
)

// Symbol is one entry of a module's top-level symbol table.
type Symbol struct {
	Name Name
	Kind SymbolKind
	// Decl is the declaring statement, nil for an imported/parameter
	// symbol.
	Decl Statement
	// Type is filled in during phase 2 (declaration checking, see
	// declcheck.go) and, for imported symbols, during phase 3. Phase 4
	// infers variable and function types into its own scopes and does not
	// write this field.
	Type *typesys.Type
	// Class is not set by any checker phase; resolved class shapes are
	// kept in [Module.ClassHierarchy].
	Class *typesys.ClassInfo
	// FromImport is set when this symbol was introduced by an import
	// statement, naming the source module path and export name.
	FromImport     bool
	ImportModule   string
	ImportExport   Name
	ImportTypeOnly bool
}

type (
	Name      = intern.StringId
	Statement = lnast.Statement
)

// Scope is a lexical scope chain used during phase 4 inference to resolve
// identifiers to their narrowed or declared type.
type Scope struct {
	parent *Scope
	vars   map[Name]*typesys.Type
}

// NewScope returns a child scope of parent (nil for the module's root
// scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: make(map[Name]*typesys.Type)}
}

// Declare binds name to t in s.
func (s *Scope) Declare(name Name, t *typesys.Type) {
	s.vars[name] = t
}

// Lookup resolves name up the scope chain.
func (s *Scope) Lookup(name Name) (*typesys.Type, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if t, ok := cur.vars[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// Narrow rebinds name to a narrowed type within s without affecting parent
// scopes, used when entering a guarded branch (spec.md §4.4.4).
func (s *Scope) Narrow(name Name, t *typesys.Type) {
	s.vars[name] = t
}
