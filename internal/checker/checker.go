// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package checker

import (
	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/registry"
	"luanext.dev/compiler/internal/resolver"
	"luanext.dev/compiler/internal/typesys"
)

// Module is the per-module state threaded through all five phases.
type Module struct {
	ID      registry.ModuleId
	Program *lnast.Program
	Sink    *diag.Sink
	It      *intern.Interner

	Symbols map[Name]*Symbol
	// ClassHierarchy maps a class name to its ClassInfo, filled during
	// phase 2 and consumed from phase 3 onward.
	ClassHierarchy map[Name]*typesys.ClassInfo
	Exports        map[Name]*typesys.Type
	// ExportTypeOnly mirrors which Exports entries were re-exported or
	// declared type-only, per the module phase's type-only-edge rule.
	ExportTypeOnly map[Name]bool
}

// Checker runs the five-phase check (spec.md §4.4.6) over modules in
// topological order, coordinating with a [registry.Registry] for
// cross-module symbol visibility and a [resolver.Config] for import-path
// resolution.
type Checker struct {
	Reg        *registry.Registry
	ResolveCfg *resolver.Config
	FileExists resolver.FileExists
	It         *intern.Interner
}

// New returns a Checker wired to reg, using cfg and exists for import
// resolution.
func New(reg *registry.Registry, cfg *resolver.Config, exists resolver.FileExists, it *intern.Interner) *Checker {
	c := &Checker{Reg: reg, ResolveCfg: cfg, FileExists: exists, It: it}
	reg.SetCheckHook(func(id registry.ModuleId) error {
		e, ok := reg.Get(id)
		if !ok {
			return nil
		}
		_, err := c.Check(e.Program, id)
		return err
	})
	return c
}

// Check runs all five phases over prog, registers its exports with the
// registry, and returns the resulting Module (best-effort even on error:
// per spec.md §7, type errors are collected but do not abort later phases).
func (c *Checker) Check(prog *lnast.Program, id registry.ModuleId) (*Module, error) {
	entry, ok := c.Reg.Get(id)
	if !ok {
		entry = c.Reg.Put(id, prog)
	}
	m := &Module{
		ID:             id,
		Program:        prog,
		Sink:           &entry.Diagnostics,
		It:             c.It,
		Symbols:        make(map[Name]*Symbol),
		ClassHierarchy: make(map[Name]*typesys.ClassInfo),
		Exports:        make(map[Name]*typesys.Type),
		ExportTypeOnly: make(map[Name]bool),
	}

	declarationPhase(m)
	declarationCheckPhase(m)
	c.modulePhase(m)
	inferencePhase(m)
	validationPhase(m)

	if entry.Diagnostics.HasErrors() {
		c.Reg.MarkInvalid(id)
	} else {
		c.Reg.MarkChecked(id, m.Exports)
	}
	return m, nil
}
