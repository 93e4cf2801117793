// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

// Package registry holds the module registry and typed dependency graph
// described in spec.md §4.3: a ModuleId-keyed map of parse/check state,
// exports, diagnostics, and a type-check-depth counter that detects
// re-entrant lazy resolution.
package registry

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"github.com/tailscale/hujson"

	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/resolver"
	"luanext.dev/compiler/internal/sortedset"
	"luanext.dev/compiler/internal/typesys"
	"luanext.dev/compiler/internal/xiter"
	"luanext.dev/compiler/internal/xmaps"
)

// ModuleId is a canonical filesystem path identifying a module.
type ModuleId string

// Status is a module entry's position in its Parsed → Checked/Invalid
// lifecycle, per spec.md §3.5.
type Status int

const (
	Parsed Status = iota
	Checked
	Invalid
)

func (s Status) String() string {
	switch s {
	case Parsed:
		return "parsed"
	case Checked:
		return "checked"
	default:
		return "invalid"
	}
}

// EdgeKind classifies a dependency-graph edge, per spec.md §4.3.
type EdgeKind int

const (
	EdgeValue EdgeKind = iota
	EdgeTypeOnly
	EdgeDynamic
)

// Entry is one module's registry record.
type Entry struct {
	ID          ModuleId
	Status      Status
	Program     *lnast.Program
	Exports     map[intern.StringId]*typesys.Type
	Diagnostics diag.Sink

	// checkDepth counts re-entrant calls into type-checking this module,
	// used to cut off circular lazy resolution (spec.md §4.3).
	checkDepth int
}

// Edge is one dependency-graph edge from a dependent module to a dependency.
type Edge struct {
	From, To ModuleId
	Kind     EdgeKind
}

// CheckHook lazily triggers type-checking of an as-yet-unchecked dependency,
// letting the registry resolve a cross-module symbol on demand instead of
// requiring strict check order up front. Implemented by the checker package;
// kept as a function type here to avoid an import cycle.
type CheckHook func(id ModuleId) error

// Registry is the shared, erased-ownership store of every module entered
// into compilation. A "global arena" sentinel per spec.md §4.3 is not
// needed in this implementation: exported types are stored in the
// arena-independent [typesys.Type] representation, which owns no arena
// reference.
type Registry struct {
	mu      sync.RWMutex
	entries map[ModuleId]*Entry
	edges   []Edge
	onCheck CheckHook
}

// New returns an empty Registry. SetCheckHook must be called before
// [Registry.EnsureChecked] is used.
func New() *Registry {
	return &Registry{entries: make(map[ModuleId]*Entry)}
}

// SetCheckHook installs the callback EnsureChecked uses to check an
// unchecked dependency lazily.
func (r *Registry) SetCheckHook(hook CheckHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onCheck = hook
}

// Put registers or replaces the entry for id, in [Parsed] status.
func (r *Registry) Put(id ModuleId, prog *lnast.Program) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := &Entry{ID: id, Status: Parsed, Program: prog, Exports: make(map[intern.StringId]*typesys.Type)}
	r.entries[id] = e
	return e
}

// Get returns the entry for id, if any.
func (r *Registry) Get(id ModuleId) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// MarkChecked transitions id to [Checked] and records its exports.
func (r *Registry) MarkChecked(id ModuleId, exports map[intern.StringId]*typesys.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return
	}
	e.Status = Checked
	e.Exports = exports
}

// MarkInvalid transitions id to [Invalid] after a hard failure.
func (r *Registry) MarkInvalid(id ModuleId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		e.Status = Invalid
	}
}

// AddEdge records a typed dependency-graph edge.
func (r *Registry) AddEdge(from, to ModuleId, kind EdgeKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges = append(r.edges, Edge{From: from, To: to, Kind: kind})
}

// Edges returns every recorded edge.
func (r *Registry) Edges() []Edge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Edge(nil), r.edges...)
}

// SortedIDs returns every registered module id in deterministic sorted
// order, for debug listings and log lines where map iteration order would
// otherwise make two runs over the same inputs diff noisily.
func (r *Registry) SortedIDs() []ModuleId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return xmaps.SortedKeys(r.entries)
}

// AllChecked reports whether every registered module has reached [Checked]
// status, short-circuiting on the first counterexample in sorted id order.
func (r *Registry) AllChecked() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := func(yield func(*Entry) bool) {
		for _, id := range xmaps.SortedKeys(r.entries) {
			if !yield(r.entries[id]) {
				return
			}
		}
	}
	return xiter.All(entries, func(e *Entry) bool { return e.Status == Checked })
}

// ErrTypeCheckInProgress reports re-entrant lazy resolution of a module
// already being checked on the current call stack (spec.md §4.3, E3006).
var ErrTypeCheckInProgress = fmt.Errorf("registry: %s", diag.E3006)

// EnsureChecked lazily type-checks id via the installed [CheckHook] if it is
// not already [Checked], bumping and restoring the entry's depth counter to
// detect circular resolution.
func (r *Registry) EnsureChecked(id ModuleId) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("registry: unknown module %q", id)
	}
	if e.Status == Checked {
		r.mu.Unlock()
		return nil
	}
	if e.checkDepth > 0 {
		r.mu.Unlock()
		return ErrTypeCheckInProgress
	}
	e.checkDepth++
	hook := r.onCheck
	r.mu.Unlock()

	var err error
	if hook != nil {
		err = hook(id)
	}

	r.mu.Lock()
	e.checkDepth--
	r.mu.Unlock()
	return err
}

// ExportType returns the type of a named export from a checked module's
// exports map, resolving it via EnsureChecked first.
func (r *Registry) ExportType(id ModuleId, name intern.StringId) (*typesys.Type, error) {
	if err := r.EnsureChecked(id); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown module %q", id)
	}
	t, ok := e.Exports[name]
	if !ok {
		return nil, fmt.Errorf("registry: module %q has no export %q", id, name)
	}
	return t, nil
}

// TopoOrder returns module ids in topological order following both Value
// and TypeOnly edges (both contribute to ordering per spec.md §4.3), and
// reports whether a Value-edge cycle was found (a fatal error; TypeOnly
// cycles do not block ordering and degrade their participants to Unknown at
// the checker level instead).
func TopoOrder(ids []ModuleId, edges []Edge) (order []ModuleId, valueCycle bool) {
	adj := make(map[ModuleId][]ModuleId)
	indeg := make(map[ModuleId]int)
	for _, id := range ids {
		indeg[id] = 0
	}
	for _, e := range edges {
		adj[e.To] = append(adj[e.To], e.From) // dependency must be ordered before dependent
		indeg[e.From]++
	}

	ready := sortedset.New[ModuleId]()
	for _, id := range ids {
		if indeg[id] == 0 {
			ready.Add(id)
		}
	}
	visited := make(map[ModuleId]bool)
	for ready.Len() > 0 {
		id := ready.At(0)
		next := sortedset.New[ModuleId]()
		for i := 1; i < ready.Len(); i++ {
			next.Add(ready.At(i))
		}
		ready = next
		if visited[id] {
			continue
		}
		visited[id] = true
		order = append(order, id)
		for _, dependent := range adj[id] {
			indeg[dependent]--
			if indeg[dependent] == 0 {
				ready.Add(dependent)
			}
		}
	}
	if len(order) != len(ids) {
		// Remaining nodes form a cycle; report whether any remaining edge
		// among them is a Value edge.
		remaining := make(map[ModuleId]bool)
		for _, id := range ids {
			if !visited[id] {
				remaining[id] = true
			}
		}
		for _, e := range edges {
			if remaining[e.From] && remaining[e.To] && e.Kind == EdgeValue {
				return order, true
			}
		}
		// Append whatever is left in a stable order so callers still see
		// every id (TypeOnly-only cycle: degrade to Unknown, don't fail).
		for _, id := range ids {
			if !visited[id] {
				order = append(order, id)
			}
		}
	}
	return order, false
}

// overridePragmaPattern matches a `@luanext-override { ... }` block comment,
// a tsconfig-style configuration snippet a declaration file's author can
// embed alongside the ambient declarations it describes to carry resolver
// path-alias overrides that only apply when that .d.luax file is on the
// compilation's module graph.
var overridePragmaPattern = regexp.MustCompile(`(?s)/\*\s*@luanext-override\s*(\{.*?\})\s*\*/`)

// OverridePragma is the decoded body of an embedded override pragma.
type OverridePragma struct {
	Aliases []resolver.Alias `json:"aliases"`
}

// ParseOverridePragma scans a declaration file's source for an embedded
// `@luanext-override` pragma and decodes it, tolerating the comments and
// trailing commas a human editing the snippet by hand would leave in
// (spec.md's declaration files are meant to be hand-maintained). It returns
// nil, nil when source carries no pragma at all.
func ParseOverridePragma(source string) (*OverridePragma, error) {
	m := overridePragmaPattern.FindStringSubmatch(source)
	if m == nil {
		return nil, nil
	}
	standardized, err := hujson.Standardize([]byte(m[1]))
	if err != nil {
		return nil, fmt.Errorf("registry: parse override pragma: %w", err)
	}
	var p OverridePragma
	if err := json.Unmarshal(standardized, &p); err != nil {
		return nil, fmt.Errorf("registry: decode override pragma: %w", err)
	}
	return &p, nil
}
