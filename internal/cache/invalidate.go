// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"slices"

	"luanext.dev/compiler/internal/deque"
)

// StaleReason classifies why a cached module was rejected, per spec.md
// §4.8's "a module is stale if any of: its source hash changed, a
// transitive dependency's hash changed ..., the compiler-config hash
// changed, or the cache version changed."
type StaleReason int

const (
	Fresh StaleReason = iota
	NotCached
	SourceChanged
	ConfigChanged
	FormatChanged
)

func (r StaleReason) String() string {
	switch r {
	case Fresh:
		return "fresh"
	case NotCached:
		return "not cached"
	case SourceChanged:
		return "source changed"
	case ConfigChanged:
		return "config changed"
	case FormatChanged:
		return "cache format changed"
	default:
		return "unknown"
	}
}

// CheckStale reports why path's manifest entry is stale, if at all.
// currentHash is the module's own content hash folded with its current
// dependency hashes (see [FoldHash]); the caller is responsible for
// recomputing it from the live dependency graph before calling CheckStale,
// since the manifest only stores what was last written.
func (m *Manifest) CheckStale(ctx context.Context, path, currentHash, configHash string) (StaleReason, error) {
	storedVersion, err := m.FormatVersionStored(ctx)
	if err != nil {
		return Fresh, err
	}
	if storedVersion != FormatVersion {
		return FormatChanged, nil
	}

	storedConfigHash, err := m.ConfigHash(ctx)
	if err != nil {
		return Fresh, err
	}
	if storedConfigHash != configHash {
		return ConfigChanged, nil
	}

	entry, ok, err := m.Lookup(ctx, path)
	if err != nil {
		return Fresh, err
	}
	if !ok {
		return NotCached, nil
	}
	if entry.ContentHash != currentHash {
		return SourceChanged, nil
	}
	return Fresh, nil
}

// Invalidate returns every module path that must be rechecked given the
// directly-changed paths in changed: changed itself, plus every transitive
// dependent reached by breadth-first search over the manifest's
// reverse-dependency edges, per spec.md §4.8.
func (m *Manifest) Invalidate(ctx context.Context, changed []string) ([]string, error) {
	seen := make(map[string]bool, len(changed))
	work := deque.Collect(slices.Values(changed))
	for _, p := range changed {
		seen[p] = true
	}

	var out []string
	for work.Len() > 0 {
		p, _ := work.Front()
		work.PopFront(1)
		out = append(out, p)

		dependents, err := m.DependentsOf(ctx, p)
		if err != nil {
			return nil, err
		}
		for _, d := range dependents {
			if !seen[d] {
				seen[d] = true
				work.PushBack(d)
			}
		}
	}
	return out, nil
}

// DeclHashesUnchanged reports whether every declaration hash in next
// already appeared with the same hash in prev, i.e. this module's public
// declaration signatures are unchanged even though its body was
// recompiled. When true, a dependent module that only used the changed
// module's declarations (not its implementation) can skip re-checking,
// per spec.md §4.8's fine-grained invalidation.
func DeclHashesUnchanged(prev, next map[string]string) bool {
	if len(prev) != len(next) {
		return false
	}
	for name, hash := range next {
		if prev[name] != hash {
			return false
		}
	}
	return true
}
