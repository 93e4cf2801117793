// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

// Package resolver turns an import specifier string into a canonical module
// path, per spec.md §4.3. It tries path aliases, then relative resolution,
// then package search paths, then a directory index file, at each candidate
// trying the `.luax`, `.d.luax`, and `.lua` extensions in order.
package resolver

import (
	"path"
	"sort"
	"strings"
)

// Alias is one entry of a path-alias map: Pattern may contain at most one
// `*`, substituted with the matched suffix in each of Replacements.
type Alias struct {
	Pattern      string
	Replacements []string
}

// Config holds the resolver's inputs, mirroring the subset of spec.md §6's
// flat options struct this package needs.
type Config struct {
	// Aliases maps a pattern to one or more replacement templates. Longest
	// prefix wins when multiple patterns match.
	Aliases []Alias
	// BaseURL anchors non-relative, non-aliased bare specifiers.
	BaseURL string
	// SearchPaths are package search path templates, each containing
	// exactly one `?` substitution slot for the specifier.
	SearchPaths []string
	// IndexFileName names the per-directory index module, tried when a
	// resolved path names a directory ("index.luax" by default).
	IndexFileName string
}

// FileExists abstracts filesystem access so the resolver is testable without
// touching disk; callers pass their real stat function in production.
type FileExists func(path string) bool

var extensions = []string{".luax", ".d.luax", ".lua"}

// Resolve resolves specifier, imported from a module at fromPath, to a
// canonical filesystem path. It returns ok=false if no candidate exists
// according to exists.
func Resolve(cfg *Config, fromPath, specifier string, exists FileExists) (resolved string, ok bool) {
	if candidate, ok := resolveAlias(cfg, specifier); ok {
		if isRelative(candidate) {
			candidate = path.Join(path.Dir(fromPath), candidate)
		}
		if r, ok := tryCandidate(cfg, candidate, exists); ok {
			return r, true
		}
	}
	if isRelative(specifier) {
		base := path.Join(path.Dir(fromPath), specifier)
		if r, ok := tryCandidate(cfg, base, exists); ok {
			return r, true
		}
		return "", false
	}
	for _, tmpl := range cfg.SearchPaths {
		candidate := path.Clean(strings.Replace(tmpl, "?", specifier, 1))
		if r, ok := tryCandidate(cfg, candidate, exists); ok {
			return r, true
		}
	}
	if cfg.BaseURL != "" {
		candidate := path.Join(cfg.BaseURL, specifier)
		if r, ok := tryCandidate(cfg, candidate, exists); ok {
			return r, true
		}
	}
	return "", false
}

func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// resolveAlias matches specifier against cfg.Aliases, longest-prefix-wins,
// and returns the first replacement with the matched wildcard substituted
// in, per spec.md §4.3.
func resolveAlias(cfg *Config, specifier string) (string, bool) {
	type match struct {
		prefixLen int
		alias     Alias
		wildcard  string
	}
	var best *match
	for _, a := range cfg.Aliases {
		star := strings.IndexByte(a.Pattern, '*')
		if star < 0 {
			if a.Pattern == specifier {
				m := match{prefixLen: len(a.Pattern), alias: a}
				if best == nil || m.prefixLen > best.prefixLen {
					best = &m
				}
			}
			continue
		}
		prefix, suffix := a.Pattern[:star], a.Pattern[star+1:]
		if strings.HasPrefix(specifier, prefix) && strings.HasSuffix(specifier, suffix) &&
			len(specifier) >= len(prefix)+len(suffix) {
			wildcard := specifier[len(prefix) : len(specifier)-len(suffix)]
			m := match{prefixLen: len(prefix), alias: a, wildcard: wildcard}
			if best == nil || m.prefixLen > best.prefixLen {
				best = &m
			}
		}
	}
	if best == nil || len(best.alias.Replacements) == 0 {
		return "", false
	}
	repl := best.alias.Replacements[0]
	return strings.Replace(repl, "*", best.wildcard, 1), true
}

// tryCandidate tries candidate as a file directly (with each extension), and
// as a directory (joined with the index file name, with each extension).
func tryCandidate(cfg *Config, candidate string, exists FileExists) (string, bool) {
	for _, ext := range extensions {
		p := candidate + ext
		if exists(p) {
			return p, true
		}
	}
	if exists(candidate) {
		return candidate, true
	}
	idx := strings.TrimSuffix(cfg.IndexFileName, path.Ext(cfg.IndexFileName))
	if idx == "" {
		idx = "index"
	}
	for _, ext := range extensions {
		p := path.Join(candidate, idx+ext)
		if exists(p) {
			return p, true
		}
	}
	return "", false
}

// ValidateAlias reports whether pattern contains at most one `*`, per
// spec.md §6.
func ValidateAlias(pattern string) bool {
	return strings.Count(pattern, "*") <= 1
}

// SortedAliasPatterns returns the aliases' patterns sorted for deterministic
// diagnostic output (e.g. "no alias matched; known patterns: ...").
func SortedAliasPatterns(cfg *Config) []string {
	out := make([]string, len(cfg.Aliases))
	for i, a := range cfg.Aliases {
		out[i] = a.Pattern
	}
	sort.Strings(out)
	return out
}
