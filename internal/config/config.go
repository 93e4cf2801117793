// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

// Package config defines the flat compiler options struct of spec.md §6.
// The struct itself is encoding-agnostic: the external YAML project-config
// loader (out of scope per spec.md §1) is responsible for populating one
// from a project file, and the external CLI argument parser overlays flags
// on top of it. This package owns validation of the populated struct and
// the derived ConfigHash used to key the incremental cache (spec.md §4.8).
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"luanext.dev/compiler/internal/codegen"
	"luanext.dev/compiler/internal/optimizer"
	"luanext.dev/compiler/internal/resolver"
)

// StrictNaming selects the severity of naming-convention diagnostics.
type StrictNaming int

const (
	NamingOff StrictNaming = iota
	NamingWarning
	NamingError
)

func (s StrictNaming) String() string {
	switch s {
	case NamingWarning:
		return "warning"
	case NamingError:
		return "error"
	default:
		return "off"
	}
}

// Auto requests the compiler pick an optimization level for the current
// build (debug builds get [optimizer.O0], release builds [optimizer.O2]).
// It is not a member of [optimizer.Level]; Options.ResolveLevel maps it down.
const Auto optimizer.Level = -1

// Options is the flat struct spec.md §6 enumerates. Every field is a
// direct projection of a YAML project-config key; the loader that produces
// one is an external collaborator (spec.md §1).
type Options struct {
	// Target selects the emitted Lua dialect.
	Target codegen.Target

	// StrictNullChecks requires `T | nil` to be narrowed before member
	// access or arithmetic on T.
	StrictNullChecks bool
	// StrictNaming selects the naming-convention diagnostic severity.
	StrictNaming StrictNaming
	// NoImplicitUnknown rejects an inferred type that would otherwise
	// fall back to unknown.
	NoImplicitUnknown bool
	// NoExplicitUnknown rejects a user-written `unknown` annotation.
	NoExplicitUnknown bool
	// EnableDecorators turns on parsing and codegen of `@decorator` forms.
	EnableDecorators bool
	// AllowNonTypedLua permits `.lua` sources to be imported without type
	// declarations, typed as unknown throughout.
	AllowNonTypedLua bool
	// CopyLuaToOutput copies untouched `.lua` inputs into the output
	// directory rather than requiring them from their source location.
	CopyLuaToOutput bool

	// SourceMap enables Source Map v3 emission (spec.md §4.7).
	SourceMap bool
	// InlineSourceMap additionally (or instead) emits the map as a
	// `--# sourceMappingURL=` base64 data URI.
	InlineSourceMap bool
	// NoEmit runs the full pipeline (diagnostics still reported) without
	// writing any `.lua`/`.lua.map` output.
	NoEmit bool
	// Pretty renders diagnostics with a source code frame rather than a
	// single-line message.
	Pretty bool

	// Module selects require-per-file vs single-bundle output.
	Module codegen.ModuleMode
	// ModulePathTemplates are package search path templates, each
	// containing exactly one `?`.
	ModulePathTemplates []string
	// PathAliases maps a pattern (at most one `*`) to replacement
	// templates, longest-prefix-wins.
	PathAliases []resolver.Alias
	// BaseURL anchors bare (non-relative, non-aliased) specifiers.
	BaseURL string
	// NamespacePathEnforcement requires a module's `namespace` to match
	// its path relative to BaseURL.
	NamespacePathEnforcement bool

	// OutputFormat selects whitespace density of emitted Lua.
	OutputFormat codegen.Format
	// OptimizationLevel selects which optimizer passes run; [Auto] lets
	// the driver pick based on build mode (see ResolveLevel).
	OptimizationLevel optimizer.Level
	// Reflection selects how much type metadata codegen embeds.
	Reflection codegen.ReflectionMode

	// Include and Exclude are glob lists filtering which source files the
	// driver discovers; Exclude wins on overlap.
	Include []string
	Exclude []string

	// OutDir and OutFile select the emitted layout. Validate accepts
	// OutFile only in Bundle mode; it does not check that only one of the
	// two is set.
	OutDir  string
	OutFile string
}

// Default returns an Options with the spec's documented defaults: Lua 5.4,
// strict null checks on, naming off, require-mode modules, readable
// output, auto optimization.
func Default() Options {
	return Options{
		Target:            codegen.Lua54,
		StrictNullChecks:  true,
		StrictNaming:      NamingOff,
		Module:            codegen.ModuleRequire,
		OutputFormat:      codegen.Readable,
		OptimizationLevel: Auto,
		Reflection:        codegen.ReflectionNone,
		OutDir:            ".",
	}
}

// ResolveLevel maps [Auto] to a concrete level: O0 when release is false
// (an editor/LSP build favors fast turnaround over tight output), O2
// otherwise. A non-Auto value passes through unchanged.
func (o Options) ResolveLevel(release bool) optimizer.Level {
	if o.OptimizationLevel != Auto {
		return o.OptimizationLevel
	}
	if release {
		return optimizer.O2
	}
	return optimizer.O0
}

// Validate reports the first configuration error found, per spec.md §6's
// exit code 3 ("configuration error"). It checks the invariants this
// package alone is responsible for; it does not reach into the resolver or
// codegen packages' own preconditions.
func (o Options) Validate() error {
	for _, a := range o.PathAliases {
		if !resolver.ValidateAlias(a.Pattern) {
			return fmt.Errorf("config: path alias %q has more than one '*'", a.Pattern)
		}
	}
	for _, t := range o.ModulePathTemplates {
		if strings.Count(t, "?") != 1 {
			return fmt.Errorf("config: module path template %q must contain exactly one '?'", t)
		}
	}
	if o.OutFile != "" && o.Module != codegen.ModuleBundle {
		return fmt.Errorf("config: out-file is only valid in bundle module mode")
	}
	return nil
}

// ResolverConfig projects the subset of Options the resolver package
// needs into a [resolver.Config].
func (o Options) ResolverConfig() *resolver.Config {
	return &resolver.Config{
		Aliases:       o.PathAliases,
		BaseURL:       o.BaseURL,
		SearchPaths:   o.ModulePathTemplates,
		IndexFileName: "index.luax",
	}
}

// CodegenOptions projects the subset of Options the code generator needs
// into a [codegen.Options]. sourceFile names the module being emitted, for
// the source map's `sources` entry.
func (o Options) CodegenOptions(sourceFile string) codegen.Options {
	return codegen.Options{
		Target:          o.Target,
		Format:          o.OutputFormat,
		Module:          o.Module,
		Reflection:      o.Reflection,
		SourceFile:      sourceFile,
		EmitSourceMap:   o.SourceMap,
		InlineSourceMap: o.InlineSourceMap,
	}
}

// Hash returns the compiler-config hash spec.md §4.8 folds into every
// cached module's key: a SHA-256 over a deterministic textual rendering of
// every field that affects compilation output (not the ones that only
// affect diagnostics presentation, like Pretty).
func (o Options) Hash() string {
	var b strings.Builder
	fmt.Fprintf(&b, "target=%s\n", o.Target)
	fmt.Fprintf(&b, "strictNull=%t\n", o.StrictNullChecks)
	fmt.Fprintf(&b, "strictNaming=%s\n", o.StrictNaming)
	fmt.Fprintf(&b, "noImplicitUnknown=%t\n", o.NoImplicitUnknown)
	fmt.Fprintf(&b, "noExplicitUnknown=%t\n", o.NoExplicitUnknown)
	fmt.Fprintf(&b, "decorators=%t\n", o.EnableDecorators)
	fmt.Fprintf(&b, "allowNonTypedLua=%t\n", o.AllowNonTypedLua)
	fmt.Fprintf(&b, "sourceMap=%t\n", o.SourceMap)
	fmt.Fprintf(&b, "inlineSourceMap=%t\n", o.InlineSourceMap)
	fmt.Fprintf(&b, "module=%d\n", o.Module)
	fmt.Fprintf(&b, "format=%d\n", o.OutputFormat)
	fmt.Fprintf(&b, "level=%d\n", o.OptimizationLevel)
	fmt.Fprintf(&b, "reflection=%d\n", o.Reflection)
	fmt.Fprintf(&b, "baseURL=%s\n", o.BaseURL)
	fmt.Fprintf(&b, "namespaceEnforce=%t\n", o.NamespacePathEnforcement)

	templates := append([]string(nil), o.ModulePathTemplates...)
	sort.Strings(templates)
	for _, t := range templates {
		fmt.Fprintf(&b, "search=%s\n", t)
	}

	aliases := append([]resolver.Alias(nil), o.PathAliases...)
	sort.Slice(aliases, func(i, j int) bool { return aliases[i].Pattern < aliases[j].Pattern })
	for _, a := range aliases {
		fmt.Fprintf(&b, "alias=%s=>%s\n", a.Pattern, strings.Join(a.Replacements, ","))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
