// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"zombiezen.com/go/log"

	"luanext.dev/compiler/internal/cache"
	"luanext.dev/compiler/internal/checker"
	"luanext.dev/compiler/internal/codegen"
	"luanext.dev/compiler/internal/config"
	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/lnparser"
	"luanext.dev/compiler/internal/lto"
	"luanext.dev/compiler/internal/optimizer"
	"luanext.dev/compiler/internal/registry"
	"luanext.dev/compiler/internal/resolver"
	"luanext.dev/compiler/internal/sets"
)

type buildFlags struct {
	target    string
	level     string
	module    string
	outDir    string
	format    string
	sourceMap bool
	noEmit    bool
	plain     bool
	cacheDir  string
	noCache   bool
	baseURL   string
	include   []string
	exclude   []string
}

func newBuildCommand() *cobra.Command {
	f := new(buildFlags)
	c := &cobra.Command{
		Use:                   "build [FILE...]",
		Short:                 "compile one or more .luax modules to Lua",
		DisableFlagsInUseLine: true,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.Flags().StringVar(&f.target, "target", "5.4", "Lua target version (5.1, 5.2, 5.3, 5.4, 5.5, jit)")
	c.Flags().StringVar(&f.level, "opt", "auto", "optimization level (none, minimal, moderate, aggressive, auto)")
	c.Flags().StringVar(&f.module, "module", "require", "module output mode (require, bundle)")
	c.Flags().StringVar(&f.outDir, "out-dir", ".", "output directory")
	c.Flags().StringVar(&f.format, "format", "readable", "output format (readable, compact, minified)")
	c.Flags().BoolVar(&f.sourceMap, "source-map", false, "emit a Source Map v3 sidecar file")
	c.Flags().BoolVar(&f.noEmit, "no-emit", false, "run diagnostics without writing output")
	c.Flags().BoolVar(&f.plain, "plain", false, "print diagnostics without a source code frame")
	c.Flags().StringVar(&f.cacheDir, "cache-dir", ".luanext-cache", "incremental cache directory")
	c.Flags().BoolVar(&f.noCache, "no-cache", false, "bypass the incremental compilation cache")
	c.Flags().StringVar(&f.baseURL, "base-url", "", "base URL anchoring bare import specifiers")
	c.Flags().StringArrayVar(&f.include, "include", nil, "glob pattern to add to the positional FILE list")
	c.Flags().StringArrayVar(&f.exclude, "exclude", nil, "glob pattern excluded from --include (wins on overlap)")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		paths, err := resolveInputPaths(args, f.include, f.exclude)
		if err != nil {
			return configError(err)
		}
		if len(paths) == 0 {
			return configError(fmt.Errorf("no input files: pass FILE arguments or --include globs"))
		}
		return runBuild(cmd.Context(), f, paths)
	}
	return c
}

// resolveInputPaths merges explicit positional file arguments with
// --include/--exclude glob expansion, deduplicating the result.
func resolveInputPaths(args, include, exclude []string) ([]string, error) {
	discovered, err := discoverSources(include, exclude)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(args)+len(discovered))
	var out []string
	for _, p := range args {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range discovered {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

// parseTarget maps a --target flag value to a [codegen.Target].
func parseTarget(s string) (codegen.Target, error) {
	switch strings.ToLower(s) {
	case "5.1", "51":
		return codegen.Lua51, nil
	case "5.2", "52":
		return codegen.Lua52, nil
	case "5.3", "53":
		return codegen.Lua53, nil
	case "5.4", "54":
		return codegen.Lua54, nil
	case "5.5", "55":
		return codegen.Lua55, nil
	case "jit", "luajit":
		return codegen.LuaJIT, nil
	default:
		return 0, fmt.Errorf("unknown target %q", s)
	}
}

func parseLevel(s string) (optimizer.Level, error) {
	switch strings.ToLower(s) {
	case "none":
		return optimizer.O0, nil
	case "minimal":
		return optimizer.O1, nil
	case "moderate":
		return optimizer.O2, nil
	case "aggressive":
		return optimizer.O3, nil
	case "auto":
		return config.Auto, nil
	default:
		return 0, fmt.Errorf("unknown optimization level %q", s)
	}
}

func parseFormat(s string) (codegen.Format, error) {
	switch strings.ToLower(s) {
	case "readable":
		return codegen.Readable, nil
	case "compact":
		return codegen.Compact, nil
	case "minified":
		return codegen.Minified, nil
	default:
		return 0, fmt.Errorf("unknown output format %q", s)
	}
}

func parseModuleMode(s string) (codegen.ModuleMode, error) {
	switch strings.ToLower(s) {
	case "require":
		return codegen.ModuleRequire, nil
	case "bundle":
		return codegen.ModuleBundle, nil
	default:
		return 0, fmt.Errorf("unknown module mode %q", s)
	}
}

// sourceUnit is one file's state as it moves through the pipeline.
type sourceUnit struct {
	id        registry.ModuleId
	path      string
	text      string
	program   *lnast.Program
	outCode   string
	outMap    *codegen.SourceMap
	fromCache bool
	// rewriteImport maps an `@/`-style alias specifier to the relative
	// require path emitted for it (spec.md §6's emit-time alias rewrite).
	rewriteImport func(string) string
}

func runBuild(ctx context.Context, f *buildFlags, paths []string) error {
	target, err := parseTarget(f.target)
	if err != nil {
		return configError(err)
	}
	level, err := parseLevel(f.level)
	if err != nil {
		return configError(err)
	}
	format, err := parseFormat(f.format)
	if err != nil {
		return configError(err)
	}
	module, err := parseModuleMode(f.module)
	if err != nil {
		return configError(err)
	}

	opts := config.Default()
	opts.Target = target
	opts.OptimizationLevel = level
	opts.OutputFormat = format
	opts.Module = module
	opts.SourceMap = f.sourceMap
	opts.NoEmit = f.noEmit
	opts.Pretty = !f.plain
	opts.BaseURL = f.baseURL
	opts.OutDir = f.outDir
	opts.Include = f.include
	opts.Exclude = f.exclude
	if err := opts.Validate(); err != nil {
		return configError(err)
	}

	absPaths := make([]string, len(paths))
	for i, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return ioError(err)
		}
		absPaths[i] = abs
	}

	it := intern.New()
	reg := registry.New()
	resolveCfg := opts.ResolverConfig()
	fileExists := func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	}
	chk := checker.New(reg, resolveCfg, fileExists, it)
	installSingleflightCheckHook(reg, chk)

	var man *cache.Manifest
	if !f.noCache {
		if err := os.MkdirAll(f.cacheDir, 0o777); err != nil {
			return ioError(err)
		}
		man = cache.Open(filepath.Join(f.cacheDir, "manifest.db"))
		defer man.Close()
		log.Debugf(ctx, "cache: opened manifest, generation %s", man.GenerationID())
		if err := man.SetConfigHash(ctx, opts.Hash()); err != nil {
			log.Debugf(ctx, "cache: config hash write failed: %v", err)
		}
		if err := man.MarkFormatVersion(ctx); err != nil {
			log.Debugf(ctx, "cache: format version write failed: %v", err)
		}
		overrides, err := cache.LoadDebugOverrides(filepath.Join(f.cacheDir, "manifest.debug.jsonc"))
		if err != nil {
			log.Debugf(ctx, "cache: %v", err)
		} else if err := man.ApplyDebugOverrides(ctx, overrides); err != nil {
			log.Debugf(ctx, "cache: %v", err)
		}
	}

	units, err := parseAll(ctx, it, reg, absPaths)
	if err != nil {
		return err
	}
	applyDeclarationOverrides(ctx, resolveCfg, units)

	graph := lto.NewGraph(func(from registry.ModuleId, spec string) (registry.ModuleId, bool) {
		resolved, ok := resolver.Resolve(resolveCfg, string(from), spec, fileExists)
		if !ok {
			return "", false
		}
		return registry.ModuleId(resolved), true
	})
	for _, u := range units {
		graph.Scan(u.id, u.program)
	}
	for _, u := range units {
		graph.MarkReferenced(u.id, lto.CollectUsedNames(u.program))
	}
	graph.MarkExportsUsed()
	seedDependencyEdges(reg, graph)

	order, valueCycle := registry.TopoOrder(moduleIDs(units), reg.Edges())
	if valueCycle {
		return fmt.Errorf("circular value import detected among: %s", strings.Join(pathsOf(units), ", "))
	}

	if err := checkBatches(ctx, reg, order); err != nil {
		return err
	}
	if !reg.AllChecked() {
		log.Debugf(ctx, "registry: modules still unchecked after checkBatches: %v", reg.SortedIDs())
	}

	entryPoints := moduleIDs(units)
	reachable := graph.Reachable(entryPoints)

	hadErrors := false
	g, _ := errgroup.WithContext(ctx)
	for _, u := range units {
		u := u
		u.rewriteImport = aliasRequireRewriter(resolveCfg, fileExists, u)
		g.Go(func() error {
			return compileUnit(ctx, &opts, man, graph, reachable, entryPoints, it, u)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var diagBuilder strings.Builder
	for _, u := range units {
		entry, _ := reg.Get(u.id)
		ds := entry.Diagnostics.Sorted()
		if len(ds) == 0 {
			continue
		}
		if entry.Diagnostics.HasErrors() {
			hadErrors = true
		}
		diag.PrettyPrint(&diagBuilder, u.text, ds, f.plain)
	}
	if diagBuilder.Len() > 0 {
		fmt.Fprint(os.Stderr, diagBuilder.String())
	}

	if !opts.NoEmit {
		for _, u := range units {
			if err := writeOutput(&opts, u); err != nil {
				return ioError(err)
			}
		}
	}

	if hadErrors {
		return fmt.Errorf("compilation failed with errors")
	}
	return nil
}

func moduleIDs(units []*sourceUnit) []registry.ModuleId {
	ids := make([]registry.ModuleId, len(units))
	for i, u := range units {
		ids[i] = u.id
	}
	return ids
}

// seedDependencyEdges records a registry edge for every import the module
// graph's scan discovered, so [registry.TopoOrder] can batch modules before
// any type-checking happens — the checker's own module phase (spec.md
// §4.4.6 phase 3) adds the same edges again lazily as it resolves each
// import symbol, which is harmless: AddEdge has no dedup requirement, and
// duplicate edges only make [topoBatches]'s level computation a little more
// conservative, never wrong.
func seedDependencyEdges(reg *registry.Registry, graph *lto.Graph) {
	for id, entry := range graph.Entries {
		for _, imp := range entry.Imports {
			if imp.SourceModule == "" {
				continue
			}
			kind := registry.EdgeValue
			if imp.IsTypeOnly {
				kind = registry.EdgeTypeOnly
			}
			reg.AddEdge(id, imp.SourceModule, kind)
		}
	}
}

// applyDeclarationOverrides scans every parsed .d.luax unit for an embedded
// `@luanext-override` pragma (spec.md's tsconfig-style override snippets
// for hand-maintained declaration files) and folds any path aliases it
// declares into cfg, ahead of module resolution.
func applyDeclarationOverrides(ctx context.Context, cfg *resolver.Config, units []*sourceUnit) {
	for _, u := range units {
		if !strings.HasSuffix(u.path, ".d.luax") {
			continue
		}
		pragma, err := registry.ParseOverridePragma(u.text)
		if err != nil {
			log.Debugf(ctx, "registry: %v", err)
			continue
		}
		if pragma == nil {
			continue
		}
		cfg.Aliases = append(cfg.Aliases, pragma.Aliases...)
	}
}

// deadImportNames returns the local binding names of every non-type-only
// import the link-time analysis found unreferenced, keyed for
// [codegen.Options.DeadImports].
func deadImportNames(imports []lto.ImportInfo) map[lnast.Name]bool {
	dead := make(map[lnast.Name]bool)
	for _, imp := range imports {
		if !imp.IsReferenced && !imp.IsTypeOnly {
			dead[imp.Name] = true
		}
	}
	return dead
}

func isEntryPoint(id registry.ModuleId, entryPoints []registry.ModuleId) bool {
	for _, ep := range entryPoints {
		if ep == id {
			return true
		}
	}
	return false
}

// reachableExportNames resolves the surviving exports' interned names into
// the string set the code generator's return-table filter consumes.
func reachableExportNames(it *intern.Interner, exports []lto.ExportInfo) map[string]bool {
	keep := make(map[string]bool, len(exports))
	for _, exp := range exports {
		if exp.IsDefault {
			keep["__default"] = true
			continue
		}
		if s, ok := it.Resolve(exp.Name); ok {
			keep[s] = true
		}
	}
	return keep
}

// aliasRequireRewriter returns the emit-time rewrite for u's import
// specifiers: an alias-prefixed specifier (`@/x`) resolves through the
// module resolver and re-emits as a relative path from u's directory, with
// the source extension stripped (spec.md §6). Relative and package
// specifiers pass through untouched.
func aliasRequireRewriter(cfg *resolver.Config, exists resolver.FileExists, u *sourceUnit) func(string) string {
	return func(spec string) string {
		if !strings.HasPrefix(spec, "@") {
			return spec
		}
		resolved, ok := resolver.Resolve(cfg, string(u.id), spec, exists)
		if !ok {
			return spec
		}
		rel, err := filepath.Rel(filepath.Dir(u.path), resolved)
		if err != nil {
			return spec
		}
		rel = strings.TrimSuffix(rel, ".luax")
		rel = strings.TrimSuffix(rel, ".lua")
		rel = strings.TrimSuffix(rel, ".d")
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, ".") {
			rel = "./" + rel
		}
		return rel
	}
}

func pathsOf(units []*sourceUnit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.path
	}
	return out
}

// parseAll lexes and parses every input file in parallel (spec.md §5:
// "parsing and codegen are parallel across files"), registering each
// result with reg as it completes.
func parseAll(ctx context.Context, it *intern.Interner, reg *registry.Registry, paths []string) ([]*sourceUnit, error) {
	units := make([]*sourceUnit, len(paths))
	g, _ := errgroup.WithContext(ctx)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			data, err := os.ReadFile(p)
			if err != nil {
				return ioError(err)
			}
			sink := new(diag.Sink)
			prog := lnparser.Parse(string(data), it, sink)
			units[i] = &sourceUnit{id: registry.ModuleId(p), path: p, text: string(data), program: prog}
			entry := reg.Put(registry.ModuleId(p), prog)
			for _, d := range sink.All() {
				entry.Diagnostics.Report(d)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

// installSingleflightCheckHook replaces the checker's default registry hook
// with one guarded by a [singleflight.Group], so that two goroutines racing
// to lazily check the same not-yet-checked dependency (one via
// [registry.Registry.EnsureChecked] during cross-module resolution, one via
// [checkBatches]'s own concurrent batch) collapse into a single [checker.Checker.Check]
// call instead of running the five phases twice over the same module
// (spec.md §5's shared-ownership discipline extended to the lazy-resolution
// path).
func installSingleflightCheckHook(reg *registry.Registry, chk *checker.Checker) {
	var sf singleflight.Group
	reg.SetCheckHook(func(id registry.ModuleId) error {
		_, err, _ := sf.Do(string(id), func() (any, error) {
			entry, ok := reg.Get(id)
			if !ok || entry.Status == registry.Checked {
				return nil, nil
			}
			_, err := chk.Check(entry.Program, id)
			return nil, err
		})
		return err
	})
}

// checkBatches runs the five-phase checker over modules in topological
// batches: all modules in a batch have no unchecked same-batch dependency,
// so they check concurrently (spec.md §5's "dependent modules wait for
// their predecessors to reach Checked"). Each call goes through the
// registry's [registry.Registry.EnsureChecked], which in turn invokes the
// singleflight-guarded hook installed by [installSingleflightCheckHook].
func checkBatches(ctx context.Context, reg *registry.Registry, order []registry.ModuleId) error {
	batches := topoBatches(order, reg.Edges())
	for _, batch := range batches {
		g, _ := errgroup.WithContext(ctx)
		for _, id := range batch {
			id := id
			g.Go(func() error { return reg.EnsureChecked(id) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// topoBatches groups a topological order into levels: every module in
// batch i depends only on modules in batches < i, so modules within a
// batch may check concurrently.
func topoBatches(order []registry.ModuleId, edges []registry.Edge) [][]registry.ModuleId {
	depOf := make(map[registry.ModuleId][]registry.ModuleId)
	for _, e := range edges {
		depOf[e.From] = append(depOf[e.From], e.To)
	}
	level := make(map[registry.ModuleId]int, len(order))
	maxLevel := 0
	for _, id := range order {
		l := 0
		for _, dep := range depOf[id] {
			if dl, ok := level[dep]; ok && dl+1 > l {
				l = dl + 1
			}
		}
		level[id] = l
		if l > maxLevel {
			maxLevel = l
		}
	}
	batches := make([][]registry.ModuleId, maxLevel+1)
	for _, id := range order {
		batches[level[id]] = append(batches[level[id]], id)
	}
	return batches
}

// compileUnit runs the optimizer, per-module LTO passes, and code
// generation for one already-checked module, consulting the incremental
// cache first when one is configured.
func compileUnit(ctx context.Context, opts *config.Options, man *cache.Manifest, graph *lto.Graph, reachable sets.Set[registry.ModuleId], entryPoints []registry.ModuleId, it *intern.Interner, u *sourceUnit) error {
	configHash := opts.Hash()
	ownHash := cache.ContentHash([]byte(u.text))

	if man != nil {
		reason, err := man.CheckStale(ctx, u.path, ownHash, configHash)
		if err == nil && reason == cache.Fresh {
			if entry, ok, err := man.Lookup(ctx, u.path); err == nil && ok {
				if rec, err := cache.DecodeRecord(entry.Record); err == nil {
					if code, ok := rec.CodegenMeta["code"]; ok {
						u.outCode = code
						u.fromCache = true
						log.Debugf(ctx, "cache hit for %s", u.path)
						return nil
					}
				}
			}
		}
	}

	mp := lnast.NewMutableProgram(u.program)
	mp.Interner = it
	resolvedLevel := opts.ResolveLevel(true)
	optimizer.Run(mp, resolvedLevel)
	optimized := mp.Freeze()

	cgOpts := opts.CodegenOptions(u.path)
	cgOpts.RewriteImportPath = u.rewriteImport
	if entry, ok := graph.Entries[u.id]; ok && resolvedLevel >= optimizer.O2 {
		if !lto.ShouldCompile(u.id, reachable, entryPoints) {
			u.outCode = ""
			return nil
		}
		cgOpts.DeadImports = deadImportNames(entry.Imports)
		entry.Imports = lto.DeadImportElimination(entry.Imports)
		if !isEntryPoint(u.id, entryPoints) {
			// Entry points keep their full export surface (an external
			// caller may require them); everything else trims to what some
			// other module actually imports (spec.md §4.6's dead-export
			// elimination).
			cgOpts.ReachableExports = reachableExportNames(it, lto.DeadExportElimination(entry.Exports))
		}
	}

	gen := codegen.NewGenerator(cgOpts, it)
	result, err := gen.Generate(optimized)
	if err != nil {
		return fmt.Errorf("codegen %s: %w", u.path, err)
	}
	u.outCode = result.Code
	u.outMap = result.SourceMap

	if man != nil {
		rec := &cache.Record{
			SourceText:  u.text,
			ContentHash: ownHash,
			CodegenMeta: map[string]string{"code": u.outCode},
		}
		encoded, err := cache.EncodeRecord(rec)
		if err != nil {
			log.Debugf(ctx, "cache: encode failed for %s: %v", u.path, err)
		} else if err := man.Put(ctx, cache.Entry{
			Path:        u.path,
			ContentHash: ownHash,
			ConfigHash:  configHash,
			Record:      encoded,
		}, nil); err != nil {
			// A write failure invalidates only this module's entry; per
			// spec.md §7 the process never aborts on cache problems.
			log.Debugf(ctx, "cache: write failed for %s: %v", u.path, err)
		}
	}
	return nil
}

func writeOutput(opts *config.Options, u *sourceUnit) error {
	if u.outCode == "" {
		// Either unreachable under LTO or a declaration-only module that
		// emits no runtime body (spec.md §8 boundary cases).
		return nil
	}
	outPath := outputPath(opts, u.path)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o777); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, []byte(u.outCode), 0o666); err != nil {
		return err
	}
	if u.outMap != nil && opts.SourceMap && !opts.InlineSourceMap {
		mapData, err := u.outMap.Encode()
		if err != nil {
			return err
		}
		return os.WriteFile(outPath+".map", mapData, 0o666)
	}
	return nil
}

func outputPath(opts *config.Options, srcPath string) string {
	base := filepath.Base(srcPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(opts.OutDir, base+".lua")
}

// discoverSources expands include/exclude glob lists into a sorted,
// deduplicated file list, with exclude winning on overlap (spec.md §6).
func discoverSources(include, exclude []string) ([]string, error) {
	excluded := make(map[string]bool)
	for _, pattern := range exclude {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			excluded[m] = true
		}
	}
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range include {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if excluded[m] || seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}
