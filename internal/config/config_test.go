// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package config

import (
	"testing"

	"luanext.dev/compiler/internal/codegen"
	"luanext.dev/compiler/internal/optimizer"
	"luanext.dev/compiler/internal/resolver"
)

func TestValidateRejectsMultiWildcardAlias(t *testing.T) {
	o := Default()
	o.PathAliases = []resolver.Alias{{Pattern: "@/*/*", Replacements: []string{"./src/*"}}}
	if err := o.Validate(); err == nil {
		t.Error("Validate() = nil; want error for alias pattern with two '*'")
	}
}

func TestValidateRejectsBadSearchTemplate(t *testing.T) {
	o := Default()
	o.ModulePathTemplates = []string{"./vendor/??.luax"}
	if err := o.Validate(); err == nil {
		t.Error("Validate() = nil; want error for template with more than one '?'")
	}
}

func TestValidateRejectsOutFileOutsideBundleMode(t *testing.T) {
	o := Default()
	o.Module = codegen.ModuleRequire
	o.OutFile = "bundle.lua"
	if err := o.Validate(); err == nil {
		t.Error("Validate() = nil; want error for out-file in require mode")
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v; want nil", err)
	}
}

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   optimizer.Level
		release bool
		want    optimizer.Level
	}{
		{"auto debug", Auto, false, optimizer.O0},
		{"auto release", Auto, true, optimizer.O2},
		{"explicit passthrough", optimizer.O3, false, optimizer.O3},
		{"explicit passthrough release", optimizer.O1, true, optimizer.O1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			o := Default()
			o.OptimizationLevel = test.level
			if got := o.ResolveLevel(test.release); got != test.want {
				t.Errorf("ResolveLevel(%v) = %v; want %v", test.release, got, test.want)
			}
		})
	}
}

func TestHashStableUnderAliasReordering(t *testing.T) {
	a := Default()
	a.PathAliases = []resolver.Alias{
		{Pattern: "@/a", Replacements: []string{"./a"}},
		{Pattern: "@/b", Replacements: []string{"./b"}},
	}
	b := Default()
	b.PathAliases = []resolver.Alias{
		{Pattern: "@/b", Replacements: []string{"./b"}},
		{Pattern: "@/a", Replacements: []string{"./a"}},
	}
	if a.Hash() != b.Hash() {
		t.Error("Hash() depends on PathAliases order; want order-independent")
	}
}

func TestHashChangesWithTarget(t *testing.T) {
	a := Default()
	b := Default()
	b.Target = codegen.Lua51
	if a.Hash() == b.Hash() {
		t.Error("Hash() unchanged across different Target; want distinct hashes")
	}
}

func TestHashIgnoresNothingObservable(t *testing.T) {
	a := Default()
	b := a
	if a.Hash() != b.Hash() {
		t.Error("Hash() not deterministic for identical Options")
	}
}

func TestResolverConfigProjection(t *testing.T) {
	o := Default()
	o.BaseURL = "/project"
	o.ModulePathTemplates = []string{"./vendor/?.luax"}
	rc := o.ResolverConfig()
	if rc.BaseURL != o.BaseURL {
		t.Errorf("ResolverConfig().BaseURL = %q; want %q", rc.BaseURL, o.BaseURL)
	}
	if len(rc.SearchPaths) != 1 || rc.SearchPaths[0] != o.ModulePathTemplates[0] {
		t.Errorf("ResolverConfig().SearchPaths = %v; want %v", rc.SearchPaths, o.ModulePathTemplates)
	}
	if rc.IndexFileName != "index.luax" {
		t.Errorf("ResolverConfig().IndexFileName = %q; want index.luax", rc.IndexFileName)
	}
}

func TestCodegenOptionsProjection(t *testing.T) {
	o := Default()
	o.SourceMap = true
	co := o.CodegenOptions("main.luax")
	if co.SourceFile != "main.luax" {
		t.Errorf("CodegenOptions().SourceFile = %q; want main.luax", co.SourceFile)
	}
	if co.Target != o.Target || co.Format != o.OutputFormat || co.Module != o.Module {
		t.Errorf("CodegenOptions() = %+v; want fields to mirror Options", co)
	}
	if !co.EmitSourceMap {
		t.Error("CodegenOptions().EmitSourceMap = false; want true")
	}
}
