// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package resolver

import (
	"testing"
)

func fakeFS(files ...string) FileExists {
	set := make(map[string]bool, len(files))
	for _, f := range files {
		set[f] = true
	}
	return func(p string) bool { return set[p] }
}

func TestResolveRelative(t *testing.T) {
	cfg := &Config{}
	exists := fakeFS("/src/util.luax")
	got, ok := Resolve(cfg, "/src/main.luax", "./util", exists)
	if !ok || got != "/src/util.luax" {
		t.Errorf("Resolve(./util) = %q, %v; want %q, true", got, ok, "/src/util.luax")
	}
}

func TestResolveRelativeTriesExtensionsInOrder(t *testing.T) {
	cfg := &Config{}
	exists := fakeFS("/src/util.lua")
	got, ok := Resolve(cfg, "/src/main.luax", "./util", exists)
	if !ok || got != "/src/util.lua" {
		t.Errorf("Resolve(./util) = %q, %v; want fallback to %q", got, ok, "/src/util.lua")
	}
}

func TestResolveRelativeDirectoryIndex(t *testing.T) {
	cfg := &Config{IndexFileName: "index.luax"}
	exists := fakeFS("/src/lib/index.luax")
	got, ok := Resolve(cfg, "/src/main.luax", "./lib", exists)
	if !ok || got != "/src/lib/index.luax" {
		t.Errorf("Resolve(./lib) = %q, %v; want %q, true", got, ok, "/src/lib/index.luax")
	}
}

func TestResolveRelativeMissingFails(t *testing.T) {
	cfg := &Config{}
	exists := fakeFS()
	if _, ok := Resolve(cfg, "/src/main.luax", "./missing", exists); ok {
		t.Error("Resolve(./missing) = ok; want false when nothing on disk matches")
	}
}

func TestResolveAliasExactMatch(t *testing.T) {
	cfg := &Config{Aliases: []Alias{{Pattern: "@utils", Replacements: []string{"/src/utils"}}}}
	exists := fakeFS("/src/utils.luax")
	got, ok := Resolve(cfg, "/src/main.luax", "@utils", exists)
	if !ok || got != "/src/utils.luax" {
		t.Errorf("Resolve(@utils) = %q, %v; want %q, true", got, ok, "/src/utils.luax")
	}
}

func TestResolveAliasWildcard(t *testing.T) {
	cfg := &Config{Aliases: []Alias{{Pattern: "@/*", Replacements: []string{"./src/*"}}}}
	exists := fakeFS("/src/widgets/button.luax")
	got, ok := Resolve(cfg, "/main.luax", "@/widgets/button", exists)
	if !ok || got != "/src/widgets/button.luax" {
		t.Errorf("Resolve(@/widgets/button) = %q, %v; want %q, true", got, ok, "/src/widgets/button.luax")
	}
}

func TestResolveAliasLongestPrefixWins(t *testing.T) {
	cfg := &Config{Aliases: []Alias{
		{Pattern: "@/*", Replacements: []string{"./generic/*"}},
		{Pattern: "@/widgets/*", Replacements: []string{"./special/*"}},
	}}
	exists := fakeFS("/special/button.luax")
	got, ok := Resolve(cfg, "/main.luax", "@/widgets/button", exists)
	if !ok || got != "/special/button.luax" {
		t.Errorf("Resolve() with overlapping aliases = %q, %v; want longest-prefix match %q", got, ok, "/special/button.luax")
	}
}

func TestResolveSearchPath(t *testing.T) {
	cfg := &Config{SearchPaths: []string{"./vendor/?"}}
	exists := fakeFS("vendor/leftpad.luax")
	got, ok := Resolve(cfg, "/main.luax", "leftpad", exists)
	if !ok || got != "vendor/leftpad.luax" {
		t.Errorf("Resolve(leftpad) = %q, %v; want %q, true", got, ok, "vendor/leftpad.luax")
	}
}

func TestResolveBaseURLFallback(t *testing.T) {
	cfg := &Config{BaseURL: "/project"}
	exists := fakeFS("/project/pkg.luax")
	got, ok := Resolve(cfg, "/main.luax", "pkg", exists)
	if !ok || got != "/project/pkg.luax" {
		t.Errorf("Resolve(pkg) = %q, %v; want %q, true", got, ok, "/project/pkg.luax")
	}
}

func TestValidateAlias(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{"@/*", true},
		{"@utils", true},
		{"@/*/*", false},
		{"***", false},
	}
	for _, test := range tests {
		if got := ValidateAlias(test.pattern); got != test.want {
			t.Errorf("ValidateAlias(%q) = %v; want %v", test.pattern, got, test.want)
		}
	}
}

func TestSortedAliasPatterns(t *testing.T) {
	cfg := &Config{Aliases: []Alias{
		{Pattern: "@z"},
		{Pattern: "@a"},
	}}
	got := SortedAliasPatterns(cfg)
	if len(got) != 2 || got[0] != "@a" || got[1] != "@z" {
		t.Errorf("SortedAliasPatterns() = %v; want [@a @z]", got)
	}
}
