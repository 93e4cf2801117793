// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"testing"

	"luanext.dev/compiler/internal/codegen"
	"luanext.dev/compiler/internal/config"
	"luanext.dev/compiler/internal/optimizer"
	"luanext.dev/compiler/internal/registry"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in   string
		want codegen.Target
	}{
		{"5.1", codegen.Lua51},
		{"53", codegen.Lua53},
		{"5.4", codegen.Lua54},
		{"JIT", codegen.LuaJIT},
	}
	for _, test := range tests {
		got, err := parseTarget(test.in)
		if err != nil {
			t.Errorf("parseTarget(%q) error: %v", test.in, err)
			continue
		}
		if got != test.want {
			t.Errorf("parseTarget(%q) = %v; want %v", test.in, got, test.want)
		}
	}
	if _, err := parseTarget("6.0"); err == nil {
		t.Error(`parseTarget("6.0") = nil error; want error`)
	}
}

func TestParseLevel(t *testing.T) {
	got, err := parseLevel("aggressive")
	if err != nil || got != optimizer.O3 {
		t.Errorf("parseLevel(\"aggressive\") = %v, %v; want O3, nil", got, err)
	}
	if _, err := parseLevel("extreme"); err == nil {
		t.Error(`parseLevel("extreme") = nil error; want error`)
	}
}

func TestOutputPath(t *testing.T) {
	opts := new(config.Options)
	opts.OutDir = "."
	got := outputPath(opts, "/src/main.luax")
	want := filepath.Join(".", "main.lua")
	if got != want {
		t.Errorf("outputPath(..., %q) = %q; want %q", "/src/main.luax", got, want)
	}
}

func TestDiscoverSourcesExcludeWins(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.luax", "b.luax", "b_test.luax"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o666); err != nil {
			t.Fatal(err)
		}
	}
	got, err := discoverSources(
		[]string{filepath.Join(dir, "*.luax")},
		[]string{filepath.Join(dir, "*_test.luax")},
	)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.luax"), filepath.Join(dir, "b.luax")}
	if len(got) != len(want) {
		t.Fatalf("discoverSources() = %v; want %v", got, want)
	}
	for i, g := range got {
		if g != want[i] {
			t.Errorf("discoverSources()[%d] = %q; want %q", i, g, want[i])
		}
	}
}

func TestResolveInputPathsDedupes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.luax"), nil, 0o666); err != nil {
		t.Fatal(err)
	}
	explicit := filepath.Join(dir, "a.luax")
	got, err := resolveInputPaths([]string{explicit}, []string{filepath.Join(dir, "*.luax")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != explicit {
		t.Errorf("resolveInputPaths() = %v; want [%q]", got, explicit)
	}
}

func TestTopoBatches(t *testing.T) {
	a, b, c := registry.ModuleId("a"), registry.ModuleId("b"), registry.ModuleId("c")
	// c depends on b, b depends on a.
	edges := []registry.Edge{
		{From: b, To: a, Kind: registry.EdgeValue},
		{From: c, To: b, Kind: registry.EdgeValue},
	}
	batches := topoBatches([]registry.ModuleId{a, b, c}, edges)
	if len(batches) != 3 {
		t.Fatalf("topoBatches() produced %d batches; want 3", len(batches))
	}
	if len(batches[0]) != 1 || batches[0][0] != a {
		t.Errorf("topoBatches()[0] = %v; want [a]", batches[0])
	}
	if len(batches[1]) != 1 || batches[1][0] != b {
		t.Errorf("topoBatches()[1] = %v; want [b]", batches[1])
	}
	if len(batches[2]) != 1 || batches[2][0] != c {
		t.Errorf("topoBatches()[2] = %v; want [c]", batches[2])
	}
}

func TestTopoBatchesIndependentModulesShareABatch(t *testing.T) {
	a, b := registry.ModuleId("a"), registry.ModuleId("b")
	batches := topoBatches([]registry.ModuleId{a, b}, nil)
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Errorf("topoBatches() with no edges = %v; want one batch with both modules", batches)
	}
}
