// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

// Package cache implements the on-disk incremental compilation cache and
// its in-memory LSP counterpart, per spec.md §4.8. The on-disk manifest
// lives under .luanext-cache/manifest.db, a SQLite database managed by
// [zombiezen.com/go/sqlite/sqlitemigration], replacing the flat
// manifest.bin/modules/<hash>.bin layout with a small set of tables: a
// manifest_meta key/value table for the cache format version and the
// compiler-config hash, a modules table holding one row per cached module
// (content hash, config hash, and the serialized per-module record as a
// blob), and a module_deps table recording the dependency edges BFS
// invalidation walks in reverse.
package cache

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/tailscale/hujson"
	"zombiezen.com/go/log"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitemigration"
	"zombiezen.com/go/sqlite/sqlitex"
)

// FormatVersion is the cache format version, bumped whenever the manifest
// schema or the per-module record encoding changes incompatibly. A stored
// manifest whose meta row disagrees is treated as fully stale, per spec.md
// §4.8's "the cache version changed" invalidation reason.
const FormatVersion = 1

//go:embed sql/*.sql
//go:embed sql/schema/*.sql
var rawSQLFiles embed.FS

func sqlFiles() fs.FS {
	sub, err := fs.Sub(rawSQLFiles, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

var schemaState struct {
	init   sync.Once
	schema sqlitemigration.Schema
	err    error
}

func loadSchema() sqlitemigration.Schema {
	schemaState.init.Do(func() {
		for i := 1; ; i++ {
			migration, err := fs.ReadFile(sqlFiles(), fmt.Sprintf("schema/%02d.sql", i))
			if errors.Is(err, fs.ErrNotExist) {
				break
			}
			if err != nil {
				schemaState.err = err
				return
			}
			schemaState.schema.Migrations = append(schemaState.schema.Migrations, string(migration))
		}
	})
	if schemaState.err != nil {
		panic(schemaState.err)
	}
	return schemaState.schema
}

func prepareConn(conn *sqlite.Conn) error {
	if err := sqlitex.ExecuteTransient(conn, "PRAGMA journal_mode = wal;", nil); err != nil {
		return err
	}
	if err := sqlitex.ExecuteTransient(conn, "PRAGMA foreign_keys = on;", nil); err != nil {
		return err
	}
	return nil
}

// Manifest is the on-disk incremental-compilation manifest described in
// spec.md §4.8: a cache format version, a compiler-config hash, a
// path-to-entry map, a dependency map, and (folded into each module's
// content hash) per-declaration fingerprints for fine-grained invalidation.
type Manifest struct {
	db *sqlitemigration.Pool

	// generationID identifies this process's handle onto the manifest,
	// distinct from the on-disk data itself. It has no effect on cache
	// lookups; it exists so a debug dump or a log line produced by one
	// compiler invocation can be told apart from another concurrently
	// sharing the same manifest.db.
	generationID string
}

// GenerationID returns the id identifying this [Manifest] handle, for
// correlating log lines and debug dumps across overlapping compiler
// invocations against the same on-disk manifest.
func (m *Manifest) GenerationID() string {
	return m.generationID
}

// Open opens (creating if necessary) the manifest database at dbPath, which
// by convention is ".luanext-cache/manifest.db" under the project root.
// Callers must call [Manifest.Close] when done.
func Open(dbPath string) *Manifest {
	return &Manifest{
		generationID: uuid.NewString(),
		db: sqlitemigration.NewPool(dbPath, loadSchema(), sqlitemigration.Options{
			Flags:       sqlite.OpenCreate | sqlite.OpenReadWrite,
			PrepareConn: prepareConn,
			OnStartMigrate: func() {
				log.Debugf(context.Background(), "luanext: migrating incremental cache")
			},
			OnReady: func() {
				log.Debugf(context.Background(), "luanext: incremental cache ready")
			},
			OnError: func(err error) {
				log.Errorf(context.Background(), "luanext: incremental cache migration: %v", err)
			},
		}),
	}
}

// Close releases the manifest's database handle.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// ConfigHash returns the compiler-config hash stored in the manifest, or ""
// if the manifest is empty.
func (m *Manifest) ConfigHash(ctx context.Context) (string, error) {
	return m.getMeta(ctx, "config_hash")
}

// SetConfigHash records configHash as the manifest's compiler-config hash.
// Callers should compare the previous value against the current
// configuration's hash to decide whether to wipe the cache, per spec.md's
// "the compiler-config hash changed" invalidation reason.
func (m *Manifest) SetConfigHash(ctx context.Context, configHash string) error {
	return m.setMeta(ctx, "config_hash", configHash)
}

// FormatVersionStored returns the format version the manifest on disk was
// last saved with, or 0 if the manifest is empty.
func (m *Manifest) FormatVersionStored(ctx context.Context) (int, error) {
	s, err := m.getMeta(ctx, "format_version")
	if err != nil || s == "" {
		return 0, err
	}
	var v int
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return 0, fmt.Errorf("cache: parse stored format version: %w", err)
	}
	return v, nil
}

// MarkFormatVersion records the current [FormatVersion] in the manifest.
func (m *Manifest) MarkFormatVersion(ctx context.Context) error {
	return m.setMeta(ctx, "format_version", fmt.Sprintf("%d", FormatVersion))
}

func (m *Manifest) getMeta(ctx context.Context, key string) (string, error) {
	conn, err := m.db.Get(ctx)
	if err != nil {
		return "", err
	}
	defer m.db.Put(conn)

	var value string
	err = sqlitex.ExecuteTransientFS(conn, sqlFiles(), "get_meta.sql", &sqlitex.ExecOptions{
		Named: map[string]any{":key": key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = stmt.GetText("value")
			return nil
		},
	})
	return value, err
}

func (m *Manifest) setMeta(ctx context.Context, key, value string) error {
	conn, err := m.db.Get(ctx)
	if err != nil {
		return err
	}
	defer m.db.Put(conn)

	return sqlitex.ExecuteTransientFS(conn, sqlFiles(), "set_meta.sql", &sqlitex.ExecOptions{
		Named: map[string]any{":key": key, ":value": value},
	})
}

// Entry is one module's manifest record: its content hash, the config hash
// it was cached under, a modification timestamp, and its serialized
// per-module record (see [Record]).
type Entry struct {
	Path        string
	ContentHash string
	ConfigHash  string
	MtimeUnix   int64
	Record      []byte
}

// Lookup returns the manifest entry for path, and reports whether one
// exists.
func (m *Manifest) Lookup(ctx context.Context, path string) (Entry, bool, error) {
	conn, err := m.db.Get(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	defer m.db.Put(conn)

	e := Entry{Path: path}
	found := false
	err = sqlitex.ExecuteTransientFS(conn, sqlFiles(), "get_module.sql", &sqlitex.ExecOptions{
		Named: map[string]any{":path": path},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			e.ContentHash = stmt.GetText("content_hash")
			e.ConfigHash = stmt.GetText("config_hash")
			e.MtimeUnix = stmt.GetInt64("mtime_unix")
			n := stmt.GetLen("record")
			e.Record = make([]byte, n)
			stmt.GetBytes("record", e.Record)
			return nil
		},
	})
	if err != nil {
		return Entry{}, false, err
	}
	return e, found, nil
}

// Put stores (or replaces) e's entry and its dependency edges, replacing
// any previously recorded dependencies for e.Path.
func (m *Manifest) Put(ctx context.Context, e Entry, deps []Dependency) (err error) {
	conn, err := m.db.Get(ctx)
	if err != nil {
		return err
	}
	defer m.db.Put(conn)
	defer sqlitex.Save(conn)(&err)

	if err := sqlitex.ExecuteTransientFS(conn, sqlFiles(), "upsert_module.sql", &sqlitex.ExecOptions{
		Named: map[string]any{
			":path":         e.Path,
			":content_hash": e.ContentHash,
			":config_hash":  e.ConfigHash,
			":mtime_unix":   e.MtimeUnix,
			":record":       e.Record,
		},
	}); err != nil {
		return fmt.Errorf("cache: put %s: %w", e.Path, err)
	}

	if err := sqlitex.ExecuteTransientFS(conn, sqlFiles(), "clear_deps.sql", &sqlitex.ExecOptions{
		Named: map[string]any{":path": e.Path},
	}); err != nil {
		return fmt.Errorf("cache: put %s: clear deps: %w", e.Path, err)
	}
	depStmt, err := sqlitex.PrepareTransientFS(conn, sqlFiles(), "insert_dep.sql")
	if err != nil {
		return fmt.Errorf("cache: put %s: %w", e.Path, err)
	}
	defer depStmt.Finalize()
	for _, d := range deps {
		depStmt.SetText(":path", e.Path)
		depStmt.SetText(":dep_path", d.Path)
		depStmt.SetInt64(":kind", int64(d.Kind))
		if _, err := depStmt.Step(); err != nil {
			return fmt.Errorf("cache: put %s: add dependency %s: %w", e.Path, d.Path, err)
		}
		if err := depStmt.Reset(); err != nil {
			return fmt.Errorf("cache: put %s: add dependency %s: %w", e.Path, d.Path, err)
		}
	}
	return nil
}

// Delete removes path's entry and dependency edges from the manifest. A
// corrupt or unreadable entry is deleted rather than propagated, per
// spec.md §7's "cache failures invalidate just that entry".
func (m *Manifest) Delete(ctx context.Context, path string) error {
	conn, err := m.db.Get(ctx)
	if err != nil {
		return err
	}
	defer m.db.Put(conn)

	if err := sqlitex.ExecuteTransientFS(conn, sqlFiles(), "delete_module.sql", &sqlitex.ExecOptions{
		Named: map[string]any{":path": path},
	}); err != nil {
		return err
	}
	return sqlitex.ExecuteTransientFS(conn, sqlFiles(), "clear_deps.sql", &sqlitex.ExecOptions{
		Named: map[string]any{":path": path},
	})
}

// Dependency is one edge in the manifest's dependency map, path → [path].
type Dependency struct {
	Path string
	Kind int
}

// DependentsOf returns every path recorded as depending on depPath — the
// reverse-dependency edges [Invalidate] walks breadth-first.
func (m *Manifest) DependentsOf(ctx context.Context, depPath string) ([]string, error) {
	conn, err := m.db.Get(ctx)
	if err != nil {
		return nil, err
	}
	defer m.db.Put(conn)

	var out []string
	err = sqlitex.ExecuteTransientFS(conn, sqlFiles(), "dependents_of.sql", &sqlitex.ExecOptions{
		Named: map[string]any{":dep_path": depPath},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, stmt.GetText("path"))
			return nil
		},
	})
	return out, err
}

// DebugOverrides is the decoded form of a manifest.debug.jsonc companion
// file: a human-editable sidecar next to manifest.db that lets a developer
// force specific paths stale without deleting the whole cache, for
// reproducing an invalidation bug by hand.
type DebugOverrides struct {
	ForceInvalidate []string `json:"forceInvalidate"`
}

// LoadDebugOverrides reads and decodes the manifest.debug.jsonc sidecar at
// path, tolerating the comments and trailing commas JSONC allows so the
// file stays easy to hand-edit. A missing file is not an error: it reports
// (nil, nil).
func LoadDebugOverrides(path string) (*DebugOverrides, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: read debug overrides: %w", err)
	}
	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("cache: parse debug overrides %s: %w", path, err)
	}
	var d DebugOverrides
	if err := json.Unmarshal(standardized, &d); err != nil {
		return nil, fmt.Errorf("cache: decode debug overrides %s: %w", path, err)
	}
	return &d, nil
}

// ApplyDebugOverrides deletes every path named in overrides.ForceInvalidate
// from the manifest, so the next build treats them as cache misses.
func (m *Manifest) ApplyDebugOverrides(ctx context.Context, overrides *DebugOverrides) error {
	if overrides == nil {
		return nil
	}
	for _, p := range overrides.ForceInvalidate {
		if err := m.Delete(ctx, p); err != nil {
			return fmt.Errorf("cache: apply debug override for %s: %w", p, err)
		}
	}
	return nil
}

// AllPaths returns every module path the manifest currently has an entry
// for.
func (m *Manifest) AllPaths(ctx context.Context) ([]string, error) {
	conn, err := m.db.Get(ctx)
	if err != nil {
		return nil, err
	}
	defer m.db.Put(conn)

	var out []string
	err = sqlitex.ExecuteTransientFS(conn, sqlFiles(), "all_paths.sql", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, stmt.GetText("path"))
			return nil
		},
	})
	return out, err
}
