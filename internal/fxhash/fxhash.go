// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

// Package fxhash provides the fast, non-cryptographic hash spec.md §4.2
// calls the "FxHash-class" hash: used wherever a stage only needs to answer
// "did this byte string change since last time", not to defend against a
// malicious author of the bytes being hashed. internal/lnparser uses it for
// source fingerprints during incremental reparse; internal/optimizer uses
// it to value-number expressions (CSE) and to dedup specialization keys.
//
// Cryptographic content hashing (spec.md's "BLAKE3-class" hash, used to key
// on-disk cache records) is a different concern with a different threat
// model and lives in internal/cache, built on crypto/sha256 — the pack
// carries no BLAKE3 implementation, so see DESIGN.md for why sha256 stands
// in for it there.
package fxhash

import "github.com/cespare/xxhash/v2"

// Sum64 returns the fast hash of data.
func Sum64(data []byte) uint64 { return xxhash.Sum64(data) }

// Sum64String returns the fast hash of s without copying it to a []byte.
func Sum64String(s string) uint64 { return xxhash.Sum64String(s) }
