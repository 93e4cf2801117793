// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the cryptographic content hash spec.md §4.8 calls the
// "BLAKE3-class" hash: the hash folded with dependency hashes and the
// compiler-config hash to key a cached module. Unlike [fxhash], which only
// needs to answer "did this change", a content hash is persisted to disk
// and compared across processes and Go toolchain versions, so it needs to
// be collision-resistant against adversarial input (an untrusted module
// someone vendored in, not just accidental collisions). The example pack
// carries no BLAKE3 implementation, so this stands on crypto/sha256 — see
// DESIGN.md.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FoldHash combines a module's own content hash with its transitive
// dependency hashes and the compiler-config hash into the single hash
// stored as [Entry.ContentHash], per spec.md's "keyed by a content hash
// folded with dependency hashes and a compiler-config hash".
func FoldHash(own string, depHashes []string, configHash string) string {
	h := sha256.New()
	h.Write([]byte(own))
	for _, d := range depHashes {
		h.Write([]byte{0})
		h.Write([]byte(d))
	}
	h.Write([]byte{0})
	h.Write([]byte(configHash))
	return hex.EncodeToString(h.Sum(nil))
}
