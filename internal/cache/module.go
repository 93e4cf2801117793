// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package cache

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	jsonv2 "github.com/go-json-experiment/json"

	"luanext.dev/compiler/internal/intern"
)

// compressThreshold is the encoded-record size above which [EncodeRecord]
// bzip2-compresses the payload. Small records aren't worth the frame
// overhead.
const compressThreshold = 512

// Record is the per-module cache record described in spec.md §4.8: the
// module's source text, its checked exports in serializable form, the
// content hash it was cached under, per-declaration hashes for
// fine-grained invalidation, and free-form metadata the codegen stage
// needs to replay a cached module without re-running the checker.
//
// Record is versioned by [FormatVersion], not by its own field; optional
// fields use the JSON "omitzero"/"omitempty" tags so a future format can
// add fields without breaking decoding of older records within the same
// major FormatVersion, per spec.md's "optional fields must be explicitly
// tolerated across version bumps".
type Record struct {
	SourceText  string                                `json:"sourceText"`
	Exports     map[intern.StringId]*SerializableType `json:"exports,omitempty"`
	DeclHashes  map[string]string                     `json:"declHashes,omitempty"`
	ContentHash string                                `json:"contentHash"`
	CodegenMeta map[string]string                     `json:"codegenMeta,omitempty"`
}

// recordTag is a one-byte prefix on an encoded record identifying its
// payload framing.
type recordTag byte

const (
	tagRaw   recordTag = 0
	tagBzip2 recordTag = 1
)

// EncodeRecord serializes r for storage in [Manifest.Put]'s Entry.Record,
// bzip2-compressing the payload when it is large enough to be worth the
// frame overhead.
func EncodeRecord(r *Record) ([]byte, error) {
	payload, err := jsonv2.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("cache: encode record: %w", err)
	}
	if len(payload) < compressThreshold {
		return append([]byte{byte(tagRaw)}, payload...), nil
	}

	var buf bytes.Buffer
	buf.WriteByte(byte(tagBzip2))
	w, err := bzip2.NewWriter(&buf, nil)
	if err != nil {
		return nil, fmt.Errorf("cache: encode record: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		w.Close()
		return nil, fmt.Errorf("cache: encode record: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("cache: encode record: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeRecord is the inverse of [EncodeRecord]. A malformed or truncated
// blob returns an error; callers should treat that as a cache miss for the
// entry rather than a hard failure, per spec.md §7's cache-failure
// handling.
func DecodeRecord(data []byte) (*Record, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cache: decode record: empty payload")
	}
	tag, payload := recordTag(data[0]), data[1:]

	var raw []byte
	switch tag {
	case tagRaw:
		raw = payload
	case tagBzip2:
		rc, err := bzip2.NewReader(bytes.NewReader(payload), nil)
		if err != nil {
			return nil, fmt.Errorf("cache: decode record: %w", err)
		}
		defer rc.Close()
		raw, err = io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("cache: decode record: %w", err)
		}
	default:
		return nil, fmt.Errorf("cache: decode record: unknown payload tag %d", tag)
	}

	var r Record
	if err := jsonv2.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("cache: decode record: %w", err)
	}
	return &r, nil
}
