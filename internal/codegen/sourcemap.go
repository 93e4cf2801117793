// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package codegen

import (
	"encoding/base64"
	"strings"

	"github.com/go-json-experiment/json"
)

// SourceMap is the Source Map v3 document (spec.md §4.7).
type SourceMap struct {
	Version  int      `json:"version"`
	File     string   `json:"file,omitempty"`
	Sources  []string `json:"sources"`
	Names    []string `json:"names,omitempty"`
	Mappings string   `json:"mappings"`
}

// BuildSourceMap encodes mappings (assumed already sorted by generated
// line then column, as produced by a single left-to-right emitter pass)
// into a v3 [SourceMap] for outputFile, whose single source is sourceFile.
func BuildSourceMap(outputFile, sourceFile string, mappings []Mapping, names []string) *SourceMap {
	return &SourceMap{
		Version:  3,
		File:     outputFile,
		Sources:  []string{sourceFile},
		Names:    names,
		Mappings: encodeMappings(mappings),
	}
}

// encodeMappings renders mappings as the VLQ-encoded, semicolon/comma
// delimited `mappings` field: one semicolon-separated group per generated
// line, comma-separated segments within a line, each segment a sequence of
// base64-VLQ deltas relative to the previous segment (per-line for the
// generated column, running totals for everything else).
func encodeMappings(mappings []Mapping) string {
	var out strings.Builder
	prevGenLine := 0
	prevGenCol := 0
	prevSourceIndex := 0
	prevSourceLine := 0
	prevSourceCol := 0
	prevNameIndex := 0
	firstOnLine := true

	for _, m := range mappings {
		for prevGenLine < m.GeneratedLine {
			out.WriteByte(';')
			prevGenLine++
			prevGenCol = 0
			firstOnLine = true
		}
		if !firstOnLine {
			out.WriteByte(',')
		}
		firstOnLine = false

		writeVLQ(&out, m.GeneratedCol-prevGenCol)
		prevGenCol = m.GeneratedCol
		writeVLQ(&out, m.SourceIndex-prevSourceIndex)
		prevSourceIndex = m.SourceIndex
		writeVLQ(&out, m.SourceLine-prevSourceLine)
		prevSourceLine = m.SourceLine
		writeVLQ(&out, m.SourceCol-prevSourceCol)
		prevSourceCol = m.SourceCol
		if m.NameIndex >= 0 {
			writeVLQ(&out, m.NameIndex-prevNameIndex)
			prevNameIndex = m.NameIndex
		}
	}
	return out.String()
}

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// writeVLQ appends n as a base64-VLQ value per the Source Map v3 spec: the
// sign occupies the low bit, five data bits per digit, the high bit of each
// digit signals continuation.
func writeVLQ(out *strings.Builder, n int) {
	v := n << 1
	if n < 0 {
		v = (-n << 1) | 1
	}
	for {
		digit := v & 0x1f
		v >>= 5
		if v > 0 {
			digit |= 0x20
		}
		out.WriteByte(base64Chars[digit])
		if v == 0 {
			break
		}
	}
}

// Encode marshals m to its JSON form via github.com/go-json-experiment/json.
func (m *SourceMap) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DataURI renders m as a `data:application/json;base64,...` URI suitable
// for an inline `--# sourceMappingURL=` comment.
func (m *SourceMap) DataURI() (string, error) {
	data, err := m.Encode()
	if err != nil {
		return "", err
	}
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// SourceMappingComment renders the trailing comment referencing either a
// sidecar map file (inline=false) or an embedded data URI (inline=true).
func SourceMappingComment(m *SourceMap, sidecarName string, inline bool) (string, error) {
	if !inline {
		return "--# sourceMappingURL=" + sidecarName + "\n", nil
	}
	uri, err := m.DataURI()
	if err != nil {
		return "", err
	}
	return "--# sourceMappingURL=" + uri + "\n", nil
}
