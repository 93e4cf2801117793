// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package cache

import "testing"

func TestContentHashDeterministic(t *testing.T) {
	a := ContentHash([]byte("local x = 1"))
	b := ContentHash([]byte("local x = 1"))
	if a != b {
		t.Errorf("ContentHash() not deterministic: %q != %q", a, b)
	}
}

func TestContentHashDiffersOnInputChange(t *testing.T) {
	a := ContentHash([]byte("local x = 1"))
	b := ContentHash([]byte("local x = 2"))
	if a == b {
		t.Error("ContentHash() collided for two distinct inputs")
	}
}

func TestFoldHashOrderSensitive(t *testing.T) {
	a := FoldHash("own", []string{"dep1", "dep2"}, "cfg")
	b := FoldHash("own", []string{"dep2", "dep1"}, "cfg")
	if a == b {
		t.Error("FoldHash() ignored dependency order; want a fold that is order-sensitive over depHashes")
	}
}

func TestFoldHashSensitiveToEachInput(t *testing.T) {
	base := FoldHash("own", []string{"dep"}, "cfg")
	if FoldHash("other", []string{"dep"}, "cfg") == base {
		t.Error("FoldHash() insensitive to own hash")
	}
	if FoldHash("own", []string{"dep2"}, "cfg") == base {
		t.Error("FoldHash() insensitive to dependency hashes")
	}
	if FoldHash("own", []string{"dep"}, "cfg2") == base {
		t.Error("FoldHash() insensitive to config hash")
	}
}

func TestDeclHashesUnchanged(t *testing.T) {
	prev := map[string]string{"f": "h1", "g": "h2"}
	same := map[string]string{"f": "h1", "g": "h2"}
	if !DeclHashesUnchanged(prev, same) {
		t.Error("DeclHashesUnchanged() = false for identical maps; want true")
	}

	changed := map[string]string{"f": "h1", "g": "h3"}
	if DeclHashesUnchanged(prev, changed) {
		t.Error("DeclHashesUnchanged() = true despite a changed hash; want false")
	}

	fewer := map[string]string{"f": "h1"}
	if DeclHashesUnchanged(prev, fewer) {
		t.Error("DeclHashesUnchanged() = true despite a removed declaration; want false")
	}
}

func TestStaleReasonString(t *testing.T) {
	tests := []struct {
		r    StaleReason
		want string
	}{
		{Fresh, "fresh"},
		{NotCached, "not cached"},
		{SourceChanged, "source changed"},
		{ConfigChanged, "config changed"},
		{FormatChanged, "cache format changed"},
	}
	for _, test := range tests {
		if got := test.r.String(); got != test.want {
			t.Errorf("StaleReason(%d).String() = %q; want %q", test.r, got, test.want)
		}
	}
}
