// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package lntoken

// keywordText is the inverse of Keywords, used by Kind.String.
func keywordText(k Kind) (string, bool) {
	for text, kind := range Keywords {
		if kind == k {
			return text, true
		}
	}
	return "", false
}

// Keywords is the full LuaNext keyword set, partitioned internally by
// [keywordsByLength] for lookup. Some of these (new, try, throw, ...) get
// dedicated token kinds because the parser dispatches on them directly;
// they are still ordinary entries here so that
// [ParseIdentifierOrKeyword]-style member/property positions can recover
// their text.
var Keywords = map[string]Kind{
	"abstract": Abstract, "and": And, "as": As, "break": Break, "case": Case, "catch": Catch,
	"class": Class, "const": Const, "continue": Continue, "declare": Declare,
	"decorator": Decorator, "default": Default, "delete": Delete, "do": Do,
	"else": Else, "elseif": Elseif, "end": End, "enum": Enum, "export": Export,
	"extends": Extends, "finally": Finally, "for": For, "from": From,
	"function": Function, "get": Get, "global": Global, "goto": Goto, "if": If,
	"implements": Implements, "import": Import, "in": In, "infer": Infer,
	"instanceof": Instanceof, "interface": Interface, "is": Is, "keyof": Keyof,
	"let": Let, "local": Local, "match": Match, "namespace": Namespace,
	"never": Never, "new": New, "nil": Nil, "not": Not,
	"number": Number_, "of": Of, "operator": Operator, "or": Or, "private": Private,
	"protected": Protected, "public": Public, "readonly": Readonly, "repeat": Repeat,
	"return": Return, "self": Self, "set": Set, "static": Static, "string": String_,
	"super": Super, "table": Table, "then": Then, "throw": Throw,
	"true": True, "false": False, "try": Try, "type": Type,
	"typeof": Typeof, "unknown": Unknown, "until": Until, "var": Var,
	"void": Void, "while": While,
}

// keywordsByLength buckets [Keywords] by byte length so that lookup first
// checks length (an O(1) slice index) before falling back to a handful of
// direct equality comparisons, rather than hashing every candidate
// identifier through the full map.
var keywordsByLength [16][]keywordEntry

type keywordEntry struct {
	text string
	kind Kind
}

func init() {
	for text, kind := range Keywords {
		n := len(text)
		if n >= len(keywordsByLength) {
			n = len(keywordsByLength) - 1
		}
		keywordsByLength[n] = append(keywordsByLength[n], keywordEntry{text, kind})
	}
}

// LookupKeyword reports whether s is a LuaNext keyword, first discriminating
// by length and then doing a tight equality compare within the bucket.
func LookupKeyword(s string) (Kind, bool) {
	n := len(s)
	if n >= len(keywordsByLength) {
		n = len(keywordsByLength) - 1
	}
	for _, e := range keywordsByLength[n] {
		if e.text == s {
			return e.kind, true
		}
	}
	return Error, false
}

// IsKeyword reports whether k is one of the reserved words in [Keywords].
func IsKeyword(k Kind) bool {
	return k >= Abstract && k <= While
}
