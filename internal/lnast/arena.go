// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

// Package lnast defines the arena-allocated abstract syntax tree produced
// by the parser and consumed by the type checker, optimizer, and code
// generator.
package lnast

import "reflect"

// blockSize is the number of elements in each arena block. Chosen so that a
// typical small module (a few hundred statements) only touches one or two
// blocks per node kind.
const blockSize = 256

// Pool is a bump allocator for a single node type T. Nodes are handed out as
// pointers into fixed-capacity blocks, so earlier pointers never move when
// the pool grows (unlike append-growing a single slice), and nothing is
// ever freed individually — the whole Pool is dropped at once when its
// owning [Arena] (and, transitively, [Program]) becomes unreachable.
type Pool[T any] struct {
	blocks [][]T
}

// New returns a pointer to a fresh zero-valued T owned by the pool.
func (p *Pool[T]) New() *T {
	if len(p.blocks) == 0 || len(p.blocks[len(p.blocks)-1]) == cap(p.blocks[len(p.blocks)-1]) {
		p.blocks = append(p.blocks, make([]T, 0, blockSize))
	}
	b := &p.blocks[len(p.blocks)-1]
	*b = append(*b, *new(T))
	return &(*b)[len(*b)-1]
}

// Len reports the total number of nodes allocated from the pool, across all
// blocks.
func (p *Pool[T]) Len() int {
	n := 0
	for _, b := range p.blocks {
		n += len(b)
	}
	return n
}

// reset truncates every block to length zero while keeping its backing
// array, so a later New reuses the same memory instead of allocating a
// fresh block. It satisfies [resettable].
func (p *Pool[T]) reset() {
	for i := range p.blocks {
		var zero T
		for j := range p.blocks[i] {
			p.blocks[i][j] = zero
		}
		p.blocks[i] = p.blocks[i][:0]
	}
}

// Arena owns every node allocated while parsing a single [Program]. A
// Program's lifetime dominates every reference into its Arena; the parser
// creates one Arena per full parse, and incremental reparse may keep
// several alive at once (see the parser's consolidation policy in
// internal/lnparser).
type Arena struct {
	pools map[reflect.Type]any

	stmtChildren  Pool[[]Statement]
	exprChildren  Pool[[]Expression]
	typeChildren  Pool[[]Type]
	patChildren   Pool[[]Pattern]
	identChildren Pool[[]Ident]
}

// NewArena returns a fresh empty Arena.
func NewArena() *Arena {
	return new(Arena)
}

// resettable is implemented by every [Pool] regardless of its element type,
// so [Arena.Reset] can clear each one without knowing T.
type resettable interface {
	reset()
}

// Reset truncates every pool in a back to empty while keeping their
// allocated blocks, so the Arena can be handed to a pool of reusable
// arenas (the LSP document cache's arena pool) instead of discarded.
// Reset must not be called while any Program still references a's nodes.
func (a *Arena) Reset() {
	for _, p := range a.pools {
		p.(resettable).reset()
	}
	a.stmtChildren.reset()
	a.exprChildren.reset()
	a.typeChildren.reset()
	a.patChildren.reset()
	a.identChildren.reset()
}

// poolFor returns (creating on first use) the Pool that owns every node of
// concrete type T within a.
func poolFor[T any](a *Arena) *Pool[T] {
	if a.pools == nil {
		a.pools = make(map[reflect.Type]any)
	}
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if p, ok := a.pools[rt]; ok {
		return p.(*Pool[T])
	}
	p := new(Pool[T])
	a.pools[rt] = p
	return p
}

// Alloc returns a pointer to a new zero-valued node of concrete type T,
// owned by a. Every AST constructor in this package and in internal/lnparser
// goes through Alloc so that no node is ever heap-allocated outside its
// Program's arena.
func Alloc[T any](a *Arena) *T {
	return poolFor[T](a).New()
}

// StatementSlice copies stmts into a contiguous, arena-owned slice.
func (a *Arena) StatementSlice(stmts []Statement) []Statement {
	s := a.stmtChildren.New()
	*s = append((*s)[:0:0], stmts...)
	return *s
}

// ExpressionSlice copies exprs into a contiguous, arena-owned slice.
func (a *Arena) ExpressionSlice(exprs []Expression) []Expression {
	s := a.exprChildren.New()
	*s = append((*s)[:0:0], exprs...)
	return *s
}

// TypeSlice copies types into a contiguous, arena-owned slice.
func (a *Arena) TypeSlice(types []Type) []Type {
	s := a.typeChildren.New()
	*s = append((*s)[:0:0], types...)
	return *s
}

// PatternSlice copies pats into a contiguous, arena-owned slice.
func (a *Arena) PatternSlice(pats []Pattern) []Pattern {
	s := a.patChildren.New()
	*s = append((*s)[:0:0], pats...)
	return *s
}

// IdentSlice copies idents into a contiguous, arena-owned slice.
func (a *Arena) IdentSlice(idents []Ident) []Ident {
	s := a.identChildren.New()
	*s = append((*s)[:0:0], idents...)
	return *s
}
