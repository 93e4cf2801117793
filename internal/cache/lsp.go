// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"luanext.dev/compiler/internal/checker"
	"luanext.dev/compiler/internal/diag"
	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/lnast"
	"luanext.dev/compiler/internal/lnparser"
)

// maxPooledArenas bounds how many retired document arenas the [DocumentStore]
// keeps around for reuse, per spec.md §4.8's "arenas are pooled (≤16
// reusable bumps) to cut allocation cost."
const maxPooledArenas = 16

// Document is the LSP in-memory cache entry for one open editor document
// described in spec.md §4.8: its text, the client's monotonically
// increasing version, and lazily-computed parse/check state. Reparse is
// lazy — [Document.Edit] only updates the text and clears the cached
// parse; the next feature request that calls [Document.Parse] or
// [Document.Checked] triggers the actual work.
type Document struct {
	URI string

	// sessionID identifies this open-to-close lifetime of the document,
	// distinct from URI: closing and reopening the same URI (e.g. a
	// rename-in-place the editor reports as close+open) gets a fresh id, so
	// log lines and diagnostics batches from the two lifetimes don't get
	// attributed to one another.
	sessionID string

	mu      sync.Mutex
	text    string
	version int64
	sess    *lnparser.Session
	scope   *checker.Scope
}

// SessionID returns the id identifying this document's current open
// lifetime, for correlating logs and diagnostics batches across the
// lifetime of one editor session.
func (d *Document) SessionID() string {
	return d.sessionID
}

// Text returns the document's current text and version.
func (d *Document) Text() (string, int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text, d.version
}

// Edit applies a didChange notification: records the new full text and
// version, and drops any cached parse/check state, per spec.md's "cleared
// on every didChange".
func (d *Document) Edit(text string, version int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
	d.version = version
	d.sess = nil
	d.scope = nil
}

// Parse returns the document's parsed [lnast.Program], reparsing from
// scratch if no session is cached (e.g. just after a didChange). The
// returned Program's arena is kept alive by the Document's session, per
// spec.md's "held via shared ownership so multiple handlers can read it".
func (d *Document) Parse(it *intern.Interner, sink *diag.Sink) *lnast.Program {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sess == nil {
		d.sess = lnparser.NewSession(d.text, it, sink)
	}
	return d.sess.Program()
}

// SetChecked records the checked symbol table computed from the document's
// current parse, so later feature requests (hover, go-to-definition,
// completion) can reuse it without re-running the checker.
func (d *Document) SetChecked(scope *checker.Scope) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scope = scope
}

// Checked returns the document's cached checked symbol table, if any.
func (d *Document) Checked() (*checker.Scope, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scope, d.scope != nil
}

// DocumentStore holds every currently-open document for one LSP session.
// Document work for the same URI is serialized by [DocumentStore.WithLock]'s
// per-URI mutex (adapted from the compiler driver's store-level
// mutex-map), so concurrent requests for a document under reparse wait
// for the in-flight work instead of racing it.
type DocumentStore struct {
	mu   sync.Mutex
	docs map[string]*Document

	inProgress mutexMap[string]
	arenas     arenaPool
}

// NewDocumentStore returns an empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open registers a newly-opened document, replacing any existing entry for
// the same URI.
func (s *DocumentStore) Open(uri, text string, version int64) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &Document{URI: uri, sessionID: uuid.NewString(), text: text, version: version}
	s.docs[uri] = d
	return d
}

// Close drops uri's cached document and returns its parsed arenas, if any,
// to the store's arena pool for reuse. Per spec.md's arena-lifetime note,
// callers must only call Close once every outstanding reader of the
// document's Program has finished, since Reset zeroes the arena's
// contents.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	d, ok := s.docs[uri]
	delete(s.docs, uri)
	s.mu.Unlock()
	if !ok {
		return
	}

	d.mu.Lock()
	sess := d.sess
	d.mu.Unlock()
	if sess == nil {
		return
	}
	for _, a := range sess.Arenas() {
		s.arenas.Put(a)
	}
}

// Get returns uri's document, if open.
func (s *DocumentStore) Get(uri string) (*Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[uri]
	return d, ok
}

// WithLock serializes concurrent feature requests against the same
// document: it waits for any other in-flight work on uri, then runs fn
// while holding that document's lock, so a reparse triggered by one
// request is never duplicated by a second request racing it.
func (s *DocumentStore) WithLock(ctx context.Context, uri string, fn func(*Document)) error {
	d, ok := s.Get(uri)
	if !ok {
		return nil
	}
	unlock, err := s.inProgress.lock(ctx, uri)
	if err != nil {
		return err
	}
	defer unlock()
	fn(d)
	return nil
}

// A mutexMap is a map of per-key mutexes, adapted from the compiler
// driver's store-level locking so callers serialize on a key without a
// single global lock. The zero value is an empty map.
type mutexMap[T comparable] struct {
	mu sync.Mutex
	m  map[T]<-chan struct{}
}

// lock waits until it can either acquire the mutex for k or ctx is done.
// On success it returns a function that releases the lock; until that
// function is called, every other call to lock(k) blocks.
func (mm *mutexMap[T]) lock(ctx context.Context, k T) (unlock func(), err error) {
	for {
		mm.mu.Lock()
		workDone := mm.m[k]
		if workDone == nil {
			c := make(chan struct{})
			if mm.m == nil {
				mm.m = make(map[T]<-chan struct{})
			}
			mm.m[k] = c
			mm.mu.Unlock()
			return func() {
				mm.mu.Lock()
				delete(mm.m, k)
				close(c)
				mm.mu.Unlock()
			}, nil
		}
		mm.mu.Unlock()

		select {
		case <-workDone:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// arenaPool retains up to maxPooledArenas retired arenas for reuse by
// future documents, cutting allocation cost for editors that churn
// through many small files (spec.md §4.8).
type arenaPool struct {
	mu    sync.Mutex
	spare []*lnast.Arena
}

// Get returns a pooled arena, or a freshly allocated one if the pool is
// empty.
func (p *arenaPool) Get() *lnast.Arena {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.spare); n > 0 {
		a := p.spare[n-1]
		p.spare = p.spare[:n-1]
		return a
	}
	return lnast.NewArena()
}

// Put resets a and retires it, making it available to a future Get call,
// unless the pool is already at capacity, in which case a is left for the
// garbage collector. Callers must not retain any reference into a's nodes
// after calling Put.
func (p *arenaPool) Put(a *lnast.Arena) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.spare) >= maxPooledArenas {
		return
	}
	a.Reset()
	p.spare = append(p.spare, a)
}
