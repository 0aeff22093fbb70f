/*
Package persist is the storage boundary for documents.

The document store hands a Record to a Persister on save and asks for it
on load. A Record carries the raw forest together with the compiled,
minified stylesheet and the class map, so that pages can be served without
recompiling.

Two implementations are provided: Memory, for tests and ephemeral editing
sessions, and SQLite, backed by the pure-Go modernc.org/sqlite driver.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package persist

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/npillmayer/pagedoc/tree"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'pagedoc.persist'.
func tracer() tracing.Trace {
	return tracing.Select("pagedoc.persist")
}

// ErrNotFound is returned when loading a document which has never been saved.
var ErrNotFound = errors.New("document not found")

// ErrNoID is returned when saving a document without an id.
var ErrNoID = errors.New("document id must not be empty")

// Record is a persisted document.
type Record struct {
	DocumentID string
	Forest     tree.Forest
	CSS        string            // minified stylesheet
	ClassMap   map[string]string // node id → class name
	ModifiedAt time.Time
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	c := r
	c.Forest = r.Forest.Clone()
	if r.ClassMap != nil {
		c.ClassMap = make(map[string]string, len(r.ClassMap))
		for k, v := range r.ClassMap {
			c.ClassMap[k] = v
		}
	}
	return c
}

// Persister stores and retrieves documents.
type Persister interface {
	Save(ctx context.Context, id string, rec Record) error
	Load(ctx context.Context, id string) (Record, error)
}

// --- Memory ----------------------------------------------------------------

// Memory is a Persister holding records in memory. It is safe for
// concurrent use. Records are copied on the way in and out.
type Memory struct {
	mx   sync.RWMutex
	docs map[string]Record
}

var _ Persister = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]Record)}
}

// Save stores a copy of rec under id.
func (m *Memory) Save(ctx context.Context, id string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return ErrNoID
	}
	rec = rec.Clone()
	rec.DocumentID = id
	m.mx.Lock()
	defer m.mx.Unlock()
	m.docs[id] = rec
	tracer().Debugf("memory: saved document %s", id)
	return nil
}

// Load returns a copy of the record stored under id.
func (m *Memory) Load(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mx.RLock()
	defer m.mx.RUnlock()
	rec, ok := m.docs[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec.Clone(), nil
}

// Delete removes the record stored under id.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

// List returns the ids of all stored documents, sorted.
func (m *Memory) List(ctx context.Context) ([]string, error) {
	m.mx.RLock()
	defer m.mx.RUnlock()
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
