package docstore

import (
	"context"
	"sync"
)

// Memory is a Store kept in process memory. Documents are copied on the
// way in and out.
type Memory struct {
	mu   sync.Mutex
	docs map[string]map[string]Document

	failNext error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]map[string]Document)}
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	fields, err := Normalize(doc.Fields)
	if err != nil {
		return Document{}, err
	}
	return Document{Fields: fields, Version: doc.Version}, nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return err
	}
	fields, err := Normalize(doc.Fields)
	if err != nil {
		return err
	}
	coll := m.collection(collection)
	coll[id] = Document{Fields: fields, Version: coll[id].Version + 1}
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, upd Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return err
	}
	coll := m.collection(collection)
	cur, ok := coll[id]
	if !ok {
		return ErrNotFound
	}
	if upd.IfVersion != 0 && upd.IfVersion != cur.Version {
		return ErrConflict
	}
	merged, err := Apply(cur.Fields, upd)
	if err != nil {
		return err
	}
	fields, err := Normalize(merged)
	if err != nil {
		return err
	}
	coll[id] = Document{Fields: fields, Version: cur.Version + 1}
	return nil
}

// FailNextWrite makes the next Set or Update return err.
func (m *Memory) FailNextWrite(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

func (m *Memory) collection(name string) map[string]Document {
	coll, ok := m.docs[name]
	if !ok {
		coll = make(map[string]Document)
		m.docs[name] = coll
	}
	return coll
}

func (m *Memory) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}
