package docstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

var _ Store = (*Memory)(nil)

// Memory is an in-memory document store with the same contract as Pg.
// Transactions hold the store lock for their whole duration, which makes
// them trivially serializable.
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string]json.RawMessage
}

// NewMemory creates an empty in-memory document store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]json.RawMessage)}
}

func (s *Memory) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (s *Memory) Get(_ context.Context, collection, id string) (Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(collection, id)
}

func (s *Memory) Set(_ context.Context, collection, id string, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(collection, id, data)
	return nil
}

func (s *Memory) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delete(collection, id)
}

func (s *Memory) Scan(_ context.Context, collection string, fn func(Doc) error) error {
	s.mu.Lock()
	docs := s.snapshot(collection)
	s.mu.Unlock()

	for _, doc := range docs {
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *Memory) Query(_ context.Context, collection, field, value string, limit int32) ([]Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var docs []Doc
	for id, data := range s.collections[collection] {
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			continue
		}
		if v, ok := fields[field].(string); ok && v == value {
			docs = append(docs, Doc{ID: id, Data: data})
			if int32(len(docs)) >= limit {
				break
			}
		}
	}
	return docs, nil
}

func (s *Memory) RunTransaction(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, staged: []stagedWrite{}}
	if err := fn(tx); err != nil {
		return err
	}

	for _, w := range tx.staged {
		if w.delete {
			if err := s.delete(w.collection, w.id); err != nil {
				return err
			}
			continue
		}
		s.set(w.collection, w.id, w.data)
	}
	return nil
}

func (s *Memory) CommitBatch(_ context.Context, b *WriteBatch) error {
	if b == nil || len(b.ops) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range b.ops {
		s.set(op.collection, op.id, op.data)
	}
	return nil
}

func (s *Memory) get(collection, id string) (Doc, error) {
	data, ok := s.collections[collection][id]
	if !ok {
		return Doc{}, ErrNotFound
	}
	return Doc{ID: id, Data: data}, nil
}

func (s *Memory) set(collection, id string, data json.RawMessage) {
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]json.RawMessage)
		s.collections[collection] = docs
	}
	docs[id] = append(json.RawMessage(nil), data...)
}

func (s *Memory) delete(collection, id string) error {
	if _, ok := s.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

func (s *Memory) snapshot(collection string) []Doc {
	docs := make([]Doc, 0, len(s.collections[collection]))
	for id, data := range s.collections[collection] {
		docs = append(docs, Doc{ID: id, Data: data})
	}
	return docs
}

type stagedWrite struct {
	collection string
	id         string
	data       json.RawMessage
	delete     bool
}

// memTx stages writes and applies them only when the transaction
// function returns nil. Reads see committed state plus the staged
// writes of this transaction.
type memTx struct {
	store  *Memory
	staged []stagedWrite
}

func (t *memTx) Get(_ context.Context, collection, id string) (Doc, error) {
	for i := len(t.staged) - 1; i >= 0; i-- {
		w := t.staged[i]
		if w.collection == collection && w.id == id {
			if w.delete {
				return Doc{}, ErrNotFound
			}
			return Doc{ID: id, Data: w.data}, nil
		}
	}
	return t.store.get(collection, id)
}

func (t *memTx) Set(_ context.Context, collection, id string, data json.RawMessage) error {
	t.staged = append(t.staged, stagedWrite{collection: collection, id: id, data: data})
	return nil
}

func (t *memTx) Delete(_ context.Context, collection, id string) error {
	if _, err := t.Get(context.Background(), collection, id); err != nil {
		return err
	}
	t.staged = append(t.staged, stagedWrite{collection: collection, id: id, delete: true})
	return nil
}
