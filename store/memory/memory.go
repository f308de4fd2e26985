// Package memory provides an in-memory Store for tests and development.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/SamerBerjawi/wandergrid/store"
)

type Store struct {
	mu   sync.RWMutex
	docs map[store.Collection]map[string]json.RawMessage
}

func New() *Store {
	return &Store{docs: make(map[store.Collection]map[string]json.RawMessage)}
}

func (s *Store) List(_ context.Context, c store.Collection) ([]json.RawMessage, error) {
	if !store.Known(c) {
		return nil, store.ErrUnknownCollection
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.docs[c]))
	for id := range s.docs[c] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(s.docs[c][id]))
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, c store.Collection, id string) (json.RawMessage, error) {
	if !store.Known(c) {
		return nil, store.ErrUnknownCollection
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[c][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(doc), nil
}

func (s *Store) Put(_ context.Context, c store.Collection, id string, doc json.RawMessage) error {
	if !store.Known(c) {
		return store.ErrUnknownCollection
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.docs[c] == nil {
		s.docs[c] = make(map[string]json.RawMessage)
	}
	s.docs[c][id] = clone(doc)
	return nil
}

func (s *Store) Delete(_ context.Context, c store.Collection, id string) error {
	if !store.Known(c) {
		return store.ErrUnknownCollection
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[c][id]; !ok {
		return store.ErrNotFound
	}
	delete(s.docs[c], id)
	return nil
}

func (s *Store) Snapshot(ctx context.Context) (store.Backup, error) {
	backup := make(store.Backup)
	for _, c := range store.Collections() {
		docs, err := s.List(ctx, c)
		if err != nil {
			return nil, err
		}
		backup[c] = docs
	}
	return backup, nil
}

func (s *Store) Restore(_ context.Context, b store.Backup) error {
	for c := range b {
		if !store.Known(c) {
			return store.ErrUnknownCollection
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = make(map[store.Collection]map[string]json.RawMessage)
	for c, docs := range b {
		s.docs[c] = make(map[string]json.RawMessage, len(docs))
		for _, doc := range docs {
			id := store.DocumentID(c, doc)
			if id == "" {
				continue
			}
			s.docs[c][id] = clone(doc)
		}
	}
	return nil
}

func (s *Store) Close() error { return nil }

func clone(doc json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(doc))
	copy(out, doc)
	return out
}
