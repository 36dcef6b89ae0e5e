// Package memory is the process-lifetime storage backend. Contents vanish
// when the process exits.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/julianstephens/dashtrack/internal/constants"
	errs "github.com/julianstephens/dashtrack/internal/errors"
	"github.com/julianstephens/dashtrack/internal/models"
	"github.com/julianstephens/dashtrack/internal/storage"
)

// collection keeps records in insertion order with an id index.
type collection struct {
	order []string
	byID  map[string]storage.Record
}

func newCollection() *collection {
	return &collection{byID: make(map[string]storage.Record)}
}

type Store struct {
	mu          sync.RWMutex
	collections map[models.Kind]*collection
}

func New() *Store {
	s := &Store{}
	s.clear()
	return s
}

func (s *Store) clear() {
	s.collections = make(map[models.Kind]*collection, len(models.Kinds))
	for _, kind := range models.Kinds {
		s.collections[kind] = newCollection()
	}
}

func (s *Store) Init() error  { return nil }
func (s *Store) Load() error  { return nil }
func (s *Store) Close() error { return nil }

func (s *Store) GetConfigPath() string {
	return constants.MemoryStoreName
}

func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	return nil
}

func (s *Store) collection(kind models.Kind) (*collection, error) {
	c, ok := s.collections[kind]
	if !ok {
		return nil, storage.UnknownKindError(kind)
	}
	return c, nil
}

func (s *Store) ListRecords(ctx context.Context, kind models.Kind, ownerID string) ([]storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.collection(kind)
	if err != nil {
		return nil, err
	}
	recs := make([]storage.Record, 0, len(c.order))
	for _, id := range c.order {
		if rec := c.byID[id]; rec.OwnerID == ownerID {
			recs = append(recs, clone(rec))
		}
	}
	return recs, nil
}

func (s *Store) AllRecords(ctx context.Context, kind models.Kind) ([]storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.collection(kind)
	if err != nil {
		return nil, err
	}
	recs := make([]storage.Record, 0, len(c.order))
	for _, id := range c.order {
		recs = append(recs, clone(c.byID[id]))
	}
	return recs, nil
}

func (s *Store) InsertRecord(ctx context.Context, kind models.Kind, rec storage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(kind)
	if err != nil {
		return err
	}
	if _, exists := c.byID[rec.ID]; exists {
		return storage.ErrDuplicateID
	}
	c.order = append(c.order, rec.ID)
	c.byID[rec.ID] = clone(rec)
	return nil
}

func (s *Store) UpdateRecord(ctx context.Context, kind models.Kind, id, ownerID string, fn storage.MutateFunc) (storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(kind)
	if err != nil {
		return storage.Record{}, err
	}
	rec, ok := c.byID[id]
	if !ok || rec.OwnerID != ownerID {
		return storage.Record{}, errs.ErrNotFound
	}

	data, err := fn(bytes.Clone(rec.Data))
	if err != nil {
		return storage.Record{}, err
	}
	rec.Data = bytes.Clone(data)
	c.byID[id] = rec
	return clone(rec), nil
}

func (s *Store) DeleteRecord(ctx context.Context, kind models.Kind, id, ownerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.collection(kind)
	if err != nil {
		return false, err
	}
	rec, ok := c.byID[id]
	if !ok || rec.OwnerID != ownerID {
		return false, nil
	}
	delete(c.byID, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// clone detaches a record from the store's buffers.
func clone(rec storage.Record) storage.Record {
	rec.Data = json.RawMessage(bytes.Clone(rec.Data))
	return rec
}
