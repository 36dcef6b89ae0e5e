// Package jsonfile stores every collection in one JSON document on disk,
// one array per storage key. Each operation re-reads the document under an
// OS file lock so several processes can share the file.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/julianstephens/dashtrack/internal/constants"
	errs "github.com/julianstephens/dashtrack/internal/errors"
	"github.com/julianstephens/dashtrack/internal/models"
	"github.com/julianstephens/dashtrack/internal/storage"
)

const (
	documentVersion = 1
	lockRetryDelay  = 10 * time.Millisecond
)

// document is the on-disk layout.
type document struct {
	Version     int                          `json:"version"`
	Collections map[string][]json.RawMessage `json:"collections"`
}

func newDocument() *document {
	doc := &document{Version: documentVersion, Collections: make(map[string][]json.RawMessage)}
	for _, kind := range models.Kinds {
		doc.Collections[kind.StorageKey()] = []json.RawMessage{}
	}
	return doc
}

type Store struct {
	path   string
	lock   *flock.Flock
	mu     sync.RWMutex
	loaded bool
}

func New(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (s *Store) Init() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeDocument(newDocument()); err != nil {
		return err
	}
	s.loaded = true
	return nil
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
	}
	if _, err := s.readDocument(); err != nil {
		return err
	}
	s.loaded = true
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	return s.lock.Close()
}

func (s *Store) GetConfigPath() string {
	return s.path
}

func (s *Store) readDocument() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}
	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Version > documentVersion {
		return nil, fmt.Errorf("storage version (%d) is newer than supported version (%d) - please upgrade the application", doc.Version, documentVersion)
	}
	if doc.Collections == nil {
		doc.Collections = make(map[string][]json.RawMessage)
	}
	return doc, nil
}

// writeDocument replaces the file atomically via a temp file in the same
// directory.
func (s *Store) writeDocument(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("failed to set storage permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace storage: %w", err)
	}
	return nil
}

// view runs fn against a fresh read of the document under a shared lock.
func (s *Store) view(ctx context.Context, fn func(doc *document) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return storage.ErrNotLoaded
	}

	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire storage lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire storage lock on %s", s.lock.Path())
	}
	defer s.lock.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		return err
	}
	return fn(doc)
}

// update runs fn under an exclusive lock and writes the document back when
// fn reports a change.
func (s *Store) update(ctx context.Context, fn func(doc *document) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return storage.ErrNotLoaded
	}

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire storage lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire storage lock on %s", s.lock.Path())
	}
	defer s.lock.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}
	return s.writeDocument(doc)
}

func storageKey(kind models.Kind) (string, error) {
	if !storage.KnownKind(kind) {
		return "", storage.UnknownKindError(kind)
	}
	return kind.StorageKey(), nil
}

func (s *Store) Reset(ctx context.Context) error {
	return s.update(ctx, func(doc *document) (bool, error) {
		*doc = *newDocument()
		return true, nil
	})
}

func (s *Store) ListRecords(ctx context.Context, kind models.Kind, ownerID string) ([]storage.Record, error) {
	return s.records(ctx, kind, func(rec storage.Record) bool { return rec.OwnerID == ownerID })
}

func (s *Store) AllRecords(ctx context.Context, kind models.Kind) ([]storage.Record, error) {
	return s.records(ctx, kind, func(storage.Record) bool { return true })
}

func (s *Store) records(ctx context.Context, kind models.Kind, keep func(storage.Record) bool) ([]storage.Record, error) {
	key, err := storageKey(kind)
	if err != nil {
		return nil, err
	}

	var recs []storage.Record
	err = s.view(ctx, func(doc *document) error {
		items := doc.Collections[key]
		recs = make([]storage.Record, 0, len(items))
		for _, item := range items {
			rec, err := storage.RecordFromData(item)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if keep(rec) {
				recs = append(recs, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// find returns the index of id within items, or -1.
func find(items []json.RawMessage, id string) (int, storage.Record, error) {
	for i, item := range items {
		rec, err := storage.RecordFromData(item)
		if err != nil {
			return -1, storage.Record{}, err
		}
		if rec.ID == id {
			return i, rec, nil
		}
	}
	return -1, storage.Record{}, nil
}

func (s *Store) InsertRecord(ctx context.Context, kind models.Kind, rec storage.Record) error {
	key, err := storageKey(kind)
	if err != nil {
		return err
	}
	return s.update(ctx, func(doc *document) (bool, error) {
		idx, _, err := find(doc.Collections[key], rec.ID)
		if err != nil {
			return false, err
		}
		if idx >= 0 {
			return false, storage.ErrDuplicateID
		}
		doc.Collections[key] = append(doc.Collections[key], bytes.Clone(rec.Data))
		return true, nil
	})
}

func (s *Store) UpdateRecord(ctx context.Context, kind models.Kind, id, ownerID string, fn storage.MutateFunc) (storage.Record, error) {
	key, err := storageKey(kind)
	if err != nil {
		return storage.Record{}, err
	}

	var updated storage.Record
	err = s.update(ctx, func(doc *document) (bool, error) {
		items := doc.Collections[key]
		idx, rec, err := find(items, id)
		if err != nil {
			return false, err
		}
		if idx < 0 || rec.OwnerID != ownerID {
			return false, errs.ErrNotFound
		}

		data, err := fn(bytes.Clone(rec.Data))
		if err != nil {
			return false, err
		}
		items[idx] = data
		rec.Data = bytes.Clone(data)
		updated = rec
		return true, nil
	})
	if err != nil {
		return storage.Record{}, err
	}
	return updated, nil
}

func (s *Store) DeleteRecord(ctx context.Context, kind models.Kind, id, ownerID string) (bool, error) {
	key, err := storageKey(kind)
	if err != nil {
		return false, err
	}

	deleted := false
	err = s.update(ctx, func(doc *document) (bool, error) {
		items := doc.Collections[key]
		idx, rec, err := find(items, id)
		if err != nil {
			return false, err
		}
		if idx < 0 || rec.OwnerID != ownerID {
			return false, nil
		}
		doc.Collections[key] = append(items[:idx], items[idx+1:]...)
		deleted = true
		return true, nil
	})
	return deleted, err
}
