package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/dashtrack/internal/constants"
	"github.com/julianstephens/dashtrack/internal/models"
	"github.com/julianstephens/dashtrack/internal/storage"
	"github.com/julianstephens/dashtrack/internal/storage/storagetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := New(filepath.Join(t.TempDir(), "dashtrack.json"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestProviderContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Provider {
		return newTestStore(t)
	})
}

func TestInitTwiceFails(t *testing.T) {
	store := newTestStore(t)
	if err := New(store.GetConfigPath()).Init(); err == nil {
		t.Error("expected Init to fail on an existing file")
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "missing.json"))
	err := store.Load()
	if err == nil || !strings.Contains(err.Error(), "init") {
		t.Errorf("Load error = %v, want hint to run init", err)
	}
}

func TestUseBeforeLoad(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "dashtrack.json"))
	_, err := store.ListRecords(context.Background(), models.KindTodos, "alice")
	if !errors.Is(err, storage.ErrNotLoaded) {
		t.Errorf("ListRecords error = %v, want ErrNotLoaded", err)
	}
}

func TestDocumentLayout(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if err := store.InsertRecord(ctx, models.KindSchedule, storagetest.NewRecord("s1", "alice", "x", 0)); err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}

	data, err := os.ReadFile(store.GetConfigPath())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("document is not valid JSON: %v", err)
	}
	if got := len(doc.Collections[constants.StorageKeySchedule]); got != 1 {
		t.Errorf("%s has %d items, want 1", constants.StorageKeySchedule, got)
	}
	if _, ok := doc.Collections[constants.StorageKeyMusic]; !ok {
		t.Errorf("missing %s collection", constants.StorageKeyMusic)
	}
}

func TestSharedFileAcrossStores(t *testing.T) {
	ctx := context.Background()
	first := newTestStore(t)

	second := New(first.GetConfigPath())
	if err := second.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer second.Close()

	if err := first.InsertRecord(ctx, models.KindTodos, storagetest.NewRecord("t1", "alice", "from first", 0)); err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}

	recs, err := second.ListRecords(ctx, models.KindTodos, "alice")
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "t1" {
		t.Errorf("second store sees %d records, want the one written by the first", len(recs))
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if err := store.InsertRecord(ctx, models.KindMeals, storagetest.NewRecord("m1", "alice", "x", 0)); err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}
	store.Close()

	reopened := New(store.GetConfigPath())
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer reopened.Close()

	recs, err := reopened.AllRecords(ctx, models.KindMeals)
	if err != nil {
		t.Fatalf("AllRecords failed: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("expected 1 meal after reopen, got %d", len(recs))
	}
}

func TestRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashtrack.json")
	if err := os.WriteFile(path, []byte(`{"version": 99, "collections": {}}`), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := New(path).Load(); err == nil {
		t.Error("expected Load to reject a newer document version")
	}
}
