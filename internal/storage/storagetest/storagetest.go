// Package storagetest holds the behaviour every storage.Provider must share.
// Each backend's tests call Run with a factory for a fresh, initialized store.
package storagetest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	errs "github.com/julianstephens/dashtrack/internal/errors"
	"github.com/julianstephens/dashtrack/internal/models"
	"github.com/julianstephens/dashtrack/internal/storage"
)

// Factory returns an initialized provider. Cleanup is the factory's job.
type Factory func(t *testing.T) storage.Provider

var base = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// NewRecord builds a todo-shaped record for owner with the given id.
func NewRecord(id, owner, text string, offset time.Duration) storage.Record {
	created := base.Add(offset)
	data, _ := json.Marshal(map[string]any{
		"id":        id,
		"ownerId":   owner,
		"createdAt": created,
		"text":      text,
		"completed": false,
	})
	return storage.Record{ID: id, OwnerID: owner, CreatedAt: created, Data: data}
}

func textOf(t *testing.T, rec storage.Record) string {
	t.Helper()
	var doc struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(rec.Data, &doc); err != nil {
		t.Fatalf("failed to decode record %s: %v", rec.ID, err)
	}
	return doc.Text
}

func ids(recs []storage.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func equalIDs(got []storage.Record, want ...string) bool {
	g := ids(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

// Run executes the provider contract suite.
func Run(t *testing.T, open Factory) {
	ctx := context.Background()

	t.Run("InsertionOrder", func(t *testing.T) {
		store := open(t)
		for i, id := range []string{"t1", "t2", "t3"} {
			if err := store.InsertRecord(ctx, models.KindTodos, NewRecord(id, "alice", id, time.Duration(i)*time.Minute)); err != nil {
				t.Fatalf("InsertRecord(%s) failed: %v", id, err)
			}
		}

		recs, err := store.ListRecords(ctx, models.KindTodos, "alice")
		if err != nil {
			t.Fatalf("ListRecords failed: %v", err)
		}
		if !equalIDs(recs, "t1", "t2", "t3") {
			t.Errorf("ListRecords order = %v, want [t1 t2 t3]", ids(recs))
		}
		if !recs[0].CreatedAt.Equal(base) {
			t.Errorf("CreatedAt = %v, want %v", recs[0].CreatedAt, base)
		}
		if recs[0].OwnerID != "alice" {
			t.Errorf("OwnerID = %q, want alice", recs[0].OwnerID)
		}
	})

	t.Run("OwnerIsolation", func(t *testing.T) {
		store := open(t)
		mustInsert(t, store, models.KindTodos, NewRecord("a1", "alice", "alice's", 0))
		mustInsert(t, store, models.KindTodos, NewRecord("b1", "bob", "bob's", time.Minute))

		recs, err := store.ListRecords(ctx, models.KindTodos, "bob")
		if err != nil {
			t.Fatalf("ListRecords failed: %v", err)
		}
		if !equalIDs(recs, "b1") {
			t.Errorf("bob sees %v, want [b1]", ids(recs))
		}

		if _, err := store.UpdateRecord(ctx, models.KindTodos, "a1", "bob", func(d json.RawMessage) (json.RawMessage, error) {
			return d, nil
		}); !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("cross-owner UpdateRecord error = %v, want ErrNotFound", err)
		}

		ok, err := store.DeleteRecord(ctx, models.KindTodos, "a1", "bob")
		if err != nil || ok {
			t.Errorf("cross-owner DeleteRecord = %v, %v; want false, nil", ok, err)
		}

		recs, _ = store.ListRecords(ctx, models.KindTodos, "alice")
		if !equalIDs(recs, "a1") || textOf(t, recs[0]) != "alice's" {
			t.Errorf("alice's record was affected by bob: %v", ids(recs))
		}

		all, err := store.AllRecords(ctx, models.KindTodos)
		if err != nil {
			t.Fatalf("AllRecords failed: %v", err)
		}
		if !equalIDs(all, "a1", "b1") {
			t.Errorf("AllRecords = %v, want [a1 b1]", ids(all))
		}
	})

	t.Run("KindsAreIndependent", func(t *testing.T) {
		store := open(t)
		mustInsert(t, store, models.KindTodos, NewRecord("x1", "alice", "todo", 0))

		recs, err := store.ListRecords(ctx, models.KindHabits, "alice")
		if err != nil {
			t.Fatalf("ListRecords failed: %v", err)
		}
		if len(recs) != 0 {
			t.Errorf("habits collection sees %v", ids(recs))
		}

		// The same id may exist in two kinds
		mustInsert(t, store, models.KindHabits, NewRecord("x1", "alice", "habit", 0))
	})

	t.Run("DuplicateID", func(t *testing.T) {
		store := open(t)
		mustInsert(t, store, models.KindTodos, NewRecord("dup", "alice", "first", 0))

		err := store.InsertRecord(ctx, models.KindTodos, NewRecord("dup", "alice", "second", time.Minute))
		if !errors.Is(err, storage.ErrDuplicateID) {
			t.Errorf("InsertRecord duplicate error = %v, want ErrDuplicateID", err)
		}

		recs, _ := store.ListRecords(ctx, models.KindTodos, "alice")
		if len(recs) != 1 || textOf(t, recs[0]) != "first" {
			t.Errorf("duplicate insert changed the collection")
		}
	})

	t.Run("UpdateRecord", func(t *testing.T) {
		store := open(t)
		mustInsert(t, store, models.KindTodos, NewRecord("u1", "alice", "before", 0))
		mustInsert(t, store, models.KindTodos, NewRecord("u2", "alice", "other", time.Minute))

		rec, err := store.UpdateRecord(ctx, models.KindTodos, "u1", "alice", func(d json.RawMessage) (json.RawMessage, error) {
			var doc map[string]any
			if err := json.Unmarshal(d, &doc); err != nil {
				return nil, err
			}
			doc["text"] = "after"
			return json.Marshal(doc)
		})
		if err != nil {
			t.Fatalf("UpdateRecord failed: %v", err)
		}
		if textOf(t, rec) != "after" {
			t.Errorf("returned record text = %q, want after", textOf(t, rec))
		}

		recs, _ := store.ListRecords(ctx, models.KindTodos, "alice")
		if !equalIDs(recs, "u1", "u2") {
			t.Errorf("update changed insertion order: %v", ids(recs))
		}
		if textOf(t, recs[0]) != "after" {
			t.Errorf("stored text = %q, want after", textOf(t, recs[0]))
		}

		_, err = store.UpdateRecord(ctx, models.KindTodos, "missing", "alice", func(d json.RawMessage) (json.RawMessage, error) {
			return d, nil
		})
		if !errors.Is(err, errs.ErrNotFound) {
			t.Errorf("UpdateRecord(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("FailedMutateWritesNothing", func(t *testing.T) {
		store := open(t)
		mustInsert(t, store, models.KindTodos, NewRecord("f1", "alice", "keep", 0))

		boom := fmt.Errorf("merge rejected")
		_, err := store.UpdateRecord(ctx, models.KindTodos, "f1", "alice", func(d json.RawMessage) (json.RawMessage, error) {
			return nil, boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("UpdateRecord error = %v, want %v", err, boom)
		}

		recs, _ := store.ListRecords(ctx, models.KindTodos, "alice")
		if len(recs) != 1 || textOf(t, recs[0]) != "keep" {
			t.Error("failed mutate left a partial write")
		}
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		store := open(t)
		mustInsert(t, store, models.KindTodos, NewRecord("d1", "alice", "bye", 0))

		ok, err := store.DeleteRecord(ctx, models.KindTodos, "d1", "alice")
		if err != nil || !ok {
			t.Fatalf("first DeleteRecord = %v, %v; want true, nil", ok, err)
		}
		ok, err = store.DeleteRecord(ctx, models.KindTodos, "d1", "alice")
		if err != nil || ok {
			t.Errorf("second DeleteRecord = %v, %v; want false, nil", ok, err)
		}

		recs, _ := store.ListRecords(ctx, models.KindTodos, "alice")
		if len(recs) != 0 {
			t.Errorf("deleted record still listed: %v", ids(recs))
		}
	})

	t.Run("Reset", func(t *testing.T) {
		store := open(t)
		for _, kind := range models.Kinds {
			mustInsert(t, store, kind, NewRecord("r-"+string(kind), "alice", "x", 0))
		}
		if err := store.Reset(ctx); err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		for _, kind := range models.Kinds {
			recs, err := store.AllRecords(ctx, kind)
			if err != nil {
				t.Fatalf("AllRecords(%s) failed: %v", kind, err)
			}
			if len(recs) != 0 {
				t.Errorf("%s still has %d records after Reset", kind, len(recs))
			}
		}

		// Usable again after reset
		mustInsert(t, store, models.KindTodos, NewRecord("again", "alice", "x", 0))
	})

	t.Run("UnknownKind", func(t *testing.T) {
		store := open(t)
		if _, err := store.ListRecords(ctx, models.Kind("budget"), "alice"); err == nil {
			t.Error("expected error listing unknown kind")
		}
		if err := store.InsertRecord(ctx, models.Kind("budget"), NewRecord("b", "alice", "x", 0)); err == nil {
			t.Error("expected error inserting into unknown kind")
		}
	})
}

func mustInsert(t *testing.T, store storage.Provider, kind models.Kind, rec storage.Record) {
	t.Helper()
	if err := store.InsertRecord(context.Background(), kind, rec); err != nil {
		t.Fatalf("InsertRecord(%s, %s) failed: %v", kind, rec.ID, err)
	}
}
