package engine

import (
	"context"
	"encoding/json"
	"fmt"

	errs "github.com/julianstephens/dashtrack/internal/errors"
	"github.com/julianstephens/dashtrack/internal/models"
	"github.com/julianstephens/dashtrack/internal/storage"
	"github.com/julianstephens/dashtrack/internal/validation"
)

// Query carries the optional list filters. Date only applies to schedule
// items; an empty Date means today.
type Query struct {
	Date string
}

// orderFunc filters and orders one owner's records, which arrive in
// insertion order.
type orderFunc[S models.Record] func(items []S, q Query, today string) []S

// Collection is the typed view of one resource kind.
type Collection[S models.Record, I models.Input[S]] struct {
	engine *Engine
	kind   models.Kind
	blank  func() S
	order  orderFunc[S]
}

func newCollection[S models.Record, I models.Input[S]](e *Engine, kind models.Kind, blank func() S, order orderFunc[S]) *Collection[S, I] {
	return &Collection[S, I]{engine: e, kind: kind, blank: blank, order: order}
}

func (c *Collection[S, I]) Kind() models.Kind {
	return c.kind
}

// List returns the owner's records in the kind's display order.
func (c *Collection[S, I]) List(ctx context.Context, ownerID string, q Query) ([]S, error) {
	if q.Date != "" && !validation.IsValidDate(q.Date) {
		return nil, errs.InvalidField("date", "must be a date in YYYY-MM-DD format")
	}

	recs, err := c.engine.store.ListRecords(ctx, c.kind, ownerID)
	if err != nil {
		return nil, c.engine.fail("list", c.kind, err)
	}

	items := make([]S, 0, len(recs))
	for _, rec := range recs {
		item, err := c.decode(rec.Data)
		if err != nil {
			return nil, c.engine.fail("list", c.kind, err)
		}
		items = append(items, item)
	}
	return c.order(items, q, c.engine.Today()), nil
}

// Create validates in, applies the kind's defaults and stores a new record
// owned by ownerID.
func (c *Collection[S, I]) Create(ctx context.Context, ownerID string, in I) (S, error) {
	var zero S
	if err := in.Validate(false); err != nil {
		return zero, err
	}

	id, err := c.engine.newID()
	if err != nil {
		return zero, c.engine.fail("create", c.kind, fmt.Errorf("failed to generate id: %w", err))
	}

	item := c.blank()
	in.ApplyTo(item)
	meta := item.Base()
	meta.ID = id
	meta.OwnerID = ownerID
	meta.CreatedAt = c.engine.now().UTC()

	data, err := json.Marshal(item)
	if err != nil {
		return zero, c.engine.fail("create", c.kind, err)
	}
	rec := storage.Record{ID: meta.ID, OwnerID: meta.OwnerID, CreatedAt: meta.CreatedAt, Data: data}
	if err := c.engine.store.InsertRecord(ctx, c.kind, rec); err != nil {
		return zero, c.engine.fail("create", c.kind, err)
	}
	return item, nil
}

// Update merges the fields present in partial onto the owner's record.
// Absent fields keep their stored value.
func (c *Collection[S, I]) Update(ctx context.Context, id, ownerID string, partial I) (S, error) {
	var zero S
	if err := partial.Validate(true); err != nil {
		return zero, err
	}

	var merged S
	_, err := c.engine.store.UpdateRecord(ctx, c.kind, id, ownerID, func(data json.RawMessage) (json.RawMessage, error) {
		item, err := c.decode(data)
		if err != nil {
			return nil, err
		}
		partial.ApplyTo(item)
		merged = item
		return json.Marshal(item)
	})
	if err != nil {
		return zero, c.engine.fail("update", c.kind, err)
	}
	return merged, nil
}

// Delete removes the owner's record. It reports false when no such record
// exists for this owner, whether or not another owner has one.
func (c *Collection[S, I]) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	ok, err := c.engine.store.DeleteRecord(ctx, c.kind, id, ownerID)
	if err != nil {
		return false, c.engine.fail("delete", c.kind, err)
	}
	return ok, nil
}

func (c *Collection[S, I]) decode(data json.RawMessage) (S, error) {
	item := c.blank()
	if err := json.Unmarshal(data, item); err != nil {
		var zero S
		return zero, fmt.Errorf("failed to decode stored %s: %w", c.kind, err)
	}
	return item, nil
}

// Verify checks every stored record of the kind, across owners, against the
// kind's field rules and reports how many were checked.
func (c *Collection[S, I]) Verify(ctx context.Context) (int, error) {
	recs, err := c.engine.store.AllRecords(ctx, c.kind)
	if err != nil {
		return 0, c.engine.fail("verify", c.kind, err)
	}

	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		if seen[rec.ID] {
			return 0, fmt.Errorf("duplicate %s id %s", c.kind.Label(), rec.ID)
		}
		seen[rec.ID] = true

		in, err := models.DecodeInput[I](rec.Data)
		if err == nil {
			err = in.Validate(false)
		}
		if err != nil {
			return 0, fmt.Errorf("%s %s: %w", c.kind.Label(), rec.ID, err)
		}
	}
	return len(recs), nil
}
