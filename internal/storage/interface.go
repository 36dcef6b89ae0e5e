package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/julianstephens/dashtrack/internal/models"
)

// Record is one stored resource. Data is the full stored JSON document; its
// id, ownerId and createdAt always match the envelope fields.
type Record struct {
	ID        string
	OwnerID   string
	CreatedAt time.Time
	Data      json.RawMessage
}

// MutateFunc receives a record's current document and returns its
// replacement. Returning an error aborts the update without writing.
type MutateFunc func(data json.RawMessage) (json.RawMessage, error)

// Provider persists records for every resource kind. Implementations are
// interchangeable: the engine, the dispatcher and the CLI only see this
// interface.
//
// Records are scoped by owner: a record whose owner differs from the caller's
// behaves exactly like a missing one. ListRecords and AllRecords return
// records in insertion order.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	// Reset removes every record of every kind.
	Reset(ctx context.Context) error

	// Records
	ListRecords(ctx context.Context, kind models.Kind, ownerID string) ([]Record, error)
	InsertRecord(ctx context.Context, kind models.Kind, rec Record) error
	// UpdateRecord runs fn as one read-modify-write unit. It returns
	// errors.ErrNotFound when no record matches id and ownerID.
	UpdateRecord(ctx context.Context, kind models.Kind, id, ownerID string, fn MutateFunc) (Record, error)
	DeleteRecord(ctx context.Context, kind models.Kind, id, ownerID string) (bool, error)

	// Bulk Retrieval for Migration
	AllRecords(ctx context.Context, kind models.Kind) ([]Record, error)

	// Utils
	GetConfigPath() string
}
