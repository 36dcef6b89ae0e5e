package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/dashtrack/internal/models"
)

var (
	// ErrDuplicateID is returned when an insert reuses an existing id.
	ErrDuplicateID = errors.New("record id already exists")
	// ErrNotLoaded is returned when a store is used before Init or Load.
	ErrNotLoaded = errors.New("storage not loaded")
)

// UnknownKindError reports a kind no collection exists for.
func UnknownKindError(kind models.Kind) error {
	return fmt.Errorf("unknown resource kind: %q", kind)
}

// RecordFromData rebuilds a Record envelope from a stored document.
func RecordFromData(data json.RawMessage) (Record, error) {
	var meta models.Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Record{}, fmt.Errorf("failed to parse stored record: %w", err)
	}
	if meta.ID == "" {
		return Record{}, errors.New("stored record has no id")
	}
	return Record{
		ID:        meta.ID,
		OwnerID:   meta.OwnerID,
		CreatedAt: meta.CreatedAt,
		Data:      data,
	}, nil
}

// KnownKind reports whether kind names a resource collection.
func KnownKind(kind models.Kind) bool {
	_, ok := models.ParseKind(string(kind))
	return ok
}
