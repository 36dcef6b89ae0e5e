package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	errs "github.com/julianstephens/dashtrack/internal/errors"
	"github.com/julianstephens/dashtrack/internal/models"
	"github.com/julianstephens/dashtrack/internal/storage"
)

func (s *Store) check(kind models.Kind) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}
	if !storage.KnownKind(kind) {
		return storage.UnknownKindError(kind)
	}
	return nil
}

func (s *Store) Reset(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("failed to reset records: %w", err)
	}
	return nil
}

func (s *Store) ListRecords(ctx context.Context, kind models.Kind, ownerID string) ([]storage.Record, error) {
	if err := s.check(kind); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM records WHERE kind = ? AND owner_id = ? ORDER BY seq", string(kind), ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	return scanRecords(rows)
}

func (s *Store) AllRecords(ctx context.Context, kind models.Kind) ([]storage.Record, error) {
	if err := s.check(kind); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM records WHERE kind = ? ORDER BY seq", string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]storage.Record, error) {
	defer rows.Close()

	recs := []storage.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		rec, err := storage.RecordFromData([]byte(data))
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *Store) InsertRecord(ctx context.Context, kind models.Kind, rec storage.Record) error {
	if err := s.check(kind); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO records (kind, id, owner_id, created_at, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (kind, id) DO NOTHING`,
		string(kind), rec.ID, rec.OwnerID, rec.CreatedAt.UTC().Format(time.RFC3339Nano), string(rec.Data))
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrDuplicateID
	}
	return nil
}

func (s *Store) UpdateRecord(ctx context.Context, kind models.Kind, id, ownerID string, fn storage.MutateFunc) (storage.Record, error) {
	if err := s.check(kind); err != nil {
		return storage.Record{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Record{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx,
		"SELECT data FROM records WHERE kind = ? AND id = ? AND owner_id = ?", string(kind), id, ownerID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Record{}, errs.ErrNotFound
	}
	if err != nil {
		return storage.Record{}, fmt.Errorf("failed to read %s: %w", kind, err)
	}

	data, err := fn([]byte(current))
	if err != nil {
		return storage.Record{}, err
	}
	rec, err := storage.RecordFromData(data)
	if err != nil {
		return storage.Record{}, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE records SET data = ? WHERE kind = ? AND id = ?", string(data), string(kind), id); err != nil {
		return storage.Record{}, fmt.Errorf("failed to update %s: %w", kind, err)
	}
	if err := tx.Commit(); err != nil {
		return storage.Record{}, fmt.Errorf("failed to commit update: %w", err)
	}
	return rec, nil
}

func (s *Store) DeleteRecord(ctx context.Context, kind models.Kind, id, ownerID string) (bool, error) {
	if err := s.check(kind); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE kind = ? AND id = ? AND owner_id = ?", string(kind), id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
