package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/julianstephens/dashtrack/internal/models"
	"github.com/julianstephens/dashtrack/internal/storage"
)

// MigrateCmd copies every record of every kind from another store into the
// current one, keeping ids, owners and timestamps.
type MigrateCmd struct {
	From string `required:"" help:"Source store: a .db or .json path, or a PostgreSQL connection string."`
}

func (c *MigrateCmd) Run(ctx *Context) error {
	if sameLocation(c.From, ctx.Store.GetConfigPath()) {
		return fmt.Errorf("source and destination are the same: %s", c.From)
	}
	if err := CheckCredentials(c.From); err != nil {
		return err
	}

	src, err := OpenStore(c.From)
	if err != nil {
		return err
	}
	if err := src.Load(); err != nil {
		return fmt.Errorf("failed to load source store: %w", err)
	}
	defer src.Close()

	if err := ctx.Load(); err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()

	ctx.printf("Migrating data from: %s\n", src.GetConfigPath())
	for _, kind := range models.Kinds {
		copied, skipped, err := copyKind(ctx, src, kind)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.printf("  %-9s %d copied, %d already present\n", kind, copied, skipped)
	}
	ctx.println("Migration completed successfully!")
	return nil
}

// copyKind is idempotent: records whose id already exists are skipped.
func copyKind(ctx *Context, src storage.Provider, kind models.Kind) (copied, skipped int, err error) {
	records, err := src.AllRecords(ctx.Context(), kind)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read %s from source: %w", kind, err)
	}
	for _, rec := range records {
		err := ctx.Store.InsertRecord(ctx.Context(), kind, rec)
		switch {
		case errors.Is(err, storage.ErrDuplicateID):
			skipped++
		case err != nil:
			return copied, skipped, fmt.Errorf("failed to copy %s %s: %w", kind.Label(), rec.ID, err)
		default:
			copied++
		}
	}
	return copied, skipped, nil
}

func sameLocation(a, b string) bool {
	if a == b {
		return true
	}
	pa, errA := ExpandPath(a)
	pb, errB := ExpandPath(b)
	if errA != nil || errB != nil {
		return false
	}
	absA, errA := filepath.Abs(pa)
	absB, errB := filepath.Abs(pb)
	return errA == nil && errB == nil && absA == absB
}
