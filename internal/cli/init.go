package cli

import (
	"errors"
	"fmt"
	"os"
)

type InitCmd struct {
	Force bool `help:"Delete an existing local store before initializing."`
}

func (c *InitCmd) Run(ctx *Context) error {
	if c.Force {
		if err := c.removeExisting(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.loaded = true
	ctx.printf("Initialized dashtrack storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}

// removeExisting deletes a file-based store. Server-side stores are cleared
// through Reset instead so the schema survives.
func (c *InitCmd) removeExisting(ctx *Context) error {
	path := ctx.Store.GetConfigPath()
	if !isFileStore(ctx.Store) {
		if err := ctx.Store.Load(); err != nil {
			// Nothing to clear yet
			return nil
		}
		defer ctx.Store.Close()
		return ctx.Store.Reset(ctx.Context())
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to access existing store: %w", err)
	}

	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close existing store: %w", err)
	}
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete existing store: %w", err)
		}
	}
	ctx.printf("Deleted existing store at: %s\n", path)
	return nil
}
