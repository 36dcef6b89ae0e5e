package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/dashtrack/internal/dispatch"
	"github.com/julianstephens/dashtrack/internal/lockfile"
	"github.com/julianstephens/dashtrack/internal/logger"
	"github.com/julianstephens/dashtrack/internal/server"
)

type ServeCmd struct {
	Addr string `help:"Address to listen on." env:"DASHTRACK_ADDR" default:"${default_addr}"`
}

func (c *ServeCmd) Run(ctx *Context) error {
	e, err := ctx.Engine()
	if err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()

	srv := server.New(server.Config{Addr: c.Addr, DefaultOwner: ctx.Owner}, dispatch.New(e))

	base, cancel := context.WithCancel(ctx.Context())
	defer cancel()

	var (
		handle  *lockfile.Handle
		lockErr error
	)
	ready := func(addr string) {
		if ctx.LockfilePath != "" {
			handle, lockErr = lockfile.Acquire(ctx.LockfilePath, addr)
			if lockErr != nil {
				cancel()
				return
			}
		}
		ctx.printf("Serving %s on http://%s\n", ctx.Store.GetConfigPath(), addr)
	}

	err = srv.Serve(base, ready)
	if releaseErr := handle.Release(); releaseErr != nil {
		logger.Warn("Failed to remove server lockfile", "error", releaseErr)
	}
	if lockErr != nil {
		if errors.Is(lockErr, lockfile.ErrAlreadyRunning) {
			return lockErr
		}
		return fmt.Errorf("failed to advertise server: %w", lockErr)
	}
	return err
}
