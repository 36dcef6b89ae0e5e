package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/dashtrack/internal/backup"
	"github.com/julianstephens/dashtrack/internal/client"
	"github.com/julianstephens/dashtrack/internal/constants"
	"github.com/julianstephens/dashtrack/internal/dispatch"
	"github.com/julianstephens/dashtrack/internal/engine"
	"github.com/julianstephens/dashtrack/internal/keyring"
	"github.com/julianstephens/dashtrack/internal/lockfile"
	"github.com/julianstephens/dashtrack/internal/logger"
	"github.com/julianstephens/dashtrack/internal/storage"
	"github.com/julianstephens/dashtrack/internal/storage/jsonfile"
	"github.com/julianstephens/dashtrack/internal/storage/memory"
	"github.com/julianstephens/dashtrack/internal/storage/postgres"
	"github.com/julianstephens/dashtrack/internal/storage/sqlite"
)

// Context is shared by every command.
type Context struct {
	Store        storage.Provider
	Owner        string
	Remote       string
	LockfilePath string
	Out          io.Writer
	In           io.Reader

	ctx    context.Context
	engine *engine.Engine
	loaded bool
}

// NewContext wires a command context. Cancelling base stops long-running
// commands such as serve.
func NewContext(base context.Context, store storage.Provider, owner, remote string) *Context {
	lockPath, err := lockfile.DefaultPath()
	if err != nil {
		logger.Debug("Server discovery disabled", "error", err)
	}
	return &Context{
		Store:        store,
		Owner:        owner,
		Remote:       remote,
		LockfilePath: lockPath,
		Out:          os.Stdout,
		In:           os.Stdin,
		ctx:          base,
	}
}

// Context returns the base context for storage and request calls.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Load opens an existing store once per process.
func (c *Context) Load() error {
	if c.loaded {
		return nil
	}
	if err := c.Store.Load(); err != nil {
		return err
	}
	c.loaded = true
	return nil
}

// Engine returns the engine over the loaded store.
func (c *Context) Engine() (*engine.Engine, error) {
	if c.engine != nil {
		return c.engine, nil
	}
	if err := c.Load(); err != nil {
		return nil, err
	}
	c.engine = engine.New(c.Store)
	return c.engine, nil
}

// Requester picks where requests go: an explicit --remote URL, then a live
// server advertised by the lockfile, then the in-process dispatcher.
func (c *Context) Requester() (dispatch.Requester, error) {
	if c.Remote != "" {
		logger.Debug("Using remote server", "url", c.Remote)
		return client.New(c.Remote), nil
	}
	if c.LockfilePath != "" {
		info, err := lockfile.Discover(c.LockfilePath)
		if err == nil {
			logger.Debug("Using discovered server", "url", info.URL(), "pid", info.PID)
			return client.New(info.URL()), nil
		}
		if !errors.Is(err, lockfile.ErrNotRunning) {
			logger.Warn("Ignoring server lockfile", "path", c.LockfilePath, "error", err)
		}
	}
	e, err := c.Engine()
	if err != nil {
		return nil, err
	}
	return dispatch.New(e), nil
}

// PerformAutomaticBackup snapshots file-based stores and only logs failures.
func (c *Context) PerformAutomaticBackup() {
	mgr, err := backup.NewManager(c.Store.GetConfigPath())
	if err != nil {
		return
	}
	if _, err := mgr.CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// ResolveConfig turns the --config value into a store location. An empty
// value falls back to the connection-string env var, then the keyring, then
// the default SQLite path.
func ResolveConfig(config string) string {
	if config != "" {
		return config
	}
	if connStr := os.Getenv(constants.EnvDBConnection); connStr != "" {
		return connStr
	}
	if connStr, err := keyring.GetConnectionString(); err == nil {
		return connStr
	}
	return constants.DefaultConfigPath
}

// OpenStore builds the provider for a resolved location without touching it.
func OpenStore(location string) (storage.Provider, error) {
	switch {
	case location == constants.MemoryStoreName:
		return memory.New(), nil
	case isPostgres(location):
		return postgres.New(location), nil
	}

	path, err := ExpandPath(location)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return jsonfile.New(path), nil
	}
	return sqlite.New(path), nil
}

// CheckCredentials rejects a command-line connection string with a password.
func CheckCredentials(config string) error {
	if !isPostgres(config) {
		return nil
	}
	if err := postgres.ValidateConnString(config); err != nil {
		if errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("%w; store the connection string with '%s keyring set' or export %s instead",
				err, constants.AppName, constants.EnvDBConnection)
		}
		return err
	}
	return nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// isPostgres accepts URLs and key=value DSNs.
func isPostgres(location string) bool {
	return postgres.IsConnString(location) || strings.Contains(location, "host=")
}

func isFileStore(store storage.Provider) bool {
	switch store.(type) {
	case *sqlite.Store, *jsonfile.Store:
		return true
	}
	return false
}
