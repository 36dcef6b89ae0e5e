package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/dashtrack/internal/cli"
	"github.com/julianstephens/dashtrack/internal/constants"
	errs "github.com/julianstephens/dashtrack/internal/errors"
	"github.com/julianstephens/dashtrack/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Store location: a .db or .json path, 'memory', or a PostgreSQL connection string. Credentials must NOT be embedded; use the keyring or DASHTRACK_DB_CONNECTION." env:"DASHTRACK_CONFIG"`
	Owner   string `help:"Owner id requests are scoped to." env:"DASHTRACK_OWNER" default:"${default_owner}"`
	Remote  string `help:"Base URL of a running dashtrack server." env:"DASHTRACK_REMOTE"`
	Debug   bool   `help:"Log to stderr at debug level."`

	Init    cli.InitCmd    `cmd:"" help:"Initialize dashtrack storage."`
	Serve   cli.ServeCmd   `cmd:"" help:"Serve the API over HTTP."`
	Request cli.RequestCmd `cmd:"" help:"Send one API request."`
	List    cli.ListCmd    `cmd:"" help:"List one resource kind."`
	Reset   cli.ResetCmd   `cmd:"" help:"Delete every record."`
	Migrate cli.MigrateCmd `cmd:"" help:"Copy records from another store."`
	Doctor  cli.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Backup  struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    cli.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage store backups."`
	Keyring struct {
		Set    cli.KeyringSetCmd    `cmd:"" help:"Store the PostgreSQL connection string."`
		Get    cli.KeyringGetCmd    `cmd:"" help:"Show the stored connection string, password masked."`
		Delete cli.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
	} `cmd:"" help:"Manage the connection string in the OS keyring."`
}

func main() {
	// A missing .env is normal
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs.Fatalf("failed to load .env: %v", err)
	}

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Personal dashboard data layer: todos, projects, habits, workouts, schedule, meals and music"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":       constants.Version,
			"default_owner": constants.DefaultOwnerID,
			"default_addr":  constants.DefaultAddr,
		},
	)

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: filepath.Join(configDir, constants.AppName),
		Stderr:    ctx.Command() == "serve",
	}); err != nil {
		errs.Fatalf("failed to initialize logger: %v", err)
	}

	if err := cli.CheckCredentials(CLI.Config); err != nil {
		errs.Fatal(err)
	}
	store, err := cli.OpenStore(cli.ResolveConfig(CLI.Config))
	if err != nil {
		errs.Fatal(err)
	}

	base, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	appCtx := cli.NewContext(base, store, CLI.Owner, CLI.Remote)

	err = ctx.Run(appCtx)
	store.Close()
	stop()
	if err != nil {
		errs.Fatal(err)
	}
	logger.Close()
}
