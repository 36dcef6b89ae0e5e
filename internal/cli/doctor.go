package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/dashtrack/internal/backup"
	"github.com/julianstephens/dashtrack/internal/constants"
	errs "github.com/julianstephens/dashtrack/internal/errors"
	"github.com/julianstephens/dashtrack/internal/lockfile"
	"github.com/julianstephens/dashtrack/internal/models"
	"github.com/julianstephens/dashtrack/internal/storage/sqlite"
)

type DoctorCmd struct{}

// schemaReporter is implemented by the SQL-backed stores.
type schemaReporter interface {
	SchemaVersion() (current, latest int, err error)
}

type checkStatus int

const (
	checkOK checkStatus = iota
	checkWarn
	checkFail
	checkSkipped
)

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	hasError := false
	report := func(name string, status checkStatus, detail string) {
		switch status {
		case checkOK:
			ctx.printf("%s %s: OK\n", okStyle.Render("✓"), name)
		case checkWarn:
			ctx.printf("%s %s: WARNING\n", warningStyle.Render("⚠"), name)
		case checkFail:
			ctx.printf("%s %s: FAIL\n", failStyle.Render("✗"), name)
			hasError = true
		case checkSkipped:
			ctx.printf("%s %s: SKIPPED\n", mutedStyle.Render("⊘"), name)
		}
		if detail != "" {
			ctx.printf("   %s\n", detail)
		}
	}

	reachable := checkStoreReachable(ctx)
	if reachable != nil {
		report("Store reachable", checkFail, reachable.Error())
	} else {
		report("Store reachable", checkOK, "")
	}

	if reporter, ok := ctx.Store.(schemaReporter); ok && reachable == nil {
		status, detail := checkSchema(reporter)
		report("Schema version", status, detail)
	}

	if isFileStore(ctx.Store) {
		status, detail := checkBackups(ctx)
		report("Backups present", status, detail)
	}

	if reachable == nil {
		status, detail := checkRecords(ctx)
		report("Data validation", status, detail)
	} else {
		report("Data validation", checkSkipped, "store not reachable")
	}

	status, detail := checkServer(ctx)
	report("Server", status, detail)

	status, detail = checkClock()
	report("Clock/timezone", status, detail)

	ctx.println()
	if hasError {
		ctx.println("Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}
	ctx.println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *Context) error {
	if err := ctx.Load(); err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}
	if s, ok := ctx.Store.(*sqlite.Store); ok {
		var one int
		if err := s.GetDB().QueryRow("SELECT 1").Scan(&one); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkSchema(r schemaReporter) (checkStatus, string) {
	current, latest, err := r.SchemaVersion()
	switch {
	case err != nil:
		return checkFail, err.Error()
	case current > latest:
		return checkFail, fmt.Sprintf("database schema version (%d) is newer than supported version (%d)", current, latest)
	case current < latest:
		return checkFail, fmt.Sprintf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return checkOK, fmt.Sprintf("version %d", current)
}

func checkBackups(ctx *Context) (checkStatus, string) {
	mgr, err := backup.NewManager(ctx.Store.GetConfigPath())
	if err != nil {
		return checkSkipped, err.Error()
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return checkWarn, fmt.Sprintf("failed to list backups: %v", err)
	}
	if len(backups) == 0 {
		return checkWarn, fmt.Sprintf("no backups found, consider creating one with '%s backup create'", constants.AppName)
	}
	return checkOK, fmt.Sprintf("latest %s", backups[0].Timestamp.Format("2006-01-02 15:04"))
}

func checkRecords(ctx *Context) (checkStatus, string) {
	e, err := ctx.Engine()
	if err != nil {
		return checkFail, err.Error()
	}
	counts, err := e.Verify(ctx.Context())
	if err != nil {
		// Show the provider cause rather than the generic failure text
		var engineErr *errs.EngineError
		if errors.As(err, &engineErr) {
			err = engineErr.Unwrap()
		}
		return checkFail, err.Error()
	}

	parts := make([]string, 0, len(models.Kinds))
	for _, kind := range models.Kinds {
		parts = append(parts, fmt.Sprintf("%s %d", kind, counts[kind]))
	}
	return checkOK, strings.Join(parts, ", ")
}

func checkServer(ctx *Context) (checkStatus, string) {
	if ctx.LockfilePath == "" {
		return checkSkipped, "no lockfile location"
	}
	info, err := lockfile.Discover(ctx.LockfilePath)
	if errors.Is(err, lockfile.ErrNotRunning) {
		return checkOK, "not running"
	}
	if err != nil {
		return checkWarn, fmt.Sprintf("stale lockfile at %s: %v", ctx.LockfilePath, err)
	}
	return checkOK, fmt.Sprintf("running at %s (pid %d)", info.URL(), info.PID)
}

func checkClock() (checkStatus, string) {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return checkFail, fmt.Sprintf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if _, offset := now.Zone(); offset == 0 && now.Location() == time.UTC {
		return checkOK, "timezone is UTC"
	}
	return checkOK, ""
}
