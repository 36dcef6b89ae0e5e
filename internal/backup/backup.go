// Package backup snapshots and restores file-based stores. SQLite files are
// copied with VACUUM INTO; JSON documents are copied verbatim after a
// validity check.
package backup

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/dashtrack/internal/constants"
	"github.com/julianstephens/dashtrack/internal/logger"
)

const (
	filePrefix      = constants.AppName + "-"
	timestampLayout = "20060102-150405"
)

// ErrUnsupported is returned for stores that are not a single local file.
var ErrUnsupported = errors.New("backups are only supported for .db and .json stores")

type format int

const (
	formatSQLite format = iota
	formatJSON
)

// Info describes one backup file.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager handles backups for one store file. Backups live in a sibling
// "backups" directory and the newest constants.MaxBackups are kept.
type Manager struct {
	storePath string
	backupDir string
	format    format
	suffix    string
	now       func() time.Time
}

// NewManager returns a manager for the store at storePath.
func NewManager(storePath string) (*Manager, error) {
	m := &Manager{
		storePath: storePath,
		backupDir: filepath.Join(filepath.Dir(storePath), constants.BackupDirName),
		now:       time.Now,
	}
	switch strings.ToLower(filepath.Ext(storePath)) {
	case ".db":
		m.format, m.suffix = formatSQLite, ".db"
	case ".json":
		m.format, m.suffix = formatJSON, ".json"
	default:
		return nil, ErrUnsupported
	}
	return m, nil
}

// BackupDir returns the directory backups are written to.
func (m *Manager) BackupDir() string {
	return m.backupDir
}

// CreateBackup snapshots the store and prunes old backups.
func (m *Manager) CreateBackup() (string, error) {
	path, err := m.createBackup()
	if err != nil {
		return "", err
	}
	if err := m.rotate(); err != nil {
		logger.Warn("Failed to rotate old backups", "error", err)
	}
	return path, nil
}

func (m *Manager) createBackup() (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.storePath); errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("store does not exist: %s", m.storePath)
	}

	dest, err := m.uniquePath()
	if err != nil {
		return "", err
	}

	switch m.format {
	case formatSQLite:
		err = vacuumInto(m.storePath, dest)
	case formatJSON:
		if err = verifyJSON(m.storePath); err == nil {
			err = copyFile(m.storePath, dest)
		}
	}
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to back up store: %w", err)
	}
	return dest, nil
}

func (m *Manager) uniquePath() (string, error) {
	stamp := m.now().Format(timestampLayout)
	path := filepath.Join(m.backupDir, filePrefix+stamp+m.suffix)
	for counter := 1; counter <= 100; counter++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		path = filepath.Join(m.backupDir, fmt.Sprintf("%s%s-%d%s", filePrefix, stamp, counter, m.suffix))
	}
	return "", errors.New("failed to generate unique backup filename")
}

func vacuumInto(src, dest string) error {
	db, err := sql.Open("sqlite", "file:"+src)
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}
	if _, err := db.Exec("VACUUM INTO ?", dest); err != nil {
		db.Close()
		return copyFile(src, dest)
	}
	return nil
}

// ListBackups returns the backups newest first.
func (m *Manager) ListBackups() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if errors.Is(err, os.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Info{}
	counters := map[string]int{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, m.suffix) {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), m.suffix)
		counter := 0
		if base, n, ok := strings.Cut(stamp[min(len(stamp), len(timestampLayout)):], "-"); ok && base == "" {
			c, convErr := strconv.Atoi(n)
			if convErr != nil {
				continue
			}
			counter = c
			stamp = stamp[:len(timestampLayout)]
		}
		ts, err := time.ParseInLocation(timestampLayout, stamp, time.Local)
		if err != nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(m.backupDir, name)
		counters[path] = counter
		backups = append(backups, Info{
			Path:      path,
			Timestamp: ts,
			Size:      info.Size(),
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return counters[backups[i].Path] > counters[backups[j].Path]
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func (m *Manager) rotate() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// RestoreBackup replaces the store with backupPath. The current store is
// backed up first and never rotated away by the restore itself.
func (m *Manager) RestoreBackup(backupPath string) (string, error) {
	if _, err := os.Stat(backupPath); errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	if err := m.verify(backupPath); err != nil {
		return "", fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var previous string
	if _, err := os.Stat(m.storePath); err == nil {
		previous, err = m.createBackup()
		if err != nil {
			return "", fmt.Errorf("failed to back up current store before restore: %w", err)
		}
	}

	tmp := m.storePath + ".restore.tmp"
	if err := copyFile(backupPath, tmp); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.storePath); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to restore store: %w", err)
	}
	// Stale WAL files would be replayed over the restored database
	if m.format == formatSQLite {
		os.Remove(m.storePath + "-wal")
		os.Remove(m.storePath + "-shm")
	}
	return previous, nil
}

func (m *Manager) verify(path string) error {
	if m.format == formatJSON {
		return verifyJSON(path)
	}
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return err
	}
	defer db.Close()
	var count int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

func verifyJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc struct {
		Collections map[string][]json.RawMessage `json:"collections"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Collections == nil {
		return errors.New("document has no collections")
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
