package backup

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/dashtrack/internal/constants"
)

func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "dashtrack.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE records (id TEXT PRIMARY KEY, data TEXT)`); err != nil {
		t.Fatalf("failed to create test table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO records (id, data) VALUES ('a', '{}'), ('b', '{}')`); err != nil {
		t.Fatalf("failed to insert test data: %v", err)
	}
	return dbPath
}

func setupTestJSON(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashtrack.json")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("failed to write test document: %v", err)
	}
	return path
}

func countRows(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM records").Scan(&count); err != nil {
		t.Fatalf("failed to query database: %v", err)
	}
	return count
}

// steppingClock returns a clock that advances one minute per call.
func steppingClock() func() time.Time {
	current := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func TestNewManagerRejectsUnsupportedStores(t *testing.T) {
	for _, path := range []string{"memory", "/tmp/store.txt", "postgres://localhost/db"} {
		if _, err := NewManager(path); !errors.Is(err, ErrUnsupported) {
			t.Errorf("NewManager(%q) error = %v, want ErrUnsupported", path, err)
		}
	}
}

func TestCreateBackupSQLite(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr, err := NewManager(dbPath)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if filepath.Dir(backupPath) != filepath.Join(filepath.Dir(dbPath), constants.BackupDirName) {
		t.Errorf("backup written to %s, want the backups directory", backupPath)
	}
	name := filepath.Base(backupPath)
	if !strings.HasPrefix(name, "dashtrack-") || !strings.HasSuffix(name, ".db") {
		t.Errorf("unexpected backup name %q", name)
	}
	if got := countRows(t, backupPath); got != 2 {
		t.Errorf("expected 2 rows in backup, got %d", got)
	}
}

func TestCreateBackupJSON(t *testing.T) {
	body := `{"version":1,"collections":{"todo-items":[]}}`
	path := setupTestJSON(t, body)
	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	data, err := os.ReadFile(backupPath)
	if err != nil {
		t.Fatalf("failed to read backup: %v", err)
	}
	if string(data) != body {
		t.Errorf("backup content = %s, want %s", data, body)
	}
}

func TestCreateBackupRejectsInvalidJSON(t *testing.T) {
	path := setupTestJSON(t, `{not json`)
	mgr, _ := NewManager(path)

	if _, err := mgr.CreateBackup(); err == nil {
		t.Fatal("expected error backing up an invalid document")
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups after failure, got %d", len(backups))
	}
}

func TestCreateBackupMissingStore(t *testing.T) {
	mgr, _ := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.CreateBackup(); err == nil {
		t.Fatal("expected error for missing store")
	}
}

func TestBackupRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr, _ := NewManager(dbPath)
	mgr.now = steppingClock()

	for i := 0; i < constants.MaxBackups+5; i++ {
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != constants.MaxBackups {
		t.Errorf("expected %d backups after rotation, got %d", constants.MaxBackups, len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if !backups[i].Timestamp.Before(backups[i-1].Timestamp) {
			t.Errorf("backup %d is not older than backup %d", i, i-1)
		}
	}
}

func TestSameTimestampGetsCounter(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr, _ := NewManager(dbPath)
	fixed := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	mgr.now = func() time.Time { return fixed }

	first, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("first CreateBackup failed: %v", err)
	}
	second, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("second CreateBackup failed: %v", err)
	}
	if first == second {
		t.Fatalf("backups share a path: %s", first)
	}
	if !strings.HasSuffix(second, "-1.db") {
		t.Errorf("second backup = %s, want counter suffix", second)
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(backups))
	}
	if backups[0].Path != second {
		t.Errorf("newest backup = %s, want %s", backups[0].Path, second)
	}
}

func TestListBackupsSkipsForeignFiles(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr, _ := NewManager(dbPath)

	if _, err := mgr.CreateBackup(); err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	for _, name := range []string{"notes.txt", "dashtrack-garbage.db", "dashtrack-20240101-000000.json"} {
		if err := os.WriteFile(filepath.Join(mgr.BackupDir(), name), []byte("x"), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 1 {
		t.Errorf("expected 1 backup, got %d", len(backups))
	}
}

func TestListBackupsNoDirectory(t *testing.T) {
	mgr, _ := NewManager(filepath.Join(t.TempDir(), "dashtrack.db"))
	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %d", len(backups))
	}
}

func TestRestoreBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr, _ := NewManager(dbPath)
	mgr.now = steppingClock()

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO records (id, data) VALUES ('c', '{}')`); err != nil {
		t.Fatalf("failed to modify database: %v", err)
	}
	db.Close()

	previous, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	if got := countRows(t, dbPath); got != 2 {
		t.Errorf("expected 2 rows after restore, got %d", got)
	}
	if previous == "" {
		t.Fatal("expected a pre-restore backup")
	}
	if got := countRows(t, previous); got != 3 {
		t.Errorf("expected 3 rows in pre-restore backup, got %d", got)
	}
}

func TestRestoreBackupJSON(t *testing.T) {
	path := setupTestJSON(t, `{"version":1,"collections":{"habits":[]}}`)
	mgr, _ := NewManager(path)
	mgr.now = steppingClock()

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(`{"version":1,"collections":{}}`), 0600); err != nil {
		t.Fatalf("failed to modify document: %v", err)
	}

	if _, err := mgr.RestoreBackup(backupPath); err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read restored document: %v", err)
	}
	if !strings.Contains(string(data), "habits") {
		t.Errorf("restored document = %s", data)
	}
}

func TestRestoreBackupRejectsInvalidFile(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr, _ := NewManager(dbPath)

	bogus := filepath.Join(t.TempDir(), "bogus.db")
	if err := os.WriteFile(bogus, []byte("this is not a database"), 0600); err != nil {
		t.Fatalf("failed to write bogus file: %v", err)
	}

	if _, err := mgr.RestoreBackup(bogus); err == nil {
		t.Fatal("expected error restoring an invalid backup")
	}
	if got := countRows(t, dbPath); got != 2 {
		t.Errorf("store was modified by a failed restore: %d rows", got)
	}
}

func TestRestoreBackupMissingFile(t *testing.T) {
	mgr, _ := NewManager(setupTestDB(t))
	if _, err := mgr.RestoreBackup(filepath.Join(t.TempDir(), "nope.db")); err == nil {
		t.Fatal("expected error for missing backup file")
	}
}
