package constants

const (
	AppName            = "dashtrack"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/dashtrack/dashtrack.db"
	Version            = "v0.3.0"

	// DefaultOwnerID is the implicit owner used when the caller supplies none.
	DefaultOwnerID = "default-user-id"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// MemoryStoreName selects the process-lifetime backend in place of a path.
	MemoryStoreName = "memory"

	// EnvDBConnection supplies a PostgreSQL connection string when --config is unset.
	EnvDBConnection = "DASHTRACK_DB_CONNECTION"

	// Server constants
	DefaultAddr          = "127.0.0.1:5000"
	APIPrefix            = "/api"
	OwnerHeader          = "X-Owner-ID"
	ServerLockfileName   = "dashtrack-server.lock"
	ServerExecutableName = "dashtrack"

	// Backup constants
	MaxBackups    = 14
	BackupDirName = "backups"
)
