// Package logger holds the process-wide structured logger. Until Init runs
// every call is a no-op, so packages can log unconditionally in tests.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/dashtrack/internal/constants"
)

// Logger is the global logger, nil before Init.
var Logger *log.Logger

var rotating *lumberjack.Logger

// Config selects where log lines go and how verbose they are.
type Config struct {
	// Debug lowers the level to debug and mirrors output to stderr.
	Debug bool
	// ConfigDir is the application directory; logs go to ConfigDir/logs.
	ConfigDir string
	// Stderr mirrors info-level output to stderr; the server sets it.
	Stderr bool
	// Output replaces the rotating file when set.
	Output io.Writer
}

func Init(cfg Config) error {
	writer := cfg.Output
	if writer == nil {
		logDir := filepath.Join(cfg.ConfigDir, "logs")
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return err
		}
		rotating = &lumberjack.Logger{
			Filename:   filepath.Join(logDir, constants.AppName+".log"),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		writer = rotating
	}
	if cfg.Debug || cfg.Stderr {
		writer = io.MultiWriter(os.Stderr, writer)
	}

	level := log.WarnLevel
	switch {
	case cfg.Debug:
		level = log.DebugLevel
	case cfg.Stderr:
		level = log.InfoLevel
	}

	Logger = log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.AppName,
	})
	return nil
}

// Close flushes and closes the log file.
func Close() error {
	if rotating == nil {
		return nil
	}
	err := rotating.Close()
	rotating = nil
	return err
}

// With returns a child logger carrying keyvals on every line, or a discard
// logger before Init.
func With(keyvals ...any) *log.Logger {
	if Logger == nil {
		return log.New(io.Discard)
	}
	return Logger.With(keyvals...)
}

func Debug(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}
