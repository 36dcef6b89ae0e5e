// Package lockfile advertises a running server to other dashtrack processes.
// The file holds "addr|pid"; readers trust it only while that pid still
// belongs to a dashtrack executable.
package lockfile

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/dashtrack/internal/constants"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
	getpidFunc        = os.Getpid
)

var (
	// ErrNotRunning means no live server is advertised.
	ErrNotRunning = errors.New("dashtrack server is not running")
	// ErrAlreadyRunning means another process holds the server lock.
	ErrAlreadyRunning = errors.New("another dashtrack server is already running")
)

// Info describes an advertised server.
type Info struct {
	Addr string
	PID  int
}

// URL is the server's base URL.
func (i Info) URL() string {
	return "http://" + i.Addr
}

// DefaultPath returns the lockfile location inside the user config dir.
func DefaultPath() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	return filepath.Join(configDir, constants.AppName, constants.ServerLockfileName), nil
}

// Handle is a held server lock.
type Handle struct {
	path  string
	guard *flock.Flock
}

// Acquire takes the server lock and advertises addr. Only one process may
// hold it at a time.
func Acquire(path, addr string) (*Handle, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create lockfile directory: %w", err)
	}

	guard := flock.New(path + ".guard")
	locked, err := guard.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire server lock: %w", err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}

	content := fmt.Sprintf("%s|%d", addr, getpidFunc())
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		guard.Unlock()
		return nil, fmt.Errorf("failed to write lockfile: %w", err)
	}
	return &Handle{path: path, guard: guard}, nil
}

// Release removes the advertisement and drops the lock.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	err := os.Remove(h.path)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	if unlockErr := h.guard.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

// Discover reads the lockfile at path and confirms the advertised process
// is alive.
func Discover(path string) (Info, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Info{}, ErrNotRunning
	}

	addr, pidStr, ok := strings.Cut(strings.TrimSpace(string(content)), "|")
	if !ok {
		return Info{}, errors.New("lockfile is malformed")
	}

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return Info{}, fmt.Errorf("invalid address in lockfile: %w", err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return Info{}, errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return Info{}, fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return Info{}, errors.New("invalid process ID in lockfile")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return Info{}, ErrNotRunning
	}
	if !strings.HasPrefix(process.Executable(), constants.ServerExecutableName) {
		return Info{}, fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.ServerExecutableName, process.Executable())
	}

	return Info{Addr: addr, PID: pid}, nil
}
