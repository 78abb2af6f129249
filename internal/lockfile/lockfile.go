// Package lockfile keeps two Brenda processes from sharing a state directory.
//
// Two instances on the same directory would answer every message twice and
// race on the JSON lead files and the whatsmeow session. The lock is a flock
// on a file in the state directory, so the kernel drops it when the process
// dies.
package lockfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// LockFileName is created inside the state directory.
const LockFileName = "brenda.lock"

// Info is the owner record written into the lock file.
type Info struct {
	PID       int
	Hostname  string
	Transport string
	StartedAt time.Time
}

func (i Info) encode() string {
	return fmt.Sprintf("pid=%d\nhost=%s\ntransport=%s\nstarted=%s\n",
		i.PID, i.Hostname, i.Transport, i.StartedAt.UTC().Format(time.RFC3339))
}

func parseInfo(content string) Info {
	var info Info
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			info.PID, _ = strconv.Atoi(value)
		case "host":
			info.Hostname = value
		case "transport":
			info.Transport = value
		case "started":
			info.StartedAt, _ = time.Parse(time.RFC3339, value)
		}
	}
	return info
}

// Lock is a held state directory lock.
type Lock struct {
	file   *os.File
	path   string
	logger *slog.Logger
}

// AcquireLock takes the lock on stateDir, creating the directory if needed.
// transport is recorded for diagnostics. It fails with *LockError when another
// live process holds the lock.
func AcquireLock(stateDir, transport string, logger *slog.Logger) (*Lock, error) {
	if logger == nil {
		logger = slog.Default()
	}
	lockPath := filepath.Join(stateDir, LockFileName)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", stateDir, err)
	}

	// O_TRUNC would wipe the owner record before we know we own the lock.
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", lockPath, err)
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		owner := describeOwner(lockPath)
		logger.Error("AcquireLock: state directory already locked", "lockPath", lockPath, "owner", owner)
		return nil, &LockError{LockPath: lockPath, Owner: owner, Cause: err}
	}

	host, _ := os.Hostname()
	info := Info{PID: os.Getpid(), Hostname: host, Transport: transport, StartedAt: time.Now()}
	if err := writeInfo(file, info); err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return nil, fmt.Errorf("failed to write lock owner to %s: %w", lockPath, err)
	}

	logger.Info("AcquireLock: state directory locked", "lockPath", lockPath, "pid", info.PID)
	return &Lock{file: file, path: lockPath, logger: logger}, nil
}

func writeInfo(f *os.File, info Info) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.WriteAt([]byte(info.encode()), 0); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks and removes the lock file. Calling it twice is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	// Remove while still holding the lock so no other process can grab a file
	// that is about to disappear.
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		l.logger.Warn("Lock.Release: failed to remove lock file", "lockPath", l.path, "error", err)
	}
	unlockErr := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.path, unlockErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", l.path, closeErr)
	}
	l.logger.Debug("Lock.Release: state directory unlocked", "lockPath", l.path)
	return nil
}

// LockError reports a state directory held by another process.
type LockError struct {
	LockPath string
	Owner    string
	Cause    error
}

func (e *LockError) Error() string {
	msg := fmt.Sprintf("another Brenda instance is using this state directory (lock file %s", e.LockPath)
	if e.Owner != "" {
		msg += ", owner " + e.Owner
	}
	return msg + "); stop it or choose a different --state-dir"
}

func (e *LockError) Unwrap() error {
	return e.Cause
}

// describeOwner summarizes the lock file's owner record for error messages.
func describeOwner(lockPath string) string {
	data, err := os.ReadFile(lockPath)
	if err != nil || len(data) == 0 {
		return ""
	}
	info := parseInfo(string(data))
	if info.PID <= 0 {
		return ""
	}
	state := "running"
	if !isProcessRunning(info.PID) {
		state = "not running, stale"
	}
	desc := fmt.Sprintf("pid %d (%s)", info.PID, state)
	if info.Hostname != "" {
		desc += " on " + info.Hostname
	}
	if info.Transport != "" {
		desc += " via " + info.Transport
	}
	return desc
}

// isProcessRunning probes pid with signal 0.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
