package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAcquireLockWritesOwner(t *testing.T) {
	dir := t.TempDir()
	lock, err := AcquireLock(dir, "twilio", nil)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	defer lock.Release()

	if lock.Path() != filepath.Join(dir, LockFileName) {
		t.Errorf("unexpected lock path %q", lock.Path())
	}
	data, err := os.ReadFile(lock.Path())
	if err != nil {
		t.Fatalf("Failed to read lock file: %v", err)
	}
	info := parseInfo(string(data))
	if info.PID != os.Getpid() || info.Transport != "twilio" {
		t.Errorf("unexpected owner record %+v", info)
	}
	if info.StartedAt.IsZero() {
		t.Error("start time not recorded")
	}
}

func TestAcquireLockConflict(t *testing.T) {
	dir := t.TempDir()
	first, err := AcquireLock(dir, "whatsmeow", nil)
	if err != nil {
		t.Fatalf("Failed to acquire first lock: %v", err)
	}
	defer first.Release()

	second, err := AcquireLock(dir, "whatsmeow", nil)
	if err == nil {
		second.Release()
		t.Fatal("second acquisition should fail")
	}
	var lockErr *LockError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected *LockError, got %T", err)
	}
	if !strings.Contains(lockErr.Owner, "running") || !strings.Contains(lockErr.Owner, "via whatsmeow") {
		t.Errorf("owner not described: %q", lockErr.Owner)
	}
	if !strings.Contains(err.Error(), dir) {
		t.Errorf("error should name the lock file: %s", err)
	}
}

func TestReleaseAllowsReacquire(t *testing.T) {
	dir := t.TempDir()
	lock, err := AcquireLock(dir, "twilio", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second release should be a no-op: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, LockFileName)); !os.IsNotExist(err) {
		t.Error("lock file should be removed")
	}

	again, err := AcquireLock(dir, "twilio", nil)
	if err != nil {
		t.Fatalf("reacquire failed: %v", err)
	}
	again.Release()
}

func TestAcquireLockCreatesStateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	lock, err := AcquireLock(dir, "", nil)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	defer lock.Release()
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("state dir not created: %v", err)
	}
}

func TestParseInfo(t *testing.T) {
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	in := Info{PID: 42, Hostname: "brenda-1", Transport: "twilio", StartedAt: started}
	got := parseInfo(in.encode())
	if got.PID != in.PID || got.Hostname != in.Hostname || got.Transport != in.Transport || !got.StartedAt.Equal(started) {
		t.Errorf("expected %+v, got %+v", in, got)
	}
	if got := parseInfo("garbage"); got.PID != 0 {
		t.Errorf("expected empty info, got %+v", got)
	}
}
