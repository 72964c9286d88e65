package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// HeldError is returned when another yovod process holds the session lock.
type HeldError struct {
	PID     int
	Session string
	Since   string
	Path    string
}

func (e *HeldError) Error() string {
	if e.Session != "" {
		return fmt.Sprintf("session %q already served by PID %d since %s (%s)", e.Session, e.PID, e.Since, e.Path)
	}
	return fmt.Sprintf("session lock held by PID %d (%s)", e.PID, e.Path)
}

// Lock is an acquired flock on a session directory.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive, non-blocking lock on dir/LOCK and records the
// owner in it. Returns *HeldError if another process holds it.
func Acquire(dir, sessionName string) (*Lock, error) {
	lockPath := filepath.Join(dir, "LOCK")

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		data, _ := os.ReadFile(lockPath)
		_ = f.Close()
		held := parseOwner(string(data))
		held.Path = lockPath
		return nil, held
	}

	if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		_ = f.Close()
		return nil, err
	}
	content := fmt.Sprintf("pid=%d\nsession=%s\ntime=%s\n",
		os.Getpid(), sessionName, time.Now().UTC().Format(time.RFC3339))
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Lock{file: f, path: lockPath}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release drops the lock. Safe on a nil receiver and idempotent.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}

func parseOwner(content string) *HeldError {
	held := &HeldError{}
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			held.PID, _ = strconv.Atoi(value)
		case "session":
			held.Session = value
		case "time":
			held.Since = value
		}
	}
	return held
}
