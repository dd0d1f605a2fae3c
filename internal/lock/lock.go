package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ErrHeld reports that another live process already owns the lock. The caller
// must exit without side effects.
var ErrHeld = errors.New("lock held by another live process")

// Lock is a pidfile-based single-instance guard. The recorded owner is probed
// with signal 0, so a stale file left by a dead process never blocks startup.
type Lock struct {
	path string
	pid  int
}

// Acquire claims the lock resource for the current process. It returns ErrHeld
// when the file records a different, still-running pid.
func Acquire(path string) (*Lock, error) {
	return acquire(path, os.Getpid(), pidAlive)
}

func acquire(path string, pid int, alive func(int) bool) (*Lock, error) {
	if owner, ok := ReadOwner(path); ok && owner != pid && alive(owner) {
		return nil, fmt.Errorf("%w (pid %d)", ErrHeld, owner)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return nil, fmt.Errorf("write lock file: %w", err)
	}
	return &Lock{path: path, pid: pid}, nil
}

// Release removes the lock file. Safe to call more than once; must run on
// every exit path, normal or faulted.
func (l *Lock) Release() {
	if l == nil {
		return
	}
	// Only remove our own claim; a successor may have re-claimed the path.
	if owner, ok := ReadOwner(l.path); ok && owner == l.pid {
		_ = os.Remove(l.path)
	}
}

// ReadOwner returns the pid recorded in the lock file, if any.
func ReadOwner(path string) (int, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// OwnerAlive reports whether the recorded owner is a running process, without
// sending it any real signal.
func OwnerAlive(path string) (int, bool) {
	pid, ok := ReadOwner(path)
	if !ok {
		return 0, false
	}
	return pid, pidAlive(pid)
}

func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, syscall.Signal(0))
	// EPERM means the process exists but belongs to another user.
	return err == nil || errors.Is(err, syscall.EPERM)
}
