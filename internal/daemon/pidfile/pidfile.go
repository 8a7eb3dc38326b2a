// Package pidfile guards against concurrent seriem daemons through a PID
// file. Liveness is probed with signal 0, so a stale file left behind by a
// crash does not block the next start.
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Acquire claims the PID file for the current process. It fails when the
// recorded process is still alive and silently replaces a stale file.
func Acquire(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create pid directory: %w", err)
	}

	if pid, err := Read(path); err == nil {
		if processAlive(pid) {
			return fmt.Errorf("daemon already running with PID %d", pid)
		}
		_ = os.Remove(path)
	}

	self := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(path, []byte(self), 0644); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

// Release removes the PID file.
func Release(path string) error {
	return os.Remove(path)
}

// Read parses the PID recorded at path.
func Read(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(content)))
}

// IsRunning reports whether the recorded daemon is alive, along with its
// PID. A missing file means not running.
func IsRunning(path string) (bool, int, error) {
	pid, err := Read(path)
	switch {
	case os.IsNotExist(err):
		return false, 0, nil
	case err != nil:
		return false, 0, err
	}
	return processAlive(pid), pid, nil
}

// processAlive probes pid with signal 0, which delivers nothing. EPERM still
// means the process exists, just owned by someone else.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}
