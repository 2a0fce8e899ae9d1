// Package process tracks the running server through a PID file.
package process

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/gops/goprocess"
	"github.com/inovacc/finzana/internal/encoding"
)

// PIDFile is the name of the server PID file in the app data directory.
const PIDFile = "finzana.pid"

// Info describes a running Go process.
type Info struct {
	PID  int
	Exec string
	Path string
}

// List returns the Go processes visible to the current user.
func List() []Info {
	var out []Info

	for _, proc := range goprocess.FindAll() {
		out = append(out, Info{
			PID:  proc.PID,
			Exec: proc.Exec,
			Path: proc.Path,
		})
	}

	return out
}

// IsRunning reports whether pid is a live Go process.
func IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	for _, proc := range List() {
		if proc.PID == pid {
			return true
		}
	}

	return false
}

// WritePIDFile records the current process id at path.
func WritePIDFile(path string) error {
	return encoding.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}

// ReadPIDFile returns the process id stored at path.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid file %s: %w", path, err)
	}

	return pid, nil
}

// RemovePIDFile deletes the PID file. A missing file is not an error.
func RemovePIDFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

// Running returns the pid recorded at path when that process is still alive.
func Running(path string) (int, bool) {
	pid, err := ReadPIDFile(path)
	if err != nil {
		return 0, false
	}

	if pid == os.Getpid() {
		return pid, true
	}

	return pid, IsRunning(pid)
}
