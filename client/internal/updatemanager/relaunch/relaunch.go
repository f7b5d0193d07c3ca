// Package relaunch restarts the running launcher after an update was installed.
package relaunch

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

type restartFunc func(executable string, args []string, env []string) error

// Relauncher replaces the current process with a fresh instance of the same binary
type Relauncher struct {
	executable func() (string, error)
	restart    restartFunc
	// args replaces the command line arguments when not nil
	args []string
}

func New() *Relauncher {
	return &Relauncher{
		executable: os.Executable,
		restart:    restartPlatform,
	}
}

// NewWithArgs restarts the binary with args instead of the current arguments
func NewWithArgs(args ...string) *Relauncher {
	r := New()
	r.args = append([]string{}, args...)
	return r
}

// Relaunch does not return on success. An error means the process could not be
// replaced; callers treat it as best effort.
func (r *Relauncher) Relaunch() error {
	exe, err := r.executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	argv := os.Args
	if r.args != nil {
		argv = append([]string{os.Args[0]}, r.args...)
	}

	log.Infof("relaunching %s %v", exe, argv[1:])
	if err := r.restart(exe, argv, os.Environ()); err != nil {
		return fmt.Errorf("relaunch %s: %w", exe, err)
	}
	return nil
}
