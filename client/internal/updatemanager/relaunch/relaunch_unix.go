//go:build !windows

package relaunch

import "golang.org/x/sys/unix"

// restartPlatform execs into the binary, the PID is kept
func restartPlatform(executable string, args []string, env []string) error {
	return unix.Exec(executable, args, env)
}
