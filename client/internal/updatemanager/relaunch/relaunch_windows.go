package relaunch

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// restartPlatform starts a detached copy and exits, a running .exe cannot be exec'd over
func restartPlatform(executable string, args []string, env []string) error {
	cmd := exec.Command(executable, args[1:]...)
	cmd.Env = env
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS,
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start new process: %w", err)
	}

	if err := cmd.Process.Release(); err != nil {
		log.Warnf("failed to release relaunched process: %v", err)
	}

	os.Exit(0)
	return nil
}
