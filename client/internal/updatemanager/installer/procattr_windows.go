package installer

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// setInstallerProcAttr keeps the unattended installer from flashing a console window
func setInstallerProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
}
