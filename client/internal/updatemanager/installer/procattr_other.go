//go:build !windows

package installer

import "os/exec"

func setInstallerProcAttr(_ *exec.Cmd) {}
