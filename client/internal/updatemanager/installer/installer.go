package installer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	avrixerrors "github.com/avrix/launcher/client/errors"
)

const (
	// SilentFlag makes the NSIS installer run without any prompt
	SilentFlag = "/S"

	tempDirPattern = "avrix-update-*"
)

var binaryExtensions = []string{TypeExe.ext, TypeMSI.ext}

// Installer runs downloaded installers. It owns one temporary directory for
// the lifetime of the process; the directory is created on first use.
type Installer struct {
	mu      sync.Mutex
	tempDir string
}

// New returns an installer with a process scoped temporary directory
func New() *Installer {
	return &Installer{}
}

// NewWithDir uses dir instead of a fresh temporary directory
func NewWithDir(dir string) *Installer {
	return &Installer{
		tempDir: dir,
	}
}

// TempDir returns the working directory of the installer, creating it when needed
func (u *Installer) TempDir() (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.tempDir == "" {
		dir, err := os.MkdirTemp("", tempDirPattern)
		if err != nil {
			return "", fmt.Errorf("error creating temporary directory: %w", err)
		}
		u.tempDir = dir
		return dir, nil
	}

	if err := os.MkdirAll(u.tempDir, 0o755); err != nil {
		log.Debugf("failed to create tempdir: %s", u.tempDir)
		return "", err
	}
	return u.tempDir, nil
}

// Run invokes the installer at installerPath unattended and waits for it to exit.
// A non-zero exit code is returned as an error.
func (u *Installer) Run(ctx context.Context, installerPath string) error {
	it, err := TypeByFileExtension(installerPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(installerPath); err != nil {
		return fmt.Errorf("installer not found: %w", err)
	}

	name, args := it.command(installerPath)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = filepath.Dir(installerPath)
	setInstallerProcAttr(cmd)

	log.Infof("run %s installer: %s", it, cmd.String())
	if err := cmd.Start(); err != nil {
		log.Errorf("error starting installer: %v", err)
		return fmt.Errorf("start installer: %w", err)
	}

	log.Infof("installer started with PID %d", cmd.Process.Pid)
	if err := cmd.Wait(); err != nil {
		log.Errorf("installer process finished with error: %v", err)
		return fmt.Errorf("installer %s: %w", filepath.Base(installerPath), err)
	}

	log.Infof("installer finished successfully")
	return nil
}

// CleanUpInstallerFiles removes downloaded installers (exe, msi) from the temp dir
func (u *Installer) CleanUpInstallerFiles() error {
	u.mu.Lock()
	dir := u.tempDir
	u.mu.Unlock()

	if dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var merr *multierror.Error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		for _, ext := range binaryExtensions {
			if strings.HasSuffix(strings.ToLower(name), ext) {
				if err := os.Remove(filepath.Join(dir, name)); err != nil {
					merr = multierror.Append(merr, fmt.Errorf("failed to remove %s: %w", name, err))
				}
				break
			}
		}
	}

	return avrixerrors.FormatErrorOrNil(merr)
}
