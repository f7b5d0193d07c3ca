package updatemanager

import (
	"context"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	avrixerrors "github.com/avrix/launcher/client/errors"
	"github.com/avrix/launcher/client/i18n"
	"github.com/avrix/launcher/client/internal/updatemanager/downloader"
	"github.com/avrix/launcher/client/internal/updatemanager/installer"
)

// Fetcher downloads a file to dst
type Fetcher interface {
	Fetch(ctx context.Context, url, dst string, onEvent downloader.ProgressFunc) error
}

// Launcher runs an installer unattended and waits for it
type Launcher interface {
	TempDir() (string, error)
	Run(ctx context.Context, installerPath string) error
}

// Relauncher restarts the current process
type Relauncher interface {
	Relaunch() error
}

// Fallback is the standalone installer path used when an update fails to
// install itself.
type Fallback struct {
	URLTemplate string
	Fetcher     Fetcher
	Launcher    Launcher
}

// NewFallback downloads over plain HTTP. An empty urlTemplate uses
// installer.DefaultArtifactURL.
func NewFallback(urlTemplate string, launcher Launcher) Fallback {
	return Fallback{
		URLTemplate: urlTemplate,
		Fetcher:     HTTPFetcher{},
		Launcher:    launcher,
	}
}

// HTTPFetcher is a single GET without retry, non-200 responses fail
type HTTPFetcher struct{}

func (HTTPFetcher) Fetch(ctx context.Context, url, dst string, onEvent downloader.ProgressFunc) error {
	return downloader.DownloadToFile(ctx, 0, url, dst, onEvent)
}

// runFallback enters with primaryErr already known. Every step failure ends
// the chain.
func (m *Manager) runFallback(ctx context.Context, attempt *log.Entry, targetVersion string, primaryErr error) bool {
	artifact, artifactErr := installer.NewArtifact(m.fallback.URLTemplate, targetVersion, "")

	m.mu.Lock()
	m.failLocked(triggerFailed, primaryErr)
	if artifactErr != nil || m.fallback.Fetcher == nil || m.fallback.Launcher == nil {
		m.mu.Unlock()
		if artifactErr == nil {
			artifactErr = avrixerrors.Newf(avrixerrors.KindFallbackInfeasible, "no standalone installer configured")
		}
		attempt.Warnf("standalone installer unavailable: %v", artifactErr)
		m.notifyInstallFailed(primaryErr)
		return false
	}
	m.transitionLocked(triggerFallbackStart)
	m.errMsg = ""
	m.resetProgressLocked()
	m.publishLocked()
	m.mu.Unlock()

	attempt = attempt.WithField("fallback", artifact.URL)

	dir, err := m.fallback.Launcher.TempDir()
	if err != nil {
		return m.fallbackFailed(attempt, avrixerrors.Newf(avrixerrors.KindFetch, "prepare download dir: %w", err))
	}
	artifact.LocalPath = filepath.Join(dir, artifact.FileName)

	attempt.Infof("downloading standalone installer to %s", artifact.LocalPath)
	err = m.fallback.Fetcher.Fetch(ctx, artifact.URL, artifact.LocalPath, func(e downloader.Event) {
		m.applyEvent(e, false)
	})
	if err != nil {
		return m.fallbackFailed(attempt, avrixerrors.Newf(avrixerrors.KindFetch, "download %s: %w", artifact.FileName, err))
	}

	m.mu.Lock()
	m.transitionLocked(triggerFallbackFetched)
	m.publishLocked()
	m.mu.Unlock()

	attempt.Infof("running standalone installer")
	if err := m.fallback.Launcher.Run(ctx, artifact.LocalPath); err != nil {
		return m.fallbackFailed(attempt, avrixerrors.New(avrixerrors.KindInstallerLaunch, err))
	}

	attempt.Infof("update installed with the standalone installer")
	m.writeResult(ctx, attempt, installer.Result{Success: true, Version: targetVersion, Fallback: true})
	m.scheduleRelaunch(attempt)
	m.notifier.Success(i18n.T("UpdateFallbackInstalled", nil))
	return true
}

func (m *Manager) fallbackFailed(attempt *log.Entry, err error) bool {
	m.mu.Lock()
	m.failLocked(triggerFailed, err)
	m.mu.Unlock()

	attempt.Errorf("standalone installer failed (%s): %v", avrixerrors.KindOf(err), err)
	m.notifyInstallFailed(err)
	return false
}

func (m *Manager) notifyInstallFailed(err error) {
	m.notifier.Error(i18n.T("UpdateInstallFailed", map[string]interface{}{"Error": err.Error()}))
}
