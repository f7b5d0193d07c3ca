package updatemanager

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goversion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"

	avrixerrors "github.com/avrix/launcher/client/errors"
	"github.com/avrix/launcher/client/i18n"
	"github.com/avrix/launcher/client/internal/notify"
	"github.com/avrix/launcher/client/internal/preferences"
	"github.com/avrix/launcher/client/internal/updatemanager/downloader"
	"github.com/avrix/launcher/client/internal/updatemanager/installer"
)

const (
	defaultRelaunchDelay = 50 * time.Millisecond
)

// Update is one available release. It is consumed by a single install call.
type Update interface {
	Version() string
	DownloadAndInstall(ctx context.Context, onEvent downloader.ProgressFunc) error
}

// releaseDetails is implemented by updates that carry release notes
type releaseDetails interface {
	Notes() string
	PublishedAt() time.Time
}

// Checker queries the release feed. A nil Update means no newer release.
type Checker interface {
	Check(ctx context.Context) (Update, error)
}

// PreferenceMirror is the settings store that owns the persisted flags
type PreferenceMirror interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Save(ctx context.Context) error
}

// Release describes an available update to callers
type Release struct {
	Version     string
	Notes       string
	PublishedAt time.Time
}

// Progress of the running download. Total is 0 when unknown.
type Progress struct {
	Downloaded int64
	Total      int64
}

// State is a snapshot of the updater
type State struct {
	Status             Status
	Progress           Progress
	Err                string
	Version            string
	LastCheckAt        time.Time
	AutoCheckOnStartup bool
}

type CheckOptions struct {
	// Silent suppresses notifications, state changes still happen
	Silent bool
}

// Manager owns the update state machine. All state changes go through it
// and are published to subscribers.
type Manager struct {
	mu sync.Mutex

	status      Status
	progress    Progress
	started     bool
	errMsg      string
	version     string
	lastCheckAt time.Time
	autoCheck   bool
	handle      Update

	subscribers map[int]chan State
	nextSubID   int

	checker        Checker
	prefs          PreferenceMirror
	fallback       Fallback
	relauncher     Relauncher
	notifier       notify.Notifier
	results        *installer.ResultHandler
	currentVersion string
	development    bool

	relaunchAfterPrimary bool
	relaunchDelay        time.Duration
	pendingRelaunch      sync.WaitGroup
	afterFunc            func(d time.Duration, f func())
	now                  func() time.Time
}

// NewManager creates a Manager in the Idle state. The auto check flag is read
// once from prefs.
func NewManager(checker Checker, prefs PreferenceMirror, fallback Fallback, relauncher Relauncher) *Manager {
	m := &Manager{
		status:      StatusIdle,
		subscribers: make(map[int]chan State),
		checker:     checker,
		prefs:       prefs,
		fallback:    fallback,
		relauncher:  relauncher,
		notifier:    notify.Discard{},
		// the windows installer closes and restarts the launcher itself
		relaunchAfterPrimary: runtime.GOOS != "windows",
		relaunchDelay:        defaultRelaunchDelay,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		now: time.Now,
	}
	m.autoCheck = readAutoCheck(prefs)
	return m
}

func readAutoCheck(prefs PreferenceMirror) bool {
	v, ok := prefs.Get(preferences.KeyAutoCheckUpdates)
	if !ok {
		return true
	}
	enabled, ok := v.(bool)
	if !ok {
		log.Warnf("ignoring non boolean %s value: %v", preferences.KeyAutoCheckUpdates, v)
		return true
	}
	return enabled
}

func (m *Manager) WithNotifier(n notify.Notifier) *Manager {
	m.notifier = n
	return m
}

// WithResultHandler enables the last install result file
func (m *Manager) WithResultHandler(rh *installer.ResultHandler) *Manager {
	m.results = rh
	return m
}

// WithDevelopmentMode makes every check report no update without network access
func (m *Manager) WithDevelopmentMode(development bool) *Manager {
	m.development = development
	return m
}

// WithCurrentVersion sets the running version used to verify the last install
func (m *Manager) WithCurrentVersion(v string) *Manager {
	m.currentVersion = v
	return m
}

// State returns a snapshot of the updater
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Manager) stateLocked() State {
	return State{
		Status:             m.status,
		Progress:           m.progress,
		Err:                m.errMsg,
		Version:            m.version,
		LastCheckAt:        m.lastCheckAt,
		AutoCheckOnStartup: m.autoCheck,
	}
}

// Subscribe returns a channel receiving the latest state after every change.
// A slow reader only misses intermediate states. The returned func
// unsubscribes and closes the channel.
func (m *Manager) Subscribe() (<-chan State, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++
	ch := make(chan State, 1)
	m.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subscribers, id)
			close(ch)
		})
	}
}

func (m *Manager) publishLocked() {
	s := m.stateLocked()
	for _, ch := range m.subscribers {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

func (m *Manager) transitionLocked(t trigger) bool {
	next, ok := m.status.next(t)
	if !ok {
		log.Errorf("rejected update state transition: %s on %s", t, m.status)
		return false
	}
	log.Debugf("update state %s -> %s (%s)", m.status, next, t)
	m.status = next
	return true
}

func (m *Manager) failLocked(t trigger, err error) {
	m.transitionLocked(t)
	m.errMsg = err.Error()
	m.publishLocked()
}

// AutoCheckOnStartup returns the working copy of the preference
func (m *Manager) AutoCheckOnStartup() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoCheck
}

// SetAutoCheckOnStartup updates the preference and saves it
func (m *Manager) SetAutoCheckOnStartup(ctx context.Context, enabled bool) error {
	m.mu.Lock()
	m.autoCheck = enabled
	m.publishLocked()
	m.mu.Unlock()

	m.prefs.Set(preferences.KeyAutoCheckUpdates, enabled)
	if err := m.prefs.Save(ctx); err != nil {
		log.Errorf("failed to save update preferences: %v", err)
		m.notifier.Error(i18n.T("SettingsSaveFailed", map[string]interface{}{"Error": err.Error()}))
		return err
	}
	return nil
}

// CheckNow queries the feed once. It returns nil without side effects while
// another check, download or install is running, and nil when no update is
// available or the check failed.
func (m *Manager) CheckNow(ctx context.Context, opts CheckOptions) *Release {
	m.mu.Lock()
	if m.status.InFlight() {
		log.Debugf("update check skipped, updater is %s", m.status)
		m.mu.Unlock()
		return nil
	}
	if !m.transitionLocked(triggerCheck) {
		m.mu.Unlock()
		return nil
	}
	m.errMsg = ""
	m.lastCheckAt = m.now()
	m.publishLocked()
	development := m.development
	m.mu.Unlock()

	if development {
		m.mu.Lock()
		m.handle = nil
		m.transitionLocked(triggerNoUpdate)
		m.publishLocked()
		m.mu.Unlock()

		log.Infof("development mode, skipping update check")
		if !opts.Silent {
			m.notifier.Info(i18n.T("UpdateDevMode", nil))
		}
		return nil
	}

	update, err := m.checker.Check(ctx)
	if err != nil {
		err = avrixerrors.New(avrixerrors.KindCheck, err)
		m.mu.Lock()
		m.handle = nil
		m.failLocked(triggerCheckFailed, err)
		m.mu.Unlock()

		log.Errorf("update check failed: %v", err)
		if !opts.Silent {
			m.notifier.Error(i18n.T("UpdateCheckFailed", map[string]interface{}{"Error": err.Error()}))
		}
		return nil
	}

	if update == nil {
		m.mu.Lock()
		m.handle = nil
		m.transitionLocked(triggerNoUpdate)
		m.publishLocked()
		m.mu.Unlock()

		log.Infof("no update available")
		if !opts.Silent {
			m.notifier.Success(i18n.T("UpdateNotAvailable", nil))
		}
		return nil
	}

	release := newRelease(update)

	m.mu.Lock()
	m.handle = update
	m.version = release.Version
	m.transitionLocked(triggerUpdateFound)
	m.publishLocked()
	m.mu.Unlock()

	log.Infof("update available: %s", release.Version)
	if !opts.Silent {
		m.notifier.Info(i18n.T("UpdateAvailable", map[string]interface{}{"Version": displayVersion(release.Version)}))
	}
	return release
}

func newRelease(update Update) *Release {
	r := &Release{Version: update.Version()}
	if d, ok := update.(releaseDetails); ok {
		r.Notes = d.Notes()
		r.PublishedAt = d.PublishedAt()
	}
	return r
}

// DownloadAndInstall installs the available update through its own install
// path and falls back to the standalone installer when that fails. It
// returns false without doing anything unless an update is available.
func (m *Manager) DownloadAndInstall(ctx context.Context) bool {
	m.mu.Lock()
	if m.status != StatusAvailable || m.handle == nil {
		err := avrixerrors.Newf(avrixerrors.KindNoUpdateHandle, "no update to install, updater is %s", m.status)
		m.mu.Unlock()
		log.Debug(err)
		return false
	}
	handle := m.handle
	m.handle = nil
	targetVersion := m.version
	m.transitionLocked(triggerInstall)
	m.errMsg = ""
	m.resetProgressLocked()
	m.publishLocked()
	m.mu.Unlock()

	attempt := log.WithFields(log.Fields{
		"attempt": uuid.NewString(),
		"version": targetVersion,
	})
	attempt.Infof("downloading update")

	err := handle.DownloadAndInstall(ctx, func(e downloader.Event) {
		m.applyEvent(e, true)
	})
	if err != nil {
		err = avrixerrors.New(avrixerrors.KindPrimaryInstall, err)
		attempt.Warnf("update failed, trying the standalone installer: %v", err)
		return m.runFallback(ctx, attempt, targetVersion, err)
	}

	m.mu.Lock()
	m.transitionLocked(triggerPrimaryDone)
	m.publishLocked()
	relaunch := m.relaunchAfterPrimary
	m.mu.Unlock()

	attempt.Infof("update installed")
	m.writeResult(ctx, attempt, installer.Result{Success: true, Version: targetVersion})

	if relaunch {
		m.scheduleRelaunch(attempt)
		m.notifier.Success(i18n.T("UpdateInstalled", nil))
	} else {
		m.notifier.Success(i18n.T("UpdateInstalledNoRestart", nil))
	}
	return true
}

func (m *Manager) resetProgressLocked() {
	m.progress = Progress{}
	m.started = false
}

// applyEvent folds a download event into the progress. Downloaded never
// decreases within an attempt.
func (m *Manager) applyEvent(e downloader.Event, primary bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusDownloading && m.status != StatusDownloaded {
		log.Debugf("ignoring %s event, updater is %s", e.Kind, m.status)
		return
	}

	switch e.Kind {
	case downloader.EventStarted:
		if m.started {
			return
		}
		m.started = true
		if e.ContentLength > 0 {
			m.progress.Total = e.ContentLength
		}
	case downloader.EventProgress:
		if e.ChunkLength <= 0 {
			return
		}
		m.progress.Downloaded += e.ChunkLength
	case downloader.EventFinished:
		if primary && m.status == StatusDownloading {
			m.transitionLocked(triggerDownloaded)
		}
	default:
		return
	}
	m.publishLocked()
}

func (m *Manager) scheduleRelaunch(attempt *log.Entry) {
	if m.relauncher == nil {
		return
	}
	m.pendingRelaunch.Add(1)
	m.afterFunc(m.relaunchDelay, func() {
		defer m.pendingRelaunch.Done()
		attempt.Infof("relaunching")
		if err := m.relauncher.Relaunch(); err != nil {
			attempt.Warnf("ignoring %v", avrixerrors.New(avrixerrors.KindRelaunch, err))
		}
	})
}

// WaitRelaunch blocks until a scheduled relaunch has run. A host that is
// about to exit calls it so the relaunch is not lost.
func (m *Manager) WaitRelaunch() {
	m.pendingRelaunch.Wait()
}

func (m *Manager) writeResult(ctx context.Context, attempt *log.Entry, result installer.Result) {
	if m.results == nil {
		return
	}
	result.ExecutedAt = m.now()
	if err := m.results.Write(ctx, result); err != nil {
		attempt.Warnf("failed to write update result: %v", err)
	}
}

// Startup reports the outcome of an update installed before the last
// restart, then runs a silent check when automatic checks are enabled.
func (m *Manager) Startup(ctx context.Context) *Release {
	m.reportLastResult()

	if !m.AutoCheckOnStartup() {
		log.Debugf("automatic update check disabled")
		return nil
	}
	return m.CheckNow(ctx, CheckOptions{Silent: true})
}

func (m *Manager) reportLastResult() {
	if m.results == nil {
		return
	}

	result, ok, err := m.results.Take()
	if err != nil {
		log.Warnf("failed to read the last update result: %v", err)
		return
	}
	if !ok {
		return
	}

	data := map[string]interface{}{"Version": displayVersion(result.Version)}
	if reason := m.installFailure(result); reason != "" {
		log.Warnf("last update to %s did not complete: %s", result.Version, reason)
		data["Error"] = reason
		m.notifier.Error(i18n.T("UpdatePreviousFailed", data))
		return
	}

	log.Infof("updated to %s at %s (fallback: %t)", result.Version, result.ExecutedAt, result.Fallback)
	m.notifier.Success(i18n.T("UpdatePreviousSucceeded", data))
}

// installFailure explains why result did not take effect, or returns ""
func (m *Manager) installFailure(result installer.Result) string {
	if !result.Success {
		return result.Error
	}

	current, err := goversion.NewVersion(strings.TrimPrefix(m.currentVersion, "v"))
	if err != nil {
		// development builds carry no comparable version
		return ""
	}
	installed, err := goversion.NewVersion(strings.TrimPrefix(result.Version, "v"))
	if err != nil {
		return ""
	}
	if current.LessThan(installed) {
		return "still running " + m.currentVersion
	}
	return ""
}

func displayVersion(v string) string {
	return strings.TrimPrefix(v, "v")
}
