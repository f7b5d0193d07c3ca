package updatemanager

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avrix/launcher/client/i18n"
	"github.com/avrix/launcher/client/internal/preferences"
	"github.com/avrix/launcher/client/internal/updatemanager/downloader"
	"github.com/avrix/launcher/client/internal/updatemanager/feed"
	"github.com/avrix/launcher/client/internal/updatemanager/installer"
)

type updateMock struct {
	version string
	notes   string
	events  []downloader.Event
	err     error
	calls   int
	// onEvent runs after every delivered event
	onEvent func(e downloader.Event)
	onStart func()
}

func (u *updateMock) Version() string {
	return u.version
}

func (u *updateMock) Notes() string {
	return u.notes
}

func (u *updateMock) PublishedAt() time.Time {
	return time.Time{}
}

func (u *updateMock) DownloadAndInstall(_ context.Context, onEvent downloader.ProgressFunc) error {
	u.calls++
	if u.onStart != nil {
		u.onStart()
	}
	for _, e := range u.events {
		onEvent(e)
		if u.onEvent != nil {
			u.onEvent(e)
		}
	}
	return u.err
}

type checkerMock struct {
	update  Update
	err     error
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (c *checkerMock) Check(_ context.Context) (Update, error) {
	c.calls.Add(1)
	if c.entered != nil {
		c.entered <- struct{}{}
	}
	if c.release != nil {
		<-c.release
	}
	return c.update, c.err
}

type prefsMock struct {
	values map[string]any
	saves  int
}

func (p *prefsMock) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p *prefsMock) Set(key string, value any) {
	p.values[key] = value
}

func (p *prefsMock) Save(context.Context) error {
	p.saves++
	return nil
}

type notifierMock struct {
	mu       sync.Mutex
	messages []string
}

func (n *notifierMock) add(level, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, level+": "+msg)
}

func (n *notifierMock) Info(msg string)    { n.add("info", msg) }
func (n *notifierMock) Success(msg string) { n.add("success", msg) }
func (n *notifierMock) Warn(msg string)    { n.add("warn", msg) }
func (n *notifierMock) Error(msg string)   { n.add("error", msg) }

func (n *notifierMock) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type fetcherMock struct {
	calls   int
	events  []downloader.Event
	err     error
	onFetch func()
}

func (f *fetcherMock) Fetch(_ context.Context, _ string, dst string, onEvent downloader.ProgressFunc) error {
	f.calls++
	if f.onFetch != nil {
		f.onFetch()
	}
	if f.err != nil {
		return f.err
	}
	for _, e := range f.events {
		onEvent(e)
	}
	return os.WriteFile(dst, []byte("installer"), 0o600)
}

type launcherMock struct {
	dir          string
	tempDirCalls int
	runs         []string
	err          error
}

func (l *launcherMock) TempDir() (string, error) {
	l.tempDirCalls++
	return l.dir, nil
}

func (l *launcherMock) Run(_ context.Context, installerPath string) error {
	l.runs = append(l.runs, installerPath)
	return l.err
}

type relauncherMock struct {
	calls atomic.Int32
	err   error
}

func (r *relauncherMock) Relaunch() error {
	r.calls.Add(1)
	return r.err
}

type testEnv struct {
	manager    *Manager
	checker    *checkerMock
	prefs      *prefsMock
	notifier   *notifierMock
	fetcher    *fetcherMock
	launcher   *launcherMock
	relauncher *relauncherMock
}

func newTestEnv(t *testing.T, checker *checkerMock) *testEnv {
	t.Helper()
	i18n.Init("en-US")

	env := &testEnv{
		checker:    checker,
		prefs:      &prefsMock{values: map[string]any{}},
		notifier:   &notifierMock{},
		fetcher:    &fetcherMock{},
		launcher:   &launcherMock{dir: t.TempDir()},
		relauncher: &relauncherMock{},
	}

	fallback := Fallback{
		URLTemplate: "https://updates.example.com/v%version/Product-Update-%version.exe",
		Fetcher:     env.fetcher,
		Launcher:    env.launcher,
	}
	env.manager = NewManager(checker, env.prefs, fallback, env.relauncher).WithNotifier(env.notifier)
	env.manager.relaunchAfterPrimary = true
	env.manager.afterFunc = func(_ time.Duration, f func()) { f() }
	return env
}

func Test_CheckNow_ReentrantCallsAreIgnored(t *testing.T) {
	checker := &checkerMock{
		update:  &updateMock{version: "1.2.3"},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	env := newTestEnv(t, checker)

	done := make(chan *Release)
	go func() {
		done <- env.manager.CheckNow(context.Background(), CheckOptions{})
	}()
	<-checker.entered

	for i := 0; i < 3; i++ {
		assert.Nil(t, env.manager.CheckNow(context.Background(), CheckOptions{}))
	}
	assert.Equal(t, StatusChecking, env.manager.State().Status)
	assert.Empty(t, env.notifier.all())

	close(checker.release)
	release := <-done
	require.NotNil(t, release)
	assert.Equal(t, "1.2.3", release.Version)
	assert.Equal(t, int32(1), checker.calls.Load())
	assert.Equal(t, StatusAvailable, env.manager.State().Status)
}

func Test_CheckNow_IgnoredWhileInstalling(t *testing.T) {
	var env *testEnv
	update := &updateMock{version: "1.2.3"}
	update.onStart = func() {
		assert.Nil(t, env.manager.CheckNow(context.Background(), CheckOptions{}))
	}
	env = newTestEnv(t, &checkerMock{update: update})

	require.NotNil(t, env.manager.CheckNow(context.Background(), CheckOptions{Silent: true}))
	require.True(t, env.manager.DownloadAndInstall(context.Background()))
	assert.Equal(t, int32(1), env.checker.calls.Load())
}

func Test_CheckNow_Results(t *testing.T) {
	testMatrix := []struct {
		name           string
		checker        *checkerMock
		expectedStatus Status
		expectedNotice string
		expectRelease  bool
	}{
		{
			name:           "update available",
			checker:        &checkerMock{update: &updateMock{version: "v1.2.3", notes: "fixes"}},
			expectedStatus: StatusAvailable,
			expectedNotice: "info: Update available: v1.2.3",
			expectRelease:  true,
		},
		{
			name:           "no update",
			checker:        &checkerMock{},
			expectedStatus: StatusNotAvailable,
			expectedNotice: "success: You are running the latest version",
		},
		{
			name:           "check failure",
			checker:        &checkerMock{err: fmt.Errorf("connection refused")},
			expectedStatus: StatusError,
			expectedNotice: "error: Update check failed: connection refused",
		},
	}

	for _, c := range testMatrix {
		t.Run(c.name, func(t *testing.T) {
			env := newTestEnv(t, c.checker)

			release := env.manager.CheckNow(context.Background(), CheckOptions{})
			assert.Equal(t, c.expectRelease, release != nil)
			assert.Equal(t, c.expectedStatus, env.manager.State().Status)
			assert.Equal(t, []string{c.expectedNotice}, env.notifier.all())
			assert.False(t, env.manager.State().LastCheckAt.IsZero())
		})
	}
}

func Test_CheckNow_SilentKeepsTransitions(t *testing.T) {
	env := newTestEnv(t, &checkerMock{update: &updateMock{version: "1.2.3", notes: "fixes"}})

	release := env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})
	require.NotNil(t, release)
	assert.Equal(t, "fixes", release.Notes)
	assert.Equal(t, StatusAvailable, env.manager.State().Status)
	assert.Empty(t, env.notifier.all())

	env.checker.update = nil
	env.checker.err = fmt.Errorf("timeout")
	assert.Nil(t, env.manager.CheckNow(context.Background(), CheckOptions{Silent: true}))
	assert.Equal(t, StatusError, env.manager.State().Status)
	assert.Equal(t, "timeout", env.manager.State().Err)
	assert.Empty(t, env.notifier.all())
}

func Test_CheckNow_ClearsErrorRecord(t *testing.T) {
	env := newTestEnv(t, &checkerMock{err: fmt.Errorf("offline")})

	env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})
	require.Equal(t, "offline", env.manager.State().Err)

	env.checker.err = nil
	env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})
	assert.Empty(t, env.manager.State().Err)
	assert.Equal(t, StatusNotAvailable, env.manager.State().Status)
}

func Test_CheckNow_DevelopmentMode(t *testing.T) {
	update := &updateMock{version: "1.2.3"}
	testMatrix := []struct {
		name    string
		prepare func(env *testEnv)
	}{
		{name: "idle", prepare: func(*testEnv) {}},
		{
			name: "after error",
			prepare: func(env *testEnv) {
				env.checker.err = fmt.Errorf("offline")
				env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})
				env.checker.err = nil
			},
		},
		{
			name: "with update available",
			prepare: func(env *testEnv) {
				env.checker.update = update
				env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})
			},
		},
	}

	for _, c := range testMatrix {
		t.Run(c.name, func(t *testing.T) {
			env := newTestEnv(t, &checkerMock{})
			c.prepare(env)
			calls := env.checker.calls.Load()

			env.manager.WithDevelopmentMode(true)
			assert.Nil(t, env.manager.CheckNow(context.Background(), CheckOptions{}))
			assert.Equal(t, StatusNotAvailable, env.manager.State().Status)
			assert.Equal(t, calls, env.checker.calls.Load())
			assert.Equal(t, []string{"info: Update checks are disabled in development mode"}, env.notifier.all())

			assert.False(t, env.manager.DownloadAndInstall(context.Background()))
		})
	}
}

func Test_DownloadAndInstall_RequiresAvailable(t *testing.T) {
	testMatrix := []struct {
		name    string
		checker *checkerMock
		check   bool
	}{
		{name: "idle", checker: &checkerMock{update: &updateMock{version: "1.2.3"}}},
		{name: "not available", checker: &checkerMock{}, check: true},
		{name: "error", checker: &checkerMock{err: fmt.Errorf("offline")}, check: true},
	}

	for _, c := range testMatrix {
		t.Run(c.name, func(t *testing.T) {
			env := newTestEnv(t, c.checker)
			if c.check {
				env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})
			}
			before := env.manager.State()

			assert.False(t, env.manager.DownloadAndInstall(context.Background()))
			assert.Equal(t, before, env.manager.State())
			assert.Zero(t, env.fetcher.calls)
			assert.Zero(t, env.launcher.tempDirCalls)
			assert.Empty(t, env.launcher.runs)
			assert.Empty(t, env.notifier.all())
			if u, ok := c.checker.update.(*updateMock); ok {
				assert.Zero(t, u.calls)
			}
		})
	}
}

func Test_DownloadAndInstall_HandleIsConsumed(t *testing.T) {
	update := &updateMock{version: "1.2.3", err: fmt.Errorf("broken")}
	env := newTestEnv(t, &checkerMock{update: update})
	env.fetcher.err = fmt.Errorf("offline")

	require.NotNil(t, env.manager.CheckNow(context.Background(), CheckOptions{Silent: true}))
	assert.False(t, env.manager.DownloadAndInstall(context.Background()))
	assert.False(t, env.manager.DownloadAndInstall(context.Background()))
	assert.Equal(t, 1, update.calls)
	assert.Equal(t, 1, env.fetcher.calls)
}

func Test_DownloadAndInstall_ProgressScenario(t *testing.T) {
	var env *testEnv
	var statuses []Status
	update := &updateMock{
		version: "1.2.3",
		events: []downloader.Event{
			{Kind: downloader.EventStarted, ContentLength: 1000},
			{Kind: downloader.EventProgress, ChunkLength: 500},
			{Kind: downloader.EventProgress, ChunkLength: 500},
			{Kind: downloader.EventFinished},
		},
	}
	update.onStart = func() {
		statuses = append(statuses, env.manager.State().Status)
	}
	update.onEvent = func(e downloader.Event) {
		if e.Kind == downloader.EventFinished {
			statuses = append(statuses, env.manager.State().Status)
		}
	}
	env = newTestEnv(t, &checkerMock{update: update})

	require.NotNil(t, env.manager.CheckNow(context.Background(), CheckOptions{Silent: true}))
	statuses = append(statuses, env.manager.State().Status)

	assert.True(t, env.manager.DownloadAndInstall(context.Background()))
	statuses = append(statuses, env.manager.State().Status)

	assert.Equal(t, []Status{StatusAvailable, StatusDownloading, StatusDownloaded, StatusInstalling}, statuses)
	assert.Equal(t, Progress{Downloaded: 1000, Total: 1000}, env.manager.State().Progress)
	assert.Equal(t, int32(1), env.relauncher.calls.Load())
	assert.Equal(t, []string{"success: Update installed, restarting the launcher"}, env.notifier.all())
	assert.Zero(t, env.fetcher.calls)
}

func Test_DownloadAndInstall_ProgressIsMonotonic(t *testing.T) {
	var env *testEnv
	var seen []int64
	update := &updateMock{
		version: "1.2.3",
		events: []downloader.Event{
			{Kind: downloader.EventStarted, ContentLength: -1},
			{Kind: downloader.EventProgress, ChunkLength: 100},
			{Kind: downloader.EventStarted, ContentLength: 10},
			{Kind: downloader.EventProgress, ChunkLength: -50},
			{Kind: downloader.EventProgress, ChunkLength: 0},
			{Kind: downloader.EventProgress, ChunkLength: 25},
			{Kind: downloader.EventFinished},
		},
	}
	update.onEvent = func(downloader.Event) {
		seen = append(seen, env.manager.State().Progress.Downloaded)
	}
	env = newTestEnv(t, &checkerMock{update: update})

	env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})
	require.True(t, env.manager.DownloadAndInstall(context.Background()))

	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
	assert.Equal(t, Progress{Downloaded: 125, Total: 0}, env.manager.State().Progress)
}

func Test_DownloadAndInstall_ProgressResetsPerAttempt(t *testing.T) {
	var env *testEnv
	var atStart []Progress
	update := &updateMock{
		version: "1.2.3",
		events: []downloader.Event{
			{Kind: downloader.EventStarted, ContentLength: 1000},
			{Kind: downloader.EventProgress, ChunkLength: 300},
		},
		err: fmt.Errorf("connection reset"),
	}
	update.onStart = func() {
		atStart = append(atStart, env.manager.State().Progress)
	}
	env = newTestEnv(t, &checkerMock{update: update})
	env.fetcher.events = []downloader.Event{
		{Kind: downloader.EventStarted, ContentLength: 200},
		{Kind: downloader.EventProgress, ChunkLength: 200},
		{Kind: downloader.EventFinished},
	}
	env.fetcher.onFetch = func() {
		atStart = append(atStart, env.manager.State().Progress)
	}
	env.launcher.err = fmt.Errorf("exit status 1")

	env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})
	require.False(t, env.manager.DownloadAndInstall(context.Background()))
	assert.Equal(t, Progress{Downloaded: 200, Total: 200}, env.manager.State().Progress)

	env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})
	require.False(t, env.manager.DownloadAndInstall(context.Background()))

	assert.Equal(t, []Progress{{}, {}, {}, {}}, atStart)
}

func Test_Fallback_InfeasibleMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	update := &updateMock{version: "", err: fmt.Errorf("signature mismatch")}
	env := newTestEnv(t, &checkerMock{update: update})
	env.manager.fallback = Fallback{
		URLTemplate: srv.URL + "/v%version/Product-Update-%version.exe",
		Fetcher:     HTTPFetcher{},
		Launcher:    env.launcher,
	}

	require.NotNil(t, env.manager.CheckNow(context.Background(), CheckOptions{Silent: true}))
	assert.False(t, env.manager.DownloadAndInstall(context.Background()))

	state := env.manager.State()
	assert.Equal(t, StatusError, state.Status)
	assert.Equal(t, "signature mismatch", state.Err)
	assert.Zero(t, hits.Load())
	assert.Zero(t, env.launcher.tempDirCalls)
	assert.Zero(t, env.relauncher.calls.Load())
	assert.Equal(t, []string{"error: Update failed: signature mismatch"}, env.notifier.all())
}

func Test_Fallback_InstallerFailureSkipsRelaunch(t *testing.T) {
	update := &updateMock{version: "1.2.3", err: fmt.Errorf("broken")}
	env := newTestEnv(t, &checkerMock{update: update})
	env.launcher.err = fmt.Errorf("exit status 2")

	env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})
	assert.False(t, env.manager.DownloadAndInstall(context.Background()))

	assert.Equal(t, 1, env.fetcher.calls)
	require.Len(t, env.launcher.runs, 1)
	assert.Equal(t, filepath.Join(env.launcher.dir, "Product-Update-1.2.3.exe"), env.launcher.runs[0])
	assert.Zero(t, env.relauncher.calls.Load())

	state := env.manager.State()
	assert.Equal(t, StatusError, state.Status)
	assert.Equal(t, "exit status 2", state.Err)
	assert.Equal(t, []string{"error: Update failed: exit status 2"}, env.notifier.all())
}

func Test_Fallback_NotFound(t *testing.T) {
	var requested []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested = append(requested, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	update := &updateMock{version: "1.2.3", err: fmt.Errorf("broken")}
	env := newTestEnv(t, &checkerMock{update: update})
	env.manager.fallback = Fallback{
		URLTemplate: srv.URL + "/v%version/Product-Update-%version.exe",
		Fetcher:     HTTPFetcher{},
		Launcher:    env.launcher,
	}

	env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})
	assert.False(t, env.manager.DownloadAndInstall(context.Background()))

	mu.Lock()
	assert.Equal(t, []string{"/v1.2.3/Product-Update-1.2.3.exe"}, requested)
	mu.Unlock()
	assert.Equal(t, StatusError, env.manager.State().Status)
	assert.Empty(t, env.launcher.runs)
	assert.Zero(t, env.relauncher.calls.Load())
	assert.Len(t, env.notifier.all(), 1)
}

func Test_Fallback_Success(t *testing.T) {
	update := &updateMock{version: "v1.2.3", err: fmt.Errorf("broken")}
	env := newTestEnv(t, &checkerMock{update: update})
	env.manager.relaunchAfterPrimary = false
	resultDir := t.TempDir()
	env.manager.WithResultHandler(installer.NewResultHandler(resultDir))

	env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})
	assert.True(t, env.manager.DownloadAndInstall(context.Background()))

	assert.Equal(t, StatusInstalling, env.manager.State().Status)
	assert.Empty(t, env.manager.State().Err)
	assert.Equal(t, int32(1), env.relauncher.calls.Load(), "relaunch is always requested after the standalone installer")
	assert.Equal(t, []string{"success: Update installed with the standalone installer, restarting the launcher"}, env.notifier.all())

	result, ok, err := installer.NewResultHandler(resultDir).Take()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, result.Success)
	assert.True(t, result.Fallback)
	assert.Equal(t, "v1.2.3", result.Version)
}

func Test_DownloadAndInstall_PlatformSkipsRelaunch(t *testing.T) {
	env := newTestEnv(t, &checkerMock{update: &updateMock{version: "1.2.3"}})
	env.manager.relaunchAfterPrimary = false

	env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})
	assert.True(t, env.manager.DownloadAndInstall(context.Background()))
	assert.Zero(t, env.relauncher.calls.Load())
	assert.Equal(t, []string{"success: Update installed, the installer will restart the launcher"}, env.notifier.all())
}

func Test_DownloadAndInstall_RelaunchFailureIsSwallowed(t *testing.T) {
	env := newTestEnv(t, &checkerMock{update: &updateMock{version: "1.2.3"}})
	env.relauncher.err = fmt.Errorf("process is exiting")

	env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})
	assert.True(t, env.manager.DownloadAndInstall(context.Background()))
	assert.Equal(t, int32(1), env.relauncher.calls.Load())
	assert.Empty(t, env.manager.State().Err)
	assert.Len(t, env.notifier.all(), 1)
}

func Test_AutoCheckPreferenceRoundTrip(t *testing.T) {
	for _, enabled := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), preferences.DefaultFileName)
		store, err := preferences.Load(context.Background(), path)
		require.NoError(t, err)

		m := NewManager(&checkerMock{}, store, Fallback{}, nil)
		require.NoError(t, m.SetAutoCheckOnStartup(context.Background(), enabled))
		assert.Equal(t, enabled, m.AutoCheckOnStartup())

		fresh, err := preferences.Load(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, enabled, fresh.AutoCheckUpdates())
		assert.Equal(t, enabled, NewManager(&checkerMock{}, fresh, Fallback{}, nil).AutoCheckOnStartup())
	}
}

func Test_Subscribe(t *testing.T) {
	env := newTestEnv(t, &checkerMock{update: &updateMock{version: "1.2.3"}})

	states, unsubscribe := env.manager.Subscribe()
	env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})

	latest := <-states
	assert.Equal(t, StatusAvailable, latest.Status)
	assert.Equal(t, "1.2.3", latest.Version)

	unsubscribe()
	unsubscribe()
	_, open := <-states
	assert.False(t, open)

	assert.NotPanics(t, func() {
		env.manager.CheckNow(context.Background(), CheckOptions{Silent: true})
	})
}

func Test_Startup(t *testing.T) {
	t.Run("auto check disabled", func(t *testing.T) {
		env := newTestEnv(t, &checkerMock{update: &updateMock{version: "1.2.3"}})
		require.NoError(t, env.manager.SetAutoCheckOnStartup(context.Background(), false))

		assert.Nil(t, env.manager.Startup(context.Background()))
		assert.Zero(t, env.checker.calls.Load())
		assert.Equal(t, 1, env.prefs.saves)
		assert.Equal(t, false, env.prefs.values[preferences.KeyAutoCheckUpdates])
	})

	t.Run("silent check", func(t *testing.T) {
		env := newTestEnv(t, &checkerMock{update: &updateMock{version: "1.2.3"}})

		release := env.manager.Startup(context.Background())
		require.NotNil(t, release)
		assert.Equal(t, StatusAvailable, env.manager.State().Status)
		assert.Empty(t, env.notifier.all())
	})

	t.Run("reports the last install once", func(t *testing.T) {
		dir := t.TempDir()
		rh := installer.NewResultHandler(dir)
		require.NoError(t, rh.Write(context.Background(), installer.Result{Success: true, Version: "1.2.3"}))

		env := newTestEnv(t, &checkerMock{})
		env.manager.WithResultHandler(rh).WithCurrentVersion("1.2.3")

		env.manager.Startup(context.Background())
		env.manager.Startup(context.Background())
		assert.Equal(t, []string{"success: Updated to v1.2.3"}, env.notifier.all())
	})

	t.Run("reports an install that did not take effect", func(t *testing.T) {
		dir := t.TempDir()
		rh := installer.NewResultHandler(dir)
		require.NoError(t, rh.Write(context.Background(), installer.Result{Success: true, Version: "1.2.3"}))

		env := newTestEnv(t, &checkerMock{})
		env.manager.WithResultHandler(rh).WithCurrentVersion("1.2.2")

		env.manager.Startup(context.Background())
		assert.Equal(t, []string{"error: The last update to v1.2.3 failed: still running 1.2.2"}, env.notifier.all())
	})
}

func Test_FeedCheckerKeepsNilUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"version":"1.0.0","platforms":{}}`)
	}))
	defer srv.Close()

	checker := NewFeedChecker(feed.NewClient(srv.URL, "1.0.0", installer.NewWithDir(t.TempDir())))
	update, err := checker.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, update == nil)

	env := newTestEnv(t, &checkerMock{})
	env.manager.checker = checker
	assert.Nil(t, env.manager.CheckNow(context.Background(), CheckOptions{Silent: true}))
	assert.Equal(t, StatusNotAvailable, env.manager.State().Status)
}
