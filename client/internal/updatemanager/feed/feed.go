// Package feed queries the release manifest of the launcher and hands out a
// descriptor of the newer release that can download and install itself.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	goversion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"

	"github.com/avrix/launcher/client/internal/updatemanager/downloader"
)

const (
	// DefaultManifestURL is the updater endpoint of the release pipeline
	DefaultManifestURL = "https://updates.avrix.gg/avrix-launcher/latest.json"

	maxManifestSize        = 64 * 1024
	defaultRetries         = 2
	defaultRetryInterval   = 500 * time.Millisecond
	defaultMaxRetryBackoff = 5 * time.Second
)

// Runner runs a downloaded installer unattended
type Runner interface {
	TempDir() (string, error)
	Run(ctx context.Context, installerPath string) error
}

type manifest struct {
	Version   string              `json:"version"`
	Notes     string              `json:"notes"`
	PubDate   string              `json:"pub_date"`
	Platforms map[string]platform `json:"platforms"`
}

type platform struct {
	URL       string `json:"url"`
	Signature string `json:"signature"`
}

// Option configures a Client
type Option func(*Client)

// WithRetries sets how many times a failed manifest query is retried
func WithRetries(retries uint64) Option {
	return func(c *Client) {
		c.retries = retries
	}
}

// WithRetryInterval sets the first backoff interval of manifest retries
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) {
		c.retryInterval = d
	}
}

// WithDownloadRetryDelay sets the delay of the single download retry, 0 disables it
func WithDownloadRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.downloadRetryDelay = d
	}
}

// WithPlatform overrides the manifest platform key, e.g. "windows-x86_64"
func WithPlatform(key string) Option {
	return func(c *Client) {
		c.platform = key
	}
}

// Client checks the release manifest
type Client struct {
	manifestURL        string
	currentVersion     *goversion.Version
	platform           string
	runner             Runner
	retries            uint64
	retryInterval      time.Duration
	downloadRetryDelay time.Duration
}

// NewClient creates a feed client for the running version. An unparsable
// current version (development builds) compares as 0.0.0.
func NewClient(manifestURL, currentVersion string, runner Runner, opts ...Option) *Client {
	cv, err := goversion.NewVersion(strings.TrimPrefix(currentVersion, "v"))
	if err != nil {
		cv, _ = goversion.NewVersion("0.0.0")
	}

	if manifestURL == "" {
		manifestURL = DefaultManifestURL
	}

	c := &Client{
		manifestURL:        manifestURL,
		currentVersion:     cv,
		platform:           PlatformKey(runtime.GOOS, runtime.GOARCH),
		runner:             runner,
		retries:            defaultRetries,
		retryInterval:      defaultRetryInterval,
		downloadRetryDelay: downloader.DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check returns the newer release for this platform, or nil when the running
// version is current or the release has no artifact for this platform.
func (c *Client) Check(ctx context.Context) (*Update, error) {
	data, err := c.fetchManifest(ctx)
	if err != nil {
		return nil, err
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse release manifest: %w", err)
	}

	latest, err := goversion.NewVersion(strings.TrimPrefix(strings.TrimSpace(m.Version), "v"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse the version string %q: %w", m.Version, err)
	}

	if !latest.GreaterThan(c.currentVersion) {
		log.Debugf("current version (%s) is equal to or higher than the released version (%s)", c.currentVersion, latest)
		return nil, nil
	}

	entry, ok := c.lookupPlatform(m.Platforms)
	if !ok || entry.URL == "" {
		log.Warnf("release %s has no artifact for platform %s", latest, c.platform)
		return nil, nil
	}

	return &Update{
		version:     latest.Original(),
		notes:       m.Notes,
		publishedAt: parsePubDate(m.PubDate),
		url:         entry.URL,
		runner:      c.runner,
		retryDelay:  c.downloadRetryDelay,
	}, nil
}

func (c *Client) fetchManifest(ctx context.Context) ([]byte, error) {
	var data []byte
	operation := func() error {
		b, err := downloader.DownloadToMemory(ctx, c.manifestURL, maxManifestSize)
		if err != nil {
			var statusErr *downloader.StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
				return backoff.Permanent(err)
			}
			log.Debugf("release manifest query failed: %v", err)
			return err
		}
		data = b
		return nil
	}

	expBackOff := &backoff.ExponentialBackOff{
		InitialInterval:     c.retryInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         defaultMaxRetryBackoff,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	expBackOff.Reset()

	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(expBackOff, c.retries), ctx)); err != nil {
		return nil, fmt.Errorf("failed to fetch release manifest: %w", err)
	}
	return data, nil
}

// installer flavours published next to the plain key
var platformSuffixes = []string{"", "-nsis", "-msi"}

func (c *Client) lookupPlatform(platforms map[string]platform) (platform, bool) {
	for _, suffix := range platformSuffixes {
		if p, ok := platforms[c.platform+suffix]; ok {
			return p, true
		}
	}
	return platform{}, false
}

// PlatformKey maps GOOS/GOARCH to the manifest naming, e.g. windows-x86_64
func PlatformKey(goos, goarch string) string {
	arch := goarch
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i686"
	case "arm":
		arch = "armv7"
	}
	return goos + "-" + arch
}

func parsePubDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		log.Debugf("ignoring unparsable pub_date %q: %v", s, err)
		return time.Time{}
	}
	return t
}

// Update is one available release. It is consumed by a single
// DownloadAndInstall call.
type Update struct {
	version     string
	notes       string
	publishedAt time.Time
	url         string
	runner      Runner
	retryDelay  time.Duration
}

func (u *Update) Version() string {
	return u.version
}

func (u *Update) Notes() string {
	return u.notes
}

func (u *Update) PublishedAt() time.Time {
	return u.publishedAt
}

// DownloadAndInstall downloads the release artifact with progress events and
// runs it unattended.
func (u *Update) DownloadAndInstall(ctx context.Context, onEvent downloader.ProgressFunc) error {
	dir, err := u.runner.TempDir()
	if err != nil {
		return fmt.Errorf("prepare download dir: %w", err)
	}

	fileName, err := artifactFileName(u.url)
	if err != nil {
		return err
	}
	dst := filepath.Join(dir, fileName)

	if err := downloader.DownloadToFile(ctx, u.retryDelay, u.url, dst, onEvent); err != nil {
		return fmt.Errorf("download update %s: %w", u.version, err)
	}

	if err := u.runner.Run(ctx, dst); err != nil {
		return fmt.Errorf("install update %s: %w", u.version, err)
	}
	return nil
}

func artifactFileName(fileURL string) (string, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid artifact URL %s: %w", fileURL, err)
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("invalid artifact URL: %s", fileURL)
	}
	return name, nil
}
