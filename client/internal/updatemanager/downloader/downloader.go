package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/avrix/launcher/version"
)

const (
	userAgent         = "AvrixLauncher updater/%s"
	DefaultRetryDelay = 3 * time.Second
)

// StatusError is returned for a non-success HTTP response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status: %d", e.StatusCode)
}

// DownloadToFile downloads url into dstFile, replacing any existing file.
// A retryDelay of 0 disables the single retry. onEvent may be nil.
func DownloadToFile(ctx context.Context, retryDelay time.Duration, url, dstFile string, onEvent ProgressFunc) error {
	log.Debugf("starting download from %s", url)

	out, err := os.Create(dstFile)
	if err != nil {
		return fmt.Errorf("failed to create destination file %q: %w", dstFile, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			log.Warnf("error closing file %q: %v", dstFile, cerr)
		}
	}()

	progress := &progressWriter{onEvent: onEvent}

	// First attempt
	err = downloadToFileOnce(ctx, url, out, progress)
	if err == nil {
		progress.finish()
		log.Infof("successfully downloaded file to %s", dstFile)
		return nil
	}

	if retryDelay == 0 {
		return err
	}

	log.Warnf("download failed, retrying after %v: %v", retryDelay, err)

	if sleepErr := sleepWithContext(ctx, retryDelay); sleepErr != nil {
		return fmt.Errorf("download cancelled during retry delay: %w", sleepErr)
	}

	// Truncate file before retry
	if err := out.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate file on retry: %w", err)
	}
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to beginning of file: %w", err)
	}
	progress.rewind()

	// Second attempt
	if err := downloadToFileOnce(ctx, url, out, progress); err != nil {
		return fmt.Errorf("download failed after retry: %w", err)
	}

	progress.finish()
	log.Infof("successfully downloaded file to %s", dstFile)
	return nil
}

// DownloadToMemory reads at most limit bytes of the response body
func DownloadToMemory(ctx context.Context, url string, limit int64) ([]byte, error) {
	resp, err := get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func downloadToFileOnce(ctx context.Context, url string, out *os.File, progress *progressWriter) error {
	resp, err := get(ctx, url)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	progress.start(resp.ContentLength)

	if _, err := io.Copy(io.MultiWriter(out, progress), resp.Body); err != nil {
		return fmt.Errorf("failed to write response body to file: %w", err)
	}

	return nil
}

func get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	req.Header.Set("User-Agent", fmt.Sprintf(userAgent, version.LauncherVersion()))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform HTTP request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeBody(resp)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

func closeBody(resp *http.Response) {
	if cerr := resp.Body.Close(); cerr != nil {
		log.Warnf("error closing response body: %v", cerr)
	}
}

func sleepWithContext(ctx context.Context, duration time.Duration) error {
	select {
	case <-time.After(duration):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
