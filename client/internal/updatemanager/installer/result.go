package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/avrix/launcher/util"
)

const (
	resultFile = "update-result.json"
)

// Result is the outcome of the last install, written before the process is
// replaced so the next launch can report it.
type Result struct {
	Success    bool
	Version    string
	Fallback   bool
	Error      string
	ExecutedAt time.Time
}

// ResultHandler handles reading and writing update results
type ResultHandler struct {
	resultFile string
}

// NewResultHandler keeps the result file in dir. The directory must survive
// a restart, so it is never the process scoped temp dir.
func NewResultHandler(dir string) *ResultHandler {
	return &ResultHandler{
		resultFile: filepath.Join(dir, resultFile),
	}
}

// Write writes the update result to a file for the next launch to read
func (rh *ResultHandler) Write(ctx context.Context, result Result) error {
	log.Infof("write out installer result to: %s", rh.resultFile)
	if err := util.WriteJson(ctx, rh.resultFile, result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// Take reads and removes the result. ok is false when no result was recorded.
func (rh *ResultHandler) Take() (result Result, ok bool, err error) {
	if _, err := os.Stat(rh.resultFile); os.IsNotExist(err) {
		return Result{}, false, nil
	}

	defer func() {
		if cerr := rh.Cleanup(); cerr != nil {
			log.Warnf("failed to cleanup result file: %v", cerr)
		}
	}()

	if _, err := util.ReadJson(rh.resultFile, &result); err != nil {
		return Result{}, false, fmt.Errorf("invalid result format: %w", err)
	}

	return result, true, nil
}

// Cleanup removes the result file if it exists
func (rh *ResultHandler) Cleanup() error {
	if err := util.RemoveJson(rh.resultFile); err != nil {
		return err
	}
	log.Debugf("delete installer result file: %s", rh.resultFile)
	return nil
}
