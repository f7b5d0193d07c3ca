package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/avrix/launcher/client/internal/updatemanager"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "download and install the latest launcher release",
	Long: "Downloads and installs the latest release. When the release fails to install itself " +
		"the standalone installer is downloaded and run instead. The launcher is restarted afterwards.",
	RunE: installFunc,
}

func installFunc(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	m, inst, err := newManager(ctx, cmd)
	if err != nil {
		return err
	}

	if release := m.CheckNow(ctx, updatemanager.CheckOptions{Silent: true}); release == nil {
		printRelease(cmd, nil, m.State())
		return nil
	}

	states, unsubscribe := m.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		printProgress(cmd, states)
	}()

	ok := m.DownloadAndInstall(ctx)
	unsubscribe()
	<-done

	if err := inst.CleanUpInstallerFiles(); err != nil {
		log.Warnf("failed to clean up installer files: %v", err)
	}

	if !ok {
		return fmt.Errorf("update failed: %s", m.State().Err)
	}

	m.WaitRelaunch()
	return nil
}

func printProgress(cmd *cobra.Command, states <-chan updatemanager.State) {
	var last updatemanager.State
	for s := range states {
		if s.Status != last.Status {
			cmd.Printf("%s\n", s.Status)
		}
		if s.Progress != last.Progress && s.Progress.Downloaded > 0 {
			if s.Progress.Total > 0 {
				cmd.Printf("  %d/%d bytes (%d%%)\n", s.Progress.Downloaded, s.Progress.Total, s.Progress.Downloaded*100/s.Progress.Total)
			} else {
				cmd.Printf("  %d bytes\n", s.Progress.Downloaded)
			}
		}
		last = s
	}
}
