package cmd

import (
	"github.com/spf13/cobra"

	"github.com/avrix/launcher/client/internal/updatemanager"
)

var (
	silentCheck bool
	checkCmd    = &cobra.Command{
		Use:   "check",
		Short: "check for a newer launcher release",
		RunE:  checkFunc,
	}
)

func init() {
	checkCmd.Flags().BoolVar(&silentCheck, "silent", false, "do not show notifications")
}

func checkFunc(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	m, _, err := newManager(ctx, cmd)
	if err != nil {
		return err
	}

	release := m.CheckNow(ctx, updatemanager.CheckOptions{Silent: silentCheck})
	printRelease(cmd, release, m.State())
	return nil
}

func printRelease(cmd *cobra.Command, release *updatemanager.Release, state updatemanager.State) {
	if release == nil {
		cmd.Printf("status: %s\n", state.Status)
		if state.Err != "" {
			cmd.Printf("error: %s\n", state.Err)
		}
		return
	}

	cmd.Printf("update available: %s\n", release.Version)
	if !release.PublishedAt.IsZero() {
		cmd.Printf("published: %s\n", release.PublishedAt.Format("2006-01-02"))
	}
	if release.Notes != "" {
		cmd.Printf("\n%s\n", release.Notes)
	}
}
