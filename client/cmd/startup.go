package cmd

import (
	"github.com/spf13/cobra"
)

var startupCmd = &cobra.Command{
	Use:   "startup",
	Short: "report the last update and check silently when automatic checks are enabled",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		m, _, err := newManager(ctx, cmd)
		if err != nil {
			return err
		}

		if release := m.Startup(ctx); release != nil {
			printRelease(cmd, release, m.State())
		}
		return nil
	},
}
