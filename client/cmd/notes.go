package cmd

import (
	"fmt"

	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"

	"github.com/avrix/launcher/version"
)

var (
	openDownloadPage bool
	printOnly        bool
	notesCmd         = &cobra.Command{
		Use:   "notes [version]",
		Short: "open the release notes of a version in the browser",
		Args:  cobra.MaximumNArgs(1),
		RunE:  notesFunc,
	}
)

func init() {
	notesCmd.Flags().BoolVar(&openDownloadPage, "download", false, "open the download page instead")
	notesCmd.Flags().BoolVar(&printOnly, "print", false, "only print the URL")
}

func notesFunc(cmd *cobra.Command, args []string) error {
	url := notesURL(args)
	cmd.Println(url)
	if printOnly {
		return nil
	}

	if err := open.Run(url); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

func notesURL(args []string) string {
	if openDownloadPage {
		return version.DownloadUrl()
	}
	v := version.LauncherVersion()
	if len(args) > 0 {
		v = args[0]
	}
	return version.ReleaseNotesUrl(v)
}
