package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jeandeaual/go-locale"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/avrix/launcher/client/i18n"
	"github.com/avrix/launcher/client/internal/config"
	"github.com/avrix/launcher/client/internal/notify"
	"github.com/avrix/launcher/client/internal/preferences"
	"github.com/avrix/launcher/client/internal/updatemanager"
	"github.com/avrix/launcher/client/internal/updatemanager/feed"
	"github.com/avrix/launcher/client/internal/updatemanager/installer"
	"github.com/avrix/launcher/client/internal/updatemanager/relaunch"
	"github.com/avrix/launcher/util"
	"github.com/avrix/launcher/version"
)

const (
	configFlag         = "config"
	feedURLFlag        = "feed-url"
	feedRetriesFlag    = "feed-retries"
	fallbackURLFlag    = "fallback-url"
	settingsFlag       = "settings"
	logLevelFlag       = "log-level"
	logFileFlag        = "log-file"
	localeFlag         = "locale"
	downloadRetryFlag  = "download-retry"
	defaultLocale      = "en-US"
	relaunchSubcommand = "startup"
)

var (
	configPath string
	cfg        *config.Config
	rootCmd    = &cobra.Command{
		Use:               "avrix-update",
		Short:             "Avrix Launcher updater",
		Long:              "Checks for new Avrix Launcher releases, installs them and restarts the launcher.",
		SilenceUsage:      true,
		PersistentPreRunE: initRoot,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, configFlag, "c", "", fmt.Sprintf("updater config file (default %q next to the executable)", config.DefaultFileName))
	flags.String(feedURLFlag, "", fmt.Sprintf("release manifest URL (default %q)", feed.DefaultManifestURL))
	flags.Uint(feedRetriesFlag, 0, "retries of a failed release manifest query (default 2)")
	flags.String(fallbackURLFlag, "", "standalone installer URL template, %version is replaced with the release version")
	flags.String(settingsFlag, "", fmt.Sprintf("launcher settings file (default %q next to the executable)", preferences.DefaultFileName))
	flags.StringP(logLevelFlag, "l", "", "sets the log level (default \"info\")")
	flags.String(logFileFlag, "", "sets the log path. If console is specified the log will be output to stderr")
	flags.String(localeFlag, "", "language of the notifications, e.g. fr-FR (default auto)")
	flags.Duration(downloadRetryFlag, 0, "delay before the single download retry, 0 uses the default")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(startupCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(versionCmd)

	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd, settingsAutoCheckCmd)
}

func initRoot(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	cfg = loaded

	if err := util.InitLog(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("failed initializing log %v", err)
	}

	i18n.Init(resolveLocale(cfg.Locale, locale.GetLocale))
	return nil
}

// resolveLocale detects the system locale for "auto"
func resolveLocale(configured string, detect func() (string, error)) string {
	if configured != "" && configured != config.LocaleAuto {
		return configured
	}

	userLocale, err := detect()
	if err != nil || userLocale == "" {
		log.Debugf("failed to detect the system locale, using %s: %v", defaultLocale, err)
		return defaultLocale
	}
	return userLocale
}

// newManager wires the updater from the loaded configuration. The returned
// installer owns the downloaded files of this process.
func newManager(ctx context.Context, cmd *cobra.Command) (*updatemanager.Manager, *installer.Installer, error) {
	prefs, err := preferences.Load(ctx, cfg.SettingsPath)
	if err != nil {
		return nil, nil, err
	}

	inst := installer.New()
	feedOpts := []feed.Option{feed.WithRetries(cfg.FeedRetries)}
	if cfg.DownloadRetryDelay > 0 {
		feedOpts = append(feedOpts, feed.WithDownloadRetryDelay(cfg.DownloadRetryDelay))
	}
	client := feed.NewClient(cfg.FeedURL, version.LauncherVersion(), inst, feedOpts...)

	m := updatemanager.NewManager(
		updatemanager.NewFeedChecker(client),
		prefs,
		updatemanager.NewFallback(cfg.FallbackURLTemplate, inst),
		relaunch.NewWithArgs(relaunchSubcommand),
	).
		WithNotifier(notify.NewSink(cmd.OutOrStdout())).
		WithResultHandler(installer.NewResultHandler(filepath.Dir(cfg.SettingsPath))).
		WithDevelopmentMode(version.IsDevelopment()).
		WithCurrentVersion(version.LauncherVersion())
	return m, inst, nil
}

// SetupCloseHandler handles SIGTERM signal and exits with success
func SetupCloseHandler(ctx context.Context, cancel context.CancelFunc) {
	termCh := make(chan os.Signal, 1)
	signal.Notify(termCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		done := ctx.Done()
		select {
		case <-done:
		case <-termCh:
		}

		log.Info("shutdown signal received")
		cancel()
	}()
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	SetupCloseHandler(ctx, cancel)
	return ctx, cancel
}
