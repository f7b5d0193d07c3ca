// Package config resolves the updater configuration with the precedence:
// defaults < config file < environment (AVRIX_*) < command line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/avrix/launcher/client/internal/preferences"
	"github.com/avrix/launcher/client/internal/updatemanager/downloader"
	"github.com/avrix/launcher/client/internal/updatemanager/feed"
	"github.com/avrix/launcher/client/internal/updatemanager/installer"
	"github.com/avrix/launcher/util"
)

const (
	KeyFeedURL             = "feed.url"
	KeyFeedRetries         = "feed.retries"
	KeyDownloadRetryDelay  = "download.retry-delay"
	KeyFallbackURLTemplate = "fallback.url-template"
	KeySettingsPath        = "settings.path"
	KeyLogLevel            = "log.level"
	KeyLogFile             = "log.file"
	KeyLocale              = "locale"
)

const (
	envPrefix = "AVRIX"
	// DefaultFileName is looked up next to the executable when no file is given
	DefaultFileName = "avrix-update.yaml"
	// LocaleAuto detects the system locale
	LocaleAuto = "auto"
)

// flagKeys maps command line flag names to configuration keys
var flagKeys = map[string]string{
	"feed-url":       KeyFeedURL,
	"feed-retries":   KeyFeedRetries,
	"fallback-url":   KeyFallbackURLTemplate,
	"settings":       KeySettingsPath,
	"log-level":      KeyLogLevel,
	"log-file":       KeyLogFile,
	"locale":         KeyLocale,
	"download-retry": KeyDownloadRetryDelay,
}

// Config is the resolved updater configuration
type Config struct {
	FeedURL             string
	FeedRetries         uint64
	DownloadRetryDelay  time.Duration
	FallbackURLTemplate string
	SettingsPath        string
	LogLevel            string
	LogFile             string
	Locale              string
}

// Load resolves the configuration. configFile may be empty, then
// DefaultFileName next to the executable is used when present. flags may be
// nil; only flags the user changed override other sources.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		configFile = filepath.Join(util.ExecutableDir(), DefaultFileName)
	} else if _, err := os.Stat(configFile); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configFile, err)
	}

	if err := mergeConfigFile(v, configFile); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{
		FeedURL:             v.GetString(KeyFeedURL),
		FeedRetries:         uint64(v.GetUint(KeyFeedRetries)),
		DownloadRetryDelay:  v.GetDuration(KeyDownloadRetryDelay),
		FallbackURLTemplate: v.GetString(KeyFallbackURLTemplate),
		SettingsPath:        v.GetString(KeySettingsPath),
		LogLevel:            v.GetString(KeyLogLevel),
		LogFile:             v.GetString(KeyLogFile),
		Locale:              v.GetString(KeyLocale),
	}

	if !strings.Contains(cfg.FallbackURLTemplate, "%version") {
		return nil, fmt.Errorf("%s must contain %%version: %q", KeyFallbackURLTemplate, cfg.FallbackURLTemplate)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyFeedURL, feed.DefaultManifestURL)
	v.SetDefault(KeyFeedRetries, 2)
	v.SetDefault(KeyDownloadRetryDelay, downloader.DefaultRetryDelay)
	v.SetDefault(KeyFallbackURLTemplate, installer.DefaultArtifactURL)
	v.SetDefault(KeySettingsPath, preferences.DefaultPath())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, util.DefaultLogFile())
	v.SetDefault(KeyLocale, LocaleAuto)
}

func mergeConfigFile(v *viper.Viper, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" && ext != "yml" {
		v.SetConfigType(ext)
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
