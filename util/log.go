package util

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/avrix/launcher/formatter"
)

const (
	// ConsoleLog keeps the output on stderr instead of a rotated file
	ConsoleLog = "console"

	defaultLogMaxSizeMB  = 2
	defaultLogMaxBackups = 5
	defaultLogMaxAgeDays = 30
)

// InitLog parses and sets log-level input
func InitLog(logLevel string, logPath string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.Errorf("Failed parsing log-level %s: %s", logLevel, err)
		return err
	}

	var writer io.Writer = os.Stderr
	if logPath != "" && logPath != ConsoleLog {
		writer = &lumberjack.Logger{
			// Log file absolute path, os agnostic
			Filename:   filepath.ToSlash(logPath),
			MaxSize:    defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAge:     defaultLogMaxAgeDays,
			Compress:   true,
		}
	}

	log.SetOutput(writer)
	formatter.SetTextFormatter(log.StandardLogger())
	log.SetLevel(level)
	return nil
}

// DefaultLogFile returns the rotated log location next to the executable
func DefaultLogFile() string {
	return filepath.Join(ExecutableDir(), "logs", "avrix-launcher.log")
}
