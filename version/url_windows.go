package version

import (
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows/registry"
)

const (
	downloadURL     = "https://avrix.gg/download"
	urlWinExe       = "https://avrix.gg/download/windows/x64"
	urlWinExeArm    = "https://avrix.gg/download/windows/arm64"
	releaseNotesURL = "https://avrix.gg/releases/v%version"
)

var regKeyAppPath = `SOFTWARE\Microsoft\Windows\CurrentVersion\App Paths\AvrixLauncher.exe`

// DownloadUrl return with the proper download link. Installations made by the
// NSIS installer get the direct installer link, portable copies the download page.
func DownloadUrl() string {
	k, err := registry.OpenKey(registry.CURRENT_USER, regKeyAppPath, registry.QUERY_VALUE)
	if err != nil {
		return downloadURL
	}
	if err := k.Close(); err != nil {
		log.Warnf("error closing registry key: %v", err)
	}

	switch runtime.GOARCH {
	case "arm64":
		return urlWinExeArm
	default:
		return urlWinExe
	}
}

// ReleaseNotesUrl returns the public changelog page of the given release
func ReleaseNotesUrl(v string) string {
	return strings.ReplaceAll(releaseNotesURL, "%version", strings.TrimPrefix(v, "v"))
}
