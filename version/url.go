//go:build !windows

package version

import (
	"runtime"
	"strings"
)

const (
	downloadURL     = "https://avrix.gg/download"
	macIntelURL     = "https://avrix.gg/download/macos/amd64"
	macARMURL       = "https://avrix.gg/download/macos/arm64"
	releaseNotesURL = "https://avrix.gg/releases/v%version"
)

// DownloadUrl return with the proper download link
func DownloadUrl() string {
	if runtime.GOOS != "darwin" {
		return downloadURL
	}

	switch runtime.GOARCH {
	case "amd64":
		return macIntelURL
	case "arm64":
		return macARMURL
	default:
		return downloadURL
	}
}

// ReleaseNotesUrl returns the public changelog page of the given release
func ReleaseNotesUrl(v string) string {
	return strings.ReplaceAll(releaseNotesURL, "%version", strings.TrimPrefix(v, "v"))
}
