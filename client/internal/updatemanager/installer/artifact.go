package installer

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	goversion "github.com/hashicorp/go-version"

	avrixerrors "github.com/avrix/launcher/client/errors"
)

// DefaultArtifactURL follows the release pipeline naming of the standalone
// update installer: https://<host>/<product>/v<version>/<Product>-Update-<version>.exe
const DefaultArtifactURL = "https://updates.avrix.gg/avrix-launcher/v%version/AvrixLauncher-Update-%version.exe"

// Artifact is the fallback installer of one release
type Artifact struct {
	Version   string
	FileName  string
	URL       string
	LocalPath string
}

// NewArtifact derives the fallback artifact of targetVersion from urlTemplate.
// The local path is inside dir. It fails without any I/O when the version is
// missing or not a valid version.
func NewArtifact(urlTemplate, targetVersion, dir string) (Artifact, error) {
	targetVersion = strings.TrimPrefix(strings.TrimSpace(targetVersion), "v")
	if err := validateTargetVersion(targetVersion); err != nil {
		return Artifact{}, avrixerrors.New(avrixerrors.KindFallbackInfeasible, err)
	}

	if urlTemplate == "" {
		urlTemplate = DefaultArtifactURL
	}
	fileURL := urlWithVersion(urlTemplate, targetVersion)

	u, err := url.Parse(fileURL)
	if err != nil {
		return Artifact{}, avrixerrors.Newf(avrixerrors.KindFallbackInfeasible, "invalid file URL %s: %w", fileURL, err)
	}

	fileName := path.Base(u.Path)
	if fileName == "." || fileName == "/" || fileName == "" {
		return Artifact{}, avrixerrors.Newf(avrixerrors.KindFallbackInfeasible, "invalid file URL: %s", fileURL)
	}

	return Artifact{
		Version:   targetVersion,
		FileName:  fileName,
		URL:       fileURL,
		LocalPath: filepath.Join(dir, fileName),
	}, nil
}

func validateTargetVersion(targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("target version cannot be empty")
	}

	_, err := goversion.NewVersion(targetVersion)
	if err != nil {
		return fmt.Errorf("invalid target version %q: %w", targetVersion, err)
	}

	return nil
}

func urlWithVersion(template, version string) string {
	return strings.ReplaceAll(template, "%version", version)
}
