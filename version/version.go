package version

const (
	developmentVersion = "development"
	productionMode     = "production"
)

// will be replaced with the release version when using goreleaser
var version = developmentVersion

// mode is set to "production" at build time for release builds. Any other
// value keeps the development escape hatches enabled (no update checks).
var mode = developmentVersion

// LauncherVersion returns the Avrix Launcher version
func LauncherVersion() string {
	return version
}

// IsDevelopment reports whether the binary was built without the production
// execution mode flag.
func IsDevelopment() bool {
	return mode != productionMode
}
