// Package version reports the build version of apiloader
package version

import "fmt"

// BuildInfo holds version information about the build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// set at build time:
// -ldflags "-X 'apiloader/internal/core/version.version=v0.1.0' -X 'apiloader/internal/core/version.commit=abcd'"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build information
func Info() BuildInfo {
	return BuildInfo{
		Service: "apiloader",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// String renders the info on one line for -version
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", b.Service, b.Version, b.Commit, b.Date)
}

// UserAgent is the default User-Agent sent upstream
func UserAgent() string { return "apiloader/" + version }
