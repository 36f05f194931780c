// Package version reports the jsgraph build.
//
// The variables are stamped at link time, for example:
//
//	go build -ldflags "-X github.com/ludo-technologies/jsgraph/internal/version.Version=v0.3.0 \
//	  -X github.com/ludo-technologies/jsgraph/internal/version.Commit=$(git rev-parse --short HEAD)" ./cmd/jsgraph
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release tag, "dev" for local builds
	Version = "dev"

	// Commit is the git commit the binary was built from
	Commit = "unknown"

	// Date is the build timestamp
	Date = "unknown"

	// BuiltBy names the build pipeline
	BuiltBy = "source"
)

// Info is the build metadata stamped into reports and printed by jsgraph version --verbose
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	BuiltBy   string `json:"built_by"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build metadata of the running binary
func Get() Info {
	return Info{
		Version:   GetVersion(),
		Commit:    Commit,
		Date:      Date,
		BuiltBy:   BuiltBy,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders the one-line verbose form
func (i Info) String() string {
	return fmt.Sprintf("jsgraph %s (commit: %s, built: %s, by: %s, %s %s)",
		i.Version, i.Commit, i.Date, i.BuiltBy, i.GoVersion, i.Platform)
}

// GetVersion returns the release tag, falling back to "dev" when stamped empty
func GetVersion() string {
	if Version == "" {
		return "dev"
	}
	return Version
}
