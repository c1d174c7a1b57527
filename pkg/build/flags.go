// SPDX-License-Identifier: MIT
//
// Package build provides functionality to manage and retrieve build information
// for a Go application. It allows embedding metadata such as the application
// name, build timestamp, Git commit hash, and semantic version into the binary
// at compile time using linker flags:
//
//	go build -ldflags "-X audioviz/pkg/build.buildName=audioviz -X audioviz/pkg/build.buildVersion=0.3.0 ..."
//
// Development builds without linker flags fall back to the module and VCS
// stamps the Go toolchain records in the binary.
package build

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// DefaultName is reported when no name was linked in.
const DefaultName = "audioviz"

// Info is the build metadata of the running binary.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// String formats the info for version output.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", i.Name, i.Version, i.Commit, i.Time)
}

// Package-level variables for build information. These are populated by -ldflags
// during compilation. Default values of "unknown" are used during development.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &Info{
		Name:    "unknown",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "unknown",
	}

	readBuildInfo = debug.ReadBuildInfo
)

// Initialize validates and copies build information from ldflags variables
// into the buildFlags struct. This must be called early in program startup
// to ensure all build information is properly set. Returns an error if any
// required build flag is missing.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// InitializeDev fills build information for binaries built without linker
// flags. Linked values win; the rest come from the embedded module and VCS
// settings, then "dev" or "unknown".
func InitializeDev() error {
	if err := Initialize(); err == nil {
		return nil
	}

	info := Info{
		Name:    firstNonEmpty(buildName, DefaultName),
		Time:    firstNonEmpty(buildTime, "unknown"),
		Commit:  firstNonEmpty(buildCommit, "unknown"),
		Version: firstNonEmpty(buildVersion, "dev"),
	}

	bi, ok := readBuildInfo()
	if !ok {
		*buildFlags = info
		return errors.New("no embedded build information")
	}
	if buildVersion == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && buildCommit == "":
			info.Commit = s.Value
		case s.Key == "vcs.time" && buildTime == "":
			info.Time = s.Value
		}
	}
	*buildFlags = info
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetBuildFlags returns the current build information. Initialize()
// must be called before this function to ensure the build information
// is valid. This function is safe to call after initialization.
func GetBuildFlags() *Info {
	return buildFlags
}
