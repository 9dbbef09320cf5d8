// Package versions reports build information for the activity registry server.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/Masterminds/semver/v3"
)

const unknown = "unknown"

// Set at build time with -ldflags "-X github.com/mergington/activity-registry/internal/versions.Version=..."
var (
	Version   = "dev"
	Commit    = unknown
	BuildDate = unknown
	// BuildType is "release" for official builds and "development" otherwise
	BuildType = "development"
)

// Info describes the running binary
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	BuildType string `json:"build_type"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	// Release is set for official builds: the release build type and a
	// semantic version tag
	Release bool `json:"release"`
}

// String renders the info on a single line for the version command
func (i Info) String() string {
	s := fmt.Sprintf("activity-registry-api %s (commit %s, built %s, %s, %s)",
		i.Version, i.Commit, i.BuildDate, i.GoVersion, i.Platform)
	if !i.Release {
		s += " [development build]"
	}
	return s
}

func isRelease(version, buildType string) bool {
	if buildType != "release" {
		return false
	}
	_, err := semver.NewVersion(version)
	return err == nil
}

// Get returns the build information of the running binary
func Get() Info {
	var settings []debug.BuildSetting
	if info, ok := debug.ReadBuildInfo(); ok {
		settings = info.Settings
	}
	return resolve(Version, Commit, BuildDate, BuildType, settings)
}

// resolve fills unknown ldflags values from VCS build settings. Dev builds
// are named after the short commit.
func resolve(version, commit, buildDate, buildType string, settings []debug.BuildSetting) Info {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if commit == unknown {
				commit = s.Value
			}
		case "vcs.time":
			if buildDate == unknown {
				buildDate = s.Value
			}
		}
	}

	if t, err := time.Parse(time.RFC3339, buildDate); err == nil {
		buildDate = t.UTC().Format("2006-01-02 15:04:05 MST")
	}

	if version == "dev" {
		version = fmt.Sprintf("build-%.8s", commit)
	}

	return Info{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		BuildType: buildType,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Release:   isRelease(version, buildType),
	}
}
