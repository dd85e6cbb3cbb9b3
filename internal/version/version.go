// Package version reports gh's build metadata.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Full is the version line printed by gh version.
func Full() string {
	s := Version
	if Commit != "none" {
		s += " (" + Commit + ")"
	}
	if Date != "unknown" {
		s += " " + Date
	}
	return s + " " + runtime.GOOS + "/" + runtime.GOARCH
}

// UserAgent identifies gh to the GitHub API.
func UserAgent() string {
	return fmt.Sprintf("gh/%s (%s; %s)", Version, runtime.GOOS, runtime.GOARCH)
}

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		backfill(info)
	}
}

// backfill fills values still at their ldflags defaults from build info, so
// go install builds report a real module version and revision.
func backfill(info *debug.BuildInfo) {
	if info == nil {
		return
	}
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		if s.Value == "" {
			continue
		}
		switch s.Key {
		case "vcs.revision":
			if Commit == "none" {
				Commit = s.Value[:min(len(s.Value), 7)]
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = s.Value
			}
		}
	}
}
