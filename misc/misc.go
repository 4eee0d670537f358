// Package misc keeps build and identity information of the program.
package misc

import (
	"runtime/debug"
)

// set with -ldflags "-X docasm/misc.version=... -X docasm/misc.gitHash=..."
var (
	version = ""
	gitHash = ""
)

const appName = "docasm"

func GetAppName() string {
	return appName
}

// GetVersion returns program version, module version from build info is used
// when version was not set at link time.
func GetVersion() string {
	if version != "" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "dev"
}

// GetGitHash returns revision program was built from.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
