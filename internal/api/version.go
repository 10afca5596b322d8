package api

import "runtime/debug"

// Build stamps, set with -ldflags "-X .../internal/api.EngineVersion=v1.2.0".
var (
	EngineVersion = "dev"
	GitCommit     = ""
	BuildTime     = ""
)

// GetVersionInfo reports the build. Unset commit and time fall back to the
// VCS stamp embedded by the go tool.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		EngineVersion: EngineVersion,
		GitCommit:     GitCommit,
		BuildTime:     BuildTime,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.GitCommit == "":
			info.GitCommit = s.Value
		case s.Key == "vcs.time" && info.BuildTime == "":
			info.BuildTime = s.Value
		}
	}
	return info
}
