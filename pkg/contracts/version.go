package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Version of the mediapulse binary and library.
const Version = "0.3.0"

// APIVersion prefixes the REST routes and tags WebSocket payloads.
const APIVersion = "v1"

// Stamped by build.go through -ldflags -X. When left at "unknown" the values
// embedded by the go toolchain (vcs.revision, vcs.time) are used instead.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is the payload of GET /api/version and "mediapulse version".
type VersionInfo struct {
	Version      string `json:"version"`
	APIVersion   string `json:"api_version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	Modified     bool   `json:"modified,omitempty"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
}

var vcsOnce = sync.OnceValues(func() (map[string]string, bool) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, false
	}
	settings := make(map[string]string, len(bi.Settings))
	for _, s := range bi.Settings {
		settings[s.Key] = s.Value
	}
	return settings, true
})

// GetVersionInfo collects version, build and runtime details.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:      Version,
		APIVersion:   APIVersion,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}

	settings, ok := vcsOnce()
	if !ok {
		return info
	}
	if info.GitCommit == "unknown" {
		if rev := settings["vcs.revision"]; rev != "" {
			info.GitCommit = shortRevision(rev)
		}
	}
	if info.BuildTime == "unknown" {
		if at := settings["vcs.time"]; at != "" {
			info.BuildTime = at
		}
	}
	info.Modified = settings["vcs.modified"] == "true"
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String renders the one-line form printed by "mediapulse version".
func (v VersionInfo) String() string {
	commit := v.GitCommit
	if v.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("MediaPulse v%s (api %s, commit %s, built %s, %s %s/%s)",
		v.Version, v.APIVersion, commit, v.BuildTime, v.GoVersion, v.OS, v.Architecture)
}

// GetFullVersionString is GetVersionInfo().String().
func GetFullVersionString() string {
	return GetVersionInfo().String()
}
