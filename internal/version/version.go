// Package version carries the build metadata stamped into the binary, so a
// running instance can always report which revision it was built from.
package version

import "runtime"

// Overridden at build time via -ldflags; the zero values identify a local
// development build.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info holds build metadata reported by /health/live and the build_info metric.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}
