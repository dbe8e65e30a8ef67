// Package version carries build metadata injected at link time.
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags at build time, e.g.
//
//	go build -ldflags "-X github.com/teranos/triage/internal/version.VersionTag=v0.2.0"
var (
	VersionTag = "dev"
	Commit     = "unknown"
	BuildTime  = "unknown"
)

// Info is the resolved build metadata for the running binary
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build metadata for the running binary
func Get() Info {
	return Info{
		Version:   VersionTag,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("triage %s (%s, built %s)", i.Version, i.Commit, i.BuildTime)
}
