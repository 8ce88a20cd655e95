// Package version holds build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/Joach27/chatt/internal/version.Version=v0.1.0"
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// Short returns the version number only
func Short() string {
	return Version
}

// Info returns the full build description
func Info() string {
	return fmt.Sprintf("chatt %s\n  commit:     %s\n  built:      %s\n  go version: %s %s/%s",
		Version, Commit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
