// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/listdex/internal/version.Version=v1.2.0
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build metadata as "version (commit, date)".
func String() string {
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}
