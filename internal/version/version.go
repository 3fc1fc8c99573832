// Package version exposes build metadata set via -ldflags.
package version

import "fmt"

var (
	// Version is the release version, overridden at build time.
	Version = "dev"
	// Commit is the short git commit hash.
	Commit = "unknown"
)

// GetInfo returns a printable version string.
func GetInfo() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
