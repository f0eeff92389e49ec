// Package buildinfo holds the version identity stamped into the genfin
// binary at link time.
package buildinfo

// Overridden via -ldflags "-X" in release builds; the defaults identify a
// local development build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
