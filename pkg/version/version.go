// Package version exposes build-time version metadata injected via ldflags.
package version

// Build metadata, overridden at link time:
//
//	go build -ldflags "-X .../pkg/version.Version=v1.2.0 ..."
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)
