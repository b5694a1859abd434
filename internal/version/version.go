// Package version holds build metadata, set with -ldflags "-X" at link time.
package version

import "fmt"

var (
	// Version is the release tag of the build.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String formats the metadata for -version output.
func String() string {
	return fmt.Sprintf("srukf %s (%s, built %s)", Version, GitSHA, BuildTime)
}
