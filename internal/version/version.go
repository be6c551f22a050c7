package version

import "fmt"

// These variables are set at build time via ldflags
var (
	Version = "0.4.0"
	Commit  = "unknown"
)

func String() string {
	return fmt.Sprintf("%s (commit: %s)", Version, shortCommit())
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
