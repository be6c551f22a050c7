package errclass

import "strings"

// Exit statuses that indicate the sync subprocess was killed or timed out
// before it could report anything useful. These are treated as network
// failures: the dominant cause of a hung sync against a cloud mount.
const (
	ExitSpawnFailed = -1  // Process never started or was killed by the runner
	ExitNotFound    = 127 // Shell convention: command not found
	exitTimeout     = 124 // GNU timeout convention
	exitSigKill     = 137 // 128 + SIGKILL
	exitSigTerm     = 143 // 128 + SIGTERM
)

// patternGroup associates a category with the output substrings that
// indicate it. Groups are scanned in order; the first match wins.
type patternGroup struct {
	category Category
	tokens   []string
}

var patternGroups = []patternGroup{
	{Authentication, []string{
		"authentication", "unauthorized", "unauthenticated", "permission denied",
		"access denied", "forbidden", "invalid credentials", "credential",
		"token expired", "login required", "not signed in", "401", "403",
	}},
	{Conflict, []string{
		"conflict", "deadlock", "resource busy", "is locked",
		"lock held", "already locked", "concurrent modification",
		"is in use", "operation in progress",
	}},
	{Quota, []string{
		"quota", "no space left", "disk full", "out of space",
		"insufficient storage", "storage full", "507",
	}},
	{Configuration, []string{
		"no such file or directory", "not mounted", "mount point",
		"does not exist", "config", "invalid argument", "usage:",
		"unknown option", "unknown flag",
	}},
	{Network, []string{
		"network", "timed out", "timeout", "connection refused",
		"connection reset", "unreachable", "no route to host",
		"dns", "could not resolve", "broken pipe", "tls handshake",
		"temporary failure in name resolution",
	}},
	{PartialSync, []string{
		"partial", "some files were not", "skipped due to errors",
		"incomplete transfer", "files failed to sync",
	}},
	{Permanent, []string{
		"unrecoverable", "fatal error", "corrupt", "unsupported",
		"not implemented",
	}},
}

// Classify maps a failed sync attempt's exit status and combined output to
// an error category. It is total: any input yields exactly one category,
// with Transient as the default for anything unrecognized.
func Classify(exitStatus int, output string) Category {
	switch exitStatus {
	case ExitSpawnFailed, exitTimeout, exitSigKill, exitSigTerm:
		return Network
	case ExitNotFound:
		return Configuration
	}

	text := strings.ToLower(output)
	for _, group := range patternGroups {
		for _, token := range group.tokens {
			if strings.Contains(text, token) {
				return group.category
			}
		}
	}

	return Transient
}
