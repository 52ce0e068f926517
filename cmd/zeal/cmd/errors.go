package cmd

import (
	"fmt"
	"strings"
)

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
// bbolt returns the string "timeout" when it cannot acquire the file lock
// within the configured deadline.
func isDBLockError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "timeout")
}

// diagnoseDBLock returns actionable guidance when a bbolt open fails due to
// lock contention. The usual holder is a running `zeal serve`.
func diagnoseDBLock(dbPath string) string {
	return fmt.Sprintf("cache %s is locked by another process\n"+
		"  → a running `zeal serve` holds it; stop it or query its API instead\n"+
		"  → find the process:  ps aux | grep 'zeal'\n"+
		"  → to share one cache between processes set cache.backend: redis", dbPath)
}
