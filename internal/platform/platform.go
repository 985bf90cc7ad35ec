// Package platform is the single configuration point for the
// target-runtime path-list separator, consumed by both ValueProcessor and
// EnvComposer's APPEND/PREPEND operators. Per design notes, the separator
// is never sprinkled as a literal ';'/':' through other components.
package platform

import "runtime"

// Separator returns the path-list separator for the runtime this binary
// was built for: ";" on Windows, ":" everywhere else. It is chosen by the
// target runtime, never by the env file being processed.
func Separator() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}
