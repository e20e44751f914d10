package version

import "strings"

// SemVer is set at build time for releases.
//
// Example:
//
//	-ldflags "-X github.com/docgate/docgate/internals/version.SemVer=1.2.3"
var SemVer = "0.0.0-dev"

// Version returns SemVer with the vcs revision appended as build metadata
// when it is available.
func Version() string {
	v := strings.TrimSpace(SemVer)
	if v == "" {
		v = "0.0.0-dev"
	}
	rev := Revision()
	if rev == "" {
		return v
	}
	if strings.Contains(v, "+") {
		return v + "." + rev
	}
	return v + "+" + rev
}
