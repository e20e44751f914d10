package version

import (
	"runtime/debug"
	"strings"
	"sync"
)

var (
	revisionOnce sync.Once
	revisionVal  string
)

// Revision returns the short vcs revision the binary was built from, with a
// ".dirty" suffix for modified trees. Empty when no vcs metadata is embedded.
func Revision() string {
	revisionOnce.Do(func() {
		rev, dirty := vcsInfo()
		if rev != "" && dirty {
			rev += ".dirty"
		}
		revisionVal = rev
	})
	return revisionVal
}

func vcsInfo() (rev12 string, dirty bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return "", false
	}

	var revision string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = strings.TrimSpace(s.Value)
		case "vcs.modified":
			v := strings.TrimSpace(strings.ToLower(s.Value))
			dirty = v == "true" || v == "1" || v == "yes"
		}
	}

	if len(revision) > 12 {
		revision = revision[:12]
	}
	return revision, dirty
}
