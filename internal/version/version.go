package version

import (
	"runtime/debug"
	"strings"
)

var (
	// Version is the release version (set via -ldflags).
	Version = ""
	// Commit is the git commit hash (set via -ldflags).
	Commit = ""
	// BuildTime is the build timestamp (set via -ldflags).
	BuildTime = ""
)

type Info struct {
	Version   string
	Commit    string
	BuildTime string
	GoVersion string
	// Modified is set when the binary was built from a dirty tree.
	Modified bool
}

// Resolve merges the ldflags values with the module build info embedded by
// the Go toolchain. ldflags win.
func Resolve() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(bi)
}

func resolve(bi *debug.BuildInfo) Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	}
	if bi != nil {
		info.GoVersion = bi.GoVersion
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}

func (i Info) String() string {
	var b strings.Builder
	b.WriteString(i.Version)
	if i.Commit != "" {
		b.WriteString(" (" + shortCommit(i.Commit))
		if i.Modified {
			b.WriteString("-dirty")
		}
		b.WriteString(")")
	}
	if i.BuildTime != "" {
		b.WriteString(" built " + i.BuildTime)
	}
	return b.String()
}

// String is Resolve().String().
func String() string {
	return Resolve().String()
}

func shortCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}
