// Package buildinfo describes the running converter build. Release builds
// stamp the version with ldflags:
//
//	go build -ldflags "\
//	  -X github.com/nedpals/nfc-dump-converter/buildinfo.Version=1.0.0 \
//	  -X github.com/nedpals/nfc-dump-converter/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/nedpals/nfc-dump-converter/buildinfo.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Without ldflags, Commit and BuildTime fall back to the VCS stamp the Go
// toolchain embeds, so `go install` builds still report where they came from.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

var (
	// Name is the binary name, also used for the certificate directory
	Name = "nfc-dump-converter"

	// DisplayName is shown in the tray, the usage text and mDNS
	DisplayName = "NFC Dump Converter"

	Description = "Converts Flipper .nfc text files to raw Mifare Classic .dump images and back"

	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Info is a snapshot of the build metadata.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"buildTime,omitempty"`
	Modified  bool   `json:"modified,omitempty"` // Built from a dirty tree
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

var vcsOnce = sync.OnceValue(readVCS)

// Current returns the metadata of this binary.
func Current() Info {
	info := Info{
		Name:      Name,
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	vcs := vcsOnce()
	if info.Commit == "" {
		info.Commit = vcs.Commit
		info.Modified = vcs.Modified
	}
	if info.BuildTime == "" {
		info.BuildTime = vcs.BuildTime
	}
	return info
}

func readVCS() Info {
	var info Info
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = shortCommit(s.Value)
		case "vcs.time":
			info.BuildTime = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// FullVersion returns the version with the commit, if known:
// "dev", "1.0.0", "1.0.0 (abc1234)" or "dev (abc1234+dirty)".
func (i Info) FullVersion() string {
	if i.Commit == "" {
		return i.Version
	}
	commit := i.Commit
	if i.Modified {
		commit += "+dirty"
	}
	return fmt.Sprintf("%s (%s)", i.Version, commit)
}

// TXT returns the build fields advertised in mDNS TXT records.
func (i Info) TXT() []string {
	txt := []string{"version=" + i.Version}
	if i.Commit != "" {
		txt = append(txt, "commit="+i.Commit)
	}
	return txt
}

// String renders the multi-line -version output.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", i.Name, i.FullVersion())
	fmt.Fprintf(&b, "  %s\n", Description)
	fmt.Fprintf(&b, "  Go: %s\n", i.GoVersion)
	fmt.Fprintf(&b, "  OS/Arch: %s", i.Platform)
	if i.BuildTime != "" {
		fmt.Fprintf(&b, "\n  Built: %s", i.BuildTime)
	}
	return b.String()
}

// FullVersion is Current().FullVersion().
func FullVersion() string {
	return Current().FullVersion()
}

// UserAgent is sent as the Server header ("nfc-dump-converter/1.0.0").
func UserAgent() string {
	return Name + "/" + Version
}

// IsDev reports whether the version was left unstamped.
func IsDev() bool {
	return Version == "dev"
}
