package buildinfo

import (
	"runtime"
	"slices"
	"strings"
	"testing"
)

func stamp(t *testing.T, version, commit, buildTime string) {
	t.Helper()
	oldVersion, oldCommit, oldBuildTime := Version, Commit, BuildTime
	Version, Commit, BuildTime = version, commit, buildTime
	t.Cleanup(func() { Version, Commit, BuildTime = oldVersion, oldCommit, oldBuildTime })
}

func TestCurrent_Stamped(t *testing.T) {
	stamp(t, "1.2.0", "abc1234", "2026-01-02T03:04:05Z")

	info := Current()
	if info.Version != "1.2.0" || info.Commit != "abc1234" || info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("Current() = %+v", info)
	}
	if info.Modified {
		t.Error("ldflags commit should not be marked modified")
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", info.Platform)
	}
	if got := FullVersion(); got != "1.2.0 (abc1234)" {
		t.Errorf("FullVersion() = %q", got)
	}
	if IsDev() {
		t.Error("stamped build reported as dev")
	}
}

func TestInfo_FullVersion(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", Commit: "abc1234"}, "1.0.0 (abc1234)"},
		{Info{Version: "dev", Commit: "abc1234", Modified: true}, "dev (abc1234+dirty)"},
	}
	for _, tt := range tests {
		if got := tt.info.FullVersion(); got != tt.want {
			t.Errorf("%+v.FullVersion() = %q, want %q", tt.info, got, tt.want)
		}
	}
}

func TestInfo_TXT(t *testing.T) {
	if got := (Info{Version: "dev"}).TXT(); !slices.Equal(got, []string{"version=dev"}) {
		t.Errorf("TXT() = %v", got)
	}
	got := (Info{Version: "1.0.0", Commit: "abc1234"}).TXT()
	if !slices.Equal(got, []string{"version=1.0.0", "commit=abc1234"}) {
		t.Errorf("TXT() = %v", got)
	}
}

func TestInfo_String(t *testing.T) {
	s := Info{Name: Name, Version: "1.0.0", GoVersion: "go1.24.2", Platform: "linux/amd64", BuildTime: "yesterday"}.String()
	for _, want := range []string{"nfc-dump-converter 1.0.0", Description, "Go: go1.24.2", "OS/Arch: linux/amd64", "Built: yesterday"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q:\n%s", want, s)
		}
	}
}

func TestShortCommit(t *testing.T) {
	if got := shortCommit("0123456789abcdef"); got != "0123456" {
		t.Errorf("shortCommit() = %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Errorf("shortCommit() = %q", got)
	}
}
