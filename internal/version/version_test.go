package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", info.Platform)
	}
}

func TestBanner(t *testing.T) {
	banner := Info{Version: "1.2.3", GitCommit: "abc1234", GoVersion: "go1.24.0", Platform: "linux/arm64"}.Banner()
	if banner != "ddsmovie 1.2.3 (abc1234) go1.24.0 linux/arm64" {
		t.Errorf("Banner = %q", banner)
	}
	if !strings.HasPrefix(Get().Banner(), Name+" ") {
		t.Error("banner should start with the application name")
	}
}
