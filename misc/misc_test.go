package misc

import "testing"

func TestBuildInfo(t *testing.T) {
	if GetAppName() != "docasm" {
		t.Errorf("GetAppName() = %q", GetAppName())
	}
	if GetVersion() == "" {
		t.Error("GetVersion() is empty")
	}
	if GetGitHash() == "" {
		t.Error("GetGitHash() is empty")
	}

	version, gitHash = "1.2.3", "abcdef"
	t.Cleanup(func() { version, gitHash = "", "" })
	if GetVersion() != "1.2.3" || GetGitHash() != "abcdef" {
		t.Errorf("link time values ignored: %s %s", GetVersion(), GetGitHash())
	}
}
