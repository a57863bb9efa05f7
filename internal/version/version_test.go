package version

import "testing"

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if BuildTime == "" || GitCommit == "" {
		t.Error("build info should be initialized")
	}
}

func TestUserAgent(t *testing.T) {
	if got, want := UserAgent(), "sitepress/"+Version; got != want {
		t.Fatalf("UserAgent() = %q, want %q", got, want)
	}
}
