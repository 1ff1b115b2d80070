package version

import (
	"strings"
	"testing"
)

func TestGetVersionWithCommit(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{"unknown commit", "v1.2.3", "unknown", "v1.2.3"},
		{"short commit ignored", "v1.2.3", "abc", "v1.2.3"},
		{"full commit truncated", "v1.2.3", "0123456789abcdef", "v1.2.3 (0123456)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, GitCommit = tt.version, tt.commit
			if got := GetVersionWithCommit(); got != tt.want {
				t.Errorf("GetVersionWithCommit() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsPrerelease(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	tests := map[string]bool{
		"v1.0.0":      false,
		"v1.0.0-rc.1": true,
		"v0.3.0-dev":  true,
		"v2.0.0-":     false,
	}
	for v, want := range tests {
		Version = v
		if got := IsPrerelease(); got != want {
			t.Errorf("IsPrerelease() with %q = %v, want %v", v, got, want)
		}
	}
}

func TestGetFullVersionString(t *testing.T) {
	s := GetFullVersionString()
	if !strings.HasPrefix(s, "stackdepth ") {
		t.Errorf("expected banner to start with program name, got %q", s)
	}
	if !strings.Contains(s, "Platform: ") {
		t.Errorf("expected platform line in %q", s)
	}
}
