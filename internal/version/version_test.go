package version

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
)

func TestNumberIsSemver(t *testing.T) {
	if _, err := semver.StrictNewVersion(Number); err != nil {
		t.Fatalf("Number %q is not a semantic version: %v", Number, err)
	}
}

func TestBanner(t *testing.T) {
	orig := color.NoColor
	origNumber, origCommit, origDate := Number, GitCommit, BuildDate
	t.Cleanup(func() {
		color.NoColor = orig
		Number, GitCommit, BuildDate = origNumber, origCommit, origDate
	})
	color.NoColor = true

	tests := []struct {
		number, commit, date string
		want                 string
	}{
		{"1.2.3", "", "", "qllc 1.2.3"},
		{"1.2.3-dev", "abc123", "", "qllc 1.2.3-dev (abc123)"},
		{"0.4.0", "abc123", "2026-01-15", "qllc 0.4.0 (abc123) built 2026-01-15"},
	}
	for _, tt := range tests {
		Number, GitCommit, BuildDate = tt.number, tt.commit, tt.date
		if got := Banner(); got != tt.want {
			t.Errorf("Banner() = %q, want %q", got, tt.want)
		}
	}
}
