package common

import "testing"

func TestApplyVersionField_FillsDefaultsOnly(t *testing.T) {
	origVersion, origBuild, origCommit := Version, Build, GitCommit
	t.Cleanup(func() {
		Version, Build, GitCommit = origVersion, origBuild, origCommit
	})

	Version, Build, GitCommit = "dev", "unknown", "unknown"

	applyVersionField("version", "1.4.2")
	applyVersionField("build", "2026-08-29T10:00:00Z")
	applyVersionField("commit", "ab12cd3")

	if Version != "1.4.2" || Build != "2026-08-29T10:00:00Z" || GitCommit != "ab12cd3" {
		t.Errorf("file values should fill defaults, got %s / %s / %s", Version, Build, GitCommit)
	}

	// ldflags-provided values are never overwritten.
	applyVersionField("version", "9.9.9")
	if Version != "1.4.2" {
		t.Errorf("ldflags value must win, got %s", Version)
	}

	// Empty and unknown keys are ignored.
	applyVersionField("commit", "")
	applyVersionField("channel", "beta")
	if GitCommit != "ab12cd3" {
		t.Errorf("GitCommit changed unexpectedly: %s", GitCommit)
	}
}
