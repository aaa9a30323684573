package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBuild(t *testing.T, v string) {
	t.Helper()
	old := BuildVersion
	BuildVersion = v
	t.Cleanup(func() { BuildVersion = old })
}

func TestBaseVersion(t *testing.T) {
	testCases := []struct {
		name     string
		build    string
		expected string
	}{
		{"Release", "1.7.8", "v1.7"},
		{"GitDescribe", "0.4.2-11-g2300850", "v0.4"},
		{"MajorOnly", "3", "v3.0"},
		{"Development", "0.0.0", "v0.0"},
		{"Invalid", "1.2.beta", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setBuild(t, tc.build)
			assert.Equal(t, tc.expected, BaseVersion())
		})
	}
}

func TestSatisfies(t *testing.T) {
	testCases := []struct {
		name       string
		build      string
		constraint string
		expected   bool
	}{
		{"Met", "0.4.0", ">= 0.3", true},
		{"NotMet", "0.2.9", ">= 0.3", false},
		{"UpperBound", "1.0.0", ">= 0.3, < 1", false},
		{"GitDescribeComparesRelease", "0.4.0-3-gabcdef", ">= 0.4", true},
		{"Development", "0.0.0", ">= 9", true},
		{"UnparsableBuild", "dev", ">= 9", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setBuild(t, tc.build)
			ok, err := Satisfies(tc.constraint)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ok)
		})
	}

	t.Run("InvalidConstraint", func(t *testing.T) {
		_, err := Satisfies("newest please")
		assert.ErrorContains(t, err, `invalid version constraint "newest please"`)
	})
}

func TestSummary(t *testing.T) {
	setBuild(t, "1.2.3")
	oldCommit, oldDate := Commit, BuildDate
	Commit, BuildDate = "abc1234", "2024-01-02"
	t.Cleanup(func() { Commit, BuildDate = oldCommit, oldDate })

	summary := Summary("blocky")
	assert.Contains(t, summary, "blocky version 1.2.3 (abc1234) on 2024-01-02")
	assert.Contains(t, summary, runtime.GOOS+"/"+runtime.GOARCH)
}
