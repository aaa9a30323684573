package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// Set at build time with -ldflags "-X".
var (
	BuildDate    = "unknown"
	BuildVersion = "0.0.0"
	Commit       = "unknown"
)

func current() (*semver.Version, bool) {
	v, err := semver.NewVersion(BuildVersion)
	if err != nil {
		return nil, false
	}
	return v, true
}

// BaseVersion returns the major and minor version of the build, for
// example "v1.2".
func BaseVersion() string {
	v, ok := current()
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("v%d.%d", v.Major(), v.Minor())
}

// Satisfies reports whether the build meets constraint, for example
// ">= 0.3, < 1". Only the release part of the build version is compared,
// so "0.4.0-3-gabcdef" satisfies ">= 0.4". Development builds and builds
// with an unparsable version satisfy every constraint.
func Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, errors.Wrapf(err, "invalid version constraint %q", constraint)
	}

	v, ok := current()
	if !ok || (v.Major() == 0 && v.Minor() == 0 && v.Patch() == 0) {
		return true, nil
	}
	return c.Check(semver.New(v.Major(), v.Minor(), v.Patch(), "", "")), nil
}

// Summary describes the build in a single line.
func Summary(name string) string {
	return fmt.Sprintf("%s version %s (%s) on %s; %s %s/%s", name, BuildVersion, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
