package registry

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// SortedByLastModified returns a copy of the toolchains ordered by
// last_modified, newest first when desc is set. Equal timestamps are ordered
// by moonver, then by name, so the result is deterministic.
func (r *Registry) SortedByLastModified(desc bool) []Toolchain {
	out := make([]Toolchain, len(r.Toolchains))
	copy(out, r.Toolchains)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if desc {
			a, b = b, a
		}
		if a.LastModified != b.LastModified {
			return a.LastModified < b.LastModified
		}
		if c := compareMoonVer(a.MoonVer, b.MoonVer); c != 0 {
			return c < 0
		}
		return a.Name < b.Name
	})

	return out
}

// Latest returns the most recently modified toolchain.
func (r *Registry) Latest() (Toolchain, error) {
	if len(r.Toolchains) == 0 {
		return Toolchain{}, formatErrorf("no toolchains found")
	}
	return r.SortedByLastModified(true)[0], nil
}

// Find returns the toolchain with the given name.
func (r *Registry) Find(name string) (Toolchain, error) {
	for _, tc := range r.Toolchains {
		if tc.Name == name {
			return tc, nil
		}
	}
	return Toolchain{}, fmt.Errorf("%w: %s", ErrToolchainNotFound, name)
}

// compareMoonVer orders moon version strings. Strings that are not semantic
// versions sort before those that are.
func compareMoonVer(a, b string) int {
	return semver.Compare(canonicalVersion(a), canonicalVersion(b))
}

func canonicalVersion(v string) string {
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
