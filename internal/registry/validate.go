package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lone-outpost-oss/multimoon/internal/checksum"
)

// Decode parses and validates a registry document.
func Decode(r io.Reader) (*Registry, error) {
	var reg Registry
	if err := json.NewDecoder(r).Decode(&reg); err != nil {
		return nil, formatErrorf("decode registry: %v", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks the structural rules every consumer relies on. All
// violations wrap ErrFormat.
func (r *Registry) Validate() error {
	if len(r.Toolchains) == 0 {
		return formatErrorf("no toolchains found")
	}
	if r.DownloadFrom == "" {
		return formatErrorf("downloadfrom is empty")
	}

	seen := make(map[string]bool, len(r.Toolchains))
	for i := range r.Toolchains {
		tc := &r.Toolchains[i]
		if tc.Name == "" {
			return formatErrorf("toolchain #%d has no name", i+1)
		}
		if seen[tc.Name] {
			return formatErrorf("duplicate toolchain %s", tc.Name)
		}
		seen[tc.Name] = true

		if err := tc.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks a single toolchain entry.
func (t *Toolchain) Validate() error {
	if len(t.Core) == 0 {
		return formatErrorf("toolchain %s has no core bundle", t.Name)
	}

	groups := []struct {
		kind  string
		files []File
	}{
		{"bin", t.Bin},
		{"core", t.Core},
	}
	for _, g := range groups {
		for _, f := range g.files {
			if err := validateFile(f); err != nil {
				return fmt.Errorf("toolchain %s %s entry: %w", t.Name, g.kind, err)
			}
		}
	}

	return nil
}

func validateFile(f File) error {
	if f.Filename == "" || strings.ContainsAny(f.Filename, `/\`) || f.Filename == "." || f.Filename == ".." {
		return formatErrorf("invalid filename %q", f.Filename)
	}
	if !validRelativePath(f.DownloadFrom) {
		return formatErrorf("invalid downloadfrom %q for %s", f.DownloadFrom, f.Filename)
	}
	if err := checksum.Validate(f.Checksum); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFormat, f.Filename, err)
	}
	return nil
}

// validRelativePath accepts slash-separated paths that resolve below the
// toolchain directory: no query or fragment, no scheme, no leading slash
// and no empty or dot-dot segments.
func validRelativePath(p string) bool {
	if p == "" || strings.ContainsAny(p, `\?#`) || strings.HasPrefix(p, "/") {
		return false
	}
	if first, _, _ := strings.Cut(p, "/"); strings.Contains(first, ":") {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}
