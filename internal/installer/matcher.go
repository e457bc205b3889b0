package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/lone-outpost-oss/multimoon/internal/checksum"
	"github.com/lone-outpost-oss/multimoon/internal/registry"
)

// Matches reports whether every executable of tc is present in binDir with
// its declared fingerprint. A missing file or a differing digest means no
// match; an unsupported fingerprint algorithm or an unreadable file is an
// error. The library bundle does not take part.
func Matches(ctx context.Context, tc registry.Toolchain, binDir string) (bool, error) {
	for _, bin := range tc.Bin {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		if err := checksum.Validate(bin.Checksum); err != nil {
			return false, fmt.Errorf("%w: file %s has an invalid checksum: %w", registry.ErrFormat, bin.Filename, err)
		}

		got, err := checksum.DigestFile(filepath.Join(binDir, bin.Filename))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, nil
			}
			return false, fmt.Errorf("read %s: %w", bin.Filename, err)
		}
		if got != bin.Checksum {
			return false, nil
		}
	}

	return true, nil
}
