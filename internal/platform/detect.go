package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector for the running host.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect reports runtime.GOOS and runtime.GOARCH. On Linux the distribution
// is looked up through gopsutil; a lookup failure leaves it empty, since the
// registry tag does not depend on it.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	if info.OS != "linux" {
		return info, nil
	}

	distro, _, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	info.Distro = strings.ToLower(strings.TrimSpace(distro))
	info.Version = strings.TrimSpace(version)
	return info, nil
}
