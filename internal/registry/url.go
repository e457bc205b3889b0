package registry

import (
	"net/url"
	"strings"
)

// MultiArch is the architecture segment used for architecture-independent
// artifacts such as the library bundle.
const MultiArch = "multiarch"

// IndexURL returns the registry index location for an architecture,
// `<base>/<arch>/`.
func IndexURL(base *url.URL, archTag string) *url.URL {
	return resolve(base, archTag+"/")
}

// BinaryURL returns `<downloadfrom>/<toolchain>/<arch>/<file>`.
func (r *Registry) BinaryURL(tc Toolchain, archTag string, f File) (*url.URL, error) {
	return r.artifactURL(tc, archTag, f)
}

// BundleURL returns `<downloadfrom>/<toolchain>/multiarch/<file>`.
func (r *Registry) BundleURL(tc Toolchain, f File) (*url.URL, error) {
	return r.artifactURL(tc, MultiArch, f)
}

func (r *Registry) artifactURL(tc Toolchain, segment string, f File) (*url.URL, error) {
	base, err := url.Parse(r.DownloadFrom)
	if err != nil {
		return nil, formatErrorf("invalid downloadfrom %q: %v", r.DownloadFrom, err)
	}
	return resolve(base, tc.Name+"/", segment+"/", f.DownloadFrom), nil
}

// resolve joins relative path segments onto base by URL reference
// resolution. Base always gets a trailing slash first so its last segment
// is kept.
func resolve(base *url.URL, segments ...string) *url.URL {
	u := *base
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
		if u.RawPath != "" {
			u.RawPath += "/"
		}
	}

	out := &u
	for _, seg := range segments {
		// Segments are paths, never schemes, even when they contain a colon.
		out = out.ResolveReference(&url.URL{Path: seg})
	}
	return out
}
