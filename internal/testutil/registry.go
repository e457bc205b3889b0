package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"sync"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/lone-outpost-oss/multimoon/internal/checksum"
	"github.com/lone-outpost-oss/multimoon/internal/registry"
)

// FakeToolchain describes a toolchain served by FakeRegistry.
type FakeToolchain struct {
	Name         string
	MoonVer      string
	LastModified int64
	Installer    string            // defaults to "initial"
	Binaries     map[string][]byte // filename to decoded content
	Bundle       []byte            // zip archive of the core library
}

// FakeRegistry serves a registry index and its artifacts over HTTP.
type FakeRegistry struct {
	Server   *httptest.Server
	Registry *registry.Registry
	ArchTag  string

	mu       sync.Mutex
	files    map[string][]byte
	requests map[string]int
}

// NewFakeRegistry starts a server for archTag. The index lives below
// /registry/ and artifacts below /dl/. The server is closed on cleanup.
func NewFakeRegistry(t *testing.T, archTag string, toolchains ...FakeToolchain) *FakeRegistry {
	t.Helper()

	f := &FakeRegistry{
		ArchTag:  archTag,
		files:    make(map[string][]byte),
		requests: make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)

	reg := &registry.Registry{DownloadFrom: f.Server.URL + "/dl"}
	for _, ft := range toolchains {
		tc := registry.Toolchain{
			Name:         ft.Name,
			MoonVer:      ft.MoonVer,
			LastModified: ft.LastModified,
			Installer:    ft.Installer,
		}
		if tc.Installer == "" {
			tc.Installer = "initial"
		}
		if tc.LastModified > reg.LastModified {
			reg.LastModified = tc.LastModified
		}

		names := make([]string, 0, len(ft.Binaries))
		for name := range ft.Binaries {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			content := ft.Binaries[name]
			tc.Bin = append(tc.Bin, registry.File{
				Filename:     name,
				DownloadFrom: name + ".xz",
				Checksum:     checksum.Digest(content),
			})
			f.files["/dl/"+ft.Name+"/"+archTag+"/"+name+".xz"] = CompressXZ(t, content)
		}

		tc.Core = []registry.File{{
			Filename:     "core.zip",
			DownloadFrom: "core.zip",
			Checksum:     checksum.Digest(ft.Bundle),
		}}
		f.files["/dl/"+ft.Name+"/multiarch/core.zip"] = ft.Bundle

		reg.Toolchains = append(reg.Toolchains, tc)
	}

	f.Registry = reg
	f.Publish(t)
	return f
}

// Publish re-encodes the index after Registry has been modified.
func (f *FakeRegistry) Publish(t *testing.T) {
	t.Helper()

	data, err := json.Marshal(f.Registry)
	if err != nil {
		t.Fatalf("failed to encode registry: %v", err)
	}
	f.mu.Lock()
	f.files["/registry/"+f.ArchTag+"/"] = data
	f.mu.Unlock()
}

// BaseURL returns the registry base URL.
func (f *FakeRegistry) BaseURL() *url.URL {
	u, _ := url.Parse(f.Server.URL + "/registry/")
	return u
}

// Replace serves content at path instead of the original artifact.
func (f *FakeRegistry) Replace(path string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
}

// Remove makes path answer 404.
func (f *FakeRegistry) Remove(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
}

// Requests returns how often path was requested.
func (f *FakeRegistry) Requests(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

func (f *FakeRegistry) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests[r.URL.Path]++
	data, ok := f.files[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Write(data)
}

// CompressXZ returns data compressed in the xz format.
func CompressXZ(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("failed to create xz writer: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("failed to compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to finish xz stream: %v", err)
	}
	return buf.Bytes()
}
