package registry_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"github.com/lone-outpost-oss/multimoon/internal/checksum"
	"github.com/lone-outpost-oss/multimoon/internal/registry"
)

func sampleRegistry() registry.Registry {
	sum := checksum.Digest([]byte("x"))
	return registry.Registry{
		LastModified: 1715000000,
		DownloadFrom: "https://dl.example.com/toolchains",
		Toolchains: []registry.Toolchain{
			{
				Name:         "20240501",
				MoonVer:      "0.1.20240501",
				LastModified: 1714500000,
				Bin:          []registry.File{{Filename: "moon", DownloadFrom: "moon.xz", Checksum: sum}},
				Core:         []registry.File{{Filename: "core.zip", DownloadFrom: "core.zip", Checksum: sum}},
				Installer:    "initial",
			},
			{
				Name:         "20240507",
				MoonVer:      "0.1.20240507",
				LastModified: 1715000000,
				Bin:          []registry.File{{Filename: "moonc", DownloadFrom: "moonc.xz", Checksum: sum}},
				Core:         []registry.File{{Filename: "core.zip", DownloadFrom: "core.zip", Checksum: sum}},
				Installer:    "2024-05-07",
			},
		},
	}
}

func encode(t *testing.T, reg registry.Registry) []byte {
	t.Helper()
	data, err := json.Marshal(reg)
	if err != nil {
		t.Fatalf("failed to encode registry: %v", err)
	}
	return data
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *registry.Registry)
		raw     string
		wantErr error
	}{
		{name: "valid", mutate: func(r *registry.Registry) {}},
		{name: "invalid json", raw: "{not json", wantErr: registry.ErrFormat},
		{name: "no toolchains", mutate: func(r *registry.Registry) { r.Toolchains = nil }, wantErr: registry.ErrFormat},
		{name: "missing downloadfrom", mutate: func(r *registry.Registry) { r.DownloadFrom = "" }, wantErr: registry.ErrFormat},
		{name: "missing core bundle", mutate: func(r *registry.Registry) { r.Toolchains[0].Core = nil }, wantErr: registry.ErrFormat},
		{name: "duplicate name", mutate: func(r *registry.Registry) { r.Toolchains[1].Name = r.Toolchains[0].Name }, wantErr: registry.ErrFormat},
		{
			name:    "unsupported checksum algorithm",
			mutate:  func(r *registry.Registry) { r.Toolchains[0].Bin[0].Checksum = "md5:abc" },
			wantErr: checksum.ErrUnsupportedAlgorithm,
		},
		{
			name:    "filename with separator",
			mutate:  func(r *registry.Registry) { r.Toolchains[0].Bin[0].Filename = "../moon" },
			wantErr: registry.ErrFormat,
		},
		{name: "nested downloadfrom", mutate: func(r *registry.Registry) { r.Toolchains[0].Bin[0].DownloadFrom = "bin/moon.xz" }},
		{
			name:    "downloadfrom escaping the toolchain dir",
			mutate:  func(r *registry.Registry) { r.Toolchains[0].Core[0].DownloadFrom = "../other/core.zip" },
			wantErr: registry.ErrFormat,
		},
		{
			name:    "absolute downloadfrom",
			mutate:  func(r *registry.Registry) { r.Toolchains[0].Core[0].DownloadFrom = "/core.zip" },
			wantErr: registry.ErrFormat,
		},
		{
			name:    "downloadfrom with scheme",
			mutate:  func(r *registry.Registry) { r.Toolchains[0].Bin[0].DownloadFrom = "https://evil.example.com/moon.xz" },
			wantErr: registry.ErrFormat,
		},
		{
			name:    "downloadfrom with query",
			mutate:  func(r *registry.Registry) { r.Toolchains[0].Bin[0].DownloadFrom = "moon.xz?v=1" },
			wantErr: registry.ErrFormat,
		},
		{
			name:    "downloadfrom with empty segment",
			mutate:  func(r *registry.Registry) { r.Toolchains[0].Bin[0].DownloadFrom = "bin//moon.xz" },
			wantErr: registry.ErrFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data []byte
			if tt.raw != "" {
				data = []byte(tt.raw)
			} else {
				reg := sampleRegistry()
				tt.mutate(&reg)
				data = encode(t, reg)
			}

			reg, err := registry.Decode(bytes.NewReader(data))
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Decode failed: %v", err)
				}
				if len(reg.Toolchains) != 2 {
					t.Errorf("toolchain count mismatch: got %d, want 2", len(reg.Toolchains))
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, registry.ErrFormat) {
				t.Errorf("expected every decode failure to be a format error, got %v", err)
			}
		})
	}
}

func TestDecodeFieldNames(t *testing.T) {
	raw := `{
		"toolchains": [{
			"name": "latest",
			"moonver": "0.1.0",
			"last_modified": 42,
			"bin": [{"filename": "moon", "downloadfrom": "moon.xz", "checksum": "` + checksum.Digest(nil) + `"}],
			"core": [{"filename": "core.zip", "downloadfrom": "core.zip", "checksum": "` + checksum.Digest(nil) + `"}],
			"installer": "initial"
		}],
		"last_modified": 43,
		"downloadfrom": "https://dl.example.com/"
	}`

	reg, err := registry.Decode(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	tc := reg.Toolchains[0]
	if tc.LastModified != 42 || tc.MoonVer != "0.1.0" || tc.Installer != "initial" {
		t.Errorf("toolchain fields not decoded: %+v", tc)
	}
	if tc.Bin[0].DownloadFrom != "moon.xz" {
		t.Errorf("downloadfrom mismatch: got %s", tc.Bin[0].DownloadFrom)
	}
	if reg.LastModified != 43 {
		t.Errorf("last_modified mismatch: got %d, want 43", reg.LastModified)
	}
}

func TestSortedByLastModified(t *testing.T) {
	reg := sampleRegistry()
	reg.Toolchains = append(reg.Toolchains, registry.Toolchain{
		Name:         "20240507-fix",
		MoonVer:      "0.1.20240508",
		LastModified: 1715000000,
	})

	asc := reg.SortedByLastModified(false)
	wantAsc := []string{"20240501", "20240507", "20240507-fix"}
	for i, name := range wantAsc {
		if asc[i].Name != name {
			t.Errorf("ascending[%d] mismatch: got %s, want %s", i, asc[i].Name, name)
		}
	}

	desc := reg.SortedByLastModified(true)
	wantDesc := []string{"20240507-fix", "20240507", "20240501"}
	for i, name := range wantDesc {
		if desc[i].Name != name {
			t.Errorf("descending[%d] mismatch: got %s, want %s", i, desc[i].Name, name)
		}
	}

	if reg.Toolchains[0].Name != "20240501" || reg.Toolchains[2].Name != "20240507-fix" {
		t.Error("SortedByLastModified modified the registry in place")
	}
}

func TestLatestAndFind(t *testing.T) {
	reg := sampleRegistry()

	latest, err := reg.Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.Name != "20240507" {
		t.Errorf("Latest mismatch: got %s, want 20240507", latest.Name)
	}

	found, err := reg.Find("20240501")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if found.MoonVer != "0.1.20240501" {
		t.Errorf("Find returned wrong toolchain: %+v", found)
	}

	if _, err := reg.Find("nope"); !errors.Is(err, registry.ErrToolchainNotFound) {
		t.Errorf("expected ErrToolchainNotFound, got %v", err)
	}

	empty := registry.Registry{}
	if _, err := empty.Latest(); !errors.Is(err, registry.ErrFormat) {
		t.Errorf("expected ErrFormat for empty registry, got %v", err)
	}
}

func TestArtifactURLs(t *testing.T) {
	tests := []struct {
		name         string
		downloadFrom string
		wantBinary   string
		wantBundle   string
	}{
		{
			name:         "without trailing slash",
			downloadFrom: "https://dl.example.com/toolchains",
			wantBinary:   "https://dl.example.com/toolchains/20240507/ubuntu_amd64/moonc.xz",
			wantBundle:   "https://dl.example.com/toolchains/20240507/multiarch/core.zip",
		},
		{
			name:         "with trailing slash",
			downloadFrom: "https://dl.example.com/toolchains/",
			wantBinary:   "https://dl.example.com/toolchains/20240507/ubuntu_amd64/moonc.xz",
			wantBundle:   "https://dl.example.com/toolchains/20240507/multiarch/core.zip",
		},
		{
			name:         "host only",
			downloadFrom: "https://dl.example.com",
			wantBinary:   "https://dl.example.com/20240507/ubuntu_amd64/moonc.xz",
			wantBundle:   "https://dl.example.com/20240507/multiarch/core.zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := sampleRegistry()
			reg.DownloadFrom = tt.downloadFrom
			tc := reg.Toolchains[1]

			bin, err := reg.BinaryURL(tc, "ubuntu_amd64", tc.Bin[0])
			if err != nil {
				t.Fatalf("BinaryURL failed: %v", err)
			}
			if bin.String() != tt.wantBinary {
				t.Errorf("binary url mismatch: got %s, want %s", bin, tt.wantBinary)
			}

			bundle, err := reg.BundleURL(tc, tc.Core[0])
			if err != nil {
				t.Fatalf("BundleURL failed: %v", err)
			}
			if bundle.String() != tt.wantBundle {
				t.Errorf("bundle url mismatch: got %s, want %s", bundle, tt.wantBundle)
			}
		})
	}
}

func TestNestedDownloadPath(t *testing.T) {
	reg := sampleRegistry()
	reg.Toolchains[0].Bin[0].DownloadFrom = "bin/moon.xz"

	decoded, err := registry.Decode(bytes.NewReader(encode(t, reg)))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	tc := decoded.Toolchains[0]

	u, err := decoded.BinaryURL(tc, "ubuntu_amd64", tc.Bin[0])
	if err != nil {
		t.Fatalf("BinaryURL failed: %v", err)
	}
	want := "https://dl.example.com/toolchains/" + tc.Name + "/ubuntu_amd64/bin/moon.xz"
	if u.String() != want {
		t.Errorf("binary url mismatch: got %s, want %s", u, want)
	}
}

func TestIndexURL(t *testing.T) {
	base, _ := url.Parse("https://multimoon.lopt.dev")
	if got := registry.IndexURL(base, "macos_aarch64").String(); got != "https://multimoon.lopt.dev/macos_aarch64/" {
		t.Errorf("index url mismatch: got %s", got)
	}
}

func newSigningKey(t *testing.T) *openpgp.Entity {
	t.Helper()
	entity, err := openpgp.NewEntity("multimoon test", "", "test@example.com", &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	if err != nil {
		t.Fatalf("failed to create signing key: %v", err)
	}
	return entity
}

func TestFetch(t *testing.T) {
	index := encode(t, sampleRegistry())
	signer := newSigningKey(t)

	var armoredSig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&armoredSig, signer, bytes.NewReader(index), nil); err != nil {
		t.Fatalf("failed to sign index: %v", err)
	}
	var binarySig bytes.Buffer
	if err := openpgp.DetachSign(&binarySig, signer, bytes.NewReader(index), nil); err != nil {
		t.Fatalf("failed to sign index: %v", err)
	}
	other := newSigningKey(t)

	tests := []struct {
		name     string
		keyring  openpgp.EntityList
		sig      []byte
		indexRaw []byte
		wantErr  error
	}{
		{name: "unsigned", indexRaw: index},
		{name: "armored signature", keyring: openpgp.EntityList{signer}, sig: armoredSig.Bytes(), indexRaw: index},
		{name: "binary signature", keyring: openpgp.EntityList{signer}, sig: binarySig.Bytes(), indexRaw: index},
		{name: "wrong key", keyring: openpgp.EntityList{other}, sig: armoredSig.Bytes(), indexRaw: index, wantErr: registry.ErrSignature},
		{name: "missing signature", keyring: openpgp.EntityList{signer}, indexRaw: index, wantErr: registry.ErrNetwork},
		{name: "malformed index", indexRaw: []byte("[]"), wantErr: registry.ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/registry/ubuntu_amd64/", func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") != registry.DefaultUserAgent {
					t.Errorf("user agent mismatch: got %s", r.Header.Get("User-Agent"))
				}
				w.Write(tt.indexRaw)
			})
			mux.HandleFunc("/registry/ubuntu_amd64/index.sig", func(w http.ResponseWriter, r *http.Request) {
				if tt.sig == nil {
					http.NotFound(w, r)
					return
				}
				w.Write(tt.sig)
			})
			srv := httptest.NewServer(mux)
			defer srv.Close()

			base, _ := url.Parse(srv.URL + "/registry")
			fetcher := registry.NewFetcher(srv.Client(), nil).WithKeyring(tt.keyring)

			reg, err := fetcher.Fetch(context.Background(), base, "ubuntu_amd64")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if len(reg.Toolchains) != 2 {
				t.Errorf("toolchain count mismatch: got %d, want 2", len(reg.Toolchains))
			}
		})
	}
}

func TestFetchHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	base, _ := url.Parse(srv.URL)
	_, err := registry.NewFetcher(srv.Client(), nil).Fetch(context.Background(), base, "windows_x64")

	var statusErr *registry.HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *HTTPStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusGone {
		t.Errorf("status mismatch: got %d, want %d", statusErr.StatusCode, http.StatusGone)
	}
	if !strings.HasSuffix(statusErr.URL, "/windows_x64/") {
		t.Errorf("url mismatch: got %s", statusErr.URL)
	}
}

func TestLoadKeyring(t *testing.T) {
	entity := newSigningKey(t)
	dir := t.TempDir()

	var binaryKey bytes.Buffer
	if err := entity.Serialize(&binaryKey); err != nil {
		t.Fatalf("failed to serialize key: %v", err)
	}

	var armoredKey bytes.Buffer
	w, err := armor.Encode(&armoredKey, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("failed to create armor writer: %v", err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatalf("failed to serialize key: %v", err)
	}
	w.Close()

	tests := []struct {
		name    string
		content []byte
		wantErr bool
	}{
		{name: "armored", content: armoredKey.Bytes()},
		{name: "binary", content: binaryKey.Bytes()},
		{name: "garbage", content: []byte("not a key"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".gpg")
			if err := os.WriteFile(path, tt.content, 0o644); err != nil {
				t.Fatal(err)
			}

			keyring, err := registry.LoadKeyring(path)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error for invalid keyring")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadKeyring failed: %v", err)
			}
			if len(keyring) != 1 {
				t.Errorf("key count mismatch: got %d, want 1", len(keyring))
			}
		})
	}
}
