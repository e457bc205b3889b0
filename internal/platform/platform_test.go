package platform

import (
	"context"
	"errors"
	"runtime"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestArchTag(t *testing.T) {
	tests := []struct {
		goos    string
		goarch  string
		want    string
		wantErr bool
	}{
		{"darwin", "arm64", "macos_aarch64", false},
		{"darwin", "amd64", "macos_amd64", false},
		{"linux", "amd64", "ubuntu_amd64", false},
		{"windows", "amd64", "windows_x64", false},
		{"linux", "arm64", "", true},
		{"windows", "arm64", "", true},
		{"freebsd", "amd64", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			got, err := ArchTag(tt.goos, tt.goarch)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedPlatform) {
					t.Errorf("expected ErrUnsupportedPlatform, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ArchTag failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ArchTag mismatch: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExecutableName(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"windows", "moon.exe"},
		{"linux", "moon"},
		{"darwin", "moon"},
	}

	for _, tt := range tests {
		if got := ExecutableName("moon", tt.goos); got != tt.want {
			t.Errorf("ExecutableName(%s) mismatch: got %s, want %s", tt.goos, got, tt.want)
		}
	}
}

func TestRealDetector(t *testing.T) {
	info, err := NewDetector().Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Errorf("detected %s/%s, want %s/%s", info.OS, info.Arch, runtime.GOOS, runtime.GOARCH)
	}
	if runtime.GOOS != "linux" && info.Distro != "" {
		t.Errorf("distro should be empty off Linux, got %s", info.Distro)
	}
}

func TestInjectPlatformTable(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	InjectPlatformTable(L, &Info{OS: "linux", Arch: "amd64", Distro: "ubuntu", Version: "22.04"})

	script := `
		assert(platform.os == "linux")
		assert(platform.arch_tag == "ubuntu_amd64")
		assert(platform.exe_suffix == "")
		assert(platform.distro == "ubuntu")
		assert(platform.is_linux and not platform.is_windows)
		assert(platform.when(platform.is_linux, "yes") == "yes")
		assert(platform.when(platform.is_macos, "yes") == nil)
	`
	if err := L.DoString(script); err != nil {
		t.Fatalf("platform table assertions failed: %v", err)
	}

	if err := L.DoString(`platform.os = "windows"`); err == nil {
		t.Error("expected write to platform table to fail")
	}
}

func TestInjectPlatformTableUnsupported(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	InjectPlatformTable(L, &Info{OS: "windows", Arch: "arm64"})

	if err := L.DoString(`assert(platform.arch_tag == nil); assert(platform.exe_suffix == ".exe")`); err != nil {
		t.Errorf("unsupported platform table mismatch: %v", err)
	}
}

func TestStaticDetector(t *testing.T) {
	d := StaticDetector{Info: Info{OS: "darwin", Arch: "arm64"}}
	info, err := d.Detect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	info.OS = "changed"
	if d.Info.OS != "darwin" {
		t.Error("Detect returned shared Info")
	}
}
