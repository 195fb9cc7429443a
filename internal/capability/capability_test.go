// SPDX-License-Identifier: MPL-2.0

package capability

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeHost builds a Prober over a synthetic filesystem and environment.
func fakeHost(t *testing.T, env map[string]string, pathBins map[string]string, files, dirs []string) *Prober {
	t.Helper()

	present := map[string]bool{}
	for _, f := range files {
		present[f] = true
	}
	for _, p := range pathBins {
		present[p] = true
	}
	isDir := map[string]bool{}
	for _, d := range dirs {
		present[d] = true
		isDir[d] = true
	}

	return &Prober{
		Getenv: func(key string) string { return env[key] },
		LookPath: func(file string) (string, error) {
			if p, ok := pathBins[file]; ok {
				return p, nil
			}
			return "", errors.New("not found in PATH")
		},
		Stat: func(name string) (os.FileInfo, error) {
			if present[name] {
				mode := os.FileMode(0o755)
				if isDir[name] {
					mode = os.ModeDir | 0o755
				}
				return fakeFileInfo{name: name, dir: isDir[name], mode: mode}, nil
			}
			return nil, os.ErrNotExist
		},
		OSReleasePath: filepath.Join(t.TempDir(), "absent"),
	}
}

type fakeFileInfo struct {
	os.FileInfo
	name string
	dir  bool
	mode os.FileMode
}

func (f fakeFileInfo) IsDir() bool       { return f.dir }
func (f fakeFileInfo) Mode() os.FileMode { return f.mode }

func TestSnapshot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		env      map[string]string
		pathBins map[string]string
		files    []string
		dirs     []string
		want     Capabilities
	}{
		{
			name:     "wine on PATH with multi-arch libraries",
			pathBins: map[string]string{"wine": "/usr/bin/wine", "wineserver": "/usr/bin/wineserver"},
			dirs:     []string{"/usr/lib/wine/i386-unix"},
			want: Capabilities{
				RuntimePath:    "/usr/bin/wine",
				ServerPath:     "/usr/bin/wineserver",
				RuntimePresent: true,
				Supports32Bit:  true,
				Family:         FamilyUnknown,
			},
		},
		{
			name:     "64-bit-only build has no 32-bit support",
			pathBins: map[string]string{"wine64": "/usr/bin/wine64"},
			want: Capabilities{
				RuntimePath:    "/usr/bin/wine64",
				RuntimePresent: true,
				Supports32Bit:  false,
				Family:         FamilyUnknown,
			},
		},
		{
			name:     "wow64 build carries only target-side libraries",
			pathBins: map[string]string{"wine64": "/opt/wine/bin/wine64"},
			dirs:     []string{"/opt/wine/lib/wine/i386-windows"},
			want: Capabilities{
				RuntimePath:    "/opt/wine/bin/wine64",
				RuntimePresent: true,
				Supports32Bit:  true,
				Family:         FamilyUnknown,
			},
		},
		{
			name:     "explicit override wins over PATH",
			env:      map[string]string{"WINE": "/custom/bin/wine"},
			pathBins: map[string]string{"wine": "/usr/bin/wine"},
			files:    []string{"/custom/bin/wine"},
			dirs:     []string{"/custom/lib/wine/i386-unix"},
			want: Capabilities{
				RuntimePath:    "/custom/bin/wine",
				RuntimePresent: true,
				Supports32Bit:  true,
				Family:         FamilyUnknown,
			},
		},
		{
			name: "bundle dir wins over PATH",
			env:  map[string]string{"APPDIR": "/app"},
			pathBins: map[string]string{
				"wine":       "/usr/bin/wine",
				"wineserver": "/usr/bin/wineserver",
			},
			files: []string{"/app/usr/bin/wine", "/app/usr/bin/wineserver"},
			dirs:  []string{"/app/usr/lib/wine/i386-unix"},
			want: Capabilities{
				RuntimePath:    "/app/usr/bin/wine",
				ServerPath:     "/app/usr/bin/wineserver",
				RuntimePresent: true,
				Supports32Bit:  true,
				Family:         FamilyUnknown,
			},
		},
		{
			name: "nothing installed",
			want: Capabilities{Family: FamilyUnknown},
		},
		{
			name: "broken override falls through to PATH",
			env:  map[string]string{"WINE": "/missing/wine"},
			pathBins: map[string]string{
				"wine": "/usr/bin/wine",
			},
			want: Capabilities{
				RuntimePath:    "/usr/bin/wine",
				RuntimePresent: true,
				Supports32Bit:  false,
				Family:         FamilyUnknown,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := fakeHost(t, tt.env, tt.pathBins, tt.files, tt.dirs)
			got := p.Snapshot()
			if *got != tt.want {
				t.Errorf("Snapshot() = %+v, want %+v", *got, tt.want)
			}
		})
	}

	t.Run("non-executable override falls through to PATH", func(t *testing.T) {
		t.Parallel()

		p := fakeHost(t,
			map[string]string{"WINE": "/custom/bin/wine"},
			map[string]string{"wine": "/usr/bin/wine"},
			nil, nil)
		stat := p.Stat
		p.Stat = func(name string) (os.FileInfo, error) {
			if name == "/custom/bin/wine" {
				return fakeFileInfo{name: name, mode: 0o644}, nil
			}
			return stat(name)
		}

		got := p.Snapshot()
		if got.RuntimePath != "/usr/bin/wine" {
			t.Errorf("RuntimePath = %q, want the PATH binary", got.RuntimePath)
		}
	})
}

func TestDetectFamily(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    Family
	}{
		{
			name:    "ubuntu by ID",
			content: "NAME=\"Ubuntu\"\nID=ubuntu\nID_LIKE=debian\n",
			want:    FamilyDebian,
		},
		{
			name:    "arch by ID",
			content: "NAME=\"Arch Linux\"\nID=arch\n",
			want:    FamilyArch,
		},
		{
			name:    "fedora by ID",
			content: "ID=fedora\n",
			want:    FamilyFedora,
		},
		{
			name:    "tumbleweed by ID",
			content: "ID=opensuse-tumbleweed\nID_LIKE=\"opensuse suse\"\n",
			want:    FamilySuse,
		},
		{
			name:    "derivative resolved through ID_LIKE",
			content: "ID=neon\nID_LIKE=\"ubuntu debian\"\n",
			want:    FamilyDebian,
		},
		{
			name:    "unmapped distro keeps its raw ID",
			content: "ID=gentoo\n",
			want:    Family("gentoo"),
		},
		{
			name:    "unmapped ID_LIKE tokens fall back to the raw ID",
			content: "ID=void\nID_LIKE=\"independent\"\n",
			want:    Family("void"),
		},
		{
			name:    "garbage file",
			content: "not a key value file at all",
			want:    FamilyUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "os-release")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			p := &Prober{OSReleasePath: path, Getenv: func(string) string { return "" }}
			if got := p.DetectFamily(); got != tt.want {
				t.Errorf("DetectFamily() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("missing file is unknown", func(t *testing.T) {
		t.Parallel()

		p := &Prober{OSReleasePath: filepath.Join(t.TempDir(), "nope")}
		if got := p.DetectFamily(); got != FamilyUnknown {
			t.Errorf("DetectFamily() = %q, want %q", got, FamilyUnknown)
		}
	})
}

func TestParseAdapters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
		want   []GPU
	}{
		{
			name:   "nvidia discrete",
			output: "01:00.0 VGA compatible controller: NVIDIA Corporation GA104 [GeForce RTX 3070]\n",
			want:   []GPU{{VendorNVIDIA, "NVIDIA Corporation GA104 [GeForce RTX 3070]"}},
		},
		{
			name:   "amd radeon",
			output: "03:00.0 VGA compatible controller: Advanced Micro Devices, Inc. [AMD/ATI] Navi 23\n",
			want:   []GPU{{VendorAMD, "Advanced Micro Devices, Inc. [AMD/ATI] Navi 23"}},
		},
		{
			name:   "intel integrated",
			output: "00:02.0 VGA compatible controller: Intel Corporation UHD Graphics 620\n",
			want:   []GPU{{VendorIntel, "Intel Corporation UHD Graphics 620"}},
		},
		{
			name:   "3d controller line counts",
			output: "01:00.0 3D controller: NVIDIA Corporation GP108M [GeForce MX150]\n",
			want:   []GPU{{VendorNVIDIA, "NVIDIA Corporation GP108M [GeForce MX150]"}},
		},
		{
			name: "hybrid laptop lists both adapters in order",
			output: "00:02.0 VGA compatible controller: Intel Corporation UHD Graphics 620\n" +
				"00:1f.3 Audio device: Intel Corporation Cannon Lake PCH cAVS\n" +
				"01:00.0 3D controller: NVIDIA Corporation GP108M [GeForce MX150]\n",
			want: []GPU{
				{VendorIntel, "Intel Corporation UHD Graphics 620"},
				{VendorNVIDIA, "NVIDIA Corporation GP108M [GeForce MX150]"},
			},
		},
		{
			name:   "unclassified display device keeps its name",
			output: "00:01.0 VGA compatible controller: Matrox Electronics Systems Ltd. G200eR2\n",
			want:   []GPU{{VendorUnknown, "Matrox Electronics Systems Ltd. G200eR2"}},
		},
		{
			name:   "vendor on non-display line is ignored",
			output: "00:1f.3 Audio device: Intel Corporation Cannon Lake PCH cAVS\n",
			want:   nil,
		},
		{
			name:   "empty output",
			output: "",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseAdapters(tt.output)
			if len(got) != len(tt.want) {
				t.Fatalf("parseAdapters() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("adapter %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPrimaryVendor(t *testing.T) {
	t.Parallel()

	t.Run("first classified adapter wins", func(t *testing.T) {
		t.Parallel()

		gpus := []GPU{
			{VendorUnknown, "Matrox Electronics Systems Ltd. G200eR2"},
			{VendorAMD, "Advanced Micro Devices, Inc. [AMD/ATI] Navi 23"},
			{VendorNVIDIA, "NVIDIA Corporation GA104"},
		}
		if got := PrimaryVendor(gpus); got != VendorAMD {
			t.Errorf("PrimaryVendor() = %q, want %q", got, VendorAMD)
		}
	})

	t.Run("nothing classified is unknown", func(t *testing.T) {
		t.Parallel()

		if got := PrimaryVendor(nil); got != VendorUnknown {
			t.Errorf("PrimaryVendor() = %q, want %q", got, VendorUnknown)
		}
	})
}

func TestRecommendations(t *testing.T) {
	t.Parallel()

	t.Run("known vendor and family includes a package", func(t *testing.T) {
		t.Parallel()

		recs := Recommendations(VendorNVIDIA, FamilyArch)
		if len(recs) != 2 {
			t.Fatalf("len(recs) = %d, want 2", len(recs))
		}
	})

	t.Run("unknown vendor gets generic advice only", func(t *testing.T) {
		t.Parallel()

		recs := Recommendations(VendorUnknown, FamilyDebian)
		if len(recs) != 1 {
			t.Fatalf("len(recs) = %d, want 1", len(recs))
		}
	})
}
