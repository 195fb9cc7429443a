// SPDX-License-Identifier: MPL-2.0

// Package capability inspects the host for the compatibility runtime, the
// distribution family, and the graphics adapter. Probes are snapshots: every
// call re-reads the host rather than caching, so a wine install performed
// mid-session is picked up by the next probe.
package capability

import (
	"os"
	"os/exec"
	"path/filepath"
)

type (
	// Capabilities is one probe snapshot of the host.
	Capabilities struct {
		// RuntimePath is the resolved wine binary, empty when absent.
		RuntimePath string

		// ServerPath is the resolved wineserver binary, empty when absent.
		ServerPath string

		// RuntimePresent is true when RuntimePath resolved.
		RuntimePresent bool

		// Supports32Bit is true when a 32-bit loader is available next to
		// the runtime. A wine64-only build cannot run x86 installers.
		Supports32Bit bool

		// Family is the detected distribution family.
		Family Family
	}

	// Prober resolves host capabilities. The lookup functions are injectable
	// so tests can model arbitrary hosts.
	Prober struct {
		// Getenv reads an environment variable. Defaults to os.Getenv.
		Getenv func(key string) string

		// LookPath resolves a binary on PATH. Defaults to exec.LookPath.
		LookPath func(file string) (string, error)

		// Stat checks file existence. Defaults to os.Stat.
		Stat func(name string) (os.FileInfo, error)

		// OSReleasePath is the os-release file consulted for the family.
		// Defaults to /etc/os-release.
		OSReleasePath string
	}
)

// NewProber creates a Prober wired to the real host.
func NewProber() *Prober {
	return &Prober{
		Getenv:        os.Getenv,
		LookPath:      exec.LookPath,
		Stat:          os.Stat,
		OSReleasePath: "/etc/os-release",
	}
}

// Snapshot probes the host and returns a fresh capability set. It never
// fails: absent components are reported as absent, not as errors.
func (p *Prober) Snapshot() *Capabilities {
	caps := &Capabilities{
		RuntimePath: p.resolveRuntime(),
		ServerPath:  p.resolveServer(),
		Family:      p.DetectFamily(),
	}
	caps.RuntimePresent = caps.RuntimePath != ""
	caps.Supports32Bit = caps.RuntimePresent && p.has32BitLoader(caps.RuntimePath)

	return caps
}

// BundleDir returns the bundled runtime root when running from a packaged
// application image, empty otherwise.
func (p *Prober) BundleDir() string {
	return p.Getenv("APPDIR")
}

// resolveRuntime finds the wine binary. Precedence: explicit WINE override,
// then the bundled copy, then PATH (wine before wine64).
func (p *Prober) resolveRuntime() string {
	if override := p.Getenv("WINE"); override != "" {
		if p.exists(override) {
			return override
		}
	}

	if bundle := p.BundleDir(); bundle != "" {
		bundled := filepath.Join(bundle, "usr", "bin", "wine")
		if p.exists(bundled) {
			return bundled
		}
	}

	for _, name := range []string{"wine", "wine64"} {
		if path, err := p.LookPath(name); err == nil {
			return path
		}
	}

	return ""
}

// resolveServer finds wineserver with the same precedence as the runtime.
func (p *Prober) resolveServer() string {
	if override := p.Getenv("WINESERVER"); override != "" {
		if p.exists(override) {
			return override
		}
	}

	if bundle := p.BundleDir(); bundle != "" {
		bundled := filepath.Join(bundle, "usr", "bin", "wineserver")
		if p.exists(bundled) {
			return bundled
		}
	}

	if path, err := p.LookPath("wineserver"); err == nil {
		return path
	}

	return ""
}

// loader32Subdirs are the architecture-specific library directories whose
// presence marks a build able to run x86 binaries. i386-unix ships with
// classic multi-arch builds, i386-windows with WoW64 builds that only carry
// target-side libraries.
var loader32Subdirs = []string{"i386-unix", "i386-windows"}

// has32BitLoader probes the library trees of the resolved runtime. Both the
// bundle root and the runtime's own install root are checked, under the
// library directory layouts wine packages actually use.
func (p *Prober) has32BitLoader(runtimePath string) bool {
	var roots []string
	if bundle := p.BundleDir(); bundle != "" {
		roots = append(roots,
			filepath.Join(bundle, "usr", "lib"),
			filepath.Join(bundle, "usr", "lib32"),
			filepath.Join(bundle, "usr", "lib", "i386-linux-gnu"),
		)
	}

	binDir := filepath.Dir(runtimePath)
	roots = append(roots,
		filepath.Join(binDir, "..", "lib"),
		filepath.Join(binDir, "..", "lib32"),
		filepath.Join(binDir, "..", "lib", "i386-linux-gnu"),
	)

	for _, root := range roots {
		for _, sub := range loader32Subdirs {
			if p.dirExists(filepath.Join(root, "wine", sub)) {
				return true
			}
		}
	}

	return false
}

// exists reports whether path is an executable file. A binary that cannot
// run is as good as absent, so resolution falls through to the next
// candidate.
func (p *Prober) exists(path string) bool {
	info, err := p.Stat(path)
	return err == nil && !info.IsDir() && info.Mode()&0o111 != 0
}

func (p *Prober) dirExists(path string) bool {
	info, err := p.Stat(path)
	return err == nil && info.IsDir()
}
