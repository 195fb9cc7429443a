// SPDX-License-Identifier: MPL-2.0

// Package wineenv composes the process environment for compatibility runtime
// invocations and owns the on-disk layout of an environment root.
package wineenv

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pstux/internal/capability"
)

const (
	// DefaultRootName is the directory under the user's home that holds all
	// managed state.
	DefaultRootName = ".pstux"

	// prefixName is the wine prefix directory inside the root.
	prefixName = "prefix"

	// stateFileName is the environment snapshot written after mutations.
	stateFileName = ".pstux-state.toml"
)

type (
	// Environment is the on-disk layout of one managed environment.
	Environment struct {
		// Root is the top-level managed directory.
		Root string
	}

	// Configurator builds invocation environments. Getenv and Environ are
	// injectable for tests.
	Configurator struct {
		Getenv  func(key string) string
		Environ func() []string
	}
)

// NewEnvironment creates an Environment rooted at root.
func NewEnvironment(root string) *Environment {
	return &Environment{Root: root}
}

// DefaultEnvironment resolves the per-user environment root.
func DefaultEnvironment() (*Environment, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return NewEnvironment(filepath.Join(home, DefaultRootName)), nil
}

// Prefix is the wine prefix directory.
func (e *Environment) Prefix() string {
	return filepath.Join(e.Root, prefixName)
}

// StatePath is the TOML snapshot file inside the prefix.
func (e *Environment) StatePath() string {
	return filepath.Join(e.Prefix(), stateFileName)
}

// ProgramFilesDirs returns the candidate Program Files directories inside
// the prefix, 64-bit first.
func (e *Environment) ProgramFilesDirs() []string {
	driveC := filepath.Join(e.Prefix(), "drive_c")
	return []string{
		filepath.Join(driveC, "Program Files"),
		filepath.Join(driveC, "Program Files (x86)"),
	}
}

// Initialized reports whether the prefix has been bootstrapped. The marker
// is the system registry file wineboot writes.
func (e *Environment) Initialized() bool {
	_, err := os.Stat(filepath.Join(e.Prefix(), "system.reg"))
	return err == nil
}

// NewConfigurator creates a Configurator wired to the real process
// environment.
func NewConfigurator() *Configurator {
	return &Configurator{
		Getenv:  os.Getenv,
		Environ: os.Environ,
	}
}

// Compose builds the full environment for a runtime invocation: the parent
// environment with the prefix and runtime variables layered on top. When the
// capabilities carry a bundled runtime, the bundle's library and binary
// directories are prepended so the bundled build resolves its own
// dependencies ahead of the host's.
func (c *Configurator) Compose(env *Environment, caps *capability.Capabilities, bundleDir string) []string {
	overrides := map[string]string{
		"WINEPREFIX": env.Prefix(),
		// Debug channels flood stderr during installs and hide the lines
		// worth scanning for hints.
		"WINEDEBUG": "-all",
	}

	if caps != nil {
		if caps.RuntimePath != "" {
			overrides["WINE"] = caps.RuntimePath
		}
		if caps.ServerPath != "" {
			overrides["WINESERVER"] = caps.ServerPath
		}
	}

	if bundleDir != "" {
		overrides["WINEDLLPATH"] = filepath.Join(bundleDir, "usr", "lib", "wine")
		overrides["PATH"] = filepath.Join(bundleDir, "usr", "bin") + string(os.PathListSeparator) + c.Getenv("PATH")
		overrides["LD_LIBRARY_PATH"] = prependPath(
			filepath.Join(bundleDir, "usr", "lib"),
			c.Getenv("LD_LIBRARY_PATH"),
		)
	}

	return mergeEnviron(c.Environ(), overrides)
}

func prependPath(head, tail string) string {
	if tail == "" {
		return head
	}
	return head + string(os.PathListSeparator) + tail
}

// mergeEnviron replaces or appends overrides in a copy of base, preserving
// the order of untouched entries.
func mergeEnviron(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))

	for _, kv := range base {
		key, _, ok := strings.Cut(kv, "=")
		if !ok {
			out = append(out, kv)
			continue
		}
		if val, override := overrides[key]; override {
			out = append(out, key+"="+val)
			seen[key] = true
			continue
		}
		out = append(out, kv)
	}

	missing := make([]string, 0, len(overrides))
	for key := range overrides {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	for _, key := range missing {
		out = append(out, key+"="+overrides[key])
	}

	return out
}
