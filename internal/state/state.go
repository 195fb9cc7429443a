// SPDX-License-Identifier: MPL-2.0

// Package state persists a small snapshot of what has been done to an
// environment. The snapshot lives inside the prefix so a full reset removes
// it together with everything it describes.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// SchemaVersion is bumped when the snapshot layout changes incompatibly.
const SchemaVersion = 1

// Snapshot records the durable outcome of setup and install tasks.
type Snapshot struct {
	// Schema is the snapshot layout version.
	Schema int `toml:"schema"`

	// UpdatedAt is when the snapshot was last written.
	UpdatedAt time.Time `toml:"updated_at"`

	// SetupDone is true once a setup task has succeeded.
	SetupDone bool `toml:"setup_done"`

	// Components lists the runtime components installed during setup.
	Components []string `toml:"components"`

	// Profile is the identifier of the application profile in use.
	Profile string `toml:"profile,omitempty"`

	// InstalledExe is the application executable discovered after a
	// successful install, relative paths are never stored.
	InstalledExe string `toml:"installed_exe,omitempty"`

	// Renderer is the Direct3D backend last written to the registry.
	Renderer string `toml:"renderer,omitempty"`

	// DPI is the interface scaling last written to the registry, zero when
	// never set.
	DPI int `toml:"dpi,omitempty"`
}

// Load reads the snapshot at path. A missing file yields an empty snapshot
// and no error, so callers treat first run and reset identically.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Snapshot{Schema: SchemaVersion}, nil
		}
		return nil, fmt.Errorf("read state snapshot: %w", err)
	}

	var snap Snapshot
	if err := toml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse state snapshot %s: %w", path, err)
	}

	return &snap, nil
}

// Save writes the snapshot atomically: temp file in the same directory, then
// rename. The parent directory is created if needed.
func Save(path string, snap *Snapshot) error {
	snap.Schema = SchemaVersion
	snap.UpdatedAt = time.Now().UTC()

	data, err := toml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode state snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state snapshot: %w", err)
	}

	return nil
}
