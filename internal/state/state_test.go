// SPDX-License-Identifier: MPL-2.0

package state

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadSave(t *testing.T) {
	t.Parallel()

	t.Run("missing file loads as empty snapshot", func(t *testing.T) {
		t.Parallel()

		snap, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if snap.SetupDone || len(snap.Components) != 0 {
			t.Errorf("empty snapshot expected, got %+v", snap)
		}
		if snap.Schema != SchemaVersion {
			t.Errorf("Schema = %d, want %d", snap.Schema, SchemaVersion)
		}
	})

	t.Run("round trip preserves fields", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "deep", "state.toml")
		in := &Snapshot{
			SetupDone:    true,
			Components:   []string{"vcrun2019", "corefonts"},
			Profile:      "cc2021",
			InstalledExe: "/home/u/.pstux/prefix/drive_c/Program Files/Adobe/Photoshop.exe",
			Renderer:     "vulkan",
			DPI:          192,
		}

		if err := Save(path, in); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		out, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if out.UpdatedAt.IsZero() {
			t.Error("UpdatedAt was not stamped")
		}
		out.UpdatedAt = in.UpdatedAt
		if !reflect.DeepEqual(in, out) {
			t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
		}
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "state.toml")
		if err := os.WriteFile(path, []byte("= not toml ="), 0o644); err != nil {
			t.Fatal(err)
		}

		if _, err := Load(path); err == nil {
			t.Fatal("Load() error = nil, want parse error")
		}
	})

	t.Run("save replaces rather than appends", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "state.toml")
		if err := Save(path, &Snapshot{SetupDone: true}); err != nil {
			t.Fatal(err)
		}
		if err := Save(path, &Snapshot{SetupDone: false, DPI: 96}); err != nil {
			t.Fatal(err)
		}

		out, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if out.SetupDone || out.DPI != 96 {
			t.Errorf("got %+v, want the second snapshot only", out)
		}
	})
}
