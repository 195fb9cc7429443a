// SPDX-License-Identifier: MPL-2.0

package sysdeps

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"pstux/internal/capability"
	"pstux/internal/issue"
)

func TestScript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		family capability.Family
		tool   string
	}{
		{capability.FamilyDebian, "apt-get"},
		{capability.FamilyArch, "pacman"},
		{capability.FamilyFedora, "dnf"},
		{capability.FamilySuse, "zypper"},
	}

	for _, tt := range tests {
		t.Run(string(tt.family), func(t *testing.T) {
			t.Parallel()

			script, err := Script(tt.family)
			if err != nil {
				t.Fatalf("Script() error = %v", err)
			}
			if !strings.Contains(script, tt.tool) {
				t.Errorf("script for %s does not use %s:\n%s", tt.family, tt.tool, script)
			}
			if !strings.Contains(script, "winetricks") {
				t.Errorf("script for %s does not install winetricks", tt.family)
			}
		})
	}

	t.Run("unknown family has no script", func(t *testing.T) {
		t.Parallel()

		_, err := Script(capability.FamilyUnknown)
		if !errors.Is(err, issue.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestRunScript(t *testing.T) {
	t.Parallel()

	t.Run("output is streamed", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer
		err := runScript(context.Background(), "echo installing\necho oops >&2\n", &stdout, &stderr)
		if err != nil {
			t.Fatalf("runScript() error = %v", err)
		}
		if stdout.String() != "installing\n" {
			t.Errorf("stdout = %q", stdout.String())
		}
		if stderr.String() != "oops\n" {
			t.Errorf("stderr = %q", stderr.String())
		}
	})

	t.Run("nonzero exit is an external failure", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		err := runScript(context.Background(), "exit 3", &out, &out)

		var ef *issue.ExternalFailureError
		if !errors.As(err, &ef) {
			t.Fatalf("error = %v, want ExternalFailureError", err)
		}
		if ef.ExitCode != 3 {
			t.Errorf("ExitCode = %d, want 3", ef.ExitCode)
		}
	})

	t.Run("syntax error is caught before running", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		if err := runScript(context.Background(), "if then fi", &out, &out); err == nil {
			t.Fatal("runScript() error = nil, want parse error")
		}
	})
}
