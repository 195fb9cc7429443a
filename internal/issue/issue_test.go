// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestCatalog(t *testing.T) {
	allIds := []Id{
		RuntimeNotFoundId,
		PrefixBootFailedId,
		IncompatibleInstallerId,
		InstallerFailedId,
		EnvironmentBusyId,
		PartialCleanupId,
		ProfileInvalidId,
		NoDisplayAdapterId,
	}

	t.Run("every id is documented", func(t *testing.T) {
		for _, id := range allIds {
			is := Get(id)
			if is == nil {
				t.Errorf("Get(%d) = nil", id)
				continue
			}
			if is.Id() != id {
				t.Errorf("Get(%d).Id() = %d", id, is.Id())
			}
			if is.MarkdownMsg() == "" {
				t.Errorf("issue %d has no guidance text", id)
			}
		}
	})

	t.Run("values covers the catalog", func(t *testing.T) {
		if got := len(Values()); got != len(allIds) {
			t.Errorf("len(Values()) = %d, want %d", got, len(allIds))
		}
	})

	t.Run("ext links are cloned", func(t *testing.T) {
		is := Get(RuntimeNotFoundId)
		links := is.ExtLinks()
		if len(links) == 0 {
			t.Skip("no links on this issue")
		}
		links[0] = "mutated"
		if is.ExtLinks()[0] == "mutated" {
			t.Error("ExtLinks() exposed internal state")
		}
	})
}

func TestRender(t *testing.T) {
	orig := render
	t.Cleanup(func() { render = orig })

	var captured string
	render = func(in, _ string) (string, error) {
		captured = in
		return in, nil
	}

	out, err := Get(RuntimeNotFoundId).Render("dark")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "pstux deps") {
		t.Errorf("rendered text misses the remedy command:\n%s", out)
	}
	if !strings.Contains(captured, "See also:") {
		t.Error("ext links were not appended")
	}
}

func TestForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Id
	}{
		{"not found", &NotFoundError{Resource: "wine binary"}, RuntimeNotFoundId},
		{"incompatible", &IncompatibleArtifactError{Path: "a.exe", Bitness: "32-bit"}, IncompatibleInstallerId},
		{"external failure", &ExternalFailureError{Operation: "installer", ExitCode: 1}, InstallerFailedId},
		{"busy", &BusyError{ActiveKind: "setup"}, EnvironmentBusyId},
		{"partial cleanup", &PartialCleanupError{Remaining: []string{"wine"}}, PartialCleanupId},
		{"config", &ConfigValidationError{Path: "p.cue"}, ProfileInvalidId},
		{"wrapped keeps its class", fmt.Errorf("outer: %w", &BusyError{}), EnvironmentBusyId},
		{"plain error has no class", errors.New("boom"), 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ForError(tt.err); got != tt.want {
				t.Errorf("ForError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTaxonomySentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		sentinel error
		text     string
	}{
		{"not found", &NotFoundError{Resource: "wineserver"}, ErrNotFound, "wineserver not found"},
		{"timeout", &TimeoutError{Operation: "bootstrap", Budget: 2 * time.Minute}, ErrTimeout, "bootstrap timed out after 2m0s"},
		{"incompatible", &IncompatibleArtifactError{Path: "s.exe", Bitness: "32-bit"}, ErrIncompatibleArtifact, "no 32-bit support"},
		{"external", &ExternalFailureError{Operation: "installer", ExitCode: 53}, ErrExternalFailure, "exited with code 53"},
		{"busy", &BusyError{ActiveKind: "setup"}, ErrBusy, "setup task is already running"},
		{"partial", &PartialCleanupError{Remaining: []string{"wine", "wineserver"}}, ErrPartialCleanup, "wine, wineserver"},
		{"config", &ConfigValidationError{Path: "c.cue", Cause: errors.New("bad")}, ErrConfig, "c.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", tt.err)
			}
			if !strings.Contains(tt.err.Error(), tt.text) {
				t.Errorf("Error() = %q, want substring %q", tt.err.Error(), tt.text)
			}
		})
	}
}

func TestActionableError(t *testing.T) {
	t.Parallel()

	t.Run("builder assembles the full error", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("permission denied")
		err := NewErrorContext().
			WithOperation("initialize wine prefix").
			WithResource("/home/u/.pstux/prefix").
			WithSuggestion("Check directory permissions").
			WithSuggestion("Run 'pstux reap' first").
			Wrap(cause).
			BuildError()

		var ae *ActionableError
		if !errors.As(err, &ae) {
			t.Fatalf("BuildError() returned %T", err)
		}
		if !errors.Is(err, cause) {
			t.Error("cause not reachable through Unwrap")
		}
		if !ae.HasSuggestions() {
			t.Error("HasSuggestions() = false")
		}

		msg := ae.Error()
		for _, want := range []string{"failed to initialize wine prefix", "/home/u/.pstux/prefix", "permission denied"} {
			if !strings.Contains(msg, want) {
				t.Errorf("Error() = %q, missing %q", msg, want)
			}
		}
	})

	t.Run("format verbose includes the chain", func(t *testing.T) {
		t.Parallel()

		inner := errors.New("inner")
		ae := NewErrorContext().
			WithOperation("run installer").
			Wrap(fmt.Errorf("outer: %w", inner)).
			Build()

		out := ae.Format(true)
		if !strings.Contains(out, "Error chain:") || !strings.Contains(out, "inner") {
			t.Errorf("Format(true) = %q", out)
		}

		plain := ae.Format(false)
		if strings.Contains(plain, "Error chain:") {
			t.Errorf("Format(false) leaked the chain: %q", plain)
		}
	})

	t.Run("build without operation yields nil", func(t *testing.T) {
		t.Parallel()

		if err := NewErrorContext().WithResource("x").BuildError(); err != nil {
			t.Errorf("BuildError() = %v, want nil", err)
		}
	})

	t.Run("wrap with operation passes nil through", func(t *testing.T) {
		t.Parallel()

		if got := WrapWithOperation(nil, "anything"); got != nil {
			t.Errorf("WrapWithOperation(nil) = %v", got)
		}
	})
}
