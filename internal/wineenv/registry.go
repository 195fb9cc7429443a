// SPDX-License-Identifier: MPL-2.0

package wineenv

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"pstux/internal/execx"
	"pstux/internal/issue"
)

// Renderer selects the Direct3D backend used inside the prefix.
type Renderer string

const (
	// RendererGL translates Direct3D to OpenGL, the safest default.
	RendererGL Renderer = "gl"
	// RendererVulkan translates Direct3D to Vulkan, faster on capable drivers.
	RendererVulkan Renderer = "vulkan"
	// RendererGDI falls back to software rendering.
	RendererGDI Renderer = "gdi"
)

// IsValid checks if the Renderer is one of the defined values.
func (r Renderer) IsValid() (bool, []error) {
	switch r {
	case RendererGL, RendererVulkan, RendererGDI:
		return true, nil
	default:
		return false, []error{&InvalidRendererError{Value: string(r)}}
	}
}

// String returns the string representation of the Renderer.
func (r Renderer) String() string { return string(r) }

// InvalidRendererError is returned by Renderer.IsValid for undefined values.
type InvalidRendererError struct {
	Value string
}

// Error implements the error interface for InvalidRendererError.
func (e *InvalidRendererError) Error() string {
	return "invalid renderer: " + e.Value + " (expected gl, vulkan, or gdi)"
}

// DPI bounds accepted by SetDPI. 96 is the Windows default, 480 is the
// highest value the display stack honors.
const (
	MinDPI = 96
	MaxDPI = 480

	// registryTimeout bounds each reg.exe call. Registry writes are quick
	// when healthy and hang only when the prefix is wedged.
	registryTimeout = 60 * time.Second
)

// Registry mutates prefix registry keys through the runtime's reg.exe.
type Registry struct {
	inv     execx.Invoker
	environ []string
	runtime string
}

// NewRegistry creates a Registry that runs reg.exe through the given runtime
// binary with the given composed environment.
func NewRegistry(inv execx.Invoker, runtimePath string, environ []string) *Registry {
	return &Registry{inv: inv, environ: environ, runtime: runtimePath}
}

// SetDPI writes the interface scaling value. Values outside [MinDPI, MaxDPI]
// are rejected before touching the prefix.
func (r *Registry) SetDPI(ctx context.Context, dpi int) error {
	if dpi < MinDPI || dpi > MaxDPI {
		return issue.NewErrorContext().
			WithOperation("set interface scaling").
			WithSuggestion(fmt.Sprintf("Choose a DPI between %d and %d (96 = 100%%, 192 = 200%%)", MinDPI, MaxDPI)).
			Wrap(fmt.Errorf("dpi %d out of range", dpi)).
			BuildError()
	}

	return r.add(ctx, `HKCU\Control Panel\Desktop`, "LogPixels", "REG_DWORD", strconv.Itoa(dpi))
}

// SetRenderer selects the Direct3D backend.
func (r *Registry) SetRenderer(ctx context.Context, renderer Renderer) error {
	if ok, errs := renderer.IsValid(); !ok {
		return issue.NewErrorContext().
			WithOperation("set renderer").
			WithSuggestion("Valid renderers are gl, vulkan, and gdi").
			Wrap(errs[0]).
			BuildError()
	}

	return r.add(ctx, `HKCU\Software\Wine\Direct3D`, "renderer", "REG_SZ", renderer.String())
}

// SetDLLOverride pins a DLL to the native or builtin implementation.
func (r *Registry) SetDLLOverride(ctx context.Context, dll, mode string) error {
	return r.add(ctx, `HKCU\Software\Wine\DllOverrides`, dll, "REG_SZ", mode)
}

func (r *Registry) add(ctx context.Context, key, value, valueType, data string) error {
	res, err := r.inv.Run(ctx, execx.Spec{
		Argv:    []string{r.runtime, "reg", "add", key, "/v", value, "/t", valueType, "/d", data, "/f"},
		Env:     r.environ,
		Timeout: registryTimeout,
	})
	if err != nil {
		return issue.WrapWithOperation(err, "write registry value "+value)
	}
	if res.TimedOut {
		return &issue.TimeoutError{Operation: "registry write " + value, Budget: registryTimeout}
	}
	if res.ExitCode != 0 {
		return &issue.ExternalFailureError{
			Operation:  "registry write " + value,
			ExitCode:   res.ExitCode,
			Diagnostic: res.ErrOutput,
		}
	}

	return nil
}
