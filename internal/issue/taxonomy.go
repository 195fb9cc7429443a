// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is the sentinel error wrapped by NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrTimeout is the sentinel error wrapped by TimeoutError.
	ErrTimeout = errors.New("operation timed out")
	// ErrIncompatibleArtifact is the sentinel error wrapped by IncompatibleArtifactError.
	ErrIncompatibleArtifact = errors.New("incompatible artifact")
	// ErrExternalFailure is the sentinel error wrapped by ExternalFailureError.
	ErrExternalFailure = errors.New("external process failed")
	// ErrBusy is the sentinel error wrapped by BusyError.
	ErrBusy = errors.New("another task is already running")
	// ErrPartialCleanup is the sentinel error wrapped by PartialCleanupError.
	ErrPartialCleanup = errors.New("partial cleanup")
	// ErrConfig is the sentinel error wrapped by ConfigValidationError.
	ErrConfig = errors.New("invalid configuration")
)

type (
	// NotFoundError is returned when a required binary or file could not be
	// resolved (wine binary, wineserver, installer executable).
	NotFoundError struct {
		// Resource names what was being looked for (e.g. "wine binary").
		Resource string
	}

	// TimeoutError is returned when a bounded external call exceeded its budget.
	TimeoutError struct {
		// Operation describes the call that timed out.
		Operation string
		// Budget is the timeout that was exceeded.
		Budget time.Duration
	}

	// IncompatibleArtifactError is returned when an installer executable cannot
	// run against the current capability set (32-bit artifact, 64-bit-only wine).
	IncompatibleArtifactError struct {
		// Path is the artifact that was rejected.
		Path string
		// Bitness is the detected instruction width of the artifact.
		Bitness string
	}

	// ExternalFailureError is returned when an external process exited nonzero.
	// The captured diagnostic text is preserved for hint scanning and display.
	ExternalFailureError struct {
		// Operation describes what was being run.
		Operation string
		// ExitCode is the process exit status.
		ExitCode int
		// Diagnostic holds captured stderr (possibly truncated).
		Diagnostic string
	}

	// BusyError is returned when a task is started while another task is
	// already running on the same environment.
	BusyError struct {
		// ActiveKind names the kind of the task that is currently running.
		ActiveKind string
	}

	// PartialCleanupError reports residual processes after a reap or reset.
	// It is a warning-grade condition: callers log it and advise a retry,
	// they never treat it as fatal.
	PartialCleanupError struct {
		// Remaining lists the roster names still observed after cleanup.
		Remaining []string
	}

	// ConfigValidationError is returned when the component profile document or
	// the global configuration is missing or malformed.
	ConfigValidationError struct {
		// Path is the configuration file involved.
		Path string
		// Cause is the underlying parse/validation error.
		Cause error
	}
)

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// Unwrap returns ErrNotFound for errors.Is() compatibility.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Error implements the error interface for TimeoutError.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Operation, e.Budget)
}

// Unwrap returns ErrTimeout for errors.Is() compatibility.
func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// Error implements the error interface for IncompatibleArtifactError.
func (e *IncompatibleArtifactError) Error() string {
	return fmt.Sprintf("installer %s is %s but the wine build has no 32-bit support", e.Path, e.Bitness)
}

// Unwrap returns ErrIncompatibleArtifact for errors.Is() compatibility.
func (e *IncompatibleArtifactError) Unwrap() error { return ErrIncompatibleArtifact }

// Error implements the error interface for ExternalFailureError.
func (e *ExternalFailureError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Operation, e.ExitCode)
}

// Unwrap returns ErrExternalFailure for errors.Is() compatibility.
func (e *ExternalFailureError) Unwrap() error { return ErrExternalFailure }

// Error implements the error interface for BusyError.
func (e *BusyError) Error() string {
	if e.ActiveKind == "" {
		return "a task is already running"
	}
	return fmt.Sprintf("a %s task is already running", e.ActiveKind)
}

// Unwrap returns ErrBusy for errors.Is() compatibility.
func (e *BusyError) Unwrap() error { return ErrBusy }

// Error implements the error interface for PartialCleanupError.
func (e *PartialCleanupError) Error() string {
	return fmt.Sprintf("some processes are still running: %s", strings.Join(e.Remaining, ", "))
}

// Unwrap returns ErrPartialCleanup for errors.Is() compatibility.
func (e *PartialCleanupError) Unwrap() error { return ErrPartialCleanup }

// Error implements the error interface for ConfigValidationError.
func (e *ConfigValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid configuration %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("invalid configuration %s", e.Path)
}

// Unwrap returns ErrConfig for errors.Is() compatibility. The Cause stays
// reachable through errors.As on the struct itself.
func (e *ConfigValidationError) Unwrap() error { return ErrConfig }
