// SPDX-License-Identifier: MPL-2.0

// Package sysdeps installs the host packages the runtime needs, one script
// per distribution family, executed through an embedded POSIX interpreter.
package sysdeps

import (
	"context"
	"errors"
	"io"
	"strings"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"pstux/internal/capability"
	"pstux/internal/issue"
)

// scripts hold the per-family package installation commands. They are shown
// to the user before anything runs; nothing here executes silently.
var scripts = map[capability.Family]string{
	capability.FamilyDebian: `set -e
sudo dpkg --add-architecture i386
sudo apt-get update
sudo apt-get install -y wine wine32 winetricks cabextract
`,
	capability.FamilyArch: `set -e
sudo pacman -S --needed --noconfirm wine winetricks cabextract lib32-gnutls
`,
	capability.FamilyFedora: `set -e
sudo dnf install -y wine winetricks cabextract
`,
	capability.FamilySuse: `set -e
sudo zypper install -y wine winetricks cabextract
`,
}

// Script returns the installation commands for the family.
func Script(family capability.Family) (string, error) {
	script, ok := scripts[family]
	if !ok {
		return "", issue.NewErrorContext().
			WithOperation("resolve system dependencies").
			WithSuggestion("Install wine, winetricks, and cabextract with your package manager").
			Wrap(&issue.NotFoundError{Resource: "package script for " + family.String() + " family"}).
			BuildError()
	}
	return script, nil
}

// Install runs the family's script, streaming output to the given writers.
func Install(ctx context.Context, family capability.Family, stdout, stderr io.Writer) error {
	script, err := Script(family)
	if err != nil {
		return err
	}
	return runScript(ctx, script, stdout, stderr)
}

func runScript(ctx context.Context, script string, stdout, stderr io.Writer) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "sysdeps")
	if err != nil {
		return issue.WrapWithOperation(err, "parse dependency script")
	}

	runner, err := interp.New(
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return issue.WrapWithOperation(err, "create shell interpreter")
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &issue.ExternalFailureError{
				Operation: "dependency installation",
				ExitCode:  int(exitStatus),
			}
		}
		return issue.WrapWithOperation(err, "run dependency script")
	}

	return nil
}
