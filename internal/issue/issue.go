// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Id identifies one documented failure class.
type Id int

const (
	RuntimeNotFoundId Id = iota + 1
	PrefixBootFailedId
	IncompatibleInstallerId
	InstallerFailedId
	EnvironmentBusyId
	PartialCleanupId
	ProfileInvalidId
	NoDisplayAdapterId
)

// MarkdownMsg is rendered guidance text.
type MarkdownMsg string

// HttpLink is a documentation or external reference.
type HttpLink string

// Issue bundles the rendered guidance shown for a documented failure class.
type Issue struct {
	id       Id
	mdMsg    MarkdownMsg
	extLinks []HttpLink
}

// Id returns the issue identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw markdown text.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// ExtLinks returns external links that might help the user.
func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the guidance with the given glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.extLinks {
			extraMd += "- " + string(link) + "\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	runtimeNotFoundIssue = &Issue{
		id: RuntimeNotFoundId,
		mdMsg: `
# Wine is not installed!

No wine binary was found in the environment override, the bundle, or PATH.

## Things you can try:
- Show the install commands for your distribution:
~~~
$ pstux deps
~~~

- Run them directly:
~~~
$ pstux deps --apply
~~~

- Or point at an existing build:
~~~
$ WINE=/opt/wine/bin/wine pstux probe
~~~`,
		extLinks: []HttpLink{"https://wiki.winehq.org/Download"},
	}

	prefixBootFailedIssue = &Issue{
		id: PrefixBootFailedId,
		mdMsg: `
# Prefix bootstrap failed!

wineboot could not initialize the prefix.

## Common causes:
- A previous run left stale processes or lock files behind
- The prefix directory is not writable
- The wine build is incomplete

## Things you can try:
- Clear stale processes and locks, then retry:
~~~
$ pstux reap
$ pstux setup
~~~

- Start from scratch:
~~~
$ pstux reset --full
$ pstux setup
~~~`,
	}

	incompatibleInstallerIssue = &Issue{
		id: IncompatibleInstallerId,
		mdMsg: `
# Installer architecture mismatch!

The installer is a 32-bit executable but the wine build on this host only
runs 64-bit programs.

## Things you can try:
- Install a wine build with 32-bit support (the ` + "`wine`" + ` package, not ` + "`wine64`" + ` alone):
~~~
$ pstux deps
~~~

- Or use the 64-bit installer of the application if one exists
- Verify what pstux detected:
~~~
$ pstux probe
~~~`,
	}

	installerFailedIssue = &Issue{
		id: InstallerFailedId,
		mdMsg: `
# The installer exited with an error!

The application's setup program ran but did not finish cleanly.

## Things you can try:
- Read the suggestions above, they are scanned from the installer's own output
- Re-run setup to make sure all components are present:
~~~
$ pstux setup
~~~

- Retry the install with a clean prefix:
~~~
$ pstux reset --full
$ pstux setup
$ pstux install <setup.exe>
~~~`,
	}

	environmentBusyIssue = &Issue{
		id: EnvironmentBusyId,
		mdMsg: `
# The environment is busy!

Another task is already running against this environment. Tasks never queue;
the new one is rejected immediately.

## Things you can try:
- Wait for the running task to finish
- Cancel it with Ctrl+C in its terminal
- If a task died without cleaning up:
~~~
$ pstux reap
~~~`,
	}

	partialCleanupIssue = &Issue{
		id: PartialCleanupId,
		mdMsg: `
# Some processes survived cleanup!

Core runtime processes were still alive after the reap. The reset itself
completed; only the processes linger.

## Things you can try:
- Reap again, survivors usually die on the second pass:
~~~
$ pstux reap
~~~

- Check what is still running:
~~~
$ ps ax | grep -i wine
~~~`,
	}

	profileInvalidIssue = &Issue{
		id: ProfileInvalidId,
		mdMsg: `
# Invalid profile catalog!

The profile document could not be validated.

## Common issues:
- Invalid CUE syntax (missing quotes, braces)
- A renderer outside gl, vulkan, gdi
- A dpi outside 96..480
- Profile identifiers must be lowercase alphanumerics

## Example of a valid catalog:
~~~cue
profiles: myrelease: {
	name: "My Release"
	components: ["vcrun2019", "corefonts"]
	renderer: "gl"
	dpi: 144
}
~~~`,
	}

	noDisplayAdapterIssue = &Issue{
		id: NoDisplayAdapterId,
		mdMsg: `
# No display adapter detected!

The graphics probe could not classify an adapter, so the application will
fall back to software rendering.

## Things you can try:
- Check that lspci is installed and lists a VGA controller
- Install your distribution's Vulkan-capable driver
- Force the safest backend:
~~~
$ pstux renderer gl
~~~`,
	}

	issues = map[Id]*Issue{
		runtimeNotFoundIssue.Id():       runtimeNotFoundIssue,
		prefixBootFailedIssue.Id():      prefixBootFailedIssue,
		incompatibleInstallerIssue.Id(): incompatibleInstallerIssue,
		installerFailedIssue.Id():       installerFailedIssue,
		environmentBusyIssue.Id():       environmentBusyIssue,
		partialCleanupIssue.Id():        partialCleanupIssue,
		profileInvalidIssue.Id():        profileInvalidIssue,
		noDisplayAdapterIssue.Id():      noDisplayAdapterIssue,
	}
)

// Values returns all documented issues.
func Values() []*Issue {
	return maps.Values(issues)
}

// Get returns the issue for id, nil when undocumented.
func Get(id Id) *Issue {
	return issues[id]
}

// ForError maps an error to its documented failure class, 0 when the error
// has no catalog entry.
func ForError(err error) Id {
	if err == nil {
		return 0
	}

	for _, probe := range []struct {
		sentinel error
		id       Id
	}{
		{ErrNotFound, RuntimeNotFoundId},
		{ErrIncompatibleArtifact, IncompatibleInstallerId},
		{ErrExternalFailure, InstallerFailedId},
		{ErrBusy, EnvironmentBusyId},
		{ErrPartialCleanup, PartialCleanupId},
		{ErrConfig, ProfileInvalidId},
	} {
		if errors.Is(err, probe.sentinel) {
			return probe.id
		}
	}
	return 0
}
