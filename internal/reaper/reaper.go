// SPDX-License-Identifier: MPL-2.0

// Package reaper force-terminates every process the runtime may have left
// behind and clears their on-disk residue. Reaping is idempotent and never
// fails: a clean environment reaps to an empty report.
package reaper

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"pstux/internal/execx"
)

// roster is every process name the runtime spawns, directly or through an
// install. Matching is case-insensitive against /proc comm values.
var roster = []string{
	"wine",
	"wine64",
	"wine-preloader",
	"wine64-preloader",
	"wineserver",
	"wineboot",
	"winetricks",
	"winedevice.exe",
	"winedbg.exe",
	"msiexec.exe",
	"services.exe",
	"plugplay.exe",
	"svchost.exe",
	"explorer.exe",
	"rpcss.exe",
	"mscorsvw.exe",
	"Photoshop.exe",
	"CCXProcess.exe",
	"CCLibrary.exe",
}

// residualRoster is the subset whose survival means cleanup genuinely
// failed rather than a stale auxiliary process.
var residualRoster = []string{"wine", "wine64", "wineserver"}

type (
	// Report lists what one reap actually did.
	Report struct {
		// Killed holds "name:pid" for every terminated process.
		Killed []string

		// Removed holds every lock file and runtime directory deleted.
		Removed []string
	}

	// Reaper scans for runtime processes and residue. All roots are
	// injectable so tests can model arbitrary hosts.
	Reaper struct {
		// ProcRoot is the proc filesystem mount, normally /proc.
		ProcRoot string

		// TmpDir is where the runtime keeps its server sockets, normally
		// /tmp.
		TmpDir string

		// PrefixDir is the wine prefix, scanned for lock files. Empty skips
		// the prefix sweep.
		PrefixDir string

		// ServerPath is the wineserver binary asked to shut its session
		// down before the kill sweep. Empty skips the shutdown phases.
		ServerPath string

		// Environ is passed to the wineserver shutdown so it targets the
		// right prefix.
		Environ []string

		// Inv runs the wineserver shutdown. Nil skips the shutdown phases.
		Inv execx.Invoker

		// Kill delivers the signal. Defaults to unix.Kill.
		Kill func(pid int, sig unix.Signal) error
	}
)

// shutdownTimeout bounds each wineserver shutdown phase. The phases are best
// effort, the kill sweep follows regardless.
const shutdownTimeout = 5 * time.Second

// New creates a Reaper wired to the real host.
func New(prefixDir string) *Reaper {
	return &Reaper{
		ProcRoot:  "/proc",
		TmpDir:    os.TempDir(),
		PrefixDir: prefixDir,
		Kill:      unix.Kill,
	}
}

// Reap asks the server to shut down, kills every surviving roster process,
// and removes runtime residue. It never returns an error: a process that
// vanished between scan and kill, or a file already gone, is simply not
// reported.
func (r *Reaper) Reap() *Report {
	rep := &Report{}

	r.shutdownServer()

	for _, proc := range r.scan(roster) {
		if err := r.kill(proc.pid); err != nil {
			continue
		}
		rep.Killed = append(rep.Killed, proc.name+":"+strconv.Itoa(proc.pid))
	}

	rep.Removed = append(rep.Removed, r.removeServerDirs()...)
	rep.Removed = append(rep.Removed, r.removeLockFiles()...)

	return rep
}

// Residual re-scans for the core runtime processes. A non-empty result
// after a reap means the kill did not stick and the caller should warn and
// suggest a retry.
func (r *Reaper) Residual() []string {
	var names []string
	seen := map[string]bool{}
	for _, proc := range r.scan(residualRoster) {
		if !seen[proc.name] {
			seen[proc.name] = true
			names = append(names, proc.name)
		}
	}
	return names
}

// shutdownServer asks wineserver to end the session, first politely and then
// forcefully. Outcomes are ignored: the kill sweep catches whatever remains.
func (r *Reaper) shutdownServer() {
	if r.ServerPath == "" || r.Inv == nil {
		return
	}

	for _, flag := range []string{"-k", "-k9"} {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		r.Inv.Run(ctx, execx.Spec{
			Argv:    []string{r.ServerPath, flag},
			Env:     r.Environ,
			Timeout: shutdownTimeout,
		})
		cancel()
	}
}

type process struct {
	pid  int
	name string
}

// scan walks the proc filesystem and matches comm values against names.
// comm is truncated to 15 bytes by the kernel, so the comparison truncates
// the roster entry the same way.
func (r *Reaper) scan(names []string) []process {
	entries, err := os.ReadDir(r.ProcRoot)
	if err != nil {
		return nil
	}

	self := os.Getpid()

	var found []process
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid == self {
			continue
		}

		comm, err := os.ReadFile(filepath.Join(r.ProcRoot, entry.Name(), "comm"))
		if err != nil {
			continue
		}
		got := strings.ToLower(strings.TrimSpace(string(comm)))

		for _, name := range names {
			want := strings.ToLower(name)
			if len(want) > 15 {
				want = want[:15]
			}
			if got == want {
				found = append(found, process{pid: pid, name: name})
				break
			}
		}
	}

	return found
}

func (r *Reaper) kill(pid int) error {
	kill := r.Kill
	if kill == nil {
		kill = unix.Kill
	}
	return kill(pid, unix.SIGKILL)
}

// removeServerDirs deletes the runtime's per-user socket directories,
// /tmp/.wine-* on a real host.
func (r *Reaper) removeServerDirs() []string {
	matches, err := filepath.Glob(filepath.Join(r.TmpDir, ".wine-*"))
	if err != nil {
		return nil
	}

	var removed []string
	for _, dir := range matches {
		if os.RemoveAll(dir) == nil {
			removed = append(removed, dir)
		}
	}
	return removed
}

// removeLockFiles deletes stale lock files inside the prefix.
func (r *Reaper) removeLockFiles() []string {
	if r.PrefixDir == "" {
		return nil
	}

	var removed []string
	for _, pattern := range []string{"*.lck", ".wineserver"} {
		matches, err := filepath.Glob(filepath.Join(r.PrefixDir, pattern))
		if err != nil {
			continue
		}
		for _, path := range matches {
			if os.Remove(path) == nil {
				removed = append(removed, path)
			}
		}
	}
	return removed
}
