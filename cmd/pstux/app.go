// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"time"

	"pstux/internal/capability"
	"pstux/internal/config"
	"pstux/internal/execx"
	"pstux/internal/issue"
	"pstux/internal/profile"
	"pstux/internal/reaper"
	"pstux/internal/wineenv"
)

// app wires the shared dependencies every command handler needs. It is the
// composition root for the CLI layer.
type app struct {
	cfg     *config.Config
	env     *wineenv.Environment
	prober  *capability.Prober
	catalog *profile.Catalog
	inv     execx.Invoker
}

// newApp builds the production wiring from configuration.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var env *wineenv.Environment
	if cfg.Root != "" {
		env = wineenv.NewEnvironment(cfg.Root)
	} else {
		env, err = wineenv.DefaultEnvironment()
		if err != nil {
			return nil, err
		}
	}

	var catalog *profile.Catalog
	if cfg.ProfilesPath != "" {
		catalog, err = profile.LoadFile(cfg.ProfilesPath)
	} else {
		catalog, err = profile.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		env:     env,
		prober:  capability.NewProber(),
		catalog: catalog,
		inv:     execx.NewRealInvoker(),
	}, nil
}

// snapshot probes the host and composes the invocation environment in one
// go, the preamble of every runtime-touching command.
func (a *app) snapshot() (*capability.Capabilities, []string) {
	caps := a.prober.Snapshot()
	environ := wineenv.NewConfigurator().Compose(a.env, caps, a.prober.BundleDir())
	return caps, environ
}

// reaper builds the process reaper for this environment, with the server
// shutdown phases wired when wineserver resolved.
func (a *app) reaper() *reaper.Reaper {
	caps, environ := a.snapshot()

	r := reaper.New(a.env.Prefix())
	r.ServerPath = caps.ServerPath
	r.Environ = environ
	r.Inv = a.inv
	return r
}

// registry builds a registry writer against the detected runtime.
func (a *app) registry() (*wineenv.Registry, error) {
	caps, environ := a.snapshot()
	if !caps.RuntimePresent {
		return nil, issue.NewErrorContext().
			WithOperation("locate runtime").
			WithResource("wine").
			WithSuggestion("Install wine with: pstux deps --apply").
			Wrap(&issue.NotFoundError{Resource: "wine runtime"}).
			BuildError()
	}
	return wineenv.NewRegistry(a.inv, caps.RuntimePath, environ), nil
}

// cacheDir is the component download cache swept by resets.
func (a *app) cacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "winetricks")
}

// selectedProfile resolves the profile named by the flag, falling back to
// the configured default.
func (a *app) selectedProfile(flagValue string) (*profile.Profile, error) {
	id := flagValue
	if id == "" {
		id = a.cfg.Profile
	}
	return a.catalog.Get(id)
}

func (a *app) bootTimeout() time.Duration {
	return time.Duration(a.cfg.Timeouts.BootSeconds) * time.Second
}

func (a *app) componentTimeout() time.Duration {
	return time.Duration(a.cfg.Timeouts.ComponentSeconds) * time.Second
}

func (a *app) installTimeout() time.Duration {
	return time.Duration(a.cfg.Timeouts.InstallSeconds) * time.Second
}
