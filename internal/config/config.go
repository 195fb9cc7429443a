// SPDX-License-Identifier: MPL-2.0

// Package config loads the tool configuration: viper defaults overlaid with
// a CUE-validated config file.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"pstux/internal/cueutil"
	"pstux/internal/issue"
)

const (
	// AppName is the application name, also the config directory name.
	AppName = "pstux"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the pstux configuration directory, $XDG_CONFIG_HOME/pstux
// with the usual ~/.config fallback.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, AppName), nil
}

// LoadOptions tweak where Load looks for the config file.
type LoadOptions struct {
	// ConfigFilePath, when set, is used exclusively. A missing file is an
	// error in this mode.
	ConfigFilePath string

	// ConfigDirPath overrides the platform config directory. Used by tests.
	ConfigDirPath string
}

// Load resolves the configuration. A missing config file is not an error,
// the defaults apply. Returns the config and the path of the file actually
// read, empty when running on defaults.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("root", defaults.Root)
	v.SetDefault("profile", defaults.Profile)
	v.SetDefault("profiles_path", defaults.ProfilesPath)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.interactive", defaults.UI.Interactive)
	v.SetDefault("timeouts.boot_seconds", defaults.Timeouts.BootSeconds)
	v.SetDefault("timeouts.component_seconds", defaults.Timeouts.ComponentSeconds)
	v.SetDefault("timeouts.install_seconds", defaults.Timeouts.InstallSeconds)

	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", wrapLoadError(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir := opts.ConfigDirPath
		if cfgDir == "" {
			var err error
			cfgDir, err = ConfigDir()
			if err != nil {
				return nil, "", err
			}
		}

		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", wrapLoadError(cuePath, err)
			}
			resolvedPath = cuePath
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, resolvedPath, nil
}

func wrapLoadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the values match the expected schema").
		Wrap(err).
		BuildError()
}

// loadCUEIntoViper parses a CUE file, validates it against #Config, and
// merges the result into viper. Validation is non-concrete because every
// config field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > cueutil.MaxFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), cueutil.MaxFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileBytes(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
