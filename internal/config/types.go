// SPDX-License-Identifier: MPL-2.0

package config

type (
	// Config is the resolved tool configuration.
	Config struct {
		// Root overrides the managed environment directory. Empty means
		// ~/.pstux.
		Root string `mapstructure:"root"`

		// Profile is the default application profile identifier.
		Profile string `mapstructure:"profile"`

		// ProfilesPath points at a custom profile catalog. Empty means the
		// built-in catalog.
		ProfilesPath string `mapstructure:"profiles_path"`

		// UI holds presentation settings.
		UI UIConfig `mapstructure:"ui"`

		// Timeouts bound the external calls made during tasks.
		Timeouts TimeoutConfig `mapstructure:"timeouts"`
	}

	// UIConfig holds presentation settings.
	UIConfig struct {
		// Verbose enables debug logging.
		Verbose bool `mapstructure:"verbose"`

		// Interactive controls whether destructive operations prompt.
		Interactive bool `mapstructure:"interactive"`
	}

	// TimeoutConfig bounds external calls, in seconds so the values read
	// naturally in a config file.
	TimeoutConfig struct {
		// BootSeconds bounds prefix bootstrap.
		BootSeconds int `mapstructure:"boot_seconds"`

		// ComponentSeconds bounds each component install.
		ComponentSeconds int `mapstructure:"component_seconds"`

		// InstallSeconds bounds the application installer, 0 means
		// unbounded.
		InstallSeconds int `mapstructure:"install_seconds"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Profile: "cc2025",
		UI: UIConfig{
			Verbose:     false,
			Interactive: true,
		},
		Timeouts: TimeoutConfig{
			BootSeconds:      120,
			ComponentSeconds: 300,
			InstallSeconds:   0,
		},
	}
}
