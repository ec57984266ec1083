// config.go — environment-driven configuration for the driver core.
//
// Grounded on the teacher's ad hoc os.Getenv reads scattered across
// cmd/dev-console (GASOLINE_API_KEY, GASOLINE_NO_AUTO_UPGRADE,
// state.StateDirEnv), collected here into one struct parsed with
// caarlos0/env instead of one-off os.Getenv calls.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every environment override recognized by the driver core, as
// described in spec.md §4.1 and §6.
type Config struct {
	// DriverDir, when set, is searched before the user cache directory and
	// system install (spec §4.1 search order, step (b)).
	DriverDir string `env:"DRIVEBRIDGE_DRIVER_DIR"`

	// SDKLanguage is sent as sdkLanguage in the initialize handshake (§6).
	SDKLanguage string `env:"DRIVEBRIDGE_SDK_LANGUAGE" envDefault:"go"`

	// ClientVersion is surfaced to the driver as PW_CLI_DISPLAY_VERSION.
	ClientVersion string `env:"DRIVEBRIDGE_CLIENT_VERSION" envDefault:"0.1.0"`

	// CI, when true, enables the browser-stability argument allowlist (§4.1).
	CI bool `env:"CI"`

	// Debug is parsed from the environment but not read anywhere in this
	// module; no frame-level trace logging is emitted.
	Debug bool `env:"DRIVEBRIDGE_DEBUG"`

	// LaunchTimeoutSeconds is parsed from the environment but not read by
	// RunFromEnv or the launcher; the initialize handshake wait has no
	// timeout of its own.
	LaunchTimeoutSeconds int `env:"DRIVEBRIDGE_LAUNCH_TIMEOUT_SECONDS" envDefault:"30"`

	// ShutdownTimeoutSeconds bounds the graceful-exit wait in §4.1 before the
	// launcher kills the child process.
	ShutdownTimeoutSeconds int `env:"DRIVEBRIDGE_SHUTDOWN_TIMEOUT_SECONDS" envDefault:"5"`
}

// Load parses Config from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment configuration: %w", err)
	}
	return cfg, nil
}
