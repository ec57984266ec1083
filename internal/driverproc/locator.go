// locator.go — resolves the on-disk driver directory (spec.md §4.1).
//
// Grounded on the teacher's cmd/dev-console/bridge.go respawn path, which
// reads an environment-variable override (statecfg.StateDirEnv) before
// falling back to defaults. We generalize that single override into the
// full four-step search order the driver core requires.
package driverproc

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/corvid-labs/drivebridge/internal/errs"
)

// DriverDirEnv overrides the search with a single explicit directory.
const DriverDirEnv = "DRIVEBRIDGE_DRIVER_DIR"

// nodeExecutableName returns the expected node binary name for the current
// platform.
func nodeExecutableName() string {
	if runtime.GOOS == "windows" {
		return "node.exe"
	}
	return "node"
}

// driverScriptName is the entry point the driver subprocess is launched
// with, relative to a driver directory.
const driverScriptName = "package/cli.js"

// candidateDirs returns the ordered list of directories searched for a
// driver install, per spec §4.1: (a) projectDriverDir if non-empty, (b) the
// DriverDirEnv override, (c) a platform-specific user cache directory, (d) a
// conventional system install location.
func candidateDirs(projectDriverDir, envOverride string) []string {
	var dirs []string
	if projectDriverDir != "" {
		dirs = append(dirs, projectDriverDir)
	}
	if envOverride != "" {
		dirs = append(dirs, envOverride)
	}
	if cacheDir, err := os.UserCacheDir(); err == nil {
		dirs = append(dirs, filepath.Join(cacheDir, "drivebridge", "driver"))
	}
	dirs = append(dirs, systemInstallDir())
	return dirs
}

// systemInstallDir is the conventional system-wide driver location, one per
// platform family.
func systemInstallDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("ProgramFiles"), "drivebridge", "driver")
	case "darwin":
		return "/usr/local/lib/drivebridge/driver"
	default:
		return "/usr/lib/drivebridge/driver"
	}
}

// Location is a resolved driver install: the node executable and the driver
// script it will run.
type Location struct {
	Dir        string
	NodePath   string
	ScriptPath string
}

// Locate walks candidateDirs in order and returns the first one containing
// both a node executable and the driver script. projectDriverDir may be
// empty (no build-time-deposited directory); envOverride is normally
// os.Getenv(DriverDirEnv).
func Locate(projectDriverDir, envOverride string) (*Location, error) {
	searched := candidateDirs(projectDriverDir, envOverride)
	node := nodeExecutableName()

	for _, dir := range searched {
		if dir == "" {
			continue
		}
		nodePath := filepath.Join(dir, node)
		scriptPath := filepath.Join(dir, driverScriptName)
		if fileExists(nodePath) && fileExists(scriptPath) {
			return &Location{Dir: dir, NodePath: nodePath, ScriptPath: scriptPath}, nil
		}
	}

	return nil, errs.New(errs.KindServerNotFound, serverNotFoundMessage(searched))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// serverNotFoundMessage composes the enumerated-search-paths message spec
// §4.1 requires, plus the installation-command suggestion spec §4.1/§9
// requires for a missing driver.
func serverNotFoundMessage(searched []string) string {
	msg := "no driver install found, searched:\n"
	for _, dir := range searched {
		msg += fmt.Sprintf("  - %s\n", dir)
	}
	msg += fmt.Sprintf("install it with: drivebridge install --version %s", BundledDriverVersion)
	return msg
}

// BundledDriverVersion is the driver release this module was built against.
// Surfaced in install-command suggestions; PW_CLI_DISPLAY_VERSION carries
// LaunchOptions.ClientVersion instead.
const BundledDriverVersion = "1.48.0"
