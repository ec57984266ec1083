package driverproc

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/corvid-labs/drivebridge/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeEchoDriver writes a shell script standing in for the node executable:
// it echoes each stdin line back on stdout until stdin closes, so tests can
// exercise the pipe wiring without a real driver install.
func writeEchoDriver(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "package"), 0o755))
	script := "#!/bin/sh\nwhile IFS= read -r line; do echo \"$line\"; done\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node"), []byte(script), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, driverScriptName), []byte("// cli"), 0o644))
}

func TestLaunchStartsSubprocessAndWiresStdio(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell-script stand-in driver requires a POSIX shell")
	}
	dir := t.TempDir()
	writeEchoDriver(t, dir)

	handle, err := Launch(LaunchOptions{
		ProjectDriverDir: dir,
		SDKLanguage:      "go",
		ClientVersion:    "0.1.0-test",
		ShutdownTimeout:  2 * time.Second,
	})
	require.NoError(t, err)
	require.NotNil(t, handle)

	_, err = handle.Stdin().Write([]byte("hello\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(handle.Stdout())
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "hello\n", line)

	assert.NoError(t, handle.Shutdown())
}

func TestShutdownIsIdempotent(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell-script stand-in driver requires a POSIX shell")
	}
	dir := t.TempDir()
	writeEchoDriver(t, dir)

	handle, err := Launch(LaunchOptions{
		ProjectDriverDir: dir,
		SDKLanguage:      "go",
		ClientVersion:    "0.1.0-test",
		ShutdownTimeout:  2 * time.Second,
	})
	require.NoError(t, err)

	assert.NoError(t, handle.Shutdown())
	assert.NoError(t, handle.Shutdown())
}

func TestLaunchReturnsServerNotFoundWhenDriverMissing(t *testing.T) {
	_, err := Launch(LaunchOptions{ProjectDriverDir: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	_, ok := errs.As(err, errs.KindServerNotFound)
	assert.True(t, ok)
}
