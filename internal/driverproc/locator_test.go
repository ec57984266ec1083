package driverproc

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/corvid-labs/drivebridge/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFakeDriver(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "package"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, nodeExecutableName()), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, driverScriptName), []byte("// cli"), 0o644))
}

func TestLocateFindsProjectDriverDirFirst(t *testing.T) {
	dir := t.TempDir()
	writeFakeDriver(t, dir)

	loc, err := Locate(dir, "")
	require.NoError(t, err)
	assert.Equal(t, dir, loc.Dir)
	assert.Equal(t, filepath.Join(dir, nodeExecutableName()), loc.NodePath)
}

func TestLocatePrefersEnvOverrideWhenNoProjectDir(t *testing.T) {
	dir := t.TempDir()
	writeFakeDriver(t, dir)

	loc, err := Locate("", dir)
	require.NoError(t, err)
	assert.Equal(t, dir, loc.Dir)
}

func TestLocateReturnsServerNotFoundWithSearchedPaths(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("system install dir probe differs on windows")
	}
	missingDir := filepath.Join(t.TempDir(), "nonexistent")

	_, err := Locate(missingDir, "")
	require.Error(t, err)

	driverErr, ok := errs.As(err, errs.KindServerNotFound)
	require.True(t, ok)
	assert.Contains(t, driverErr.Message, missingDir)
	assert.Contains(t, driverErr.Message, "install it with")
}

func TestLocateSkipsIncompleteCandidate(t *testing.T) {
	dir := t.TempDir()
	// node executable present, driver script missing — not a valid candidate.
	require.NoError(t, os.WriteFile(filepath.Join(dir, nodeExecutableName()), []byte("x"), 0o755))

	_, err := Locate(dir, "")
	require.Error(t, err)
	_, ok := errs.As(err, errs.KindServerNotFound)
	assert.True(t, ok)
}
