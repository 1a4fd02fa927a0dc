package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSteps(t *testing.T) {
	steps, err := parseSteps(nil)
	require.NoError(t, err)
	require.Equal(t, 1, steps)

	steps, err = parseSteps([]string{" 3 "})
	require.NoError(t, err)
	require.Equal(t, 3, steps)

	_, err = parseSteps([]string{"0"})
	require.Error(t, err)
	_, err = parseSteps([]string{"two"})
	require.Error(t, err)
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("4")
	require.NoError(t, err)
	require.Equal(t, 4, v)

	_, err = parseVersion("-1")
	require.Error(t, err)
}

func TestResolveMigrationsDir_PrefersFlag(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MIGRATIONS_DIR", "")

	got, err := resolveMigrationsDir(dir)
	require.NoError(t, err)
	want, _ := filepath.Abs(dir)
	require.Equal(t, want, got)
}

func TestEnvBool(t *testing.T) {
	t.Setenv("DB_BINARY_PARAMETERS", "")
	require.True(t, envBool("DB_BINARY_PARAMETERS", true))

	t.Setenv("DB_BINARY_PARAMETERS", "off")
	require.False(t, envBool("DB_BINARY_PARAMETERS", true))

	t.Setenv("DB_BINARY_PARAMETERS", "YES")
	require.True(t, envBool("DB_BINARY_PARAMETERS", false))
}

func TestNewRootCmd_RegistersSubcommands(t *testing.T) {
	root := newRootCmd(nil)
	for _, name := range []string{"up", "down", "version", "force", "goto"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		require.Equal(t, name, cmd.Name())
	}
}
