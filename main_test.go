package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circulation-desk/config"
)

func useDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "desk.db")
	dbFlag, logLevelFlag = path, "error"
	t.Cleanup(func() { dbFlag, logLevelFlag = "", "" })
	return path
}

func TestOpenDeskAppliesCommandOptions(t *testing.T) {
	path := useDB(t)
	t.Setenv("LIBRARY_HTTP_PORT", "8181")

	mgr, cfg, _, err := openDesk(config.WithHTTPPort("9300"))
	require.NoError(t, err)
	defer mgr.Close()

	assert.Equal(t, "9300", cfg.Server.Port)
	assert.Equal(t, path, cfg.DBFile)

	mgr2, cfg, _, err := openDesk()
	require.NoError(t, err)
	defer mgr2.Close()
	assert.Equal(t, "8181", cfg.Server.Port)
}

func TestCommandsShareTheDatabase(t *testing.T) {
	path := useDB(t)

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		root := newRootCmd()
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(append(args, "--db", path))
		require.NoError(t, root.Execute(), out.String())
		return out.String()
	}

	run("seed")
	assert.Contains(t, run("checkout", "abc", "1234"), "check out successful")
	assert.Contains(t, run("advance", "--days", "22"), "day 22")
	assert.Contains(t, run("pay", "abc", "0.10"), "Balance for Felicity: 0.00")
	assert.Contains(t, run("return", "1234"), "return successful")
	assert.Contains(t, run("history", "--limit", "1"), "return successful")
}

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
