package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"library-hub/library"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"LIBRARY_SEED", "LIBRARY_LOG_LEVEL", "LIBRARY_LOG_FILE", "LIBRARY_ARCHIVE"} {
		t.Setenv(k, "")
	}
	assert.Equal(t, defaultConfig(), loadConfig())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("LIBRARY_SEED", "seed.ini")
	t.Setenv("LIBRARY_LOG_LEVEL", "debug")
	t.Setenv("LIBRARY_LOG_FILE", "hub.log")
	t.Setenv("LIBRARY_ARCHIVE", "out.db")

	assert.Equal(t, config{
		SeedFile: "seed.ini",
		LogLevel: "debug",
		LogFile:  "hub.log",
		Archive:  "out.db",
	}, loadConfig())
}

// execute runs the root command with args, logging to a temp file.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(defaultConfig())
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--log", filepath.Join(t.TempDir(), "hub.log")))
	err := cmd.Execute()
	return out.String(), err
}

func TestRootRunsSession(t *testing.T) {
	out, err := execute(t, "3\ngalma\ngalmapass\n1\n0\n0\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Python Basics")
	assert.Contains(t, out, "Goodbye")
}

func TestRootRejectsBadLogLevel(t *testing.T) {
	_, err := execute(t, "", "--log-level", "loud")
	assert.Error(t, err)
}

func TestExportJSONToStdout(t *testing.T) {
	out, err := execute(t, "", "export", "--format", "json", "-o", "-")
	require.NoError(t, err)

	var snap library.Snapshot
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(out, &snap))
	assert.Len(t, snap.Books, 3)
	assert.Len(t, snap.Members, 5)
	assert.Empty(t, snap.Records)
}

func TestExportSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hub.db")
	out, err := execute(t, "", "export", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Archived 3 books, 5 members, 0 borrow records")

	a, err := library.OpenArchive(path)
	require.NoError(t, err)
	defer a.Close()
	c, err := a.Counts()
	require.NoError(t, err)
	assert.Equal(t, 3, c.Books)
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := execute(t, "", "export", "--format", "xml", "-o", filepath.Join(t.TempDir(), "x"))
	assert.ErrorContains(t, err, "unknown format")
}

func TestExportWithSeedFile(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.ini")
	require.NoError(t, os.WriteFile(seed, []byte("[book.Z1]\ntitle = Z\nauthor = Y\ngenre = Fiction\ncopies = 1\n"), 0o644))
	out, err := execute(t, "", "export", "--seed", seed, "--format", "json", "-o", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "Z1"`)
}
