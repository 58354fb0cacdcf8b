package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"library-hub/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportDefaultSeed(t *testing.T) {
	db := filepath.Join(t.TempDir(), "archive.db")
	var out bytes.Buffer
	require.NoError(t, runImport(&out, "", db))

	assert.Contains(t, out.String(), "Successfully imported: 8 records")
	assert.Contains(t, out.String(), "Validated 7 logins")
	assert.Contains(t, out.String(), "Errors: 0")
	assert.Contains(t, out.String(), "3 books, 5 members, 0 borrow records")

	a, err := library.OpenArchive(db)
	require.NoError(t, err)
	defer a.Close()
	c, err := a.Counts()
	require.NoError(t, err)
	assert.Equal(t, library.ArchiveCounts{Books: 3, Members: 5}, c)
}

func TestImportReportsBadRecords(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.ini")
	require.NoError(t, os.WriteFile(seed, []byte(`
[book.A1]
title  = Good
author = Someone
genre  = Fiction
copies = 1

[book.A2]
title  = Bad Genre
author = Someone
genre  = Poetry
copies = 1

[member.M1]
name  = One
email = one@example.com
`), 0o644))

	db := filepath.Join(dir, "archive.db")
	var out bytes.Buffer
	err := runImport(&out, seed, db)
	require.ErrorIs(t, err, library.ErrInvalidGenre)
	assert.Contains(t, out.String(), "Importing book: Bad Genre by Someone... ERROR")
	assert.Contains(t, out.String(), "Errors: 1")
	assert.NoFileExists(t, db)
}

func TestImportRejectsBrokenLoginLink(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.ini")
	require.NoError(t, os.WriteFile(seed, []byte(`
[member.M1]
name  = One
email = one@example.com

[user.clerk]
password = c
role     = staff
member   = M9
`), 0o644))

	db := filepath.Join(dir, "archive.db")
	var out bytes.Buffer
	err := runImport(&out, seed, db)
	require.ErrorIs(t, err, library.ErrNotFound)
	assert.Contains(t, out.String(), "Errors: 0")
	assert.Contains(t, out.String(), "login clerk")
	assert.NoFileExists(t, db)
}

func TestTruncateStringKeepsRunes(t *testing.T) {
	assert.Equal(t, "Für Elise", truncateString("Für Elise", 20))
	assert.Equal(t, "Ünïcö...", truncateString("Ünïcödé Tïtlé", 8))
}

func TestImportReplacesExistingArchive(t *testing.T) {
	db := filepath.Join(t.TempDir(), "archive.db")
	require.NoError(t, os.WriteFile(db+"-wal", []byte("stale"), 0o644))

	var out bytes.Buffer
	require.NoError(t, runImport(&out, "", db))
	require.NoError(t, runImport(&out, "", db))
	assert.NotContains(t, out.String(), "Warning")
}
