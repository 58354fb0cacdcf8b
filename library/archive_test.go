package library

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempArchive(t *testing.T) (*Archive, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "archive.db")
	a, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, path
}

func busyLibrary(t *testing.T) *LibraryManager {
	t.Helper()
	mgr := newStocked(t)
	require.NoError(t, mgr.AddMember("M02", "Other", "o@o.com"))
	_, err := mgr.Borrow("T001", "M01")
	require.NoError(t, err)
	_, err = mgr.Borrow("T002", "M02")
	require.NoError(t, err)
	_, err = mgr.Return("T002", "M02")
	require.NoError(t, err)
	return mgr
}

func TestArchiveWriteAndCount(t *testing.T) {
	a, path := tempArchive(t)
	mgr := busyLibrary(t)

	require.NoError(t, a.Write(mgr.Snapshot()))

	c, err := a.Counts()
	require.NoError(t, err)
	assert.Equal(t, ArchiveCounts{Books: 2, Members: 2, Records: 2, ActiveRecords: 1}, c)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var avail int
	require.NoError(t, db.QueryRow(`SELECT available FROM books WHERE id='T001'`).Scan(&avail))
	assert.Equal(t, 1, avail)

	var borrowed string
	require.NoError(t, db.QueryRow(`SELECT book_id FROM member_borrowed WHERE member_id='M01'`).Scan(&borrowed))
	assert.Equal(t, "T001", borrowed)

	var returned sql.NullString
	require.NoError(t, db.QueryRow(`SELECT date_returned FROM borrow_records WHERE member_id='M02'`).Scan(&returned))
	assert.Equal(t, "2025-03-14", returned.String)
}

func TestArchiveWriteReplacesContents(t *testing.T) {
	a, _ := tempArchive(t)
	mgr := busyLibrary(t)
	require.NoError(t, a.Write(mgr.Snapshot()))

	_, err := mgr.Return("T001", "M01")
	require.NoError(t, err)
	require.NoError(t, mgr.DeleteMember("M02"))
	require.NoError(t, a.Write(mgr.Snapshot()))

	c, err := a.Counts()
	require.NoError(t, err)
	assert.Equal(t, ArchiveCounts{Books: 2, Members: 1, Records: 2, ActiveRecords: 0}, c)
}

func TestArchiveReopenSkipsMigrations(t *testing.T) {
	a, path := tempArchive(t)
	require.NoError(t, a.Write(busyLibrary(t).Snapshot()))
	require.NoError(t, a.Close())

	again, err := OpenArchive(path)
	require.NoError(t, err)
	defer again.Close()
	c, err := again.Counts()
	require.NoError(t, err)
	assert.Equal(t, 2, c.Books)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, busyLibrary(t).Snapshot()))

	var decoded struct {
		Books []struct {
			ID          string `json:"id"`
			TotalCopies int    `json:"total_copies"`
		} `json:"books"`
		History []struct {
			Title    string  `json:"title"`
			Returned *string `json:"date_returned"`
		} `json:"borrow_history"`
	}
	require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Books, 2)
	assert.Equal(t, 2, decoded.Books[0].TotalCopies)
	require.Len(t, decoded.History, 2)
	assert.Nil(t, decoded.History[0].Returned)
	assert.NotNil(t, decoded.History[1].Returned)
	assert.Contains(t, buf.String(), "\n  \"books\"")
}
