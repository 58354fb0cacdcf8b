package library

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	_ "github.com/mattn/go-sqlite3"
)

// Archive writes library snapshots to a SQLite file for offline reporting.
// The running library never reads an archive back.
type Archive struct {
	db *sql.DB

	addBookStmt   *sql.Stmt
	addMemberStmt *sql.Stmt
	addLoanStmt   *sql.Stmt
	addRecordStmt *sql.Stmt
}

// OpenArchive opens (or creates) the SQLite archive at path, applies schema
// migrations, and prepares the insert statements.
func OpenArchive(path string) (*Archive, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	a := &Archive{db: db}
	if err := a.prepareStatements(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases prepared statements and closes the DB.
func (a *Archive) Close() error {
	for _, st := range []*sql.Stmt{a.addBookStmt, a.addMemberStmt, a.addLoanStmt, a.addRecordStmt} {
		if st != nil {
			st.Close()
		}
	}
	return a.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            genre TEXT NOT NULL,
            total_copies INTEGER NOT NULL,
            available INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS members (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS member_borrowed (
            member_id TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
            position INTEGER NOT NULL,
            book_id TEXT NOT NULL,
            PRIMARY KEY (member_id, position)
        );`,
		// No foreign keys: history outlives deleted books and members.
		`CREATE TABLE IF NOT EXISTS borrow_records (
            id TEXT PRIMARY KEY,
            book_id TEXT NOT NULL,
            member_id TEXT NOT NULL,
            member_name TEXT NOT NULL,
            title TEXT NOT NULL,
            date_borrowed TEXT NOT NULL,
            due_date TEXT NOT NULL,
            date_returned TEXT
        );`,
		`CREATE INDEX IF NOT EXISTS idx_records_active ON borrow_records(book_id) WHERE date_returned IS NULL;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (a *Archive) prepareStatements() error {
	var err error
	if a.addBookStmt, err = a.db.Prepare(`INSERT INTO books(id,title,author,genre,total_copies,available) VALUES(?,?,?,?,?,?)`); err != nil {
		return err
	}
	if a.addMemberStmt, err = a.db.Prepare(`INSERT INTO members(id,name,email) VALUES(?,?,?)`); err != nil {
		return err
	}
	if a.addLoanStmt, err = a.db.Prepare(`INSERT INTO member_borrowed(member_id,position,book_id) VALUES(?,?,?)`); err != nil {
		return err
	}
	if a.addRecordStmt, err = a.db.Prepare(`INSERT INTO borrow_records(id,book_id,member_id,member_name,title,date_borrowed,due_date,date_returned) VALUES(?,?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

// Write replaces the archive's contents with s in one transaction.
func (a *Archive) Write(s Snapshot) error {
	tx, err := a.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"member_borrowed", "borrow_records", "members", "books"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	active := make(map[string]int)
	for _, r := range s.Records {
		if r.Active() {
			active[r.BookID]++
		}
	}

	bookStmt := tx.Stmt(a.addBookStmt)
	for _, b := range s.Books {
		if _, err := bookStmt.Exec(b.ID, b.Title, b.Author, b.Genre, b.TotalCopies, b.TotalCopies-active[b.ID]); err != nil {
			return fmt.Errorf("archive book %s: %w", b.ID, err)
		}
	}

	memberStmt, loanStmt := tx.Stmt(a.addMemberStmt), tx.Stmt(a.addLoanStmt)
	for _, m := range s.Members {
		if _, err := memberStmt.Exec(m.ID, m.Name, m.Email); err != nil {
			return fmt.Errorf("archive member %s: %w", m.ID, err)
		}
		for i, bookID := range m.Borrowed {
			if _, err := loanStmt.Exec(m.ID, i, bookID); err != nil {
				return fmt.Errorf("archive borrowed list of %s: %w", m.ID, err)
			}
		}
	}

	recordStmt := tx.Stmt(a.addRecordStmt)
	for _, r := range s.Records {
		var returned sql.NullString
		if r.ReturnedAt != nil {
			returned = sql.NullString{String: r.ReturnedAt.Format(time.DateOnly), Valid: true}
		}
		if _, err := recordStmt.Exec(r.ID.String(), r.BookID, r.MemberID, r.MemberName, r.BookTitle,
			r.BorrowedAt.Format(time.DateOnly), r.DueAt.Format(time.DateOnly), returned); err != nil {
			return fmt.Errorf("archive record %s: %w", r.ID, err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('taken_at',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, s.TakenAt.Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

// ArchiveCounts summarizes what an archive holds.
type ArchiveCounts struct {
	Books         int
	Members       int
	Records       int
	ActiveRecords int
}

// Counts reads back row counts, for import summaries.
func (a *Archive) Counts() (ArchiveCounts, error) {
	var c ArchiveCounts
	err := a.db.QueryRow(`SELECT
        (SELECT COUNT(*) FROM books),
        (SELECT COUNT(*) FROM members),
        (SELECT COUNT(*) FROM borrow_records),
        (SELECT COUNT(*) FROM borrow_records WHERE date_returned IS NULL)`).
		Scan(&c.Books, &c.Members, &c.Records, &c.ActiveRecords)
	if err != nil {
		return ArchiveCounts{}, err
	}
	return c, nil
}

// WriteJSON encodes s as indented JSON.
func WriteJSON(w io.Writer, s Snapshot) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
