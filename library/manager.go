package library

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LibraryManager is the façade the CLI talks to. It owns the catalog, roster and
// ledger and runs the borrow/return workflow across them. One mutex guards all
// three stores for the whole of every operation, so a borrow's availability check
// and its two writes cannot interleave with another caller.
type LibraryManager struct {
	mu sync.Mutex

	catalog *Catalog
	roster  *Roster
	ledger  *Ledger
	dir     *Directory

	now func() time.Time
	log logrus.FieldLogger
}

// Option configures a LibraryManager.
type Option func(*LibraryManager)

// WithClock replaces time.Now as the source of borrow and return dates.
func WithClock(now func() time.Time) Option {
	return func(lm *LibraryManager) { lm.now = now }
}

// WithLogger sets where borrow/return notifications and CRUD events are logged.
func WithLogger(l logrus.FieldLogger) Option {
	return func(lm *LibraryManager) { lm.log = l }
}

// WithDirectory sets the login directory consulted by VerifyLogin.
func WithDirectory(d *Directory) Option {
	return func(lm *LibraryManager) { lm.dir = d }
}

// NewLibraryManager returns an empty library.
func NewLibraryManager(opts ...Option) *LibraryManager {
	ledger := NewLedger()
	lm := &LibraryManager{
		catalog: NewCatalog(ledger),
		roster:  NewRoster(),
		ledger:  ledger,
		now:     time.Now,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(lm)
	}
	if lm.dir == nil {
		lm.dir, _ = NewDirectory()
	}
	return lm
}

// today reads the clock once and truncates it to the calendar day.
func (lm *LibraryManager) today() time.Time {
	t := lm.now()
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ------------------ Book helpers ------------------

func (lm *LibraryManager) AddBook(b Book) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if err := lm.catalog.Add(b); err != nil {
		return err
	}
	lm.log.WithFields(logrus.Fields{"book_id": b.ID, "title": b.Title}).Debug("book added")
	return nil
}

func (lm *LibraryManager) UpdateBook(id string, u BookUpdate) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if err := lm.catalog.Update(id, u); err != nil {
		return err
	}
	lm.log.WithField("book_id", id).Debug("book updated")
	return nil
}

func (lm *LibraryManager) DeleteBook(id string) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if err := lm.catalog.Delete(id); err != nil {
		return err
	}
	lm.log.WithField("book_id", id).Debug("book deleted")
	return nil
}

func (lm *LibraryManager) GetBook(id string) (Book, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	b, ok := lm.catalog.Get(id)
	if !ok {
		return Book{}, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	return b, nil
}

func (lm *LibraryManager) ListBooks() []Book {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.catalog.List()
}

// Available returns how many copies of book id are on the shelf.
func (lm *LibraryManager) Available(id string) (int, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	b, ok := lm.catalog.Get(id)
	if !ok {
		return 0, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	return b.TotalCopies - lm.ledger.ActiveCountFor(id), nil
}

// SearchBooks matches query against the title or author of every book.
func (lm *LibraryManager) SearchBooks(query string, field SearchField) []Book {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.catalog.Search(query, field)
}

// ------------------ Member helpers ------------------

func (lm *LibraryManager) AddMember(id, name, email string) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if err := lm.roster.Add(id, name, email); err != nil {
		return err
	}
	lm.log.WithFields(logrus.Fields{"member_id": id, "name": name}).Debug("member added")
	return nil
}

func (lm *LibraryManager) UpdateMember(id string, u MemberUpdate) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if err := lm.roster.Update(id, u); err != nil {
		return err
	}
	lm.log.WithField("member_id", id).Debug("member updated")
	return nil
}

func (lm *LibraryManager) DeleteMember(id string) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if err := lm.roster.Delete(id); err != nil {
		return err
	}
	lm.log.WithField("member_id", id).Debug("member deleted")
	return nil
}

func (lm *LibraryManager) GetMember(id string) (Member, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	m, ok := lm.roster.Find(id)
	if !ok {
		return Member{}, fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	return m, nil
}

func (lm *LibraryManager) ListMembers() []Member {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.roster.List()
}

// ------------------ Circulation ------------------

// Borrow lends one copy of bookID to memberID. Nothing is written unless every
// check passes: the book and member exist, a copy is on the shelf, and the member
// is under BorrowLimit.
func (lm *LibraryManager) Borrow(bookID, memberID string) (BorrowRecord, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	rec, err := lm.borrow(bookID, memberID)
	entry := lm.log.WithFields(logrus.Fields{"book_id": bookID, "member_id": memberID})
	if err != nil {
		entry.WithField("reason", err.Error()).Warn("borrow refused")
		return BorrowRecord{}, err
	}
	entry.WithFields(logrus.Fields{
		"title": rec.BookTitle,
		"due":   rec.DueAt.Format(time.DateOnly),
	}).Info("book borrowed")
	return rec, nil
}

func (lm *LibraryManager) borrow(bookID, memberID string) (BorrowRecord, error) {
	book, ok := lm.catalog.Get(bookID)
	if !ok {
		return BorrowRecord{}, fmt.Errorf("book %s: %w", bookID, ErrNotFound)
	}
	member, ok := lm.roster.Find(memberID)
	if !ok {
		return BorrowRecord{}, fmt.Errorf("member %s: %w", memberID, ErrNotFound)
	}
	if book.TotalCopies-lm.ledger.indexedActiveCount(bookID) <= 0 {
		return BorrowRecord{}, fmt.Errorf("book %s: %w", bookID, ErrInsufficientCopies)
	}
	if len(member.Borrowed) >= BorrowLimit {
		return BorrowRecord{}, fmt.Errorf("member %s has %d books: %w", memberID, len(member.Borrowed), ErrBorrowLimitExceeded)
	}

	day := lm.today()
	rec := lm.ledger.Append(BorrowRecord{
		BookID:     bookID,
		MemberID:   memberID,
		MemberName: member.Name,
		BookTitle:  book.Title,
		BorrowedAt: day,
		DueAt:      day.Add(LoanPeriod),
	})
	lm.roster.addBorrowed(memberID, bookID)
	return rec, nil
}

// Return closes the member's most recent active borrow of bookID and takes one
// occurrence of the book off the member's borrowed list.
func (lm *LibraryManager) Return(bookID, memberID string) (BorrowRecord, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	entry := lm.log.WithFields(logrus.Fields{"book_id": bookID, "member_id": memberID})
	rec, err := lm.returnBook(bookID, memberID, entry)
	if err != nil {
		entry.WithField("reason", err.Error()).Warn("return refused")
		return BorrowRecord{}, err
	}
	entry.WithFields(logrus.Fields{
		"title":    rec.BookTitle,
		"returned": rec.ReturnedAt.Format(time.DateOnly),
	}).Info("book returned")
	return rec, nil
}

func (lm *LibraryManager) returnBook(bookID, memberID string, entry logrus.FieldLogger) (BorrowRecord, error) {
	if _, ok := lm.roster.Find(memberID); !ok {
		return BorrowRecord{}, fmt.Errorf("member %s: %w", memberID, ErrNotFound)
	}
	open, ok := lm.ledger.ActiveRecordFor(bookID, memberID)
	if !ok {
		return BorrowRecord{}, fmt.Errorf("no active record for book %s and member %s: %w", bookID, memberID, ErrNotFound)
	}
	rec, err := lm.ledger.Close(open.ID, lm.today())
	if err != nil {
		return BorrowRecord{}, err
	}
	if !lm.roster.removeBorrowed(memberID, bookID) {
		entry.Warn("returned book missing from member's borrowed list")
	}
	return rec, nil
}

// BorrowedBy returns the book IDs memberID currently holds.
func (lm *LibraryManager) BorrowedBy(memberID string) ([]string, error) {
	m, err := lm.GetMember(memberID)
	if err != nil {
		return nil, err
	}
	return m.Borrowed, nil
}

// ------------------ History ------------------

func (lm *LibraryManager) MemberHistory(memberID string) []BorrowRecord {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.ledger.HistoryFor(memberID)
}

func (lm *LibraryManager) ActiveBorrows() []BorrowRecord {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.ledger.Active()
}

func (lm *LibraryManager) BorrowHistory() []BorrowRecord {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.ledger.History()
}

// ------------------ Directory ------------------

// VerifyLogin checks a login against the directory. The workflow never calls it;
// the menu layer uses it to pick a session's role.
func (lm *LibraryManager) VerifyLogin(login, secret string) (Role, bool) {
	return lm.dir.VerifyLogin(login, secret)
}

// Account returns the directory entry for login.
func (lm *LibraryManager) Account(login string) (DirectoryEntry, bool) {
	return lm.dir.Entry(login)
}

// ------------------ Utilities ------------------

// Snapshot copies the whole library state.
func (lm *LibraryManager) Snapshot() Snapshot {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return Snapshot{
		TakenAt: lm.now(),
		Books:   lm.catalog.List(),
		Members: lm.roster.List(),
		Records: lm.ledger.History(),
	}
}
