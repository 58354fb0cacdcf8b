package library

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Ledger keeps every borrow record ever made, in append order. Records are never
// deleted and only ReturnedAt changes, once.
//
// Active counts are computed by scanning the records. The byBook index is kept in
// step on Append and Close so availability checks need not scan; the scan remains
// authoritative and the two are compared in tests.
type Ledger struct {
	records []*BorrowRecord
	byID    map[uuid.UUID]*BorrowRecord
	byBook  map[string]map[uuid.UUID]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		byID:   make(map[uuid.UUID]*BorrowRecord),
		byBook: make(map[string]map[uuid.UUID]struct{}),
	}
}

// ActiveCountFor counts unreturned records for bookID.
func (l *Ledger) ActiveCountFor(bookID string) int {
	n := 0
	for _, r := range l.records {
		if r.BookID == bookID && r.Active() {
			n++
		}
	}
	return n
}

// indexedActiveCount answers ActiveCountFor from the index.
func (l *Ledger) indexedActiveCount(bookID string) int {
	return len(l.byBook[bookID])
}

// ActiveRecordFor returns the most recently appended active record for the pair.
func (l *Ledger) ActiveRecordFor(bookID, memberID string) (BorrowRecord, bool) {
	for i := len(l.records) - 1; i >= 0; i-- {
		r := l.records[i]
		if r.BookID == bookID && r.MemberID == memberID && r.Active() {
			return r.clone(), true
		}
	}
	return BorrowRecord{}, false
}

// Append stores a new record, assigning it an ID, and returns the stored copy.
func (l *Ledger) Append(rec BorrowRecord) BorrowRecord {
	rec = rec.clone()
	rec.ID = uuid.New()
	l.records = append(l.records, &rec)
	l.byID[rec.ID] = &rec
	if rec.Active() {
		l.index(rec.BookID)[rec.ID] = struct{}{}
	}
	return rec.clone()
}

func (l *Ledger) index(bookID string) map[uuid.UUID]struct{} {
	set, ok := l.byBook[bookID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		l.byBook[bookID] = set
	}
	return set
}

// Close sets the return date of record id. A record is closed at most once;
// closing it again fails and keeps the original return date.
func (l *Ledger) Close(id uuid.UUID, at time.Time) (BorrowRecord, error) {
	r, ok := l.byID[id]
	if !ok {
		return BorrowRecord{}, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	if !r.Active() {
		return r.clone(), fmt.Errorf("record %s returned %s: %w",
			id, r.ReturnedAt.Format(time.DateOnly), ErrAlreadyReturned)
	}
	r.ReturnedAt = &at
	if set := l.byBook[r.BookID]; set != nil {
		delete(set, id)
		if len(set) == 0 {
			delete(l.byBook, r.BookID)
		}
	}
	return r.clone(), nil
}

// HistoryFor returns every record of memberID.
func (l *Ledger) HistoryFor(memberID string) []BorrowRecord {
	return l.filter(func(r *BorrowRecord) bool { return r.MemberID == memberID })
}

// Active returns every unreturned record.
func (l *Ledger) Active() []BorrowRecord {
	return l.filter(func(r *BorrowRecord) bool { return r.Active() })
}

// History returns every record.
func (l *Ledger) History() []BorrowRecord {
	return l.filter(func(*BorrowRecord) bool { return true })
}

func (l *Ledger) filter(keep func(*BorrowRecord) bool) []BorrowRecord {
	out := []BorrowRecord{}
	for _, r := range l.records {
		if keep(r) {
			out = append(out, r.clone())
		}
	}
	return out
}
