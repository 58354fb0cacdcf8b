package library

import "errors"

// Failures returned by the catalog, roster, ledger and lending operations.
// Callers match them with errors.Is; the wrapped message carries the offending IDs.
var (
	ErrDuplicateID         = errors.New("duplicate id")
	ErrNotFound            = errors.New("not found")
	ErrInvalidGenre        = errors.New("invalid genre")
	ErrInvalidCopies       = errors.New("invalid copy count")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientCopies  = errors.New("no copies available")
	ErrBorrowLimitExceeded = errors.New("borrow limit reached")
	ErrHasActiveBorrows    = errors.New("has active borrows")
	ErrAlreadyReturned     = errors.New("already returned")
)
