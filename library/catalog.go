package library

import (
	"fmt"
	"slices"
	"strings"
)

// activeCounter is the part of the ledger the catalog needs to protect
// copies that are currently out.
type activeCounter interface {
	ActiveCountFor(bookID string) int
}

// Catalog owns book records keyed by ID, kept in insertion order.
// It is not safe for concurrent use; LibraryManager serializes access.
type Catalog struct {
	books  map[string]Book
	order  []string
	active activeCounter
}

// NewCatalog returns an empty catalog that consults active for borrowed-copy counts.
func NewCatalog(active activeCounter) *Catalog {
	return &Catalog{books: make(map[string]Book), active: active}
}

// Add inserts a new book.
func (c *Catalog) Add(b Book) error {
	if err := checkFields(b); err != nil {
		return err
	}
	if _, ok := c.books[b.ID]; ok {
		return fmt.Errorf("book %s: %w", b.ID, ErrDuplicateID)
	}
	c.books[b.ID] = b
	c.order = append(c.order, b.ID)
	return nil
}

// Update applies the present fields of u to book id. Every field is validated
// before any is written.
func (c *Catalog) Update(id string, u BookUpdate) error {
	b, ok := c.books[id]
	if !ok {
		return fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	if u.Title != nil {
		b.Title = *u.Title
	}
	if u.Author != nil {
		b.Author = *u.Author
	}
	if u.Genre != nil {
		b.Genre = *u.Genre
	}
	if u.TotalCopies != nil {
		b.TotalCopies = *u.TotalCopies
	}
	if err := checkFields(b); err != nil {
		return fmt.Errorf("book %s: %w", id, err)
	}
	if u.TotalCopies != nil {
		if out := c.active.ActiveCountFor(id); b.TotalCopies < out {
			return fmt.Errorf("book %s: %d copies requested but %d borrowed: %w",
				id, b.TotalCopies, out, ErrInsufficientCopies)
		}
	}
	c.books[id] = b
	return nil
}

// Delete removes book id when none of its copies are borrowed.
func (c *Catalog) Delete(id string) error {
	if _, ok := c.books[id]; !ok {
		return fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	if out := c.active.ActiveCountFor(id); out > 0 {
		return fmt.Errorf("book %s: %d copies borrowed: %w", id, out, ErrHasActiveBorrows)
	}
	delete(c.books, id)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == id })
	return nil
}

// Get returns a copy of book id.
func (c *Catalog) Get(id string) (Book, bool) {
	b, ok := c.books[id]
	return b, ok
}

// List returns copies of every book in insertion order.
func (c *Catalog) List() []Book {
	out := make([]Book, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.books[id])
	}
	return out
}

// SearchField selects which book field Search matches against.
type SearchField string

const (
	SearchTitle  SearchField = "title"
	SearchAuthor SearchField = "author"
)

// ParseSearchField maps user input onto a SearchField. Empty input means title.
func ParseSearchField(s string) (SearchField, error) {
	switch f := SearchField(strings.ToLower(strings.TrimSpace(s))); f {
	case "", SearchTitle:
		return SearchTitle, nil
	case SearchAuthor:
		return SearchAuthor, nil
	default:
		return "", fmt.Errorf("%w: search field %q", ErrInvalidInput, s)
	}
}

// Search does a case-insensitive substring match of query against field.
// An empty query matches every book. Results keep insertion order.
func (c *Catalog) Search(query string, field SearchField) []Book {
	q := strings.ToLower(query)
	var res []Book
	for _, b := range c.List() {
		v := b.Title
		if field == SearchAuthor {
			v = b.Author
		}
		if strings.Contains(strings.ToLower(v), q) {
			res = append(res, b)
		}
	}
	return res
}
