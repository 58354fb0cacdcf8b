package library

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	// BorrowLimit is the maximum number of simultaneous active borrows per member.
	BorrowLimit = 3
	// LoanPeriod is the interval between a borrow date and its due date. It is recorded, never enforced.
	LoanPeriod = 7 * 24 * time.Hour
)

// Genres is the closed set a book's genre must belong to.
var Genres = []string{"Fiction", "Non-Fiction", "Sci-Fi", "Biography", "Education"}

// ValidGenre reports whether g is one of Genres.
func ValidGenre(g string) bool { return slices.Contains(Genres, g) }

// Book represents a catalog title and how many physical copies the library owns.
// Availability is never stored; it is TotalCopies minus the ledger's active count.
type Book struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre" validate:"genre"`
	TotalCopies int    `json:"total_copies" validate:"gte=0"`
}

// Member represents a registered library member.
type Member struct {
	ID       string   `json:"id" validate:"required"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Borrowed []string `json:"borrowed_books"`
}

func (m Member) clone() Member {
	m.Borrowed = slices.Clone(m.Borrowed)
	if m.Borrowed == nil {
		m.Borrowed = []string{}
	}
	return m
}

// BorrowRecord is one borrow event. MemberName and BookTitle are snapshots taken at
// borrow time and do not follow later renames.
type BorrowRecord struct {
	ID         uuid.UUID  `json:"id"`
	BookID     string     `json:"book_id"`
	MemberID   string     `json:"member_id"`
	MemberName string     `json:"member_name"`
	BookTitle  string     `json:"title"`
	BorrowedAt time.Time  `json:"date_borrowed"`
	DueAt      time.Time  `json:"due_date"`
	ReturnedAt *time.Time `json:"date_returned"`
}

// Active reports whether the record has not been returned yet.
func (r BorrowRecord) Active() bool { return r.ReturnedAt == nil }

func (r BorrowRecord) clone() BorrowRecord {
	if r.ReturnedAt != nil {
		at := *r.ReturnedAt
		r.ReturnedAt = &at
	}
	return r
}

// BookUpdate lists the fields to change on a book. Nil fields are left untouched;
// a non-nil pointer to an empty string is applied as-is.
type BookUpdate struct {
	Title       *string
	Author      *string
	Genre       *string
	TotalCopies *int
}

// MemberUpdate lists the fields to change on a member. Nil fields are left untouched.
type MemberUpdate struct {
	Name  *string
	Email *string
}

// Ptr returns a pointer to v, for building BookUpdate and MemberUpdate values.
func Ptr[T any](v T) *T { return &v }

// Role is a directory role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
	RoleStudent Role = "student"
)

// DirectoryEntry maps a login to a role and, for staff and students, a member ID.
type DirectoryEntry struct {
	Login    string `json:"login"`
	Secret   string `json:"-"`
	Role     Role   `json:"role"`
	MemberID string `json:"member_id,omitempty"`
}

// Snapshot is the complete library state at one instant, used by the archive exporters.
type Snapshot struct {
	TakenAt time.Time      `json:"taken_at"`
	Books   []Book         `json:"books"`
	Members []Member       `json:"members"`
	Records []BorrowRecord `json:"borrow_history"`
}
