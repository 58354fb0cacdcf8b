package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"library-hub/library"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// session drives one console: login, then the menu of the logged-in role, until
// the user exits or input ends.
type session struct {
	mgr *library.LibraryManager
	sc  *bufio.Scanner
	out io.Writer

	// masked reads secrets from the terminal without echo.
	masked bool
	// archive is where the admin export writes; see archiveFormat.
	archive string
}

func newSession(mgr *library.LibraryManager, sc *bufio.Scanner, out io.Writer) *session {
	return &session{mgr: mgr, sc: sc, out: out}
}

// errQuit ends the session: the user chose exit, or input ran out.
var errQuit = errors.New("quit")

func (s *session) printf(format string, args ...any) { fmt.Fprintf(s.out, format, args...) }
func (s *session) println(args ...any)               { fmt.Fprintln(s.out, args...) }

// ask prints prompt and reads one trimmed line.
func (s *session) ask(prompt string) (string, error) {
	s.printf("%s", prompt)
	if !s.sc.Scan() {
		return "", errQuit
	}
	return strings.TrimSpace(s.sc.Text()), nil
}

// askNonEmpty repeats the prompt until a non-blank line is entered.
func (s *session) askNonEmpty(prompt string) (string, error) {
	for {
		v, err := s.ask(prompt)
		if err != nil || v != "" {
			return v, err
		}
		s.println("Input cannot be empty.")
	}
}

// askOptional reads a line where blank means "leave unchanged".
func (s *session) askOptional(prompt string) (*string, error) {
	v, err := s.ask(prompt)
	if err != nil || v == "" {
		return nil, err
	}
	return &v, nil
}

func (s *session) askSecret(prompt string) (string, error) {
	if !s.masked {
		return s.ask(prompt)
	}
	s.printf("%s", prompt)
	b, err := readPassword(int(os.Stdin.Fd()))
	s.println()
	if err != nil {
		return "", errQuit
	}
	return strings.TrimSpace(string(b)), nil
}

func (s *session) run() {
	s.println("\n📘 Library Hub")
	for {
		login, role, err := s.login()
		if err != nil {
			s.println("Goodbye 👋")
			return
		}
		switch role {
		case library.RoleAdmin:
			err = s.adminMenu()
		case library.RoleStaff:
			err = s.staffMenu(login)
		case library.RoleStudent:
			err = s.studentMenu(login)
		}
		if err != nil {
			s.println("Goodbye 👋")
			return
		}
		s.println("\nSession ended. Returning to login menu...")
	}
}

var roleChoices = map[string]library.Role{
	"1": library.RoleAdmin,
	"2": library.RoleStaff,
	"3": library.RoleStudent,
}

// login asks for a role, then credentials. A valid login for a different role
// sends the user back to the role choice.
func (s *session) login() (string, library.Role, error) {
	for {
		s.println("\n==============================")
		s.println("  WELCOME TO THE LIBRARY HUB  ")
		s.println("==============================")
		s.println("Who is logging in?")
		s.println("1) Admin\n2) Staff\n3) Student\n0) Exit System")

		choice, err := s.ask("Enter your choice: ")
		if err != nil || choice == "0" {
			return "", "", errQuit
		}
		want, ok := roleChoices[choice]
		if !ok {
			s.println("Invalid choice. Please enter 1, 2, 3, or 0.")
			continue
		}

		s.printf("\nWelcome, %s! Please enter your login details below.\n", titleCase(string(want)))
		for {
			user, err := s.ask("Username: ")
			if err != nil {
				return "", "", err
			}
			secret, err := s.askSecret("Password: ")
			if err != nil {
				return "", "", err
			}
			role, ok := s.mgr.VerifyLogin(user, secret)
			if !ok {
				s.println("❌ Invalid username or password. Please try again.")
				continue
			}
			if role != want {
				s.printf("⚠️ That username belongs to a %s. Please select the correct category.\n", role)
				break
			}
			s.printf("\n✅ Login successful! Welcome %s (%s)\n", user, titleCase(string(role)))
			return user, role, nil
		}
	}
}

// linkedMember resolves the member behind a staff or student login.
func (s *session) linkedMember(login string) (string, bool) {
	acct, ok := s.mgr.Account(login)
	if !ok || acct.MemberID == "" {
		s.println("❌ No member ID linked to this account.")
		return "", false
	}
	return acct.MemberID, true
}

// ------------------ Menus ------------------

func (s *session) adminMenu() error {
	for {
		s.println("\n=== ADMIN MENU ===")
		s.println("1) List books\n2) Add book\n3) Update book\n4) Delete book")
		s.println("5) List members\n6) Add member\n7) Update member\n8) Delete member")
		s.println("9) View active borrows\n10) View full borrow history\n11) Export archive\n0) Logout")
		choice, err := s.ask("Choice: ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			s.listBooks()
		case "2":
			err = s.addBook()
		case "3":
			err = s.updateBook()
		case "4":
			err = s.deleteBook()
		case "5":
			s.listMembers()
		case "6":
			err = s.addMember()
		case "7":
			err = s.updateMember()
		case "8":
			err = s.deleteMember()
		case "9":
			s.println("\n📚 Active Borrows:")
			s.printRecords(s.mgr.ActiveBorrows(), "None")
		case "10":
			s.println("\n📖 Borrow History:")
			s.printRecords(s.mgr.BorrowHistory(), "No history.")
		case "11":
			s.exportArchive()
		case "0":
			s.println("👋 Logging out Admin...")
			return nil
		default:
			s.println("Invalid choice.")
		}
		if err != nil {
			return err
		}
	}
}

func (s *session) staffMenu(login string) error {
	memberID, ok := s.linkedMember(login)
	if !ok {
		return nil
	}
	for {
		s.println("\n=== STAFF MENU ===")
		s.println("1) List books\n2) Borrow book (for yourself)\n3) Return book\n4) Search books\n0) Logout")
		choice, err := s.ask("Choice: ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			s.listBooks()
		case "2":
			err = s.borrow(memberID)
		case "3":
			err = s.giveBack(memberID)
		case "4":
			err = s.search()
		case "0":
			s.println("👋 Logging out Staff...")
			return nil
		default:
			s.println("Invalid choice.")
		}
		if err != nil {
			return err
		}
	}
}

func (s *session) studentMenu(login string) error {
	memberID, ok := s.linkedMember(login)
	if !ok {
		return nil
	}
	for {
		s.println("\n=== STUDENT MENU ===")
		s.println("1) List books\n2) Borrow book\n3) Return book\n4) View borrowed books\n5) View borrow history\n0) Logout")
		choice, err := s.ask("Choice: ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			s.listBooks()
		case "2":
			err = s.borrow(memberID)
		case "3":
			err = s.giveBack(memberID)
		case "4":
			if ids, err := s.mgr.BorrowedBy(memberID); err != nil {
				s.printf("Error: %v\n", err)
			} else {
				s.printf("Borrowed: [%s]\n", strings.Join(ids, ", "))
			}
		case "5":
			s.printRecords(s.mgr.MemberHistory(memberID), "No history.")
		case "0":
			s.println("👋 Logging out Student...")
			return nil
		default:
			s.println("Invalid choice.")
		}
		if err != nil {
			return err
		}
	}
}

// ------------------ Handlers ------------------

func (s *session) listBooks() {
	books := s.mgr.ListBooks()
	if len(books) == 0 {
		s.println("No books in library.")
		return
	}
	s.printf("%-8s %-30s %-20s %-12s %s\n", "ISBN", "Title", "Author", "Genre", "Available")
	s.println(strings.Repeat("-", 85))
	for _, b := range books {
		s.printf("%-8s %-30s %-20s %-12s %s/%d\n",
			b.ID, truncateString(b.Title, 30), truncateString(b.Author, 20), b.Genre, s.available(b.ID), b.TotalCopies)
	}
}

// available formats the shelf count of a listed book, or "?" if it vanished meanwhile.
func (s *session) available(id string) string {
	n, err := s.mgr.Available(id)
	if err != nil {
		return "?"
	}
	return strconv.Itoa(n)
}

func (s *session) addBook() error {
	var b library.Book
	var err error
	if b.ID, err = s.askNonEmpty("ISBN: "); err != nil {
		return err
	}
	if b.Title, err = s.askNonEmpty("Title: "); err != nil {
		return err
	}
	if b.Author, err = s.askNonEmpty("Author: "); err != nil {
		return err
	}
	if b.Genre, err = s.askNonEmpty(fmt.Sprintf("Genre (%s): ", strings.Join(library.Genres, ", "))); err != nil {
		return err
	}
	total, err := s.askNonEmpty("Total copies: ")
	if err != nil {
		return err
	}
	if b.TotalCopies, err = strconv.Atoi(total); err != nil {
		s.printf("❌ Invalid number: %s\n", total)
		return nil
	}
	s.report(s.mgr.AddBook(b), "✅ Added.")
	return nil
}

func (s *session) updateBook() error {
	id, err := s.askNonEmpty("ISBN to update: ")
	if err != nil {
		return err
	}
	var u library.BookUpdate
	if u.Title, err = s.askOptional("New title (or skip): "); err != nil {
		return err
	}
	if u.Author, err = s.askOptional("New author (or skip): "); err != nil {
		return err
	}
	if u.Genre, err = s.askOptional("New genre (or skip): "); err != nil {
		return err
	}
	total, err := s.askOptional("New total copies (or skip): ")
	if err != nil {
		return err
	}
	if total != nil {
		n, convErr := strconv.Atoi(*total)
		if convErr != nil {
			s.printf("❌ Invalid number: %s\n", *total)
			return nil
		}
		u.TotalCopies = &n
	}
	s.report(s.mgr.UpdateBook(id, u), "✅ Updated.")
	return nil
}

func (s *session) deleteBook() error {
	id, err := s.askNonEmpty("ISBN to delete: ")
	if err != nil {
		return err
	}
	s.report(s.mgr.DeleteBook(id), "✅ Deleted.")
	return nil
}

func (s *session) listMembers() {
	for _, m := range s.mgr.ListMembers() {
		s.printf("%s: %s | %s | borrowed: [%s]\n", m.ID, m.Name, m.Email, strings.Join(m.Borrowed, ", "))
	}
}

func (s *session) addMember() error {
	id, err := s.askNonEmpty("Member ID: ")
	if err != nil {
		return err
	}
	name, err := s.askNonEmpty("Name: ")
	if err != nil {
		return err
	}
	email, err := s.askNonEmpty("Email: ")
	if err != nil {
		return err
	}
	s.report(s.mgr.AddMember(id, name, email), "✅ Member added.")
	return nil
}

func (s *session) updateMember() error {
	id, err := s.askNonEmpty("Member ID to update: ")
	if err != nil {
		return err
	}
	var u library.MemberUpdate
	if u.Name, err = s.askOptional("New name (or skip): "); err != nil {
		return err
	}
	if u.Email, err = s.askOptional("New email (or skip): "); err != nil {
		return err
	}
	s.report(s.mgr.UpdateMember(id, u), "✅ Updated.")
	return nil
}

func (s *session) deleteMember() error {
	id, err := s.askNonEmpty("Member ID to delete: ")
	if err != nil {
		return err
	}
	s.report(s.mgr.DeleteMember(id), "✅ Deleted.")
	return nil
}

func (s *session) borrow(memberID string) error {
	id, err := s.askNonEmpty("ISBN to borrow: ")
	if err != nil {
		return err
	}
	rec, err := s.mgr.Borrow(id, memberID)
	if err != nil {
		s.printf("❌ %s\n", reason(err))
		return nil
	}
	s.printf("Borrowed '%s', due %s.\n", rec.BookTitle, rec.DueAt.Format("2006-01-02"))
	return nil
}

func (s *session) giveBack(memberID string) error {
	id, err := s.askNonEmpty("ISBN to return: ")
	if err != nil {
		return err
	}
	rec, err := s.mgr.Return(id, memberID)
	if err != nil {
		s.printf("❌ %s\n", reason(err))
		return nil
	}
	s.printf("Returned '%s' on %s.\n", rec.BookTitle, rec.ReturnedAt.Format("2006-01-02"))
	return nil
}

func (s *session) search() error {
	q, err := s.askNonEmpty("Search query: ")
	if err != nil {
		return err
	}
	by, err := s.ask("By title or author (title default): ")
	if err != nil {
		return err
	}
	field, perr := library.ParseSearchField(by)
	if perr != nil {
		s.printf("❌ %s\n", reason(perr))
		return nil
	}
	res := s.mgr.SearchBooks(q, field)
	if len(res) == 0 {
		s.println("No matches found.")
	}
	for _, b := range res {
		s.printf("%s: %s by %s (%s, %d copies)\n", b.ID, b.Title, b.Author, b.Genre, b.TotalCopies)
	}
	return nil
}

// exportArchive writes the current state, ledger included, to the configured archive.
func (s *session) exportArchive() {
	if s.archive == "" {
		s.println("❌ No archive path configured.")
		return
	}
	if err := writeArchive(s.out, s.mgr.Snapshot(), s.archive, archiveFormat(s.archive)); err != nil {
		s.printf("❌ Export failed: %v\n", err)
	}
}

func (s *session) printRecords(recs []library.BorrowRecord, empty string) {
	if len(recs) == 0 {
		s.println(empty)
		return
	}
	for _, r := range recs {
		returned := "-"
		if r.ReturnedAt != nil {
			returned = r.ReturnedAt.Format("2006-01-02")
		}
		s.printf("%s | %-25s | %s (%s) | borrowed %s | due %s | returned %s\n",
			r.BookID, truncateString(r.BookTitle, 25), r.MemberName, r.MemberID,
			r.BorrowedAt.Format("2006-01-02"), r.DueAt.Format("2006-01-02"), returned)
	}
}

// report prints ok on success or the failure reason.
func (s *session) report(err error, ok string) {
	if err != nil {
		s.printf("❌ Failed: %s\n", reason(err))
		return
	}
	s.println(ok)
}

// reason turns a library error into the message shown to the user.
func reason(err error) string {
	switch {
	case errors.Is(err, library.ErrInsufficientCopies):
		return "No copies available."
	case errors.Is(err, library.ErrBorrowLimitExceeded):
		return fmt.Sprintf("Borrow limit reached (%d).", library.BorrowLimit)
	case errors.Is(err, library.ErrHasActiveBorrows):
		return "Still has borrowed copies."
	default:
		return err.Error()
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// truncateString shortens s to maxLen runes, marking the cut with "...".
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
