package library

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/ini.v1"
)

//go:embed seed.ini
var defaultSeed []byte

// Seed is the initial dataset a library starts from.
type Seed struct {
	Books   []Book
	Members []Member
	Users   []DirectoryEntry
}

// DefaultSeed parses the embedded dataset: three books, five members and seven logins.
func DefaultSeed() (Seed, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeed parses the INI file at path.
func LoadSeed(path string) (Seed, error) {
	return ParseSeed(path)
}

// seedLoadOptions keeps '#' and ';' inside values and keeps repeated sections
// apart, so a duplicated id reaches Build as two records.
var seedLoadOptions = ini.LoadOptions{
	IgnoreInlineComment:    true,
	AllowNonUniqueSections: true,
}

// ParseSeed reads a seed from INI source (a file name or []byte, as accepted by ini.Load).
// Sections are named kind.id where kind is book, member or user. Every malformed
// section is reported, not only the first. Only whole-line comments are recognised.
func ParseSeed(source any) (Seed, error) {
	cfg, err := ini.LoadSources(seedLoadOptions, source)
	if err != nil {
		return Seed{}, fmt.Errorf("load seed: %w", err)
	}

	var (
		seed Seed
		errs *multierror.Error
	)
	for _, sec := range cfg.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection {
			continue
		}
		kind, id, ok := strings.Cut(name, ".")
		if !ok || id == "" {
			errs = multierror.Append(errs, fmt.Errorf("section [%s]: want kind.id: %w", name, ErrInvalidInput))
			continue
		}
		switch kind {
		case "book":
			copies, err := sec.Key("copies").Int()
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("section [%s]: copies: %w", name, ErrInvalidCopies))
				continue
			}
			seed.Books = append(seed.Books, Book{
				ID:          id,
				Title:       sec.Key("title").String(),
				Author:      sec.Key("author").String(),
				Genre:       sec.Key("genre").String(),
				TotalCopies: copies,
			})
		case "member":
			seed.Members = append(seed.Members, Member{
				ID:    id,
				Name:  sec.Key("name").String(),
				Email: sec.Key("email").String(),
			})
		case "user":
			seed.Users = append(seed.Users, DirectoryEntry{
				Login:    id,
				Secret:   sec.Key("password").String(),
				Role:     Role(sec.Key("role").String()),
				MemberID: sec.Key("member").String(),
			})
		default:
			errs = multierror.Append(errs, fmt.Errorf("section [%s]: unknown kind %q: %w", name, kind, ErrInvalidInput))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

// Build creates a library holding the seed's books, members and logins.
// All invalid records are reported together and no manager is returned.
func (s Seed) Build(opts ...Option) (*LibraryManager, error) {
	var errs *multierror.Error

	dir, err := NewDirectory(s.Users...)
	if err != nil {
		errs = multierror.Append(errs, err)
		dir, _ = NewDirectory()
	}
	lm := NewLibraryManager(append(opts[:len(opts):len(opts)], WithDirectory(dir))...)

	for _, b := range s.Books {
		if err := lm.AddBook(b); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	for _, m := range s.Members {
		if err := lm.AddMember(m.ID, m.Name, m.Email); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	for _, u := range s.Users {
		if u.MemberID == "" {
			continue
		}
		if _, err := lm.GetMember(u.MemberID); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("login %s: %w", u.Login, err))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return lm, nil
}
