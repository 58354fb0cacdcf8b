package library

import "fmt"

// Directory maps logins to roles. It is static after construction.
type Directory struct {
	entries map[string]DirectoryEntry
}

// NewDirectory builds a directory from entries. Staff and student entries must be
// linked to a member, admin entries must not be, and logins must be unique.
func NewDirectory(entries ...DirectoryEntry) (*Directory, error) {
	d := &Directory{entries: make(map[string]DirectoryEntry, len(entries))}
	for _, e := range entries {
		if e.Login == "" {
			return nil, fmt.Errorf("directory entry: empty login: %w", ErrInvalidInput)
		}
		if _, ok := d.entries[e.Login]; ok {
			return nil, fmt.Errorf("login %s: %w", e.Login, ErrDuplicateID)
		}
		switch e.Role {
		case RoleAdmin:
			if e.MemberID != "" {
				return nil, fmt.Errorf("login %s: admin linked to member %s: %w", e.Login, e.MemberID, ErrInvalidInput)
			}
		case RoleStaff, RoleStudent:
			if e.MemberID == "" {
				return nil, fmt.Errorf("login %s: %s needs a member id: %w", e.Login, e.Role, ErrInvalidInput)
			}
		default:
			return nil, fmt.Errorf("login %s: unknown role %q: %w", e.Login, e.Role, ErrInvalidInput)
		}
		d.entries[e.Login] = e
	}
	return d, nil
}

// VerifyLogin compares secret with the stored one in plain text and returns the
// login's role when they match.
func (d *Directory) VerifyLogin(login, secret string) (Role, bool) {
	e, ok := d.entries[login]
	if !ok || e.Secret != secret {
		return "", false
	}
	return e.Role, true
}

// Entry returns the directory entry for login.
func (d *Directory) Entry(login string) (DirectoryEntry, bool) {
	e, ok := d.entries[login]
	return e, ok
}
