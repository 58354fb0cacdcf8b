package library

import (
	"fmt"
	"slices"
)

// Roster owns member records in insertion order.
// It is not safe for concurrent use; LibraryManager serializes access.
type Roster struct {
	members map[string]*Member
	order   []string
}

func NewRoster() *Roster {
	return &Roster{members: make(map[string]*Member)}
}

// Add registers a member with an empty borrowed list.
func (r *Roster) Add(id, name, email string) error {
	m := Member{ID: id, Name: name, Email: email, Borrowed: []string{}}
	if err := checkFields(m); err != nil {
		return err
	}
	if _, ok := r.members[id]; ok {
		return fmt.Errorf("member %s: %w", id, ErrDuplicateID)
	}
	r.members[id] = &m
	r.order = append(r.order, id)
	return nil
}

// Update applies the present fields of u to member id.
func (r *Roster) Update(id string, u MemberUpdate) error {
	m, ok := r.members[id]
	if !ok {
		return fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.Email != nil {
		m.Email = *u.Email
	}
	return nil
}

// Delete removes member id when it has nothing borrowed.
func (r *Roster) Delete(id string) error {
	m, ok := r.members[id]
	if !ok {
		return fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	if len(m.Borrowed) > 0 {
		return fmt.Errorf("member %s: %d books borrowed: %w", id, len(m.Borrowed), ErrHasActiveBorrows)
	}
	delete(r.members, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return nil
}

// Find returns a copy of member id.
func (r *Roster) Find(id string) (Member, bool) {
	m, ok := r.members[id]
	if !ok {
		return Member{}, false
	}
	return m.clone(), true
}

// List returns copies of every member in insertion order.
func (r *Roster) List() []Member {
	out := make([]Member, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.members[id].clone())
	}
	return out
}

// addBorrowed appends bookID to the member's borrowed list. Callers check existence first.
func (r *Roster) addBorrowed(memberID, bookID string) {
	m := r.members[memberID]
	m.Borrowed = append(m.Borrowed, bookID)
}

// removeBorrowed drops the first occurrence of bookID, if any, and reports whether one was found.
func (r *Roster) removeBorrowed(memberID, bookID string) bool {
	m, ok := r.members[memberID]
	if !ok {
		return false
	}
	i := slices.Index(m.Borrowed, bookID)
	if i < 0 {
		return false
	}
	m.Borrowed = slices.Delete(m.Borrowed, i, i+1)
	return true
}
