package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterAddUpdateDelete(t *testing.T) {
	r := NewRoster()
	require.NoError(t, r.Add("M1", "Ann", "ann@x.io"))
	require.ErrorIs(t, r.Add("M1", "Dup", "dup@x.io"), ErrDuplicateID)
	require.ErrorIs(t, r.Add("", "Blank", "b@x.io"), ErrInvalidInput)

	m, ok := r.Find("M1")
	require.True(t, ok)
	assert.Equal(t, Member{ID: "M1", Name: "Ann", Email: "ann@x.io", Borrowed: []string{}}, m)

	require.NoError(t, r.Update("M1", MemberUpdate{Email: Ptr("new@x.io")}))
	m, _ = r.Find("M1")
	assert.Equal(t, "Ann", m.Name)
	assert.Equal(t, "new@x.io", m.Email)
	require.ErrorIs(t, r.Update("M9", MemberUpdate{Name: Ptr("x")}), ErrNotFound)

	r.addBorrowed("M1", "B1")
	require.ErrorIs(t, r.Delete("M1"), ErrHasActiveBorrows)
	assert.True(t, r.removeBorrowed("M1", "B1"))
	require.NoError(t, r.Delete("M1"))
	require.ErrorIs(t, r.Delete("M1"), ErrNotFound)
	assert.Empty(t, r.List())
}

func TestRosterRemoveBorrowedTakesOneOccurrence(t *testing.T) {
	r := NewRoster()
	require.NoError(t, r.Add("M1", "Ann", "ann@x.io"))
	r.addBorrowed("M1", "B1")
	r.addBorrowed("M1", "B2")
	r.addBorrowed("M1", "B1")

	assert.True(t, r.removeBorrowed("M1", "B1"))
	m, _ := r.Find("M1")
	assert.Equal(t, []string{"B2", "B1"}, m.Borrowed)

	assert.False(t, r.removeBorrowed("M1", "B7"))
	assert.False(t, r.removeBorrowed("M404", "B1"))
}

func TestRosterFindReturnsCopy(t *testing.T) {
	r := NewRoster()
	require.NoError(t, r.Add("M1", "Ann", "ann@x.io"))
	r.addBorrowed("M1", "B1")

	m, _ := r.Find("M1")
	m.Borrowed[0] = "X"
	m.Borrowed = append(m.Borrowed, "Y")

	again, _ := r.Find("M1")
	assert.Equal(t, []string{"B1"}, again.Borrowed)
}
