package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDirectoryValidation(t *testing.T) {
	tests := []struct {
		name    string
		entries []DirectoryEntry
		wantErr error
	}{
		{name: "empty"},
		{name: "admin", entries: []DirectoryEntry{{Login: "a", Role: RoleAdmin}}},
		{name: "student linked", entries: []DirectoryEntry{{Login: "s", Role: RoleStudent, MemberID: "S1"}}},
		{name: "staff unlinked", entries: []DirectoryEntry{{Login: "s", Role: RoleStaff}}, wantErr: ErrInvalidInput},
		{name: "admin linked", entries: []DirectoryEntry{{Login: "a", Role: RoleAdmin, MemberID: "S1"}}, wantErr: ErrInvalidInput},
		{name: "unknown role", entries: []DirectoryEntry{{Login: "x", Role: "janitor"}}, wantErr: ErrInvalidInput},
		{name: "blank login", entries: []DirectoryEntry{{Role: RoleAdmin}}, wantErr: ErrInvalidInput},
		{
			name:    "duplicate",
			entries: []DirectoryEntry{{Login: "a", Role: RoleAdmin}, {Login: "a", Role: RoleAdmin}},
			wantErr: ErrDuplicateID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDirectory(tt.entries...)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDirectoryVerifyLogin(t *testing.T) {
	d, err := NewDirectory(DirectoryEntry{Login: "Briel", Secret: "briel01", Role: RoleStaff, MemberID: "ST001"})
	require.NoError(t, err)

	role, ok := d.VerifyLogin("Briel", "briel01")
	assert.True(t, ok)
	assert.Equal(t, RoleStaff, role)

	_, ok = d.VerifyLogin("briel", "briel01")
	assert.False(t, ok, "logins are case sensitive")
	_, ok = d.VerifyLogin("Briel", "")
	assert.False(t, ok)
}
