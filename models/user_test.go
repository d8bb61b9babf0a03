package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserTableName(t *testing.T) {
	user := User{}
	assert.Equal(t, "users", user.TableName(), "Table name should be 'users'")
}

func TestUserRoleValues(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		isAdmin bool
	}{
		{"customer role", RoleCustomer, false},
		{"admin role", RoleAdmin, true},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := User{Email: "test@example.com", Role: tt.role}
			assert.Equal(t, tt.isAdmin, user.IsAdmin())
		})
	}
}

func TestUserHasPhone(t *testing.T) {
	empty := ""
	phone := "+91 98765 43210"

	assert.False(t, User{}.HasPhone(), "nil phone should not count")
	assert.False(t, User{Phone: &empty}.HasPhone(), "blank phone should not count")
	assert.True(t, User{Phone: &phone}.HasPhone())
}
