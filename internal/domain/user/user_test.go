package user

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayhive/service-rental/internal/domain"
)

func TestNewUser_Valid(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	u, err := NewUser("Ada", "Lovelace", "Ada@Example.COM ", "$2a$10$hash", "", now)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, u.ID())
	assert.Equal(t, "ada@example.com", u.Email(), "email should be trimmed and lowercased")
	assert.Equal(t, now, u.CreatedAt())
}

func TestNewUser_Invalid(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name string
		run  func() error
	}{
		{"missing first name", func() error {
			_, err := NewUser("", "Lovelace", "a@b.com", "hash", "", now)
			return err
		}},
		{"missing last name", func() error {
			_, err := NewUser("Ada", "", "a@b.com", "hash", "", now)
			return err
		}},
		{"email without at sign", func() error {
			_, err := NewUser("Ada", "Lovelace", "not-an-email", "hash", "", now)
			return err
		}},
		{"empty password hash", func() error {
			_, err := NewUser("Ada", "Lovelace", "a@b.com", "", "", now)
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			require.Error(t, err)
			var validation *domain.ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}
}
