package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stayhive/service-rental/internal/domain"
)

// User is a registered account. It participates in the booking core only as
// a reference target (customer or host).
type User struct {
	id               uuid.UUID
	firstName        string
	lastName         string
	email            string
	passwordHash     string
	profileImagePath string
	createdAt        time.Time
}

// NewUser creates a User with an already-hashed password.
func NewUser(firstName, lastName, email, passwordHash, profileImagePath string, now time.Time) (*User, error) {
	if firstName == "" || lastName == "" {
		return nil, domain.NewValidationError("first and last name are required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.NewValidationError("a valid email is required")
	}
	if passwordHash == "" {
		return nil, domain.NewValidationError("password hash is required")
	}

	return &User{
		id:               uuid.New(),
		firstName:        firstName,
		lastName:         lastName,
		email:            email,
		passwordHash:     passwordHash,
		profileImagePath: profileImagePath,
		createdAt:        now.UTC(),
	}, nil
}

// ReconstructUser rebuilds a User from persistence data (no validation).
func ReconstructUser(id uuid.UUID, firstName, lastName, email, passwordHash, profileImagePath string, createdAt time.Time) *User {
	return &User{
		id:               id,
		firstName:        firstName,
		lastName:         lastName,
		email:            email,
		passwordHash:     passwordHash,
		profileImagePath: profileImagePath,
		createdAt:        createdAt,
	}
}

// ID returns the user's unique identifier.
func (u *User) ID() uuid.UUID { return u.id }

// FirstName returns the user's first name.
func (u *User) FirstName() string { return u.firstName }

// LastName returns the user's last name.
func (u *User) LastName() string { return u.lastName }

// Email returns the user's email address.
func (u *User) Email() string { return u.email }

// PasswordHash returns the stored password hash.
func (u *User) PasswordHash() string { return u.passwordHash }

// ProfileImagePath returns the stored profile image path.
func (u *User) ProfileImagePath() string { return u.profileImagePath }

// CreatedAt returns the registration timestamp.
func (u *User) CreatedAt() time.Time { return u.createdAt }
