package repository

import (
	"errors"

	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/domain/entity"
)

// ErrNotFound is returned by implementations when no user matches the lookup
// key. Callers distinguish it from infrastructure failures with errors.Is.
var ErrNotFound = errors.New("user not found")

// ErrDuplicate is returned by Create when the email is already taken. Two
// concurrent signups can both pass the lookup check; the unique index is the
// arbiter and this error carries its verdict.
var ErrDuplicate = errors.New("email already registered")

// UserRepository defines the interface for credential-store operations.
type UserRepository interface {
	Create(u *entity.User) error
	GetByID(id string) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	Update(u *entity.User) error
}
