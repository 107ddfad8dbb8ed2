package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/robit-auth/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// Result is the outcome of a credential check.
type Result int

const (
	Valid Result = iota
	InvalidUsername
	InvalidPassword
)

func (r Result) String() string {
	switch r {
	case Valid:
		return "valid"
	case InvalidUsername:
		return "invalid username"
	case InvalidPassword:
		return "invalid password"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

type Service interface {
	Check(ctx context.Context, username, password string) (Result, error)
}

type accountStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
}

type service struct {
	accounts accountStore
}

func NewService(accounts accountStore) Service {
	return &service{accounts: accounts}
}

// Check validates a plaintext username/password pair. A wrong username or
// password is a normal Result; only backend faults are returned as errors.
func (s *service) Check(ctx context.Context, username, password string) (Result, error) {
	a, err := s.accounts.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return InvalidUsername, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrAuthenticationFailed, err)
	}
	err = bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
	switch {
	case err == nil:
		return Valid, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return InvalidPassword, nil
	default:
		return 0, fmt.Errorf("%w: compare password: %w", domain.ErrAuthenticationFailed, err)
	}
}
