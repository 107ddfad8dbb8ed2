package invite

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/robit-auth/internal/domain"
	"github.com/robit-auth/internal/pkg/code"
)

// maxAttempts bounds retries on a collision with a live code.
const maxAttempts = 5

// Store holds live invite codes and the time they were issued.
type Store interface {
	PutIfAbsent(code string, issuedAt time.Time) bool
	Has(code string) bool
	TTL() time.Duration
}

type Service interface {
	Issue(ctx context.Context, secret string) (*domain.InviteCode, error)
	Valid(code string) bool
	ExpiresIn() time.Duration
}

type service struct {
	store    Store
	secret   []byte
	generate func() (string, error)
	now      func() time.Time
}

type ServiceDeps struct {
	Store  Store
	Secret string
	// Generate and Now default to code.NewInvite and time.Now.
	Generate func() (string, error)
	Now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:    deps.Store,
		secret:   []byte(deps.Secret),
		generate: deps.Generate,
		now:      deps.Now,
	}
	if s.generate == nil {
		s.generate = code.NewInvite
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Issue creates and records a new invite code when secret matches the
// configured invite secret.
func (s *service) Issue(_ context.Context, secret string) (*domain.InviteCode, error) {
	if len(s.secret) == 0 || subtle.ConstantTimeCompare([]byte(secret), s.secret) != 1 {
		return nil, domain.ErrInvalidSecret
	}
	for i := 0; i < maxAttempts; i++ {
		c, err := s.generate()
		if err != nil {
			return nil, err
		}
		issuedAt := s.now().UTC()
		if s.store.PutIfAbsent(c, issuedAt) {
			return &domain.InviteCode{Code: c, IssuedAt: issuedAt}, nil
		}
	}
	return nil, fmt.Errorf("no free invite code after %d attempts", maxAttempts)
}

func (s *service) Valid(code string) bool {
	return code != "" && s.store.Has(code)
}

func (s *service) ExpiresIn() time.Duration {
	return s.store.TTL()
}
