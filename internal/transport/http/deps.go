package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/robit-auth/internal/domain"
	"github.com/robit-auth/internal/infrastructure/smtp"
	"github.com/robit-auth/internal/pkg/expiry"
)

// AccountRepository is the minimal interface the router requires from the durable account store.
type AccountRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
}

// Stores holds the process-local expiring stores. They are owned by the
// caller so the same instances can be handed to an expiry.Janitor.
type Stores struct {
	Invites *expiry.Store[string, time.Time]
	Pending *expiry.Store[string, domain.PendingUser]
	Codes   *expiry.Store[string, string]
}

// NewStores creates the three stores with their configured lifetimes.
// Pending registrations share the verification-code lifetime.
func NewStores(inviteTTL, codeTTL time.Duration, opts ...expiry.Option) Stores {
	return Stores{
		Invites: expiry.NewStore[string, time.Time](inviteTTL, opts...),
		Pending: expiry.NewStore[string, domain.PendingUser](codeTTL, opts...),
		Codes:   expiry.NewStore[string, string](codeTTL, opts...),
	}
}

// Register adds every store to j.
func (s Stores) Register(j *expiry.Janitor) {
	j.Register("invites", s.Invites)
	j.Register("pending", s.Pending)
	j.Register("codes", s.Codes)
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	Accounts AccountRepository
	Mailer   smtp.Mailer
	Stores   Stores
	Logger   *slog.Logger
}
