package registration

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robit-auth/internal/domain"
	"github.com/robit-auth/internal/pkg/code"
	"github.com/robit-auth/internal/pkg/id"
	"github.com/robit-auth/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// Service drives a registration from invite code to verified account.
type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) error
	VerifyEmail(ctx context.Context, req domain.VerifyEmailRequest) error
	HasPending(email string) bool
}

type inviteStore interface {
	Has(code string) bool
	Delete(code string) bool
}

type pendingStore interface {
	PutIfAbsent(email string, u domain.PendingUser) bool
	Get(email string) (domain.PendingUser, bool)
	Has(email string) bool
	Delete(email string) bool
}

type codeStore interface {
	Put(email, code string)
	Get(email string) (string, bool)
	Delete(email string) bool
	TTL() time.Duration
}

type accountStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
}

type mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

type service struct {
	invites    inviteStore
	pending    pendingStore
	codes      codeStore
	accounts   accountStore
	mailer     mailer
	bcryptCost int
	singleUse  bool
	brand      string
	newCode    func() (string, error)
	now        func() time.Time
	logger     *slog.Logger
}

type ServiceDeps struct {
	Invites  inviteStore
	Pending  pendingStore
	Codes    codeStore
	Accounts accountStore
	Mailer   mailer

	BcryptCost int
	// SingleUseInvites consumes an invite code on the first successful
	// registration. When false a code admits registrations until it expires.
	SingleUseInvites bool
	Brand            string

	// Optional; default to code.NewVerification, time.Now and slog.Default.
	NewCode func() (string, error)
	Now     func() time.Time
	Logger  *slog.Logger
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		invites:    deps.Invites,
		pending:    deps.Pending,
		codes:      deps.Codes,
		accounts:   deps.Accounts,
		mailer:     deps.Mailer,
		bcryptCost: deps.BcryptCost,
		singleUse:  deps.SingleUseInvites,
		brand:      deps.Brand,
		newCode:    deps.NewCode,
		now:        deps.Now,
		logger:     deps.Logger,
	}
	if s.bcryptCost == 0 {
		s.bcryptCost = 12
	}
	if s.brand == "" {
		s.brand = "Robit"
	}
	if s.newCode == nil {
		s.newCode = code.NewVerification
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Register validates an invite-gated registration, parks it as a pending user
// and emails a verification code. When the email cannot be delivered the
// pending user and code are kept so the registrant can still verify.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) error {
	if req.TempCode == "" || !s.invites.Has(req.TempCode) {
		return domain.ErrInvalidInviteCode
	}
	if err := validate.Struct(req); err != nil {
		return domain.ErrInvalidRequest.With(err.Error())
	}

	taken, err := s.exists(ctx, s.accounts.GetByUsername, req.Username)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrUsernameTaken
	}
	taken, err = s.exists(ctx, s.accounts.GetByEmail, req.Email)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrEmailTaken
	}

	// Fast path; PutIfAbsent below is the authoritative check.
	if s.pending.Has(req.Email) {
		return domain.ErrVerificationPending
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return domain.ErrInvalidRequest.With("password must be at most 72 bytes")
	}
	if err != nil {
		return fmt.Errorf("%w: hash password: %w", domain.ErrRegistrationFailed, err)
	}
	verification, err := s.newCode()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRegistrationFailed, err)
	}

	pu := domain.PendingUser{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if !s.pending.PutIfAbsent(req.Email, pu) {
		return domain.ErrVerificationPending
	}
	s.codes.Put(req.Email, verification)

	if s.singleUse && !s.invites.Delete(req.TempCode) {
		// Another registration consumed the invite first.
		s.discard(req.Email)
		return domain.ErrInvalidInviteCode
	}

	subject, body, err := renderVerificationEmail(s.brand, verification, s.codes.TTL())
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotificationFailed, err)
	}
	if err := s.mailer.SendEmail(ctx, req.Email, subject, body); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotificationFailed, err)
	}
	s.logger.Info("registration pending verification", "username", req.Username, "email", req.Email)
	return nil
}

// VerifyEmail promotes a pending user to a durable account when code matches
// the one sent to the email address.
func (s *service) VerifyEmail(ctx context.Context, req domain.VerifyEmailRequest) error {
	pu, hasUser := s.pending.Get(req.Email)
	stored, hasCode := s.codes.Get(req.Email)
	if !hasUser || !hasCode {
		return domain.ErrNoPendingVerification
	}
	if subtle.ConstantTimeCompare([]byte(req.Code), []byte(stored)) != 1 {
		return domain.ErrCodeMismatch
	}

	now := s.now().UTC()
	a := &domain.Account{
		AccountID:    id.New(),
		Username:     pu.Username,
		Email:        pu.Email,
		PasswordHash: pu.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	s.discard(req.Email)
	s.logger.Info("account created", "account_id", a.AccountID, "username", a.Username)
	return nil
}

func (s *service) HasPending(email string) bool {
	return s.pending.Has(email)
}

func (s *service) discard(email string) {
	s.pending.Delete(email)
	s.codes.Delete(email)
}

// exists reports whether lookup finds an account for value. Lookup failures
// other than not-found are dependency errors.
func (s *service) exists(ctx context.Context, lookup func(context.Context, string) (*domain.Account, error), value string) (bool, error) {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", domain.ErrRegistrationFailed, err)
	}
}
