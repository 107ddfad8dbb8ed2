package registration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/robit-auth/internal/domain"
	"github.com/robit-auth/internal/pkg/expiry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- fakes ---

type memoryAccounts struct {
	mu        sync.Mutex
	byName    map[string]*domain.Account
	byEmail   map[string]*domain.Account
	lookupErr error
	createErr error
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byName: map[string]*domain.Account{}, byEmail: map[string]*domain.Account{}}
}

func (m *memoryAccounts) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	if a, ok := m.byName[username]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memoryAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	if a, ok := m.byEmail[email]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memoryAccounts) Create(_ context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.byName[a.Username]; ok {
		return domain.ErrConflict
	}
	if _, ok := m.byEmail[a.Email]; ok {
		return domain.ErrConflict
	}
	m.byName[a.Username] = a
	m.byEmail[a.Email] = a
	return nil
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

type fixture struct {
	now      time.Time
	invites  *expiry.Store[string, time.Time]
	pending  *expiry.Store[string, domain.PendingUser]
	codes    *expiry.Store[string, string]
	accounts *memoryAccounts
	mailer   *mockMailer
	svc      Service
}

func (f *fixture) clock() time.Time { return f.now }

func newFixture(t *testing.T, singleUse bool) *fixture {
	t.Helper()
	f := &fixture{
		now:      time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		accounts: newMemoryAccounts(),
		mailer:   &mockMailer{},
	}
	f.invites = expiry.NewStore[string, time.Time](5*time.Minute, expiry.WithClock(f.clock))
	f.pending = expiry.NewStore[string, domain.PendingUser](10*time.Minute, expiry.WithClock(f.clock))
	f.codes = expiry.NewStore[string, string](10*time.Minute, expiry.WithClock(f.clock))
	f.svc = NewService(ServiceDeps{
		Invites:          f.invites,
		Pending:          f.pending,
		Codes:            f.codes,
		Accounts:         f.accounts,
		Mailer:           f.mailer,
		BcryptCost:       bcrypt.MinCost,
		SingleUseInvites: singleUse,
		NewCode:          func() (string, error) { return "48213", nil },
		Now:              f.clock,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	f.invites.Put("7xAbk9", f.now)
	return f
}

func aliceRequest() domain.RegisterRequest {
	return domain.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Secret123!",
		TempCode: "7xAbk9",
	}
}

// --- Register ---

func TestRegister_HappyPath(t *testing.T) {
	f := newFixture(t, false)
	f.mailer.On("SendEmail", mock.Anything, "alice@example.com", "Robit Verification Code", mock.MatchedBy(func(body string) bool {
		return regexp.MustCompile(`\b48213\b`).MatchString(body)
	})).Return(nil)

	require.NoError(t, f.svc.Register(context.Background(), aliceRequest()))

	pu, ok := f.pending.Get("alice@example.com")
	require.True(t, ok)
	assert.Equal(t, "alice", pu.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(pu.PasswordHash), []byte("Secret123!")))
	code, ok := f.codes.Get("alice@example.com")
	require.True(t, ok)
	assert.Equal(t, "48213", code)
	assert.True(t, f.svc.HasPending("alice@example.com"))
	assert.True(t, f.invites.Has("7xAbk9"), "invites are reusable by default")
	f.mailer.AssertExpectations(t)
}

func TestRegister_InvalidInviteCode(t *testing.T) {
	cases := map[string]domain.RegisterRequest{
		"unknown code":              {Username: "alice", Email: "alice@example.com", Password: "Secret123!", TempCode: "0aA0a0"},
		"empty code":                {Username: "alice", Email: "alice@example.com", Password: "Secret123!"},
		"unknown code, bad details": {TempCode: "nope"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, false)
			err := f.svc.Register(context.Background(), req)
			assert.ErrorIs(t, err, domain.ErrInvalidInviteCode)
			f.mailer.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRegister_ExpiredInviteCode(t *testing.T) {
	f := newFixture(t, false)
	f.now = f.now.Add(5*time.Minute + time.Second)

	err := f.svc.Register(context.Background(), aliceRequest())
	assert.ErrorIs(t, err, domain.ErrInvalidInviteCode)
}

func TestRegister_InvalidDetails(t *testing.T) {
	f := newFixture(t, false)
	req := aliceRequest()
	req.Email = "not-an-email"

	err := f.svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	assert.EqualError(t, err, "invalid registration details: email must be a valid email address")
	assert.False(t, f.pending.Has("not-an-email"))
}

func TestRegister_UsernameTaken(t *testing.T) {
	f := newFixture(t, false)
	f.accounts.byName["alice"] = &domain.Account{Username: "alice", Email: "other@example.com"}

	err := f.svc.Register(context.Background(), aliceRequest())
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRegister_EmailTaken(t *testing.T) {
	f := newFixture(t, false)
	f.accounts.byEmail["alice@example.com"] = &domain.Account{Username: "alice2", Email: "alice@example.com"}

	err := f.svc.Register(context.Background(), aliceRequest())
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestRegister_RepositoryFailure(t *testing.T) {
	f := newFixture(t, false)
	f.accounts.lookupErr = errors.New("dynamodb unavailable")

	err := f.svc.Register(context.Background(), aliceRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRegistrationFailed)
	assert.True(t, errors.Is(err, domain.ErrDependency))
	assert.False(t, f.pending.Has("alice@example.com"))
}

func TestRegister_TwiceBeforeVerification(t *testing.T) {
	f := newFixture(t, false)
	f.mailer.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.svc.Register(context.Background(), aliceRequest()))

	again := aliceRequest()
	again.Username = "alice-two"
	err := f.svc.Register(context.Background(), again)
	assert.ErrorIs(t, err, domain.ErrVerificationPending)

	pu, _ := f.pending.Get("alice@example.com")
	assert.Equal(t, "alice", pu.Username, "first registration is kept")
	f.mailer.AssertNumberOfCalls(t, "SendEmail", 1)
}

func TestRegister_ConcurrentSameEmail_OneWinner(t *testing.T) {
	f := newFixture(t, false)
	f.mailer.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.svc.Register(context.Background(), aliceRequest())
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrVerificationPending)
	}
	assert.Equal(t, 1, ok)
}

func TestRegister_MailFailureKeepsPendingState(t *testing.T) {
	f := newFixture(t, false)
	f.mailer.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("535 auth failed"))

	err := f.svc.Register(context.Background(), aliceRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotificationFailed)
	assert.True(t, errors.Is(err, domain.ErrDependency))

	assert.True(t, f.pending.Has("alice@example.com"))
	code, ok := f.codes.Get("alice@example.com")
	require.True(t, ok)

	require.NoError(t, f.svc.VerifyEmail(context.Background(), domain.VerifyEmailRequest{Email: "alice@example.com", Code: code}))
}

func TestRegister_SingleUseInviteIsConsumed(t *testing.T) {
	f := newFixture(t, true)
	f.mailer.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.svc.Register(context.Background(), aliceRequest()))
	assert.False(t, f.invites.Has("7xAbk9"))

	bob := domain.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "hunter22", TempCode: "7xAbk9"}
	assert.ErrorIs(t, f.svc.Register(context.Background(), bob), domain.ErrInvalidInviteCode)
}

func TestRegister_ReusableInviteAdmitsSeveralRegistrations(t *testing.T) {
	f := newFixture(t, false)
	f.mailer.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.svc.Register(context.Background(), aliceRequest()))
	bob := domain.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "hunter22", TempCode: "7xAbk9"}
	require.NoError(t, f.svc.Register(context.Background(), bob))
}

// --- VerifyEmail ---

func registerAlice(t *testing.T, f *fixture) {
	t.Helper()
	f.mailer.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, f.svc.Register(context.Background(), aliceRequest()))
}

func TestVerifyEmail_PromotesAccount(t *testing.T) {
	f := newFixture(t, false)
	registerAlice(t, f)

	err := f.svc.VerifyEmail(context.Background(), domain.VerifyEmailRequest{Email: "alice@example.com", Code: "48213"})
	require.NoError(t, err)

	a, err := f.accounts.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", a.Email)
	assert.NotEmpty(t, a.AccountID)
	assert.Equal(t, f.now, a.CreatedAt)
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("Secret123!")))
	assert.Len(t, f.accounts.byName, 1)

	assert.False(t, f.pending.Has("alice@example.com"))
	assert.False(t, f.codes.Has("alice@example.com"))

	err = f.svc.VerifyEmail(context.Background(), domain.VerifyEmailRequest{Email: "alice@example.com", Code: "48213"})
	assert.ErrorIs(t, err, domain.ErrNoPendingVerification)
}

func TestVerifyEmail_WrongCodeLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, false)
	registerAlice(t, f)

	for _, wrong := range []string{"48214", " 48213", "4821", ""} {
		err := f.svc.VerifyEmail(context.Background(), domain.VerifyEmailRequest{Email: "alice@example.com", Code: wrong})
		assert.ErrorIs(t, err, domain.ErrCodeMismatch, wrong)
	}
	assert.True(t, f.pending.Has("alice@example.com"))
	assert.True(t, f.codes.Has("alice@example.com"))
	assert.Empty(t, f.accounts.byName)

	require.NoError(t, f.svc.VerifyEmail(context.Background(), domain.VerifyEmailRequest{Email: "alice@example.com", Code: "48213"}))
}

func TestVerifyEmail_NoPendingRegistration(t *testing.T) {
	f := newFixture(t, false)
	err := f.svc.VerifyEmail(context.Background(), domain.VerifyEmailRequest{Email: "ghost@example.com", Code: "12345"})
	assert.ErrorIs(t, err, domain.ErrNoPendingVerification)
}

func TestVerifyEmail_CodeWithoutPendingUser(t *testing.T) {
	f := newFixture(t, false)
	f.codes.Put("alice@example.com", "48213")
	err := f.svc.VerifyEmail(context.Background(), domain.VerifyEmailRequest{Email: "alice@example.com", Code: "48213"})
	assert.ErrorIs(t, err, domain.ErrNoPendingVerification)
}

func TestVerifyEmail_ExpiredCode(t *testing.T) {
	f := newFixture(t, false)
	registerAlice(t, f)
	f.now = f.now.Add(10*time.Minute + time.Second)

	err := f.svc.VerifyEmail(context.Background(), domain.VerifyEmailRequest{Email: "alice@example.com", Code: "48213"})
	assert.ErrorIs(t, err, domain.ErrNoPendingVerification)
	assert.False(t, f.svc.HasPending("alice@example.com"))
}

func TestVerifyEmail_PersistenceFailureKeepsPendingState(t *testing.T) {
	f := newFixture(t, false)
	registerAlice(t, f)
	f.accounts.createErr = errors.New("throughput exceeded")

	err := f.svc.VerifyEmail(context.Background(), domain.VerifyEmailRequest{Email: "alice@example.com", Code: "48213"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.True(t, f.pending.Has("alice@example.com"))
	assert.True(t, f.codes.Has("alice@example.com"))

	f.accounts.createErr = nil
	require.NoError(t, f.svc.VerifyEmail(context.Background(), domain.VerifyEmailRequest{Email: "alice@example.com", Code: "48213"}))
}

func TestVerifyEmail_LosesRaceForUsername(t *testing.T) {
	f := newFixture(t, false)
	registerAlice(t, f)
	// Someone else claimed the username between register and verify.
	f.accounts.byName["alice"] = &domain.Account{Username: "alice", Email: "first@example.com"}

	err := f.svc.VerifyEmail(context.Background(), domain.VerifyEmailRequest{Email: "alice@example.com", Code: "48213"})
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.True(t, f.pending.Has("alice@example.com"))
}

// --- sweep ---

func TestSweep_AbandonsRegistration(t *testing.T) {
	f := newFixture(t, false)
	registerAlice(t, f)

	f.now = f.now.Add(11 * time.Minute)
	j := expiry.NewJanitor(time.Minute, nil, expiry.WithClock(f.clock))
	j.Register("pending", f.pending)
	j.Register("codes", f.codes)
	j.Register("invites", f.invites)

	assert.Equal(t, 3, j.SweepOnce())
	assert.Equal(t, 0, j.SweepOnce())
	assert.Equal(t, 0, f.pending.Len())
	assert.Equal(t, 0, f.codes.Len())
}
