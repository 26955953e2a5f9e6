package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"cardbank/internal/banking/application"
	"cardbank/internal/banking/domain"
	"cardbank/internal/banking/infrastructure/credentials"
	"cardbank/internal/banking/infrastructure/memory"
)

const (
	testPassword = "abc123!@"
	testPhone    = "+491234567890"
)

// memoryStore is a domain.Store that keeps the last saved collection and can be told to fail or stall.
type memoryStore struct {
	mu        sync.Mutex
	saved     []*domain.Account
	saves     int
	saveErr   error
	saveDelay time.Duration
}

func (s *memoryStore) Load(context.Context) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved, nil
}

func (s *memoryStore) Save(_ context.Context, accounts []*domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	time.Sleep(s.saveDelay)
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = accounts
	s.saves++
	return nil
}

func (s *memoryStore) failSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

type bankFixture struct {
	store    *memoryStore
	registry *memory.Registry
	auth     *application.Authenticator
	service  *application.BankingService
}

func newBankFixture(t *testing.T, cfg application.ServiceConfig) *bankFixture {
	t.Helper()
	store := &memoryStore{}
	registry := memory.NewRegistry(store, "test")
	hasher := credentials.NewHasher(bcrypt.MinCost)
	return &bankFixture{
		store:    store,
		registry: registry,
		auth:     application.NewAuthenticator(registry, hasher, application.AuthConfig{}),
		service:  application.NewBankingService(registry, hasher, cfg),
	}
}

func validRequest(phone string) application.CreateAccountRequest {
	return application.CreateAccountRequest{
		Name:            "john",
		Surname:         "doe",
		Age:             "30",
		PhoneNumber:     phone,
		Balance:         "100",
		Password:        testPassword,
		PasswordConfirm: testPassword,
	}
}

func (f *bankFixture) createAccount(t *testing.T, phone string) application.AccountSummary {
	t.Helper()
	summary, err := f.service.CreateAccount(context.Background(), validRequest(phone))
	require.NoError(t, err)
	return summary
}

func (f *bankFixture) login(t *testing.T, card string) *application.Session {
	t.Helper()
	ctx := context.Background()
	challenge, err := f.auth.Begin(ctx, card)
	require.NoError(t, err)
	session, err := challenge.Attempt(ctx, testPassword)
	require.NoError(t, err)
	return session
}

func (f *bankFixture) deletionSession(t *testing.T, card string) *application.Session {
	t.Helper()
	ctx := context.Background()
	challenge, err := f.auth.Reauthenticate(ctx, f.login(t, card))
	require.NoError(t, err)
	session, err := challenge.Attempt(ctx, testPassword)
	require.NoError(t, err)
	return session
}

var errDiskFull = errors.New("disk full")
