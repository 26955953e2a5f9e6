package application

import (
	"context"
	"errors"
	"sync"

	"cardbank/internal/banking/domain"
	"cardbank/internal/common/logging"
	"cardbank/internal/common/metrics"
)

// Default attempt limits.
const (
	DefaultMaxAttempts       = 5
	DefaultDeleteMaxAttempts = 3
)

// ChallengeState is the state of a password challenge.
type ChallengeState int

const (
	ChallengePending ChallengeState = iota
	ChallengeAuthenticated
	ChallengeLocked
)

func (s ChallengeState) String() string {
	switch s {
	case ChallengePending:
		return "pending"
	case ChallengeAuthenticated:
		return "authenticated"
	case ChallengeLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// AuthConfig holds attempt limits. Zero values select the defaults.
type AuthConfig struct {
	MaxAttempts       int
	DeleteMaxAttempts int
}

// Authenticator looks up cards and issues bounded password challenges.
type Authenticator struct {
	reader            domain.AccountReader
	hasher            domain.PasswordHasher
	maxAttempts       int
	deleteMaxAttempts int
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(reader domain.AccountReader, hasher domain.PasswordHasher, cfg AuthConfig) *Authenticator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.DeleteMaxAttempts < 1 {
		cfg.DeleteMaxAttempts = DefaultDeleteMaxAttempts
	}
	return &Authenticator{
		reader:            reader,
		hasher:            hasher,
		maxAttempts:       cfg.MaxAttempts,
		deleteMaxAttempts: cfg.DeleteMaxAttempts,
	}
}

// Begin looks up a card number and starts a login challenge for it.
// Returns ErrNoAccounts when the registry is empty and ErrCardNotFound when nothing matches;
// callers may retry card entry without limit.
func (a *Authenticator) Begin(ctx context.Context, rawCard string) (*Challenge, error) {
	if a.reader.Len() == 0 {
		return nil, domain.ErrNoAccounts
	}

	card, err := domain.ParseCardNumber(rawCard)
	if err != nil {
		return nil, domain.ErrCardNotFound
	}
	if _, err := a.reader.FindByCardNumber(card); err != nil {
		return nil, err
	}

	logging.DebugContext(ctx, "password challenge started", "card_number", card.String())
	return a.newChallenge(card, PurposeTransaction, a.maxAttempts), nil
}

// Reauthenticate starts a deletion challenge for the card of an unused login session.
// The login session is consumed.
func (a *Authenticator) Reauthenticate(ctx context.Context, session *Session) (*Challenge, error) {
	if session == nil {
		return nil, domain.ErrReauthenticationRequired
	}
	if err := session.claim(); err != nil {
		return nil, err
	}
	if _, err := a.reader.FindByCardNumber(session.CardNumber()); err != nil {
		return nil, err
	}

	logging.DebugContext(ctx, "re-authentication started", "card_number", session.CardNumber().String())
	return a.newChallenge(session.CardNumber(), PurposeDeletion, a.deleteMaxAttempts), nil
}

func (a *Authenticator) newChallenge(card domain.CardNumber, purpose Purpose, maxAttempts int) *Challenge {
	return &Challenge{
		reader:      a.reader,
		hasher:      a.hasher,
		card:        card,
		purpose:     purpose,
		maxAttempts: maxAttempts,
		remaining:   maxAttempts,
		state:       ChallengePending,
	}
}

// Challenge is one bounded password challenge against a single card.
// Pending -> Authenticated on a correct password, Pending -> Locked when attempts run out.
// Both end states are terminal; a locked card needs a new challenge from Begin.
type Challenge struct {
	mu          sync.Mutex
	reader      domain.AccountReader
	hasher      domain.PasswordHasher
	card        domain.CardNumber
	purpose     Purpose
	maxAttempts int
	remaining   int
	state       ChallengeState
}

// Attempt checks one password.
// Returns a Session on success, *domain.WrongPasswordError while attempts remain,
// and ErrTooManyAttempts once the challenge locks.
func (c *Challenge) Attempt(ctx context.Context, password string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case ChallengeLocked:
		return nil, domain.ErrTooManyAttempts
	case ChallengeAuthenticated:
		return nil, domain.ErrChallengeFinished
	}

	account, err := c.reader.FindByCardNumber(c.card)
	if err != nil {
		c.state = ChallengeLocked
		return nil, err
	}

	if c.hasher.Verify(account.PasswordHash(), password) {
		c.state = ChallengeAuthenticated
		metrics.RecordLoginAttempt(metrics.ResultSuccess)
		logging.InfoContext(ctx, "password challenge passed",
			"card_number", c.card.String(),
			"purpose", c.purpose.String(),
		)
		return newSession(c.card, c.purpose), nil
	}

	c.remaining--
	if c.remaining <= 0 {
		c.state = ChallengeLocked
		metrics.RecordLoginAttempt(metrics.ResultLocked)
		logging.WarnContext(ctx, "password challenge locked",
			"card_number", c.card.String(),
			"purpose", c.purpose.String(),
			"attempts", c.maxAttempts,
		)
		return nil, domain.ErrTooManyAttempts
	}

	metrics.RecordLoginAttempt(metrics.ResultRejected)
	return nil, &domain.WrongPasswordError{Remaining: c.remaining}
}

// State returns the current challenge state.
func (c *Challenge) State() ChallengeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Remaining returns the number of attempts left.
func (c *Challenge) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// MaxAttempts returns the attempt limit the challenge started with.
func (c *Challenge) MaxAttempts() int { return c.maxAttempts }

// CardNumber returns the challenged card.
func (c *Challenge) CardNumber() domain.CardNumber { return c.card }

// IsTerminal reports whether err from Attempt means no further attempts will be accepted.
func IsTerminal(err error) bool {
	return errors.Is(err, domain.ErrTooManyAttempts) ||
		errors.Is(err, domain.ErrChallengeFinished) ||
		errors.Is(err, domain.ErrCardNotFound)
}
