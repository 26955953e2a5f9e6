package application

import (
	"sync/atomic"

	"cardbank/internal/banking/domain"
)

// Purpose records which challenge produced a session.
type Purpose int

const (
	// PurposeTransaction sessions come from a login challenge and authorize one mutation.
	PurposeTransaction Purpose = iota
	// PurposeDeletion sessions come from a re-authentication challenge and authorize one deletion.
	PurposeDeletion
)

func (p Purpose) String() string {
	switch p {
	case PurposeTransaction:
		return "transaction"
	case PurposeDeletion:
		return "deletion"
	default:
		return "unknown"
	}
}

// Session proves that one password challenge completed for a card.
// It authorizes a single successful mutation and is consumed by it.
type Session struct {
	cardNumber domain.CardNumber
	purpose    Purpose
	consumed   atomic.Bool
}

func newSession(card domain.CardNumber, purpose Purpose) *Session {
	return &Session{cardNumber: card, purpose: purpose}
}

// CardNumber returns the authenticated card.
func (s *Session) CardNumber() domain.CardNumber { return s.cardNumber }

// Purpose returns the kind of challenge that produced the session.
func (s *Session) Purpose() Purpose { return s.purpose }

// Consumed reports whether the session has already authorized a mutation.
func (s *Session) Consumed() bool { return s.consumed.Load() }

// claim marks the session used. It fails with domain.ErrSessionConsumed if it was already used.
func (s *Session) claim() error {
	if !s.consumed.CompareAndSwap(false, true) {
		return domain.ErrSessionConsumed
	}
	return nil
}

// release hands back a claim whose mutation did not commit.
func (s *Session) release() {
	s.consumed.Store(false)
}
