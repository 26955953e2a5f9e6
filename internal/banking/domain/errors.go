package domain

import (
	"errors"
	"fmt"
)

// Domain errors for the Banking context.
var (
	// ErrInvalidField is returned when a personal field (name, age, phone, balance) fails validation.
	ErrInvalidField = errors.New("invalid field")

	// ErrWeakCredential is returned when a password does not meet the strength rules.
	ErrWeakCredential = errors.New("weak password")

	// ErrInvalidAmount is returned when a transaction amount is not a whole number between 1 and 10000.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrDuplicatePhoneNumber is returned when a phone number already belongs to an account.
	ErrDuplicatePhoneNumber = errors.New("phone number already registered")

	// ErrCardNotFound is returned when no account matches a card number.
	ErrCardNotFound = errors.New("card not found")

	// ErrAccountNotFound is returned when no account matches a phone number.
	ErrAccountNotFound = errors.New("account not found")

	// ErrNoAccounts is returned when an operation needs an account but the registry is empty.
	ErrNoAccounts = errors.New("no accounts registered")

	// ErrWrongPassword is returned when a password does not verify against the stored hash.
	ErrWrongPassword = errors.New("wrong password")

	// ErrTooManyAttempts is returned when a password challenge has been locked.
	ErrTooManyAttempts = errors.New("too many attempts")

	// ErrChallengeFinished is returned when a challenge that already succeeded is attempted again.
	ErrChallengeFinished = errors.New("challenge already finished")

	// ErrPasswordReused is returned when a new password matches the current one.
	ErrPasswordReused = errors.New("new password matches the current password")

	// ErrPasswordMismatch is returned when a password confirmation differs from the password.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrStoreUnreadable is returned when persisted content cannot be decoded.
	ErrStoreUnreadable = errors.New("account store unreadable")

	// ErrPersistence is returned when the account store could not be written.
	ErrPersistence = errors.New("persistence failure")

	// ErrInsufficientFunds is returned when a withdrawal exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrBalanceCeilingExceeded is returned when a deposit would push the balance above the ceiling.
	ErrBalanceCeilingExceeded = errors.New("balance ceiling exceeded")

	// ErrCardNumberExhausted is returned when no unused card number could be generated.
	ErrCardNumberExhausted = errors.New("could not generate a unique card number")

	// ErrSessionConsumed is returned when a session is used for a second mutation.
	ErrSessionConsumed = errors.New("session already used")

	// ErrReauthenticationRequired is returned when deletion is attempted without a deletion challenge.
	ErrReauthenticationRequired = errors.New("re-authentication required")

	// ErrConfirmationRequired is returned when the deletion confirmation token is not given.
	ErrConfirmationRequired = errors.New("type YES to confirm")

	// ErrDeletionCancelled is returned when the caller declines a deletion.
	ErrDeletionCancelled = errors.New("deletion cancelled")
)

// WrongPasswordError is returned for a failed password attempt that still leaves attempts.
type WrongPasswordError struct {
	Remaining int
}

func (e *WrongPasswordError) Error() string {
	return fmt.Sprintf("%s: %d attempts left", ErrWrongPassword, e.Remaining)
}

// Unwrap allows errors.Is(err, ErrWrongPassword) to match.
func (e *WrongPasswordError) Unwrap() error {
	return ErrWrongPassword
}
