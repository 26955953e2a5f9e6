package cli

import (
	"context"
	"errors"
	"strings"

	"cardbank/internal/banking/domain"
	"cardbank/internal/common/logging"
)

// describe maps an error to the message shown to the user.
func describe(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidField):
		return detail(err, domain.ErrInvalidField)
	case errors.Is(err, domain.ErrWeakCredential):
		return detail(err, domain.ErrWeakCredential)
	case errors.Is(err, domain.ErrInvalidAmount):
		return detail(err, domain.ErrInvalidAmount)
	case errors.Is(err, domain.ErrDuplicatePhoneNumber):
		return "Error! That phone number already exists."
	case errors.Is(err, domain.ErrPasswordReused):
		return "Error! Cannot set old password as new."
	case errors.Is(err, domain.ErrPasswordMismatch):
		return "Error! Passwords don't match."
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrBalanceCeilingExceeded):
		return "Error! " + capitalize(err.Error()) + "."
	case errors.Is(err, domain.ErrCardNotFound):
		return "Error! Card number doesn't exist in our system."
	case errors.Is(err, domain.ErrCardNumberExhausted):
		return "Error! No card numbers are left, try again later."
	case errors.Is(err, domain.ErrSessionConsumed),
		errors.Is(err, domain.ErrReauthenticationRequired):
		return "Error! Please log in again."
	case errors.Is(err, domain.ErrPersistence):
		return "Error! Accounts could not be saved, nothing was changed."
	default:
		logging.ErrorContext(ctx, "unhandled error", "error", err)
		return "Error! Something went wrong."
	}
}

// detail strips the sentinel prefix from a validation error.
func detail(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	return "Error! " + capitalize(msg) + "."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
