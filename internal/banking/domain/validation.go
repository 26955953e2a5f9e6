package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	vo "cardbank/internal/common/value_objects"
)

// Field and transaction bounds.
const (
	MinNameLength     = 2
	MaxNameLength     = 12
	MinAge            = 18
	MaxAge            = 50
	MinPasswordLength = 8
	MinTransaction    = 1
	MaxTransaction    = 10000
)

// MaxBalance is the highest balance an account may hold.
var MaxBalance = vo.NewFromInt(100_000_000)

// passwordPunctuation is the ASCII punctuation set a password must draw from.
const passwordPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var phonePattern = regexp.MustCompile(`^\+49[0-9]{10}$`)

// ValidateName checks a first name and returns it capitalized.
func ValidateName(raw string) (string, error) {
	return validateWord("name", raw)
}

// ValidateSurname checks a surname and returns it capitalized.
func ValidateSurname(raw string) (string, error) {
	return validateWord("surname", raw)
}

func validateWord(field, raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: %s cannot be empty", ErrInvalidField, field)
	}
	for _, r := range raw {
		if !unicode.IsLetter(r) {
			return "", fmt.Errorf("%w: %s must contain only letters", ErrInvalidField, field)
		}
	}
	if n := utf8.RuneCountInString(raw); n < MinNameLength || n > MaxNameLength {
		return "", fmt.Errorf("%w: %s must contain between %d and %d characters", ErrInvalidField, field, MinNameLength, MaxNameLength)
	}
	// Casers keep state between calls, so one is built per word.
	return cases.Title(language.Und).String(raw), nil
}

// ValidateAge parses an age made of ASCII digits within [MinAge, MaxAge].
func ValidateAge(raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: age cannot be empty", ErrInvalidField)
	}
	if !isASCIIDigits(raw) {
		return 0, fmt.Errorf("%w: age must be a valid integer", ErrInvalidField)
	}
	age, err := strconv.Atoi(raw)
	if err != nil || age < MinAge || age > MaxAge {
		return 0, fmt.Errorf("%w: age must be between %d and %d", ErrInvalidField, MinAge, MaxAge)
	}
	return age, nil
}

// ValidatePhoneNumber accepts exactly "+49" followed by ten digits and returns it unchanged.
func ValidatePhoneNumber(raw string) (string, error) {
	if !phonePattern.MatchString(raw) {
		return "", fmt.Errorf("%w: phone number must start with +49 and have exactly 10 digits after it", ErrInvalidField)
	}
	return raw, nil
}

// ValidateBalance parses an opening balance between 0 and MaxBalance with at most two decimals.
func ValidateBalance(raw string) (vo.Money, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return vo.Money{}, fmt.Errorf("%w: balance cannot be empty", ErrInvalidField)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return vo.Money{}, fmt.Errorf("%w: balance must be a number", ErrInvalidField)
	}
	amount := vo.New(d)
	if amount.IsNegative() {
		return vo.Money{}, fmt.Errorf("%w: balance cannot be less than 0%s", ErrInvalidField, vo.CurrencySymbol)
	}
	if amount.GreaterThan(MaxBalance) {
		return vo.Money{}, fmt.Errorf("%w: balance cannot be more than %s", ErrInvalidField, MaxBalance.Display())
	}
	if !d.Equal(d.Truncate(2)) {
		return vo.Money{}, fmt.Errorf("%w: balance cannot have more than 2 decimal places", ErrInvalidField)
	}
	return amount, nil
}

// ValidatePassword enforces the password strength rules. The password is returned unchanged.
func ValidatePassword(raw string) (string, error) {
	var hasDigit, hasLetter, hasPunct bool
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLetter(r):
			hasLetter = true
		case strings.ContainsRune(passwordPunctuation, r):
			hasPunct = true
		}
	}
	if utf8.RuneCountInString(raw) < MinPasswordLength || !hasDigit || !hasLetter || !hasPunct {
		return "", fmt.Errorf("%w: password must contain at least %d characters with a digit, a letter and a special character",
			ErrWeakCredential, MinPasswordLength)
	}
	return raw, nil
}

// ValidateTransactionAmount parses a whole amount between MinTransaction and MaxTransaction.
func ValidateTransactionAmount(raw string) (vo.Money, error) {
	if raw == "" {
		return vo.Money{}, fmt.Errorf("%w: transaction cannot be empty", ErrInvalidAmount)
	}
	if !isASCIIDigits(raw) {
		return vo.Money{}, fmt.Errorf("%w: please enter a whole number", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return vo.Money{}, fmt.Errorf("%w: please enter a whole number", ErrInvalidAmount)
	}
	amount := vo.New(d)
	if amount.LessThan(vo.NewFromInt(MinTransaction)) {
		return vo.Money{}, fmt.Errorf("%w: transaction cannot be less than %d%s", ErrInvalidAmount, MinTransaction, vo.CurrencySymbol)
	}
	if amount.GreaterThan(vo.NewFromInt(MaxTransaction)) {
		return vo.Money{}, fmt.Errorf("%w: transaction cannot be more than %s", ErrInvalidAmount, vo.NewFromInt(MaxTransaction).Display())
	}
	return amount, nil
}

func isASCIIDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
