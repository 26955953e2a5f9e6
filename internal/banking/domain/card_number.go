package domain

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

var cardNumberPattern = regexp.MustCompile(`^[1-9][0-9]{3}-[1-9][0-9]{3}-[1-9][0-9]{3}-[1-9][0-9]{3}$`)

// CardNumber is the identity key of an account: four groups of 1000-9999 joined by hyphens.
type CardNumber struct {
	value string
}

// ParseCardNumber validates the DDDD-DDDD-DDDD-DDDD format. Surrounding spaces are ignored.
func ParseCardNumber(s string) (CardNumber, error) {
	s = strings.TrimSpace(s)
	if !cardNumberPattern.MatchString(s) {
		return CardNumber{}, fmt.Errorf("%w: card number must look like 1234-5678-9012-3456", ErrInvalidField)
	}
	return CardNumber{value: s}, nil
}

// MustParseCardNumber parses a card number, panicking on invalid input.
// Use only in tests.
func MustParseCardNumber(s string) CardNumber {
	c, err := ParseCardNumber(s)
	if err != nil {
		panic(err)
	}
	return c
}

// GenerateCardNumber returns a random card number. Uniqueness is the caller's concern.
func GenerateCardNumber() CardNumber {
	groups := make([]string, 4)
	for i := range groups {
		groups[i] = strconv.Itoa(1000 + rand.IntN(9000))
	}
	return CardNumber{value: strings.Join(groups, "-")}
}

// String returns the hyphenated card number.
func (c CardNumber) String() string {
	return c.value
}

// IsEmpty checks if the CardNumber is unset.
func (c CardNumber) IsEmpty() bool {
	return c.value == ""
}
