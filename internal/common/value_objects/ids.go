package valueobjects

import (
	"github.com/google/uuid"
)

// CorrelationID ties together the log lines of one shell operation.
// It is a struct wrapper to prevent accidental type confusion at compile time.
type CorrelationID struct {
	value string
}

// NewCorrelationID generates a new unique CorrelationID.
func NewCorrelationID() CorrelationID {
	return CorrelationID{value: uuid.NewString()}
}

// String returns the string representation of CorrelationID.
func (c CorrelationID) String() string {
	return c.value
}

// IsEmpty checks if the CorrelationID is empty.
func (c CorrelationID) IsEmpty() bool {
	return c.value == ""
}
