// Package id generates run identifiers.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewRunID returns a time-ordered UUID string.
func NewRunID() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}

// Short returns the first block of a run ID, e.g. "0190f3a2".
func Short(runID string) string {
	head, _, _ := strings.Cut(runID, "-")
	return head
}

// ParseRunID checks that s is a valid run ID.
func ParseRunID(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid run ID %q: %w", s, err)
	}
	return u.String(), nil
}
