package utils

import "github.com/google/uuid"

// NewID returns a random identifier used to tell connections apart.
func NewID() string {
	return uuid.NewString()
}
