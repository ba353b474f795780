package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateID returns a new unique identifier with the given prefix.
func GenerateID(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
