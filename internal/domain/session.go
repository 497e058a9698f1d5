package domain

import (
	"fmt"
	"strings"
	"time"
)

const sessionTokenPrefix = "session_"

// NewSessionToken builds a session token from a creation time and a random
// suffix. Tokens from different clients differ with overwhelming probability.
func NewSessionToken(now time.Time, suffix string) string {
	return fmt.Sprintf("%s%d_%s", sessionTokenPrefix, now.UnixMilli(), strings.TrimSpace(suffix))
}

func IsSessionToken(value string) bool {
	return strings.HasPrefix(value, sessionTokenPrefix) && len(value) > len(sessionTokenPrefix)
}
