package outreach

import (
	"strings"

	"github.com/google/uuid"
)

// NormalizeURL maps every spelling of a website to a single identity:
// surrounding whitespace is trimmed, the result is lower-cased and a
// missing scheme defaults to https. Idempotent.
func NormalizeURL(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return ""
	}
	if !strings.HasPrefix(normalized, "http://") && !strings.HasPrefix(normalized, "https://") {
		normalized = "https://" + normalized
	}
	return normalized
}

// SyntheticIdentity mints a one-off identity for a send with no website
// context. It lives in its own scheme so generated tokens can never
// collide with real normalized URLs.
func SyntheticIdentity() string {
	return "lead-token://" + uuid.NewString()
}
