package outreach

import (
	"fmt"
	"time"
)

// DuplicateProspectError means Rule A tripped: the prospect has already
// been contacted. Not retryable without a business override.
type DuplicateProspectError struct {
	CompanyName string
	WebsiteURL  string
	ContactedAt time.Time
}

func (e *DuplicateProspectError) Error() string {
	return fmt.Sprintf("prospecting email already sent to %s (%s) on %s",
		e.CompanyName, e.WebsiteURL, e.ContactedAt.Format("2006-01-02 15:04"))
}

// RateLimitExceededError means Rule B tripped: the sender hit its hourly
// ceiling. Retryable once the trailing window moves on.
type RateLimitExceededError struct {
	Count int64
	Limit int
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("hourly email limit (%d) reached: %d emails sent in the last hour, please wait before sending more",
		e.Limit, e.Count)
}

// TransportError wraps a mail delivery failure. No bookkeeping has
// happened when this is returned.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// PostSendBookkeepingError means the email physically left but recording
// it failed. The prospect may receive a duplicate later and the rate
// count is now understated, so this must never be treated as an ordinary
// validation failure. Reconciliation is out of band.
type PostSendBookkeepingError struct {
	Identity string
	Sender   string
	Err      error
}

func (e *PostSendBookkeepingError) Error() string {
	return fmt.Sprintf("email to %s was delivered but bookkeeping failed: %v", e.Identity, e.Err)
}

func (e *PostSendBookkeepingError) Unwrap() error { return e.Err }
