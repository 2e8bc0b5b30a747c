package outreach

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"coldreach/models"
)

// Config carries the business gates. Passed in explicitly so the core
// never reads ambient globals.
type Config struct {
	HourlyLimit   int
	DefaultSender string
}

// EligibilityReport is returned when both rules pass.
type EligibilityReport struct {
	Existing     *models.Prospect `json:"existing_prospect,omitempty"`
	SentLastHour int64            `json:"emails_sent_last_hour"`
}

// Gatekeeper decides whether an outreach action is allowed. It only ever
// reads committed state; the send coordinator's transaction is what makes
// a send countable.
type Gatekeeper struct {
	DB     *gorm.DB
	Config Config
	Logger *log.Logger
}

func NewGatekeeper(db *gorm.DB, cfg Config, logger *log.Logger) *Gatekeeper {
	return &Gatekeeper{
		DB:     db,
		Config: cfg,
		Logger: logger,
	}
}

// Check runs both rules for a normalized identity and a sender.
//
// Rule A: a prospect that was already contacted blocks the action.
// Rule B: the sender's trailing-hour send count must stay under the limit.
//
// No check is final — callers re-run it on the send path, and the unique
// index on website_url is the actual enforcement point for concurrent
// first sends.
func (g *Gatekeeper) Check(identity, sender string, now time.Time) (*EligibilityReport, error) {
	if sender == "" {
		sender = g.Config.DefaultSender
	}

	report := &EligibilityReport{}

	var prospect models.Prospect
	err := g.DB.Where("website_url = ?", identity).First(&prospect).Error
	switch {
	case err == nil:
		report.Existing = &prospect
		if prospect.Contacted {
			return nil, &DuplicateProspectError{
				CompanyName: prospect.CompanyName,
				WebsiteURL:  prospect.WebsiteURL,
				ContactedAt: prospect.CreatedAt,
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// new identity, nothing to dedupe against
	default:
		return nil, err
	}

	windowStart := now.Add(-time.Hour)
	var count int64
	if err := g.DB.Model(&models.SendRecord{}).
		Where("sender_email = ? AND sent_at > ?", sender, windowStart).
		Count(&count).Error; err != nil {
		return nil, err
	}
	report.SentLastHour = count

	if count >= int64(g.Config.HourlyLimit) {
		return nil, &RateLimitExceededError{Count: count, Limit: g.Config.HourlyLimit}
	}

	return report, nil
}
