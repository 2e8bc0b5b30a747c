package outreach

import (
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coldreach/models"
	"coldreach/utils"
)

// Transport performs the actual delivery. The side effect is irreversible
// once Send returns nil.
type Transport interface {
	Send(to, subject, bodyHTML, from string) error
}

// EmailDraft is an approved draft ready to go out.
type EmailDraft struct {
	To                  string
	Subject             string
	BodyHTML            string
	CompanyName         string
	RecommendedServices string
}

// Coordinator serializes the two side effects of a send: external
// delivery first, durable bookkeeping second. Recording a send that
// never left the building is the failure mode we refuse; the accepted
// risk is the reverse, a delivered-but-unrecorded email, which surfaces
// as PostSendBookkeepingError.
type Coordinator struct {
	DB        *gorm.DB
	Gate      *Gatekeeper
	Transport Transport
	Logger    *log.Logger
}

func NewCoordinator(db *gorm.DB, gate *Gatekeeper, transport Transport, logger *log.Logger) *Coordinator {
	return &Coordinator{
		DB:        db,
		Gate:      gate,
		Transport: transport,
		Logger:    logger,
	}
}

// Send re-checks eligibility, delivers the draft and commits the
// bookkeeping as one transaction. The gatekeeper re-check is mandatory
// here even when the caller already checked.
func (c *Coordinator) Send(draft EmailDraft, identity, sender string) error {
	if sender == "" {
		sender = c.Gate.Config.DefaultSender
	}
	now := time.Now().UTC()

	if _, err := c.Gate.Check(identity, sender, now); err != nil {
		return err
	}

	if err := c.Transport.Send(draft.To, draft.Subject, draft.BodyHTML, sender); err != nil {
		// nothing was written, the caller decides whether to retry
		return &TransportError{Err: err}
	}

	if err := c.record(draft, identity, sender, now); err != nil {
		bkErr := &PostSendBookkeepingError{Identity: identity, Sender: sender, Err: err}
		utils.LogError("post_send_bookkeeping", bkErr, map[string]interface{}{
			"identity":  identity,
			"sender":    sender,
			"recipient": draft.To,
		})
		return bkErr
	}

	c.Logger.Printf("Sent outreach email to %s (%s) from %s", draft.To, identity, sender)
	return nil
}

// record upserts the prospect and appends the send record atomically.
// The ON CONFLICT clause on website_url is the per-identity serialization
// point: a concurrent first send that loses the insert race falls back to
// the update path instead of failing on the unique index.
func (c *Coordinator) record(draft EmailDraft, identity, sender string, now time.Time) error {
	return c.DB.Transaction(func(tx *gorm.DB) error {
		prospect := models.Prospect{
			CompanyName:         draft.CompanyName,
			WebsiteURL:          identity,
			PrimaryEmail:        draft.To,
			EmailSender:         sender,
			Contacted:           true,
			RecommendedServices: draft.RecommendedServices,
		}

		assignments := map[string]interface{}{
			"contacted":     true,
			"primary_email": draft.To,
			"email_sender":  sender,
		}
		if draft.RecommendedServices != "" {
			assignments["recommended_services"] = draft.RecommendedServices
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "website_url"}},
			DoUpdates: clause.Assignments(assignments),
		}).Create(&prospect).Error; err != nil {
			return err
		}

		// re-read to resolve the row id on the conflict-update path
		if err := tx.Where("website_url = ?", identity).First(&prospect).Error; err != nil {
			return err
		}

		record := models.SendRecord{
			ProspectID:  prospect.ID,
			SenderEmail: sender,
			SentAt:      now,
		}
		return tx.Create(&record).Error
	})
}
