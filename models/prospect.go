package models

import (
	"time"

	"gorm.io/gorm"
)

// Prospect stores one outreach target per normalized website URL.
// The URL is the dedup key: the unique index is the enforcement point
// for duplicate prevention, the gatekeeper check is only the fast path.
type Prospect struct {
	gorm.Model
	CompanyName  string `gorm:"not null" json:"company_name"`
	WebsiteURL   string `gorm:"size:500;not null;uniqueIndex" json:"website_url"`
	PrimaryEmail string `gorm:"not null" json:"primary_email"`
	EmailSender  string `gorm:"not null" json:"email_sender"`

	// Contacted flips to true on the first successful send and stays true.
	Contacted bool `gorm:"default:false" json:"contacted"`

	// Advisory summary of matched services, comma-joined. Not authoritative.
	RecommendedServices string `gorm:"size:1000" json:"recommended_services"`

	// Relations
	SendRecords []SendRecord `gorm:"foreignKey:ProspectID;constraint:OnDelete:CASCADE" json:"send_records,omitempty"`
}

// SendRecord is appended once per delivery that reached bookkeeping.
// Never mutated or deleted by normal operation.
type SendRecord struct {
	gorm.Model
	ProspectID uint `gorm:"not null;index" json:"prospect_id"`

	SenderEmail string    `gorm:"not null;index:idx_send_records_sender_sent_at" json:"sender_email"`
	SentAt      time.Time `gorm:"not null;index:idx_send_records_sender_sent_at" json:"sent_at"`

	Prospect Prospect `json:"-"`
}
