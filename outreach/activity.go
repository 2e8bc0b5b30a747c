package outreach

import (
	"time"

	"gorm.io/gorm"

	"coldreach/models"
)

// Activity is one row of the recent-sends projection.
type Activity struct {
	ID                  uint      `json:"id"`
	CompanyName         string    `json:"company_name"`
	WebsiteURL          string    `json:"website_url"`
	Email               string    `json:"email"`
	SentAt              time.Time `json:"sent_at"`
	Status              string    `json:"status"`
	RecommendedServices string    `json:"recommended_services"`
}

// RecentActivity returns the newest sends first, joined with their
// prospects. Read-only, committed state only.
func RecentActivity(db *gorm.DB, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	var records []models.SendRecord
	if err := db.Preload("Prospect").
		Order("sent_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}

	activities := make([]Activity, 0, len(records))
	for _, record := range records {
		activities = append(activities, Activity{
			ID:                  record.ID,
			CompanyName:         record.Prospect.CompanyName,
			WebsiteURL:          record.Prospect.WebsiteURL,
			Email:               record.Prospect.PrimaryEmail,
			SentAt:              record.SentAt,
			Status:              "Sent",
			RecommendedServices: record.Prospect.RecommendedServices,
		})
	}
	return activities, nil
}
