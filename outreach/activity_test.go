package outreach

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldreach/models"
)

func TestRecentActivityNewestFirstAndBounded(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()

	prospect := models.Prospect{
		CompanyName:         "Acme",
		WebsiteURL:          "https://acme.com",
		PrimaryEmail:        "ceo@acme.com",
		Contacted:           true,
		RecommendedServices: "Organic SEO",
	}
	require.NoError(t, db.Create(&prospect).Error)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.SendRecord{
			ProspectID:  prospect.ID,
			SenderEmail: "a@x.com",
			SentAt:      now.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	activities, err := RecentActivity(db, 2)

	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.True(t, activities[0].SentAt.After(activities[1].SentAt))
	assert.Equal(t, "Acme", activities[0].CompanyName)
	assert.Equal(t, "ceo@acme.com", activities[0].Email)
	assert.Equal(t, "Sent", activities[0].Status)
	assert.Equal(t, "Organic SEO", activities[0].RecommendedServices)
}

func TestRecentActivityEmptyStore(t *testing.T) {
	db := newTestDB(t)

	activities, err := RecentActivity(db, 10)

	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestRecentActivityDefaultsAndCapsLimit(t *testing.T) {
	db := newTestDB(t)

	_, err := RecentActivity(db, 0)
	require.NoError(t, err)

	_, err = RecentActivity(db, 10000)
	require.NoError(t, err)
}
