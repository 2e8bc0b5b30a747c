package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"coldreach/models"
	"coldreach/utils"
)

// SendMonitor periodically reports senders that are burning through
// their hourly allowance. Visibility only; the gatekeeper does the
// actual enforcement.
type SendMonitor struct {
	DB     *gorm.DB
	Limit  int
	Logger *log.Logger
}

func NewSendMonitor(db *gorm.DB, limit int, logger *log.Logger) *SendMonitor {
	return &SendMonitor{
		DB:     db,
		Limit:  limit,
		Logger: logger,
	}
}

func (sm *SendMonitor) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	sm.Logger.Println("Send monitor started")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sm.Logger.Println("Send monitor shutting down...")
			return
		case <-ticker.C:
			sm.checkSenderVolumes()
		}
	}
}

func (sm *SendMonitor) checkSenderVolumes() {
	type senderCount struct {
		SenderEmail string
		Count       int64
	}

	windowStart := time.Now().UTC().Add(-time.Hour)
	var counts []senderCount
	if err := sm.DB.Model(&models.SendRecord{}).
		Select("sender_email, COUNT(*) as count").
		Where("sent_at > ?", windowStart).
		Group("sender_email").
		Scan(&counts).Error; err != nil {
		sm.Logger.Printf("Error fetching sender volumes: %v", err)
		return
	}

	for _, sc := range counts {
		if sc.Count*5 >= int64(sm.Limit)*4 {
			utils.LogEvent("sender_near_hourly_limit", map[string]interface{}{
				"sender":     sc.SenderEmail,
				"sent_1h":    sc.Count,
				"hourly_cap": sm.Limit,
			})
		}
	}
}
