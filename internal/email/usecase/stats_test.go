package usecase

import (
	"testing"
	"time"

	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"

	"github.com/stretchr/testify/assert"
)

func TestFoldStats(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	var msgs []emaildomain.EmailMessage
	for i := range 10 {
		date := now.AddDate(0, -1, 0)
		if i < 3 {
			date = now.Add(-366 * 24 * time.Hour)
		}
		category := emaildomain.ProviderCategoryPromotions
		if i%2 == 0 {
			category = emaildomain.ProviderCategoryPrimary
		}
		msgs = append(msgs, emaildomain.EmailMessage{
			ID:       string(rune('a' + i)),
			From:     "Store <shop@store.com>",
			Date:     date,
			Size:     100,
			Category: category,
		})
	}

	stats := FoldStats(msgs, 4, now)

	assert.Equal(t, 10, stats.TotalEmails)
	assert.Equal(t, 4, stats.UnreadCount)
	assert.Equal(t, 3, stats.OldEmailsCount)
	assert.Equal(t, int64(1000), stats.AttachmentSize)
	assert.Equal(t, map[emaildomain.ProviderCategory]int{
		emaildomain.ProviderCategoryPrimary:    5,
		emaildomain.ProviderCategoryPromotions: 5,
	}, stats.CategoryCounts)
	assert.Equal(t, map[string]int{"shop@store.com": 10}, stats.SenderFrequency)
}

func TestFoldStatsEdgeCases(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	stats := FoldStats([]emaildomain.EmailMessage{
		{ID: "1", From: "no brackets here", Date: now.Add(-365 * 24 * time.Hour)},
		{ID: "2", From: "", Date: now},
	}, 0, now)

	assert.Equal(t, map[string]int{"no brackets here": 1, "": 1}, stats.SenderFrequency)
	assert.Zero(t, stats.AttachmentSize, "absent size counts as zero")
	assert.Zero(t, stats.OldEmailsCount, "exactly 365 days is not older than a year")

	empty := FoldStats(nil, 0, now)
	assert.Zero(t, empty.TotalEmails)
	assert.NotNil(t, empty.CategoryCounts)
	assert.NotNil(t, empty.SenderFrequency)
}
