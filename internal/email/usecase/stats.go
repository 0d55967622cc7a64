package usecase

import (
	"time"

	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"
	"github.com/d093w1z/deinbox/pkg/gmail"
)

const oldEmailAge = 365 * 24 * time.Hour

// FoldStats summarizes a batch. unreadCount comes from a separate unread
// query and is not derived from the batch.
func FoldStats(messages []emaildomain.EmailMessage, unreadCount int, now time.Time) *emaildomain.Stats {
	stats := &emaildomain.Stats{
		TotalEmails:     len(messages),
		UnreadCount:     unreadCount,
		CategoryCounts:  make(map[emaildomain.ProviderCategory]int),
		SenderFrequency: make(map[string]int),
	}

	cutoff := now.Add(-oldEmailAge)
	for _, m := range messages {
		stats.CategoryCounts[m.Category]++
		stats.SenderFrequency[gmail.ExtractAddress(m.From)]++
		stats.AttachmentSize += m.Size
		if m.Date.Before(cutoff) {
			stats.OldEmailsCount++
		}
	}
	return stats
}
