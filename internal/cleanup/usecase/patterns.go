package usecase

import (
	"sort"
	"time"

	"github.com/d093w1z/deinbox/internal/cleanup/domain"
	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"
	"github.com/d093w1z/deinbox/pkg/gmail"
)

const topSenders = 10

// AnalyzeInteractionPatterns reports engagement signals for a classified batch
func AnalyzeInteractionPatterns(items []domain.Classified, now time.Time) domain.InteractionPatterns {
	patterns := domain.InteractionPatterns{
		LowEngagement:   make([]emaildomain.EmailMessage, 0),
		NeverOpened:     make([]emaildomain.EmailMessage, 0),
		FrequentSenders: make([]domain.SenderActivity, 0),
		InactiveThreads: make([]emaildomain.EmailMessage, 0),
	}

	oneMonthAgo := now.AddDate(0, -1, 0)
	index := make(map[string]int)

	for _, it := range items {
		e := it.Email

		if e.IsUnread {
			patterns.NeverOpened = append(patterns.NeverOpened, e)
			if e.Date.Before(oneMonthAgo) {
				patterns.InactiveThreads = append(patterns.InactiveThreads, e)
			}
		}

		switch it.Category.Category {
		case domain.CategoryNewsletter, domain.CategoryPromotional:
			patterns.LowEngagement = append(patterns.LowEngagement, e)
		}

		sender := gmail.ExtractAddress(e.From)
		i, ok := index[sender]
		if !ok {
			i = len(patterns.FrequentSenders)
			index[sender] = i
			patterns.FrequentSenders = append(patterns.FrequentSenders, domain.SenderActivity{Sender: sender})
		}
		activity := &patterns.FrequentSenders[i]
		activity.Count++
		if !e.IsUnread && (activity.LastInteraction == nil || e.Date.After(*activity.LastInteraction)) {
			date := e.Date
			activity.LastInteraction = &date
		}
	}

	sort.SliceStable(patterns.FrequentSenders, func(i, j int) bool {
		return patterns.FrequentSenders[i].Count > patterns.FrequentSenders[j].Count
	})
	if len(patterns.FrequentSenders) > topSenders {
		patterns.FrequentSenders = patterns.FrequentSenders[:topSenders]
	}
	return patterns
}
