package usecase

import (
	"fmt"
	"sort"
	"time"

	"github.com/d093w1z/deinbox/internal/cleanup/domain"
	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"
	"github.com/d093w1z/deinbox/pkg/gmail"
)

const (
	newsletterMinCount   = 10
	spamConfidenceCutoff = 0.7
)

// GenerateSuggestions applies the cleanup rules to a classified batch and
// returns the suggestions ordered by descending confidence.
func GenerateSuggestions(items []domain.Classified, now time.Time) []domain.CleanupSuggestion {
	suggestions := make([]domain.CleanupSuggestion, 0, 4)

	sixMonthsAgo := now.AddDate(0, -6, 0)
	oldPromotional := filter(items, func(it domain.Classified) bool {
		return it.Category.Category == domain.CategoryPromotional && it.Email.Date.Before(sixMonthsAgo)
	})
	if len(oldPromotional) > 0 {
		suggestions = append(suggestions, suggestion(domain.ActionDelete, oldPromotional,
			"Old promotional emails (6+ months old)", 0.9, domain.CategoryPromotional))
	}

	newsletters := filter(items, func(it domain.Classified) bool {
		return it.Category.Category == domain.CategoryNewsletter
	})
	for _, group := range groupBySender(newsletters) {
		if len(group.emails) < newsletterMinCount {
			break
		}
		suggestions = append(suggestions, suggestion(domain.ActionUnsubscribe, group.emails,
			fmt.Sprintf("Frequent newsletter sender: %s", group.sender), 0.8, domain.CategoryNewsletter))
	}

	threeMonthsAgo := now.AddDate(0, -3, 0)
	oldSocial := filter(items, func(it domain.Classified) bool {
		return it.Category.Category == domain.CategorySocial && it.Email.Date.Before(threeMonthsAgo)
	})
	if len(oldSocial) > 0 {
		suggestions = append(suggestions, suggestion(domain.ActionArchive, oldSocial,
			"Old social media notifications (3+ months old)", 0.85, domain.CategorySocial))
	}

	spam := filter(items, func(it domain.Classified) bool {
		return it.Category.Category == domain.CategorySpam && it.Category.Confidence > spamConfidenceCutoff
	})
	if len(spam) > 0 {
		suggestions = append(suggestions, suggestion(domain.ActionDelete, spam,
			"Suspected spam emails", 0.75, domain.CategorySpam))
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	return suggestions
}

func suggestion(action domain.Action, emails []emaildomain.EmailMessage, reason string, confidence float64, category domain.Category) domain.CleanupSuggestion {
	ids := make([]string, len(emails))
	var size int64
	for i, e := range emails {
		ids[i] = e.ID
		size += e.Size
	}
	return domain.CleanupSuggestion{
		Action:     action,
		MessageIDs: ids,
		Reason:     reason,
		Confidence: confidence,
		Impact: domain.Impact{
			EmailsAffected: len(emails),
			SpaceFreed:     size,
			Category:       category,
		},
	}
}

func filter(items []domain.Classified, keep func(domain.Classified) bool) []emaildomain.EmailMessage {
	var out []emaildomain.EmailMessage
	for _, it := range items {
		if keep(it) {
			out = append(out, it.Email)
		}
	}
	return out
}

type senderGroup struct {
	sender string
	emails []emaildomain.EmailMessage
}

// groupBySender buckets messages by bare sender address, largest group first.
// Equal sizes keep first-seen order.
func groupBySender(emails []emaildomain.EmailMessage) []senderGroup {
	index := make(map[string]int)
	var groups []senderGroup
	for _, e := range emails {
		sender := gmail.ExtractAddress(e.From)
		i, ok := index[sender]
		if !ok {
			i = len(groups)
			index[sender] = i
			groups = append(groups, senderGroup{sender: sender})
		}
		groups[i].emails = append(groups[i].emails, e)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].emails) > len(groups[j].emails)
	})
	return groups
}
