package usecase

import (
	"time"

	"github.com/d093w1z/deinbox/internal/cleanup/domain"
)

const largeAttachmentBytes = 5 * 1024 * 1024

var smartFilters = []domain.SmartFilter{
	{
		ID:              "old-newsletters",
		Name:            "Old Newsletters",
		Description:     "Newsletter emails older than 3 months",
		EstimatedImpact: "High - Removes clutter, keeps recent newsletters",
		Match: func(it domain.Classified, now time.Time) bool {
			return it.Category.Category == domain.CategoryNewsletter && it.Email.Date.Before(now.AddDate(0, -3, 0))
		},
	},
	{
		ID:              "promotional",
		Name:            "Promotional Emails",
		Description:     "All promotional and marketing emails",
		EstimatedImpact: "Medium - Removes marketing emails, may include wanted offers",
		Match: func(it domain.Classified, _ time.Time) bool {
			return it.Category.Category == domain.CategoryPromotional
		},
	},
	{
		ID:              "large-attachments",
		Name:            "Large Attachments",
		Description:     "Emails with attachments larger than 5MB",
		EstimatedImpact: "High - Frees up significant storage space",
		Match: func(it domain.Classified, _ time.Time) bool {
			return it.Email.HasAttachment && it.Email.Size > largeAttachmentBytes
		},
	},
	{
		ID:              "old-social",
		Name:            "Old Social Notifications",
		Description:     "Social media notifications older than 1 month",
		EstimatedImpact: "Medium - Removes outdated social notifications",
		Match: func(it domain.Classified, now time.Time) bool {
			return it.Category.Category == domain.CategorySocial && it.Email.Date.Before(now.AddDate(0, -1, 0))
		},
	},
	{
		ID:              "unread-old",
		Name:            "Unread Old Emails",
		Description:     "Unread emails older than 6 months",
		EstimatedImpact: "Medium - Likely irrelevant, but may contain important items",
		Match: func(it domain.Classified, now time.Time) bool {
			return it.Email.IsUnread && it.Email.Date.Before(now.AddDate(0, -6, 0))
		},
	},
}

// SmartFilters lists the built-in one-click selections
func SmartFilters() []domain.SmartFilter {
	out := make([]domain.SmartFilter, len(smartFilters))
	copy(out, smartFilters)
	return out
}

// FindSmartFilter looks a filter up by id
func FindSmartFilter(id string) (domain.SmartFilter, bool) {
	for _, f := range smartFilters {
		if f.ID == id {
			return f, true
		}
	}
	return domain.SmartFilter{}, false
}

// EvaluateSmartFilters runs every filter over items
func EvaluateSmartFilters(items []domain.Classified, now time.Time) []domain.SmartFilterResult {
	results := make([]domain.SmartFilterResult, 0, len(smartFilters))
	for _, f := range smartFilters {
		matched := f.Apply(items, now)
		ids := make([]string, len(matched))
		for i, m := range matched {
			ids[i] = m.ID
		}
		results = append(results, domain.SmartFilterResult{
			ID:              f.ID,
			Name:            f.Name,
			Description:     f.Description,
			EstimatedImpact: f.EstimatedImpact,
			EmailsMatched:   len(matched),
			MessageIDs:      ids,
		})
	}
	return results
}
