package usecase

import (
	"fmt"
	"testing"
	"time"

	"github.com/d093w1z/deinbox/internal/cleanup/domain"
	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func classified(id, from string, category domain.Category, date time.Time) domain.Classified {
	return domain.Classified{
		Email: emaildomain.EmailMessage{
			ID:     id,
			From:   from,
			Date:   date,
			Size:   1000,
			Labels: []string{"INBOX"},
		},
		Category: domain.EmailCategory{Category: category, Confidence: 1, Reasons: []string{}},
	}
}

func repeat(n int, prefix, from string, category domain.Category, date time.Time) []domain.Classified {
	out := make([]domain.Classified, n)
	for i := range out {
		out[i] = classified(fmt.Sprintf("%s-%d", prefix, i), from, category, date)
	}
	return out
}

func confidences(suggestions []domain.CleanupSuggestion) []float64 {
	out := make([]float64, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Confidence
	}
	return out
}

func TestGenerateSuggestionsRanksByConfidence(t *testing.T) {
	var items []domain.Classified
	items = append(items, repeat(2, "promo", "Shop <offers@shop.com>", domain.CategoryPromotional, now.AddDate(0, -7, 0))...)
	items = append(items, repeat(10, "news", "Weekly <news@paper.com>", domain.CategoryNewsletter, now.AddDate(0, 0, -1))...)
	items = append(items, repeat(3, "social", "notifications@social.com", domain.CategorySocial, now.AddDate(0, -4, 0))...)
	items = append(items, repeat(1, "spam", "winner@lottery.biz", domain.CategorySpam, now)...)

	got := GenerateSuggestions(items, now)

	require.Len(t, got, 4)
	assert.Equal(t, []float64{0.9, 0.85, 0.8, 0.75}, confidences(got))
	assert.Equal(t, domain.ActionDelete, got[0].Action)
	assert.Equal(t, domain.ActionArchive, got[1].Action)
	assert.Equal(t, domain.ActionUnsubscribe, got[2].Action)
	assert.Equal(t, "Frequent newsletter sender: news@paper.com", got[2].Reason)
	assert.Equal(t, domain.ActionDelete, got[3].Action)
	assert.Equal(t, "Suspected spam emails", got[3].Reason)
}

func TestGenerateSuggestionsOldPromotionalImpact(t *testing.T) {
	items := repeat(5, "promo", "offers@shop.com", domain.CategoryPromotional, now.AddDate(0, -8, 0))
	items = append(items, classified("fresh", "offers@shop.com", domain.CategoryPromotional, now.AddDate(0, -1, 0)))

	got := GenerateSuggestions(items, now)

	require.Len(t, got, 1)
	assert.Equal(t, "Old promotional emails (6+ months old)", got[0].Reason)
	assert.Equal(t, []string{"promo-0", "promo-1", "promo-2", "promo-3", "promo-4"}, got[0].MessageIDs)
	assert.Equal(t, domain.Impact{EmailsAffected: 5, SpaceFreed: 5000, Category: domain.CategoryPromotional}, got[0].Impact)
}

func TestGenerateSuggestionsNewsletterThreshold(t *testing.T) {
	var items []domain.Classified
	items = append(items, repeat(10, "ten", "Daily <digest@ten.com>", domain.CategoryNewsletter, now)...)
	items = append(items, repeat(9, "nine", "digest@nine.com", domain.CategoryNewsletter, now)...)

	got := GenerateSuggestions(items, now)

	require.Len(t, got, 1)
	assert.Equal(t, domain.ActionUnsubscribe, got[0].Action)
	assert.Equal(t, "Frequent newsletter sender: digest@ten.com", got[0].Reason)
	assert.Equal(t, 10, got[0].Impact.EmailsAffected)
}

func TestGenerateSuggestionsOnePerFrequentNewsletterSender(t *testing.T) {
	var items []domain.Classified
	items = append(items, repeat(11, "a", "a@news.com", domain.CategoryNewsletter, now)...)
	items = append(items, repeat(12, "b", "b@news.com", domain.CategoryNewsletter, now)...)

	got := GenerateSuggestions(items, now)

	require.Len(t, got, 2)
	assert.Equal(t, "Frequent newsletter sender: b@news.com", got[0].Reason, "larger sender first")
	assert.Equal(t, "Frequent newsletter sender: a@news.com", got[1].Reason)
}

func TestGenerateSuggestionsCutoffsAreStrict(t *testing.T) {
	items := []domain.Classified{
		classified("p", "offers@shop.com", domain.CategoryPromotional, now.AddDate(0, -6, 0)),
		classified("s", "notifications@social.com", domain.CategorySocial, now.AddDate(0, -3, 0)),
	}

	assert.Empty(t, GenerateSuggestions(items, now))
}

func TestGenerateSuggestionsSpamNeedsConfidence(t *testing.T) {
	weak := classified("weak", "x@casino.com", domain.CategorySpam, now)
	weak.Category.Confidence = 0.7

	assert.Empty(t, GenerateSuggestions([]domain.Classified{weak}, now))
	assert.Empty(t, GenerateSuggestions(nil, now))
	assert.NotNil(t, GenerateSuggestions(nil, now))
}

func TestAnalyzeInteractionPatterns(t *testing.T) {
	read := classified("r1", "Alice <alice@gmail.com>", domain.CategoryPersonal, now.AddDate(0, 0, -3))
	readLater := classified("r2", "alice@gmail.com", domain.CategoryPersonal, now.AddDate(0, 0, -1))
	unreadOld := classified("u1", "alice@gmail.com", domain.CategoryPersonal, now.AddDate(0, -2, 0))
	unreadOld.Email.IsUnread = true
	unreadNew := classified("u2", "offers@shop.com", domain.CategoryPromotional, now)
	unreadNew.Email.IsUnread = true
	news := classified("n1", "news@paper.com", domain.CategoryNewsletter, now)

	patterns := AnalyzeInteractionPatterns([]domain.Classified{read, readLater, unreadOld, unreadNew, news}, now)

	assert.Equal(t, []string{"u1", "u2"}, ids(patterns.NeverOpened))
	assert.Equal(t, []string{"u1"}, ids(patterns.InactiveThreads))
	assert.Equal(t, []string{"u2", "n1"}, ids(patterns.LowEngagement))

	require.Len(t, patterns.FrequentSenders, 3)
	top := patterns.FrequentSenders[0]
	assert.Equal(t, "alice@gmail.com", top.Sender)
	assert.Equal(t, 3, top.Count)
	require.NotNil(t, top.LastInteraction)
	assert.Equal(t, now.AddDate(0, 0, -1), *top.LastInteraction)

	assert.Equal(t, "offers@shop.com", patterns.FrequentSenders[1].Sender, "ties keep first-seen order")
	assert.Nil(t, patterns.FrequentSenders[1].LastInteraction, "never read")
}

func TestAnalyzeInteractionPatternsCapsSenders(t *testing.T) {
	var items []domain.Classified
	for i := range 15 {
		items = append(items, repeat(15-i, fmt.Sprintf("s%d", i), fmt.Sprintf("s%d@x.com", i), domain.CategoryImportant, now)...)
	}

	patterns := AnalyzeInteractionPatterns(items, now)

	require.Len(t, patterns.FrequentSenders, 10)
	assert.Equal(t, "s0@x.com", patterns.FrequentSenders[0].Sender)
	assert.Equal(t, 15, patterns.FrequentSenders[0].Count)
	assert.Equal(t, "s9@x.com", patterns.FrequentSenders[9].Sender)
}

func TestAnalyzeInteractionPatternsEmpty(t *testing.T) {
	patterns := AnalyzeInteractionPatterns(nil, now)

	assert.NotNil(t, patterns.LowEngagement)
	assert.NotNil(t, patterns.NeverOpened)
	assert.NotNil(t, patterns.FrequentSenders)
	assert.NotNil(t, patterns.InactiveThreads)
}

func TestSmartFilters(t *testing.T) {
	big := classified("big", "bob@work.com", domain.CategoryImportant, now)
	big.Email.HasAttachment = true
	big.Email.Size = 6 * 1024 * 1024
	bigNoAttachment := classified("bulky", "bob@work.com", domain.CategoryImportant, now)
	bigNoAttachment.Email.Size = 6 * 1024 * 1024
	staleUnread := classified("stale", "bob@work.com", domain.CategoryImportant, now.AddDate(0, -7, 0))
	staleUnread.Email.IsUnread = true

	items := []domain.Classified{
		classified("old-news", "news@paper.com", domain.CategoryNewsletter, now.AddDate(0, -4, 0)),
		classified("new-news", "news@paper.com", domain.CategoryNewsletter, now),
		classified("promo", "offers@shop.com", domain.CategoryPromotional, now),
		classified("old-social", "notifications@social.com", domain.CategorySocial, now.AddDate(0, -2, 0)),
		big, bigNoAttachment, staleUnread,
	}

	results := EvaluateSmartFilters(items, now)

	matched := make(map[string][]string, len(results))
	for _, r := range results {
		assert.Equal(t, len(r.MessageIDs), r.EmailsMatched)
		assert.NotEmpty(t, r.Name)
		assert.NotEmpty(t, r.EstimatedImpact)
		matched[r.ID] = r.MessageIDs
	}
	assert.Equal(t, map[string][]string{
		"old-newsletters":   {"old-news"},
		"promotional":       {"promo"},
		"large-attachments": {"big"},
		"old-social":        {"old-social"},
		"unread-old":        {"stale"},
	}, matched)
}

func TestFindSmartFilter(t *testing.T) {
	f, ok := FindSmartFilter("promotional")
	require.True(t, ok)
	assert.Equal(t, "Promotional Emails", f.Name)

	_, ok = FindSmartFilter("nope")
	assert.False(t, ok)

	assert.Len(t, SmartFilters(), 5)
}

func ids(msgs []emaildomain.EmailMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}
