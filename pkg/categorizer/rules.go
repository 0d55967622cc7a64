package categorizer

import "github.com/d093w1z/deinbox/internal/cleanup/domain"

// RuleSet scores one category. Keywords are matched against the lowercased
// subject, snippet and sender; sender patterns against the lowercased From
// header; subject patterns are case-insensitive regular expressions.
type RuleSet struct {
	Category        domain.Category
	Keywords        []string
	SenderPatterns  []string
	SubjectPatterns []string
}

// DefaultRules in tie-break order: on equal scores the earlier rule wins.
// Personal matches on content only.
func DefaultRules() []RuleSet {
	return []RuleSet{
		{
			Category:        domain.CategoryImportant,
			Keywords:        []string{"urgent", "important", "asap", "deadline", "meeting", "appointment"},
			SenderPatterns:  []string{"boss@", "manager@", "admin@"},
			SubjectPatterns: []string{`urgent`, `meeting`, `deadline`},
		},
		{
			Category:        domain.CategoryNewsletter,
			Keywords:        []string{"newsletter", "unsubscribe", "digest", "weekly", "monthly", "update", "news"},
			SenderPatterns:  []string{"noreply@", "newsletter@", "news@", "digest@"},
			SubjectPatterns: []string{`newsletter`, `weekly digest`, `monthly update`},
		},
		{
			Category:        domain.CategorySpam,
			Keywords:        []string{"viagra", "lottery", "winner", "congratulations", "urgent", "act now", "guarantee"},
			SenderPatterns:  []string{"suspicious patterns"},
			SubjectPatterns: []string{`re:`, `fw:`, `urgent`, `congratulations`},
		},
		{
			Category:        domain.CategoryTransactional,
			Keywords:        []string{"receipt", "order", "confirmation", "invoice", "payment", "shipping", "tracking"},
			SenderPatterns:  []string{"orders@", "billing@", "payments@", "support@"},
			SubjectPatterns: []string{`order #`, `receipt`, `confirmation`, `invoice`},
		},
		{
			Category:        domain.CategorySocial,
			Keywords:        []string{"friend", "follow", "like", "comment", "mention", "tagged"},
			SenderPatterns:  []string{"facebook", "twitter", "linkedin", "instagram", "notifications@"},
			SubjectPatterns: []string{`mentioned you`, `tagged you`, `friend request`},
		},
		{
			Category:        domain.CategoryPromotional,
			Keywords:        []string{"sale", "discount", "offer", "deal", "promotion", "coupon", "free", "limited time"},
			SenderPatterns:  []string{"marketing@", "promo@", "offers@"},
			SubjectPatterns: []string{`\d+% off`, `sale`, `deal`, `free`},
		},
		{
			Category:        domain.CategoryPersonal,
			Keywords:        []string{"family", "birthday", "dinner", "weekend", "catch up", "thanks"},
			SubjectPatterns: []string{`^hi\b`, `^hey\b`},
		},
	}
}
