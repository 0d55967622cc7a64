package categorizer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/d093w1z/deinbox/internal/cleanup/domain"
	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"
)

const (
	keywordWeight = 1.0
	senderWeight  = 2.0
	subjectWeight = 1.5
)

type compiledRule struct {
	RuleSet
	subject []*regexp.Regexp
}

// Categorizer assigns heuristic categories to messages. It holds no mutable
// state and is safe for concurrent use.
type Categorizer struct {
	rules []compiledRule
}

// Score is one category's normalized score
type Score struct {
	Category domain.Category `json:"category"`
	Value    float64         `json:"value"`
}

var defaultCategorizer = mustNew(DefaultRules())

// Default returns the categorizer built from DefaultRules
func Default() *Categorizer {
	return defaultCategorizer
}

// NewCategorizer compiles rules. Rule order is the tie-break order.
func NewCategorizer(rules []RuleSet) (*Categorizer, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("categorizer needs at least one rule set")
	}

	compiled := make([]compiledRule, 0, len(rules))
	seen := make(map[domain.Category]bool, len(rules))
	for _, r := range rules {
		if seen[r.Category] {
			return nil, fmt.Errorf("duplicate rule set for category %q", r.Category)
		}
		seen[r.Category] = true

		cr := compiledRule{RuleSet: r}
		for _, p := range r.SubjectPatterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("category %s: bad subject pattern %q: %w", r.Category, p, err)
			}
			cr.subject = append(cr.subject, re)
		}
		compiled = append(compiled, cr)
	}
	return &Categorizer{rules: compiled}, nil
}

func mustNew(rules []RuleSet) *Categorizer {
	c, err := NewCategorizer(rules)
	if err != nil {
		panic(err)
	}
	return c
}

// Categorize picks the highest scoring category for msg. Confidence is the
// winner's score normalized by the maximum raw score, so it is 1 whenever
// anything matched and 0 when nothing did. Reasons list the winner's keyword
// and sender matches; subject matches are scored but not reported.
func (c *Categorizer) Categorize(msg emaildomain.EmailMessage) (domain.EmailCategory, error) {
	scores, err := c.Scores(msg)
	if err != nil {
		return domain.EmailCategory{}, err
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i].Value > scores[best].Value {
			best = i
		}
	}

	return domain.EmailCategory{
		Category:   scores[best].Category,
		Confidence: scores[best].Value,
		Reasons:    c.reasons(msg, c.rules[best]),
	}, nil
}

// Scores returns every category's normalized score in rule order
func (c *Categorizer) Scores(msg emaildomain.EmailMessage) ([]Score, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	text := searchText(msg)
	from := strings.ToLower(msg.From)

	scores := make([]Score, len(c.rules))
	maxScore := 0.0
	for i, r := range c.rules {
		score := 0.0
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				score += keywordWeight
			}
		}
		for _, p := range r.SenderPatterns {
			if strings.Contains(from, p) {
				score += senderWeight
			}
		}
		for _, re := range r.subject {
			if re.MatchString(msg.Subject) {
				score += subjectWeight
			}
		}

		scores[i] = Score{Category: r.Category, Value: score}
		maxScore = max(maxScore, score)
	}

	if maxScore > 0 {
		for i := range scores {
			scores[i].Value /= maxScore
		}
	}
	return scores, nil
}

// CategorizeAll classifies a batch, stopping at the first invalid message
func (c *Categorizer) CategorizeAll(msgs []emaildomain.EmailMessage) ([]domain.Classified, error) {
	out := make([]domain.Classified, 0, len(msgs))
	for _, m := range msgs {
		cat, err := c.Categorize(m)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Classified{Email: m, Category: cat})
	}
	return out, nil
}

func (c *Categorizer) reasons(msg emaildomain.EmailMessage, r compiledRule) []string {
	text := searchText(msg)
	from := strings.ToLower(msg.From)

	reasons := make([]string, 0)
	for _, kw := range r.Keywords {
		if strings.Contains(text, kw) {
			reasons = append(reasons, "matched keyword: "+kw)
		}
	}
	for _, p := range r.SenderPatterns {
		if strings.Contains(from, p) {
			reasons = append(reasons, "matched sender pattern: "+p)
		}
	}
	return reasons
}

func searchText(msg emaildomain.EmailMessage) string {
	return strings.ToLower(msg.Subject + " " + msg.Snippet + " " + msg.From)
}
