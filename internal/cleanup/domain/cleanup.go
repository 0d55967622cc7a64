package domain

import (
	"time"

	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"
)

// Category is the heuristic classification of a message. It is independent
// of the provider's own inbox tab.
type Category string

const (
	CategoryImportant     Category = "important"
	CategoryNewsletter    Category = "newsletter"
	CategorySpam          Category = "spam"
	CategoryTransactional Category = "transactional"
	CategorySocial        Category = "social"
	CategoryPromotional   Category = "promotional"
	CategoryPersonal      Category = "personal"
)

// EmailCategory is the classifier's verdict for one message
type EmailCategory struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// Classified pairs a message with its verdict
type Classified struct {
	Email    emaildomain.EmailMessage `json:"email"`
	Category EmailCategory            `json:"category"`
}

// Action a suggestion asks the user to take
type Action string

const (
	ActionDelete      Action = "delete"
	ActionArchive     Action = "archive"
	ActionUnsubscribe Action = "unsubscribe"
	ActionKeep        Action = "keep"
)

// Impact estimates what applying a suggestion would change
type Impact struct {
	EmailsAffected int      `json:"emailsAffected"`
	SpaceFreed     int64    `json:"spaceFreed"`
	Category       Category `json:"category"`
}

// CleanupSuggestion is a proposed bulk action over a set of messages.
// Suggestions are built per request and never persisted.
type CleanupSuggestion struct {
	Action     Action   `json:"action"`
	MessageIDs []string `json:"messageIds"`
	Reason     string   `json:"reason"`
	Confidence float64  `json:"confidence"`
	Impact     Impact   `json:"impact"`
}

// SenderActivity counts messages from one sender. LastInteraction is the
// newest read message from them, if any.
type SenderActivity struct {
	Sender          string     `json:"sender"`
	Count           int        `json:"count"`
	LastInteraction *time.Time `json:"lastInteraction,omitempty"`
}

// InteractionPatterns summarizes how the user engages with a batch
type InteractionPatterns struct {
	LowEngagement   []emaildomain.EmailMessage `json:"lowEngagement"`
	NeverOpened     []emaildomain.EmailMessage `json:"neverOpened"`
	FrequentSenders []SenderActivity           `json:"frequentSenders"`
	// InactiveThreads holds unread messages older than a month, one entry per message
	InactiveThreads []emaildomain.EmailMessage `json:"inactiveThreads"`
}

// SmartFilter is a named, reusable selection over classified messages
type SmartFilter struct {
	ID              string
	Name            string
	Description     string
	EstimatedImpact string
	Match           func(item Classified, now time.Time) bool
}

// Apply returns the messages the filter selects, in input order
func (f SmartFilter) Apply(items []Classified, now time.Time) []emaildomain.EmailMessage {
	matched := make([]emaildomain.EmailMessage, 0)
	for _, item := range items {
		if f.Match(item, now) {
			matched = append(matched, item.Email)
		}
	}
	return matched
}

// SmartFilterResult is a filter evaluated against a batch
type SmartFilterResult struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	EstimatedImpact string   `json:"estimatedImpact"`
	EmailsMatched   int      `json:"emailsMatched"`
	MessageIDs      []string `json:"messageIds"`
}

// Suggestions is the full cleanup report for one user
type Suggestions struct {
	Suggestions         []CleanupSuggestion `json:"suggestions"`
	InteractionPatterns InteractionPatterns `json:"interactionPatterns"`
	SmartFilters        []SmartFilterResult `json:"smartFilters"`
	GeneratedAt         time.Time           `json:"generatedAt"`
}
