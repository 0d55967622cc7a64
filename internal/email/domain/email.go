package domain

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// TokenUpdateFunc is called when the provider refreshes a user's Google token
type TokenUpdateFunc func(token *oauth2.Token) error

// ProviderCategory is Gmail's own inbox tab for a message
type ProviderCategory string

const (
	ProviderCategoryPrimary    ProviderCategory = "primary"
	ProviderCategorySocial     ProviderCategory = "social"
	ProviderCategoryPromotions ProviderCategory = "promotions"
	ProviderCategoryUpdates    ProviderCategory = "updates"
	ProviderCategoryForums     ProviderCategory = "forums"
)

// EmailMessage is an immutable snapshot of a provider message.
// It is built once by the gmail adapter and passed around by value.
type EmailMessage struct {
	ID            string           `json:"id"`
	ThreadID      string           `json:"threadId"`
	Snippet       string           `json:"snippet"`
	HistoryID     uint64           `json:"historyId,string"`
	InternalDate  int64            `json:"internalDate,string"`
	Subject       string           `json:"subject"`
	From          string           `json:"from"`
	To            string           `json:"to"`
	Date          time.Time        `json:"date"`
	Labels        []string         `json:"labels"`
	IsUnread      bool             `json:"isUnread"`
	HasAttachment bool             `json:"hasAttachment"`
	Category      ProviderCategory `json:"category"`
	Size          int64            `json:"size"`
}

// Validate checks the fields every downstream computation relies on.
func (m EmailMessage) Validate() error {
	if m.ID == "" {
		return &ValidationError{Field: "id", Reason: "message id is required"}
	}
	if m.Date.IsZero() {
		return &ValidationError{MessageID: m.ID, Field: "date", Reason: "message date is required"}
	}
	return nil
}

// Profile is the mailbox profile reported by the provider
type Profile struct {
	EmailAddress  string `json:"emailAddress"`
	HistoryID     uint64 `json:"historyId,string"`
	MessagesTotal int64  `json:"messagesTotal"`
	ThreadsTotal  int64  `json:"threadsTotal"`
}

// Stats is the folded summary of a mailbox batch
type Stats struct {
	TotalEmails     int                      `json:"totalEmails"`
	UnreadCount     int                      `json:"unreadCount"`
	CategoryCounts  map[ProviderCategory]int `json:"categoryCounts"`
	SenderFrequency map[string]int           `json:"senderFrequency"`
	AttachmentSize  int64                    `json:"attachmentSize"`
	OldEmailsCount  int                      `json:"oldEmailsCount"`
}

// UnsubscribeInfo describes how to leave a mailing list found in a message's headers
type UnsubscribeInfo struct {
	MessageID        string `json:"messageId"`
	UnsubscribeURL   string `json:"unsubscribeUrl,omitempty"`
	UnsubscribeEmail string `json:"unsubscribeEmail,omitempty"`
	Sender           string `json:"sender"`
}

// GmailStatsResponse is the dashboard aggregate rendered by the UI
type GmailStatsResponse struct {
	Profile          *Profile          `json:"profile"`
	Emails           []EmailMessage    `json:"emails"`
	RecentEmailCount int               `json:"recentEmailCount"`
	Stats            *Stats            `json:"stats"`
	UnsubscribeList  []UnsubscribeInfo `json:"unsubscribeList"`
}

// Credentials carries the per-request identity and Google tokens.
// Identity is the stable user key used to namespace cached data.
type Credentials struct {
	UserID         string
	Identity       string
	AccessToken    string
	RefreshToken   string
	Expiry         time.Time
	OnTokenRefresh TokenUpdateFunc
}

// MailProvider is the external mail API as seen by the email usecase
type MailProvider interface {
	GetProfile(ctx context.Context, creds Credentials) (*Profile, error)
	ListMessages(ctx context.Context, creds Credentials, query string, maxResults int) ([]EmailMessage, error)
	ListUnsubscribeInfo(ctx context.Context, creds Credentials, query string, maxResults int) ([]UnsubscribeInfo, error)
	DeleteMessages(ctx context.Context, creds Credentials, ids []string) error
	ArchiveMessages(ctx context.Context, creds Credentials, ids []string) error
}

// MessageFilter selects messages by the provider's search operators.
// Zero fields are ignored.
type MessageFilter struct {
	OlderThan     *time.Time       `json:"olderThan,omitempty"`
	Sender        string           `json:"sender,omitempty"`
	HasAttachment bool             `json:"hasAttachment,omitempty"`
	Category      ProviderCategory `json:"category,omitempty"`
	IsUnread      bool             `json:"isUnread,omitempty"`
}
