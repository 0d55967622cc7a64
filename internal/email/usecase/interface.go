package usecase

import (
	"context"

	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"
)

// EmailUsecase defines the interface for mailbox use cases. Every read goes
// through the cache; every mutation invalidates the user's cached reads.
type EmailUsecase interface {
	GetProfile(ctx context.Context, userID string) (*emaildomain.Profile, error)
	GetMessages(ctx context.Context, userID, query string, maxResults int) ([]emaildomain.EmailMessage, error)
	GetMessagesByFilter(ctx context.Context, userID string, filter emaildomain.MessageFilter) ([]emaildomain.EmailMessage, error)
	GetEmailStats(ctx context.Context, userID string) (*emaildomain.Stats, error)
	GetUnsubscribeInfo(ctx context.Context, userID string) ([]emaildomain.UnsubscribeInfo, error)
	GetDashboard(ctx context.Context, userID, query string) (*emaildomain.GmailStatsResponse, error)

	// DeleteMessages and ArchiveMessages return how many distinct ids were sent to the provider
	DeleteMessages(ctx context.Context, userID string, ids []string) (int, error)
	ArchiveMessages(ctx context.Context, userID string, ids []string) (int, error)
	Unsubscribe(ctx context.Context, userID, url string) error
	ListActions(ctx context.Context, userID string, limit int) ([]*emaildomain.ActionLog, error)

	// Identity returns the key the user's cached data lives under
	Identity(userID string) (string, error)
}

// Unsubscriber follows a List-Unsubscribe URL
type Unsubscriber interface {
	Follow(ctx context.Context, url string) error
}
