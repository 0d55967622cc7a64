package usecase

import (
	"context"

	"github.com/d093w1z/deinbox/internal/cleanup/domain"
	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"
)

// CleanupUsecase turns a user's recent mail into cleanup advice.
// Nothing it produces is persisted; suggestions live only in the cache.
type CleanupUsecase interface {
	GetSuggestions(ctx context.Context, userID string) (*domain.Suggestions, error)
	ApplySmartFilter(ctx context.Context, userID, filterID string) ([]emaildomain.EmailMessage, error)
	Categorize(ctx context.Context, userID, query string, maxResults int) ([]domain.Classified, error)
}
