package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/d093w1z/deinbox/internal/cleanup/domain"
	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"
	emailusecase "github.com/d093w1z/deinbox/internal/email/usecase"
	"github.com/d093w1z/deinbox/pkg/cache"
	"github.com/d093w1z/deinbox/pkg/categorizer"
	"github.com/d093w1z/deinbox/pkg/config"
	"github.com/d093w1z/deinbox/pkg/metrics"

	"go.uber.org/zap"
)

// cleanupUsecase implements CleanupUsecase interface
type cleanupUsecase struct {
	emails     emailusecase.EmailUsecase
	classifier *categorizer.Categorizer
	cache      *cache.Gateway
	config     *config.Config
	log        *zap.Logger
	now        func() time.Time
}

// NewCleanupUsecase creates a new instance of cleanupUsecase
func NewCleanupUsecase(emails emailusecase.EmailUsecase, classifier *categorizer.Categorizer, gateway *cache.Gateway, cfg *config.Config, log *zap.Logger) CleanupUsecase {
	return &cleanupUsecase{
		emails:     emails,
		classifier: classifier,
		cache:      gateway,
		config:     cfg,
		log:        log,
		now:        time.Now,
	}
}

func (u *cleanupUsecase) GetSuggestions(ctx context.Context, userID string) (*domain.Suggestions, error) {
	identity, err := u.emails.Identity(userID)
	if err != nil {
		return nil, err
	}

	key := u.cache.Key(identity, emailusecase.CacheOpSuggestions)
	return cache.Fetch(ctx, u.cache, key, u.config.Cache.TTLSuggestions, func(ctx context.Context) (*domain.Suggestions, error) {
		items, err := u.classifiedBatch(ctx, userID)
		if err != nil {
			return nil, err
		}

		now := u.now()
		report := &domain.Suggestions{
			Suggestions:         GenerateSuggestions(items, now),
			InteractionPatterns: AnalyzeInteractionPatterns(items, now),
			SmartFilters:        EvaluateSmartFilters(items, now),
			GeneratedAt:         now,
		}

		for _, s := range report.Suggestions {
			metrics.RecordSuggestion(string(s.Action))
		}
		u.log.Info("cleanup suggestions generated",
			zap.String("user_id", userID),
			zap.Int("messages", len(items)),
			zap.Int("suggestions", len(report.Suggestions)),
		)
		return report, nil
	})
}

func (u *cleanupUsecase) ApplySmartFilter(ctx context.Context, userID, filterID string) ([]emaildomain.EmailMessage, error) {
	filter, ok := FindSmartFilter(filterID)
	if !ok {
		return nil, &emaildomain.ValidationError{Field: "filter", Reason: fmt.Sprintf("unknown smart filter %q", filterID)}
	}

	items, err := u.classifiedBatch(ctx, userID)
	if err != nil {
		return nil, err
	}
	return filter.Apply(items, u.now()), nil
}

func (u *cleanupUsecase) Categorize(ctx context.Context, userID, query string, maxResults int) ([]domain.Classified, error) {
	msgs, err := u.emails.GetMessages(ctx, userID, query, maxResults)
	if err != nil {
		return nil, err
	}
	return u.classifier.CategorizeAll(msgs)
}

// classifiedBatch loads the analysis batch through the cached message read
func (u *cleanupUsecase) classifiedBatch(ctx context.Context, userID string) ([]domain.Classified, error) {
	msgs, err := u.emails.GetMessages(ctx, userID, "", u.config.Gmail.SuggestionsBatchSize)
	if err != nil {
		return nil, err
	}
	return u.classifier.CategorizeAll(msgs)
}
