package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	authrepo "github.com/d093w1z/deinbox/internal/auth/repository"
	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"
	"github.com/d093w1z/deinbox/internal/email/repository"
	"github.com/d093w1z/deinbox/pkg/cache"
	"github.com/d093w1z/deinbox/pkg/config"
	"github.com/d093w1z/deinbox/pkg/gmail"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// Cache operation names. The key of each cached read is built from the
// user's identity, the operation and its parameters.
const (
	CacheOpProfile     = "profile"
	CacheOpMessages    = "messages"
	CacheOpStats       = "stats"
	CacheOpUnsubscribe = "unsubscribe"
	CacheOpSuggestions = "suggestions"
)

const (
	DefaultDashboardQuery = "newer_than:7d"
	DefaultMaxResults     = 50
	MaxMessagesPerRequest = 1000

	promotionsQuery = "category:promotions"
	unreadQuery     = "is:unread"
)

// emailUsecase implements EmailUsecase interface
type emailUsecase struct {
	userRepo     authrepo.UserRepository
	actionRepo   repository.ActionLogRepository
	mailProvider emaildomain.MailProvider
	unsubscriber Unsubscriber
	cache        *cache.Gateway
	config       *config.Config
	log          *zap.Logger
	now          func() time.Time
}

// NewEmailUsecase creates a new instance of emailUsecase
func NewEmailUsecase(
	userRepo authrepo.UserRepository,
	actionRepo repository.ActionLogRepository,
	mailProvider emaildomain.MailProvider,
	unsubscriber Unsubscriber,
	gateway *cache.Gateway,
	cfg *config.Config,
	log *zap.Logger,
) EmailUsecase {
	return &emailUsecase{
		userRepo:     userRepo,
		actionRepo:   actionRepo,
		mailProvider: mailProvider,
		unsubscriber: unsubscriber,
		cache:        gateway,
		config:       cfg,
		log:          log,
		now:          time.Now,
	}
}

func (u *emailUsecase) credentials(userID string) (emaildomain.Credentials, error) {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return emaildomain.Credentials{}, fmt.Errorf("load user %s: %w", userID, err)
	}
	if user == nil {
		return emaildomain.Credentials{}, &emaildomain.AuthError{Reason: "user not found"}
	}
	if !user.GmailConnected() {
		return emaildomain.Credentials{}, &emaildomain.AuthError{Reason: "gmail access not granted"}
	}

	return emaildomain.Credentials{
		UserID:         user.ID,
		Identity:       user.Email,
		AccessToken:    user.AccessToken,
		RefreshToken:   user.RefreshToken,
		Expiry:         user.TokenExpiry,
		OnTokenRefresh: u.makeTokenUpdateCallback(user.ID),
	}, nil
}

func (u *emailUsecase) makeTokenUpdateCallback(userID string) emaildomain.TokenUpdateFunc {
	return func(token *oauth2.Token) error {
		return u.userRepo.UpdateGoogleToken(userID, token)
	}
}

func (u *emailUsecase) Identity(userID string) (string, error) {
	creds, err := u.credentials(userID)
	if err != nil {
		return "", err
	}
	return creds.Identity, nil
}

func (u *emailUsecase) GetProfile(ctx context.Context, userID string) (*emaildomain.Profile, error) {
	creds, err := u.credentials(userID)
	if err != nil {
		return nil, err
	}

	key := u.cache.Key(creds.Identity, CacheOpProfile)
	return cache.Fetch(ctx, u.cache, key, u.config.Cache.TTLProfile, func(ctx context.Context) (*emaildomain.Profile, error) {
		return u.mailProvider.GetProfile(ctx, creds)
	})
}

func (u *emailUsecase) GetMessages(ctx context.Context, userID, query string, maxResults int) ([]emaildomain.EmailMessage, error) {
	creds, err := u.credentials(userID)
	if err != nil {
		return nil, err
	}
	return u.messages(ctx, creds, query, maxResults)
}

func (u *emailUsecase) GetMessagesByFilter(ctx context.Context, userID string, filter emaildomain.MessageFilter) ([]emaildomain.EmailMessage, error) {
	creds, err := u.credentials(userID)
	if err != nil {
		return nil, err
	}
	return u.messages(ctx, creds, gmail.BuildFilterQuery(filter), DefaultMaxResults)
}

// messages is the cached list read shared by every operation. Empty results
// are kept for a shorter time so new mail shows up sooner.
func (u *emailUsecase) messages(ctx context.Context, creds emaildomain.Credentials, query string, maxResults int) ([]emaildomain.EmailMessage, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > MaxMessagesPerRequest {
		return nil, &emaildomain.ValidationError{
			Field:  "maxResults",
			Reason: fmt.Sprintf("must be at most %d", MaxMessagesPerRequest),
		}
	}

	key := u.messagesKey(creds.Identity, query, maxResults)
	ttl := func(msgs []emaildomain.EmailMessage) time.Duration {
		if len(msgs) == 0 {
			return u.config.Cache.TTLEmpty
		}
		return u.config.Cache.TTLMessages
	}

	return cache.FetchFunc(ctx, u.cache, key, ttl, func(ctx context.Context) ([]emaildomain.EmailMessage, error) {
		msgs, err := u.mailProvider.ListMessages(ctx, creds, query, maxResults)
		if err != nil {
			return nil, err
		}
		if msgs == nil {
			msgs = []emaildomain.EmailMessage{}
		}
		return msgs, nil
	})
}

func (u *emailUsecase) messagesKey(identity, query string, maxResults int) string {
	return u.cache.Key(identity, CacheOpMessages, query, strconv.Itoa(maxResults))
}

func (u *emailUsecase) GetEmailStats(ctx context.Context, userID string) (*emaildomain.Stats, error) {
	creds, err := u.credentials(userID)
	if err != nil {
		return nil, err
	}
	return u.stats(ctx, creds)
}

func (u *emailUsecase) stats(ctx context.Context, creds emaildomain.Credentials) (*emaildomain.Stats, error) {
	key := u.cache.Key(creds.Identity, CacheOpStats)
	return cache.Fetch(ctx, u.cache, key, u.config.Cache.TTLStats, func(ctx context.Context) (*emaildomain.Stats, error) {
		all, err := u.messages(ctx, creds, "", u.config.Gmail.StatsBatchSize)
		if err != nil {
			return nil, err
		}
		unread, err := u.messages(ctx, creds, unreadQuery, u.config.Gmail.UnreadBatchSize)
		if err != nil {
			return nil, err
		}
		return FoldStats(all, len(unread), u.now()), nil
	})
}

func (u *emailUsecase) GetUnsubscribeInfo(ctx context.Context, userID string) ([]emaildomain.UnsubscribeInfo, error) {
	creds, err := u.credentials(userID)
	if err != nil {
		return nil, err
	}
	return u.unsubscribeInfo(ctx, creds)
}

func (u *emailUsecase) unsubscribeInfo(ctx context.Context, creds emaildomain.Credentials) ([]emaildomain.UnsubscribeInfo, error) {
	key := u.cache.Key(creds.Identity, CacheOpUnsubscribe)
	return cache.Fetch(ctx, u.cache, key, u.config.Cache.TTLUnsubscribe, func(ctx context.Context) ([]emaildomain.UnsubscribeInfo, error) {
		list, err := u.mailProvider.ListUnsubscribeInfo(ctx, creds, promotionsQuery, DefaultMaxResults)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []emaildomain.UnsubscribeInfo{}
		}
		return list, nil
	})
}

// GetDashboard assembles the overview in parallel. Any failing part fails
// the whole response.
func (u *emailUsecase) GetDashboard(ctx context.Context, userID, query string) (*emaildomain.GmailStatsResponse, error) {
	creds, err := u.credentials(userID)
	if err != nil {
		return nil, err
	}
	if query == "" {
		query = DefaultDashboardQuery
	}

	var resp emaildomain.GmailStatsResponse
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		resp.Emails, err = u.messages(gctx, creds, query, DefaultMaxResults)
		return err
	})
	g.Go(func() (err error) {
		key := u.cache.Key(creds.Identity, CacheOpProfile)
		resp.Profile, err = cache.Fetch(gctx, u.cache, key, u.config.Cache.TTLProfile, func(ctx context.Context) (*emaildomain.Profile, error) {
			return u.mailProvider.GetProfile(ctx, creds)
		})
		return err
	})
	g.Go(func() (err error) {
		resp.Stats, err = u.stats(gctx, creds)
		return err
	})
	g.Go(func() (err error) {
		resp.UnsubscribeList, err = u.unsubscribeInfo(gctx, creds)
		return err
	})

	if err := g.Wait(); err != nil {
		u.log.Warn("dashboard aborted", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp.RecentEmailCount = len(resp.Emails)
	return &resp, nil
}

func (u *emailUsecase) DeleteMessages(ctx context.Context, userID string, ids []string) (int, error) {
	return u.bulk(ctx, userID, emaildomain.BulkActionDelete, ids, u.mailProvider.DeleteMessages)
}

func (u *emailUsecase) ArchiveMessages(ctx context.Context, userID string, ids []string) (int, error) {
	return u.bulk(ctx, userID, emaildomain.BulkActionArchive, ids, u.mailProvider.ArchiveMessages)
}

type bulkFunc func(ctx context.Context, creds emaildomain.Credentials, ids []string) error

// bulk runs a mutation over the deduplicated ids. A failure may still have
// applied to some of them, so cached reads are dropped either way.
func (u *emailUsecase) bulk(ctx context.Context, userID string, action emaildomain.BulkAction, ids []string, run bulkFunc) (int, error) {
	ids, err := normalizeIDs(ids)
	if err != nil {
		return 0, err
	}

	creds, err := u.credentials(userID)
	if err != nil {
		return 0, err
	}

	err = run(ctx, creds, ids)
	u.record(ctx, userID, action, len(ids), err)
	u.invalidate(ctx, creds.Identity)
	if err != nil {
		u.log.Error("bulk action failed",
			zap.String("user_id", userID),
			zap.String("action", string(action)),
			zap.Int("count", len(ids)),
			zap.Error(err),
		)
		return 0, err
	}

	u.log.Info("bulk action applied",
		zap.String("user_id", userID),
		zap.String("action", string(action)),
		zap.Int("count", len(ids)),
	)
	return len(ids), nil
}

// normalizeIDs rejects empty input and drops duplicates, keeping order
func normalizeIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, &emaildomain.ValidationError{Field: "messageIds", Reason: "at least one message id is required"}
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			return nil, &emaildomain.ValidationError{Field: "messageIds", Reason: "message id must not be empty"}
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func (u *emailUsecase) Unsubscribe(ctx context.Context, userID, url string) error {
	creds, err := u.credentials(userID)
	if err != nil {
		return err
	}

	err = u.unsubscriber.Follow(ctx, url)
	u.record(ctx, userID, emaildomain.BulkActionUnsubscribe, 1, err)
	if err != nil {
		return err
	}

	u.cache.Invalidate(ctx,
		u.cache.Key(creds.Identity, CacheOpUnsubscribe),
		u.cache.Key(creds.Identity, CacheOpSuggestions),
	)
	return nil
}

func (u *emailUsecase) ListActions(ctx context.Context, userID string, limit int) ([]*emaildomain.ActionLog, error) {
	return u.actionRepo.ListByUser(ctx, userID, limit)
}

// record writes the action history. A failed write is logged and does not
// change the outcome of the action itself.
func (u *emailUsecase) record(ctx context.Context, userID string, action emaildomain.BulkAction, count int, actionErr error) {
	entry := &emaildomain.ActionLog{
		UserID:       userID,
		Action:       action,
		MessageCount: count,
		Status:       emaildomain.ActionStatusSuccess,
		CreatedAt:    u.now(),
	}
	if actionErr != nil {
		entry.Status = emaildomain.ActionStatusFailed
		entry.Error = actionErr.Error()
	}

	if err := u.actionRepo.Record(ctx, entry); err != nil {
		u.log.Warn("failed to record action", zap.String("user_id", userID), zap.Error(err))
	}
}

// invalidate drops every cached read this service issues with fixed
// parameters. Ad-hoc message queries are left to expire.
func (u *emailUsecase) invalidate(ctx context.Context, identity string) {
	g := u.config.Gmail
	u.cache.Invalidate(ctx,
		u.cache.Key(identity, CacheOpProfile),
		u.cache.Key(identity, CacheOpStats),
		u.cache.Key(identity, CacheOpUnsubscribe),
		u.cache.Key(identity, CacheOpSuggestions),
		u.messagesKey(identity, DefaultDashboardQuery, DefaultMaxResults),
		u.messagesKey(identity, "", DefaultMaxResults),
		u.messagesKey(identity, "", g.StatsBatchSize),
		u.messagesKey(identity, unreadQuery, g.UnreadBatchSize),
		u.messagesKey(identity, "", g.SuggestionsBatchSize),
	)
}
