package gmail

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"
	"github.com/d093w1z/deinbox/pkg/config"
	"github.com/d093w1z/deinbox/pkg/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	user = "me"

	// Gmail API limits
	maxListPageSize   = 500
	maxBatchModifyIDs = 1000

	defaultMaxResults = 50
)

// TokenUpdateFunc is a callback function that handles token updates
type TokenUpdateFunc = emaildomain.TokenUpdateFunc

// Service talks to the Gmail API on behalf of one user per call.
type Service struct {
	clientID     string
	clientSecret string

	cfg     config.GmailConfig
	log     *zap.Logger
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker

	// test hooks
	endpoint   string
	httpClient *http.Client
}

// Option customizes a Service
type Option func(*Service)

// WithEndpoint points the client at a different API root
func WithEndpoint(endpoint string) Option {
	return func(s *Service) { s.endpoint = endpoint }
}

// WithHTTPClient replaces the per-user OAuth transport with a fixed client
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) { s.httpClient = client }
}

type notifyTokenSource struct {
	mu       sync.Mutex
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
	log      *zap.Logger
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			s.log.Warn("failed to persist refreshed google token", zap.Error(err))
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret string, cfg config.GmailConfig, log *zap.Logger, opts ...Option) *Service {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 10
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 25
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		cfg:          cfg,
		log:          log,
		limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.FetchConcurrency),
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gmail-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		IsSuccessful: countsAsHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetGmailService creates Gmail service with user's tokens
func (s *Service) GetGmailService(ctx context.Context, creds emaildomain.Credentials) (*gmail.Service, error) {
	opts := make([]option.ClientOption, 0, 2)
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}

	if s.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(s.httpClient))
	} else {
		if creds.AccessToken == "" && creds.RefreshToken == "" {
			return nil, &emaildomain.AuthError{Reason: "no google access token"}
		}

		token := &oauth2.Token{
			AccessToken:  creds.AccessToken,
			RefreshToken: creds.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       creds.Expiry,
		}
		// unknown expiry with a refresh token: refresh up front
		if token.Expiry.IsZero() && creds.RefreshToken != "" {
			token.Expiry = time.Now()
		}

		oauthCfg := &oauth2.Config{
			ClientID:     s.clientID,
			ClientSecret: s.clientSecret,
			Endpoint:     google.Endpoint,
		}
		src := &notifyTokenSource{
			src:      oauthCfg.TokenSource(ctx, token),
			current:  token,
			callback: creds.OnTokenRefresh,
			log:      s.log.With(zap.String("user_id", creds.UserID)),
		}
		opts = append(opts, option.WithHTTPClient(oauth2.NewClient(ctx, src)))
	}

	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return srv, nil
}

// GetProfile returns the mailbox profile
func (s *Service) GetProfile(ctx context.Context, creds emaildomain.Credentials) (*emaildomain.Profile, error) {
	srv, err := s.GetGmailService(ctx, creds)
	if err != nil {
		return nil, err
	}

	var p *gmail.Profile
	err = s.do(ctx, "profile.get", func() (err error) {
		p, err = srv.Users.GetProfile(user).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, mapError("profile.get", err)
	}

	return &emaildomain.Profile{
		EmailAddress:  p.EmailAddress,
		HistoryID:     p.HistoryId,
		MessagesTotal: p.MessagesTotal,
		ThreadsTotal:  p.ThreadsTotal,
	}, nil
}

// ListMessages returns up to maxResults messages matching query, newest first
// as ordered by Gmail. Details are fetched concurrently; any failed fetch
// fails the whole call.
func (s *Service) ListMessages(ctx context.Context, creds emaildomain.Credentials, query string, maxResults int) ([]emaildomain.EmailMessage, error) {
	srv, err := s.GetGmailService(ctx, creds)
	if err != nil {
		return nil, err
	}

	ids, err := s.listIDs(ctx, srv, query, maxResults)
	if err != nil {
		return nil, err
	}

	emails := make([]emaildomain.EmailMessage, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			var msg *gmail.Message
			err := s.do(gctx, "messages.get", func() (err error) {
				msg, err = srv.Users.Messages.Get(user, id).Format("full").Context(gctx).Do()
				return err
			})
			if err != nil {
				return mapError("messages.get", err, id)
			}
			emails[i] = ConvertMessage(msg)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return emails, nil
}

// ListUnsubscribeInfo inspects the List-Unsubscribe header of up to maxResults
// messages matching query. Messages without the header are skipped.
func (s *Service) ListUnsubscribeInfo(ctx context.Context, creds emaildomain.Credentials, query string, maxResults int) ([]emaildomain.UnsubscribeInfo, error) {
	srv, err := s.GetGmailService(ctx, creds)
	if err != nil {
		return nil, err
	}

	ids, err := s.listIDs(ctx, srv, query, maxResults)
	if err != nil {
		return nil, err
	}

	found := make([]*emaildomain.UnsubscribeInfo, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			var msg *gmail.Message
			err := s.do(gctx, "messages.get", func() (err error) {
				msg, err = srv.Users.Messages.Get(user, id).
					Format("metadata").
					MetadataHeaders("From", "List-Unsubscribe").
					Context(gctx).
					Do()
				return err
			})
			if err != nil {
				return mapError("messages.get", err, id)
			}
			found[i] = unsubscribeInfo(msg)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	list := make([]emaildomain.UnsubscribeInfo, 0, len(found))
	for _, info := range found {
		if info != nil {
			list = append(list, *info)
		}
	}
	return list, nil
}

// DeleteMessages permanently deletes each message. Every id is attempted;
// the returned error lists the ids that failed.
func (s *Service) DeleteMessages(ctx context.Context, creds emaildomain.Credentials, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	srv, err := s.GetGmailService(ctx, creds)
	if err != nil {
		return err
	}

	var (
		mu       sync.Mutex
		failed   []string
		firstErr error
	)

	var g errgroup.Group
	g.SetLimit(s.cfg.FetchConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			err := s.do(ctx, "messages.delete", func() error {
				return srv.Users.Messages.Delete(user, id).Context(ctx).Do()
			})
			if err != nil {
				mu.Lock()
				failed = append(failed, id)
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) == 0 {
		return nil
	}

	sort.Strings(failed)
	s.log.Warn("bulk delete partially failed",
		zap.String("user_id", creds.UserID),
		zap.Int("requested", len(ids)),
		zap.Int("failed", len(failed)),
		zap.Error(firstErr),
	)
	return mapError("messages.delete", firstErr, failed...)
}

// ArchiveMessages removes the INBOX label from every message
func (s *Service) ArchiveMessages(ctx context.Context, creds emaildomain.Credentials, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	srv, err := s.GetGmailService(ctx, creds)
	if err != nil {
		return err
	}

	for start := 0; start < len(ids); start += maxBatchModifyIDs {
		end := min(start+maxBatchModifyIDs, len(ids))
		chunk := ids[start:end]

		err := s.do(ctx, "messages.batchModify", func() error {
			return srv.Users.Messages.BatchModify(user, &gmail.BatchModifyMessagesRequest{
				Ids:            chunk,
				RemoveLabelIds: []string{"INBOX"},
			}).Context(ctx).Do()
		})
		if err != nil {
			return mapError("messages.batchModify", err, chunk...)
		}
	}
	return nil
}

// listIDs pages through messages.list until maxResults ids are collected
func (s *Service) listIDs(ctx context.Context, srv *gmail.Service, query string, maxResults int) ([]string, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	ids := make([]string, 0, min(maxResults, maxListPageSize))
	pageToken := ""

	for len(ids) < maxResults {
		call := srv.Users.Messages.List(user).MaxResults(int64(min(maxResults-len(ids), maxListPageSize)))
		if query != "" {
			call = call.Q(query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var resp *gmail.ListMessagesResponse
		err := s.do(ctx, "messages.list", func() (err error) {
			resp, err = call.Context(ctx).Do()
			return err
		})
		if err != nil {
			return nil, mapError("messages.list", err)
		}

		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" || len(resp.Messages) == 0 {
			break
		}
	}

	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, nil
}

// do paces and guards a single API call and records its latency
func (s *Service) do(ctx context.Context, operation string, call func() error) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, call()
	})
	metrics.RecordGmailRequest(operation, statusLabel(err), time.Since(start))
	return err
}
