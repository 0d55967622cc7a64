package gmail

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
)

var (
	unsubscribeURLPattern    = regexp.MustCompile(`<(https?://[^>]+)>`)
	unsubscribeMailtoPattern = regexp.MustCompile(`<mailto:([^>]+)>`)
)

// ParseListUnsubscribe extracts the first http(s) URL and the first mailto
// address from a List-Unsubscribe header value. Either may be empty.
func ParseListUnsubscribe(value string) (unsubscribeURL, unsubscribeEmail string) {
	if m := unsubscribeURLPattern.FindStringSubmatch(value); m != nil {
		unsubscribeURL = m[1]
	}
	if m := unsubscribeMailtoPattern.FindStringSubmatch(value); m != nil {
		unsubscribeEmail = m[1]
	}
	return unsubscribeURL, unsubscribeEmail
}

func unsubscribeInfo(msg *gmail.Message) *emaildomain.UnsubscribeInfo {
	if msg.Payload == nil {
		return nil
	}
	header := getHeader(msg.Payload.Headers, "List-Unsubscribe")
	if header == "" {
		return nil
	}

	u, mail := ParseListUnsubscribe(header)
	return &emaildomain.UnsubscribeInfo{
		MessageID:        msg.Id,
		UnsubscribeURL:   u,
		UnsubscribeEmail: mail,
		Sender:           ExtractAddress(getHeader(msg.Payload.Headers, "From")),
	}
}

const unsubscribeUserAgent = "Gmail Inbox Cleaner"

// Unsubscriber follows List-Unsubscribe URLs
type Unsubscriber struct {
	client *http.Client
	log    *zap.Logger
}

func NewUnsubscriber(timeout time.Duration, log *zap.Logger) *Unsubscriber {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Unsubscriber{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Follow requests rawURL and treats any 2xx answer as a successful unsubscribe
func (u *Unsubscriber) Follow(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return &emaildomain.ValidationError{Field: "url", Reason: "must be an absolute http(s) URL"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return &emaildomain.ProviderError{Op: "unsubscribe", Err: err}
	}
	req.Header.Set("User-Agent", unsubscribeUserAgent)

	resp, err := u.client.Do(req)
	if err != nil {
		return &emaildomain.ProviderError{Op: "unsubscribe", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		u.log.Info("unsubscribe endpoint refused",
			zap.String("host", parsed.Host),
			zap.Int("status", resp.StatusCode),
		)
		return &emaildomain.ProviderError{
			Op:  "unsubscribe",
			Err: fmt.Errorf("unsubscribe endpoint returned %d", resp.StatusCode),
		}
	}
	return nil
}
