package gmail

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"

	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// 403s carrying these reasons are quota problems, not revoked access
var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"quotaExceeded":         true,
}

// mapError turns a Gmail client error into the domain taxonomy
func mapError(op string, err error, messageIDs ...string) error {
	if err == nil {
		return nil
	}

	var authErr *emaildomain.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &emaildomain.AuthError{Reason: "google token refresh rejected", Err: err}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized:
			return &emaildomain.AuthError{Reason: "google access token rejected", Err: err}
		case apiErr.Code == http.StatusForbidden && !isRateLimited(apiErr):
			return &emaildomain.AuthError{Reason: "gmail access denied", Err: err}
		}
	}

	return &emaildomain.ProviderError{Op: op, MessageIDs: messageIDs, Err: err}
}

func isRateLimited(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		if rateLimitReasons[item.Reason] {
			return true
		}
	}
	return false
}

// countsAsHealthy decides which errors leave the breaker closed. Client-side
// rejections and auth failures say nothing about Gmail's availability.
func countsAsHealthy(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests
	}
	return false
}

func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "circuit_open"
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return strconv.Itoa(apiErr.Code)
	}
	return "error"
}
