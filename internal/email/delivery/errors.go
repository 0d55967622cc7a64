package delivery

import (
	"errors"
	"net/http"
	"strconv"

	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatusFor maps a usecase error onto an HTTP status
func StatusFor(err error) int {
	var authErr *emaildomain.AuthError
	var validationErr *emaildomain.ValidationError
	var providerErr *emaildomain.ProviderError

	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &providerErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as {"error": ...}. Server side failures are logged.
func RespondError(c *gin.Context, log *zap.Logger, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		fields := []zap.Field{
			zap.String("path", c.FullPath()),
			zap.String("user_id", c.GetString("userID")),
			zap.Error(err),
		}
		var providerErr *emaildomain.ProviderError
		if errors.As(err, &providerErr) {
			fields = append(fields, zap.String("operation", providerErr.Op))
		}
		log.Error("request failed", fields...)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// QueryInt reads an optional non-negative integer query parameter
func QueryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &emaildomain.ValidationError{Field: name, Reason: "must be a non-negative integer"}
	}
	return n, nil
}
