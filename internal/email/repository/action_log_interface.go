package repository

import (
	"context"

	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"
)

// ActionLogRepository defines the interface for bulk action history
type ActionLogRepository interface {
	// Record stores a bulk action outcome
	Record(ctx context.Context, entry *emaildomain.ActionLog) error
	// ListByUser returns the most recent actions of a user, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*emaildomain.ActionLog, error)
}
