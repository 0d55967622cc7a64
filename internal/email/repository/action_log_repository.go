package repository

import (
	"context"
	"time"

	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxActionLogLimit = 200

// actionLogRepository implements ActionLogRepository interface
type actionLogRepository struct {
	db *gorm.DB
}

// NewActionLogRepository creates a new instance of actionLogRepository
func NewActionLogRepository(db *gorm.DB) ActionLogRepository {
	return &actionLogRepository{
		db: db,
	}
}

func (r *actionLogRepository) Record(ctx context.Context, entry *emaildomain.ActionLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *actionLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*emaildomain.ActionLog, error) {
	if limit <= 0 || limit > maxActionLogLimit {
		limit = maxActionLogLimit
	}

	var entries []*emaildomain.ActionLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
