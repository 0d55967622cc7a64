package domain

import "time"

// BulkAction is a mailbox mutation requested from the dashboard
type BulkAction string

const (
	BulkActionDelete      BulkAction = "delete"
	BulkActionArchive     BulkAction = "archive"
	BulkActionUnsubscribe BulkAction = "unsubscribe"
)

const (
	ActionStatusSuccess = "success"
	ActionStatusFailed  = "failed"
)

// ActionLog records one bulk action request. Suggestions are never stored,
// only what the user actually did with them.
type ActionLog struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	UserID       string     `json:"user_id" gorm:"index:idx_action_user_created;not null"`
	Action       BulkAction `json:"action" gorm:"not null"`
	MessageCount int        `json:"message_count"`
	Status       string     `json:"status" gorm:"not null"`
	Error        string     `json:"error,omitempty" gorm:"type:text"`
	CreatedAt    time.Time  `json:"created_at" gorm:"index:idx_action_user_created"`
}

// TableName specifies the table name for GORM
func (ActionLog) TableName() string {
	return "action_logs"
}
