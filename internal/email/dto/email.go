package dto

import emaildomain "github.com/d093w1z/deinbox/internal/email/domain"

type BulkActionRequest struct {
	Action     emaildomain.BulkAction `json:"action" binding:"required"`
	MessageIDs []string               `json:"messageIds" binding:"required"`
}

type BulkActionResponse struct {
	Success   bool `json:"success"`
	Processed int  `json:"processed"`
}

type UnsubscribeRequest struct {
	URL string `json:"url" binding:"required"`
}

// SearchQuery is bound from the query string of GET /api/gmail/search.
// OlderThan is a calendar date (2006-01-02).
type SearchQuery struct {
	OlderThan     string `form:"olderThan"`
	Sender        string `form:"sender"`
	HasAttachment bool   `form:"hasAttachment"`
	Category      string `form:"category"`
	IsUnread      bool   `form:"isUnread"`
}

type ActionsResponse struct {
	Actions []*emaildomain.ActionLog `json:"actions"`
}
