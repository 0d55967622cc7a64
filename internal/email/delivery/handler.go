package delivery

import (
	"net/http"
	"time"

	emaildomain "github.com/d093w1z/deinbox/internal/email/domain"
	emaildto "github.com/d093w1z/deinbox/internal/email/dto"
	"github.com/d093w1z/deinbox/internal/email/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultActionsLimit = 20

type EmailHandler struct {
	emailUsecase usecase.EmailUsecase
	log          *zap.Logger
}

func NewEmailHandler(emailUsecase usecase.EmailUsecase, log *zap.Logger) *EmailHandler {
	return &EmailHandler{
		emailUsecase: emailUsecase,
		log:          log,
	}
}

// GetDashboard returns profile, recent messages, stats and unsubscribe candidates
// GET /api/gmail?query=newer_than:7d
func (h *EmailHandler) GetDashboard(c *gin.Context) {
	query := c.DefaultQuery("query", usecase.DefaultDashboardQuery)

	dashboard, err := h.emailUsecase.GetDashboard(c.Request.Context(), c.GetString("userID"), query)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

func (h *EmailHandler) GetProfile(c *gin.Context) {
	profile, err := h.emailUsecase.GetProfile(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetMessages lists messages matching a Gmail search query
// GET /api/gmail/messages?query=&maxResults=50
func (h *EmailHandler) GetMessages(c *gin.Context) {
	maxResults, err := QueryInt(c, "maxResults", usecase.DefaultMaxResults)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	messages, err := h.emailUsecase.GetMessages(c.Request.Context(), c.GetString("userID"), c.Query("query"), maxResults)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *EmailHandler) GetStats(c *gin.Context) {
	stats, err := h.emailUsecase.GetEmailStats(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Search lists messages by structured filter
// GET /api/gmail/search?olderThan=2024-01-01&sender=&hasAttachment=true&category=promotions&isUnread=true
func (h *EmailHandler) Search(c *gin.Context) {
	var req emaildto.SearchQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := emaildomain.MessageFilter{
		Sender:        req.Sender,
		HasAttachment: req.HasAttachment,
		Category:      emaildomain.ProviderCategory(req.Category),
		IsUnread:      req.IsUnread,
	}
	if req.OlderThan != "" {
		olderThan, err := time.Parse(time.DateOnly, req.OlderThan)
		if err != nil {
			RespondError(c, h.log, &emaildomain.ValidationError{Field: "olderThan", Reason: "expected YYYY-MM-DD"})
			return
		}
		filter.OlderThan = &olderThan
	}

	messages, err := h.emailUsecase.GetMessagesByFilter(c.Request.Context(), c.GetString("userID"), filter)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *EmailHandler) GetUnsubscribeInfo(c *gin.Context) {
	info, err := h.emailUsecase.GetUnsubscribeInfo(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// Unsubscribe follows a List-Unsubscribe URL on the user's behalf
// POST /api/gmail/unsubscribe {"url": "..."}
func (h *EmailHandler) Unsubscribe(c *gin.Context) {
	var req emaildto.UnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsubscribe URL required"})
		return
	}

	if err := h.emailUsecase.Unsubscribe(c.Request.Context(), c.GetString("userID"), req.URL); err != nil {
		RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// BulkAction deletes or archives a set of messages
// POST /api/gmail/bulk-action {"action": "delete|archive", "messageIds": [...]}
func (h *EmailHandler) BulkAction(c *gin.Context) {
	var req emaildto.BulkActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString("userID")

	var (
		processed int
		err       error
	)
	switch req.Action {
	case emaildomain.BulkActionDelete:
		processed, err = h.emailUsecase.DeleteMessages(ctx, userID, req.MessageIDs)
	case emaildomain.BulkActionArchive:
		processed, err = h.emailUsecase.ArchiveMessages(ctx, userID, req.MessageIDs)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
		return
	}
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, emaildto.BulkActionResponse{Success: true, Processed: processed})
}

// ListActions returns the user's recent bulk actions, newest first
// GET /api/gmail/actions?limit=20
func (h *EmailHandler) ListActions(c *gin.Context) {
	limit, err := QueryInt(c, "limit", defaultActionsLimit)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	actions, err := h.emailUsecase.ListActions(c.Request.Context(), c.GetString("userID"), limit)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, emaildto.ActionsResponse{Actions: actions})
}
