package delivery

import (
	"net/http"

	"github.com/d093w1z/deinbox/internal/cleanup/usecase"
	emaildelivery "github.com/d093w1z/deinbox/internal/email/delivery"
	emailusecase "github.com/d093w1z/deinbox/internal/email/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CleanupHandler serves the heuristic cleanup endpoints
type CleanupHandler struct {
	cleanupUsecase usecase.CleanupUsecase
	log            *zap.Logger
}

// NewCleanupHandler creates a new CleanupHandler
func NewCleanupHandler(cleanupUsecase usecase.CleanupUsecase, log *zap.Logger) *CleanupHandler {
	return &CleanupHandler{
		cleanupUsecase: cleanupUsecase,
		log:            log,
	}
}

// GetSuggestions returns ranked cleanup suggestions, interaction patterns and smart filters
// GET /api/ai/suggestions
func (h *CleanupHandler) GetSuggestions(c *gin.Context) {
	report, err := h.cleanupUsecase.GetSuggestions(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		emaildelivery.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetCategories classifies the messages matching a search query
// GET /api/ai/categories?query=&maxResults=50
func (h *CleanupHandler) GetCategories(c *gin.Context) {
	maxResults, err := emaildelivery.QueryInt(c, "maxResults", emailusecase.DefaultMaxResults)
	if err != nil {
		emaildelivery.RespondError(c, h.log, err)
		return
	}

	items, err := h.cleanupUsecase.Categorize(c.Request.Context(), c.GetString("userID"), c.Query("query"), maxResults)
	if err != nil {
		emaildelivery.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"emails": items})
}

// ApplySmartFilter returns the messages a smart filter selects
// GET /api/ai/filters/:id
func (h *CleanupHandler) ApplySmartFilter(c *gin.Context) {
	filterID := c.Param("id")

	matched, err := h.cleanupUsecase.ApplySmartFilter(c.Request.Context(), c.GetString("userID"), filterID)
	if err != nil {
		emaildelivery.RespondError(c, h.log, err)
		return
	}

	ids := make([]string, len(matched))
	for i, m := range matched {
		ids[i] = m.ID
	}
	c.JSON(http.StatusOK, gin.H{
		"filter":     filterID,
		"emails":     matched,
		"messageIds": ids,
	})
}
