package delivery

import (
	"net/http"

	authdomain "github.com/d093w1z/deinbox/internal/auth/domain"
	authdto "github.com/d093w1z/deinbox/internal/auth/dto"
	"github.com/d093w1z/deinbox/internal/auth/usecase"
	emaildelivery "github.com/d093w1z/deinbox/internal/email/delivery"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authUsecase usecase.AuthUsecase
	log         *zap.Logger
}

func NewAuthHandler(authUsecase usecase.AuthUsecase, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		log:         log,
	}
}

// GoogleAuthURL returns the consent page URL with a fresh state value
// GET /api/auth/google/url
func (h *AuthHandler) GoogleAuthURL(c *gin.Context) {
	state := c.DefaultQuery("state", uuid.New().String())
	c.JSON(http.StatusOK, authdto.AuthURLResponse{URL: h.authUsecase.GoogleAuthURL(state)})
}

// GoogleSignIn exchanges the authorization code for an app session
// POST /api/auth/google {"code": "..."}
func (h *AuthHandler) GoogleSignIn(c *gin.Context) {
	var req authdto.GoogleSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authUsecase.GoogleSignIn(c.Request.Context(), req.Code)
	if err != nil {
		emaildelivery.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req authdto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authUsecase.RefreshToken(req.RefreshToken)
	if err != nil {
		emaildelivery.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req authdto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authUsecase.Logout(req.RefreshToken); err != nil {
		emaildelivery.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// Avatar returns the Google profile picture stored at sign-in
// GET /api/user/avatar
func (h *AuthHandler) Avatar(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	if user.AvatarURL == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "User avatar not found"})
		return
	}

	c.JSON(http.StatusOK, authdto.AvatarResponse{Success: true, Image: user.AvatarURL})
}

func currentUser(c *gin.Context) (*authdomain.User, bool) {
	value, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	user, ok := value.(*authdomain.User)
	return user, ok && user != nil
}
