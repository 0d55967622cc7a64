package api

import (
	"net/http"
	"slices"
	"time"

	authUsecase "github.com/d093w1z/deinbox/internal/auth/usecase"
	cleanupUsecase "github.com/d093w1z/deinbox/internal/cleanup/usecase"
	emailUsecasePkg "github.com/d093w1z/deinbox/internal/email/usecase"
	"github.com/d093w1z/deinbox/pkg/cache"
	"github.com/d093w1z/deinbox/pkg/config"
	"github.com/d093w1z/deinbox/pkg/logger"
	"github.com/d093w1z/deinbox/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	authUsecase    authUsecase.AuthUsecase
	emailUsecase   emailUsecasePkg.EmailUsecase
	cleanupUsecase cleanupUsecase.CleanupUsecase
	cache          *cache.Gateway
	config         *config.Config
	log            *zap.Logger
}

func NewHandler(authUc authUsecase.AuthUsecase, emailUc emailUsecasePkg.EmailUsecase, cleanupUc cleanupUsecase.CleanupUsecase, gateway *cache.Gateway, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{
		authUsecase:    authUc,
		emailUsecase:   emailUc,
		cleanupUsecase: cleanupUc,
		cache:          gateway,
		config:         cfg,
		log:            log,
	}
}

// Engine builds the gin engine with middleware and routes
func (h *Handler) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(h.log.Named("http")))
	r.Use(metrics.GinMiddleware())
	r.Use(h.cors())

	SetupRoutes(r, h)
	return r
}

// Server wraps the engine for graceful shutdown
func (h *Handler) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// cors echoes allowed origins. With no configured origins every origin is allowed.
func (h *Handler) cors() gin.HandlerFunc {
	allowed := h.config.CORSOrigins
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		switch {
		case origin == "":
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case len(allowed) == 0 || slices.Contains(allowed, origin):
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
