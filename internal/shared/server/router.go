package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"studyhub-backend/internal/ai"
	"studyhub-backend/internal/chats"
	"studyhub-backend/internal/documents"
	"studyhub-backend/internal/shared/auth"
	"studyhub-backend/internal/shared/config"
	"studyhub-backend/internal/shared/server/middleware"
	"studyhub-backend/internal/study"
	"studyhub-backend/internal/usage"
	"studyhub-backend/internal/users"
)

// Rate limit groups, matching the outer gate the API has always had:
// a broad ceiling for everything, a tight one for AI calls, and a very
// tight one for uploads.
const (
	groupGeneral = "general"
	groupAI      = "ai"
	groupUpload  = "upload"
)

// RouterDeps carries everything the router wires together.
type RouterDeps struct {
	Config          config.Config
	Signer          *auth.Signer
	Limiter         middleware.Limiter
	UsersHandler    *users.Handler
	UsageHandler    *usage.Handler
	AIHandler       *ai.Handler
	ChatsHandler    *chats.Handler
	DocumentHandler *documents.Handler
	StudyHandler    *study.Handler
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(deps.Config.CORSAllowOrigin))

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := r.Group("/api")
	api.Use(middleware.Auth(deps.Signer))
	api.Use(middleware.RateLimit(rateLimitConfig(deps)))

	deps.UsersHandler.RegisterRoutes(api)
	deps.UsageHandler.RegisterRoutes(api)
	deps.AIHandler.RegisterRoutes(api)
	deps.ChatsHandler.RegisterRoutes(api)
	deps.DocumentHandler.RegisterRoutes(api)
	deps.StudyHandler.RegisterRoutes(api)

	return r
}

func rateLimitConfig(deps RouterDeps) middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			groupGeneral: {Max: deps.Config.RateLimitMax, Window: deps.Config.RateLimitWindow},
			groupAI:      {Max: 10, Window: time.Minute},
			groupUpload:  {Max: 5, Window: 15 * time.Minute},
		},
		DefaultGroup: groupGeneral,
		GroupFor: func(c *gin.Context) string {
			path := c.Request.URL.Path
			switch {
			case strings.HasPrefix(path, "/api/ai/"):
				return groupAI
			case strings.HasPrefix(path, "/api/pdf/upload"):
				return groupUpload
			default:
				return groupGeneral
			}
		},
		Limiter: deps.Limiter,
	}
}

// Addr normalizes a port into a listen address.
func Addr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
