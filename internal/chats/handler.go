package chats

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"studyhub-backend/internal/shared/server/middleware"
	"studyhub-backend/internal/shared/server/respond"
)

// Handler wires chat-history HTTP endpoints to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/chat", h.list)
	rg.PUT("/chat/:id/bookmark", h.bookmark)
	rg.PUT("/chat/:id/tags", h.tags)
	rg.DELETE("/chat/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	filter := ListFilter{
		Type:      c.Query("type"),
		SessionID: c.Query("sessionId"),
		Search:    c.Query("search"),
		Page:      queryInt(c, "page", 1),
		Limit:     queryInt(c, "limit", 20),
	}
	if filter.Type != "" && !ValidType(filter.Type) {
		respond.Error(c, http.StatusBadRequest, "unknown chat type")
		return
	}
	var err error
	if filter.StartDate, err = queryTime(c, "startDate"); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid startDate")
		return
	}
	if filter.EndDate, err = queryTime(c, "endDate"); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid endDate")
		return
	}

	items, total, err := h.Svc.List(c.Request.Context(), userID, filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "failed to fetch chat history")
		return
	}

	respond.OK(c, gin.H{
		"chats":      items,
		"pagination": respond.NewPagination(filter.Page, filter.Limit, total),
	})
}

func (h *Handler) bookmark(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	chatID := c.Param("id")

	bookmarked, err := h.Svc.ToggleBookmark(c.Request.Context(), userID, chatID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "chat not found")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "failed to bookmark chat")
		return
	}

	respond.OK(c, gin.H{"chatId": chatID, "isBookmarked": bookmarked})
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

func (h *Handler) tags(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	chatID := c.Param("id")

	var req tagsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Tags == nil {
		respond.Error(c, http.StatusBadRequest, "tags must be an array")
		return
	}

	merged, err := h.Svc.AddTags(c.Request.Context(), userID, chatID, req.Tags)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "chat not found")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "failed to add tags")
		return
	}

	respond.OK(c, gin.H{"chatId": chatID, "tags": merged})
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	chatID := c.Param("id")

	if err := h.Svc.Delete(c.Request.Context(), userID, chatID); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "chat not found")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "failed to delete chat")
		return
	}

	respond.OK(c, gin.H{"message": "Chat deleted successfully"})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func queryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed, nil
		}
	}
	return nil, errors.New("invalid time")
}
