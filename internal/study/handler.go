package study

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studyhub-backend/internal/documents"
	"studyhub-backend/internal/shared/server/middleware"
	"studyhub-backend/internal/shared/server/respond"
)

// Handler wires study session HTTP endpoints to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches study routes to the router group. The
// analytics route is registered before the :id route so "analytics" is
// not captured as a session id.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/study", h.create)
	rg.GET("/study", h.list)
	rg.GET("/study/analytics", h.analytics)
	rg.GET("/study/:id", h.get)
	rg.PUT("/study/:id", h.update)
	rg.PUT("/study/:id/progress", h.progress)
	rg.PUT("/study/:id/documents/:documentId", h.attachDocument)
}

type createRequest struct {
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	StudyMode   string `json:"studyMode"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), CreateInput{
		Title:       req.Title,
		Subject:     req.Subject,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		StudyMode:   req.StudyMode,
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			respond.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		respond.Error(c, http.StatusInternalServerError, "Failed to create study session")
		return
	}

	respond.Created(c, session)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	filter := ListFilter{
		Subject: c.Query("subject"),
		Page:    queryInt(c, "page", 1),
		Limit:   queryInt(c, "limit", 10),
	}
	if raw := c.Query("isActive"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}

	items, total, err := h.Svc.List(c.Request.Context(), userID, filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "Failed to fetch study sessions")
		return
	}

	respond.OK(c, gin.H{
		"sessions":   items,
		"pagination": respond.NewPagination(filter.Page, filter.Limit, total),
	})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	session, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "Study session not found")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "Failed to fetch study session")
		return
	}

	respond.OK(c, session)
}

type updateRequest struct {
	Title       *string `json:"title"`
	Subject     *string `json:"subject"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
	Settings    *struct {
		Difficulty      *string `json:"difficulty"`
		StudyMode       *string `json:"studyMode"`
		ReminderEnabled *bool   `json:"reminderEnabled"`
	} `json:"settings"`
}

func (h *Handler) update(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	update := SessionUpdate{
		Title:       req.Title,
		Subject:     req.Subject,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	if req.Settings != nil {
		update.Difficulty = req.Settings.Difficulty
		update.StudyMode = req.Settings.StudyMode
		update.Reminder = req.Settings.ReminderEnabled
	}

	session, err := h.Svc.Update(c.Request.Context(), userID, c.Param("id"), update)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "Study session not found")
		case errors.Is(err, ErrValidation):
			respond.Error(c, http.StatusBadRequest, err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, "Failed to update study session")
		}
		return
	}

	respond.OK(c, session)
}

type progressRequest struct {
	CompletedTopics []string    `json:"completedTopics"`
	CurrentTopic    *string     `json:"currentTopic"`
	StudyGoals      []StudyGoal `json:"studyGoals"`
	TimeSpent       int         `json:"timeSpent"`
}

func (h *Handler) progress(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	progress, err := h.Svc.UpdateProgress(c.Request.Context(), userID, c.Param("id"), ProgressUpdate{
		CompletedTopics: req.CompletedTopics,
		CurrentTopic:    req.CurrentTopic,
		StudyGoals:      req.StudyGoals,
		TimeSpent:       req.TimeSpent,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "Study session not found")
		case errors.Is(err, ErrValidation):
			respond.Error(c, http.StatusBadRequest, err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, "Failed to update study progress")
		}
		return
	}

	respond.OK(c, gin.H{"progress": progress})
}

func (h *Handler) attachDocument(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	sessionID := c.Param("id")
	documentID := c.Param("documentId")

	count, err := h.Svc.AttachDocument(c.Request.Context(), userID, sessionID, documentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "Study session not found")
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "Document not found")
		default:
			respond.Error(c, http.StatusInternalServerError, "Failed to add document to session")
		}
		return
	}

	respond.OK(c, gin.H{"sessionId": sessionID, "documentsCount": count})
}

func (h *Handler) analytics(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	report, err := h.Svc.AnalyticsFor(c.Request.Context(), userID, c.DefaultQuery("period", "7d"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "Failed to get study analytics")
		return
	}

	respond.OK(c, report)
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
