package documents

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studyhub-backend/internal/shared/server/middleware"
	"studyhub-backend/internal/shared/server/respond"
	"studyhub-backend/internal/usage"
)

// Handler wires document HTTP endpoints to the service.
type Handler struct {
	Svc         *Service
	MaxFileSize int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxFileSize int64) *Handler {
	return &Handler{Svc: svc, MaxFileSize: maxFileSize}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/pdf/upload", h.upload)
	rg.GET("/pdf", h.list)
	rg.GET("/pdf/:id", h.get)
	rg.DELETE("/pdf/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if h.MaxFileSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxFileSize)
	}

	file, header, err := c.Request.FormFile("pdf")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	result, err := h.Svc.Ingest(c.Request.Context(), userID, Upload{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         file,
	})
	if err != nil {
		var limitErr *usage.LimitError
		switch {
		case errors.Is(err, ErrValidation):
			respond.Error(c, http.StatusBadRequest, err.Error())
		case errors.As(err, &limitErr):
			respond.QuotaError(c, http.StatusTooManyRequests,
				"Daily PDF upload limit reached. Upgrade to premium for unlimited uploads.", usage.UpgradeURL)
		default:
			respond.Error(c, http.StatusInternalServerError, "Failed to process PDF")
		}
		return
	}

	respond.OK(c, result)
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	filter := ListFilter{
		Search: c.Query("search"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
	}

	items, total, err := h.Svc.List(c.Request.Context(), userID, filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "Failed to fetch documents")
		return
	}

	respond.OK(c, gin.H{
		"documents":  items,
		"pagination": respond.NewPagination(filter.Page, filter.Limit, total),
	})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	doc, err := h.Svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "Document not found")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "Failed to fetch document")
		return
	}

	respond.OK(c, doc)
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "Document not found")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	respond.OK(c, gin.H{"message": "Document deleted successfully"})
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
