package usage

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyhub-backend/internal/shared/server/middleware"
	"studyhub-backend/internal/shared/server/respond"
	"studyhub-backend/internal/users"
)

// Handler exposes the usage snapshot endpoint.
type Handler struct {
	Ledger *Ledger
}

// NewHandler constructs a Handler.
func NewHandler(ledger *Ledger) *Handler {
	return &Handler{Ledger: ledger}
}

// RegisterRoutes attaches usage routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/usage", h.snapshot)
}

func (h *Handler) snapshot(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	snap, err := h.Ledger.Snapshot(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "user not found")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "failed to load usage")
		return
	}

	respond.OK(c, snap)
}
