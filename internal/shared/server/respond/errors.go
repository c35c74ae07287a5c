package respond

import (
	"github.com/gin-gonic/gin"

	"studyhub-backend/internal/shared/telemetry"
)

// ErrorResponse is the standard failure wrapper.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Upgrade string `json:"upgradeUrl,omitempty"`
}

// Error sends a standardized error response and logs it.
func Error(c *gin.Context, status int, message string) {
	logError(c, status, message)
	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Error: message})
}

// QuotaError sends a 429-style quota denial carrying an upgrade hint.
func QuotaError(c *gin.Context, status int, message, upgradeURL string) {
	logError(c, status, message)
	c.AbortWithStatusJSON(status, ErrorResponse{Success: false, Error: message, Upgrade: upgradeURL})
}

func logError(c *gin.Context, status int, message string) {
	fields := map[string]any{
		"status":     status,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	telemetry.Error("http.error", fields)
}
