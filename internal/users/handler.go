package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyhub-backend/internal/shared/auth"
	"studyhub-backend/internal/shared/server/middleware"
	"studyhub-backend/internal/shared/server/respond"
)

// Handler wires account HTTP endpoints to the service.
type Handler struct {
	Svc    *Service
	Signer *auth.Signer
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, signer *auth.Signer) *Handler {
	return &Handler{Svc: svc, Signer: signer}
}

// RegisterRoutes attaches auth routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.register)
	rg.POST("/auth/login", h.login)
	rg.GET("/auth/profile", h.profile)
	rg.PUT("/auth/profile", h.updateProfile)
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Svc.Register(c.Request.Context(), RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput),
			errors.Is(err, ErrDuplicateEmail),
			errors.Is(err, ErrDuplicateUsername):
			respond.Error(c, http.StatusBadRequest, err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, "failed to create account")
		}
		return
	}

	token, err := h.Signer.Sign(user.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "failed to create account")
		return
	}

	respond.Created(c, gin.H{"token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "failed to login")
		return
	}

	token, err := h.Signer.Sign(user.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "failed to login")
		return
	}

	respond.OK(c, gin.H{"token": token, "user": user})
}

func (h *Handler) profile(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	user, err := h.Svc.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "user not found")
			return
		}
		respond.Error(c, http.StatusInternalServerError, "failed to get profile")
		return
	}

	respond.OK(c, gin.H{"user": user})
}

type updateProfileRequest struct {
	FirstName   *string  `json:"firstName"`
	LastName    *string  `json:"lastName"`
	Avatar      *string  `json:"avatar"`
	StudyGoals  []string `json:"studyGoals"`
	Preferences *struct {
		AIPersonality   *string `json:"aiPersonality"`
		DifficultyLevel *string `json:"difficultyLevel"`
		StudyReminders  *bool   `json:"studyReminders"`
	} `json:"preferences"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	update := ProfileUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Avatar:     req.Avatar,
		StudyGoals: req.StudyGoals,
	}
	if req.Preferences != nil {
		update.Preferences = &PreferencesUpdate{
			AIPersonality:   req.Preferences.AIPersonality,
			DifficultyLevel: req.Preferences.DifficultyLevel,
			StudyReminders:  req.Preferences.StudyReminders,
		}
	}

	user, err := h.Svc.UpdateProfile(c.Request.Context(), userID, update)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "user not found")
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, "failed to update profile")
		}
		return
	}

	respond.OK(c, gin.H{"user": user})
}
