package ai

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyhub-backend/internal/llm"
	"studyhub-backend/internal/shared/server/middleware"
	"studyhub-backend/internal/shared/server/respond"
	"studyhub-backend/internal/usage"
	"studyhub-backend/internal/users"
)

// Handler wires assistant HTTP endpoints to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches assistant routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ai/ask", h.ask)
	rg.POST("/ai/summary", h.summary)
	rg.POST("/ai/quiz", h.quiz)
	rg.POST("/ai/flashcards", h.flashcards)
	rg.POST("/ai/image", h.image)
}

type askRequest struct {
	Question  string `json:"question"`
	Subject   string `json:"subject"`
	Context   string `json:"context"`
	SessionID string `json:"sessionId"`
}

func (h *Handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Svc.Ask(c.Request.Context(), middleware.UserIDFromContext(c), AskInput{
		Question:  req.Question,
		Subject:   req.Subject,
		Context:   req.Context,
		SessionID: req.SessionID,
	})
	if err != nil {
		h.fail(c, err, "Failed to process question")
		return
	}
	respond.OK(c, result)
}

type summaryRequest struct {
	Text       string   `json:"text"`
	Length     string   `json:"length"`
	Style      string   `json:"style"`
	FocusAreas []string `json:"focusAreas"`
}

func (h *Handler) summary(c *gin.Context) {
	var req summaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Svc.Summarize(c.Request.Context(), middleware.UserIDFromContext(c), SummarizeInput{
		Text: req.Text,
		SummaryOptions: SummaryOptions{
			Length:     req.Length,
			Style:      req.Style,
			FocusAreas: req.FocusAreas,
		},
	})
	if err != nil {
		h.fail(c, err, "Failed to create summary")
		return
	}
	respond.OK(c, result)
}

type quizRequest struct {
	Content           string `json:"content"`
	NumberOfQuestions int    `json:"numberOfQuestions"`
	Difficulty        string `json:"difficulty"`
	QuestionType      string `json:"questionType"`
}

func (h *Handler) quiz(c *gin.Context) {
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Svc.Quiz(c.Request.Context(), middleware.UserIDFromContext(c), QuizInput{
		Content: req.Content,
		QuizOptions: QuizOptions{
			NumberOfQuestions: req.NumberOfQuestions,
			Difficulty:        req.Difficulty,
			QuestionType:      req.QuestionType,
		},
	})
	if err != nil {
		h.fail(c, err, "Failed to create quiz")
		return
	}
	respond.OK(c, result)
}

type flashcardsRequest struct {
	Content       string `json:"content"`
	NumberOfCards int    `json:"numberOfCards"`
}

func (h *Handler) flashcards(c *gin.Context) {
	var req flashcardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Svc.Flashcards(c.Request.Context(), middleware.UserIDFromContext(c), FlashcardsInput{
		Content:       req.Content,
		NumberOfCards: req.NumberOfCards,
	})
	if err != nil {
		h.fail(c, err, "Failed to create flashcards")
		return
	}
	respond.OK(c, result)
}

type imageRequest struct {
	Prompt  string `json:"prompt"`
	Style   string `json:"style"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
}

func (h *Handler) image(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Svc.Image(c.Request.Context(), middleware.UserIDFromContext(c), ImageInput{
		Prompt:  req.Prompt,
		Style:   req.Style,
		Size:    req.Size,
		Quality: req.Quality,
	})
	if err != nil {
		h.fail(c, err, "Failed to generate image")
		return
	}
	respond.OK(c, result)
}

// fail translates service and provider errors to the HTTP error shape.
func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	var limitErr *usage.LimitError
	switch {
	case errors.Is(err, ErrValidation):
		respond.Error(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &limitErr):
		respond.QuotaError(c, http.StatusTooManyRequests, quotaMessage(limitErr.Resource), usage.UpgradeURL)
	case errors.Is(err, llm.ErrRateLimited):
		respond.Error(c, http.StatusTooManyRequests, "API quota exceeded. Please try again later.")
	case errors.Is(err, llm.ErrUnauthorized):
		respond.Error(c, http.StatusUnauthorized, "Invalid API key")
	case errors.Is(err, users.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "user not found")
	default:
		respond.Error(c, http.StatusInternalServerError, fallback)
	}
}

func quotaMessage(resource usage.Resource) string {
	switch resource {
	case usage.ResourceImagesGenerated:
		return "Daily image generation limit reached. Upgrade to premium for more images."
	case usage.ResourcePDFUploads:
		return "Daily PDF upload limit reached. Upgrade to premium for more uploads."
	}
	return "Daily query limit reached. Upgrade to premium for unlimited queries."
}
