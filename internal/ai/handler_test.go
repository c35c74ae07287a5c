package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"studyhub-backend/internal/usage"
	"studyhub-backend/internal/users"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Next()
	})
	api := router.Group("/api")
	NewHandler(svc).RegisterRoutes(api)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAskEndpointSuccessEnvelope(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeLLM{}, users.UsageCounters{}, users.PlanFree)
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/ai/ask", `{"question":"What is gravity?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Answer string `json:"answer"`
			ChatID string `json:"chatId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || body.Data.Answer == "" || body.Data.ChatID == "" {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
}

func TestAskEndpointQuotaEnvelope(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeLLM{}, users.UsageCounters{AIQueries: 50}, users.PlanFree)
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/ai/ask", `{"question":"denied"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success    bool   `json:"success"`
		Error      string `json:"error"`
		UpgradeURL string `json:"upgradeUrl"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Success {
		t.Fatalf("expected success=false: %s", rec.Body.String())
	}
	if body.Error != "Daily query limit reached. Upgrade to premium for unlimited queries." {
		t.Fatalf("unexpected error message: %q", body.Error)
	}
	if body.UpgradeURL != usage.UpgradeURL {
		t.Fatalf("expected upgradeUrl %q, got %q", usage.UpgradeURL, body.UpgradeURL)
	}
}

func TestAskEndpointValidation(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeLLM{}, users.UsageCounters{}, users.PlanFree)
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/ai/ask", `{"question":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestImageEndpointQuotaEnvelope(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeLLM{}, users.UsageCounters{ImagesGenerated: 10}, users.PlanFree)
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/ai/image", `{"prompt":"diagram of the heart"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "image generation limit") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestQuizEndpointUnknownDifficulty(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeLLM{}, users.UsageCounters{}, users.PlanFree)
	router := newTestRouter(svc)

	rec := postJSON(t, router, "/api/ai/quiz", `{"content":"long enough content","difficulty":"impossible"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}
