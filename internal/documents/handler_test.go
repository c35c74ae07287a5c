package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"studyhub-backend/internal/usage"
	"studyhub-backend/internal/users"
)

func newUploadRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Next()
	})
	api := router.Group("/api")
	NewHandler(svc, 10<<20).RegisterRoutes(api)
	return router
}

func multipartPDF(t *testing.T, field, filename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", "application/pdf")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 fake body")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func uploadService(t *testing.T, counters users.UsageCounters) *Service {
	t.Helper()
	userRepo := users.NewMemoryRepo()
	seedDocUser(t, userRepo, counters)
	return &Service{
		Repo:       NewMemoryRepo(),
		Store:      newFakeStore(),
		Summarizer: &fakeSummarizer{summary: validSummary()},
		Ledger:     usage.NewLedger(userRepo),
		Extract:    stubExtract("extracted text from upload", 2),
	}
}

func TestUploadEndpointReturnsResult(t *testing.T) {
	router := newUploadRouter(uploadService(t, users.UsageCounters{}))

	body, contentType := multipartPDF(t, "pdf", "notes.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/pdf/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			DocumentID string `json:"documentId"`
			Filename   string `json:"filename"`
			Pages      int    `json:"pages"`
			Summary    string `json:"summary"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Data.DocumentID == "" || resp.Data.Pages != 2 {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
	if resp.Data.Filename != "notes.pdf" {
		t.Fatalf("expected original filename, got %q", resp.Data.Filename)
	}
}

func TestUploadEndpointMissingFile(t *testing.T) {
	router := newUploadRouter(uploadService(t, users.UsageCounters{}))

	body, contentType := multipartPDF(t, "document", "notes.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/pdf/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No file uploaded") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestUploadEndpointQuotaEnvelope(t *testing.T) {
	router := newUploadRouter(uploadService(t, users.UsageCounters{PDFUploads: 5}))

	body, contentType := multipartPDF(t, "pdf", "notes.pdf")
	req := httptest.NewRequest(http.MethodPost, "/api/pdf/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success    bool   `json:"success"`
		Error      string `json:"error"`
		UpgradeURL string `json:"upgradeUrl"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.UpgradeURL != usage.UpgradeURL {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
	if !strings.Contains(resp.Error, "PDF upload limit") {
		t.Fatalf("unexpected error message: %q", resp.Error)
	}
}

func TestGetEndpointNotFound(t *testing.T) {
	router := newUploadRouter(uploadService(t, users.UsageCounters{}))

	req := httptest.NewRequest(http.MethodGet, "/api/pdf/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListEndpointPagination(t *testing.T) {
	svc := uploadService(t, users.UsageCounters{})
	now := time.Now().UTC()
	for _, id := range []string{"d1", "d2", "d3"} {
		doc := Document{
			ID:               id,
			UserID:           "user-1",
			OriginalName:     id + ".pdf",
			MimeType:         "application/pdf",
			Tags:             []string{},
			ProcessingStatus: StatusCompleted,
			UploadDate:       now,
		}
		if err := svc.Repo.Create(context.Background(), doc); err != nil {
			t.Fatalf("seed doc: %v", err)
		}
	}
	router := newUploadRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/pdf?page=1&limit=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Data struct {
			Documents  []Document `json:"documents"`
			Pagination struct {
				Current int `json:"current"`
				Pages   int `json:"pages"`
				Total   int `json:"total"`
			} `json:"pagination"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Documents) != 2 || resp.Data.Pagination.Pages != 2 || resp.Data.Pagination.Total != 3 {
		t.Fatalf("unexpected page: %s", rec.Body.String())
	}
}
