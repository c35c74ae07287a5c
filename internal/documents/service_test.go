package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"studyhub-backend/internal/chats"
	"studyhub-backend/internal/usage"
	"studyhub-backend/internal/users"
)

type fakeStore struct {
	files   map[string][]byte
	saves   int
	deletes []string
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: map[string][]byte{}}
}

func (f *fakeStore) Save(ctx context.Context, userID, fileName string, r io.Reader) (string, int64, string, error) {
	if f.saveErr != nil {
		return "", 0, "", f.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	f.saves++
	key := fmt.Sprintf("%s/%d-%s", userID, f.saves, fileName)
	f.files[key] = data
	return key, int64(len(data)), "application/pdf", nil
}

func (f *fakeStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.files[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	delete(f.files, key)
	return nil
}

type fakeSummarizer struct {
	summary chats.Summary
	err     error
	calls   int
}

func (f *fakeSummarizer) SummarizeContent(ctx context.Context, text string) (chats.Summary, error) {
	f.calls++
	return f.summary, f.err
}

func stubExtract(text string, pages int) func([]byte) (string, int, error) {
	return func([]byte) (string, int, error) {
		return text, pages, nil
	}
}

func seedDocUser(t *testing.T, repo users.Repo, counters users.UsageCounters) {
	t.Helper()
	user := users.User{
		ID:       "user-1",
		Username: "tester",
		Email:    "tester@example.com",
		Profile: users.Profile{
			StudyGoals:  []string{},
			Preferences: users.DefaultPreferences(),
		},
		Subscription: users.Subscription{
			Plan:        users.PlanFree,
			Usage:       counters,
			PeriodStart: time.Now().UTC().Truncate(24 * time.Hour),
		},
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
}

func validSummary() chats.Summary {
	return chats.Summary{
		Summary:   "The document covers the basics of cellular respiration.",
		KeyPoints: []string{"glycolysis", "krebs cycle", "electron transport", "ATP yield", "regulation"},
	}
}

func pdfUpload() Upload {
	return Upload{
		OriginalName: "notes.pdf",
		MimeType:     "application/pdf",
		Size:         1024,
		Body:         strings.NewReader("%PDF-1.4 fake body"),
	}
}

func TestIngestCompletesWithSummary(t *testing.T) {
	userRepo := users.NewMemoryRepo()
	seedDocUser(t, userRepo, users.UsageCounters{})
	store := newFakeStore()
	summarizer := &fakeSummarizer{summary: validSummary()}
	repo := NewMemoryRepo()
	svc := &Service{
		Repo:       repo,
		Store:      store,
		Summarizer: summarizer,
		Ledger:     usage.NewLedger(userRepo),
		Extract:    stubExtract("extracted text from the pdf with several words", 3),
	}

	result, err := svc.Ingest(context.Background(), "user-1", pdfUpload())
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.DocumentID == "" || result.Pages != 3 || result.Warning != "" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Summary == "" || len(result.KeyPoints) != 5 {
		t.Fatalf("expected summary in result: %+v", result)
	}

	doc, err := repo.GetByID(context.Background(), "user-1", result.DocumentID)
	if err != nil {
		t.Fatalf("get doc: %v", err)
	}
	if doc.ProcessingStatus != StatusCompleted {
		t.Fatalf("expected completed, got %s", doc.ProcessingStatus)
	}
	if doc.Summary == "" || doc.LastProcessed == nil {
		t.Fatalf("expected summary persisted: %+v", doc)
	}

	user, _ := userRepo.GetByID(context.Background(), "user-1")
	if user.Subscription.Usage.PDFUploads != 1 {
		t.Fatalf("expected pdfUploads=1, got %d", user.Subscription.Usage.PDFUploads)
	}
	if len(store.files) != 0 {
		t.Fatalf("expected temp file cleaned up, %d remain", len(store.files))
	}
}

func TestIngestSummaryFailureCompletesWithWarning(t *testing.T) {
	userRepo := users.NewMemoryRepo()
	seedDocUser(t, userRepo, users.UsageCounters{})
	repo := NewMemoryRepo()
	svc := &Service{
		Repo:       repo,
		Store:      newFakeStore(),
		Summarizer: &fakeSummarizer{err: errors.New("provider down")},
		Ledger:     usage.NewLedger(userRepo),
		Extract:    stubExtract("extracted text", 1),
	}

	result, err := svc.Ingest(context.Background(), "user-1", pdfUpload())
	if err != nil {
		t.Fatalf("ingest should survive summary failure: %v", err)
	}
	if result.Warning != "PDF processed but summary generation failed" {
		t.Fatalf("expected warning, got %q", result.Warning)
	}
	if result.Summary != "" || len(result.KeyPoints) != 0 {
		t.Fatalf("expected no summary fields: %+v", result)
	}

	doc, err := repo.GetByID(context.Background(), "user-1", result.DocumentID)
	if err != nil {
		t.Fatalf("get doc: %v", err)
	}
	if doc.ProcessingStatus != StatusCompleted || doc.Summary != "" {
		t.Fatalf("expected completed without summary, got %+v", doc)
	}

	user, _ := userRepo.GetByID(context.Background(), "user-1")
	if user.Subscription.Usage.PDFUploads != 1 {
		t.Fatalf("upload still counts despite summary failure, got %d", user.Subscription.Usage.PDFUploads)
	}
}

func TestIngestExtractionFailureCleansUp(t *testing.T) {
	userRepo := users.NewMemoryRepo()
	seedDocUser(t, userRepo, users.UsageCounters{})
	store := newFakeStore()
	repo := NewMemoryRepo()
	svc := &Service{
		Repo:       repo,
		Store:      store,
		Summarizer: &fakeSummarizer{summary: validSummary()},
		Ledger:     usage.NewLedger(userRepo),
		Extract: func([]byte) (string, int, error) {
			return "", 0, errors.New("corrupt pdf")
		},
	}

	_, err := svc.Ingest(context.Background(), "user-1", pdfUpload())
	if err == nil {
		t.Fatal("expected extraction error")
	}
	if len(store.files) != 0 {
		t.Fatalf("expected temp file cleaned up, %d remain", len(store.files))
	}
	if items, _, _ := repo.List(context.Background(), "user-1", ListFilter{}); len(items) != 0 {
		t.Fatalf("expected no document persisted, got %d", len(items))
	}

	user, _ := userRepo.GetByID(context.Background(), "user-1")
	if user.Subscription.Usage.PDFUploads != 0 {
		t.Fatalf("failed ingest must not count, got %d", user.Subscription.Usage.PDFUploads)
	}
}

func TestIngestDeniedAtCeiling(t *testing.T) {
	userRepo := users.NewMemoryRepo()
	seedDocUser(t, userRepo, users.UsageCounters{PDFUploads: 5})
	store := newFakeStore()
	summarizer := &fakeSummarizer{summary: validSummary()}
	svc := &Service{
		Repo:       NewMemoryRepo(),
		Store:      store,
		Summarizer: summarizer,
		Ledger:     usage.NewLedger(userRepo),
		Extract:    stubExtract("text", 1),
	}

	_, err := svc.Ingest(context.Background(), "user-1", pdfUpload())
	if !errors.Is(err, usage.ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
	if store.saves != 0 {
		t.Fatal("file must not be stored when denied")
	}
	if summarizer.calls != 0 {
		t.Fatal("summarizer must not run when denied")
	}
}

func TestIngestRejectsNonPDF(t *testing.T) {
	userRepo := users.NewMemoryRepo()
	seedDocUser(t, userRepo, users.UsageCounters{})
	svc := &Service{
		Repo:       NewMemoryRepo(),
		Store:      newFakeStore(),
		Summarizer: &fakeSummarizer{},
		Ledger:     usage.NewLedger(userRepo),
		Extract:    stubExtract("text", 1),
	}

	upload := pdfUpload()
	upload.MimeType = "image/png"
	_, err := svc.Ingest(context.Background(), "user-1", upload)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDeleteRemovesRecordAndFile(t *testing.T) {
	store := newFakeStore()
	store.files["user-1/1-notes.pdf"] = []byte("data")
	repo := NewMemoryRepo()
	doc := Document{
		ID:               "d1",
		UserID:           "user-1",
		Filename:         "user-1/1-notes.pdf",
		OriginalName:     "notes.pdf",
		MimeType:         "application/pdf",
		Path:             "user-1/1-notes.pdf",
		Tags:             []string{},
		ProcessingStatus: StatusCompleted,
		UploadDate:       time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed doc: %v", err)
	}
	svc := &Service{Repo: repo, Store: store}

	if err := svc.Delete(context.Background(), "user-1", "d1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "user-1", "d1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected record removed, got %v", err)
	}
	if len(store.files) != 0 {
		t.Fatalf("expected file removed, %d remain", len(store.files))
	}
}

func TestListOmitsExtractedText(t *testing.T) {
	repo := NewMemoryRepo()
	doc := Document{
		ID:               "d1",
		UserID:           "user-1",
		Filename:         "key",
		OriginalName:     "notes.pdf",
		MimeType:         "application/pdf",
		ExtractedText:    "full text of the document",
		Tags:             []string{},
		ProcessingStatus: StatusCompleted,
		UploadDate:       time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed doc: %v", err)
	}
	svc := &Service{Repo: repo}

	items, total, err := svc.List(context.Background(), "user-1", ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected 1 document, got %d", total)
	}
	if items[0].ExtractedText != "" {
		t.Fatal("list must not include extracted text")
	}

	got, err := svc.Get(context.Background(), "user-1", "d1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ExtractedText == "" {
		t.Fatal("get must include extracted text")
	}
}
