package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyhub-backend/internal/chats"
	"studyhub-backend/internal/shared/storage/object"
	"studyhub-backend/internal/shared/telemetry"
	"studyhub-backend/internal/shared/util"
	"studyhub-backend/internal/usage"
)

// ErrValidation indicates a malformed upload request.
var ErrValidation = errors.New("invalid input")

const summaryFailedWarning = "PDF processed but summary generation failed"

// Summarizer produces a structured summary of extracted text. The AI
// service satisfies it.
type Summarizer interface {
	SummarizeContent(ctx context.Context, text string) (chats.Summary, error)
}

// Service runs the document ingestion pipeline.
type Service struct {
	Repo       Repo
	Store      object.ObjectStore
	Summarizer Summarizer
	Ledger     *usage.Ledger
	// Extract overrides PDF extraction; defaults to ExtractPDF.
	Extract func(data []byte) (text string, pages int, err error)
}

// Upload describes an accepted multipart file.
type Upload struct {
	OriginalName string
	MimeType     string
	Size         int64
	Body         io.Reader
}

// IngestResult is the upload response payload.
type IngestResult struct {
	DocumentID    string   `json:"documentId"`
	Filename      string   `json:"filename"`
	Pages         int      `json:"pages"`
	WordCount     int      `json:"wordCount"`
	Summary       string   `json:"summary,omitempty"`
	KeyPoints     []string `json:"keyPoints,omitempty"`
	ExtractedText string   `json:"extractedText"`
	Warning       string   `json:"warning,omitempty"`
}

// Ingest runs the pipeline: gate on the pdfUploads ceiling, store the
// file, extract text, persist the document as processing, summarize,
// mark completed, and charge the ledger. The stored temp file is removed
// on every terminal path; a summary failure downgrades to a warning
// rather than failing the upload.
func (s *Service) Ingest(ctx context.Context, userID string, upload Upload) (IngestResult, error) {
	if upload.Body == nil {
		return IngestResult{}, fmt.Errorf("%w: no file uploaded", ErrValidation)
	}
	if !strings.EqualFold(strings.Split(upload.MimeType, ";")[0], "application/pdf") {
		return IngestResult{}, fmt.Errorf("%w: only PDF files are supported", ErrValidation)
	}

	if err := s.Ledger.Check(ctx, userID, usage.ResourcePDFUploads); err != nil {
		return IngestResult{}, err
	}

	key, size, _, err := s.Store.Save(ctx, userID, upload.OriginalName, upload.Body)
	if err != nil {
		return IngestResult{}, fmt.Errorf("save upload: %w", err)
	}
	defer s.cleanup(ctx, key)

	data, err := s.readStored(ctx, key)
	if err != nil {
		return IngestResult{}, err
	}

	extract := s.Extract
	if extract == nil {
		extract = ExtractPDF
	}
	text, pages, err := extract(data)
	if err != nil {
		return IngestResult{}, fmt.Errorf("parse pdf: %w", err)
	}

	doc := Document{
		ID:               uuid.NewString(),
		UserID:           userID,
		Filename:         key,
		OriginalName:     upload.OriginalName,
		MimeType:         "application/pdf",
		SizeBytes:        size,
		Path:             key,
		ExtractedText:    text,
		Tags:             []string{},
		PageCount:        pages,
		Language:         "en",
		ProcessingStatus: StatusProcessing,
		UploadDate:       time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return IngestResult{}, err
	}

	result := IngestResult{
		DocumentID:    doc.ID,
		Filename:      doc.OriginalName,
		Pages:         pages,
		WordCount:     util.CountWords(text),
		ExtractedText: excerpt(text, 1000),
	}

	summary, err := s.Summarizer.SummarizeContent(ctx, text)
	if err != nil {
		telemetry.Warn("documents.summary_failed", map[string]any{
			"documentId": doc.ID,
			"error":      err.Error(),
		})
		// still completed, just without a summary
		doc.ProcessingStatus = StatusCompleted
		if err := s.Repo.Update(ctx, doc); err != nil {
			return IngestResult{}, err
		}
		result.Warning = summaryFailedWarning
	} else {
		now := time.Now().UTC()
		doc.Summary = summary.Summary
		doc.KeyPoints = summary.KeyPoints
		doc.ProcessingStatus = StatusCompleted
		doc.LastProcessed = &now
		if err := s.Repo.Update(ctx, doc); err != nil {
			return IngestResult{}, err
		}
		result.Summary = summary.Summary
		result.KeyPoints = summary.KeyPoints
	}

	s.Ledger.Record(ctx, userID, usage.ResourcePDFUploads)
	return result, nil
}

// List returns a page of the user's documents without extracted text.
func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]Document, int, error) {
	return s.Repo.List(ctx, userID, filter)
}

// Get returns one document with its extracted text.
func (s *Service) Get(ctx context.Context, userID, docID string) (Document, error) {
	return s.Repo.GetByID(ctx, userID, docID)
}

// Delete removes the document record and its backing file.
func (s *Service) Delete(ctx context.Context, userID, docID string) error {
	doc, err := s.Repo.GetByID(ctx, userID, docID)
	if err != nil {
		return err
	}
	if doc.Path != "" {
		s.cleanup(ctx, doc.Path)
	}
	return s.Repo.Delete(ctx, userID, docID)
}

func (s *Service) readStored(ctx context.Context, key string) ([]byte, error) {
	body, err := s.Store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

// cleanup removes a stored file; failures are logged only.
func (s *Service) cleanup(ctx context.Context, key string) {
	if err := s.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("documents.cleanup_failed", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func excerpt(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
