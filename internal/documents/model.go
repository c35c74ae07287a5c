package documents

import "time"

// Processing statuses for the ingestion state machine.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Document is one uploaded and ingested file. ExtractedText must be set
// before the status can reach completed. Path is the storage key of the
// backing file and never leaves the server.
type Document struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	Filename         string     `json:"filename"`
	OriginalName     string     `json:"originalName"`
	MimeType         string     `json:"mimeType"`
	SizeBytes        int64      `json:"size"`
	Path             string     `json:"-"`
	ExtractedText    string     `json:"extractedText,omitempty"`
	Summary          string     `json:"summary,omitempty"`
	KeyPoints        []string   `json:"keyPoints,omitempty"`
	Tags             []string   `json:"tags"`
	PageCount        int        `json:"pageCount"`
	Language         string     `json:"language,omitempty"`
	ProcessingStatus string     `json:"processingStatus"`
	UploadDate       time.Time  `json:"uploadDate"`
	LastProcessed    *time.Time `json:"lastProcessed,omitempty"`
}
