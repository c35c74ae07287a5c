package study

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the session does not exist or is not owned by
// the requesting user.
var ErrNotFound = errors.New("study session not found")

// ListFilter narrows and pages a session listing.
type ListFilter struct {
	Subject  string
	IsActive *bool
	Page     int
	Limit    int
}

// SessionUpdate carries partial session changes; nil fields are left
// unchanged.
type SessionUpdate struct {
	Title       *string
	Subject     *string
	Description *string
	IsActive    *bool
	Difficulty  *string
	StudyMode   *string
	Reminder    *bool
}

// ProgressUpdate carries partial progress changes. Replace fields are
// nil when untouched; TimeSpent is added to the stored total.
type ProgressUpdate struct {
	CompletedTopics []string
	CurrentTopic    *string
	StudyGoals      []StudyGoal
	TimeSpent       int
}

// Repo defines persistence operations for study sessions. All reads and
// writes are scoped to the owning user.
type Repo interface {
	Create(ctx context.Context, session Session) error
	GetByID(ctx context.Context, userID, sessionID string) (Session, error)
	List(ctx context.Context, userID string, filter ListFilter) ([]Session, int, error)
	Update(ctx context.Context, userID, sessionID string, update SessionUpdate) (Session, error)
	UpdateProgress(ctx context.Context, userID, sessionID string, update ProgressUpdate) (Progress, error)
	// AttachDocument inserts the reference if absent and returns the
	// resulting attachment count. Attaching twice is a no-op.
	AttachDocument(ctx context.Context, sessionID, documentID string) (int, error)
	// ListSince returns sessions created at or after since, without
	// document references.
	ListSince(ctx context.Context, userID string, since time.Time) ([]Session, error)
}
