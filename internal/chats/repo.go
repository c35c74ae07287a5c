package chats

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the chat does not exist or is not owned by the
// requesting user.
var ErrNotFound = errors.New("chat not found")

// ListFilter narrows and pages a chat history query. Zero values mean
// "no constraint".
type ListFilter struct {
	Type      string
	SessionID string
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// Repo defines persistence operations for chats. All reads and writes
// are scoped to the owning user.
type Repo interface {
	Create(ctx context.Context, chat Chat) error
	GetByID(ctx context.Context, userID, chatID string) (Chat, error)
	List(ctx context.Context, userID string, filter ListFilter) ([]Chat, int, error)
	// ToggleBookmark flips the bookmark flag and returns the new value.
	ToggleBookmark(ctx context.Context, userID, chatID string) (bool, error)
	SetTags(ctx context.Context, userID, chatID string, tags []string) error
	Delete(ctx context.Context, userID, chatID string) error
	// CountByTypeSince groups chat counts by type over records created at
	// or after since.
	CountByTypeSince(ctx context.Context, userID string, since time.Time) (map[string]int, error)
}
