package users

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateUsername indicates the username is already taken.
	ErrDuplicateUsername = errors.New("username already taken")
)

// Repo defines persistence operations for users, including the usage
// counters the Ledger reads and advances.
type Repo interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	UpdateProfile(ctx context.Context, userID string, profile Profile) (User, error)

	// IncrementUsage adds one to the named counter (aiQueries, pdfUploads,
	// imagesGenerated) as a single conditional update.
	IncrementUsage(ctx context.Context, userID string, resource string) error
	// ResetUsage zeroes all counters and rolls the period forward to day.
	// It is a no-op when the stored period already covers day.
	ResetUsage(ctx context.Context, userID string, day time.Time) error
}
