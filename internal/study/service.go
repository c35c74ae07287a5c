package study

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyhub-backend/internal/chats"
	"studyhub-backend/internal/documents"
)

// ErrValidation indicates a malformed session request.
var ErrValidation = errors.New("invalid input")

// Analytics periods.
var periodWindows = map[string]time.Duration{
	"1d":  24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// Service composes sessions with chats and documents for attachment
// checks and analytics.
type Service struct {
	Repo      Repo
	Chats     chats.Repo
	Documents documents.Repo
}

// CreateInput carries the fields accepted at session creation.
type CreateInput struct {
	Title       string
	Subject     string
	Description string
	Difficulty  string
	StudyMode   string
}

// Create validates input and persists a new active session.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Session, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Subject = strings.TrimSpace(in.Subject)
	if in.Title == "" || len(in.Title) > 100 {
		return Session{}, fmt.Errorf("%w: title must be 1-100 characters", ErrValidation)
	}
	if in.Subject == "" || len(in.Subject) > 50 {
		return Session{}, fmt.Errorf("%w: subject must be 1-50 characters", ErrValidation)
	}
	if len(in.Description) > 500 {
		return Session{}, fmt.Errorf("%w: description must be at most 500 characters", ErrValidation)
	}
	if in.Difficulty == "" {
		in.Difficulty = DifficultyMedium
	}
	if !validDifficulty(in.Difficulty) {
		return Session{}, fmt.Errorf("%w: unknown difficulty %q", ErrValidation, in.Difficulty)
	}
	if in.StudyMode == "" {
		in.StudyMode = ModeReading
	}
	if !validMode(in.StudyMode) {
		return Session{}, fmt.Errorf("%w: unknown studyMode %q", ErrValidation, in.StudyMode)
	}

	now := time.Now().UTC()
	session := Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       in.Title,
		Subject:     in.Subject,
		Description: strings.TrimSpace(in.Description),
		Documents:   []DocumentRef{},
		Progress: Progress{
			CompletedTopics: []string{},
			StudyGoals:      []StudyGoal{},
		},
		Settings: Settings{
			Difficulty: in.Difficulty,
			StudyMode:  in.StudyMode,
		},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// List returns a page of the user's sessions.
func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]Session, int, error) {
	return s.Repo.List(ctx, userID, filter)
}

// Get returns one session with its attached documents.
func (s *Service) Get(ctx context.Context, userID, sessionID string) (Session, error) {
	return s.Repo.GetByID(ctx, userID, sessionID)
}

// Update applies a partial update to a session.
func (s *Service) Update(ctx context.Context, userID, sessionID string, update SessionUpdate) (Session, error) {
	if update.Difficulty != nil && !validDifficulty(*update.Difficulty) {
		return Session{}, fmt.Errorf("%w: unknown difficulty %q", ErrValidation, *update.Difficulty)
	}
	if update.StudyMode != nil && !validMode(*update.StudyMode) {
		return Session{}, fmt.Errorf("%w: unknown studyMode %q", ErrValidation, *update.StudyMode)
	}
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return Session{}, fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	return s.Repo.Update(ctx, userID, sessionID, update)
}

// UpdateProgress applies a progress delta: replace fields replace,
// time spent adds.
func (s *Service) UpdateProgress(ctx context.Context, userID, sessionID string, update ProgressUpdate) (Progress, error) {
	if update.TimeSpent < 0 {
		return Progress{}, fmt.Errorf("%w: timeSpent cannot be negative", ErrValidation)
	}
	for _, goal := range update.StudyGoals {
		if strings.TrimSpace(goal.Goal) == "" {
			return Progress{}, fmt.Errorf("%w: study goals require text", ErrValidation)
		}
	}
	return s.Repo.UpdateProgress(ctx, userID, sessionID, update)
}

// AttachDocument idempotently attaches a document the user owns to a
// session the user owns, and returns the attachment count.
func (s *Service) AttachDocument(ctx context.Context, userID, sessionID, documentID string) (int, error) {
	if _, err := s.Repo.GetByID(ctx, userID, sessionID); err != nil {
		return 0, err
	}
	if _, err := s.Documents.GetByID(ctx, userID, documentID); err != nil {
		return 0, err
	}
	return s.Repo.AttachDocument(ctx, sessionID, documentID)
}

// StudyStats aggregates session activity in the analytics window.
type StudyStats struct {
	TotalSessions      int `json:"totalSessions"`
	ActiveSessions     int `json:"activeSessions"`
	TotalStudyTime     int `json:"totalStudyTime"`
	AverageSessionTime int `json:"averageSessionTime"`
}

// ActivityStats aggregates chat and document activity in the window.
type ActivityStats struct {
	TotalChats        int            `json:"totalChats"`
	ChatsByType       map[string]int `json:"chatsByType"`
	DocumentsUploaded int            `json:"documentsUploaded"`
}

// Analytics is the aggregated activity report.
type Analytics struct {
	Period        string         `json:"period"`
	StudyStats    StudyStats     `json:"studyStats"`
	ActivityStats ActivityStats  `json:"activityStats"`
	Subjects      map[string]int `json:"subjects"`
}

// AnalyticsFor aggregates the user's activity over the lookback window.
// Unknown periods fall back to 7d. Empty windows report zeros.
func (s *Service) AnalyticsFor(ctx context.Context, userID, period string) (Analytics, error) {
	window, ok := periodWindows[period]
	if !ok {
		period = "7d"
		window = periodWindows[period]
	}
	since := time.Now().UTC().Add(-window)

	sessions, err := s.Repo.ListSince(ctx, userID, since)
	if err != nil {
		return Analytics{}, err
	}

	stats := StudyStats{TotalSessions: len(sessions)}
	subjects := map[string]int{}
	for _, session := range sessions {
		if session.IsActive {
			stats.ActiveSessions++
		}
		stats.TotalStudyTime += session.Progress.TimeSpent
		subjects[session.Subject]++
	}
	if stats.TotalSessions > 0 {
		stats.AverageSessionTime = stats.TotalStudyTime / stats.TotalSessions
	}

	chatsByType, err := s.Chats.CountByTypeSince(ctx, userID, since)
	if err != nil {
		return Analytics{}, err
	}
	totalChats := 0
	for _, count := range chatsByType {
		totalChats += count
	}

	docCount, err := s.Documents.CountSince(ctx, userID, since)
	if err != nil {
		return Analytics{}, err
	}

	return Analytics{
		Period:     period,
		StudyStats: stats,
		ActivityStats: ActivityStats{
			TotalChats:        totalChats,
			ChatsByType:       chatsByType,
			DocumentsUploaded: docCount,
		},
		Subjects: subjects,
	}, nil
}
