package study

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used when no database is configured.
type MemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session
	// attached document refs per session, insertion ordered
	attachments map[string][]DocumentRef
}

// NewMemoryRepo constructs an empty in-memory repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		sessions:    make(map[string]Session),
		attachments: make(map[string][]DocumentRef),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, session Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	normalizeSession(&session)
	r.sessions[session.ID] = session
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	if !ok || session.UserID != userID {
		return Session{}, ErrNotFound
	}
	session.Documents = append([]DocumentRef{}, r.attachments[sessionID]...)
	return session, nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string, filter ListFilter) ([]Session, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []Session{}
	for _, session := range r.sessions {
		if session.UserID != userID {
			continue
		}
		if filter.Subject != "" && !strings.Contains(strings.ToLower(session.Subject), strings.ToLower(filter.Subject)) {
			continue
		}
		if filter.IsActive != nil && session.IsActive != *filter.IsActive {
			continue
		}
		session.Documents = append([]DocumentRef{}, r.attachments[session.ID]...)
		matched = append(matched, session)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= total {
		return []Session{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *MemoryRepo) Update(ctx context.Context, userID, sessionID string, update SessionUpdate) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok || session.UserID != userID {
		return Session{}, ErrNotFound
	}

	if update.Title != nil {
		session.Title = *update.Title
	}
	if update.Subject != nil {
		session.Subject = *update.Subject
	}
	if update.Description != nil {
		session.Description = *update.Description
	}
	if update.IsActive != nil {
		session.IsActive = *update.IsActive
	}
	if update.Difficulty != nil {
		session.Settings.Difficulty = *update.Difficulty
	}
	if update.StudyMode != nil {
		session.Settings.StudyMode = *update.StudyMode
	}
	if update.Reminder != nil {
		session.Settings.ReminderEnabled = *update.Reminder
	}
	session.UpdatedAt = time.Now().UTC()
	r.sessions[sessionID] = session

	session.Documents = append([]DocumentRef{}, r.attachments[sessionID]...)
	return session, nil
}

func (r *MemoryRepo) UpdateProgress(ctx context.Context, userID, sessionID string, update ProgressUpdate) (Progress, error) {
	if err := ctx.Err(); err != nil {
		return Progress{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok || session.UserID != userID {
		return Progress{}, ErrNotFound
	}

	if update.CompletedTopics != nil {
		session.Progress.CompletedTopics = update.CompletedTopics
	}
	if update.CurrentTopic != nil {
		session.Progress.CurrentTopic = *update.CurrentTopic
	}
	if update.StudyGoals != nil {
		session.Progress.StudyGoals = update.StudyGoals
	}
	if update.TimeSpent > 0 {
		session.Progress.TimeSpent += update.TimeSpent
	}
	session.UpdatedAt = time.Now().UTC()
	r.sessions[sessionID] = session
	return session.Progress, nil
}

func (r *MemoryRepo) AttachDocument(ctx context.Context, sessionID, documentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	refs := r.attachments[sessionID]
	for _, ref := range refs {
		if ref.ID == documentID {
			return len(refs), nil
		}
	}
	refs = append(refs, DocumentRef{ID: documentID, UploadDate: time.Now().UTC()})
	r.attachments[sessionID] = refs
	return len(refs), nil
}

func (r *MemoryRepo) ListSince(ctx context.Context, userID string, since time.Time) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []Session{}
	for _, session := range r.sessions {
		if session.UserID != userID || session.CreatedAt.Before(since) {
			continue
		}
		result = append(result, session)
	}
	return result, nil
}

func normalizeSession(session *Session) {
	if session.Progress.CompletedTopics == nil {
		session.Progress.CompletedTopics = []string{}
	}
	if session.Progress.StudyGoals == nil {
		session.Progress.StudyGoals = []StudyGoal{}
	}
	if session.Documents == nil {
		session.Documents = []DocumentRef{}
	}
}
