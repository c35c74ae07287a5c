package chats

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used when no database is configured.
type MemoryRepo struct {
	mu    sync.RWMutex
	chats map[string]Chat
}

// NewMemoryRepo constructs an empty in-memory repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{chats: make(map[string]Chat)}
}

func (r *MemoryRepo) Create(ctx context.Context, chat Chat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if chat.Tags == nil {
		chat.Tags = []string{}
	}
	r.chats[chat.ID] = chat
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, chatID string) (Chat, error) {
	if err := ctx.Err(); err != nil {
		return Chat{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	chat, ok := r.chats[chatID]
	if !ok || chat.UserID != userID {
		return Chat{}, ErrNotFound
	}
	return chat, nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string, filter ListFilter) ([]Chat, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []Chat{}
	for _, chat := range r.chats {
		if chat.UserID != userID {
			continue
		}
		if filter.Type != "" && chat.Type != filter.Type {
			continue
		}
		if filter.SessionID != "" && chat.SessionID != filter.SessionID {
			continue
		}
		if filter.Search != "" && !matchesSearch(chat, filter.Search) {
			continue
		}
		if filter.StartDate != nil && chat.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && chat.CreatedAt.After(*filter.EndDate) {
			continue
		}
		matched = append(matched, chat)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= total {
		return []Chat{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func matchesSearch(chat Chat, search string) bool {
	search = strings.ToLower(search)
	if strings.Contains(strings.ToLower(chat.Input.Text), search) {
		return true
	}
	if strings.Contains(strings.ToLower(chat.Output.Text), search) {
		return true
	}
	for _, tag := range chat.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

func (r *MemoryRepo) ToggleBookmark(ctx context.Context, userID, chatID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok || chat.UserID != userID {
		return false, ErrNotFound
	}
	chat.IsBookmarked = !chat.IsBookmarked
	r.chats[chatID] = chat
	return chat.IsBookmarked, nil
}

func (r *MemoryRepo) SetTags(ctx context.Context, userID, chatID string, tags []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok || chat.UserID != userID {
		return ErrNotFound
	}
	if tags == nil {
		tags = []string{}
	}
	chat.Tags = tags
	r.chats[chatID] = chat
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, chatID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok || chat.UserID != userID {
		return ErrNotFound
	}
	delete(r.chats, chatID)
	return nil
}

func (r *MemoryRepo) CountByTypeSince(ctx context.Context, userID string, since time.Time) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := map[string]int{}
	for _, chat := range r.chats {
		if chat.UserID != userID || chat.CreatedAt.Before(since) {
			continue
		}
		counts[chat.Type]++
	}
	return counts, nil
}
