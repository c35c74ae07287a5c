package chats

import (
	"context"
)

// Service contains chat-history business logic.
type Service struct {
	Repo Repo
}

// List returns a page of the user's chat history plus the total match count.
func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]Chat, int, error) {
	return s.Repo.List(ctx, userID, filter)
}

// ToggleBookmark flips the bookmark flag and returns the new value.
func (s *Service) ToggleBookmark(ctx context.Context, userID, chatID string) (bool, error) {
	return s.Repo.ToggleBookmark(ctx, userID, chatID)
}

// AddTags merges new tags into the chat's tag set, preserving order and
// skipping duplicates, and returns the resulting set.
func (s *Service) AddTags(ctx context.Context, userID, chatID string, tags []string) ([]string, error) {
	chat, err := s.Repo.GetByID(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(chat.Tags))
	merged := append([]string{}, chat.Tags...)
	for _, tag := range chat.Tags {
		seen[tag] = struct{}{}
	}
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		merged = append(merged, tag)
	}

	if err := s.Repo.SetTags(ctx, userID, chatID, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Delete removes a chat owned by the user.
func (s *Service) Delete(ctx context.Context, userID, chatID string) error {
	return s.Repo.Delete(ctx, userID, chatID)
}
