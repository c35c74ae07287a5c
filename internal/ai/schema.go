package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"studyhub-backend/internal/chats"
	"studyhub-backend/internal/llm"
)

// Structured provider output is validated fail-closed: a parse failure
// or a missing required field is ErrMalformedResponse, never a partial
// result.

func parseQuiz(raw string, opts QuizOptions) (chats.Quiz, error) {
	var parsed struct {
		Questions []chats.QuizQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return chats.Quiz{}, fmt.Errorf("%w: quiz parse: %v", llm.ErrMalformedResponse, err)
	}
	if len(parsed.Questions) != opts.NumberOfQuestions {
		return chats.Quiz{}, fmt.Errorf("%w: expected %d questions, got %d",
			llm.ErrMalformedResponse, opts.NumberOfQuestions, len(parsed.Questions))
	}
	for i := range parsed.Questions {
		q := &parsed.Questions[i]
		if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.CorrectAnswer) == "" {
			return chats.Quiz{}, fmt.Errorf("%w: question %d missing text or answer", llm.ErrMalformedResponse, i+1)
		}
		if q.Type == "" {
			q.Type = opts.QuestionType
		}
		if q.Difficulty == "" {
			q.Difficulty = opts.Difficulty
		}
		if q.Type == "multiple-choice" {
			if len(q.Options) != 4 {
				return chats.Quiz{}, fmt.Errorf("%w: question %d needs exactly 4 options", llm.ErrMalformedResponse, i+1)
			}
		} else if len(q.Options) > 0 {
			// options only make sense for multiple choice
			q.Options = nil
		}
	}
	return chats.Quiz{Questions: parsed.Questions}, nil
}

func parseFlashcards(raw string, numberOfCards int) ([]chats.Flashcard, error) {
	var parsed struct {
		Flashcards []chats.Flashcard `json:"flashcards"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: flashcards parse: %v", llm.ErrMalformedResponse, err)
	}
	// fewer cards than requested is acceptable degradation, zero is not
	if len(parsed.Flashcards) == 0 || len(parsed.Flashcards) > numberOfCards {
		return nil, fmt.Errorf("%w: expected 1-%d flashcards, got %d",
			llm.ErrMalformedResponse, numberOfCards, len(parsed.Flashcards))
	}
	for i, card := range parsed.Flashcards {
		if strings.TrimSpace(card.Front) == "" || strings.TrimSpace(card.Back) == "" {
			return nil, fmt.Errorf("%w: flashcard %d missing front or back", llm.ErrMalformedResponse, i+1)
		}
	}
	return parsed.Flashcards, nil
}

func parseSummary(raw string) (chats.Summary, error) {
	var parsed chats.Summary
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return chats.Summary{}, fmt.Errorf("%w: summary parse: %v", llm.ErrMalformedResponse, err)
	}
	if strings.TrimSpace(parsed.Summary) == "" {
		return chats.Summary{}, fmt.Errorf("%w: summary text missing", llm.ErrMalformedResponse)
	}
	if len(parsed.KeyPoints) < 5 || len(parsed.KeyPoints) > 7 {
		return chats.Summary{}, fmt.Errorf("%w: expected 5-7 key points, got %d",
			llm.ErrMalformedResponse, len(parsed.KeyPoints))
	}
	return parsed, nil
}
