package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// StubClient is a deterministic offline provider used in development and
// tests. It sniffs the system instruction to produce structured output
// matching what the caller expects, so the full request path works
// without provider credentials.
type StubClient struct{}

var countRE = regexp.MustCompile(`exactly (\d+)`)

// Complete returns deterministic content for the request.
func (StubClient) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	if err := ctx.Err(); err != nil {
		return Completion{}, err
	}
	content := stubContent(req)
	return Completion{
		Content:    content,
		TokensUsed: (len(req.Prompt) + len(content)) / 4,
	}, nil
}

func stubContent(req CompletionRequest) string {
	if req.Shape != ShapeJSON {
		answer := strings.TrimSpace(req.Prompt)
		if len(answer) > 200 {
			answer = answer[:200]
		}
		return "Here is a study-friendly explanation: " + answer
	}

	system := strings.ToLower(req.System)
	switch {
	case strings.Contains(system, "quiz"):
		return stubQuiz(requestedCount(req.Prompt, 5))
	case strings.Contains(system, "flashcard"):
		return stubFlashcards(requestedCount(req.Prompt, 10))
	case strings.Contains(system, "summar"):
		return stubSummary()
	}
	return fmt.Sprintf(`{"answer":"stub answer","promptHash":%q}`, hashPrompt(req.Prompt))
}

// GenerateImage returns a deterministic placeholder image reference.
func (StubClient) GenerateImage(ctx context.Context, req ImageRequest) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	return Image{
		URL:           "https://images.invalid/stub/" + hashPrompt(req.Prompt) + ".png",
		RevisedPrompt: req.Prompt,
	}, nil
}

func requestedCount(prompt string, fallback int) int {
	match := countRE.FindStringSubmatch(strings.ToLower(prompt))
	if len(match) == 2 {
		if n, err := strconv.Atoi(match[1]); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func stubQuiz(count int) string {
	type question struct {
		Question      string   `json:"question"`
		Type          string   `json:"type"`
		Options       []string `json:"options,omitempty"`
		CorrectAnswer string   `json:"correctAnswer"`
		Explanation   string   `json:"explanation"`
	}
	questions := make([]question, 0, count)
	for i := 0; i < count; i++ {
		questions = append(questions, question{
			Question:      fmt.Sprintf("Stub question %d?", i+1),
			Type:          "multiple-choice",
			Options:       []string{"Option A", "Option B", "Option C", "Option D"},
			CorrectAnswer: "Option A",
			Explanation:   "Stub explanation.",
		})
	}
	out, _ := json.Marshal(map[string]any{"questions": questions})
	return string(out)
}

func stubFlashcards(count int) string {
	type card struct {
		Front string `json:"front"`
		Back  string `json:"back"`
	}
	cards := make([]card, 0, count)
	for i := 0; i < count; i++ {
		cards = append(cards, card{
			Front: fmt.Sprintf("Stub term %d", i+1),
			Back:  fmt.Sprintf("Stub definition %d", i+1),
		})
	}
	out, _ := json.Marshal(map[string]any{"flashcards": cards})
	return string(out)
}

func stubSummary() string {
	out, _ := json.Marshal(map[string]any{
		"summary": "Stub summary of the provided content.",
		"keyPoints": []string{
			"Stub key point one",
			"Stub key point two",
			"Stub key point three",
			"Stub key point four",
			"Stub key point five",
		},
		"studyTime": "15 minutes",
	})
	return string(out)
}

func hashPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:8])
}
