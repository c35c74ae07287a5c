package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyhub-backend/internal/chats"
	"studyhub-backend/internal/llm"
	"studyhub-backend/internal/shared/util"
	"studyhub-backend/internal/usage"
	"studyhub-backend/internal/users"
)

// ErrValidation indicates a malformed assistant request.
var ErrValidation = errors.New("invalid input")

// Service composes the LLM provider, chat persistence, and the usage
// ledger behind the assistant endpoints.
type Service struct {
	LLM    llm.Client
	Chats  chats.Repo
	Users  users.Repo
	Ledger *usage.Ledger
	Model  string
}

// AskInput is a free-form tutoring question.
type AskInput struct {
	Question  string
	Subject   string
	Context   string
	SessionID string
}

// AskResult is the answer plus accounting for the persisted chat.
type AskResult struct {
	Answer       string `json:"answer"`
	ChatID       string `json:"chatId"`
	TokensUsed   int    `json:"tokensUsed,omitempty"`
	ResponseTime int64  `json:"responseTime"`
}

// Ask answers a question in the user's preferred persona. The call is
// gated on the aiQueries ceiling; the counter advances only after the
// provider call succeeds and the chat is persisted.
func (s *Service) Ask(ctx context.Context, userID string, in AskInput) (AskResult, error) {
	in.Question = strings.TrimSpace(in.Question)
	if in.Question == "" || len(in.Question) > 1000 {
		return AskResult{}, fmt.Errorf("%w: question must be 1-1000 characters", ErrValidation)
	}
	if len(in.Context) > 5000 {
		return AskResult{}, fmt.Errorf("%w: context must be at most 5000 characters", ErrValidation)
	}

	if err := s.Ledger.Check(ctx, userID, usage.ResourceAIQueries); err != nil {
		return AskResult{}, err
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return AskResult{}, err
	}

	start := time.Now()
	completion, err := s.LLM.Complete(ctx, llm.CompletionRequest{
		System:      askSystem(user.Profile.Preferences, in.Subject, in.Context),
		Prompt:      in.Question,
		Shape:       llm.ShapeText,
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return AskResult{}, err
	}
	responseTime := time.Since(start).Milliseconds()

	chat := chats.Chat{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: in.SessionID,
		Type:      chats.TypeQuestion,
		Input:     chats.Input{Text: in.Question},
		Output:    chats.Output{Text: completion.Content},
		Metadata: chats.Metadata{
			Model:        s.Model,
			TokensUsed:   completion.TokensUsed,
			ResponseTime: responseTime,
		},
		Tags:      []string{},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Chats.Create(ctx, chat); err != nil {
		return AskResult{}, err
	}

	s.Ledger.Record(ctx, userID, usage.ResourceAIQueries)

	return AskResult{
		Answer:       completion.Content,
		ChatID:       chat.ID,
		TokensUsed:   completion.TokensUsed,
		ResponseTime: responseTime,
	}, nil
}

// SummaryOptions shape the requested summary.
type SummaryOptions struct {
	Length     string
	Style      string
	FocusAreas []string
}

// SummarizeInput is a summarization request.
type SummarizeInput struct {
	Text string
	SummaryOptions
}

// SummaryResult is the structured summary plus the persisted chat id.
type SummaryResult struct {
	Summary           string   `json:"summary"`
	KeyPoints         []string `json:"keyPoints"`
	OriginalWordCount int      `json:"originalWordCount"`
	ChatID            string   `json:"chatId"`
}

// Summarize produces a structured summary and records the interaction.
func (s *Service) Summarize(ctx context.Context, userID string, in SummarizeInput) (SummaryResult, error) {
	if len(strings.TrimSpace(in.Text)) < 50 {
		return SummaryResult{}, fmt.Errorf("%w: text must be at least 50 characters", ErrValidation)
	}
	opts, err := normalizeSummaryOptions(in.SummaryOptions)
	if err != nil {
		return SummaryResult{}, err
	}

	summary, tokens, err := s.summarize(ctx, in.Text, opts)
	if err != nil {
		return SummaryResult{}, err
	}

	chat := chats.Chat{
		ID:     uuid.NewString(),
		UserID: userID,
		Type:   chats.TypeSummary,
		Input:  chats.Input{Text: in.Text},
		Output: chats.Output{Text: summary.Summary, KeyPoints: summary.KeyPoints},
		Metadata: chats.Metadata{
			Model:      s.Model,
			TokensUsed: tokens,
		},
		Tags:      []string{},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Chats.Create(ctx, chat); err != nil {
		return SummaryResult{}, err
	}

	return SummaryResult{
		Summary:           summary.Summary,
		KeyPoints:         summary.KeyPoints,
		OriginalWordCount: util.CountWords(in.Text),
		ChatID:            chat.ID,
	}, nil
}

// SummarizeContent produces a summary with default options and no chat
// record. Document ingestion uses it for uploaded PDFs.
func (s *Service) SummarizeContent(ctx context.Context, text string) (chats.Summary, error) {
	opts := SummaryOptions{Length: "medium", Style: "paragraph"}
	summary, _, err := s.summarize(ctx, text, opts)
	return summary, err
}

func (s *Service) summarize(ctx context.Context, text string, opts SummaryOptions) (chats.Summary, int, error) {
	completion, err := s.LLM.Complete(ctx, llm.CompletionRequest{
		System:      summarySystem,
		Prompt:      summaryPrompt(text, opts),
		Shape:       llm.ShapeJSON,
		Temperature: 0.3,
		MaxTokens:   1500,
	})
	if err != nil {
		return chats.Summary{}, 0, err
	}
	summary, err := parseSummary(completion.Content)
	if err != nil {
		return chats.Summary{}, 0, err
	}
	return summary, completion.TokensUsed, nil
}

// QuizOptions shape the requested quiz.
type QuizOptions struct {
	NumberOfQuestions int
	Difficulty        string
	QuestionType      string
}

// QuizInput is a quiz generation request.
type QuizInput struct {
	Content string
	QuizOptions
}

// QuizResult is the generated quiz plus the persisted chat id.
type QuizResult struct {
	Quiz           []chats.QuizQuestion `json:"quiz"`
	TotalQuestions int                  `json:"totalQuestions"`
	ChatID         string               `json:"chatId"`
}

// Quiz generates a quiz with exactly the requested number of questions.
func (s *Service) Quiz(ctx context.Context, userID string, in QuizInput) (QuizResult, error) {
	if len(strings.TrimSpace(in.Content)) < 10 {
		return QuizResult{}, fmt.Errorf("%w: content must be at least 10 characters", ErrValidation)
	}
	opts, err := normalizeQuizOptions(in.QuizOptions)
	if err != nil {
		return QuizResult{}, err
	}

	completion, err := s.LLM.Complete(ctx, llm.CompletionRequest{
		System:      quizSystem,
		Prompt:      quizPrompt(in.Content, opts),
		Shape:       llm.ShapeJSON,
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return QuizResult{}, err
	}
	quiz, err := parseQuiz(completion.Content, opts)
	if err != nil {
		return QuizResult{}, err
	}

	chat := chats.Chat{
		ID:     uuid.NewString(),
		UserID: userID,
		Type:   chats.TypeQuiz,
		Input:  chats.Input{Text: in.Content},
		Output: chats.Output{Quiz: &quiz},
		Metadata: chats.Metadata{
			Model:      s.Model,
			TokensUsed: completion.TokensUsed,
		},
		Tags:      []string{},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Chats.Create(ctx, chat); err != nil {
		return QuizResult{}, err
	}

	return QuizResult{
		Quiz:           quiz.Questions,
		TotalQuestions: len(quiz.Questions),
		ChatID:         chat.ID,
	}, nil
}

// FlashcardsInput is a flashcard generation request.
type FlashcardsInput struct {
	Content       string
	NumberOfCards int
}

// FlashcardsResult is the generated card set plus the persisted chat id.
type FlashcardsResult struct {
	Flashcards []chats.Flashcard `json:"flashcards"`
	TotalCards int               `json:"totalCards"`
	ChatID     string            `json:"chatId"`
}

// Flashcards generates up to the requested number of cards; fewer is
// acceptable, zero is a provider failure.
func (s *Service) Flashcards(ctx context.Context, userID string, in FlashcardsInput) (FlashcardsResult, error) {
	if strings.TrimSpace(in.Content) == "" {
		return FlashcardsResult{}, fmt.Errorf("%w: content is required", ErrValidation)
	}
	if in.NumberOfCards <= 0 {
		in.NumberOfCards = 10
	}
	if in.NumberOfCards > 50 {
		return FlashcardsResult{}, fmt.Errorf("%w: numberOfCards must be at most 50", ErrValidation)
	}

	completion, err := s.LLM.Complete(ctx, llm.CompletionRequest{
		System:      flashcardSystem,
		Prompt:      flashcardsPrompt(in.Content, in.NumberOfCards),
		Shape:       llm.ShapeJSON,
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return FlashcardsResult{}, err
	}
	cards, err := parseFlashcards(completion.Content, in.NumberOfCards)
	if err != nil {
		return FlashcardsResult{}, err
	}

	chat := chats.Chat{
		ID:     uuid.NewString(),
		UserID: userID,
		Type:   chats.TypeFlashcard,
		Input:  chats.Input{Text: in.Content},
		Output: chats.Output{Flashcards: cards},
		Metadata: chats.Metadata{
			Model:      s.Model,
			TokensUsed: completion.TokensUsed,
		},
		Tags:      []string{},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Chats.Create(ctx, chat); err != nil {
		return FlashcardsResult{}, err
	}

	return FlashcardsResult{
		Flashcards: cards,
		TotalCards: len(cards),
		ChatID:     chat.ID,
	}, nil
}

// ImageInput is an image generation request.
type ImageInput struct {
	Prompt  string
	Style   string
	Size    string
	Quality string
}

// ImageResult is the generated image reference plus the persisted chat id.
type ImageResult struct {
	ImageURL      string `json:"imageUrl"`
	RevisedPrompt string `json:"revisedPrompt,omitempty"`
	ChatID        string `json:"chatId"`
}

// Image generates an educational image. The call is gated on the
// imagesGenerated ceiling.
func (s *Service) Image(ctx context.Context, userID string, in ImageInput) (ImageResult, error) {
	in.Prompt = strings.TrimSpace(in.Prompt)
	if len(in.Prompt) < 5 || len(in.Prompt) > 500 {
		return ImageResult{}, fmt.Errorf("%w: prompt must be 5-500 characters", ErrValidation)
	}
	if err := normalizeImageInput(&in); err != nil {
		return ImageResult{}, err
	}

	if err := s.Ledger.Check(ctx, userID, usage.ResourceImagesGenerated); err != nil {
		return ImageResult{}, err
	}

	image, err := s.LLM.GenerateImage(ctx, llm.ImageRequest{
		Prompt:  imagePrompt(in.Prompt, in.Style),
		Size:    in.Size,
		Quality: in.Quality,
	})
	if err != nil {
		return ImageResult{}, err
	}

	chat := chats.Chat{
		ID:     uuid.NewString(),
		UserID: userID,
		Type:   chats.TypeImage,
		Input:  chats.Input{ImagePrompt: in.Prompt},
		Output: chats.Output{ImageURL: image.URL, Text: image.RevisedPrompt},
		Metadata: chats.Metadata{
			Model: s.Model,
		},
		Tags:      []string{},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Chats.Create(ctx, chat); err != nil {
		return ImageResult{}, err
	}

	s.Ledger.Record(ctx, userID, usage.ResourceImagesGenerated)

	return ImageResult{
		ImageURL:      image.URL,
		RevisedPrompt: image.RevisedPrompt,
		ChatID:        chat.ID,
	}, nil
}

func normalizeQuizOptions(opts QuizOptions) (QuizOptions, error) {
	if opts.NumberOfQuestions == 0 {
		opts.NumberOfQuestions = 5
	}
	if opts.NumberOfQuestions < 1 || opts.NumberOfQuestions > 20 {
		return opts, fmt.Errorf("%w: numberOfQuestions must be 1-20", ErrValidation)
	}
	if opts.Difficulty == "" {
		opts.Difficulty = "medium"
	}
	switch opts.Difficulty {
	case "easy", "medium", "hard":
	default:
		return opts, fmt.Errorf("%w: unknown difficulty %q", ErrValidation, opts.Difficulty)
	}
	if opts.QuestionType == "" {
		opts.QuestionType = "multiple-choice"
	}
	switch opts.QuestionType {
	case "multiple-choice", "true-false", "short-answer", "mixed":
	default:
		return opts, fmt.Errorf("%w: unknown questionType %q", ErrValidation, opts.QuestionType)
	}
	return opts, nil
}

func normalizeSummaryOptions(opts SummaryOptions) (SummaryOptions, error) {
	if opts.Length == "" {
		opts.Length = "medium"
	}
	if _, ok := summaryLengthInstructions[opts.Length]; !ok {
		return opts, fmt.Errorf("%w: unknown length %q", ErrValidation, opts.Length)
	}
	if opts.Style == "" {
		opts.Style = "paragraph"
	}
	if _, ok := summaryStyleInstructions[opts.Style]; !ok {
		return opts, fmt.Errorf("%w: unknown style %q", ErrValidation, opts.Style)
	}
	return opts, nil
}

func normalizeImageInput(in *ImageInput) error {
	if in.Style == "" {
		in.Style = "natural"
	}
	if _, ok := imageStyleModifiers[in.Style]; !ok {
		return fmt.Errorf("%w: unknown style %q", ErrValidation, in.Style)
	}
	if in.Size == "" {
		in.Size = "512x512"
	}
	switch in.Size {
	case "256x256", "512x512", "1024x1024":
	default:
		return fmt.Errorf("%w: unknown size %q", ErrValidation, in.Size)
	}
	if in.Quality == "" {
		in.Quality = "standard"
	}
	switch in.Quality {
	case "standard", "hd":
	default:
		return fmt.Errorf("%w: unknown quality %q", ErrValidation, in.Quality)
	}
	return nil
}
