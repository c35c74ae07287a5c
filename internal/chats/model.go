package chats

import "time"

// Chat types, one per assistant feature.
const (
	TypeQuestion  = "question"
	TypeSummary   = "summary"
	TypeQuiz      = "quiz"
	TypeImage     = "image"
	TypeFlashcard = "flashcard"
)

// Input is the user-supplied payload of an interaction. PDFContent
// holds the extracted text when a summary came from an uploaded
// document.
type Input struct {
	Text        string `json:"text,omitempty"`
	ImagePrompt string `json:"imagePrompt,omitempty"`
	PDFContent  string `json:"pdfContent,omitempty"`
}

// QuizQuestion is one generated quiz item. Options is populated only for
// multiple-choice questions, in which case it holds exactly 4 entries.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
}

// Quiz wraps the generated question list.
type Quiz struct {
	Questions []QuizQuestion `json:"questions"`
}

// Flashcard is one generated card.
type Flashcard struct {
	Front      string   `json:"front"`
	Back       string   `json:"back"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags,omitempty"`
}

// Summary is the structured result of a summarization.
type Summary struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
}

// Output is the generated payload. Exactly one type-appropriate field is
// populated: question/summary use Text, image uses ImageURL (plus Text
// for the revised prompt), quiz uses Quiz, flashcard uses Flashcards.
type Output struct {
	Text       string      `json:"text,omitempty"`
	ImageURL   string      `json:"imageUrl,omitempty"`
	Quiz       *Quiz       `json:"quiz,omitempty"`
	Flashcards []Flashcard `json:"flashcards,omitempty"`
	KeyPoints  []string    `json:"keyPoints,omitempty"`
}

// Metadata records provider accounting for an interaction.
type Metadata struct {
	Model        string `json:"model,omitempty"`
	TokensUsed   int    `json:"tokensUsed,omitempty"`
	ResponseTime int64  `json:"responseTime,omitempty"`
}

// Chat is one persisted AI interaction.
type Chat struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	SessionID    string    `json:"sessionId,omitempty"`
	Type         string    `json:"type"`
	Input        Input     `json:"input"`
	Output       Output    `json:"output"`
	Metadata     Metadata  `json:"metadata"`
	Tags         []string  `json:"tags"`
	IsBookmarked bool      `json:"isBookmarked"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ValidType reports whether t is a known chat type.
func ValidType(t string) bool {
	switch t {
	case TypeQuestion, TypeSummary, TypeQuiz, TypeImage, TypeFlashcard:
		return true
	}
	return false
}
