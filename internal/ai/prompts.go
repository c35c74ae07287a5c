package ai

import (
	"fmt"
	"strings"

	"studyhub-backend/internal/users"
)

const (
	quizSystem      = "You are an expert quiz generator. Create educational quizzes that test comprehension and critical thinking."
	flashcardSystem = "You are an expert at creating effective flashcards for studying."
	summarySystem   = "You are an expert at creating clear, concise summaries that capture the essential information."
)

var summaryLengthInstructions = map[string]string{
	"short":  "in 2-3 sentences",
	"medium": "in 1-2 paragraphs",
	"long":   "in 3-4 detailed paragraphs",
}

var summaryStyleInstructions = map[string]string{
	"bullet-points": "Format as clear bullet points",
	"paragraph":     "Write in coherent paragraphs",
	"outline":       "Create a structured outline format",
}

var imageStyleModifiers = map[string]string{
	"natural":     "photorealistic, natural lighting",
	"cartoon":     "cartoon style, colorful, friendly",
	"artistic":    "artistic illustration, creative, expressive",
	"diagram":     "clean diagram, educational, clear labels",
	"infographic": "infographic style, data visualization, professional",
}

// askSystem composes the tutoring instruction from the user's stored
// preferences plus any per-request subject and context.
func askSystem(prefs users.Preferences, subject, context string) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"You are a helpful AI study assistant. Your personality is %s. Adjust your responses to %s level. Be encouraging and educational in your responses.",
		prefs.AIPersonality, prefs.DifficultyLevel)
	if subject != "" {
		fmt.Fprintf(&b, " Focus on %s topics.", subject)
	}
	if context != "" {
		fmt.Fprintf(&b, " Additional context: %s", context)
	}
	return b.String()
}

func quizPrompt(content string, opts QuizOptions) string {
	return fmt.Sprintf(`Create a %s quiz with %d %s questions based on the following content:

%s

Requirements:
- Generate exactly %d questions
- Difficulty level: %s
- Question type: %s
- Include clear explanations for each answer
- For multiple choice, provide 4 options
- Make questions test understanding, not just memorization

Return a JSON object with this structure:
{
  "questions": [
    {
      "question": "Question text here?",
      "type": "%s",
      "options": ["A", "B", "C", "D"] (for multiple choice only),
      "correctAnswer": "Correct answer",
      "explanation": "Why this is correct",
      "difficulty": "%s"
    }
  ]
}`,
		opts.Difficulty, opts.NumberOfQuestions, opts.QuestionType,
		content,
		opts.NumberOfQuestions, opts.Difficulty, opts.QuestionType,
		opts.QuestionType, opts.Difficulty)
}

func flashcardsPrompt(content string, numberOfCards int) string {
	return fmt.Sprintf(`Create exactly %d flashcards from the following content.
Each flashcard should have a clear question/term on the front and a comprehensive answer/definition on the back.
Include a mix of difficulty levels and relevant tags.

Content:
%s

Return a JSON object with this structure:
{
  "flashcards": [
    {
      "front": "Question or term",
      "back": "Answer or definition",
      "difficulty": "easy|medium|hard",
      "tags": ["tag1", "tag2"]
    }
  ]
}`, numberOfCards, content)
}

func summaryPrompt(text string, opts SummaryOptions) string {
	focus := ""
	if len(opts.FocusAreas) > 0 {
		focus = fmt.Sprintf("Focus particularly on: %s.\n", strings.Join(opts.FocusAreas, ", "))
	}
	return fmt.Sprintf(`Summarize the following text %s.
%s.
%sAlso extract 5-7 key points as a separate list.

Text to summarize:
%s

Provide your response in JSON format:
{
  "summary": "Your summary here",
  "keyPoints": ["Point 1", "Point 2", "Point 3"]
}`,
		summaryLengthInstructions[opts.Length],
		summaryStyleInstructions[opts.Style],
		focus,
		text)
}

// imagePrompt appends the style modifier to the user prompt.
func imagePrompt(prompt, style string) string {
	modifier, ok := imageStyleModifiers[style]
	if !ok {
		modifier = imageStyleModifiers["natural"]
	}
	return fmt.Sprintf("%s, %s, high quality, educational content", prompt, modifier)
}
