package study

import "time"

// Difficulty and mode enums for session settings.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"

	ModeReading  = "reading"
	ModePractice = "practice"
	ModeReview   = "review"
)

// StudyGoal is a single goal within a session, optionally with a due
// date.
type StudyGoal struct {
	Goal      string     `json:"goal"`
	Completed bool       `json:"completed"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
}

// Progress tracks where the user is within a session. TimeSpent is
// cumulative minutes and only ever grows.
type Progress struct {
	CompletedTopics []string    `json:"completedTopics"`
	CurrentTopic    string      `json:"currentTopic,omitempty"`
	StudyGoals      []StudyGoal `json:"studyGoals"`
	TimeSpent       int         `json:"timeSpent"`
}

// Settings hold per-session study preferences.
type Settings struct {
	Difficulty      string `json:"difficulty"`
	StudyMode       string `json:"studyMode"`
	ReminderEnabled bool   `json:"reminderEnabled"`
}

// DocumentRef is a lightweight view of an attached document.
type DocumentRef struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"`
	UploadDate   time.Time `json:"uploadDate"`
}

// Session is a user-defined grouping of study material with progress
// tracking. Attached documents always belong to the same owner.
type Session struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	Title       string        `json:"title"`
	Subject     string        `json:"subject"`
	Description string        `json:"description,omitempty"`
	Documents   []DocumentRef `json:"documents"`
	Progress    Progress      `json:"progress"`
	Settings    Settings      `json:"settings"`
	IsActive    bool          `json:"isActive"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func validDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

func validMode(m string) bool {
	switch m {
	case ModeReading, ModePractice, ModeReview:
		return true
	}
	return false
}
