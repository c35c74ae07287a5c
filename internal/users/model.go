package users

import "time"

// Preference enums accepted by profile updates.
const (
	PersonalityFriendly     = "friendly"
	PersonalityProfessional = "professional"
	PersonalityCasual       = "casual"

	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"

	PlanFree    = "free"
	PlanPremium = "premium"
)

// Preferences tune how AI responses are generated for the user.
type Preferences struct {
	AIPersonality   string `json:"aiPersonality"`
	DifficultyLevel string `json:"difficultyLevel"`
	StudyReminders  bool   `json:"studyReminders"`
}

// Profile holds display and study preferences.
type Profile struct {
	FirstName   string      `json:"firstName,omitempty"`
	LastName    string      `json:"lastName,omitempty"`
	Avatar      string      `json:"avatar,omitempty"`
	StudyGoals  []string    `json:"studyGoals"`
	Preferences Preferences `json:"preferences"`
}

// UsageCounters track billable operations consumed in the current period.
type UsageCounters struct {
	AIQueries       int `json:"aiQueries"`
	PDFUploads      int `json:"pdfUploads"`
	ImagesGenerated int `json:"imagesGenerated"`
}

// Subscription is the live plan snapshot gating billable operations.
type Subscription struct {
	Plan        string        `json:"plan"`
	ExpiresAt   *time.Time    `json:"expiresAt,omitempty"`
	Usage       UsageCounters `json:"usage"`
	PeriodStart time.Time     `json:"-"`
}

// User is an account record. PasswordHash never leaves the package boundary.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Profile      Profile      `json:"profile"`
	Subscription Subscription `json:"subscription"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// DefaultPreferences returns the preferences assigned at registration.
func DefaultPreferences() Preferences {
	return Preferences{
		AIPersonality:   PersonalityFriendly,
		DifficultyLevel: DifficultyIntermediate,
		StudyReminders:  true,
	}
}
