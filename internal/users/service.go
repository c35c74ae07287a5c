package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// ErrInvalidInput indicates a validation failure on a register or update request.
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidCredentials indicates a failed login attempt.
var ErrInvalidCredentials = errors.New("invalid email or password")

var (
	usernameRE = regexp.MustCompile(`^[a-zA-Z0-9]{3,30}$`)
	emailRE    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Service contains account business logic.
type Service struct {
	Repo Repo
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register validates input, hashes the password, and creates the account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if !usernameRE.MatchString(in.Username) {
		return User{}, fmt.Errorf("%w: username must be 3-30 alphanumeric characters", ErrInvalidInput)
	}
	if !emailRE.MatchString(in.Email) {
		return User{}, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if len(in.Password) < 6 {
		return User{}, fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	if len(in.FirstName) > 50 || len(in.LastName) > 50 {
		return User{}, fmt.Errorf("%w: name fields must be at most 50 characters", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Profile: Profile{
			FirstName:   strings.TrimSpace(in.FirstName),
			LastName:    strings.TrimSpace(in.LastName),
			StudyGoals:  []string{},
			Preferences: DefaultPreferences(),
		},
		Subscription: Subscription{
			Plan:        PlanFree,
			PeriodStart: now.Truncate(24 * time.Hour),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Login verifies credentials and returns the account.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}
	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns the user by ID.
func (s *Service) Get(ctx context.Context, userID string) (User, error) {
	return s.Repo.GetByID(ctx, userID)
}

// ProfileUpdate carries partial profile changes; nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Avatar      *string
	StudyGoals  []string
	Preferences *PreferencesUpdate
}

// PreferencesUpdate carries partial preference changes.
type PreferencesUpdate struct {
	AIPersonality   *string
	DifficultyLevel *string
	StudyReminders  *bool
}

// UpdateProfile applies a partial update to the user's profile.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (User, error) {
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}

	profile := user.Profile
	if update.FirstName != nil {
		profile.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		profile.LastName = strings.TrimSpace(*update.LastName)
	}
	if update.Avatar != nil {
		profile.Avatar = strings.TrimSpace(*update.Avatar)
	}
	if update.StudyGoals != nil {
		profile.StudyGoals = update.StudyGoals
	}
	if update.Preferences != nil {
		if p := update.Preferences.AIPersonality; p != nil {
			if !validPersonality(*p) {
				return User{}, fmt.Errorf("%w: unknown aiPersonality %q", ErrInvalidInput, *p)
			}
			profile.Preferences.AIPersonality = *p
		}
		if d := update.Preferences.DifficultyLevel; d != nil {
			if !validDifficulty(*d) {
				return User{}, fmt.Errorf("%w: unknown difficultyLevel %q", ErrInvalidInput, *d)
			}
			profile.Preferences.DifficultyLevel = *d
		}
		if r := update.Preferences.StudyReminders; r != nil {
			profile.Preferences.StudyReminders = *r
		}
	}

	return s.Repo.UpdateProfile(ctx, userID, profile)
}

func validPersonality(p string) bool {
	switch p {
	case PersonalityFriendly, PersonalityProfessional, PersonalityCasual:
		return true
	}
	return false
}

func validDifficulty(d string) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}
