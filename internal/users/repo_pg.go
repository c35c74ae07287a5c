package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGRepo persists users in Postgres.
type PGRepo struct {
	DB *sql.DB
}

const userColumns = `
id, username, email, password_hash, first_name, last_name, avatar, study_goals,
ai_personality, difficulty_level, study_reminders,
plan, plan_expires_at, ai_queries, pdf_uploads, images_generated, usage_period_start,
created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, user User) error {
	goals, err := json.Marshal(user.Profile.StudyGoals)
	if err != nil {
		return fmt.Errorf("marshal study goals: %w", err)
	}
	const query = `
INSERT INTO users (id, username, email, password_hash, first_name, last_name, avatar, study_goals,
                   ai_personality, difficulty_level, study_reminders, plan, usage_period_start)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = r.DB.ExecContext(ctx, query,
		user.ID,
		user.Username,
		strings.ToLower(user.Email),
		user.PasswordHash,
		nullableString(user.Profile.FirstName),
		nullableString(user.Profile.LastName),
		nullableString(user.Profile.Avatar),
		goals,
		user.Profile.Preferences.AIPersonality,
		user.Profile.Preferences.DifficultyLevel,
		user.Profile.Preferences.StudyReminders,
		user.Subscription.Plan,
		user.Subscription.PeriodStart,
	)
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "users_email_key"):
			return ErrDuplicateEmail
		case strings.Contains(msg, "users_username_key"):
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, userID))
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, strings.ToLower(email)))
}

func (r *PGRepo) UpdateProfile(ctx context.Context, userID string, profile Profile) (User, error) {
	goals, err := json.Marshal(profile.StudyGoals)
	if err != nil {
		return User{}, fmt.Errorf("marshal study goals: %w", err)
	}
	const query = `
UPDATE users SET
  first_name = $2,
  last_name = $3,
  avatar = $4,
  study_goals = $5,
  ai_personality = $6,
  difficulty_level = $7,
  study_reminders = $8,
  updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		userID,
		nullableString(profile.FirstName),
		nullableString(profile.LastName),
		nullableString(profile.Avatar),
		goals,
		profile.Preferences.AIPersonality,
		profile.Preferences.DifficultyLevel,
		profile.Preferences.StudyReminders,
	)
	if err != nil {
		return User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return User{}, ErrNotFound
	}
	return r.GetByID(ctx, userID)
}

func (r *PGRepo) IncrementUsage(ctx context.Context, userID string, resource string) error {
	column, err := usageColumn(resource)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE users SET %s = %s + 1, updated_at = now() WHERE id = $1`, column, column)
	res, err := r.DB.ExecContext(ctx, query, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) ResetUsage(ctx context.Context, userID string, day time.Time) error {
	const query = `
UPDATE users SET
  ai_queries = 0,
  pdf_uploads = 0,
  images_generated = 0,
  usage_period_start = $2,
  updated_at = now()
WHERE id = $1 AND usage_period_start < $2`
	_, err := r.DB.ExecContext(ctx, query, userID, day)
	return err
}

func usageColumn(resource string) (string, error) {
	switch resource {
	case "aiQueries":
		return "ai_queries", nil
	case "pdfUploads":
		return "pdf_uploads", nil
	case "imagesGenerated":
		return "images_generated", nil
	}
	return "", fmt.Errorf("unknown usage resource %q", resource)
}

func (r *PGRepo) scanOne(row *sql.Row) (User, error) {
	var (
		user      User
		firstName sql.NullString
		lastName  sql.NullString
		avatar    sql.NullString
		goals     []byte
		expiresAt sql.NullTime
	)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&firstName,
		&lastName,
		&avatar,
		&goals,
		&user.Profile.Preferences.AIPersonality,
		&user.Profile.Preferences.DifficultyLevel,
		&user.Profile.Preferences.StudyReminders,
		&user.Subscription.Plan,
		&expiresAt,
		&user.Subscription.Usage.AIQueries,
		&user.Subscription.Usage.PDFUploads,
		&user.Subscription.Usage.ImagesGenerated,
		&user.Subscription.PeriodStart,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.Profile.FirstName = firstName.String
	user.Profile.LastName = lastName.String
	user.Profile.Avatar = avatar.String
	if expiresAt.Valid {
		t := expiresAt.Time
		user.Subscription.ExpiresAt = &t
	}
	if len(goals) > 0 {
		if err := json.Unmarshal(goals, &user.Profile.StudyGoals); err != nil {
			return User{}, fmt.Errorf("unmarshal study goals: %w", err)
		}
	}
	if user.Profile.StudyGoals == nil {
		user.Profile.StudyGoals = []string{}
	}
	return user, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
