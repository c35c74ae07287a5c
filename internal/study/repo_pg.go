package study

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGRepo persists study sessions in Postgres.
type PGRepo struct {
	DB *sql.DB
}

const sessionColumns = `
id, user_id, title, subject, description, completed_topics, current_topic, study_goals,
time_spent, difficulty, study_mode, reminder_enabled, is_active, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, session Session) error {
	topics, goals, err := marshalProgress(session.Progress)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO study_sessions (id, user_id, title, subject, description, completed_topics,
                            current_topic, study_goals, time_spent, difficulty, study_mode,
                            reminder_enabled, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = r.DB.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Title,
		session.Subject,
		nullableString(session.Description),
		topics,
		nullableString(session.Progress.CurrentTopic),
		goals,
		session.Progress.TimeSpent,
		session.Settings.Difficulty,
		session.Settings.StudyMode,
		session.Settings.ReminderEnabled,
		session.IsActive,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID, sessionID string) (Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM study_sessions WHERE id = $1 AND user_id = $2 LIMIT 1`
	session, err := scanSession(r.DB.QueryRowContext(ctx, query, sessionID, userID))
	if err != nil {
		return Session{}, err
	}
	refs, err := r.documentRefs(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	session.Documents = refs
	return session, nil
}

func (r *PGRepo) documentRefs(ctx context.Context, sessionID string) ([]DocumentRef, error) {
	const query = `
SELECT d.id, d.original_name, d.upload_date
FROM session_documents sd
JOIN documents d ON d.id = sd.document_id
WHERE sd.session_id = $1
ORDER BY sd.attached_at`
	rows, err := r.DB.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := []DocumentRef{}
	for rows.Next() {
		var ref DocumentRef
		if err := rows.Scan(&ref.ID, &ref.OriginalName, &ref.UploadDate); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *PGRepo) List(ctx context.Context, userID string, filter ListFilter) ([]Session, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if filter.Subject != "" {
		args = append(args, "%"+filter.Subject+"%")
		where = append(where, fmt.Sprintf("subject ILIKE $%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM study_sessions WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM study_sessions WHERE %s ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`,
		sessionColumns, whereSQL, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := []Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, session)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range result {
		refs, err := r.documentRefs(ctx, result[i].ID)
		if err != nil {
			return nil, 0, err
		}
		result[i].Documents = refs
	}
	return result, total, nil
}

func (r *PGRepo) Update(ctx context.Context, userID, sessionID string, update SessionUpdate) (Session, error) {
	set := []string{"updated_at = now()"}
	args := []any{sessionID, userID}

	add := func(clause string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf(clause, len(args)))
	}

	if update.Title != nil {
		add("title = $%d", *update.Title)
	}
	if update.Subject != nil {
		add("subject = $%d", *update.Subject)
	}
	if update.Description != nil {
		add("description = $%d", nullableString(*update.Description))
	}
	if update.IsActive != nil {
		add("is_active = $%d", *update.IsActive)
	}
	if update.Difficulty != nil {
		add("difficulty = $%d", *update.Difficulty)
	}
	if update.StudyMode != nil {
		add("study_mode = $%d", *update.StudyMode)
	}
	if update.Reminder != nil {
		add("reminder_enabled = $%d", *update.Reminder)
	}

	query := fmt.Sprintf(`UPDATE study_sessions SET %s WHERE id = $1 AND user_id = $2`, strings.Join(set, ", "))
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return Session{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Session{}, ErrNotFound
	}
	return r.GetByID(ctx, userID, sessionID)
}

func (r *PGRepo) UpdateProgress(ctx context.Context, userID, sessionID string, update ProgressUpdate) (Progress, error) {
	set := []string{"updated_at = now()"}
	args := []any{sessionID, userID}

	add := func(clause string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf(clause, len(args)))
	}

	if update.CompletedTopics != nil {
		topics, err := json.Marshal(update.CompletedTopics)
		if err != nil {
			return Progress{}, fmt.Errorf("marshal topics: %w", err)
		}
		add("completed_topics = $%d", topics)
	}
	if update.CurrentTopic != nil {
		add("current_topic = $%d", nullableString(*update.CurrentTopic))
	}
	if update.StudyGoals != nil {
		goals, err := json.Marshal(update.StudyGoals)
		if err != nil {
			return Progress{}, fmt.Errorf("marshal goals: %w", err)
		}
		add("study_goals = $%d", goals)
	}
	if update.TimeSpent > 0 {
		add("time_spent = time_spent + $%d", update.TimeSpent)
	}

	query := fmt.Sprintf(`
UPDATE study_sessions SET %s
WHERE id = $1 AND user_id = $2
RETURNING completed_topics, current_topic, study_goals, time_spent`, strings.Join(set, ", "))

	var (
		progress     Progress
		topics       []byte
		goals        []byte
		currentTopic sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(&topics, &currentTopic, &goals, &progress.TimeSpent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Progress{}, ErrNotFound
		}
		return Progress{}, err
	}
	progress.CurrentTopic = currentTopic.String
	if err := unmarshalList(topics, &progress.CompletedTopics); err != nil {
		return Progress{}, err
	}
	if err := unmarshalGoals(goals, &progress.StudyGoals); err != nil {
		return Progress{}, err
	}
	return progress, nil
}

func (r *PGRepo) AttachDocument(ctx context.Context, sessionID, documentID string) (int, error) {
	const insert = `
INSERT INTO session_documents (session_id, document_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`
	if _, err := r.DB.ExecContext(ctx, insert, sessionID, documentID); err != nil {
		return 0, err
	}
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM session_documents WHERE session_id = $1`, sessionID).Scan(&count)
	return count, err
}

func (r *PGRepo) ListSince(ctx context.Context, userID string, since time.Time) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM study_sessions WHERE user_id = $1 AND created_at >= $2`
	rows, err := r.DB.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, session)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		session      Session
		description  sql.NullString
		currentTopic sql.NullString
		topics       []byte
		goals        []byte
	)
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.Subject,
		&description,
		&topics,
		&currentTopic,
		&goals,
		&session.Progress.TimeSpent,
		&session.Settings.Difficulty,
		&session.Settings.StudyMode,
		&session.Settings.ReminderEnabled,
		&session.IsActive,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	session.Description = description.String
	session.Progress.CurrentTopic = currentTopic.String
	if err := unmarshalList(topics, &session.Progress.CompletedTopics); err != nil {
		return Session{}, err
	}
	if err := unmarshalGoals(goals, &session.Progress.StudyGoals); err != nil {
		return Session{}, err
	}
	session.Documents = []DocumentRef{}
	return session, nil
}

func marshalProgress(progress Progress) ([]byte, []byte, error) {
	topics := progress.CompletedTopics
	if topics == nil {
		topics = []string{}
	}
	tj, err := json.Marshal(topics)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal topics: %w", err)
	}
	goals := progress.StudyGoals
	if goals == nil {
		goals = []StudyGoal{}
	}
	gj, err := json.Marshal(goals)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal goals: %w", err)
	}
	return tj, gj, nil
}

func unmarshalList(raw []byte, dest *[]string) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("unmarshal list: %w", err)
		}
	}
	if *dest == nil {
		*dest = []string{}
	}
	return nil
}

func unmarshalGoals(raw []byte, dest *[]StudyGoal) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("unmarshal goals: %w", err)
		}
	}
	if *dest == nil {
		*dest = []StudyGoal{}
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
