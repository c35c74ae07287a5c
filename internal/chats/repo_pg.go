package chats

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGRepo persists chats in Postgres.
type PGRepo struct {
	DB *sql.DB
}

const chatColumns = `
id, user_id, session_id, chat_type, input, output, metadata, tags, is_bookmarked, created_at`

func (r *PGRepo) Create(ctx context.Context, chat Chat) error {
	input, err := json.Marshal(chat.Input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}
	output, err := json.Marshal(chat.Output)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	metadata, err := json.Marshal(chat.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	tags := chat.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	const query = `
INSERT INTO chats (id, user_id, session_id, chat_type, input, output, metadata, tags, is_bookmarked, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = r.DB.ExecContext(ctx, query,
		chat.ID,
		chat.UserID,
		nullableString(chat.SessionID),
		chat.Type,
		input,
		output,
		metadata,
		tagsJSON,
		chat.IsBookmarked,
		chat.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID, chatID string) (Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1 AND user_id = $2 LIMIT 1`
	return scanChat(r.DB.QueryRowContext(ctx, query, chatID, userID))
}

func (r *PGRepo) List(ctx context.Context, userID string, filter ListFilter) ([]Chat, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}

	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Type != "" {
		add("chat_type = $%d", filter.Type)
	}
	if filter.SessionID != "" {
		add("session_id = $%d", filter.SessionID)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(input->>'text' ILIKE $%d OR output->>'text' ILIKE $%d OR tags::text ILIKE $%d)", n, n, n))
	}
	if filter.StartDate != nil {
		add("created_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("created_at <= $%d", *filter.EndDate)
	}

	whereSQL := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT count(*) FROM chats WHERE ` + whereSQL
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM chats WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		chatColumns, whereSQL, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := []Chat{}
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PGRepo) ToggleBookmark(ctx context.Context, userID, chatID string) (bool, error) {
	const query = `
UPDATE chats SET is_bookmarked = NOT is_bookmarked
WHERE id = $1 AND user_id = $2
RETURNING is_bookmarked`
	var bookmarked bool
	err := r.DB.QueryRowContext(ctx, query, chatID, userID).Scan(&bookmarked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return bookmarked, nil
}

func (r *PGRepo) SetTags(ctx context.Context, userID, chatID string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	const query = `UPDATE chats SET tags = $3 WHERE id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, chatID, userID, tagsJSON)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, userID, chatID string) error {
	const query = `DELETE FROM chats WHERE id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, chatID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) CountByTypeSince(ctx context.Context, userID string, since time.Time) (map[string]int, error) {
	const query = `
SELECT chat_type, count(*) FROM chats
WHERE user_id = $1 AND created_at >= $2
GROUP BY chat_type`
	rows, err := r.DB.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var chatType string
		var count int
		if err := rows.Scan(&chatType, &count); err != nil {
			return nil, err
		}
		counts[chatType] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChat(row rowScanner) (Chat, error) {
	var (
		chat      Chat
		sessionID sql.NullString
		input     []byte
		output    []byte
		metadata  []byte
		tags      []byte
	)
	err := row.Scan(
		&chat.ID,
		&chat.UserID,
		&sessionID,
		&chat.Type,
		&input,
		&output,
		&metadata,
		&tags,
		&chat.IsBookmarked,
		&chat.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Chat{}, ErrNotFound
		}
		return Chat{}, err
	}
	chat.SessionID = sessionID.String
	if len(input) > 0 {
		if err := json.Unmarshal(input, &chat.Input); err != nil {
			return Chat{}, fmt.Errorf("unmarshal input: %w", err)
		}
	}
	if len(output) > 0 {
		if err := json.Unmarshal(output, &chat.Output); err != nil {
			return Chat{}, fmt.Errorf("unmarshal output: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &chat.Metadata); err != nil {
			return Chat{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &chat.Tags); err != nil {
			return Chat{}, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	if chat.Tags == nil {
		chat.Tags = []string{}
	}
	return chat, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
