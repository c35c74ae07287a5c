package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGRepo persists documents in Postgres.
type PGRepo struct {
	DB *sql.DB
}

const docColumns = `
id, user_id, filename, original_name, mime_type, size_bytes, path, extracted_text,
summary, key_points, tags, page_count, language, processing_status, upload_date, last_processed`

// listColumns substitutes empty strings for the large text fields.
const listColumns = `
id, user_id, filename, original_name, mime_type, size_bytes, '' AS path, '' AS extracted_text,
summary, key_points, tags, page_count, language, processing_status, upload_date, last_processed`

func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	keyPoints, tags, err := marshalLists(doc)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO documents (id, user_id, filename, original_name, mime_type, size_bytes, path,
                       extracted_text, summary, key_points, tags, page_count, language,
                       processing_status, upload_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.UserID,
		doc.Filename,
		doc.OriginalName,
		doc.MimeType,
		doc.SizeBytes,
		doc.Path,
		doc.ExtractedText,
		nullableString(doc.Summary),
		keyPoints,
		tags,
		doc.PageCount,
		nullableString(doc.Language),
		doc.ProcessingStatus,
		doc.UploadDate,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID, docID string) (Document, error) {
	query := `SELECT ` + docColumns + ` FROM documents WHERE id = $1 AND user_id = $2 LIMIT 1`
	return scanDocument(r.DB.QueryRowContext(ctx, query, docID, userID))
}

func (r *PGRepo) List(ctx context.Context, userID string, filter ListFilter) ([]Document, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(original_name ILIKE $%d OR tags::text ILIKE $%d)", n, n))
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM documents WHERE `+whereSQL, args...).Scan(&total); err != nil {
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
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE %s ORDER BY upload_date DESC LIMIT $%d OFFSET $%d`,
		listColumns, whereSQL, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PGRepo) Update(ctx context.Context, doc Document) error {
	keyPoints, tags, err := marshalLists(doc)
	if err != nil {
		return err
	}
	const query = `
UPDATE documents SET
  summary = $3,
  key_points = $4,
  tags = $5,
  processing_status = $6,
  last_processed = $7
WHERE id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.UserID,
		nullableString(doc.Summary),
		keyPoints,
		tags,
		doc.ProcessingStatus,
		doc.LastProcessed,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, userID, docID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1 AND user_id = $2`, docID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM documents WHERE user_id = $1 AND upload_date >= $2`,
		userID, since).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc           Document
		summary       sql.NullString
		language      sql.NullString
		keyPoints     []byte
		tags          []byte
		lastProcessed sql.NullTime
	)
	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Filename,
		&doc.OriginalName,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.Path,
		&doc.ExtractedText,
		&summary,
		&keyPoints,
		&tags,
		&doc.PageCount,
		&language,
		&doc.ProcessingStatus,
		&doc.UploadDate,
		&lastProcessed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	doc.Summary = summary.String
	doc.Language = language.String
	if lastProcessed.Valid {
		t := lastProcessed.Time
		doc.LastProcessed = &t
	}
	if len(keyPoints) > 0 {
		if err := json.Unmarshal(keyPoints, &doc.KeyPoints); err != nil {
			return Document{}, fmt.Errorf("unmarshal key points: %w", err)
		}
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &doc.Tags); err != nil {
			return Document{}, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	return doc, nil
}

func marshalLists(doc Document) ([]byte, []byte, error) {
	keyPoints := doc.KeyPoints
	if keyPoints == nil {
		keyPoints = []string{}
	}
	kp, err := json.Marshal(keyPoints)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal key points: %w", err)
	}
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	tg, err := json.Marshal(tags)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal tags: %w", err)
	}
	return kp, tg, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
