package story

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/onnwee/reeled/internal/tracing"
)

// PostgresStoryRepository implements StoryRepository using PostgreSQL.
type PostgresStoryRepository struct {
	db *sql.DB
}

// NewPostgresStoryRepository creates a new PostgresStoryRepository.
func NewPostgresStoryRepository(db *sql.DB) *PostgresStoryRepository {
	return &PostgresStoryRepository{db: db}
}

func (r *PostgresStoryRepository) Create(ctx context.Context, s *Story) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "stories", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO stories (id, user_id, media_url, media_type, text, link, views, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, s.ID, s.UserID, s.MediaURL, s.MediaType, s.Text, s.Link, s.Views, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert story: %w", err)
	}
	return nil
}

func (r *PostgresStoryRepository) ListActive(ctx context.Context, userIDs []string, now time.Time) (stories []*Story, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "stories", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, media_url, media_type, text, link, views, created_at, expires_at
		FROM stories
		WHERE user_id = ANY($1) AND expires_at > $2
		ORDER BY created_at DESC, id
	`, pq.Array(userIDs), now)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s := &Story{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.MediaURL, &s.MediaType, &s.Text, &s.Link,
			&s.Views, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}

func (r *PostgresStoryRepository) IncrementViews(ctx context.Context, id string) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "stories", tracing.DBOperationUpdate)
	defer func() { endSpan(err) }()

	res, err := r.db.ExecContext(ctx, `UPDATE stories SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment story views: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStoryNotFound
	}
	return nil
}

func (r *PostgresStoryRepository) DeleteExpired(ctx context.Context, now time.Time) (deleted int64, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "stories", tracing.DBOperationDelete)
	defer func() { endSpan(err) }()

	res, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired stories: %w", err)
	}
	return res.RowsAffected()
}
