package comment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/reeled/internal/tracing"
)

// PostgresCommentRepository implements CommentRepository using PostgreSQL.
type PostgresCommentRepository struct {
	db *sql.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository.
func NewPostgresCommentRepository(db *sql.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) Create(ctx context.Context, c *Comment) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "comments", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO comments (id, user_id, reel_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.UserID, c.ReelID, c.Text, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (r *PostgresCommentRepository) ListByReel(ctx context.Context, reelID string) (comments []*Comment, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "comments", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, reel_id, text, created_at
		FROM comments
		WHERE reel_id = $1
		ORDER BY created_at DESC, id
	`, reelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments = []*Comment{}
	for rows.Next() {
		c := &Comment{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.ReelID, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
