package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/onnwee/reeled/internal/db"
	"github.com/onnwee/reeled/internal/tracing"
)

// PostgresProgressRepository implements ProgressRepository using PostgreSQL.
type PostgresProgressRepository struct {
	db *sql.DB
}

// NewPostgresProgressRepository creates a new PostgresProgressRepository.
func NewPostgresProgressRepository(conn *sql.DB) *PostgresProgressRepository {
	return &PostgresProgressRepository{db: conn}
}

const progressColumns = `id, user_id, course_id, current_reel_index, reel_completion, completed_at, last_accessed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgress(row rowScanner) (*Progress, error) {
	p := &Progress{}
	var (
		completion  pq.Int64Array
		completedAt sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.CourseID, &p.CurrentReelIndex, &completion,
		&completedAt, &p.LastAccessedAt); err != nil {
		return nil, err
	}
	p.ReelCompletion = make([]int, len(completion))
	for i, v := range completion {
		p.ReelCompletion[i] = int(v)
	}
	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}
	return p, nil
}

func toInt64Array(v []int) pq.Int64Array {
	out := make(pq.Int64Array, len(v))
	for i, n := range v {
		out[i] = int64(n)
	}
	return out
}

// Record locks the user's row for the read-modify-write so concurrent reports
// cannot lose a completed index.
func (r *PostgresProgressRepository) Record(ctx context.Context, u Update) (p *Progress, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "progress", tracing.DBOperationUpdate)
	defer func() { endSpan(err) }()

	if err := validate(u); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO progress (id, user_id, course_id, current_reel_index, reel_completion, last_accessed_at)
		VALUES ($1, $2, $3, $4, '{}', $5)
		ON CONFLICT (user_id, course_id) DO NOTHING
	`, uuid.NewString(), u.UserID, u.CourseID, u.ReelIndex, now)
	if db.IsForeignKeyViolation(err) {
		return nil, ErrUnknownReference
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create progress: %w", err)
	}

	p, err = scanProgress(tx.QueryRowContext(ctx, `
		SELECT `+progressColumns+` FROM progress
		WHERE user_id = $1 AND course_id = $2
		FOR UPDATE
	`, u.UserID, u.CourseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("progress row vanished for %s/%s", u.UserID, u.CourseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	apply(p, u, now)

	_, err = tx.ExecContext(ctx, `
		UPDATE progress
		SET current_reel_index = $2, reel_completion = $3, completed_at = $4, last_accessed_at = $5
		WHERE id = $1
	`, p.ID, p.CurrentReelIndex, toInt64Array(p.ReelCompletion), p.CompletedAt, p.LastAccessedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit progress: %w", err)
	}
	return p, nil
}

func (r *PostgresProgressRepository) ListByUser(ctx context.Context, userID string) (records []*Progress, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "progress", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	return r.query(ctx, `
		SELECT `+progressColumns+` FROM progress
		WHERE user_id = $1
		ORDER BY last_accessed_at DESC
	`, userID)
}

func (r *PostgresProgressRepository) ListByCourse(ctx context.Context, courseID string) (records []*Progress, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "progress", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	return r.query(ctx, `
		SELECT `+progressColumns+` FROM progress
		WHERE course_id = $1
		ORDER BY last_accessed_at DESC
	`, courseID)
}

func (r *PostgresProgressRepository) query(ctx context.Context, query string, arg string) ([]*Progress, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var records []*Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		records = append(records, p)
	}
	return records, rows.Err()
}
