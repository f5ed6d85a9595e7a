package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/onnwee/reeled/internal/db"
	"github.com/onnwee/reeled/internal/tracing"
)

// PostgresCourseRepository implements CourseRepository using PostgreSQL.
type PostgresCourseRepository struct {
	db *sql.DB
}

// NewPostgresCourseRepository creates a new PostgresCourseRepository.
func NewPostgresCourseRepository(conn *sql.DB) *PostgresCourseRepository {
	return &PostgresCourseRepository{db: conn}
}

const (
	courseColumns = `id, creator_id, title, description, price, tags, visibility, created_at`
	reelColumns   = `id, course_id, idx, title, media_url, micro_action, duration, likes_count, views, created_at`
)

func (r *PostgresCourseRepository) Create(ctx context.Context, c *Course) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "courses", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	if err := prepare(c, uuid.NewString, time.Now().UTC()); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO courses (`+courseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.CreatorID, c.Title, c.Description, c.Price, c.Tags, string(c.Visibility), c.CreatedAt)
	if db.IsForeignKeyViolation(err) {
		return ErrCreatorNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to insert course: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reels (`+reelColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare reel insert: %w", err)
	}
	defer stmt.Close()

	for _, reel := range c.Reels {
		if _, err := stmt.ExecContext(ctx, reel.ID, reel.CourseID, reel.Index, reel.Title, reel.MediaURL,
			reel.MicroAction, reel.Duration, reel.LikesCount, reel.Views, reel.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert reel %d: %w", reel.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit course: %w", err)
	}
	return nil
}

func scanCourse(row interface{ Scan(...any) error }) (*Course, error) {
	c := &Course{}
	var visibility string
	if err := row.Scan(&c.ID, &c.CreatorID, &c.Title, &c.Description, &c.Price, &c.Tags, &visibility, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Visibility = Visibility(visibility)
	return c, nil
}

func scanReel(row interface{ Scan(...any) error }) (Reel, error) {
	var reel Reel
	err := row.Scan(&reel.ID, &reel.CourseID, &reel.Index, &reel.Title, &reel.MediaURL,
		&reel.MicroAction, &reel.Duration, &reel.LikesCount, &reel.Views, &reel.CreatedAt)
	return reel, err
}

func (r *PostgresCourseRepository) GetByID(ctx context.Context, id string) (c *Course, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "courses", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	c, err = scanCourse(r.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if err := r.attachReels(ctx, []*Course{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// listWhere runs a course query and attaches reels ordered by index.
func (r *PostgresCourseRepository) listWhere(ctx context.Context, query string, args ...any) (courses []*Course, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "courses", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}

	if err := r.attachReels(ctx, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *PostgresCourseRepository) attachReels(ctx context.Context, courses []*Course) error {
	if len(courses) == 0 {
		return nil
	}
	byID := make(map[string]*Course, len(courses))
	ids := make([]string, len(courses))
	for i, c := range courses {
		byID[c.ID] = c
		ids[i] = c.ID
		c.Reels = []Reel{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reelColumns+` FROM reels
		WHERE course_id = ANY($1)
		ORDER BY course_id, idx
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load reels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		reel, err := scanReel(rows)
		if err != nil {
			return fmt.Errorf("failed to scan reel: %w", err)
		}
		c := byID[reel.CourseID]
		c.Reels = append(c.Reels, reel)
	}
	return rows.Err()
}

func (r *PostgresCourseRepository) List(ctx context.Context) ([]*Course, error) {
	return r.listWhere(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at DESC, id`)
}

func (r *PostgresCourseRepository) ListPublic(ctx context.Context) ([]*Course, error) {
	return r.listWhere(ctx, `SELECT `+courseColumns+` FROM courses WHERE visibility = $1 ORDER BY created_at, id`,
		string(VisibilityPublic))
}

func (r *PostgresCourseRepository) ListByCreator(ctx context.Context, creatorID string) ([]*Course, error) {
	return r.listWhere(ctx, `SELECT `+courseColumns+` FROM courses WHERE creator_id = $1 ORDER BY created_at DESC, id`,
		creatorID)
}

func (r *PostgresCourseRepository) Search(ctx context.Context, query string, limit int) ([]*Course, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	return r.listWhere(ctx, `
		SELECT `+courseColumns+` FROM courses
		WHERE visibility = $1
		  AND (LOWER(title) LIKE $2 OR LOWER(description) LIKE $2 OR LOWER(tags) LIKE $2)
		ORDER BY created_at, id
		LIMIT $3
	`, string(VisibilityPublic), pattern, clampLimit(limit))
}

func (r *PostgresCourseRepository) GetReel(ctx context.Context, reelID string) (reel *Reel, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "reels", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	found, err := scanReel(r.db.QueryRowContext(ctx, `SELECT `+reelColumns+` FROM reels WHERE id = $1`, reelID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reel: %w", err)
	}
	return &found, nil
}

func (r *PostgresCourseRepository) AdjustReelLikes(ctx context.Context, reelID string, delta int) error {
	return r.updateReel(ctx, `UPDATE reels SET likes_count = GREATEST(likes_count + $2, 0) WHERE id = $1`, reelID, delta)
}

func (r *PostgresCourseRepository) IncrementReelViews(ctx context.Context, reelID string) error {
	return r.updateReel(ctx, `UPDATE reels SET views = views + 1 WHERE id = $1`, reelID)
}

func (r *PostgresCourseRepository) updateReel(ctx context.Context, query string, args ...any) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "reels", tracing.DBOperationUpdate)
	defer func() { endSpan(err) }()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update reel: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReelNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
