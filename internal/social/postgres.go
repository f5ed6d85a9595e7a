package social

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/onnwee/reeled/internal/db"
	"github.com/onnwee/reeled/internal/tracing"
)

// PostgresSocialRepository implements SocialRepository using PostgreSQL.
type PostgresSocialRepository struct {
	db *sql.DB
}

// NewPostgresSocialRepository creates a new PostgresSocialRepository.
func NewPostgresSocialRepository(conn *sql.DB) *PostgresSocialRepository {
	return &PostgresSocialRepository{db: conn}
}

// edgeTable describes one edge table and its two key columns.
type edgeTable struct {
	name, from, to string
}

var (
	likesTable   = edgeTable{"likes", "user_id", "reel_id"}
	savesTable   = edgeTable{"saved_reels", "user_id", "reel_id"}
	followsTable = edgeTable{"follows", "follower_id", "following_id"}
)

// toggle deletes the edge if present, otherwise inserts it, in one transaction.
func (r *PostgresSocialRepository) toggle(ctx context.Context, t edgeTable, from, to string) (on bool, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, t.name, tracing.DBOperationUpdate)
	defer func() { endSpan(err) }()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM `+t.name+` WHERE `+t.from+` = $1 AND `+t.to+` = $2`, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s edge: %w", t.name, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO `+t.name+` (`+t.from+`, `+t.to+`) VALUES ($1, $2) ON CONFLICT DO NOTHING`, from, to)
		if db.IsForeignKeyViolation(err) {
			return false, ErrUnknownTarget
		}
		if err != nil {
			return false, fmt.Errorf("failed to insert %s edge: %w", t.name, err)
		}
		on = true
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit %s toggle: %w", t.name, err)
	}
	return on, nil
}

func (r *PostgresSocialRepository) exists(ctx context.Context, t edgeTable, from, to string) (found bool, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, t.name, tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+t.name+` WHERE `+t.from+` = $1 AND `+t.to+` = $2)`, from, to).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to check %s edge: %w", t.name, err)
	}
	return found, nil
}

func (r *PostgresSocialRepository) targets(ctx context.Context, t edgeTable, from string) (ids []string, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, t.name, tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+t.to+` FROM `+t.name+` WHERE `+t.from+` = $1 ORDER BY created_at, `+t.to, from)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.name, err)
	}
	defer rows.Close()

	ids = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.name, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresSocialRepository) ToggleLike(ctx context.Context, userID, reelID string) (bool, error) {
	return r.toggle(ctx, likesTable, userID, reelID)
}

func (r *PostgresSocialRepository) IsLiked(ctx context.Context, userID, reelID string) (bool, error) {
	return r.exists(ctx, likesTable, userID, reelID)
}

func (r *PostgresSocialRepository) LikedReelIDs(ctx context.Context, userID string) ([]string, error) {
	return r.targets(ctx, likesTable, userID)
}

func (r *PostgresSocialRepository) ToggleSave(ctx context.Context, userID, reelID string) (bool, error) {
	return r.toggle(ctx, savesTable, userID, reelID)
}

func (r *PostgresSocialRepository) ListSaved(ctx context.Context, userID string) (saves []Save, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, savesTable.name, tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, reel_id, created_at FROM saved_reels
		WHERE user_id = $1
		ORDER BY created_at DESC, reel_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved reels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s Save
		if err := rows.Scan(&s.UserID, &s.ReelID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan saved reel: %w", err)
		}
		saves = append(saves, s)
	}
	return saves, rows.Err()
}

func (r *PostgresSocialRepository) ToggleFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	return r.toggle(ctx, followsTable, followerID, followingID)
}

func (r *PostgresSocialRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	return r.exists(ctx, followsTable, followerID, followingID)
}

func (r *PostgresSocialRepository) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return r.targets(ctx, followsTable, userID)
}
