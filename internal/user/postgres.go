package user

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

// PostgresUserRepository implements UserRepository using PostgreSQL.
type PostgresUserRepository struct {
	db *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository.
func NewPostgresUserRepository(conn *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: conn}
}

const userColumns = `id, email, username, name, bio, avatar, is_creator, followers, following, reputation, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	u := &User{}
	var reputation sql.NullFloat64
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Name, &u.Bio, &u.Avatar,
		&u.IsCreator, &u.Followers, &u.Following, &reputation, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if reputation.Valid {
		u.Reputation = &reputation.Float64
	}
	return u, nil
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *User) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "users", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO users (id, email, username, name, bio, avatar, is_creator, followers, following, reputation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.db.ExecContext(ctx, query,
		u.ID, u.Email, u.Username, u.Name, u.Bio, u.Avatar,
		u.IsCreator, u.Followers, u.Following, u.Reputation, u.CreatedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateUser
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (u *User, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "users", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	u, err = scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (u *User, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "users", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	u, err = scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByIDs(ctx context.Context, ids []string) (out map[string]*User, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "users", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	out = make(map[string]*User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

func (r *PostgresUserRepository) Search(ctx context.Context, query string, limit int) (users []*User, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "users", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(name) LIKE $1 OR LOWER(username) LIKE $1 OR LOWER(bio) LIKE $1
		ORDER BY username
		LIMIT $2
	`, pattern, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PostgresUserRepository) AdjustFollowCounts(ctx context.Context, followerID, followingID string, delta int) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "users", tracing.DBOperationUpdate)
	defer func() { endSpan(err) }()

	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			following = CASE WHEN id = $1 THEN GREATEST(following + $3, 0) ELSE following END,
			followers = CASE WHEN id = $2 THEN GREATEST(followers + $3, 0) ELSE followers END
		WHERE id IN ($1, $2)
	`, followerID, followingID, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust follow counts: %w", err)
	}
	if n, _ := res.RowsAffected(); n < 2 {
		return ErrUserNotFound
	}
	return nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
