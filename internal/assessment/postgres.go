package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/onnwee/reeled/internal/db"
	"github.com/onnwee/reeled/internal/tracing"
)

// PostgresAssessmentRepository implements AssessmentRepository using PostgreSQL.
// Config is stored as JSONB.
type PostgresAssessmentRepository struct {
	db *sql.DB
}

// NewPostgresAssessmentRepository creates a new PostgresAssessmentRepository.
func NewPostgresAssessmentRepository(conn *sql.DB) *PostgresAssessmentRepository {
	return &PostgresAssessmentRepository{db: conn}
}

func (r *PostgresAssessmentRepository) Create(ctx context.Context, a *Assessment) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "assessments", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	if !a.Type.Valid() {
		return ErrUnknownType
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	config, err := json.Marshal(a.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment config: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO assessments (id, course_id, type, config)
		VALUES ($1, $2, $3, $4)
	`, a.ID, a.CourseID, string(a.Type), config)
	if db.IsForeignKeyViolation(err) {
		return ErrUnknownReference
	}
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*Assessment, error) {
	a := &Assessment{}
	var (
		typ    string
		config []byte
	)
	if err := row.Scan(&a.ID, &a.CourseID, &typ, &config); err != nil {
		return nil, err
	}
	a.Type = Type(typ)
	if err := json.Unmarshal(config, &a.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assessment config: %w", err)
	}
	return a, nil
}

func (r *PostgresAssessmentRepository) GetByID(ctx context.Context, id string) (a *Assessment, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "assessments", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	a, err = scanAssessment(r.db.QueryRowContext(ctx, `
		SELECT id, course_id, type, config FROM assessments WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssessmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return a, nil
}

func (r *PostgresAssessmentRepository) ListByCourse(ctx context.Context, courseID string) (list []*Assessment, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "assessments", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, course_id, type, config FROM assessments WHERE course_id = $1 ORDER BY id
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *PostgresAssessmentRepository) CreateSubmission(ctx context.Context, s *Submission) (err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "assessment_submissions", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO assessment_submissions (id, assessment_id, user_id, answer, score, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.ID, s.AssessmentID, s.UserID, s.Answer, s.Score, s.Feedback, s.CreatedAt)
	if db.IsForeignKeyViolation(err) {
		return ErrUnknownReference
	}
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

func (r *PostgresAssessmentRepository) ListSubmissions(ctx context.Context, assessmentID, userID string) (subs []*Submission, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "assessment_submissions", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, assessment_id, user_id, answer, score, feedback, created_at
		FROM assessment_submissions
		WHERE assessment_id = $1 AND user_id = $2
		ORDER BY created_at DESC
	`, assessmentID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s := &Submission{}
		if err := rows.Scan(&s.ID, &s.AssessmentID, &s.UserID, &s.Answer, &s.Score, &s.Feedback, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
