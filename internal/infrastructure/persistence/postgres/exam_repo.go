package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/exam"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXAM REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ExamRepository implements exam.Repository for PostgreSQL.
type ExamRepository struct {
	conn *Connection
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(conn *Connection) *ExamRepository {
	return &ExamRepository{conn: conn}
}

const examColumns = "id, COALESCE(room_id::text, ''), author_id, question, model_answer, is_active, created_at"

// CreateExam persists a new exam and assigns its serial ID.
func (r *ExamRepository) CreateExam(ctx context.Context, e *exam.Exam) error {
	query := `
		INSERT INTO exams (room_id, author_id, question, model_answer, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var roomID *string
	if e.RoomID != "" {
		roomID = &e.RoomID
	}

	err := r.conn.QueryRow(ctx, query,
		roomID, e.AuthorID, e.Question, e.ModelAnswer, e.IsActive, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}

	return nil
}

// GetExam returns an exam by ID.
func (r *ExamRepository) GetExam(ctx context.Context, id int64) (*exam.Exam, error) {
	query := fmt.Sprintf("SELECT %s FROM exams WHERE id = $1", examColumns)
	row := r.conn.QueryRow(ctx, query, id)
	return r.scanExam(row)
}

// GetActiveGlobal returns active exams not bound to any classroom, newest first.
func (r *ExamRepository) GetActiveGlobal(ctx context.Context, limit int) ([]*exam.Exam, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM exams
		WHERE is_active = TRUE AND room_id IS NULL
		ORDER BY created_at DESC
		LIMIT $1
	`, examColumns)

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query global exams: %w", err)
	}
	defer rows.Close()

	return r.scanExams(rows)
}

// GetActiveByRooms returns active exams bound to any of the given classrooms.
func (r *ExamRepository) GetActiveByRooms(ctx context.Context, roomIDs []string, limit int) ([]*exam.Exam, error) {
	if len(roomIDs) == 0 {
		return []*exam.Exam{}, nil
	}

	placeholders := make([]string, len(roomIDs))
	args := make([]interface{}, 0, len(roomIDs)+1)
	for i, id := range roomIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s FROM exams
		WHERE is_active = TRUE AND room_id::text IN (%s)
		ORDER BY created_at DESC
		LIMIT $%d
	`, examColumns, strings.Join(placeholders, ", "), len(roomIDs)+1)

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query room exams: %w", err)
	}
	defer rows.Close()

	return r.scanExams(rows)
}

// UpdateExam persists exam state changes (deactivation).
func (r *ExamRepository) UpdateExam(ctx context.Context, e *exam.Exam) error {
	query := `
		UPDATE exams SET question = $1, model_answer = $2, is_active = $3
		WHERE id = $4
	`

	result, err := r.conn.Exec(ctx, query, e.Question, e.ModelAnswer, e.IsActive, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrExamNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Results
// ─────────────────────────────────────────────────────────────────────────────

// SaveResult persists an exam result and assigns its serial ID.
func (r *ExamRepository) SaveResult(ctx context.Context, res *exam.Result) error {
	query := `
		INSERT INTO exam_results (exam_id, user_id, pet_answer, is_correct, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.conn.QueryRow(ctx, query,
		res.ExamID, res.UserID, res.PetAnswer, res.IsCorrect, res.Score, res.CreatedAt,
	).Scan(&res.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return exam.ErrAlreadyAnswered
		}
		return fmt.Errorf("failed to save exam result: %w", err)
	}

	return nil
}

// GetResultsByUser returns a user's exam results, newest first.
func (r *ExamRepository) GetResultsByUser(ctx context.Context, userID string, limit int) ([]*exam.Result, error) {
	query := `
		SELECT id, exam_id, user_id, pet_answer, is_correct, score, created_at
		FROM exam_results
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query exam results: %w", err)
	}
	defer rows.Close()

	return r.scanResults(rows)
}

// GetResultsByExam returns all results for an exam.
func (r *ExamRepository) GetResultsByExam(ctx context.Context, examID int64) ([]*exam.Result, error) {
	query := `
		SELECT id, exam_id, user_id, pet_answer, is_correct, score, created_at
		FROM exam_results
		WHERE exam_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.conn.Query(ctx, query, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results by exam: %w", err)
	}
	defer rows.Close()

	return r.scanResults(rows)
}

// HasAnswered checks whether the user already answered the exam.
func (r *ExamRepository) HasAnswered(ctx context.Context, examID int64, userID string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM exam_results WHERE exam_id = $1 AND user_id = $2)",
		examID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check exam attempt: %w", err)
	}
	return exists, nil
}

// CountCorrectSince returns the number of correct answers since the given time.
func (r *ExamRepository) CountCorrectSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM exam_results WHERE user_id = $1 AND is_correct = TRUE AND created_at >= $2",
		userID, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count correct answers: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *ExamRepository) scanExam(row pgx.Row) (*exam.Exam, error) {
	var e exam.Exam
	err := row.Scan(&e.ID, &e.RoomID, &e.AuthorID, &e.Question, &e.ModelAnswer, &e.IsActive, &e.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to scan exam: %w", err)
	}
	return &e, nil
}

func (r *ExamRepository) scanExams(rows pgx.Rows) ([]*exam.Exam, error) {
	exams := make([]*exam.Exam, 0)
	for rows.Next() {
		e, err := r.scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

func (r *ExamRepository) scanResults(rows pgx.Rows) ([]*exam.Result, error) {
	results := make([]*exam.Result, 0)
	for rows.Next() {
		var res exam.Result
		err := rows.Scan(&res.ID, &res.ExamID, &res.UserID, &res.PetAnswer, &res.IsCorrect, &res.Score, &res.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exam result: %w", err)
		}
		results = append(results, &res)
	}
	return results, rows.Err()
}
