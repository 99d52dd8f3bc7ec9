package postgres

import (
	"context"
	"fmt"

	"github.com/studygotchi/studygotchi-hub/internal/domain/classroom"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLASSROOM REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ClassroomRepository implements classroom.Repository for PostgreSQL.
type ClassroomRepository struct {
	conn *Connection
}

// NewClassroomRepository creates a new ClassroomRepository.
func NewClassroomRepository(conn *Connection) *ClassroomRepository {
	return &ClassroomRepository{conn: conn}
}

const classroomColumns = "id, name, teacher_id, code, created_at"

// Create creates a new classroom.
func (r *ClassroomRepository) Create(ctx context.Context, c *classroom.Classroom) error {
	query := `
		INSERT INTO classrooms (id, name, teacher_id, code, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.Exec(ctx, query,
		c.ID, c.Name, c.TeacherID, string(c.Code), c.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			// Join-code collision, the caller generates a new code and retries.
			return fmt.Errorf("classroom code taken: %w", shared.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create classroom: %w", err)
	}

	return nil
}

// GetByID returns a classroom by ID.
func (r *ClassroomRepository) GetByID(ctx context.Context, id string) (*classroom.Classroom, error) {
	query := fmt.Sprintf("SELECT %s FROM classrooms WHERE id = $1", classroomColumns)
	row := r.conn.QueryRow(ctx, query, id)
	return r.scanClassroom(row)
}

// GetByCode returns a classroom by join code.
func (r *ClassroomRepository) GetByCode(ctx context.Context, code classroom.Code) (*classroom.Classroom, error) {
	query := fmt.Sprintf("SELECT %s FROM classrooms WHERE code = $1", classroomColumns)
	row := r.conn.QueryRow(ctx, query, string(code))
	return r.scanClassroom(row)
}

// GetByTeacher returns the classrooms a teacher owns.
func (r *ClassroomRepository) GetByTeacher(ctx context.Context, teacherID string) ([]*classroom.Classroom, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM classrooms
		WHERE teacher_id = $1
		ORDER BY created_at DESC
	`, classroomColumns)

	rows, err := r.conn.Query(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to query classrooms by teacher: %w", err)
	}
	defer rows.Close()

	return r.scanClassrooms(rows)
}

// Delete deletes a classroom along with its memberships.
func (r *ClassroomRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM classrooms WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete classroom: %w", err)
	}
	if result.RowsAffected() == 0 {
		return classroom.ErrNotFound
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Membership
// ─────────────────────────────────────────────────────────────────────────────

// AddMember adds a user to a classroom.
func (r *ClassroomRepository) AddMember(ctx context.Context, m *classroom.Membership) error {
	query := `
		INSERT INTO classroom_members (classroom_id, user_id, joined_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.conn.Exec(ctx, query, m.ClassroomID, m.UserID, m.JoinedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return classroom.ErrAlreadyMember
		}
		if IsForeignKeyViolation(err) {
			return classroom.ErrNotFound
		}
		return fmt.Errorf("failed to add classroom member: %w", err)
	}

	return nil
}

// RemoveMember removes a user from a classroom.
func (r *ClassroomRepository) RemoveMember(ctx context.Context, classroomID, userID string) error {
	result, err := r.conn.Exec(ctx,
		"DELETE FROM classroom_members WHERE classroom_id = $1 AND user_id = $2",
		classroomID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove classroom member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return classroom.ErrNotFound
	}
	return nil
}

// GetMembers returns the memberships of a classroom.
func (r *ClassroomRepository) GetMembers(ctx context.Context, classroomID string) ([]*classroom.Membership, error) {
	query := `
		SELECT classroom_id, user_id, joined_at
		FROM classroom_members
		WHERE classroom_id = $1
		ORDER BY joined_at ASC
	`

	rows, err := r.conn.Query(ctx, query, classroomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query classroom members: %w", err)
	}
	defer rows.Close()

	return r.scanMemberships(rows)
}

// GetMemberships returns the classrooms a user belongs to.
func (r *ClassroomRepository) GetMemberships(ctx context.Context, userID string) ([]*classroom.Membership, error) {
	query := `
		SELECT classroom_id, user_id, joined_at
		FROM classroom_members
		WHERE user_id = $1
		ORDER BY joined_at ASC
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	return r.scanMemberships(rows)
}

// IsMember checks if a user belongs to a classroom.
func (r *ClassroomRepository) IsMember(ctx context.Context, classroomID, userID string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM classroom_members WHERE classroom_id = $1 AND user_id = $2)",
		classroomID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

// CountMembers returns the number of members in a classroom.
func (r *ClassroomRepository) CountMembers(ctx context.Context, classroomID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM classroom_members WHERE classroom_id = $1",
		classroomID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count classroom members: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *ClassroomRepository) scanClassroom(row pgx.Row) (*classroom.Classroom, error) {
	var (
		c    classroom.Classroom
		code string
	)

	err := row.Scan(&c.ID, &c.Name, &c.TeacherID, &code, &c.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, classroom.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan classroom: %w", err)
	}

	c.Code = classroom.Code(code)
	return &c, nil
}

func (r *ClassroomRepository) scanClassrooms(rows pgx.Rows) ([]*classroom.Classroom, error) {
	classrooms := make([]*classroom.Classroom, 0)
	for rows.Next() {
		c, err := r.scanClassroom(rows)
		if err != nil {
			return nil, err
		}
		classrooms = append(classrooms, c)
	}
	return classrooms, rows.Err()
}

func (r *ClassroomRepository) scanMemberships(rows pgx.Rows) ([]*classroom.Membership, error) {
	memberships := make([]*classroom.Membership, 0)
	for rows.Next() {
		var m classroom.Membership
		if err := rows.Scan(&m.ClassroomID, &m.UserID, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, &m)
	}
	return memberships, rows.Err()
}
