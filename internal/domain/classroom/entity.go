// Package classroom содержит доменную модель классов: учитель создаёт
// класс, ученики вступают по шестизначному коду, экзамены учителя
// видны только участникам его класса.
package classroom

import (
	"errors"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// codeAlphabet - алфавит кода приглашения. Без строчных букв:
// код диктуют вслух и вводят с телефона.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength - длина кода приглашения.
const CodeLength = 6

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// Code - код приглашения в класс.
type Code string

// IsValid проверяет формат кода.
func (c Code) IsValid() bool {
	return codePattern.MatchString(string(c))
}

// Normalize приводит пользовательский ввод к каноничному виду.
func Normalize(raw string) Code {
	return Code(strings.ToUpper(strings.TrimSpace(raw)))
}

// GenerateCode создаёт случайный код приглашения.
func GenerateCode(r *rand.Rand) Code {
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = codeAlphabet[r.Intn(len(codeAlphabet))]
	}
	return Code(b)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidName - некорректное имя класса.
	ErrInvalidName = errors.New("classroom: name must be 1-50 chars")

	// ErrInvalidTeacherID - некорректный идентификатор учителя.
	ErrInvalidTeacherID = errors.New("classroom: invalid teacher ID")

	// ErrInvalidCode - некорректный код приглашения.
	ErrInvalidCode = errors.New("classroom: invalid join code")

	// ErrNotFound - класс не найден.
	ErrNotFound = errors.New("classroom: not found")

	// ErrAlreadyMember - пользователь уже в классе.
	ErrAlreadyMember = errors.New("classroom: user is already a member")

	// ErrNotTeacher - операция доступна только учителю класса.
	ErrNotTeacher = errors.New("classroom: operation requires the owning teacher")
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Classroom - класс, созданный учителем.
type Classroom struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// Name - название класса.
	Name string

	// TeacherID - владелец класса.
	TeacherID string

	// Code - код приглашения.
	Code Code

	// CreatedAt - время создания.
	CreatedAt time.Time
}

// NewClassroom создаёт класс с проверкой имени и кода.
func NewClassroom(id, name, teacherID string, code Code, at time.Time) (*Classroom, error) {
	if id == "" {
		return nil, errors.New("classroom: id is required")
	}
	if teacherID == "" {
		return nil, ErrInvalidTeacherID
	}

	name = strings.TrimSpace(name)
	if len([]rune(name)) == 0 || len([]rune(name)) > 50 {
		return nil, ErrInvalidName
	}
	if !code.IsValid() {
		return nil, ErrInvalidCode
	}

	return &Classroom{
		ID:        id,
		Name:      name,
		TeacherID: teacherID,
		Code:      code,
		CreatedAt: at,
	}, nil
}

// OwnedBy проверяет, что класс принадлежит учителю.
func (c *Classroom) OwnedBy(teacherID string) bool {
	return c.TeacherID == teacherID
}

// Membership - участие ученика в классе.
type Membership struct {
	ClassroomID string
	UserID      string
	JoinedAt    time.Time
}

// NewMembership создаёт запись об участии.
func NewMembership(classroomID, userID string, at time.Time) (*Membership, error) {
	if classroomID == "" {
		return nil, ErrNotFound
	}
	if userID == "" {
		return nil, errors.New("classroom: invalid user ID")
	}
	return &Membership{
		ClassroomID: classroomID,
		UserID:      userID,
		JoinedAt:    at,
	}, nil
}
