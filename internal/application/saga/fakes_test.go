package saga

// In-memory порты для тестов саг. Репозитории повторяют контракты
// хранилищ, внешние порты (solver, grader, уведомления) - скриптуемые.

import (
	"context"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/exam"
	"github.com/studygotchi/studygotchi-hub/internal/domain/notification"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/study"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
)

// ─────────────────────────────────────────────────────────────────────────────
// Pet repository
// ─────────────────────────────────────────────────────────────────────────────

type fakePetRepo struct {
	pets map[string]*pet.Pet // ключ - userID
}

func newFakePetRepo(pets ...*pet.Pet) *fakePetRepo {
	r := &fakePetRepo{pets: make(map[string]*pet.Pet)}
	for _, p := range pets {
		r.pets[p.UserID] = p.Clone()
	}
	return r
}

func (r *fakePetRepo) Create(_ context.Context, p *pet.Pet) error {
	if _, ok := r.pets[p.UserID]; ok {
		return shared.ErrPetAlreadyExists
	}
	r.pets[p.UserID] = p.Clone()
	return nil
}

func (r *fakePetRepo) GetByID(_ context.Context, id string) (*pet.Pet, error) {
	for _, p := range r.pets {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return nil, shared.ErrPetNotFound
}

func (r *fakePetRepo) GetByUserID(_ context.Context, userID string) (*pet.Pet, error) {
	p, ok := r.pets[userID]
	if !ok {
		return nil, shared.ErrPetNotFound
	}
	return p.Clone(), nil
}

func (r *fakePetRepo) Update(_ context.Context, p *pet.Pet) error {
	if _, ok := r.pets[p.UserID]; !ok {
		return shared.ErrPetNotFound
	}
	r.pets[p.UserID] = p.Clone()
	return nil
}

func (r *fakePetRepo) Replace(_ context.Context, userID string, fresh *pet.Pet) error {
	r.pets[userID] = fresh.Clone()
	return nil
}

func (r *fakePetRepo) Delete(_ context.Context, id string) error {
	for userID, p := range r.pets {
		if p.ID == id {
			delete(r.pets, userID)
			return nil
		}
	}
	return shared.ErrPetNotFound
}

func (r *fakePetRepo) GetAll(_ context.Context, _ pet.ListOptions) ([]*pet.Pet, error) {
	out := make([]*pet.Pet, 0, len(r.pets))
	for _, p := range r.pets {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (r *fakePetRepo) GetByIDs(_ context.Context, ids []string) ([]*pet.Pet, error) {
	var out []*pet.Pet
	for _, id := range ids {
		for _, p := range r.pets {
			if p.ID == id {
				out = append(out, p.Clone())
			}
		}
	}
	return out, nil
}

func (r *fakePetRepo) GetAlive(_ context.Context, _ pet.ListOptions) ([]*pet.Pet, error) {
	var out []*pet.Pet
	for _, p := range r.pets {
		if !p.IsDead {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *fakePetRepo) Count(_ context.Context) (int, error) { return len(r.pets), nil }

func (r *fakePetRepo) FindStale(_ context.Context, _ time.Duration) ([]*pet.Pet, error) {
	return nil, nil
}

func (r *fakePetRepo) FindByLevelRange(_ context.Context, _, _ pet.Level) ([]*pet.Pet, error) {
	return nil, nil
}

func (r *fakePetRepo) Exists(_ context.Context, id string) (bool, error) {
	for _, p := range r.pets {
		if p.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePetRepo) ExistsByUserID(_ context.Context, userID string) (bool, error) {
	_, ok := r.pets[userID]
	return ok, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// User repository / session tracker
// ─────────────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	users map[string]*user.User
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*user.User)}
	for _, u := range users {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u *user.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return shared.ErrNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, ids []string) ([]*user.User, error) {
	var out []*user.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) { return len(r.users), nil }

type fakeSessions struct {
	starts map[string]time.Time
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{starts: make(map[string]time.Time)}
}

func (s *fakeSessions) StartSession(_ context.Context, userID string, at time.Time) (time.Time, error) {
	if existing, ok := s.starts[userID]; ok {
		return existing, nil
	}
	s.starts[userID] = at
	return at, nil
}

func (s *fakeSessions) SessionStart(_ context.Context, userID string) (time.Time, error) {
	return s.starts[userID], nil
}

func (s *fakeSessions) EndSession(_ context.Context, userID string) error {
	delete(s.starts, userID)
	return nil
}

func (s *fakeSessions) Touch(_ context.Context, _ string) error { return nil }

func (s *fakeSessions) ActiveSessions(_ context.Context) ([]string, error) { return nil, nil }

func (s *fakeSessions) ActiveCount(_ context.Context) (int, error) { return len(s.starts), nil }

// ─────────────────────────────────────────────────────────────────────────────
// Study repository
// ─────────────────────────────────────────────────────────────────────────────

type fakeStudyRepo struct {
	logs []*study.Log
}

func (r *fakeStudyRepo) SaveLog(_ context.Context, log *study.Log) error {
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeStudyRepo) GetLog(_ context.Context, _ string) (*study.Log, error) {
	return nil, shared.ErrStudyLogNotFound
}

func (r *fakeStudyRepo) GetLogsByUser(_ context.Context, userID string, limit int) ([]*study.Log, error) {
	var out []*study.Log
	for i := len(r.logs) - 1; i >= 0; i-- {
		if r.logs[i].UserID == userID {
			out = append(out, r.logs[i])
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeStudyRepo) DeleteLog(_ context.Context, _ string) error { return nil }

func (r *fakeStudyRepo) CountByUser(_ context.Context, userID string) (int, error) {
	n := 0
	for _, l := range r.logs {
		if l.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeStudyRepo) GetOldestLog(_ context.Context, _ string) (*study.Log, error) {
	return nil, shared.ErrStudyLogNotFound
}

func (r *fakeStudyRepo) EvictOldest(_ context.Context, _ string, _ int) ([]*study.Log, error) {
	return nil, nil
}

func (r *fakeStudyRepo) GetLogsInRange(_ context.Context, _ string, _, _ time.Time) ([]*study.Log, error) {
	return nil, nil
}

func (r *fakeStudyRepo) CountSince(_ context.Context, _ string, _ time.Time) (int, error) {
	return 0, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Exam repository + solver/grader
// ─────────────────────────────────────────────────────────────────────────────

type fakeExamRepo struct {
	exams    map[int64]*exam.Exam
	results  []*exam.Result
	answered map[string]bool // ключ - examID:userID
	nextID   int64
}

func newFakeExamRepo(exams ...*exam.Exam) *fakeExamRepo {
	r := &fakeExamRepo{
		exams:    make(map[int64]*exam.Exam),
		answered: make(map[string]bool),
		nextID:   1,
	}
	for _, e := range exams {
		r.exams[e.ID] = e
	}
	return r
}

func attemptKey(examID int64, userID string) string {
	return fmt.Sprintf("%d:%s", examID, userID)
}

func (r *fakeExamRepo) CreateExam(_ context.Context, e *exam.Exam) error {
	e.ID = r.nextID
	r.nextID++
	r.exams[e.ID] = e
	return nil
}

func (r *fakeExamRepo) GetExam(_ context.Context, id int64) (*exam.Exam, error) {
	e, ok := r.exams[id]
	if !ok {
		return nil, shared.ErrExamNotFound
	}
	return e, nil
}

func (r *fakeExamRepo) GetActiveGlobal(_ context.Context, limit int) ([]*exam.Exam, error) {
	var out []*exam.Exam
	for _, e := range r.exams {
		if e.IsActive && e.IsGlobal() {
			out = append(out, e)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeExamRepo) GetActiveByRooms(_ context.Context, roomIDs []string, limit int) ([]*exam.Exam, error) {
	var out []*exam.Exam
	for _, e := range r.exams {
		if !e.IsActive {
			continue
		}
		for _, roomID := range roomIDs {
			if e.RoomID == roomID {
				out = append(out, e)
				break
			}
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeExamRepo) UpdateExam(_ context.Context, e *exam.Exam) error {
	r.exams[e.ID] = e
	return nil
}

func (r *fakeExamRepo) SaveResult(_ context.Context, result *exam.Result) error {
	result.ID = int64(len(r.results) + 1)
	r.results = append(r.results, result)
	r.answered[attemptKey(result.ExamID, result.UserID)] = true
	return nil
}

func (r *fakeExamRepo) GetResultsByUser(_ context.Context, userID string, limit int) ([]*exam.Result, error) {
	var out []*exam.Result
	for i := len(r.results) - 1; i >= 0; i-- {
		if r.results[i].UserID == userID {
			out = append(out, r.results[i])
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeExamRepo) GetResultsByExam(_ context.Context, examID int64) ([]*exam.Result, error) {
	var out []*exam.Result
	for _, res := range r.results {
		if res.ExamID == examID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeExamRepo) HasAnswered(_ context.Context, examID int64, userID string) (bool, error) {
	return r.answered[attemptKey(examID, userID)], nil
}

func (r *fakeExamRepo) CountCorrectSince(_ context.Context, _ string, _ time.Time) (int, error) {
	return 0, nil
}

type fakeSolver struct {
	answer     string
	err        error
	material   []string
	cheatSheet bool
}

func (s *fakeSolver) Solve(_ context.Context, material []string, _ string, cheatSheet bool, _ string) (string, error) {
	s.material = material
	s.cheatSheet = cheatSheet
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

type fakeGrader struct {
	grade exam.Grade
	err   error
}

func (g *fakeGrader) Grade(_ context.Context, _, _, _ string) (exam.Grade, error) {
	if g.err != nil {
		return exam.Grade{}, g.err
	}
	return g.grade, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Notifications, события, генератор ID
// ─────────────────────────────────────────────────────────────────────────────

type fakeNotificationSvc struct {
	scheduled []*notification.Notification
	err       error
}

func (s *fakeNotificationSvc) CreateNotification(_ context.Context, _ *notification.TriggerRule, _ *notification.TriggerContext) (*notification.Notification, error) {
	return nil, nil
}

func (s *fakeNotificationSvc) ScheduleNotification(_ context.Context, n *notification.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.scheduled = append(s.scheduled, n)
	return nil
}

func (s *fakeNotificationSvc) CancelNotification(_ context.Context, _ notification.NotificationID) error {
	return nil
}

func (s *fakeNotificationSvc) ProcessPendingNotifications(_ context.Context, _ int) (int, error) {
	return 0, nil
}

func (s *fakeNotificationSvc) ProcessExpiredNotifications(_ context.Context) (int, error) {
	return 0, nil
}

func (s *fakeNotificationSvc) RetryFailedNotifications(_ context.Context, _ int) (int, error) {
	return 0, nil
}

func (s *fakeNotificationSvc) EvaluateTriggers(_ context.Context, _ *notification.TriggerContext) ([]*notification.TriggerRule, error) {
	return nil, nil
}

type fakePublisher struct {
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) has(eventType shared.EventType) bool {
	for _, e := range p.events {
		if e.EventType() == eventType {
			return true
		}
	}
	return false
}

type fakeIDGenerator struct {
	n int
}

func (g *fakeIDGenerator) GenerateID() string {
	g.n++
	return fmt.Sprintf("id-%04d", g.n)
}
