package command

// In-memory реализации портов для тестов команд. Поведение повторяет
// контракты репозиториев: ошибки "не найдено", порядок "новые первыми",
// вытеснение старых заметок.

import (
	"context"
	"sort"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/chat"
	"github.com/studygotchi/studygotchi-hub/internal/domain/economy"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/study"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
)

// ─────────────────────────────────────────────────────────────────────────────
// Pet repository
// ─────────────────────────────────────────────────────────────────────────────

type fakePetRepo struct {
	pets map[string]*pet.Pet // ключ - userID, один питомец на пользователя
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

func (r *fakePetRepo) FindByLevelRange(_ context.Context, minLevel, maxLevel pet.Level) ([]*pet.Pet, error) {
	var out []*pet.Pet
	for _, p := range r.pets {
		if p.Level >= minLevel && p.Level <= maxLevel {
			out = append(out, p.Clone())
		}
	}
	return out, nil
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
// Session tracker / pet cache
// ─────────────────────────────────────────────────────────────────────────────

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

func (s *fakeSessions) ActiveSessions(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(s.starts))
	for id := range s.starts {
		out = append(out, id)
	}
	return out, nil
}

func (s *fakeSessions) ActiveCount(_ context.Context) (int, error) { return len(s.starts), nil }

type fakePetCache struct {
	invalidated []string
}

func (c *fakePetCache) Get(_ context.Context, _ string) (*pet.Pet, error) {
	return nil, shared.ErrNotFound
}

func (c *fakePetCache) Set(_ context.Context, _ *pet.Pet, _ time.Duration) error { return nil }

func (c *fakePetCache) GetByUserID(_ context.Context, _ string) (*pet.Pet, error) {
	return nil, shared.ErrNotFound
}

func (c *fakePetCache) SetByUserID(_ context.Context, _ *pet.Pet, _ time.Duration) error {
	return nil
}

func (c *fakePetCache) Invalidate(_ context.Context, petID string) error {
	c.invalidated = append(c.invalidated, petID)
	return nil
}

func (c *fakePetCache) InvalidateAll(_ context.Context) error { return nil }

// ─────────────────────────────────────────────────────────────────────────────
// Study repository
// ─────────────────────────────────────────────────────────────────────────────

type fakeStudyRepo struct {
	logs []*study.Log // порядок добавления = хронологический
}

func (r *fakeStudyRepo) SaveLog(_ context.Context, log *study.Log) error {
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeStudyRepo) GetLog(_ context.Context, id string) (*study.Log, error) {
	for _, l := range r.logs {
		if l.ID == id {
			return l, nil
		}
	}
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

func (r *fakeStudyRepo) DeleteLog(_ context.Context, id string) error {
	for i, l := range r.logs {
		if l.ID == id {
			r.logs = append(r.logs[:i], r.logs[i+1:]...)
			return nil
		}
	}
	return shared.ErrStudyLogNotFound
}

func (r *fakeStudyRepo) CountByUser(_ context.Context, userID string) (int, error) {
	n := 0
	for _, l := range r.logs {
		if l.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeStudyRepo) GetOldestLog(_ context.Context, userID string) (*study.Log, error) {
	for _, l := range r.logs {
		if l.UserID == userID {
			return l, nil
		}
	}
	return nil, shared.ErrStudyLogNotFound
}

func (r *fakeStudyRepo) EvictOldest(_ context.Context, userID string, keep int) ([]*study.Log, error) {
	var mine []int
	for i, l := range r.logs {
		if l.UserID == userID {
			mine = append(mine, i)
		}
	}
	if len(mine) <= keep {
		return nil, nil
	}

	drop := mine[:len(mine)-keep]
	evicted := make([]*study.Log, 0, len(drop))
	for _, i := range drop {
		evicted = append(evicted, r.logs[i])
	}

	sort.Sort(sort.Reverse(sort.IntSlice(drop)))
	for _, i := range drop {
		r.logs = append(r.logs[:i], r.logs[i+1:]...)
	}
	return evicted, nil
}

func (r *fakeStudyRepo) GetLogsInRange(_ context.Context, userID string, from, to time.Time) ([]*study.Log, error) {
	var out []*study.Log
	for i := len(r.logs) - 1; i >= 0; i-- {
		l := r.logs[i]
		if l.UserID == userID && !l.CreatedAt.Before(from) && !l.CreatedAt.After(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeStudyRepo) CountSince(_ context.Context, userID string, since time.Time) (int, error) {
	n := 0
	for _, l := range r.logs {
		if l.UserID == userID && !l.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// User repository
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

// ─────────────────────────────────────────────────────────────────────────────
// Chat: store + dialogue
// ─────────────────────────────────────────────────────────────────────────────

type fakeChatStore struct {
	sessions map[string]*chat.Session
	savedTTL time.Duration
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{sessions: make(map[string]*chat.Session)}
}

func (s *fakeChatStore) Get(_ context.Context, userID string) (*chat.Session, error) {
	session, ok := s.sessions[userID]
	if !ok {
		return nil, chat.ErrSessionNotFound
	}
	return session, nil
}

func (s *fakeChatStore) Save(_ context.Context, session *chat.Session, ttl time.Duration) error {
	s.sessions[session.UserID] = session
	s.savedTTL = ttl
	return nil
}

func (s *fakeChatStore) Delete(_ context.Context, userID string) error {
	delete(s.sessions, userID)
	return nil
}

type fakeDialogue struct {
	reply    string
	reaction string
	learned  string
	replyErr error

	replyCalls   int
	extractCalls int
}

func (d *fakeDialogue) Reply(_ context.Context, _ chat.ReplyRequest) (string, error) {
	d.replyCalls++
	if d.replyErr != nil {
		return "", d.replyErr
	}
	return d.reply, nil
}

func (d *fakeDialogue) React(_ context.Context, _ string) (string, error) {
	return d.reaction, nil
}

func (d *fakeDialogue) ExtractLearning(_ context.Context, _, _ string) (string, error) {
	d.extractCalls++
	return d.learned, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Cooldown registry
// ─────────────────────────────────────────────────────────────────────────────

type fakeCooldowns struct {
	marks   map[string]time.Time // ключ - petID + "|" + gameID
	cleared []string
}

func newFakeCooldowns() *fakeCooldowns {
	return &fakeCooldowns{marks: make(map[string]time.Time)}
}

func (c *fakeCooldowns) LastPlayed(_ context.Context, petID, gameID string) (time.Time, error) {
	return c.marks[petID+"|"+gameID], nil
}

func (c *fakeCooldowns) MarkPlayed(_ context.Context, petID, gameID string, at time.Time) error {
	c.marks[petID+"|"+gameID] = at
	return nil
}

func (c *fakeCooldowns) Clear(_ context.Context, petID string) error {
	c.cleared = append(c.cleared, petID)
	for key := range c.marks {
		if len(key) > len(petID) && key[:len(petID)+1] == petID+"|" {
			delete(c.marks, key)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Economy: orders + provider
// ─────────────────────────────────────────────────────────────────────────────

type fakePaymentRepo struct {
	orders map[string]*economy.Order
}

func newFakePaymentRepo(orders ...*economy.Order) *fakePaymentRepo {
	r := &fakePaymentRepo{orders: make(map[string]*economy.Order)}
	for _, o := range orders {
		cp := *o
		r.orders[o.OrderID] = &cp
	}
	return r
}

func (r *fakePaymentRepo) CreateOrder(_ context.Context, o *economy.Order) error {
	cp := *o
	r.orders[o.OrderID] = &cp
	return nil
}

func (r *fakePaymentRepo) GetOrder(_ context.Context, orderID string) (*economy.Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, economy.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakePaymentRepo) UpdateOrder(_ context.Context, o *economy.Order) error {
	if _, ok := r.orders[o.OrderID]; !ok {
		return economy.ErrOrderNotFound
	}
	cp := *o
	r.orders[o.OrderID] = &cp
	return nil
}

func (r *fakePaymentRepo) GetOrdersByUser(_ context.Context, userID string, limit int) ([]*economy.Order, error) {
	var out []*economy.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) FindStaleReady(_ context.Context, _ time.Duration) ([]*economy.Order, error) {
	return nil, nil
}

type fakeProvider struct {
	confirmation economy.Confirmation
	err          error
	calls        int
}

func (p *fakeProvider) Confirm(_ context.Context, _, _ string, _ int64) (economy.Confirmation, error) {
	p.calls++
	if p.err != nil {
		return economy.Confirmation{}, p.err
	}
	return p.confirmation, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Event publisher
// ─────────────────────────────────────────────────────────────────────────────

type fakePublisher struct {
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

// has возвращает true, если событие данного типа было опубликовано.
func (p *fakePublisher) has(eventType shared.EventType) bool {
	for _, e := range p.events {
		if e.EventType() == eventType {
			return true
		}
	}
	return false
}
