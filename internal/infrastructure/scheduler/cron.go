package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CronExpression - разобранное пятипольное cron-выражение
// (минута час день месяц день-недели). Каждое поле хранится
// битовой маской допустимых значений.
//
//	"0 21 * * *"  - каждый день в 21:00 (дайджест)
//	"*/10 * * * *" - каждые 10 минут
type CronExpression struct {
	raw     string
	minute  uint64 // биты 0-59
	hour    uint64 // биты 0-23
	day     uint64 // биты 1-31
	month   uint64 // биты 1-12
	weekday uint64 // биты 0-6, 0 = воскресенье
}

type cronFieldSpec struct {
	name string
	min  int
	max  int
}

var cronFields = [5]cronFieldSpec{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day", 1, 31},
	{"month", 1, 12},
	{"weekday", 0, 6},
}

// ParseCronExpression разбирает выражение. Поддерживаются
// *, */n, n, n-m, n-m/s и списки через запятую.
func ParseCronExpression(expr string) (*CronExpression, error) {
	parts := strings.Fields(expr)
	if len(parts) != len(cronFields) {
		return nil, fmt.Errorf("cron: expected %d fields, got %d in %q", len(cronFields), len(parts), expr)
	}

	ce := &CronExpression{raw: expr}
	masks := [5]*uint64{&ce.minute, &ce.hour, &ce.day, &ce.month, &ce.weekday}
	for i, spec := range cronFields {
		mask, err := parseCronField(parts[i], spec.min, spec.max)
		if err != nil {
			return nil, fmt.Errorf("cron: %s field: %w", spec.name, err)
		}
		*masks[i] = mask
	}
	return ce, nil
}

func parseCronField(field string, lo, hi int) (uint64, error) {
	var mask uint64
	for _, part := range strings.Split(field, ",") {
		part = strings.TrimSpace(part)
		step := 1
		if slash := strings.IndexByte(part, '/'); slash >= 0 {
			s, err := strconv.Atoi(part[slash+1:])
			if err != nil || s <= 0 {
				return 0, fmt.Errorf("bad step %q", part)
			}
			step, part = s, part[:slash]
		}

		start, end := lo, hi
		switch {
		case part == "*":
			// весь диапазон
		case strings.Contains(part, "-"):
			bounds := strings.SplitN(part, "-", 2)
			a, errA := strconv.Atoi(bounds[0])
			b, errB := strconv.Atoi(bounds[1])
			if errA != nil || errB != nil || a > b {
				return 0, fmt.Errorf("bad range %q", part)
			}
			start, end = a, b
		default:
			v, err := strconv.Atoi(part)
			if err != nil {
				return 0, fmt.Errorf("bad value %q", part)
			}
			start = v
			if step == 1 {
				end = v
			}
		}

		if start < lo || end > hi {
			return 0, fmt.Errorf("value out of range [%d-%d] in %q", lo, hi, part)
		}
		for v := start; v <= end; v += step {
			mask |= 1 << uint(v)
		}
	}
	if mask == 0 {
		return 0, fmt.Errorf("empty field %q", field)
	}
	return mask, nil
}

// String возвращает исходное выражение.
func (ce *CronExpression) String() string { return ce.raw }

func (ce *CronExpression) matches(t time.Time) bool {
	return ce.minute&(1<<uint(t.Minute())) != 0 &&
		ce.hour&(1<<uint(t.Hour())) != 0 &&
		ce.day&(1<<uint(t.Day())) != 0 &&
		ce.month&(1<<uint(t.Month())) != 0 &&
		ce.weekday&(1<<uint(t.Weekday())) != 0
}

// Next возвращает ближайший момент после after, подходящий под
// выражение. Перебор поминутный, горизонт - год.
func (ce *CronExpression) Next(after time.Time) time.Time {
	t := after.Truncate(time.Minute).Add(time.Minute)
	limit := after.AddDate(1, 0, 1)
	for t.Before(limit) {
		if ce.matches(t) {
			return t
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}
}

// ───────────────────────────────────────────────

// cronEntry - зарегистрированная пара выражение+задача.
type cronEntry struct {
	expr     *CronExpression
	job      Job
	nextRun  time.Time
	runCount int64
}

// CronScheduler запускает задачи по cron-выражениям. Для
// интервальных задач есть Scheduler; здесь живут только те,
// которым важно конкретное время суток.
type CronScheduler struct {
	mu       sync.Mutex
	entries  map[string]*cronEntry
	logger   *slog.Logger
	location *time.Location
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// CronOption настраивает CronScheduler.
type CronOption func(*CronScheduler)

// WithLocation задаёт таймзону, в которой трактуются выражения.
func WithLocation(loc *time.Location) CronOption {
	return func(cs *CronScheduler) { cs.location = loc }
}

// WithCronLogger задаёт логгер.
func WithCronLogger(logger *slog.Logger) CronOption {
	return func(cs *CronScheduler) { cs.logger = logger.With("component", "cron") }
}

// NewCronScheduler создаёт пустой планировщик.
func NewCronScheduler(opts ...CronOption) *CronScheduler {
	cs := &CronScheduler{
		entries:  make(map[string]*cronEntry),
		logger:   slog.Default(),
		location: time.Local,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(cs)
	}
	return cs
}

// AddJob регистрирует задачу. Имя должно быть уникальным.
func (cs *CronScheduler) AddJob(name, expr string, job Job) error {
	parsed, err := ParseCronExpression(expr)
	if err != nil {
		return err
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, dup := cs.entries[name]; dup {
		return fmt.Errorf("cron: job %q already registered", name)
	}
	next := parsed.Next(time.Now().In(cs.location))
	cs.entries[name] = &cronEntry{expr: parsed, job: job, nextRun: next}

	cs.logger.Info("cron job registered",
		"job", name,
		"expression", expr,
		"next_run", next.Format(time.RFC3339),
	)
	return nil
}

// Start запускает цикл планировщика.
func (cs *CronScheduler) Start(ctx context.Context) error {
	cs.mu.Lock()
	if cs.running {
		cs.mu.Unlock()
		return fmt.Errorf("cron: already running")
	}
	cs.running = true
	cs.stopCh = make(chan struct{})
	cs.mu.Unlock()

	cs.logger.Info("cron scheduler started", "timezone", cs.location.String())
	cs.wg.Add(1)
	go cs.loop(ctx)
	return nil
}

// Stop останавливает цикл и дожидается текущих запусков.
func (cs *CronScheduler) Stop() {
	cs.mu.Lock()
	if !cs.running {
		cs.mu.Unlock()
		return
	}
	cs.running = false
	close(cs.stopCh)
	cs.mu.Unlock()

	cs.wg.Wait()
	cs.logger.Info("cron scheduler stopped")
}

func (cs *CronScheduler) loop(ctx context.Context) {
	defer cs.wg.Done()

	// Тик выравнивается на начало минуты, чтобы "0 21 * * *"
	// срабатывало в 21:00:0x, а не где-то внутри минуты.
	timer := time.NewTimer(untilNextMinute(cs.now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cs.stopCh:
			return
		case <-timer.C:
			now := cs.now()
			cs.fireDue(ctx, now)
			timer.Reset(untilNextMinute(now))
		}
	}
}

func (cs *CronScheduler) now() time.Time {
	return time.Now().In(cs.location)
}

func untilNextMinute(now time.Time) time.Duration {
	return time.Until(now.Truncate(time.Minute).Add(time.Minute))
}

func (cs *CronScheduler) fireDue(ctx context.Context, now time.Time) {
	cs.mu.Lock()
	var due []string
	for name, e := range cs.entries {
		if !e.nextRun.After(now) {
			e.nextRun = e.expr.Next(now)
			e.runCount++
			due = append(due, name)
		}
	}
	cs.mu.Unlock()

	for _, name := range due {
		cs.mu.Lock()
		e := cs.entries[name]
		cs.mu.Unlock()

		cs.wg.Add(1)
		go func(name string, e *cronEntry) {
			defer cs.wg.Done()
			started := time.Now()
			if err := e.job.Run(ctx); err != nil {
				cs.logger.Error("cron job failed", "job", name, "duration", time.Since(started), "error", err)
				return
			}
			cs.logger.Info("cron job completed", "job", name, "duration", time.Since(started))
		}(name, e)
	}
}
