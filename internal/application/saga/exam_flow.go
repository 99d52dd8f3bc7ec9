package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/exam"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/study"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXAM FLOW SAGA
// Complex business process: a pet takes an exam
// Flow: Validate → Load Pet → Check Not Answered → Gather Material →
//
//	Use Cheat Sheet → Solve → Grade → Apply Rewards → Save Result →
//	Publish Events
//
// Philosophy: the pet answers with what the player taught it. An empty
// notebook means a clueless pet - that feedback loop IS the game, so
// the solver gets only the recent study notes, never the question's
// model answer.
// ══════════════════════════════════════════════════════════════════════════════

// Saga-level errors.
var (
	// ErrAlreadyAnswered - the user already took this exam.
	ErrAlreadyAnswered = errors.New("exam_flow: exam already answered")

	// ErrExamClosed - the exam was deactivated.
	ErrExamClosed = errors.New("exam_flow: exam is no longer active")
)

// ExamFlowInput contains all data required to take an exam.
type ExamFlowInput struct {
	// UserID - the pet owner taking the exam.
	UserID string

	// UserName - display name, handed to the solver for flavor.
	UserName string

	// ExamID - the exam being taken.
	ExamID int64

	// UseCheatSheet - spend a cheat sheet so the solver may fall back
	// on general knowledge beyond the pet's notes.
	UseCheatSheet bool
}

// Validate checks if the input is valid.
func (i ExamFlowInput) Validate() error {
	if i.UserID == "" {
		return errors.New("exam_flow: user ID is required")
	}
	if i.ExamID <= 0 {
		return errors.New("exam_flow: exam ID must be positive")
	}
	return nil
}

// ExamFlowResult contains the result of a taken exam.
type ExamFlowResult struct {
	// Result - the persisted graded attempt.
	Result *exam.Result

	// Explanation - the grader's reasoning, shown to the player.
	Explanation string

	// PetAnswer - what the pet answered.
	PetAnswer string

	// CheatSheetUsed - whether a cheat sheet was consumed.
	CheatSheetUsed bool

	// LeveledUp - whether the rewards pushed the pet over a level.
	LeveledUp bool

	// NewLevel - pet level after rewards.
	NewLevel pet.Level

	// CompletedAt - when the attempt finished.
	CompletedAt time.Time
}

// ExamFlowStep represents a step in the exam process.
type ExamFlowStep string

const (
	StepExamValidate     ExamFlowStep = "validate_input"
	StepExamLoadPet      ExamFlowStep = "load_pet"
	StepExamLoadExam     ExamFlowStep = "load_exam"
	StepExamCheckAnswer  ExamFlowStep = "check_not_answered"
	StepExamMaterial     ExamFlowStep = "gather_material"
	StepExamCheatSheet   ExamFlowStep = "use_cheat_sheet"
	StepExamSolve        ExamFlowStep = "solve"
	StepExamGrade        ExamFlowStep = "grade"
	StepExamApplyRewards ExamFlowStep = "apply_rewards"
	StepExamSaveResult   ExamFlowStep = "save_result"
	StepExamPublish      ExamFlowStep = "publish_events"
	StepExamComplete     ExamFlowStep = "complete"
)

// ExamFlowState tracks the current state of the exam saga.
type ExamFlowState struct {
	CurrentStep    ExamFlowStep
	Input          ExamFlowInput
	Pet            *pet.Pet
	Owner          *user.User
	Exam           *exam.Exam
	Material       []string
	CheatSheetUsed bool
	PetAnswer      string
	Grade          exam.Grade
	Result         *exam.Result
	LeveledUp      bool
	StartedAt      time.Time
	Error          error
	FailedStep     ExamFlowStep
}

// ══════════════════════════════════════════════════════════════════════════════
// EXAM FLOW SAGA IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ExamFlowSaga orchestrates one exam attempt end to end.
type ExamFlowSaga struct {
	petRepo      pet.Repository
	userRepo     user.Repository
	examRepo     exam.Repository
	studyRepo    study.Repository
	sessions     pet.SessionTracker
	solver       exam.Solver
	grader       exam.Grader
	eventBus     shared.EventPublisher
	solveTimeout time.Duration
	gradeTimeout time.Duration
}

// ExamFlowSagaConfig contains configuration for the exam saga.
type ExamFlowSagaConfig struct {
	SolveTimeout time.Duration
	GradeTimeout time.Duration
}

// DefaultExamFlowConfig returns default configuration.
func DefaultExamFlowConfig() ExamFlowSagaConfig {
	return ExamFlowSagaConfig{
		SolveTimeout: 30 * time.Second,
		GradeTimeout: 30 * time.Second,
	}
}

// NewExamFlowSaga creates a new exam flow saga with all dependencies.
func NewExamFlowSaga(
	petRepo pet.Repository,
	userRepo user.Repository,
	examRepo exam.Repository,
	studyRepo study.Repository,
	sessions pet.SessionTracker,
	solver exam.Solver,
	grader exam.Grader,
	eventBus shared.EventPublisher,
	config ExamFlowSagaConfig,
) *ExamFlowSaga {
	return &ExamFlowSaga{
		petRepo:      petRepo,
		userRepo:     userRepo,
		examRepo:     examRepo,
		studyRepo:    studyRepo,
		sessions:     sessions,
		solver:       solver,
		grader:       grader,
		eventBus:     eventBus,
		solveTimeout: config.SolveTimeout,
		gradeTimeout: config.GradeTimeout,
	}
}

// Execute runs the complete exam attempt.
func (s *ExamFlowSaga) Execute(ctx context.Context, input ExamFlowInput) (*ExamFlowResult, error) {
	state := &ExamFlowState{
		CurrentStep: StepExamValidate,
		Input:       input,
		StartedAt:   time.Now().UTC(),
	}

	if err := input.Validate(); err != nil {
		state.FailedStep = StepExamValidate
		return nil, s.wrapError(state, err)
	}

	steps := []struct {
		step ExamFlowStep
		run  func(context.Context, *ExamFlowState) error
	}{
		{StepExamLoadPet, s.stepLoadPet},
		{StepExamLoadExam, s.stepLoadExam},
		{StepExamCheckAnswer, s.stepCheckNotAnswered},
		{StepExamMaterial, s.stepGatherMaterial},
		{StepExamCheatSheet, s.stepUseCheatSheet},
		{StepExamSolve, s.stepSolve},
		{StepExamGrade, s.stepGrade},
		{StepExamApplyRewards, s.stepApplyRewards},
		{StepExamSaveResult, s.stepSaveResult},
	}
	for _, st := range steps {
		state.CurrentStep = st.step
		if err := st.run(ctx, state); err != nil {
			return nil, s.wrapError(state, err)
		}
	}

	// Publish events - non-critical, these feed notifications and
	// leaderboard refresh, both of which recover on their own.
	state.CurrentStep = StepExamPublish
	s.stepPublishEvents(state)

	state.CurrentStep = StepExamComplete
	return &ExamFlowResult{
		Result:         state.Result,
		Explanation:    state.Grade.Explanation,
		PetAnswer:      state.PetAnswer,
		CheatSheetUsed: state.CheatSheetUsed,
		LeveledUp:      state.LeveledUp,
		NewLevel:       state.Pet.Level,
		CompletedAt:    time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SAGA STEPS
// ══════════════════════════════════════════════════════════════════════════════

// stepLoadPet loads the pet and settles derived death.
func (s *ExamFlowSaga) stepLoadPet(ctx context.Context, state *ExamFlowState) error {
	p, err := s.petRepo.GetByUserID(ctx, state.Input.UserID)
	if err != nil {
		return s.fail(state, StepExamLoadPet, fmt.Errorf("failed to load pet: %w", err))
	}

	sessionStart, err := s.sessions.SessionStart(ctx, state.Input.UserID)
	if err != nil {
		sessionStart = time.Time{}
	}
	now := time.Now().UTC()
	if dead, _ := p.EvaluateDeath(sessionStart, now); dead {
		if p.ConfirmDeath(now) {
			_ = s.petRepo.Update(ctx, p)
		}
		return s.fail(state, StepExamLoadPet, pet.ErrDead)
	}

	state.Pet = p
	return nil
}

// stepLoadExam loads the exam and checks it is still open.
func (s *ExamFlowSaga) stepLoadExam(ctx context.Context, state *ExamFlowState) error {
	e, err := s.examRepo.GetExam(ctx, state.Input.ExamID)
	if err != nil {
		return s.fail(state, StepExamLoadExam, err)
	}
	if !e.IsActive {
		return s.fail(state, StepExamLoadExam, ErrExamClosed)
	}
	state.Exam = e
	return nil
}

// stepCheckNotAnswered enforces one attempt per user per exam.
func (s *ExamFlowSaga) stepCheckNotAnswered(ctx context.Context, state *ExamFlowState) error {
	answered, err := s.examRepo.HasAnswered(ctx, state.Exam.ID, state.Input.UserID)
	if err != nil {
		return s.fail(state, StepExamCheckAnswer, fmt.Errorf("failed to check attempts: %w", err))
	}
	if answered {
		return s.fail(state, StepExamCheckAnswer, ErrAlreadyAnswered)
	}
	return nil
}

// stepGatherMaterial collects the pet's recent notes as answer material.
func (s *ExamFlowSaga) stepGatherMaterial(ctx context.Context, state *ExamFlowState) error {
	logs, err := s.studyRepo.GetLogsByUser(ctx, state.Input.UserID, study.MaxLogsForExam)
	if err != nil {
		return s.fail(state, StepExamMaterial, fmt.Errorf("failed to load notes: %w", err))
	}

	material, err := study.ExamMaterial(logs)
	if err != nil && !errors.Is(err, study.ErrNoMaterial) {
		return s.fail(state, StepExamMaterial, err)
	}
	// No material is allowed: the pet will flounder, which is honest.
	state.Material = material
	return nil
}

// stepUseCheatSheet consumes a cheat sheet when requested.
func (s *ExamFlowSaga) stepUseCheatSheet(ctx context.Context, state *ExamFlowState) error {
	if !state.Input.UseCheatSheet {
		return nil
	}

	owner, err := s.userRepo.GetByID(ctx, state.Input.UserID)
	if err != nil {
		return s.fail(state, StepExamCheatSheet, fmt.Errorf("failed to load user: %w", err))
	}
	if err := owner.UseCheatSheet(); err != nil {
		return s.fail(state, StepExamCheatSheet, err)
	}
	if err := s.userRepo.Update(ctx, owner); err != nil {
		return s.fail(state, StepExamCheatSheet, fmt.Errorf("failed to spend cheat sheet: %w", err))
	}

	state.Owner = owner
	state.CheatSheetUsed = true
	return nil
}

// stepSolve asks the solver to answer as the pet.
func (s *ExamFlowSaga) stepSolve(ctx context.Context, state *ExamFlowState) error {
	solveCtx, cancel := context.WithTimeout(ctx, s.solveTimeout)
	defer cancel()

	answer, err := s.solver.Solve(
		solveCtx,
		state.Material,
		state.Exam.Question,
		state.CheatSheetUsed,
		state.Input.UserName,
	)
	if err != nil {
		return s.fail(state, StepExamSolve, fmt.Errorf("solver failed: %w", err))
	}
	state.PetAnswer = answer
	return nil
}

// stepGrade grades the pet's answer against the model answer.
func (s *ExamFlowSaga) stepGrade(ctx context.Context, state *ExamFlowState) error {
	gradeCtx, cancel := context.WithTimeout(ctx, s.gradeTimeout)
	defer cancel()

	grade, err := s.grader.Grade(
		gradeCtx,
		state.Exam.Question,
		state.Exam.ModelAnswer,
		state.PetAnswer,
	)
	if err != nil {
		return s.fail(state, StepExamGrade, fmt.Errorf("grader failed: %w", err))
	}
	state.Grade = grade
	return nil
}

// stepApplyRewards pays out experience and intelligence to the pet.
// An exam counts as studying: the study checkpoint moves too.
func (s *ExamFlowSaga) stepApplyRewards(ctx context.Context, state *ExamFlowState) error {
	now := time.Now().UTC()
	state.LeveledUp = state.Pet.ApplyExamResult(state.Grade.IsCorrect, now)

	if err := s.petRepo.Update(ctx, state.Pet); err != nil {
		return s.fail(state, StepExamApplyRewards, fmt.Errorf("failed to save pet: %w", err))
	}
	return nil
}

// stepSaveResult persists the graded attempt.
func (s *ExamFlowSaga) stepSaveResult(ctx context.Context, state *ExamFlowState) error {
	result, err := exam.NewResult(
		state.Exam.ID,
		state.Input.UserID,
		state.PetAnswer,
		state.Grade,
		time.Now().UTC(),
	)
	if err != nil {
		return s.fail(state, StepExamSaveResult, err)
	}

	if err := s.examRepo.SaveResult(ctx, result); err != nil {
		return s.fail(state, StepExamSaveResult, fmt.Errorf("failed to save result: %w", err))
	}
	state.Result = result
	return nil
}

// stepPublishEvents emits the exam event and, on level-up, the level event.
func (s *ExamFlowSaga) stepPublishEvents(state *ExamFlowState) {
	if s.eventBus == nil {
		return
	}

	_ = s.eventBus.Publish(shared.NewExamTakenEvent(
		fmt.Sprintf("%d", state.Result.ID),
		state.Input.UserID,
		state.Pet.ID,
		state.Exam.ID,
		state.Grade.IsCorrect,
		state.Grade.Score(),
	))

	if state.LeveledUp {
		oldLevel := int(state.Pet.Level) - 1
		newStage := pet.StageFor(state.Pet.Level)
		oldStage := pet.StageFor(pet.Level(oldLevel))
		_ = s.eventBus.Publish(shared.NewLevelUpEvent(
			state.Pet.ID,
			state.Pet.UserID,
			state.Pet.Name,
			oldLevel,
			int(state.Pet.Level),
			newStage != oldStage,
			newStage.Name,
		))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// fail records the failing step on the state and returns the error.
func (s *ExamFlowSaga) fail(state *ExamFlowState, step ExamFlowStep, err error) error {
	state.FailedStep = step
	state.Error = err
	return err
}

// wrapError annotates a saga failure with the step it failed on.
func (s *ExamFlowSaga) wrapError(state *ExamFlowState, err error) error {
	return fmt.Errorf("exam flow failed at step %s: %w", state.FailedStep, err)
}

// AvailableExams lists the active exams visible to a user: global ones
// plus those of the classrooms the user belongs to, minus already
// answered ones. Lives here because visibility mixes three repositories.
func (s *ExamFlowSaga) AvailableExams(ctx context.Context, userID string, roomIDs []string, limit int) ([]*exam.Exam, error) {
	if limit <= 0 {
		limit = 20
	}

	global, err := s.examRepo.GetActiveGlobal(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("exam_flow: failed to load global exams: %w", err)
	}

	var scoped []*exam.Exam
	if len(roomIDs) > 0 {
		scoped, err = s.examRepo.GetActiveByRooms(ctx, roomIDs, limit)
		if err != nil {
			return nil, fmt.Errorf("exam_flow: failed to load classroom exams: %w", err)
		}
	}

	seen := make(map[int64]bool, len(global)+len(scoped))
	available := make([]*exam.Exam, 0, len(global)+len(scoped))
	for _, e := range append(global, scoped...) {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true

		answered, err := s.examRepo.HasAnswered(ctx, e.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("exam_flow: failed to check attempts: %w", err)
		}
		if answered {
			continue
		}
		available = append(available, e)
		if len(available) >= limit {
			break
		}
	}
	return available, nil
}
