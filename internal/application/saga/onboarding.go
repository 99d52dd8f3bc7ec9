// Package saga contains complex business processes that orchestrate
// multiple domain operations in a coordinated manner.
// Sagas ensure consistency across operations and handle compensation on failures.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/studygotchi/studygotchi-hub/internal/domain/notification"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// ONBOARDING SAGA
// Complex business process: registration of a new player
// Flow: Validate → Check Existence → Hash Password → Create User →
//
//	Hatch Starter Pet → Send Welcome → Publish Event
//
// ══════════════════════════════════════════════════════════════════════════════

// Saga-level errors.
var (
	// ErrEmailAlreadyRegistered - the email is taken.
	ErrEmailAlreadyRegistered = errors.New("onboarding: email already registered")
)

// OnboardingInput contains all data required to register a player.
type OnboardingInput struct {
	// Email - email for authentication (required).
	Email string

	// Password - password for authentication (required).
	Password string

	// DisplayName - name shown to classmates (required).
	DisplayName string

	// Role - student or teacher (defaults to student).
	Role user.Role

	// PetName - name for the starter pet (optional; without it the
	// player hatches a pet later from the pet screen).
	PetName string
}

// Validate checks if the input is valid for onboarding.
func (i OnboardingInput) Validate() error {
	if i.Email == "" {
		return errors.New("onboarding: email is required")
	}
	if i.Password == "" {
		return errors.New("onboarding: password is required")
	}
	if i.DisplayName == "" {
		return errors.New("onboarding: display name is required")
	}
	return nil
}

// OnboardingResult contains the result of a successful onboarding.
type OnboardingResult struct {
	// User - the newly created account.
	User *user.User

	// Pet - the starter pet, nil when no pet name was given.
	Pet *pet.Pet

	// WelcomeNotificationID - ID of the scheduled welcome notification.
	WelcomeNotificationID string

	// OnboardedAt - timestamp of successful onboarding.
	OnboardedAt time.Time
}

// OnboardingStep represents a step in the onboarding process.
type OnboardingStep string

const (
	StepValidateInput  OnboardingStep = "validate_input"
	StepCheckExistence OnboardingStep = "check_existence"
	StepHashPassword   OnboardingStep = "hash_password"
	StepCreateUser     OnboardingStep = "create_user"
	StepHatchPet       OnboardingStep = "hatch_pet"
	StepSendWelcome    OnboardingStep = "send_welcome"
	StepPublishEvent   OnboardingStep = "publish_event"
	StepComplete       OnboardingStep = "complete"
)

// OnboardingState tracks the current state of the onboarding saga.
type OnboardingState struct {
	CurrentStep  OnboardingStep
	Input        OnboardingInput
	PasswordHash string
	User         *user.User
	Pet          *pet.Pet
	StartedAt    time.Time
	CompletedAt  *time.Time
	Error        error
	FailedStep   OnboardingStep
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	// GenerateID generates a new unique ID.
	GenerateID() string
}

// ══════════════════════════════════════════════════════════════════════════════
// ONBOARDING SAGA IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// OnboardingSaga orchestrates the complete player registration process.
// It follows the Saga pattern to ensure consistency across multiple operations.
//
// Philosophy: registration hands the player a living pet. The first
// minutes decide whether they come back, so the account, the pet and
// the welcome message are one process, not three endpoints.
type OnboardingSaga struct {
	userRepo        user.Repository
	petRepo         pet.Repository
	notificationSvc notification.NotificationService
	eventBus        shared.EventPublisher
	idGenerator     IDGenerator

	bcryptCost     int
	welcomeTimeout time.Duration
}

// OnboardingSagaConfig contains configuration for the onboarding saga.
type OnboardingSagaConfig struct {
	BcryptCost     int
	WelcomeTimeout time.Duration
}

// DefaultOnboardingConfig returns default configuration.
func DefaultOnboardingConfig() OnboardingSagaConfig {
	return OnboardingSagaConfig{
		BcryptCost:     bcrypt.DefaultCost,
		WelcomeTimeout: 30 * time.Second,
	}
}

// NewOnboardingSaga creates a new onboarding saga with all dependencies.
func NewOnboardingSaga(
	userRepo user.Repository,
	petRepo pet.Repository,
	notificationSvc notification.NotificationService,
	eventBus shared.EventPublisher,
	idGenerator IDGenerator,
	config OnboardingSagaConfig,
) *OnboardingSaga {
	cost := config.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &OnboardingSaga{
		userRepo:        userRepo,
		petRepo:         petRepo,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
		idGenerator:     idGenerator,
		bcryptCost:      cost,
		welcomeTimeout:  config.WelcomeTimeout,
	}
}

// Execute runs the complete onboarding process.
// It returns the result on success or an error with context about the failure.
func (s *OnboardingSaga) Execute(ctx context.Context, input OnboardingInput) (*OnboardingResult, error) {
	state := &OnboardingState{
		CurrentStep: StepValidateInput,
		Input:       input,
		StartedAt:   time.Now().UTC(),
	}

	// Step 1: Validate input
	if err := s.stepValidateInput(state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 2: Check the email is free
	state.CurrentStep = StepCheckExistence
	if err := s.stepCheckExistence(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 3: Hash the password
	state.CurrentStep = StepHashPassword
	if err := s.stepHashPassword(state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 4: Create the account
	state.CurrentStep = StepCreateUser
	if err := s.stepCreateUser(ctx, state); err != nil {
		return nil, s.wrapError(state, err)
	}

	// Step 5: Hatch the starter pet.
	// Non-critical - the account exists, the pet screen can hatch one later.
	state.CurrentStep = StepHatchPet
	if err := s.stepHatchPet(ctx, state); err != nil {
		state.Pet = nil
	}

	// Step 6: Send welcome notification
	// Non-critical - we don't fail registration over a greeting.
	state.CurrentStep = StepSendWelcome
	welcomeNotificationID, err := s.stepSendWelcome(ctx, state)
	if err != nil {
		welcomeNotificationID = ""
	}

	// Step 7: Publish domain event
	// Non-critical - events can be replayed later.
	state.CurrentStep = StepPublishEvent
	s.stepPublishEvent(state)

	// Complete
	state.CurrentStep = StepComplete
	now := time.Now().UTC()
	state.CompletedAt = &now

	return &OnboardingResult{
		User:                  state.User,
		Pet:                   state.Pet,
		WelcomeNotificationID: welcomeNotificationID,
		OnboardedAt:           now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SAGA STEPS
// ══════════════════════════════════════════════════════════════════════════════

// stepValidateInput validates all input parameters.
func (s *OnboardingSaga) stepValidateInput(state *OnboardingState) error {
	if err := state.Input.Validate(); err != nil {
		state.FailedStep = StepValidateInput
		state.Error = err
		return err
	}
	return nil
}

// stepCheckExistence verifies the email is not taken.
func (s *OnboardingSaga) stepCheckExistence(ctx context.Context, state *OnboardingState) error {
	exists, err := s.userRepo.ExistsByEmail(ctx, state.Input.Email)
	if err != nil {
		state.FailedStep = StepCheckExistence
		state.Error = fmt.Errorf("failed to check email existence: %w", err)
		return state.Error
	}
	if exists {
		state.FailedStep = StepCheckExistence
		state.Error = ErrEmailAlreadyRegistered
		return state.Error
	}
	return nil
}

// stepHashPassword hashes the password with bcrypt.
// The plain password never leaves this step.
func (s *OnboardingSaga) stepHashPassword(state *OnboardingState) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(state.Input.Password), s.bcryptCost)
	if err != nil {
		state.FailedStep = StepHashPassword
		state.Error = fmt.Errorf("failed to hash password: %w", err)
		return state.Error
	}
	state.PasswordHash = string(hash)
	return nil
}

// stepCreateUser creates and persists the account.
func (s *OnboardingSaga) stepCreateUser(ctx context.Context, state *OnboardingState) error {
	role := state.Input.Role
	if role == "" {
		role = user.RoleStudent
	}

	account, err := user.NewUser(user.NewUserParams{
		ID:           s.idGenerator.GenerateID(),
		Email:        state.Input.Email,
		DisplayName:  state.Input.DisplayName,
		Role:         role,
		PasswordHash: state.PasswordHash,
	})
	if err != nil {
		state.FailedStep = StepCreateUser
		state.Error = err
		return err
	}

	if err := s.userRepo.Create(ctx, account); err != nil {
		state.FailedStep = StepCreateUser
		state.Error = fmt.Errorf("failed to save user: %w", err)
		return state.Error
	}

	state.User = account
	return nil
}

// stepHatchPet creates the starter pet when a name was given.
func (s *OnboardingSaga) stepHatchPet(ctx context.Context, state *OnboardingState) error {
	if state.Input.PetName == "" {
		return nil
	}

	starter, err := pet.NewPet(pet.NewPetParams{
		ID:              s.idGenerator.GenerateID(),
		UserID:          state.User.ID,
		Name:            state.Input.PetName,
		CharacterSprite: pet.PickRandomCharacter(),
		RoomType:        pet.PickRandomRoom(),
		MBTI:            pet.PickRandomMBTI(),
	})
	if err != nil {
		state.FailedStep = StepHatchPet
		state.Error = err
		return err
	}

	if err := s.petRepo.Create(ctx, starter); err != nil {
		state.FailedStep = StepHatchPet
		state.Error = fmt.Errorf("failed to save starter pet: %w", err)
		return state.Error
	}

	state.Pet = starter
	return nil
}

// stepSendWelcome schedules the welcome notification.
func (s *OnboardingSaga) stepSendWelcome(ctx context.Context, state *OnboardingState) (string, error) {
	if s.notificationSvc == nil {
		return "", nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.welcomeTimeout)
	defer cancel()

	message := fmt.Sprintf("👋 %s님, 어서오세요!", state.User.DisplayName)
	data := notification.NotificationData{}
	if state.Pet != nil {
		message = fmt.Sprintf("👋 %s님, 어서오세요! %s(이)가 기다리고 있어요.",
			state.User.DisplayName, state.Pet.Name)
		data.PetID = state.Pet.ID
		data.PetName = state.Pet.Name
	}

	welcome, err := notification.NewNotification(notification.NewNotificationParams{
		ID:          notification.NotificationID(s.idGenerator.GenerateID()),
		Type:        notification.NotificationTypeWelcome,
		RecipientID: notification.RecipientID(state.User.ID),
		Message:     message,
		Data:        data,
	})
	if err != nil {
		return "", err
	}

	if err := s.notificationSvc.ScheduleNotification(sendCtx, welcome); err != nil {
		return "", err
	}
	return welcome.ID.String(), nil
}

// stepPublishEvent publishes the registration event.
func (s *OnboardingSaga) stepPublishEvent(state *OnboardingState) {
	if s.eventBus == nil {
		return
	}
	_ = s.eventBus.Publish(shared.NewUserRegisteredEvent(
		state.User.ID,
		state.User.DisplayName,
		string(state.User.Role),
	))
}

// wrapError annotates a saga failure with the step it failed on.
func (s *OnboardingSaga) wrapError(state *OnboardingState, err error) error {
	return fmt.Errorf("onboarding failed at step %s: %w", state.FailedStep, err)
}
