package saga

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
)

type onboardingFixture struct {
	saga      *OnboardingSaga
	userRepo  *fakeUserRepo
	petRepo   *fakePetRepo
	notifSvc  *fakeNotificationSvc
	publisher *fakePublisher
}

func newOnboardingFixture(existing ...*user.User) *onboardingFixture {
	f := &onboardingFixture{
		userRepo:  newFakeUserRepo(existing...),
		petRepo:   newFakePetRepo(),
		notifSvc:  &fakeNotificationSvc{},
		publisher: &fakePublisher{},
	}
	f.saga = NewOnboardingSaga(
		f.userRepo, f.petRepo, f.notifSvc, f.publisher, &fakeIDGenerator{},
		OnboardingSagaConfig{BcryptCost: bcrypt.MinCost, WelcomeTimeout: time.Second},
	)
	return f
}

func TestOnboarding_RegistersUserWithStarterPet(t *testing.T) {
	f := newOnboardingFixture()

	result, err := f.saga.Execute(context.Background(), OnboardingInput{
		Email:       "minji@studygotchi.dev",
		Password:    "correct horse",
		DisplayName: "민지",
		PetName:     "코코",
	})
	require.NoError(t, err)

	require.NotNil(t, result.User)
	assert.Equal(t, user.RoleStudent, result.User.Role)
	assert.Equal(t, user.InitialGems, result.User.Gems)

	// Пароль в хранилище только в виде bcrypt-хеша.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(result.User.PasswordHash), []byte("correct horse")))

	require.NotNil(t, result.Pet)
	assert.Equal(t, "코코", result.Pet.Name)
	saved, err := f.petRepo.GetByUserID(context.Background(), result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "코코", saved.Name)

	// Приветствие запланировано и упомянуто в результате.
	require.Len(t, f.notifSvc.scheduled, 1)
	assert.Equal(t, result.WelcomeNotificationID, f.notifSvc.scheduled[0].ID.String())

	assert.True(t, f.publisher.has(shared.EventUserRegistered))
}

func TestOnboarding_PetIsOptional(t *testing.T) {
	f := newOnboardingFixture()

	result, err := f.saga.Execute(context.Background(), OnboardingInput{
		Email:       "minji@studygotchi.dev",
		Password:    "correct horse",
		DisplayName: "민지",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Pet)
	assert.NotNil(t, result.User)
}

func TestOnboarding_EmailAlreadyTaken(t *testing.T) {
	f := newOnboardingFixture(&user.User{ID: "u0", Email: "minji@studygotchi.dev", DisplayName: "선배"})

	_, err := f.saga.Execute(context.Background(), OnboardingInput{
		Email:       "minji@studygotchi.dev",
		Password:    "pw",
		DisplayName: "민지",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
}

func TestOnboarding_InvalidEmailRejected(t *testing.T) {
	f := newOnboardingFixture()

	_, err := f.saga.Execute(context.Background(), OnboardingInput{
		Email:       "not-an-email",
		Password:    "pw",
		DisplayName: "민지",
	})
	assert.ErrorIs(t, err, user.ErrInvalidEmail)
}

func TestOnboarding_BadPetNameDoesNotFailRegistration(t *testing.T) {
	f := newOnboardingFixture()

	// Имя питомца длиннее 10 рун: шаг некритичный, аккаунт создаётся.
	result, err := f.saga.Execute(context.Background(), OnboardingInput{
		Email:       "minji@studygotchi.dev",
		Password:    "pw",
		DisplayName: "민지",
		PetName:     "아주아주아주긴이름이다",
	})
	require.NoError(t, err)
	assert.Nil(t, result.Pet)

	ok, _ := f.userRepo.ExistsByEmail(context.Background(), "minji@studygotchi.dev")
	assert.True(t, ok)
}

func TestOnboarding_WelcomeFailureIsNonCritical(t *testing.T) {
	f := newOnboardingFixture()
	f.notifSvc.err = assert.AnError

	result, err := f.saga.Execute(context.Background(), OnboardingInput{
		Email:       "minji@studygotchi.dev",
		Password:    "pw",
		DisplayName: "민지",
	})
	require.NoError(t, err)
	assert.Empty(t, result.WelcomeNotificationID)
}

func TestOnboarding_TeacherRoleKept(t *testing.T) {
	f := newOnboardingFixture()

	result, err := f.saga.Execute(context.Background(), OnboardingInput{
		Email:       "teacher@studygotchi.dev",
		Password:    "pw",
		DisplayName: "김선생",
		Role:        user.RoleTeacher,
	})
	require.NoError(t, err)
	assert.True(t, result.User.IsTeacher())
}
