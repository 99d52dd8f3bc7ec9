package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and A/B testing.
// Supports gradual rollout, user targeting, and classroom-based experiments.
//
// Philosophy alignment: the pet is a study companion, not a slot machine.
// - Study loop features ship first
// - Monetization stays behind a flag until the study loop is sticky
// - Notifications tuned for motivation, not spam
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// Classroom targeting (e.g., specific classroom IDs)
	// Empty means all classrooms
	TargetClassrooms []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time

	// A/B test variant (for experiments)
	Variants []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID string // user UUID

	ClassroomID string // current classroom
	IsAdmin     bool   // is admin user
}

// Predefined feature flag names.
const (
	// === Pet Features ===
	FeaturePetChat      = "pet.chat"      // Gemini-powered pet dialogue
	FeaturePetMinigames = "pet.minigames" // daily minigames
	FeaturePetRevival   = "pet.revival"   // gem revival of dead pets

	// === Exam Features ===
	FeatureExamEnabled    = "exam.enabled"     // AI exams
	FeatureExamCheatSheet = "exam.cheat_sheet" // cheat-sheet item effect

	// === Payment Features ===
	FeaturePaymentsToss = "payments.toss" // Toss payments / gem shop

	// === Classroom Features ===
	FeatureClassrooms            = "classroom.enabled"       // classrooms and join codes
	FeatureClassroomRanking      = "classroom.ranking"       // per-classroom leaderboard
	FeatureLeaderboardRankChange = "leaderboard.rank_change" // show rank changes (+2, -1)

	// === Notification Features ===
	FeatureNotifyRankUp      = "notify.rank_up"      // "You moved up!"
	FeatureNotifyRankDown    = "notify.rank_down"    // "X passed you"
	FeatureNotifyTopEntry    = "notify.top_entry"    // "You're in top 10!"
	FeatureNotifyInactive    = "notify.inactive"     // inactivity reminders
	FeatureNotifyDailyDigest = "notify.daily_digest" // end of day summary
	FeatureNotifyPetState    = "notify.pet_state"    // hungry/bored nudges

	// === Experimental Features ===
	FeatureExperimentalWebPush   = "experimental.web_push"  // web push channel
	FeatureExperimentalAnalytics = "experimental.analytics" // advanced analytics
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Pet features - the core loop, enabled by default
	ff.features[FeaturePetChat] = &Feature{
		Name:           FeaturePetChat,
		Description:    "Gemini-powered pet dialogue",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeaturePetMinigames] = &Feature{
		Name:           FeaturePetMinigames,
		Description:    "Daily minigames with experience rewards",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeaturePetRevival] = &Feature{
		Name:           FeaturePetRevival,
		Description:    "Revive dead pets with gems",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Exam features
	ff.features[FeatureExamEnabled] = &Feature{
		Name:           FeatureExamEnabled,
		Description:    "AI exams over study notes",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureExamCheatSheet] = &Feature{
		Name:           FeatureExamCheatSheet,
		Description:    "Cheat-sheet item boosts exam answers",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Payments - on, but easy to kill remotely
	ff.features[FeaturePaymentsToss] = &Feature{
		Name:           FeaturePaymentsToss,
		Description:    "Toss payments and gem shop",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Classroom features
	ff.features[FeatureClassrooms] = &Feature{
		Name:           FeatureClassrooms,
		Description:    "Classrooms and join codes",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureClassroomRanking] = &Feature{
		Name:           FeatureClassroomRanking,
		Description:    "Per-classroom leaderboard",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardRankChange] = &Feature{
		Name:           FeatureLeaderboardRankChange,
		Description:    "Show rank changes in leaderboard",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Notification features - carefully tuned to avoid spam
	ff.features[FeatureNotifyRankUp] = &Feature{
		Name:           FeatureNotifyRankUp,
		Description:    "Notify when rank improves",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyRankDown] = &Feature{
		Name:           FeatureNotifyRankDown,
		Description:    "Notify when someone passes you",
		Enabled:        false, // Disabled by default - can be demotivating
		RolloutPercent: 0,
	}

	ff.features[FeatureNotifyTopEntry] = &Feature{
		Name:           FeatureNotifyTopEntry,
		Description:    "Notify when entering top 10",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyInactive] = &Feature{
		Name:           FeatureNotifyInactive,
		Description:    "Send inactivity reminders",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyDailyDigest] = &Feature{
		Name:           FeatureNotifyDailyDigest,
		Description:    "Daily progress summary",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyPetState] = &Feature{
		Name:           FeatureNotifyPetState,
		Description:    "Hungry and bored pet nudges",
		Enabled:        true,
		RolloutPercent: 50, // A/B test
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalWebPush] = &Feature{
		Name:           FeatureExperimentalWebPush,
		Description:    "Web push notification channel",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalAnalytics] = &Feature{
		Name:           FeatureExperimentalAnalytics,
		Description:    "Advanced analytics dashboard",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_PET_CHAT=true
// Example: FEATURE_NOTIFY_PET_STATE=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "pet.chat" -> "FEATURE_PET_CHAT"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check user overrides first
	if ctx != nil && ctx.UserID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check classroom targeting
	if len(feature.TargetClassrooms) > 0 && ctx != nil && ctx.ClassroomID != "" {
		classroomMatch := false
		for _, c := range feature.TargetClassrooms {
			if c == ctx.ClassroomID {
				classroomMatch = true
				break
			}
		}
		if !classroomMatch {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return ff.isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func (ff *FeatureFlags) isInRollout(userID string, featureName string, percent int) bool {
	// Create a consistent hash for this user+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// GetVariant returns the A/B test variant for a user.
// Returns empty string if no variants defined or feature disabled.
func (ff *FeatureFlags) GetVariant(featureName string, ctx *FeatureContext) string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok || !ff.IsEnabled(featureName, ctx) {
		return ""
	}

	if len(feature.Variants) == 0 {
		return ""
	}

	// Use consistent hashing to assign variant
	h := fnv.New32a()
	h.Write([]byte(featureName + "_variant"))
	h.Write([]byte(ctx.UserID))
	hash := h.Sum32()

	variantIndex := int(hash % uint32(len(feature.Variants)))
	return feature.Variants[variantIndex]
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID string, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// PaymentsEnabled checks if the gem shop is globally on.
func (ff *FeatureFlags) PaymentsEnabled() bool {
	return ff.IsEnabled(FeaturePaymentsToss, nil)
}

// NotificationsEnabled checks if any notifications are enabled.
func (ff *FeatureFlags) NotificationsEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureNotifyRankUp, ctx) ||
		ff.IsEnabled(FeatureNotifyTopEntry, ctx) ||
		ff.IsEnabled(FeatureNotifyDailyDigest, ctx) ||
		ff.IsEnabled(FeatureNotifyInactive, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
