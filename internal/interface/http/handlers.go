package http

import (
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/studygotchi/studygotchi-hub/internal/application/command"
	"github.com/studygotchi/studygotchi-hub/internal/application/query"
	"github.com/studygotchi/studygotchi-hub/internal/application/saga"
	"github.com/studygotchi/studygotchi-hub/internal/domain/economy"
	"github.com/studygotchi/studygotchi-hub/internal/domain/exam"
	"github.com/studygotchi/studygotchi-hub/internal/domain/notification"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/study"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
	"github.com/studygotchi/studygotchi-hub/internal/interface/http/handlers"
)

// In-character fallbacks for an unreachable language model: the pet
// apologizes instead of the endpoint erroring.
const (
	chatUnavailableAnswer = "미안해요, 잘 모르겠어요... 다시 말해주실래요? 😢"
	examUnavailableAnswer = "으악... 시험지를 못 읽겠어요... 😵"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVICE ENDPOINTS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot returns API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeJSONError(w, r, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"service": "studygotchi-hub",
		"version": "v1",
		"endpoints": map[string]string{
			"health":       "/health",
			"auth":         "/api/v1/auth",
			"pet":          "/api/v1/pet",
			"study":        "/api/v1/study",
			"exams":        "/api/v1/exams",
			"shop":         "/api/v1/shop",
			"leaderboard":  "/api/v1/leaderboard",
			"classrooms":   "/api/v1/classrooms",
			"digest":       "/api/v1/digest",
			"notification": "/api/v1/notifications",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.Health.Check(r.Context())

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, r, code, status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.Health.Check(r.Context())

	if !status.Ready {
		s.writeJSONError(w, r, http.StatusServiceUnavailable, "not_ready", status.Message)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	// Liveness means the process responds at all; no dependency checks.
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.deps.Onboarding == nil || s.deps.Tokens == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Registration is not available")
		return
	}

	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
		PetName     string `json:"pet_name"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.Onboarding.Execute(r.Context(), saga.OnboardingInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        user.Role(req.Role),
		PetName:     req.PetName,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	token, err := s.deps.Tokens.Issue(r.Context(), result.User.ID)
	if err != nil {
		// Счёт создан, но залогинить не вышло. Пусть войдёт руками.
		s.logger.Error("token issue after registration failed",
			"error", err, "user_id", result.User.ID)
		s.writeJSON(w, r, http.StatusCreated, map[string]any{
			"user": userDTO(result.User),
		})
		return
	}

	resp := map[string]any{
		"token": token,
		"user":  userDTO(result.User),
	}
	if result.Pet != nil {
		resp["pet"] = petDTO(result.Pet)
	}
	s.writeJSON(w, r, http.StatusCreated, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.Users == nil || s.deps.Tokens == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Login is not available")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	u, err := s.deps.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		// Same answer for unknown email and wrong password.
		s.writeJSONError(w, r, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		s.writeJSONError(w, r, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}

	token, err := s.deps.Tokens.Issue(r.Context(), u.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"token": token,
		"user":  userDTO(u),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := handlers.ExtractBearerToken(r)
	if err := s.deps.Tokens.Revoke(r.Context(), token); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "logged_out"})
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	if s.deps.StartSession == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Sessions are not available")
		return
	}

	result, err := s.deps.StartSession.Handle(r.Context(), command.StartSessionCommand{
		UserID: handlers.UserIDFrom(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"started_at": result.StartedAt,
		"resumed":    result.Resumed,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PET
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetPet(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetPetView == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Pet view is not available")
		return
	}

	result, err := s.deps.GetPetView.Handle(r.Context(), query.GetPetViewQuery{
		UserID: handlers.UserIDFrom(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleCreatePet(w http.ResponseWriter, r *http.Request) {
	if s.deps.CreatePet == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Pet creation is not available")
		return
	}

	var req struct {
		Name   string `json:"name"`
		Sprite string `json:"sprite"`
		Room   string `json:"room"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.CreatePet.Handle(r.Context(), command.CreatePetCommand{
		UserID:        handlers.UserIDFrom(r.Context()),
		Name:          req.Name,
		Sprite:        pet.CharacterSprite(req.Sprite),
		Room:          pet.RoomType(req.Room),
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, map[string]any{
		"pet":      petDTO(result.Pet),
		"replaced": result.Replaced,
	})
}

func (s *Server) handleFeedPet(w http.ResponseWriter, r *http.Request) {
	if s.deps.FeedPet == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Feeding is not available")
		return
	}

	var req struct {
		FoodID string `json:"food_id"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.FeedPet.Handle(r.Context(), command.FeedPetCommand{
		UserID:        handlers.UserIDFrom(r.Context()),
		FoodID:        req.FoodID,
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"hunger":             result.Hunger,
		"nutrition":          nutritionDTO(result.Nutrition),
		"remaining_portions": result.RemainingPortions,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.deps.ChatWithPet == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Chat is not available")
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	userID := handlers.UserIDFrom(r.Context())

	result, err := s.deps.ChatWithPet.Handle(r.Context(), command.ChatWithPetCommand{
		UserID:   userID,
		UserName: s.displayName(r, userID),
		Message:  req.Message,
	})
	if err != nil {
		if shared.IsExternalService(err) {
			s.logger.Warn("chat dialogue unavailable",
				"error", err, "request_id", requestIDFrom(r.Context()))
			s.writeJSON(w, r, http.StatusOK, map[string]any{
				"answer":        chatUnavailableAnswer,
				"session_ended": false,
				"degraded":      true,
			})
			return
		}
		s.writeDomainError(w, r, err)
		return
	}

	resp := map[string]any{
		"answer":         result.Answer,
		"exchanges_left": result.ExchangesLeft,
		"session_ended":  result.SessionEnded,
	}
	if result.LearnedNote != nil {
		resp["learned_note"] = studyLogDTO(result.LearnedNote)
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleMinigame(w http.ResponseWriter, r *http.Request) {
	if s.deps.PlayMinigame == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Minigames are not available")
		return
	}

	var req struct {
		GameID string `json:"game_id"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.PlayMinigame.Handle(r.Context(), command.PlayMinigameCommand{
		UserID:        handlers.UserIDFrom(r.Context()),
		GameID:        req.GameID,
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"game": map[string]string{
			"id":    result.Game.ID,
			"name":  result.Game.Name,
			"emoji": result.Game.Emoji,
		},
		"boredom":          result.Boredom,
		"points_earned":    int(result.PointsEarned),
		"points_balance":   int(result.PointsBalance),
		"next_playable_at": result.NextPlayableAt,
	})
}

func (s *Server) handleRevive(w http.ResponseWriter, r *http.Request) {
	if s.deps.RevivePet == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Revival is not available")
		return
	}

	result, err := s.deps.RevivePet.Handle(r.Context(), command.RevivePetCommand{
		UserID:        handlers.UserIDFrom(r.Context()),
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"pet":          petDTO(result.Pet),
		"potions_left": result.PotionsLeft,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDY NOTES
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetStudyLogs(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetStudyLogs == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Study logs are not available")
		return
	}

	result, err := s.deps.GetStudyLogs.Handle(r.Context(), query.GetStudyLogsQuery{
		UserID: handlers.UserIDFrom(r.Context()),
		Limit:  getQueryParamInt(r, "limit", 0),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleRecordStudy(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordStudy == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Study is not available")
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.RecordStudy.Handle(r.Context(), command.RecordStudyCommand{
		UserID:        handlers.UserIDFrom(r.Context()),
		Content:       req.Content,
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, map[string]any{
		"log": studyLogDTO(result.Log),
		"gains": map[string]int{
			"intelligence": result.Gains.Intelligence,
			"points":       result.Gains.Points,
			"experience":   result.Gains.Experience,
		},
		"forgotten_notes":   result.ForgottenNotes,
		"intelligence_lost": result.IntelligenceLost,
	})
}

func (s *Server) handleForgetNote(w http.ResponseWriter, r *http.Request) {
	if s.deps.ForgetNote == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Study is not available")
		return
	}

	result, err := s.deps.ForgetNote.Handle(r.Context(), command.ForgetNoteCommand{
		UserID:        handlers.UserIDFrom(r.Context()),
		LogID:         r.PathValue("id"),
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"intelligence_lost": result.IntelligenceLost,
		"notes_left":        result.NotesLeft,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// EXAMS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleListExams(w http.ResponseWriter, r *http.Request) {
	if s.deps.ExamFlow == nil || s.deps.Memberships == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Exams are not available")
		return
	}

	userID := handlers.UserIDFrom(r.Context())

	memberships, err := s.deps.Memberships.GetMemberships(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	roomIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		roomIDs = append(roomIDs, m.ClassroomID)
	}

	limit := getQueryParamInt(r, "limit", 20)
	exams, err := s.deps.ExamFlow.AvailableExams(r.Context(), userID, roomIDs, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	dtos := make([]map[string]any, 0, len(exams))
	for _, e := range exams {
		dtos = append(dtos, examDTO(e))
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"exams": dtos})
}

func (s *Server) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	if s.deps.CreateExam == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Exams are not available")
		return
	}

	var req struct {
		RoomID      string `json:"room_id"`
		Question    string `json:"question"`
		ModelAnswer string `json:"model_answer"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.CreateExam.Handle(r.Context(), command.CreateExamCommand{
		AuthorID:    handlers.UserIDFrom(r.Context()),
		RoomID:      req.RoomID,
		Question:    req.Question,
		ModelAnswer: req.ModelAnswer,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, examDTO(result.Exam))
}

func (s *Server) handleTakeExam(w http.ResponseWriter, r *http.Request) {
	if s.deps.ExamFlow == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Exams are not available")
		return
	}

	examID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || examID <= 0 {
		s.writeJSONError(w, r, http.StatusBadRequest, "invalid_exam_id", "Exam ID must be a positive integer")
		return
	}

	var req struct {
		UseCheatSheet bool `json:"use_cheat_sheet"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	userID := handlers.UserIDFrom(r.Context())

	result, err := s.deps.ExamFlow.Execute(r.Context(), saga.ExamFlowInput{
		UserID:        userID,
		UserName:      s.displayName(r, userID),
		ExamID:        examID,
		UseCheatSheet: req.UseCheatSheet,
	})
	if err != nil {
		if shared.IsExternalService(err) {
			s.logger.Warn("exam solver unavailable",
				"error", err, "request_id", requestIDFrom(r.Context()))
			s.writeJSON(w, r, http.StatusOK, map[string]any{
				"graded":     false,
				"pet_answer": examUnavailableAnswer,
			})
			return
		}
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"passed":           result.Result.IsCorrect,
		"score":            result.Result.Score,
		"pet_answer":       result.PetAnswer,
		"explanation":      result.Explanation,
		"cheat_sheet_used": result.CheatSheetUsed,
		"leveled_up":       result.LeveledUp,
		"new_level":        int(result.NewLevel),
		"completed_at":     result.CompletedAt,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SHOP AND PAYMENTS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleBuyFood(w http.ResponseWriter, r *http.Request) {
	if s.deps.BuyFood == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Shop is not available")
		return
	}

	var req struct {
		FoodID   string `json:"food_id"`
		Quantity int    `json:"quantity"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.BuyFood.Handle(r.Context(), command.BuyFoodCommand{
		UserID:   handlers.UserIDFrom(r.Context()),
		FoodID:   req.FoodID,
		Quantity: req.Quantity,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"food_id":     result.FoodID,
		"quantity":    result.Quantity,
		"total_cost":  int(result.TotalCost),
		"points_left": int(result.PointsLeft),
		"portions":    result.Portions,
	})
}

func (s *Server) handleBuyItem(w http.ResponseWriter, r *http.Request) {
	if s.deps.BuyItem == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Shop is not available")
		return
	}

	var req struct {
		ItemID   string `json:"item_id"`
		Quantity int    `json:"quantity"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.BuyItem.Handle(r.Context(), command.BuyItemCommand{
		UserID:   handlers.UserIDFrom(r.Context()),
		ItemID:   economy.ItemID(req.ItemID),
		Quantity: req.Quantity,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"item": map[string]any{
			"id":    string(result.Item.ID),
			"name":  result.Item.Name,
			"emoji": result.Item.Emoji,
		},
		"quantity":   result.Quantity,
		"total_cost": result.TotalCost,
		"gems_left":  result.GemsLeft,
		"items": map[string]int{
			"revive_potions": result.Items.RevivePotion,
			"cheat_sheets":   result.Items.CheatSheet,
		},
	})
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	if s.deps.CreatePayment == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Payments are not available")
		return
	}

	var req struct {
		PackageID string `json:"package_id"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.CreatePayment.Handle(r.Context(), command.CreatePaymentCommand{
		UserID:    handlers.UserIDFrom(r.Context()),
		PackageID: req.PackageID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, map[string]any{
		"order_id":   result.Order.OrderID,
		"amount":     result.Order.Amount,
		"status":     string(result.Order.Status),
		"created_at": result.Order.CreatedAt,
		"package": map[string]any{
			"id":    result.Package.ID,
			"gems":  result.Package.Gems,
			"price": result.Package.Price,
			"label": result.Package.Label,
		},
	})
}

func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	if s.deps.ConfirmPayment == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Payments are not available")
		return
	}

	var req struct {
		OrderID    string `json:"order_id"`
		PaymentKey string `json:"payment_key"`
		Amount     int64  `json:"amount"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.ConfirmPayment.Handle(r.Context(), command.ConfirmPaymentCommand{
		UserID:        handlers.UserIDFrom(r.Context()),
		OrderID:       req.OrderID,
		PaymentKey:    req.PaymentKey,
		Amount:        req.Amount,
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"order_id":      result.Order.OrderID,
		"status":        string(result.Order.Status),
		"gems_credited": result.GemsCredited,
		"gem_balance":   result.GemBalance,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboard == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Leaderboard is not available")
		return
	}

	result, err := s.deps.GetLeaderboard.Handle(r.Context(), query.GetLeaderboardQuery{
		ClassroomID:       getQueryParam(r, "classroom_id"),
		Limit:             getQueryParamInt(r, "limit", 0),
		IncludeRankChange: getQueryParamBool(r, "include_rank_change"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleMyRank(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetPetRank == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Leaderboard is not available")
		return
	}

	result, err := s.deps.GetPetRank.Handle(r.Context(), query.GetPetRankQuery{
		UserID:        handlers.UserIDFrom(r.Context()),
		ClassroomID:   getQueryParam(r, "classroom_id"),
		NeighborRange: getQueryParamInt(r, "neighbors", 2),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// CLASSROOMS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleCreateClassroom(w http.ResponseWriter, r *http.Request) {
	if s.deps.CreateClass == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Classrooms are not available")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.CreateClass.Handle(r.Context(), command.CreateClassroomCommand{
		TeacherID: handlers.UserIDFrom(r.Context()),
		Name:      req.Name,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, map[string]any{
		"id":   result.Classroom.ID,
		"name": result.Classroom.Name,
		"code": string(result.Classroom.Code),
	})
}

func (s *Server) handleJoinClassroom(w http.ResponseWriter, r *http.Request) {
	if s.deps.JoinClass == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Classrooms are not available")
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.JoinClass.Handle(r.Context(), command.JoinClassroomCommand{
		UserID:        handlers.UserIDFrom(r.Context()),
		Code:          req.Code,
		CorrelationID: requestIDFrom(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"classroom": map[string]string{
			"id":   result.Classroom.ID,
			"name": result.Classroom.Name,
		},
		"joined_at": result.Membership.JoinedAt,
	})
}

func (s *Server) handleClassmates(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetClassmates == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Classrooms are not available")
		return
	}

	result, err := s.deps.GetClassmates.Handle(r.Context(), query.GetClassmatesQuery{
		UserID:      handlers.UserIDFrom(r.Context()),
		ClassroomID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleMyClassrooms(w http.ResponseWriter, r *http.Request) {
	if s.deps.Memberships == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Classrooms are not available")
		return
	}

	memberships, err := s.deps.Memberships.GetMemberships(r.Context(), handlers.UserIDFrom(r.Context()))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	dtos := make([]map[string]any, 0, len(memberships))
	for _, m := range memberships {
		dtos = append(dtos, map[string]any{
			"classroom_id": m.ClassroomID,
			"joined_at":    m.JoinedAt,
		})
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"classrooms": dtos})
}

// ══════════════════════════════════════════════════════════════════════════════
// DIGEST AND NOTIFICATIONS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleDailyDigest(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetDailyDigest == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Digest is not available")
		return
	}

	result, err := s.deps.GetDailyDigest.Handle(r.Context(), query.GetDailyDigestQuery{
		UserID:    handlers.UserIDFrom(r.Context()),
		PeriodEnd: time.Now(),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if s.deps.Inbox == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Notifications are not available")
		return
	}

	limit := getQueryParamInt(r, "limit", 20)
	entries, err := s.deps.Inbox.Inbox(r.Context(),
		notification.RecipientID(handlers.UserIDFrom(r.Context())), limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"notifications": entries})
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	if s.deps.Inbox == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Notifications are not available")
		return
	}

	err := s.deps.Inbox.ClearInbox(r.Context(),
		notification.RecipientID(handlers.UserIDFrom(r.Context())))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "cleared"})
}

// ══════════════════════════════════════════════════════════════════════════════
// OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleActiveSessions(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetActiveSessions == nil {
		s.writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Session stats are not available")
		return
	}

	result, err := s.deps.GetActiveSessions.Handle(r.Context(), query.GetActiveSessionsQuery{
		IncludeUserIDs: getQueryParamBool(r, "include_user_ids"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESENTATION
// ══════════════════════════════════════════════════════════════════════════════

// displayName resolves the user's display name for prompts.
// Lookup failures fall back to an empty name rather than failing the request.
func (s *Server) displayName(r *http.Request, userID string) string {
	if s.deps.Users == nil {
		return ""
	}
	u, err := s.deps.Users.GetByID(r.Context(), userID)
	if err != nil {
		return ""
	}
	return u.DisplayName
}

func userDTO(u *user.User) map[string]any {
	return map[string]any{
		"id":           u.ID,
		"email":        u.Email,
		"display_name": u.DisplayName,
		"role":         string(u.Role),
		"gems":         u.Gems,
	}
}

func petDTO(p *pet.Pet) map[string]any {
	stage := pet.StageFor(p.Level)
	return map[string]any{
		"id":           p.ID,
		"name":         p.Name,
		"level":        int(p.Level),
		"experience":   int(p.Experience),
		"intelligence": int(p.Intelligence),
		"hunger":       p.Hunger,
		"nutrition":    nutritionDTO(p.Nutrition),
		"is_dead":      p.IsDead,
		"stage": map[string]string{
			"name":  stage.Name,
			"emoji": stage.Emoji,
		},
		"sprite":     string(p.CharacterSprite),
		"room":       string(p.RoomType),
		"mbti":       string(p.MBTI),
		"points":     int(p.Points),
		"created_at": p.CreatedAt,
	}
}

func nutritionDTO(n pet.Nutrition) map[string]int {
	out := make(map[string]int, len(n))
	for k, v := range n {
		out[string(k)] = v
	}
	return out
}

func studyLogDTO(l *study.Log) map[string]any {
	return map[string]any{
		"id":         l.ID,
		"content":    l.Content,
		"created_at": l.CreatedAt,
	}
}

// examDTO hides the model answer; only the grader sees it.
func examDTO(e *exam.Exam) map[string]any {
	return map[string]any{
		"id":         e.ID,
		"room_id":    e.RoomID,
		"question":   e.Question,
		"is_active":  e.IsActive,
		"created_at": e.CreatedAt,
	}
}
