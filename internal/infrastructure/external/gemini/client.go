// Package gemini implements the Google Gemini API client.
// The client speaks the generateContent REST endpoint directly and carries
// all prompt templates: pet chat replies, note reactions, exam solving and
// grading, and learning-summary extraction.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/chat"
	"github.com/studygotchi/studygotchi-hub/internal/domain/exam"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// DefaultModel is the generation model used for all pet interactions.
const DefaultModel = "gemini-2.5-flash-lite"

// ClientConfig contains configuration for the Gemini API client.
type ClientConfig struct {
	// BaseURL is the API base URL
	BaseURL string

	// APIKey authenticates every request
	APIKey string

	// Model is the model name passed in the request path
	Model string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimiterConfig for API rate limiting
	RateLimiterConfig RateLimiterConfig

	// CircuitBreakerConfig for fault tolerance
	CircuitBreakerConfig CircuitBreakerConfig

	// RetryConfig for retry behavior
	RetryConfig RetryConfig

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(apiKey string) ClientConfig {
	return ClientConfig{
		BaseURL:              "https://generativelanguage.googleapis.com/v1beta",
		APIKey:               apiKey,
		Model:                DefaultModel,
		Timeout:              30 * time.Second,
		RateLimiterConfig:    DefaultRateLimiterConfig(),
		CircuitBreakerConfig: DefaultCircuitBreakerConfig(),
		RetryConfig:          DefaultRetryConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Gemini API client. It implements chat.Dialogue, exam.Solver
// and exam.Grader.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	logger         *slog.Logger
	rateLimiter    *RateLimiter
	circuitBreaker *CircuitBreaker
	mapper         *Mapper
}

// NewClient creates a new Gemini API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:         config.Logger,
		rateLimiter:    NewRateLimiter(config.RateLimiterConfig),
		circuitBreaker: NewCircuitBreaker(config.CircuitBreakerConfig),
		mapper:         NewMapper(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CHAT OPERATIONS (chat.Dialogue)
// ══════════════════════════════════════════════════════════════════════════════

// Reply produces the pet's chat answer from the user message, the recent
// history, the pet's MBTI and the taught material.
func (c *Client) Reply(ctx context.Context, req chat.ReplyRequest) (string, error) {
	userName := orDefault(req.UserName, "사용자")
	petName := orDefault(req.PetName, "펫")
	mbti := orDefault(req.MBTI, "ENFP")

	material := "(아직 공부한 내용이 없어요)"
	if len(req.Material) > 0 {
		material = strings.Join(req.Material, "\n---\n")
	}

	var history strings.Builder
	turns := req.History
	if len(turns) > 10 {
		turns = turns[len(turns)-10:]
	}
	for _, t := range turns {
		name := petName
		if t.Role == chat.RoleUser {
			name = userName
		}
		fmt.Fprintf(&history, "%s: %s\n", name, t.Text)
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, `당신의 이름은 %s이에요. %s님이 키우는 펫이에요. MBTI %s 성격이에요.

【답변 스타일】
- 2문장 또는 최대 3문장 이내로 답하세요.
- 일상 대화: 감정을 담아 따뜻하고 친근하게. 질문에 맞춰 자연스럽게 이어지게요.
- 지식 질문: 공부한 내용으로 설명을 곁들여 대답해요.
- 공부한 내용에 없으면 "그건 잘 모르겠어요... %s님이 가르쳐주시면 기억할게요!" 식으로 말해요.
- 절대 지어내지 마세요. 공부한 내용에만 근거해서 답하세요.
- 이모지는 분위기에 맞게 적당히 (1~2개).

【공부한 내용】
%s
`, petName, userName, mbti, userName, material)

	if history.Len() > 0 {
		fmt.Fprintf(&prompt, "\n【최근 대화】\n%s", history.String())
	}
	fmt.Fprintf(&prompt, "\n%s: %s\n%s:", userName, req.UserMessage, petName)

	return c.generate(ctx, prompt.String())
}

// React produces the pet's one-line reaction to a freshly taught note.
func (c *Client) React(ctx context.Context, noteContent string) (string, error) {
	prompt := fmt.Sprintf(`당신은 사용자가 키우는 귀여운 펫입니다.
사용자가 방금 아래 내용을 가르쳐줬습니다.
한 문장으로 귀엽고 짧게 반응해주세요. (이모지 사용 가능, 30자 이내)

가르쳐준 내용: %s`, noteContent)

	return c.generate(ctx, prompt)
}

// ExtractLearning pulls the teachable content out of one exchange.
// Empty result means the exchange held no knowledge worth saving.
func (c *Client) ExtractLearning(ctx context.Context, userMessage, petAnswer string) (string, error) {
	prompt := fmt.Sprintf(`아래 대화에서 "학습·교육·지식" 관련 내용이 있을 때만 추출하세요.

【규칙】
- 반드시 주어진 대화에 실제로 있는 내용만 추출. 없는 내용 절대 지어내지 마세요.
- 교과지식, 사실, 개념, 정의가 있으면 1-2문장으로 요약.
- 인사, 일상 대화, 감정만 있으면 아무것도 출력하지 마세요 (빈 출력).
- 출력 형식: 레이블·접두사 없이 요약 내용만 출력.

【대화】
질문: %s
답변: %s

【출력 (요약 내용만, 레이블 없이)】
`, userMessage, petAnswer)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrEmptyResponse) {
			return "", nil
		}
		return "", err
	}

	return c.mapper.CleanLearningSummary(text), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EXAM OPERATIONS (exam.Solver, exam.Grader)
// ══════════════════════════════════════════════════════════════════════════════

// Solve makes the pet answer an exam question from its taught material only.
// With cheatSheet set, the pet may also lean on encyclopedic basics.
func (c *Client) Solve(ctx context.Context, material []string, question string, cheatSheet bool, userName string) (string, error) {
	userName = orDefault(userName, "사용자")

	cheatNote := ""
	if cheatSheet {
		cheatNote = "\n\n[특별 지식]: 일반적인 백과사전 수준의 기본 지식도 활용할 수 있습니다."
	}

	prompt := fmt.Sprintf(`Role: 당신은 사용자가 키우는 펫입니다. 말투는 귀엽고 존댓말을 씁니다.
Context: 다음은 사용자가 당신에게 가르쳐준 지식입니다.
%s%s

Question: %s

Instruction: 위 Context에 있는 내용만을 근거로 Question에 대답하세요.
Context에 없는 내용이라면 절대 지어내지 말고 "%s님이 아직 안 알려주셨어요... 🥺"라고 대답하세요.
답변은 2-3문장 이내로 간결하게 해주세요.`,
		strings.Join(material, "\n---\n"), cheatNote, question, userName)

	return c.generate(ctx, prompt)
}

// Grade compares a pet's answer to the model answer.
// A malformed verdict counts as wrong, never as an error: the exam saga
// must always finish with a result.
func (c *Client) Grade(ctx context.Context, question, modelAnswer, petAnswer string) (exam.Grade, error) {
	prompt := fmt.Sprintf(`당신은 시험 채점관입니다.

문제: %s
정답: %s
학생 답안: %s

학생 답안이 정답의 핵심 의미와 일치하면 JSON { "is_correct": true, "explanation": "간단한 설명" }을,
일치하지 않으면 JSON { "is_correct": false, "explanation": "간단한 설명" }을 반환하세요.
"~님이 아직 안 알려주셨어요" 또는 "가르쳐주지 않은 내용" 등 모르는 내용에 대한 답변은 오답입니다.
반드시 유효한 JSON만 반환하세요. 다른 텍스트 없이 JSON만 출력하세요.`,
		question, modelAnswer, petAnswer)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return exam.Grade{}, err
	}

	return c.mapper.GradeFromText(text), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP PLUMBING
// ══════════════════════════════════════════════════════════════════════════════

// generate runs one generateContent call with rate limiting, circuit
// breaking and retries, and returns the model's text.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	request := GenerateRequestDTO{
		Contents: []ContentDTO{
			{Parts: []PartDTO{{Text: prompt}}},
		},
	}

	var response GenerateResponseDTO
	if err := c.doRequest(ctx, &request, &response); err != nil {
		return "", classify(err)
	}

	text, err := c.mapper.TextFromResponse(&response)
	if err != nil {
		return "", classify(err)
	}
	return text, nil
}

// classify maps transport failures onto the shared service sentinels,
// so callers can recognize an unreachable model without depending on
// this package's error types.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", shared.ErrGeminiTimeout, err)
	case errors.Is(err, &RateLimitError{}):
		return fmt.Errorf("%w: %w", shared.ErrGeminiRateLimited, err)
	default:
		return fmt.Errorf("%w: %w", shared.ErrGeminiUnavailable, err)
	}
}

// doRequest executes a request with retry, rate limiting and circuit breaking.
func (c *Client) doRequest(ctx context.Context, body *GenerateRequestDTO, result *GenerateResponseDTO) error {
	if err := c.circuitBreaker.Allow(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.config.RetryConfig.CalculateBackoff(attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.rateLimiter.Allow(ctx); err != nil {
			return err
		}

		err := c.doSingleRequest(ctx, body, result)
		if err == nil {
			c.circuitBreaker.RecordSuccess()
			return nil
		}

		lastErr = err

		if !c.isRetryable(err) {
			c.circuitBreaker.RecordFailure()
			return err
		}

		var rateLimitErr *RateLimitError
		if errors.As(err, &rateLimitErr) {
			c.rateLimiter.RecordRateLimitHit(rateLimitErr.RetryAfter)
		}
	}

	c.circuitBreaker.RecordFailure()
	return fmt.Errorf("request failed after %d retries: %w", c.config.RetryConfig.MaxRetries, lastErr)
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, body *GenerateRequestDTO, result *GenerateResponseDTO) error {
	fullURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.config.BaseURL, url.PathEscape(c.config.Model), url.QueryEscape(c.config.APIKey))

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.config.Debug {
		c.logger.Debug("gemini api request", "model", c.config.Model, "prompt_bytes", len(jsonBody))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return &RateLimitError{
			RetryAfter: retryAfter,
			Message:    "rate limit exceeded",
		}
	}

	if resp.StatusCode >= 400 {
		var errEnvelope struct {
			Error APIErrorDTO `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errEnvelope); err == nil && errEnvelope.Error.Message != "" {
			return &errEnvelope.Error
		}
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if result.Error != nil {
		return result.Error
	}

	return nil
}

// isRetryable checks if an error is retryable.
func (c *Client) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var apiErr *APIErrorDTO
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}

	errStr := err.Error()
	for _, marker := range []string{"timeout", "connection refused", "temporary", "reset", "EOF"} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

// ClientStatus holds the current resilience state of the client.
type ClientStatus struct {
	RateLimiter    RateLimiterStatus
	CircuitBreaker CircuitBreakerStatus
}

// Status returns the current status of the client.
func (c *Client) Status() ClientStatus {
	return ClientStatus{
		RateLimiter:    c.rateLimiter.Status(),
		CircuitBreaker: c.circuitBreaker.Status(),
	}
}

// Reset resets the rate limiter and circuit breaker.
func (c *Client) Reset() {
	c.rateLimiter.Reset()
	c.circuitBreaker.Reset()
}

func orDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}
