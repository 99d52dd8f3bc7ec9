package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studygotchi/studygotchi-hub/internal/domain/chat"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

func TestGenerateResponseDTO_Parsing(t *testing.T) {
	jsonData := `{
		"candidates": [
			{
				"content": {
					"role": "model",
					"parts": [{"text": "안녕하세요! 오늘도 공부 열심히 해요 📚"}]
				},
				"finishReason": "STOP"
			}
		]
	}`

	var resp GenerateResponseDTO
	err := json.Unmarshal([]byte(jsonData), &resp)
	require.NoError(t, err)

	mapper := NewMapper()
	text, err := mapper.TextFromResponse(&resp)
	require.NoError(t, err)
	assert.Equal(t, "안녕하세요! 오늘도 공부 열심히 해요 📚", text)
}

func TestTextFromResponse_Empty(t *testing.T) {
	mapper := NewMapper()

	_, err := mapper.TextFromResponse(&GenerateResponseDTO{})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = mapper.TextFromResponse(&GenerateResponseDTO{
		Candidates: []CandidateDTO{{Content: ContentDTO{Parts: []PartDTO{{Text: "   "}}}}},
	})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCleanLearningSummary_StripsLabels(t *testing.T) {
	mapper := NewMapper()

	cases := map[string]string{
		"학습요약: 이순신은 조선의 장군이다":     "이순신은 조선의 장군이다",
		"study_log: 물은 100도에서 끓는다": "물은 100도에서 끓는다",
		"- 광합성은 빛에너지를 화학에너지로 바꾼다":  "광합성은 빛에너지를 화학에너지로 바꾼다",
		"":                          "",
	}

	for in, want := range cases {
		assert.Equal(t, want, mapper.CleanLearningSummary(in))
	}
}

func TestGradeFromText(t *testing.T) {
	mapper := NewMapper()

	grade := mapper.GradeFromText(`{"is_correct": true, "explanation": "핵심 의미 일치"}`)
	assert.True(t, grade.IsCorrect)
	assert.Equal(t, "핵심 의미 일치", grade.Explanation)

	// Prose and code fences around the JSON still parse.
	grade = mapper.GradeFromText("```json\n{\"is_correct\": false, \"explanation\": \"정답과 다름\"}\n```")
	assert.False(t, grade.IsCorrect)
	assert.Equal(t, "정답과 다름", grade.Explanation)

	// Unparseable output grades as wrong.
	grade = mapper.GradeFromText("채점할 수 없습니다")
	assert.False(t, grade.IsCorrect)
	assert.Equal(t, "채점 실패", grade.Explanation)
}

func TestClient_Grade_EndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, DefaultModel)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req GenerateRequestDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)

		resp := GenerateResponseDTO{
			Candidates: []CandidateDTO{{
				Content: ContentDTO{Parts: []PartDTO{
					{Text: `{"is_correct": true, "explanation": "정답"}`},
				}},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	cfg := DefaultClientConfig("test-key")
	cfg.BaseURL = server.URL
	client := NewClient(cfg)

	grade, err := client.Grade(context.Background(), "이순신은 누구?", "조선의 장군", "조선의 장군이에요!")
	require.NoError(t, err)
	assert.True(t, grade.IsCorrect)
	assert.Equal(t, "정답", grade.Explanation)
}

func TestClient_Solve_APIFallthroughError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"code":    400,
				"message": "API key not valid",
				"status":  "INVALID_ARGUMENT",
			},
		})
	}))
	defer server.Close()

	cfg := DefaultClientConfig("bad-key")
	cfg.BaseURL = server.URL
	client := NewClient(cfg)

	_, err := client.Solve(context.Background(), []string{"노트"}, "질문?", false, "사용자")
	require.Error(t, err)

	var apiErr *APIErrorDTO
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
	assert.False(t, apiErr.IsRetryable())
}

func TestClient_Reply_FailureIsExternalService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"code":    403,
				"message": "quota exhausted for project",
				"status":  "PERMISSION_DENIED",
			},
		})
	}))
	defer server.Close()

	cfg := DefaultClientConfig("test-key")
	cfg.BaseURL = server.URL
	client := NewClient(cfg)

	_, err := client.Reply(context.Background(), chat.ReplyRequest{
		UserMessage: "안녕",
		PetName:     "코코",
		MBTI:        "INFP",
	})
	require.Error(t, err)

	// Callers downstream decide on a degraded response by this check alone.
	assert.True(t, shared.IsExternalService(err))
}

func TestClassify_MapsOntoSharedSentinels(t *testing.T) {
	assert.NoError(t, classify(nil))

	// Caller-side cancellation is not the model's fault.
	assert.ErrorIs(t, classify(context.Canceled), context.Canceled)
	assert.False(t, shared.IsExternalService(classify(context.Canceled)))

	assert.ErrorIs(t, classify(context.DeadlineExceeded), shared.ErrTimeout)
	assert.ErrorIs(t, classify(&RateLimitError{Message: "rate limit exceeded"}), shared.ErrRateLimited)
	assert.ErrorIs(t, classify(errors.New("connection refused")), shared.ErrServiceUnavailable)

	assert.True(t, shared.IsExternalService(classify(context.DeadlineExceeded)))
	assert.True(t, shared.IsExternalService(classify(&RateLimitError{})))
}
