package gemini

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/studygotchi/studygotchi-hub/internal/domain/exam"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - Response DTO to domain conversion
// ══════════════════════════════════════════════════════════════════════════════

// ErrEmptyResponse is returned when the model produced no usable text.
var ErrEmptyResponse = errors.New("gemini: empty response")

// Mapper converts raw model output into domain values.
type Mapper struct{}

// NewMapper creates a new Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// TextFromResponse pulls the first candidate's text out of a response.
func (m *Mapper) TextFromResponse(resp *GenerateResponseDTO) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Label prefixes the model keeps gluing onto learning summaries despite the
// prompt telling it not to.
var (
	labelRe     = regexp.MustCompile(`(?i)(^|\n)\s*(study_log|요약|학습\s*요약|학습요약|사용자|펫)\s*:?\s*`)
	leadLabelRe = regexp.MustCompile(`(?i)^\s*(학습요약|학습\s*요약)\s*:?\s*`)
	bulletRe    = regexp.MustCompile(`(?m)^\s*[-–—]\s*`)
)

// CleanLearningSummary strips labels and bullets from an extracted summary.
// An empty result means the exchange held nothing worth saving.
func (m *Mapper) CleanLearningSummary(text string) string {
	text = labelRe.ReplaceAllString(text, "$1")
	text = leadLabelRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// GradeFromText parses the grading verdict out of model output.
// The prompt demands bare JSON but models wrap it in prose and code fences
// anyway, so the parser hunts for the outermost braces. Anything
// unparseable grades as wrong.
func (m *Mapper) GradeFromText(text string) exam.Grade {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return exam.Grade{IsCorrect: false, Explanation: "채점 실패"}
	}

	var verdict VerdictDTO
	if err := json.Unmarshal([]byte(text[start:end+1]), &verdict); err != nil {
		return exam.Grade{IsCorrect: false, Explanation: "채점 실패"}
	}

	explanation := strings.TrimSpace(verdict.Explanation)
	if explanation == "" {
		explanation = "설명 없음"
	}
	return exam.Grade{IsCorrect: verdict.IsCorrect, Explanation: explanation}
}
