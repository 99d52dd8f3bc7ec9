package gemini

import "fmt"

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DTOs
// generateContent wire format, see
// https://ai.google.dev/api/generate-content
// ══════════════════════════════════════════════════════════════════════════════

// GenerateRequestDTO is the body of a generateContent call.
type GenerateRequestDTO struct {
	Contents         []ContentDTO         `json:"contents"`
	GenerationConfig *GenerationConfigDTO `json:"generationConfig,omitempty"`
}

// ContentDTO is one turn of model input or output.
type ContentDTO struct {
	Role  string    `json:"role,omitempty"`
	Parts []PartDTO `json:"parts"`
}

// PartDTO is a single text fragment.
type PartDTO struct {
	Text string `json:"text"`
}

// GenerationConfigDTO tunes the generation.
type GenerationConfigDTO struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// GenerateResponseDTO is the body of a generateContent response.
type GenerateResponseDTO struct {
	Candidates []CandidateDTO `json:"candidates"`
	Error      *APIErrorDTO   `json:"error,omitempty"`
}

// CandidateDTO is one generated completion.
type CandidateDTO struct {
	Content      ContentDTO `json:"content"`
	FinishReason string     `json:"finishReason,omitempty"`
}

// APIErrorDTO is the error envelope the API returns on failure.
type APIErrorDTO struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	return fmt.Sprintf("gemini api error %d (%s): %s", e.Code, e.Status, e.Message)
}

// IsRetryable reports whether the call is worth repeating.
func (e *APIErrorDTO) IsRetryable() bool {
	return e.Code == 429 || e.Code >= 500
}

// VerdictDTO is the JSON verdict the grading prompt asks the model to emit.
type VerdictDTO struct {
	IsCorrect   bool   `json:"is_correct"`
	Explanation string `json:"explanation"`
}