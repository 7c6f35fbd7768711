package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"leasewise-backend/models"

	"github.com/google/generative-ai-go/genai"
)

// ClassifierService decides how relevant a legal record is to
// landlord-tenant practice and which templates/categories it affects.
// The primary path is a Gemini JSON-mode completion; any failure or
// unusable output degrades to the deterministic keyword fallback. Errors
// never propagate to callers.
type ClassifierService struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// ClassifierServiceOption is a functional option for ClassifierService
type ClassifierServiceOption func(*ClassifierService)

// ClassifierWithClient sets the Gemini client. A nil client is valid and
// forces the keyword fallback for every record.
func ClassifierWithClient(client *genai.Client) ClassifierServiceOption {
	return func(s *ClassifierService) {
		s.client = client
	}
}

// ClassifierWithModel sets the Gemini model name
func ClassifierWithModel(model string) ClassifierServiceOption {
	return func(s *ClassifierService) {
		s.model = model
	}
}

// ClassifierWithTimeout sets the per-call timeout after which the
// fallback path is used
func ClassifierWithTimeout(timeout time.Duration) ClassifierServiceOption {
	return func(s *ClassifierService) {
		s.timeout = timeout
	}
}

// NewClassifierService creates a new classifier service
func NewClassifierService(opts ...ClassifierServiceOption) *ClassifierService {
	s := &ClassifierService{
		model:   "gemini-2.5-flash",
		timeout: 45 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// maxPromptChars bounds the record text embedded in a prompt to respect
// downstream token limits.
const maxPromptChars = 10000

// truncatePrompt bounds s to at most max bytes without splitting a
// multi-byte rune, so truncated text stays valid UTF-8.
func truncatePrompt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// ClassifyRecord classifies one record against the active template set
// for its jurisdiction. The returned result always satisfies the subset
// invariant: affected ids reference only the given active templates and
// categories only the closed enum.
func (s *ClassifierService) ClassifyRecord(
	ctx context.Context,
	record models.LegalRecord,
	templates []models.DocumentTemplate,
) models.ClassificationResult {
	if s.client == nil {
		return ValidateClassification(FallbackClassify(record), templates)
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.generateJSON(cctx, buildClassificationPrompt(record, templates))
	if err != nil {
		log.Printf("Warning: classifier call failed for %s: %v. Using keyword fallback.", record.ExternalID, err)
		return ValidateClassification(FallbackClassify(record), templates)
	}

	result, err := parseClassificationResponse(raw)
	if err != nil {
		log.Printf("Warning: unusable classifier output for %s: %v. Using keyword fallback.", record.ExternalID, err)
		return ValidateClassification(FallbackClassify(record), templates)
	}

	return ValidateClassification(result, templates)
}

// generateJSON runs one JSON-mode completion at low temperature.
func (s *ClassifierService) generateJSON(ctx context.Context, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.model)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("model returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("model returned empty content")
	}
	return sb.String(), nil
}

func buildClassificationPrompt(record models.LegalRecord, templates []models.DocumentTemplate) string {
	var templateList strings.Builder
	for _, t := range templates {
		if !t.Active {
			continue
		}
		templateList.WriteString(fmt.Sprintf("- id: %s | title: %s | type: %s\n", t.ID, t.Title, t.TemplateType))
	}
	if templateList.Len() == 0 {
		templateList.WriteString("(none)\n")
	}

	var categoryList strings.Builder
	for i, c := range models.AllComplianceCategories {
		if i > 0 {
			categoryList.WriteString(", ")
		}
		categoryList.WriteString(string(c))
	}

	recordText := truncatePrompt(record.Title+"\n\n"+record.Description, maxPromptChars)

	return fmt.Sprintf(`You are a landlord-tenant compliance analyst for a property management platform.

LEGAL RECORD (%s, jurisdiction %s, status %q):
%s

ACTIVE DOCUMENT TEMPLATES FOR THIS JURISDICTION:
%s
TASK:
Assess how relevant this record is to residential landlord-tenant practice and which of the templates above it affects.

Respond with a single JSON object:
{
  "relevance_level": one of "high", "medium", "low", "dismissed",
  "rationale": short plain-language explanation (required, non-empty),
  "affected_template_ids": array of template ids from the list above (empty if none),
  "affected_compliance_categories": array drawn only from: %s,
  "recommended_changes": guidance for a human template editor (may be empty)
}

RULES:
- Only reference template ids that appear in the list above.
- Only use compliance categories from the given list.
- Use "dismissed" for records with no landlord-tenant relevance at all.
- Do not include any text outside the JSON object.`,
		record.NativeNumber,
		record.StateID,
		record.StatusLabel,
		recordText,
		templateList.String(),
		categoryList.String(),
	)
}

// classificationResponse mirrors the JSON shape requested from the model.
type classificationResponse struct {
	RelevanceLevel      string   `json:"relevance_level"`
	Rationale           string   `json:"rationale"`
	AffectedTemplateIDs []string `json:"affected_template_ids"`
	AffectedCategories  []string `json:"affected_compliance_categories"`
	RecommendedChanges  string   `json:"recommended_changes"`
}

// parseClassificationResponse parses the model output. Markdown code
// fences are tolerated; anything else unusable is an error so the caller
// can fall back.
func parseClassificationResponse(raw string) (models.ClassificationResult, error) {
	var result models.ClassificationResult

	var parsed classificationResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		return result, fmt.Errorf("failed to decode classifier JSON: %w", err)
	}

	level := models.RelevanceLevel(strings.ToLower(strings.TrimSpace(parsed.RelevanceLevel)))
	if !level.Valid() {
		return result, fmt.Errorf("unknown relevance level %q", parsed.RelevanceLevel)
	}
	if strings.TrimSpace(parsed.Rationale) == "" {
		return result, errors.New("missing rationale")
	}

	result.RelevanceLevel = level
	result.Rationale = strings.TrimSpace(parsed.Rationale)
	result.AffectedTemplateIDs = parsed.AffectedTemplateIDs
	result.RecommendedChanges = strings.TrimSpace(parsed.RecommendedChanges)
	for _, c := range parsed.AffectedCategories {
		result.AffectedCategories = append(result.AffectedCategories, models.ComplianceCategory(strings.ToLower(strings.TrimSpace(c))))
	}
	return result, nil
}

// stripCodeFence removes a surrounding markdown code fence if present.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
