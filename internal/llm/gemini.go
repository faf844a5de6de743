package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lithammer/dedent"
	"github.com/raine/lootlook/internal/appraisal"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.10
	geminiOutputPricePerMillion = 0.40
)

const (
	identifyTemperature     = 0.1
	identifyMaxOutputTokens = 500
	maxDegradedTextLength   = 200
	fallbackMIMEType        = "image/jpeg"
)

var identificationPrompt = strings.TrimSpace(dedent.Dedent(`
	You are an expert appraiser and product identifier. Analyze this image and identify the item shown.

	Your task is to identify:
	1. Brand: The manufacturer or brand name (e.g., Nike, Apple, Sony)
	2. Model: The specific model name/number (e.g., Air Jordan 1, iPhone 14 Pro)
	3. Condition: Rate as one of: Mint, Excellent, Good, Fair, Poor
	4. Color: Primary color(s) of the item
	5. Category: One of: Sneakers, Electronics, Vintage, Collectibles, Clothing, Accessories, Toys, Books, Art, Furniture, Sports, Tools, Jewelry, Other

	Respond ONLY with valid JSON in this exact format:
	{"brand": "string or null", "model": "string or null", "condition": "string or null", "color": "string or null", "category": "string", "raw_description": "A brief 1-2 sentence description of the item for resale purposes"}

	If you cannot identify a field, use null. Always provide category and raw_description.
	Focus on accuracy - only identify what you can clearly see.
`))

// GeminiConfig configures a GeminiIdentifier.
type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the Gemini API endpoint (for testing).
	BaseURL string
	// Timeout bounds each Identify call. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// GeminiIdentifier identifies items with Google's Gemini vision models.
type GeminiIdentifier struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiIdentifier creates a Gemini-backed identifier.
func NewGeminiIdentifier(ctx context.Context, cfg GeminiConfig) (*GeminiIdentifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &GeminiIdentifier{client: client, model: model, timeout: cfg.Timeout}, nil
}

// Identify implements appraisal.Identifier.
func (g *GeminiIdentifier) Identify(ctx context.Context, image []byte) (appraisal.IdentificationResult, error) {
	if len(image) == 0 {
		return appraisal.IdentificationResult{}, &appraisal.IdentificationError{Err: fmt.Errorf("no image provided")}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	parts := []*genai.Part{
		genai.NewPartFromText(identificationPrompt),
		{InlineData: &genai.Blob{Data: image, MIMEType: detectImageMIMEType(image)}},
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](identifyTemperature),
		MaxOutputTokens:  identifyMaxOutputTokens,
		ResponseMIMEType: "application/json",
		SafetySettings:   blockOnlyHigh(),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return appraisal.IdentificationResult{}, &appraisal.IdentificationError{
			Err: fmt.Errorf("failed to generate content: %w", err),
		}
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return appraisal.IdentificationResult{}, &appraisal.IdentificationError{
			Err: fmt.Errorf("no response from Gemini"),
		}
	}

	logger := zerolog.Ctx(ctx)
	if result.UsageMetadata != nil {
		inputTokens := int64(result.UsageMetadata.PromptTokenCount)
		outputTokens := int64(result.UsageMetadata.CandidatesTokenCount)
		logger.Info().
			Str("model", g.model).
			Int64("inputTokens", inputTokens).
			Int64("outputTokens", outputTokens).
			Float64("costUSD", calculateGeminiCost(inputTokens, outputTokens)).
			Msg("vision llm call")
	}

	text := result.Text()
	identification, err := parseIdentification(text)
	if err != nil {
		logger.Error().Err(err).Str("response", text).Msg("failed to parse gemini response")
		return degradedFromText(text), nil
	}

	return identification, nil
}

// blockOnlyHigh relaxes the default filters so photos of knives, lighters and
// similar resale items still get identified.
func blockOnlyHigh() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
		})
	}
	return settings
}

func calculateGeminiCost(inputTokens, outputTokens int64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * geminiInputPricePerMillion
	outputCost := float64(outputTokens) / 1_000_000 * geminiOutputPricePerMillion
	return inputCost + outputCost
}

// detectImageMIMEType sniffs the image format. HEIC and other formats the
// standard sniffer does not know fall back to JPEG.
func detectImageMIMEType(image []byte) string {
	mimeType := http.DetectContentType(image)
	if strings.HasPrefix(mimeType, "image/") {
		return mimeType
	}
	return fallbackMIMEType
}

// extractJSONObject extracts a JSON object from text that may contain markdown
// code blocks or other formatting. Returns the extracted JSON string or an error.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}
	return text[start : end+1], nil
}

// geminiIdentification mirrors the JSON the prompt asks for.
type geminiIdentification struct {
	Brand          *string `json:"brand"`
	Model          *string `json:"model"`
	Condition      *string `json:"condition"`
	Color          *string `json:"color"`
	Category       *string `json:"category"`
	RawDescription *string `json:"raw_description"`
}

func parseIdentification(text string) (appraisal.IdentificationResult, error) {
	jsonStr, err := extractJSONObject(text)
	if err != nil {
		return appraisal.IdentificationResult{}, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	var raw geminiIdentification
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return appraisal.IdentificationResult{}, fmt.Errorf("failed to parse response JSON: %w (response: %s)", err, jsonStr)
	}

	result := appraisal.IdentificationResult{
		Brand:          clean(raw.Brand),
		Model:          clean(raw.Model),
		Condition:      clean(raw.Condition),
		Color:          clean(raw.Color),
		Category:       clean(raw.Category),
		RawDescription: clean(raw.RawDescription),
	}
	if result.Category == "" {
		result.Category = appraisal.UnknownCategory
	}
	// Only a missing key gets the default; an explicit null means the model
	// had nothing to say.
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &keys); err == nil {
		if _, ok := keys["raw_description"]; !ok {
			result.RawDescription = "No description available"
		}
	}

	return result, nil
}

// clean normalizes an optional field. Models sometimes answer "null" as a
// string instead of a JSON null.
func clean(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	if strings.EqualFold(v, "null") {
		return ""
	}
	return v
}

// degradedFromText keeps whatever the model said as the description when its
// answer could not be parsed.
func degradedFromText(text string) appraisal.IdentificationResult {
	desc := strings.TrimSpace(text)
	if desc == "" {
		desc = "Parse error"
	}
	if r := []rune(desc); len(r) > maxDegradedTextLength {
		desc = string(r[:maxDegradedTextLength])
	}
	return appraisal.IdentificationResult{
		Category:       appraisal.UnknownCategory,
		RawDescription: desc,
	}
}
