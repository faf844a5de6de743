package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/raine/lootlook/internal/appraisal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	got, err := extractJSONObject("```json\n{\"brand\": \"Nike\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"brand": "Nike"}`, got)

	_, err = extractJSONObject("I cannot identify this item")
	assert.Error(t, err)
}

func TestParseIdentification(t *testing.T) {
	text := `{"brand": "Apple", "model": "iPhone 14 Pro", "condition": "Good", "color": null, "category": "Electronics", "raw_description": "Smartphone with minor scratches"}`

	got, err := parseIdentification(text)
	require.NoError(t, err)

	assert.Equal(t, appraisal.IdentificationResult{
		Brand:          "Apple",
		Model:          "iPhone 14 Pro",
		Condition:      "Good",
		Category:       "Electronics",
		RawDescription: "Smartphone with minor scratches",
	}, got)
}

func TestParseIdentification_Defaults(t *testing.T) {
	got, err := parseIdentification(`{"brand": "null", "model": ""}`)
	require.NoError(t, err)

	assert.Equal(t, "", got.Brand)
	assert.Equal(t, "", got.Model)
	assert.Equal(t, appraisal.UnknownCategory, got.Category)
	assert.Equal(t, "No description available", got.RawDescription)
}

func TestParseIdentification_NullDescriptionStaysEmpty(t *testing.T) {
	got, err := parseIdentification(`{"category": "Toys", "raw_description": null}`)
	require.NoError(t, err)

	assert.Equal(t, "Toys", got.Category)
	assert.Equal(t, "", got.RawDescription)
}

func TestParseIdentification_InvalidJSON(t *testing.T) {
	_, err := parseIdentification(`{"brand": Nike}`)
	assert.Error(t, err)
}

func TestDegradedFromText(t *testing.T) {
	long := strings.Repeat("x", 300)

	got := degradedFromText(long)
	assert.Equal(t, appraisal.UnknownCategory, got.Category)
	assert.Len(t, got.RawDescription, 200)

	assert.Equal(t, "Parse error", degradedFromText("  ").RawDescription)
}

func TestDetectImageMIMEType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.Equal(t, "image/png", detectImageMIMEType(png))
	assert.Equal(t, "image/jpeg", detectImageMIMEType([]byte("not an image")))
}

func TestCalculateGeminiCost(t *testing.T) {
	assert.InDelta(t, 0.5, calculateGeminiCost(1_000_000, 1_000_000), 1e-9)
}

func geminiTestServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, ":generateContent")

		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": answer}},
				},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     258,
				"candidatesTokenCount": 60,
				"totalTokenCount":      318,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestGeminiIdentifier_Identify(t *testing.T) {
	ts := geminiTestServer(t, `{"brand": "Nike", "model": "Air Jordan 1", "condition": "Excellent", "color": "Red", "category": "Sneakers", "raw_description": "High-top sneaker"}`)
	defer ts.Close()

	ctx := context.Background()
	identifier, err := NewGeminiIdentifier(ctx, GeminiConfig{APIKey: "test-key", BaseURL: ts.URL})
	require.NoError(t, err)

	got, err := identifier.Identify(ctx, []byte("\xff\xd8\xff\xe0jpeg"))
	require.NoError(t, err)

	assert.Equal(t, "Nike", got.Brand)
	assert.Equal(t, "Air Jordan 1", got.Model)
	assert.Equal(t, "Sneakers", got.Category)
}

func TestGeminiIdentifier_SendsSafetySettings(t *testing.T) {
	var body string
	answer := geminiTestServer(t, `{"category": "Tools", "raw_description": "Folding knife"}`)
	defer answer.Close()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		r.Body = io.NopCloser(strings.NewReader(body))
		answer.Config.Handler.ServeHTTP(w, r)
	}))
	defer ts.Close()

	ctx := context.Background()
	identifier, err := NewGeminiIdentifier(ctx, GeminiConfig{APIKey: "test-key", BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = identifier.Identify(ctx, []byte("\xff\xd8\xff\xe0jpeg"))
	require.NoError(t, err)

	assert.Contains(t, body, "HARM_CATEGORY_DANGEROUS_CONTENT")
	assert.Equal(t, 4, strings.Count(body, "BLOCK_ONLY_HIGH"))
}

func TestGeminiIdentifier_UnparseableAnswerDegrades(t *testing.T) {
	ts := geminiTestServer(t, "Sorry, this looks like a blurry photo of a shoe")
	defer ts.Close()

	ctx := context.Background()
	identifier, err := NewGeminiIdentifier(ctx, GeminiConfig{APIKey: "test-key", BaseURL: ts.URL})
	require.NoError(t, err)

	got, err := identifier.Identify(ctx, []byte("img"))
	require.NoError(t, err)

	assert.Equal(t, appraisal.UnknownCategory, got.Category)
	assert.Equal(t, "Sorry, this looks like a blurry photo of a shoe", got.RawDescription)
}

func TestGeminiIdentifier_UpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer ts.Close()

	ctx := context.Background()
	identifier, err := NewGeminiIdentifier(ctx, GeminiConfig{APIKey: "bad", BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = identifier.Identify(ctx, []byte("img"))

	var idErr *appraisal.IdentificationError
	assert.ErrorAs(t, err, &idErr)
}

func TestNewGeminiIdentifier_RequiresKey(t *testing.T) {
	_, err := NewGeminiIdentifier(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}
