package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/raine/lootlook/internal/appraisal"
	"github.com/rs/zerolog"
)

// DefaultClaudeModel is used when no model is configured.
const DefaultClaudeModel = "claude-haiku-4-5-20251001"

// Claude Haiku pricing (per million tokens)
const (
	claudeInputPricePerMillion  = 0.80
	claudeOutputPricePerMillion = 4.00
)

// Media types accepted by the Messages API for image blocks.
var claudeImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ClaudeConfig configures a ClaudeIdentifier.
type ClaudeConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the Anthropic API endpoint (for testing).
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// ClaudeIdentifier identifies items with Anthropic's Claude vision models.
type ClaudeIdentifier struct {
	client anthropic.Client
	model  string
}

// NewClaudeIdentifier creates a Claude-backed identifier.
func NewClaudeIdentifier(cfg ClaudeConfig) (*ClaudeIdentifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultClaudeModel
	}

	return &ClaudeIdentifier{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// Identify implements appraisal.Identifier.
func (c *ClaudeIdentifier) Identify(ctx context.Context, image []byte) (appraisal.IdentificationResult, error) {
	if len(image) == 0 {
		return appraisal.IdentificationResult{}, &appraisal.IdentificationError{Err: errors.New("no image provided")}
	}

	mediaType := detectImageMIMEType(image)
	if !claudeImageTypes[mediaType] {
		return appraisal.IdentificationResult{}, &appraisal.IdentificationError{
			Err: fmt.Errorf("unsupported image type for claude: %s", mediaType),
		}
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   identifyMaxOutputTokens,
		Temperature: anthropic.Float(identifyTemperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mediaType, base64.StdEncoding.EncodeToString(image)),
				anthropic.NewTextBlock(identificationPrompt),
			),
		},
	})
	if err != nil {
		return appraisal.IdentificationResult{}, &appraisal.IdentificationError{
			Err: fmt.Errorf("failed to create message: %w", err),
		}
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return appraisal.IdentificationResult{}, &appraisal.IdentificationError{
			Err: errors.New("no response from Claude"),
		}
	}

	logger := zerolog.Ctx(ctx)
	logger.Info().
		Str("model", c.model).
		Int64("inputTokens", msg.Usage.InputTokens).
		Int64("outputTokens", msg.Usage.OutputTokens).
		Float64("costUSD", calculateClaudeCost(msg.Usage.InputTokens, msg.Usage.OutputTokens)).
		Msg("vision llm call")

	identification, err := parseIdentification(text)
	if err != nil {
		logger.Error().Err(err).Str("response", text).Msg("failed to parse claude response")
		return degradedFromText(text), nil
	}

	return identification, nil
}

func calculateClaudeCost(inputTokens, outputTokens int64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * claudeInputPricePerMillion
	outputCost := float64(outputTokens) / 1_000_000 * claudeOutputPricePerMillion
	return inputCost + outputCost
}
