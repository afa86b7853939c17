package repositories

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"brd2stories/internal/config"
	"brd2stories/internal/models"
)

const defaultAnthropicMaxTokens = 1500

// AnthropicRepository calls the Anthropic Messages API
type AnthropicRepository struct {
	client anthropic.Client
	model  string
}

// NewAnthropicRepository creates a new Anthropic repository
func NewAnthropicRepository(aiConfig *config.AIConfig) *AnthropicRepository {
	opts := []option.RequestOption{
		option.WithAPIKey(aiConfig.APIKey),
		option.WithHTTPClient(&http.Client{
			Timeout: time.Duration(aiConfig.TimeoutSeconds) * time.Second,
		}),
		option.WithMaxRetries(0),
	}
	if aiConfig.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(aiConfig.BaseURL))
	}

	return &AnthropicRepository{
		client: anthropic.NewClient(opts...),
		model:  aiConfig.Model,
	}
}

// Generate sends a system and user prompt and returns the first text block
func (r *AnthropicRepository) Generate(ctx context.Context, req models.GenerationRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.SystemPrompt}}
	}

	resp, err := r.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages request failed: %w", err)
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("empty response from API")
}

// Model returns the model identifier
func (r *AnthropicRepository) Model() string {
	return r.model
}
