package repositories

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"brd2stories/internal/config"
	"brd2stories/internal/models"
)

// OpenAIRepository calls the OpenAI chat completions API
type OpenAIRepository struct {
	client openai.Client
	model  string
}

// NewOpenAIRepository creates a new OpenAI repository
func NewOpenAIRepository(aiConfig *config.AIConfig) *OpenAIRepository {
	opts := []option.RequestOption{
		option.WithAPIKey(aiConfig.APIKey),
		option.WithHTTPClient(&http.Client{
			Timeout: time.Duration(aiConfig.TimeoutSeconds) * time.Second,
		}),
		// no retry policy
		option.WithMaxRetries(0),
	}
	if aiConfig.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(aiConfig.BaseURL))
	}

	return &OpenAIRepository{
		client: openai.NewClient(opts...),
		model:  aiConfig.Model,
	}
}

// Generate sends a system and user prompt and returns the first choice's text
func (r *OpenAIRepository) Generate(ctx context.Context, req models.GenerationRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: r.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return resp.Choices[0].Message.Content, nil
}

// Model returns the model identifier
func (r *OpenAIRepository) Model() string {
	return r.model
}
