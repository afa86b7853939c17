package services

import (
	"context"
	"fmt"

	"brd2stories/internal/config"
	"brd2stories/internal/models"
	"brd2stories/internal/repositories"
)

// TextGenerator is an external text-generation service
type TextGenerator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (string, error)
	Model() string
}

// NewTextGenerator builds the generator for the configured provider
func NewTextGenerator(aiConfig *config.AIConfig) (TextGenerator, error) {
	switch aiConfig.Provider {
	case config.ProviderOpenAI:
		return repositories.NewOpenAIRepository(aiConfig), nil
	case config.ProviderAnthropic:
		return repositories.NewAnthropicRepository(aiConfig), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", aiConfig.Provider)
	}
}
