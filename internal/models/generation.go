package models

// GenerationRequest is one call to a text-generation service
type GenerationRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
}
