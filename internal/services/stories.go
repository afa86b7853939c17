package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"brd2stories/internal/config"
	"brd2stories/internal/helpers"
	"brd2stories/internal/models"
)

const storySystemPrompt = "You are an expert product manager and business analyst who creates high-quality user stories from business requirements."

var storyPromptTmpl = template.Must(template.New("stories").Parse(`
Convert this functional requirement into 1-3 detailed user stories:

**Requirement**: {{.ID}}: {{.Title}}
**Description**: {{.Description}}
**Available User Types**: {{.Personas}}

For each user story, provide:
1. **Title**: Short descriptive title
2. **User Story**: "As a [user type], I want [goal] so that [benefit]"
3. **Acceptance Criteria**: 3-5 specific Given-When-Then scenarios
4. **Priority**: High/Medium/Low based on business impact
5. **Story Points**: Estimate 1-13 (Fibonacci: 1,2,3,5,8,13)
6. **Epic**: Group related functionality (e.g., "User Management", "Task Management")

Format your response as a JSON array of story objects like this:
[
  {
    "title": "User Registration",
    "user_story": "As a new user, I want to create an account so that I can access the task management system",
    "acceptance_criteria": [
      "Given I am on the registration page, When I enter valid email and password, Then my account should be created",
      "Given I register with an email, When I check my inbox, Then I should receive a verification email"
    ],
    "priority": "High",
    "story_points": 5,
    "epic": "User Management"
  }
]

Return only the JSON array, no additional text.
`))

// StoryGeneratorService turns functional requirements into user stories
type StoryGeneratorService struct {
	generator   TextGenerator
	temperature float64
	maxTokens   int
}

// NewStoryGeneratorService creates a story generator backed by generator
func NewStoryGeneratorService(generator TextGenerator, aiConfig *config.AIConfig) *StoryGeneratorService {
	return &StoryGeneratorService{
		generator:   generator,
		temperature: aiConfig.Temperature,
		maxTokens:   aiConfig.MaxTokens,
	}
}

// GenerateStories generates stories for every functional requirement, in
// record order. A requirement whose call or response fails yields exactly
// one fallback story.
func (s *StoryGeneratorService) GenerateStories(ctx context.Context, record *models.RequirementsRecord) []models.UserStory {
	var all []models.UserStory
	total := len(record.FunctionalRequirements)

	for i, fr := range record.FunctionalRequirements {
		helpers.PrintProgress(i+1, total, fmt.Sprintf("Generating stories for %s: %s", fr.ID, fr.Title))

		stories, err := s.GenerateForRequirement(ctx, fr, record)
		if err != nil {
			helpers.PrintWarning("Error generating stories for %s: %v", fr.ID, err)
			stories = []models.UserStory{models.FallbackStory(fr)}
		}

		all = append(all, stories...)
	}

	return all
}

// GenerateForRequirement makes one generation call for fr and parses the result
func (s *StoryGeneratorService) GenerateForRequirement(ctx context.Context, fr models.FunctionalRequirement, record *models.RequirementsRecord) ([]models.UserStory, error) {
	prompt, err := BuildStoryPrompt(fr, record.PersonaNames())
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := s.generator.Generate(ctx, models.GenerationRequest{
		SystemPrompt: storySystemPrompt,
		UserPrompt:   prompt,
		Temperature:  s.temperature,
		MaxTokens:    s.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	return ParseStoryResponse(text, fr)
}

// BuildStoryPrompt renders the generation prompt for one requirement
func BuildStoryPrompt(fr models.FunctionalRequirement, personaNames []string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		ID          string
		Title       string
		Description string
		Personas    string
	}{
		ID:          fr.ID,
		Title:       fr.Title,
		Description: fr.Description,
		Personas:    strings.Join(personaNames, ", "),
	}

	if err := storyPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ParseStoryResponse decodes a JSON array of stories, optionally wrapped in a
// markdown code fence, and fills defaults for missing fields
func ParseStoryResponse(text string, fr models.FunctionalRequirement) ([]models.UserStory, error) {
	cleaned := stripCodeFence(text)

	var drafts []*models.StoryDraft
	if err := json.Unmarshal([]byte(cleaned), &drafts); err != nil {
		return nil, fmt.Errorf("failed to parse AI response as JSON: %w", err)
	}
	if drafts == nil {
		return nil, fmt.Errorf("AI response is not a JSON array")
	}

	stories := make([]models.UserStory, 0, len(drafts))
	for i, draft := range drafts {
		if draft == nil {
			return nil, fmt.Errorf("AI response story %d is null", i+1)
		}
		stories = append(stories, models.NewUserStory(*draft, fr, i+1))
	}

	return stories, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
