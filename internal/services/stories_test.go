package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brd2stories/internal/config"
	"brd2stories/internal/models"
)

// stubGenerator returns canned responses keyed by the order of calls
type stubGenerator struct {
	responses []string
	errs      []error
	requests  []models.GenerationRequest
}

func (g *stubGenerator) Generate(_ context.Context, req models.GenerationRequest) (string, error) {
	i := len(g.requests)
	g.requests = append(g.requests, req)

	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return "[]", nil
}

func (g *stubGenerator) Model() string { return "stub-model" }

var testAIConfig = &config.AIConfig{Temperature: 0.3, MaxTokens: 1500}

func testRecord() *models.RequirementsRecord {
	return &models.RequirementsRecord{
		ProjectName:        "Acme",
		BusinessObjectives: []string{"Ship faster"},
		FunctionalRequirements: []models.FunctionalRequirement{
			{ID: "FR-01", Title: "Login", Description: "Users sign in."},
			{ID: "FR-02", Title: "Reports", Description: "Users export reports."},
		},
		UserPersonas: []models.Persona{
			{Name: "Admin", Description: "Runs the system"},
			{Name: "Analyst", Description: "Reads reports"},
		},
	}
}

func TestGenerateStoriesParsesResponses(t *testing.T) {
	gen := &stubGenerator{responses: []string{
		"```json\n[{\"title\": \"Sign in\", \"user_story\": \"As an Admin, I want to sign in so that I can work\", \"acceptance_criteria\": [\"Given valid credentials, When I sign in, Then I see the dashboard\"], \"priority\": \"High\", \"story_points\": 5, \"epic\": \"Access\"}, {\"title\": \"Sign out\"}]\n```",
		`[{"title": "Export CSV", "priority": "low", "story_points": 2, "epic": "Reporting"}]`,
	}}

	stories := NewStoryGeneratorService(gen, testAIConfig).GenerateStories(context.Background(), testRecord())

	require.Len(t, stories, 3)

	assert.Equal(t, "US-01-01", stories[0].ID)
	assert.Equal(t, "Sign in", stories[0].Title)
	assert.Equal(t, models.PriorityHigh, stories[0].Priority)
	assert.Equal(t, 5, stories[0].StoryPoints)
	assert.Equal(t, "Access", stories[0].Epic)
	assert.Equal(t, "FR-01", stories[0].SourceRequirement)

	// defaults backfilled
	assert.Equal(t, "US-01-02", stories[1].ID)
	assert.Equal(t, "Sign out", stories[1].Title)
	assert.Equal(t, models.DefaultNarrative, stories[1].UserStory)
	assert.Equal(t, []string{models.DefaultCriterion}, stories[1].AcceptanceCriteria)
	assert.Equal(t, models.PriorityMedium, stories[1].Priority)
	assert.Equal(t, 3, stories[1].StoryPoints)
	assert.Equal(t, "General", stories[1].Epic)

	assert.Equal(t, "US-02-01", stories[2].ID)
	assert.Equal(t, models.PriorityLow, stories[2].Priority)
	assert.Equal(t, "FR-02", stories[2].SourceRequirement)

	require.Len(t, gen.requests, 2)
	req := gen.requests[0]
	assert.Equal(t, storySystemPrompt, req.SystemPrompt)
	assert.InDelta(t, 0.3, req.Temperature, 1e-9)
	assert.Equal(t, 1500, req.MaxTokens)
	assert.Contains(t, req.UserPrompt, "**Requirement**: FR-01: Login")
	assert.Contains(t, req.UserPrompt, "**Description**: Users sign in.")
	assert.Contains(t, req.UserPrompt, "**Available User Types**: Admin, Analyst")
}

func TestGenerateStoriesFallbackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{
			name: "service error",
			gen:  &stubGenerator{errs: []error{errors.New("connection refused"), errors.New("connection refused")}},
		},
		{
			name: "malformed json",
			gen:  &stubGenerator{responses: []string{"Here are your stories: [", `{"title": "not an array"}`}},
		},
		{
			name: "null responses",
			gen:  &stubGenerator{responses: []string{"null", "[null]"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := testRecord()
			stories := NewStoryGeneratorService(tt.gen, testAIConfig).GenerateStories(context.Background(), record)

			require.Len(t, stories, len(record.FunctionalRequirements))
			for i, story := range stories {
				fr := record.FunctionalRequirements[i]
				assert.Equal(t, "US-"+fr.Number()+"-01", story.ID)
				assert.Equal(t, fr.Title, story.Title)
				assert.Equal(t, "Core Functionality", story.Epic)
				assert.Equal(t, 5, story.StoryPoints)
				assert.Equal(t, models.PriorityMedium, story.Priority)
				assert.Len(t, story.AcceptanceCriteria, 3)
				assert.Equal(t, fr.ID, story.SourceRequirement)
			}
		})
	}
}

func TestGenerateStoriesMixedOutcomes(t *testing.T) {
	gen := &stubGenerator{
		responses: []string{"", `[{"title": "Export"}]`},
		errs:      []error{errors.New("timeout")},
	}

	stories := NewStoryGeneratorService(gen, testAIConfig).GenerateStories(context.Background(), testRecord())

	require.Len(t, stories, 2)
	assert.Equal(t, "Core Functionality", stories[0].Epic)
	assert.Equal(t, "Export", stories[1].Title)
	assert.Equal(t, "General", stories[1].Epic)
}

func TestParseStoryResponse(t *testing.T) {
	fr := models.FunctionalRequirement{ID: "FR-3", Title: "Search"}

	tests := []struct {
		name    string
		text    string
		wantLen int
		wantErr bool
	}{
		{name: "bare array", text: `[{"title": "A"}, {"title": "B"}]`, wantLen: 2},
		{name: "json fence", text: "```json\n[{\"title\": \"A\"}]\n```", wantLen: 1},
		{name: "plain fence", text: "```\n[{\"title\": \"A\"}]\n```", wantLen: 1},
		{name: "surrounding whitespace", text: "\n\n  [] \n", wantLen: 0},
		{name: "object instead of array", text: `{"title": "A"}`, wantErr: true},
		{name: "prose", text: "Sorry, I cannot help with that.", wantErr: true},
		{name: "wrong field type", text: `[{"story_points": "five"}]`, wantErr: true},
		{name: "null", text: `null`, wantErr: true},
		{name: "fenced null", text: "```json\nnull\n```", wantErr: true},
		{name: "null element", text: `[null]`, wantErr: true},
		{name: "null among stories", text: `[{"title": "A"}, null]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stories, err := ParseStoryResponse(tt.text, fr)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, stories, tt.wantLen)
			for i, s := range stories {
				assert.Equal(t, models.StoryID(fr, i+1), s.ID)
				assert.Equal(t, "FR-3", s.SourceRequirement)
			}
		})
	}
}

func TestBuildStoryPromptWithoutPersonas(t *testing.T) {
	prompt, err := BuildStoryPrompt(models.FunctionalRequirement{ID: "FR-9", Title: "Audit", Description: "Keep an audit log."}, nil)
	require.NoError(t, err)

	assert.Contains(t, prompt, "**Requirement**: FR-9: Audit")
	assert.Contains(t, prompt, "**Available User Types**: \n")
	assert.Contains(t, prompt, "Return only the JSON array, no additional text.")
}
