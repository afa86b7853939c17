package models

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the business priority of a user story
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Story defaults applied when the generation service omits a field
const (
	DefaultStoryTitle       = "User Story"
	DefaultNarrative        = "As a user, I want functionality so that I can achieve my goal"
	DefaultCriterion        = "Given a condition, When an action occurs, Then an outcome happens"
	DefaultStoryPoints      = 3
	DefaultEpic             = "General"
	FallbackEpic            = "Core Functionality"
	FallbackStoryPoints     = 5
	fallbackNarrativeFormat = "As a user, I want %s so that I can achieve my goals"
)

// ParsePriority normalizes a priority label; unknown labels become Medium
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// Rank orders priorities High < Medium < Low
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// UserStory represents a generated user story
type UserStory struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	UserStory          string   `json:"user_story"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	Priority           Priority `json:"priority"`
	StoryPoints        int      `json:"story_points"`
	Epic               string   `json:"epic"`
	SourceRequirement  string   `json:"source_requirement"`
}

// StoryDraft is a story object as returned by the generation service.
// Every field is optional; nil means the service left it out.
type StoryDraft struct {
	Title              *string  `json:"title"`
	UserStory          *string  `json:"user_story"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	Priority           *string  `json:"priority"`
	StoryPoints        *int     `json:"story_points"`
	Epic               *string  `json:"epic"`
}

// StoryID builds the story identifier US-<requirement number>-<seq>
func StoryID(fr FunctionalRequirement, seq int) string {
	return fmt.Sprintf("US-%s-%02d", fr.Number(), seq)
}

// NewUserStory builds a story from a draft, filling every missing field with its default
func NewUserStory(draft StoryDraft, fr FunctionalRequirement, seq int) UserStory {
	story := UserStory{
		ID:                 StoryID(fr, seq),
		Title:              DefaultStoryTitle,
		UserStory:          DefaultNarrative,
		AcceptanceCriteria: []string{DefaultCriterion},
		Priority:           PriorityMedium,
		StoryPoints:        DefaultStoryPoints,
		Epic:               DefaultEpic,
		SourceRequirement:  fr.ID,
	}

	if draft.Title != nil {
		story.Title = *draft.Title
	}
	if draft.UserStory != nil {
		story.UserStory = *draft.UserStory
	}
	if draft.AcceptanceCriteria != nil {
		story.AcceptanceCriteria = draft.AcceptanceCriteria
	}
	if draft.Priority != nil {
		story.Priority = ParsePriority(*draft.Priority)
	}
	if draft.StoryPoints != nil && *draft.StoryPoints > 0 {
		story.StoryPoints = *draft.StoryPoints
	}
	if draft.Epic != nil {
		story.Epic = *draft.Epic
	}

	return story
}

// FallbackStory is the single story emitted for a requirement when generation fails
func FallbackStory(fr FunctionalRequirement) UserStory {
	return UserStory{
		ID:        StoryID(fr, 1),
		Title:     fr.Title,
		UserStory: fmt.Sprintf(fallbackNarrativeFormat, fr.Title),
		AcceptanceCriteria: []string{
			"Given the user has access to the system",
			"When they perform the required action",
			"Then the system should respond appropriately",
		},
		Priority:          PriorityMedium,
		StoryPoints:       FallbackStoryPoints,
		Epic:              FallbackEpic,
		SourceRequirement: fr.ID,
	}
}

// StoriesFile is the saved output of a generation run
type StoriesFile struct {
	ProjectName string      `json:"project_name"`
	GeneratedAt time.Time   `json:"generated_at"`
	Provider    string      `json:"provider"`
	Model       string      `json:"model"`
	Stories     []UserStory `json:"stories"`
}

// TotalStoryPoints sums the story points of the given stories
func TotalStoryPoints(stories []UserStory) int {
	total := 0
	for _, s := range stories {
		total += s.StoryPoints
	}
	return total
}
