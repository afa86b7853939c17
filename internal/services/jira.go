package services

import (
	"context"
	"fmt"
	"strings"

	"brd2stories/internal/config"
	"brd2stories/internal/helpers"
	"brd2stories/internal/models"
	"brd2stories/internal/repositories"
)

const epicIssueType = "Epic"

// JiraService publishes generated user stories to JIRA
type JiraService struct {
	repo   *repositories.JiraRepository
	config *config.JiraConfig
}

// NewJiraService creates a new JIRA service
func NewJiraService(jiraConfig *config.JiraConfig) *JiraService {
	return &JiraService{
		repo:   repositories.NewJiraRepository(jiraConfig),
		config: jiraConfig,
	}
}

// TestConnection checks authentication, project access, and that the
// project offers the issue types we create
func (s *JiraService) TestConnection(ctx context.Context) error {
	helpers.PrintInfo("Testing JIRA authentication and listing accessible projects...")

	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	helpers.PrintSuccess("Authentication successful! Found %d accessible projects", len(projects))

	projectFound := false
	for _, project := range projects {
		if project.Key == s.config.ProjectKey {
			projectFound = true
			break
		}
	}
	if !projectFound {
		return fmt.Errorf("project key '%s' not found in accessible projects", s.config.ProjectKey)
	}

	issueTypes, err := s.repo.GetIssueTypes(ctx, s.config.ProjectKey)
	if err != nil {
		return fmt.Errorf("failed to access project: %w", err)
	}

	available := make(map[string]bool, len(issueTypes))
	for _, it := range issueTypes {
		available[it.Name] = true
	}
	for _, want := range []string{epicIssueType, s.config.StoryIssueType} {
		if !available[want] {
			return fmt.Errorf("issue type '%s' is not available in project '%s'", want, s.config.ProjectKey)
		}
	}

	helpers.PrintSuccess("JIRA connection successful")
	return nil
}

// CreateIssue creates a single JIRA issue, optionally under an epic
func (s *JiraService) CreateIssue(ctx context.Context, summary, description, issueType, epicKey string, labels []string) (string, error) {
	issue := &models.JiraIssue{
		Fields: models.JiraFields{
			Project:     models.JiraProject{Key: s.config.ProjectKey},
			Summary:     summary,
			Description: description,
			IssueType:   models.JiraIssueType{Name: issueType},
			Labels:      labels,
		},
	}

	if epicKey != "" && issueType != epicIssueType {
		issue.Fields.Parent = &models.JiraParent{Key: epicKey}
	}

	resp, err := s.repo.CreateIssue(ctx, issue)
	if err != nil {
		return "", err
	}

	return resp.Key, nil
}

// PublishStories creates one epic per epic group and one story issue per
// user story. A failed story is recorded and skipped; a failed epic aborts.
func (s *JiraService) PublishStories(ctx context.Context, file *models.StoriesFile) (*models.PublishResult, error) {
	result := &models.PublishResult{
		Epics:   make(map[string]string),
		Stories: make(map[string]string),
	}

	epics := GroupByEpic(file.Stories)
	for i, epic := range epics {
		helpers.PrintProgress(i+1, len(epics), fmt.Sprintf("Creating epic: %s", epic.Name))

		description := fmt.Sprintf("%s epic for %s (%d stories, %d story points)",
			epic.Name, file.ProjectName, len(epic.Stories), epic.Points())
		epicKey, err := s.CreateIssue(ctx, epic.Name, description, epicIssueType, "", nil)
		if err != nil {
			return result, fmt.Errorf("failed to create epic '%s': %w", epic.Name, err)
		}

		result.Epics[epic.Name] = epicKey
		helpers.PrintSuccess("Created epic: %s", epicKey)

		for _, story := range epic.Stories {
			summary := fmt.Sprintf("%s: %s", story.ID, story.Title)
			labels := []string{story.SourceRequirement, "priority-" + strings.ToLower(string(story.Priority))}

			storyKey, err := s.CreateIssue(ctx, summary, StoryDescription(story), s.config.StoryIssueType, epicKey, labels)
			if err != nil {
				helpers.PrintWarning("Failed to create story '%s': %v", story.ID, err)
				result.Failed = append(result.Failed, story.ID)
				continue
			}

			result.Stories[story.ID] = storyKey
			helpers.PrintSuccess("Created story: %s", storyKey)
		}
	}

	return result, nil
}

// StoryDescription formats a story as a JIRA wiki-markup description
func StoryDescription(story models.UserStory) string {
	var b strings.Builder

	b.WriteString(story.UserStory)
	b.WriteString("\n\n*Acceptance Criteria:*\n")
	for _, criterion := range story.AcceptanceCriteria {
		fmt.Fprintf(&b, "# %s\n", criterion)
	}
	fmt.Fprintf(&b, "\n*Priority:* %s | *Story Points:* %d | *Source:* %s",
		story.Priority, story.StoryPoints, story.SourceRequirement)

	return b.String()
}
