package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"brd2stories/internal/config"
	"brd2stories/internal/models"
)

// JiraRepository handles JIRA REST API interactions
type JiraRepository struct {
	config  *config.JiraConfig
	client  *http.Client
	baseURL string
}

// NewJiraRepository creates a new JIRA repository
func NewJiraRepository(jiraConfig *config.JiraConfig) *JiraRepository {
	return &JiraRepository{
		config:  jiraConfig,
		baseURL: strings.TrimSuffix(jiraConfig.BaseURL, "/"),
		client: &http.Client{
			Timeout: time.Duration(jiraConfig.Timeout) * time.Second,
		},
	}
}

// ListProjects returns the projects accessible to the configured user
func (r *JiraRepository) ListProjects(ctx context.Context) ([]models.JiraProjectInfo, error) {
	var projects []models.JiraProjectInfo
	if err := r.do(ctx, http.MethodGet, "/rest/api/2/project", nil, http.StatusOK, &projects); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// GetIssueTypes gets the issue types available in a project
func (r *JiraRepository) GetIssueTypes(ctx context.Context, projectKey string) ([]models.JiraIssueTypeInfo, error) {
	var projectInfo struct {
		IssueTypes []models.JiraIssueTypeInfo `json:"issueTypes"`
	}
	if err := r.do(ctx, http.MethodGet, "/rest/api/2/project/"+projectKey, nil, http.StatusOK, &projectInfo); err != nil {
		return nil, fmt.Errorf("reading project %s: %w", projectKey, err)
	}
	return projectInfo.IssueTypes, nil
}

// CreateIssue creates a new JIRA issue
func (r *JiraRepository) CreateIssue(ctx context.Context, issue *models.JiraIssue) (*models.JiraResponse, error) {
	var jiraResp models.JiraResponse
	if err := r.do(ctx, http.MethodPost, "/rest/api/2/issue", issue, http.StatusCreated, &jiraResp); err != nil {
		return nil, fmt.Errorf("creating issue: %w", err)
	}
	return &jiraResp, nil
}

func (r *JiraRepository) do(ctx context.Context, method, path string, body interface{}, wantStatus int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(r.config.Username, r.config.APIToken)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("JIRA API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
