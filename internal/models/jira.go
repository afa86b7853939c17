package models

// JiraIssue represents a JIRA issue create request
type JiraIssue struct {
	Fields JiraFields `json:"fields"`
}

// JiraFields represents JIRA issue fields
type JiraFields struct {
	Project     JiraProject   `json:"project"`
	Summary     string        `json:"summary"`
	Description string        `json:"description"`
	IssueType   JiraIssueType `json:"issuetype"`
	Parent      *JiraParent   `json:"parent,omitempty"`
	Labels      []string      `json:"labels,omitempty"`
}

// JiraProject represents a JIRA project reference
type JiraProject struct {
	Key string `json:"key"`
}

// JiraIssueType represents a JIRA issue type reference
type JiraIssueType struct {
	Name string `json:"name"`
}

// JiraParent represents the parent (epic) of an issue
type JiraParent struct {
	Key string `json:"key"`
}

// JiraResponse represents the JIRA create issue response
type JiraResponse struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// JiraProjectInfo represents JIRA project information
type JiraProjectInfo struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// JiraIssueTypeInfo represents an issue type available in a project
type JiraIssueTypeInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PublishResult records the JIRA keys created for a stories file
type PublishResult struct {
	Epics   map[string]string `json:"epics"`   // epic name -> JIRA key
	Stories map[string]string `json:"stories"` // story ID -> JIRA key
	Failed  []string          `json:"failed,omitempty"`
}
