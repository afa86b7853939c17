package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Supported text-generation providers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const (
	defaultOpenAIModel    = "gpt-3.5-turbo"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
)

// Config represents the application configuration
type Config struct {
	AI         AIConfig         `yaml:"ai"`
	Jira       JiraConfig       `yaml:"jira"`
	Processing ProcessingConfig `yaml:"processing"`
}

// AIConfig represents the text-generation service configuration
type AIConfig struct {
	Provider       string  `yaml:"provider"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url,omitempty"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// JiraConfig represents JIRA API configuration
type JiraConfig struct {
	BaseURL        string `yaml:"base_url"`
	Username       string `yaml:"username"`
	APIToken       string `yaml:"api_token"`
	ProjectKey     string `yaml:"project_key"`
	Timeout        int    `yaml:"timeout_seconds"`
	StoryIssueType string `yaml:"story_issue_type"`
}

// ProcessingConfig represents input/output configuration
type ProcessingConfig struct {
	InputFile        string `yaml:"input_file"`
	OutputFile       string `yaml:"output_file"`
	SaveIntermediate bool   `yaml:"save_intermediate"`
	HTMLOutput       bool   `yaml:"html_output"`
}

// Default returns the configuration used when no config file exists.
// Model is left empty and picked per provider after loading.
func Default() *Config {
	return &Config{
		AI: AIConfig{
			Provider:       ProviderOpenAI,
			Temperature:    0.3,
			MaxTokens:      1500,
			TimeoutSeconds: 120,
		},
		Jira: JiraConfig{
			Timeout:        30,
			StoryIssueType: "Story",
		},
		Processing: ProcessingConfig{
			InputFile:        "requirements/requirements.md",
			OutputFile:       "output/User_Stories_Document.md",
			SaveIntermediate: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file, then applies .env and
// environment overrides. A missing config file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// .env is optional
	_ = godotenv.Load()

	config.applyEnv()
	config.applyDefaults()

	return config, nil
}

// applyEnv overrides secrets with values from the environment
func (c *Config) applyEnv() {
	keyVar := "OPENAI_API_KEY"
	if strings.EqualFold(c.AI.Provider, ProviderAnthropic) {
		keyVar = "ANTHROPIC_API_KEY"
	}
	if v := os.Getenv(keyVar); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("JIRA_BASE_URL"); v != "" {
		c.Jira.BaseURL = v
	}
	if v := os.Getenv("JIRA_USERNAME"); v != "" {
		c.Jira.Username = v
	}
	if v := os.Getenv("JIRA_API_TOKEN"); v != "" {
		c.Jira.APIToken = v
	}
}

// applyDefaults fills zero values left by a partial config file
func (c *Config) applyDefaults() {
	def := Default()

	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		c.AI.Provider = def.AI.Provider
	}
	if c.AI.Model == "" {
		c.AI.Model = defaultOpenAIModel
		if c.AI.Provider == ProviderAnthropic {
			c.AI.Model = defaultAnthropicModel
		}
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = def.AI.MaxTokens
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = def.AI.TimeoutSeconds
	}
	if c.Jira.Timeout == 0 {
		c.Jira.Timeout = def.Jira.Timeout
	}
	if c.Jira.StoryIssueType == "" {
		c.Jira.StoryIssueType = def.Jira.StoryIssueType
	}
	if c.Processing.InputFile == "" {
		c.Processing.InputFile = def.Processing.InputFile
	}
	if c.Processing.OutputFile == "" {
		c.Processing.OutputFile = def.Processing.OutputFile
	}
}

// ValidateGeneration validates the settings needed to generate stories
func (c *Config) ValidateGeneration() error {
	switch c.AI.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported AI provider %q", c.AI.Provider)
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.AI.Temperature)
	}

	return nil
}

// HasAPIKey reports whether a credential is configured for the AI provider
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.AI.APIKey) != ""
}

// ValidateJira validates the settings needed to publish to JIRA
func (c *Config) ValidateJira() error {
	if c.Jira.BaseURL == "" {
		return fmt.Errorf("JIRA base URL is required")
	}

	if c.Jira.Username == "" {
		return fmt.Errorf("JIRA username is required")
	}

	if c.Jira.APIToken == "" {
		return fmt.Errorf("JIRA API token is required")
	}

	if c.Jira.ProjectKey == "" {
		return fmt.Errorf("JIRA project key is required")
	}

	return nil
}

// SaveConfig writes the configuration as YAML
func SaveConfig(config *Config, configPath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Sample returns a configuration with placeholder credentials for `init`
func Sample() *Config {
	config := Default()
	config.AI.Model = defaultOpenAIModel
	config.AI.APIKey = "your-openai-api-key-here"
	config.Jira.BaseURL = "https://your-domain.atlassian.net"
	config.Jira.Username = "your-email@example.com"
	config.Jira.APIToken = "your-jira-api-token"
	config.Jira.ProjectKey = "PROJ"
	return config
}
