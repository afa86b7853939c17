package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"brd2stories/internal/config"
	"brd2stories/internal/helpers"
	"brd2stories/internal/models"
	"brd2stories/internal/services"

	"github.com/spf13/cobra"
)

var (
	configFile string
	dryRun     bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		helpers.PrintError("Error: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "brd2stories",
		Short: "Convert a business requirements document into user stories",
		Long: `brd2stories reads a markdown business requirements document, generates
user stories for every functional requirement with an AI model, and writes
a user stories document with a requirements traceability matrix.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")

	// Generate command
	var generateCmd = &cobra.Command{
		Use:   "generate [brd-file]",
		Short: "Generate the user stories document from a BRD",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGenerate,
	}
	generateCmd.Flags().StringP("output", "o", "", "Output markdown file (default from config)")
	generateCmd.Flags().Bool("html", false, "Also render the document as HTML")
	generateCmd.Flags().Bool("no-intermediate", false, "Do not save the generated stories as JSON")
	rootCmd.AddCommand(generateCmd)

	// Extract command
	var extractCmd = &cobra.Command{
		Use:   "extract [brd-file]",
		Short: "Extract structured requirements from a BRD without generating stories",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExtract,
	}
	extractCmd.Flags().String("json", "", "Save the extracted requirements as JSON to this path")
	rootCmd.AddCommand(extractCmd)

	// Publish command
	var publishCmd = &cobra.Command{
		Use:   "publish <stories-file>",
		Short: "Create JIRA epics and stories from a saved stories file",
		Args:  cobra.ExactArgs(1),
		RunE:  runPublish,
	}
	publishCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Show what would be created without actually creating JIRA tickets")
	rootCmd.AddCommand(publishCmd)

	// Init command
	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
	rootCmd.AddCommand(initCmd)

	return rootCmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	inputFile := cfg.Processing.InputFile
	if len(args) == 1 {
		inputFile = args[0]
	}
	outputFile := cfg.Processing.OutputFile
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		outputFile = out
	}
	if html, _ := cmd.Flags().GetBool("html"); html {
		cfg.Processing.HTMLOutput = true
	}
	if skip, _ := cmd.Flags().GetBool("no-intermediate"); skip {
		cfg.Processing.SaveIntermediate = false
	}

	if err := cfg.ValidateGeneration(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if !cfg.HasAPIKey() {
		helpers.PrintWarning("No %s API key configured; generation calls will fail and every requirement gets a fallback story", cfg.AI.Provider)
	}

	generator, err := services.NewTextGenerator(&cfg.AI)
	if err != nil {
		return err
	}

	helpers.PrintTitle("Starting BRD to User Stories conversion")

	pipeline := services.NewPipelineService(cfg, generator)
	result, err := pipeline.Run(cmd.Context(), inputFile, outputFile)
	if err != nil {
		return err
	}

	services.DisplaySummary(result)
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	inputFile := cfg.Processing.InputFile
	if len(args) == 1 {
		inputFile = args[0]
	}

	extractor := services.NewExtractorService()
	content, err := extractor.LoadBRD(inputFile)
	if err != nil {
		return err
	}

	record := extractor.Extract(content)
	services.DisplayRecord(record)

	if jsonPath, _ := cmd.Flags().GetString("json"); jsonPath != "" {
		if err := helpers.SaveJSON(record, jsonPath); err != nil {
			return fmt.Errorf("failed to save requirements: %w", err)
		}
		helpers.PrintSuccess("Saved requirements to: %s", jsonPath)
	}

	return nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	storiesFile := args[0]

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	helpers.PrintTitle("Creating JIRA Tickets from Stories")
	helpers.PrintInfo("Stories file: %s", storiesFile)

	var file models.StoriesFile
	if err := helpers.LoadJSON(storiesFile, &file); err != nil {
		return fmt.Errorf("failed to load stories file: %w", err)
	}

	helpers.PrintSuccess("Loaded %d stories for project: %s", len(file.Stories), file.ProjectName)
	services.DisplayStoriesFile(&file)

	if dryRun {
		helpers.PrintInfo("Dry run mode - no JIRA tickets will be created")
		return nil
	}

	if err := cfg.ValidateJira(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if !confirm("Do you want to create these tickets in JIRA? (y/N): ") {
		helpers.PrintInfo("Operation cancelled by user")
		return nil
	}

	ctx := cmd.Context()

	jiraService := services.NewJiraService(&cfg.Jira)
	if err := jiraService.TestConnection(ctx); err != nil {
		return fmt.Errorf("failed to connect to JIRA: %w", err)
	}

	result, err := jiraService.PublishStories(ctx, &file)
	if err != nil {
		return fmt.Errorf("failed to create JIRA tickets: %w", err)
	}

	if len(result.Failed) > 0 {
		helpers.PrintWarning("%d stories could not be created: %s", len(result.Failed), strings.Join(result.Failed, ", "))
	}
	helpers.PrintSuccess("Created %d epics and %d stories in JIRA", len(result.Epics), len(result.Stories))
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	helpers.PrintTitle("Initializing brd2stories configuration")

	if helpers.FileExists(configFile) {
		helpers.PrintInfo("Configuration file already exists at %s", configFile)
		if !confirm("Do you want to overwrite it? (y/N): ") {
			helpers.PrintInfo("Configuration initialization cancelled.")
			return nil
		}
	}

	if err := config.SaveConfig(config.Sample(), configFile); err != nil {
		return err
	}

	helpers.PrintSuccess("Configuration file created at %s", configFile)
	helpers.PrintWarning("Edit the configuration file or set OPENAI_API_KEY in .env before running generate.")
	return nil
}

func confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(prompt)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
