package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brd2stories/internal/config"
	"brd2stories/internal/helpers"
	"brd2stories/internal/models"
)

const storiesFileName = "user_stories.json"

// PipelineService runs extraction, story generation, and report writing
type PipelineService struct {
	config    *config.Config
	generator TextGenerator
	extractor *ExtractorService
	stories   *StoryGeneratorService
	report    *ReportService
	now       func() time.Time
}

// RunResult describes a completed pipeline run
type RunResult struct {
	Record      *models.RequirementsRecord
	Stories     []models.UserStory
	ReportPath  string
	HTMLPath    string
	StoriesPath string
}

// NewPipelineService creates a pipeline using generator for story generation
func NewPipelineService(cfg *config.Config, generator TextGenerator) *PipelineService {
	return &PipelineService{
		config:    cfg,
		generator: generator,
		extractor: NewExtractorService(),
		stories:   NewStoryGeneratorService(generator, &cfg.AI),
		report:    NewReportService(),
		now:       time.Now,
	}
}

// Run converts the BRD at inputPath into a stories report at outputPath.
// Only an unreadable BRD or a failed write aborts the run.
func (s *PipelineService) Run(ctx context.Context, inputPath, outputPath string) (*RunResult, error) {
	helpers.PrintInfo("Loading BRD: %s", inputPath)
	content, err := s.extractor.LoadBRD(inputPath)
	if err != nil {
		return nil, err
	}

	record := s.extractor.Extract(content)
	helpers.PrintSuccess("Extracted %d functional requirements", len(record.FunctionalRequirements))

	helpers.PrintInfo("Generating user stories with %s...", s.generator.Model())
	stories := s.stories.GenerateStories(ctx, record)
	helpers.PrintSuccess("Generated %d user stories", len(stories))

	s.reportDataQuality(record, stories)

	generatedAt := s.now()
	result := &RunResult{Record: record, Stories: stories, ReportPath: outputPath}

	helpers.PrintInfo("Creating user stories document...")
	document := s.report.Build(record, stories, generatedAt)
	if err := s.report.Write(outputPath, document); err != nil {
		return nil, err
	}
	helpers.PrintSuccess("User Stories document generated: %s", outputPath)

	if s.config.Processing.HTMLOutput {
		page, err := RenderHTML(record.ProjectName+" - User Stories", document)
		if err != nil {
			return nil, fmt.Errorf("failed to render HTML report: %w", err)
		}
		result.HTMLPath = helpers.ReplaceExt(outputPath, ".html")
		if err := helpers.WriteFile(result.HTMLPath, page); err != nil {
			return nil, fmt.Errorf("failed to write HTML report: %w", err)
		}
		helpers.PrintSuccess("HTML document generated: %s", result.HTMLPath)
	}

	if s.config.Processing.SaveIntermediate {
		result.StoriesPath = helpers.SiblingPath(outputPath, storiesFileName)
		file := &models.StoriesFile{
			ProjectName: record.ProjectName,
			GeneratedAt: generatedAt,
			Provider:    s.config.AI.Provider,
			Model:       s.generator.Model(),
			Stories:     stories,
		}
		if err := helpers.SaveJSON(file, result.StoriesPath); err != nil {
			return nil, fmt.Errorf("failed to save stories: %w", err)
		}
		helpers.PrintSuccess("Saved stories to: %s", result.StoriesPath)
	}

	return result, nil
}

func (s *PipelineService) reportDataQuality(record *models.RequirementsRecord, stories []models.UserStory) {
	for _, orphan := range CheckTraceability(record, stories) {
		helpers.PrintWarning("Story %s references unknown requirement %s", orphan.ID, orphan.SourceRequirement)
	}
	for _, c := range DetectEpicCollisions(stories) {
		helpers.PrintWarning("Epic names differ only in case or spacing and are reported separately: %s",
			strings.Join(c.Names, " / "))
	}
}

// DisplaySummary prints the end-of-run summary
func DisplaySummary(result *RunResult) {
	helpers.PrintSeparator()
	helpers.PrintSuccess("Conversion completed successfully!")
	helpers.PrintInfo("Summary:")
	helpers.PrintBullet("%d user stories generated", len(result.Stories))
	helpers.PrintBullet("%d total story points", models.TotalStoryPoints(result.Stories))
	helpers.PrintBullet("%d epics created", len(GroupByEpic(result.Stories)))
	helpers.PrintBullet("Document saved: %s", result.ReportPath)
}

// DisplayRecord prints an extracted requirements record
func DisplayRecord(record *models.RequirementsRecord) {
	helpers.PrintTitle("Business Requirements: %s", record.ProjectName)
	helpers.PrintInfo("Objectives: %d | Personas: %d | Functional requirements: %d | Business rules: %d",
		len(record.BusinessObjectives), len(record.UserPersonas),
		len(record.FunctionalRequirements), len(record.BusinessRules))
	helpers.PrintSeparator()

	for _, fr := range record.FunctionalRequirements {
		helpers.PrintInfo("%s: %s", fr.ID, fr.Title)
		for _, detail := range fr.Details {
			helpers.PrintBullet("%s", detail)
		}
	}
	for _, br := range record.BusinessRules {
		helpers.PrintInfo("%s: %s", br.ID, br.Title)
	}
}

// DisplayStoriesFile prints a saved stories file before publishing
func DisplayStoriesFile(file *models.StoriesFile) {
	helpers.PrintTitle("User Stories: %s", file.ProjectName)
	for _, epic := range GroupByEpic(file.Stories) {
		helpers.PrintInfo("Epic: %s (%d stories, %d points)", epic.Name, len(epic.Stories), epic.Points())
		for _, story := range sortStories(epic.Stories) {
			helpers.PrintBullet("%s %s [%s, %d pts]", story.ID, story.Title, story.Priority, story.StoryPoints)
		}
	}
	helpers.PrintSeparator()
}
