package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"brd2stories/internal/helpers"
	"brd2stories/internal/models"
)

// EpicGroup holds the stories of one epic, in generation order
type EpicGroup struct {
	Name    string
	Stories []models.UserStory
}

// Points sums the story points of the group
func (g EpicGroup) Points() int {
	return models.TotalStoryPoints(g.Stories)
}

// HighPriority counts the group's High priority stories
func (g EpicGroup) HighPriority() int {
	return countHighPriority(g.Stories)
}

// GroupByEpic groups stories by exact epic name, preserving first-seen order
func GroupByEpic(stories []models.UserStory) []EpicGroup {
	var groups []EpicGroup
	index := make(map[string]int)

	for _, story := range stories {
		i, ok := index[story.Epic]
		if !ok {
			i = len(groups)
			index[story.Epic] = i
			groups = append(groups, EpicGroup{Name: story.Epic})
		}
		groups[i].Stories = append(groups[i].Stories, story)
	}

	return groups
}

// ReportService renders the user stories document
type ReportService struct{}

// NewReportService creates a new report service
func NewReportService() *ReportService {
	return &ReportService{}
}

// Build renders the report. The output depends only on its arguments.
func (s *ReportService) Build(record *models.RequirementsRecord, stories []models.UserStory, generatedAt time.Time) string {
	epics := GroupByEpic(stories)

	var doc strings.Builder
	writeHeader(&doc, record, generatedAt)
	writeSummary(&doc, record, stories, epics)
	writeEpicsOverview(&doc, epics)
	writeDetailedStories(&doc, epics)
	writeTraceability(&doc, record, stories, generatedAt)

	return doc.String()
}

// Write overwrites path with the document, creating its directory on demand
func (s *ReportService) Write(path, document string) error {
	if err := helpers.WriteFile(path, []byte(document)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func writeHeader(doc *strings.Builder, record *models.RequirementsRecord, generatedAt time.Time) {
	doc.WriteString("# User Stories Document\n")
	fmt.Fprintf(doc, "## %s\n\n", record.ProjectName)
	fmt.Fprintf(doc, "**Generated on:** %s\n\n", generatedAt.Format("January 02, 2006 at 03:04 PM"))
	doc.WriteString("---\n\n")
	doc.WriteString("## Table of Contents\n")
	doc.WriteString("1. [Executive Summary](#executive-summary)\n")
	doc.WriteString("2. [Project Overview](#project-overview)\n")
	doc.WriteString("3. [Epics Overview](#epics-overview)\n")
	doc.WriteString("4. [Detailed User Stories](#detailed-user-stories)\n")
	doc.WriteString("5. [Requirements Traceability](#requirements-traceability)\n\n")
	doc.WriteString("---\n\n")
}

func writeSummary(doc *strings.Builder, record *models.RequirementsRecord, stories []models.UserStory, epics []EpicGroup) {
	doc.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(doc, "This document contains user stories derived from the business requirements for **%s**.\n\n", record.ProjectName)
	doc.WriteString("### Key Metrics\n")
	fmt.Fprintf(doc, "- **Total User Stories:** %d\n", len(stories))
	fmt.Fprintf(doc, "- **Total Story Points:** %d\n", models.TotalStoryPoints(stories))
	fmt.Fprintf(doc, "- **Number of Epics:** %d\n", len(epics))
	fmt.Fprintf(doc, "- **High Priority Stories:** %d\n\n", countHighPriority(stories))
	doc.WriteString("### Business Objectives\n")
	for _, objective := range record.BusinessObjectives {
		fmt.Fprintf(doc, "- %s\n", objective)
	}
	doc.WriteString("\n---\n\n")
}

func writeEpicsOverview(doc *strings.Builder, epics []EpicGroup) {
	doc.WriteString("## Epics Overview\n\n")
	for _, epic := range epics {
		fmt.Fprintf(doc, "### %s\n", epic.Name)
		fmt.Fprintf(doc, "- **Stories:** %d\n", len(epic.Stories))
		fmt.Fprintf(doc, "- **Story Points:** %d\n", epic.Points())
		fmt.Fprintf(doc, "- **High Priority:** %d\n\n", epic.HighPriority())
	}
	doc.WriteString("---\n\n")
}

func writeDetailedStories(doc *strings.Builder, epics []EpicGroup) {
	doc.WriteString("## Detailed User Stories\n\n")
	for _, epic := range epics {
		fmt.Fprintf(doc, "### Epic: %s\n\n", epic.Name)
		for _, story := range sortStories(epic.Stories) {
			writeStory(doc, story)
		}
		doc.WriteString("---\n\n")
	}
}

func writeStory(doc *strings.Builder, story models.UserStory) {
	fmt.Fprintf(doc, "#### %s: %s\n\n", story.ID, story.Title)
	doc.WriteString("**User Story:**  \n")
	fmt.Fprintf(doc, "%s\n\n", story.UserStory)
	fmt.Fprintf(doc, "**Priority:** %s | **Story Points:** %d | **Source:** %s\n\n",
		story.Priority, story.StoryPoints, story.SourceRequirement)
	doc.WriteString("**Acceptance Criteria:**\n")
	for i, criterion := range story.AcceptanceCriteria {
		fmt.Fprintf(doc, "%d. %s\n", i+1, criterion)
	}
	doc.WriteString("\n")
}

func writeTraceability(doc *strings.Builder, record *models.RequirementsRecord, stories []models.UserStory, generatedAt time.Time) {
	doc.WriteString("## Requirements Traceability\n\n")
	doc.WriteString("| Requirement ID | Requirement Title | User Stories | Story Points |\n")
	doc.WriteString("|---|---|---|---|\n")

	for _, row := range TraceabilityRows(record, stories) {
		fmt.Fprintf(doc, "| %s | %s | %s | %d |\n",
			escapeCell(row.RequirementID), escapeCell(row.Title), strings.Join(row.StoryIDs, ", "), row.Points)
	}

	doc.WriteString("\n---\n\n")
	fmt.Fprintf(doc, "*Document generated on %s*\n", generatedAt.Format("2006-01-02 15:04:05"))
}

// TraceabilityRow links one functional requirement to its stories
type TraceabilityRow struct {
	RequirementID string
	Title         string
	StoryIDs      []string
	Points        int
}

// TraceabilityRows returns one row per functional requirement, in record order
func TraceabilityRows(record *models.RequirementsRecord, stories []models.UserStory) []TraceabilityRow {
	rows := make([]TraceabilityRow, 0, len(record.FunctionalRequirements))

	for _, fr := range record.FunctionalRequirements {
		row := TraceabilityRow{RequirementID: fr.ID, Title: fr.Title, StoryIDs: []string{}}
		for _, story := range stories {
			if story.SourceRequirement == fr.ID {
				row.StoryIDs = append(row.StoryIDs, story.ID)
				row.Points += story.StoryPoints
			}
		}
		rows = append(rows, row)
	}

	return rows
}

// sortStories orders by priority (High first), then ascending story points
func sortStories(stories []models.UserStory) []models.UserStory {
	sorted := make([]models.UserStory, len(stories))
	copy(sorted, stories)

	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].Priority.Rank(), sorted[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return sorted[i].StoryPoints < sorted[j].StoryPoints
	})

	return sorted
}

func countHighPriority(stories []models.UserStory) int {
	count := 0
	for _, story := range stories {
		if story.Priority == models.PriorityHigh {
			count++
		}
	}
	return count
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
