package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brd2stories/internal/models"
)

var fixedTime = time.Date(2026, time.March, 4, 14, 5, 6, 0, time.UTC)

func reportStories() []models.UserStory {
	return []models.UserStory{
		{ID: "US-01-01", Title: "Sign in", UserStory: "As an Admin, I want to sign in", AcceptanceCriteria: []string{"Given a user", "Then access"}, Priority: models.PriorityMedium, StoryPoints: 5, Epic: "Access", SourceRequirement: "FR-01"},
		{ID: "US-01-02", Title: "Lockout", UserStory: "As an Admin, I want lockout", AcceptanceCriteria: []string{"Given failures"}, Priority: models.PriorityHigh, StoryPoints: 8, Epic: "Access", SourceRequirement: "FR-01"},
		{ID: "US-02-01", Title: "Export", UserStory: "As an Analyst, I want export", Priority: models.PriorityLow, StoryPoints: 2, Epic: "Reporting", SourceRequirement: "FR-02"},
		{ID: "US-01-03", Title: "Remember me", UserStory: "As a user, I want to stay signed in", Priority: models.PriorityHigh, StoryPoints: 3, Epic: "Access", SourceRequirement: "FR-01"},
	}
}

func reportRecord() *models.RequirementsRecord {
	record := testRecord()
	record.FunctionalRequirements = append(record.FunctionalRequirements,
		models.FunctionalRequirement{ID: "FR-03", Title: "Audit | Logging"})
	return record
}

func TestGroupByEpicPreservesFirstSeenOrder(t *testing.T) {
	groups := GroupByEpic([]models.UserStory{
		{ID: "a", Epic: "Zeta"},
		{ID: "b", Epic: "Alpha"},
		{ID: "c", Epic: "Zeta"},
		{ID: "d", Epic: "zeta"},
	})

	require.Len(t, groups, 3)
	assert.Equal(t, "Zeta", groups[0].Name)
	assert.Len(t, groups[0].Stories, 2)
	assert.Equal(t, "Alpha", groups[1].Name)
	assert.Equal(t, "zeta", groups[2].Name)
}

func TestSortStories(t *testing.T) {
	sorted := sortStories(reportStories())

	ids := make([]string, len(sorted))
	for i, s := range sorted {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"US-01-03", "US-01-02", "US-01-01", "US-02-01"}, ids)
}

func TestReportBuild(t *testing.T) {
	doc := NewReportService().Build(reportRecord(), reportStories(), fixedTime)

	assert.True(t, strings.HasPrefix(doc, "# User Stories Document\n## Acme\n\n**Generated on:** March 04, 2026 at 02:05 PM\n"))
	assert.Contains(t, doc, "- **Total User Stories:** 4\n")
	assert.Contains(t, doc, "- **Total Story Points:** 18\n")
	assert.Contains(t, doc, "- **Number of Epics:** 2\n")
	assert.Contains(t, doc, "- **High Priority Stories:** 2\n")
	assert.Contains(t, doc, "### Business Objectives\n- Ship faster\n")

	assert.Contains(t, doc, "### Access\n- **Stories:** 3\n- **Story Points:** 16\n- **High Priority:** 2\n")
	assert.Contains(t, doc, "### Reporting\n- **Stories:** 1\n- **Story Points:** 2\n- **High Priority:** 0\n")

	// detailed section is sorted within the epic
	access := doc[strings.Index(doc, "### Epic: Access"):strings.Index(doc, "### Epic: Reporting")]
	assert.Less(t, strings.Index(access, "US-01-03"), strings.Index(access, "US-01-02"))
	assert.Less(t, strings.Index(access, "US-01-02"), strings.Index(access, "US-01-01"))

	assert.Contains(t, doc, "#### US-01-01: Sign in\n\n**User Story:**  \nAs an Admin, I want to sign in\n\n")
	assert.Contains(t, doc, "**Priority:** Medium | **Story Points:** 5 | **Source:** FR-01\n")
	assert.Contains(t, doc, "**Acceptance Criteria:**\n1. Given a user\n2. Then access\n")

	assert.Contains(t, doc, "| FR-01 | Login | US-01-01, US-01-02, US-01-03 | 16 |\n")
	assert.Contains(t, doc, "| FR-02 | Reports | US-02-01 | 2 |\n")
	assert.Contains(t, doc, "| FR-03 | Audit \\| Logging |  | 0 |\n")
	assert.True(t, strings.HasSuffix(doc, "*Document generated on 2026-03-04 14:05:06*\n"))
}

func TestReportBuildIsDeterministic(t *testing.T) {
	svc := NewReportService()
	record, stories := reportRecord(), reportStories()

	first := svc.Build(record, stories, fixedTime)
	second := svc.Build(record, stories, fixedTime)
	assert.Equal(t, first, second)

	later := svc.Build(record, stories, fixedTime.Add(time.Hour))
	assert.NotEqual(t, first, later)
	assert.Equal(t, stripTimestamps(first), stripTimestamps(later))
}

func stripTimestamps(doc string) string {
	var kept []string
	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(line, "**Generated on:**") || strings.HasPrefix(line, "*Document generated on") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func TestReportBuildWithoutStories(t *testing.T) {
	doc := NewReportService().Build(reportRecord(), nil, fixedTime)

	assert.Contains(t, doc, "- **Total User Stories:** 0\n")
	assert.Contains(t, doc, "- **Number of Epics:** 0\n")
	assert.Contains(t, doc, "| FR-01 | Login |  | 0 |\n")
}

func TestTraceabilityRows(t *testing.T) {
	rows := TraceabilityRows(reportRecord(), reportStories())

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"US-01-01", "US-01-02", "US-01-03"}, rows[0].StoryIDs)
	assert.Equal(t, 16, rows[0].Points)
	assert.Empty(t, rows[2].StoryIDs)
	assert.Zero(t, rows[2].Points)
}

func TestReportWriteCreatesDirectoryAndOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "report.md")
	svc := NewReportService()

	require.NoError(t, svc.Write(path, "first version, longer"))
	require.NoError(t, svc.Write(path, "second"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestRenderHTML(t *testing.T) {
	doc := NewReportService().Build(reportRecord(), reportStories(), fixedTime)

	page, err := RenderHTML("Acme <Stories>", doc)
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, "<title>Acme &lt;Stories&gt;</title>")
	assert.Contains(t, html, `<h1 id="user-stories-document">User Stories Document</h1>`)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<td>FR-01</td>")
}
