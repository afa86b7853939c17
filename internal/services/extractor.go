package services

import (
	"fmt"
	"regexp"
	"strings"

	"brd2stories/internal/helpers"
	"brd2stories/internal/models"
)

const defaultProjectName = "Project"

var (
	projectNameRe = regexp.MustCompile(`(?m)^#[ \t]+Business Requirements Document:[ \t]*(.+)$`)

	frHeadingRe = regexp.MustCompile(`(?m)^###[ \t]+(FR-\d+):[ \t]*(.*)$`)
	brHeadingRe = regexp.MustCompile(`(?m)^###[ \t]+(BR-\d+):[ \t]*(.*)$`)

	// any level 1-3 heading closes the current section
	sectionEndRe = regexp.MustCompile(`(?m)^#{1,3}[ \t]`)

	detailsMarkerRe = regexp.MustCompile(`(?m)^[ \t]*\*\*Details:\*\*[ \t]*$`)
	boldLineRe      = regexp.MustCompile(`(?m)^[ \t]*\*\*`)

	personaRe = regexp.MustCompile(`^-[ \t]+\*\*(.+?)\*\*:[ \t]+(.+)$`)
)

// ExtractorService turns BRD markdown into a structured requirements record
type ExtractorService struct{}

// NewExtractorService creates a new extractor
func NewExtractorService() *ExtractorService {
	return &ExtractorService{}
}

// LoadBRD reads the BRD file
func (s *ExtractorService) LoadBRD(path string) (string, error) {
	content, err := helpers.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to load BRD %s: %w", path, err)
	}
	return content, nil
}

// Extract parses BRD content. Every field is extracted independently and
// falls back to an empty value when its markup is absent; Extract never fails.
func (s *ExtractorService) Extract(content string) *models.RequirementsRecord {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	return &models.RequirementsRecord{
		ProjectName:            extractProjectName(content),
		BusinessObjectives:     extractBusinessObjectives(content),
		FunctionalRequirements: extractFunctionalRequirements(content),
		UserPersonas:           extractUserPersonas(content),
		BusinessRules:          extractBusinessRules(content),
	}
}

func extractProjectName(content string) string {
	m := projectNameRe.FindStringSubmatch(content)
	if m == nil {
		return defaultProjectName
	}
	if name := strings.TrimSpace(m[1]); name != "" {
		return name
	}
	return defaultProjectName
}

func extractBusinessObjectives(content string) []string {
	body, ok := sectionBody(content, "Business Objectives")
	if !ok {
		return []string{}
	}
	return bulletItems(body)
}

func extractFunctionalRequirements(content string) []models.FunctionalRequirement {
	requirements := []models.FunctionalRequirement{}

	for _, b := range headedBlocks(content, frHeadingRe) {
		requirements = append(requirements, models.FunctionalRequirement{
			ID:          b.id,
			Title:       b.title,
			Description: b.body,
			Details:     extractDetails(b.body),
		})
	}

	return requirements
}

func extractDetails(body string) []string {
	loc := detailsMarkerRe.FindStringIndex(body)
	if loc == nil {
		return []string{}
	}

	rest := body[loc[1]:]
	if end := boldLineRe.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}

	return bulletItems(rest)
}

func extractUserPersonas(content string) []models.Persona {
	personas := []models.Persona{}

	body, ok := sectionBody(content, "Primary Users")
	if !ok {
		return personas
	}

	for _, line := range strings.Split(body, "\n") {
		m := personaRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		personas = append(personas, models.Persona{
			Name:        strings.TrimSpace(m[1]),
			Description: strings.TrimSpace(m[2]),
		})
	}

	return personas
}

func extractBusinessRules(content string) []models.BusinessRule {
	rules := []models.BusinessRule{}

	for _, b := range headedBlocks(content, brHeadingRe) {
		rules = append(rules, models.BusinessRule{
			ID:          b.id,
			Title:       b.title,
			Description: b.body,
		})
	}

	return rules
}

// sectionBody returns the text under "### <title>" up to the next level 1-3 heading
func sectionBody(content, title string) (string, bool) {
	re := regexp.MustCompile(`(?m)^###[ \t]+` + regexp.QuoteMeta(title) + `[ \t]*$`)
	loc := re.FindStringIndex(content)
	if loc == nil {
		return "", false
	}

	body := content[loc[1]:]
	if end := sectionEndRe.FindStringIndex(body); end != nil {
		body = body[:end[0]]
	}

	return body, true
}

type headedBlock struct {
	id    string
	title string
	body  string
}

// headedBlocks returns one block per heading matched by re. A block's body
// runs to the next level 1-3 heading or the end of content, so it never
// spills into a sibling section.
func headedBlocks(content string, re *regexp.Regexp) []headedBlock {
	matches := re.FindAllStringSubmatchIndex(content, -1)
	blocks := make([]headedBlock, 0, len(matches))

	for _, m := range matches {
		body := content[m[1]:]
		if stop := sectionEndRe.FindStringIndex(body); stop != nil {
			body = body[:stop[0]]
		}

		blocks = append(blocks, headedBlock{
			id:    content[m[2]:m[3]],
			title: strings.TrimSpace(content[m[4]:m[5]]),
			body:  strings.TrimSpace(body),
		})
	}

	return blocks
}

// bulletItems returns the text of every bullet line in block
func bulletItems(block string) []string {
	items := []string{}
	for _, line := range strings.Split(block, "\n") {
		if item, ok := bulletText(line); ok {
			items = append(items, item)
		}
	}
	return items
}

func bulletText(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if strings.Trim(line, "-") == "" {
		// blank line or horizontal rule
		return "", false
	}

	switch {
	case strings.HasPrefix(line, "-"):
		return strings.TrimSpace(line[1:]), true
	case strings.HasPrefix(line, "* "), strings.HasPrefix(line, "+ "):
		return strings.TrimSpace(line[2:]), true
	default:
		return "", false
	}
}
