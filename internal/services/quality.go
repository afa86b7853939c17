package services

import (
	"strings"

	"brd2stories/internal/models"
)

// EpicCollision is a set of epic names that differ only in case or whitespace
type EpicCollision struct {
	Key   string
	Names []string
}

// CheckTraceability returns the stories whose source requirement is not a
// functional requirement of the record. Such stories are reported, not dropped.
func CheckTraceability(record *models.RequirementsRecord, stories []models.UserStory) []models.UserStory {
	known := make(map[string]bool, len(record.FunctionalRequirements))
	for _, fr := range record.FunctionalRequirements {
		known[fr.ID] = true
	}

	var orphans []models.UserStory
	for _, story := range stories {
		if !known[story.SourceRequirement] {
			orphans = append(orphans, story)
		}
	}
	return orphans
}

// DetectEpicCollisions finds epic names that would merge under case and
// whitespace folding. Grouping stays exact; this only flags the names.
func DetectEpicCollisions(stories []models.UserStory) []EpicCollision {
	var order []string
	names := make(map[string][]string)

	for _, story := range stories {
		key := strings.ToLower(strings.Join(strings.Fields(story.Epic), " "))
		seen := names[key]
		if len(seen) == 0 {
			order = append(order, key)
		}
		if !contains(seen, story.Epic) {
			names[key] = append(seen, story.Epic)
		}
	}

	var collisions []EpicCollision
	for _, key := range order {
		if len(names[key]) > 1 {
			collisions = append(collisions, EpicCollision{Key: key, Names: names[key]})
		}
	}
	return collisions
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
