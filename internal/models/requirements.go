package models

import "strings"

// RequirementsRecord represents the structured content of a BRD
type RequirementsRecord struct {
	ProjectName            string                  `json:"project_name"`
	BusinessObjectives     []string                `json:"business_objectives"`
	FunctionalRequirements []FunctionalRequirement `json:"functional_requirements"`
	UserPersonas           []Persona               `json:"user_personas"`
	BusinessRules          []BusinessRule          `json:"business_rules"`
}

// FunctionalRequirement represents an FR-<n> section of the BRD
type FunctionalRequirement struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Details     []string `json:"details"`
}

// Number returns the numeric suffix of the requirement ID ("FR-07" -> "07")
func (fr FunctionalRequirement) Number() string {
	return strings.TrimPrefix(fr.ID, "FR-")
}

// Persona represents a primary user of the system
type Persona struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BusinessRule represents a BR-<n> section of the BRD
type BusinessRule struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PersonaNames returns the persona names in document order
func (r *RequirementsRecord) PersonaNames() []string {
	names := make([]string, 0, len(r.UserPersonas))
	for _, p := range r.UserPersonas {
		names = append(names, p.Name)
	}
	return names
}
