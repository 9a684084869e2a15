package engine

import (
	"strings"

	"github.com/talentsift/recommendd/internal/extraction"
)

const (
	searchQuerySeparator = " | "
	maxQuerySkills       = 10
	maxQueryRequirements = 5
)

// BuildSearchQuery assembles the semantic search text from the enhanced
// query. Parts appear in a fixed order so that equal inputs always
// produce equal retrievals.
func BuildSearchQuery(q extraction.EnhancedQuery) string {
	parts := []string{q.CleanedText}

	if len(q.Skills) > 0 {
		skills := q.Skills
		if len(skills) > maxQuerySkills {
			skills = skills[:maxQuerySkills]
		}
		parts = append(parts, "Required skills: "+strings.Join(skills, ", "))
	}

	if len(q.RequiredCategories) > 0 {
		parts = append(parts, "Categories needed: "+strings.Join(q.RequiredCategories, ", "))
	}

	if len(q.KeyRequirements) > 0 {
		reqs := q.KeyRequirements
		if len(reqs) > maxQueryRequirements {
			reqs = reqs[:maxQueryRequirements]
		}
		parts = append(parts, "Key requirements: "+strings.Join(reqs, ", "))
	}

	return strings.Join(parts, searchQuerySeparator)
}
