// Package extraction turns free text (a raw query or a fetched job
// description) into the structured query the retrieval engine consumes.
// It combines a deterministic rule-based extractor with a model-based
// structured extractor and merges the two, degrading to rules alone when
// the model fails.
package extraction

// EnhancedQuery is the structured form of a query or job description.
type EnhancedQuery struct {
	OriginalText       string   `json:"original_text"`
	CleanedText        string   `json:"cleaned_text"`
	Skills             []string `json:"skills"`
	DurationCapMinutes *int     `json:"duration_cap_minutes,omitempty"`
	JobLevels          []string `json:"job_levels"`
	RequiredCategories []string `json:"required_categories"`
	KeyRequirements    []string `json:"key_requirements"`
}

// RuleResult is the output of the deterministic extractor. It covers only
// the fields fixed dictionaries can produce.
type RuleResult struct {
	Skills             []string
	DurationCapMinutes *int
	JobLevels          []string
}

// URLExtraction is the shape of the model-based URL detection fallback.
type URLExtraction struct {
	HasURL     bool     `json:"has_url"`
	URLs       []string `json:"urls"`
	PrimaryURL string   `json:"primary_url,omitempty"`
}

// Primary returns the model-designated primary URL, or the first URL found.
func (u URLExtraction) Primary() string {
	if u.PrimaryURL != "" {
		return u.PrimaryURL
	}
	if len(u.URLs) > 0 {
		return u.URLs[0]
	}
	return ""
}
