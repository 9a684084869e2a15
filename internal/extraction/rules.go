package extraction

import (
	"regexp"
	"strconv"
	"strings"
)

// commonSkills is the fixed dictionary of skill keywords the rule
// extractor recognizes.
var commonSkills = []string{
	"python", "java", "javascript", "sql", "c++", "c#", "ruby", "php",
	"react", "angular", "vue", "node", "django", "flask", "spring",
	"aws", "azure", "gcp", "docker", "kubernetes", "jenkins",
	"git", "agile", "scrum", "ci/cd", "devops",
	"machine learning", "data science", "ai", "deep learning",
	"excel", "tableau", "power bi", "sap", "salesforce",
	"communication", "teamwork", "leadership", "collaboration",
	"problem solving",
}

// durationPatterns match duration phrases. Hour matches are converted to
// minutes.
var durationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:at most|maximum|max|about)\s+(\d+)\s*(?:minutes?|mins?)`),
	regexp.MustCompile(`(\d+)\s*(?:minutes?|mins?)`),
	regexp.MustCompile(`(\d+)\s*(?:hours?|hrs?)`),
}

// jobLevelPatterns map catalog job level names to the phrases that imply
// them.
var jobLevelPatterns = map[string]*regexp.Regexp{
	"Graduate":                            regexp.MustCompile(`\b(?:graduate|entry|fresher|junior)\b`),
	"Mid-Professional":                    regexp.MustCompile(`\b(?:mid|intermediate|experienced)\b`),
	"Professional Individual Contributor": regexp.MustCompile(`\b(?:senior|lead|expert|professional)\b`),
	"Manager":                             regexp.MustCompile(`\b(?:manager|management|supervisor)\b`),
	"Executive":                           regexp.MustCompile(`\b(?:executive|director|vp|vice president|c-level)\b`),
}

// jobLevelOrder keeps rule output deterministic.
var jobLevelOrder = []string{
	"Graduate",
	"Mid-Professional",
	"Professional Individual Contributor",
	"Manager",
	"Executive",
}

// ExtractRules runs the deterministic extractor over free text.
func ExtractRules(text string) RuleResult {
	lower := strings.ToLower(text)

	var skills []string
	for _, skill := range commonSkills {
		if strings.Contains(lower, skill) {
			skills = append(skills, titleCase(skill))
		}
	}

	return RuleResult{
		Skills:             dedupeFold(skills),
		DurationCapMinutes: extractDuration(lower),
		JobLevels:          extractJobLevels(lower),
	}
}

// extractDuration finds the first duration phrase and normalizes to minutes.
func extractDuration(lower string) *int {
	for _, pattern := range durationPatterns {
		match := pattern.FindStringSubmatch(lower)
		if match == nil {
			continue
		}
		value, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if strings.Contains(match[0], "hour") || strings.Contains(match[0], "hr") {
			value *= 60
		}
		return &value
	}
	return nil
}

func extractJobLevels(lower string) []string {
	var levels []string
	for _, level := range jobLevelOrder {
		if jobLevelPatterns[level].MatchString(lower) {
			levels = append(levels, level)
		}
	}
	return levels
}

// technicalKeywords and softKeywords drive the skill-to-category heuristic
// used when the model extractor is unavailable.
var technicalKeywords = []string{
	"python", "java", "javascript", "sql", "c++", "c#", "programming",
	"coding", "software", "developer", "engineering", "technical",
}

var softKeywords = []string{
	"communication", "teamwork", "leadership", "collaboration",
	"interpersonal", "management", "problem solving",
}

const (
	knowledgeCategory = "Knowledge & Skills"
	behaviorCategory  = "Personality & Behavior"
)

// InferCategories maps extracted skills to required test categories:
// technical skills imply the knowledge category, soft skills the behavior
// category, and any uncategorizable skill set gets both.
func InferCategories(skills []string) []string {
	joined := strings.ToLower(strings.Join(skills, " "))

	var categories []string
	for _, kw := range technicalKeywords {
		if strings.Contains(joined, kw) {
			categories = append(categories, knowledgeCategory)
			break
		}
	}
	for _, kw := range softKeywords {
		if strings.Contains(joined, kw) {
			categories = append(categories, behaviorCategory)
			break
		}
	}
	if len(categories) == 0 && len(skills) > 0 {
		categories = []string{knowledgeCategory, behaviorCategory}
	}
	return categories
}
