package extraction

import "strings"

// Merge combines the model extractor's output with the rule extractor's.
//
// Field policy:
//   - Skills and JobLevels: set union of both extractors, case-normalized.
//   - DurationCapMinutes: model value wins, rule value fills the gap.
//   - CleanedText, RequiredCategories, KeyRequirements: model verbatim,
//     there is no rule-based equivalent.
func Merge(model EnhancedQuery, rules RuleResult) EnhancedQuery {
	merged := model
	merged.Skills = unionFold(model.Skills, rules.Skills)
	merged.JobLevels = unionFold(model.JobLevels, rules.JobLevels)
	merged.DurationCapMinutes = preferInt(model.DurationCapMinutes, rules.DurationCapMinutes)
	return merged
}

// RulesOnly builds the minimal enhanced query from rule results alone.
// This is the degraded output used when the model extractor fails; it must
// always be usable by the retrieval engine.
func RulesOnly(text string, rules RuleResult) EnhancedQuery {
	cleaned := text
	if len(cleaned) > 500 {
		cleaned = cleaned[:500]
	}
	keyRequirements := rules.Skills
	if len(keyRequirements) > 5 {
		keyRequirements = keyRequirements[:5]
	}
	return EnhancedQuery{
		OriginalText:       text,
		CleanedText:        cleaned,
		Skills:             rules.Skills,
		DurationCapMinutes: rules.DurationCapMinutes,
		JobLevels:          rules.JobLevels,
		RequiredCategories: InferCategories(rules.Skills),
		KeyRequirements:    keyRequirements,
	}
}

// preferInt returns primary when set, otherwise secondary.
func preferInt(primary, secondary *int) *int {
	if primary != nil {
		return primary
	}
	return secondary
}

// unionFold unions two string lists, deduplicating case-insensitively
// while preserving first-seen order and casing.
func unionFold(a, b []string) []string {
	return dedupeFold(append(append([]string{}, a...), b...))
}

// dedupeFold removes case-insensitive duplicates, keeping first-seen order.
func dedupeFold(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// titleCase capitalizes the first letter of each word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
