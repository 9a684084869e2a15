package engine

import (
	"sort"
	"strings"

	"github.com/talentsift/recommendd/internal/catalog"
)

// minPerCategory is the floor for per-category representation in the
// balanced output.
const minPerCategory = 2

// BalanceByCategory guarantees baseline representation for every
// required category before pure score ordering fills the rest. Callers
// invoke it only for multi-category queries.
//
// Candidates are grouped by every category they declare. Each required
// category is matched to a group by case-insensitive substring in either
// direction, which tolerates naming drift between query categories and
// catalog labels. Up to target members per category are taken by rank,
// deduplicated by URL, then remaining capacity is filled with the
// highest-ranked unselected candidates overall.
func BalanceByCategory(candidates []catalog.Candidate, requiredCategories []string, maxSelect int) []catalog.Candidate {
	if len(candidates) == 0 || len(requiredCategories) == 0 {
		return candidates
	}

	groups := groupByCategory(candidates)
	target := maxSelect / len(requiredCategories)
	if target < minPerCategory {
		target = minPerCategory
	}

	selected := make([]catalog.Candidate, 0, maxSelect)
	selectedURLs := make(map[string]bool, maxSelect)

	for _, required := range requiredCategories {
		group := matchGroup(groups, required)
		taken := 0
		for _, c := range group {
			if taken == target || len(selected) == maxSelect {
				break
			}
			if selectedURLs[c.URL] {
				continue
			}
			selectedURLs[c.URL] = true
			selected = append(selected, c)
			taken++
		}
	}

	// Fill remaining slots by rank regardless of category.
	if len(selected) < maxSelect {
		ranked := make([]catalog.Candidate, len(candidates))
		copy(ranked, candidates)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].RankScore() > ranked[j].RankScore()
		})
		for _, c := range ranked {
			if len(selected) == maxSelect {
				break
			}
			if selectedURLs[c.URL] {
				continue
			}
			selectedURLs[c.URL] = true
			selected = append(selected, c)
		}
	}

	return selected
}

// groupByCategory indexes candidates under each expanded category name
// they declare, preserving input order within each group.
func groupByCategory(candidates []catalog.Candidate) map[string][]catalog.Candidate {
	groups := make(map[string][]catalog.Candidate)
	for _, c := range candidates {
		for _, name := range catalog.ExpandTestTypes(c.TestTypes) {
			groups[name] = append(groups[name], c)
		}
	}
	return groups
}

// matchGroup finds the candidate group for a required category using
// case-insensitive substring matching in either direction.
func matchGroup(groups map[string][]catalog.Candidate, required string) []catalog.Candidate {
	req := strings.ToLower(strings.TrimSpace(required))
	if req == "" {
		return nil
	}

	// Deterministic iteration: sort group names before matching.
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		label := strings.ToLower(name)
		if strings.Contains(label, req) || strings.Contains(req, label) {
			return groups[name]
		}
	}
	return nil
}
