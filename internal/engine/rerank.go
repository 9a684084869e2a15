package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/talentsift/recommendd/internal/catalog"
	"github.com/talentsift/recommendd/internal/extraction"
	"github.com/talentsift/recommendd/internal/llm"
)

// Reranker scores retrieved candidates for relevance against the
// enhanced query using a language model.
type Reranker struct {
	client     llm.Client
	maxRetries int
	logger     *zap.Logger
}

// NewReranker creates a Reranker.
func NewReranker(client llm.Client, maxRetries int, logger *zap.Logger) *Reranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reranker{client: client, maxRetries: maxRetries, logger: logger}
}

type rerankEntry struct {
	ID     int     `json:"id"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type rerankResponse struct {
	Rankings []rerankEntry `json:"rankings"`
}

const rerankSystemInstruction = `You rank pre-retrieved hiring assessments by relevance to a job requirement.
Respond with JSON only: {"rankings": [{"id": <candidate id>, "score": <0.0-1.0>, "reason": "..."}]}.
Rank only the most relevant candidates, best first. Use only ids from the candidate list.`

// Rerank returns up to topK candidates ordered by model-assigned
// relevance. Entries whose id is out of range are skipped. When the model
// call fails or returns nothing usable, the fallback is exact: the input
// sorted by similarity descending, truncated to topK, with no relevance
// scores attached.
func (r *Reranker) Rerank(ctx context.Context, query extraction.EnhancedQuery, candidates []catalog.Candidate, topK int) []catalog.Candidate {
	prompt := buildRerankPrompt(query, candidates, topK)

	resp, err := llm.Structured[rerankResponse](ctx, r.client, r.maxRetries, rerankSystemInstruction, prompt, func(resp *rerankResponse) error {
		if len(resp.Rankings) == 0 {
			return fmt.Errorf("empty rankings")
		}
		return nil
	})
	if err != nil {
		r.logger.Warn("rerank failed, falling back to similarity order", zap.Error(err))
		return SortBySimilarity(candidates, topK)
	}

	ranked := make([]catalog.Candidate, 0, topK)
	seen := make(map[int]bool, len(resp.Rankings))
	for _, entry := range resp.Rankings {
		if entry.ID < 0 || entry.ID >= len(candidates) || seen[entry.ID] {
			r.logger.Debug("skipping malformed rerank entry", zap.Int("id", entry.ID))
			continue
		}
		seen[entry.ID] = true

		c := candidates[entry.ID]
		score := entry.Score
		c.RelevanceScore = &score
		c.RelevanceReason = entry.Reason
		ranked = append(ranked, c)
		if len(ranked) == topK {
			break
		}
	}

	if len(ranked) == 0 {
		r.logger.Warn("all rerank entries malformed, falling back to similarity order")
		return SortBySimilarity(candidates, topK)
	}
	return ranked
}

func buildRerankPrompt(query extraction.EnhancedQuery, candidates []catalog.Candidate, topK int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job requirement: %s\n", query.CleanedText)
	if len(query.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(query.Skills, ", "))
	}
	if len(query.RequiredCategories) > 0 {
		fmt.Fprintf(&b, "Categories: %s\n", strings.Join(query.RequiredCategories, ", "))
	}
	if query.DurationCapMinutes != nil {
		fmt.Fprintf(&b, "Maximum duration: %d minutes\n", *query.DurationCapMinutes)
	}
	fmt.Fprintf(&b, "\nRank the %d most relevant of these candidates:\n", topK)
	for i, c := range candidates {
		duration := "unknown"
		if c.Duration != nil {
			duration = fmt.Sprintf("%d min", *c.Duration)
		}
		fmt.Fprintf(&b, "%d. %s | categories: %s | duration: %s | similarity: %.3f | %s\n",
			i, c.Name, strings.Join(catalog.ExpandTestTypes(c.TestTypes), ", "), duration,
			c.SimilarityScore, truncate(c.Description, 200))
	}
	return b.String()
}

// SortBySimilarity returns a copy of candidates ordered by similarity
// descending, truncated to limit. It never mutates its input.
func SortBySimilarity(candidates []catalog.Candidate, limit int) []catalog.Candidate {
	sorted := make([]catalog.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SimilarityScore > sorted[j].SimilarityScore
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
