package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentsift/recommendd/internal/catalog"
)

func candidate(name string, testTypes []string, similarity float64) catalog.Candidate {
	return catalog.Candidate{
		Assessment: catalog.Assessment{
			Name:      name,
			URL:       fmt.Sprintf("https://catalog.example.com/%s", name),
			TestTypes: testTypes,
		},
		SimilarityScore: similarity,
	}
}

func TestBalanceByCategory_RepresentsEveryCategory(t *testing.T) {
	// Five knowledge candidates outrank the personality ones; balance
	// must still give personality its baseline slots.
	candidates := []catalog.Candidate{
		candidate("k1", []string{"K"}, 0.95),
		candidate("k2", []string{"K"}, 0.90),
		candidate("k3", []string{"K"}, 0.85),
		candidate("k4", []string{"K"}, 0.80),
		candidate("k5", []string{"K"}, 0.75),
		candidate("p1", []string{"P"}, 0.50),
		candidate("p2", []string{"P"}, 0.45),
	}
	required := []string{"Knowledge & Skills", "Personality & Behavior"}

	got := BalanceByCategory(candidates, required, 7)

	names := make(map[string]bool)
	for _, c := range got {
		names[c.Name] = true
	}
	assert.True(t, names["p1"], "personality category must be represented")
	assert.True(t, names["k1"])
	assert.LessOrEqual(t, len(got), 7)
}

func TestBalanceByCategory_TargetFloor(t *testing.T) {
	// Five slots over 3 categories gives the floor of 2 per category,
	// filling capacity exactly with no leftover slots.
	candidates := []catalog.Candidate{
		candidate("k1", []string{"K"}, 0.9),
		candidate("k2", []string{"K"}, 0.8),
		candidate("k3", []string{"K"}, 0.7),
		candidate("p1", []string{"P"}, 0.6),
		candidate("p2", []string{"P"}, 0.5),
		candidate("a1", []string{"A"}, 0.4),
	}
	required := []string{"Knowledge & Skills", "Personality & Behavior", "Ability & Aptitude"}

	got := BalanceByCategory(candidates, required, 5)

	counts := map[string]int{}
	for _, c := range got {
		counts[c.TestTypes[0]]++
	}
	assert.Len(t, got, 5)
	assert.Equal(t, 2, counts["K"], "two knowledge slots before fill")
	assert.Equal(t, 2, counts["P"])
	assert.Equal(t, 1, counts["A"], "only one ability candidate exists")
}

func TestBalanceByCategory_SubstringMatchToleratesDrift(t *testing.T) {
	candidates := []catalog.Candidate{
		candidate("k1", []string{"K"}, 0.9),
		candidate("p1", []string{"P"}, 0.8),
	}
	// Shortened names must still match the full catalog labels.
	got := BalanceByCategory(candidates, []string{"Knowledge", "Personality"}, 7)

	require.Len(t, got, 2)
}

func TestBalanceByCategory_DedupsByURL(t *testing.T) {
	// A candidate declaring both categories appears in both groups but
	// must be selected once.
	dual := candidate("dual", []string{"K", "P"}, 0.9)
	candidates := []catalog.Candidate{dual}

	got := BalanceByCategory(candidates, []string{"Knowledge & Skills", "Personality & Behavior"}, 7)

	require.Len(t, got, 1)
	assert.Equal(t, "dual", got[0].Name)
}

func TestBalanceByCategory_FillsRemainingByRank(t *testing.T) {
	relevance := 0.99
	filler := candidate("filler", []string{"S"}, 0.2)
	filler.RelevanceScore = &relevance

	candidates := []catalog.Candidate{
		candidate("k1", []string{"K"}, 0.9),
		candidate("p1", []string{"P"}, 0.8),
		filler,
		candidate("low", []string{"S"}, 0.1),
	}

	got := BalanceByCategory(candidates, []string{"Knowledge & Skills", "Personality & Behavior"}, 3)

	require.Len(t, got, 3)
	// The fill slot goes to the highest rank score, which prefers
	// relevance over similarity.
	assert.Equal(t, "filler", got[2].Name)
}

func TestFilterByDuration(t *testing.T) {
	short := candidate("short", []string{"K"}, 0.9)
	short.Duration = intPtr(20)
	long := candidate("long", []string{"K"}, 0.8)
	long.Duration = intPtr(90)
	unknown := candidate("unknown", []string{"K"}, 0.7)

	tests := []struct {
		name string
		cap  *int
		want []string
	}{
		{
			name: "no cap keeps all",
			cap:  nil,
			want: []string{"short", "long", "unknown"},
		},
		{
			name: "cap drops known violations only",
			cap:  intPtr(30),
			want: []string{"short", "unknown"},
		},
		{
			name: "boundary value kept",
			cap:  intPtr(90),
			want: []string{"short", "long", "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByDuration([]catalog.Candidate{short, long, unknown}, tt.cap)
			var names []string
			for _, c := range got {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func intPtr(v int) *int { return &v }
