package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentsift/recommendd/internal/catalog"
	"github.com/talentsift/recommendd/internal/extraction"
)

type fakeSearcher struct {
	results []catalog.Candidate
	err     error
	lastK   int
	lastQ   string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, k int) ([]catalog.Candidate, error) {
	f.lastQ = query
	f.lastK = k
	return f.results, f.err
}

func fixtureCandidates(n int) []catalog.Candidate {
	out := make([]catalog.Candidate, 0, n)
	for i := 0; i < n; i++ {
		c := candidate(string(rune('a'+i)), []string{"K"}, 1.0-float64(i)*0.05)
		out = append(out, c)
	}
	return out
}

func newTestEngine(searcher *fakeSearcher) *Engine {
	// No reranker: selection falls back to similarity ordering, which
	// keeps these tests deterministic.
	return New(searcher, nil, Config{TopKRetrieve: 12, MinSelect: 5, MaxSelect: 7}, nil)
}

func TestEngine_NoMatches(t *testing.T) {
	e := newTestEngine(&fakeSearcher{results: nil})

	_, err := e.Recommend(context.Background(), extraction.EnhancedQuery{CleanedText: "q"})

	assert.ErrorIs(t, err, ErrNoMatches)
}

func TestEngine_SearchErrorPropagates(t *testing.T) {
	e := newTestEngine(&fakeSearcher{err: errors.New("index offline")})

	_, err := e.Recommend(context.Background(), extraction.EnhancedQuery{CleanedText: "q"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoMatches)
}

func TestEngine_FinalCountPolicy(t *testing.T) {
	tests := []struct {
		name       string
		query      extraction.EnhancedQuery
		candidates int
		want       int
	}{
		{
			name:       "tight duration cap returns min_select",
			query:      extraction.EnhancedQuery{CleanedText: "q", DurationCapMinutes: intPtr(30)},
			candidates: 12,
			want:       5,
		},
		{
			name:       "medium duration cap returns seven",
			query:      extraction.EnhancedQuery{CleanedText: "q", DurationCapMinutes: intPtr(60)},
			candidates: 12,
			want:       7,
		},
		{
			name: "multi category returns max_select",
			query: extraction.EnhancedQuery{
				CleanedText:        "q",
				RequiredCategories: []string{"Knowledge & Skills", "Personality & Behavior"},
			},
			candidates: 12,
			want:       7,
		},
		{
			name:       "default returns min(8, max_select)",
			query:      extraction.EnhancedQuery{CleanedText: "q"},
			candidates: 12,
			want:       7,
		},
		{
			name:       "never more than available",
			query:      extraction.EnhancedQuery{CleanedText: "q"},
			candidates: 3,
			want:       3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(&fakeSearcher{results: fixtureCandidates(tt.candidates)})

			got, err := e.Recommend(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestEngine_UsesTopKAndSearchText(t *testing.T) {
	searcher := &fakeSearcher{results: fixtureCandidates(3)}
	e := newTestEngine(searcher)

	q := extraction.EnhancedQuery{
		CleanedText: "python developer",
		Skills:      []string{"Python"},
	}
	_, err := e.Recommend(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 12, searcher.lastK)
	assert.Equal(t, BuildSearchQuery(q), searcher.lastQ)
}

func TestEngine_DurationFilterBeforeSelection(t *testing.T) {
	long := candidate("long", []string{"K"}, 0.99)
	long.Duration = intPtr(120)
	short := candidate("short", []string{"K"}, 0.5)
	short.Duration = intPtr(20)

	e := newTestEngine(&fakeSearcher{results: []catalog.Candidate{long, short}})

	got, err := e.Recommend(context.Background(), extraction.EnhancedQuery{
		CleanedText:        "q",
		DurationCapMinutes: intPtr(30),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "short", got[0].Name)
}

func TestEngine_SkipsRerankWhenFewCandidates(t *testing.T) {
	// A reranker whose client always fails would fall back; with three
	// candidates and max_select 7 it must not be consulted at all, so
	// the original retrieval order survives.
	failing := NewReranker(&fakeClient{err: errors.New("must not be called")}, 0, nil)
	searcher := &fakeSearcher{results: []catalog.Candidate{
		candidate("low", []string{"K"}, 0.2),
		candidate("high", []string{"K"}, 0.9),
	}}
	e := New(searcher, failing, Config{TopKRetrieve: 12, MinSelect: 5, MaxSelect: 7}, nil)

	got, err := e.Recommend(context.Background(), extraction.EnhancedQuery{CleanedText: "q"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "low", got[0].Name, "retrieval order preserved when rerank is skipped")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid", config: Config{TopKRetrieve: 12, MinSelect: 5, MaxSelect: 7}},
		{name: "min above max", config: Config{TopKRetrieve: 12, MinSelect: 8, MaxSelect: 7}, wantErr: true},
		{name: "top_k below max", config: Config{TopKRetrieve: 5, MinSelect: 3, MaxSelect: 7}, wantErr: true},
		{name: "zero min", config: Config{TopKRetrieve: 12, MinSelect: 0, MaxSelect: 7}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
