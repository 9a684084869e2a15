package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRules_Skills(t *testing.T) {
	result := ExtractRules("Looking for a Python developer with SQL and strong communication")

	assert.Contains(t, result.Skills, "Python")
	assert.Contains(t, result.Skills, "Sql")
	assert.Contains(t, result.Skills, "Communication")
}

func TestExtractRules_Duration(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *int
	}{
		{
			name: "max minutes phrasing",
			text: "tests should take at most 40 minutes",
			want: intPtr(40),
		},
		{
			name: "bare minutes",
			text: "a 30 mins assessment",
			want: intPtr(30),
		},
		{
			name: "hours converted to minutes",
			text: "no longer than 1 hour",
			want: intPtr(60),
		},
		{
			name: "no duration",
			text: "hiring a Java developer",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractRules(tt.text)
			if tt.want == nil {
				assert.Nil(t, result.DurationCapMinutes)
				return
			}
			require.NotNil(t, result.DurationCapMinutes)
			assert.Equal(t, *tt.want, *result.DurationCapMinutes)
		})
	}
}

func TestExtractRules_JobLevels(t *testing.T) {
	result := ExtractRules("senior engineer, could also be a manager role")

	assert.Equal(t, []string{"Professional Individual Contributor", "Manager"}, result.JobLevels)
}

func TestInferCategories(t *testing.T) {
	tests := []struct {
		name   string
		skills []string
		want   []string
	}{
		{
			name:   "technical only",
			skills: []string{"Python", "Sql"},
			want:   []string{"Knowledge & Skills"},
		},
		{
			name:   "soft only",
			skills: []string{"Communication", "Teamwork"},
			want:   []string{"Personality & Behavior"},
		},
		{
			name:   "mixed",
			skills: []string{"Java", "Leadership"},
			want:   []string{"Knowledge & Skills", "Personality & Behavior"},
		},
		{
			name:   "uncategorizable gets both",
			skills: []string{"Basket Weaving"},
			want:   []string{"Knowledge & Skills", "Personality & Behavior"},
		},
		{
			name:   "no skills no categories",
			skills: nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferCategories(tt.skills))
		})
	}
}

func intPtr(v int) *int { return &v }
