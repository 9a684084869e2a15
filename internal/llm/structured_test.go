package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient returns queued responses in order, then repeats the last.
type scriptedClient struct {
	responses []string
	err       error
	calls     int
}

func (c *scriptedClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	i := c.calls - 1
	if i >= len(c.responses) {
		i = len(c.responses) - 1
	}
	return c.responses[i], nil
}

type payload struct {
	Name  string `json:"name"`
	Score float64 `json:"score"`
}

func TestStructured_ParsesValidJSON(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"name": "a", "score": 0.9}`}}

	got, err := Structured[payload](context.Background(), client, 3, "sys", "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
	assert.InDelta(t, 0.9, got.Score, 1e-9)
	assert.Equal(t, 1, client.calls)
}

func TestStructured_StripsCodeFences(t *testing.T) {
	client := &scriptedClient{responses: []string{"```json\n{\"name\": \"fenced\"}\n```"}}

	got, err := Structured[payload](context.Background(), client, 3, "sys", "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "fenced", got.Name)
}

func TestStructured_RetriesOnUnparsableOutput(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"not json at all, sorry",
		`{"name": "second try"}`,
	}}

	got, err := Structured[payload](context.Background(), client, 3, "sys", "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "second try", got.Name)
	assert.Equal(t, 2, client.calls)
}

func TestStructured_RetriesOnValidationFailure(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"name": ""}`,
		`{"name": "valid"}`,
	}}

	validate := func(p *payload) error {
		if p.Name == "" {
			return fmt.Errorf("name is required")
		}
		return nil
	}

	got, err := Structured[payload](context.Background(), client, 3, "sys", "prompt", validate)
	require.NoError(t, err)
	assert.Equal(t, "valid", got.Name)
}

func TestStructured_ExhaustsRetries(t *testing.T) {
	client := &scriptedClient{responses: []string{"garbage"}}

	_, err := Structured[payload](context.Background(), client, 2, "sys", "prompt", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnparsableOutput)
}

func TestStructured_PropagatesClientError(t *testing.T) {
	clientErr := errors.New("upstream down")
	client := &scriptedClient{err: clientErr}

	_, err := Structured[payload](context.Background(), client, 3, "sys", "prompt", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, clientErr)
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain object",
			in:   `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "fenced with language tag",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "fenced without language tag",
			in:   "```\n[1, 2]\n```",
			want: `[1, 2]`,
		},
		{
			name: "prose around object",
			in:   `Here is the result: {"a": 1} hope that helps`,
			want: `{"a": 1}`,
		},
		{
			name: "prose around array",
			in:   `Result: [1, 2, 3].`,
			want: `[1, 2, 3]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.in))
		})
	}
}
