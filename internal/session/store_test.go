package session

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "sessions.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEnsureSession_GeneratesID(t *testing.T) {
	store := newTestStore(t)

	id, err := store.EnsureSession(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	sess, err := store.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, sess.ID)
}

func TestEnsureSession_Idempotent(t *testing.T) {
	store := newTestStore(t)

	id, err := store.EnsureSession(context.Background(), "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)

	again, err := store.EnsureSession(context.Background(), "fixed-id")
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", again)
}

func TestGetSession_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetSession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordAndListInteractions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.EnsureSession(ctx, "")
	require.NoError(t, err)

	recommendations, _ := json.Marshal([]map[string]string{{"name": "Python (New)"}})
	first, err := store.RecordInteraction(ctx, Interaction{
		SessionID:       id,
		Query:           "python developer",
		Intent:          "job_query",
		Recommendations: recommendations,
		AssessmentCount: 1,
		ProcessingMS:    120,
		Success:         true,
	})
	require.NoError(t, err)
	assert.Positive(t, first)

	_, err = store.RecordInteraction(ctx, Interaction{
		SessionID:    id,
		Query:        "what are test types",
		Intent:       "general",
		ErrorMessage: "model timeout",
	})
	require.NoError(t, err)

	got, err := store.ListInteractions(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, "what are test types", got[0].Query)
	assert.False(t, got[0].Success)
	assert.Equal(t, "model timeout", got[0].ErrorMessage)

	assert.Equal(t, "python developer", got[1].Query)
	assert.True(t, got[1].Success)
	assert.Equal(t, 1, got[1].AssessmentCount)
	assert.JSONEq(t, string(recommendations), string(got[1].Recommendations))
}

func TestListInteractions_EmptySession(t *testing.T) {
	store := newTestStore(t)

	got, err := store.ListInteractions(context.Background(), "unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
