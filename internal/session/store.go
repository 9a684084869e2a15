// Package session persists query sessions and their interactions in an
// embedded SQLite database. The pipeline itself never touches this
// store; recording outcomes is the HTTP layer's responsibility.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS interactions (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id         TEXT NOT NULL,
	created_at         TIMESTAMP NOT NULL,
	query              TEXT NOT NULL,
	intent             TEXT,
	general_answer     TEXT,
	recommendations    TEXT,
	assessment_count   INTEGER NOT NULL DEFAULT 0,
	processing_ms      INTEGER NOT NULL DEFAULT 0,
	error_message      TEXT,
	success            INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_interactions_session
	ON interactions (session_id);
`

// Session is one stored session row.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Interaction is one stored query/response pair.
type Interaction struct {
	ID              int64           `json:"id"`
	SessionID       string          `json:"session_id"`
	CreatedAt       time.Time       `json:"created_at"`
	Query           string          `json:"query"`
	Intent          string          `json:"intent,omitempty"`
	GeneralAnswer   string          `json:"general_answer,omitempty"`
	Recommendations json.RawMessage `json:"recommendations,omitempty"`
	AssessmentCount int             `json:"assessment_count"`
	ProcessingMS    int64           `json:"processing_ms"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	Success         bool            `json:"success"`
}

// Store is a SQLite-backed session store.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens (creating if needed) the database at path and applies
// the schema.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("session store: path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("session store: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session store: open database: %w", err)
	}
	// SQLite serializes writes; a single connection avoids lock errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("session store: apply schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSession returns id if it already exists, creating the row if
// needed. An empty id creates a fresh session with a generated id.
func (s *Store) EnsureSession(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET updated_at = excluded.updated_at`,
		id, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("session store: ensure session: %w", err)
	}
	return id, nil
}

// GetSession fetches one session row.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("session store: get session: %w", err)
	}
	return sess, nil
}

// RecordInteraction stores one query outcome under a session.
func (s *Store) RecordInteraction(ctx context.Context, in Interaction) (int64, error) {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions
			(session_id, created_at, query, intent, general_answer,
			 recommendations, assessment_count, processing_ms, error_message, success)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.SessionID, in.CreatedAt, in.Query, in.Intent, in.GeneralAnswer,
		nullableJSON(in.Recommendations), in.AssessmentCount, in.ProcessingMS,
		in.ErrorMessage, boolToInt(in.Success),
	)
	if err != nil {
		return 0, fmt.Errorf("session store: record interaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session store: interaction id: %w", err)
	}
	return id, nil
}

// ListInteractions returns a session's interactions, newest first.
func (s *Store) ListInteractions(ctx context.Context, sessionID string, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, created_at, query, intent, general_answer,
		       recommendations, assessment_count, processing_ms, error_message, success
		FROM interactions
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("session store: list interactions: %w", err)
	}
	defer rows.Close()

	var interactions []Interaction
	for rows.Next() {
		var in Interaction
		var recommendations sql.NullString
		var errorMessage sql.NullString
		var success int
		if err := rows.Scan(
			&in.ID, &in.SessionID, &in.CreatedAt, &in.Query, &in.Intent,
			&in.GeneralAnswer, &recommendations, &in.AssessmentCount,
			&in.ProcessingMS, &errorMessage, &success,
		); err != nil {
			return nil, fmt.Errorf("session store: scan interaction: %w", err)
		}
		if recommendations.Valid {
			in.Recommendations = json.RawMessage(recommendations.String)
		}
		in.ErrorMessage = errorMessage.String
		in.Success = success == 1
		interactions = append(interactions, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session store: iterate interactions: %w", err)
	}
	return interactions, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
