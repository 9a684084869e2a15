package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnparsableOutput is returned when the model's output cannot be parsed
// into the requested shape after all retries.
var ErrUnparsableOutput = errors.New("unparsable model output")

// Structured asks the model for a JSON value of type T and parses it.
//
// The prompt must describe the expected JSON shape. The raw response is
// cleaned of markdown code fences before parsing. When validate is non-nil
// it runs after parsing; a validation error counts as a parse failure.
// Parse and validation failures are retried up to maxRetries times with a
// fresh completion; call errors from the client are returned as-is.
//
// Callers that have a deterministic substitute should treat any returned
// error as the signal to fall back - no partial value is ever returned.
func Structured[T any](ctx context.Context, client Client, maxRetries int, system, prompt string, validate func(*T) error) (T, error) {
	var zero T
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		raw, err := client.Complete(ctx, system, prompt)
		if err != nil {
			return zero, fmt.Errorf("completion failed: %w", err)
		}

		var value T
		if err := json.Unmarshal([]byte(CleanJSON(raw)), &value); err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUnparsableOutput, err)
			continue
		}
		if validate != nil {
			if err := validate(&value); err != nil {
				lastErr = fmt.Errorf("%w: %v", ErrUnparsableOutput, err)
				continue
			}
		}
		return value, nil
	}

	return zero, lastErr
}

// CleanJSON strips markdown code fences and surrounding prose from a model
// response so the JSON payload can be parsed.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}

	// Without fences, trim to the outermost JSON value.
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end > start {
		return strings.TrimSpace(s[start : end+1])
	}
	return strings.TrimSpace(s)
}
