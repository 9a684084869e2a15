package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Load reads a catalog snapshot from a JSON file.
//
// The snapshot is either a JSON array of assessments or an object keyed by
// URL (the format produced by the catalog scraper). Entries that fail
// validation are skipped with a warning rather than aborting the load.
func Load(path string, logger *zap.Logger) ([]Assessment, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %s: %w", path, err)
	}

	var entries []Assessment
	if err := json.Unmarshal(data, &entries); err != nil {
		// Fall back to the url-keyed object format.
		var byURL map[string]Assessment
		if mapErr := json.Unmarshal(data, &byURL); mapErr != nil {
			return nil, fmt.Errorf("parsing catalog file %s: %w", path, err)
		}
		entries = make([]Assessment, 0, len(byURL))
		for url, a := range byURL {
			if a.URL == "" {
				a.URL = url
			}
			entries = append(entries, a)
		}
	}

	valid := make([]Assessment, 0, len(entries))
	for _, a := range entries {
		if err := a.Validate(); err != nil {
			logger.Warn("skipping invalid catalog entry", zap.Error(err))
			continue
		}
		valid = append(valid, a)
	}

	logger.Info("catalog loaded",
		zap.String("path", path),
		zap.Int("total", len(entries)),
		zap.Int("valid", len(valid)),
	)

	return valid, nil
}
