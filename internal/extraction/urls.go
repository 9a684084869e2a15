package extraction

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"go.uber.org/zap"

	"github.com/talentsift/recommendd/internal/llm"
)

// urlPattern matches http(s) URLs embedded in free text.
var urlPattern = regexp.MustCompile(`https?://[a-zA-Z0-9$\-_@.&+!*(),%/?=#~:;]+`)

// ExtractURLs deterministically extracts valid URLs from text, in order
// of appearance. This always runs before any model-based detection.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	valid := make([]string, 0, len(matches))
	for _, m := range matches {
		if isValidURL(m) {
			valid = append(valid, m)
		}
	}
	return valid
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// URLDetector is the model-based URL detection fallback, used only when
// the regex extractor finds nothing.
type URLDetector struct {
	client     llm.Client
	maxRetries int
	logger     *zap.Logger
}

// NewURLDetector creates a URLDetector.
func NewURLDetector(client llm.Client, maxRetries int, logger *zap.Logger) *URLDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &URLDetector{client: client, maxRetries: maxRetries, logger: logger}
}

const urlSystemInstruction = `You detect job posting URLs in text, including obfuscated or partially written ones.
Respond with JSON only: {"has_url": bool, "urls": ["..."], "primary_url": "..."}.
If no URL is present, respond {"has_url": false, "urls": []}.`

// Detect asks the model whether the text references a URL.
func (d *URLDetector) Detect(ctx context.Context, text string) (URLExtraction, error) {
	prompt := fmt.Sprintf("Find job posting URLs in this text:\n\n%s", text)

	result, err := llm.Structured[URLExtraction](ctx, d.client, d.maxRetries, urlSystemInstruction, prompt, func(r *URLExtraction) error {
		if r.HasURL && len(r.URLs) == 0 {
			return fmt.Errorf("has_url set but urls empty")
		}
		return nil
	})
	if err != nil {
		return URLExtraction{}, fmt.Errorf("url detection: %w", err)
	}

	// Keep only URLs the validator accepts; the model occasionally
	// invents fragments.
	valid := make([]string, 0, len(result.URLs))
	for _, u := range result.URLs {
		if isValidURL(u) {
			valid = append(valid, u)
		}
	}
	result.URLs = valid
	if result.PrimaryURL != "" && !isValidURL(result.PrimaryURL) {
		result.PrimaryURL = ""
	}
	result.HasURL = len(result.URLs) > 0

	return result, nil
}
