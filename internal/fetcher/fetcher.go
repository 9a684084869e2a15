// Package fetcher retrieves job description text from URLs.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// minTextLength is the minimum extracted length for a plausible job
// description; shorter extractions are treated as failures.
const minTextLength = 200

// maxBodyBytes caps the response body read.
const maxBodyBytes = 5 << 20

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Result is the outcome of a fetch attempt. A failed fetch is reported
// here, not as an error: the pipeline continues on the original query.
type Result struct {
	Success      bool              `json:"success"`
	Text         string            `json:"text,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Fetcher fetches and extracts job description text.
type Fetcher struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a Fetcher with the given per-request timeout.
func New(timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch retrieves the page at url and extracts job description text.
func (f *Fetcher) Fetch(ctx context.Context, url string) Result {
	f.logger.Info("fetching job description", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return failure(url, fmt.Sprintf("invalid URL: %v", err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return failure(url, fmt.Sprintf("failed to fetch URL: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failure(url, fmt.Sprintf("failed to fetch URL: status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return failure(url, fmt.Sprintf("failed to read page: %v", err))
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return failure(url, fmt.Sprintf("failed to parse page: %v", err))
	}

	text, title := extractText(doc)
	if len(text) < minTextLength {
		return failure(url, "failed to extract job description from page")
	}

	f.logger.Info("job description fetched",
		zap.String("url", url),
		zap.Int("length", len(text)),
	)

	return Result{
		Success: true,
		Text:    text,
		Metadata: map[string]string{
			"url":   url,
			"title": title,
		},
	}
}

func failure(url, message string) Result {
	return Result{
		Success:      false,
		ErrorMessage: message,
		Metadata:     map[string]string{"url": url},
	}
}

// contentContainers are element names likely to hold the job description,
// tried most-specific first.
var contentContainers = []string{"article", "main", "body"}

// extractText pulls readable text and the page title from the parsed
// document. It prefers the first container that yields enough text.
func extractText(doc *html.Node) (text, title string) {
	title = findTitle(doc)

	for _, container := range contentContainers {
		if node := findElement(doc, container); node != nil {
			if t := cleanText(collectText(node)); len(t) >= minTextLength {
				return t, title
			}
		}
	}

	// Last resort: every paragraph on the page.
	var paragraphs []string
	walkElements(doc, "p", func(n *html.Node) {
		if t := cleanText(collectText(n)); t != "" {
			paragraphs = append(paragraphs, t)
		}
	})
	return strings.Join(paragraphs, " "), title
}

func findTitle(doc *html.Node) string {
	if node := findElement(doc, "title"); node != nil {
		return cleanText(collectText(node))
	}
	return ""
}

// skippedElements are elements whose text is never part of the content.
var skippedElements = map[string]bool{
	"script": true, "style": true, "nav": true, "header": true,
	"footer": true, "noscript": true,
}

func collectText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && skippedElements[node.Data] {
			return
		}
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			b.WriteString(" ")
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, name); found != nil {
			return found
		}
	}
	return nil
}

func walkElements(n *html.Node, name string, fn func(*html.Node)) {
	if n.Type == html.ElementNode && n.Data == name {
		fn(n)
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walkElements(child, name, fn)
	}
}

var whitespacePattern = regexp.MustCompile(`\s+`)

func cleanText(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
