// Package web resolves article URLs (or raw text) into canonical documents
// for the bias pipeline.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/biaslab/bias-engine/internal/core/domain"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	maxBodyBytes     = 4 << 20
	maxParagraphs    = 40
)

// Hosts whose pretty name is not derivable from the domain alone.
var sourceNames = map[string]string{
	"nytimes.com":        "New York Times",
	"washingtonpost.com": "Washington Post",
	"techcrunch.com":     "TechCrunch",
	"axios.com":          "Axios",
	"nypost.com":         "New York Post",
	"cnn.com":            "CNN",
	"foxnews.com":        "Fox News",
	"reuters.com":        "Reuters",
	"ap.org":             "Associated Press",
}

type Extractor struct {
	client    *http.Client
	userAgent string
}

func New(client *http.Client) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Extractor{client: client, userAgent: defaultUserAgent}
}

// Extract resolves a URL into a document, or treats non-URL input as raw
// article text. Failures map to domain.ErrFetch (unreachable, non-2xx) or
// domain.ErrParse (no usable text); neither is retried by the core.
func (e *Extractor) Extract(ctx context.Context, input string) (*domain.Document, error) {
	input = strings.TrimSpace(input)
	if target, ok := parseArticleURL(input); ok {
		return e.extractFromURL(ctx, target)
	}
	return documentFromRawText(input)
}

func (e *Extractor) extractFromURL(ctx context.Context, target *url.URL) (*domain.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrFetch, "build request", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrFetch, "fetch article", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.WrapError(domain.ErrFetch, "fetch article",
			fmt.Errorf("unexpected status %s for %s", resp.Status, target))
	}

	page, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.WrapError(domain.ErrParse, "parse html", err)
	}

	title := extractTitle(page)
	body := extractBody(page)
	if body == "" {
		return nil, domain.WrapError(domain.ErrParse, "parse html",
			fmt.Errorf("no extractable text at %s", target))
	}

	paragraphs := page.Find("p").Length()
	return &domain.Document{
		Fingerprint: domain.Fingerprint(body),
		SourceURL:   target.String(),
		Source:      prettySource(target.Hostname()),
		Title:       title,
		Body:        body,
		PublishedAt: extractPublishedAt(page),
		Quality:     extractionQuality(body, paragraphs),
	}, nil
}

func documentFromRawText(text string) (*domain.Document, error) {
	if text == "" {
		return nil, domain.WrapError(domain.ErrParse, "read raw text", fmt.Errorf("empty submission"))
	}
	title := text
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = title[:idx]
	}
	if len(title) > 120 {
		title = strings.TrimSpace(title[:120])
	}
	paragraphs := strings.Count(text, "\n\n") + 1
	return &domain.Document{
		Fingerprint: domain.Fingerprint(text),
		Title:       strings.TrimSpace(title),
		Body:        text,
		Quality:     extractionQuality(text, paragraphs),
	}, nil
}

func parseArticleURL(input string) (*url.URL, bool) {
	if strings.ContainsAny(input, " \t\n") {
		return nil, false
	}
	parsed, err := url.Parse(input)
	if err != nil || parsed.Host == "" {
		return nil, false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, false
	}
	return parsed, true
}

func extractTitle(page *goquery.Document) string {
	if title := strings.TrimSpace(page.Find("title").First().Text()); title != "" {
		return title
	}
	for _, selector := range []string{
		`meta[property="og:title"]`,
		`meta[name="twitter:title"]`,
	} {
		if content := strings.TrimSpace(page.Find(selector).AttrOr("content", "")); content != "" {
			return content
		}
	}
	return "Unknown Title"
}

func extractBody(page *goquery.Document) string {
	var parts []string
	for _, selector := range []string{
		`meta[name="description"]`,
		`meta[property="og:description"]`,
	} {
		if content := strings.TrimSpace(page.Find(selector).AttrOr("content", "")); content != "" {
			parts = append(parts, content)
		}
	}

	count := 0
	page.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if len(text) >= 40 {
			parts = append(parts, text)
			count++
		}
		return count < maxParagraphs
	})

	return strings.TrimSpace(strings.Join(parts, " "))
}

func extractPublishedAt(page *goquery.Document) time.Time {
	raw := page.Find(`meta[property="article:published_time"]`).AttrOr("content", "")
	if raw == "" {
		return time.Time{}
	}
	published, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return published.UTC()
}

func prettySource(host string) string {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	if name, ok := sourceNames[host]; ok {
		return name
	}
	base := strings.TrimSuffix(host, ".com")
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	if base == "" {
		return host
	}
	return strings.ToUpper(base[:1]) + base[1:]
}

// extractionQuality grades how much usable text survived: short or
// boilerplate-heavy pages drag confidence down later in the pipeline.
func extractionQuality(body string, paragraphs int) float64 {
	words := len(strings.Fields(body))
	var quality float64
	switch {
	case words < 40:
		quality = 0.2
	case words < 120:
		quality = 0.5
	case words < 300:
		quality = 0.75
	default:
		quality = 0.9
	}
	if paragraphs >= 3 {
		quality += 0.1
	}
	if quality > 1 {
		quality = 1
	}
	return quality
}
