// Package jobpost fetches a job posting page and reduces it to plain text
// suitable for use as a job description.
package jobpost

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultTimeout   = 20 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; resume-matcher/1.0)"

	maxBodyBytes = 2 << 20
)

// Error reports a failed fetch.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("job posting %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("job posting %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Fetcher downloads job postings.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewFetcher returns a Fetcher with a bounded timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Client:    &http.Client{Timeout: DefaultTimeout},
		UserAgent: DefaultUserAgent,
	}
}

// Fetch returns the main text of the posting at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", &Error{URL: rawURL, Message: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	ua := f.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &Error{URL: rawURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{URL: rawURL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to read response body", Cause: err}
	}

	text, err := MainText(string(body))
	if err != nil {
		return "", &Error{URL: rawURL, Message: "failed to parse HTML", Cause: err}
	}
	if text == "" {
		return "", &Error{URL: rawURL, Message: "no text content"}
	}
	return text, nil
}

// Selectors tried in order to find the posting body; the first match wins.
var Selectors = []string{
	".job-description",
	"#job-description",
	"[data-testid='job-description']",
	".posting-content",
	".job-details",
	".job-content",
	"main",
	"article",
	"#content",
	".content",
}

// MainText strips page chrome from html and returns the posting text with
// whitespace collapsed. It falls back to <body> when no selector matches.
func MainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("nav, footer, header, script, style, noscript, form, .cookie-banner, .sidebar").Remove()

	var main *goquery.Selection
	for _, sel := range Selectors {
		if s := doc.Find(sel); s.Length() > 0 {
			main = s.First()
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}

	var lines []string
	main.Find("h1, h2, h3, h4, p, li, dd, dt").Each(func(_ int, s *goquery.Selection) {
		if line := collapse(s.Text()); line != "" {
			lines = append(lines, line)
		}
	})
	if len(lines) == 0 {
		return collapse(main.Text()), nil
	}
	return strings.Join(dedupe(lines), "\n"), nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// dedupe drops lines that repeat the previous one, which happens when a <p>
// nests inside an <li>.
func dedupe(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if len(out) > 0 && out[len(out)-1] == l {
			continue
		}
		out = append(out, l)
	}
	return out
}
