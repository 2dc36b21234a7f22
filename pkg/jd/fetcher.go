// Package jd resolves a job description from literal text, a file or a web page.
package jd

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

const (
	defaultTimeout = 30 * time.Second
	maxPageBytes   = 5 << 20
	userAgent      = "cvforge/1.0"
)

// jobSelectors are tried in order; the first match is taken as the posting body.
var jobSelectors = []string{
	".job-description",
	"#job-description",
	".posting-content",
	".job-details",
	"[data-testid='job-description']",
	"main",
	"article",
}

// Fetcher resolves job descriptions.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher. A nil client gets a 30 second timeout.
func NewFetcher(client *http.Client) (f *Fetcher) {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	f = &Fetcher{client: client}
	return f
}

// Resolve returns the job description text for input, which may be an http(s) URL,
// the path of an existing file, or the description itself.
func (f *Fetcher) Resolve(ctx context.Context, input string) (text string, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return text, err
	}

	parsedURL, urlErr := url.Parse(input)
	if urlErr == nil && (parsedURL.Scheme == "http" || parsedURL.Scheme == "https") && parsedURL.Host != "" {
		text, err = f.fetchFromURL(ctx, input)
		if err != nil {
			err = errors.Wrapf(err, "failed to fetch JD from URL: %s", input)
			return text, err
		}
		return text, err
	}

	if info, statErr := os.Stat(input); statErr == nil && info.Mode().IsRegular() {
		text, err = fetchFromFile(input)
		if err != nil {
			err = errors.Wrapf(err, "failed to fetch JD from file: %s", input)
			return text, err
		}
		return text, err
	}

	if looksLikePath(input) {
		err = errors.Errorf("job description file not found: %s", input)
		return text, err
	}

	text = input
	return text, err
}

// Excerpt returns at most n runes of text with whitespace collapsed.
func Excerpt(text string, n int) (excerpt string) {
	excerpt = strings.Join(strings.Fields(text), " ")
	if n <= 0 || utf8.RuneCountInString(excerpt) <= n {
		return excerpt
	}

	runes := []rune(excerpt)
	excerpt = strings.TrimSpace(string(runes[:n])) + "…"
	return excerpt
}

// looksLikePath catches a mistyped file name before it is sent off as the description.
func looksLikePath(input string) (ok bool) {
	if strings.ContainsAny(input, " \t\n") {
		return ok
	}
	ext := strings.ToLower(filepath.Ext(input))
	switch ext {
	case ".txt", ".md", ".markdown", ".html", ".htm":
		ok = true
	}
	return ok
}

func fetchFromFile(path string) (text string, err error) {
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read file: %s", path)
		return text, err
	}

	text = strings.TrimSpace(string(data))
	if text == "" {
		err = errors.New("file is empty")
		return text, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" || ext == ".htm" {
		text, err = ExtractText(text)
	}

	return text, err
}

func (f *Fetcher) fetchFromURL(ctx context.Context, urlStr string) (text string, err error) {
	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return text, err
	}
	req.Header.Set("User-Agent", userAgent)

	var resp *http.Response
	resp, err = f.client.Do(req)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return text, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("HTTP request failed with status: %d", resp.StatusCode)
		return text, err
	}

	var body []byte
	body, err = io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return text, err
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/plain") {
		text = strings.TrimSpace(string(body))
	} else {
		text, err = ExtractText(string(body))
		if err != nil {
			return text, err
		}
	}

	if text == "" {
		err = errors.New("fetched content is empty after processing")
		return text, err
	}

	return text, err
}

// ExtractText reduces an HTML page to the text of its job posting.
func ExtractText(html string) (text string, err error) {
	var doc *goquery.Document
	doc, err = goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		err = errors.Wrap(err, "failed to parse HTML")
		return text, err
	}

	doc.Find("script, style, noscript, nav, footer, header, iframe").Remove()

	var selection *goquery.Selection
	for _, selector := range jobSelectors {
		if s := doc.Find(selector); s.Length() > 0 {
			selection = s.First()
			break
		}
	}
	if selection == nil {
		selection = doc.Find("body")
	}

	text = cleanWhitespace(selection.Text())
	return text, err
}

func cleanWhitespace(text string) (cleaned string) {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	cleaned = strings.Join(kept, "\n")
	return cleaned
}
