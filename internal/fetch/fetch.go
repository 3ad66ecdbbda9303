// Package fetch downloads chapter pages and decodes them to UTF-8.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

const maxErrBody = 1024

// Document is a fetched page.
type Document struct {
	HTML     string
	FinalURL string
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client fetches pages with bounded retries.
type Client struct {
	httpClient *http.Client
	userAgent  string
	maxRetries int
	backoff    time.Duration
}

// NewClient creates a fetch client. maxRetries is the number of extra
// attempts after the first one.
func NewClient(httpClient *http.Client, userAgent string, maxRetries int) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		httpClient: httpClient,
		userAgent:  userAgent,
		maxRetries: maxRetries,
		backoff:    time.Second,
	}
}

// Page downloads rawURL and returns its HTML as UTF-8.
func (c *Client) Page(ctx context.Context, rawURL string) (Document, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff*time.Duration(1<<(attempt-1)) + time.Duration(rand.Int63n(int64(c.backoff/4)+1))
			log.Warn().Err(lastErr).Int("attempt", attempt+1).Dur("backoff", delay).Str("url", rawURL).Msg("Retrying fetch")
			select {
			case <-ctx.Done():
				return Document{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		doc, err := c.get(ctx, rawURL)
		if err == nil {
			return doc, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return Document{}, ctx.Err()
		}
		if !retryable(err) {
			return Document{}, err
		}
	}
	return Document{}, fmt.Errorf("fetch failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

func (c *Client) get(ctx context.Context, rawURL string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Document{}, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "ja,en;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("download URL: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Document{}, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrBody {
			snippet = snippet[:maxErrBody] + "..."
		}
		return Document{}, &StatusError{Code: resp.StatusCode, Body: snippet}
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	html, err := Decode(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return Document{}, fmt.Errorf("decode body: %w", err)
	}

	return Document{HTML: html, FinalURL: finalURL}, nil
}

var metaCharset = regexp.MustCompile(`(?i)<meta[^>]+charset=["']?([a-zA-Z0-9_\-]+)`)

// Decode converts a body in a legacy Japanese encoding to UTF-8. The charset
// comes from the Content-Type header, then from a <meta> tag.
func Decode(body []byte, contentType string) (string, error) {
	charset := ""
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		charset = params["charset"]
	}
	if charset == "" {
		head := body
		if len(head) > 2048 {
			head = head[:2048]
		}
		if m := metaCharset.FindSubmatch(head); m != nil {
			charset = string(m[1])
		}
	}

	enc := japaneseEncoding(charset)
	if enc == nil {
		return string(body), nil
	}

	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(body), enc.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func japaneseEncoding(charset string) encoding.Encoding {
	switch strings.ToLower(strings.ReplaceAll(charset, "_", "-")) {
	case "shift-jis", "sjis", "x-sjis", "windows-31j", "cp932", "ms932":
		return japanese.ShiftJIS
	case "euc-jp", "x-euc-jp":
		return japanese.EUCJP
	case "iso-2022-jp":
		return japanese.ISO2022JP
	default:
		return nil
	}
}
