package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

const maxErrBody = 512

// GoogleClient calls the public Google Translate web endpoint.
type GoogleClient struct {
	endpoint   string
	source     language.Tag
	target     language.Tag
	httpClient *http.Client
	maxRetries int
}

// NewGoogleClient creates a client translating from source to target.
func NewGoogleClient(endpoint string, source, target language.Tag, httpClient *http.Client, maxRetries int) *GoogleClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GoogleClient{
		endpoint:   endpoint,
		source:     source,
		target:     target,
		httpClient: httpClient,
		maxRetries: maxRetries,
	}
}

// Translate returns the translation of text. Blank input is returned as is.
func (gc *GoogleClient) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	return withRetry(ctx, gc.maxRetries, func() (string, error) {
		return gc.doRequest(ctx, text)
	})
}

func (gc *GoogleClient) doRequest(ctx context.Context, text string) (string, error) {
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", gc.source.String())
	query.Set("tl", gc.target.String())
	query.Set("dt", "t")

	form := url.Values{}
	form.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gc.endpoint+"?"+query.Encode(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")

	resp, err := gc.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Body: snippet(respBody)}
	}

	translated, err := parseGoogleResponse(respBody)
	if err != nil {
		return "", err
	}

	log.Debug().Int("source_chars", len([]rune(text))).Int("translated_chars", len([]rune(translated))).Msg("Google translation complete")
	return translated, nil
}

// parseGoogleResponse joins the translated segments of a response shaped like
// [[["訳文","原文",...],...],null,"ja",...].
func parseGoogleResponse(body []byte) (string, error) {
	var top []json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(top) == 0 {
		return "", ErrEmptyTranslation
	}

	var segments [][]any
	if err := json.Unmarshal(top[0], &segments); err != nil {
		return "", fmt.Errorf("unmarshal segments: %w", err)
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			sb.WriteString(s)
		}
	}

	if sb.Len() == 0 {
		return "", ErrEmptyTranslation
	}
	return sb.String(), nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrBody {
		s = s[:maxErrBody] + "..."
	}
	return s
}
