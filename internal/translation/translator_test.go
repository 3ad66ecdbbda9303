package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"novel-translator/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func init() {
	backoffBase = time.Millisecond
}

var (
	ja   = language.Japanese
	zhTW = language.MustParse("zh-TW")
)

func TestGoogleClientTranslate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "gtx", r.URL.Query().Get("client"))
		assert.Equal(t, "ja", r.URL.Query().Get("sl"))
		assert.Equal(t, "zh-TW", r.URL.Query().Get("tl"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "こんにちは。世界", r.PostForm.Get("q"))

		_, _ = io.WriteString(w, `[[["你好。","こんにちは。",null,null,10],["世界","世界",null,null,10]],null,"ja"]`)
	}))
	t.Cleanup(server.Close)

	client := NewGoogleClient(server.URL, ja, zhTW, server.Client(), 0)

	got, err := client.Translate(context.Background(), "こんにちは。世界")
	require.NoError(t, err)
	assert.Equal(t, "你好。世界", got)
}

func TestGoogleClientRetriesOnRateLimit(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `[[["好","良",null,null,1]]]`)
	}))
	t.Cleanup(server.Close)

	client := NewGoogleClient(server.URL, ja, zhTW, server.Client(), 2)

	got, err := client.Translate(context.Background(), "良")
	require.NoError(t, err)
	assert.Equal(t, "好", got)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGoogleClientDoesNotRetryBadRequest(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "bad request")
	}))
	t.Cleanup(server.Close)

	client := NewGoogleClient(server.URL, ja, zhTW, server.Client(), 3)

	_, err := client.Translate(context.Background(), "本文")
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "bad request", se.Body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGoogleClientBlankInputSkipsCall(t *testing.T) {
	t.Parallel()

	client := NewGoogleClient("http://127.0.0.1:0", ja, zhTW, nil, 0)

	got, err := client.Translate(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "  ", got)
}

func TestParseGoogleResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{name: "segments", body: `[[["a","x"],["b","y"]]]`, want: "ab"},
		{name: "empty top", body: `[]`, wantErr: ErrEmptyTranslation},
		{name: "null segments", body: `[null,null,"ja"]`, wantErr: ErrEmptyTranslation},
		{name: "no strings", body: `[[[null,"x"]]]`, wantErr: ErrEmptyTranslation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGoogleResponse([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseGoogleResponse([]byte(`<html>`))
	assert.ErrorContains(t, err, "unmarshal response")
}

func TestGeminiClientTranslate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req geminiRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) || !assert.Len(t, req.Contents, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Contains(t, req.Contents[0].Parts[0].Text, "猫が鳴いた")
		assert.Contains(t, req.SystemInstruction.Parts[0].Text, "Japanese")

		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":" 貓叫了 "}]}}],"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":2}}`)
	}))
	t.Cleanup(server.Close)

	client := NewGeminiClient("test-key", "gemini-test", ja, zhTW, server.Client(), 0)
	client.baseURL = server.URL

	got, err := client.Translate(context.Background(), "猫が鳴いた")
	require.NoError(t, err)
	assert.Equal(t, "貓叫了", got)
}

func TestGeminiClientRetriesServerErrorThenFails(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := NewGeminiClient("k", "m", ja, zhTW, server.Client(), 2)
	client.baseURL = server.URL

	_, err := client.Translate(context.Background(), "本文")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGeminiClientEmptyCandidates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	t.Cleanup(server.Close)

	client := NewGeminiClient("k", "m", ja, zhTW, server.Client(), 3)
	client.baseURL = server.URL

	_, err := client.Translate(context.Background(), "本文")
	assert.ErrorIs(t, err, ErrEmptyTranslation)
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(fmt.Errorf("wrap: %w", context.DeadlineExceeded)))
	assert.False(t, IsRetryable(ErrEmptyTranslation))
	assert.False(t, IsRetryable(&StatusError{Code: http.StatusForbidden}))
	assert.True(t, IsRetryable(&StatusError{Code: http.StatusTooManyRequests}))
	assert.True(t, IsRetryable(&StatusError{Code: http.StatusBadGateway}))
	assert.True(t, IsRetryable(errors.New("connection reset")))
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := withRetry(ctx, 5, func() (string, error) {
		calls++
		cancel()
		return "", errors.New("network down")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestNewPicksProvider(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Provider: config.ProviderGoogle, SourceLang: "ja", TargetLang: "zh-TW"}
	tr, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &GoogleClient{}, tr)

	cfg = &config.Config{Provider: config.ProviderGemini, SourceLang: "ja", TargetLang: "zh-TW", GeminiAPIKey: "k"}
	tr, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, tr)

	cfg = &config.Config{Provider: "deepl", SourceLang: "ja", TargetLang: "zh-TW"}
	_, err = New(cfg)
	assert.ErrorContains(t, err, "unknown provider")

	cfg = &config.Config{Provider: config.ProviderGoogle, SourceLang: "not a tag!", TargetLang: "zh-TW"}
	_, err = New(cfg)
	assert.ErrorContains(t, err, "parse source language")
}
