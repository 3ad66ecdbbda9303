package translation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"novel-translator/internal/config"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

// Translator translates one string. It is the only boundary to the remote
// translation service.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// StatusError is a non-2xx response from a provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.Code, e.Body)
}

// ErrEmptyTranslation is returned when a provider answers with no text.
var ErrEmptyTranslation = errors.New("empty translation")

// IsRetryable reports whether another attempt may succeed: rate limits,
// server errors and transport failures are retryable, other statuses are not.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return !errors.Is(err, ErrEmptyTranslation)
}

// New builds the provider named in cfg.
func New(cfg *config.Config) (Translator, error) {
	source, err := language.Parse(cfg.SourceLang)
	if err != nil {
		return nil, fmt.Errorf("parse source language %q: %w", cfg.SourceLang, err)
	}
	target, err := language.Parse(cfg.TargetLang)
	if err != nil {
		return nil, fmt.Errorf("parse target language %q: %w", cfg.TargetLang, err)
	}

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	switch cfg.Provider {
	case config.ProviderGoogle:
		return NewGoogleClient(cfg.GoogleEndpoint, source, target, httpClient, cfg.MaxRetries), nil
	case config.ProviderGemini:
		return NewGeminiClient(cfg.GeminiAPIKey, cfg.TranslationModel, source, target, httpClient, cfg.MaxRetries), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// withRetry calls fn until it succeeds, returns a non-retryable error, or
// maxRetries extra attempts are used up.
func withRetry(ctx context.Context, maxRetries int, fn func() (string, error)) (string, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt)
			log.Debug().Int("attempt", attempt+1).Dur("backoff", delay).Err(lastErr).Msg("Retrying translation")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !IsRetryable(err) {
			break
		}
	}

	return "", fmt.Errorf("translation failed after %d attempts: %w", maxRetries+1, lastErr)
}

var backoffBase = time.Second

func backoffDelay(attempt int) time.Duration {
	delay := backoffBase * time.Duration(1<<(attempt-1))
	jitter := time.Duration(rand.Int63n(int64(backoffBase/4) + 1))
	if max := 30 * time.Second; delay+jitter > max {
		return max
	}
	return delay + jitter
}
