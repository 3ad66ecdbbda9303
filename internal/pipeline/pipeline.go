// Package pipeline translates segmented units and zips the translations back
// into reading order. Translation failures never leave this package: a unit
// whose translation fails keeps its original text.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"novel-translator/internal/glossary"
	"novel-translator/internal/segment"
	"novel-translator/internal/textutil"
	"novel-translator/internal/worker"

	"github.com/rs/zerolog/log"
)

// TranslateFunc is the remote translation call for one string.
type TranslateFunc func(ctx context.Context, text string) (string, error)

// Cache is consulted before and filled after remote calls.
type Cache interface {
	Get(ctx context.Context, sourceText string) (string, bool)
	Set(ctx context.Context, sourceText, translated string) error
}

// Strategy selects how content units are sent to the translator.
type Strategy string

const (
	// Joined sends each batch as one delimiter-joined call.
	Joined Strategy = "joined"
	// Parallel sends one call per unit across a bounded pool.
	Parallel Strategy = "parallel"
)

type Options struct {
	Strategy Strategy
	// PoolSize bounds concurrent calls in the Parallel strategy.
	PoolSize int
	// Delimiter joins batch members. Its trimmed form is the split marker.
	Delimiter string
	// BatchMaxChars caps the runes sent in one joined call; 0 means no cap.
	BatchMaxChars int
	// Glossary maps source terms to fixed renderings.
	Glossary map[string]string
	Cache    Cache
}

// Stats counts what happened during one Run.
type Stats struct {
	Units      int
	Content    int
	Cached     int
	Translated int
	Fallback   int
	Calls      int
}

// Translator runs the translation step of the pipeline. It holds no state
// between runs and is safe for concurrent use.
type Translator struct {
	translate TranslateFunc
	opts      Options
}

var errEmptyResult = errors.New("translator returned empty text")

// New creates a Translator around fn.
func New(fn TranslateFunc, opts Options) *Translator {
	if opts.PoolSize < 1 {
		opts.PoolSize = 1
	}
	if opts.Strategy != Parallel {
		opts.Strategy = Joined
	}
	return &Translator{translate: fn, opts: opts}
}

// Translate returns one Pair per unit, in unit order.
func (t *Translator) Translate(ctx context.Context, units []segment.Unit) []Pair {
	pairs, _ := t.Run(ctx, units)
	return pairs
}

type outcome struct {
	text string
	err  error
}

// run carries per-call counters.
type run struct {
	calls int64
}

// Run is Translate with statistics.
func (t *Translator) Run(ctx context.Context, units []segment.Unit) ([]Pair, Stats) {
	stats := Stats{Units: len(units)}

	var contents []segment.Unit
	for _, u := range units {
		if u.Kind == segment.Content {
			contents = append(contents, u)
		}
	}
	stats.Content = len(contents)

	results := make([]outcome, len(contents))
	var pending []int
	for i, u := range contents {
		if t.opts.Cache != nil {
			if cached, ok := t.opts.Cache.Get(ctx, u.Text); ok {
				results[i] = outcome{text: cached}
				stats.Cached++
				continue
			}
		}
		pending = append(pending, i)
	}

	texts := make([]string, len(pending))
	for j, i := range pending {
		texts[j] = contents[i].Text
	}

	r := &run{}
	var fresh []outcome
	switch t.opts.Strategy {
	case Parallel:
		fresh = t.translateParallel(ctx, texts, r)
	default:
		fresh = t.translateJoined(ctx, texts, r)
	}

	for j, i := range pending {
		u := contents[i]
		res := fresh[j]
		if res.err != nil {
			log.Warn().Err(res.err).
				Int("position", u.Position).
				Str("text", textutil.Truncate(u.Text, 20)).
				Msg("Translation failed, keeping original text")
			stats.Fallback++
			results[i] = res
			continue
		}
		stats.Translated++
		results[i] = res
		if t.opts.Cache != nil {
			if err := t.opts.Cache.Set(ctx, u.Text, res.text); err != nil {
				log.Warn().Err(err).Msg("Failed to cache translation")
			}
		}
	}
	stats.Calls = int(atomic.LoadInt64(&r.calls))

	log.Info().
		Int("units", stats.Units).
		Int("content", stats.Content).
		Int("cached", stats.Cached).
		Int("translated", stats.Translated).
		Int("fallback", stats.Fallback).
		Int("calls", stats.Calls).
		Str("strategy", string(t.opts.Strategy)).
		Msg("Translation finished")

	return merge(units, results), stats
}

// call sends one string to the translator with glossary terms protected.
func (t *Translator) call(ctx context.Context, text string, r *run) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	atomic.AddInt64(&r.calls, 1)

	protected, mappings := glossary.Protect(text, t.opts.Glossary)
	translated, err := t.translate(ctx, protected)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(translated) == "" {
		return "", errEmptyResult
	}
	return glossary.Restore(translated, mappings), nil
}

// translateSequential calls the translator once per text, in order.
func (t *Translator) translateSequential(ctx context.Context, texts []string, r *run) []outcome {
	out := make([]outcome, len(texts))
	for i, text := range texts {
		translated, err := t.call(ctx, text, r)
		out[i] = outcome{text: translated, err: err}
	}
	return out
}

func (t *Translator) translateParallel(ctx context.Context, texts []string, r *run) []outcome {
	pool := worker.NewPool(t.opts.PoolSize, func(ctx context.Context, text string) (string, error) {
		return t.call(ctx, text, r)
	})

	tasks := pool.Execute(ctx, texts)
	out := make([]outcome, len(tasks))
	for i, task := range tasks {
		out[i] = outcome{text: task.Result, err: task.Err}
	}
	return out
}

func (t *Translator) translateJoined(ctx context.Context, texts []string, r *run) []outcome {
	out := make([]outcome, 0, len(texts))
	if len(texts) == 0 {
		return out
	}

	marker := strings.TrimSpace(t.opts.Delimiter)
	if marker == "" {
		return t.translateSequential(ctx, texts, r)
	}

	delimLen := utf8.RuneCountInString(t.opts.Delimiter)
	batches := worker.BatchBySize(texts, t.opts.BatchMaxChars, func(s string) int {
		return utf8.RuneCountInString(s) + delimLen
	})
	for _, batch := range batches {
		out = append(out, t.joinBatch(ctx, batch, marker, r)...)
	}
	return out
}

// joinBatch translates members with one call and falls back to per-member
// calls when the call fails or the answer does not split into one part per
// member.
func (t *Translator) joinBatch(ctx context.Context, members []string, marker string, r *run) []outcome {
	if len(members) == 1 {
		return t.translateSequential(ctx, members, r)
	}

	for _, m := range members {
		if strings.Contains(m, marker) {
			log.Warn().Str("marker", marker).Msg("Batch text contains the delimiter, translating one by one")
			return t.translateSequential(ctx, members, r)
		}
	}

	response, err := t.call(ctx, strings.Join(members, t.opts.Delimiter), r)
	if err != nil {
		log.Warn().Err(err).Int("size", len(members)).Msg("Batch translation failed, translating one by one")
		return t.translateSequential(ctx, members, r)
	}

	parts := splitJoined(response, marker)
	if len(parts) != len(members) {
		log.Warn().
			Int("expected", len(members)).
			Int("got", len(parts)).
			Msg("Batch response misaligned, translating one by one")
		return t.translateSequential(ctx, members, r)
	}

	out := make([]outcome, len(members))
	for i, part := range parts {
		if part == "" {
			translated, err := t.call(ctx, members[i], r)
			out[i] = outcome{text: translated, err: err}
			continue
		}
		out[i] = outcome{text: part}
	}
	return out
}

// splitJoined splits a batch response on the marker and trims each part;
// translators tend to reflow the whitespace around the marker.
func splitJoined(response, marker string) []string {
	parts := strings.Split(response, marker)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
