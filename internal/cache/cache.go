package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"novel-translator/internal/textutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS translation_cache (
	hash       TEXT PRIMARY KEY,
	lang_pair  TEXT NOT NULL,
	source     TEXT NOT NULL,
	translated TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// TranslationCache keeps translations in memory, optionally backed by PostgreSQL.
type TranslationCache struct {
	pool     *pgxpool.Pool
	langPair string
	mu       sync.RWMutex
	memory   map[string]string // hash → translated text
}

// NewTranslationCache creates a cache for one language pair. A nil pool
// gives a memory-only cache.
func NewTranslationCache(pool *pgxpool.Pool, langPair string) *TranslationCache {
	return &TranslationCache{
		pool:     pool,
		langPair: langPair,
		memory:   make(map[string]string),
	}
}

func (c *TranslationCache) key(sourceText string) string {
	return textutil.Hash(c.langPair + "\x00" + sourceText)
}

// EnsureSchema creates the cache table.
func (c *TranslationCache) EnsureSchema(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	if _, err := c.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create cache table: %w", err)
	}
	return nil
}

// Get retrieves a cached translation.
func (c *TranslationCache) Get(ctx context.Context, sourceText string) (string, bool) {
	hash := c.key(sourceText)

	c.mu.RLock()
	if v, ok := c.memory[hash]; ok {
		c.mu.RUnlock()
		return v, true
	}
	c.mu.RUnlock()

	if c.pool == nil {
		return "", false
	}

	var translated string
	err := c.pool.QueryRow(ctx, "SELECT translated FROM translation_cache WHERE hash = $1", hash).Scan(&translated)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Debug().Err(err).Msg("Cache lookup failed")
		}
		return "", false
	}

	c.mu.Lock()
	c.memory[hash] = translated
	c.mu.Unlock()

	return translated, true
}

// Set stores a translation in memory and, when configured, in PostgreSQL.
func (c *TranslationCache) Set(ctx context.Context, sourceText, translated string) error {
	hash := c.key(sourceText)

	c.mu.Lock()
	c.memory[hash] = translated
	c.mu.Unlock()

	if c.pool == nil {
		return nil
	}

	_, err := c.pool.Exec(ctx, `
		INSERT INTO translation_cache (hash, lang_pair, source, translated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (hash) DO UPDATE SET translated = EXCLUDED.translated
	`, hash, c.langPair, sourceText, translated)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Preload loads every persisted translation for the language pair into memory.
func (c *TranslationCache) Preload(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}

	rows, err := c.pool.Query(ctx, "SELECT hash, translated FROM translation_cache WHERE lang_pair = $1", c.langPair)
	if err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}
	defer rows.Close()

	loaded := make(map[string]string)
	for rows.Next() {
		var hash, translated string
		if err := rows.Scan(&hash, &translated); err != nil {
			return fmt.Errorf("scan cache row: %w", err)
		}
		loaded[hash] = translated
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}

	c.mu.Lock()
	for k, v := range loaded {
		c.memory[k] = v
	}
	c.mu.Unlock()

	log.Info().Int("count", len(loaded)).Msg("Preloaded translation cache")
	return nil
}

// Clear drops cached translations for the language pair and returns how
// many persisted rows were removed.
func (c *TranslationCache) Clear(ctx context.Context) (int64, error) {
	c.mu.Lock()
	c.memory = make(map[string]string)
	c.mu.Unlock()

	if c.pool == nil {
		return 0, nil
	}

	tag, err := c.pool.Exec(ctx, "DELETE FROM translation_cache WHERE lang_pair = $1", c.langPair)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Len returns the number of translations held in memory.
func (c *TranslationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memory)
}
