package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"TRANSLATE_PROVIDER", "TRANSLATE_STRATEGY", "POOL_SIZE", "NOISE_BLACKLIST",
		"TRANSLATE_DELIMITER", "TITLE_LENGTH", "DATABASE_URL", "NEO4J_URI",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, ProviderGoogle, cfg.Provider)
	assert.Equal(t, StrategyJoined, cfg.Strategy)
	assert.Equal(t, 12, cfg.PoolSize)
	assert.Equal(t, DefaultDelimiter, cfg.Delimiter)
	assert.Equal(t, DefaultBlacklist, cfg.Blacklist)
	assert.Equal(t, 15, cfg.TitleLength)
	assert.Equal(t, "ja:zh-TW", cfg.LangPair())
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.Neo4jURI)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TRANSLATE_STRATEGY", "Parallel")
	t.Setenv("POOL_SIZE", "4")
	t.Setenv("NOISE_BLACKLIST", " 次へ , ,目次")
	t.Setenv("FETCH_TIMEOUT", "5s")

	cfg := Load()

	assert.Equal(t, StrategyParallel, cfg.Strategy)
	assert.Equal(t, 4, cfg.PoolSize)
	assert.Equal(t, []string{"次へ", "目次"}, cfg.Blacklist)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("TEST_INT_KEY", "twelve")
	assert.Equal(t, 7, getEnvInt("TEST_INT_KEY", 7))
}

func TestGetEnvList_FallbackIsCopied(t *testing.T) {
	t.Setenv("TEST_LIST_KEY", "")
	fallback := []string{"a"}

	got := getEnvList("TEST_LIST_KEY", fallback)
	got[0] = "b"

	assert.Equal(t, "a", fallback[0])
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Provider:  ProviderGoogle,
			Strategy:  StrategyJoined,
			PoolSize:  12,
			Delimiter: DefaultDelimiter,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown strategy", mutate: func(c *Config) { c.Strategy = "burst" }, wantErr: "unknown strategy"},
		{name: "unknown provider", mutate: func(c *Config) { c.Provider = "deepl" }, wantErr: "unknown provider"},
		{name: "gemini without key", mutate: func(c *Config) { c.Provider = ProviderGemini }, wantErr: "GEMINI_API_KEY"},
		{name: "gemini with key", mutate: func(c *Config) { c.Provider = ProviderGemini; c.GeminiAPIKey = "k" }},
		{name: "zero pool", mutate: func(c *Config) { c.PoolSize = 0 }, wantErr: "pool size"},
		{name: "blank delimiter", mutate: func(c *Config) { c.Delimiter = "\n\n" }, wantErr: "delimiter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
