package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Strategy names accepted in TRANSLATE_STRATEGY.
const (
	StrategyJoined   = "joined"
	StrategyParallel = "parallel"
)

// Provider names accepted in TRANSLATE_PROVIDER.
const (
	ProviderGoogle = "google"
	ProviderGemini = "gemini"
)

// DefaultDelimiter separates members of a joined batch. The marker sits between
// private-use code points so it does not collide with novel text.
const DefaultDelimiter = "\n\n[[\uE000SEP\uE000]]\n\n"

// DefaultBlacklist holds navigation strings found on novel sites.
var DefaultBlacklist = []string{
	"次へ",
	"前へ",
	"目次",
	"ブックマーク",
	"しおり",
	"感想を書く",
	"レビューを書く",
	"評価をする",
	"小説家になろう",
	"ログイン",
}

// DefaultSelectors are tried in order to find the chapter body.
var DefaultSelectors = []string{
	"#novel_honbun",
	".js-novel-text",
	".p-novel__body",
	".novel_view",
}

type Config struct {
	Provider         string
	SourceLang       string
	TargetLang       string
	GeminiAPIKey     string
	TranslationModel string
	GoogleEndpoint   string
	MaxRetries       int
	RequestTimeout   time.Duration

	Strategy         string
	PoolSize         int
	Delimiter        string
	BatchMaxChars    int
	Blacklist        []string
	MinContentLength int
	TitleLength      int
	DefaultTitle     string

	Selectors    []string
	FetchRetries int
	FetchTimeout time.Duration
	UserAgent    string

	DatabaseURL   string
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		Provider:         strings.ToLower(getEnv("TRANSLATE_PROVIDER", ProviderGoogle)),
		SourceLang:       getEnv("SOURCE_LANG", "ja"),
		TargetLang:       getEnv("TARGET_LANG", "zh-TW"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		TranslationModel: getEnv("TRANSLATION_MODEL", "gemini-2.5-flash"),
		GoogleEndpoint:   getEnv("GOOGLE_TRANSLATE_ENDPOINT", "https://translate.googleapis.com/translate_a/single"),
		MaxRetries:       getEnvInt("TRANSLATE_MAX_RETRIES", 3),
		RequestTimeout:   getEnvDuration("TRANSLATE_TIMEOUT", 60*time.Second),

		Strategy:         strings.ToLower(getEnv("TRANSLATE_STRATEGY", StrategyJoined)),
		PoolSize:         getEnvInt("POOL_SIZE", 12),
		Delimiter:        getEnv("TRANSLATE_DELIMITER", DefaultDelimiter),
		BatchMaxChars:    getEnvInt("BATCH_MAX_CHARS", 4500),
		Blacklist:        getEnvList("NOISE_BLACKLIST", DefaultBlacklist),
		MinContentLength: getEnvInt("MIN_CONTENT_LENGTH", 2),
		TitleLength:      getEnvInt("TITLE_LENGTH", 15),
		DefaultTitle:     getEnv("DEFAULT_TITLE", "小說翻譯稿"),

		Selectors:    getEnvList("CONTENT_SELECTORS", DefaultSelectors),
		FetchRetries: getEnvInt("FETCH_RETRIES", 3),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		UserAgent: getEnv("FETCH_USER_AGENT",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Neo4jURI:      getEnv("NEO4J_URI", ""),
		Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", "password"),
	}
}

// Validate reports the first setting that cannot drive a run.
func (c *Config) Validate() error {
	switch c.Strategy {
	case StrategyJoined, StrategyParallel:
	default:
		return fmt.Errorf("unknown strategy %q (want %s or %s)", c.Strategy, StrategyJoined, StrategyParallel)
	}

	switch c.Provider {
	case ProviderGoogle:
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider %s", ProviderGemini)
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.PoolSize < 1 {
		return fmt.Errorf("pool size must be positive, got %d", c.PoolSize)
	}
	if strings.TrimSpace(c.Delimiter) == "" {
		return fmt.Errorf("delimiter must contain a non-whitespace marker")
	}
	return nil
}

// LangPair identifies the translation direction, e.g. "ja:zh-TW".
func (c *Config) LangPair() string {
	return c.SourceLang + ":" + c.TargetLang
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// getEnvList splits a comma-separated value, dropping blank items.
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
