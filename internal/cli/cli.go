package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"novel-translator/internal/cache"
	"novel-translator/internal/config"
	"novel-translator/internal/glossary"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var verbose bool
	rootCmd := &cobra.Command{
		Use:   "novel-translator",
		Short: "Translate Japanese web novel chapters into Traditional Chinese",
		Long: `Segments a chapter into lines, drops site navigation noise, translates the
remaining lines in delimiter-joined batches or a bounded parallel pool, and
writes a plain-text translation plus an optional bilingual reading view.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(translateCmd())
	rootCmd.AddCommand(translateDirCmd())
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(glossaryCmd())
	rootCmd.AddCommand(cacheCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// dependencies holds the optional backing stores. Either field may be nil
// when the store is not configured or not reachable.
type dependencies struct {
	pg    *pgxpool.Pool
	neo4j neo4j.DriverWithContext
}

func (d *dependencies) Close(ctx context.Context) {
	if d.pg != nil {
		d.pg.Close()
	}
	if d.neo4j != nil {
		if err := d.neo4j.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to close Neo4j driver")
		}
	}
}

// initDependencies connects the stores named in cfg. Connection failures are
// logged and the store is left out; translation works without either.
func initDependencies(ctx context.Context, cfg *config.Config) *dependencies {
	d := &dependencies{}

	if cfg.DatabaseURL != "" {
		pool, err := connectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("PostgreSQL unavailable, using in-memory cache")
		} else {
			d.pg = pool
			log.Info().Msg("Connected to PostgreSQL")
		}
	}

	if cfg.Neo4jURI != "" {
		driver, err := connectNeo4j(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Neo4j unavailable, translating without glossary")
		} else {
			d.neo4j = driver
			log.Info().Msg("Connected to Neo4j")
		}
	}

	return d
}

func connectPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	return pool, nil
}

func connectNeo4j(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	return driver, nil
}

// openCache returns a cache backed by PostgreSQL when it is connected and
// warmed from the stored rows.
func openCache(ctx context.Context, cfg *config.Config, d *dependencies) *cache.TranslationCache {
	c := cache.NewTranslationCache(d.pg, cfg.LangPair())
	if d.pg == nil {
		return c
	}
	if err := c.EnsureSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to ensure cache schema, using in-memory cache")
		return cache.NewTranslationCache(nil, cfg.LangPair())
	}
	if err := c.Preload(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to preload translation cache")
	}
	return c
}

// loadGlossary returns the stored glossary, or nil when Neo4j is not
// connected.
func loadGlossary(ctx context.Context, d *dependencies) map[string]string {
	if d.neo4j == nil {
		return nil
	}
	terms, err := glossary.NewStore(d.neo4j).All(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load glossary")
		return nil
	}
	return terms
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persisted translation cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete cached translations for the configured language pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := config.Load()
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is not set")
			}
			pool, err := connectPostgres(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			c := cache.NewTranslationCache(pool, cfg.LangPair())
			if err := c.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure cache schema: %w", err)
			}
			n, err := c.Clear(ctx)
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			log.Info().Int64("rows", n).Str("lang_pair", cfg.LangPair()).Msg("Cache cleared")
			return nil
		},
	})
	return cmd
}
