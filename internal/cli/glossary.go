package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"novel-translator/internal/config"
	"novel-translator/internal/glossary"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func glossaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Manage fixed renderings for names and terms",
	}

	var note string
	add := &cobra.Command{
		Use:   "add <source> <target>",
		Short: "Add or update a glossary term",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGlossary(func(ctx context.Context, store *glossary.Store) error {
				term := glossary.Term{Source: args[0], Target: args[1], Note: note}
				if err := store.Upsert(ctx, term); err != nil {
					return err
				}
				log.Info().Str("source", term.Source).Str("target", term.Target).Msg("Glossary term saved")
				return nil
			})
		},
	}
	add.Flags().StringVar(&note, "note", "", "Free-form note stored with the term")

	remove := &cobra.Command{
		Use:   "remove <source>",
		Short: "Remove a glossary term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGlossary(func(ctx context.Context, store *glossary.Store) error {
				if err := store.Delete(ctx, args[0]); err != nil {
					return err
				}
				log.Info().Str("source", args[0]).Msg("Glossary term removed")
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print all glossary terms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGlossary(func(ctx context.Context, store *glossary.Store) error {
				terms, err := store.List(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, t := range terms {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Source, t.Target, t.Note)
				}
				return tw.Flush()
			})
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}

// withGlossary connects to Neo4j, ensures the schema and runs fn.
func withGlossary(fn func(ctx context.Context, store *glossary.Store) error) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if cfg.Neo4jURI == "" {
		return fmt.Errorf("NEO4J_URI is not set")
	}

	driver, err := connectNeo4j(ctx, cfg)
	if err != nil {
		return err
	}
	defer driver.Close(context.Background())

	store := glossary.NewStore(driver)
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure glossary schema: %w", err)
	}
	return fn(ctx, store)
}
