package glossary

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Term is one glossary entry.
type Term struct {
	Source string
	Target string
	Note   string
}

// Store keeps glossary terms as (:Term) nodes in Neo4j.
type Store struct {
	driver neo4j.DriverWithContext
}

// NewStore creates a store on an open driver.
func NewStore(driver neo4j.DriverWithContext) *Store {
	return &Store{driver: driver}
}

// EnsureSchema creates the uniqueness constraint on Term.source.
func (s *Store) EnsureSchema(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	if _, err := session.Run(ctx, "CREATE CONSTRAINT IF NOT EXISTS FOR (t:Term) REQUIRE t.source IS UNIQUE", nil); err != nil {
		return fmt.Errorf("create constraint: %w", err)
	}
	return nil
}

// Upsert adds a term or updates its rendering.
func (s *Store) Upsert(ctx context.Context, term Term) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MERGE (t:Term {source: $source})
		SET t.target = $target,
		    t.note = $note
	`, map[string]any{
		"source": term.Source,
		"target": term.Target,
		"note":   term.Note,
	})
	if err != nil {
		return fmt.Errorf("upsert term %s: %w", term.Source, err)
	}
	return nil
}

// Delete removes a term. Deleting a missing term is not an error.
func (s *Store) Delete(ctx context.Context, source string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	if _, err := session.Run(ctx, "MATCH (t:Term {source: $source}) DETACH DELETE t", map[string]any{"source": source}); err != nil {
		return fmt.Errorf("delete term %s: %w", source, err)
	}
	return nil
}

// List returns all terms ordered by source.
func (s *Store) List(ctx context.Context) ([]Term, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (t:Term)
		RETURN t.source AS source, t.target AS target, coalesce(t.note, '') AS note
		ORDER BY t.source
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}

	var terms []Term
	for result.Next(ctx) {
		record := result.Record()
		source, _ := record.Get("source")
		target, _ := record.Get("target")
		note, _ := record.Get("note")

		terms = append(terms, Term{
			Source: fmt.Sprintf("%v", source),
			Target: fmt.Sprintf("%v", target),
			Note:   fmt.Sprintf("%v", note),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read terms: %w", err)
	}
	return terms, nil
}

// All returns the glossary as a source → target lookup.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	terms, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	lookup := make(map[string]string, len(terms))
	for _, t := range terms {
		lookup[t.Source] = t.Target
	}

	log.Info().Int("count", len(lookup)).Msg("Loaded glossary")
	return lookup, nil
}
