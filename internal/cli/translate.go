package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"novel-translator/internal/config"
	"novel-translator/internal/extract"
	"novel-translator/internal/fetch"
	"novel-translator/internal/pipeline"
	"novel-translator/internal/render"
	"novel-translator/internal/segment"
	"novel-translator/internal/translation"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// runFlags are the per-run overrides shared by translate and fetch.
type runFlags struct {
	out        string
	html       string
	dir        string
	strategy   string
	pool       int
	fontSize   int
	lineHeight float64
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.out, "out", "o", "", `Plain-text output path ("-" for stdout); defaults to <title>.txt in --dir`)
	cmd.Flags().StringVar(&f.html, "html", "", "Also write the bilingual reading view to this path")
	cmd.Flags().StringVar(&f.dir, "dir", ".", "Directory for the default output file")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "Translation strategy: joined or parallel (overrides TRANSLATE_STRATEGY)")
	cmd.Flags().IntVar(&f.pool, "pool", 0, "Concurrent calls in the parallel strategy (overrides POOL_SIZE)")
	cmd.Flags().IntVar(&f.fontSize, "font-size", render.DefaultFontSize, "Reading view font size in px (14-32)")
	cmd.Flags().Float64Var(&f.lineHeight, "line-height", render.DefaultLineHeight, "Reading view line height (1.5-3.5)")
}

// apply copies set overrides into cfg and validates the result.
func (f *runFlags) apply(cfg *config.Config) error {
	if f.strategy != "" {
		cfg.Strategy = strings.ToLower(f.strategy)
	}
	if f.pool != 0 {
		cfg.PoolSize = f.pool
	}
	return cfg.Validate()
}

func translateCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "translate [file|-]",
		Short: "Translate pasted chapter text from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			return runTranslate(cmd, input, &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func fetchCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch a chapter page, extract its body and translate it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, args[0], &flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runTranslate(cmd *cobra.Command, input string, flags *runFlags) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if err := flags.apply(cfg); err != nil {
		return err
	}

	raw, err := readInput(cmd.InOrStdin(), input)
	if err != nil {
		return err
	}

	units := segment.New(cfg.Blacklist, cfg.MinContentLength).Segment(raw)
	if segment.ContentCount(units) == 0 {
		return fmt.Errorf("no translatable text in %s", inputName(input))
	}

	return translateUnits(ctx, cmd, cfg, flags, units, "")
}

func runFetch(cmd *cobra.Command, url string, flags *runFlags) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if err := flags.apply(cfg); err != nil {
		return err
	}

	client := fetch.NewClient(&http.Client{Timeout: cfg.FetchTimeout}, cfg.UserAgent, cfg.FetchRetries)
	doc, err := client.Page(ctx, url)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}

	chapter, err := extract.Parse(doc.HTML, cfg.Selectors)
	if err != nil {
		return fmt.Errorf("extract %s: %w", doc.FinalURL, err)
	}
	log.Info().
		Str("url", doc.FinalURL).
		Str("title", chapter.Title).
		Int("paragraphs", len(chapter.Lines)).
		Msg("Extracted chapter")

	units := segment.New(cfg.Blacklist, cfg.MinContentLength).SegmentNodes(chapter.Lines)
	if segment.ContentCount(units) == 0 {
		return fmt.Errorf("no translatable text at %s", doc.FinalURL)
	}

	return translateUnits(ctx, cmd, cfg, flags, units, chapter.Title)
}

// session is one configured pipeline with its backing stores.
type session struct {
	pipeline *pipeline.Translator
	deps     *dependencies
}

func newSession(ctx context.Context, cfg *config.Config) (*session, error) {
	translator, err := translation.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create translator: %w", err)
	}

	deps := initDependencies(ctx, cfg)
	p := pipeline.New(translator.Translate, pipeline.Options{
		Strategy:      pipeline.Strategy(cfg.Strategy),
		PoolSize:      cfg.PoolSize,
		Delimiter:     cfg.Delimiter,
		BatchMaxChars: cfg.BatchMaxChars,
		Glossary:      loadGlossary(ctx, deps),
		Cache:         openCache(ctx, cfg, deps),
	})
	return &session{pipeline: p, deps: deps}, nil
}

func (s *session) Close() {
	s.deps.Close(context.Background())
}

func (s *session) translate(ctx context.Context, units []segment.Unit) ([]pipeline.Pair, error) {
	pairs, stats := s.pipeline.Run(ctx, units)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("translation cancelled: %w", err)
	}
	if stats.Content > 0 && stats.Fallback == stats.Content {
		log.Warn().Msg("Every line fell back to the original text")
	}
	return pairs, nil
}

// translateUnits runs the pipeline over units and writes the outputs.
func translateUnits(ctx context.Context, cmd *cobra.Command, cfg *config.Config, flags *runFlags, units []segment.Unit, heading string) error {
	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	pairs, err := s.translate(ctx, units)
	if err != nil {
		return err
	}
	return writeOutputs(cmd.OutOrStdout(), cfg, flags, pairs, heading)
}

// writeOutputs writes the plain-text translation and, when requested, the
// reading view.
func writeOutputs(stdout io.Writer, cfg *config.Config, flags *runFlags, pairs []pipeline.Pair, heading string) error {
	title := pipeline.Title(pairs, cfg.TitleLength)
	text := pipeline.PlainText(pairs)

	switch flags.out {
	case "-":
		if _, err := io.WriteString(stdout, text); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
	default:
		path := flags.out
		if path == "" {
			path = filepath.Join(flags.dir, render.Filename(title, cfg.DefaultTitle))
		}
		if err := writeFile(path, func(w io.Writer) error {
			_, err := io.WriteString(w, text)
			return err
		}); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("Wrote translation")
	}

	if flags.html == "" {
		return nil
	}

	if heading == "" {
		heading = title
	}
	view := render.View{
		Title:      heading,
		Pairs:      pairs,
		FontSize:   flags.fontSize,
		LineHeight: flags.lineHeight,
	}
	if err := writeFile(flags.html, func(w io.Writer) error {
		return render.HTML(w, view)
	}); err != nil {
		return err
	}
	log.Info().Str("path", flags.html).Msg("Wrote reading view")
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func readInput(stdin io.Reader, input string) (string, error) {
	if input == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

func inputName(input string) string {
	if input == "-" {
		return "stdin"
	}
	return input
}
