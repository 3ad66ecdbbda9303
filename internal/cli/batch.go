package cli

import (
	"fmt"
	"io"
	"os"

	"novel-translator/internal/config"
	"novel-translator/internal/extract"
	"novel-translator/internal/fetch"
	"novel-translator/internal/filewalker"
	"novel-translator/internal/pipeline"
	"novel-translator/internal/segment"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func translateDirCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "translate-dir <input-dir> <output-dir>",
		Short: "Translate every .txt and saved .html chapter under a directory",
		Long: `Walks input-dir for chapter files, translates each one and writes
<output-dir>/<same relative path>.txt. A file that fails is logged and skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslateDir(args[0], args[1], &flags)
		},
	}
	cmd.Flags().StringVar(&flags.strategy, "strategy", "", "Translation strategy: joined or parallel (overrides TRANSLATE_STRATEGY)")
	cmd.Flags().IntVar(&flags.pool, "pool", 0, "Concurrent calls in the parallel strategy (overrides POOL_SIZE)")
	return cmd
}

func runTranslateDir(inputDir, outputDir string, flags *runFlags) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if err := flags.apply(cfg); err != nil {
		return err
	}

	entries, err := filewalker.Walk(inputDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		log.Warn().Str("dir", inputDir).Msg("No chapter files found")
		return nil
	}

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	seg := segment.New(cfg.Blacklist, cfg.MinContentLength)
	var failed int
	for i, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Info().Int("file", i+1).Int("total", len(entries)).Str("path", entry.Rel).Msg("Translating chapter")

		units, err := loadChapter(entry, seg, cfg.Selectors)
		if err != nil {
			log.Error().Err(err).Str("path", entry.Rel).Msg("Failed to read chapter, skipping")
			failed++
			continue
		}
		if segment.ContentCount(units) == 0 {
			log.Warn().Str("path", entry.Rel).Msg("No translatable text, skipping")
			continue
		}

		pairs, err := s.translate(ctx, units)
		if err != nil {
			return err
		}

		out := entry.OutputPath(outputDir)
		if err := writeFile(out, func(w io.Writer) error {
			_, err := io.WriteString(w, pipeline.PlainText(pairs))
			return err
		}); err != nil {
			log.Error().Err(err).Str("path", out).Msg("Failed to write translation")
			failed++
			continue
		}
	}

	log.Info().Int("files", len(entries)).Int("failed", failed).Str("output", outputDir).Msg("Directory translation complete")
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(entries))
	}
	return nil
}

// loadChapter reads one chapter file into units. Saved pages go through the
// same decoding and extraction as fetched ones.
func loadChapter(entry filewalker.FileEntry, seg *segment.Segmenter, selectors []string) ([]segment.Unit, error) {
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", entry.Path, err)
	}

	if entry.Format == filewalker.Text {
		return seg.Segment(string(data)), nil
	}

	html, err := fetch.Decode(data, "")
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", entry.Path, err)
	}
	chapter, err := extract.Parse(html, selectors)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", entry.Path, err)
	}
	return seg.SegmentNodes(chapter.Lines), nil
}
