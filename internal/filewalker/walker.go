package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Format tells how a chapter file is read.
type Format int

const (
	// Text is pasted chapter text, one line per paragraph.
	Text Format = iota
	// HTML is a saved chapter page that needs extraction.
	HTML
)

// SupportedExtensions maps chapter file extensions to their format.
var SupportedExtensions = map[string]Format{
	".txt":  Text,
	".html": HTML,
	".htm":  HTML,
}

// FileEntry represents a discovered chapter file.
type FileEntry struct {
	Path string
	// Rel is Path relative to the walk root, used to mirror the layout in
	// the output directory.
	Rel    string
	Format Format
}

// OutputPath returns where the translation of e goes under outRoot.
func (e FileEntry) OutputPath(outRoot string) string {
	rel := strings.TrimSuffix(e.Rel, filepath.Ext(e.Rel)) + ".txt"
	return filepath.Join(outRoot, rel)
}

// Walk discovers all chapter files under root, sorted by relative path so
// numbered chapters come out in order.
func Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		format, ok := SupportedExtensions[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		entries = append(entries, FileEntry{Path: path, Rel: rel, Format: format})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Rel < entries[j].Rel })

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered chapter files")
	return entries, nil
}
