package filewalker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestWalk(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "002.txt"))
	writeFile(t, filepath.Join(root, "001.txt"))
	writeFile(t, filepath.Join(root, "arc2", "010.HTML"))
	writeFile(t, filepath.Join(root, "notes.md"))
	writeFile(t, filepath.Join(root, ".git", "ignored.txt"))

	entries, err := Walk(root)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "001.txt", entries[0].Rel)
	assert.Equal(t, "002.txt", entries[1].Rel)
	assert.Equal(t, filepath.Join("arc2", "010.HTML"), entries[2].Rel)
	assert.Equal(t, Text, entries[0].Format)
	assert.Equal(t, HTML, entries[2].Format)

	assert.Equal(t, filepath.Join("out", "arc2", "010.txt"), entries[2].OutputPath("out"))
}

func TestWalkRejectsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "chapter.txt")
	writeFile(t, path)

	_, err := Walk(path)
	assert.Error(t, err)
}
