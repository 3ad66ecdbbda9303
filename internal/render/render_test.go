package render

import (
	"bytes"
	"strings"
	"testing"

	"novel-translator/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeClampsSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		in         View
		fontSize   int
		lineHeight float64
	}{
		{name: "defaults", in: View{}, fontSize: 20, lineHeight: 2.1},
		{name: "too small", in: View{FontSize: 8, LineHeight: 1.0}, fontSize: 14, lineHeight: 1.5},
		{name: "too large", in: View{FontSize: 64, LineHeight: 5}, fontSize: 32, lineHeight: 3.5},
		{name: "in range", in: View{FontSize: 24, LineHeight: 1.8}, fontSize: 24, lineHeight: 1.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.in.Normalize()
			assert.Equal(t, tt.fontSize, v.FontSize)
			assert.InDelta(t, tt.lineHeight, v.LineHeight, 1e-9)
		})
	}
}

func TestHTMLRendersPairsAndGaps(t *testing.T) {
	t.Parallel()

	pairs := []pipeline.Pair{
		{Original: "こんにちは", Translated: "你好"},
		{Gap: true},
		{Original: "<b>太字</b>", Translated: "<script>x</script>", Fallback: true},
	}

	var buf bytes.Buffer
	require.NoError(t, HTML(&buf, View{Title: "第一話", Pairs: pairs}))
	out := buf.String()

	assert.Contains(t, out, "<h2>第一話</h2>")
	assert.Contains(t, out, `<div class="translated">你好</div>`)
	assert.Contains(t, out, `<div class="original">こんにちは</div>`)
	assert.Contains(t, out, "&lt;script&gt;x&lt;/script&gt;")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "font-size: 20px")
	assert.Contains(t, out, "line-height: 2.1")
	assert.Equal(t, 2, strings.Count(out, `class="paragraph-block"`))
	assert.True(t, strings.Index(out, "你好") < strings.Index(out, "<br>"))
}

func TestFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "第一話 開始.txt", Filename(" 第一話 開始 ", DefaultTitle))
	assert.Equal(t, "ab.txt", Filename(`a/b`, DefaultTitle))
	assert.Equal(t, "小說翻譯稿.txt", Filename("", DefaultTitle))
	assert.Equal(t, "小說翻譯稿.txt", Filename("???", ""))
	assert.Equal(t, "draft.txt", Filename("", "draft"))
}
