package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultSelectors = []string{"#novel_honbun", ".js-novel-text", ".p-novel__body", ".novel_view"}

func TestParseNarouLayout(t *testing.T) {
	t.Parallel()

	html := `<html><head><title>サイト名</title></head><body>
<p class="novel_subtitle">第一話　出会い</p>
<div class="novel_bn"><a>次へ</a></div>
<div id="novel_honbun">
  <p id="L1">「こんにちは」</p>
  <p id="L2"><br></p>
  <p id="L3">彼は<ruby>微笑<rp>(</rp><rt>ほほえ</rt><rp>)</rp></ruby>んだ。</p>
</div>
<p>フッター</p>
</body></html>`

	ch, err := Parse(html, defaultSelectors)
	require.NoError(t, err)
	assert.Equal(t, "第一話　出会い", ch.Title)
	assert.Equal(t, []string{"「こんにちは」", "", "彼は微笑んだ。"}, ch.Lines)
	assert.Equal(t, "「こんにちは」\n\n彼は微笑んだ。", ch.Text())
}

func TestParseSelectorOrder(t *testing.T) {
	t.Parallel()

	html := `<div class="novel_view"><p>second</p></div>
<div class="js-novel-text"><p>first</p></div>`

	ch, err := Parse(html, defaultSelectors)
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, ch.Lines)
}

func TestParseSkipsEmptyContainer(t *testing.T) {
	t.Parallel()

	html := `<div id="novel_honbun"><p> </p></div>
<div class="p-novel__body"><p>本文</p></div>`

	ch, err := Parse(html, defaultSelectors)
	require.NoError(t, err)
	assert.Equal(t, []string{"本文"}, ch.Lines)
}

func TestParseLineBreakContainer(t *testing.T) {
	t.Parallel()

	html := `<div class="novel_view">一行目<br>二行目<br><br>四行目</div>`

	ch, err := Parse(html, defaultSelectors)
	require.NoError(t, err)
	assert.Equal(t, []string{"一行目", "二行目", "", "四行目"}, ch.Lines)
}

func TestParseFallsBackToAllParagraphs(t *testing.T) {
	t.Parallel()

	html := `<html><head><title>タイトル</title></head><body>
<article><p>段落一</p><p>段落二</p></article></body></html>`

	ch, err := Parse(html, defaultSelectors)
	require.NoError(t, err)
	assert.Equal(t, "タイトル", ch.Title)
	assert.Equal(t, []string{"段落一", "段落二"}, ch.Lines)
}

func TestParseNoContent(t *testing.T) {
	t.Parallel()

	_, err := Parse(`<html><body><div>nothing here</div></body></html>`, defaultSelectors)
	assert.ErrorIs(t, err, ErrNoContent)
}
