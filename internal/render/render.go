// Package render writes translated chapters as a reading view and picks
// output file names.
package render

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"novel-translator/internal/pipeline"
	"novel-translator/internal/textutil"
)

const (
	MinFontSize     = 14
	MaxFontSize     = 32
	DefaultFontSize = 20

	MinLineHeight     = 1.5
	MaxLineHeight     = 3.5
	DefaultLineHeight = 2.1

	// DefaultTitle names the output when no title can be derived.
	DefaultTitle = "小說翻譯稿"
)

// View is one rendered chapter. Zero font size and line height mean the
// defaults.
type View struct {
	Title      string
	Pairs      []pipeline.Pair
	FontSize   int
	LineHeight float64
}

// Normalize fills defaults and clamps the view settings.
func (v View) Normalize() View {
	if v.FontSize == 0 {
		v.FontSize = DefaultFontSize
	}
	v.FontSize = min(max(v.FontSize, MinFontSize), MaxFontSize)

	if v.LineHeight == 0 {
		v.LineHeight = DefaultLineHeight
	}
	v.LineHeight = min(max(v.LineHeight, MinLineHeight), MaxLineHeight)

	if strings.TrimSpace(v.Title) == "" {
		v.Title = "章節內容"
	}
	return v
}

var page = template.Must(template.New("view").Parse(`<!DOCTYPE html>
<html lang="zh-Hant">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { background-color: #0F0F0F; color: #E0E0E0; margin: 0; }
.novel-container { max-width: 850px; margin: 30px auto; padding: 50px 40px; background-color: #1A1A1A; border: 1px solid #333333; border-radius: 16px; }
.novel-header { text-align: center; border-bottom: 2px solid #2D2D2D; padding-bottom: 30px; margin-bottom: 45px; }
.novel-header h2 { color: #FFFFFF; font-family: "Noto Serif TC", serif; font-size: 2.2rem; }
.paragraph-block { margin-bottom: 35px; line-height: {{.LineHeight}}; }
.translated { font-size: {{.FontSize}}px; color: #D6D6D6; text-indent: 2em; text-align: justify; }
.original { font-size: 0.85rem; color: #606060; margin-top: 10px; font-style: italic; border-left: 3px solid #4A90E2; padding-left: 15px; }
</style>
</head>
<body>
<div class="novel-container">
<div class="novel-header"><h2>{{.Title}}</h2></div>
{{- range .Pairs}}
{{- if .Gap}}
<br>
{{- else}}
<div class="paragraph-block">
<div class="translated">{{.Translated}}</div>
<div class="original">{{.Original}}</div>
</div>
{{- end}}
{{- end}}
</div>
</body>
</html>
`))

// HTML writes the reading view for v to w.
func HTML(w io.Writer, v View) error {
	if err := page.Execute(w, v.Normalize()); err != nil {
		return fmt.Errorf("render view: %w", err)
	}
	return nil
}

// Filename returns "<title>.txt", or "<fallback>.txt" when title has nothing
// usable in it.
func Filename(title, fallback string) string {
	name := textutil.FilenameTitle(title, 0)
	if name == "" {
		name = textutil.FilenameTitle(fallback, 0)
	}
	if name == "" {
		name = DefaultTitle
	}
	return name + ".txt"
}
