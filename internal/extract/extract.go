// Package extract pulls the chapter body out of a novel page.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoContent is returned when no selector matched any text.
var ErrNoContent = errors.New("no chapter content found")

var titleSelectors = []string{".novel_subtitle", ".p-novel__title", "h1", "title"}

// Chapter is the extracted body of one page.
type Chapter struct {
	Title string
	// Lines holds one entry per paragraph, in document order. Empty entries
	// are kept; they mark blank paragraphs.
	Lines []string
}

// Text joins the lines with newlines.
func (c Chapter) Text() string {
	return strings.Join(c.Lines, "\n")
}

// Parse extracts a chapter from html. The first selector that matches a
// non-empty container wins; when none does, every <p> in the page is used.
func Parse(html string, selectors []string) (Chapter, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Chapter{}, fmt.Errorf("parse html: %w", err)
	}
	return FromDocument(doc, selectors)
}

// FromDocument is Parse for an already parsed document.
func FromDocument(doc *goquery.Document, selectors []string) (Chapter, error) {
	ch := Chapter{Title: title(doc)}

	for _, sel := range selectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}
		lines := containerLines(container)
		if hasText(lines) {
			ch.Lines = lines
			return ch, nil
		}
	}

	lines := paragraphs(doc.Selection)
	if !hasText(lines) {
		return ch, ErrNoContent
	}
	ch.Lines = lines
	return ch, nil
}

// containerLines prefers <p> children and falls back to the container's
// text split on line breaks, for pages that use <br> only.
func containerLines(container *goquery.Selection) []string {
	if lines := paragraphs(container); len(lines) > 0 {
		return lines
	}

	container.Find("br").ReplaceWithHtml("\n")
	raw := strings.Split(container.Text(), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimRight(l, " \t\r"))
	}
	return trimBlankEdges(lines)
}

func paragraphs(s *goquery.Selection) []string {
	var lines []string
	s.Find("p").Each(func(_ int, p *goquery.Selection) {
		// Ruby annotations would otherwise be glued to the base text.
		p.Find("rt, rp").Remove()
		lines = append(lines, strings.TrimSpace(p.Text()))
	})
	return trimBlankEdges(lines)
}

func title(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func hasText(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}

func trimBlankEdges(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
